package server

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"taskboard/internal/auth"
)

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// handleRegister creates an account and returns a session token.
func (s *Server) handleRegister(c *gin.Context) {
	var req auth.RegisterInput
	if err := c.ShouldBindJSON(&req); err != nil {
		s.respondBadRequest(c, err)
		return
	}
	sess, err := s.svc.Auth.Register(c.Request.Context(), req)
	if err != nil {
		s.respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, envelope{Success: true, Token: sess.Token, Data: gin.H{"user": sess.User}})
}

// handleLogin exchanges credentials for a session token.
func (s *Server) handleLogin(c *gin.Context) {
	var req loginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		s.respondBadRequest(c, err)
		return
	}
	sess, err := s.svc.Auth.Authenticate(c.Request.Context(), req.Email, req.Password)
	if err != nil {
		s.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, envelope{Success: true, Token: sess.Token, Data: gin.H{"user": sess.User}})
}

// handleMe returns the caller's account.
func (s *Server) handleMe(c *gin.Context) {
	u, err := s.svc.Auth.WhoAmI(c.Request.Context(), identityFrom(c))
	if err != nil {
		s.respondError(c, err)
		return
	}
	respondSuccess(c, http.StatusOK, gin.H{"user": u})
}
