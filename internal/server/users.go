package server

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"taskboard/internal/users"
)

func (s *Server) handleListUsers(c *gin.Context) {
	list, err := s.svc.Users.List(c.Request.Context())
	if err != nil {
		s.respondError(c, err)
		return
	}
	respondList(c, len(list), gin.H{"users": list})
}

func (s *Server) handleGetUser(c *gin.Context) {
	u, err := s.svc.Users.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		s.respondError(c, err)
		return
	}
	respondSuccess(c, http.StatusOK, gin.H{"user": u})
}

// handleUpdateUser edits name, email or role.
func (s *Server) handleUpdateUser(c *gin.Context) {
	var req users.Patch
	if err := c.ShouldBindJSON(&req); err != nil {
		s.respondBadRequest(c, err)
		return
	}
	u, err := s.svc.Users.Update(c.Request.Context(), c.Param("id"), req)
	if err != nil {
		s.respondError(c, err)
		return
	}
	respondSuccess(c, http.StatusOK, gin.H{"user": u})
}

func (s *Server) handleDeleteUser(c *gin.Context) {
	if err := s.svc.Users.Delete(c.Request.Context(), c.Param("id")); err != nil {
		s.respondError(c, err)
		return
	}
	respondSuccess(c, http.StatusOK, nil)
}
