package server

import (
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"taskboard/internal/auth"
	"taskboard/internal/models"
)

const identityKey = "identity"

// requestLogger writes one structured record per API request.
func (s *Server) requestLogger() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		if !strings.HasPrefix(c.Request.URL.Path, "/api") {
			return
		}
		s.logger.Info("request",
			slog.String("method", c.Request.Method),
			slog.String("path", c.Request.URL.Path),
			slog.Int("status", c.Writer.Status()),
			slog.Duration("latency", time.Since(start)),
			slog.String("client_ip", c.ClientIP()),
		)
	}
}

// cors allows the board frontend to be served from another origin during development.
func cors() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Header("Access-Control-Allow-Origin", "*")
		c.Header("Access-Control-Allow-Methods", "GET, POST, PUT, PATCH, DELETE, OPTIONS")
		c.Header("Access-Control-Allow-Headers", "Origin, Content-Type, Accept, Authorization")

		if c.Request.Method == http.MethodOptions {
			c.AbortWithStatus(http.StatusNoContent)
			return
		}
		c.Next()
	}
}

// authenticate resolves the bearer token into an identity. Requests without
// a usable token carry on anonymously.
func (s *Server) authenticate() gin.HandlerFunc {
	return func(c *gin.Context) {
		if identity := s.svc.Auth.ResolveSession(c.Request.Context(), bearerToken(c)); identity != nil {
			c.Set(identityKey, identity)
		}
		c.Next()
	}
}

// requireIdentity rejects anonymous requests.
func requireIdentity() gin.HandlerFunc {
	return func(c *gin.Context) {
		if identityFrom(c) == nil {
			abortWithMessage(c, http.StatusUnauthorized, "You are not logged in. Please log in to get access.")
			return
		}
		c.Next()
	}
}

// requireRole rejects callers whose role is not in roles.
func requireRole(roles ...models.Role) gin.HandlerFunc {
	return func(c *gin.Context) {
		if err := auth.RequireRole(identityFrom(c), roles...); err != nil {
			abortWithMessage(c, http.StatusForbidden, err.Error())
			return
		}
		c.Next()
	}
}

func bearerToken(c *gin.Context) string {
	header := c.GetHeader("Authorization")
	token, ok := strings.CutPrefix(header, "Bearer ")
	if !ok {
		return ""
	}
	return strings.TrimSpace(token)
}

func identityFrom(c *gin.Context) *models.User {
	v, ok := c.Get(identityKey)
	if !ok {
		return nil
	}
	u, _ := v.(*models.User)
	return u
}
