package server

import (
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"

	"taskboard/internal/auth"
	"taskboard/internal/models"
	"taskboard/internal/tasks"
	"taskboard/internal/users"
)

// Services bundles the application services behind the HTTP API.
type Services struct {
	Auth  *auth.Service
	Tasks *tasks.Service
	Users *users.Service
}

// Options tunes presentation behaviour.
type Options struct {
	StaticDir string
	// Development exposes internal error details in responses.
	Development bool
}

// Server provides HTTP handlers for the task board backend.
type Server struct {
	engine *gin.Engine
	svc    Services
	logger *slog.Logger
	opts   Options
}

// New constructs the HTTP server with routes and middleware configured.
func New(svc Services, logger *slog.Logger, opts Options) *Server {
	if logger == nil {
		logger = slog.Default()
	}

	gin.SetMode(gin.ReleaseMode)
	router := gin.New()
	router.Use(gin.Recovery())

	srv := &Server{
		engine: router,
		svc:    svc,
		logger: logger,
		opts:   opts,
	}
	router.Use(srv.requestLogger(), cors())

	srv.registerRoutes()
	return srv
}

// Engine exposes the underlying Gin engine.
func (s *Server) Engine() *gin.Engine {
	return s.engine
}

// registerRoutes wires all API and static handlers together.
func (s *Server) registerRoutes() {
	api := s.engine.Group("/api")
	api.Use(s.authenticate())
	{
		api.GET("/healthz", s.handleHealth)

		authGroup := api.Group("/auth")
		{
			authGroup.POST("/register", s.handleRegister)
			authGroup.POST("/signup", s.handleRegister)
			authGroup.POST("/login", s.handleLogin)
			authGroup.GET("/me", requireIdentity(), s.handleMe)
		}

		taskGroup := api.Group("/tasks", requireIdentity())
		{
			taskGroup.GET("", s.handleListTasks)
			taskGroup.POST("", s.handleCreateTask)
			taskGroup.GET("/stats", s.handleTaskStats)
			taskGroup.GET("/:id", s.handleGetTask)
			taskGroup.PATCH("/:id", s.handleUpdateTask)
			taskGroup.PUT("/:id", s.handleUpdateTask)
			taskGroup.DELETE("/:id", s.handleDeleteTask)
			taskGroup.POST("/:id/comments", s.handleAddComment)
			taskGroup.GET("/:id/history", s.handleTaskHistory)
		}

		userGroup := api.Group("/users", requireIdentity(), requireRole(models.RoleAdmin))
		{
			userGroup.GET("", s.handleListUsers)
			userGroup.GET("/:id", s.handleGetUser)
			userGroup.PATCH("/:id", s.handleUpdateUser)
			userGroup.DELETE("/:id", s.handleDeleteUser)
		}
	}

	s.mountStatic()
}

// handleHealth provides a basic readiness endpoint.
func (s *Server) handleHealth(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}
