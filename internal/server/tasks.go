package server

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"taskboard/internal/models"
)

type commentRequest struct {
	Text string `json:"text"`
}

// handleListTasks returns the board, optionally filtered by query parameters.
func (s *Server) handleListTasks(c *gin.Context) {
	filter := models.TaskFilter{
		Status:   models.Status(c.Query("status")),
		Priority: models.Priority(c.Query("priority")),
		Assignee: c.Query("assignee"),
		Search:   c.Query("search"),
	}
	tasks, err := s.svc.Tasks.List(c.Request.Context(), filter)
	if err != nil {
		s.respondError(c, err)
		return
	}
	respondList(c, len(tasks), gin.H{"tasks": tasks})
}

// handleCreateTask adds a task created by the caller.
func (s *Server) handleCreateTask(c *gin.Context) {
	var req models.TaskInput
	if err := c.ShouldBindJSON(&req); err != nil {
		s.respondBadRequest(c, err)
		return
	}
	task, err := s.svc.Tasks.Create(c.Request.Context(), req, identityFrom(c))
	if err != nil {
		s.respondError(c, err)
		return
	}
	respondSuccess(c, http.StatusCreated, gin.H{"task": task})
}

// handleTaskStats serves the dashboard aggregates.
func (s *Server) handleTaskStats(c *gin.Context) {
	stats, err := s.svc.Tasks.Stats(c.Request.Context())
	if err != nil {
		s.respondError(c, err)
		return
	}
	respondSuccess(c, http.StatusOK, gin.H{"stats": stats})
}

func (s *Server) handleGetTask(c *gin.Context) {
	task, err := s.svc.Tasks.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		s.respondError(c, err)
		return
	}
	respondSuccess(c, http.StatusOK, gin.H{"task": task})
}

// handleUpdateTask applies the supplied fields; omitted fields are kept.
func (s *Server) handleUpdateTask(c *gin.Context) {
	var req models.TaskPatch
	if err := c.ShouldBindJSON(&req); err != nil {
		s.respondBadRequest(c, err)
		return
	}
	task, err := s.svc.Tasks.Update(c.Request.Context(), c.Param("id"), req, identityFrom(c))
	if err != nil {
		s.respondError(c, err)
		return
	}
	respondSuccess(c, http.StatusOK, gin.H{"task": task})
}

// handleDeleteTask removes a task completely.
func (s *Server) handleDeleteTask(c *gin.Context) {
	if _, err := s.svc.Tasks.Delete(c.Request.Context(), c.Param("id"), identityFrom(c)); err != nil {
		s.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, envelope{Success: true, Message: "Task deleted successfully"})
}

func (s *Server) handleAddComment(c *gin.Context) {
	var req commentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		s.respondBadRequest(c, err)
		return
	}
	task, err := s.svc.Tasks.AddComment(c.Request.Context(), c.Param("id"), req.Text, identityFrom(c))
	if err != nil {
		s.respondError(c, err)
		return
	}
	respondSuccess(c, http.StatusOK, gin.H{"task": task})
}

// handleTaskHistory lists the durable audit trail, which survives deletion.
func (s *Server) handleTaskHistory(c *gin.Context) {
	history, err := s.svc.Tasks.History(c.Request.Context(), c.Param("id"))
	if err != nil {
		s.respondError(c, err)
		return
	}
	respondList(c, len(history), gin.H{"history": history})
}
