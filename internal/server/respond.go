package server

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"

	"taskboard/internal/models"
)

// envelope is the body of every successful API response.
type envelope struct {
	Success bool   `json:"success"`
	Message string `json:"message,omitempty"`
	Token   string `json:"token,omitempty"`
	Results *int   `json:"results,omitempty"`
	Data    any    `json:"data"`
}

// errorBody is the body of every failed API response.
type errorBody struct {
	Success bool                `json:"success"`
	Message string              `json:"message"`
	Errors  []models.FieldError `json:"errors,omitempty"`
	Error   string              `json:"error,omitempty"`
}

// respondSuccess wraps a payload in the JSON envelope.
func respondSuccess(c *gin.Context, status int, data any) {
	c.JSON(status, envelope{Success: true, Data: data})
}

// respondList wraps a collection and its size.
func respondList(c *gin.Context, n int, data any) {
	c.JSON(http.StatusOK, envelope{Success: true, Results: &n, Data: data})
}

func abortWithMessage(c *gin.Context, status int, message string) {
	c.AbortWithStatusJSON(status, errorBody{Success: false, Message: message})
}

// respondBadRequest reports a body or parameter that could not be decoded.
func (s *Server) respondBadRequest(c *gin.Context, err error) {
	body := errorBody{Message: "Invalid request body"}
	if s.opts.Development {
		body.Error = err.Error()
	}
	c.AbortWithStatusJSON(http.StatusBadRequest, body)
}

// respondError maps a service error onto a status code and logs server faults.
func (s *Server) respondError(c *gin.Context, err error) {
	var verr *models.ValidationError
	switch {
	case errors.As(err, &verr):
		c.AbortWithStatusJSON(http.StatusBadRequest, errorBody{Message: "Validation failed", Errors: verr.Fields})
	case errors.Is(err, models.ErrMissingCredentials):
		abortWithMessage(c, http.StatusBadRequest, err.Error())
	case errors.Is(err, models.ErrInvalidCredentials), errors.Is(err, models.ErrUnauthenticated):
		abortWithMessage(c, http.StatusUnauthorized, err.Error())
	case errors.Is(err, models.ErrForbidden):
		abortWithMessage(c, http.StatusForbidden, err.Error())
	case errors.Is(err, models.ErrNotFound):
		abortWithMessage(c, http.StatusNotFound, err.Error())
	case errors.Is(err, models.ErrDuplicateEmail):
		abortWithMessage(c, http.StatusConflict, err.Error())
	default:
		s.logger.Error("request failed", slog.String("path", c.FullPath()), slog.String("error", err.Error()))
		body := errorBody{Message: "Something went wrong"}
		if s.opts.Development {
			body.Error = err.Error()
		}
		c.AbortWithStatusJSON(http.StatusInternalServerError, body)
	}
}
