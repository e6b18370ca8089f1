// Package storage declares the persistence contract shared by the SQLite and
// MongoDB engines.
package storage

import (
	"context"

	"taskboard/internal/models"
)

// UserStore holds user accounts.
type UserStore interface {
	CreateUser(ctx context.Context, u models.User) error
	GetUser(ctx context.Context, id string) (models.User, error)
	GetUserByEmail(ctx context.Context, email string) (models.User, error)
	GetUsersByIDs(ctx context.Context, ids []string) (map[string]models.User, error)
	ListUsers(ctx context.Context) ([]models.User, error)
	UpdateUser(ctx context.Context, u models.User) error
	DeleteUser(ctx context.Context, id string) error
}

// TaskStore holds tasks with their embedded comments and activity logs.
type TaskStore interface {
	CreateTask(ctx context.Context, t models.Task) error
	GetTask(ctx context.Context, id string) (models.Task, error)
	ListTasks(ctx context.Context, f models.TaskFilter) ([]models.Task, error)
	UpdateTask(ctx context.Context, t models.Task) error
	AppendComment(ctx context.Context, taskID string, c models.Comment) error
	AppendActivity(ctx context.Context, taskID string, e models.ActivityEntry) error
	DeleteTask(ctx context.Context, id string) error
}

// AuditStore holds the durable audit trail.
type AuditStore interface {
	AppendAudit(ctx context.Context, rec models.AuditRecord) error
	ListAudit(ctx context.Context, taskID string) ([]models.AuditRecord, error)
}

// Store is a complete persistence engine.
type Store interface {
	UserStore
	TaskStore
	AuditStore
	Close() error
}
