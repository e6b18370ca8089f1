// Package tasks implements the task lifecycle: validation, persistence and
// the activity trail written on every mutation.
package tasks

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"

	"taskboard/internal/models"
	"taskboard/internal/storage"
)

// Store is everything the lifecycle service reads and writes.
type Store interface {
	storage.TaskStore
	storage.AuditStore
	GetUser(ctx context.Context, id string) (models.User, error)
	GetUsersByIDs(ctx context.Context, ids []string) (map[string]models.User, error)
}

// Service coordinates task mutations. Each mutation is persisted first and
// its activity entry is appended as a separate write.
type Service struct {
	store  Store
	logger *slog.Logger
	now    func() time.Time
}

// NewService constructs a lifecycle service on top of store.
func NewService(store Store, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return &Service{store: store, logger: logger, now: time.Now}
}

// Create validates and stores a new task created by actor.
func (s *Service) Create(ctx context.Context, in models.TaskInput, actor *models.User) (models.Task, error) {
	if actor == nil {
		return models.Task{}, models.ErrUnauthenticated
	}
	now := s.now().UTC()
	v := &models.ValidationError{}
	models.CheckDueDate(v, in.DueDate)
	t := models.NewTask(uuid.NewString(), in, models.UserRef{ID: actor.ID}, now)
	if err := s.validate(ctx, t, true, v); err != nil {
		return models.Task{}, err
	}

	if err := s.store.CreateTask(ctx, t); err != nil {
		return models.Task{}, fmt.Errorf("create task: %w", err)
	}
	t, err := s.record(ctx, t, models.ActionTaskCreated, actor, now)
	if err != nil {
		return models.Task{}, err
	}
	s.logger.Info("task created", slog.String("task_id", t.ID), slog.String("user_id", actor.ID))
	return s.populate(ctx, t)
}

// List returns tasks matching f, newest first, with user references populated.
func (s *Service) List(ctx context.Context, f models.TaskFilter) ([]models.Task, error) {
	f.Search = strings.TrimSpace(f.Search)
	if err := models.ValidateFilter(f); err != nil {
		return nil, err
	}
	tasks, err := s.store.ListTasks(ctx, f)
	if err != nil {
		return nil, fmt.Errorf("list tasks: %w", err)
	}
	if err := s.populateAll(ctx, tasks); err != nil {
		return nil, err
	}
	return tasks, nil
}

// Get fetches one task with its references populated.
func (s *Service) Get(ctx context.Context, id string) (models.Task, error) {
	t, err := s.store.GetTask(ctx, id)
	if err != nil {
		return models.Task{}, err
	}
	return s.populate(ctx, t)
}

// Update applies a partial change on behalf of actor.
func (s *Service) Update(ctx context.Context, id string, patch models.TaskPatch, actor *models.User) (models.Task, error) {
	if actor == nil {
		return models.Task{}, models.ErrUnauthenticated
	}
	current, err := s.store.GetTask(ctx, id)
	if err != nil {
		return models.Task{}, err
	}

	v := &models.ValidationError{}
	if patch.DueDate != nil {
		models.CheckDueDate(v, *patch.DueDate)
	}
	now := s.now().UTC()
	updated := current.Apply(patch, now)
	if err := s.validate(ctx, updated, updated.Assignee.ID != current.Assignee.ID, v); err != nil {
		return models.Task{}, err
	}
	if err := s.store.UpdateTask(ctx, updated); err != nil {
		return models.Task{}, fmt.Errorf("update task: %w", err)
	}
	updated, err = s.record(ctx, updated, models.ActionTaskUpdated, actor, now)
	if err != nil {
		return models.Task{}, err
	}
	return s.populate(ctx, updated)
}

// Delete removes a task. The "Task deleted" entry is written to the audit
// trail once the row is gone, and the final snapshot carrying it is returned.
// A caller that loses a race with another delete gets ErrTaskNotFound and
// writes no audit record.
func (s *Service) Delete(ctx context.Context, id string, actor *models.User) (models.Task, error) {
	if actor == nil {
		return models.Task{}, models.ErrUnauthenticated
	}
	t, err := s.store.GetTask(ctx, id)
	if err != nil {
		return models.Task{}, err
	}

	if err := s.store.DeleteTask(ctx, id); err != nil {
		return models.Task{}, err
	}
	entry := models.NewActivity(models.ActionTaskDeleted, models.UserRef{ID: actor.ID}, s.now().UTC())
	t = t.WithActivity(entry)
	if err := s.store.AppendAudit(ctx, t.Audit(uuid.NewString(), entry)); err != nil {
		s.logger.Error("task deleted without audit record", slog.String("task_id", id), slog.Any("error", err))
		return models.Task{}, fmt.Errorf("audit delete: %w", err)
	}
	s.logger.Info("task deleted", slog.String("task_id", id), slog.String("user_id", actor.ID))
	return s.populate(ctx, t)
}

// AddComment appends a comment by actor to the task.
func (s *Service) AddComment(ctx context.Context, id, text string, actor *models.User) (models.Task, error) {
	if actor == nil {
		return models.Task{}, models.ErrUnauthenticated
	}
	t, err := s.store.GetTask(ctx, id)
	if err != nil {
		return models.Task{}, err
	}

	now := s.now().UTC()
	c := models.Comment{
		ID:        uuid.NewString(),
		Text:      strings.TrimSpace(text),
		User:      models.UserRef{ID: actor.ID},
		CreatedAt: now,
	}
	if err := models.ValidateComment(c); err != nil {
		return models.Task{}, err
	}
	if err := s.store.AppendComment(ctx, t.ID, c); err != nil {
		return models.Task{}, fmt.Errorf("add comment: %w", err)
	}
	t, err = s.record(ctx, t.WithComment(c), models.ActionCommentAdded, actor, now)
	if err != nil {
		return models.Task{}, err
	}
	return s.populate(ctx, t)
}

// Stats aggregates every task for the dashboard.
func (s *Service) Stats(ctx context.Context) (models.Stats, error) {
	tasks, err := s.store.ListTasks(ctx, models.TaskFilter{})
	if err != nil {
		return models.Stats{}, fmt.Errorf("list tasks: %w", err)
	}
	return models.ComputeStats(tasks, s.now()), nil
}

// History returns the durable audit trail of a task, including tasks that
// have since been deleted.
func (s *Service) History(ctx context.Context, taskID string) ([]models.AuditRecord, error) {
	records, err := s.store.ListAudit(ctx, taskID)
	if err != nil {
		return nil, fmt.Errorf("list audit: %w", err)
	}
	ids := make([]string, 0, len(records))
	for _, r := range records {
		ids = append(ids, r.User.ID)
	}
	users, err := s.lookup(ctx, ids)
	if err != nil {
		return nil, err
	}
	for i := range records {
		records[i].User = resolve(users, records[i].User)
	}
	return records, nil
}

// record appends an activity entry for action to the stored task and mirrors
// it into the audit trail.
func (s *Service) record(ctx context.Context, t models.Task, action string, actor *models.User, at time.Time) (models.Task, error) {
	entry := models.NewActivity(action, models.UserRef{ID: actor.ID}, at)
	if err := s.store.AppendActivity(ctx, t.ID, entry); err != nil {
		return models.Task{}, fmt.Errorf("append activity: %w", err)
	}
	if err := s.store.AppendAudit(ctx, t.Audit(uuid.NewString(), entry)); err != nil {
		return models.Task{}, fmt.Errorf("append audit: %w", err)
	}
	return t.WithActivity(entry), nil
}

// validate adds the task's field problems to v, which may already hold input
// problems found before the task was built.
func (s *Service) validate(ctx context.Context, t models.Task, checkAssignee bool, v *models.ValidationError) error {
	var found *models.ValidationError
	if err := models.ValidateTask(t); err != nil {
		if !errors.As(err, &found) {
			return err
		}
		for _, fe := range found.Fields {
			if !v.Has(fe.Field) {
				v.Add(fe.Field, fe.Message)
			}
		}
	}
	if checkAssignee && t.Assignee.ID != "" && !v.Has("assignee") {
		_, err := s.store.GetUser(ctx, t.Assignee.ID)
		switch {
		case errors.Is(err, models.ErrNotFound):
			v.Add("assignee", "Assigned user does not exist")
		case err != nil:
			return fmt.Errorf("lookup assignee: %w", err)
		}
	}
	return v.Err()
}
