package tasks

import (
	"context"
	"fmt"

	"taskboard/internal/models"
)

func (s *Service) populate(ctx context.Context, t models.Task) (models.Task, error) {
	tasks := []models.Task{t}
	if err := s.populateAll(ctx, tasks); err != nil {
		return models.Task{}, err
	}
	return tasks[0], nil
}

// populateAll resolves every user reference of tasks in place with one
// store lookup. References to deleted users keep only their id.
func (s *Service) populateAll(ctx context.Context, tasks []models.Task) error {
	var ids []string
	for _, t := range tasks {
		ids = append(ids, t.Assignee.ID, t.CreatedBy.ID)
		for _, c := range t.Comments {
			ids = append(ids, c.User.ID)
		}
		for _, e := range t.ActivityLog {
			ids = append(ids, e.User.ID)
		}
	}
	users, err := s.lookup(ctx, ids)
	if err != nil {
		return err
	}

	for i := range tasks {
		t := &tasks[i]
		t.Assignee = resolve(users, t.Assignee)
		t.CreatedBy = resolve(users, t.CreatedBy)
		for j := range t.Comments {
			t.Comments[j].User = resolve(users, t.Comments[j].User)
		}
		for j := range t.ActivityLog {
			t.ActivityLog[j].User = resolve(users, t.ActivityLog[j].User)
		}
	}
	return nil
}

func (s *Service) lookup(ctx context.Context, ids []string) (map[string]models.User, error) {
	seen := make(map[string]struct{}, len(ids))
	unique := make([]string, 0, len(ids))
	for _, id := range ids {
		if id == "" {
			continue
		}
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		unique = append(unique, id)
	}
	users, err := s.store.GetUsersByIDs(ctx, unique)
	if err != nil {
		return nil, fmt.Errorf("populate users: %w", err)
	}
	return users, nil
}

func resolve(users map[string]models.User, ref models.UserRef) models.UserRef {
	if u, ok := users[ref.ID]; ok {
		return u.Ref()
	}
	return models.UserRef{ID: ref.ID}
}
