// Package users holds the administrative operations on accounts.
package users

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"strings"
	"time"

	"taskboard/internal/models"
	"taskboard/internal/storage"
)

// Patch carries the administratively editable fields. Nil fields are kept.
type Patch struct {
	Name  *string      `json:"name"`
	Email *string      `json:"email"`
	Role  *models.Role `json:"role"`
}

// Service exposes user administration on top of the identity store.
type Service struct {
	store  storage.UserStore
	logger *slog.Logger
	now    func() time.Time
}

// NewService creates an administration service.
func NewService(store storage.UserStore, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return &Service{store: store, logger: logger, now: time.Now}
}

// List returns every account, newest first.
func (s *Service) List(ctx context.Context) ([]models.User, error) {
	users, err := s.store.ListUsers(ctx)
	if err != nil {
		return nil, fmt.Errorf("list users: %w", err)
	}
	return users, nil
}

// Get returns one account.
func (s *Service) Get(ctx context.Context, id string) (models.User, error) {
	return s.store.GetUser(ctx, id)
}

// Update applies p to the account. Passwords cannot be changed here.
func (s *Service) Update(ctx context.Context, id string, p Patch) (models.User, error) {
	u, err := s.store.GetUser(ctx, id)
	if err != nil {
		return models.User{}, err
	}
	if p.Name != nil {
		u.Name = strings.TrimSpace(*p.Name)
	}
	if p.Email != nil {
		u.Email = models.NormalizeEmail(*p.Email)
	}
	if p.Role != nil {
		u.Role = *p.Role
	}
	if err := models.ValidateUser(u); err != nil {
		return models.User{}, err
	}
	u.UpdatedAt = s.now().UTC()

	if err := s.store.UpdateUser(ctx, u); err != nil {
		return models.User{}, err
	}
	s.logger.Info("user updated", slog.String("user_id", u.ID), slog.String("role", string(u.Role)))
	return u, nil
}

// Delete removes the account. Tasks that reference it are left untouched.
func (s *Service) Delete(ctx context.Context, id string) error {
	if err := s.store.DeleteUser(ctx, id); err != nil {
		return err
	}
	s.logger.Info("user deleted", slog.String("user_id", id))
	return nil
}
