// Package auth registers and authenticates users, issues session tokens and
// resolves them back to identities.
package auth

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"

	"taskboard/internal/config"
	"taskboard/internal/models"
)

// UserStore is the part of the identity store the credential service needs.
type UserStore interface {
	CreateUser(ctx context.Context, u models.User) error
	GetUser(ctx context.Context, id string) (models.User, error)
	GetUserByEmail(ctx context.Context, email string) (models.User, error)
}

// Session is returned by a successful registration or login.
type Session struct {
	Token string
	User  models.User
}

// RegisterInput carries a signup request. An empty Role means RoleUser.
type RegisterInput struct {
	Name     string      `json:"name"`
	Email    string      `json:"email"`
	Password string      `json:"password"`
	Role     models.Role `json:"role"`
}

// Service implements the credential operations.
type Service struct {
	store  UserStore
	hasher *PasswordHasher
	tokens *TokenManager
	logger *slog.Logger
	now    func() time.Time
}

// NewService wires a credential service from the auth configuration.
func NewService(store UserStore, cfg config.AuthConfig, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return &Service{
		store:  store,
		hasher: NewPasswordHasher(cfg.BcryptCost),
		tokens: NewTokenManager(cfg.JWTSecret, cfg.Issuer, cfg.TokenTTL),
		logger: logger,
		now:    time.Now,
	}
}

// Register creates an account and signs the caller in.
func (s *Service) Register(ctx context.Context, in RegisterInput) (Session, error) {
	role := in.Role
	if role == "" {
		role = models.RoleUser
	}
	now := s.now().UTC()
	u := models.User{
		ID:        uuid.NewString(),
		Name:      strings.TrimSpace(in.Name),
		Email:     models.NormalizeEmail(in.Email),
		Role:      role,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := models.ValidateRegistration(u, in.Password); err != nil {
		return Session{}, err
	}

	_, err := s.store.GetUserByEmail(ctx, u.Email)
	switch {
	case err == nil:
		return Session{}, models.ErrDuplicateEmail
	case !errors.Is(err, models.ErrNotFound):
		return Session{}, fmt.Errorf("lookup email: %w", err)
	}

	hash, err := s.hasher.Hash(in.Password)
	if err != nil {
		return Session{}, fmt.Errorf("hash password: %w", err)
	}
	u.PasswordHash = hash

	if err := s.store.CreateUser(ctx, u); err != nil {
		return Session{}, err
	}
	s.logger.Info("user registered", slog.String("user_id", u.ID), slog.String("role", string(u.Role)))
	return s.session(u)
}

// Authenticate checks an email and password pair. Unknown email and wrong
// password fail with the same error.
func (s *Service) Authenticate(ctx context.Context, email, password string) (Session, error) {
	email = models.NormalizeEmail(email)
	if email == "" || password == "" {
		return Session{}, models.ErrMissingCredentials
	}

	u, err := s.store.GetUserByEmail(ctx, email)
	if errors.Is(err, models.ErrNotFound) {
		return Session{}, models.ErrInvalidCredentials
	}
	if err != nil {
		return Session{}, fmt.Errorf("lookup email: %w", err)
	}
	if !s.hasher.Verify(password, u.PasswordHash) {
		return Session{}, models.ErrInvalidCredentials
	}
	return s.session(u)
}

// ResolveSession turns a bearer token into an identity. Any failure yields
// nil, never an error: callers treat nil as an anonymous request.
func (s *Service) ResolveSession(ctx context.Context, token string) *models.User {
	if token == "" {
		return nil
	}
	claims, err := s.tokens.Parse(token)
	if err != nil {
		s.logger.Debug("session token rejected", slog.String("error", err.Error()))
		return nil
	}

	u, err := s.store.GetUser(ctx, claims.UserID)
	if err != nil {
		if !errors.Is(err, models.ErrNotFound) {
			s.logger.Error("resolve session", slog.String("user_id", claims.UserID), slog.String("error", err.Error()))
		}
		return nil
	}
	return &u
}

// WhoAmI returns the current record of the calling user.
func (s *Service) WhoAmI(ctx context.Context, identity *models.User) (models.User, error) {
	if identity == nil {
		return models.User{}, models.ErrUnauthenticated
	}
	u, err := s.store.GetUser(ctx, identity.ID)
	if errors.Is(err, models.ErrNotFound) {
		return models.User{}, models.ErrUnauthenticated
	}
	return u, err
}

func (s *Service) session(u models.User) (Session, error) {
	token, err := s.tokens.Issue(u)
	if err != nil {
		return Session{}, fmt.Errorf("sign token: %w", err)
	}
	return Session{Token: token, User: u}, nil
}

// RequireRole reports ErrForbidden unless identity is present and holds one of roles.
func RequireRole(identity *models.User, roles ...models.Role) error {
	if identity == nil {
		return models.ErrForbidden
	}
	for _, r := range roles {
		if identity.Role == r {
			return nil
		}
	}
	return models.ErrForbidden
}
