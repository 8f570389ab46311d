package auth

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"time"

	"github.com/jmfitness/studio-management/internal"
	"github.com/jmfitness/studio-management/internal/core/common/validation"
	"github.com/jmfitness/studio-management/pkg/logger"
)

// Credentials is what login needs to know about an account.
type Credentials struct {
	UserID       string
	Name         string
	Email        string
	Role         Role
	PasswordHash *string
	IsActive     bool
	Deleted      bool
}

type Repository interface {
	// GetCredentials returns nil, nil when no account uses email.
	GetCredentials(ctx context.Context, email string) (*Credentials, error)
	GetIdentity(ctx context.Context, userID string) (*Identity, error)
}

// Throttle counts login attempts. cache.Guard satisfies it.
type Throttle interface {
	Hit(ctx context.Context, key string, window time.Duration) (int64, error)
	Reset(ctx context.Context, key string) error
}

type ServiceAPI interface {
	Login(ctx context.Context, dto LoginDTO) (*Session, error)
	Me(ctx context.Context, id *Identity) (*Identity, error)
	ValidateToken(token string) (*Identity, error)
	CheckPermission(token string, resource Resource, action Action, pc PermissionContext) PermissionResult
}

type Service struct {
	repo        Repository
	tokens      TokenGenerator
	throttle    Throttle
	maxAttempts int64
	window      time.Duration
	logger      *slog.Logger
}

type ServiceOption func(*Service)

// WithThrottle limits failed logins per email to max within window.
func WithThrottle(t Throttle, max int, window time.Duration) ServiceOption {
	return func(s *Service) {
		s.throttle = t
		s.maxAttempts = int64(max)
		s.window = window
	}
}

func NewService(repo Repository, tokens TokenGenerator, opts ...ServiceOption) *Service {
	s := &Service{
		repo:   repo,
		tokens: tokens,
		logger: logger.LoggerWrapper(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *Service) Login(ctx context.Context, dto LoginDTO) (*Session, error) {
	dto.Email = strings.ToLower(strings.TrimSpace(dto.Email))
	if err := validation.Struct(dto); err != nil {
		return nil, err
	}
	email := dto.Email
	key := "login:" + email

	if s.throttle != nil && s.maxAttempts > 0 {
		n, err := s.throttle.Hit(ctx, key, s.window)
		if err != nil {
			s.logger.Warn("login throttle unavailable", "error", err)
		} else if n > s.maxAttempts {
			return nil, internal.ErrTooManyAttempts
		}
	}

	creds, err := s.repo.GetCredentials(ctx, email)
	if err != nil {
		return nil, internal.NewInternalError(internal.GenericErrorMessage, err)
	}
	if creds == nil {
		return nil, internal.ErrInvalidCredentials
	}
	if creds.Deleted || !creds.IsActive {
		return nil, internal.ErrUserInactive
	}
	if creds.PasswordHash == nil || *creds.PasswordHash == "" {
		return nil, internal.ErrAccountPending
	}
	if !CheckPassword(*creds.PasswordHash, dto.Password) {
		return nil, internal.ErrInvalidCredentials
	}

	if s.throttle != nil {
		if err := s.throttle.Reset(ctx, key); err != nil {
			s.logger.Warn("failed to reset login throttle", "error", err)
		}
	}

	id := Identity{ID: creds.UserID, Name: creds.Name, Email: creds.Email, Role: creds.Role}
	token, expiresAt, err := s.tokens.Generate(id)
	if err != nil {
		return nil, internal.NewInternalError(internal.GenericErrorMessage, err)
	}

	s.logger.Info("user logged in", "user_id", id.ID, "role", id.Role)
	return &Session{Token: token, ExpiresAt: expiresAt, User: id}, nil
}

// Me reloads the caller so the name reflects the current record.
func (s *Service) Me(ctx context.Context, id *Identity) (*Identity, error) {
	if id == nil {
		return nil, internal.ErrNotAuthenticated
	}
	current, err := s.repo.GetIdentity(ctx, id.ID)
	if err != nil {
		if errors.Is(err, internal.ErrUserNotFound) {
			return nil, err
		}
		return nil, internal.NewInternalError(internal.GenericErrorMessage, err)
	}
	return current, nil
}

func (s *Service) ValidateToken(token string) (*Identity, error) {
	if token == "" {
		return nil, internal.ErrNotAuthenticated
	}
	claims, err := s.tokens.ValidateToken(token)
	if err != nil {
		return nil, err
	}
	return claims.Identity(), nil
}

// CheckPermission resolves token and consults the permission table. It never
// returns an error; failures are reported through the result.
func (s *Service) CheckPermission(token string, resource Resource, action Action, pc PermissionContext) (result PermissionResult) {
	defer func() {
		if r := recover(); r != nil {
			s.logger.Error("permission check panicked", "panic", r)
			result = PermissionResult{Error: internal.ErrPermissionCheck.Message}
		}
	}()

	if token == "" {
		return PermissionResult{Error: internal.ErrNotAuthenticated.Message}
	}
	id, err := s.ValidateToken(token)
	if err != nil {
		return PermissionResult{Error: internal.ErrInvalidToken.Message}
	}
	if err := Authorize(id, resource, action, pc); err != nil {
		return PermissionResult{User: id, Error: internal.ErrPermissionDenied.Message}
	}
	return PermissionResult{Allowed: true, User: id}
}
