package confirmation

import (
	"context"
	"fmt"
	"log/slog"
	"net/url"
	"strings"
	"time"

	"github.com/jmfitness/studio-management/internal"
	"github.com/jmfitness/studio-management/internal/auth"
	"github.com/jmfitness/studio-management/internal/core/common/validation"
	"github.com/jmfitness/studio-management/internal/core/database"
	userDatamodel "github.com/jmfitness/studio-management/internal/core/datamodel/user"
	"github.com/jmfitness/studio-management/pkg/logger"
)

type Repository interface {
	Create(ctx context.Context, t *userDatamodel.ConfirmationToken) error
	// FindUnused returns nil, nil when no unused token matches.
	FindUnused(ctx context.Context, token string) (*TokenOwner, error)
	SetPassword(ctx context.Context, userID, hash string) error
	// MarkUsed reports false when the token was already used.
	MarkUsed(ctx context.Context, tokenID string) (bool, error)
	DeleteExpired(ctx context.Context, before time.Time) (int64, error)
}

type ServiceAPI interface {
	Confirm(ctx context.Context, dto ConfirmDTO) error
}

type Config struct {
	TTL        time.Duration
	BCryptCost int
	BaseURL    string
}

type Service struct {
	repo   Repository
	uow    database.UnitOfWork
	mailer Mailer
	cfg    Config
	now    func() time.Time
	logger *slog.Logger
}

func NewService(repo Repository, uow database.UnitOfWork, mailer Mailer, cfg Config) *Service {
	if cfg.TTL <= 0 {
		cfg.TTL = 7 * 24 * time.Hour
	}
	lg := logger.LoggerWrapper()
	if mailer == nil {
		mailer = LogMailer{Logger: lg}
	}
	return &Service{
		repo:   repo,
		uow:    uow,
		mailer: mailer,
		cfg:    cfg,
		now:    time.Now,
		logger: lg,
	}
}

func (s *Service) WithClock(now func() time.Time) *Service {
	s.now = now
	return s
}

// Issue stores a new token for userID. Inside a unit of work the insert joins
// the caller's transaction.
func (s *Service) Issue(ctx context.Context, userID string) (*Ticket, error) {
	token, err := auth.GenerateRandomToken()
	if err != nil {
		return nil, fmt.Errorf("failed to generate confirmation token: %w", err)
	}

	expiresAt := s.now().UTC().Add(s.cfg.TTL)
	if err := s.repo.Create(ctx, &userDatamodel.ConfirmationToken{
		UserID:    userID,
		Token:     token,
		ExpiresAt: expiresAt,
	}); err != nil {
		return nil, fmt.Errorf("failed to store confirmation token: %w", err)
	}

	return &Ticket{Token: token, Link: s.link(token), ExpiresAt: expiresAt}, nil
}

// Notify sends the link of t to the account owner.
func (s *Service) Notify(ctx context.Context, kind Kind, name, email string, t *Ticket) error {
	err := s.mailer.Send(ctx, Message{
		Kind:    kind,
		To:      email,
		Name:    name,
		Subject: kind.Subject(),
		Link:    t.Link,
	})
	if err != nil {
		return fmt.Errorf("failed to send %s message: %w", kind, err)
	}
	return nil
}

// IssueReset issues a token and sends the password reset link.
func (s *Service) IssueReset(ctx context.Context, userID, name, email string) (time.Time, error) {
	t, err := s.Issue(ctx, userID)
	if err != nil {
		return time.Time{}, err
	}
	if err := s.Notify(ctx, KindPasswordReset, name, email, t); err != nil {
		return time.Time{}, err
	}
	s.logger.Info("password reset link issued", "user_id", userID, "expires_at", t.ExpiresAt)
	return t.ExpiresAt, nil
}

// Confirm redeems a token: the e-mail and CPF must match the account, and the
// new password plus the used flag are written together.
func (s *Service) Confirm(ctx context.Context, dto ConfirmDTO) error {
	dto.Token = strings.TrimSpace(dto.Token)
	dto.Email = strings.ToLower(strings.TrimSpace(dto.Email))
	dto.CPF = validation.Digits(dto.CPF)
	if err := validation.Struct(dto); err != nil {
		return err
	}

	owner, err := s.repo.FindUnused(ctx, dto.Token)
	if err != nil {
		return internal.NewInternalError(internal.GenericErrorMessage, err)
	}
	if owner == nil {
		return ErrTokenInvalid
	}
	if s.now().After(owner.ExpiresAt) {
		return ErrTokenExpired
	}
	if owner.Email != dto.Email || owner.CPF != dto.CPF {
		s.logger.Warn("confirmation identity mismatch", "user_id", owner.UserID)
		return ErrIdentityMismatch
	}

	hash, err := auth.HashPassword(dto.Password, s.cfg.BCryptCost)
	if err != nil {
		return internal.NewInternalError(internal.GenericErrorMessage, err)
	}

	err = s.uow.WithTransaction(ctx, func(ctx context.Context) error {
		if err := s.repo.SetPassword(ctx, owner.UserID, hash); err != nil {
			return err
		}
		marked, err := s.repo.MarkUsed(ctx, owner.TokenID)
		if err != nil {
			return err
		}
		if !marked {
			return ErrTokenInvalid
		}
		return nil
	})
	if err != nil {
		if _, ok := internal.IsAppError(err); ok {
			return err
		}
		return internal.NewInternalError(internal.GenericErrorMessage, err)
	}

	s.logger.Info("account confirmed", "user_id", owner.UserID)
	return nil
}

// PurgeExpired deletes tokens that expired before now.
func (s *Service) PurgeExpired(ctx context.Context) (int64, error) {
	n, err := s.repo.DeleteExpired(ctx, s.now().UTC())
	if err != nil {
		return 0, fmt.Errorf("failed to purge confirmation tokens: %w", err)
	}
	s.logger.Info("expired confirmation tokens purged", "rows", n)
	return n, nil
}

func (s *Service) link(token string) string {
	base := strings.TrimRight(s.cfg.BaseURL, "/")
	return base + "/user/confirm?token=" + url.QueryEscape(token)
}
