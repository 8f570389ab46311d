package user

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/jmfitness/studio-management/internal"
	"github.com/jmfitness/studio-management/internal/auth"
	"github.com/jmfitness/studio-management/internal/core/common/validation"
	"github.com/jmfitness/studio-management/internal/core/database"
	"github.com/jmfitness/studio-management/pkg/logger"
)

const GeneratedPasswordLength = 12

var (
	ErrAdminsOnly   = internal.NewForbiddenError("Apenas administradores podem realizar esta ação", internal.ErrCodeRoleNotAllowed)
	ErrManagersOnly = internal.NewForbiddenError("Apenas administradores e funcionários podem alterar o status de usuários", internal.ErrCodeRoleNotAllowed)
	ErrOwnStatus    = internal.NewForbiddenError("Você não pode alterar o próprio status", internal.ErrCodePermissionDenied)
	ErrNoEmail      = internal.NewValidationError("Usuário não possui e-mail cadastrado", internal.ErrCodeValidationFailed)
)

// Summary is the minimum the service needs to know about a target user.
type Summary struct {
	ID        string
	Name      string
	Role      auth.Role
	Email     string
	IsActive  bool
	DeletedAt *time.Time
}

type Repository interface {
	AccountStore
	// GetSummary returns internal.ErrUserNotFound when id is unknown.
	GetSummary(ctx context.Context, id string) (*Summary, error)
	GetUserData(ctx context.Context, id string) (*UserData, error)
	SetActive(ctx context.Context, id string, active bool) error
	SetPassword(ctx context.Context, id, hash string) error
}

// ResetIssuer issues a password reset link and reports when it expires.
type ResetIssuer interface {
	IssueReset(ctx context.Context, userID, name, email string) (time.Time, error)
}

type ServiceAPI interface {
	CreateAdmin(ctx context.Context, actor *auth.Identity, dto CreateAdminDTO) (string, error)
	GetUserData(ctx context.Context, actor *auth.Identity, id string) (*UserData, error)
	ToggleStatus(ctx context.Context, actor *auth.Identity, id string, dto ToggleStatusDTO) error
	GeneratePassword(ctx context.Context, actor *auth.Identity, id string) (*GeneratedPassword, error)
	RequestPasswordReset(ctx context.Context, actor *auth.Identity, id string) (*ResetLink, error)
}

type Service struct {
	repo       Repository
	registrar  *Registrar
	uow        database.UnitOfWork
	resets     ResetIssuer
	bcryptCost int
	now        func() time.Time
	logger     *slog.Logger
}

func NewService(repo Repository, uow database.UnitOfWork, resets ResetIssuer, bcryptCost int) *Service {
	return &Service{
		repo:       repo,
		registrar:  NewRegistrar(repo),
		uow:        uow,
		resets:     resets,
		bcryptCost: bcryptCost,
		now:        time.Now,
		logger:     logger.LoggerWrapper(),
	}
}

func (s *Service) WithClock(now func() time.Time) *Service {
	s.now = now
	return s
}

func (s *Service) CreateAdmin(ctx context.Context, actor *auth.Identity, dto CreateAdminDTO) (string, error) {
	if err := auth.CanCreateUserType(actor, auth.RoleAdmin); err != nil {
		return "", err
	}

	dto.Normalize()
	if err := validation.Struct(dto); err != nil {
		return "", err
	}
	born, _ := validation.ParseDate(dto.BornDate)
	if err := CheckAge(born, s.now(), MinAdultAge, MaxAge); err != nil {
		return "", err
	}

	hash, err := auth.HashPassword(dto.Password, s.bcryptCost)
	if err != nil {
		return "", internal.NewInternalError("Erro ao criar administrador. Tente novamente.", err)
	}

	var adminID string
	err = s.uow.WithTransaction(ctx, func(ctx context.Context) error {
		id, err := s.registrar.Register(ctx, Account{
			Role:         auth.RoleAdmin,
			Personal:     dto.PersonalDTO,
			PasswordHash: &hash,
		})
		adminID = id
		return err
	})
	if err != nil {
		if _, ok := internal.IsAppError(err); ok {
			return "", err
		}
		return "", internal.NewInternalError("Erro ao criar administrador. Tente novamente.", err)
	}

	s.logger.Info("admin created", "actor_id", actor.ID, "admin_id", adminID)
	return adminID, nil
}

func (s *Service) GetUserData(ctx context.Context, actor *auth.Identity, id string) (*UserData, error) {
	target, err := s.summary(ctx, actor, id)
	if err != nil {
		return nil, err
	}
	if err := auth.Authorize(actor, auth.ResourceUsers, auth.ActionRead, auth.PermissionContext{
		TargetUserID:   target.ID,
		TargetUserType: target.Role,
	}); err != nil {
		return nil, err
	}

	data, err := s.repo.GetUserData(ctx, id)
	if err != nil {
		if errors.Is(err, internal.ErrUserNotFound) {
			return nil, err
		}
		return nil, internal.NewInternalError("Erro ao carregar dados do usuário", err)
	}
	return data, nil
}

// ToggleStatus activates or deactivates a login. Admin accounts stay active.
func (s *Service) ToggleStatus(ctx context.Context, actor *auth.Identity, id string, dto ToggleStatusDTO) error {
	if err := validation.Struct(dto); err != nil {
		return err
	}
	target, err := s.summary(ctx, actor, id)
	if err != nil {
		return err
	}
	if err := auth.CanUpdateUserType(actor, target.Role, target.ID); err != nil {
		return err
	}
	if actor.Role != auth.RoleAdmin && actor.Role != auth.RoleFuncionario {
		return ErrManagersOnly
	}
	if target.Role == auth.RoleAdmin {
		return internal.ErrProtectedAccount
	}
	if target.ID == actor.ID {
		return ErrOwnStatus
	}

	if err := s.repo.SetActive(ctx, id, *dto.IsActive); err != nil {
		return internal.NewInternalError("Erro ao atualizar status do usuário", err)
	}

	s.logger.Info("user status changed", "actor_id", actor.ID, "user_id", id, "is_active", *dto.IsActive)
	return nil
}

// GeneratePassword replaces the password with a random one and returns it in
// clear text once, for the admin to hand over.
func (s *Service) GeneratePassword(ctx context.Context, actor *auth.Identity, id string) (*GeneratedPassword, error) {
	target, err := s.summary(ctx, actor, id)
	if err != nil {
		return nil, err
	}
	if err := auth.CanUpdateUserType(actor, target.Role, target.ID); err != nil {
		return nil, err
	}
	if actor.Role != auth.RoleAdmin {
		return nil, ErrAdminsOnly
	}

	password, err := auth.GeneratePassword(GeneratedPasswordLength)
	if err != nil {
		return nil, internal.NewInternalError("Erro ao gerar senha. Tente novamente.", err)
	}
	hash, err := auth.HashPassword(password, s.bcryptCost)
	if err != nil {
		return nil, internal.NewInternalError("Erro ao gerar senha. Tente novamente.", err)
	}
	if err := s.repo.SetPassword(ctx, id, hash); err != nil {
		return nil, internal.NewInternalError("Erro ao gerar senha. Tente novamente.", err)
	}

	s.logger.Info("password generated", "actor_id", actor.ID, "user_id", id)
	return &GeneratedPassword{Password: password}, nil
}

func (s *Service) RequestPasswordReset(ctx context.Context, actor *auth.Identity, id string) (*ResetLink, error) {
	target, err := s.summary(ctx, actor, id)
	if err != nil {
		return nil, err
	}
	if err := auth.CanUpdateUserType(actor, target.Role, target.ID); err != nil {
		return nil, err
	}
	if actor.Role != auth.RoleAdmin && actor.Role != auth.RoleFuncionario {
		return nil, ErrManagersOnly
	}
	if target.Email == "" {
		return nil, ErrNoEmail
	}

	expiresAt, err := s.resets.IssueReset(ctx, target.ID, target.Name, target.Email)
	if err != nil {
		return nil, internal.NewInternalError("Erro ao enviar link de redefinição. Tente novamente.", err)
	}

	s.logger.Info("password reset requested", "actor_id", actor.ID, "user_id", id)
	return &ResetLink{Email: target.Email, ExpiresAt: expiresAt}, nil
}

func (s *Service) summary(ctx context.Context, actor *auth.Identity, id string) (*Summary, error) {
	if actor == nil {
		return nil, internal.ErrNotAuthenticated
	}
	target, err := s.repo.GetSummary(ctx, id)
	if err != nil {
		if errors.Is(err, internal.ErrUserNotFound) {
			return nil, err
		}
		return nil, internal.NewInternalError(internal.GenericErrorMessage, err)
	}
	return target, nil
}
