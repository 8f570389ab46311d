package employee

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"time"

	"github.com/jmfitness/studio-management/internal"
	"github.com/jmfitness/studio-management/internal/auth"
	"github.com/jmfitness/studio-management/internal/core/common/validation"
	"github.com/jmfitness/studio-management/internal/core/database"
	employeeDatamodel "github.com/jmfitness/studio-management/internal/core/datamodel/employee"
	"github.com/jmfitness/studio-management/internal/user"
	"github.com/jmfitness/studio-management/pkg/dates"
	"github.com/jmfitness/studio-management/pkg/logger"
	"github.com/jmfitness/studio-management/pkg/money"
	"github.com/jmfitness/studio-management/pkg/sanitize"
)

type ServiceAPI interface {
	Create(ctx context.Context, actor *auth.Identity, dto CreateEmployeeDTO) (*Created, error)
	List(ctx context.Context, actor *auth.Identity, includeDeleted bool) ([]Employee, error)
	Update(ctx context.Context, actor *auth.Identity, id string, dto UpdateEmployeeDTO) error
	SoftDelete(ctx context.Context, actor *auth.Identity, id string) error
	Restore(ctx context.Context, actor *auth.Identity, id string) error
	SalaryHistory(ctx context.Context, actor *auth.Identity, id string) ([]SalaryChange, error)
}

type Service struct {
	repo       Repository
	registrar  *user.Registrar
	uow        database.UnitOfWork
	bcryptCost int
	now        func() time.Time
	logger     *slog.Logger
}

func NewService(repo Repository, registrar *user.Registrar, uow database.UnitOfWork, bcryptCost int) *Service {
	return &Service{
		repo:       repo,
		registrar:  registrar,
		uow:        uow,
		bcryptCost: bcryptCost,
		now:        time.Now,
		logger:     logger.LoggerWrapper(),
	}
}

func (s *Service) WithClock(now func() time.Time) *Service {
	s.now = now
	return s
}

// Create registers a funcionario or professor: users, personal_data and
// employees rows are written in one transaction.
func (s *Service) Create(ctx context.Context, actor *auth.Identity, dto CreateEmployeeDTO) (*Created, error) {
	if actor == nil {
		return nil, internal.ErrNotAuthenticated
	}

	dto.Normalize()
	dto.Position = sanitize.Text(dto.Position)
	dto.Shift = sanitize.Text(dto.Shift)
	if err := validation.Struct(dto); err != nil {
		return nil, err
	}
	role := auth.Role(dto.Role)
	if err := auth.CanCreateUserType(actor, role); err != nil {
		return nil, err
	}

	born, _ := validation.ParseDate(dto.BornDate)
	if err := user.CheckAge(born, s.now(), user.MinAdultAge, user.MaxAge); err != nil {
		return nil, err
	}
	hireDate, _ := validation.ParseDate(dto.HireDate)

	hash, err := auth.HashPassword(dto.Password, s.bcryptCost)
	if err != nil {
		return nil, internal.NewInternalError("Erro ao criar funcionário. Tente novamente.", err)
	}

	created := &Created{}
	err = s.uow.WithTransaction(ctx, func(ctx context.Context) error {
		userID, err := s.registrar.Register(ctx, user.Account{
			Role:         role,
			Personal:     dto.PersonalDTO,
			PasswordHash: &hash,
		})
		if err != nil {
			return err
		}

		e := &employeeDatamodel.Employee{
			UserID:         userID,
			Position:       dto.Position,
			Shift:          dto.Shift,
			ShiftStartTime: dto.ShiftStartTime,
			ShiftEndTime:   dto.ShiftEndTime,
			SalaryInCents:  dto.SalaryInCents,
			HireDate:       hireDate,
		}
		if err := s.repo.Insert(ctx, e); err != nil {
			return err
		}
		created.UserID, created.EmployeeID = userID, e.ID
		return nil
	})
	if err != nil {
		if _, ok := internal.IsAppError(err); ok {
			return nil, err
		}
		s.logger.Error("failed to create employee", "actor_id", actor.ID, "error", err)
		return nil, internal.NewInternalError("Erro ao criar funcionário. Tente novamente.", err)
	}

	s.logger.Info("employee created",
		"actor_id", actor.ID,
		"employee_id", created.EmployeeID,
		"role", role)
	return created, nil
}

func (s *Service) List(ctx context.Context, actor *auth.Identity, includeDeleted bool) ([]Employee, error) {
	if err := auth.Authorize(actor, auth.ResourceEmployees, auth.ActionRead, auth.PermissionContext{}); err != nil {
		return nil, err
	}

	rows, err := s.repo.List(ctx, includeDeleted)
	if err != nil {
		return nil, internal.NewInternalError("Erro ao carregar lista de funcionários", err)
	}

	out := make([]Employee, 0, len(rows))
	for _, r := range rows {
		out = append(out, Employee{
			ID:              r.UserID,
			EmployeeID:      r.EmployeeID,
			Name:            r.Name,
			Role:            r.Role,
			CPF:             r.CPF,
			Email:           r.Email,
			Telephone:       r.Telephone,
			Address:         r.Address,
			BornDate:        r.BornDate.Format(validation.DateLayout),
			Sex:             r.Sex,
			Position:        r.Position,
			Shift:           r.Shift,
			ShiftStartTime:  r.ShiftStartTime,
			ShiftEndTime:    r.ShiftEndTime,
			SalaryInCents:   r.SalaryInCents,
			SalaryFormatted: money.FormatBRL(r.SalaryInCents),
			HireDate:        r.HireDate.Format(validation.DateLayout),
			CreatedAt:       r.CreatedAt,
			DeletedAt:       r.DeletedAt,
		})
	}
	return out, nil
}

// Update applies the present fields. A salary change also appends a salary
// history row, in the same transaction, attributed to the caller.
func (s *Service) Update(ctx context.Context, actor *auth.Identity, id string, dto UpdateEmployeeDTO) error {
	if actor == nil {
		return internal.ErrNotAuthenticated
	}
	normalizeUpdate(&dto)
	if err := validation.Struct(dto); err != nil {
		return err
	}
	if dto.CurrentUserID != nil && *dto.CurrentUserID != actor.ID {
		return ErrCurrentUserMismatch
	}

	rec, err := s.get(ctx, id)
	if err != nil {
		return err
	}
	if err := auth.CanUpdateUserType(actor, rec.Role, rec.UserID); err != nil {
		return err
	}
	if dto.touchesEmployment() {
		if err := auth.Authorize(actor, auth.ResourceEmployees, auth.ActionUpdate, auth.PermissionContext{
			TargetUserID:   rec.UserID,
			TargetUserType: rec.Role,
		}); err != nil {
			return err
		}
	}

	changes := Changes{
		User:     map[string]interface{}{},
		Personal: map[string]interface{}{},
		Employee: map[string]interface{}{},
	}
	if dto.Name != nil {
		changes.User["name"] = *dto.Name
	}
	if dto.Email != nil {
		if err := s.registrar.EnsureAvailable(ctx, "", *dto.Email, rec.UserID); err != nil {
			return err
		}
		changes.Personal["email"] = *dto.Email
	}
	if dto.Telephone != nil {
		changes.Personal["telephone"] = *dto.Telephone
	}
	if dto.Address != nil {
		changes.Personal["address"] = *dto.Address
	}
	if dto.Position != nil {
		changes.Employee["position"] = *dto.Position
	}
	if dto.Shift != nil {
		changes.Employee["shift"] = *dto.Shift
	}
	if dto.ShiftStartTime != nil {
		changes.Employee["shift_start_time"] = *dto.ShiftStartTime
	}
	if dto.ShiftEndTime != nil {
		changes.Employee["shift_end_time"] = *dto.ShiftEndTime
	}

	var history *employeeDatamodel.SalaryHistory
	if dto.SalaryInCents != nil && *dto.SalaryInCents != rec.SalaryInCents {
		changes.Employee["salary_in_cents"] = *dto.SalaryInCents
		history = s.salaryChange(rec, actor.ID, dto)
	}
	if changes.Empty() {
		return ErrNothingToUpdate
	}

	err = s.uow.WithTransaction(ctx, func(ctx context.Context) error {
		if err := s.repo.Apply(ctx, rec, changes); err != nil {
			return err
		}
		if history != nil {
			return s.repo.InsertSalaryChange(ctx, history)
		}
		return nil
	})
	if err != nil {
		if dup := user.MapUniqueViolation(err); dup != nil {
			return dup
		}
		s.logger.Error("failed to update employee", "employee_id", id, "error", err)
		return internal.NewInternalError("Erro ao atualizar funcionário", err)
	}

	s.logger.Info("employee updated",
		"actor_id", actor.ID,
		"employee_id", id,
		"salary_changed", history != nil)
	return nil
}

func (s *Service) salaryChange(rec *Record, changedBy string, dto UpdateEmployeeDTO) *employeeDatamodel.SalaryHistory {
	reason := DefaultSalaryChangeReason
	if dto.SalaryChangeReason != nil && *dto.SalaryChangeReason != "" {
		reason = *dto.SalaryChangeReason
	}
	effective := dates.Day(s.now())
	if dto.SalaryEffectiveDate != nil {
		effective, _ = validation.ParseDate(*dto.SalaryEffectiveDate)
	}
	return &employeeDatamodel.SalaryHistory{
		EmployeeID:            rec.EmployeeID,
		PreviousSalaryInCents: rec.SalaryInCents,
		NewSalaryInCents:      *dto.SalaryInCents,
		ChangeReason:          reason,
		ChangedBy:             changedBy,
		EffectiveDate:         effective,
	}
}

func (s *Service) SoftDelete(ctx context.Context, actor *auth.Identity, id string) error {
	rec, err := s.authorizeDelete(ctx, actor, id)
	if err != nil {
		return err
	}
	if rec.DeletedAt != nil {
		return nil
	}

	now := s.now()
	if err := s.uow.WithTransaction(ctx, func(ctx context.Context) error {
		return s.repo.SetDeleted(ctx, rec, &now)
	}); err != nil {
		return internal.NewInternalError("Erro ao desativar funcionário", err)
	}

	s.logger.Info("employee deactivated", "actor_id", actor.ID, "employee_id", id)
	return nil
}

func (s *Service) Restore(ctx context.Context, actor *auth.Identity, id string) error {
	rec, err := s.authorizeDelete(ctx, actor, id)
	if err != nil {
		return err
	}
	if rec.DeletedAt == nil {
		return nil
	}

	if err := s.uow.WithTransaction(ctx, func(ctx context.Context) error {
		return s.repo.SetDeleted(ctx, rec, nil)
	}); err != nil {
		return internal.NewInternalError("Erro ao reativar funcionário", err)
	}

	s.logger.Info("employee restored", "actor_id", actor.ID, "employee_id", id)
	return nil
}

func (s *Service) SalaryHistory(ctx context.Context, actor *auth.Identity, id string) ([]SalaryChange, error) {
	if actor == nil {
		return nil, internal.ErrNotAuthenticated
	}
	rec, err := s.get(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := auth.Authorize(actor, auth.ResourceEmployees, auth.ActionRead, auth.PermissionContext{
		TargetUserID:   rec.UserID,
		TargetUserType: rec.Role,
	}); err != nil {
		return nil, err
	}

	rows, err := s.repo.SalaryHistory(ctx, id)
	if err != nil {
		return nil, internal.NewInternalError("Erro ao carregar histórico de salários", err)
	}

	out := make([]SalaryChange, 0, len(rows))
	for _, r := range rows {
		out = append(out, SalaryChange{
			ID:                      r.ID,
			PreviousSalaryInCents:   r.PreviousSalaryInCents,
			NewSalaryInCents:        r.NewSalaryInCents,
			PreviousSalaryFormatted: money.FormatBRL(r.PreviousSalaryInCents),
			NewSalaryFormatted:      money.FormatBRL(r.NewSalaryInCents),
			ChangeReason:            r.ChangeReason,
			ChangedBy:               r.ChangedBy,
			ChangedByName:           r.ChangedByName,
			EffectiveDate:           r.EffectiveDate.Format(validation.DateLayout),
			CreatedAt:               r.CreatedAt,
		})
	}
	return out, nil
}

func (s *Service) authorizeDelete(ctx context.Context, actor *auth.Identity, id string) (*Record, error) {
	if actor == nil {
		return nil, internal.ErrNotAuthenticated
	}
	rec, err := s.get(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := auth.Authorize(actor, auth.ResourceEmployees, auth.ActionDelete, auth.PermissionContext{
		TargetUserID:   rec.UserID,
		TargetUserType: rec.Role,
	}); err != nil {
		return nil, err
	}
	return rec, nil
}

func (s *Service) get(ctx context.Context, id string) (*Record, error) {
	rec, err := s.repo.Get(ctx, id)
	if err != nil {
		if errors.Is(err, internal.ErrEmployeeNotFound) {
			return nil, err
		}
		return nil, internal.NewInternalError(internal.GenericErrorMessage, err)
	}
	return rec, nil
}

func normalizeUpdate(dto *UpdateEmployeeDTO) {
	trim := func(p *string, clean func(string) string) {
		if p != nil {
			*p = clean(*p)
		}
	}
	trim(dto.Name, sanitize.Text)
	trim(dto.Email, user.NormalizeEmail)
	trim(dto.Telephone, strings.TrimSpace)
	trim(dto.Address, sanitize.Text)
	trim(dto.Position, sanitize.Text)
	trim(dto.Shift, sanitize.Text)
	trim(dto.SalaryChangeReason, sanitize.Text)
}
