package timerecord

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/jmfitness/studio-management/internal"
	"github.com/jmfitness/studio-management/internal/auth"
	"github.com/jmfitness/studio-management/internal/core/common/validation"
	employeeDatamodel "github.com/jmfitness/studio-management/internal/core/datamodel/employee"
	"github.com/jmfitness/studio-management/pkg/dates"
	"github.com/jmfitness/studio-management/pkg/logger"
	"github.com/jmfitness/studio-management/pkg/sanitize"
)

type ServiceAPI interface {
	Register(ctx context.Context, actor *auth.Identity, dto RegisterDTO) (*Registered, error)
	List(ctx context.Context, actor *auth.Identity, employeeID string, from, to *time.Time) ([]Record, error)
	Approve(ctx context.Context, actor *auth.Identity, id string) error
}

type Service struct {
	repo   Repository
	now    func() time.Time
	logger *slog.Logger
}

func NewService(repo Repository) *Service {
	return &Service{
		repo:   repo,
		now:    time.Now,
		logger: logger.LoggerWrapper(),
	}
}

func (s *Service) WithClock(now func() time.Time) *Service {
	s.now = now
	return s
}

// Register writes the entry for the day, or the exit when an entry already
// exists, computing the worked hours.
func (s *Service) Register(ctx context.Context, actor *auth.Identity, dto RegisterDTO) (*Registered, error) {
	if actor == nil {
		return nil, internal.ErrNotAuthenticated
	}
	if err := validation.Struct(dto); err != nil {
		return nil, err
	}

	emp, err := s.owner(ctx, actor, dto.EmployeeID)
	if err != nil {
		return nil, err
	}
	if err := auth.Authorize(actor, auth.ResourceTimeRecords, auth.ActionCreate, auth.PermissionContext{
		TargetUserID: emp.UserID,
	}); err != nil {
		return nil, err
	}

	now := s.now()
	day := dates.Day(now)
	if dto.Date != nil {
		day, _ = validation.ParseDate(*dto.Date)
	}
	clock := dates.ClockHHMM(now)
	notes := sanitize.OptionalText(dto.Notes)

	existing, err := s.repo.FindOn(ctx, emp.ID, day)
	if err != nil {
		return nil, internal.NewInternalError("Erro ao registrar ponto", err)
	}

	if existing == nil {
		rec := &employeeDatamodel.TimeRecord{
			EmployeeID:  emp.ID,
			Date:        day,
			CheckInTime: valueOr(dto.CheckInTime, clock),
			Notes:       notes,
		}
		if dto.CheckOutTime != nil {
			minutes, err := WorkedMinutes(rec.CheckInTime, *dto.CheckOutTime)
			if err != nil {
				return nil, internal.NewValidationFieldError("checkOutTime", "Saída deve estar no formato HH:MM")
			}
			total := FormatDuration(minutes)
			rec.CheckOutTime = dto.CheckOutTime
			rec.TotalHours = &total
		}
		if err := s.repo.Insert(ctx, rec); err != nil {
			return nil, internal.NewInternalError("Erro ao registrar ponto", err)
		}
		s.logger.Info("time record opened", "employee_id", emp.ID, "date", day.Format(validation.DateLayout))
		return &Registered{Kind: KindEntry, Record: toRecord(rec)}, nil
	}

	if existing.CheckOutTime != nil {
		return nil, ErrAlreadyClosed
	}

	out := valueOr(dto.CheckOutTime, clock)
	minutes, err := WorkedMinutes(existing.CheckInTime, out)
	if err != nil {
		return nil, internal.NewInternalError("Erro ao registrar ponto", err)
	}
	total := FormatDuration(minutes)
	fields := map[string]interface{}{
		"check_out_time": out,
		"total_hours":    total,
	}
	if notes != nil {
		fields["notes"] = *notes
		existing.Notes = notes
	}
	if err := s.repo.Update(ctx, existing.ID, fields); err != nil {
		return nil, internal.NewInternalError("Erro ao registrar ponto", err)
	}
	existing.CheckOutTime = &out
	existing.TotalHours = &total

	s.logger.Info("time record closed", "employee_id", emp.ID, "total_hours", total)
	return &Registered{Kind: KindExit, Record: toRecord(existing)}, nil
}

// List returns the records of employeeID between from and to, newest first.
// The range defaults to the current month and the employee to the caller.
func (s *Service) List(ctx context.Context, actor *auth.Identity, employeeID string, from, to *time.Time) ([]Record, error) {
	if actor == nil {
		return nil, internal.ErrNotAuthenticated
	}
	emp, err := s.owner(ctx, actor, employeeID)
	if err != nil {
		return nil, err
	}
	if err := auth.Authorize(actor, auth.ResourceTimeRecords, auth.ActionRead, auth.PermissionContext{
		TargetUserID: emp.UserID,
	}); err != nil {
		return nil, err
	}

	now := s.now()
	start, end := dates.MonthRange(now.Year(), now.Month())
	if from != nil {
		start = dates.Day(*from)
	}
	if to != nil {
		end = dates.Day(*to)
	}
	if end.Before(start) {
		return nil, internal.NewValidationError("Data final deve ser posterior à data inicial", internal.ErrCodeInvalidPeriod)
	}

	rows, err := s.repo.List(ctx, emp.ID, start, end)
	if err != nil {
		return nil, internal.NewInternalError("Erro ao carregar registros de ponto", err)
	}
	out := make([]Record, 0, len(rows))
	for i := range rows {
		out = append(out, toRecord(&rows[i]))
	}
	return out, nil
}

func (s *Service) Approve(ctx context.Context, actor *auth.Identity, id string) error {
	if err := auth.Authorize(actor, auth.ResourceTimeRecords, auth.ActionUpdate, auth.PermissionContext{}); err != nil {
		return err
	}
	if _, err := s.repo.Get(ctx, id); err != nil {
		if errors.Is(err, internal.ErrTimeRecordNotFound) {
			return err
		}
		return internal.NewInternalError("Erro ao aprovar ponto", err)
	}

	if err := s.repo.Update(ctx, id, map[string]interface{}{"approved": true, "approved_by": actor.ID}); err != nil {
		return internal.NewInternalError("Erro ao aprovar ponto", err)
	}
	s.logger.Info("time record approved", "record_id", id, "approved_by", actor.ID)
	return nil
}

func (s *Service) owner(ctx context.Context, actor *auth.Identity, employeeID string) (*Employee, error) {
	var (
		emp *Employee
		err error
	)
	if employeeID == "" {
		emp, err = s.repo.FindEmployeeByUser(ctx, actor.ID)
	} else {
		emp, err = s.repo.GetEmployee(ctx, employeeID)
	}
	if err != nil {
		if errors.Is(err, ErrNoEmployee) || errors.Is(err, internal.ErrEmployeeNotFound) {
			return nil, err
		}
		return nil, internal.NewInternalError(internal.GenericErrorMessage, err)
	}
	return emp, nil
}

func toRecord(r *employeeDatamodel.TimeRecord) Record {
	return Record{
		ID:           r.ID,
		EmployeeID:   r.EmployeeID,
		Date:         r.Date.Format(validation.DateLayout),
		CheckInTime:  r.CheckInTime,
		CheckOutTime: r.CheckOutTime,
		TotalHours:   r.TotalHours,
		Notes:        r.Notes,
		Approved:     r.Approved,
		ApprovedBy:   r.ApprovedBy,
		CreatedAt:    r.CreatedAt,
		UpdatedAt:    r.UpdatedAt,
	}
}

func valueOr(p *string, fallback string) string {
	if p == nil {
		return fallback
	}
	return *p
}
