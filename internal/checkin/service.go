package checkin

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/jmfitness/studio-management/internal"
	"github.com/jmfitness/studio-management/internal/auth"
	"github.com/jmfitness/studio-management/internal/core/common/validation"
	checkinDatamodel "github.com/jmfitness/studio-management/internal/core/datamodel/checkin"
	"github.com/jmfitness/studio-management/internal/core/events"
	"github.com/jmfitness/studio-management/pkg/dates"
	"github.com/jmfitness/studio-management/pkg/logger"
	"github.com/jmfitness/studio-management/pkg/sanitize"
)

type ServiceAPI interface {
	QuickCheckIn(ctx context.Context, dto QuickCheckInDTO) (*Receipt, error)
	ManualCheckIn(ctx context.Context, actor *auth.Identity, dto ManualCheckInDTO) (*Receipt, error)
	ProfessorCheckIn(ctx context.Context, actor *auth.Identity, dto ProfessorCheckInDTO) (*ProfessorCheckIn, error)
	ProfessorHistory(ctx context.Context, actor *auth.Identity, from, to *time.Time) ([]ProfessorCheckIn, error)
	List(ctx context.Context, actor *auth.Identity, day *time.Time) ([]CheckIn, error)
	ListByStudent(ctx context.Context, actor *auth.Identity, studentID string) ([]CheckIn, error)
}

type Service struct {
	repo   Repository
	guard  Guard
	events events.Publisher
	now    func() time.Time
	logger *slog.Logger
}

func NewService(repo Repository, guard Guard, publisher events.Publisher) *Service {
	if publisher == nil {
		publisher = events.Nop{}
	}
	return &Service{
		repo:   repo,
		guard:  guard,
		events: publisher,
		now:    time.Now,
		logger: logger.LoggerWrapper(),
	}
}

// WithClock sets the studio's wall clock. Weekday and "today" follow it.
func (s *Service) WithClock(now func() time.Time) *Service {
	s.now = now
	return s
}

// QuickCheckIn is the unauthenticated kiosk flow: a student types their CPF
// or e-mail and is checked in once per weekday.
func (s *Service) QuickCheckIn(ctx context.Context, dto QuickCheckInDTO) (*Receipt, error) {
	if err := validation.Struct(dto); err != nil {
		return nil, internal.NewValidationFieldError("identifier", "Digite seu CPF ou email para fazer check-in")
	}

	now := s.now()
	if !IsOpen(now) {
		return nil, ClosedError(now)
	}

	method, value := ParseIdentifier(dto.Identifier)
	if value == "" {
		return nil, ErrUnknownIdentifier
	}
	person, err := s.repo.FindByIdentifier(ctx, method, value)
	if err != nil {
		if errors.Is(err, internal.ErrUserNotFound) {
			return nil, ErrUnknownIdentifier
		}
		return nil, internal.NewInternalError("Erro interno do servidor. Tente novamente.", err)
	}
	if person.Role != auth.RoleAluno {
		return nil, ErrStudentsOnly
	}
	if person.DeletedAt != nil {
		return nil, ErrUnknownIdentifier
	}

	return s.record(ctx, person, now, method, value, nil)
}

// ManualCheckIn lets staff check a student in from the desk. A student may
// use it for themself.
func (s *Service) ManualCheckIn(ctx context.Context, actor *auth.Identity, dto ManualCheckInDTO) (*Receipt, error) {
	if err := validation.Struct(dto); err != nil {
		return nil, err
	}
	if err := auth.Authorize(actor, auth.ResourceCheckins, auth.ActionCreate, auth.PermissionContext{
		TargetUserID:   dto.StudentID,
		TargetUserType: auth.RoleAluno,
	}); err != nil {
		return nil, err
	}

	now := s.now()
	if !IsOpen(now) {
		return nil, ClosedError(now)
	}

	person, err := s.repo.FindPerson(ctx, dto.StudentID)
	if err != nil {
		if errors.Is(err, internal.ErrUserNotFound) {
			return nil, internal.ErrStudentNotFound
		}
		return nil, internal.NewInternalError(internal.GenericErrorMessage, err)
	}
	if person.Role != auth.RoleAluno || person.DeletedAt != nil {
		return nil, internal.ErrStudentNotFound
	}

	registeredBy := actor.ID
	return s.record(ctx, person, now, MethodManual, person.UserID, &registeredBy)
}

func (s *Service) record(ctx context.Context, p *Person, now time.Time, method, identifier string, registeredBy *string) (*Receipt, error) {
	day := dates.Day(now)
	key := guardKey(p.UserID, day)

	acquired, err := s.guard.Acquire(ctx, key, guardTTL)
	if err != nil {
		s.logger.Warn("check-in guard unavailable, relying on database", "user_id", p.UserID, "error", err)
		acquired = true
	}
	if !acquired {
		return nil, alreadyCheckedIn(p.Name)
	}

	done, err := s.repo.HasCheckIn(ctx, p.UserID, day)
	if err != nil {
		s.release(ctx, key)
		return nil, internal.NewInternalError("Erro interno do servidor. Tente novamente.", err)
	}
	if done {
		return nil, alreadyCheckedIn(p.Name)
	}

	c := &checkinDatamodel.CheckIn{
		UserID:           p.UserID,
		CheckInDate:      day,
		CheckInTime:      dates.ClockHHMM(now),
		CheckInTimestamp: now.UTC(),
		Method:           method,
		Identifier:       identifier,
		RegisteredBy:     registeredBy,
	}
	if err := s.repo.Insert(ctx, c); err != nil {
		s.release(ctx, key)
		s.logger.Error("failed to record check-in", "user_id", p.UserID, "error", err)
		return nil, internal.NewInternalError("Erro interno do servidor. Tente novamente.", err)
	}

	if err := s.events.Publish(ctx, events.NewCheckInRecordedEvent(c.ID, p.UserID, p.Name, method, c.CheckInTime)); err != nil {
		s.logger.Warn("failed to publish check-in", "check_in_id", c.ID, "error", err)
	}

	s.logger.Info("check-in recorded", "user_id", p.UserID, "method", method)
	return &Receipt{
		CheckInID:   c.ID,
		UserName:    p.Name,
		CheckInDate: day.Format(validation.DateLayout),
		CheckInTime: c.CheckInTime,
		Method:      method,
	}, nil
}

func (s *Service) release(ctx context.Context, key string) {
	if err := s.guard.Release(ctx, key); err != nil {
		s.logger.Warn("failed to release check-in guard", "key", key, "error", err)
	}
}

// ProfessorCheckIn marks the calling professor present for today.
func (s *Service) ProfessorCheckIn(ctx context.Context, actor *auth.Identity, dto ProfessorCheckInDTO) (*ProfessorCheckIn, error) {
	prof, err := s.professor(ctx, actor)
	if err != nil {
		return nil, err
	}
	if err := validation.Struct(dto); err != nil {
		return nil, err
	}

	now := s.now()
	day := dates.Day(now)
	existing, err := s.repo.ProfessorCheckInOn(ctx, prof.EmployeeID, day)
	if err != nil {
		return nil, internal.NewInternalError("Erro ao registrar check-in", err)
	}
	if existing != nil {
		return nil, internal.NewConflictError(
			fmt.Sprintf("Você já fez check-in hoje às %s", existing.CheckInTime), internal.ErrCodeAlreadyCheckedIn)
	}

	pc := &checkinDatamodel.ProfessorCheckIn{
		ProfessorID: prof.EmployeeID,
		Date:        day,
		CheckInTime: dates.ClockHHMM(now),
		Notes:       sanitize.OptionalText(dto.Notes),
	}
	if err := s.repo.InsertProfessor(ctx, pc); err != nil {
		return nil, internal.NewInternalError("Erro ao registrar check-in", err)
	}

	if err := s.events.Publish(ctx, events.NewProfessorCheckedInEvent(prof.EmployeeID, prof.Name, pc.CheckInTime)); err != nil {
		s.logger.Warn("failed to publish professor check-in", "employee_id", prof.EmployeeID, "error", err)
	}
	out := toProfessorCheckIn(pc)
	return &out, nil
}

func (s *Service) ProfessorHistory(ctx context.Context, actor *auth.Identity, from, to *time.Time) ([]ProfessorCheckIn, error) {
	prof, err := s.professor(ctx, actor)
	if err != nil {
		return nil, err
	}
	rows, err := s.repo.ListProfessor(ctx, prof.EmployeeID, from, to)
	if err != nil {
		return nil, internal.NewInternalError("Erro ao carregar histórico de check-ins", err)
	}
	out := make([]ProfessorCheckIn, 0, len(rows))
	for i := range rows {
		out = append(out, toProfessorCheckIn(&rows[i]))
	}
	return out, nil
}

func (s *Service) professor(ctx context.Context, actor *auth.Identity) (*Professor, error) {
	if actor == nil {
		return nil, internal.ErrNotAuthenticated
	}
	if actor.Role != auth.RoleProfessor {
		return nil, ErrProfessorsOnly
	}
	prof, err := s.repo.FindProfessor(ctx, actor.ID)
	if err != nil {
		if errors.Is(err, ErrNoEmployeeRecord) {
			return nil, err
		}
		return nil, internal.NewInternalError(internal.GenericErrorMessage, err)
	}
	return prof, nil
}

// List returns the check-ins of day, today when nil, newest first.
func (s *Service) List(ctx context.Context, actor *auth.Identity, day *time.Time) ([]CheckIn, error) {
	if err := auth.Authorize(actor, auth.ResourceCheckins, auth.ActionRead, auth.PermissionContext{}); err != nil {
		return nil, err
	}
	if !actor.Role.IsStaff() {
		return nil, internal.ErrPermissionDenied
	}

	target := dates.Day(s.now())
	if day != nil {
		target = dates.Day(*day)
	}
	rows, err := s.repo.ListByDate(ctx, target, DefaultListLimit)
	if err != nil {
		return nil, internal.NewInternalError("Erro ao buscar check-ins", err)
	}
	return toCheckIns(rows), nil
}

// ListByStudent returns every check-in of studentID, oldest first.
func (s *Service) ListByStudent(ctx context.Context, actor *auth.Identity, studentID string) ([]CheckIn, error) {
	if studentID == "" {
		return nil, internal.NewValidationFieldError("studentId", "ID do aluno é obrigatório")
	}
	if err := auth.Authorize(actor, auth.ResourceCheckins, auth.ActionRead, auth.PermissionContext{
		TargetUserID:   studentID,
		TargetUserType: auth.RoleAluno,
	}); err != nil {
		return nil, err
	}

	rows, err := s.repo.ListByStudent(ctx, studentID)
	if err != nil {
		return nil, internal.NewInternalError("Erro interno do servidor", err)
	}
	return toCheckIns(rows), nil
}

func toCheckIns(rows []Row) []CheckIn {
	out := make([]CheckIn, 0, len(rows))
	for _, r := range rows {
		out = append(out, CheckIn{
			ID:           r.ID,
			UserID:       r.UserID,
			UserName:     r.UserName,
			CPF:          r.CPF,
			Email:        r.Email,
			CheckInDate:  r.CheckInDate.Format(validation.DateLayout),
			CheckInTime:  r.CheckInTime,
			Method:       r.Method,
			Identifier:   r.Identifier,
			RegisteredBy: r.RegisteredBy,
		})
	}
	return out
}

func toProfessorCheckIn(p *checkinDatamodel.ProfessorCheckIn) ProfessorCheckIn {
	return ProfessorCheckIn{
		ID:          p.ID,
		Date:        p.Date.Format(validation.DateLayout),
		CheckInTime: p.CheckInTime,
		Notes:       p.Notes,
		CreatedAt:   p.CreatedAt,
	}
}
