package health

import (
	"context"
	"log/slog"
	"math"

	"github.com/jmfitness/studio-management/internal"
	"github.com/jmfitness/studio-management/internal/auth"
	"github.com/jmfitness/studio-management/internal/core/common/validation"
	"github.com/jmfitness/studio-management/internal/core/database"
	"github.com/jmfitness/studio-management/internal/core/datamodel/student"
	"github.com/jmfitness/studio-management/pkg/logger"
	"github.com/jmfitness/studio-management/pkg/sanitize"
)

type ServiceAPI interface {
	GetMetrics(ctx context.Context, actor *auth.Identity, studentID string) (*Metrics, error)
	UpdateMetrics(ctx context.Context, actor *auth.Identity, studentID string, dto MetricsDTO) (*Metrics, error)
	AddHistoryEntry(ctx context.Context, actor *auth.Identity, dto HistoryEntryDTO) (*HistoryEntry, error)
	GetHistory(ctx context.Context, actor *auth.Identity, studentID string) (*History, error)
	SaveMeasurement(ctx context.Context, actor *auth.Identity, studentID string, dto MeasurementDTO) (*Measurement, error)
	ListMeasurements(ctx context.Context, actor *auth.Identity, studentID string) ([]Measurement, error)
}

type Service struct {
	repo   Repository
	uow    database.UnitOfWork
	logger *slog.Logger
}

func NewService(repo Repository, uow database.UnitOfWork) *Service {
	return &Service{
		repo:   repo,
		uow:    uow,
		logger: logger.LoggerWrapper(),
	}
}

func (s *Service) GetMetrics(ctx context.Context, actor *auth.Identity, studentID string) (*Metrics, error) {
	if err := auth.CanAccessHealthMetrics(actor, auth.ActionRead, studentID); err != nil {
		return nil, err
	}
	if err := s.ensureStudent(ctx, studentID); err != nil {
		return nil, err
	}

	m, err := s.repo.GetMetrics(ctx, studentID)
	if err != nil {
		return nil, internal.NewInternalError("Erro ao carregar dados de saúde", err)
	}
	if m == nil {
		return nil, ErrMetricsNotFound
	}
	return toMetrics(m, actor.Role != auth.RoleAluno), nil
}

// UpdateMetrics creates the metrics row on first use. Students may edit their
// own answers but never the coach notes.
func (s *Service) UpdateMetrics(ctx context.Context, actor *auth.Identity, studentID string, dto MetricsDTO) (*Metrics, error) {
	if err := auth.CanAccessHealthMetrics(actor, auth.ActionUpdate, studentID); err != nil {
		return nil, err
	}
	if actor.Role == auth.RoleAluno && dto.HasCoachNotes() {
		return nil, ErrCoachNotes
	}
	if err := validation.Struct(dto); err != nil {
		return nil, err
	}
	if err := s.ensureStudent(ctx, studentID); err != nil {
		return nil, err
	}

	m, err := s.repo.GetMetrics(ctx, studentID)
	if err != nil {
		return nil, internal.NewInternalError("Erro ao atualizar dados de saúde", err)
	}
	if m == nil {
		m = &student.HealthMetrics{UserID: studentID}
	}
	dto.ApplyTo(m)
	if err := s.repo.SaveMetrics(ctx, m); err != nil {
		return nil, internal.NewInternalError("Erro ao atualizar dados de saúde", err)
	}

	s.logger.Info("health metrics updated", "actor_id", actor.ID, "student_id", studentID)
	return toMetrics(m, actor.Role != auth.RoleAluno), nil
}

func (s *Service) AddHistoryEntry(ctx context.Context, actor *auth.Identity, dto HistoryEntryDTO) (*HistoryEntry, error) {
	if actor == nil {
		return nil, internal.ErrNotAuthenticated
	}
	if actor.Role != auth.RoleAluno {
		return nil, ErrStudentsOnly
	}
	if err := auth.CanAccessHealthMetrics(actor, auth.ActionUpdate, actor.ID); err != nil {
		return nil, err
	}
	if err := validation.Struct(dto); err != nil {
		return nil, err
	}
	notes := sanitize.OptionalText(dto.Notes)
	if dto.HeightCm == nil && dto.WeightKg == nil && notes == nil {
		return nil, ErrEmptyEntry
	}

	e := &student.HealthHistoryEntry{
		UserID:   actor.ID,
		HeightCm: dto.HeightCm,
		WeightKg: dto.WeightKg,
		Notes:    notes,
	}
	if err := s.repo.InsertHistory(ctx, e); err != nil {
		return nil, internal.NewInternalError("Erro interno do servidor", err)
	}

	s.logger.Info("health entry added", "user_id", actor.ID, "entry_id", e.ID)
	return &HistoryEntry{
		ID:        e.ID,
		HeightCm:  e.HeightCm,
		WeightKg:  e.WeightKg,
		Notes:     e.Notes,
		CreatedAt: e.CreatedAt,
	}, nil
}

// GetHistory returns the self-reported entries, newest first, next to the
// current metrics.
func (s *Service) GetHistory(ctx context.Context, actor *auth.Identity, studentID string) (*History, error) {
	if err := auth.CanAccessHealthMetrics(actor, auth.ActionRead, studentID); err != nil {
		return nil, err
	}
	if err := s.ensureStudent(ctx, studentID); err != nil {
		return nil, err
	}

	m, err := s.repo.GetMetrics(ctx, studentID)
	if err != nil {
		return nil, internal.NewInternalError("Erro ao carregar histórico de saúde", err)
	}
	entries, err := s.repo.ListHistory(ctx, studentID)
	if err != nil {
		return nil, internal.NewInternalError("Erro ao carregar histórico de saúde", err)
	}

	out := &History{Entries: make([]HistoryEntry, 0, len(entries))}
	if m != nil {
		out.Current = &CurrentHealth{
			HeightCm:  m.HeightCm,
			WeightKg:  m.WeightKg,
			BloodType: m.BloodType,
			UpdatedAt: m.UpdatedAt,
		}
	}
	for _, e := range entries {
		out.Entries = append(out.Entries, HistoryEntry{
			ID:        e.ID,
			HeightCm:  e.HeightCm,
			WeightKg:  e.WeightKg,
			Notes:     e.Notes,
			CreatedAt: e.CreatedAt,
		})
	}
	return out, nil
}

// SaveMeasurement records a coach assessment and carries its height and
// weight over to the current metrics.
func (s *Service) SaveMeasurement(ctx context.Context, actor *auth.Identity, studentID string, dto MeasurementDTO) (*Measurement, error) {
	if err := auth.CanAccessHealthMetrics(actor, auth.ActionUpdate, studentID); err != nil {
		return nil, err
	}
	if !actor.Role.IsStaff() {
		return nil, ErrStaffOnly
	}
	if err := validation.Struct(dto); err != nil {
		return nil, err
	}
	if err := s.ensureStudent(ctx, studentID); err != nil {
		return nil, err
	}

	row := dto.model(studentID, actor.ID)
	err := s.uow.WithTransaction(ctx, func(ctx context.Context) error {
		if err := s.repo.InsertMeasurement(ctx, row); err != nil {
			return err
		}
		m, err := s.repo.GetMetrics(ctx, studentID)
		if err != nil {
			return err
		}
		if m == nil {
			m = &student.HealthMetrics{UserID: studentID}
		}
		height := int(math.Round(dto.HeightCm))
		weight := dto.WeightKg
		m.HeightCm, m.WeightKg = &height, &weight
		return s.repo.SaveMetrics(ctx, m)
	})
	if err != nil {
		return nil, internal.NewInternalError("Erro ao salvar avaliação física", err)
	}

	s.logger.Info("body measurement saved", "actor_id", actor.ID, "student_id", studentID)
	out := toMeasurement(*row)
	return &out, nil
}

func (s *Service) ListMeasurements(ctx context.Context, actor *auth.Identity, studentID string) ([]Measurement, error) {
	if err := auth.CanAccessHealthMetrics(actor, auth.ActionRead, studentID); err != nil {
		return nil, err
	}
	if err := s.ensureStudent(ctx, studentID); err != nil {
		return nil, err
	}

	rows, err := s.repo.ListMeasurements(ctx, studentID)
	if err != nil {
		return nil, internal.NewInternalError("Erro ao carregar avaliações físicas", err)
	}
	out := make([]Measurement, 0, len(rows))
	for _, r := range rows {
		out = append(out, toMeasurement(r))
	}
	return out, nil
}

func (s *Service) ensureStudent(ctx context.Context, studentID string) error {
	ok, err := s.repo.StudentExists(ctx, studentID)
	if err != nil {
		return internal.NewInternalError(internal.GenericErrorMessage, err)
	}
	if !ok {
		return internal.ErrStudentNotFound
	}
	return nil
}
