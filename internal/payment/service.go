package payment

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/jmfitness/studio-management/internal"
	"github.com/jmfitness/studio-management/internal/auth"
	"github.com/jmfitness/studio-management/internal/core/common/validation"
	"github.com/jmfitness/studio-management/internal/core/datamodel/student"
	"github.com/jmfitness/studio-management/internal/core/events"
	"github.com/jmfitness/studio-management/pkg/dates"
	"github.com/jmfitness/studio-management/pkg/logger"
	"github.com/jmfitness/studio-management/pkg/money"
)

var (
	ErrStudentsOnly = internal.NewForbiddenError("Apenas alunos podem pagar mensalidades através desta função", internal.ErrCodeRoleNotAllowed)
	ErrStaffOnly    = internal.NewForbiddenError("Apenas administradores e funcionários podem acessar esta informação", internal.ErrCodeRoleNotAllowed)
)

// Repository reads and writes the financial rows of students.
type Repository interface {
	ListMonthly(ctx context.Context) ([]MonthlyPaymentRow, error)
	// GetFinancial returns internal.ErrFinancialNotFound when the student has no row.
	GetFinancial(ctx context.Context, userID string) (*student.Financial, error)
	IsActiveStudent(ctx context.Context, userID string) (bool, error)
	SetPaid(ctx context.Context, userID string, paid bool, paidOn *time.Time) error
	RecordPayment(ctx context.Context, userID string, paidOn time.Time, method string) error
	// ResetPaidFlags clears paid on rows last paid before monthStart.
	ResetPaidFlags(ctx context.Context, monthStart time.Time) (int64, error)
}

type ServiceAPI interface {
	ListMonthlyPayments(ctx context.Context, actor *auth.Identity) ([]MonthlyPayment, error)
	UpdatePaymentStatus(ctx context.Context, actor *auth.Identity, studentID string, dto UpdateStatusDTO) error
	PayMonthlyFee(ctx context.Context, actor *auth.Identity, dto PayFeeDTO) (*Receipt, error)
	GetMyPaymentStatus(ctx context.Context, actor *auth.Identity) (*MyStatus, error)
}

type Service struct {
	repo   Repository
	status *StatusCalculator
	events events.Publisher
	logger *slog.Logger
}

func NewService(repo Repository, status *StatusCalculator, publisher events.Publisher) *Service {
	if publisher == nil {
		publisher = events.Nop{}
	}
	return &Service{
		repo:   repo,
		status: status,
		events: publisher,
		logger: logger.LoggerWrapper(),
	}
}

func (s *Service) ListMonthlyPayments(ctx context.Context, actor *auth.Identity) ([]MonthlyPayment, error) {
	if err := auth.CanAccessMonthlyPayment(actor, auth.ActionRead, ""); err != nil {
		return nil, err
	}
	if actor.Role != auth.RoleAdmin && actor.Role != auth.RoleFuncionario {
		return nil, ErrStaffOnly
	}

	rows, err := s.repo.ListMonthly(ctx)
	if err != nil {
		return nil, internal.NewInternalError("Erro ao carregar lista de mensalidades", err)
	}

	out := make([]MonthlyPayment, 0, len(rows))
	for _, r := range rows {
		out = append(out, MonthlyPayment{
			UserID:              r.UserID,
			StudentName:         r.StudentName,
			MonthlyFeeValue:     money.FromCents(r.MonthlyFeeValueInCents),
			MonthlyFeeFormatted: money.FormatBRL(r.MonthlyFeeValueInCents),
			DueDate:             r.DueDate,
			Paid:                r.Paid,
			LastPaymentDate:     r.LastPaymentDate,
			PaymentMethod:       r.PaymentMethod,
			UpToDate:            s.status.IsPaymentUpToDate(r.DueDate, r.LastPaymentDate, r.Paid),
		})
	}

	s.logger.Info("monthly payments listed", "actor_id", actor.ID, "role", actor.Role, "count", len(out))
	return out, nil
}

// UpdatePaymentStatus lets staff flip the paid flag. Marking as paid records
// today as the last payment date; marking as pending keeps the previous date.
func (s *Service) UpdatePaymentStatus(ctx context.Context, actor *auth.Identity, studentID string, dto UpdateStatusDTO) error {
	if err := validation.Struct(dto); err != nil {
		return err
	}
	if err := auth.CanAccessMonthlyPayment(actor, auth.ActionUpdate, studentID); err != nil {
		return err
	}
	if actor.Role != auth.RoleAdmin && actor.Role != auth.RoleFuncionario {
		return ErrStaffOnly
	}

	ok, err := s.repo.IsActiveStudent(ctx, studentID)
	if err != nil {
		return internal.NewInternalError("Erro ao atualizar status de pagamento", err)
	}
	if !ok {
		return internal.ErrStudentNotFound
	}

	var paidOn *time.Time
	if *dto.Paid {
		today := dates.Day(s.status.Now())
		paidOn = &today
	}
	if err := s.repo.SetPaid(ctx, studentID, *dto.Paid, paidOn); err != nil {
		return internal.NewInternalError("Erro ao atualizar status de pagamento", err)
	}

	s.logger.Info("payment status updated",
		"actor_id", actor.ID,
		"student_id", studentID,
		"paid", *dto.Paid)
	return nil
}

func (s *Service) PayMonthlyFee(ctx context.Context, actor *auth.Identity, dto PayFeeDTO) (*Receipt, error) {
	if actor == nil {
		return nil, internal.ErrNotAuthenticated
	}
	if actor.Role != auth.RoleAluno {
		return nil, ErrStudentsOnly
	}
	if err := auth.CanAccessMonthlyPayment(actor, auth.ActionUpdate, actor.ID); err != nil {
		return nil, err
	}
	if err := validation.Struct(dto); err != nil {
		return nil, err
	}

	fin, err := s.repo.GetFinancial(ctx, actor.ID)
	if err != nil {
		if errors.Is(err, internal.ErrFinancialNotFound) {
			return nil, err
		}
		return nil, internal.NewInternalError(internal.GenericErrorMessage, err)
	}

	if s.status.PaidThisMonth(fin.Paid, fin.LastPaymentDate) {
		return nil, internal.NewConflictError(
			fmt.Sprintf("Sua mensalidade já foi paga em %s", dates.FormatBR(*fin.LastPaymentDate)),
			internal.ErrCodeAlreadyPaid)
	}

	now := s.status.Now()
	paidOn := dates.Day(now)
	if err := s.repo.RecordPayment(ctx, actor.ID, paidOn, dto.PaymentMethod); err != nil {
		return nil, internal.NewInternalError(internal.GenericErrorMessage, err)
	}

	s.logger.Info("monthly fee paid",
		"user_id", actor.ID,
		"method", dto.PaymentMethod,
		"amount", money.FormatBRL(fin.MonthlyFeeValueInCents))

	if err := s.events.Publish(ctx, events.NewFeePaidEvent(actor.ID, fin.MonthlyFeeValueInCents, dto.PaymentMethod, now)); err != nil {
		s.logger.Warn("failed to publish fee paid event", "user_id", actor.ID, "error", err)
	}

	return &Receipt{
		PaidAt:      paidOn.Format(validation.DateLayout),
		Method:      dto.PaymentMethod,
		NextDueDate: s.status.NextDueDate(fin.DueDate).Format(validation.DateLayout),
	}, nil
}

func (s *Service) GetMyPaymentStatus(ctx context.Context, actor *auth.Identity) (*MyStatus, error) {
	if actor == nil {
		return nil, internal.ErrNotAuthenticated
	}
	if actor.Role != auth.RoleAluno {
		return nil, internal.NewForbiddenError("Apenas alunos podem acessar este recurso", internal.ErrCodeRoleNotAllowed)
	}
	if err := auth.CanAccessMonthlyPayment(actor, auth.ActionRead, actor.ID); err != nil {
		return nil, err
	}

	fin, err := s.repo.GetFinancial(ctx, actor.ID)
	if err != nil {
		if errors.Is(err, internal.ErrFinancialNotFound) {
			return nil, err
		}
		return nil, internal.NewInternalError("Erro ao carregar dados de pagamento", err)
	}

	return &MyStatus{
		Paid:                fin.Paid,
		MonthlyFeeValue:     money.FromCents(fin.MonthlyFeeValueInCents),
		MonthlyFeeFormatted: money.FormatBRL(fin.MonthlyFeeValueInCents),
		DueDate:             fin.DueDate,
		LastPaymentDate:     fin.LastPaymentDate,
		PaymentMethod:       fin.PaymentMethod,
		UpToDate:            s.status.IsPaymentUpToDate(fin.DueDate, fin.LastPaymentDate, fin.Paid),
		DaysUntilDue:        s.status.DaysUntilDue(fin.DueDate),
	}, nil
}

// ResetMonthlyFlags runs at the start of each month so last month's payments
// stop counting as paid.
func (s *Service) ResetMonthlyFlags(ctx context.Context) (int64, error) {
	first, _ := dates.MonthRange(s.status.Now().Year(), s.status.Now().Month())
	n, err := s.repo.ResetPaidFlags(ctx, first)
	if err != nil {
		return 0, fmt.Errorf("failed to reset paid flags: %w", err)
	}
	s.logger.Info("monthly paid flags reset", "rows", n, "month_start", first.Format(validation.DateLayout))
	return n, nil
}
