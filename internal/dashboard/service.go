package dashboard

import (
	"context"
	"errors"

	"github.com/jmfitness/studio-management/internal"
	"github.com/jmfitness/studio-management/internal/auth"
	"github.com/jmfitness/studio-management/internal/payment"
	"github.com/jmfitness/studio-management/pkg/dates"
	"github.com/jmfitness/studio-management/pkg/money"
)

type ServiceAPI interface {
	Stats(ctx context.Context, actor *auth.Identity) (*Stats, error)
}

type Service struct {
	repo   Repository
	status *payment.StatusCalculator
}

func NewService(repo Repository, status *payment.StatusCalculator) *Service {
	return &Service{repo: repo, status: status}
}

// Stats is open to staff. Money figures are added only for callers allowed
// to read financial data.
func (s *Service) Stats(ctx context.Context, actor *auth.Identity) (*Stats, error) {
	if actor == nil {
		return nil, internal.ErrNotAuthenticated
	}
	if !actor.Role.IsStaff() {
		return nil, internal.ErrPermissionDenied
	}

	ctx, cancel := internal.WithTimeout(ctx, 0)
	defer cancel()

	var (
		out Stats
		err error
	)
	if out.ActiveStudents, err = s.repo.ActiveStudents(ctx); err != nil {
		return nil, internal.NewInternalError("Erro ao carregar estatísticas", err)
	}
	if out.ActiveEmployees, err = s.repo.ActiveEmployees(ctx); err != nil {
		return nil, internal.NewInternalError("Erro ao carregar estatísticas", err)
	}
	if out.TodayCheckIns, err = s.repo.CheckInsOn(ctx, dates.Day(s.status.Now())); err != nil {
		return nil, internal.NewInternalError("Erro ao carregar estatísticas", err)
	}

	if err := auth.CanAccessFinancial(actor, auth.ActionRead, ""); err != nil {
		if errors.Is(err, internal.ErrPermissionDenied) {
			return &out, nil
		}
		return nil, err
	}

	fin, err := s.financial(ctx)
	if err != nil {
		return nil, internal.NewInternalError("Erro ao carregar estatísticas", err)
	}
	out.Financial = fin
	return &out, nil
}

func (s *Service) financial(ctx context.Context) (*FinancialStats, error) {
	fees, err := s.repo.Fees(ctx)
	if err != nil {
		return nil, err
	}
	pending, err := s.repo.PendingExpenses(ctx)
	if err != nil {
		return nil, err
	}

	var f FinancialStats
	for _, fee := range fees {
		f.ExpectedRevenueInCents += fee.MonthlyFeeValueInCents
		if s.status.PaidThisMonth(fee.Paid, fee.LastPaymentDate) {
			f.PaidThisMonth++
			continue
		}
		if !s.status.IsPaymentUpToDate(fee.DueDate, fee.LastPaymentDate, fee.Paid) {
			f.OverduePayments++
			f.OverdueInCents += fee.MonthlyFeeValueInCents
		}
	}
	f.PendingExpenses = pending.Count
	f.PendingExpensesInCents = pending.TotalInCents

	f.FormattedExpectedRevenue = money.FormatBRL(f.ExpectedRevenueInCents)
	f.FormattedOverdue = money.FormatBRL(f.OverdueInCents)
	f.FormattedPendingExpenses = money.FormatBRL(f.PendingExpensesInCents)
	return &f, nil
}
