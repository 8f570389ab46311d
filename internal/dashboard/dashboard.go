// Package dashboard gathers the headline numbers shown on the staff home
// screen.
package dashboard

import (
	"context"
	"time"
)

// Fee is the monthly fee state of one active student.
type Fee struct {
	MonthlyFeeValueInCents int64      `db:"monthly_fee_value_in_cents"`
	DueDate                int        `db:"due_date"`
	Paid                   bool       `db:"paid"`
	LastPaymentDate        *time.Time `db:"last_payment_date"`
}

// Sum is a count with its total amount.
type Sum struct {
	Count        int64 `db:"count"`
	TotalInCents int64 `db:"total_in_cents"`
}

type Repository interface {
	ActiveStudents(ctx context.Context) (int64, error)
	ActiveEmployees(ctx context.Context) (int64, error)
	CheckInsOn(ctx context.Context, day time.Time) (int64, error)
	Fees(ctx context.Context) ([]Fee, error)
	PendingExpenses(ctx context.Context) (Sum, error)
}

type Stats struct {
	ActiveStudents  int64           `json:"activeStudents"`
	ActiveEmployees int64           `json:"activeEmployees"`
	TodayCheckIns   int64           `json:"todayCheckIns"`
	Financial       *FinancialStats `json:"financial,omitempty"`
}

type FinancialStats struct {
	ExpectedRevenueInCents   int64  `json:"expectedRevenueInCents"`
	FormattedExpectedRevenue string `json:"formattedExpectedRevenue"`
	PaidThisMonth            int64  `json:"paidThisMonth"`
	OverduePayments          int64  `json:"overduePayments"`
	OverdueInCents           int64  `json:"overdueInCents"`
	FormattedOverdue         string `json:"formattedOverdue"`
	PendingExpenses          int64  `json:"pendingExpenses"`
	PendingExpensesInCents   int64  `json:"pendingExpensesInCents"`
	FormattedPendingExpenses string `json:"formattedPendingExpenses"`
}
