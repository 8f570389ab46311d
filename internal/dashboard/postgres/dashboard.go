package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/jmfitness/studio-management/internal/auth"
	"github.com/jmfitness/studio-management/internal/dashboard"
)

type DashboardRepository struct {
	db *sqlx.DB
}

func NewDashboardRepository(db *sqlx.DB) *DashboardRepository {
	return &DashboardRepository{db: db}
}

func (r *DashboardRepository) count(ctx context.Context, what, query string, args ...interface{}) (int64, error) {
	var n int64
	if err := r.db.GetContext(ctx, &n, r.db.Rebind(query), args...); err != nil {
		return 0, fmt.Errorf("failed to count %s: %w", what, err)
	}
	return n, nil
}

func (r *DashboardRepository) ActiveStudents(ctx context.Context) (int64, error) {
	return r.count(ctx, "active students", `
		SELECT COUNT(*) FROM users
		WHERE user_role = ? AND is_active = ? AND deleted_at IS NULL`, string(auth.RoleAluno), true)
}

func (r *DashboardRepository) ActiveEmployees(ctx context.Context) (int64, error) {
	return r.count(ctx, "active employees", `
		SELECT COUNT(*) FROM employees e
		JOIN users u ON u.id = e.user_id
		WHERE e.deleted_at IS NULL AND u.deleted_at IS NULL`)
}

func (r *DashboardRepository) CheckInsOn(ctx context.Context, day time.Time) (int64, error) {
	return r.count(ctx, "check-ins", `SELECT COUNT(*) FROM check_ins WHERE check_in_date = ?`, day)
}

func (r *DashboardRepository) Fees(ctx context.Context) ([]dashboard.Fee, error) {
	var rows []dashboard.Fee
	err := r.db.SelectContext(ctx, &rows, r.db.Rebind(`
		SELECT f.monthly_fee_value_in_cents, f.due_date, f.paid, f.last_payment_date
		FROM financial f
		JOIN users u ON u.id = f.user_id
		WHERE u.user_role = ? AND u.is_active = ? AND u.deleted_at IS NULL`), string(auth.RoleAluno), true)
	if err != nil {
		return nil, fmt.Errorf("failed to load student fees: %w", err)
	}
	return rows, nil
}

func (r *DashboardRepository) PendingExpenses(ctx context.Context) (dashboard.Sum, error) {
	var s dashboard.Sum
	err := r.db.GetContext(ctx, &s, r.db.Rebind(`
		SELECT COUNT(*) AS count, COALESCE(SUM(amount_in_cents), 0) AS total_in_cents
		FROM studio_expenses
		WHERE paid = ?`), false)
	if err != nil {
		return dashboard.Sum{}, fmt.Errorf("failed to sum pending expenses: %w", err)
	}
	return s, nil
}
