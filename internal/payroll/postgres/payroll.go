package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/jmfitness/studio-management/internal/payroll"
)

type PayrollRepository struct {
	db *sqlx.DB
}

func NewPayrollRepository(db *sqlx.DB) *PayrollRepository {
	return &PayrollRepository{db: db}
}

func (r *PayrollRepository) ActiveEmployees(ctx context.Context) ([]payroll.Employee, error) {
	var rows []payroll.Employee
	err := r.db.SelectContext(ctx, &rows, `
		SELECT e.id AS employee_id, u.name, e.position, e.salary_in_cents
		FROM employees e
		JOIN users u ON u.id = e.user_id
		WHERE e.deleted_at IS NULL AND u.deleted_at IS NULL
		ORDER BY u.name ASC`)
	if err != nil {
		return nil, fmt.Errorf("failed to list active employees: %w", err)
	}
	return rows, nil
}

func (r *PayrollRepository) Records(ctx context.Context, from, to time.Time) ([]payroll.Record, error) {
	var rows []payroll.Record
	err := r.db.SelectContext(ctx, &rows, r.db.Rebind(`
		SELECT employee_id, check_out_time, total_hours
		FROM employee_time_records
		WHERE date >= ? AND date <= ?`), from, to)
	if err != nil {
		return nil, fmt.Errorf("failed to load time records %s..%s: %w", from.Format("2006-01-02"), to.Format("2006-01-02"), err)
	}
	return rows, nil
}
