// Package payroll builds the monthly salary report from employee records and
// their time clock.
package payroll

import (
	"context"
	"time"
)

// Employee is an active employee as read for the report.
type Employee struct {
	EmployeeID    string `db:"employee_id"`
	Name          string `db:"name"`
	Position      string `db:"position"`
	SalaryInCents int64  `db:"salary_in_cents"`
}

// Record is the part of a time record the report needs.
type Record struct {
	EmployeeID   string  `db:"employee_id"`
	CheckOutTime *string `db:"check_out_time"`
	TotalHours   *string `db:"total_hours"`
}

type Repository interface {
	ActiveEmployees(ctx context.Context) ([]Employee, error)
	Records(ctx context.Context, from, to time.Time) ([]Record, error)
}

// Adjustments decides the bonus and deduction applied on top of the gross
// salary.
type Adjustments interface {
	Adjust(line Line) (bonusInCents, deductionInCents int64)
}

// NoAdjustments pays the gross salary as is.
type NoAdjustments struct{}

func (NoAdjustments) Adjust(Line) (int64, int64) { return 0, 0 }
