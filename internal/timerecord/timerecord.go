// Package timerecord is the employee time clock: one record per employee
// per day, opened by the entry and closed by the exit.
package timerecord

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/jmfitness/studio-management/internal"
	employeeDatamodel "github.com/jmfitness/studio-management/internal/core/datamodel/employee"
)

var (
	ErrAlreadyClosed = internal.NewConflictError("Entrada e saída já registradas para este dia", internal.ErrCodeAlreadyCheckedIn)
	ErrNoEmployee    = internal.NewNotFoundError("Usuário não possui registro de funcionário", internal.ErrCodeEmployeeNotFound)
)

// ParseClock converts "HH:MM" into minutes after midnight.
func ParseClock(s string) (int, error) {
	parts := strings.Split(s, ":")
	if len(parts) != 2 {
		return 0, fmt.Errorf("invalid clock %q", s)
	}
	h, err := strconv.Atoi(parts[0])
	if err != nil || h < 0 || h > 23 {
		return 0, fmt.Errorf("invalid hour in %q", s)
	}
	m, err := strconv.Atoi(parts[1])
	if err != nil || m < 0 || m > 59 {
		return 0, fmt.Errorf("invalid minute in %q", s)
	}
	return h*60 + m, nil
}

// WorkedMinutes is the time between in and out. An exit earlier than the
// entry means the shift crossed midnight.
func WorkedMinutes(in, out string) (int, error) {
	start, err := ParseClock(in)
	if err != nil {
		return 0, err
	}
	end, err := ParseClock(out)
	if err != nil {
		return 0, err
	}
	total := end - start
	if total < 0 {
		total += 24 * 60
	}
	return total, nil
}

// FormatDuration renders minutes as "H:MM", e.g. 485 -> "8:05".
func FormatDuration(minutes int) string {
	return fmt.Sprintf("%d:%02d", minutes/60, minutes%60)
}

// ParseDuration reads a stored "H:MM" total back into minutes. Hours may
// exceed 23.
func ParseDuration(s string) (int, error) {
	parts := strings.Split(s, ":")
	if len(parts) != 2 {
		return 0, fmt.Errorf("invalid duration %q", s)
	}
	h, err := strconv.Atoi(parts[0])
	if err != nil || h < 0 {
		return 0, fmt.Errorf("invalid duration %q", s)
	}
	m, err := strconv.Atoi(parts[1])
	if err != nil || m < 0 || m > 59 {
		return 0, fmt.Errorf("invalid duration %q", s)
	}
	return h*60 + m, nil
}

// Employee is the owner of a time record.
type Employee struct {
	ID     string
	UserID string
	Name   string
}

type Repository interface {
	// FindEmployeeByUser returns ErrNoEmployee for users without an active
	// employee row.
	FindEmployeeByUser(ctx context.Context, userID string) (*Employee, error)
	// GetEmployee returns internal.ErrEmployeeNotFound.
	GetEmployee(ctx context.Context, id string) (*Employee, error)
	// FindOn returns nil, nil when no record exists for day.
	FindOn(ctx context.Context, employeeID string, day time.Time) (*employeeDatamodel.TimeRecord, error)
	Get(ctx context.Context, id string) (*employeeDatamodel.TimeRecord, error)
	Insert(ctx context.Context, r *employeeDatamodel.TimeRecord) error
	Update(ctx context.Context, id string, fields map[string]interface{}) error
	List(ctx context.Context, employeeID string, from, to time.Time) ([]employeeDatamodel.TimeRecord, error)
}
