package payment

import (
	"math"
	"time"

	"github.com/jmfitness/studio-management/pkg/dates"
)

const (
	MinDueDay = 1
	MaxDueDay = 10
)

// StatusCalculator derives monthly fee status from the calendar. The clock is
// injectable so tests can pin "today".
type StatusCalculator struct {
	now func() time.Time
}

func NewStatusCalculator(now func() time.Time) *StatusCalculator {
	if now == nil {
		now = time.Now
	}
	return &StatusCalculator{now: now}
}

func (c *StatusCalculator) Now() time.Time {
	return c.now()
}

// IsPaymentUpToDate reports whether a student's fee is current. dueDay is
// compared verbatim against today's day number, so a due day of 31 never
// becomes overdue in a 30 day month.
func (c *StatusCalculator) IsPaymentUpToDate(dueDay int, lastPaymentDate *time.Time, paid bool) bool {
	today := c.now()

	if paid && lastPaymentDate != nil && dates.SameMonth(*lastPaymentDate, today) {
		return true
	}
	if !paid || lastPaymentDate == nil {
		return today.Day() <= dueDay
	}
	return dates.SameMonth(*lastPaymentDate, today)
}

// DaysUntilDue returns the signed number of days, rounded up, until the next
// due date. Once today is past dueDay the count rolls to next month. A due
// day beyond the month's length is clamped to its last day.
func (c *StatusCalculator) DaysUntilDue(dueDay int) int {
	today := c.now()
	loc := today.Location()

	due := dueDateIn(today.Year(), today.Month(), dueDay, loc)
	if today.Day() > dueDay {
		next := time.Date(today.Year(), today.Month()+1, 1, 0, 0, 0, 0, loc)
		due = dueDateIn(next.Year(), next.Month(), dueDay, loc)
	}

	days := due.Sub(today).Hours() / 24
	return int(math.Ceil(days))
}

// NextDueDate is dueDay of the month after now.
func (c *StatusCalculator) NextDueDate(dueDay int) time.Time {
	today := c.now()
	next := time.Date(today.Year(), today.Month()+1, 1, 0, 0, 0, 0, time.UTC)
	return dueDateIn(next.Year(), next.Month(), dueDay, time.UTC)
}

// PaidThisMonth reports whether the fee was settled in the current month.
func (c *StatusCalculator) PaidThisMonth(paid bool, lastPaymentDate *time.Time) bool {
	return paid && lastPaymentDate != nil && dates.SameMonth(*lastPaymentDate, c.now())
}

// IsValidDueDate is the studio policy for new registrations.
func IsValidDueDate(day int) bool {
	return day >= MinDueDay && day <= MaxDueDay
}

func dueDateIn(year int, month time.Month, dueDay int, loc *time.Location) time.Time {
	if last := dates.DaysIn(year, month); dueDay > last {
		dueDay = last
	}
	return time.Date(year, month, dueDay, 0, 0, 0, 0, loc)
}
