// Package checkin records student attendance from the front-desk kiosk and
// from staff, and professor presence.
package checkin

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/jmfitness/studio-management/internal"
	"github.com/jmfitness/studio-management/internal/auth"
	checkinDatamodel "github.com/jmfitness/studio-management/internal/core/datamodel/checkin"
	"github.com/jmfitness/studio-management/pkg/dates"
)

const (
	MethodCPF    = "cpf"
	MethodEmail  = "email"
	MethodManual = "manual"

	DefaultListLimit = 100
	guardTTL         = 24 * time.Hour
)

var (
	ErrUnknownIdentifier = internal.NewNotFoundError("Usuário não encontrado. Verifique o CPF ou email digitado.", internal.ErrCodeUserNotFound)
	ErrStudentsOnly      = internal.NewForbiddenError("Check-in rápido disponível apenas para alunos.", internal.ErrCodeRoleNotAllowed)
	ErrProfessorsOnly    = internal.NewForbiddenError("Apenas professores podem fazer check-in", internal.ErrCodeRoleNotAllowed)
	ErrNoEmployeeRecord  = internal.NewNotFoundError("Professor não tem registro de funcionário", internal.ErrCodeEmployeeNotFound)
)

var weekdays = [...]string{
	"domingo", "segunda-feira", "terça-feira", "quarta-feira", "quinta-feira", "sexta-feira", "sábado",
}

// IsOpen reports whether the kiosk accepts check-ins on t's weekday.
func IsOpen(t time.Time) bool {
	wd := t.Weekday()
	return wd >= time.Monday && wd <= time.Friday
}

// NextMonday is the first Monday strictly after t.
func NextMonday(t time.Time) time.Time {
	days := int(time.Monday - t.Weekday())
	if days <= 0 {
		days += 7
	}
	return dates.Day(t).AddDate(0, 0, days)
}

// ClosedError names today's weekday and the next Monday.
func ClosedError(t time.Time) *internal.AppError {
	msg := fmt.Sprintf("Check-ins são permitidos apenas de segunda a sexta-feira. Hoje é %s. Volte na segunda-feira, %s.",
		weekdays[t.Weekday()], dates.FormatBR(NextMonday(t)))
	return internal.NewForbiddenError(msg, internal.ErrCodeCheckInClosed)
}

func alreadyCheckedIn(name string) *internal.AppError {
	return internal.NewConflictError(fmt.Sprintf("%s, você já fez check-in hoje!", name), internal.ErrCodeAlreadyCheckedIn)
}

// ParseIdentifier decides whether the kiosk input is an e-mail or a CPF and
// normalizes it.
func ParseIdentifier(raw string) (method, value string) {
	raw = strings.TrimSpace(raw)
	if strings.Contains(raw, "@") {
		return MethodEmail, strings.ToLower(raw)
	}
	digits := make([]rune, 0, len(raw))
	for _, r := range raw {
		if r >= '0' && r <= '9' {
			digits = append(digits, r)
		}
	}
	return MethodCPF, string(digits)
}

// Person is the user behind a check-in.
type Person struct {
	UserID    string
	Name      string
	Role      auth.Role
	DeletedAt *time.Time
}

// Professor links a professor's user to their employee row.
type Professor struct {
	EmployeeID string
	Name       string
}

// Row is a check-in joined with the student's name and contacts.
type Row struct {
	ID           string
	UserID       string
	UserName     string
	CPF          string
	Email        string
	CheckInDate  time.Time
	CheckInTime  string
	Method       string
	Identifier   string
	RegisteredBy *string
}

type Repository interface {
	// FindByIdentifier returns internal.ErrUserNotFound when nobody matches.
	FindByIdentifier(ctx context.Context, method, value string) (*Person, error)
	FindPerson(ctx context.Context, userID string) (*Person, error)
	HasCheckIn(ctx context.Context, userID string, day time.Time) (bool, error)
	Insert(ctx context.Context, c *checkinDatamodel.CheckIn) error
	ListByDate(ctx context.Context, day time.Time, limit int) ([]Row, error)
	ListByStudent(ctx context.Context, userID string) ([]Row, error)

	// FindProfessor returns ErrNoEmployeeRecord when the user has no employee row.
	FindProfessor(ctx context.Context, userID string) (*Professor, error)
	ProfessorCheckInOn(ctx context.Context, employeeID string, day time.Time) (*checkinDatamodel.ProfessorCheckIn, error)
	InsertProfessor(ctx context.Context, p *checkinDatamodel.ProfessorCheckIn) error
	ListProfessor(ctx context.Context, employeeID string, from, to *time.Time) ([]checkinDatamodel.ProfessorCheckIn, error)
}

// Guard is the fast once-per-day lock. cache.Guard satisfies it.
type Guard interface {
	Acquire(ctx context.Context, key string, ttl time.Duration) (bool, error)
	Release(ctx context.Context, key string) error
}

func guardKey(userID string, day time.Time) string {
	return "checkin:" + userID + ":" + day.Format("2006-01-02")
}
