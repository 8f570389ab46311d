package employee

import (
	"context"
	"time"

	"github.com/jmfitness/studio-management/internal"
	"github.com/jmfitness/studio-management/internal/auth"
	employeeDatamodel "github.com/jmfitness/studio-management/internal/core/datamodel/employee"
)

const DefaultSalaryChangeReason = "Ajuste salarial"

var (
	ErrCurrentUserMismatch = internal.NewForbiddenError("Usuário atual não confere com a sessão", internal.ErrCodePermissionDenied)
	ErrNothingToUpdate     = internal.NewValidationError("Nenhum campo para atualizar", internal.ErrCodeEmptyPayload)
)

// Record is an employee row joined with the owning user.
type Record struct {
	EmployeeID    string
	UserID        string
	Name          string
	Role          auth.Role
	SalaryInCents int64
	DeletedAt     *time.Time
}

// Row is one line of the employee listing.
type Row struct {
	EmployeeID     string
	UserID         string
	Name           string
	Role           string
	CPF            string
	Email          string
	Telephone      string
	Address        string
	BornDate       time.Time
	Sex            string
	Position       string
	Shift          string
	ShiftStartTime string
	ShiftEndTime   string
	SalaryInCents  int64
	HireDate       time.Time
	CreatedAt      time.Time
	DeletedAt      *time.Time
}

// SalaryChangeRow is a salary history entry with the name of who changed it.
type SalaryChangeRow struct {
	ID                    string
	PreviousSalaryInCents int64
	NewSalaryInCents      int64
	ChangeReason          string
	ChangedBy             string
	ChangedByName         string
	EffectiveDate         time.Time
	CreatedAt             time.Time
}

// Changes holds the columns an update touches, per table. Empty maps are
// skipped.
type Changes struct {
	User     map[string]interface{}
	Personal map[string]interface{}
	Employee map[string]interface{}
}

func (c Changes) Empty() bool {
	return len(c.User) == 0 && len(c.Personal) == 0 && len(c.Employee) == 0
}

type Repository interface {
	Insert(ctx context.Context, e *employeeDatamodel.Employee) error
	List(ctx context.Context, includeDeleted bool) ([]Row, error)
	// Get returns internal.ErrEmployeeNotFound when id is unknown.
	Get(ctx context.Context, id string) (*Record, error)
	Apply(ctx context.Context, rec *Record, changes Changes) error
	InsertSalaryChange(ctx context.Context, h *employeeDatamodel.SalaryHistory) error
	// SetDeleted stamps or clears deleted_at on the employee and its user.
	SetDeleted(ctx context.Context, rec *Record, at *time.Time) error
	SalaryHistory(ctx context.Context, id string) ([]SalaryChangeRow, error)
}
