package student

import (
	"context"
	"time"

	"github.com/jmfitness/studio-management/internal"
	"github.com/jmfitness/studio-management/internal/auth"
	"github.com/jmfitness/studio-management/internal/confirmation"
	studentDatamodel "github.com/jmfitness/studio-management/internal/core/datamodel/student"
	"github.com/jmfitness/studio-management/internal/search"
)

const (
	MinQueryLength = 2
	SearchLimit    = 10
)

var (
	ErrAdminTarget     = internal.NewForbiddenError("Não é permitido excluir usuários administradores", internal.ErrCodeProtectedAccount)
	ErrNothingToUpdate = internal.NewValidationError("Nenhum campo para atualizar", internal.ErrCodeEmptyPayload)
)

// Record is the minimum known about a target user before touching it.
type Record struct {
	ID        string
	Name      string
	Role      auth.Role
	DeletedAt *time.Time
}

// Row is a student joined with personal, financial and health data.
type Row struct {
	UserID                 string
	Name                   string
	CreatedAt              time.Time
	DeletedAt              *time.Time
	CPF                    string
	Email                  string
	BornDate               time.Time
	Address                string
	Telephone              string
	Sex                    string
	MonthlyFeeValueInCents int64
	PaymentMethod          string
	DueDate                int
	Paid                   bool
	LastPaymentDate        *time.Time
	HeightCm               *int
	WeightKg               *float64
	BloodType              *string
	HealthUpdatedAt        *time.Time
}

// Changes holds the columns an update touches, per table.
type Changes struct {
	User      map[string]interface{}
	Personal  map[string]interface{}
	Financial map[string]interface{}
	Health    map[string]interface{}
}

func newChanges() Changes {
	return Changes{
		User:      map[string]interface{}{},
		Personal:  map[string]interface{}{},
		Financial: map[string]interface{}{},
		Health:    map[string]interface{}{},
	}
}

func (c Changes) Empty() bool {
	return len(c.User) == 0 && len(c.Personal) == 0 && len(c.Financial) == 0 && len(c.Health) == 0
}

type Repository interface {
	InsertFinancial(ctx context.Context, f *studentDatamodel.Financial) error
	InsertHealth(ctx context.Context, m *studentDatamodel.HealthMetrics) error
	List(ctx context.Context, includeDeleted bool) ([]Row, error)
	// Get returns internal.ErrStudentNotFound when id is not a student.
	Get(ctx context.Context, id string) (*Row, error)
	// GetRecord returns internal.ErrUserNotFound when id is unknown.
	GetRecord(ctx context.Context, id string) (*Record, error)
	Apply(ctx context.Context, id string, changes Changes) error
	SetDeleted(ctx context.Context, id string, at *time.Time) error
	Search(ctx context.Context, q string, limit int) ([]search.Document, error)
}

// Searcher is the external index. A nil Searcher means database search only.
type Searcher interface {
	Search(ctx context.Context, q string, limit int) ([]search.Document, error)
}

// Confirmations issues the account confirmation link sent on registration.
type Confirmations interface {
	Issue(ctx context.Context, userID string) (*confirmation.Ticket, error)
	Notify(ctx context.Context, kind confirmation.Kind, name, email string, t *confirmation.Ticket) error
}
