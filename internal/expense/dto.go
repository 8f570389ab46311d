package expense

import (
	"time"

	"github.com/jmfitness/studio-management/internal/core/common/validation"
	expenseDatamodel "github.com/jmfitness/studio-management/internal/core/datamodel/expense"
	"github.com/jmfitness/studio-management/pkg/dates"
	"github.com/jmfitness/studio-management/pkg/money"
)

type CreateExpenseDTO struct {
	Description   string  `json:"description" validate:"notblank,min=2,max=255"`
	Category      string  `json:"category" validate:"required,oneof=energia agua aluguel internet telefone manutencao material_limpeza material_escritorio equipamentos marketing seguranca seguros impostos salarios outros"`
	AmountInCents int64   `json:"amountInCents" validate:"required,gt=0"`
	DueDate       string  `json:"dueDate" validate:"required,date"`
	PaymentMethod string  `json:"paymentMethod" validate:"required,oneof=pix boleto cartao_credito cartao_debito dinheiro transferencia"`
	Recurrent     bool    `json:"recurrent"`
	Notes         *string `json:"notes" validate:"omitempty,max=1000"`
}

// UpdateExpenseDTO marks an expense paid or pending. A paid expense without
// a payment date is stamped with today.
type UpdateExpenseDTO struct {
	Paid        *bool   `json:"paid" validate:"required"`
	PaymentDate *string `json:"paymentDate" validate:"omitempty,date"`
}

type Expense struct {
	ID              string    `json:"id"`
	Description     string    `json:"description"`
	Category        Category  `json:"category"`
	CategoryLabel   string    `json:"categoryLabel"`
	AmountInCents   int64     `json:"amountInCents"`
	FormattedAmount string    `json:"formattedAmount"`
	DueDate         string    `json:"dueDate"`
	PaymentDate     *string   `json:"paymentDate"`
	Paid            bool      `json:"paid"`
	PaymentMethod   string    `json:"paymentMethod"`
	Recurrent       bool      `json:"recurrent"`
	Notes           *string   `json:"notes"`
	Attachment      *string   `json:"attachment"`
	CreatedBy       string    `json:"createdBy"`
	CreatedAt       time.Time `json:"createdAt"`
	UpdatedAt       time.Time `json:"updatedAt"`
}

func FromDataModel(e *expenseDatamodel.Expense) Expense {
	out := Expense{
		ID:              e.ID,
		Description:     e.Description,
		Category:        Category(e.Category),
		CategoryLabel:   Category(e.Category).Label(),
		AmountInCents:   e.AmountInCents,
		FormattedAmount: money.FormatBRL(e.AmountInCents),
		DueDate:         e.DueDate.Format(validation.DateLayout),
		Paid:            e.Paid,
		PaymentMethod:   e.PaymentMethod,
		Recurrent:       e.Recurrent,
		Notes:           e.Notes,
		Attachment:      e.Attachment,
		CreatedBy:       e.CreatedBy,
		CreatedAt:       e.CreatedAt,
		UpdatedAt:       e.UpdatedAt,
	}
	if e.PaymentDate != nil {
		d := e.PaymentDate.Format(validation.DateLayout)
		out.PaymentDate = &d
	}
	return out
}

func FromDataModelSlice(rows []expenseDatamodel.Expense) []Expense {
	out := make([]Expense, len(rows))
	for i := range rows {
		out[i] = FromDataModel(&rows[i])
	}
	return out
}

// Bucket is a count and sum of expenses.
type Bucket struct {
	Count          int64  `json:"count"`
	TotalInCents   int64  `json:"totalInCents"`
	TotalFormatted string `json:"totalFormatted"`
}

func (b *Bucket) add(count, cents int64) {
	b.Count += count
	b.TotalInCents += cents
}

func (b *Bucket) format() {
	b.TotalFormatted = money.FormatBRL(b.TotalInCents)
}

type Overview struct {
	Pending   Bucket `json:"pending"`
	Paid      Bucket `json:"paid"`
	Recurrent Bucket `json:"recurrent"`
	OneOff    Bucket `json:"oneOff"`
	Total     Bucket `json:"total"`
}

func dueDateBR(e Expense) string {
	t, err := validation.ParseDate(e.DueDate)
	if err != nil {
		return e.DueDate
	}
	return dates.FormatBR(t)
}

type CategoryOption struct {
	Value Category `json:"value"`
	Label string   `json:"label"`
}

func categoryOptions() []CategoryOption {
	out := make([]CategoryOption, len(Categories))
	for i, c := range Categories {
		out[i] = CategoryOption{Value: c, Label: c.Label()}
	}
	return out
}
