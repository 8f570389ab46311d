package student

import (
	"time"

	"github.com/jmfitness/studio-management/internal/health"
	"github.com/jmfitness/studio-management/internal/user"
)

type CreateStudentDTO struct {
	user.PersonalDTO
	MonthlyFeeValueInCents int64             `json:"monthlyFeeValueInCents" validate:"required,gt=0"`
	PaymentMethod          string            `json:"paymentMethod" validate:"required,oneof=pix cartao_credito cartao_debito dinheiro transferencia"`
	DueDate                int               `json:"dueDate" validate:"required,dueday"`
	Health                 health.MetricsDTO `json:"health"`
}

// UpdateStudentDTO carries only the fields the caller wants to change.
type UpdateStudentDTO struct {
	Name                   *string  `json:"name" validate:"omitempty,min=2,max=100"`
	CPF                    *string  `json:"cpf" validate:"omitempty,cpf"`
	Email                  *string  `json:"email" validate:"omitempty,email,max=255"`
	BornDate               *string  `json:"bornDate" validate:"omitempty,date"`
	Address                *string  `json:"address" validate:"omitempty,min=10,max=255"`
	Telephone              *string  `json:"telephone" validate:"omitempty,min=10,max=20"`
	MonthlyFeeValueInCents *int64   `json:"monthlyFeeValueInCents" validate:"omitempty,gt=0"`
	PaymentMethod          *string  `json:"paymentMethod" validate:"omitempty,oneof=pix cartao_credito cartao_debito dinheiro transferencia"`
	DueDate                *int     `json:"dueDate" validate:"omitempty,dueday"`
	HeightCm               *int     `json:"heightCm" validate:"omitempty,min=100,max=250"`
	WeightKg               *float64 `json:"weightKg" validate:"omitempty,min=30,max=200"`
	BloodType              *string  `json:"bloodType" validate:"omitempty,oneof=A+ A- B+ B- AB+ AB- O+ O-"`
}

func (d UpdateStudentDTO) touchesFinancial() bool {
	return d.MonthlyFeeValueInCents != nil || d.PaymentMethod != nil || d.DueDate != nil
}

func (d UpdateStudentDTO) touchesHealth() bool {
	return d.HeightCm != nil || d.WeightKg != nil || d.BloodType != nil
}

type Created struct {
	UserID                string    `json:"userId"`
	ConfirmationExpiresAt time.Time `json:"confirmationExpiresAt"`
}

// Financial is shown only to callers allowed to see the fee.
type Financial struct {
	MonthlyFeeValueInCents int64   `json:"monthlyFeeValueInCents"`
	FormattedMonthlyFee    string  `json:"formattedMonthlyFee"`
	PaymentMethod          string  `json:"paymentMethod"`
	DueDate                int     `json:"dueDate"`
	Paid                   bool    `json:"paid"`
	LastPaymentDate        *string `json:"lastPaymentDate"`
	IsPaymentUpToDate      bool    `json:"isPaymentUpToDate"`
}

type Student struct {
	UserID          string     `json:"userId"`
	Name            string     `json:"name"`
	CreatedAt       time.Time  `json:"createdAt"`
	DeletedAt       *time.Time `json:"deletedAt"`
	CPF             string     `json:"cpf"`
	Email           string     `json:"email"`
	BornDate        string     `json:"bornDate"`
	Age             int        `json:"age"`
	Address         string     `json:"address"`
	Telephone       string     `json:"telephone"`
	Sex             string     `json:"sex"`
	Financial       *Financial `json:"financial,omitempty"`
	HeightCm        *int       `json:"heightCm"`
	WeightKg        *float64   `json:"weightKg"`
	BloodType       *string    `json:"bloodType"`
	HealthUpdatedAt *time.Time `json:"healthUpdatedAt"`
}
