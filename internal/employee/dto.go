package employee

import (
	"time"

	"github.com/jmfitness/studio-management/internal/user"
)

type CreateEmployeeDTO struct {
	user.PersonalDTO
	Role           string `json:"role" validate:"required,oneof=funcionario professor"`
	Password       string `json:"password" validate:"required,min=6,max=72"`
	Position       string `json:"position" validate:"required,min=2,max=100"`
	Shift          string `json:"shift" validate:"required,max=50"`
	ShiftStartTime string `json:"shiftStartTime" validate:"required,hhmm"`
	ShiftEndTime   string `json:"shiftEndTime" validate:"required,hhmm"`
	SalaryInCents  int64  `json:"salaryInCents" validate:"required,gt=0"`
	HireDate       string `json:"hireDate" validate:"required,date"`
}

// UpdateEmployeeDTO carries only the fields the caller wants to change.
type UpdateEmployeeDTO struct {
	Name                *string `json:"name" validate:"omitempty,min=2,max=100"`
	Email               *string `json:"email" validate:"omitempty,email,max=255"`
	Telephone           *string `json:"telephone" validate:"omitempty,min=10,max=20"`
	Address             *string `json:"address" validate:"omitempty,min=10,max=255"`
	Position            *string `json:"position" validate:"omitempty,min=2,max=100"`
	Shift               *string `json:"shift" validate:"omitempty,max=50"`
	ShiftStartTime      *string `json:"shiftStartTime" validate:"omitempty,hhmm"`
	ShiftEndTime        *string `json:"shiftEndTime" validate:"omitempty,hhmm"`
	SalaryInCents       *int64  `json:"salaryInCents" validate:"omitempty,gt=0"`
	CurrentUserID       *string `json:"currentUserId"`
	SalaryChangeReason  *string `json:"salaryChangeReason" validate:"omitempty,max=255"`
	SalaryEffectiveDate *string `json:"salaryEffectiveDate" validate:"omitempty,date"`
}

func (d UpdateEmployeeDTO) touchesEmployment() bool {
	return d.Position != nil || d.Shift != nil || d.ShiftStartTime != nil ||
		d.ShiftEndTime != nil || d.SalaryInCents != nil
}

type Created struct {
	UserID     string `json:"userId"`
	EmployeeID string `json:"employeeId"`
}

// Employee is the full listing shape.
type Employee struct {
	ID              string     `json:"id"`
	EmployeeID      string     `json:"employeeId"`
	Name            string     `json:"name"`
	Role            string     `json:"role"`
	CPF             string     `json:"cpf"`
	Email           string     `json:"email"`
	Telephone       string     `json:"telephone"`
	Address         string     `json:"address"`
	BornDate        string     `json:"bornDate"`
	Sex             string     `json:"sex"`
	Position        string     `json:"position"`
	Shift           string     `json:"shift"`
	ShiftStartTime  string     `json:"shiftStartTime"`
	ShiftEndTime    string     `json:"shiftEndTime"`
	SalaryInCents   int64      `json:"salaryInCents"`
	SalaryFormatted string     `json:"salaryFormatted"`
	HireDate        string     `json:"hireDate"`
	CreatedAt       time.Time  `json:"createdAt"`
	DeletedAt       *time.Time `json:"deletedAt"`
}

type SalaryChange struct {
	ID                      string    `json:"id"`
	PreviousSalaryInCents   int64     `json:"previousSalaryInCents"`
	NewSalaryInCents        int64     `json:"newSalaryInCents"`
	PreviousSalaryFormatted string    `json:"previousSalaryFormatted"`
	NewSalaryFormatted      string    `json:"newSalaryFormatted"`
	ChangeReason            string    `json:"changeReason"`
	ChangedBy               string    `json:"changedBy"`
	ChangedByName           string    `json:"changedByName"`
	EffectiveDate           string    `json:"effectiveDate"`
	CreatedAt               time.Time `json:"createdAt"`
}
