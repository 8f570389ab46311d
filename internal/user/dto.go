package user

import "time"

type CreateAdminDTO struct {
	PersonalDTO
	Password string `json:"password" validate:"required,min=6,max=72"`
}

type ToggleStatusDTO struct {
	IsActive *bool `json:"isActive" validate:"required"`
}

// UserData is the profile shown on the admin user page. Employee and
// financial fields are filled only for the matching roles.
type UserData struct {
	UserID    string     `json:"userId"`
	Name      string     `json:"name"`
	Role      string     `json:"role"`
	IsActive  bool       `json:"isActive"`
	DeletedAt *time.Time `json:"deletedAt,omitempty"`
	Email     string     `json:"email"`
	Telephone string     `json:"telephone"`
	Address   string     `json:"address"`
	CPF       string     `json:"cpf,omitempty"`
	BornDate  string     `json:"bornDate,omitempty"`
	Sex       string     `json:"sex,omitempty"`

	EmployeeID     string `json:"employeeId,omitempty"`
	Position       string `json:"position,omitempty"`
	Shift          string `json:"shift,omitempty"`
	ShiftStartTime string `json:"shiftStartTime,omitempty"`
	ShiftEndTime   string `json:"shiftEndTime,omitempty"`
	SalaryInCents  *int64 `json:"salaryInCents,omitempty"`

	MonthlyFeeValueInCents *int64 `json:"monthlyFeeValueInCents,omitempty"`
	PaymentMethod          string `json:"paymentMethod,omitempty"`
	DueDate                *int   `json:"dueDate,omitempty"`
}

type GeneratedPassword struct {
	Password string `json:"password"`
}

type ResetLink struct {
	Email     string    `json:"email"`
	ExpiresAt time.Time `json:"expiresAt"`
}
