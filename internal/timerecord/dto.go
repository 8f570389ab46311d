package timerecord

import "time"

// RegisterDTO opens the day on the first call and closes it on the second.
// Missing times default to the current clock and a missing employee to the
// caller.
type RegisterDTO struct {
	EmployeeID   string  `json:"employeeId"`
	Date         *string `json:"date" validate:"omitempty,date"`
	CheckInTime  *string `json:"checkInTime" validate:"omitempty,hhmm"`
	CheckOutTime *string `json:"checkOutTime" validate:"omitempty,hhmm"`
	Notes        *string `json:"notes" validate:"omitempty,max=500"`
}

type Kind string

const (
	KindEntry Kind = "entrada"
	KindExit  Kind = "saida"
)

type Registered struct {
	Kind   Kind   `json:"kind"`
	Record Record `json:"record"`
}

type Record struct {
	ID           string    `json:"id"`
	EmployeeID   string    `json:"employeeId"`
	Date         string    `json:"date"`
	CheckInTime  string    `json:"checkInTime"`
	CheckOutTime *string   `json:"checkOutTime"`
	TotalHours   *string   `json:"totalHours"`
	Notes        *string   `json:"notes"`
	Approved     bool      `json:"approved"`
	ApprovedBy   *string   `json:"approvedBy"`
	CreatedAt    time.Time `json:"createdAt"`
	UpdatedAt    time.Time `json:"updatedAt"`
}
