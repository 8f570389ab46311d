package checkin

import "time"

type QuickCheckInDTO struct {
	Identifier string `json:"identifier" validate:"notblank,max=255"`
}

type ManualCheckInDTO struct {
	StudentID string `json:"studentId" validate:"required"`
}

type ProfessorCheckInDTO struct {
	Notes *string `json:"notes" validate:"omitempty,max=500"`
}

// Receipt is what the kiosk shows after a successful check-in.
type Receipt struct {
	CheckInID   string `json:"checkInId"`
	UserName    string `json:"userName"`
	CheckInDate string `json:"checkInDate"`
	CheckInTime string `json:"checkInTime"`
	Method      string `json:"method"`
}

type CheckIn struct {
	ID           string  `json:"id"`
	UserID       string  `json:"userId"`
	UserName     string  `json:"userName"`
	CPF          string  `json:"cpf,omitempty"`
	Email        string  `json:"email,omitempty"`
	CheckInDate  string  `json:"checkInDate"`
	CheckInTime  string  `json:"checkInTime"`
	Method       string  `json:"method"`
	Identifier   string  `json:"identifier"`
	RegisteredBy *string `json:"registeredBy"`
}

type ProfessorCheckIn struct {
	ID          string    `json:"id"`
	Date        string    `json:"date"`
	CheckInTime string    `json:"checkInTime"`
	Notes       *string   `json:"notes"`
	CreatedAt   time.Time `json:"createdAt"`
}
