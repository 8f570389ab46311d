package events

import (
	"time"

	"github.com/google/uuid"
)

const (
	EventTypeCheckInRecorded    = "checkin.recorded"
	EventTypeProfessorCheckedIn = "checkin.professor"
	EventTypeStudentUpserted    = "student.upserted"
	EventTypeStudentRemoved     = "student.removed"
	EventTypeFeePaid            = "payment.fee_paid"
)

func newBase(eventType string, data map[string]interface{}) BaseEvent {
	return BaseEvent{
		ID:        uuid.NewString(),
		Type:      eventType,
		Timestamp: time.Now(),
		Data:      data,
	}
}

type CheckInRecordedEvent struct {
	BaseEvent
	CheckInID   string `json:"check_in_id"`
	UserID      string `json:"user_id"`
	UserName    string `json:"user_name"`
	Method      string `json:"method"`
	CheckInTime string `json:"check_in_time"`
}

func NewCheckInRecordedEvent(checkInID, userID, userName, method, checkInTime string) *CheckInRecordedEvent {
	return &CheckInRecordedEvent{
		BaseEvent: newBase(EventTypeCheckInRecorded, map[string]interface{}{
			"check_in_id":   checkInID,
			"user_id":       userID,
			"user_name":     userName,
			"method":        method,
			"check_in_time": checkInTime,
		}),
		CheckInID:   checkInID,
		UserID:      userID,
		UserName:    userName,
		Method:      method,
		CheckInTime: checkInTime,
	}
}

type ProfessorCheckedInEvent struct {
	BaseEvent
	EmployeeID  string `json:"employee_id"`
	UserName    string `json:"user_name"`
	CheckInTime string `json:"check_in_time"`
}

func NewProfessorCheckedInEvent(employeeID, userName, checkInTime string) *ProfessorCheckedInEvent {
	return &ProfessorCheckedInEvent{
		BaseEvent: newBase(EventTypeProfessorCheckedIn, map[string]interface{}{
			"employee_id":   employeeID,
			"user_name":     userName,
			"check_in_time": checkInTime,
		}),
		EmployeeID:  employeeID,
		UserName:    userName,
		CheckInTime: checkInTime,
	}
}

// StudentUpsertedEvent carries what the search index stores for a student.
type StudentUpsertedEvent struct {
	BaseEvent
	UserID string `json:"user_id"`
	Name   string `json:"name"`
	Email  string `json:"email"`
	CPF    string `json:"cpf"`
}

func NewStudentUpsertedEvent(userID, name, email, cpf string) *StudentUpsertedEvent {
	return &StudentUpsertedEvent{
		BaseEvent: newBase(EventTypeStudentUpserted, map[string]interface{}{
			"user_id": userID,
			"name":    name,
			"email":   email,
			"cpf":     cpf,
		}),
		UserID: userID,
		Name:   name,
		Email:  email,
		CPF:    cpf,
	}
}

type StudentRemovedEvent struct {
	BaseEvent
	UserID string `json:"user_id"`
}

func NewStudentRemovedEvent(userID string) *StudentRemovedEvent {
	return &StudentRemovedEvent{
		BaseEvent: newBase(EventTypeStudentRemoved, map[string]interface{}{"user_id": userID}),
		UserID:    userID,
	}
}

type FeePaidEvent struct {
	BaseEvent
	UserID        string    `json:"user_id"`
	AmountInCents int64     `json:"amount_in_cents"`
	Method        string    `json:"method"`
	PaidAt        time.Time `json:"paid_at"`
}

func NewFeePaidEvent(userID string, amountInCents int64, method string, paidAt time.Time) *FeePaidEvent {
	return &FeePaidEvent{
		BaseEvent: newBase(EventTypeFeePaid, map[string]interface{}{
			"user_id":         userID,
			"amount_in_cents": amountInCents,
			"method":          method,
			"paid_at":         paidAt,
		}),
		UserID:        userID,
		AmountInCents: amountInCents,
		Method:        method,
		PaidAt:        paidAt,
	}
}
