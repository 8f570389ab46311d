package employee

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type Employee struct {
	ID             string     `gorm:"column:id;type:uuid;primaryKey"`
	UserID         string     `gorm:"column:user_id;type:uuid;not null;uniqueIndex"`
	Position       string     `gorm:"column:position;not null"`
	Shift          string     `gorm:"column:shift;not null"`
	ShiftStartTime string     `gorm:"column:shift_start_time;size:5;not null"`
	ShiftEndTime   string     `gorm:"column:shift_end_time;size:5;not null"`
	SalaryInCents  int64      `gorm:"column:salary_in_cents;not null"`
	HireDate       time.Time  `gorm:"column:hire_date;type:date;not null"`
	CreatedAt      time.Time  `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt      time.Time  `gorm:"column:updated_at;autoUpdateTime"`
	DeletedAt      *time.Time `gorm:"column:deleted_at"`
}

func (Employee) TableName() string { return "employees" }

func (e *Employee) BeforeCreate(*gorm.DB) error {
	if e.ID == "" {
		e.ID = uuid.NewString()
	}
	return nil
}

type SalaryHistory struct {
	ID                    string    `gorm:"column:id;type:uuid;primaryKey"`
	EmployeeID            string    `gorm:"column:employee_id;type:uuid;not null;index"`
	PreviousSalaryInCents int64     `gorm:"column:previous_salary_in_cents;not null"`
	NewSalaryInCents      int64     `gorm:"column:new_salary_in_cents;not null"`
	ChangeReason          string    `gorm:"column:change_reason;not null"`
	ChangedBy             string    `gorm:"column:changed_by;type:uuid;not null"`
	EffectiveDate         time.Time `gorm:"column:effective_date;type:date;not null"`
	CreatedAt             time.Time `gorm:"column:created_at;autoCreateTime"`
}

func (SalaryHistory) TableName() string { return "employee_salary_history" }

func (s *SalaryHistory) BeforeCreate(*gorm.DB) error {
	if s.ID == "" {
		s.ID = uuid.NewString()
	}
	return nil
}

type TimeRecord struct {
	ID           string    `gorm:"column:id;type:uuid;primaryKey"`
	EmployeeID   string    `gorm:"column:employee_id;type:uuid;not null;uniqueIndex:idx_time_records_employee_date"`
	Date         time.Time `gorm:"column:date;type:date;not null;uniqueIndex:idx_time_records_employee_date"`
	CheckInTime  string    `gorm:"column:check_in_time;size:5;not null"`
	CheckOutTime *string   `gorm:"column:check_out_time;size:5"`
	TotalHours   *string   `gorm:"column:total_hours"`
	Notes        *string   `gorm:"column:notes"`
	Approved     bool      `gorm:"column:approved;not null"`
	ApprovedBy   *string   `gorm:"column:approved_by;type:uuid"`
	CreatedAt    time.Time `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt    time.Time `gorm:"column:updated_at;autoUpdateTime"`
}

func (TimeRecord) TableName() string { return "employee_time_records" }

func (t *TimeRecord) BeforeCreate(*gorm.DB) error {
	if t.ID == "" {
		t.ID = uuid.NewString()
	}
	return nil
}
