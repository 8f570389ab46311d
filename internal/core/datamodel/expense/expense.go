package expense

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type Expense struct {
	ID            string     `gorm:"column:id;type:uuid;primaryKey"`
	Description   string     `gorm:"column:description;not null"`
	Category      string     `gorm:"column:category;not null"`
	AmountInCents int64      `gorm:"column:amount_in_cents;not null"`
	DueDate       time.Time  `gorm:"column:due_date;type:date;not null"`
	PaymentDate   *time.Time `gorm:"column:payment_date;type:date"`
	Paid          bool       `gorm:"column:paid;not null"`
	PaymentMethod string     `gorm:"column:payment_method;not null"`
	Recurrent     bool       `gorm:"column:recurrent;not null"`
	Notes         *string    `gorm:"column:notes"`
	Attachment    *string    `gorm:"column:attachment"`
	CreatedBy     string     `gorm:"column:created_by;type:uuid;not null"`
	CreatedAt     time.Time  `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt     time.Time  `gorm:"column:updated_at;autoUpdateTime"`
}

func (Expense) TableName() string { return "studio_expenses" }

func (e *Expense) BeforeCreate(*gorm.DB) error {
	if e.ID == "" {
		e.ID = uuid.NewString()
	}
	return nil
}
