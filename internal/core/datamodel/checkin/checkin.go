package checkin

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type CheckIn struct {
	ID               string    `gorm:"column:id;type:uuid;primaryKey"`
	UserID           string    `gorm:"column:user_id;type:uuid;not null;index:idx_check_ins_user_date"`
	CheckInDate      time.Time `gorm:"column:check_in_date;type:date;not null;index:idx_check_ins_user_date"`
	CheckInTime      string    `gorm:"column:check_in_time;size:5;not null"`
	CheckInTimestamp time.Time `gorm:"column:check_in_timestamp;not null"`
	Method           string    `gorm:"column:method;not null"`
	Identifier       string    `gorm:"column:identifier;not null"`
	RegisteredBy     *string   `gorm:"column:registered_by;type:uuid"`
	CreatedAt        time.Time `gorm:"column:created_at;autoCreateTime"`
}

func (CheckIn) TableName() string { return "check_ins" }

func (c *CheckIn) BeforeCreate(*gorm.DB) error {
	if c.ID == "" {
		c.ID = uuid.NewString()
	}
	return nil
}

type ProfessorCheckIn struct {
	ID          string    `gorm:"column:id;type:uuid;primaryKey"`
	ProfessorID string    `gorm:"column:professor_id;type:uuid;not null;uniqueIndex:idx_professor_check_ins_day"`
	Date        time.Time `gorm:"column:date;type:date;not null;uniqueIndex:idx_professor_check_ins_day"`
	CheckInTime string    `gorm:"column:check_in_time;size:5;not null"`
	Notes       *string   `gorm:"column:notes"`
	CreatedAt   time.Time `gorm:"column:created_at;autoCreateTime"`
}

func (ProfessorCheckIn) TableName() string { return "professor_check_ins" }

func (p *ProfessorCheckIn) BeforeCreate(*gorm.DB) error {
	if p.ID == "" {
		p.ID = uuid.NewString()
	}
	return nil
}
