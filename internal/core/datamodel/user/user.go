package user

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type User struct {
	ID        string     `gorm:"column:id;type:uuid;primaryKey"`
	Name      string     `gorm:"column:name;not null"`
	UserRole  string     `gorm:"column:user_role;not null"`
	Password  *string    `gorm:"column:password"`
	IsActive  bool       `gorm:"column:is_active;not null;default:true"`
	CreatedAt time.Time  `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt time.Time  `gorm:"column:updated_at;autoUpdateTime"`
	DeletedAt *time.Time `gorm:"column:deleted_at"`
}

func (User) TableName() string { return "users" }

func (u *User) BeforeCreate(*gorm.DB) error {
	if u.ID == "" {
		u.ID = uuid.NewString()
	}
	return nil
}

type PersonalData struct {
	UserID    string    `gorm:"column:user_id;type:uuid;primaryKey"`
	CPF       string    `gorm:"column:cpf;size:11;not null;uniqueIndex"`
	Email     string    `gorm:"column:email;not null;uniqueIndex"`
	Telephone string    `gorm:"column:telephone;not null"`
	Address   string    `gorm:"column:address;not null"`
	BornDate  time.Time `gorm:"column:born_date;type:date;not null"`
	Sex       string    `gorm:"column:sex;not null"`
	CreatedAt time.Time `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt time.Time `gorm:"column:updated_at;autoUpdateTime"`
}

func (PersonalData) TableName() string { return "personal_data" }

type ConfirmationToken struct {
	ID        string    `gorm:"column:id;type:uuid;primaryKey"`
	UserID    string    `gorm:"column:user_id;type:uuid;not null;index"`
	Token     string    `gorm:"column:token;not null;uniqueIndex"`
	ExpiresAt time.Time `gorm:"column:expires_at;not null"`
	Used      bool      `gorm:"column:used;not null"`
	CreatedAt time.Time `gorm:"column:created_at;autoCreateTime"`
}

func (ConfirmationToken) TableName() string { return "user_confirmation_tokens" }

func (t *ConfirmationToken) BeforeCreate(*gorm.DB) error {
	if t.ID == "" {
		t.ID = uuid.NewString()
	}
	return nil
}
