package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"gorm.io/gorm"

	"github.com/jmfitness/studio-management/internal"
	"github.com/jmfitness/studio-management/internal/auth"
)

type Repository struct {
	db *gorm.DB
}

func NewRepository(db *gorm.DB) *Repository {
	return &Repository{
		db: db,
	}
}

type credentialsRow struct {
	ID        string
	Name      string
	UserRole  string
	Password  *string
	IsActive  bool
	DeletedAt *time.Time
	Email     string
}

func (r *Repository) GetCredentials(ctx context.Context, email string) (*auth.Credentials, error) {
	var row credentialsRow
	err := r.db.WithContext(ctx).
		Table("users u").
		Select("u.id, u.name, u.user_role, u.password, u.is_active, u.deleted_at, p.email").
		Joins("JOIN personal_data p ON p.user_id = u.id").
		Where("p.email = ?", email).
		Take(&row).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to load credentials: %w", err)
	}

	return &auth.Credentials{
		UserID:       row.ID,
		Name:         row.Name,
		Email:        row.Email,
		Role:         auth.Role(row.UserRole),
		PasswordHash: row.Password,
		IsActive:     row.IsActive,
		Deleted:      row.DeletedAt != nil,
	}, nil
}

func (r *Repository) GetIdentity(ctx context.Context, userID string) (*auth.Identity, error) {
	var row credentialsRow
	err := r.db.WithContext(ctx).
		Table("users u").
		Select("u.id, u.name, u.user_role, COALESCE(p.email, '') AS email").
		Joins("LEFT JOIN personal_data p ON p.user_id = u.id").
		Where("u.id = ?", userID).
		Take(&row).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, internal.ErrUserNotFound
		}
		return nil, fmt.Errorf("failed to load user %s: %w", userID, err)
	}
	return &auth.Identity{
		ID:    row.ID,
		Name:  row.Name,
		Email: row.Email,
		Role:  auth.Role(row.UserRole),
	}, nil
}
