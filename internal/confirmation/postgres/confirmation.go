package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"gorm.io/gorm"

	"github.com/jmfitness/studio-management/internal/confirmation"
	"github.com/jmfitness/studio-management/internal/core/database"
	userDatamodel "github.com/jmfitness/studio-management/internal/core/datamodel/user"
)

type ConfirmationRepository struct {
	db *gorm.DB
}

func NewConfirmationRepository(db *gorm.DB) *ConfirmationRepository {
	return &ConfirmationRepository{db: db}
}

func (r *ConfirmationRepository) Create(ctx context.Context, t *userDatamodel.ConfirmationToken) error {
	if err := database.Conn(ctx, r.db).Create(t).Error; err != nil {
		return fmt.Errorf("failed to create confirmation token: %w", err)
	}
	return nil
}

type tokenOwnerRow struct {
	TokenID   string
	UserID    string
	Name      string
	Email     string
	CPF       string `gorm:"column:cpf"`
	ExpiresAt time.Time
}

func (r *ConfirmationRepository) FindUnused(ctx context.Context, token string) (*confirmation.TokenOwner, error) {
	var row tokenOwnerRow
	err := database.Conn(ctx, r.db).
		Table("user_confirmation_tokens t").
		Select("t.id AS token_id, t.user_id, u.name, p.email, p.cpf, t.expires_at").
		Joins("JOIN users u ON u.id = t.user_id").
		Joins("JOIN personal_data p ON p.user_id = u.id").
		Where("t.token = ? AND t.used = ?", token, false).
		Take(&row).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to look up confirmation token: %w", err)
	}
	return &confirmation.TokenOwner{
		TokenID:   row.TokenID,
		UserID:    row.UserID,
		Name:      row.Name,
		Email:     row.Email,
		CPF:       row.CPF,
		ExpiresAt: row.ExpiresAt,
	}, nil
}

func (r *ConfirmationRepository) SetPassword(ctx context.Context, userID, hash string) error {
	res := database.Conn(ctx, r.db).Model(&userDatamodel.User{}).
		Where("id = ?", userID).
		Updates(map[string]interface{}{"password": hash, "updated_at": time.Now()})
	if res.Error != nil {
		return fmt.Errorf("failed to set password for %s: %w", userID, res.Error)
	}
	if res.RowsAffected == 0 {
		return fmt.Errorf("user %s not found", userID)
	}
	return nil
}

func (r *ConfirmationRepository) MarkUsed(ctx context.Context, tokenID string) (bool, error) {
	res := database.Conn(ctx, r.db).Model(&userDatamodel.ConfirmationToken{}).
		Where("id = ? AND used = ?", tokenID, false).
		Update("used", true)
	if res.Error != nil {
		return false, fmt.Errorf("failed to mark token %s as used: %w", tokenID, res.Error)
	}
	return res.RowsAffected == 1, nil
}

func (r *ConfirmationRepository) DeleteExpired(ctx context.Context, before time.Time) (int64, error) {
	res := database.Conn(ctx, r.db).
		Where("expires_at < ?", before).
		Delete(&userDatamodel.ConfirmationToken{})
	if res.Error != nil {
		return 0, fmt.Errorf("failed to delete expired tokens: %w", res.Error)
	}
	return res.RowsAffected, nil
}
