package postgres

import (
	"context"
	"errors"
	"fmt"

	"gorm.io/gorm"

	"github.com/jmfitness/studio-management/internal/auth"
	"github.com/jmfitness/studio-management/internal/core/database"
	"github.com/jmfitness/studio-management/internal/core/datamodel/student"
	"github.com/jmfitness/studio-management/internal/core/datamodel/user"
)

type HealthRepository struct {
	db *gorm.DB
}

func NewHealthRepository(db *gorm.DB) *HealthRepository {
	return &HealthRepository{db: db}
}

func (r *HealthRepository) StudentExists(ctx context.Context, userID string) (bool, error) {
	var n int64
	err := database.Conn(ctx, r.db).
		Model(&user.User{}).
		Where("id = ? AND user_role = ?", userID, string(auth.RoleAluno)).
		Count(&n).Error
	if err != nil {
		return false, fmt.Errorf("failed to check student %s: %w", userID, err)
	}
	return n > 0, nil
}

func (r *HealthRepository) GetMetrics(ctx context.Context, userID string) (*student.HealthMetrics, error) {
	var m student.HealthMetrics
	err := database.Conn(ctx, r.db).Where("user_id = ?", userID).Take(&m).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to load health metrics of %s: %w", userID, err)
	}
	return &m, nil
}

func (r *HealthRepository) SaveMetrics(ctx context.Context, m *student.HealthMetrics) error {
	conn := database.Conn(ctx, r.db)
	var err error
	if m.ID == "" {
		err = conn.Create(m).Error
	} else {
		err = conn.Save(m).Error
	}
	if err != nil {
		return fmt.Errorf("failed to save health metrics of %s: %w", m.UserID, err)
	}
	return nil
}

func (r *HealthRepository) InsertHistory(ctx context.Context, e *student.HealthHistoryEntry) error {
	if err := database.Conn(ctx, r.db).Create(e).Error; err != nil {
		return fmt.Errorf("failed to insert health entry: %w", err)
	}
	return nil
}

func (r *HealthRepository) ListHistory(ctx context.Context, userID string) ([]student.HealthHistoryEntry, error) {
	var rows []student.HealthHistoryEntry
	err := database.Conn(ctx, r.db).
		Where("user_id = ?", userID).
		Order("created_at DESC").
		Find(&rows).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list health entries of %s: %w", userID, err)
	}
	return rows, nil
}

func (r *HealthRepository) InsertMeasurement(ctx context.Context, m *student.BodyMeasurement) error {
	if err := database.Conn(ctx, r.db).Create(m).Error; err != nil {
		return fmt.Errorf("failed to insert body measurement: %w", err)
	}
	return nil
}

func (r *HealthRepository) ListMeasurements(ctx context.Context, userID string) ([]student.BodyMeasurement, error) {
	var rows []student.BodyMeasurement
	err := database.Conn(ctx, r.db).
		Where("user_id = ?", userID).
		Order("created_at DESC").
		Find(&rows).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list body measurements of %s: %w", userID, err)
	}
	return rows, nil
}
