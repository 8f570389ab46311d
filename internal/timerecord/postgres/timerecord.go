package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"gorm.io/gorm"

	"github.com/jmfitness/studio-management/internal"
	"github.com/jmfitness/studio-management/internal/core/database"
	employeeDatamodel "github.com/jmfitness/studio-management/internal/core/datamodel/employee"
	"github.com/jmfitness/studio-management/internal/timerecord"
)

type TimeRecordRepository struct {
	db *gorm.DB
}

func NewTimeRecordRepository(db *gorm.DB) *TimeRecordRepository {
	return &TimeRecordRepository{db: db}
}

func (r *TimeRecordRepository) employees(ctx context.Context) *gorm.DB {
	return database.Conn(ctx, r.db).
		Table("employees e").
		Select("e.id, e.user_id, u.name").
		Joins("JOIN users u ON u.id = e.user_id")
}

func (r *TimeRecordRepository) FindEmployeeByUser(ctx context.Context, userID string) (*timerecord.Employee, error) {
	var rows []timerecord.Employee
	if err := r.employees(ctx).Where("e.user_id = ? AND e.deleted_at IS NULL", userID).Limit(1).Scan(&rows).Error; err != nil {
		return nil, fmt.Errorf("failed to load employee of user %s: %w", userID, err)
	}
	if len(rows) == 0 {
		return nil, timerecord.ErrNoEmployee
	}
	return &rows[0], nil
}

func (r *TimeRecordRepository) GetEmployee(ctx context.Context, id string) (*timerecord.Employee, error) {
	var rows []timerecord.Employee
	if err := r.employees(ctx).Where("e.id = ?", id).Limit(1).Scan(&rows).Error; err != nil {
		return nil, fmt.Errorf("failed to load employee %s: %w", id, err)
	}
	if len(rows) == 0 {
		return nil, internal.ErrEmployeeNotFound
	}
	return &rows[0], nil
}

func (r *TimeRecordRepository) FindOn(ctx context.Context, employeeID string, day time.Time) (*employeeDatamodel.TimeRecord, error) {
	var rec employeeDatamodel.TimeRecord
	err := database.Conn(ctx, r.db).Where("employee_id = ? AND date = ?", employeeID, day).Take(&rec).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to load time record: %w", err)
	}
	return &rec, nil
}

func (r *TimeRecordRepository) Get(ctx context.Context, id string) (*employeeDatamodel.TimeRecord, error) {
	var rec employeeDatamodel.TimeRecord
	err := database.Conn(ctx, r.db).Where("id = ?", id).Take(&rec).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, internal.ErrTimeRecordNotFound
		}
		return nil, fmt.Errorf("failed to load time record %s: %w", id, err)
	}
	return &rec, nil
}

func (r *TimeRecordRepository) Insert(ctx context.Context, rec *employeeDatamodel.TimeRecord) error {
	if err := database.Conn(ctx, r.db).Create(rec).Error; err != nil {
		return fmt.Errorf("failed to insert time record: %w", err)
	}
	return nil
}

func (r *TimeRecordRepository) Update(ctx context.Context, id string, fields map[string]interface{}) error {
	fields["updated_at"] = time.Now()
	res := database.Conn(ctx, r.db).Model(&employeeDatamodel.TimeRecord{}).Where("id = ?", id).Updates(fields)
	if res.Error != nil {
		return fmt.Errorf("failed to update time record %s: %w", id, res.Error)
	}
	if res.RowsAffected == 0 {
		return internal.ErrTimeRecordNotFound
	}
	return nil
}

func (r *TimeRecordRepository) List(ctx context.Context, employeeID string, from, to time.Time) ([]employeeDatamodel.TimeRecord, error) {
	var rows []employeeDatamodel.TimeRecord
	err := database.Conn(ctx, r.db).
		Where("employee_id = ? AND date >= ? AND date <= ?", employeeID, from, to).
		Order("date DESC").
		Find(&rows).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list time records of %s: %w", employeeID, err)
	}
	return rows, nil
}
