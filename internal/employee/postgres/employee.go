package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"gorm.io/gorm"

	"github.com/jmfitness/studio-management/internal"
	"github.com/jmfitness/studio-management/internal/auth"
	"github.com/jmfitness/studio-management/internal/core/database"
	employeeDatamodel "github.com/jmfitness/studio-management/internal/core/datamodel/employee"
	userDatamodel "github.com/jmfitness/studio-management/internal/core/datamodel/user"
	"github.com/jmfitness/studio-management/internal/employee"
)

type EmployeeRepository struct {
	db *gorm.DB
}

func NewEmployeeRepository(db *gorm.DB) *EmployeeRepository {
	return &EmployeeRepository{db: db}
}

func (r *EmployeeRepository) Insert(ctx context.Context, e *employeeDatamodel.Employee) error {
	if err := database.Conn(ctx, r.db).Create(e).Error; err != nil {
		return fmt.Errorf("failed to insert employee: %w", err)
	}
	return nil
}

func (r *EmployeeRepository) List(ctx context.Context, includeDeleted bool) ([]employee.Row, error) {
	var rows []employee.Row
	q := database.Conn(ctx, r.db).
		Table("employees e").
		Select(`e.id AS employee_id, e.user_id, u.name, u.user_role AS role,
			p.cpf, p.email, p.telephone, p.address, p.born_date, p.sex,
			e.position, e.shift, e.shift_start_time, e.shift_end_time,
			e.salary_in_cents, e.hire_date, e.created_at, e.deleted_at`).
		Joins("JOIN users u ON u.id = e.user_id").
		Joins("JOIN personal_data p ON p.user_id = e.user_id").
		Order("u.name ASC")
	if !includeDeleted {
		q = q.Where("e.deleted_at IS NULL")
	}
	if err := q.Scan(&rows).Error; err != nil {
		return nil, fmt.Errorf("failed to list employees: %w", err)
	}
	return rows, nil
}

type recordRow struct {
	EmployeeID    string
	UserID        string
	Name          string
	UserRole      string
	SalaryInCents int64
	DeletedAt     *time.Time
}

func (r *EmployeeRepository) Get(ctx context.Context, id string) (*employee.Record, error) {
	var row recordRow
	err := database.Conn(ctx, r.db).
		Table("employees e").
		Select("e.id AS employee_id, e.user_id, u.name, u.user_role, e.salary_in_cents, e.deleted_at").
		Joins("JOIN users u ON u.id = e.user_id").
		Where("e.id = ?", id).
		Take(&row).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, internal.ErrEmployeeNotFound
		}
		return nil, fmt.Errorf("failed to load employee %s: %w", id, err)
	}
	return &employee.Record{
		EmployeeID:    row.EmployeeID,
		UserID:        row.UserID,
		Name:          row.Name,
		Role:          auth.Role(row.UserRole),
		SalaryInCents: row.SalaryInCents,
		DeletedAt:     row.DeletedAt,
	}, nil
}

func (r *EmployeeRepository) Apply(ctx context.Context, rec *employee.Record, changes employee.Changes) error {
	conn := database.Conn(ctx, r.db)
	now := time.Now()

	if len(changes.User) > 0 {
		changes.User["updated_at"] = now
		if err := conn.Model(&userDatamodel.User{}).Where("id = ?", rec.UserID).Updates(changes.User).Error; err != nil {
			return fmt.Errorf("failed to update user %s: %w", rec.UserID, err)
		}
	}
	if len(changes.Personal) > 0 {
		changes.Personal["updated_at"] = now
		if err := conn.Model(&userDatamodel.PersonalData{}).Where("user_id = ?", rec.UserID).Updates(changes.Personal).Error; err != nil {
			return fmt.Errorf("failed to update personal data of %s: %w", rec.UserID, err)
		}
	}
	if len(changes.Employee) > 0 {
		changes.Employee["updated_at"] = now
		if err := conn.Model(&employeeDatamodel.Employee{}).Where("id = ?", rec.EmployeeID).Updates(changes.Employee).Error; err != nil {
			return fmt.Errorf("failed to update employee %s: %w", rec.EmployeeID, err)
		}
	}
	return nil
}

func (r *EmployeeRepository) InsertSalaryChange(ctx context.Context, h *employeeDatamodel.SalaryHistory) error {
	if err := database.Conn(ctx, r.db).Create(h).Error; err != nil {
		return fmt.Errorf("failed to insert salary history: %w", err)
	}
	return nil
}

func (r *EmployeeRepository) SetDeleted(ctx context.Context, rec *employee.Record, at *time.Time) error {
	conn := database.Conn(ctx, r.db)
	if err := conn.Model(&employeeDatamodel.Employee{}).
		Where("id = ?", rec.EmployeeID).
		Updates(map[string]interface{}{"deleted_at": at, "updated_at": time.Now()}).Error; err != nil {
		return fmt.Errorf("failed to set deleted_at on employee %s: %w", rec.EmployeeID, err)
	}
	if err := conn.Model(&userDatamodel.User{}).
		Where("id = ?", rec.UserID).
		Updates(map[string]interface{}{"deleted_at": at, "updated_at": time.Now()}).Error; err != nil {
		return fmt.Errorf("failed to set deleted_at on user %s: %w", rec.UserID, err)
	}
	return nil
}

func (r *EmployeeRepository) SalaryHistory(ctx context.Context, id string) ([]employee.SalaryChangeRow, error) {
	var rows []employee.SalaryChangeRow
	err := database.Conn(ctx, r.db).
		Table("employee_salary_history h").
		Select(`h.id, h.previous_salary_in_cents, h.new_salary_in_cents, h.change_reason,
			h.changed_by, COALESCE(u.name, '') AS changed_by_name, h.effective_date, h.created_at`).
		Joins("LEFT JOIN users u ON u.id = h.changed_by").
		Where("h.employee_id = ?", id).
		Order("h.created_at DESC").
		Scan(&rows).Error
	if err != nil {
		return nil, fmt.Errorf("failed to load salary history of %s: %w", id, err)
	}
	return rows, nil
}
