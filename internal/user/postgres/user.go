package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"gorm.io/gorm"

	"github.com/jmfitness/studio-management/internal"
	"github.com/jmfitness/studio-management/internal/auth"
	"github.com/jmfitness/studio-management/internal/core/common/validation"
	"github.com/jmfitness/studio-management/internal/core/database"
	employeeDatamodel "github.com/jmfitness/studio-management/internal/core/datamodel/employee"
	studentDatamodel "github.com/jmfitness/studio-management/internal/core/datamodel/student"
	userDatamodel "github.com/jmfitness/studio-management/internal/core/datamodel/user"
	"github.com/jmfitness/studio-management/internal/user"
)

type UserRepository struct {
	db *gorm.DB
}

func NewUserRepository(db *gorm.DB) *UserRepository {
	return &UserRepository{db: db}
}

func (r *UserRepository) IdentifiersInUse(ctx context.Context, cpf, email, exceptUserID string) (bool, bool, error) {
	var rows []userDatamodel.PersonalData
	q := database.Conn(ctx, r.db).
		Select("user_id, cpf, email").
		Where("cpf = ? OR email = ?", cpf, email)
	if exceptUserID != "" {
		q = q.Where("user_id <> ?", exceptUserID)
	}
	if err := q.Find(&rows).Error; err != nil {
		return false, false, fmt.Errorf("failed to check cpf/email: %w", err)
	}

	var cpfTaken, emailTaken bool
	for _, p := range rows {
		if cpf != "" && p.CPF == cpf {
			cpfTaken = true
		}
		if email != "" && p.Email == email {
			emailTaken = true
		}
	}
	return cpfTaken, emailTaken, nil
}

func (r *UserRepository) InsertAccount(ctx context.Context, u *userDatamodel.User, p *userDatamodel.PersonalData) error {
	conn := database.Conn(ctx, r.db)
	if err := conn.Create(u).Error; err != nil {
		return fmt.Errorf("failed to insert user: %w", err)
	}
	p.UserID = u.ID
	if err := conn.Create(p).Error; err != nil {
		return fmt.Errorf("failed to insert personal data: %w", err)
	}
	return nil
}

type summaryRow struct {
	ID        string
	Name      string
	UserRole  string
	IsActive  bool
	DeletedAt *time.Time
	Email     string
}

func (r *UserRepository) GetSummary(ctx context.Context, id string) (*user.Summary, error) {
	var row summaryRow
	err := database.Conn(ctx, r.db).
		Table("users u").
		Select("u.id, u.name, u.user_role, u.is_active, u.deleted_at, COALESCE(p.email, '') AS email").
		Joins("LEFT JOIN personal_data p ON p.user_id = u.id").
		Where("u.id = ?", id).
		Take(&row).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, internal.ErrUserNotFound
		}
		return nil, fmt.Errorf("failed to load user %s: %w", id, err)
	}
	return &user.Summary{
		ID:        row.ID,
		Name:      row.Name,
		Role:      auth.Role(row.UserRole),
		Email:     row.Email,
		IsActive:  row.IsActive,
		DeletedAt: row.DeletedAt,
	}, nil
}

func (r *UserRepository) GetUserData(ctx context.Context, id string) (*user.UserData, error) {
	conn := database.Conn(ctx, r.db)

	var u userDatamodel.User
	if err := conn.Where("id = ?", id).Take(&u).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, internal.ErrUserNotFound
		}
		return nil, fmt.Errorf("failed to load user %s: %w", id, err)
	}

	data := &user.UserData{
		UserID:    u.ID,
		Name:      u.Name,
		Role:      u.UserRole,
		IsActive:  u.IsActive,
		DeletedAt: u.DeletedAt,
	}

	var p userDatamodel.PersonalData
	err := conn.Where("user_id = ?", id).Take(&p).Error
	switch {
	case err == nil:
		data.Email = p.Email
		data.Telephone = p.Telephone
		data.Address = p.Address
		data.CPF = p.CPF
		data.BornDate = p.BornDate.Format(validation.DateLayout)
		data.Sex = p.Sex
	case !errors.Is(err, gorm.ErrRecordNotFound):
		return nil, fmt.Errorf("failed to load personal data of %s: %w", id, err)
	}

	switch auth.Role(u.UserRole) {
	case auth.RoleFuncionario, auth.RoleProfessor:
		var e employeeDatamodel.Employee
		err := conn.Where("user_id = ?", id).Take(&e).Error
		if err == nil {
			data.EmployeeID = e.ID
			data.Position = e.Position
			data.Shift = e.Shift
			data.ShiftStartTime = e.ShiftStartTime
			data.ShiftEndTime = e.ShiftEndTime
			data.SalaryInCents = &e.SalaryInCents
		} else if !errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("failed to load employee data of %s: %w", id, err)
		}
	case auth.RoleAluno:
		var f studentDatamodel.Financial
		err := conn.Where("user_id = ?", id).Take(&f).Error
		if err == nil {
			data.MonthlyFeeValueInCents = &f.MonthlyFeeValueInCents
			data.PaymentMethod = f.PaymentMethod
			data.DueDate = &f.DueDate
		} else if !errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("failed to load financial data of %s: %w", id, err)
		}
	}

	return data, nil
}

func (r *UserRepository) SetActive(ctx context.Context, id string, active bool) error {
	return r.update(ctx, id, map[string]interface{}{"is_active": active})
}

func (r *UserRepository) SetPassword(ctx context.Context, id, hash string) error {
	return r.update(ctx, id, map[string]interface{}{"password": hash})
}

func (r *UserRepository) update(ctx context.Context, id string, fields map[string]interface{}) error {
	fields["updated_at"] = time.Now()
	res := database.Conn(ctx, r.db).Model(&userDatamodel.User{}).Where("id = ?", id).Updates(fields)
	if res.Error != nil {
		return fmt.Errorf("failed to update user %s: %w", id, res.Error)
	}
	if res.RowsAffected == 0 {
		return internal.ErrUserNotFound
	}
	return nil
}
