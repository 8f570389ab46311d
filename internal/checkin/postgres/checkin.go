package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"gorm.io/gorm"

	"github.com/jmfitness/studio-management/internal"
	"github.com/jmfitness/studio-management/internal/auth"
	"github.com/jmfitness/studio-management/internal/checkin"
	"github.com/jmfitness/studio-management/internal/core/database"
	checkinDatamodel "github.com/jmfitness/studio-management/internal/core/datamodel/checkin"
	employeeDatamodel "github.com/jmfitness/studio-management/internal/core/datamodel/employee"
	userDatamodel "github.com/jmfitness/studio-management/internal/core/datamodel/user"
)

const rowColumns = `c.id, c.user_id, u.name AS user_name, COALESCE(p.cpf, '') AS cpf,
	COALESCE(p.email, '') AS email, c.check_in_date, c.check_in_time, c.method,
	c.identifier, c.registered_by`

type CheckInRepository struct {
	db *gorm.DB
}

func NewCheckInRepository(db *gorm.DB) *CheckInRepository {
	return &CheckInRepository{db: db}
}

type personRow struct {
	UserID    string
	Name      string
	UserRole  string
	DeletedAt *time.Time
}

func (r personRow) person() *checkin.Person {
	return &checkin.Person{UserID: r.UserID, Name: r.Name, Role: auth.Role(r.UserRole), DeletedAt: r.DeletedAt}
}

func (r *CheckInRepository) FindByIdentifier(ctx context.Context, method, value string) (*checkin.Person, error) {
	column := "p.cpf"
	if method == checkin.MethodEmail {
		column = "p.email"
	}

	var rows []personRow
	err := database.Conn(ctx, r.db).
		Table("users u").
		Select("u.id AS user_id, u.name, u.user_role, u.deleted_at").
		Joins("JOIN personal_data p ON p.user_id = u.id").
		Where(column+" = ?", value).
		Limit(1).
		Scan(&rows).Error
	if err != nil {
		return nil, fmt.Errorf("failed to look up %s: %w", method, err)
	}
	if len(rows) == 0 {
		return nil, internal.ErrUserNotFound
	}
	return rows[0].person(), nil
}

func (r *CheckInRepository) FindPerson(ctx context.Context, userID string) (*checkin.Person, error) {
	var u userDatamodel.User
	if err := database.Conn(ctx, r.db).Where("id = ?", userID).Take(&u).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, internal.ErrUserNotFound
		}
		return nil, fmt.Errorf("failed to load user %s: %w", userID, err)
	}
	return personRow{UserID: u.ID, Name: u.Name, UserRole: u.UserRole, DeletedAt: u.DeletedAt}.person(), nil
}

func (r *CheckInRepository) HasCheckIn(ctx context.Context, userID string, day time.Time) (bool, error) {
	var n int64
	err := database.Conn(ctx, r.db).
		Model(&checkinDatamodel.CheckIn{}).
		Where("user_id = ? AND check_in_date = ?", userID, day).
		Count(&n).Error
	if err != nil {
		return false, fmt.Errorf("failed to count check-ins of %s: %w", userID, err)
	}
	return n > 0, nil
}

func (r *CheckInRepository) Insert(ctx context.Context, c *checkinDatamodel.CheckIn) error {
	if err := database.Conn(ctx, r.db).Create(c).Error; err != nil {
		return fmt.Errorf("failed to insert check-in: %w", err)
	}
	return nil
}

func (r *CheckInRepository) rows(ctx context.Context) *gorm.DB {
	return database.Conn(ctx, r.db).
		Table("check_ins c").
		Select(rowColumns).
		Joins("JOIN users u ON u.id = c.user_id").
		Joins("LEFT JOIN personal_data p ON p.user_id = c.user_id")
}

func (r *CheckInRepository) ListByDate(ctx context.Context, day time.Time, limit int) ([]checkin.Row, error) {
	var rows []checkin.Row
	err := r.rows(ctx).
		Where("c.check_in_date = ?", day).
		Order("c.check_in_time DESC").
		Limit(limit).
		Scan(&rows).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list check-ins: %w", err)
	}
	return rows, nil
}

func (r *CheckInRepository) ListByStudent(ctx context.Context, userID string) ([]checkin.Row, error) {
	var rows []checkin.Row
	err := r.rows(ctx).
		Where("c.user_id = ?", userID).
		Order("c.check_in_date ASC, c.check_in_time ASC").
		Scan(&rows).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list check-ins of %s: %w", userID, err)
	}
	return rows, nil
}

func (r *CheckInRepository) FindProfessor(ctx context.Context, userID string) (*checkin.Professor, error) {
	var rows []checkin.Professor
	err := database.Conn(ctx, r.db).
		Model(&employeeDatamodel.Employee{}).
		Select("employees.id AS employee_id, u.name").
		Joins("JOIN users u ON u.id = employees.user_id").
		Where("employees.user_id = ? AND employees.deleted_at IS NULL", userID).
		Limit(1).
		Scan(&rows).Error
	if err != nil {
		return nil, fmt.Errorf("failed to load employee of %s: %w", userID, err)
	}
	if len(rows) == 0 {
		return nil, checkin.ErrNoEmployeeRecord
	}
	return &rows[0], nil
}

func (r *CheckInRepository) ProfessorCheckInOn(ctx context.Context, employeeID string, day time.Time) (*checkinDatamodel.ProfessorCheckIn, error) {
	var pc checkinDatamodel.ProfessorCheckIn
	err := database.Conn(ctx, r.db).Where("professor_id = ? AND date = ?", employeeID, day).Take(&pc).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to load professor check-in: %w", err)
	}
	return &pc, nil
}

func (r *CheckInRepository) InsertProfessor(ctx context.Context, p *checkinDatamodel.ProfessorCheckIn) error {
	if err := database.Conn(ctx, r.db).Create(p).Error; err != nil {
		return fmt.Errorf("failed to insert professor check-in: %w", err)
	}
	return nil
}

func (r *CheckInRepository) ListProfessor(ctx context.Context, employeeID string, from, to *time.Time) ([]checkinDatamodel.ProfessorCheckIn, error) {
	q := database.Conn(ctx, r.db).Where("professor_id = ?", employeeID)
	if from != nil {
		q = q.Where("date >= ?", *from)
	}
	if to != nil {
		q = q.Where("date <= ?", *to)
	}

	var rows []checkinDatamodel.ProfessorCheckIn
	if err := q.Order("date DESC").Find(&rows).Error; err != nil {
		return nil, fmt.Errorf("failed to list professor check-ins: %w", err)
	}
	return rows, nil
}
