package postgres

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"gorm.io/gorm"

	"github.com/jmfitness/studio-management/internal"
	"github.com/jmfitness/studio-management/internal/auth"
	"github.com/jmfitness/studio-management/internal/core/common/validation"
	"github.com/jmfitness/studio-management/internal/core/database"
	studentDatamodel "github.com/jmfitness/studio-management/internal/core/datamodel/student"
	userDatamodel "github.com/jmfitness/studio-management/internal/core/datamodel/user"
	"github.com/jmfitness/studio-management/internal/search"
	"github.com/jmfitness/studio-management/internal/student"
)

const studentColumns = `u.id AS user_id, u.name, u.created_at, u.deleted_at,
	p.cpf, p.email, p.born_date, p.address, p.telephone, p.sex,
	COALESCE(f.monthly_fee_value_in_cents, 0) AS monthly_fee_value_in_cents,
	COALESCE(f.payment_method, '') AS payment_method,
	COALESCE(f.due_date, 0) AS due_date,
	COALESCE(f.paid, false) AS paid,
	f.last_payment_date,
	h.height_cm, h.weight_kg, h.blood_type, h.updated_at AS health_updated_at`

type StudentRepository struct {
	db *gorm.DB
}

func NewStudentRepository(db *gorm.DB) *StudentRepository {
	return &StudentRepository{db: db}
}

func (r *StudentRepository) InsertFinancial(ctx context.Context, f *studentDatamodel.Financial) error {
	if err := database.Conn(ctx, r.db).Create(f).Error; err != nil {
		return fmt.Errorf("failed to insert financial: %w", err)
	}
	return nil
}

func (r *StudentRepository) InsertHealth(ctx context.Context, m *studentDatamodel.HealthMetrics) error {
	if err := database.Conn(ctx, r.db).Create(m).Error; err != nil {
		return fmt.Errorf("failed to insert health metrics: %w", err)
	}
	return nil
}

func (r *StudentRepository) base(ctx context.Context) *gorm.DB {
	return database.Conn(ctx, r.db).
		Table("users u").
		Select(studentColumns).
		Joins("JOIN personal_data p ON p.user_id = u.id").
		Joins("LEFT JOIN financial f ON f.user_id = u.id").
		Joins("LEFT JOIN health_metrics h ON h.user_id = u.id").
		Where("u.user_role = ?", string(auth.RoleAluno))
}

func (r *StudentRepository) List(ctx context.Context, includeDeleted bool) ([]student.Row, error) {
	var rows []student.Row
	q := r.base(ctx).Order("u.name ASC")
	if !includeDeleted {
		q = q.Where("u.deleted_at IS NULL")
	}
	if err := q.Scan(&rows).Error; err != nil {
		return nil, fmt.Errorf("failed to list students: %w", err)
	}
	return rows, nil
}

func (r *StudentRepository) Get(ctx context.Context, id string) (*student.Row, error) {
	var rows []student.Row
	if err := r.base(ctx).Where("u.id = ?", id).Limit(1).Scan(&rows).Error; err != nil {
		return nil, fmt.Errorf("failed to load student %s: %w", id, err)
	}
	if len(rows) == 0 {
		return nil, internal.ErrStudentNotFound
	}
	return &rows[0], nil
}

func (r *StudentRepository) GetRecord(ctx context.Context, id string) (*student.Record, error) {
	var u userDatamodel.User
	if err := database.Conn(ctx, r.db).Where("id = ?", id).Take(&u).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, internal.ErrUserNotFound
		}
		return nil, fmt.Errorf("failed to load user %s: %w", id, err)
	}
	return &student.Record{ID: u.ID, Name: u.Name, Role: auth.Role(u.UserRole), DeletedAt: u.DeletedAt}, nil
}

func (r *StudentRepository) Apply(ctx context.Context, id string, changes student.Changes) error {
	conn := database.Conn(ctx, r.db)
	now := time.Now()

	if len(changes.User) > 0 {
		changes.User["updated_at"] = now
		if err := conn.Model(&userDatamodel.User{}).Where("id = ?", id).Updates(changes.User).Error; err != nil {
			return fmt.Errorf("failed to update user %s: %w", id, err)
		}
	}
	if len(changes.Personal) > 0 {
		changes.Personal["updated_at"] = now
		if err := conn.Model(&userDatamodel.PersonalData{}).Where("user_id = ?", id).Updates(changes.Personal).Error; err != nil {
			return fmt.Errorf("failed to update personal data of %s: %w", id, err)
		}
	}
	if len(changes.Financial) > 0 {
		changes.Financial["updated_at"] = now
		if err := conn.Model(&studentDatamodel.Financial{}).Where("user_id = ?", id).Updates(changes.Financial).Error; err != nil {
			return fmt.Errorf("failed to update financial of %s: %w", id, err)
		}
	}
	if len(changes.Health) > 0 {
		changes.Health["updated_at"] = now
		res := conn.Model(&studentDatamodel.HealthMetrics{}).Where("user_id = ?", id).Updates(changes.Health)
		if res.Error != nil {
			return fmt.Errorf("failed to update health metrics of %s: %w", id, res.Error)
		}
		if res.RowsAffected == 0 {
			m := &studentDatamodel.HealthMetrics{UserID: id}
			if v, ok := changes.Health["height_cm"].(int); ok {
				m.HeightCm = &v
			}
			if v, ok := changes.Health["weight_kg"].(float64); ok {
				m.WeightKg = &v
			}
			if v, ok := changes.Health["blood_type"].(string); ok {
				m.BloodType = &v
			}
			if err := conn.Create(m).Error; err != nil {
				return fmt.Errorf("failed to create health metrics of %s: %w", id, err)
			}
		}
	}
	return nil
}

func (r *StudentRepository) SetDeleted(ctx context.Context, id string, at *time.Time) error {
	res := database.Conn(ctx, r.db).Model(&userDatamodel.User{}).
		Where("id = ?", id).
		Updates(map[string]interface{}{"deleted_at": at, "updated_at": time.Now()})
	if res.Error != nil {
		return fmt.Errorf("failed to set deleted_at on user %s: %w", id, res.Error)
	}
	if res.RowsAffected == 0 {
		return internal.ErrStudentNotFound
	}
	return nil
}

// Search does a case-insensitive contains match on name and e-mail, and on
// CPF when the query carries digits.
func (r *StudentRepository) Search(ctx context.Context, q string, limit int) ([]search.Document, error) {
	like := "%" + strings.ToLower(q) + "%"
	cond := "LOWER(u.name) LIKE ? OR LOWER(p.email) LIKE ?"
	args := []interface{}{like, like}
	if digits := validation.Digits(q); digits != "" {
		cond += " OR p.cpf LIKE ?"
		args = append(args, "%"+digits+"%")
	}

	var docs []search.Document
	err := database.Conn(ctx, r.db).
		Table("users u").
		Select("u.id, u.name, p.email, p.cpf").
		Joins("JOIN personal_data p ON p.user_id = u.id").
		Where("u.user_role = ? AND u.deleted_at IS NULL", string(auth.RoleAluno)).
		Where(cond, args...).
		Order("u.name ASC").
		Limit(limit).
		Scan(&docs).Error
	if err != nil {
		return nil, fmt.Errorf("failed to search students: %w", err)
	}
	return docs, nil
}
