package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"gorm.io/gorm"

	"github.com/jmfitness/studio-management/internal"
	"github.com/jmfitness/studio-management/internal/core/database"
	"github.com/jmfitness/studio-management/internal/core/datamodel/student"
	"github.com/jmfitness/studio-management/internal/payment"
)

type PaymentRepository struct {
	db *gorm.DB
}

func NewPaymentRepository(db *gorm.DB) *PaymentRepository {
	return &PaymentRepository{db: db}
}

func (r *PaymentRepository) ListMonthly(ctx context.Context) ([]payment.MonthlyPaymentRow, error) {
	var rows []payment.MonthlyPaymentRow
	err := database.Conn(ctx, r.db).
		Table("financial f").
		Select(`u.id AS user_id, u.name AS student_name, f.monthly_fee_value_in_cents,
			f.due_date, f.paid, f.last_payment_date, f.payment_method`).
		Joins("JOIN users u ON u.id = f.user_id").
		Where("u.user_role = ? AND u.deleted_at IS NULL", "aluno").
		Order("u.name").
		Scan(&rows).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list monthly payments: %w", err)
	}
	return rows, nil
}

func (r *PaymentRepository) GetFinancial(ctx context.Context, userID string) (*student.Financial, error) {
	var fin student.Financial
	err := database.Conn(ctx, r.db).Where("user_id = ?", userID).Take(&fin).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, internal.ErrFinancialNotFound
		}
		return nil, fmt.Errorf("failed to get financial for %s: %w", userID, err)
	}
	return &fin, nil
}

func (r *PaymentRepository) IsActiveStudent(ctx context.Context, userID string) (bool, error) {
	var n int64
	err := database.Conn(ctx, r.db).
		Table("users").
		Where("id = ? AND user_role = ? AND deleted_at IS NULL", userID, "aluno").
		Count(&n).Error
	if err != nil {
		return false, fmt.Errorf("failed to look up student %s: %w", userID, err)
	}
	return n > 0, nil
}

func (r *PaymentRepository) SetPaid(ctx context.Context, userID string, paid bool, paidOn *time.Time) error {
	updates := map[string]interface{}{
		"paid":       paid,
		"updated_at": time.Now(),
	}
	if paidOn != nil {
		updates["last_payment_date"] = *paidOn
	}
	res := database.Conn(ctx, r.db).Model(&student.Financial{}).Where("user_id = ?", userID).Updates(updates)
	if res.Error != nil {
		return fmt.Errorf("failed to set paid for %s: %w", userID, res.Error)
	}
	if res.RowsAffected == 0 {
		return internal.ErrFinancialNotFound
	}
	return nil
}

func (r *PaymentRepository) RecordPayment(ctx context.Context, userID string, paidOn time.Time, method string) error {
	res := database.Conn(ctx, r.db).Model(&student.Financial{}).
		Where("user_id = ?", userID).
		Updates(map[string]interface{}{
			"paid":              true,
			"last_payment_date": paidOn,
			"payment_method":    method,
			"updated_at":        time.Now(),
		})
	if res.Error != nil {
		return fmt.Errorf("failed to record payment for %s: %w", userID, res.Error)
	}
	if res.RowsAffected == 0 {
		return internal.ErrFinancialNotFound
	}
	return nil
}

func (r *PaymentRepository) ResetPaidFlags(ctx context.Context, monthStart time.Time) (int64, error) {
	res := database.Conn(ctx, r.db).Model(&student.Financial{}).
		Where("paid = ? AND (last_payment_date IS NULL OR last_payment_date < ?)", true, monthStart).
		Updates(map[string]interface{}{
			"paid":       false,
			"updated_at": time.Now(),
		})
	if res.Error != nil {
		return 0, fmt.Errorf("failed to reset paid flags: %w", res.Error)
	}
	return res.RowsAffected, nil
}
