package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"gorm.io/gorm"

	"github.com/jmfitness/studio-management/internal"
	"github.com/jmfitness/studio-management/internal/core/database"
	expenseDatamodel "github.com/jmfitness/studio-management/internal/core/datamodel/expense"
	"github.com/jmfitness/studio-management/internal/expense"
)

// ExpenseRepository implements expense.Repository using GORM
type ExpenseRepository struct {
	db *gorm.DB
}

func NewExpenseRepository(db *gorm.DB) *ExpenseRepository {
	return &ExpenseRepository{db: db}
}

func (r *ExpenseRepository) Insert(ctx context.Context, e *expenseDatamodel.Expense) error {
	if err := database.Conn(ctx, r.db).Create(e).Error; err != nil {
		return fmt.Errorf("failed to insert expense: %w", err)
	}
	return nil
}

func (r *ExpenseRepository) Get(ctx context.Context, id string) (*expenseDatamodel.Expense, error) {
	var e expenseDatamodel.Expense
	if err := database.Conn(ctx, r.db).Where("id = ?", id).Take(&e).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, internal.ErrExpenseNotFound
		}
		return nil, fmt.Errorf("failed to load expense %s: %w", id, err)
	}
	return &e, nil
}

func (r *ExpenseRepository) List(ctx context.Context, f expense.Filter) ([]expenseDatamodel.Expense, error) {
	var rows []expenseDatamodel.Expense
	q := database.Conn(ctx, r.db).Order("created_at DESC")
	if f.Paid != nil {
		q = q.Where("paid = ?", *f.Paid)
	}
	if f.Recurrent != nil {
		q = q.Where("recurrent = ?", *f.Recurrent)
	}
	if f.Category != nil {
		q = q.Where("category = ?", string(*f.Category))
	}
	if err := q.Find(&rows).Error; err != nil {
		return nil, fmt.Errorf("failed to list expenses: %w", err)
	}
	return rows, nil
}

func (r *ExpenseRepository) SetPaid(ctx context.Context, id string, paid bool, paymentDate *time.Time) error {
	err := database.Conn(ctx, r.db).Model(&expenseDatamodel.Expense{}).
		Where("id = ?", id).
		Updates(map[string]interface{}{
			"paid":         paid,
			"payment_date": paymentDate,
			"updated_at":   time.Now(),
		}).Error
	if err != nil {
		return fmt.Errorf("failed to update payment of expense %s: %w", id, err)
	}
	return nil
}

func (r *ExpenseRepository) SetAttachment(ctx context.Context, id string, url *string) error {
	err := database.Conn(ctx, r.db).Model(&expenseDatamodel.Expense{}).
		Where("id = ?", id).
		Updates(map[string]interface{}{
			"attachment": url,
			"updated_at": time.Now(),
		}).Error
	if err != nil {
		return fmt.Errorf("failed to update attachment of expense %s: %w", id, err)
	}
	return nil
}

func (r *ExpenseRepository) Delete(ctx context.Context, id string) error {
	res := database.Conn(ctx, r.db).Where("id = ?", id).Delete(&expenseDatamodel.Expense{})
	if res.Error != nil {
		return fmt.Errorf("failed to delete expense %s: %w", id, res.Error)
	}
	if res.RowsAffected == 0 {
		return internal.ErrExpenseNotFound
	}
	return nil
}

func (r *ExpenseRepository) Totals(ctx context.Context) ([]expense.Totals, error) {
	var rows []expense.Totals
	err := database.Conn(ctx, r.db).Model(&expenseDatamodel.Expense{}).
		Select("paid, recurrent, COUNT(*) AS count, COALESCE(SUM(amount_in_cents), 0) AS total_in_cents").
		Group("paid, recurrent").
		Scan(&rows).Error
	if err != nil {
		return nil, fmt.Errorf("failed to sum expenses: %w", err)
	}
	return rows, nil
}
