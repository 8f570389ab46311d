// Package database holds the gorm plumbing shared by every repository.
package database

import (
	"context"
	"strings"

	"gorm.io/gorm"
)

type contextKey string

const txKey contextKey = "tx"

// UnitOfWork runs fn inside one transaction. Repositories pick the
// transaction up from the context through Conn.
type UnitOfWork interface {
	WithTransaction(ctx context.Context, fn func(ctx context.Context) error) error
}

type GormUnitOfWork struct {
	db *gorm.DB
}

func NewUnitOfWork(db *gorm.DB) *GormUnitOfWork {
	return &GormUnitOfWork{db: db}
}

// WithTransaction commits when fn returns nil and rolls back otherwise,
// including on panic. Nested calls join the outer transaction.
func (u *GormUnitOfWork) WithTransaction(ctx context.Context, fn func(ctx context.Context) error) error {
	if _, ok := ctx.Value(txKey).(*gorm.DB); ok {
		return fn(ctx)
	}
	return u.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(context.WithValue(ctx, txKey, tx))
	})
}

// Conn returns the transaction stored in ctx, or db bound to ctx.
func Conn(ctx context.Context, db *gorm.DB) *gorm.DB {
	if tx, ok := ctx.Value(txKey).(*gorm.DB); ok {
		return tx
	}
	return db.WithContext(ctx)
}

// UniqueViolation reports whether err is a unique-constraint failure and, when
// the constraint text names one of the given columns, which one.
func UniqueViolation(err error, columns ...string) (string, bool) {
	if err == nil {
		return "", false
	}
	msg := strings.ToLower(err.Error())
	if !strings.Contains(msg, "unique") && !strings.Contains(msg, "duplicate key") && !strings.Contains(msg, "23505") {
		return "", false
	}
	for _, c := range columns {
		if strings.Contains(msg, strings.ToLower(c)) {
			return c, true
		}
	}
	return "", true
}
