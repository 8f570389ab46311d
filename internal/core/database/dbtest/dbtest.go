// Package dbtest opens an in-memory sqlite database with every studio table,
// for repository and service tests.
package dbtest

import (
	"fmt"

	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/jmfitness/studio-management/internal/core/datamodel/checkin"
	"github.com/jmfitness/studio-management/internal/core/datamodel/employee"
	"github.com/jmfitness/studio-management/internal/core/datamodel/expense"
	"github.com/jmfitness/studio-management/internal/core/datamodel/student"
	"github.com/jmfitness/studio-management/internal/core/datamodel/user"
)

// Models lists every table in creation order.
var Models = []interface{}{
	&user.User{},
	&user.PersonalData{},
	&user.ConfirmationToken{},
	&employee.Employee{},
	&employee.SalaryHistory{},
	&employee.TimeRecord{},
	&student.Financial{},
	&student.HealthMetrics{},
	&student.HealthHistoryEntry{},
	&student.BodyMeasurement{},
	&checkin.CheckIn{},
	&checkin.ProfessorCheckIn{},
	&expense.Expense{},
}

// Open returns a fresh database. A single connection keeps ":memory:" shared
// across the pool, so callers inside a transaction must use database.Conn.
func Open() (*gorm.DB, error) {
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to open sqlite: %w", err)
	}
	sqlDB, err := db.DB()
	if err != nil {
		return nil, err
	}
	sqlDB.SetMaxOpenConns(1)

	if err := db.AutoMigrate(Models...); err != nil {
		return nil, fmt.Errorf("failed to migrate: %w", err)
	}
	return db, nil
}
