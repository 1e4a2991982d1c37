// Package repo implements the data persistence layer for domain entities,
// backed by GORM. This file contains database bootstrapping helpers for
// SQLite (pure Go driver) and schema migrations.
package repo

import (
	"os"
	"path/filepath"
	"strings"
	"time"

	sqlite "github.com/glebarez/sqlite"
	"gorm.io/gorm"
	"gorm.io/plugin/opentelemetry/tracing"

	"github.com/civicconnect/go-complaints-backend/internal/domain"
)

// connPragmas are applied through the DSN so every pooled connection gets
// them. foreign_keys in particular is per-connection in SQLite: a one-off
// `PRAGMA` Exec would enable it on a single pooled connection and leave the
// other nine without FK enforcement or CASCADE deletes.
const connPragmas = "_pragma=foreign_keys(1)" +
	"&_pragma=journal_mode(WAL)" +
	"&_pragma=synchronous(NORMAL)" +
	"&_pragma=busy_timeout(5000)"

// OpenSQLite opens (or creates) a SQLite database with per-connection
// PRAGMAs and installs the OpenTelemetry tracing plugin.
func OpenSQLite(path string) (*gorm.DB, error) {
	// Fail early if parent directory does not exist (instead of sqlite "out of memory (14)" on Windows).
	if dir := filepath.Dir(path); dir != "." {
		if _, err := os.Stat(dir); err != nil {
			return nil, err
		}
	}

	dsn := path
	if strings.Contains(dsn, "?") {
		dsn += "&" + connPragmas
	} else {
		dsn += "?" + connPragmas
	}

	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	if err != nil {
		return nil, err
	}

	if err := db.Use(tracing.NewPlugin(tracing.WithoutMetrics())); err != nil {
		return nil, err
	}

	// Pool
	if sqlDB, err := db.DB(); err == nil {
		sqlDB.SetMaxOpenConns(10)
		sqlDB.SetMaxIdleConns(10)
		sqlDB.SetConnMaxIdleTime(5 * time.Minute)
		sqlDB.SetConnMaxLifetime(30 * time.Minute)
	}

	return db, nil
}

// AutoMigrate creates or upgrades the schema for all lifecycle tables.
// Registries migrate first so complaint foreign keys resolve.
func AutoMigrate(db *gorm.DB) error {
	return db.AutoMigrate(
		&domain.Category{},
		&domain.Status{},
		&domain.User{},
		&domain.Complaint{},
		&domain.ComplaintPhoto{},
		&domain.StatusChange{},
		&domain.DailySequence{},
		&domain.Idempotency{},
	)
}
