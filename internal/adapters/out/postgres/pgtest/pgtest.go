// Package pgtest opens migrated databases for repository and handler tests:
// an on-disk SQLite file for fast hermetic tests and a disposable PostgreSQL
// container for integration suites.
package pgtest

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"
	"testing"
	"time"

	postgres_adapter "mrdinner/internal/adapters/out/postgres"

	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/modules/postgres"
	"github.com/testcontainers/testcontainers-go/wait"
	gorm_postgres "gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// Tables lists every table in an order that respects foreign keys when
// rows are deleted front to back.
var Tables = []string{
	"order_item_options",
	"order_dinner_items",
	"order_dinner_options",
	"order_dinners",
	"coupon_redemptions",
	"orders",
	"coupons",
	"memberships",
	"dinner_options",
	"dinner_option_groups",
	"dinner_default_items",
	"dinner_allowed_styles",
	"dinner_types",
	"item_options",
	"item_option_groups",
	"menu_items",
	"serving_styles",
}

// OpenSQLite returns a migrated database stored in a temporary directory
// that is removed when the test ends.
func OpenSQLite(t testing.TB) *gorm.DB {
	t.Helper()

	dsn := fmt.Sprintf("file:%s?_busy_timeout=5000&_journal_mode=WAL&_foreign_keys=on",
		filepath.Join(t.TempDir(), "mrdinner.db"))
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{Logger: logger.Discard})
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		t.Fatalf("unwrap sqlite: %v", err)
	}
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = sqlDB.Close() })

	if err = postgres_adapter.Migrate(context.Background(), db); err != nil {
		t.Fatalf("migrate sqlite: %v", err)
	}
	return db
}

// Postgres is a running PostgreSQL container with a migrated schema.
type Postgres struct {
	Container *postgres.PostgresContainer
	DB        *gorm.DB
	DSN       string
}

// StartPostgres runs postgres:15-alpine and migrates the schema.
func StartPostgres(ctx context.Context) (*Postgres, error) {
	container, err := postgres.Run(ctx,
		"postgres:15-alpine",
		postgres.WithDatabase("testdb"),
		postgres.WithUsername("testuser"),
		postgres.WithPassword("testpass"),
		testcontainers.WithWaitStrategy(wait.ForLog("database system is ready to accept connections").
			WithOccurrence(2).
			WithStartupTimeout(30*time.Second)),
	)
	if err != nil {
		return nil, err
	}

	dsn, err := container.ConnectionString(ctx, "sslmode=disable")
	if err != nil {
		_ = container.Terminate(ctx)
		return nil, err
	}

	db, err := gorm.Open(gorm_postgres.Open(dsn), &gorm.Config{Logger: logger.Discard})
	if err != nil {
		_ = container.Terminate(ctx)
		return nil, err
	}
	if err = postgres_adapter.Migrate(ctx, db); err != nil {
		_ = container.Terminate(ctx)
		return nil, err
	}

	return &Postgres{Container: container, DB: db, DSN: dsn}, nil
}

// Terminate closes the connection pool and stops the container.
func (p *Postgres) Terminate(ctx context.Context) error {
	if sqlDB, err := p.DB.DB(); err == nil {
		_ = sqlDB.Close()
	}
	return p.Container.Terminate(ctx)
}

// Reset deletes every row of every table.
func Reset(db *gorm.DB) error {
	if db.Dialector.Name() == "postgres" {
		return db.Exec("TRUNCATE TABLE " + strings.Join(Tables, ", ") + " RESTART IDENTITY CASCADE").Error
	}
	for _, table := range Tables {
		if err := db.Exec("DELETE FROM " + table).Error; err != nil {
			return err
		}
	}
	return nil
}
