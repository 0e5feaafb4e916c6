package postgres

import (
	"context"
	"fmt"
	"strings"
	"time"

	"mrdinner/internal/adapters/out/postgres/catalogrepo"
	"mrdinner/internal/adapters/out/postgres/orderrepo"
	"mrdinner/internal/adapters/out/postgres/promotionrepo"

	"gorm.io/driver/postgres"
	"gorm.io/gorm"
)

// Connect opens a PostgreSQL connection via GORM and verifies connectivity.
func Connect(ctx context.Context, dsn string) (*gorm.DB, error) {
	if strings.TrimSpace(dsn) == "" {
		return nil, fmt.Errorf("postgres DSN is empty")
	}
	db, err := gorm.Open(postgres.Open(dsn), &gorm.Config{})
	if err != nil {
		return nil, err
	}
	sqlDB, err := db.DB()
	if err != nil {
		return nil, err
	}

	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err = sqlDB.PingContext(ctx); err != nil {
		_ = sqlDB.Close()
		return nil, err
	}
	return db, nil
}

// Models lists every table of the service.
func Models() []any {
	models := orderrepo.Models()
	models = append(models, catalogrepo.Models()...)
	return append(models, promotionrepo.Models()...)
}

// Migrate creates or updates the schema of every table.
func Migrate(ctx context.Context, db *gorm.DB) error {
	if err := db.WithContext(ctx).AutoMigrate(Models()...); err != nil {
		return fmt.Errorf("migrate schema: %w", err)
	}
	return nil
}
