// Package postgres provides the GORM-based implementation of the Unit of Work
// pattern. A unit of work binds the order, catalog and promotion repositories
// to one database transaction and runs post-commit hooks once that
// transaction is durable.
//
// Usage:
//
//	factory := NewGormUnitOfWorkFactory(db)
//	uow := factory.Create()
//
//	if err := uow.Begin(ctx); err != nil {
//	    return err
//	}
//	defer uow.Rollback(ctx)
//
//	if err := uow.OrderRepository().Add(ctx, o); err != nil {
//	    return err
//	}
//	uow.AfterCommit(func(ctx context.Context) {
//	    publisher.Publish(ctx, event)
//	})
//
//	return uow.Commit(ctx)
//
// Hooks registered with AfterCommit run in registration order after the
// commit succeeded. A rollback, or a failed commit, discards them.
//
// Concurrency Considerations:
//   - Each UnitOfWork instance provides an isolated transaction
//   - Multiple goroutines should use separate UnitOfWork instances
//   - Writers to one order serialize on its row lock (GetForUpdate)
package postgres

import (
	"context"

	"mrdinner/internal/adapters/out/postgres/catalogrepo"
	"mrdinner/internal/adapters/out/postgres/orderrepo"
	"mrdinner/internal/adapters/out/postgres/promotionrepo"
	"mrdinner/internal/core/ports"

	"gorm.io/gorm"
)

// GormUnitOfWorkFactory creates UnitOfWork instances using GORM database connections.
// Each business operation gets a fresh unit of work isolated from other
// concurrent operations.
type GormUnitOfWorkFactory struct {
	db *gorm.DB
}

// NewGormUnitOfWorkFactory creates a factory for GORM-based unit of work instances.
//
// Example:
//
//	db, err := gorm.Open(postgres.Open(dsn), &gorm.Config{})
//	if err != nil {
//	    log.Fatal("failed to connect database")
//	}
//	factory := NewGormUnitOfWorkFactory(db)
func NewGormUnitOfWorkFactory(db *gorm.DB) *GormUnitOfWorkFactory {
	return &GormUnitOfWorkFactory{db: db}
}

// Create produces a new UnitOfWork instance with its own transaction state
// and hook list.
func (f *GormUnitOfWorkFactory) Create() ports.UnitOfWork {
	return &GormUnitOfWork{db: f.db}
}

// GormUnitOfWork coordinates a database transaction and the side effects
// that must wait for it to commit.
type GormUnitOfWork struct {
	db    *gorm.DB
	tx    *gorm.DB
	hooks []func(ctx context.Context)
}

// Begin initiates a new database transaction for the unit of work.
// Multiple calls to Begin on the same instance are safe and will not create
// nested transactions.
func (uow *GormUnitOfWork) Begin(ctx context.Context) error {
	if uow.tx != nil {
		return nil
	}

	tx := uow.db.WithContext(ctx).Begin()
	if tx.Error != nil {
		return tx.Error
	}
	uow.tx = tx

	return nil
}

// Commit finalizes the transaction and then runs the registered hooks. Hooks
// get ctx without its cancellation, so a caller that goes away right after
// the commit does not abort them. Hooks are dropped when the commit fails.
//
// Returns error if no active transaction exists or if the commit operation fails.
func (uow *GormUnitOfWork) Commit(ctx context.Context) error {
	if uow.tx == nil {
		return gorm.ErrInvalidTransaction
	}

	err := uow.tx.Commit().Error
	uow.tx = nil
	hooks := uow.hooks
	uow.hooks = nil
	if err != nil {
		return err
	}

	hookCtx := context.WithoutCancel(ctx)
	for _, hook := range hooks {
		hook(hookCtx)
	}
	return nil
}

// Rollback discards all changes made within the current transaction along
// with any pending hooks.
//
// Returns error if no active transaction exists or if the rollback operation fails.
// Handlers defer Rollback right after Begin, so after a successful Commit
// the call is a harmless ErrInvalidTransaction.
func (uow *GormUnitOfWork) Rollback(_ context.Context) error {
	if uow.tx == nil {
		return gorm.ErrInvalidTransaction
	}

	err := uow.tx.Rollback().Error
	uow.tx = nil
	uow.hooks = nil
	return err
}

// AfterCommit schedules fn to run once the current transaction commits.
func (uow *GormUnitOfWork) AfterCommit(fn func(ctx context.Context)) {
	uow.hooks = append(uow.hooks, fn)
}

// OrderRepository provides access to order persistence within the unit of
// work. Without an active transaction it uses the main connection.
func (uow *GormUnitOfWork) OrderRepository() ports.OrderRepository {
	return orderrepo.NewGormOrderRepository(uow.conn())
}

// CatalogLookup provides catalog reads within the unit of work.
func (uow *GormUnitOfWork) CatalogLookup() ports.CatalogLookup {
	return catalogrepo.NewGormCatalogLookup(uow.conn())
}

// PromotionRepository provides membership, coupon and redemption access
// within the unit of work.
func (uow *GormUnitOfWork) PromotionRepository() ports.PromotionRepository {
	return promotionrepo.NewGormPromotionRepository(uow.conn())
}

func (uow *GormUnitOfWork) conn() *gorm.DB {
	if uow.tx != nil {
		return uow.tx
	}
	return uow.db
}

var _ ports.UnitOfWork = (*GormUnitOfWork)(nil)
