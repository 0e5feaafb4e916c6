package ports

import (
	"context"
)

// UnitOfWorkFactory creates new UnitOfWork instances for each request/command.
// This ensures proper isolation between concurrent operations.
type UnitOfWorkFactory interface {
	Create() UnitOfWork
}

// UnitOfWork represents a business transaction boundary.
// Client code must explicitly manage transaction lifecycle.
type UnitOfWork interface {
	// Begin starts a new database transaction.
	Begin(ctx context.Context) error

	// Commit commits the current transaction and then runs the hooks
	// registered with AfterCommit, in registration order.
	// Returns error if no active transaction or commit fails.
	Commit(ctx context.Context) error

	// Rollback rolls back the current transaction and discards pending hooks.
	// Returns error if no active transaction or rollback fails.
	Rollback(ctx context.Context) error

	// AfterCommit schedules fn to run once the transaction has committed.
	// fn never runs if the transaction rolls back.
	AfterCommit(fn func(ctx context.Context))

	// OrderRepository returns an OrderRepository bound to the current transaction.
	OrderRepository() OrderRepository

	// CatalogLookup returns a CatalogLookup bound to the current transaction.
	CatalogLookup() CatalogLookup

	// PromotionRepository returns a PromotionRepository bound to the current transaction.
	PromotionRepository() PromotionRepository
}
