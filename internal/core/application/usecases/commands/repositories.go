// Package commands contains business operations that modify system state.
// Implements the Command pattern for write operations in the CQRS architecture.
// All commands follow a consistent pattern: validation, transaction management,
// persistence, and event publication once the transaction has committed.
package commands

import (
	"context"

	"mrdinner/internal/core/application/events"
	"mrdinner/internal/core/ports"
)

// Unit of Work interfaces provide transaction management for command handlers.
// These abstractions ensure data consistency across aggregate boundaries.
type (
	// TxManager handles database transaction lifecycle.
	// Ensures atomic operations across multiple repository calls.
	TxManager interface {
		Begin(ctx context.Context) error
		Commit(ctx context.Context) error
		Rollback(ctx context.Context) error
	}

	// CommitHooks schedules work that must only run after a successful commit.
	CommitHooks interface {
		AfterCommit(fn func(ctx context.Context))
	}

	// OrderRepoFactory provides access to order repository within a transaction.
	OrderRepoFactory interface {
		OrderRepository() ports.OrderRepository
	}

	// CatalogFactory provides read access to the catalog within a transaction.
	CatalogFactory interface {
		CatalogLookup() ports.CatalogLookup
	}

	// PromotionRepoFactory provides access to memberships and coupons within a transaction.
	PromotionRepoFactory interface {
		PromotionRepository() ports.PromotionRepository
	}

	// OrderUoW manages transactions for lifecycle operations that only touch
	// the order aggregate.
	OrderUoW interface {
		TxManager
		CommitHooks
		OrderRepoFactory
	}

	// OrderUoWFactory creates new order unit of work instances.
	OrderUoWFactory interface {
		Create() OrderUoW
	}

	// PricingUoW manages transactions that price lines and apply discounts:
	// order creation and edits.
	//
	// Example:
	//   uow := factory.Create()
	//   err := uow.Begin(ctx)
	//   defer uow.Rollback(ctx)
	//
	//   quote, err := pricing.Quote(ctx, uow.CatalogLookup(), packs)
	//   err = uow.OrderRepository().Add(ctx, o)
	//   err = uow.PromotionRepository().Redeem(ctx, ...)
	//
	//   err = uow.Commit(ctx)
	PricingUoW interface {
		TxManager
		CommitHooks
		OrderRepoFactory
		CatalogFactory
		PromotionRepoFactory
	}

	// PricingUoWFactory creates new pricing unit of work instances.
	PricingUoWFactory interface {
		Create() PricingUoW
	}
)

// EventNotifier schedules an order event for publication after commit.
type EventNotifier interface {
	NotifyOnCommit(hooks events.CommitHooks, event events.OrderEvent)
}
