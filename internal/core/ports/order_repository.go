// Package ports defines the contracts between the order core and its
// infrastructure: order persistence, catalog lookups, promotions and the
// unit of work that binds them to one transaction.
package ports

import (
	"context"
	"time"

	"mrdinner/internal/core/domain/model/kernel"
	"mrdinner/internal/core/domain/model/order"
)

// RecentOrdersFilter narrows the recent orders listing. Empty Statuses and a
// nil Since match everything.
type RecentOrdersFilter struct {
	Statuses []order.Status
	Since    *time.Time
	Limit    int
}

// OrderRepository defines the persistence contract for order aggregates,
// including their dinner, item and option rows.
type OrderRepository interface {
	// Add persists a new order with all of its lines.
	Add(ctx context.Context, aggregate *order.Order) error

	// Update persists the header, money fields, status and metadata of an
	// existing order. Lines are left untouched.
	Update(ctx context.Context, aggregate *order.Order) error

	// ReplaceLines deletes every dinner, item and option row of the order and
	// inserts the current lines of the aggregate.
	ReplaceLines(ctx context.Context, aggregate *order.Order) error

	// Get retrieves an order with its lines.
	// Returns ObjectNotFoundError when no order has the id.
	Get(ctx context.Context, id kernel.UUID) (*order.Order, error)

	// GetForUpdate is Get with a row lock held until the transaction ends.
	// Concurrent edits and actions on one order are serialized by this lock.
	GetForUpdate(ctx context.Context, id kernel.UUID) (*order.Order, error)

	// ListByCustomer returns up to limit orders of a customer, newest first.
	ListByCustomer(ctx context.Context, customerID int64, limit int) ([]*order.Order, error)
}
