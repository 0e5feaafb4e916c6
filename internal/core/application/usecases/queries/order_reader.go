// Package queries contains read operations that do not modify system state.
// Order lookups go through the order repository so that full snapshots are
// assembled in one place. Feed listings read the orders table directly.
package queries

import (
	"context"

	"mrdinner/internal/core/domain/model/kernel"
	"mrdinner/internal/core/domain/model/order"
)

// OrderReader is the read side of the order repository.
type OrderReader interface {
	Get(ctx context.Context, id kernel.UUID) (*order.Order, error)
	ListByCustomer(ctx context.Context, customerID int64, limit int) ([]*order.Order, error)
}
