package queries

import (
	"errors"
	"time"

	"mrdinner/internal/core/domain/model/order"
	"mrdinner/internal/pkg/guard"
)

var (
	ErrListRecentOrdersQueryIsNotConstructed = errors.New(
		"ListRecentOrdersQuery must be created via NewListRecentOrdersQuery constructor",
	)
)

// ListRecentOrdersQuery feeds the staff stream bootstrap: the most recent
// orders, optionally restricted to some statuses and to orders placed since
// a point in time.
type ListRecentOrdersQuery struct {
	statuses []order.Status
	since    *time.Time
	limit    int

	guard guard.ConstructorGuard
}

// NewListRecentOrdersQuery clamps limit into 1..MaxListLimit, using
// DefaultListLimit when it is 0. Every status must be valid.
func NewListRecentOrdersQuery(statuses []order.Status, since *time.Time, limit int) (ListRecentOrdersQuery, error) {
	for _, s := range statuses {
		if err := s.Validate(); err != nil {
			return ListRecentOrdersQuery{}, err
		}
	}

	switch {
	case limit == 0:
		limit = DefaultListLimit
	case limit < 1:
		limit = 1
	case limit > MaxListLimit:
		limit = MaxListLimit
	}

	return ListRecentOrdersQuery{
		statuses: append([]order.Status(nil), statuses...),
		since:    since,
		limit:    limit,
		guard:    guard.NewConstructorGuard(),
	}, nil
}

func (q ListRecentOrdersQuery) Validate() error {
	return q.guard.Validate(ErrListRecentOrdersQueryIsNotConstructed)
}

func (q ListRecentOrdersQuery) Statuses() []order.Status {
	return append([]order.Status(nil), q.statuses...)
}

func (q ListRecentOrdersQuery) Since() *time.Time {
	return q.since
}

func (q ListRecentOrdersQuery) Limit() int {
	return q.limit
}
