package queries

import (
	"errors"
	"fmt"

	"mrdinner/internal/pkg/errs"
	"mrdinner/internal/pkg/guard"
)

const (
	DefaultListLimit = 20
	MaxListLimit     = 100
)

var (
	ErrListCustomerOrdersQueryIsNotConstructed = errors.New(
		"ListCustomerOrdersQuery must be created via NewListCustomerOrdersQuery constructor",
	)
)

// ListCustomerOrdersQuery lists the most recent orders of one customer.
type ListCustomerOrdersQuery struct {
	customerID int64
	limit      int

	guard guard.ConstructorGuard
}

// NewListCustomerOrdersQuery accepts a limit of 0 for the default. Other
// limits must be within 1..MaxListLimit.
func NewListCustomerOrdersQuery(customerID int64, limit int) (ListCustomerOrdersQuery, error) {
	var all []error
	if customerID <= 0 {
		all = append(all, errs.NewValueIsInvalidErrorWithCause("customer_id",
			fmt.Errorf("%d is not greater than 0", customerID)))
	}
	if limit == 0 {
		limit = DefaultListLimit
	}
	if limit < 1 || limit > MaxListLimit {
		all = append(all, errs.NewValueIsOutOfRangeError("limit", limit, 1, MaxListLimit))
	}
	if err := errors.Join(all...); err != nil {
		return ListCustomerOrdersQuery{}, err
	}

	return ListCustomerOrdersQuery{
		customerID: customerID,
		limit:      limit,
		guard:      guard.NewConstructorGuard(),
	}, nil
}

func (q ListCustomerOrdersQuery) Validate() error {
	return q.guard.Validate(ErrListCustomerOrdersQueryIsNotConstructed)
}

func (q ListCustomerOrdersQuery) CustomerID() int64 {
	return q.customerID
}

func (q ListCustomerOrdersQuery) Limit() int {
	return q.limit
}
