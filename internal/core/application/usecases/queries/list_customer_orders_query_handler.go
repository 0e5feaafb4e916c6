package queries

import (
	"context"

	"mrdinner/internal/core/application/views"
)

// ListCustomerOrdersQueryHandler returns full order snapshots, newest first.
type ListCustomerOrdersQueryHandler struct {
	reader OrderReader
}

func NewListCustomerOrdersQueryHandler(reader OrderReader) ListCustomerOrdersQueryHandler {
	return ListCustomerOrdersQueryHandler{reader: reader}
}

func (h ListCustomerOrdersQueryHandler) Handle(
	ctx context.Context,
	query ListCustomerOrdersQuery,
) ([]views.Order, error) {
	if err := query.Validate(); err != nil {
		return nil, err
	}

	orders, err := h.reader.ListByCustomer(ctx, query.CustomerID(), query.Limit())
	if err != nil {
		return nil, err
	}

	out := make([]views.Order, 0, len(orders))
	for _, o := range orders {
		out = append(out, views.FromOrder(o))
	}
	return out, nil
}
