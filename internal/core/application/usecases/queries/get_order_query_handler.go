package queries

import (
	"context"

	"mrdinner/internal/core/application/views"
)

// GetOrderQueryHandler returns the full snapshot of an order.
type GetOrderQueryHandler struct {
	reader OrderReader
}

func NewGetOrderQueryHandler(reader OrderReader) GetOrderQueryHandler {
	return GetOrderQueryHandler{reader: reader}
}

// Handle returns ObjectNotFoundError when no order has the id.
func (h GetOrderQueryHandler) Handle(ctx context.Context, query GetOrderQuery) (views.Order, error) {
	if err := query.Validate(); err != nil {
		return views.Order{}, err
	}

	o, err := h.reader.Get(ctx, query.OrderID())
	if err != nil {
		return views.Order{}, err
	}
	return views.FromOrder(o), nil
}
