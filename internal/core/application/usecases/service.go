// Package usecases exposes the order use cases behind one interface so that
// inbound adapters and decorators do not depend on individual handlers.
package usecases

import (
	"context"

	"mrdinner/internal/core/application/usecases/commands"
	"mrdinner/internal/core/application/usecases/queries"
	"mrdinner/internal/core/application/views"
)

// OrderService lists every order operation available to inbound adapters.
type OrderService interface {
	CreateOrder(ctx context.Context, cmd commands.CreateOrderCommand) (views.Order, error)
	EditOrder(ctx context.Context, cmd commands.EditOrderCommand) (views.Order, error)
	ExecuteAction(ctx context.Context, cmd commands.ExecuteOrderActionCommand) (views.Order, error)
	GetOrder(ctx context.Context, query queries.GetOrderQuery) (views.Order, error)
	ListCustomerOrders(ctx context.Context, query queries.ListCustomerOrdersQuery) ([]views.Order, error)
	ListRecentOrders(ctx context.Context, query queries.ListRecentOrdersQuery) ([]views.Summary, error)
	PreviewPrice(ctx context.Context, query queries.PreviewPriceQuery) (views.Quote, error)
}

// Handlers groups the command and query handlers an Orders service runs.
type Handlers struct {
	CreateOrder        commands.CreateOrderCommandHandler
	EditOrder          commands.EditOrderCommandHandler
	ExecuteAction      commands.ExecuteOrderActionCommandHandler
	GetOrder           queries.GetOrderQueryHandler
	ListCustomerOrders queries.ListCustomerOrdersQueryHandler
	ListRecentOrders   queries.ListRecentOrdersQueryHandler
	PreviewPrice       queries.PreviewPriceQueryHandler
}

// Orders dispatches to the handlers and maps aggregates to views.
type Orders struct {
	h Handlers
}

func NewOrders(h Handlers) *Orders {
	return &Orders{h: h}
}

func (s *Orders) CreateOrder(ctx context.Context, cmd commands.CreateOrderCommand) (views.Order, error) {
	o, err := s.h.CreateOrder.Handle(ctx, cmd)
	if err != nil {
		return views.Order{}, err
	}
	return views.FromOrder(o), nil
}

func (s *Orders) EditOrder(ctx context.Context, cmd commands.EditOrderCommand) (views.Order, error) {
	o, err := s.h.EditOrder.Handle(ctx, cmd)
	if err != nil {
		return views.Order{}, err
	}
	return views.FromOrder(o), nil
}

func (s *Orders) ExecuteAction(ctx context.Context, cmd commands.ExecuteOrderActionCommand) (views.Order, error) {
	o, err := s.h.ExecuteAction.Handle(ctx, cmd)
	if err != nil {
		return views.Order{}, err
	}
	return views.FromOrder(o), nil
}

func (s *Orders) GetOrder(ctx context.Context, query queries.GetOrderQuery) (views.Order, error) {
	return s.h.GetOrder.Handle(ctx, query)
}

func (s *Orders) ListCustomerOrders(ctx context.Context, query queries.ListCustomerOrdersQuery) ([]views.Order, error) {
	return s.h.ListCustomerOrders.Handle(ctx, query)
}

func (s *Orders) ListRecentOrders(ctx context.Context, query queries.ListRecentOrdersQuery) ([]views.Summary, error) {
	return s.h.ListRecentOrders.Handle(ctx, query)
}

func (s *Orders) PreviewPrice(ctx context.Context, query queries.PreviewPriceQuery) (views.Quote, error) {
	return s.h.PreviewPrice.Handle(ctx, query)
}

var _ OrderService = (*Orders)(nil)
