package http

import (
	"log/slog"
	"net/http"

	"mrdinner/internal/adapters/out/broker"
	"mrdinner/internal/core/application/usecases"
	"mrdinner/internal/core/application/usecases/queries"
	"mrdinner/internal/core/domain/model/kernel"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	"github.com/oapi-codegen/runtime"
)

// Feed hands out live subscriptions to order events.
type Feed interface {
	Subscribe(statuses []string) *broker.Subscription
}

// Server implements the order API and the staff event stream.
// It translates HTTP requests into commands and queries of the order service.
type Server struct {
	orders usecases.OrderService
	feed   Feed
	logger *slog.Logger
}

// NewServer creates a new HTTP server over the order service and the live feed.
func NewServer(orders usecases.OrderService, feed Feed, logger *slog.Logger) *Server {
	return &Server{
		orders: orders,
		feed:   feed,
		logger: logger.With("component", "http_server"),
	}
}

// CreateOrder handles POST /api/orders - prices and stores a new order.
func (s *Server) CreateOrder(c echo.Context) error {
	var req createOrderRequest
	if err := c.Bind(&req); err != nil {
		return validationProblem("body", err)
	}

	cmd, err := req.command()
	if err != nil {
		return err
	}

	view, err := s.orders.CreateOrder(c.Request().Context(), cmd)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusCreated, view)
}

// ListCustomerOrders handles GET /api/orders - a customer's orders, newest first.
func (s *Server) ListCustomerOrders(c echo.Context) error {
	var (
		customerID int64
		limit      *int
	)
	if err := runtime.BindQueryParameter("form", true, true, "customer_id", c.QueryParams(), &customerID); err != nil {
		return validationProblem("customer_id", err)
	}
	if err := runtime.BindQueryParameter("form", true, false, "limit", c.QueryParams(), &limit); err != nil {
		return validationProblem("limit", err)
	}

	query, err := queries.NewListCustomerOrdersQuery(customerID, deref(limit))
	if err != nil {
		return err
	}

	views, err := s.orders.ListCustomerOrders(c.Request().Context(), query)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, views)
}

// GetOrder handles GET /api/orders/{id}.
func (s *Server) GetOrder(c echo.Context) error {
	id, err := orderIDParam(c)
	if err != nil {
		return err
	}

	query, err := queries.NewGetOrderQuery(id)
	if err != nil {
		return err
	}

	view, err := s.orders.GetOrder(c.Request().Context(), query)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, view)
}

// EditOrder handles PATCH /api/orders/{id} - edits a pending order.
func (s *Server) EditOrder(c echo.Context) error {
	id, err := orderIDParam(c)
	if err != nil {
		return err
	}

	var req editOrderRequest
	if err = c.Bind(&req); err != nil {
		return validationProblem("body", err)
	}

	cmd, err := req.command(id)
	if err != nil {
		return err
	}

	view, err := s.orders.EditOrder(c.Request().Context(), cmd)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, view)
}

// ExecuteOrderAction handles POST /api/orders/{id}/action.
func (s *Server) ExecuteOrderAction(c echo.Context) error {
	id, err := orderIDParam(c)
	if err != nil {
		return err
	}

	var req actionRequest
	if err = c.Bind(&req); err != nil {
		return validationProblem("body", err)
	}

	cmd, err := req.command(id)
	if err != nil {
		return err
	}

	view, err := s.orders.ExecuteAction(c.Request().Context(), cmd)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, view)
}

// PreviewPrice handles POST /api/orders/price/preview. Nothing is stored.
func (s *Server) PreviewPrice(c echo.Context) error {
	var req previewRequest
	if err := c.Bind(&req); err != nil {
		return validationProblem("body", err)
	}

	query, err := req.query()
	if err != nil {
		return err
	}

	quote, err := s.orders.PreviewPrice(c.Request().Context(), query)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, quote)
}

func orderIDParam(c echo.Context) (kernel.UUID, error) {
	var id uuid.UUID
	err := runtime.BindStyledParameterWithOptions("simple", "id", c.Param("id"), &id,
		runtime.BindStyledParameterOptions{ParamLocation: runtime.ParamLocationPath, Required: true})
	if err != nil {
		return kernel.UUID{}, validationProblem("id", err)
	}
	return kernel.UUIDFromGoogle(id)
}

func deref[T any](p *T) T {
	var zero T
	if p == nil {
		return zero
	}
	return *p
}
