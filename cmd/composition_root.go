package cmd

import (
	"log/slog"

	serviceobs "mrdinner/internal/adapters/observability"
	"mrdinner/internal/adapters/out/postgres"
	"mrdinner/internal/adapters/out/postgres/catalogrepo"
	"mrdinner/internal/adapters/out/postgres/orderrepo"
	"mrdinner/internal/adapters/out/postgres/promotionrepo"
	"mrdinner/internal/core/application/events"
	"mrdinner/internal/core/application/usecases"
	"mrdinner/internal/core/application/usecases/commands"
	"mrdinner/internal/core/application/usecases/queries"
	"mrdinner/internal/platform/observability"

	"gorm.io/gorm"
)

type CompositionRoot struct {
	gormDB      *gorm.DB
	uowFactory  *postgres.GormUnitOfWorkFactory
	notifier    *events.Notifier
	instruments *observability.Instruments
	logger      *slog.Logger
}

// NewCompositionRoot wires handlers over gormDB. Committed order events go to
// publisher.
func NewCompositionRoot(
	gormDB *gorm.DB,
	publisher events.Publisher,
	instruments *observability.Instruments,
) CompositionRoot {
	logger := slog.Default()
	if instruments != nil && instruments.Logger != nil {
		logger = instruments.Logger
	}
	return CompositionRoot{
		gormDB:      gormDB,
		uowFactory:  postgres.NewGormUnitOfWorkFactory(gormDB),
		notifier:    events.NewNotifier(publisher, logger),
		instruments: instruments,
		logger:      logger,
	}
}

func (c *CompositionRoot) pricingUoWFactory() commands.PricingUoWFactory {
	return FuncPricingUoWFactory(func() commands.PricingUoW {
		return c.uowFactory.Create()
	})
}

func (c *CompositionRoot) orderUoWFactory() commands.OrderUoWFactory {
	return FuncOrderUoWFactory(func() commands.OrderUoW {
		return c.uowFactory.Create()
	})
}

func (c *CompositionRoot) CreateCreateOrderCommandHandler() commands.CreateOrderCommandHandler {
	return commands.NewCreateOrderCommandHandler(c.pricingUoWFactory(), c.notifier)
}

func (c *CompositionRoot) CreateEditOrderCommandHandler() commands.EditOrderCommandHandler {
	return commands.NewEditOrderCommandHandler(c.pricingUoWFactory(), c.notifier)
}

func (c *CompositionRoot) CreateExecuteOrderActionCommandHandler() commands.ExecuteOrderActionCommandHandler {
	return commands.NewExecuteOrderActionCommandHandler(c.orderUoWFactory(), c.notifier)
}

func (c *CompositionRoot) CreateGetOrderQueryHandler() queries.GetOrderQueryHandler {
	return queries.NewGetOrderQueryHandler(orderrepo.NewGormOrderRepository(c.gormDB))
}

func (c *CompositionRoot) CreateListCustomerOrdersQueryHandler() queries.ListCustomerOrdersQueryHandler {
	return queries.NewListCustomerOrdersQueryHandler(orderrepo.NewGormOrderRepository(c.gormDB))
}

func (c *CompositionRoot) CreateListRecentOrdersQueryHandler() queries.ListRecentOrdersQueryHandler {
	return queries.NewListRecentOrdersQueryHandler(c.gormDB)
}

func (c *CompositionRoot) CreatePreviewPriceQueryHandler() queries.PreviewPriceQueryHandler {
	return queries.NewPreviewPriceQueryHandler(
		catalogrepo.NewGormCatalogLookup(c.gormDB),
		promotionrepo.NewGormPromotionRepository(c.gormDB),
	)
}

// CreateOrderService returns the order service wrapped with tracing, metrics
// and outcome logging.
func (c *CompositionRoot) CreateOrderService() usecases.OrderService {
	core := usecases.NewOrders(usecases.Handlers{
		CreateOrder:        c.CreateCreateOrderCommandHandler(),
		EditOrder:          c.CreateEditOrderCommandHandler(),
		ExecuteAction:      c.CreateExecuteOrderActionCommandHandler(),
		GetOrder:           c.CreateGetOrderQueryHandler(),
		ListCustomerOrders: c.CreateListCustomerOrdersQueryHandler(),
		ListRecentOrders:   c.CreateListRecentOrdersQueryHandler(),
		PreviewPrice:       c.CreatePreviewPriceQueryHandler(),
	})
	return serviceobs.New(core,
		serviceobs.WithLogger(c.logger),
		serviceobs.WithTracer(c.instruments.Tracer("mrdinner/orders")),
		serviceobs.WithMeter(c.instruments.Meter("mrdinner/orders")),
	)
}

type FuncOrderUoWFactory func() commands.OrderUoW

func (f FuncOrderUoWFactory) Create() commands.OrderUoW {
	return f()
}

type FuncPricingUoWFactory func() commands.PricingUoW

func (f FuncPricingUoWFactory) Create() commands.PricingUoW {
	return f()
}
