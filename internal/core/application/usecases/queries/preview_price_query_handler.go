package queries

import (
	"context"
	"time"

	"mrdinner/internal/core/application/pricing"
	"mrdinner/internal/core/application/views"
	"mrdinner/internal/core/domain/model/promotion"
	"mrdinner/internal/core/domain/services"
	"mrdinner/internal/core/ports"
)

// PreviewPriceQueryHandler runs the same pricing and discount pass as order
// creation, outside of any transaction.
type PreviewPriceQueryHandler struct {
	catalog    ports.CatalogLookup
	promotions ports.PromotionRepository
	now        func() time.Time
}

func NewPreviewPriceQueryHandler(
	catalog ports.CatalogLookup,
	promotions ports.PromotionRepository,
) PreviewPriceQueryHandler {
	return PreviewPriceQueryHandler{
		catalog:    catalog,
		promotions: promotions,
		now:        time.Now,
	}
}

func (h PreviewPriceQueryHandler) Handle(ctx context.Context, query PreviewPriceQuery) (views.Quote, error) {
	if err := query.Validate(); err != nil {
		return views.Quote{}, err
	}

	packs := query.Packs()
	quote, err := pricing.Quote(ctx, h.catalog, packs)
	if err != nil {
		return views.Quote{}, err
	}

	discounts, err := pricing.Discount(ctx, h.promotions, promotion.Request{
		SubtotalCents: quote.SubtotalCents,
		CustomerID:    query.CustomerID(),
		Channel:       query.Channel().String(),
		Context:       services.DiscountContext(packs),
		CouponCodes:   query.CouponCodes(),
	}, h.now())
	if err != nil {
		return views.Quote{}, err
	}

	return views.FromQuote(quote, discounts), nil
}
