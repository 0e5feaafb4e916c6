package ports

import (
	"context"

	"mrdinner/internal/core/domain/model/catalog"
)

// CatalogLookup resolves catalog codes to the prices and pricing modes used
// while pricing. It is read-only. Unknown or inactive codes yield an
// ObjectNotFoundError naming the code.
type CatalogLookup interface {
	GetDinner(ctx context.Context, code string) (catalog.Dinner, error)
	GetStyle(ctx context.Context, code string) (catalog.ServingStyle, error)
	GetItem(ctx context.Context, code string) (catalog.MenuItem, error)
	GetDefaultItems(ctx context.Context, dinnerCode string) ([]catalog.DefaultItem, error)

	// GetDinnerOptions returns the options with the given ids that belong to
	// the dinner's option groups, in the order of ids. Ids that do not
	// belong to the dinner are left out.
	GetDinnerOptions(ctx context.Context, dinnerCode string, ids []int64) ([]catalog.DinnerOption, error)
}
