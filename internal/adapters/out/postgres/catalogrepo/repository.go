package catalogrepo

import (
	"context"
	"errors"

	"mrdinner/internal/core/domain/model/catalog"
	"mrdinner/internal/core/ports"
	"mrdinner/internal/pkg/errs"

	"gorm.io/gorm"
)

// GormCatalogLookup implements CatalogLookup using GORM. Inactive dinners and
// items are treated as missing.
type GormCatalogLookup struct {
	db *gorm.DB
}

func NewGormCatalogLookup(db *gorm.DB) *GormCatalogLookup {
	return &GormCatalogLookup{db: db}
}

// Models lists every catalog table, for migrations.
func Models() []any {
	return []any{
		&ServingStyleDTO{},
		&MenuItemDTO{},
		&ItemOptionGroupDTO{},
		&ItemOptionDTO{},
		&DinnerTypeDTO{},
		&DefaultItemDTO{},
		&DinnerOptionGroupDTO{},
		&DinnerOptionDTO{},
	}
}

func (r *GormCatalogLookup) GetDinner(ctx context.Context, code string) (catalog.Dinner, error) {
	dto, err := r.dinner(ctx, code)
	if err != nil {
		return catalog.Dinner{}, err
	}
	return dinnerToDomain(dto), nil
}

func (r *GormCatalogLookup) GetStyle(ctx context.Context, code string) (catalog.ServingStyle, error) {
	var dto ServingStyleDTO
	if err := r.db.WithContext(ctx).First(&dto, "code = ?", code).Error; err != nil {
		return catalog.ServingStyle{}, notFound(err, "style_code", code)
	}
	return styleToDomain(dto)
}

func (r *GormCatalogLookup) GetItem(ctx context.Context, code string) (catalog.MenuItem, error) {
	var dto MenuItemDTO
	err := withItemOptions(r.db.WithContext(ctx), "").
		First(&dto, "code = ? AND active = ?", code, true).Error
	if err != nil {
		return catalog.MenuItem{}, notFound(err, "item_code", code)
	}
	return itemToDomain(dto)
}

// GetDefaultItems returns the default items of an active dinner in rank
// order. Inactive items are left out.
func (r *GormCatalogLookup) GetDefaultItems(ctx context.Context, dinnerCode string) ([]catalog.DefaultItem, error) {
	dinner, err := r.dinner(ctx, dinnerCode)
	if err != nil {
		return nil, err
	}

	var dtos []DefaultItemDTO
	err = withItemOptions(r.db.WithContext(ctx), "Item.").
		Preload("Item").
		Where("dinner_type_id = ?", dinner.ID).
		Order("rank, id").
		Find(&dtos).Error
	if err != nil {
		return nil, err
	}

	out := make([]catalog.DefaultItem, 0, len(dtos))
	for _, dto := range dtos {
		if !dto.Item.Active {
			continue
		}
		item, itemErr := itemToDomain(dto.Item)
		if itemErr != nil {
			return nil, itemErr
		}
		out = append(out, catalog.DefaultItem{
			Item:           item,
			DefaultQty:     dto.DefaultQty,
			IncludedInBase: dto.IncludedInBase,
		})
	}
	return out, nil
}

func (r *GormCatalogLookup) GetDinnerOptions(
	ctx context.Context,
	dinnerCode string,
	ids []int64,
) ([]catalog.DinnerOption, error) {
	dinner, err := r.dinner(ctx, dinnerCode)
	if err != nil {
		return nil, err
	}
	if len(ids) == 0 {
		return nil, nil
	}

	var dtos []DinnerOptionDTO
	err = r.db.WithContext(ctx).
		Preload("Group").
		Preload("Item").
		Joins("JOIN dinner_option_groups g ON g.id = dinner_options.group_id").
		Where("dinner_options.id IN ? AND g.dinner_type_id = ?", ids, dinner.ID).
		Find(&dtos).Error
	if err != nil {
		return nil, err
	}

	byID := make(map[int64]DinnerOptionDTO, len(dtos))
	for _, dto := range dtos {
		byID[dto.ID] = dto
	}

	out := make([]catalog.DinnerOption, 0, len(ids))
	for _, id := range ids {
		dto, ok := byID[id]
		if !ok {
			continue
		}
		opt, optErr := dinnerOptionToDomain(dto)
		if optErr != nil {
			return nil, optErr
		}
		out = append(out, opt)
	}
	return out, nil
}

func (r *GormCatalogLookup) dinner(ctx context.Context, code string) (DinnerTypeDTO, error) {
	var dto DinnerTypeDTO
	err := r.db.WithContext(ctx).
		Preload("AllowedStyles", func(tx *gorm.DB) *gorm.DB { return tx.Order("serving_styles.id") }).
		First(&dto, "code = ? AND active = ?", code, true).Error
	if err != nil {
		return DinnerTypeDTO{}, notFound(err, "dinner_code", code)
	}
	return dto, nil
}

func withItemOptions(db *gorm.DB, prefix string) *gorm.DB {
	byRank := func(tx *gorm.DB) *gorm.DB { return tx.Order("rank, id") }
	return db.
		Preload(prefix+"OptionGroups", byRank).
		Preload(prefix+"OptionGroups.Options", byRank)
}

func notFound(err error, param, code string) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return errs.NewObjectNotFoundError(param, code)
	}
	return err
}

var _ ports.CatalogLookup = (*GormCatalogLookup)(nil)
