package orderrepo

import (
	"context"
	"errors"

	"mrdinner/internal/core/domain/model/kernel"
	"mrdinner/internal/core/domain/model/order"
	"mrdinner/internal/core/ports"
	"mrdinner/internal/pkg/errs"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// GormOrderRepository implements OrderRepository using GORM.
type GormOrderRepository struct {
	db *gorm.DB
}

// NewGormOrderRepository creates a new GORM order repository.
func NewGormOrderRepository(db *gorm.DB) *GormOrderRepository {
	return &GormOrderRepository{db: db}
}

// Models lists every table the repository owns, parents first, for migrations.
func Models() []any {
	return []any{&OrderDTO{}, &DinnerDTO{}, &DinnerOptionDTO{}, &ItemDTO{}, &ItemOptionDTO{}}
}

// Add saves a new order with all of its lines.
func (r *GormOrderRepository) Add(ctx context.Context, aggregate *order.Order) error {
	if err := aggregate.Validate(); err != nil {
		return err
	}

	dto := fromDomain(aggregate)
	return r.db.WithContext(ctx).Create(&dto).Error
}

// Update saves the orders row. Zero values are written too, so a cleared
// field or a dropped discount is persisted.
func (r *GormOrderRepository) Update(ctx context.Context, aggregate *order.Order) error {
	if err := aggregate.Validate(); err != nil {
		return err
	}

	dto := headerFromDomain(aggregate)
	result := r.db.WithContext(ctx).
		Model(&OrderDTO{}).
		Where("id = ?", dto.ID).
		Select("*").
		Omit("id", "customer_id", "ordered_at", clause.Associations).
		Updates(&dto)
	if result.Error != nil {
		return result.Error
	}

	if result.RowsAffected == 0 {
		return errs.NewObjectNotFoundError("order_id", aggregate.ID().String())
	}

	return nil
}

// ReplaceLines deletes the stored lines of the order and inserts its current ones.
func (r *GormOrderRepository) ReplaceLines(ctx context.Context, aggregate *order.Order) error {
	if err := aggregate.Validate(); err != nil {
		return err
	}

	db := r.db.WithContext(ctx)
	orderID := aggregate.ID().Google()
	dinnerIDs := db.Model(&DinnerDTO{}).Select("id").Where("order_id = ?", orderID)
	itemIDs := db.Model(&ItemDTO{}).Select("id").Where("dinner_id IN (?)", dinnerIDs)

	if err := db.Where("item_id IN (?)", itemIDs).Delete(&ItemOptionDTO{}).Error; err != nil {
		return err
	}
	if err := db.Where("dinner_id IN (?)", dinnerIDs).Delete(&ItemDTO{}).Error; err != nil {
		return err
	}
	if err := db.Where("dinner_id IN (?)", dinnerIDs).Delete(&DinnerOptionDTO{}).Error; err != nil {
		return err
	}
	if err := db.Where("order_id = ?", orderID).Delete(&DinnerDTO{}).Error; err != nil {
		return err
	}

	dinners := dinnersFromDomain(aggregate)
	if len(dinners) == 0 {
		return nil
	}
	return db.Create(&dinners).Error
}

// Get retrieves an order with its lines.
func (r *GormOrderRepository) Get(ctx context.Context, id kernel.UUID) (*order.Order, error) {
	return r.get(ctx, r.db, id)
}

// GetForUpdate retrieves an order and locks its row until the transaction ends.
func (r *GormOrderRepository) GetForUpdate(ctx context.Context, id kernel.UUID) (*order.Order, error) {
	return r.get(ctx, r.db.Clauses(clause.Locking{Strength: clause.LockingStrengthUpdate}), id)
}

// ListByCustomer returns up to limit orders of the customer, newest first.
func (r *GormOrderRepository) ListByCustomer(ctx context.Context, customerID int64, limit int) ([]*order.Order, error) {
	var dtos []OrderDTO
	err := withLines(r.db.WithContext(ctx)).
		Where("customer_id = ?", customerID).
		Order("ordered_at DESC").
		Limit(limit).
		Find(&dtos).Error
	if err != nil {
		return nil, err
	}

	orders := make([]*order.Order, 0, len(dtos))
	for _, dto := range dtos {
		o, err := toDomain(dto)
		if err != nil {
			return nil, err
		}
		orders = append(orders, o)
	}

	return orders, nil
}

func (r *GormOrderRepository) get(ctx context.Context, db *gorm.DB, id kernel.UUID) (*order.Order, error) {
	if err := id.Validate(); err != nil {
		return nil, err
	}

	var dto OrderDTO
	if err := withLines(db.WithContext(ctx)).First(&dto, "id = ?", id.Google()).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, errs.NewObjectNotFoundError("order_id", id.String())
		}
		return nil, err
	}

	return toDomain(dto)
}

func withLines(db *gorm.DB) *gorm.DB {
	byPosition := func(tx *gorm.DB) *gorm.DB { return tx.Order("position") }
	return db.
		Preload("Dinners", byPosition).
		Preload("Dinners.Options", byPosition).
		Preload("Dinners.Items", byPosition).
		Preload("Dinners.Items.Options", byPosition)
}

var _ ports.OrderRepository = (*GormOrderRepository)(nil)
