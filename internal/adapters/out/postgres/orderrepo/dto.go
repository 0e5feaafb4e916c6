// Package orderrepo provides data transfer objects and mapping functions for order persistence.
// An order is stored as one orders row plus dinner, item and option rows that
// keep their position so lines come back in the order they were priced.
package orderrepo

import (
	"encoding/json"
	"maps"
	"time"

	"mrdinner/internal/core/domain/model/kernel"
	"mrdinner/internal/core/domain/model/order"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// OrderDTO represents the orders table. The meta column holds client
// metadata together with the staff operations log and the discount lines.
type OrderDTO struct {
	ID              uuid.UUID           `gorm:"type:uuid;primaryKey"`
	CustomerID      int64               `gorm:"index:idx_orders_customer_ordered,priority:1;not null"`
	OrderedAt       time.Time           `gorm:"index:idx_orders_customer_ordered,priority:2;index;not null"`
	Status          string              `gorm:"size:32;index;not null"`
	OrderSource     string              `gorm:"size:16;not null"`
	ReceiverName    string              `gorm:"size:120"`
	ReceiverPhone   string              `gorm:"size:40"`
	DeliveryAddress string              `gorm:"size:255"`
	GeoLat          decimal.NullDecimal `gorm:"type:numeric(9,6)"`
	GeoLng          decimal.NullDecimal `gorm:"type:numeric(9,6)"`
	PlaceLabel      string              `gorm:"size:120"`
	AddressMeta     map[string]any      `gorm:"type:jsonb;serializer:json"`
	PaymentToken    string              `gorm:"size:255"`
	CardLast4       string              `gorm:"size:4"`
	SubtotalCents   int64               `gorm:"not null"`
	DiscountCents   int64               `gorm:"not null"`
	TotalCents      int64               `gorm:"not null"`
	Meta            MetaDocument        `gorm:"type:jsonb;serializer:json"`
	Dinners         []DinnerDTO         `gorm:"foreignKey:OrderID;constraint:OnDelete:CASCADE"`
}

func (OrderDTO) TableName() string {
	return "orders"
}

// DinnerDTO is one dinner package row.
type DinnerDTO struct {
	ID               uuid.UUID         `gorm:"type:uuid;primaryKey"`
	OrderID          uuid.UUID         `gorm:"type:uuid;index;not null"`
	Position         int               `gorm:"not null"`
	DinnerCode       string            `gorm:"size:64;not null"`
	DinnerName       string            `gorm:"size:120"`
	StyleCode        string            `gorm:"size:64;not null"`
	StyleName        string            `gorm:"size:120"`
	Quantity         decimal.Decimal   `gorm:"type:numeric(10,2);not null"`
	BasePriceCents   int64             `gorm:"not null"`
	StyleAdjustCents int64             `gorm:"not null"`
	UnitPriceCents   int64             `gorm:"not null"`
	SubtotalCents    int64             `gorm:"not null"`
	Options          []DinnerOptionDTO `gorm:"foreignKey:DinnerID;constraint:OnDelete:CASCADE"`
	Items            []ItemDTO         `gorm:"foreignKey:DinnerID;constraint:OnDelete:CASCADE"`
}

func (DinnerDTO) TableName() string {
	return "order_dinners"
}

// DinnerOptionDTO snapshots a dinner option as it was priced.
type DinnerOptionDTO struct {
	ID              uint64              `gorm:"primaryKey;autoIncrement"`
	DinnerID        uuid.UUID           `gorm:"type:uuid;index;not null"`
	Position        int                 `gorm:"not null"`
	GroupName       string              `gorm:"size:120"`
	OptionName      string              `gorm:"size:120"`
	PriceDeltaCents int64               `gorm:"not null"`
	Multiplier      decimal.NullDecimal `gorm:"type:numeric(6,3)"`
}

func (DinnerOptionDTO) TableName() string {
	return "order_dinner_options"
}

// ItemDTO is one item row of a dinner package. A dinner has at most one row
// per item code.
type ItemDTO struct {
	ID             uuid.UUID       `gorm:"type:uuid;primaryKey"`
	DinnerID       uuid.UUID       `gorm:"type:uuid;uniqueIndex:idx_dinner_item_code,priority:1;not null"`
	Position       int             `gorm:"not null"`
	ItemCode       string          `gorm:"size:64;uniqueIndex:idx_dinner_item_code,priority:2;not null"`
	ItemName       string          `gorm:"size:120"`
	FinalQty       decimal.Decimal `gorm:"type:numeric(10,2);not null"`
	UnitPriceCents int64           `gorm:"not null"`
	SubtotalCents  int64           `gorm:"not null"`
	IsDefault      bool            `gorm:"not null"`
	ChangeType     string          `gorm:"size:16;not null"`
	Options        []ItemOptionDTO `gorm:"foreignKey:ItemID;constraint:OnDelete:CASCADE"`
}

func (ItemDTO) TableName() string {
	return "order_dinner_items"
}

// ItemOptionDTO snapshots an item option as it was priced.
type ItemOptionDTO struct {
	ID              uint64              `gorm:"primaryKey;autoIncrement"`
	ItemID          uuid.UUID           `gorm:"type:uuid;index;not null"`
	Position        int                 `gorm:"not null"`
	GroupName       string              `gorm:"size:120"`
	OptionName      string              `gorm:"size:120"`
	PriceDeltaCents int64               `gorm:"not null"`
	Multiplier      decimal.NullDecimal `gorm:"type:numeric(6,3)"`
}

func (ItemOptionDTO) TableName() string {
	return "order_item_options"
}

// StaffOpDTO is one entry of the staff operations log.
type StaffOpDTO struct {
	Event string    `json:"event"`
	Actor string    `json:"actor"`
	At    time.Time `json:"at"`
	Note  string    `json:"note,omitempty"`
}

// DiscountDTO is one applied discount line.
type DiscountDTO struct {
	Type        string `json:"type"`
	Label       string `json:"label"`
	Code        string `json:"code,omitempty"`
	AmountCents int64  `json:"amount_cents"`
}

// MetaDocument is the JSON object stored in orders.meta. Client keys sit at
// the top level next to the reserved staff_ops and discounts keys.
type MetaDocument struct {
	Client    map[string]any
	StaffOps  []StaffOpDTO
	Discounts []DiscountDTO
}

func (m MetaDocument) MarshalJSON() ([]byte, error) {
	out := make(map[string]any, len(m.Client)+2)
	maps.Copy(out, m.Client)
	staffOps := m.StaffOps
	if staffOps == nil {
		staffOps = []StaffOpDTO{}
	}
	discounts := m.Discounts
	if discounts == nil {
		discounts = []DiscountDTO{}
	}
	out[order.MetaKeyStaffOps] = staffOps
	out[order.MetaKeyDiscounts] = discounts
	return json.Marshal(out)
}

func (m *MetaDocument) UnmarshalJSON(data []byte) error {
	var raw map[string]json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	*m = MetaDocument{Client: make(map[string]any, len(raw))}
	for key, value := range raw {
		var err error
		switch key {
		case order.MetaKeyStaffOps:
			err = json.Unmarshal(value, &m.StaffOps)
		case order.MetaKeyDiscounts:
			err = json.Unmarshal(value, &m.Discounts)
		default:
			var v any
			err = json.Unmarshal(value, &v)
			m.Client[key] = v
		}
		if err != nil {
			return err
		}
	}
	return nil
}

// fromDomain converts an order aggregate to its rows, lines included.
func fromDomain(o *order.Order) OrderDTO {
	dto := headerFromDomain(o)
	dto.Dinners = dinnersFromDomain(o)
	return dto
}

// headerFromDomain converts the orders row only.
func headerFromDomain(o *order.Order) OrderDTO {
	d := o.Delivery()
	dto := OrderDTO{
		ID:              o.ID().Google(),
		CustomerID:      o.CustomerID(),
		OrderedAt:       o.OrderedAt().UTC(),
		Status:          o.Status().String(),
		OrderSource:     o.Channel().String(),
		ReceiverName:    d.ReceiverName,
		ReceiverPhone:   d.ReceiverPhone,
		DeliveryAddress: d.Address,
		PlaceLabel:      d.PlaceLabel,
		AddressMeta:     d.AddressMeta,
		PaymentToken:    o.Payment().Token(),
		CardLast4:       o.Payment().CardLast4(),
		SubtotalCents:   o.SubtotalCents(),
		DiscountCents:   o.DiscountCents(),
		TotalCents:      o.TotalCents(),
		Meta:            metaFromDomain(o),
	}
	if d.Geo != nil {
		dto.GeoLat = decimal.NewNullDecimal(d.Geo.Lat())
		dto.GeoLng = decimal.NewNullDecimal(d.Geo.Lng())
	}
	return dto
}

func metaFromDomain(o *order.Order) MetaDocument {
	doc := MetaDocument{Client: o.Meta()}
	for _, e := range o.AuditLog() {
		doc.StaffOps = append(doc.StaffOps, StaffOpDTO{
			Event: e.Event,
			Actor: e.Actor,
			At:    e.Timestamp.UTC(),
			Note:  e.Note,
		})
	}
	for _, l := range o.Discounts() {
		doc.Discounts = append(doc.Discounts, DiscountDTO{
			Type:        l.Type,
			Label:       l.Label,
			Code:        l.Code,
			AmountCents: l.AmountCents,
		})
	}
	return doc
}

func dinnersFromDomain(o *order.Order) []DinnerDTO {
	dinners := o.Dinners()
	out := make([]DinnerDTO, 0, len(dinners))
	for pos, d := range dinners {
		dto := DinnerDTO{
			ID:               d.ID().Google(),
			OrderID:          o.ID().Google(),
			Position:         pos,
			DinnerCode:       d.DinnerCode(),
			DinnerName:       d.DinnerName(),
			StyleCode:        d.StyleCode(),
			StyleName:        d.StyleName(),
			Quantity:         d.Quantity(),
			BasePriceCents:   d.BasePriceCents(),
			StyleAdjustCents: d.StyleAdjustCents(),
			UnitPriceCents:   d.UnitPriceCents(),
			SubtotalCents:    d.SubtotalCents(),
		}
		for i, opt := range d.Options() {
			dto.Options = append(dto.Options, DinnerOptionDTO{
				DinnerID:        dto.ID,
				Position:        i,
				GroupName:       opt.GroupName,
				OptionName:      opt.OptionName,
				PriceDeltaCents: opt.PriceDeltaCents,
				Multiplier:      nullDecimal(opt.Multiplier),
			})
		}
		for i, it := range d.Items() {
			item := ItemDTO{
				ID:             it.ID().Google(),
				DinnerID:       dto.ID,
				Position:       i,
				ItemCode:       it.ItemCode(),
				ItemName:       it.ItemName(),
				FinalQty:       it.FinalQty(),
				UnitPriceCents: it.UnitPriceCents(),
				SubtotalCents:  it.SubtotalCents(),
				IsDefault:      it.IsDefault(),
				ChangeType:     it.ChangeType().String(),
			}
			for j, opt := range it.Options() {
				item.Options = append(item.Options, ItemOptionDTO{
					ItemID:          item.ID,
					Position:        j,
					GroupName:       opt.GroupName,
					OptionName:      opt.OptionName,
					PriceDeltaCents: opt.PriceDeltaCents,
					Multiplier:      nullDecimal(opt.Multiplier),
				})
			}
			dto.Items = append(dto.Items, item)
		}
		out = append(out, dto)
	}
	return out
}

// toDomain rebuilds an order aggregate from its rows using RestoreOrder.
// Child rows are expected in position order.
func toDomain(dto OrderDTO) (*order.Order, error) {
	id, err := kernel.UUIDFromGoogle(dto.ID)
	if err != nil {
		return nil, err
	}

	status, err := order.ParseStatus(dto.Status)
	if err != nil {
		return nil, err
	}

	channel, err := order.ParseChannel(dto.OrderSource)
	if err != nil {
		return nil, err
	}

	geo, err := kernel.NewOptionalGeoPoint(decimalPtr(dto.GeoLat), decimalPtr(dto.GeoLng))
	if err != nil {
		return nil, err
	}

	payment, err := order.NewPayment(dto.PaymentToken, dto.CardLast4)
	if err != nil {
		return nil, err
	}

	dinners := make([]*order.Dinner, 0, len(dto.Dinners))
	for _, d := range dto.Dinners {
		dinner, dinnerErr := dinnerToDomain(d)
		if dinnerErr != nil {
			return nil, dinnerErr
		}
		dinners = append(dinners, dinner)
	}

	audit := make([]order.AuditEntry, 0, len(dto.Meta.StaffOps))
	for _, op := range dto.Meta.StaffOps {
		audit = append(audit, order.AuditEntry{Event: op.Event, Actor: op.Actor, Timestamp: op.At, Note: op.Note})
	}

	discounts := make([]order.DiscountLine, 0, len(dto.Meta.Discounts))
	for _, l := range dto.Meta.Discounts {
		discounts = append(discounts, order.DiscountLine{
			Type:        l.Type,
			Label:       l.Label,
			Code:        l.Code,
			AmountCents: l.AmountCents,
		})
	}

	return order.RestoreOrder(order.State{
		ID:         id,
		CustomerID: dto.CustomerID,
		OrderedAt:  dto.OrderedAt,
		Status:     status,
		Channel:    channel,
		Delivery: order.Delivery{
			ReceiverName:  dto.ReceiverName,
			ReceiverPhone: dto.ReceiverPhone,
			Address:       dto.DeliveryAddress,
			Geo:           geo,
			PlaceLabel:    dto.PlaceLabel,
			AddressMeta:   dto.AddressMeta,
		},
		Payment:       payment,
		SubtotalCents: dto.SubtotalCents,
		DiscountCents: dto.DiscountCents,
		TotalCents:    dto.TotalCents,
		Discounts:     discounts,
		AuditLog:      audit,
		Meta:          dto.Meta.Client,
		Dinners:       dinners,
	})
}

func dinnerToDomain(dto DinnerDTO) (*order.Dinner, error) {
	id, err := kernel.UUIDFromGoogle(dto.ID)
	if err != nil {
		return nil, err
	}

	items := make([]*order.Item, 0, len(dto.Items))
	for _, it := range dto.Items {
		itemID, idErr := kernel.UUIDFromGoogle(it.ID)
		if idErr != nil {
			return nil, idErr
		}
		change, changeErr := order.ParseChangeType(it.ChangeType)
		if changeErr != nil {
			return nil, changeErr
		}
		options := make([]order.OptionSnapshot, 0, len(it.Options))
		for _, opt := range it.Options {
			options = append(options, order.OptionSnapshot{
				GroupName:       opt.GroupName,
				OptionName:      opt.OptionName,
				PriceDeltaCents: opt.PriceDeltaCents,
				Multiplier:      decimalPtr(opt.Multiplier),
			})
		}
		item, itemErr := order.NewItem(itemID, order.ItemParams{
			ItemCode:       it.ItemCode,
			ItemName:       it.ItemName,
			FinalQty:       it.FinalQty,
			UnitPriceCents: it.UnitPriceCents,
			SubtotalCents:  it.SubtotalCents,
			IsDefault:      it.IsDefault,
			ChangeType:     change,
			Options:        options,
		})
		if itemErr != nil {
			return nil, itemErr
		}
		items = append(items, item)
	}

	options := make([]order.OptionSnapshot, 0, len(dto.Options))
	for _, opt := range dto.Options {
		options = append(options, order.OptionSnapshot{
			GroupName:       opt.GroupName,
			OptionName:      opt.OptionName,
			PriceDeltaCents: opt.PriceDeltaCents,
			Multiplier:      decimalPtr(opt.Multiplier),
		})
	}

	return order.NewDinner(id, order.DinnerParams{
		DinnerCode:       dto.DinnerCode,
		DinnerName:       dto.DinnerName,
		StyleCode:        dto.StyleCode,
		StyleName:        dto.StyleName,
		Quantity:         dto.Quantity,
		BasePriceCents:   dto.BasePriceCents,
		StyleAdjustCents: dto.StyleAdjustCents,
		UnitPriceCents:   dto.UnitPriceCents,
		SubtotalCents:    dto.SubtotalCents,
		Options:          options,
	}, items)
}

func nullDecimal(d *decimal.Decimal) decimal.NullDecimal {
	if d == nil {
		return decimal.NullDecimal{}
	}
	return decimal.NewNullDecimal(*d)
}

func decimalPtr(d decimal.NullDecimal) *decimal.Decimal {
	if !d.Valid {
		return nil
	}
	v := d.Decimal
	return &v
}
