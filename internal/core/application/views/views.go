// Package views holds the JSON read models of orders and price quotes shared
// by the HTTP API and the order events.
package views

import (
	"fmt"
	"time"

	"mrdinner/internal/core/domain/model/order"
	"mrdinner/internal/core/domain/services"

	"github.com/shopspring/decimal"
)

type Option struct {
	GroupName       string           `json:"option_group_name"`
	Name            string           `json:"option_name"`
	PriceDeltaCents int64            `json:"price_delta_cents"`
	Multiplier      *decimal.Decimal `json:"multiplier"`
}

type Item struct {
	ID             string          `json:"id"`
	ItemCode       string          `json:"item_code"`
	ItemName       string          `json:"item_name"`
	FinalQty       decimal.Decimal `json:"final_qty"`
	UnitPriceCents int64           `json:"unit_price_cents"`
	SubtotalCents  int64           `json:"subtotal_cents"`
	IsDefault      bool            `json:"is_default"`
	ChangeType     string          `json:"change_type"`
	Options        []Option        `json:"options"`
}

type Dinner struct {
	ID               string          `json:"id"`
	DinnerCode       string          `json:"dinner_code"`
	DinnerName       string          `json:"dinner_name"`
	StyleCode        string          `json:"style_code"`
	StyleName        string          `json:"style_name"`
	Quantity         decimal.Decimal `json:"quantity"`
	BasePriceCents   int64           `json:"base_price_cents"`
	StyleAdjustCents int64           `json:"style_adjust_cents"`
	UnitPriceCents   int64           `json:"unit_price_cents"`
	SubtotalCents    int64           `json:"subtotal_cents"`
	Options          []Option        `json:"options"`
	Items            []Item          `json:"items"`
}

type AuditEntry struct {
	Event string    `json:"event"`
	Actor string    `json:"actor"`
	At    time.Time `json:"at"`
	Note  string    `json:"note,omitempty"`
}

type Discount struct {
	Type        string `json:"type"`
	Label       string `json:"label"`
	Code        string `json:"code,omitempty"`
	AmountCents int64  `json:"amount_cents"`
}

// Order is the full order snapshot returned by the API and carried by events.
type Order struct {
	ID              string           `json:"id"`
	CustomerID      int64            `json:"customer_id"`
	OrderedAt       time.Time        `json:"ordered_at"`
	Status          string           `json:"status"`
	Ready           bool             `json:"ready"`
	OrderSource     string           `json:"order_source"`
	ReceiverName    string           `json:"receiver_name"`
	ReceiverPhone   string           `json:"receiver_phone"`
	DeliveryAddress string           `json:"delivery_address"`
	GeoLat          *decimal.Decimal `json:"geo_lat"`
	GeoLng          *decimal.Decimal `json:"geo_lng"`
	PlaceLabel      string           `json:"place_label"`
	AddressMeta     map[string]any   `json:"address_meta"`
	PaymentToken    string           `json:"payment_token"`
	CardLast4       string           `json:"card_last4"`
	SubtotalCents   int64            `json:"subtotal_cents"`
	DiscountCents   int64            `json:"discount_cents"`
	TotalCents      int64            `json:"total_cents"`
	Discounts       []Discount       `json:"discounts"`
	StaffOps        []AuditEntry     `json:"staff_ops"`
	Meta            map[string]any   `json:"meta"`
	Dinners         []Dinner         `json:"dinners"`
}

// Summary is the compact order row of the staff feed bootstrap.
type Summary struct {
	ID            string    `json:"id"`
	Status        string    `json:"status"`
	Ready         bool      `json:"ready"`
	OrderedAt     time.Time `json:"ordered_at"`
	CustomerID    int64     `json:"customer_id"`
	OrderSource   string    `json:"order_source"`
	SubtotalCents int64     `json:"subtotal_cents"`
	TotalCents    int64     `json:"total_cents"`
	ReceiverName  string    `json:"receiver_name"`
	PlaceLabel    string    `json:"place_label"`
}

type LineItem struct {
	ItemCode       string          `json:"item_code"`
	Name           string          `json:"name"`
	Qty            decimal.Decimal `json:"qty"`
	UnitPriceCents int64           `json:"unit_price_cents"`
	SubtotalCents  int64           `json:"subtotal_cents"`
	IsDefault      bool            `json:"is_default"`
	ChangeType     string          `json:"change_type"`
	Options        []Option        `json:"options"`
}

type Adjustment struct {
	Type       string `json:"type"`
	Label      string `json:"label"`
	Mode       string `json:"mode"`
	ValueCents int64  `json:"value_cents"`
}

// Quote is a price preview. Nothing in it is persisted.
type Quote struct {
	Dinners       []Dinner     `json:"dinners"`
	LineItems     []LineItem   `json:"line_items"`
	Adjustments   []Adjustment `json:"adjustments"`
	SubtotalCents int64        `json:"subtotal_cents"`
	Discounts     []Discount   `json:"discounts"`
	DiscountCents int64        `json:"discount_cents"`
	TotalCents    int64        `json:"total_cents"`
}

func FromOrder(o *order.Order) Order {
	d := o.Delivery()
	v := Order{
		ID:              o.ID().String(),
		CustomerID:      o.CustomerID(),
		OrderedAt:       o.OrderedAt(),
		Status:          o.Status().String(),
		Ready:           o.IsReady(),
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
		Discounts:       FromDiscounts(o.Discounts()),
		StaffOps:        make([]AuditEntry, 0, len(o.AuditLog())),
		Meta:            o.Meta(),
		Dinners:         make([]Dinner, 0, len(o.Dinners())),
	}
	if d.Geo != nil {
		lat, lng := d.Geo.Lat(), d.Geo.Lng()
		v.GeoLat, v.GeoLng = &lat, &lng
	}
	for _, e := range o.AuditLog() {
		v.StaffOps = append(v.StaffOps, AuditEntry{Event: e.Event, Actor: e.Actor, At: e.Timestamp, Note: e.Note})
	}
	for _, dn := range o.Dinners() {
		v.Dinners = append(v.Dinners, FromDinner(dn))
	}
	return v
}

func SummaryFromOrder(o *order.Order) Summary {
	return Summary{
		ID:            o.ID().String(),
		Status:        o.Status().String(),
		Ready:         o.IsReady(),
		OrderedAt:     o.OrderedAt(),
		CustomerID:    o.CustomerID(),
		OrderSource:   o.Channel().String(),
		SubtotalCents: o.SubtotalCents(),
		TotalCents:    o.TotalCents(),
		ReceiverName:  o.Delivery().ReceiverName,
		PlaceLabel:    o.Delivery().PlaceLabel,
	}
}

func FromDinner(d *order.Dinner) Dinner {
	v := Dinner{
		ID:               d.ID().String(),
		DinnerCode:       d.DinnerCode(),
		DinnerName:       d.DinnerName(),
		StyleCode:        d.StyleCode(),
		StyleName:        d.StyleName(),
		Quantity:         d.Quantity(),
		BasePriceCents:   d.BasePriceCents(),
		StyleAdjustCents: d.StyleAdjustCents(),
		UnitPriceCents:   d.UnitPriceCents(),
		SubtotalCents:    d.SubtotalCents(),
		Options:          fromOptions(d.Options()),
		Items:            make([]Item, 0, len(d.Items())),
	}
	for _, it := range d.Items() {
		v.Items = append(v.Items, Item{
			ID:             it.ID().String(),
			ItemCode:       it.ItemCode(),
			ItemName:       it.ItemName(),
			FinalQty:       it.FinalQty(),
			UnitPriceCents: it.UnitPriceCents(),
			SubtotalCents:  it.SubtotalCents(),
			IsDefault:      it.IsDefault(),
			ChangeType:     it.ChangeType().String(),
			Options:        fromOptions(it.Options()),
		})
	}
	return v
}

func FromDiscounts(lines []order.DiscountLine) []Discount {
	out := make([]Discount, 0, len(lines))
	for _, l := range lines {
		out = append(out, Discount{Type: l.Type, Label: l.Label, Code: l.Code, AmountCents: l.AmountCents})
	}
	return out
}

// FromQuote builds the preview from a pricing pass and its discount evaluation.
func FromQuote(q services.Quote, d services.DiscountResult) Quote {
	v := Quote{
		Dinners:       make([]Dinner, 0, len(q.Dinners)),
		LineItems:     []LineItem{},
		Adjustments:   make([]Adjustment, 0, len(q.Adjustments)),
		SubtotalCents: q.SubtotalCents,
		Discounts:     FromDiscounts(d.Lines),
		DiscountCents: d.TotalDiscountCents,
		TotalCents:    d.FinalTotalCents,
	}
	for _, dn := range q.Dinners {
		v.Dinners = append(v.Dinners, FromDinner(dn))
		for _, it := range dn.Items() {
			v.LineItems = append(v.LineItems, LineItem{
				ItemCode:       it.ItemCode(),
				Name:           fmt.Sprintf("%s @ %s", it.ItemName(), dn.DinnerName()),
				Qty:            it.FinalQty(),
				UnitPriceCents: it.UnitPriceCents(),
				SubtotalCents:  it.SubtotalCents(),
				IsDefault:      it.IsDefault(),
				ChangeType:     it.ChangeType().String(),
				Options:        fromOptions(it.Options()),
			})
		}
	}
	for _, a := range q.Adjustments {
		v.Adjustments = append(v.Adjustments, Adjustment{Type: a.Type, Label: a.Label, Mode: a.Mode, ValueCents: a.ValueCents})
	}
	return v
}

func fromOptions(opts []order.OptionSnapshot) []Option {
	out := make([]Option, 0, len(opts))
	for _, o := range opts {
		out = append(out, Option{
			GroupName:       o.GroupName,
			Name:            o.OptionName,
			PriceDeltaCents: o.PriceDeltaCents,
			Multiplier:      o.Multiplier,
		})
	}
	return out
}
