package http

import (
	"encoding/json"
	"strings"

	"mrdinner/internal/core/application/usecases/commands"
	"mrdinner/internal/core/application/usecases/queries"
	"mrdinner/internal/core/domain/model/kernel"
	"mrdinner/internal/core/domain/model/order"
	"mrdinner/internal/core/domain/model/selection"

	"github.com/shopspring/decimal"
)

// optional records whether a JSON key was present, including an explicit
// null.
type optional[T any] struct {
	set   bool
	value T
}

func (o *optional[T]) UnmarshalJSON(b []byte) error {
	o.set = true
	return json.Unmarshal(b, &o.value)
}

func (o optional[T]) field() order.Field[T] {
	return order.Field[T]{Set: o.set, Value: o.value}
}

func (o optional[T]) orZero() T {
	return o.value
}

type couponRef struct {
	Code string `json:"code"`
}

func couponCodes(refs []couponRef) []string {
	out := make([]string, 0, len(refs))
	for _, r := range refs {
		if code := strings.TrimSpace(r.Code); code != "" {
			out = append(out, code)
		}
	}
	return out
}

// header is the delivery, payment and meta part shared by create and edit.
type header struct {
	ReceiverName    optional[string]           `json:"receiver_name"`
	ReceiverPhone   optional[string]           `json:"receiver_phone"`
	DeliveryAddress optional[string]           `json:"delivery_address"`
	GeoLat          optional[*decimal.Decimal] `json:"geo_lat"`
	GeoLng          optional[*decimal.Decimal] `json:"geo_lng"`
	PlaceLabel      optional[string]           `json:"place_label"`
	AddressMeta     optional[map[string]any]   `json:"address_meta"`
	PaymentToken    optional[string]           `json:"payment_token"`
	CardLast4       optional[string]           `json:"card_last4"`
	Meta            map[string]any             `json:"meta"`
}

func (h header) delivery() (order.Delivery, error) {
	geo, err := kernel.NewOptionalGeoPoint(h.GeoLat.orZero(), h.GeoLng.orZero())
	if err != nil {
		return order.Delivery{}, err
	}
	return order.Delivery{
		ReceiverName:  h.ReceiverName.orZero(),
		ReceiverPhone: h.ReceiverPhone.orZero(),
		Address:       h.DeliveryAddress.orZero(),
		Geo:           geo,
		PlaceLabel:    h.PlaceLabel.orZero(),
		AddressMeta:   h.AddressMeta.orZero(),
	}, nil
}

func (h header) patch() order.HeaderPatch {
	return order.HeaderPatch{
		ReceiverName:  h.ReceiverName.field(),
		ReceiverPhone: h.ReceiverPhone.field(),
		Address:       h.DeliveryAddress.field(),
		GeoLat:        h.GeoLat.field(),
		GeoLng:        h.GeoLng.field(),
		PlaceLabel:    h.PlaceLabel.field(),
		AddressMeta:   h.AddressMeta.field(),
		PaymentToken:  h.PaymentToken.field(),
		CardLast4:     h.CardLast4.field(),
	}
}

type createOrderRequest struct {
	selection.Payload
	header
	CustomerID  int64       `json:"customer_id"`
	OrderSource string      `json:"order_source"`
	Coupons     []couponRef `json:"coupons"`
}

func (r createOrderRequest) command() (commands.CreateOrderCommand, error) {
	packs, err := selection.Normalize(r.Payload)
	if err != nil {
		return commands.CreateOrderCommand{}, err
	}
	channel, err := order.ParseChannel(r.OrderSource)
	if err != nil {
		return commands.CreateOrderCommand{}, err
	}
	delivery, err := r.delivery()
	if err != nil {
		return commands.CreateOrderCommand{}, err
	}
	payment, err := order.NewPayment(r.PaymentToken.orZero(), r.CardLast4.orZero())
	if err != nil {
		return commands.CreateOrderCommand{}, err
	}

	return commands.NewCreateOrderCommand(commands.CreateOrderParams{
		OrderID:     kernel.NewUUID(),
		CustomerID:  r.CustomerID,
		Channel:     channel,
		Delivery:    delivery,
		Payment:     payment,
		Meta:        r.Meta,
		Packs:       packs,
		CouponCodes: couponCodes(r.Coupons),
	})
}

type editOrderRequest struct {
	selection.Payload
	header
	Coupons optional[[]couponRef] `json:"coupons"`
}

func (r editOrderRequest) command(id kernel.UUID) (commands.EditOrderCommand, error) {
	params := commands.EditOrderParams{
		OrderID: id,
		Header:  r.patch(),
		Meta:    r.Meta,
	}
	if r.HasLines() {
		packs, err := selection.Normalize(r.Payload)
		if err != nil {
			return commands.EditOrderCommand{}, err
		}
		params.Packs = packs
	}
	if r.Coupons.set {
		codes := couponCodes(r.Coupons.value)
		params.CouponCodes = &codes
	}
	return commands.NewEditOrderCommand(params)
}

type previewRequest struct {
	selection.Payload
	CustomerID  int64       `json:"customer_id"`
	OrderSource string      `json:"order_source"`
	Coupons     []couponRef `json:"coupons"`
}

func (r previewRequest) query() (queries.PreviewPriceQuery, error) {
	packs, err := selection.Normalize(r.Payload)
	if err != nil {
		return queries.PreviewPriceQuery{}, err
	}
	channel, err := order.ParseChannel(r.OrderSource)
	if err != nil {
		return queries.PreviewPriceQuery{}, err
	}
	return queries.NewPreviewPriceQuery(packs, r.CustomerID, channel, couponCodes(r.Coupons))
}

type actionRequest struct {
	Action string `json:"action"`
	Actor  string `json:"actor"`
	Reason string `json:"reason"`
}

func (r actionRequest) command(id kernel.UUID) (commands.ExecuteOrderActionCommand, error) {
	action, err := order.ParseAction(r.Action)
	if err != nil {
		return commands.ExecuteOrderActionCommand{}, err
	}
	return commands.NewExecuteOrderActionCommand(id, action, r.Actor, r.Reason)
}
