package order

import (
	"errors"
	"fmt"
	"maps"
	"time"

	"mrdinner/internal/core/domain/model/kernel"
	"mrdinner/internal/pkg/errs"

	"github.com/shopspring/decimal"
)

var (
	// ErrOrderIsNotConstructed is returned when an Order instance was not created through
	// NewOrder or RestoreOrder.
	ErrOrderIsNotConstructed = errors.New("Order must be created via NewOrder constructor")
)

// Metadata keys owned by the order itself. Clients cannot write them.
const (
	MetaKeyStaffOps  = "staff_ops"
	MetaKeyDiscounts = "discounts"
)

// Order is the aggregate root of a guest order: its delivery and payment
// snapshots, the priced dinner packages, the discount breakdown, and the
// staff operations log that drives the lifecycle.
//
// Order follows these invariants:
//   - Money fields are non-negative minor units and total = subtotal - discount
//   - Subtotal always equals the sum of the current dinner packages
//   - Lines, header and metadata change only while the order is pending
//   - Status changes only through Execute, which appends to the audit log
//   - The ready flag is derived from the audit log, never stored
type Order struct {
	id         kernel.UUID
	customerID int64
	orderedAt  time.Time
	status     Status
	channel    Channel
	delivery   Delivery
	payment    Payment

	subtotalCents int64
	discountCents int64
	totalCents    int64
	discounts     []DiscountLine

	// auditLog is append-only and persisted under the staff_ops metadata key
	auditLog []AuditEntry

	// meta holds client metadata without the reserved keys
	meta map[string]any

	dinners []*Dinner

	isConstructed bool
}

// NewOrder creates a pending order with no lines.
//
// Parameters:
//   - id: Unique identifier for the order
//   - customerID: Owning customer, must be positive
//   - channel: Origin channel (GUI or VOICE)
//   - delivery: Delivery snapshot
//   - payment: Payment snapshot built with NewPayment
//   - meta: Client metadata, reserved keys are dropped
//   - orderedAt: Creation timestamp
//
// Example:
//
//	payment, _ := order.NewPayment("tok_123", "4242")
//	o, err := order.NewOrder(kernel.NewUUID(), 7, order.ChannelGUI, delivery, payment, nil, time.Now())
//	if err != nil {
//	    // Handle validation error
//	}
//
// Lines are attached with ReplaceLines and priced discounts with ApplyDiscounts.
func NewOrder(
	id kernel.UUID,
	customerID int64,
	channel Channel,
	delivery Delivery,
	payment Payment,
	meta map[string]any,
	orderedAt time.Time,
) (*Order, error) {
	o := &Order{
		status:        Pending,
		orderedAt:     orderedAt,
		delivery:      delivery,
		meta:          clientMeta(meta),
		isConstructed: true,
	}

	if err := errors.Join(
		o.setID(id),
		o.setCustomerID(customerID),
		o.setChannel(channel),
		o.setPayment(payment),
		validateDelivery(delivery),
	); err != nil {
		return nil, err
	}

	return o, nil
}

// State is the persisted form of an Order used by repositories.
type State struct {
	ID            kernel.UUID
	CustomerID    int64
	OrderedAt     time.Time
	Status        Status
	Channel       Channel
	Delivery      Delivery
	Payment       Payment
	SubtotalCents int64
	DiscountCents int64
	TotalCents    int64
	Discounts     []DiscountLine
	AuditLog      []AuditEntry
	Meta          map[string]any
	Dinners       []*Dinner
}

// RestoreOrder rebuilds an order read from storage. Stored values were
// validated when written, so only the identity is checked.
func RestoreOrder(s State) (*Order, error) {
	if err := s.ID.Validate(); err != nil {
		return nil, err
	}
	return &Order{
		id:            s.ID,
		customerID:    s.CustomerID,
		orderedAt:     s.OrderedAt,
		status:        s.Status,
		channel:       s.Channel,
		delivery:      s.Delivery,
		payment:       s.Payment,
		subtotalCents: s.SubtotalCents,
		discountCents: s.DiscountCents,
		totalCents:    s.TotalCents,
		discounts:     s.Discounts,
		auditLog:      s.AuditLog,
		meta:          clientMeta(s.Meta),
		dinners:       s.Dinners,
		isConstructed: true,
	}, nil
}

// Validate ensures the Order was built by NewOrder or RestoreOrder.
func (o *Order) Validate() error {
	if o == nil || !o.isConstructed {
		return ErrOrderIsNotConstructed
	}
	return nil
}

func (o *Order) ID() kernel.UUID {
	return o.id
}

func (o *Order) CustomerID() int64 {
	return o.customerID
}

func (o *Order) OrderedAt() time.Time {
	return o.orderedAt
}

func (o *Order) Status() Status {
	return o.status
}

func (o *Order) Channel() Channel {
	return o.channel
}

func (o *Order) Delivery() Delivery {
	return o.delivery
}

func (o *Order) Payment() Payment {
	return o.payment
}

func (o *Order) SubtotalCents() int64 {
	return o.subtotalCents
}

func (o *Order) DiscountCents() int64 {
	return o.discountCents
}

func (o *Order) TotalCents() int64 {
	return o.totalCents
}

func (o *Order) Discounts() []DiscountLine {
	return append([]DiscountLine(nil), o.discounts...)
}

func (o *Order) AuditLog() []AuditEntry {
	return append([]AuditEntry(nil), o.auditLog...)
}

// Meta returns a copy of the client metadata.
func (o *Order) Meta() map[string]any {
	return maps.Clone(o.meta)
}

func (o *Order) Dinners() []*Dinner {
	return append([]*Dinner(nil), o.dinners...)
}

// IsReady reports whether the kitchen marked the order ready. It scans the
// audit log every time so it cannot drift from it.
func (o *Order) IsReady() bool {
	return isReady(o.auditLog)
}

// EnsureEditable fails with a DomainConflictError unless the order is pending.
func (o *Order) EnsureEditable() error {
	if o.status != Pending {
		return errs.NewDomainConflictError("edit", o.status.String())
	}
	return nil
}

// ReplaceLines swaps the whole set of dinner packages and recomputes the
// subtotal from them. Previously applied discounts are cleared, so the caller
// re-evaluates them with ApplyDiscounts.
//
// Returns:
//   - DomainConflictError if the order is not pending
//   - ValueIsRequiredError if no package is given
func (o *Order) ReplaceLines(dinners []*Dinner) error {
	if err := o.EnsureEditable(); err != nil {
		return err
	}
	if len(dinners) == 0 {
		return errs.NewValueIsRequiredError("dinners")
	}

	var subtotal int64
	for _, d := range dinners {
		if d == nil {
			return errs.NewValueIsRequiredError("dinner")
		}
		subtotal += d.TotalCents()
	}

	o.dinners = append([]*Dinner(nil), dinners...)
	o.subtotalCents = subtotal
	o.discountCents = 0
	o.totalCents = subtotal
	o.discounts = nil
	return nil
}

// ApplyDiscounts replaces the discount breakdown. The sum of the lines may
// not exceed the subtotal, keeping the total non-negative.
func (o *Order) ApplyDiscounts(lines []DiscountLine) error {
	if err := o.EnsureEditable(); err != nil {
		return err
	}

	var total int64
	for i, l := range lines {
		if l.AmountCents < 0 {
			return errs.NewValueIsInvalidErrorWithCause(fmt.Sprintf("discounts[%d].amount_cents", i),
				fmt.Errorf("%d is negative", l.AmountCents))
		}
		total += l.AmountCents
	}
	if total > o.subtotalCents {
		return errs.NewValueIsOutOfRangeError("discount_cents", total, 0, o.subtotalCents)
	}

	o.discounts = append([]DiscountLine(nil), lines...)
	o.discountCents = total
	o.totalCents = o.subtotalCents - total
	return nil
}

// Field is one optional field of a partial update. Set distinguishes an
// absent key from an explicit empty value.
type Field[T any] struct {
	Set   bool
	Value T
}

// SetTo marks a field present with value v.
func SetTo[T any](v T) Field[T] {
	return Field[T]{Set: true, Value: v}
}

// HeaderPatch is a partial update of the delivery and payment snapshots.
type HeaderPatch struct {
	ReceiverName  Field[string]
	ReceiverPhone Field[string]
	Address       Field[string]
	GeoLat        Field[*decimal.Decimal]
	GeoLng        Field[*decimal.Decimal]
	PlaceLabel    Field[string]
	AddressMeta   Field[map[string]any]
	PaymentToken  Field[string]
	CardLast4     Field[string]
}

// UpdateHeader applies the present fields of p. Coordinates are combined with
// the current ones, so patching one coordinate keeps the other.
func (o *Order) UpdateHeader(p HeaderPatch) error {
	if err := o.EnsureEditable(); err != nil {
		return err
	}

	d := o.delivery
	if p.ReceiverName.Set {
		d.ReceiverName = p.ReceiverName.Value
	}
	if p.ReceiverPhone.Set {
		d.ReceiverPhone = p.ReceiverPhone.Value
	}
	if p.Address.Set {
		d.Address = p.Address.Value
	}
	if p.PlaceLabel.Set {
		d.PlaceLabel = p.PlaceLabel.Value
	}
	if p.AddressMeta.Set {
		d.AddressMeta = p.AddressMeta.Value
	}
	if p.GeoLat.Set || p.GeoLng.Set {
		var lat, lng *decimal.Decimal
		if d.Geo != nil {
			curLat, curLng := d.Geo.Lat(), d.Geo.Lng()
			lat, lng = &curLat, &curLng
		}
		if p.GeoLat.Set {
			lat = p.GeoLat.Value
		}
		if p.GeoLng.Set {
			lng = p.GeoLng.Value
		}
		geo, err := kernel.NewOptionalGeoPoint(lat, lng)
		if err != nil {
			return err
		}
		d.Geo = geo
	}

	token, last4 := o.payment.Token(), o.payment.CardLast4()
	if p.PaymentToken.Set {
		token = p.PaymentToken.Value
	}
	if p.CardLast4.Set {
		last4 = p.CardLast4.Value
	}
	payment, err := NewPayment(token, last4)
	if err != nil {
		return err
	}

	o.delivery = d
	o.payment = payment
	return nil
}

// MergeMeta shallow-merges client metadata over the current one.
func (o *Order) MergeMeta(meta map[string]any) error {
	if err := o.EnsureEditable(); err != nil {
		return err
	}
	merged := maps.Clone(o.meta)
	if merged == nil {
		merged = map[string]any{}
	}
	maps.Copy(merged, clientMeta(meta))
	o.meta = merged
	return nil
}

// Execute performs a staff action. It validates the transition, appends an
// audit entry and moves the status. MarkReady only appends the entry.
//
// Parameters:
//   - action: The lifecycle action
//   - actor: Who performed it, required
//   - note: Optional free text such as a cancel reason
//   - at: When it happened
//
// Returns:
//   - The status before the action
//   - DomainConflictError if the transition is not in the table
//
// Example:
//
//	prev, err := o.Execute(order.Accept, "kitchen-1", "", time.Now())
//	// prev == order.Pending, o.Status() == order.Preparing
func (o *Order) Execute(action Action, actor, note string, at time.Time) (Status, error) {
	if actor == "" {
		return o.status, errs.NewValueIsRequiredError("actor")
	}

	prev := o.status
	next, err := o.status.Apply(action)
	if err != nil {
		return prev, err
	}

	o.auditLog = append(o.auditLog, AuditEntry{
		Event:     action.String(),
		Actor:     actor,
		Timestamp: at,
		Note:      note,
	})
	o.status = next
	return prev, nil
}

func (o *Order) setID(id kernel.UUID) error {
	if err := id.Validate(); err != nil {
		return err
	}
	o.id = id
	return nil
}

func (o *Order) setCustomerID(customerID int64) error {
	if customerID <= 0 {
		return errs.NewValueIsInvalidErrorWithCause("customer_id", fmt.Errorf("%d is not greater than 0", customerID))
	}
	o.customerID = customerID
	return nil
}

func (o *Order) setChannel(channel Channel) error {
	if channel != ChannelGUI && channel != ChannelVoice {
		return errs.NewValueIsInvalidErrorWithCause("order_source", fmt.Errorf("%d is not a valid channel", channel))
	}
	o.channel = channel
	return nil
}

func (o *Order) setPayment(payment Payment) error {
	if err := payment.Validate(); err != nil {
		return err
	}
	o.payment = payment
	return nil
}

func validateDelivery(d Delivery) error {
	if d.Geo != nil {
		return d.Geo.Validate()
	}
	return nil
}

func clientMeta(meta map[string]any) map[string]any {
	if meta == nil {
		return nil
	}
	out := maps.Clone(meta)
	delete(out, MetaKeyStaffOps)
	delete(out, MetaKeyDiscounts)
	return out
}
