package order

import (
	"fmt"
	"regexp"

	"mrdinner/internal/core/domain/model/kernel"
	"mrdinner/internal/pkg/errs"
	"mrdinner/internal/pkg/guard"
)

// Delivery is the delivery snapshot copied onto the order.
type Delivery struct {
	ReceiverName  string
	ReceiverPhone string
	Address       string
	Geo           *kernel.GeoPoint
	PlaceLabel    string
	AddressMeta   map[string]any
}

var cardLast4Pattern = regexp.MustCompile(`^[0-9]{4}$`)

// ErrPaymentIsNotConstructed is returned for a zero value Payment.
var ErrPaymentIsNotConstructed = errs.NewValueIsRequiredError("payment must be created via NewPayment")

// Payment holds an opaque payment token and the masked card suffix. It never
// carries a card number.
type Payment struct {
	token     string
	cardLast4 string
	guard     guard.ConstructorGuard
}

// NewPayment accepts an empty suffix or exactly four digits.
func NewPayment(token, cardLast4 string) (Payment, error) {
	if cardLast4 != "" && !cardLast4Pattern.MatchString(cardLast4) {
		return Payment{}, errs.NewValueIsInvalidErrorWithCause("card_last4",
			fmt.Errorf("expected 4 digits, got %d characters", len(cardLast4)))
	}
	return Payment{token: token, cardLast4: cardLast4, guard: guard.NewConstructorGuard()}, nil
}

func (p Payment) Validate() error {
	return p.guard.Validate(ErrPaymentIsNotConstructed)
}

func (p Payment) Token() string {
	return p.token
}

func (p Payment) CardLast4() string {
	return p.cardLast4
}

// Channel is the origin of an order.
type Channel int

const (
	UnknownChannel Channel = iota
	ChannelGUI
	ChannelVoice
)

func (c Channel) String() string {
	switch c {
	case ChannelGUI:
		return "GUI"
	case ChannelVoice:
		return "VOICE"
	case UnknownChannel:
	}
	return "UNKNOWN"
}

// ParseChannel defaults to GUI for an empty value.
func ParseChannel(s string) (Channel, error) {
	switch s {
	case "", "GUI", "gui":
		return ChannelGUI, nil
	case "VOICE", "voice":
		return ChannelVoice, nil
	}
	return UnknownChannel, errs.NewValueIsInvalidErrorWithCause("order_source", fmt.Errorf("unknown channel %q", s))
}

// DiscountLine is one applied discount, kept in the order's discount breakdown.
type DiscountLine struct {
	Type        string
	Label       string
	Code        string
	AmountCents int64
}

const (
	DiscountTypeMembership = "membership"
	DiscountTypeCoupon     = "coupon"
)

// CouponCodes lists the codes of coupon discount lines in order.
func CouponCodes(lines []DiscountLine) []string {
	var codes []string
	for _, l := range lines {
		if l.Type == DiscountTypeCoupon && l.Code != "" {
			codes = append(codes, l.Code)
		}
	}
	return codes
}
