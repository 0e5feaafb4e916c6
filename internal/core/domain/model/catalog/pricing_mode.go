package catalog

import (
	"fmt"
	"strings"

	"mrdinner/internal/pkg/errs"
)

// PricingMode decides how an option or serving style changes a price.
type PricingMode int

const (
	// UnknownPricingMode catches uninitialised values.
	UnknownPricingMode PricingMode = iota

	// Addon adds a flat amount of minor units.
	Addon

	// Multiplier scales the running price by a factor.
	Multiplier
)

func (m PricingMode) String() string {
	switch m {
	case Addon:
		return "addon"
	case Multiplier:
		return "multiplier"
	case UnknownPricingMode:
	}
	return "unknown"
}

func (m PricingMode) Validate() error {
	if m != Addon && m != Multiplier {
		return errs.NewValueIsInvalidErrorWithCause("price_mode", fmt.Errorf("%d is not a valid pricing mode", m))
	}
	return nil
}

// ParsePricingMode accepts the mode names in any letter case.
func ParsePricingMode(s string) (PricingMode, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "addon":
		return Addon, nil
	case "multiplier":
		return Multiplier, nil
	}
	return UnknownPricingMode, errs.NewValueIsInvalidErrorWithCause("price_mode", fmt.Errorf("unknown pricing mode %q", s))
}
