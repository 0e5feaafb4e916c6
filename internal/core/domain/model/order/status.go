package order

import (
	"fmt"
	"strings"

	"mrdinner/internal/pkg/errs"
)

// Status is the lifecycle state of an order.
//
// The lifecycle is pending -> preparing -> out_for_delivery -> delivered.
// Any state before delivered may be canceled. Delivered and canceled are final.
type Status int

const (
	// Unknown represents an invalid or undefined status.
	// This value (0) helps catch uninitialized Status values.
	Unknown Status = iota

	// Pending is the initial status. Only pending orders may be edited.
	Pending

	// Preparing means the kitchen accepted the order.
	Preparing

	// OutForDelivery means a rider has left with the order.
	OutForDelivery

	// Delivered is final.
	Delivered

	// Canceled is final.
	Canceled
)

func getStatusStrings() map[Status]string {
	return map[Status]string{
		Unknown:        "unknown",
		Pending:        "pending",
		Preparing:      "preparing",
		OutForDelivery: "out_for_delivery",
		Delivered:      "delivered",
		Canceled:       "canceled",
	}
}

// Statuses lists every valid status in lifecycle order.
func Statuses() []Status {
	return []Status{Pending, Preparing, OutForDelivery, Delivered, Canceled}
}

func (s Status) Validate() error {
	if s < Pending || s > Canceled {
		return errs.NewValueIsInvalidErrorWithCause("status", fmt.Errorf("%d is not a valid status", s))
	}
	return nil
}

func (s Status) String() string {
	if str, ok := getStatusStrings()[s]; ok {
		return str
	}
	return "unknown"
}

// IsFinal reports whether no action can leave this status.
func (s Status) IsFinal() bool {
	return s == Delivered || s == Canceled
}

// ParseStatus reads the wire name of a status.
func ParseStatus(s string) (Status, error) {
	name := strings.ToLower(strings.TrimSpace(s))
	for _, st := range Statuses() {
		if st.String() == name {
			return st, nil
		}
	}
	return Unknown, errs.NewValueIsInvalidErrorWithCause("status", fmt.Errorf("unknown status %q", s))
}

// Action is a named lifecycle operation performed by staff.
type Action int

const (
	UnknownAction Action = iota
	Accept
	MarkReady
	Dispatch
	Deliver
	Cancel
)

// String returns the audit event name recorded for the action.
func (a Action) String() string {
	switch a {
	case Accept:
		return "accept"
	case MarkReady:
		return "mark_ready"
	case Dispatch:
		return "out_for_delivery"
	case Deliver:
		return "deliver"
	case Cancel:
		return "cancel"
	case UnknownAction:
	}
	return "unknown"
}

var actionAliases = map[string]Action{
	"accept":           Accept,
	"mark-ready":       MarkReady,
	"mark_ready":       MarkReady,
	"ready":            MarkReady,
	"out-for-delivery": Dispatch,
	"out_for_delivery": Dispatch,
	"dispatch":         Dispatch,
	"out":              Dispatch,
	"deliver":          Deliver,
	"delivered":        Deliver,
	"cancel":           Cancel,
}

// ParseAction accepts the canonical action names and their aliases.
func ParseAction(s string) (Action, error) {
	if a, ok := actionAliases[strings.ToLower(strings.TrimSpace(s))]; ok {
		return a, nil
	}
	return UnknownAction, errs.NewValueIsInvalidErrorWithCause("action", fmt.Errorf("unsupported action %q", s))
}

var transitions = map[Status]map[Action]Status{
	Pending: {
		Accept: Preparing,
		Cancel: Canceled,
	},
	Preparing: {
		MarkReady: Preparing,
		Dispatch:  OutForDelivery,
		Cancel:    Canceled,
	},
	OutForDelivery: {
		Deliver: Delivered,
		Cancel:  Canceled,
	},
}

// Apply returns the status reached by performing a from s. Combinations
// outside the transition table yield a DomainConflictError.
func (s Status) Apply(a Action) (Status, error) {
	next, ok := transitions[s][a]
	if !ok {
		return s, errs.NewDomainConflictError(a.String(), s.String())
	}
	return next, nil
}
