// Package selection turns the order payload shapes accepted at the API boundary
// into one canonical list of dinner packages.
//
// Three shapes are accepted, checked in this priority:
//   - "orders": a list of {dinner, items} packages
//   - "dinners": a list of dinners, top-level "items" attach to the first one
//   - "dinner": a single dinner, top-level "items" attach to it
//
// Pricing only ever sees the normalised []DinnerPack.
package selection
