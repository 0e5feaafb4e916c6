// Package catalog holds the read-only catalog view consumed by pricing:
// dinner types with their allowed serving styles and default items, menu items
// with option groups, and dinner-level option groups. Each option group and
// serving style prices in one of two modes, Addon or Multiplier.
//
// Catalog values are never mutated by the order core. Lines priced from them
// are copied into order snapshots so later catalog edits do not alter orders.
package catalog
