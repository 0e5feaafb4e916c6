// Package services provides the pure domain services of the order core.
//
// The package includes:
//   - PricingEngine: prices normalised dinner packages against catalog data
//   - DiscountPolicy: applies membership and coupon discounts to a subtotal
//
// Neither service performs I/O. Callers resolve catalog and promotion data
// first and pass it in.
package services
