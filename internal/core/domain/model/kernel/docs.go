// Package kernel provides the shared value objects of the order domain:
//   - UUID: identifiers for orders and their line rows
//   - GeoPoint: validated delivery coordinates
//   - RoundCents and friends: half-up rounding of decimal amounts to minor units
package kernel
