package kernel

import (
	"errors"
	"fmt"

	"mrdinner/internal/pkg/errs"
	"mrdinner/internal/pkg/guard"

	"github.com/shopspring/decimal"
)

var (
	latitudeMin  = decimal.NewFromInt(-90)
	latitudeMax  = decimal.NewFromInt(90)
	longitudeMin = decimal.NewFromInt(-180)
	longitudeMax = decimal.NewFromInt(180)
)

// ErrGeoPointIsNotConstructed is returned when a zero value GeoPoint is used.
var ErrGeoPointIsNotConstructed = errs.NewValueIsRequiredError("geo point must be created via NewGeoPoint")

// GeoPoint is the delivery coordinate captured on the order's delivery snapshot.
// Latitude lies in [-90, 90] and longitude in [-180, 180].
type GeoPoint struct { //nolint:recvcheck //using for validation
	lat   decimal.Decimal
	lng   decimal.Decimal
	guard guard.ConstructorGuard
}

// NewGeoPoint validates both coordinates and reports every violation at once.
func NewGeoPoint(lat, lng decimal.Decimal) (GeoPoint, error) {
	p := GeoPoint{guard: guard.NewConstructorGuard()}
	if err := errors.Join(p.setLat(lat), p.setLng(lng)); err != nil {
		return GeoPoint{}, err
	}
	return p, nil
}

// NewOptionalGeoPoint builds a point when both coordinates are present and
// returns nil when both are absent. A single coordinate is rejected.
func NewOptionalGeoPoint(lat, lng *decimal.Decimal) (*GeoPoint, error) {
	switch {
	case lat == nil && lng == nil:
		return nil, nil
	case lat == nil:
		return nil, errs.NewValueIsRequiredErrorWithCause("geo_lat", errors.New("geo_lng given without geo_lat"))
	case lng == nil:
		return nil, errs.NewValueIsRequiredErrorWithCause("geo_lng", errors.New("geo_lat given without geo_lng"))
	}
	p, err := NewGeoPoint(*lat, *lng)
	if err != nil {
		return nil, err
	}
	return &p, nil
}

func (p GeoPoint) Validate() error {
	return p.guard.Validate(ErrGeoPointIsNotConstructed)
}

func (p GeoPoint) Lat() decimal.Decimal {
	return p.lat
}

func (p GeoPoint) Lng() decimal.Decimal {
	return p.lng
}

func (p GeoPoint) String() string {
	return fmt.Sprintf("GeoPoint(%s,%s)", p.lat.String(), p.lng.String())
}

func (p *GeoPoint) setLat(lat decimal.Decimal) error {
	if lat.LessThan(latitudeMin) || lat.GreaterThan(latitudeMax) {
		return errs.NewValueIsOutOfRangeError("geo_lat", lat, latitudeMin, latitudeMax)
	}
	p.lat = lat
	return nil
}

func (p *GeoPoint) setLng(lng decimal.Decimal) error {
	if lng.LessThan(longitudeMin) || lng.GreaterThan(longitudeMax) {
		return errs.NewValueIsOutOfRangeError("geo_lng", lng, longitudeMin, longitudeMax)
	}
	p.lng = lng
	return nil
}
