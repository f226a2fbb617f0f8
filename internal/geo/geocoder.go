// Package geo resolves the free-text address a user registers with into
// a structured location. Only the resolved location is stored; the raw
// address is discarded after the lookup.
package geo

import (
	"context"

	"github.com/mfaisal/fittrack/internal/model"
)

// Geocoder turns a postal address into coordinates and address parts.
type Geocoder interface {
	Geocode(ctx context.Context, address string) (model.Location, error)
}

// StaticGeocoder echoes the address back as the formatted form with zero
// coordinates. It stands in for a real provider in development and
// tests; a provider-backed implementation slots in behind the same
// interface.
type StaticGeocoder struct{}

func NewStaticGeocoder() *StaticGeocoder {
	return &StaticGeocoder{}
}

func (g *StaticGeocoder) Geocode(ctx context.Context, address string) (model.Location, error) {
	return model.Location{FormattedAddress: address}, nil
}
