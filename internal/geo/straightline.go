package geo

import (
	"context"
	"fmt"
	"math"

	"github.com/maroonxv/travel-sharing/internal/domain"
)

// detourFactor scales great-circle distance to an approximate street distance.
const detourFactor = 1.3

// Average speeds in meters per second, by mode.
var straightLineSpeeds = map[domain.TransportMode]float64{
	domain.ModeWalking: 5.0 / 3.6,
	domain.ModeCycling: 15.0 / 3.6,
	domain.ModeTransit: 25.0 / 3.6,
	domain.ModeDriving: 40.0 / 3.6,
	domain.ModeTaxi:    40.0 / 3.6,
}

// StraightLine estimates routes from coordinates alone. It is used when no
// routing API is configured and cannot geocode.
type StraightLine struct{}

var _ Provider = StraightLine{}

func (StraightLine) Geocode(_ context.Context, address string) (domain.Location, error) {
	return domain.Location{}, fmt.Errorf("%w: no geocoder configured for %q", domain.ErrNotFound, address)
}

func (StraightLine) CalculateDistance(_ context.Context, origin, destination domain.Location) (float64, error) {
	return straightLine(origin, destination)
}

func (StraightLine) GetRoute(_ context.Context, origin, destination domain.Location, mode domain.TransportMode) (domain.RouteInfo, error) {
	d, err := straightLine(origin, destination)
	if err != nil {
		return domain.RouteInfo{}, err
	}
	speed, ok := straightLineSpeeds[mode]
	if !ok {
		speed = straightLineSpeeds[domain.ModeDriving]
	}
	meters := d * detourFactor
	return domain.NewRouteInfo(math.Round(meters), int(math.Ceil(meters/speed)), "")
}

func straightLine(origin, destination domain.Location) (float64, error) {
	if !origin.HasCoordinates() || !destination.HasCoordinates() {
		return 0, fmt.Errorf("%w: distance needs coordinates", domain.ErrValidation)
	}
	return domain.HaversineMeters(*origin.Coordinates, *destination.Coordinates), nil
}
