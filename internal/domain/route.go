package domain

import (
	"fmt"
	"math"

	"github.com/shopspring/decimal"
)

// RouteInfo is the distance and travel time of one leg as reported by a
// routing provider. Polyline is an optional encoded path.
type RouteInfo struct {
	DistanceMeters  float64
	DurationSeconds int
	Polyline        string
}

// NewRouteInfo rejects negative metrics.
func NewRouteInfo(distanceMeters float64, durationSeconds int, polyline string) (RouteInfo, error) {
	if distanceMeters < 0 || math.IsNaN(distanceMeters) || durationSeconds < 0 {
		return RouteInfo{}, fmt.Errorf("%w: route metrics must not be negative", ErrValidation)
	}
	return RouteInfo{DistanceMeters: distanceMeters, DurationSeconds: durationSeconds, Polyline: polyline}, nil
}

func (r RouteInfo) DistanceKm() float64 { return r.DistanceMeters / 1000 }

// DurationMinutes truncates to whole minutes.
func (r RouteInfo) DurationMinutes() int { return r.DurationSeconds / 60 }

// IsEmpty reports a route with no distance and no duration, which providers
// return when they could not route at all.
func (r RouteInfo) IsEmpty() bool { return r.DistanceMeters == 0 && r.DurationSeconds == 0 }

// Tariff constants for EstimateTransitCost.
var (
	cyclingFlatFare    = decimal.RequireFromString("1.5")
	transitBaseFare    = decimal.NewFromInt(2)
	transitStepFare    = decimal.NewFromInt(1)
	drivingPerKm       = decimal.RequireFromString("0.8")
	taxiBaseFare       = decimal.NewFromInt(13)
	taxiPerKm          = decimal.RequireFromString("2.3")
	transitBaseKm      = 5.0
	transitStepKm      = 5.0
	taxiBaseKm         = 3.0
	costRoundingPlaces = int32(2)
)

// EstimateTransitCost prices a leg by mode and distance. Every mode is
// non-decreasing in distance; walking is always free.
func EstimateTransitCost(mode TransportMode, distanceMeters float64, currency string) Money {
	km := distanceMeters / 1000
	if km <= 0 {
		return ZeroMoney(normalizeCurrency(currency))
	}
	var amount decimal.Decimal
	switch mode {
	case ModeWalking:
		amount = decimal.Zero
	case ModeCycling:
		amount = cyclingFlatFare
	case ModeTransit:
		amount = transitBaseFare
		if km > transitBaseKm {
			steps := math.Ceil((km - transitBaseKm) / transitStepKm)
			amount = amount.Add(transitStepFare.Mul(decimal.NewFromFloat(steps)))
		}
	case ModeDriving:
		amount = drivingPerKm.Mul(decimal.NewFromFloat(km))
	case ModeTaxi:
		amount = taxiBaseFare
		if km > taxiBaseKm {
			amount = amount.Add(taxiPerKm.Mul(decimal.NewFromFloat(km - taxiBaseKm)))
		}
	default:
		amount = decimal.Zero
	}
	return Money{amount: amount.Round(costRoundingPlaces), currency: normalizeCurrency(currency)}
}

func normalizeCurrency(c string) string {
	if c == "" {
		return DefaultCurrency
	}
	m, err := NewMoney(decimal.Zero, c)
	if err != nil {
		return DefaultCurrency
	}
	return m.currency
}
