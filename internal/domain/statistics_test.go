package domain_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/maroonxv/travel-sharing/internal/domain"
)

func TestTrip_GenerateStatistics(t *testing.T) {
	trip := newTrip(t, 2, nil)
	ctx := context.Background()
	tower := domain.Location{Name: "Tower"}.WithCoordinates(domain.Coordinates{Lat: 1, Lng: 1})

	mk := func(name string, loc domain.Location, start, end domain.TimeOfDay, cost string) domain.Activity {
		a, err := domain.NewActivity(name, domain.ActivitySightseeing, loc, start, end, domain.MustMoney(cost, "USD"), "")
		require.NoError(t, err)
		return a
	}
	planner := &fakePlanner{}
	_, err := trip.AddActivity(ctx, 0, mk("Tower AM", tower, domain.Clock(9, 0), domain.Clock(10, 0), "10"), planner)
	require.NoError(t, err)
	_, err = trip.AddActivity(ctx, 0, mk("Park", domain.Location{Name: "Park"}, domain.Clock(11, 0), domain.Clock(12, 30), "0"), planner)
	require.NoError(t, err)
	_, err = trip.AddActivity(ctx, 1, mk("Tower PM", tower, domain.Clock(15, 0), domain.Clock(16, 0), "12.5"), planner)
	require.NoError(t, err)

	stats, err := trip.GenerateStatistics()
	require.NoError(t, err)

	assert.Equal(t, 3, stats.ActivityCount)
	assert.Equal(t, 210, stats.TotalPlayTimeMinutes)
	assert.InDelta(t, 1000, stats.TotalDistanceMeters, 0.001)
	assert.Equal(t, 10, stats.TotalTransitTimeMinutes)
	assert.True(t, stats.ActivityCost.Equal(domain.MustMoney("22.5", "USD")), "got %s", stats.ActivityCost)
	assert.True(t, stats.TotalCost.Equal(domain.MustMoney("22.5", "USD")), "walking legs are free")
	assert.Len(t, stats.VisitedLocations, 3)
	assert.Len(t, stats.UniqueLocations(), 2)
	assert.Equal(t, 2, stats.LocationCount())
	assert.InDelta(t, 1.0, stats.TotalDistanceKm(), 0.0001)
	assert.Equal(t, 220*time.Minute, stats.TotalTime())
}

func TestTrip_GenerateStatistics_CurrencyMismatch(t *testing.T) {
	trip := newTrip(t, 1, nil)
	ctx := context.Background()
	for i, cur := range []string{"USD", "EUR"} {
		a, err := domain.NewActivity("A", domain.ActivityOther, domain.Location{Name: "Somewhere"},
			domain.Clock(9+i*2, 0), domain.Clock(10+i*2, 0), domain.MustMoney("5", cur), "")
		require.NoError(t, err)
		_, err = trip.AddActivity(ctx, 0, a, nil)
		require.NoError(t, err)
	}

	_, err := trip.GenerateStatistics()
	assert.ErrorIs(t, err, domain.ErrCurrencyMismatch)
}
