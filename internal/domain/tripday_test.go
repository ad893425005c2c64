package domain_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/maroonxv/travel-sharing/internal/domain"
)

func newDay() *domain.TripDay {
	return domain.NewTripDay(1, time.Date(2024, 3, 10, 0, 0, 0, 0, time.UTC))
}

func TestTripDay_NeighbourLookup(t *testing.T) {
	day := newDay()
	a := activity(t, "A", domain.Clock(9, 0), domain.Clock(10, 0))
	b := activity(t, "B", domain.Clock(11, 0), domain.Clock(12, 0))
	day.AddActivity(b)
	day.AddActivity(a)

	prev, ok := day.PreviousActivity(b.ID)
	require.True(t, ok)
	assert.Equal(t, a.ID, prev.ID)

	_, ok = day.PreviousActivity(a.ID)
	assert.False(t, ok)

	next, ok := day.NextActivity(a.ID)
	require.True(t, ok)
	assert.Equal(t, b.ID, next.ID)

	_, ok = day.NextActivity(b.ID)
	assert.False(t, ok)
}

func TestTripDay_AddTransitReplacesSamePair(t *testing.T) {
	day := newDay()
	a := activity(t, "A", domain.Clock(9, 0), domain.Clock(10, 0))
	b := activity(t, "B", domain.Clock(11, 0), domain.Clock(12, 0))
	day.AddActivity(a)
	day.AddActivity(b)

	day.AddTransit(domain.NewTransitBetween(a, b, domain.ModeWalking, domain.RouteInfo{DistanceMeters: 500, DurationSeconds: 400}, "CNY"))
	day.AddTransit(domain.NewTransitBetween(a, b, domain.ModeTaxi, domain.RouteInfo{DistanceMeters: 4000, DurationSeconds: 600}, "CNY"))

	transits := day.Transits()
	require.Len(t, transits, 1)
	assert.Equal(t, domain.ModeTaxi, transits[0].Mode)
}

func TestTripDay_RemoveActivityDropsReferencingTransits(t *testing.T) {
	day := newDay()
	a := activity(t, "A", domain.Clock(9, 0), domain.Clock(10, 0))
	b := activity(t, "B", domain.Clock(11, 0), domain.Clock(12, 0))
	c := activity(t, "C", domain.Clock(13, 0), domain.Clock(14, 0))
	for _, x := range []domain.Activity{a, b, c} {
		day.AddActivity(x)
	}
	route := domain.RouteInfo{DistanceMeters: 100, DurationSeconds: 60}
	day.AddTransit(domain.NewTransitBetween(a, b, domain.ModeWalking, route, "CNY"))
	day.AddTransit(domain.NewTransitBetween(b, c, domain.ModeWalking, route, "CNY"))

	assert.True(t, day.RemoveActivity(b.ID))
	assert.False(t, day.RemoveActivity(b.ID))
	assert.Empty(t, day.Transits())
}

func TestTripDay_RemoveTransitBetween(t *testing.T) {
	day := newDay()
	a := activity(t, "A", domain.Clock(9, 0), domain.Clock(10, 0))
	b := activity(t, "B", domain.Clock(11, 0), domain.Clock(12, 0))
	day.AddTransit(domain.NewTransitBetween(a, b, domain.ModeWalking, domain.RouteInfo{}, "CNY"))

	assert.False(t, day.RemoveTransitBetween(b.ID, a.ID))
	assert.True(t, day.RemoveTransitBetween(a.ID, b.ID))
	assert.Empty(t, day.Transits())
}

func TestTripDay_Totals(t *testing.T) {
	day := newDay()
	a, err := domain.NewActivity("Museum", domain.ActivitySightseeing, domain.Location{Name: "Museum"},
		domain.Clock(9, 0), domain.Clock(11, 30), domain.MustMoney("20", "CNY"), "")
	require.NoError(t, err)
	b, err := domain.NewActivity("Lunch", domain.ActivityDining, domain.Location{Name: "Cafe"},
		domain.Clock(12, 0), domain.Clock(13, 0), domain.MustMoney("45.50", "CNY"), "")
	require.NoError(t, err)
	day.AddActivity(a)
	day.AddActivity(b)
	day.AddTransit(domain.NewTransitBetween(a, b, domain.ModeDriving, domain.RouteInfo{DistanceMeters: 10000, DurationSeconds: 1500}, "CNY"))

	assert.Equal(t, 210, day.TotalPlayTime())
	assert.InDelta(t, 10000, day.TotalTransitDistance(), 0.001)
	assert.Equal(t, 25, day.TotalTransitTime())

	ac, err := day.ActivityCost()
	require.NoError(t, err)
	assert.True(t, ac.Equal(domain.MustMoney("65.5", "CNY")))

	total, err := day.TotalCost()
	require.NoError(t, err)
	assert.True(t, total.Equal(domain.MustMoney("73.5", "CNY")), "got %s", total)
}

func TestTripDay_EmptyCostsAreZero(t *testing.T) {
	total, err := newDay().TotalCost()
	require.NoError(t, err)
	assert.True(t, total.IsZero())
}

func TestTransit_ArrivalWrapsButConflictDoesNot(t *testing.T) {
	a := activity(t, "Late", domain.Clock(23, 0), domain.Clock(23, 30))
	b := activity(t, "Early", domain.Clock(23, 45), domain.Clock(23, 50))
	tr := domain.NewTransitBetween(a, b, domain.ModeDriving, domain.RouteInfo{DistanceMeters: 30000, DurationSeconds: 3600}, "CNY")

	assert.Equal(t, domain.Clock(0, 30), tr.ArrivalTime)
	assert.True(t, tr.ArrivesAfter(b.StartTime))
}

func TestTransit_UpdateRepricesAndReschedules(t *testing.T) {
	a := activity(t, "A", domain.Clock(9, 0), domain.Clock(10, 0))
	b := activity(t, "B", domain.Clock(11, 0), domain.Clock(12, 0))
	tr := domain.NewTransitBetween(a, b, domain.ModeWalking, domain.RouteInfo{DistanceMeters: 10000, DurationSeconds: 7200}, "CNY")
	assert.True(t, tr.Cost.IsZero())

	mode := domain.ModeDriving
	route := domain.RouteInfo{DistanceMeters: 10000, DurationSeconds: 900}
	tr.Update(domain.TransitPatch{Mode: &mode, Route: &route})

	assert.Equal(t, domain.Clock(10, 15), tr.ArrivalTime)
	assert.True(t, tr.Cost.Equal(domain.MustMoney("8", "CNY")))
}

func TestActivity_Update(t *testing.T) {
	a := activity(t, "A", domain.Clock(9, 0), domain.Clock(10, 0))
	id := a.ID

	end := domain.Clock(8, 0)
	require.ErrorIs(t, a.Update(domain.ActivityPatch{EndTime: &end}), domain.ErrValidation)
	assert.Equal(t, domain.Clock(10, 0), a.EndTime)

	name := "Renamed"
	require.NoError(t, a.Update(domain.ActivityPatch{Name: &name}))
	assert.Equal(t, "Renamed", a.Name)
	assert.Equal(t, id, a.ID)
}
