package repo_test

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/maroonxv/travel-sharing/internal/domain"
	"github.com/maroonxv/travel-sharing/internal/repo"
	"github.com/maroonxv/travel-sharing/testutil"
)

// newTestRepo opens a transaction against the test database and returns a
// TripRepo backed by that transaction. The transaction is automatically rolled
// back when the test finishes, giving free per-test isolation.
func newTestRepo(t *testing.T) repo.TripRepo {
	t.Helper()
	pool := testutil.NewPool(t)

	tx, err := pool.Begin(context.Background())
	require.NoError(t, err, "begin transaction")

	t.Cleanup(func() {
		_ = tx.Rollback(context.Background())
	})

	return repo.NewTripRepo(tx)
}

// tripFixture returns a three-day trip with a budget.
func tripFixture(t *testing.T, creator string) *domain.Trip {
	t.Helper()
	name, err := domain.NewTripName("Summer in Kyoto")
	require.NoError(t, err)
	dates, err := domain.NewDateRange(
		time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC),
		time.Date(2025, 6, 3, 0, 0, 0, 0, time.UTC),
	)
	require.NoError(t, err)
	budget := domain.MustMoney("1500.00", "USD")
	trip, err := domain.CreateTrip(name, "temples and food", creator, dates, &budget, domain.VisibilityPrivate)
	require.NoError(t, err)
	trip.PopEvents()
	return trip
}

func activityAt(t *testing.T, name string, lat, lng float64, start, end domain.TimeOfDay) domain.Activity {
	t.Helper()
	loc, err := domain.NewLocation(name, &lat, &lng, name+" address")
	require.NoError(t, err)
	a, err := domain.NewActivity(name, domain.ActivitySightseeing, loc, start, end, domain.MustMoney("12.50", "USD"), "")
	require.NoError(t, err)
	return a
}

// planner returns a fixed 900 m walking leg.
type planner struct{}

func (planner) CalculateTransitBetween(_ context.Context, from, to domain.Activity) (domain.Transit, error) {
	route := domain.RouteInfo{DistanceMeters: 900, DurationSeconds: 720, Polyline: "abc"}
	return domain.NewTransitBetween(from, to, domain.ModeWalking, route, "USD"), nil
}

func (planner) ValidateFeasibility([]domain.Activity, []domain.Transit) []domain.ItineraryWarning {
	return nil
}

func (p planner) CalculateTransitsBetween(ctx context.Context, acts []domain.Activity) domain.TransitCalculationResult {
	var res domain.TransitCalculationResult
	for i := 1; i < len(acts); i++ {
		tr, _ := p.CalculateTransitBetween(ctx, acts[i-1], acts[i])
		res.AddTransit(tr)
	}
	return res
}

var _ domain.ItineraryPlanner = planner{}

func TestTripRepo_SaveAndFindByID_RoundTrip(t *testing.T) {
	r := newTestRepo(t)
	ctx := context.Background()
	trip := tripFixture(t, "u-1")
	require.NoError(t, trip.AddMember("u-2", domain.RoleMember, "u-1", "Ken"))
	_, err := trip.AddActivity(ctx, 0, activityAt(t, "Kinkaku-ji", 35.0394, 135.7292, domain.Clock(9, 0), domain.Clock(10, 30)), planner{})
	require.NoError(t, err)
	_, err = trip.AddActivity(ctx, 0, activityAt(t, "Ryoan-ji", 35.0345, 135.7182, domain.Clock(11, 0), domain.Clock(12, 0)), planner{})
	require.NoError(t, err)
	require.NoError(t, trip.UpdateDayTheme(0, "Northwest temples"))

	require.NoError(t, r.Save(ctx, trip))
	assert.Equal(t, 1, trip.Version())

	got, err := r.FindByID(ctx, trip.ID())
	require.NoError(t, err)

	assert.Equal(t, trip.Name(), got.Name())
	assert.Equal(t, trip.CreatorID(), got.CreatorID())
	assert.Equal(t, 3, got.TotalDays())
	assert.Equal(t, 2, got.MemberCount())
	assert.True(t, got.IsAdmin("u-1"))
	require.NotNil(t, got.Budget())
	assert.True(t, got.Budget().Equal(domain.MustMoney("1500", "USD")))
	assert.Equal(t, 1, got.Version())

	day, err := got.Day(0)
	require.NoError(t, err)
	assert.Equal(t, "Northwest temples", day.Theme())
	acts := day.Activities()
	require.Len(t, acts, 2)
	assert.Equal(t, "Kinkaku-ji", acts[0].Name)
	assert.Equal(t, domain.Clock(9, 0), acts[0].StartTime)
	require.True(t, acts[0].Location.HasCoordinates())
	assert.InDelta(t, 35.0394, acts[0].Location.Coordinates.Lat, 1e-9)
	assert.True(t, acts[0].Cost.Equal(domain.MustMoney("12.50", "USD")))

	legs := day.Transits()
	require.Len(t, legs, 1)
	assert.Equal(t, acts[0].ID, legs[0].FromActivityID)
	assert.Equal(t, acts[1].ID, legs[0].ToActivityID)
	assert.Equal(t, 720, legs[0].Route.DurationSeconds)
	assert.Equal(t, domain.Clock(10, 42), legs[0].ArrivalTime)
}

func TestTripRepo_Save_ReplacesChildren(t *testing.T) {
	r := newTestRepo(t)
	ctx := context.Background()
	trip := tripFixture(t, "u-1")
	a := activityAt(t, "Fushimi Inari", 34.9671, 135.7727, domain.Clock(8, 0), domain.Clock(10, 0))
	_, err := trip.AddActivity(ctx, 1, a, nil)
	require.NoError(t, err)
	require.NoError(t, r.Save(ctx, trip))

	_, err = trip.RemoveActivity(ctx, 1, a.ID, nil)
	require.NoError(t, err)
	require.NoError(t, r.Save(ctx, trip))

	got, err := r.FindByID(ctx, trip.ID())
	require.NoError(t, err)
	day, err := got.Day(1)
	require.NoError(t, err)
	assert.Empty(t, day.Activities())
	assert.Equal(t, 2, got.Version())
}

func TestTripRepo_Save_StaleVersion(t *testing.T) {
	r := newTestRepo(t)
	ctx := context.Background()
	trip := tripFixture(t, "u-1")
	require.NoError(t, r.Save(ctx, trip))

	first, err := r.FindByID(ctx, trip.ID())
	require.NoError(t, err)
	second, err := r.FindByID(ctx, trip.ID())
	require.NoError(t, err)

	require.NoError(t, first.UpdateName("First writer"))
	require.NoError(t, r.Save(ctx, first))

	require.NoError(t, second.UpdateName("Second writer"))
	err = r.Save(ctx, second)

	assert.ErrorIs(t, err, domain.ErrConcurrentModification)
	got, err := r.FindByID(ctx, trip.ID())
	require.NoError(t, err)
	assert.Equal(t, domain.TripName("First writer"), got.Name())
}

func TestTripRepo_FindByID_NotFound(t *testing.T) {
	r := newTestRepo(t)

	_, err := r.FindByID(context.Background(), uuid.New())

	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestTripRepo_Delete(t *testing.T) {
	r := newTestRepo(t)
	ctx := context.Background()
	trip := tripFixture(t, "u-1")
	require.NoError(t, r.Save(ctx, trip))

	require.NoError(t, r.Delete(ctx, trip.ID()))

	exists, err := r.Exists(ctx, trip.ID())
	require.NoError(t, err)
	assert.False(t, exists)
	assert.ErrorIs(t, r.Delete(ctx, trip.ID()), domain.ErrNotFound)
}

func TestTripRepo_ListByMember(t *testing.T) {
	r := newTestRepo(t)
	ctx := context.Background()
	owned := tripFixture(t, "u-lister")
	joined := tripFixture(t, "u-other")
	require.NoError(t, joined.AddMember("u-lister", domain.RoleMember, "u-other", ""))
	unrelated := tripFixture(t, "u-other")
	for _, trip := range []*domain.Trip{owned, joined, unrelated} {
		require.NoError(t, r.Save(ctx, trip))
	}

	trips, total, err := r.ListByMember(ctx, "u-lister", domain.NewPaginationParams(nil, nil))

	require.NoError(t, err)
	assert.Equal(t, int64(2), total)
	ids := []uuid.UUID{trips[0].ID(), trips[1].ID()}
	assert.ElementsMatch(t, []uuid.UUID{owned.ID(), joined.ID()}, ids)
}

func TestTripRepo_ListPublic_Paged(t *testing.T) {
	r := newTestRepo(t)
	ctx := context.Background()
	for i := 0; i < 3; i++ {
		trip := tripFixture(t, "u-1")
		require.NoError(t, trip.UpdateVisibility(domain.VisibilityPublic))
		require.NoError(t, r.Save(ctx, trip))
	}
	require.NoError(t, r.Save(ctx, tripFixture(t, "u-1")))

	page, limit := 2, 2
	trips, total, err := r.ListPublic(ctx, domain.NewPaginationParams(&page, &limit))

	require.NoError(t, err)
	assert.GreaterOrEqual(t, total, int64(3))
	assert.NotEmpty(t, trips)
	for _, trip := range trips {
		assert.Equal(t, domain.VisibilityPublic, trip.Visibility())
	}
}
