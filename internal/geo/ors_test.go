package geo_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/maroonxv/travel-sharing/internal/domain"
	"github.com/maroonxv/travel-sharing/internal/geo"
)

func newORS(t *testing.T, h http.HandlerFunc) *geo.ORSProvider {
	t.Helper()
	srv := httptest.NewServer(h)
	t.Cleanup(srv.Close)
	p, err := geo.NewORSProvider("test-key", geo.WithBaseURL(srv.URL), geo.WithRetry(3, time.Millisecond))
	require.NoError(t, err)
	return p
}

func point(name string, lat, lng float64) domain.Location {
	return domain.Location{Name: name}.WithCoordinates(domain.Coordinates{Lat: lat, Lng: lng})
}

func TestNewORSProvider_RequiresKey(t *testing.T) {
	_, err := geo.NewORSProvider("")
	assert.Error(t, err)
}

func TestORSProvider_Geocode(t *testing.T) {
	p := newORS(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/geocode/search", r.URL.Path)
		assert.Equal(t, "test-key", r.Header.Get("Authorization"))
		assert.Equal(t, "Eiffel Tower Paris", r.URL.Query().Get("text"))
		_, _ = w.Write([]byte(`{"features":[{"geometry":{"coordinates":[2.2945,48.8584]},"properties":{"label":"Eiffel Tower, Paris, France"}}]}`))
	})

	loc, err := p.Geocode(context.Background(), "  Eiffel   Tower Paris ")

	require.NoError(t, err)
	require.True(t, loc.HasCoordinates())
	assert.InDelta(t, 48.8584, loc.Coordinates.Lat, 1e-9)
	assert.InDelta(t, 2.2945, loc.Coordinates.Lng, 1e-9)
	assert.Equal(t, "Eiffel Tower, Paris, France", loc.Address)
}

func TestORSProvider_Geocode_NoResult(t *testing.T) {
	p := newORS(t, func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte(`{"features":[]}`))
	})

	_, err := p.Geocode(context.Background(), "nowhere at all")

	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestORSProvider_GetRoute(t *testing.T) {
	p := newORS(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/v2/directions/foot-walking", r.URL.Path)
		var body struct {
			Coordinates [][]float64 `json:"coordinates"`
		}
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		assert.Equal(t, [][]float64{{2.0, 1.0}, {4.0, 3.0}}, body.Coordinates)
		_, _ = w.Write([]byte(`{"routes":[{"summary":{"distance":1234.5,"duration":899.6},"geometry":"abc"}]}`))
	})

	route, err := p.GetRoute(context.Background(), point("A", 1, 2), point("B", 3, 4), domain.ModeWalking)

	require.NoError(t, err)
	assert.InDelta(t, 1234.5, route.DistanceMeters, 1e-9)
	assert.Equal(t, 900, route.DurationSeconds)
	assert.Equal(t, "abc", route.Polyline)
}

func TestORSProvider_GetRoute_NoRoutes(t *testing.T) {
	p := newORS(t, func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte(`{"routes":[]}`))
	})

	route, err := p.GetRoute(context.Background(), point("A", 1, 2), point("B", 3, 4), domain.ModeDriving)

	require.NoError(t, err)
	assert.True(t, route.IsEmpty())
}

func TestORSProvider_RetriesTransientErrors(t *testing.T) {
	var calls atomic.Int32
	p := newORS(t, func(w http.ResponseWriter, _ *http.Request) {
		if calls.Add(1) < 3 {
			w.WriteHeader(http.StatusServiceUnavailable)
			return
		}
		_, _ = w.Write([]byte(`{"routes":[{"summary":{"distance":10,"duration":5}}]}`))
	})

	route, err := p.GetRoute(context.Background(), point("A", 1, 2), point("B", 3, 4), domain.ModeDriving)

	require.NoError(t, err)
	assert.Equal(t, int32(3), calls.Load())
	assert.Equal(t, 5, route.DurationSeconds)
}

func TestORSProvider_GivesUpAfterMaxAttempts(t *testing.T) {
	var calls atomic.Int32
	p := newORS(t, func(w http.ResponseWriter, _ *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusBadGateway)
	})

	_, err := p.GetRoute(context.Background(), point("A", 1, 2), point("B", 3, 4), domain.ModeDriving)

	assert.Error(t, err)
	assert.Equal(t, int32(3), calls.Load())
}

func TestORSProvider_DoesNotRetryClientErrors(t *testing.T) {
	var calls atomic.Int32
	p := newORS(t, func(w http.ResponseWriter, _ *http.Request) {
		calls.Add(1)
		http.Error(w, `{"error":"bad coordinates"}`, http.StatusBadRequest)
	})

	_, err := p.GetRoute(context.Background(), point("A", 1, 2), point("B", 3, 4), domain.ModeDriving)

	assert.ErrorContains(t, err, "400")
	assert.Equal(t, int32(1), calls.Load())
}

func TestORSProvider_GetRoute_NeedsCoordinates(t *testing.T) {
	p := newORS(t, func(http.ResponseWriter, *http.Request) { t.Fatal("no request expected") })

	_, err := p.GetRoute(context.Background(), domain.Location{Name: "A"}, point("B", 3, 4), domain.ModeDriving)

	assert.ErrorIs(t, err, domain.ErrValidation)
}

func TestStraightLine(t *testing.T) {
	var s geo.StraightLine
	a, b := point("A", 0, 0), point("B", 0, 0.01)

	d, err := s.CalculateDistance(context.Background(), a, b)
	require.NoError(t, err)
	assert.InDelta(t, 1112, d, 5)

	walk, err := s.GetRoute(context.Background(), a, b, domain.ModeWalking)
	require.NoError(t, err)
	drive, err := s.GetRoute(context.Background(), a, b, domain.ModeDriving)
	require.NoError(t, err)
	assert.Greater(t, walk.DurationSeconds, drive.DurationSeconds)
	assert.InDelta(t, d*1.3, walk.DistanceMeters, 1)

	_, err = s.Geocode(context.Background(), "anything")
	assert.ErrorIs(t, err, domain.ErrNotFound)
}
