package geo

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"math"
	"net/http"
	"time"

	"github.com/maroonxv/travel-sharing/internal/domain"
)

const defaultORSBaseURL = "https://api.openrouteservice.org"

// ORSProvider implements Provider using OpenRouteService. It is safe for
// concurrent use.
type ORSProvider struct {
	client      *http.Client
	apiKey      string
	baseURL     string
	log         *slog.Logger
	maxAttempts int
	backoff     time.Duration
}

// ORSOption customizes an ORSProvider.
type ORSOption func(*ORSProvider)

// WithBaseURL points the provider at a different host, e.g. a self-hosted
// instance or an httptest server.
func WithBaseURL(u string) ORSOption {
	return func(o *ORSProvider) {
		if u != "" {
			o.baseURL = u
		}
	}
}

// WithHTTPClient replaces the default client (10s timeout).
func WithHTTPClient(c *http.Client) ORSOption {
	return func(o *ORSProvider) { o.client = c }
}

// WithRetry sets the attempt count and initial backoff for transient errors.
func WithRetry(maxAttempts int, backoff time.Duration) ORSOption {
	return func(o *ORSProvider) {
		if maxAttempts > 0 {
			o.maxAttempts = maxAttempts
		}
		o.backoff = backoff
	}
}

func WithLogger(l *slog.Logger) ORSOption {
	return func(o *ORSProvider) { o.log = l }
}

func NewORSProvider(apiKey string, opts ...ORSOption) (*ORSProvider, error) {
	if apiKey == "" {
		return nil, errors.New("geo.NewORSProvider: api key is empty")
	}
	o := &ORSProvider{
		client:      &http.Client{Timeout: 10 * time.Second},
		apiKey:      apiKey,
		baseURL:     defaultORSBaseURL,
		log:         slog.Default(),
		maxAttempts: 4,
		backoff:     200 * time.Millisecond,
	}
	for _, opt := range opts {
		opt(o)
	}
	return o, nil
}

var _ Provider = (*ORSProvider)(nil)

// orsProfile maps a transport mode to an ORS routing profile. ORS has no
// public-transit profile, so transit and taxi legs are routed by road.
func orsProfile(mode domain.TransportMode) string {
	switch mode {
	case domain.ModeWalking:
		return "foot-walking"
	case domain.ModeCycling:
		return "cycling-regular"
	default:
		return "driving-car"
	}
}

type geocodeResponse struct {
	Features []struct {
		Geometry struct {
			Coordinates []float64 `json:"coordinates"`
		} `json:"geometry"`
		Properties struct {
			Label string `json:"label"`
		} `json:"properties"`
	} `json:"features"`
}

// Geocode resolves text through /geocode/search. No match returns
// domain.ErrNotFound.
func (o *ORSProvider) Geocode(ctx context.Context, address string) (_ domain.Location, err error) {
	defer timed(ctx, o.log, "ors.Geocode")(&err)

	q := normalize(address)
	if q == "" {
		return domain.Location{}, fmt.Errorf("%w: address is required", domain.ErrValidation)
	}
	endpoint := o.baseURL + "/geocode/search"

	resp, err := o.doWithRetry(ctx, func() (*http.Request, error) {
		req, err := o.newRequest(ctx, http.MethodGet, endpoint, nil)
		if err != nil {
			return nil, err
		}
		v := req.URL.Query()
		v.Set("text", q)
		v.Set("size", "1")
		req.URL.RawQuery = v.Encode()
		return req, nil
	})
	if err != nil {
		return domain.Location{}, fmt.Errorf("geo.ORSProvider.Geocode: %w", err)
	}
	defer resp.Body.Close()

	var decoded geocodeResponse
	if err := json.NewDecoder(resp.Body).Decode(&decoded); err != nil {
		return domain.Location{}, fmt.Errorf("geo.ORSProvider.Geocode: decode: %w", err)
	}
	if len(decoded.Features) == 0 {
		return domain.Location{}, fmt.Errorf("%w: no geocode result for %q", domain.ErrNotFound, q)
	}
	f := decoded.Features[0]
	if len(f.Geometry.Coordinates) != 2 {
		return domain.Location{}, fmt.Errorf("geo.ORSProvider.Geocode: invalid coordinates for %q", q)
	}
	loc := domain.Location{Name: q, Address: f.Properties.Label}
	return loc.WithCoordinates(domain.Coordinates{Lng: f.Geometry.Coordinates[0], Lat: f.Geometry.Coordinates[1]}), nil
}

// CalculateDistance is the great-circle distance; ORS is not consulted.
func (o *ORSProvider) CalculateDistance(_ context.Context, origin, destination domain.Location) (float64, error) {
	return straightLine(origin, destination)
}

type directionsRequest struct {
	Coordinates [][]float64 `json:"coordinates"`
}

type directionsResponse struct {
	Routes []struct {
		Summary struct {
			Distance float64 `json:"distance"`
			Duration float64 `json:"duration"`
		} `json:"summary"`
		Geometry string `json:"geometry"`
	} `json:"routes"`
}

// GetRoute calls /v2/directions/{profile}. A response without routes yields an
// empty RouteInfo and no error.
func (o *ORSProvider) GetRoute(ctx context.Context, origin, destination domain.Location, mode domain.TransportMode) (_ domain.RouteInfo, err error) {
	defer timed(ctx, o.log, "ors.GetRoute")(&err)

	if !origin.HasCoordinates() || !destination.HasCoordinates() {
		return domain.RouteInfo{}, fmt.Errorf("%w: route endpoints need coordinates", domain.ErrValidation)
	}
	endpoint := fmt.Sprintf("%s/v2/directions/%s", o.baseURL, orsProfile(mode))
	payload, err := json.Marshal(directionsRequest{
		Coordinates: [][]float64{origin.Coordinates.LngLat(), destination.Coordinates.LngLat()},
	})
	if err != nil {
		return domain.RouteInfo{}, fmt.Errorf("geo.ORSProvider.GetRoute: marshal: %w", err)
	}

	resp, err := o.doWithRetry(ctx, func() (*http.Request, error) {
		return o.newRequest(ctx, http.MethodPost, endpoint, bytes.NewReader(payload))
	})
	if err != nil {
		return domain.RouteInfo{}, fmt.Errorf("geo.ORSProvider.GetRoute: %w", err)
	}
	defer resp.Body.Close()

	var dr directionsResponse
	if err := json.NewDecoder(resp.Body).Decode(&dr); err != nil {
		return domain.RouteInfo{}, fmt.Errorf("geo.ORSProvider.GetRoute: decode: %w", err)
	}
	if len(dr.Routes) == 0 {
		return domain.RouteInfo{}, nil
	}
	r := dr.Routes[0]
	// ORS reports float metrics; durations are rounded to whole seconds.
	return domain.NewRouteInfo(r.Summary.Distance, int(math.Round(r.Summary.Duration)), r.Geometry)
}
