package domain

import (
	"fmt"
	"math"
	"strings"
)

// Coordinates is an immutable WGS84 point.
type Coordinates struct {
	Lat float64
	Lng float64
}

// LngLat returns the point as [lng, lat], the order routing APIs expect.
func (c Coordinates) LngLat() []float64 { return []float64{c.Lng, c.Lat} }

const earthRadiusMeters = 6371000.0

// HaversineMeters returns the great-circle distance between two points.
func HaversineMeters(a, b Coordinates) float64 {
	rad := func(d float64) float64 { return d * math.Pi / 180 }
	dLat := rad(b.Lat - a.Lat)
	dLng := rad(b.Lng - a.Lng)
	h := math.Sin(dLat/2)*math.Sin(dLat/2) +
		math.Cos(rad(a.Lat))*math.Cos(rad(b.Lat))*math.Sin(dLng/2)*math.Sin(dLng/2)
	return 2 * earthRadiusMeters * math.Asin(math.Sqrt(h))
}

// Location is a named place. Coordinates are nil until the place has been
// geocoded or the caller supplied them.
type Location struct {
	Name        string
	Address     string
	Coordinates *Coordinates
}

// NewLocation validates the name and, when both lat and lng are given, the
// coordinate ranges.
func NewLocation(name string, lat, lng *float64, address string) (Location, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return Location{}, fmt.Errorf("%w: location name is required", ErrValidation)
	}
	loc := Location{Name: name, Address: strings.TrimSpace(address)}
	if lat != nil && lng != nil {
		if *lat < -90 || *lat > 90 || *lng < -180 || *lng > 180 {
			return Location{}, fmt.Errorf("%w: coordinates out of range", ErrValidation)
		}
		loc.Coordinates = &Coordinates{Lat: *lat, Lng: *lng}
	}
	return loc, nil
}

// HasCoordinates reports whether the location can be routed without geocoding.
func (l Location) HasCoordinates() bool { return l.Coordinates != nil }

// WithCoordinates returns a copy of l pinned to c.
func (l Location) WithCoordinates(c Coordinates) Location {
	l.Coordinates = &c
	return l
}

// SamePlace reports whether two locations share name and coordinates.
// It is the identity used when de-duplicating visited locations.
func (l Location) SamePlace(o Location) bool {
	if l.Name != o.Name {
		return false
	}
	if l.Coordinates == nil || o.Coordinates == nil {
		return l.Coordinates == nil && o.Coordinates == nil
	}
	return *l.Coordinates == *o.Coordinates
}

// GeocodeQuery is the text sent to a geocoder: the address when known, else the name.
func (l Location) GeocodeQuery() string {
	if l.Address != "" {
		return l.Address
	}
	return l.Name
}

func (l Location) clone() Location {
	if l.Coordinates != nil {
		c := *l.Coordinates
		l.Coordinates = &c
	}
	return l
}
