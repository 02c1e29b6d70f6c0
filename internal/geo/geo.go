// Package geo resolves city names to IANA timezones via geocoding plus a
// coordinate-to-zone lookup.
package geo

import (
	"errors"
	"fmt"
	"strings"
	"time"

	geocoding "github.com/codingsince1985/geo-golang"
	"github.com/codingsince1985/geo-golang/openstreetmap"
	"github.com/ringsaturn/tzf"
)

var (
	// ErrCityNotFound indicates the geocoder returned no location for the city.
	ErrCityNotFound = errors.New("city not found")
	// ErrZoneUnknown indicates no IANA zone could be derived from the location.
	ErrZoneUnknown = errors.New("timezone could not be determined")
)

// zoneFinder maps coordinates to an IANA timezone name.
type zoneFinder interface {
	GetTimezoneName(lng, lat float64) string
}

// Overridable constructors, stubbed in tests.
var (
	newGeocoder = func() geocoding.Geocoder { return openstreetmap.Geocoder() }
	newFinder   = func() (zoneFinder, error) { return tzf.NewDefaultFinder() }
)

// Resolver turns free-form city names into validated IANA timezone names.
type Resolver struct {
	geocoder geocoding.Geocoder
	finder   zoneFinder
}

// NewResolver builds a Resolver. Loading the timezone shape data can fail,
// so construction returns an error.
func NewResolver() (*Resolver, error) {
	finder, err := newFinder()
	if err != nil {
		return nil, fmt.Errorf("init timezone finder: %w", err)
	}

	return &Resolver{
		geocoder: newGeocoder(),
		finder:   finder,
	}, nil
}

// Resolve geocodes the city and returns its IANA timezone name plus a
// display name for the matched place. The zone is validated against the
// local tz database before being returned.
func (r *Resolver) Resolve(city string) (zone, place string, err error) {
	city = strings.TrimSpace(city)
	if city == "" {
		return "", "", errors.New("city is required")
	}

	location, err := r.geocoder.Geocode(city)
	if err != nil {
		return "", "", fmt.Errorf("geocode %q: %w", city, err)
	}
	if location == nil {
		return "", "", ErrCityNotFound
	}

	zone = r.finder.GetTimezoneName(location.Lng, location.Lat)
	if zone == "" {
		return "", "", ErrZoneUnknown
	}

	if _, err := time.LoadLocation(zone); err != nil {
		return "", "", fmt.Errorf("%w: %q", ErrZoneUnknown, zone)
	}

	// Best effort display name; the input stands in when the reverse
	// lookup has nothing better.
	place = city
	if address, err := r.geocoder.ReverseGeocode(location.Lat, location.Lng); err == nil && address != nil && address.FormattedAddress != "" {
		place = address.FormattedAddress
	}

	return zone, place, nil
}
