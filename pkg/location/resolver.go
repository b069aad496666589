package location

import (
	"context"
	"errors"
	"fmt"
	"math"
	"strings"

	"github.com/unowned-ai/diary/pkg/logging"
)

var ErrInvalidCoordinate = errors.New("invalid coordinate")

// Coordinate is a WGS84 position in degrees.
type Coordinate struct {
	Latitude  float64 `json:"latitude"`
	Longitude float64 `json:"longitude"`
}

// Valid reports whether c lies within the usual latitude and longitude ranges.
func (c Coordinate) Valid() bool {
	if math.IsNaN(c.Latitude) || math.IsNaN(c.Longitude) {
		return false
	}
	return c.Latitude >= -90 && c.Latitude <= 90 && c.Longitude >= -180 && c.Longitude <= 180
}

func (c Coordinate) String() string {
	return fmt.Sprintf("%.5f,%.5f", c.Latitude, c.Longitude)
}

// Placemark is one reverse-geocoding candidate. Locality is the city or
// county, Region the state or province.
type Placemark struct {
	Locality string `json:"locality"`
	Region   string `json:"region"`
	Country  string `json:"country,omitempty"`
}

// Geocoder turns a coordinate into candidate placemarks, best match first.
type Geocoder interface {
	ReverseGeocode(ctx context.Context, c Coordinate) ([]Placemark, error)
}

// LookupError reports a failed reverse geocode.
type LookupError struct {
	Coordinate Coordinate
	Err        error
}

func (e *LookupError) Error() string {
	return fmt.Sprintf("resolve location %s: %v", e.Coordinate, e.Err)
}

func (e *LookupError) Unwrap() error { return e.Err }

// Resolver builds human-readable place labels from coordinates.
type Resolver struct {
	geocoder Geocoder
	log      logging.Logger
}

func NewResolver(g Geocoder, log logging.Logger) *Resolver {
	if log == nil {
		log = logging.Nop()
	}
	return &Resolver{geocoder: g, log: log}
}

// ResolveCurrentPlace returns "<locality>, <region>" for the first placemark
// found at c. When there is no placemark, or the first one lacks either part,
// ok is false and err is nil.
func (r *Resolver) ResolveCurrentPlace(ctx context.Context, c Coordinate) (label string, ok bool, err error) {
	if !c.Valid() {
		return "", false, &LookupError{Coordinate: c, Err: ErrInvalidCoordinate}
	}

	placemarks, err := r.geocoder.ReverseGeocode(ctx, c)
	if err != nil {
		r.log.Warn(ctx, "reverse geocode failed", "coordinate", c.String(), "error", err)
		return "", false, &LookupError{Coordinate: c, Err: err}
	}
	if len(placemarks) == 0 {
		r.log.Debug(ctx, "no placemark", "coordinate", c.String())
		return "", false, nil
	}

	label, ok = Label(placemarks[0])
	return label, ok, nil
}

// Label formats p as "<locality>, <region>". ok is false when either part is
// missing.
func Label(p Placemark) (string, bool) {
	locality := strings.TrimSpace(p.Locality)
	region := strings.TrimSpace(p.Region)
	if locality == "" || region == "" {
		return "", false
	}
	return locality + ", " + region, true
}
