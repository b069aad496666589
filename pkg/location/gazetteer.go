package location

import (
	"context"
	"encoding/json"
	"fmt"
	"math"
	"os"
	"sort"
)

const earthRadiusKm = 6371.0

// DefaultRadiusKm is how far from a known place a coordinate may lie and
// still resolve to it.
const DefaultRadiusKm = 25.0

// Place is a named point in a gazetteer.
type Place struct {
	Locality  string  `json:"locality"`
	Region    string  `json:"region"`
	Country   string  `json:"country,omitempty"`
	Latitude  float64 `json:"latitude"`
	Longitude float64 `json:"longitude"`
}

// Gazetteer is an offline Geocoder over a fixed list of places. It returns
// every place within the radius, nearest first.
type Gazetteer struct {
	places   []Place
	radiusKm float64
}

func NewGazetteer(places []Place, radiusKm float64) *Gazetteer {
	if radiusKm <= 0 {
		radiusKm = DefaultRadiusKm
	}
	return &Gazetteer{places: places, radiusKm: radiusKm}
}

// LoadGazetteer reads a JSON array of places from path.
func LoadGazetteer(path string, radiusKm float64) (*Gazetteer, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read gazetteer %s: %w", path, err)
	}

	var places []Place
	if err := json.Unmarshal(data, &places); err != nil {
		return nil, fmt.Errorf("parse gazetteer %s: %w", path, err)
	}

	return NewGazetteer(places, radiusKm), nil
}

func (g *Gazetteer) ReverseGeocode(ctx context.Context, c Coordinate) ([]Placemark, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if !c.Valid() {
		return nil, ErrInvalidCoordinate
	}

	type candidate struct {
		place Place
		dist  float64
	}

	var found []candidate
	for _, p := range g.places {
		d := Distance(c, Coordinate{Latitude: p.Latitude, Longitude: p.Longitude})
		if d <= g.radiusKm {
			found = append(found, candidate{place: p, dist: d})
		}
	}

	sort.SliceStable(found, func(i, j int) bool { return found[i].dist < found[j].dist })

	placemarks := make([]Placemark, 0, len(found))
	for _, f := range found {
		placemarks = append(placemarks, Placemark{
			Locality: f.place.Locality,
			Region:   f.place.Region,
			Country:  f.place.Country,
		})
	}
	return placemarks, nil
}

// Distance returns the great-circle distance between a and b in kilometres.
func Distance(a, b Coordinate) float64 {
	lat1 := a.Latitude * math.Pi / 180
	lat2 := b.Latitude * math.Pi / 180
	dLat := (b.Latitude - a.Latitude) * math.Pi / 180
	dLng := (b.Longitude - a.Longitude) * math.Pi / 180

	h := math.Sin(dLat/2)*math.Sin(dLat/2) +
		math.Cos(lat1)*math.Cos(lat2)*math.Sin(dLng/2)*math.Sin(dLng/2)
	return 2 * earthRadiusKm * math.Asin(math.Min(1, math.Sqrt(h)))
}

// DefaultPlaces is the built-in gazetteer used when none is configured.
var DefaultPlaces = []Place{
	{Locality: "Seattle", Region: "WA", Country: "US", Latitude: 47.6062, Longitude: -122.3321},
	{Locality: "Portland", Region: "OR", Country: "US", Latitude: 45.5152, Longitude: -122.6784},
	{Locality: "San Francisco", Region: "CA", Country: "US", Latitude: 37.7749, Longitude: -122.4194},
	{Locality: "Cupertino", Region: "CA", Country: "US", Latitude: 37.3230, Longitude: -122.0322},
	{Locality: "Los Angeles", Region: "CA", Country: "US", Latitude: 34.0522, Longitude: -118.2437},
	{Locality: "Austin", Region: "TX", Country: "US", Latitude: 30.2672, Longitude: -97.7431},
	{Locality: "Chicago", Region: "IL", Country: "US", Latitude: 41.8781, Longitude: -87.6298},
	{Locality: "New York", Region: "NY", Country: "US", Latitude: 40.7128, Longitude: -74.0060},
	{Locality: "Boston", Region: "MA", Country: "US", Latitude: 42.3601, Longitude: -71.0589},
	{Locality: "Toronto", Region: "ON", Country: "CA", Latitude: 43.6532, Longitude: -79.3832},
	{Locality: "Vancouver", Region: "BC", Country: "CA", Latitude: 49.2827, Longitude: -123.1207},
	{Locality: "London", Region: "England", Country: "GB", Latitude: 51.5074, Longitude: -0.1278},
	{Locality: "Riga", Region: "Riga", Country: "LV", Latitude: 56.9496, Longitude: 24.1052},
	{Locality: "Berlin", Region: "Berlin", Country: "DE", Latitude: 52.5200, Longitude: 13.4050},
}
