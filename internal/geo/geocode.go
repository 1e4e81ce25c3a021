package geo

import (
	"fmt"
	"strings"

	"github.com/kelvins/geocoder"
)

// GeocodeResult is a resolved place returned to API clients.
type GeocodeResult struct {
	Query string  `json:"query"`
	Lat   float64 `json:"lat"`
	Lon   float64 `json:"lon"`
	Place string  `json:"place,omitempty"`
}

// Geocoder resolves free-text place names to coordinates so a site can be
// assessed by name instead of raw lat/lon.
type Geocoder struct {
	enabled bool
}

// NewGeocoder configures the underlying geocoding service. An empty API key
// returns a disabled geocoder; Forward then reports an explanatory error.
func NewGeocoder(apiKey string) *Geocoder {
	if apiKey == "" {
		return &Geocoder{}
	}
	geocoder.ApiKey = apiKey
	return &Geocoder{enabled: true}
}

// Forward resolves a place-name query to a coordinate pair.
func (g *Geocoder) Forward(query string) (GeocodeResult, error) {
	if !g.enabled {
		return GeocodeResult{}, fmt.Errorf("geocoding disabled: no API key configured")
	}
	query = strings.TrimSpace(query)
	if query == "" {
		return GeocodeResult{}, fmt.Errorf("empty geocode query")
	}

	location, err := geocoder.Geocoding(geocoder.Address{City: query})
	if err != nil {
		return GeocodeResult{}, fmt.Errorf("geocoding %q: %w", query, err)
	}
	return GeocodeResult{
		Query: query,
		Lat:   location.Latitude,
		Lon:   location.Longitude,
		Place: query,
	}, nil
}

// Reverse resolves a coordinate pair to the closest formatted address.
func (g *Geocoder) Reverse(lat, lon float64) (GeocodeResult, error) {
	if !g.enabled {
		return GeocodeResult{}, fmt.Errorf("geocoding disabled: no API key configured")
	}
	addresses, err := geocoder.GeocodingReverse(geocoder.Location{Latitude: lat, Longitude: lon})
	if err != nil {
		return GeocodeResult{}, fmt.Errorf("reverse geocoding (%v, %v): %w", lat, lon, err)
	}
	result := GeocodeResult{Lat: lat, Lon: lon}
	if len(addresses) > 0 {
		result.Place = addresses[0].FormatAddress()
	}
	return result, nil
}
