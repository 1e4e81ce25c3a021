package assessment

import (
	"context"
	"encoding/json"

	"github.com/renewintel/site-assessment/internal/assessment/providers"
)

// Domain tags used for cache keys and metrics labels.
const (
	DomainWind  = "wind"
	DomainSolar = "solar"
	DomainWater = "water"
)

// Cache is the coordinate cache contract the analyzers depend on. A Get
// failure surfaces as a miss; Set never fails from the caller's perspective.
type Cache interface {
	Get(domain string, lat, lon float64) (json.RawMessage, bool)
	Set(domain string, lat, lon float64, doc any)
}

// LiveWeatherSource provides hub-height observations for the fallback wind
// pipeline.
type LiveWeatherSource interface {
	LiveWeather(ctx context.Context, lat, lon float64) (providers.LiveWeather, error)
}

// SolarClimatologySource provides irradiance climatology for the fallback
// solar pipeline.
type SolarClimatologySource interface {
	SolarClimatology(ctx context.Context, lat, lon float64) (providers.SolarClimatology, error)
}

// HydrologySource provides daily water-cycle data for the fallback water
// pipeline.
type HydrologySource interface {
	Hydrology(ctx context.Context, lat, lon float64) (providers.Hydrology, error)
}

// getBand returns a band value rounded to the given precision, or 0 when the
// band is missing from the response.
func getBand(values map[string]float64, band string, places int) float64 {
	v, ok := values[band]
	if !ok {
		return 0
	}
	return round(v, places)
}
