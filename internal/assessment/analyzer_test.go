package assessment

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/renewintel/site-assessment/internal/assessment/providers"
	"github.com/renewintel/site-assessment/internal/observability"
)

// fakeCache is an in-memory stand-in for the coordinate cache.
type fakeCache struct {
	data map[string]json.RawMessage
	sets int
}

func newFakeCache() *fakeCache {
	return &fakeCache{data: map[string]json.RawMessage{}}
}

func (f *fakeCache) key(domain string, lat, lon float64) string {
	return fmt.Sprintf("%s_%v_%v", domain, lat, lon)
}

func (f *fakeCache) Get(domain string, lat, lon float64) (json.RawMessage, bool) {
	raw, ok := f.data[f.key(domain, lat, lon)]
	return raw, ok
}

func (f *fakeCache) Set(domain string, lat, lon float64, doc any) {
	raw, err := json.Marshal(doc)
	if err != nil {
		return
	}
	f.sets++
	f.data[f.key(domain, lat, lon)] = raw
}

// fakeRaster answers atlas queries from a per-dataset fixture and records
// every query it receives.
type fakeRaster struct {
	byDataset map[string]map[string]float64
	err       error
	queries   []providers.RegionQuery
}

func (f *fakeRaster) QueryRegion(_ context.Context, q providers.RegionQuery) (map[string]float64, error) {
	f.queries = append(f.queries, q)
	if f.err != nil {
		return nil, f.err
	}
	values, ok := f.byDataset[q.Dataset]
	if !ok {
		return nil, fmt.Errorf("dataset %s not stubbed", q.Dataset)
	}
	return values, nil
}

func availableResolver(raster providers.RasterQuerier) *providers.Resolver {
	return providers.NewResolver(func() (providers.RasterQuerier, error) {
		return raster, nil
	}, nil)
}

func unavailableResolver() *providers.Resolver {
	return providers.NewResolver(func() (providers.RasterQuerier, error) {
		return nil, errors.New("credential file missing")
	}, nil)
}

type fakeLiveWeather struct {
	obs providers.LiveWeather
	err error
}

func (f fakeLiveWeather) LiveWeather(context.Context, float64, float64) (providers.LiveWeather, error) {
	return f.obs, f.err
}

type fakeClimatology struct {
	clim providers.SolarClimatology
	err  error
}

func (f fakeClimatology) SolarClimatology(context.Context, float64, float64) (providers.SolarClimatology, error) {
	return f.clim, f.err
}

type fakeHydrology struct {
	h   providers.Hydrology
	err error
}

func (f fakeHydrology) Hydrology(context.Context, float64, float64) (providers.Hydrology, error) {
	return f.h, f.err
}

func testMetrics() *observability.Metrics {
	return observability.NewMetricsForTesting()
}
