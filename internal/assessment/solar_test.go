package assessment

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/renewintel/site-assessment/internal/assessment/providers"
)

func solarAtlasFixture() map[string]map[string]float64 {
	return map[string]map[string]float64{
		"global_solar_atlas": {
			"ghi":   5.2,
			"gti":   6.1,
			"dni":   6.4,
			"dif":   1.5,
			"pvout": 4.3,
			"opta":  32,
			"temp":  17.8,
			// Monthly PVOUT in the primary band spelling.
			"PVOUT_01_b1": 3.1, "PVOUT_02_b1": 3.6, "PVOUT_03_b1": 4.2,
			"PVOUT_04_b1": 4.6, "PVOUT_05_b1": 5.0, "PVOUT_06_b1": 5.4,
			"PVOUT_07_b1": 5.6, "PVOUT_08_b1": 5.3, "PVOUT_09_b1": 4.7,
			"PVOUT_10_b1": 3.9, "PVOUT_11_b1": 3.2, "PVOUT_12_b1": 2.9,
		},
		"srtm_terrain": {
			"elevation": 655,
			"slope":     2.4,
			"aspect":    182,
		},
		"modis_atmosphere_monthly": {
			"aod":            120,  // ×0.001 → 0.12
			"cloud_fraction": 2500, // ×1e-4 → 25 %
		},
		"era5_land_monthly": {
			"surface_solar_radiation_downwards_sum": 550_000_000, // J/m²/month
		},
	}
}

func TestSolarAnalyzePrimary(t *testing.T) {
	raster := &fakeRaster{byDataset: solarAtlasFixture()}
	analyzer := NewSolarAnalyzer(newFakeCache(), availableResolver(raster), fakeClimatology{}, testMetrics())

	m, err := analyzer.Analyze(context.Background(), 40.4168, -3.7038)
	require.NoError(t, err)

	assert.Equal(t, 5.2, m.Resource.GHIDay)
	assert.Equal(t, 1898.0, m.Resource.GHIYear)
	assert.Equal(t, "A", m.Resource.Grade)
	assert.Equal(t, 1569.5, m.Resource.PVOutYear)
	assert.Equal(t, 0.288, m.Resource.DiffuseFraction)
	assert.Zero(t, m.Resource.TempDeratePct, "no derating below 25 °C")

	assert.Equal(t, 0.12, m.Atmosphere.AOD)
	assert.Equal(t, "Clean — Minor Haze", m.Atmosphere.AODLabel)
	assert.Equal(t, 25.0, m.Atmosphere.CloudPct)
	assert.Equal(t, "Mostly Clear", m.Atmosphere.CloudLabel)
	assert.Equal(t, 273, m.Atmosphere.ClearDaysPerYr)

	assert.Equal(t, 2.4, m.Terrain.SlopeDeg)

	// 550e6 J/m²/month → 5.0926 kWh/m²/day; |5.09-5.2|/5.2 ≈ 2.1 %.
	assert.InDelta(t, 5.09, m.Validation.ReanalysisGHIDay, 0.01)
	assert.InDelta(t, 97.9, m.Validation.AgreementPct, 0.1)

	assert.Greater(t, m.Score, 60.0)
	assert.Equal(t, "Global Solar Atlas v2.6", m.Metadata.Source)
}

func TestSolarMonthlyProfile(t *testing.T) {
	raster := &fakeRaster{byDataset: solarAtlasFixture()}
	analyzer := NewSolarAnalyzer(newFakeCache(), availableResolver(raster), fakeClimatology{}, testMetrics())

	m, err := analyzer.Analyze(context.Background(), 40.0, -3.0)
	require.NoError(t, err)

	require.Len(t, m.Monthly.Values, 12)
	assert.Equal(t, "Jul", m.Monthly.BestMonth)
	assert.Equal(t, 5.6, m.Monthly.BestValue)
	assert.Equal(t, "Dec", m.Monthly.WorstMonth)
	assert.Equal(t, 2.9, m.Monthly.WorstValue)
	assert.Equal(t, 2.7, m.Monthly.Range)
	assert.Equal(t, "High — Strong monsoon dip", m.Monthly.Stability)
}

func TestBuildMonthlyProfileBandVariants(t *testing.T) {
	// Alternate dataset versions spell the monthly bands differently.
	values := map[string]float64{
		"01_b1":    3.0,
		"02_pvout": 3.2,
		"03":       3.4,
		"b4":       3.6,
		"05_v2":    3.8, // only matches via the prefix scan
	}
	profile := buildMonthlyProfile(values)

	require.Len(t, profile.Values, 12)
	assert.Equal(t, 3.0, profile.Values[0])
	assert.Equal(t, 3.2, profile.Values[1])
	assert.Equal(t, 3.4, profile.Values[2])
	assert.Equal(t, 3.6, profile.Values[3])
	assert.Equal(t, 3.8, profile.Values[4])
	assert.Zero(t, profile.Values[5], "unstubbed month stays zero")

	// Best/worst only consider the non-zero months.
	assert.Equal(t, "May", profile.BestMonth)
	assert.Equal(t, "Jan", profile.WorstMonth)
}

func TestSolarIsolatesAuxiliaryQueryFailures(t *testing.T) {
	fixture := solarAtlasFixture()
	delete(fixture, "srtm_terrain")
	delete(fixture, "modis_atmosphere_monthly")
	delete(fixture, "era5_land_monthly")
	raster := &fakeRaster{byDataset: fixture}
	analyzer := NewSolarAnalyzer(newFakeCache(), availableResolver(raster), fakeClimatology{}, testMetrics())

	m, err := analyzer.Analyze(context.Background(), 40.0, -3.0)
	require.NoError(t, err, "core data present, auxiliary failures must not kill the assessment")

	assert.Equal(t, 5.2, m.Resource.GHIDay)
	assert.Zero(t, m.Terrain.ElevationM)
	// Atmosphere failure defaults to clear skies rather than overcast.
	assert.Equal(t, 365, m.Atmosphere.ClearDaysPerYr)
	assert.Greater(t, m.Score, 0.0)
}

func TestSolarFallbackUsesAnnualStepScore(t *testing.T) {
	clim := fakeClimatology{clim: providers.SolarClimatology{
		GHIYear:   1850,
		PVOutYear: 1520,
		MonthlyGHI: []float64{
			93, 108, 126, 138, 150, 162, 168, 159, 141, 117, 96, 87,
		},
	}}
	analyzer := NewSolarAnalyzer(newFakeCache(), unavailableResolver(), clim, testMetrics())

	m, err := analyzer.Analyze(context.Background(), 40.0, -3.0)
	require.NoError(t, err)

	// 1800 ≤ GHI < 2000 → fixed step score of 75.
	assert.Equal(t, 75.0, m.Score)
	assert.Equal(t, "EXCELLENT", m.Rating)
	assert.Equal(t, "A", m.Resource.Grade)
	assert.Equal(t, 1850.0, m.Resource.GHIYear)
	assert.Equal(t, "pvgis-climatology", m.Metadata.Source)
	require.Len(t, m.Monthly.Values, 12)
	assert.Equal(t, "Jul", m.Monthly.BestMonth)
}

func TestSolarBothPipelinesDown(t *testing.T) {
	analyzer := NewSolarAnalyzer(newFakeCache(), unavailableResolver(),
		fakeClimatology{err: errors.New("timeout")}, testMetrics())

	_, err := analyzer.Analyze(context.Background(), 40.0, -3.0)
	assert.Error(t, err)
}

func TestSolarAnalyzeCachesResult(t *testing.T) {
	raster := &fakeRaster{byDataset: solarAtlasFixture()}
	cache := newFakeCache()
	analyzer := NewSolarAnalyzer(cache, availableResolver(raster), fakeClimatology{}, testMetrics())

	first, err := analyzer.Analyze(context.Background(), 40.4168, -3.7038)
	require.NoError(t, err)
	calls := len(raster.queries)

	second, err := analyzer.Analyze(context.Background(), 40.4168, -3.7038)
	require.NoError(t, err)

	assert.Equal(t, first, second)
	assert.Equal(t, calls, len(raster.queries))
}
