package assessment

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"math"
	"strings"

	"github.com/renewintel/site-assessment/internal/assessment/providers"
	"github.com/renewintel/site-assessment/internal/common"
	"github.com/renewintel/site-assessment/internal/observability"
)

var monthNames = []string{"Jan", "Feb", "Mar", "Apr", "May", "Jun", "Jul", "Aug", "Sep", "Oct", "Nov", "Dec"}

// monthlyBandVariants lists the known band-name spellings for month i (1-12)
// across atlas dataset versions, tried in order. A key that matches none of
// the variants falls through to a prefix scan, then to zero.
func monthlyBandVariants(month int) []string {
	m := fmt.Sprintf("%02d", month)
	return []string{
		"PVOUT_" + m + "_b1",
		m + "_b1",
		m + "_pvout",
		m,
		fmt.Sprintf("b%d", month),
	}
}

var solarCoreBands = []string{"ghi", "gti", "dni", "dif", "pvout", "opta", "temp"}

// SolarAnalyzer produces the solar resource assessment for a point. The
// primary pipeline samples the solar atlas, terrain, atmospheric climatology
// and a reanalysis cross-check; each branch fails independently. When the
// atlas provider is unavailable, a climatology service supplies annual
// totals instead.
type SolarAnalyzer struct {
	cache       Cache
	resolver    *providers.Resolver
	climatology SolarClimatologySource
	metrics     *observability.Metrics
}

func NewSolarAnalyzer(cache Cache, resolver *providers.Resolver, climatology SolarClimatologySource, metrics *observability.Metrics) *SolarAnalyzer {
	return &SolarAnalyzer{cache: cache, resolver: resolver, climatology: climatology, metrics: metrics}
}

func (a *SolarAnalyzer) Analyze(ctx context.Context, lat, lon float64) (SolarMetrics, error) {
	lat, lon = common.Round4(lat), common.Round4(lon)

	if raw, ok := a.cache.Get(DomainSolar, lat, lon); ok {
		var cached SolarMetrics
		if err := json.Unmarshal(raw, &cached); err == nil {
			a.metrics.CacheLookups.WithLabelValues(DomainSolar, "hit").Inc()
			return cached, nil
		}
	}
	a.metrics.CacheLookups.WithLabelValues(DomainSolar, "miss").Inc()

	var m SolarMetrics
	var err error

	if client, ok := a.resolver.Client(); ok {
		m, err = a.analyzePrimary(ctx, client, lat, lon)
		if err != nil {
			log.Printf("solar: atlas pipeline failed for (%v, %v): %v", lat, lon, err)
		}
	} else {
		err = fmt.Errorf("primary provider unavailable")
	}

	if err != nil {
		a.metrics.Fallbacks.WithLabelValues(DomainSolar).Inc()
		m, err = a.analyzeFallback(ctx, lat, lon)
		if err != nil {
			return SolarMetrics{}, fmt.Errorf("solar analysis: %w", err)
		}
	}

	a.cache.Set(DomainSolar, lat, lon, m)
	return m, nil
}

func (a *SolarAnalyzer) analyzePrimary(ctx context.Context, client providers.RasterQuerier, lat, lon float64) (SolarMetrics, error) {
	resource, monthly, coreErr := a.queryCore(ctx, client, lat, lon)
	if coreErr != nil {
		// Without the atlas core there is nothing to grade; let the
		// climatology fallback answer instead.
		return SolarMetrics{}, coreErr
	}

	terrain := a.queryTerrain(ctx, client, lat, lon)
	atmosphere := a.queryAtmosphere(ctx, client, lat, lon)
	validation := a.queryValidation(ctx, client, lat, lon, resource.GHIDay)

	score := solarScore(resource.GHIDay, resource.PVOutDay, atmosphere.CloudPct, atmosphere.AOD, terrain.SlopeDeg)

	return SolarMetrics{
		Score:      score,
		Rating:     solarRating(score),
		Resource:   resource,
		Monthly:    monthly,
		Terrain:    terrain,
		Atmosphere: atmosphere,
		Validation: validation,
		Metadata: SourceMetadata{
			Source:   "Global Solar Atlas v2.6",
			Provider: "Solargis / World Bank Group",
		},
	}, nil
}

// queryCore samples the long-term atlas averages plus the 12 monthly PVOUT
// bands, widening to a 1 km mean when the point pixel is empty.
func (a *SolarAnalyzer) queryCore(ctx context.Context, client providers.RasterQuerier, lat, lon float64) (SolarResource, MonthlyProfile, error) {
	q := providers.RegionQuery{
		Dataset: "global_solar_atlas",
		Bands:   append([]string{}, solarCoreBands...),
		Lat:     lat,
		Lon:     lon,
		Scale:   250,
		Reducer: providers.ReducerMean,
	}

	values, err := client.QueryRegion(ctx, q)
	if err == nil {
		if _, ok := values["ghi"]; !ok {
			q.BufferM = 1000
			values, err = client.QueryRegion(ctx, q)
		}
	}
	if err != nil {
		a.metrics.ProviderQueries.WithLabelValues("satellite-atlas", "error").Inc()
		return SolarResource{}, MonthlyProfile{}, err
	}
	if _, ok := values["ghi"]; !ok {
		a.metrics.ProviderQueries.WithLabelValues("satellite-atlas", "empty").Inc()
		return SolarResource{}, MonthlyProfile{}, fmt.Errorf("no solar atlas coverage at (%v, %v)", lat, lon)
	}
	a.metrics.ProviderQueries.WithLabelValues("satellite-atlas", "success").Inc()

	ghi := getBand(values, "ghi", 4)
	pvout := getBand(values, "pvout", 4)
	dif := getBand(values, "dif", 4)

	difFraction := 0.0
	if ghi > 0 {
		difFraction = round(dif/ghi, 3)
	}
	temp := getBand(values, "temp", 2)

	resource := SolarResource{
		GHIDay:          ghi,
		GTIDay:          getBand(values, "gti", 4),
		DNIDay:          getBand(values, "dni", 4),
		GHIYear:         round(ghi*365, 1),
		PVOutDay:        pvout,
		PVOutYear:       round(pvout*365, 1),
		OptimalTiltDeg:  getBand(values, "opta", 1),
		AvgTempC:        temp,
		DiffuseFraction: difFraction,
		TempDeratePct:   round(math.Max(0, (temp-25)*0.4), 2),
	}
	resource.Grade, resource.Label = solarGrade(resource.GHIYear)

	return resource, buildMonthlyProfile(values), nil
}

// buildMonthlyProfile extracts the 12 monthly PVOUT values from the band map,
// matching each month against the known name variants, then against any
// non-core key prefixed with the zero-padded month, defaulting to zero.
func buildMonthlyProfile(values map[string]float64) MonthlyProfile {
	core := make(map[string]bool, len(solarCoreBands))
	for _, b := range solarCoreBands {
		core[b] = true
	}

	monthly := make([]float64, 0, 12)
	for i := 1; i <= 12; i++ {
		var val float64
		for _, candidate := range monthlyBandVariants(i) {
			if v, ok := values[candidate]; ok && v > 0 {
				val = v
				break
			}
		}
		if val == 0 {
			prefix := fmt.Sprintf("%02d", i)
			for k, v := range values {
				if !core[k] && strings.HasPrefix(k, prefix) && v > 0 {
					val = v
					break
				}
			}
		}
		monthly = append(monthly, round(val, 3))
	}

	profile := MonthlyProfile{Values: monthly}

	bestIdx, worstIdx := -1, -1
	for i, v := range monthly {
		if v <= 0 {
			continue
		}
		if bestIdx == -1 || v > monthly[bestIdx] {
			bestIdx = i
		}
		if worstIdx == -1 || v < monthly[worstIdx] {
			worstIdx = i
		}
	}
	if bestIdx >= 0 {
		profile.BestMonth = monthNames[bestIdx]
		profile.BestValue = monthly[bestIdx]
		profile.WorstMonth = monthNames[worstIdx]
		profile.WorstValue = monthly[worstIdx]
		profile.Range = round(monthly[bestIdx]-monthly[worstIdx], 3)
		profile.Stability = seasonalLabel(profile.Range)
	}
	return profile
}

func (a *SolarAnalyzer) queryTerrain(ctx context.Context, client providers.RasterQuerier, lat, lon float64) SolarTerrain {
	values, err := client.QueryRegion(ctx, providers.RegionQuery{
		Dataset: "srtm_terrain",
		Bands:   []string{"elevation", "slope", "aspect"},
		Lat:     lat,
		Lon:     lon,
		BufferM: 5000,
		Scale:   100,
		Reducer: providers.ReducerMean,
	})
	if err != nil {
		a.metrics.ProviderQueries.WithLabelValues("satellite-atlas", "error").Inc()
		log.Printf("solar: terrain query failed: %v", err)
		return SolarTerrain{}
	}
	a.metrics.ProviderQueries.WithLabelValues("satellite-atlas", "success").Inc()
	return SolarTerrain{
		ElevationM: getBand(values, "elevation", 1),
		SlopeDeg:   getBand(values, "slope", 3),
		AspectDeg:  getBand(values, "aspect", 1),
	}
}

func (a *SolarAnalyzer) queryAtmosphere(ctx context.Context, client providers.RasterQuerier, lat, lon float64) Atmosphere {
	values, err := client.QueryRegion(ctx, providers.RegionQuery{
		Dataset: "modis_atmosphere_monthly",
		Bands:   []string{"aod", "cloud_fraction"},
		Lat:     lat,
		Lon:     lon,
		Scale:   111320,
		Reducer: providers.ReducerMean,
	})
	if err != nil {
		a.metrics.ProviderQueries.WithLabelValues("satellite-atlas", "error").Inc()
		log.Printf("solar: atmosphere query failed: %v", err)
		return Atmosphere{ClearDaysPerYr: 365, AODLabel: aodLabel(0), CloudLabel: cloudLabel(0), Transmittance: 1}
	}
	a.metrics.ProviderQueries.WithLabelValues("satellite-atlas", "success").Inc()

	// The atmosphere product stores AOD ×1000 and cloud fraction ×10000.
	aod := round(values["aod"]*0.001, 4)
	cloudFrac := values["cloud_fraction"] / 10000.0
	cloudPct := round(cloudFrac*100, 2)

	return Atmosphere{
		AOD:            aod,
		AODLabel:       aodLabel(aod),
		Transmittance:  round(math.Exp(-aod*math.Sqrt2), 4),
		CloudPct:       cloudPct,
		ClearDaysPerYr: int((1 - cloudFrac) * 365),
		CloudLabel:     cloudLabel(cloudPct),
	}
}

func (a *SolarAnalyzer) queryValidation(ctx context.Context, client providers.RasterQuerier, lat, lon, atlasGHIDay float64) SolarValidation {
	values, err := client.QueryRegion(ctx, providers.RegionQuery{
		Dataset: "era5_land_monthly",
		Bands:   []string{"surface_solar_radiation_downwards_sum"},
		Lat:     lat,
		Lon:     lon,
		Scale:   25000,
		Reducer: providers.ReducerMean,
	})
	if err != nil {
		a.metrics.ProviderQueries.WithLabelValues("satellite-atlas", "error").Inc()
		log.Printf("solar: reanalysis cross-check failed: %v", err)
		return SolarValidation{AtlasGHIDay: atlasGHIDay}
	}
	a.metrics.ProviderQueries.WithLabelValues("satellite-atlas", "success").Inc()

	// Reanalysis SSR arrives as J/m²/month; ÷(3,600,000 × 30) → kWh/m²/day.
	ssrDay := round(values["surface_solar_radiation_downwards_sum"]/(3_600_000*30), 4)

	diffPct := 0.0
	if atlasGHIDay > 0 {
		diffPct = round(math.Abs(ssrDay-atlasGHIDay)/atlasGHIDay*100, 1)
	}
	return SolarValidation{
		ReanalysisGHIDay: ssrDay,
		AtlasGHIDay:      atlasGHIDay,
		AgreementPct:     round(100-diffPct, 1),
		DiffPct:          diffPct,
	}
}

// analyzeFallback substitutes annual irradiance climatology for the atlas.
// Without cloud or aerosol signals the score uses the annual-GHI step bands
// rather than the five-factor formula, so unknown sky clarity is not
// rewarded.
func (a *SolarAnalyzer) analyzeFallback(ctx context.Context, lat, lon float64) (SolarMetrics, error) {
	clim, err := a.climatology.SolarClimatology(ctx, lat, lon)
	if err != nil {
		a.metrics.ProviderQueries.WithLabelValues("pvgis", "error").Inc()
		return SolarMetrics{}, err
	}
	a.metrics.ProviderQueries.WithLabelValues("pvgis", "success").Inc()

	ghiYear := round(clim.GHIYear, 1)
	pvoutYear := round(clim.PVOutYear, 1)

	var score float64
	switch {
	case ghiYear >= 2000:
		score = 90
	case ghiYear >= 1800:
		score = 75
	case ghiYear >= 1600:
		score = 60
	case ghiYear >= 1400:
		score = 45
	default:
		score = 25
	}

	// DNI ≈ 62% of GHI is a serviceable estimate when the climatology
	// service does not report beam irradiance separately.
	dniYear := round(ghiYear*0.62, 1)
	difYear := round(ghiYear-dniYear, 1)
	difFraction := 0.0
	if ghiYear > 0 {
		difFraction = round(difYear/ghiYear, 3)
	}

	resource := SolarResource{
		GHIDay:          round(ghiYear/365, 4),
		GTIDay:          round(ghiYear/365, 4),
		DNIDay:          round(dniYear/365, 4),
		GHIYear:         ghiYear,
		PVOutDay:        round(pvoutYear/365, 4),
		PVOutYear:       pvoutYear,
		DiffuseFraction: difFraction,
	}
	resource.Grade, resource.Label = solarGrade(ghiYear)

	monthlyDaily := make([]float64, 0, 12)
	for i, v := range clim.MonthlyGHI {
		if i >= 12 {
			break
		}
		monthlyDaily = append(monthlyDaily, round(v/30, 3))
	}
	monthlyValues := make(map[string]float64, len(monthlyDaily))
	for i, v := range monthlyDaily {
		monthlyValues[fmt.Sprintf("%02d_b1", i+1)] = v
	}

	return SolarMetrics{
		Score:    score,
		Rating:   solarRating(score),
		Resource: resource,
		Monthly:  buildMonthlyProfile(monthlyValues),
		Atmosphere: Atmosphere{
			ClearDaysPerYr: 365,
			AODLabel:       aodLabel(0),
			CloudLabel:     cloudLabel(0),
			Transmittance:  1,
		},
		Validation: SolarValidation{AtlasGHIDay: resource.GHIDay},
		Metadata: SourceMetadata{
			Source:   "pvgis-climatology",
			Provider: "EU JRC / Copernicus SARAH-2 (fallback — primary atlas unavailable)",
		},
	}, nil
}
