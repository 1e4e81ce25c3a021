package assessment

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"math"

	"github.com/renewintel/site-assessment/internal/assessment/providers"
	"github.com/renewintel/site-assessment/internal/common"
	"github.com/renewintel/site-assessment/internal/observability"
)

// Hub heights sampled from the wind atlas, in meters.
var hubHeights = []int{10, 50, 100, 150, 200}

var turbineClassLabels = []string{
	"IEC Class 1 — High Wind (>7.5 m/s)",
	"IEC Class 2 — Medium Wind (6.5–7.5 m/s)",
	"IEC Class 3 — Low Wind (5.0–6.5 m/s)",
}

// WindAnalyzer produces the wind resource assessment for a point. The primary
// pipeline samples the satellite wind atlas; when that provider is
// unavailable or returns no data, hub-height live observations are
// interpolated instead.
type WindAnalyzer struct {
	cache    Cache
	resolver *providers.Resolver
	live     LiveWeatherSource
	metrics  *observability.Metrics
}

func NewWindAnalyzer(cache Cache, resolver *providers.Resolver, live LiveWeatherSource, metrics *observability.Metrics) *WindAnalyzer {
	return &WindAnalyzer{cache: cache, resolver: resolver, live: live, metrics: metrics}
}

// Analyze runs the wind pipeline: cache lookup, provider query, metric
// derivation, cache write.
func (a *WindAnalyzer) Analyze(ctx context.Context, lat, lon float64) (WindMetrics, error) {
	lat, lon = common.Round4(lat), common.Round4(lon)

	if raw, ok := a.cache.Get(DomainWind, lat, lon); ok {
		var cached WindMetrics
		if err := json.Unmarshal(raw, &cached); err == nil {
			a.metrics.CacheLookups.WithLabelValues(DomainWind, "hit").Inc()
			return cached, nil
		}
	}
	a.metrics.CacheLookups.WithLabelValues(DomainWind, "miss").Inc()

	var m WindMetrics
	var err error

	if client, ok := a.resolver.Client(); ok {
		m, err = a.analyzePrimary(ctx, client, lat, lon)
		if err != nil {
			log.Printf("wind: atlas pipeline failed for (%v, %v): %v", lat, lon, err)
		}
	} else {
		err = fmt.Errorf("primary provider unavailable")
	}

	if err != nil {
		a.metrics.Fallbacks.WithLabelValues(DomainWind).Inc()
		m, err = a.analyzeFallback(ctx, lat, lon)
		if err != nil {
			return WindMetrics{}, fmt.Errorf("wind analysis: %w", err)
		}
	}

	a.cache.Set(DomainWind, lat, lon, m)
	return m, nil
}

// analyzePrimary samples the wind atlas at the point (first-pixel reduction),
// widening to a 1 km mean when the point lands on a nodata pixel.
func (a *WindAnalyzer) analyzePrimary(ctx context.Context, client providers.RasterQuerier, lat, lon float64) (WindMetrics, error) {
	bands := []string{"elevation", "slope", "rix", "cf_iec1", "cf_iec2", "cf_iec3"}
	for _, h := range hubHeights {
		bands = append(bands,
			fmt.Sprintf("ws_%d", h),
			fmt.Sprintf("pd_%d", h),
			fmt.Sprintf("ad_%d", h),
		)
	}

	values, err := client.QueryRegion(ctx, providers.RegionQuery{
		Dataset: "global_wind_atlas",
		Bands:   bands,
		Lat:     lat,
		Lon:     lon,
		Scale:   500,
		Reducer: providers.ReducerFirst,
	})
	if err == nil {
		if _, ok := values["ws_100"]; !ok {
			values, err = client.QueryRegion(ctx, providers.RegionQuery{
				Dataset: "global_wind_atlas",
				Bands:   bands,
				Lat:     lat,
				Lon:     lon,
				BufferM: 1000,
				Scale:   500,
				Reducer: providers.ReducerMean,
			})
		}
	}
	if err != nil {
		a.metrics.ProviderQueries.WithLabelValues("satellite-atlas", "error").Inc()
		return WindMetrics{}, err
	}
	if _, ok := values["ws_100"]; !ok {
		a.metrics.ProviderQueries.WithLabelValues("satellite-atlas", "empty").Inc()
		return WindMetrics{}, fmt.Errorf("no wind atlas coverage at (%v, %v)", lat, lon)
	}
	a.metrics.ProviderQueries.WithLabelValues("satellite-atlas", "success").Inc()

	profile := HeightProfile{Heights: hubHeights}
	for _, h := range hubHeights {
		profile.Speeds = append(profile.Speeds, getBand(values, fmt.Sprintf("ws_%d", h), 3))
		profile.Densities = append(profile.Densities, getBand(values, fmt.Sprintf("pd_%d", h), 2))
		profile.AirDensities = append(profile.AirDensities, getBand(values, fmt.Sprintf("ad_%d", h), 4))
	}

	ws10 := getBand(values, "ws_10", 3)
	ws100 := getBand(values, "ws_100", 3)
	pd100 := getBand(values, "pd_100", 2)
	ad100 := getBand(values, "ad_100", 4)

	terrain := WindTerrain{
		RIX:        getBand(values, "rix", 4),
		ElevationM: getBand(values, "elevation", 1),
		SlopeDeg:   getBand(values, "slope", 2),
	}
	cf := CapacityFactors{
		IEC1: getBand(values, "cf_iec1", 4),
		IEC2: getBand(values, "cf_iec2", 4),
		IEC3: getBand(values, "cf_iec3", 4),
	}

	m := deriveWindMetrics(ws10, ws100, pd100, ad100, terrain, cf)
	m.Profile = profile
	m.Metadata = SourceMetadata{
		Source:      "Global Wind Atlas v3",
		Provider:    "Technical University of Denmark (DTU)",
		Methodology: "Downscaled ERA5 reanalysis via WRF models",
	}
	return m, nil
}

// analyzeFallback derives an equivalent assessment from live hub-height
// observations: 100 m speed is interpolated between the 80 m and 120 m
// measurements, power density follows from ½·ρ·v³, and capacity factors use
// an empirical curve per IEC class.
func (a *WindAnalyzer) analyzeFallback(ctx context.Context, lat, lon float64) (WindMetrics, error) {
	live, err := a.live.LiveWeather(ctx, lat, lon)
	if err != nil {
		a.metrics.ProviderQueries.WithLabelValues("open-meteo", "error").Inc()
		return WindMetrics{}, err
	}
	a.metrics.ProviderQueries.WithLabelValues("open-meteo", "success").Inc()

	ws80, ws120, ws180 := live.WindSpeed80M, live.WindSpeed120M, live.WindSpeed180M
	ad := live.AirDensity120M
	if ad == 0 {
		ad = 1.225
	}

	var ws100 float64
	if ws80 > 0 || ws120 > 0 {
		ws100 = ws80 + (ws120-ws80)*0.5
	}
	pd100 := 0.5 * ad * math.Pow(ws100, 3)

	cf := CapacityFactors{
		IEC1: round(empiricalCapacityFactor(ws100, 13.5), 4),
		IEC2: round(empiricalCapacityFactor(ws100, 11.5), 4),
		IEC3: round(empiricalCapacityFactor(ws100, 9.5), 4),
	}

	m := deriveWindMetrics(ws80, round(ws100, 3), round(pd100, 2), round(ad, 4), WindTerrain{}, cf)

	// The shear exponent from the measured pair is more honest than the
	// 10/100 m atlas formula here.
	if ws80 > 0 && ws120 > 0 {
		m.Physics.ShearAlpha = round(math.Log(ws120/ws80)/math.Log(120.0/80.0), 3)
	}
	m.Profile = HeightProfile{
		Heights: []int{80, 100, 120, 180},
		Speeds:  []float64{ws80, round(ws100, 2), ws120, ws180},
		Densities: []float64{
			round(0.5*ad*math.Pow(ws80, 3), 1),
			round(pd100, 1),
			round(0.5*ad*math.Pow(ws120, 3), 1),
			round(0.5*ad*math.Pow(ws180, 3), 1),
		},
		AirDensities: []float64{ad, ad, ad, ad},
	}
	m.Metadata = SourceMetadata{
		Source:      "open-meteo-live",
		Provider:    "Open-Meteo (live fallback — primary atlas unavailable)",
		Methodology: "Empirical power-law interpolation from hub-height observations",
	}
	return m, nil
}

// deriveWindMetrics computes every derived wind quantity from the sampled
// values. ws10 is the lower reference height used for the shear exponent
// (80 m in the fallback profile).
func deriveWindMetrics(ws10, ws100, pd100, ad100 float64, terrain WindTerrain, cf CapacityFactors) WindMetrics {
	// Hellmann shear exponent; 0.143 is the conventional neutral-atmosphere
	// default when either speed is missing.
	alpha := 0.143
	shearRatio := 0.0
	if ws10 > 0 && ws100 > 0 {
		alpha = round(math.Log(ws100/ws10)/math.Log(10), 3)
		shearRatio = round(ws100/ws10, 3)
	}

	adLossPct := 0.0
	if ad100 < 1.225 && ad100 > 0 {
		adLossPct = round((1.225-ad100)/1.225*100, 2)
	}

	cf.Best = math.Max(cf.IEC1, math.Max(cf.IEC2, cf.IEC3))
	bestIdx := 2 // low-wind class is the safe default
	if cf.Best > 0 {
		for i, v := range []float64{cf.IEC1, cf.IEC2, cf.IEC3} {
			if v == cf.Best {
				bestIdx = i
				break
			}
		}
	}
	cf.BestClass = turbineClassLabels[bestIdx]

	grade, gradeLabel := windGrade(pd100)
	score := windScore(pd100, terrain.RIX, ws100, cf.Best)

	var insights []string
	if ad100 > 0 && ad100 < 1.15 {
		insights = append(insights, fmt.Sprintf(
			"Low air density detected. Expect ~%.1f%% energy loss compared to STP.", adLossPct))
	}
	if terrain.RIX > 0.3 {
		insights = append(insights, "High terrain ruggedness (RIX > 0.3) suggests significant turbulence risk.")
	}
	if terrain.SlopeDeg > 15 {
		insights = append(insights, "Steep terrain (>15°) may complicate turbine installation and access.")
	}
	if len(insights) == 0 {
		insights = append(insights, "Stable site conditions with consistent laminar flow potential.")
	}

	status := "Feasible"
	if terrain.RIX >= 0.5 || terrain.SlopeDeg >= 20 {
		status = "Challenging"
	}

	annualKWh := round(2000*cf.Best*8760, 0)

	return WindMetrics{
		Score:  score,
		Rating: windRating(score),
		Resource: WindResource{
			Grade:             grade,
			Label:             gradeLabel,
			WindSpeed100:      ws100,
			PowerDensity100:   pd100,
			AirDensity100:     ad100,
			AirDensityLossPct: adLossPct,
		},
		CapacityFactors: cf,
		Physics: WindPhysics{
			ShearAlpha: alpha,
			ShearRatio: shearRatio,
			AirDensity: ad100,
		},
		Terrain:     terrain,
		Feasibility: WindFeasibility{Status: status},
		YieldEstimate: YieldEstimate{
			AnnualKWh2MW: annualKWh,
			AnnualMWh2MW: round(annualKWh/1000, 1),
		},
		Insights: insights,
	}
}

// empiricalCapacityFactor approximates the IEC capacity factor for a turbine
// with the given rated wind speed, capped at 0.48.
func empiricalCapacityFactor(ws, rated float64) float64 {
	if ws < 3.0 || ws > 25.0 {
		return 0
	}
	return math.Min(0.48, math.Pow((ws-3.0)/math.Max(rated-3.0, 1), 2.5)*0.48)
}
