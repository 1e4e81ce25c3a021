package assessment

import (
	"context"
	"encoding/json"
	"fmt"
	"log"

	"github.com/renewintel/site-assessment/internal/assessment/providers"
	"github.com/renewintel/site-assessment/internal/common"
	"github.com/renewintel/site-assessment/internal/observability"
)

// WaterAnalyzer fuses seven independent hydrology signals into a single
// availability score. Each signal is queried separately so a gap in one
// product (a common occurrence over oceans and high latitudes) only zeroes
// its own section.
type WaterAnalyzer struct {
	cache     Cache
	resolver  *providers.Resolver
	hydrology HydrologySource
	metrics   *observability.Metrics
}

func NewWaterAnalyzer(cache Cache, resolver *providers.Resolver, hydrology HydrologySource, metrics *observability.Metrics) *WaterAnalyzer {
	return &WaterAnalyzer{cache: cache, resolver: resolver, hydrology: hydrology, metrics: metrics}
}

func (a *WaterAnalyzer) Analyze(ctx context.Context, lat, lon float64) (WaterMetrics, error) {
	lat, lon = common.Round4(lat), common.Round4(lon)

	if raw, ok := a.cache.Get(DomainWater, lat, lon); ok {
		var cached WaterMetrics
		if err := json.Unmarshal(raw, &cached); err == nil {
			a.metrics.CacheLookups.WithLabelValues(DomainWater, "hit").Inc()
			return cached, nil
		}
	}
	a.metrics.CacheLookups.WithLabelValues(DomainWater, "miss").Inc()

	var m WaterMetrics
	var err error

	if client, ok := a.resolver.Client(); ok {
		m = a.analyzePrimary(ctx, client, lat, lon)
	} else {
		err = fmt.Errorf("primary provider unavailable")
	}

	if err != nil {
		a.metrics.Fallbacks.WithLabelValues(DomainWater).Inc()
		m, err = a.analyzeFallback(ctx, lat, lon)
		if err != nil {
			return WaterMetrics{}, fmt.Errorf("water analysis: %w", err)
		}
	}

	a.cache.Set(DomainWater, lat, lon, m)
	return m, nil
}

// query runs one hydrology signal query, logging and counting failures.
// A nil map means the section keeps its zero values.
func (a *WaterAnalyzer) query(ctx context.Context, client providers.RasterQuerier, signal string, q providers.RegionQuery) map[string]float64 {
	values, err := client.QueryRegion(ctx, q)
	if err != nil {
		a.metrics.ProviderQueries.WithLabelValues("satellite-atlas", "error").Inc()
		log.Printf("water: %s query failed for (%v, %v): %v", signal, q.Lat, q.Lon, err)
		return nil
	}
	a.metrics.ProviderQueries.WithLabelValues("satellite-atlas", "success").Inc()
	return values
}

func (a *WaterAnalyzer) analyzePrimary(ctx context.Context, client providers.RasterQuerier, lat, lon float64) WaterMetrics {
	var m WaterMetrics

	precip := a.query(ctx, client, "precipitation", providers.RegionQuery{
		Dataset: "chirps_daily",
		Bands:   []string{"precipitation"},
		Lat:     lat, Lon: lon,
		BufferM: 20000, Scale: 5500, Reducer: providers.ReducerMean,
	})
	daily := getBand(precip, "precipitation", 3)
	m.Precipitation = Precipitation{
		DailyMM:  daily,
		AnnualMM: round(daily*365, 1),
		Period:   "2019-2024",
	}

	surface := a.query(ctx, client, "surface water", providers.RegionQuery{
		Dataset: "jrc_surface_water",
		Bands:   []string{"occurrence", "seasonality", "max_extent"},
		Lat:     lat, Lon: lon,
		BufferM: 20000, Scale: 100, Reducer: providers.ReducerMean,
	})
	m.SurfaceWater = SurfaceWater{
		OccurrencePct:     getBand(surface, "occurrence", 2),
		SeasonalityMonths: getBand(surface, "seasonality", 2),
		MaxExtentFraction: getBand(surface, "max_extent", 4),
	}
	m.SurfaceWater.FloodRisk = floodLabel(m.SurfaceWater.MaxExtentFraction)

	soil := a.query(ctx, client, "soil moisture", providers.RegionQuery{
		Dataset: "gldas_noah_monthly",
		Bands: []string{
			"SoilMoi0_10cm_inst", "SoilMoi10_40cm_inst",
			"SoilMoi40_100cm_inst", "RootMoist_inst",
		},
		Lat: lat, Lon: lon,
		BufferM: 5000, Scale: 25000, Reducer: providers.ReducerMean,
	})
	m.SoilMoisture = SoilMoisture{
		Layer0To10CM:   getBand(soil, "SoilMoi0_10cm_inst", 2),
		Layer10To40CM:  getBand(soil, "SoilMoi10_40cm_inst", 2),
		Layer40To100CM: getBand(soil, "SoilMoi40_100cm_inst", 2),
		RootZone:       getBand(soil, "RootMoist_inst", 2),
	}

	balance := a.query(ctx, client, "water balance", providers.RegionQuery{
		Dataset: "terraclimate_monthly",
		Bands:   []string{"pdsi", "def", "aet", "soil", "ro"},
		Lat:     lat, Lon: lon,
		BufferM: 20000, Scale: 4000, Reducer: providers.ReducerMean,
	})
	// TerraClimate scale factors: PDSI ×0.01, water fluxes ×0.1 mm.
	pdsi := round(getBand(balance, "pdsi", 4)/100, 2)
	deficit := round(getBand(balance, "def", 4)*0.1, 1)
	aet := round(getBand(balance, "aet", 4)*0.1, 1)
	runoff := round(getBand(balance, "ro", 4)*0.1, 1)
	m.WaterBalance = WaterBalance{
		PDSI:             pdsi,
		PDSILabel:        droughtLabel(pdsi),
		DeficitMMMonth:   deficit,
		DeficitLabel:     deficitLabel(deficit),
		ActualETMMMonth:  aet,
		ActualETAnnualMM: round(aet*12, 1),
		SoilMoistureMM:   round(getBand(balance, "soil", 4)*0.1, 1),
		RunoffMMMonth:    runoff,
		RunoffAnnualMM:   round(runoff*12, 1),
	}

	et := a.query(ctx, client, "evapotranspiration", providers.RegionQuery{
		Dataset: "modis_et_8day",
		Bands:   []string{"ET"},
		Lat:     lat, Lon: lon,
		BufferM: 20000, Scale: 500, Reducer: providers.ReducerMean,
	})
	et8 := round(getBand(et, "ET", 4)*0.1, 2)
	m.Evapotranspiration = Evapotranspiration{
		ETKgM2Per8Day: et8,
		ETMonthlyEst:  round(et8*30/8, 1),
		ETAnnualEstMM: round(et8*365/8, 1),
	}

	grace := a.query(ctx, client, "groundwater", providers.RegionQuery{
		Dataset: "grace_mascon",
		Bands:   []string{"lwe_thickness", "uncertainty"},
		Lat:     lat, Lon: lon,
		BufferM: 50000, Scale: 55660, Reducer: providers.ReducerMean,
	})
	lwe := getBand(grace, "lwe_thickness", 2)
	trend := "Recharge/Stable"
	if lwe < 0 {
		trend = "Depletion"
	}
	m.Groundwater = Groundwater{
		LWEThicknessCM: lwe,
		UncertaintyCM:  getBand(grace, "uncertainty", 2),
		StatusLabel:    groundwaterLabel(lwe),
		Trend:          trend,
	}

	ndwiValues := a.query(ctx, client, "water index", providers.RegionQuery{
		Dataset: "landsat9_ndwi",
		Bands:   []string{"ndwi", "scene_count"},
		Lat:     lat, Lon: lon,
		BufferM: 5000, Scale: 30, Reducer: providers.ReducerMean,
	})
	scenes := int(getBand(ndwiValues, "scene_count", 0))
	ndwi := 0.0
	if scenes > 0 {
		ndwi = getBand(ndwiValues, "ndwi", 4)
	}
	m.WaterIndex = WaterIndex{
		NDWI:       ndwi,
		Label:      ndwiLabel(ndwi),
		ScenesUsed: scenes,
		Period:     "2022-2024",
	}

	m.Score = waterScore(daily, lwe, deficit, m.SoilMoisture.Layer0To10CM, m.SurfaceWater.OccurrencePct)
	m.Rating = waterRating(m.Score)
	m.Metadata = SourceMetadata{
		Source:   "Multi-sensor hydrology fusion",
		Provider: "CHIRPS / JRC GSW / GLDAS / TerraClimate / MODIS / GRACE-FO / Landsat 9",
	}
	return m
}

// analyzeFallback estimates availability from forecast-model hydrology only:
// reference evapotranspiration and recent precipitation, blended 40/60.
func (a *WaterAnalyzer) analyzeFallback(ctx context.Context, lat, lon float64) (WaterMetrics, error) {
	h, err := a.hydrology.Hydrology(ctx, lat, lon)
	if err != nil {
		a.metrics.ProviderQueries.WithLabelValues("open-meteo", "error").Inc()
		return WaterMetrics{}, err
	}
	a.metrics.ProviderQueries.WithLabelValues("open-meteo", "success").Inc()

	etNorm := common.Clamp((1-h.ET0DailyMM/10)*100, 0, 100)
	precipNorm := common.Clamp(h.PrecipDailyMM/20*100, 0, 100)
	score := round(etNorm*0.4+precipNorm*0.6, 1)

	// Volumetric fractions over a 1 m column, expressed in mm.
	soilMM := (h.SoilMoist0To1 + h.SoilMoist1To3 + h.SoilMoist3To9 + h.SoilMoist9To27) * 250

	m := WaterMetrics{
		Score:  score,
		Rating: waterRating(score),
		Precipitation: Precipitation{
			DailyMM:  round(h.PrecipDailyMM, 3),
			AnnualMM: round(h.PrecipDailyMM*365, 1),
			Period:   "forecast-model current",
		},
		SoilMoisture: SoilMoisture{
			Layer0To10CM: round(soilMM, 2),
			RootZone:     round(soilMM, 2),
		},
		WaterBalance: WaterBalance{
			ActualETMMMonth:  round(h.ET0DailyMM*30, 1),
			ActualETAnnualMM: round(h.ET0DailyMM*365, 1),
			PDSILabel:        droughtLabel(0),
			DeficitLabel:     deficitLabel(0),
		},
		Groundwater: Groundwater{
			StatusLabel: groundwaterLabel(0),
			Trend:       "Recharge/Stable",
		},
		WaterIndex: WaterIndex{
			Label:  ndwiLabel(0),
			Period: "2022-2024",
		},
		Metadata: SourceMetadata{
			Source:   "open-meteo-hydrology",
			Provider: "Open-Meteo forecast model (fallback — primary atlas unavailable)",
		},
	}
	m.SurfaceWater.FloodRisk = floodLabel(0)
	return m, nil
}
