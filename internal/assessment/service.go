package assessment

import (
	"context"
	"fmt"
	"log"
	"sync"

	"github.com/jonboulle/clockwork"

	"github.com/renewintel/site-assessment/internal/common"
	"github.com/renewintel/site-assessment/internal/observability"
)

// WindSource, SolarSource and WaterSource are the per-domain analyzer
// contracts the orchestrator fans out to.
type WindSource interface {
	Analyze(ctx context.Context, lat, lon float64) (WindMetrics, error)
}

type SolarSource interface {
	Analyze(ctx context.Context, lat, lon float64) (SolarMetrics, error)
}

type WaterSource interface {
	Analyze(ctx context.Context, lat, lon float64) (WaterMetrics, error)
}

// GridProximity locates the nearest known grid interconnection asset.
type GridProximity interface {
	Nearest(lat, lon float64) (name string, distanceKM float64, ok bool)
}

// Service runs the three domain analyzers concurrently and folds their
// results into a composite verdict. A failed or panicking analyzer
// contributes zero metrics; the service itself never returns an error.
type Service struct {
	wind    WindSource
	solar   SolarSource
	water   WaterSource
	grid    GridProximity
	clock   clockwork.Clock
	metrics *observability.Metrics
}

func NewService(wind WindSource, solar SolarSource, water WaterSource, grid GridProximity, clock clockwork.Clock, metrics *observability.Metrics) *Service {
	return &Service{wind: wind, solar: solar, water: water, grid: grid, clock: clock, metrics: metrics}
}

// Assess produces the composite site assessment for a point. The three
// analyzers run in parallel; each failure is contained to its own branch.
func (s *Service) Assess(ctx context.Context, lat, lon float64) CompositeAssessment {
	started := s.clock.Now()
	lat, lon = common.Round4(lat), common.Round4(lon)

	var (
		wg    sync.WaitGroup
		wind  WindMetrics
		solar SolarMetrics
		water WaterMetrics
	)

	wg.Add(3)
	go func() {
		defer wg.Done()
		defer recoverAnalyzer(DomainWind)
		m, err := s.wind.Analyze(ctx, lat, lon)
		if err != nil {
			log.Printf("assess: wind analyzer failed for (%v, %v): %v", lat, lon, err)
			return
		}
		wind = m
	}()
	go func() {
		defer wg.Done()
		defer recoverAnalyzer(DomainSolar)
		m, err := s.solar.Analyze(ctx, lat, lon)
		if err != nil {
			log.Printf("assess: solar analyzer failed for (%v, %v): %v", lat, lon, err)
			return
		}
		solar = m
	}()
	go func() {
		defer wg.Done()
		defer recoverAnalyzer(DomainWater)
		m, err := s.water.Analyze(ctx, lat, lon)
		if err != nil {
			log.Printf("assess: water analyzer failed for (%v, %v): %v", lat, lon, err)
			return
		}
		water = m
	}()
	wg.Wait()

	overall := compositeScore(solar.Score, wind.Score, water.Score)

	assessment := CompositeAssessment{
		Wind:  wind,
		Solar: solar,
		Water: water,
		Suitability: Suitability{
			OverallScore: overall,
			Rating:       compositeRating(overall),
			Insights:     s.insights(lat, lon, wind, solar, water),
			Components: map[string]float64{
				DomainWind:  wind.Score,
				DomainSolar: solar.Score,
				DomainWater: water.Score,
			},
		},
		Location:  Location{Lat: lat, Lon: lon},
		Timestamp: s.clock.Now().UTC(),
	}

	s.metrics.AssessmentsTotal.Inc()
	s.metrics.AssessmentDuration.Observe(s.clock.Since(started).Seconds())
	return assessment
}

func recoverAnalyzer(domain string) {
	if r := recover(); r != nil {
		log.Printf("assess: %s analyzer panicked: %v", domain, r)
	}
}

// insights applies the rule ladder over the three domain scores plus terrain
// and grid context. Rules are ordered; the hybrid rule wins over the
// single-domain ones.
func (s *Service) insights(lat, lon float64, wind WindMetrics, solar SolarMetrics, water WaterMetrics) []string {
	out := make([]string, 0, 4)

	switch {
	case wind.Score > 60 && solar.Score > 60:
		out = append(out, "Prime Hybrid Site: strong co-located wind and solar resource supports shared infrastructure")
	case wind.Score > 70:
		out = append(out, "Wind-dominant site: prioritize turbine layout and hub-height optimization")
	case solar.Score > 70:
		out = append(out, "Solar-dominant site: prioritize PV array sizing and tilt optimization")
	}

	switch {
	case water.Score < 30:
		out = append(out, "Critical Resource Sync: water scarcity constrains panel washing and construction logistics")
	case water.Score > 70:
		out = append(out, "Hydrological Buffer: abundant water supports hybrid storage and O&M demands")
	}

	if wind.Terrain.SlopeDeg > 15 {
		out = append(out, fmt.Sprintf("Terrain slope of %.1f° will require additional civil works for access roads and foundations", wind.Terrain.SlopeDeg))
	}

	if s.grid != nil {
		if name, km, ok := s.grid.Nearest(lat, lon); ok && km <= 25 {
			out = append(out, fmt.Sprintf("Grid interconnection candidate: %s within %.1f km", name, km))
		}
	}
	return out
}
