package scheduler

import (
	"context"
	"log"
	"sync"
	"time"

	"github.com/go-co-op/gocron"

	"github.com/renewintel/site-assessment/internal/assessment"
	"github.com/renewintel/site-assessment/internal/config"
)

// Assessor is the orchestrator entry point the prewarm job drives.
type Assessor interface {
	Assess(ctx context.Context, lat, lon float64) assessment.CompositeAssessment
}

// Scheduler periodically re-assesses the configured sites so the coordinate
// cache stays warm for the locations that matter most.
type Scheduler struct {
	scheduler *gocron.Scheduler
	service   Assessor
	sites     []config.PrewarmSite
	interval  time.Duration
}

// New creates a new Scheduler.
func New(sites []config.PrewarmSite, interval time.Duration, service Assessor) *Scheduler {
	s := gocron.NewScheduler(time.UTC)
	return &Scheduler{
		scheduler: s,
		service:   service,
		sites:     sites,
		interval:  interval,
	}
}

// Start schedules the periodic prewarm job and starts the underlying
// scheduler.
func (s *Scheduler) Start() error {
	if len(s.sites) == 0 {
		log.Println("scheduler: no prewarm sites configured; nothing to schedule")
		return nil
	}

	minutes := int(s.interval.Minutes())
	if minutes <= 0 {
		minutes = 720
	}

	_, err := s.scheduler.Every(minutes).Minutes().Do(func() {
		log.Println("scheduler: running cache prewarm job")

		var wg sync.WaitGroup
		for _, site := range s.sites {
			site := site
			wg.Add(1)
			go func() {
				defer wg.Done()

				ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
				defer cancel()

				s.service.Assess(ctx, site.Lat, site.Lon)
			}()
		}
		wg.Wait()
		log.Println("scheduler: completed cache prewarm job")
	})
	if err != nil {
		return err
	}

	s.scheduler.StartAsync()
	return nil
}

// Stop stops the scheduler and cancels any future jobs.
func (s *Scheduler) Stop() {
	if s.scheduler != nil {
		s.scheduler.Stop()
	}
}
