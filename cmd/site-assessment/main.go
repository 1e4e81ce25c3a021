package main

import (
	"context"
	"log"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/jonboulle/clockwork"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	httpapi "github.com/renewintel/site-assessment/internal/api/http"
	"github.com/renewintel/site-assessment/internal/assessment"
	"github.com/renewintel/site-assessment/internal/assessment/providers"
	"github.com/renewintel/site-assessment/internal/cache"
	"github.com/renewintel/site-assessment/internal/config"
	"github.com/renewintel/site-assessment/internal/geo"
	"github.com/renewintel/site-assessment/internal/observability"
	"github.com/renewintel/site-assessment/internal/scheduler"
)

func main() {
	// Load configuration (includes .env if present).
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	// Shared HTTP client for outbound provider calls.
	httpClient := &http.Client{
		Timeout: cfg.HTTPTimeout,
	}

	// Persistent coordinate cache.
	store, err := cache.New(cfg.CachePath)
	if err != nil {
		log.Fatalf("failed to open coordinate cache: %v", err)
	}
	defer store.Close()

	metrics := observability.NewMetrics()

	// Primary provider resolver: the atlas client initializes lazily on
	// first use, and a failed init is retried on the next request.
	resolver := providers.NewResolver(func() (providers.RasterQuerier, error) {
		return providers.NewAtlasClient(httpClient, cfg.AtlasBaseURL, cfg.AtlasCredentialPath)
	}, func(available bool) {
		if available {
			metrics.PrimaryUp.Set(1)
		} else {
			metrics.PrimaryUp.Set(0)
		}
	})

	// Fallback providers.
	openMeteo := providers.NewOpenMeteoClient(httpClient, cfg.OpenMeteoBaseURL)
	pvgis := providers.NewPVGISClient(httpClient, cfg.PVGISBaseURL)

	// Domain analyzers.
	wind := assessment.NewWindAnalyzer(store, resolver, openMeteo, metrics)
	solar := assessment.NewSolarAnalyzer(store, resolver, pvgis, metrics)
	water := assessment.NewWaterAnalyzer(store, resolver, openMeteo, metrics)

	gridIndex, err := geo.LoadGridIndex(cfg.GridAssetsPath)
	if err != nil {
		log.Fatalf("failed to load grid assets: %v", err)
	}

	service := assessment.NewService(wind, solar, water, gridIndex, clockwork.NewRealClock(), metrics)

	// Scheduler that keeps the cache warm for configured sites.
	sched := scheduler.New(cfg.PrewarmSites, cfg.PrewarmInterval, service)
	if err := sched.Start(); err != nil {
		log.Fatalf("failed to start scheduler: %v", err)
	}
	defer sched.Stop()

	// Basic app configuration
	app := fiber.New(fiber.Config{
		AppName:               "site-assessment",
		DisableStartupMessage: true,
		ReadTimeout:           10 * time.Second,
		WriteTimeout:          60 * time.Second,
		ErrorHandler: func(c *fiber.Ctx, err error) error {
			// Centralized error response
			code := fiber.StatusInternalServerError
			if e, ok := err.(*fiber.Error); ok {
				code = e.Code
			}
			return c.Status(code).JSON(fiber.Map{
				"error":   true,
				"message": err.Error(),
			})
		},
	})

	// Global middleware
	app.Use(logger.New())
	app.Use(recover.New())

	// Basic health endpoint
	app.Get("/health", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{
			"status":           "ok",
			"service":          "site-assessment",
			"primary_provider": resolver.Available(),
		})
	})

	app.Get("/metrics", adaptor.HTTPHandler(promhttp.Handler()))

	// API routes.
	geocoder := geo.NewGeocoder(cfg.GeocoderAPIKey)
	httpapi.RegisterRoutes(app, service, openMeteo, geocoder)

	// Start server with graceful shutdown
	go func() {
		if err := app.Listen(":" + cfg.Port); err != nil {
			log.Printf("fiber server stopped: %v", err)
		}
	}()

	// Wait for termination signal
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	<-ctx.Done()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := app.ShutdownWithContext(shutdownCtx); err != nil {
		log.Printf("error during shutdown: %v", err)
	}
}
