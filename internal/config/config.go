package config

import (
	"fmt"
	"log"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// PrewarmSite is one location the scheduler keeps warm in the cache.
type PrewarmSite struct {
	Lat float64
	Lon float64
}

type AppConfig struct {
	// Primary provider: the satellite raster atlas service.
	AtlasBaseURL        string
	AtlasCredentialPath string

	// Fallback providers.
	OpenMeteoBaseURL string
	PVGISBaseURL     string

	// Shared outbound HTTP timeout.
	HTTPTimeout time.Duration

	// Coordinate cache database file.
	CachePath string

	// Optional geocoding support.
	GeocoderAPIKey string

	// Optional grid interconnection asset list (JSON file).
	GridAssetsPath string

	// Sites the scheduler re-assesses periodically, as "lat,lon;lat,lon".
	PrewarmSites    []PrewarmSite
	PrewarmInterval time.Duration

	Port string
}

// Load reads configuration from environment with sensible defaults.
func Load() (*AppConfig, error) {
	if err := godotenv.Load(); err != nil {
		log.Printf("INFO: No .env file found or error loading it: %v", err)
	}
	cfg := &AppConfig{}

	cfg.AtlasBaseURL = getenvDefault("ATLAS_BASE_URL", "https://earthengine.googleapis.com")
	cfg.AtlasCredentialPath = os.Getenv("ATLAS_CREDENTIALS")

	cfg.OpenMeteoBaseURL = getenvDefault("OPENMETEO_BASE_URL", "https://api.open-meteo.com")
	cfg.PVGISBaseURL = getenvDefault("PVGIS_BASE_URL", "https://re.jrc.ec.europa.eu")

	timeoutStr := getenvDefault("HTTP_TIMEOUT", "15s")
	timeout, err := time.ParseDuration(timeoutStr)
	if err != nil {
		return nil, fmt.Errorf("invalid HTTP_TIMEOUT: %w", err)
	}
	cfg.HTTPTimeout = timeout

	cfg.CachePath = getenvDefault("CACHE_PATH", "geo_cache.db")
	cfg.GeocoderAPIKey = os.Getenv("GEOCODER_API_KEY")
	cfg.GridAssetsPath = os.Getenv("GRID_ASSETS_PATH")

	sites, err := parsePrewarmSites(os.Getenv("PREWARM_SITES"))
	if err != nil {
		return nil, err
	}
	cfg.PrewarmSites = sites

	intervalStr := getenvDefault("PREWARM_INTERVAL", "12h")
	interval, err := time.ParseDuration(intervalStr)
	if err != nil {
		return nil, fmt.Errorf("invalid PREWARM_INTERVAL: %w", err)
	}
	cfg.PrewarmInterval = interval

	cfg.Port = getenvDefault("PORT", "8080")

	return cfg, nil
}

// parsePrewarmSites parses "lat,lon;lat,lon". An empty value means no
// prewarming.
func parsePrewarmSites(raw string) ([]PrewarmSite, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return nil, nil
	}
	var sites []PrewarmSite
	for _, pair := range strings.Split(raw, ";") {
		pair = strings.TrimSpace(pair)
		if pair == "" {
			continue
		}
		parts := strings.Split(pair, ",")
		if len(parts) != 2 {
			return nil, fmt.Errorf("invalid PREWARM_SITES entry %q: want lat,lon", pair)
		}
		lat, err := strconv.ParseFloat(strings.TrimSpace(parts[0]), 64)
		if err != nil {
			return nil, fmt.Errorf("invalid PREWARM_SITES latitude %q: %w", parts[0], err)
		}
		lon, err := strconv.ParseFloat(strings.TrimSpace(parts[1]), 64)
		if err != nil {
			return nil, fmt.Errorf("invalid PREWARM_SITES longitude %q: %w", parts[1], err)
		}
		sites = append(sites, PrewarmSite{Lat: lat, Lon: lon})
	}
	return sites, nil
}

func getenvDefault(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}
