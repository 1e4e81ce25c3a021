package providers

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strconv"

	"github.com/sony/gobreaker"
)

// LiveWeather is one hour of multi-height atmospheric observations, the raw
// material for the fallback wind pipeline.
type LiveWeather struct {
	WindSpeed80M    float64 `json:"wind_speed_80m"`
	WindSpeed120M   float64 `json:"wind_speed_120m"`
	WindSpeed180M   float64 `json:"wind_speed_180m"`
	WindDir80M      float64 `json:"wind_direction_80m"`
	WindDir120M     float64 `json:"wind_direction_120m"`
	WindDir180M     float64 `json:"wind_direction_180m"`
	Temperature120M float64 `json:"temperature_120m"`
	AirDensity120M  float64 `json:"air_density_120m"`
	PressureMSL     float64 `json:"pressure_msl"`
	HumidityPct     float64 `json:"humidity"`
	PrecipitationMM float64 `json:"precipitation"`
	CloudCoverPct   float64 `json:"cloud_cover"`
	VisibilityKM    float64 `json:"visibility"`
	ApparentTempC   float64 `json:"apparent_temp"`
}

// Hydrology is the daily water-cycle snapshot used by the fallback water
// pipeline: reference evapotranspiration, precipitation and layered soil
// moisture.
type Hydrology struct {
	ET0DailyMM     float64 `json:"et0_daily_mm"`
	PrecipDailyMM  float64 `json:"precip_daily_mm"`
	SoilMoist0To1  float64 `json:"soil_moisture_0_1cm"`
	SoilMoist1To3  float64 `json:"soil_moisture_1_3cm"`
	SoilMoist3To9  float64 `json:"soil_moisture_3_9cm"`
	SoilMoist9To27 float64 `json:"soil_moisture_9_27cm"`
}

// OpenMeteoClient fetches live short-range weather and hydrology for a point.
// No API key is required.
type OpenMeteoClient struct {
	name    string
	baseURL string
	httpCfg HTTPClientConfig
	circuit *gobreaker.CircuitBreaker
}

func NewOpenMeteoClient(client *http.Client, baseURL string) *OpenMeteoClient {
	return &OpenMeteoClient{
		name:    "open-meteo",
		baseURL: baseURL,
		httpCfg: defaultBackoff(client),
		circuit: newBreaker("open-meteo"),
	}
}

func (c *OpenMeteoClient) Name() string {
	return c.name
}

// LiveWeather returns the first forecast hour of hub-height wind, temperature
// and pressure. Air density at 120 m is derived from the ideal gas law.
func (c *OpenMeteoClient) LiveWeather(ctx context.Context, lat, lon float64) (LiveWeather, error) {
	values := url.Values{}
	values.Set("latitude", formatCoord(lat))
	values.Set("longitude", formatCoord(lon))
	values.Set("hourly",
		"wind_speed_80m,wind_speed_120m,wind_speed_180m,"+
			"wind_direction_80m,wind_direction_120m,wind_direction_180m,"+
			"temperature_120m,pressure_msl,relative_humidity_2m,"+
			"precipitation,cloud_cover,visibility,apparent_temperature")
	values.Set("wind_speed_unit", "ms")
	values.Set("forecast_days", "1")

	var payload struct {
		Hourly struct {
			WindSpeed80   []float64 `json:"wind_speed_80m"`
			WindSpeed120  []float64 `json:"wind_speed_120m"`
			WindSpeed180  []float64 `json:"wind_speed_180m"`
			WindDir80     []float64 `json:"wind_direction_80m"`
			WindDir120    []float64 `json:"wind_direction_120m"`
			WindDir180    []float64 `json:"wind_direction_180m"`
			Temperature   []float64 `json:"temperature_120m"`
			PressureMSL   []float64 `json:"pressure_msl"`
			Humidity      []float64 `json:"relative_humidity_2m"`
			Precipitation []float64 `json:"precipitation"`
			CloudCover    []float64 `json:"cloud_cover"`
			Visibility    []float64 `json:"visibility"`
			ApparentTemp  []float64 `json:"apparent_temperature"`
		} `json:"hourly"`
	}
	if err := c.getJSON(ctx, "/v1/forecast", values, &payload); err != nil {
		return LiveWeather{}, err
	}

	h := payload.Hourly
	temp120 := first(h.Temperature)
	pressMSL := first(h.PressureMSL)

	// Ideal gas law, R = 287.05 J/(kg·K); pressure arrives in hPa.
	airDensity := 1.225
	if denom := temp120 + 273.15; denom != 0 {
		airDensity = (pressMSL * 100) / (287.05 * denom)
	}

	return LiveWeather{
		WindSpeed80M:    first(h.WindSpeed80),
		WindSpeed120M:   first(h.WindSpeed120),
		WindSpeed180M:   first(h.WindSpeed180),
		WindDir80M:      first(h.WindDir80),
		WindDir120M:     first(h.WindDir120),
		WindDir180M:     first(h.WindDir180),
		Temperature120M: temp120,
		AirDensity120M:  airDensity,
		PressureMSL:     pressMSL,
		HumidityPct:     first(h.Humidity),
		PrecipitationMM: first(h.Precipitation),
		CloudCoverPct:   first(h.CloudCover),
		VisibilityKM:    first(h.Visibility) / 1000,
		ApparentTempC:   first(h.ApparentTemp),
	}, nil
}

// Hydrology returns today's evapotranspiration, precipitation and soil
// moisture profile for the fallback water pipeline.
func (c *OpenMeteoClient) Hydrology(ctx context.Context, lat, lon float64) (Hydrology, error) {
	values := url.Values{}
	values.Set("latitude", formatCoord(lat))
	values.Set("longitude", formatCoord(lon))
	values.Set("daily", "et0_fao_evapotranspiration,precipitation_sum")
	values.Set("hourly",
		"soil_moisture_0_to_1cm,soil_moisture_1_to_3cm,"+
			"soil_moisture_3_to_9cm,soil_moisture_9_to_27cm")
	values.Set("forecast_days", "1")

	var payload struct {
		Daily struct {
			ET0    []float64 `json:"et0_fao_evapotranspiration"`
			Precip []float64 `json:"precipitation_sum"`
		} `json:"daily"`
		Hourly struct {
			Soil0To1  []float64 `json:"soil_moisture_0_to_1cm"`
			Soil1To3  []float64 `json:"soil_moisture_1_to_3cm"`
			Soil3To9  []float64 `json:"soil_moisture_3_to_9cm"`
			Soil9To27 []float64 `json:"soil_moisture_9_to_27cm"`
		} `json:"hourly"`
	}
	if err := c.getJSON(ctx, "/v1/forecast", values, &payload); err != nil {
		return Hydrology{}, err
	}

	return Hydrology{
		ET0DailyMM:     first(payload.Daily.ET0),
		PrecipDailyMM:  first(payload.Daily.Precip),
		SoilMoist0To1:  first(payload.Hourly.Soil0To1),
		SoilMoist1To3:  first(payload.Hourly.Soil1To3),
		SoilMoist3To9:  first(payload.Hourly.Soil3To9),
		SoilMoist9To27: first(payload.Hourly.Soil9To27),
	}, nil
}

func (c *OpenMeteoClient) getJSON(ctx context.Context, path string, values url.Values, out any) error {
	buildRequest := func() (*http.Request, error) {
		u := fmt.Sprintf("%s%s?%s", c.baseURL, path, values.Encode())
		return http.NewRequest(http.MethodGet, u, nil)
	}

	resp, err := doRequestWithResilience(ctx, c.httpCfg, c.circuit, buildRequest)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	return json.NewDecoder(resp.Body).Decode(out)
}

func first(vals []float64) float64 {
	if len(vals) == 0 {
		return 0
	}
	return vals[0]
}

func formatCoord(v float64) string {
	return strconv.FormatFloat(v, 'f', 4, 64)
}
