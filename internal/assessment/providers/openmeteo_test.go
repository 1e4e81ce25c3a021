package providers

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLiveWeatherParsesFirstHour(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v1/forecast", r.URL.Path)
		q := r.URL.Query()
		assert.Equal(t, "ms", q.Get("wind_speed_unit"))
		assert.Equal(t, "1", q.Get("forecast_days"))
		assert.Equal(t, "40.4168", q.Get("latitude"))

		w.Write([]byte(`{
			"hourly": {
				"wind_speed_80m": [6.0, 6.4],
				"wind_speed_120m": [7.0, 7.3],
				"wind_speed_180m": [7.6, 7.9],
				"wind_direction_80m": [270, 275],
				"wind_direction_120m": [272, 276],
				"wind_direction_180m": [274, 277],
				"temperature_120m": [12.0, 11.5],
				"pressure_msl": [1013.0, 1012.5],
				"relative_humidity_2m": [62, 64],
				"precipitation": [0.0, 0.2],
				"cloud_cover": [40, 45],
				"visibility": [24000, 22000],
				"apparent_temperature": [10.8, 10.2]
			}
		}`))
	}))
	defer server.Close()

	client := NewOpenMeteoClient(server.Client(), server.URL)
	obs, err := client.LiveWeather(context.Background(), 40.4168, -3.7038)
	require.NoError(t, err)

	assert.Equal(t, 6.0, obs.WindSpeed80M)
	assert.Equal(t, 7.0, obs.WindSpeed120M)
	assert.Equal(t, 7.6, obs.WindSpeed180M)
	assert.Equal(t, 270.0, obs.WindDir80M)
	assert.Equal(t, 12.0, obs.Temperature120M)
	assert.Equal(t, 1013.0, obs.PressureMSL)
	assert.Equal(t, 24.0, obs.VisibilityKM)

	// ρ = p / (R·T) = 101300 / (287.05 · 285.15) ≈ 1.238 kg/m³.
	assert.InDelta(t, 1.238, obs.AirDensity120M, 0.001)
}

func TestLiveWeatherEmptySeriesDefaults(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"hourly": {}}`))
	}))
	defer server.Close()

	client := NewOpenMeteoClient(server.Client(), server.URL)
	obs, err := client.LiveWeather(context.Background(), 0, 0)
	require.NoError(t, err)

	assert.Zero(t, obs.WindSpeed80M)
	// Missing pressure yields a zero density; the wind fallback substitutes
	// the 1.225 kg/m³ standard atmosphere downstream.
	assert.Zero(t, obs.AirDensity120M)
}

func TestHydrologyParsesDailyAndSoil(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		q := r.URL.Query()
		assert.Contains(t, q.Get("daily"), "et0_fao_evapotranspiration")
		assert.Contains(t, q.Get("hourly"), "soil_moisture_0_to_1cm")

		w.Write([]byte(`{
			"daily": {
				"et0_fao_evapotranspiration": [4.2],
				"precipitation_sum": [1.8]
			},
			"hourly": {
				"soil_moisture_0_to_1cm": [0.31],
				"soil_moisture_1_to_3cm": [0.29],
				"soil_moisture_3_to_9cm": [0.27],
				"soil_moisture_9_to_27cm": [0.25]
			}
		}`))
	}))
	defer server.Close()

	client := NewOpenMeteoClient(server.Client(), server.URL)
	h, err := client.Hydrology(context.Background(), 40.0, -3.0)
	require.NoError(t, err)

	assert.Equal(t, 4.2, h.ET0DailyMM)
	assert.Equal(t, 1.8, h.PrecipDailyMM)
	assert.Equal(t, 0.31, h.SoilMoist0To1)
	assert.Equal(t, 0.25, h.SoilMoist9To27)
}

func TestPVGISSolarClimatology(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/v5_2/PVcalc", r.URL.Path)
		q := r.URL.Query()
		assert.Equal(t, "1", q.Get("peakpower"))
		assert.Equal(t, "14", q.Get("loss"))
		assert.Equal(t, "json", q.Get("outputformat"))

		w.Write([]byte(`{
			"outputs": {
				"totals": {"fixed": {"H(i)_y": 1850.2, "E_y": 1520.8}},
				"monthly": {"fixed": [
					{"H(i)_m": 93}, {"H(i)_m": 108}, {"H(i)_m": 126},
					{"H(i)_m": 138}, {"H(i)_m": 150}, {"H(i)_m": 162},
					{"H(i)_m": 168}, {"H(i)_m": 159}, {"H(i)_m": 141},
					{"H(i)_m": 117}, {"H(i)_m": 96}, {"H(i)_m": 87}
				]}
			}
		}`))
	}))
	defer server.Close()

	client := NewPVGISClient(server.Client(), server.URL)
	clim, err := client.SolarClimatology(context.Background(), 40.4168, -3.7038)
	require.NoError(t, err)

	assert.Equal(t, 1850.2, clim.GHIYear)
	assert.Equal(t, 1520.8, clim.PVOutYear)
	require.Len(t, clim.MonthlyGHI, 12)
	assert.Equal(t, 168.0, clim.MonthlyGHI[6])
}

func TestPVGISRebuildsAnnualFromMonthly(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{
			"outputs": {
				"totals": {"fixed": {"E_y": 1400}},
				"monthly": {"fixed": [
					{"H(i)_m": 100}, {"H(i)_m": 120}, {"H(i)_m": 140}
				]}
			}
		}`))
	}))
	defer server.Close()

	client := NewPVGISClient(server.Client(), server.URL)
	clim, err := client.SolarClimatology(context.Background(), 40.0, -3.0)
	require.NoError(t, err)

	assert.Equal(t, 360.0, clim.GHIYear, "annual total rebuilt as sum of monthly values")
}
