package httpapi

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gofiber/fiber/v2"

	"github.com/renewintel/site-assessment/internal/assessment"
	"github.com/renewintel/site-assessment/internal/assessment/providers"
	"github.com/renewintel/site-assessment/internal/geo"
)

type stubAssessor struct {
	last assessment.CompositeAssessment
}

func (s *stubAssessor) Assess(_ context.Context, lat, lon float64) assessment.CompositeAssessment {
	s.last.Location = assessment.Location{Lat: lat, Lon: lon}
	s.last.Suitability.Rating = assessment.RatingViable
	return s.last
}

type stubLive struct {
	err error
}

func (s stubLive) LiveWeather(context.Context, float64, float64) (providers.LiveWeather, error) {
	return providers.LiveWeather{WindSpeed120M: 7.2}, s.err
}

type stubGeocoder struct {
	err error
}

func (s stubGeocoder) Forward(query string) (geo.GeocodeResult, error) {
	if s.err != nil {
		return geo.GeocodeResult{}, s.err
	}
	return geo.GeocodeResult{Query: query, Lat: 40.4168, Lon: -3.7038}, nil
}

func newTestApp() *fiber.App {
	app := fiber.New()
	RegisterRoutes(app, &stubAssessor{}, stubLive{}, stubGeocoder{})
	return app
}

func postJSON(t *testing.T, app *fiber.App, path, body string) *http.Response {
	t.Helper()
	req := httptest.NewRequest(http.MethodPost, path, bytes.NewBufferString(body))
	req.Header.Set("Content-Type", "application/json")
	resp, err := app.Test(req)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	return resp
}

// TestAnalyzeCoordinateValidation verifies that the analyze endpoint enforces
// the WGS84 coordinate ranges and the presence of both fields.
func TestAnalyzeCoordinateValidation(t *testing.T) {
	app := newTestApp()

	cases := []struct {
		name string
		body string
		want int
	}{
		{"valid", `{"lat": 40.4168, "lon": -3.7038}`, http.StatusOK},
		{"zero coordinates are legal", `{"lat": 0, "lon": 0}`, http.StatusOK},
		{"missing lon", `{"lat": 40.0}`, http.StatusBadRequest},
		{"missing lat", `{"lon": -3.0}`, http.StatusBadRequest},
		{"lat out of range", `{"lat": 91, "lon": 0}`, http.StatusBadRequest},
		{"lon out of range", `{"lat": 0, "lon": -181}`, http.StatusBadRequest},
		{"not json", `lat=40`, http.StatusBadRequest},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			resp := postJSON(t, app, "/api/v1/assessment/analyze", tc.body)
			if resp.StatusCode != tc.want {
				t.Fatalf("expected status %d, got %d", tc.want, resp.StatusCode)
			}
		})
	}
}

// TestAnalyzeReturnsAssessment verifies the happy path echoes the requested
// location in the composite report.
func TestAnalyzeReturnsAssessment(t *testing.T) {
	app := newTestApp()

	resp := postJSON(t, app, "/api/v1/assessment/analyze", `{"lat": 40.4168, "lon": -3.7038}`)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected status 200, got %d", resp.StatusCode)
	}

	var got assessment.CompositeAssessment
	if err := json.NewDecoder(resp.Body).Decode(&got); err != nil {
		t.Fatalf("decoding response: %v", err)
	}
	if got.Location.Lat != 40.4168 || got.Location.Lon != -3.7038 {
		t.Fatalf("unexpected location in response: %+v", got.Location)
	}
	if got.Suitability.Rating != assessment.RatingViable {
		t.Fatalf("unexpected rating: %s", got.Suitability.Rating)
	}
}

func TestLiveWeatherEndpoint(t *testing.T) {
	app := newTestApp()

	resp := postJSON(t, app, "/api/v1/assessment/live-weather", `{"lat": 40.0, "lon": -3.0}`)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected status 200, got %d", resp.StatusCode)
	}

	var got providers.LiveWeather
	if err := json.NewDecoder(resp.Body).Decode(&got); err != nil {
		t.Fatalf("decoding response: %v", err)
	}
	if got.WindSpeed120M != 7.2 {
		t.Fatalf("expected 120 m wind speed 7.2, got %v", got.WindSpeed120M)
	}
}

func TestLiveWeatherUpstreamFailure(t *testing.T) {
	app := fiber.New()
	RegisterRoutes(app, &stubAssessor{}, stubLive{err: errors.New("timeout")}, stubGeocoder{})

	resp := postJSON(t, app, "/api/v1/assessment/live-weather", `{"lat": 40.0, "lon": -3.0}`)
	if resp.StatusCode != http.StatusBadGateway {
		t.Fatalf("expected status 502, got %d", resp.StatusCode)
	}
}

func TestGeocodeEndpoint(t *testing.T) {
	app := newTestApp()

	req := httptest.NewRequest(http.MethodGet, "/api/v1/geocode?q=Madrid", nil)
	resp, err := app.Test(req)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected status 200, got %d", resp.StatusCode)
	}

	var got geo.GeocodeResult
	if err := json.NewDecoder(resp.Body).Decode(&got); err != nil {
		t.Fatalf("decoding response: %v", err)
	}
	if got.Lat != 40.4168 {
		t.Fatalf("unexpected latitude: %v", got.Lat)
	}

	// Missing query parameter should return 400.
	req = httptest.NewRequest(http.MethodGet, "/api/v1/geocode", nil)
	resp, err = app.Test(req)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if resp.StatusCode != http.StatusBadRequest {
		t.Fatalf("expected status %d, got %d", http.StatusBadRequest, resp.StatusCode)
	}
}
