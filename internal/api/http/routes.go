package httpapi

import (
	"context"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"

	"github.com/renewintel/site-assessment/internal/assessment"
	"github.com/renewintel/site-assessment/internal/assessment/providers"
	"github.com/renewintel/site-assessment/internal/geo"
)

var validate = validator.New()

// Assessor is the composite assessment entry point the API depends on.
type Assessor interface {
	Assess(ctx context.Context, lat, lon float64) assessment.CompositeAssessment
}

// LiveWeather serves the on-demand hub-height observation endpoint.
type LiveWeather interface {
	LiveWeather(ctx context.Context, lat, lon float64) (providers.LiveWeather, error)
}

// Geocoder resolves place names for the geocode endpoint.
type Geocoder interface {
	Forward(query string) (geo.GeocodeResult, error)
}

// coordinateRequest is the shared lat/lon request body. Pointers keep the
// required validation honest: 0 is a legal coordinate.
type coordinateRequest struct {
	Lat *float64 `json:"lat" validate:"required,min=-90,max=90"`
	Lon *float64 `json:"lon" validate:"required,min=-180,max=180"`
}

func parseCoordinates(c *fiber.Ctx) (lat, lon float64, err error) {
	var req coordinateRequest
	if err := c.BodyParser(&req); err != nil {
		return 0, 0, fiber.NewError(fiber.StatusBadRequest, "invalid request body")
	}
	if err := validate.Struct(req); err != nil {
		return 0, 0, fiber.NewError(fiber.StatusBadRequest, err.Error())
	}
	return *req.Lat, *req.Lon, nil
}

// RegisterRoutes wires the HTTP handlers into the Fiber app.
func RegisterRoutes(app *fiber.App, svc Assessor, live LiveWeather, geocoder Geocoder) {
	v1 := app.Group("/api/v1")

	v1.Post("/assessment/analyze", func(c *fiber.Ctx) error {
		lat, lon, err := parseCoordinates(c)
		if err != nil {
			return err
		}
		// Assess never fails; a degraded upstream yields zeroed sections.
		return c.JSON(svc.Assess(c.Context(), lat, lon))
	})

	v1.Post("/assessment/live-weather", func(c *fiber.Ctx) error {
		lat, lon, err := parseCoordinates(c)
		if err != nil {
			return err
		}
		obs, err := live.LiveWeather(c.Context(), lat, lon)
		if err != nil {
			return fiber.NewError(fiber.StatusBadGateway, "live weather service unavailable")
		}
		return c.JSON(obs)
	})

	v1.Get("/geocode", func(c *fiber.Ctx) error {
		query := c.Query("q")
		if query == "" {
			return fiber.NewError(fiber.StatusBadRequest, "q query parameter is required")
		}
		result, err := geocoder.Forward(query)
		if err != nil {
			return fiber.NewError(fiber.StatusBadGateway, err.Error())
		}
		return c.JSON(result)
	})
}
