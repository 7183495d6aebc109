package httpapi

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/rs/zerolog"

	"github.com/i474232898/weather-client/internal/errlog"
	"github.com/i474232898/weather-client/internal/location"
	"github.com/i474232898/weather-client/internal/weather"
)

var validate = validator.New()

// WeatherService is the coordinator surface exposed over HTTP.
type WeatherService interface {
	Resolve(ctx context.Context, raw string) (weather.WeatherSnapshot, error)
	Retry(ctx context.Context) (weather.WeatherSnapshot, error)
	ClearCache()
	Stats() weather.Stats
}

// LocationStore persists the last successfully resolved location.
type LocationStore interface {
	SaveLastLocation(displayName string)
	LastLocation() string
}

// ErrorLog exposes persisted error records.
type ErrorLog interface {
	Records() ([]errlog.Record, error)
}

// NewApp builds the Fiber app with the shared error handler and middleware.
func NewApp(log zerolog.Logger, withRequestLog bool) *fiber.App {
	app := fiber.New(fiber.Config{
		AppName:               "weather-client",
		DisableStartupMessage: true,
		ReadTimeout:           10 * time.Second,
		WriteTimeout:          10 * time.Second,
		ErrorHandler:          errorHandler(log),
	})

	if withRequestLog {
		app.Use(logger.New())
	}
	app.Use(recover.New())

	app.Get("/health", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{
			"status":  "ok",
			"service": "weather-client",
		})
	})
	return app
}

// RegisterRoutes wires the HTTP handlers into the Fiber app.
func RegisterRoutes(app *fiber.App, service WeatherService, locations LocationStore, errs ErrorLog) {
	v1 := app.Group("/api/v1")

	v1.Get("/weather", func(c *fiber.Ctx) error {
		var q weatherQuery
		q.Q = c.Query("q")
		if err := validate.Struct(q); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, "query parameter q is required")
		}

		snapshot, err := service.Resolve(c.UserContext(), q.Q)
		if err != nil {
			return err
		}
		locations.SaveLastLocation(snapshot.Location.Name)
		return c.JSON(snapshot)
	})

	v1.Post("/weather/retry", func(c *fiber.Ctx) error {
		snapshot, err := service.Retry(c.UserContext())
		if err != nil {
			return err
		}
		locations.SaveLastLocation(snapshot.Location.Name)
		return c.JSON(snapshot)
	})

	v1.Get("/location/last", func(c *fiber.Ctx) error {
		name := locations.LastLocation()
		if name == "" {
			return fiber.NewError(fiber.StatusNotFound, "no location has been searched yet")
		}
		return c.JSON(fiber.Map{"location": name})
	})

	v1.Get("/errors", func(c *fiber.Ctx) error {
		records, err := errs.Records()
		if err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, "failed to read error log")
		}
		if records == nil {
			records = []errlog.Record{}
		}
		return c.JSON(fiber.Map{"errors": records})
	})

	v1.Get("/stats", func(c *fiber.Ctx) error {
		return c.JSON(service.Stats())
	})

	v1.Delete("/cache", func(c *fiber.Ctx) error {
		service.ClearCache()
		return c.SendStatus(fiber.StatusNoContent)
	})
}

// weatherQuery holds query parameters for the weather endpoint. Format rules
// are enforced by location.Parse so API and CLI report identical messages.
type weatherQuery struct {
	Q string `validate:"required"`
}

func errorHandler(log zerolog.Logger) fiber.ErrorHandler {
	return func(c *fiber.Ctx, err error) error {
		var (
			res  *weather.ErrorResult
			verr *location.ValidationError
			ferr *fiber.Error
		)
		switch {
		case errors.As(err, &res):
			return c.Status(statusFor(res.Kind)).JSON(fiber.Map{
				"error":     true,
				"kind":      res.Kind,
				"message":   res.Message,
				"retryable": res.Retryable,
			})
		case errors.As(err, &verr):
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
				"error":   true,
				"message": verr.Message,
			})
		case errors.Is(err, weather.ErrNoLastQuery):
			return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
				"error":   true,
				"message": err.Error(),
			})
		case errors.As(err, &ferr):
			return c.Status(ferr.Code).JSON(fiber.Map{
				"error":   true,
				"message": ferr.Message,
			})
		}

		log.Error().Err(err).Str("path", c.Path()).Msg("http: unhandled error")
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error":   true,
			"message": err.Error(),
		})
	}
}

func statusFor(kind weather.Kind) int {
	switch kind {
	case weather.KindNotFound:
		return http.StatusNotFound
	case weather.KindTimeout:
		return http.StatusGatewayTimeout
	case weather.KindServiceUnavailable:
		return http.StatusServiceUnavailable
	case weather.KindUnauthorized, weather.KindNetwork:
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}
