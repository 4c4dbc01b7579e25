package httpapi

import (
	"errors"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/Debabrta24/AgreesmartFinalSIH/internal/farm"
)

// bodyLimit leaves room for multipart framing around a maximum size image.
const bodyLimit = farm.MaxImageBytes + 1<<20

// Options configures the HTTP server.
type Options struct {
	Logger       *zap.Logger
	Gatherer     prometheus.Gatherer
	AccessLog    bool
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
}

// NewServer builds the Fiber app with middleware, health, metrics and API routes.
func NewServer(resolver *farm.Resolver, records *farm.Records, opts Options) *fiber.App {
	log := opts.Logger
	if log == nil {
		log = zap.NewNop()
	}
	log = log.Named("http")
	if opts.ReadTimeout == 0 {
		opts.ReadTimeout = 60 * time.Second
	}
	if opts.WriteTimeout == 0 {
		opts.WriteTimeout = 60 * time.Second
	}

	// Immutable: params and form values are persisted, so they must not alias
	// pooled request buffers.
	app := fiber.New(fiber.Config{
		AppName:               "agrismart",
		DisableStartupMessage: true,
		ReadTimeout:           opts.ReadTimeout,
		WriteTimeout:          opts.WriteTimeout,
		BodyLimit:             bodyLimit,
		UnescapePath:          true,
		Immutable:             true,
		ErrorHandler:          ErrorHandler(log),
	})

	// Global middleware
	if opts.AccessLog {
		app.Use(logger.New())
	}
	app.Use(recover.New())

	app.Get("/health", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{
			"status":  "ok",
			"service": "agrismart",
		})
	})
	if opts.Gatherer != nil {
		app.Get("/metrics", adaptor.HTTPHandler(promhttp.HandlerFor(opts.Gatherer, promhttp.HandlerOpts{})))
	}

	RegisterRoutes(app, resolver, records)
	return app
}

// ErrorHandler renders every error as {"error": true, "message": ...} with a
// status derived from the domain error kind.
func ErrorHandler(log *zap.Logger) fiber.ErrorHandler {
	return func(c *fiber.Ctx, err error) error {
		code := statusFor(err)
		msg := err.Error()
		if code == fiber.StatusInternalServerError {
			log.Error("request failed", zap.String("path", c.Path()), zap.Error(err))
			msg = "internal server error"
		}
		return c.Status(code).JSON(fiber.Map{
			"error":   true,
			"message": msg,
		})
	}
}

func statusFor(err error) int {
	var fe *fiber.Error
	switch {
	case errors.As(err, &fe):
		return fe.Code
	case errors.Is(err, farm.ErrValidation):
		return fiber.StatusBadRequest
	case errors.Is(err, farm.ErrResolutionFailed):
		return fiber.StatusBadGateway
	case errors.Is(err, farm.ErrNotFound):
		return fiber.StatusNotFound
	default:
		return fiber.StatusInternalServerError
	}
}
