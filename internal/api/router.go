package api

import (
	"log/slog"

	swagger "github.com/go-swagno/swagno-fiber/swagger"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/requestid"

	"github.com/saturnino-fabrica-de-software/facegate/internal/api/docs"
	"github.com/saturnino-fabrica-de-software/facegate/internal/api/handler"
	"github.com/saturnino-fabrica-de-software/facegate/internal/api/middleware"
	"github.com/saturnino-fabrica-de-software/facegate/internal/metrics"
)

// Dependencies are the collaborators the router mounts. Nil FaceService
// leaves only the health, metrics and docs routes.
type Dependencies struct {
	FaceService handler.FaceService
	Checks      map[string]handler.Pinger
	Metrics     *metrics.Metrics
	RateLimit   middleware.RateLimiterConfig
}

type Router struct {
	app         *fiber.App
	logger      *slog.Logger
	deps        Dependencies
	rateLimiter *middleware.RateLimiter
}

func NewRouter(logger *slog.Logger, deps Dependencies) *Router {
	app := fiber.New(fiber.Config{
		ErrorHandler: middleware.ErrorHandler(logger),
		AppName:      "facegate",
		BodyLimit:    16 * 1024 * 1024,
	})

	return &Router{
		app:    app,
		logger: logger,
		deps:   deps,
	}
}

func (r *Router) Setup() {
	r.app.Use(requestid.New())
	r.app.Use(middleware.Logger(r.logger, r.deps.Metrics))
	r.app.Use(middleware.Recover(r.logger))
	r.app.Use(cors.New(cors.Config{
		AllowOrigins: "*",
		AllowMethods: "GET,PUT,OPTIONS",
		AllowHeaders: "Origin,Content-Type,Accept",
	}))

	sw := docs.NewSwagger()
	swagger.SwaggerHandler(r.app, sw.MustToJson())

	healthHandler := handler.NewHealthHandler(r.deps.Checks)
	r.app.Get("/health", healthHandler.Health)
	r.app.Get("/ready", healthHandler.Ready)

	if r.deps.Metrics != nil {
		r.app.Get("/metrics", adaptor.HTTPHandler(r.deps.Metrics.Handler()))
	}

	if r.deps.FaceService == nil {
		return
	}

	r.rateLimiter = middleware.NewRateLimiter(r.deps.RateLimit)
	limited := r.rateLimiter.Handler()

	faceHandler := handler.NewFaceHandler(r.deps.FaceService, r.logger)
	r.app.Put("/register_faces", limited, faceHandler.Register)
	r.app.Put("/authenticate_faces", limited, faceHandler.Authenticate)
	r.app.Get("/face_attributes", limited, faceHandler.Attributes)
	r.app.Get("/registered_faces", faceHandler.List)
}

func (r *Router) App() *fiber.App {
	return r.app
}

func (r *Router) Listen(addr string) error {
	return r.app.Listen(addr)
}

func (r *Router) Shutdown() error {
	if r.rateLimiter != nil {
		r.rateLimiter.Stop()
	}
	return r.app.Shutdown()
}
