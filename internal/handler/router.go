package handler

import (
	"errors"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"go.uber.org/zap"

	"github.com/dataprep/ingest/internal/middleware"
	"github.com/dataprep/ingest/internal/store"
	ws "github.com/dataprep/ingest/internal/websocket"
	"github.com/dataprep/ingest/internal/worker"
	"github.com/dataprep/ingest/pkg/response"
)

// AppConfig carries the dependencies of the dev server.
type AppConfig struct {
	Store         store.Store
	Dispatcher    worker.Dispatcher
	Auth          *middleware.AuthMiddleware
	RateLimiter   *middleware.RateLimiter
	Hub           *ws.Hub
	UploadPerHour int
	AccessLog     bool
	Logger        *zap.Logger
}

// NewApp wires the dataset and cleaning routes. The /ws progress feed is
// only served when a hub is set.
func NewApp(cfg AppConfig) *fiber.App {
	log := cfg.Logger
	if log == nil {
		log = zap.NewNop()
	}
	rateLimiter := cfg.RateLimiter
	if rateLimiter == nil {
		rateLimiter = middleware.NewRateLimiter(nil, log)
	}

	validate := newValidator()
	datasetsHandler := NewDatasetsHandler(cfg.Store, cfg.Dispatcher, validate, log)
	cleaningHandler := NewCleaningHandler(cfg.Store, validate, log)

	app := fiber.New(fiber.Config{
		ErrorHandler:          customErrorHandler,
		BodyLimit:             maxUploadSize + 1024*1024,
		DisableStartupMessage: true,
	})

	app.Use(recover.New())
	if cfg.AccessLog {
		app.Use(logger.New(logger.Config{
			Format: "[${time}] ${status} - ${latency} ${method} ${path}\n",
		}))
	}
	app.Use(cors.New(cors.Config{
		AllowOrigins: "*",
		AllowMethods: "GET,POST,PUT,DELETE,OPTIONS",
		AllowHeaders: "Origin,Content-Type,Accept,Authorization",
	}))

	app.Get("/health", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{"status": "ok"})
	})

	authenticate := cfg.Auth.Authenticate()

	datasets := app.Group("/datasets", authenticate)
	datasets.Get("/", datasetsHandler.List)
	datasets.Post("/upload", rateLimiter.UploadLimit(cfg.UploadPerHour), datasetsHandler.Upload)
	datasets.Get("/:id/status", datasetsHandler.Status)
	datasets.Get("/:id", datasetsHandler.Detail)
	datasets.Delete("/:id", datasetsHandler.Archive)

	cleaning := app.Group("/cleaning", authenticate)
	cleaning.Get("/:id/plan", cleaningHandler.GetPlan)
	cleaning.Post("/:id/plan", cleaningHandler.SavePlan)

	if cfg.Hub != nil {
		progressHandler := NewProgressHandler(cfg.Store, cfg.Hub, log)
		app.Get("/ws/datasets/:id", cfg.Auth.AuthenticateQuery(), progressHandler.Upgrade, progressHandler.Stream())
	}

	return app
}

func newValidator() *validator.Validate {
	v := validator.New()
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name := strings.SplitN(f.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})
	return v
}

func customErrorHandler(c *fiber.Ctx, err error) error {
	code := fiber.StatusInternalServerError
	message := "Internal Server Error"

	var e *fiber.Error
	if errors.As(err, &e) {
		code = e.Code
		message = e.Message
	}

	return response.Error(c, code, message, nil)
}
