package app

import (
	"errors"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/monitor"
	"github.com/redis/go-redis/v9"

	"img2ascii/internal/cache"
	"img2ascii/internal/handlers"
	u "img2ascii/internal/utils"
)

// uploadSlack covers multipart framing and the small form fields that travel
// with the image.
const uploadSlack = 64 * 1024

// SetupApp creates and configures a new Fiber app instance.
// rdb and tokens may be nil; without them the rendering cache and API key
// checks are disabled.
func SetupApp(cfg u.Config, rdb *redis.Client, tokens *u.TokenStore) *fiber.App {
	app := fiber.New(fiber.Config{
		Prefork:               cfg.Server.Prefork,
		DisableStartupMessage: true,
		BodyLimit:             cfg.Limits.MaxUploadBytes + uploadSlack,
		ErrorHandler:          errorHandler,
	})

	RegisterMiddleware(app, cfg, tokens)
	RegisterRoutes(app, cfg, rdb)

	// Ensure all responses, including 404s, return JSON
	app.Use(func(c *fiber.Ctx) error {
		return fiber.NewError(fiber.StatusNotFound, "Not Found")
	})

	return app
}

// RegisterRoutes mounts all route handlers to the app
func RegisterRoutes(app *fiber.App, cfg u.Config, rdb *redis.Client) {
	var rc *cache.RenderingCache
	if cfg.Cache.Enabled {
		rc = cache.New(rdb, cfg.Cache.TTL)
	}
	svc := handlers.NewConvertService(cfg, rc)

	app.Post("/convert", svc.HandleConvert)
	app.Get("/ops/monitor", monitor.New(monitor.Config{Title: "img2ascii"}))

	// fasthttp cleans the path before it is joined to the root, and a miss
	// falls through to the JSON 404 below.
	app.Static("/", cfg.Server.StaticDir, fiber.Static{
		Index: "index.html",
	})
}

func errorHandler(c *fiber.Ctx, err error) error {
	code := fiber.StatusInternalServerError
	msg := "Internal Server Error"

	var fe *fiber.Error
	if errors.As(err, &fe) {
		code = fe.Code
		msg = fe.Message
	} else if err != nil {
		msg = err.Error()
	}

	requestID := c.GetRespHeader(fiber.HeaderXRequestID)
	if code >= fiber.StatusInternalServerError {
		u.Error("Request failed", "path", c.Path(), "status", code, "message", msg, "request_id", requestID)
	} else {
		u.Warn("Request failed", "path", c.Path(), "status", code, "message", msg, "request_id", requestID)
	}

	return errorJSON(c, code, msg)
}

func errorJSON(c *fiber.Ctx, code int, msg string) error {
	return c.Status(code).JSON(fiber.Map{"error": msg})
}
