package app

import (
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"sync"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/healthcheck"
	"github.com/gofiber/fiber/v2/middleware/keyauth"
	"github.com/gofiber/fiber/v2/middleware/limiter"
	fiberrecover "github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/gofiber/fiber/v2/middleware/requestid"
	memoryStorage "github.com/gofiber/storage/memory/v2"
	redisStorage "github.com/gofiber/storage/redis/v2"
	"github.com/rs/xid"

	u "img2ascii/internal/utils"
)

const apiKeyLocal = "api_key"

// rateLimits hands out limiters sharing one storage backend. Token limiters
// are built lazily, one per distinct limit.
type rateLimits struct {
	store    fiber.Storage
	interval time.Duration
	tokens   *u.TokenStore

	mu      sync.RWMutex
	byLimit map[int]fiber.Handler
}

func newRateLimits(store fiber.Storage, interval time.Duration, tokens *u.TokenStore) *rateLimits {
	if interval <= 0 {
		interval = time.Minute
	}
	return &rateLimits{store: store, interval: interval, tokens: tokens, byLimit: make(map[int]fiber.Handler)}
}

// newRateLimitStore prefers Redis and falls back to process memory.
func newRateLimitStore(cfg u.Config) (store fiber.Storage) {
	store = memoryStorage.New()
	if !cfg.Cache.Enabled || cfg.Cache.RedisHost == "" {
		return store
	}

	defer func() {
		if r := recover(); r != nil {
			u.Error("Redis limiter store init panicked, falling back to memory", "panic", r)
		}
	}()
	rs := redisStorage.New(redisStorage.Config{
		Addrs:    []string{cfg.Cache.RedisHost},
		Database: cfg.Cache.RateLimitDB,
	})
	u.Info("Using Redis for rate limiting", "addr", cfg.Cache.RedisHost, "db", cfg.Cache.RateLimitDB)
	return rs
}

func tooManyRequests(c *fiber.Ctx) error {
	return errorJSON(c, fiber.StatusTooManyRequests, "Too Many Requests")
}

func clientKey(c *fiber.Ctx) string {
	sum := sha256.Sum256([]byte(c.IP() + c.Get(fiber.HeaderUserAgent)))
	return hex.EncodeToString(sum[:])
}

func apiKey(c *fiber.Ctx) string {
	token, _ := c.Locals(apiKeyLocal).(string)
	return token
}

func (rl *rateLimits) forLimit(limit int) fiber.Handler {
	rl.mu.RLock()
	h, ok := rl.byLimit[limit]
	rl.mu.RUnlock()
	if ok {
		return h
	}

	rl.mu.Lock()
	defer rl.mu.Unlock()
	if h, ok := rl.byLimit[limit]; ok {
		return h
	}
	h = limiter.New(limiter.Config{
		Max:               limit,
		Expiration:        rl.interval,
		LimiterMiddleware: limiter.SlidingWindow{},
		Storage:           rl.store,
		KeyGenerator:      apiKey,
		LimitReached: func(c *fiber.Ctx) error {
			u.Warn("Rate limit exceeded", "token", apiKey(c), "path", c.Path())
			return tooManyRequests(c)
		},
	})
	rl.byLimit[limit] = h
	return h
}

// tokenMiddleware applies the per-token limit of authenticated requests.
func (rl *rateLimits) tokenMiddleware() fiber.Handler {
	return func(c *fiber.Ctx) error {
		token := apiKey(c)
		if token == "" || rl.tokens == nil {
			return c.Next()
		}
		limit := rl.tokens.RateLimit(token)
		if limit <= 0 {
			return c.Next()
		}
		return rl.forLimit(limit)(c)
	}
}

// userMiddleware limits anonymous clients by IP and user agent.
func (rl *rateLimits) userMiddleware(limit int) fiber.Handler {
	if limit <= 0 {
		return func(c *fiber.Ctx) error {
			return c.Next()
		}
	}
	userLimiter := limiter.New(limiter.Config{
		Max:               limit,
		Expiration:        rl.interval,
		LimiterMiddleware: limiter.SlidingWindow{},
		Storage:           rl.store,
		KeyGenerator:      clientKey,
		LimitReached: func(c *fiber.Ctx) error {
			u.Warn("Rate limit exceeded", "user", clientKey(c), "path", c.Path())
			return tooManyRequests(c)
		},
	})
	return func(c *fiber.Ctx) error {
		// Token limits already applied.
		if apiKey(c) != "" {
			return c.Next()
		}
		return userLimiter(c)
	}
}

// keyAuth validates X-API-Key against the token store. Requests without the
// header pass through as anonymous.
func keyAuth(tokens *u.TokenStore) fiber.Handler {
	return keyauth.New(keyauth.Config{
		KeyLookup:  "header:X-API-Key",
		ContextKey: apiKeyLocal,
		Validator: func(c *fiber.Ctx, key string) (bool, error) {
			if !tokens.Ready() {
				return false, u.ErrTokenStoreNotReady
			}
			if !tokens.Validate(key) {
				return false, u.ErrInvalidAPIKey
			}
			return true, nil
		},
		Next: func(c *fiber.Ctx) bool {
			return c.Method() == fiber.MethodOptions || c.Get("X-API-Key") == ""
		},
		ErrorHandler: func(c *fiber.Ctx, err error) error {
			// keyauth may pass a nil error.
			status := fiber.StatusUnauthorized
			if err == nil {
				err = fiber.ErrUnauthorized
			}
			if errors.Is(err, u.ErrTokenStoreNotReady) {
				status = fiber.StatusServiceUnavailable
			}
			return errorJSON(c, status, err.Error())
		},
	})
}

func requestLogger(c *fiber.Ctx) error {
	requestID := c.Get(fiber.HeaderXRequestID)
	if requestID == "" {
		requestID = c.GetRespHeader(fiber.HeaderXRequestID)
	}
	start := time.Now()
	err := c.Next()
	u.Info("Request handled", "method", c.Method(), "path", c.Path(),
		"status", c.Response().StatusCode(), "duration", time.Since(start).String(), "request_id", requestID)
	return err
}

// RegisterMiddleware attaches global middleware to the app
func RegisterMiddleware(app *fiber.App, cfg u.Config, tokens *u.TokenStore) {
	app.Use(cors.New())

	app.Use(requestid.New(requestid.Config{
		Generator: func() string {
			return xid.New().String()
		},
	}))

	app.Use(fiberrecover.New())

	app.Use(healthcheck.New(healthcheck.Config{
		LivenessEndpoint:  "/ops/health",
		ReadinessEndpoint: "/ops/ready",
		ReadinessProbe: func(c *fiber.Ctx) bool {
			return !cfg.Auth.Enabled || (tokens != nil && tokens.Ready())
		},
	}))

	app.Use(requestLogger)

	if cfg.Auth.Enabled && tokens != nil {
		app.Use(keyAuth(tokens))
	}

	rl := newRateLimits(newRateLimitStore(cfg), cfg.RateLimiter.Interval, tokens)
	app.Use(rl.tokenMiddleware())

	if cfg.RateLimiter.EnableUserLimiter || cfg.RateLimiter.UserLimit > 0 {
		app.Use(rl.userMiddleware(cfg.RateLimiter.UserLimit))
	}
}
