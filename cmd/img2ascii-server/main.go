package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/redis/go-redis/v9"

	"img2ascii/internal/app"
	u "img2ascii/internal/utils"
)

const shutdownTimeout = 5 * time.Second

func main() {
	cfg := u.LoadConfig()
	u.InitLogger(
		cfg.Logger.File,
		cfg.Logger.MaxSizeMB,
		cfg.Logger.MaxBackups,
		cfg.Logger.MaxAgeDays,
		cfg.Logger.Compress,
		cfg.Logger.Level,
	)

	rdb := newRedisClient(cfg)
	if rdb != nil {
		defer rdb.Close()
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	tokens := startTokenStore(ctx, cfg)
	if tokens != nil {
		defer tokens.Close()
	}

	fiberApp := app.SetupApp(cfg, rdb, tokens)

	sig := make(chan os.Signal, 1)
	signal.Notify(sig, syscall.SIGINT, syscall.SIGTERM)
	if err := startServer(fiberApp, cfg.Server.Host+cfg.Server.Port, sig); err != nil {
		u.Error("Server error", "error", err)
		os.Exit(1)
	}
}

// newRedisClient returns nil when the rendering cache is disabled.
func newRedisClient(cfg u.Config) *redis.Client {
	if !cfg.Cache.Enabled {
		return nil
	}
	return redis.NewClient(&redis.Options{
		Addr: cfg.Cache.RedisHost,
		DB:   cfg.Cache.CacheDB,
	})
}

// startTokenStore loads API tokens and keeps them fresh until ctx ends. It
// returns nil when API key auth is disabled.
func startTokenStore(ctx context.Context, cfg u.Config) *u.TokenStore {
	if !cfg.Auth.Enabled {
		return nil
	}
	tokens := u.NewTokenStore(cfg.Auth.Postgres)
	if err := tokens.Load(ctx); err != nil {
		u.Error("Failed to load API tokens", "error", err)
	}
	go tokens.RefreshPeriodically(ctx, cfg.Auth.ReloadInterval)
	return tokens
}

// startServer serves until a value arrives on stop, then shuts down
// gracefully.
func startServer(app *fiber.App, addr string, stop <-chan os.Signal) error {
	errc := make(chan error, 1)
	go func() {
		u.Info("Server listening", "addr", addr)
		errc <- app.Listen(addr)
	}()

	select {
	case err := <-errc:
		return err
	case s := <-stop:
		u.Warn("Shutdown signal received, closing server...", "signal", s.String())
	}

	ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	if err := app.ShutdownWithContext(ctx); err != nil {
		u.Error("Server forced to shutdown", "error", err)
		return err
	}
	u.Info("Server stopped cleanly")
	return nil
}
