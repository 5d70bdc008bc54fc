package main

import (
	"context"
	"net"
	"os"
	"syscall"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	u "img2ascii/internal/utils"
)

func TestStartServer_GracefulShutdown(t *testing.T) {
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	addr := ln.Addr().String()
	require.NoError(t, ln.Close())

	app := fiber.New(fiber.Config{DisableStartupMessage: true})
	app.Get("/", func(c *fiber.Ctx) error { return c.SendString("ok") })

	stop := make(chan os.Signal, 1)
	done := make(chan error, 1)
	go func() { done <- startServer(app, addr, stop) }()

	require.Eventually(t, func() bool {
		conn, err := net.Dial("tcp", addr)
		if err != nil {
			return false
		}
		conn.Close()
		return true
	}, 2*time.Second, 20*time.Millisecond)

	stop <- syscall.SIGTERM
	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(shutdownTimeout + time.Second):
		t.Fatal("server did not stop")
	}
}

func TestStartServer_ListenError(t *testing.T) {
	app := fiber.New(fiber.Config{DisableStartupMessage: true})
	err := startServer(app, "256.0.0.1:bad", make(chan os.Signal))
	assert.Error(t, err)
}

func TestOptionalDependencies(t *testing.T) {
	cfg := u.DefaultConfig()
	assert.Nil(t, newRedisClient(cfg))
	assert.Nil(t, startTokenStore(context.Background(), cfg))

	cfg.Cache.Enabled = true
	rdb := newRedisClient(cfg)
	require.NotNil(t, rdb)
	assert.Equal(t, cfg.Cache.CacheDB, rdb.Options().DB)
	_ = rdb.Close()
}
