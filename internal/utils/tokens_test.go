package utils

import (
	"context"
	"net/url"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestTokenStore_LoadAndValidate(t *testing.T) {
	var s TokenStore
	assert.False(t, s.Ready())

	s.LoadFromMap(map[string]int{"a": 5, "b": 10})

	assert.True(t, s.Ready())
	assert.True(t, s.Validate("a"))
	assert.Equal(t, 5, s.RateLimit("a"))
	assert.True(t, s.Validate("b"))
	assert.Equal(t, 10, s.RateLimit("b"))
	assert.False(t, s.Validate("c"))
	assert.Equal(t, 0, s.RateLimit("c"))
}

func TestTokenStore_ReloadReplacesCache(t *testing.T) {
	var s TokenStore
	src := map[string]int{"a": 5, "b": 10}
	s.LoadFromMap(src)
	src["z"] = 1
	assert.False(t, s.Validate("z"), "store keeps its own copy")

	s.LoadFromMap(map[string]int{"a": 7, "c": 12})

	assert.Equal(t, 7, s.RateLimit("a"))
	assert.False(t, s.Validate("b"))
	assert.Equal(t, 12, s.RateLimit("c"))
}

func TestTokenStore_LoadFailsWithoutHost(t *testing.T) {
	s := NewTokenStore(PostgresConfig{})
	assert.Error(t, s.Load(context.Background()))
	assert.False(t, s.Ready())
	assert.NoError(t, s.Close())
}

func TestTokenStore_RefreshStopsOnCancel(t *testing.T) {
	s := NewTokenStore(PostgresConfig{})
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		s.RefreshPeriodically(ctx, time.Hour)
		close(done)
	}()
	cancel()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("refresh loop did not stop")
	}
}

func TestPostgresDSN_BuildsURL(t *testing.T) {
	dsn, err := postgresDSN(PostgresConfig{
		Host:     "localhost",
		Port:     5432,
		Database: "img2ascii",
		User:     "user",
		Password: "p@ss word",
		SSLMode:  "disable",
	})
	assert.NoError(t, err)

	u, err := url.Parse(dsn)
	assert.NoError(t, err)
	assert.Equal(t, "postgres", u.Scheme)
	assert.Equal(t, "localhost:5432", u.Host)
	assert.Equal(t, "/img2ascii", u.Path)
	assert.Equal(t, "user", u.User.Username())
	pw, ok := u.User.Password()
	assert.True(t, ok)
	assert.Equal(t, "p@ss word", pw)
	assert.Equal(t, "disable", u.Query().Get("sslmode"))
}

func TestPostgresDSN_HostForms(t *testing.T) {
	raw := "postgres://u:p@localhost:5432/db?sslmode=disable"
	dsn, err := postgresDSN(PostgresConfig{Host: raw})
	assert.NoError(t, err)
	assert.Equal(t, raw, dsn)

	dsn, err = postgresDSN(PostgresConfig{Host: "::1", Database: "d", User: "u"})
	assert.NoError(t, err)
	u, _ := url.Parse(dsn)
	assert.Equal(t, "[::1]:5432", u.Host)

	_, err = postgresDSN(PostgresConfig{Host: "h", User: "u"})
	assert.Error(t, err)
	_, err = postgresDSN(PostgresConfig{Host: "h", Database: "d"})
	assert.Error(t, err)
}
