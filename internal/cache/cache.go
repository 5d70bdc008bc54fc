// Package cache stores finished renderings in Redis, keyed by the uploaded
// bytes and the conversion parameters.
package cache

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"

	"img2ascii/internal/asciiart"
)

const (
	keyPrefix = "asciicache:"

	defaultTTL     = time.Minute
	defaultTimeout = time.Second
)

// RenderingCache is a Redis-backed rendering cache. A nil *RenderingCache
// always misses.
type RenderingCache struct {
	rdb     *redis.Client
	ttl     time.Duration
	timeout time.Duration
}

// New returns a cache writing entries with the given TTL. A non-positive TTL
// falls back to one minute.
func New(rdb *redis.Client, ttl time.Duration) *RenderingCache {
	if rdb == nil {
		return nil
	}
	if ttl <= 0 {
		ttl = defaultTTL
	}
	return &RenderingCache{rdb: rdb, ttl: ttl, timeout: defaultTimeout}
}

// Key derives the cache key of an upload converted with p.
func Key(image []byte, p asciiart.Params) string {
	h := sha256.New()
	h.Write(image)
	h.Write([]byte{0})
	h.Write([]byte(strconv.Itoa(p.Columns)))
	h.Write([]byte{0})
	h.Write([]byte(string(p.Palette)))
	h.Write([]byte{0})
	h.Write([]byte(strconv.FormatBool(p.Monochrome)))
	h.Write([]byte(strconv.FormatFloat(p.Contrast, 'f', 4, 64)))
	h.Write([]byte(strconv.FormatFloat(p.WidthRatio, 'f', 4, 64)))
	return keyPrefix + hex.EncodeToString(h.Sum(nil))
}

type entry struct {
	Text       string `json:"text"`
	ANSI       string `json:"ansi"`
	HTML       string `json:"html"`
	Columns    int    `json:"columns"`
	Rows       int    `json:"rows"`
	Monochrome bool   `json:"monochrome"`
}

// Get returns the cached rendering for key. A miss is (zero, false, nil).
func (c *RenderingCache) Get(ctx context.Context, key string) (asciiart.Rendering, bool, error) {
	if c == nil {
		return asciiart.Rendering{}, false, nil
	}
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	raw, err := c.rdb.Get(ctx, key).Bytes()
	if errors.Is(err, redis.Nil) {
		return asciiart.Rendering{}, false, nil
	}
	if err != nil {
		return asciiart.Rendering{}, false, err
	}

	var e entry
	if err := json.Unmarshal(raw, &e); err != nil {
		return asciiart.Rendering{}, false, err
	}
	return asciiart.Rendering{
		Text:       e.Text,
		ANSI:       e.ANSI,
		HTML:       e.HTML,
		Columns:    e.Columns,
		Rows:       e.Rows,
		Monochrome: e.Monochrome,
	}, true, nil
}

// Set stores r under key.
func (c *RenderingCache) Set(ctx context.Context, key string, r asciiart.Rendering) error {
	if c == nil {
		return nil
	}
	raw, err := json.Marshal(entry{
		Text:       r.Text,
		ANSI:       r.ANSI,
		HTML:       r.HTML,
		Columns:    r.Columns,
		Rows:       r.Rows,
		Monochrome: r.Monochrome,
	})
	if err != nil {
		return err
	}

	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()
	return c.rdb.Set(ctx, key, raw, c.ttl).Err()
}
