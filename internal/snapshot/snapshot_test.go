package snapshot

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	u "img2ascii/internal/utils"
)

func TestOptionsFrom(t *testing.T) {
	cfg := u.DefaultConfig()
	cfg.Snapshot.ChromePath = "/opt/chrome"
	cfg.Snapshot.NoSandbox = true
	cfg.Snapshot.TimeoutSecs = 7

	t.Setenv("CHROME_BIN", "/usr/bin/chromium")
	opts := OptionsFrom(cfg)
	assert.Equal(t, "/opt/chrome", opts.ChromePath)
	assert.True(t, opts.NoSandbox)
	assert.Equal(t, 7*time.Second, opts.Timeout)

	cfg.Snapshot.ChromePath = ""
	assert.Equal(t, "/usr/bin/chromium", OptionsFrom(cfg).ChromePath)
}

func TestCapture_EmptyDocument(t *testing.T) {
	_, err := Capture(context.Background(), "", Options{})
	assert.Error(t, err)
}

func TestCapture_CanceledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := Capture(ctx, "<html><body>x</body></html>", Options{})
	assert.ErrorIs(t, err, context.Canceled)
}

func TestWriteFile_MissingChrome(t *testing.T) {
	out := filepath.Join(t.TempDir(), "art.png")
	opts := Options{
		ChromePath: filepath.Join(t.TempDir(), "no-such-chrome"),
		Timeout:    5 * time.Second,
	}

	err := WriteFile(context.Background(), out, "<html><body>x</body></html>", opts)
	require.Error(t, err)
	_, statErr := os.Stat(out)
	assert.True(t, os.IsNotExist(statErr))
}

func TestAllocatorOptions(t *testing.T) {
	base := len(allocatorOptions("/tmp/p", Options{}))
	assert.Equal(t, base+2, len(allocatorOptions("/tmp/p", Options{ChromePath: "/x", NoSandbox: true})))
}
