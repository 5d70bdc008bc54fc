// Package snapshot renders an HTML page to PNG with headless Chrome.
package snapshot

import (
	"context"
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/chromedp/cdproto/page"
	"github.com/chromedp/chromedp"

	u "img2ascii/internal/utils"
)

const defaultTimeout = 30 * time.Second

// Options controls the Chrome process used for a capture.
type Options struct {
	ChromePath string
	NoSandbox  bool
	Timeout    time.Duration
}

// OptionsFrom reads the snapshot section of cfg. CHROME_BIN fills in an
// empty chrome_path.
func OptionsFrom(cfg u.Config) Options {
	opts := Options{
		ChromePath: cfg.Snapshot.ChromePath,
		NoSandbox:  cfg.Snapshot.NoSandbox,
		Timeout:    time.Duration(cfg.Snapshot.TimeoutSecs) * time.Second,
	}
	if opts.ChromePath == "" {
		opts.ChromePath = os.Getenv("CHROME_BIN")
	}
	return opts
}

func allocatorOptions(profileDir string, opts Options) []chromedp.ExecAllocatorOption {
	allocOpts := append(chromedp.DefaultExecAllocatorOptions[:],
		chromedp.UserDataDir(profileDir),
		// Software rendering for minimal containers.
		chromedp.Flag("disable-gpu", true),
		chromedp.Flag("disable-gpu-compositing", true),
		chromedp.Flag("use-gl", "swiftshader"),
		chromedp.Flag("disable-dev-shm-usage", true),
		chromedp.WindowSize(1280, 800),
	)
	if opts.ChromePath != "" {
		allocOpts = append(allocOpts, chromedp.ExecPath(opts.ChromePath))
	}
	if opts.NoSandbox {
		allocOpts = append(allocOpts, chromedp.Flag("no-sandbox", true))
	}
	return allocOpts
}

// Capture loads html into a blank tab and returns a full-page PNG.
func Capture(ctx context.Context, html string, opts Options) ([]byte, error) {
	if html == "" {
		return nil, errors.New("snapshot: empty document")
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	tmpDir, err := os.MkdirTemp("", "chromedata-*")
	if err != nil {
		return nil, fmt.Errorf("cannot create temp profile dir: %w", err)
	}
	defer os.RemoveAll(tmpDir)

	timeout := opts.Timeout
	if timeout <= 0 {
		timeout = defaultTimeout
	}
	ctx, cancelTimeout := context.WithTimeout(ctx, timeout)
	defer cancelTimeout()

	allocCtx, cancelAlloc := chromedp.NewExecAllocator(ctx, allocatorOptions(tmpDir, opts)...)
	defer cancelAlloc()
	chromeCtx, cancel := chromedp.NewContext(allocCtx)
	defer cancel()

	var buf []byte
	err = chromedp.Run(chromeCtx,
		chromedp.Navigate("about:blank"),
		chromedp.ActionFunc(func(ctx context.Context) error {
			frame, err := page.GetFrameTree().Do(ctx)
			if err != nil {
				return err
			}
			return page.SetDocumentContent(frame.Frame.ID, html).Do(ctx)
		}),
		chromedp.WaitReady("body", chromedp.ByQuery),
		chromedp.FullScreenshot(&buf, 100),
	)
	if err != nil {
		return nil, fmt.Errorf("snapshot: %w", err)
	}
	return buf, nil
}

// WriteFile captures html and writes the PNG to path.
func WriteFile(ctx context.Context, path, html string, opts Options) error {
	png, err := Capture(ctx, html, opts)
	if err != nil {
		return err
	}
	u.Debug("Snapshot captured", "path", path, "bytes", len(png))
	return os.WriteFile(path, png, 0o644)
}
