package cli

import (
	"bytes"
	"image"
	"image/color"
	"image/png"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeImage(t *testing.T, dir string) string {
	t.Helper()
	img := image.NewNRGBA(image.Rect(0, 0, 60, 30))
	for y := 0; y < 30; y++ {
		for x := 0; x < 60; x++ {
			img.SetNRGBA(x, y, color.NRGBA{R: uint8(x * 4), G: 90, B: uint8(y * 8), A: 255})
		}
	}
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, img))
	path := filepath.Join(dir, "scene.png")
	require.NoError(t, os.WriteFile(path, buf.Bytes(), 0o644))
	return path
}

func run(t *testing.T, args ...string) (string, string, error) {
	t.Helper()
	t.Setenv("CONFIG_PATH", filepath.Join(t.TempDir(), "absent.yaml"))
	var stdout, stderr bytes.Buffer
	err := execute(args, &stdout, &stderr)
	return stdout.String(), stderr.String(), err
}

func TestConvert_WritesTextAndSummary(t *testing.T) {
	dir := t.TempDir()
	img := writeImage(t, dir)

	out, _, err := run(t, "convert", img, "--columns", "30")
	require.NoError(t, err)

	txtPath := filepath.Join(dir, "scene.txt")
	saved, err := os.ReadFile(txtPath)
	require.NoError(t, err)
	lines := strings.Split(string(saved), "\n")
	assert.Len(t, lines, 7) // round(30 * 30/60 / 2.2)
	assert.Len(t, []rune(lines[0]), 30)

	assert.True(t, strings.HasPrefix(out, string(saved)+"\n"), "monochrome terminal output is the glyph grid")
	assert.Contains(t, out, "ASCII conversion complete! Saved to: "+txtPath)
	assert.Contains(t, out, "Columns           : 30")
	assert.Contains(t, out, "Rows              : 7")
	assert.Contains(t, out, "Monochrome        : true")
	assert.Contains(t, out, "Char set length   : 69")
	assert.Contains(t, out, "Contrast enhancer : 1.5")

	_, err = os.Stat(filepath.Join(dir, "scene.html"))
	assert.True(t, os.IsNotExist(err))
}

func TestConvert_ColorHTMLQuiet(t *testing.T) {
	dir := t.TempDir()
	img := writeImage(t, dir)

	out, _, err := run(t, "convert", img, "-c", "20", "--color", "--html", "--quiet", "--palette", " .:#")
	require.NoError(t, err)
	assert.NotContains(t, out, "\x1b[")
	assert.Contains(t, out, "Also saved        : "+filepath.Join(dir, "scene.html"))
	assert.Contains(t, out, "Monochrome        : false")
	assert.Contains(t, out, "Char set length   : 4")

	page, err := os.ReadFile(filepath.Join(dir, "scene.html"))
	require.NoError(t, err)
	assert.Contains(t, string(page), "<span style=\"color:#")
}

func TestConvert_ColorPrintsANSI(t *testing.T) {
	img := writeImage(t, t.TempDir())

	out, _, err := run(t, "convert", img, "-c", "10", "--color")
	require.NoError(t, err)
	assert.Contains(t, out, "\x1b[38;2;")
	assert.Contains(t, out, "\x1b[0m")
}

func TestConvert_FileNotFound(t *testing.T) {
	missing := filepath.Join(t.TempDir(), "nope.png")

	_, stderr, err := run(t, "convert", missing)
	require.Error(t, err)
	assert.Equal(t, "File not found: "+missing+"\n", stderr)
}

func TestConvert_RequiresPath(t *testing.T) {
	out, stderr, err := run(t, "convert")
	require.Error(t, err)
	assert.Contains(t, out, "Usage:")
	assert.Contains(t, out, "convert <image_path>")
	assert.Contains(t, stderr, "expected exactly one image path")
}

func TestConvert_InvalidFlags(t *testing.T) {
	img := writeImage(t, t.TempDir())

	_, _, err := run(t, "convert", img, "--columns", "0")
	assert.Error(t, err)

	_, _, err = run(t, "convert", img, "--contrast", "-1")
	assert.Error(t, err)

	_, _, err = run(t, "convert", img, "--palette", "")
	assert.Error(t, err)
}

func TestConvert_NotAnImage(t *testing.T) {
	path := filepath.Join(t.TempDir(), "notes.png")
	require.NoError(t, os.WriteFile(path, []byte("plain text"), 0o644))

	_, stderr, err := run(t, "convert", path)
	require.Error(t, err)
	assert.Contains(t, stderr, "decode")
}

func TestLoadConfig(t *testing.T) {
	dir := t.TempDir()
	good := filepath.Join(dir, "good.yaml")
	require.NoError(t, os.WriteFile(good, []byte("viewer:\n  columns: 64\n"), 0o644))
	cfg, err := loadConfig(good)
	require.NoError(t, err)
	assert.Equal(t, 64, cfg.Viewer.Columns)

	bad := filepath.Join(dir, "bad.yaml")
	require.NoError(t, os.WriteFile(bad, []byte("server: [\n"), 0o644))
	_, err = loadConfig(bad)
	assert.Error(t, err)

	t.Setenv("CONFIG_PATH", good)
	cfg, err = loadConfig("")
	require.NoError(t, err)
	assert.Equal(t, 64, cfg.Viewer.Columns)
}

func TestRootCmd_HasSubcommands(t *testing.T) {
	root := newRootCmd()
	names := map[string]bool{}
	for _, c := range root.Commands() {
		names[c.Name()] = true
	}
	assert.True(t, names["convert"])
	assert.True(t, names["view"])
}

func TestConvert_ConfigSuppliesFlagDefaults(t *testing.T) {
	dir := t.TempDir()
	img := writeImage(t, dir)
	cfgPath := filepath.Join(dir, "img2ascii.yaml")
	require.NoError(t, os.WriteFile(cfgPath, []byte(
		"convert:\n  default_columns: 24\n  default_contrast: 1.2\n  palette: \"@%#*+=-:. \"\n"), 0o644))

	out, _, err := run(t, "--config", cfgPath, "convert", img, "--quiet")
	require.NoError(t, err)
	assert.Contains(t, out, "Columns           : 24")
	assert.Contains(t, out, "Char set length   : 10")
	assert.Contains(t, out, "Contrast enhancer : 1.2")

	// explicit flags still win
	out, _, err = run(t, "--config", cfgPath, "convert", img, "--quiet", "--columns", "12", "--contrast", "2")
	require.NoError(t, err)
	assert.Contains(t, out, "Columns           : 12")
	assert.Contains(t, out, "Contrast enhancer : 2")
	assert.Contains(t, out, "Char set length   : 10")
}

func TestConvert_RejectsTooManyRows(t *testing.T) {
	dir := t.TempDir()
	img := writeImage(t, dir)
	cfgPath := filepath.Join(dir, "img2ascii.yaml")
	require.NoError(t, os.WriteFile(cfgPath, []byte("limits:\n  max_rows: 5\n"), 0o644))

	_, stderr, err := run(t, "--config", cfgPath, "convert", img, "--columns", "60")
	require.Error(t, err)
	assert.Contains(t, stderr, "limit is 5")
	_, statErr := os.Stat(filepath.Join(dir, "scene.txt"))
	assert.True(t, os.IsNotExist(statErr))
}
