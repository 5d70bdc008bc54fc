package pipeline

import (
	"bytes"
	"errors"
	"image"
	"image/color"
	"image/png"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"img2ascii/internal/asciiart"
	"img2ascii/internal/domain"
)

func checker(w, h int) []byte {
	img := image.NewNRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			v := uint8(40 + (x*7+y*13)%180)
			img.SetNRGBA(x, y, color.NRGBA{R: v, G: 255 - v, B: v / 2, A: 255})
		}
	}
	var buf bytes.Buffer
	_ = png.Encode(&buf, img)
	return buf.Bytes()
}

func TestContrastIdentityMatchesNoAdjustment(t *testing.T) {
	data := checker(64, 48)
	p := asciiart.DefaultParams()
	p.Columns = 32
	p.Contrast = 1.0

	withStep, err := FromBytes(data, p)
	require.NoError(t, err)

	img, err := png.Decode(bytes.NewReader(data))
	require.NoError(t, err)
	direct, err := asciiart.Convert(img, p)
	require.NoError(t, err)

	assert.Equal(t, direct, withStep)
}

func TestContrastChangesOutput(t *testing.T) {
	data := checker(64, 48)
	p := asciiart.DefaultParams()
	p.Columns = 32

	plain, err := FromBytes(data, p)
	require.NoError(t, err)

	p.Contrast = 3
	sharp, err := FromBytes(data, p)
	require.NoError(t, err)

	assert.NotEqual(t, plain.Text, sharp.Text)
	assert.Equal(t, plain.Rows, sharp.Rows)
}

func TestFromPathAndReaderAgree(t *testing.T) {
	data := checker(30, 30)
	path := filepath.Join(t.TempDir(), "c.png")
	require.NoError(t, os.WriteFile(path, data, 0o644))

	p := asciiart.DefaultParams()
	p.Columns = 20
	p.Contrast = asciiart.DefaultContrast

	a, err := FromPath(path, p)
	require.NoError(t, err)
	b, err := FromReader(bytes.NewReader(data), p)
	require.NoError(t, err)
	assert.Equal(t, a, b)
}

func TestPipelineErrors(t *testing.T) {
	p := asciiart.DefaultParams()

	_, err := FromBytes(nil, p)
	assert.True(t, errors.Is(err, domain.ErrDecode))

	_, err = FromPath(filepath.Join(t.TempDir(), "nope.png"), p)
	assert.True(t, errors.Is(err, domain.ErrDecode))

	p.Columns = 0
	_, err = FromBytes(checker(2, 2), p)
	assert.True(t, errors.Is(err, domain.ErrValidation))
	assert.False(t, errors.Is(err, domain.ErrDecode))
}
