package asciiart

import (
	"math"

	"img2ascii/internal/domain"
)

const (
	// DefaultPaletteString orders glyphs from darkest to lightest.
	DefaultPaletteString = " .'`^\",:;Il!i~+_-?][}{1)(|\\/*tfjrxnuvczXYUJCLQ0OZmwqpdbkhao*#MW&8%B@$"

	DefaultColumns    = 180
	DefaultContrast   = 1.5
	DefaultMonochrome = true

	// DefaultWidthRatio is the height/width ratio of a terminal character cell.
	DefaultWidthRatio = 2.2
)

// DefaultPalette returns a fresh copy of the default palette.
func DefaultPalette() []rune {
	return []rune(DefaultPaletteString)
}

// Params controls a single conversion.
type Params struct {
	Columns    int
	Palette    []rune
	Monochrome bool
	// Contrast is applied by the pipeline before conversion; Convert ignores it.
	Contrast   float64
	WidthRatio float64

	// MaxRows rejects images whose aspect ratio would need more rows.
	MaxRows int
	// MaxPixels bounds the decoded image size. Applied by the pipeline.
	MaxPixels int
}

// DefaultParams returns the parameters used when a caller supplies nothing.
func DefaultParams() Params {
	return Params{
		Columns:    DefaultColumns,
		Palette:    DefaultPalette(),
		Monochrome: DefaultMonochrome,
		Contrast:   1.0,
		WidthRatio: DefaultWidthRatio,
	}
}

// Validate reports the first invalid field as a validation error.
func (p Params) Validate() error {
	if p.Columns <= 0 {
		return domain.ValidationError("params", "columns must be positive, got %d", p.Columns)
	}
	if len(p.Palette) == 0 {
		return domain.ValidationError("params", "palette must not be empty")
	}
	if !positive(p.Contrast) {
		return domain.ValidationError("params", "contrast must be positive, got %v", p.Contrast)
	}
	if !positive(p.WidthRatio) {
		return domain.ValidationError("params", "width ratio must be positive, got %v", p.WidthRatio)
	}
	if p.MaxRows < 0 || p.MaxPixels < 0 {
		return domain.ValidationError("params", "limits must not be negative")
	}
	return nil
}

func positive(f float64) bool {
	return f > 0 && !math.IsInf(f, 0) && !math.IsNaN(f)
}

// RowsFor returns the number of text rows used for an image of the given
// pixel size. It is never less than one.
func (p Params) RowsFor(width, height int) int {
	if width <= 0 || height <= 0 {
		return 1
	}
	rows := int(math.Round(float64(p.Columns) * float64(height) / float64(width) / p.WidthRatio))
	return max(1, rows)
}
