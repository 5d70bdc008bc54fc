/*
Package asciiart maps raster images onto a character grid.

Every output cell samples the matching region of the image (box-filter
downscale), converts it to luminance and picks the palette glyph whose index
is proportional to that luminance. Colorized renderings keep the sampled
color of each cell for the ANSI and HTML forms.
*/
package asciiart

import (
	"fmt"
	"html"
	"image"
	"image/color"
	"strings"

	"github.com/disintegration/imaging"

	"img2ascii/internal/domain"
)

const (
	ansiReset = "\x1b[0m"

	bytesPerCellReserve     = 1.2 // most palette glyphs are single-byte
	ansiBytesPerCellReserve = 20
	htmlBytesPerCellReserve = 32
)

// Rendering is the immutable result of a conversion.
type Rendering struct {
	// Text holds the glyph grid only: rows joined by '\n', no trailing newline.
	Text string
	// ANSI is Text decorated with 24-bit terminal colors. Equal to Text when monochrome.
	ANSI string
	// HTML is a <pre> fragment with inline styling.
	HTML string

	Columns    int
	Rows       int
	Monochrome bool
}

// Convert renders img with p.
func Convert(img image.Image, p Params) (Rendering, error) {
	if err := p.Validate(); err != nil {
		return Rendering{}, domain.ConversionError("convert", err)
	}
	if img == nil {
		return Rendering{}, domain.ConversionError("convert", fmt.Errorf("nil image"))
	}
	b := img.Bounds()
	if b.Dx() == 0 || b.Dy() == 0 {
		return Rendering{}, domain.ConversionError("convert", fmt.Errorf("image has no pixels"))
	}

	rows := p.RowsFor(b.Dx(), b.Dy())
	if p.MaxRows > 0 && rows > p.MaxRows {
		return Rendering{}, domain.ValidationError("convert",
			"a %dx%d image needs %d rows at %d columns, limit is %d", b.Dx(), b.Dy(), rows, p.Columns, p.MaxRows)
	}
	grid := sample(img, p.Columns, rows)

	r := Rendering{
		Columns:    p.Columns,
		Rows:       rows,
		Monochrome: p.Monochrome,
	}
	r.Text = renderText(grid, p.Palette)
	if p.Monochrome {
		r.ANSI = r.Text
	} else {
		r.ANSI = renderANSI(grid, p.Palette)
	}
	r.HTML = renderHTML(grid, p.Palette, p.Monochrome)
	return r, nil
}

// cellGrid is the downscaled image, one pixel per output cell.
type cellGrid struct {
	*image.NRGBA
	cols, rows int
}

func sample(img image.Image, cols, rows int) cellGrid {
	return cellGrid{
		NRGBA: imaging.Resize(img, cols, rows, imaging.Box),
		cols:  cols,
		rows:  rows,
	}
}

// luminance returns the alpha-weighted luminance (0-255) of a cell.
func (g cellGrid) luminance(x, y int) int {
	c := g.NRGBAAt(x, y)
	lum := (int(c.R)*2126 + int(c.G)*7152 + int(c.B)*722) / 10000
	return lum * int(c.A) / 255
}

func (g cellGrid) glyph(palette []rune, x, y int) rune {
	idx := g.luminance(x, y) * len(palette) / 256
	return palette[min(idx, len(palette)-1)]
}

func (g cellGrid) rgb(x, y int) color.NRGBA {
	c := g.NRGBAAt(x, y)
	c.A = 255
	return c
}

func renderText(g cellGrid, palette []rune) string {
	var sb strings.Builder
	sb.Grow(int(bytesPerCellReserve * float64((g.cols+1)*g.rows)))

	for y := range g.rows {
		if y > 0 {
			sb.WriteByte('\n')
		}
		for x := range g.cols {
			sb.WriteRune(g.glyph(palette, x, y))
		}
	}
	return sb.String()
}

func renderANSI(g cellGrid, palette []rune) string {
	var sb strings.Builder
	sb.Grow(ansiBytesPerCellReserve * (g.cols + 1) * g.rows)

	prev, first := color.NRGBA{}, true
	for y := range g.rows {
		if y > 0 {
			sb.WriteByte('\n')
		}
		for x := range g.cols {
			if c := g.rgb(x, y); first || c != prev {
				fmt.Fprintf(&sb, "\x1b[38;2;%d;%d;%dm", c.R, c.G, c.B)
				prev, first = c, false
			}
			sb.WriteRune(g.glyph(palette, x, y))
		}
	}
	sb.WriteString(ansiReset)
	return sb.String()
}

func renderHTML(g cellGrid, palette []rune, monochrome bool) string {
	var sb strings.Builder
	if monochrome {
		sb.Grow(int(bytesPerCellReserve*float64((g.cols+1)*g.rows)) + 128)
	} else {
		sb.Grow(htmlBytesPerCellReserve * (g.cols + 1) * g.rows)
	}

	sb.WriteString(`<pre class="ascii-art" style="font-family:monospace;line-height:1;margin:0;">`)
	for y := range g.rows {
		if y > 0 {
			sb.WriteByte('\n')
		}
		if monochrome {
			for x := range g.cols {
				sb.WriteString(html.EscapeString(string(g.glyph(palette, x, y))))
			}
			continue
		}

		// One span per run of equal color; spans never cross a line break.
		for x := 0; x < g.cols; {
			c := g.rgb(x, y)
			fmt.Fprintf(&sb, `<span style="color:#%02x%02x%02x">`, c.R, c.G, c.B)
			for ; x < g.cols && g.rgb(x, y) == c; x++ {
				sb.WriteString(html.EscapeString(string(g.glyph(palette, x, y))))
			}
			sb.WriteString("</span>")
		}
	}
	sb.WriteString("</pre>")
	return sb.String()
}
