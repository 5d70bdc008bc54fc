package imageproc

import (
	"errors"
	"image"
	"image/color"
	"math"

	"github.com/disintegration/imaging"

	"img2ascii/internal/domain"
)

// AdjustContrast scales every channel's distance from the image's mean grey
// level by factor. A factor of 1 returns img itself.
func AdjustContrast(img image.Image, factor float64) (image.Image, error) {
	if img == nil {
		return nil, domain.DecodeError("contrast", "", errors.New("nil image"))
	}
	if math.IsNaN(factor) || math.IsInf(factor, 0) || factor <= 0 {
		return nil, domain.ValidationError("contrast", "contrast factor must be a positive number, got %v", factor)
	}
	if factor == 1 {
		return img, nil
	}

	src := imaging.Clone(img)
	mean := float64(meanGrey(src))

	return imaging.AdjustFunc(src, func(c color.NRGBA) color.NRGBA {
		return color.NRGBA{
			R: enhance(c.R, mean, factor),
			G: enhance(c.G, mean, factor),
			B: enhance(c.B, mean, factor),
			A: c.A,
		}
	}), nil
}

func enhance(v uint8, mean, factor float64) uint8 {
	out := mean + (float64(v)-mean)*factor
	switch {
	case out <= 0:
		return 0
	case out >= 255:
		return 255
	}
	return uint8(out + 0.5)
}

// meanGrey returns the rounded mean of the ITU-R 601 grey level of img.
// Each pixel's grey level is rounded too.
func meanGrey(img *image.NRGBA) uint8 {
	b := img.Bounds()
	n := b.Dx() * b.Dy()
	if n == 0 {
		return 0
	}

	var sum uint64
	for y := 0; y < b.Dy(); y++ {
		row := img.Pix[y*img.Stride : y*img.Stride+b.Dx()*4]
		for i := 0; i < len(row); i += 4 {
			sum += (uint64(row[i])*299 + uint64(row[i+1])*587 + uint64(row[i+2])*114 + 500) / 1000
		}
	}
	return uint8((sum + uint64(n)/2) / uint64(n))
}
