// Package pipeline runs Loader -> Contrast Adjuster -> Art Converter for one
// image. It holds no state between calls.
package pipeline

import (
	"image"
	"io"

	"img2ascii/internal/asciiart"
	"img2ascii/internal/imageproc"
)

// Run adjusts contrast and converts an already decoded image.
func Run(img image.Image, p asciiart.Params) (asciiart.Rendering, error) {
	if err := p.Validate(); err != nil {
		return asciiart.Rendering{}, err
	}
	adjusted, err := imageproc.AdjustContrast(img, p.Contrast)
	if err != nil {
		return asciiart.Rendering{}, err
	}
	return asciiart.Convert(adjusted, p)
}

// FromBytes decodes an in-memory image and runs the pipeline on it.
func FromBytes(b []byte, p asciiart.Params) (asciiart.Rendering, error) {
	if err := p.Validate(); err != nil {
		return asciiart.Rendering{}, err
	}
	img, err := imageproc.DecodeBytes(b, p.MaxPixels)
	if err != nil {
		return asciiart.Rendering{}, err
	}
	return Run(img, p)
}

// FromReader decodes the image read from r and runs the pipeline on it.
func FromReader(r io.Reader, p asciiart.Params) (asciiart.Rendering, error) {
	if err := p.Validate(); err != nil {
		return asciiart.Rendering{}, err
	}
	img, err := imageproc.Decode(r, p.MaxPixels)
	if err != nil {
		return asciiart.Rendering{}, err
	}
	return Run(img, p)
}

// FromPath opens the image at path and runs the pipeline on it.
func FromPath(path string, p asciiart.Params) (asciiart.Rendering, error) {
	if err := p.Validate(); err != nil {
		return asciiart.Rendering{}, err
	}
	img, err := imageproc.Open(path, p.MaxPixels)
	if err != nil {
		return asciiart.Rendering{}, err
	}
	return Run(img, p)
}
