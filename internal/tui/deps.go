package tui

import (
	"img2ascii/internal/asciiart"
	"img2ascii/internal/pipeline"
	u "img2ascii/internal/utils"
)

// ConvertFunc turns the image at path into a rendering.
type ConvertFunc func(path string, p asciiart.Params) (asciiart.Rendering, error)

type Deps struct {
	Config   u.Config
	StartDir string

	// Convert defaults to pipeline.FromPath.
	Convert ConvertFunc
}

func (d Deps) convert() ConvertFunc {
	if d.Convert != nil {
		return d.Convert
	}
	return pipeline.FromPath
}

// params builds the viewer's conversion settings from the config.
func (d Deps) params() asciiart.Params {
	cfg := d.Config
	return asciiart.Params{
		Columns:    cfg.Viewer.Columns,
		Palette:    []rune(cfg.Convert.Palette),
		Monochrome: cfg.Viewer.Monochrome,
		Contrast:   cfg.Convert.DefaultContrast,
		WidthRatio: cfg.Convert.WidthRatio,
		MaxRows:    cfg.Limits.MaxRows,
		MaxPixels:  cfg.Limits.MaxPixels,
	}
}
