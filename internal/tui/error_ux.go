package tui

import (
	"errors"
	"os"
	"path/filepath"

	"img2ascii/internal/domain"
)

func userMessage(err error) string {
	if err == nil {
		return ""
	}

	var de *domain.Error
	if errors.As(err, &de) {
		name := "image"
		if de.Path != "" {
			name = filepath.Base(de.Path)
		}
		switch de.Kind {
		case domain.KindDecode:
			if errors.Is(err, os.ErrNotExist) {
				return "File not found: " + name
			}
			return "Cannot read " + name + " as an image"
		case domain.KindValidation:
			if de.Err != nil {
				return "Invalid settings: " + de.Err.Error()
			}
			return "Invalid settings"
		case domain.KindConversion:
			return "Conversion failed: " + err.Error()
		}
	}

	var pe *os.PathError
	if errors.As(err, &pe) {
		return "Cannot write " + filepath.Base(pe.Path) + ": " + pe.Err.Error()
	}
	return "Unexpected error (see logs)"
}
