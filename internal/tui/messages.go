package tui

import "img2ascii/internal/asciiart"

type convertedMsg struct {
	path      string
	rendering asciiart.Rendering
	saved     []string
	err       error
}
