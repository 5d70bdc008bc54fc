package tui

import (
	tea "github.com/charmbracelet/bubbletea"

	"img2ascii/internal/asciiart"
	"img2ascii/internal/sink"
	u "img2ascii/internal/utils"
)

func cmdConvert(deps Deps, path string) tea.Cmd {
	convert := deps.convert()
	p := deps.params()
	return func() tea.Msg {
		u.Info("Viewer conversion started", "path", path, "columns", p.Columns)

		r, err := convert(path, p)
		if err != nil {
			u.Error("Viewer conversion failed", "path", path, "error", err)
			return convertedMsg{path: path, err: err}
		}

		saved, err := saveOutputs(path, r)
		if err != nil {
			u.Error("Viewer save failed", "path", path, "error", err)
		}
		return convertedMsg{path: path, rendering: r, saved: saved, err: err}
	}
}

// saveOutputs writes the sibling .txt and .html files and returns the paths
// written so far.
func saveOutputs(imagePath string, r asciiart.Rendering) ([]string, error) {
	var saved []string

	txt := sink.SiblingPath(imagePath, ".txt")
	if err := sink.WriteText(txt, r); err != nil {
		return saved, err
	}
	saved = append(saved, txt)

	page := sink.SiblingPath(imagePath, ".html")
	if err := sink.WriteHTMLPage(page, r); err != nil {
		return saved, err
	}
	saved = append(saved, page)
	return saved, nil
}
