package tui

import (
	"fmt"
	"runtime/debug"

	tea "github.com/charmbracelet/bubbletea"

	u "img2ascii/internal/utils"
)

// safeModel keeps a panic in Update or View from taking the terminal down
// in raw mode.
type safeModel struct {
	m model
}

func wrapSafe(m model) safeModel {
	return safeModel{m: m}
}

func (s safeModel) Init() tea.Cmd {
	return s.m.Init()
}

func (s safeModel) Update(msg tea.Msg) (tm tea.Model, cmd tea.Cmd) {
	defer func() {
		if r := recover(); r != nil {
			u.Error("Viewer panic recovered", "where", "tui.update",
				"panic", fmt.Sprint(r), "stack", string(debug.Stack()))

			s.m.scr = screenPicker
			s.m.converting = false
			s.m.err = fmt.Errorf("unexpected error: %v", r)
			tm = s
			cmd = nil
		}
	}()

	inner, c := s.m.Update(msg)
	if mm, ok := inner.(model); ok {
		s.m = mm
	}
	return s, c
}

func (s safeModel) View() (out string) {
	defer func() {
		if r := recover(); r != nil {
			u.Error("Viewer panic recovered", "where", "tui.view", "panic", fmt.Sprint(r))
			out = "Unexpected error (see logs)"
		}
	}()
	return s.m.View()
}

var _ tea.Model = safeModel{}
