// Package tui is the interactive viewer: pick an image, see it as text art,
// and keep the .txt and .html renderings next to the source file.
package tui

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/charmbracelet/bubbles/filepicker"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"img2ascii/internal/asciiart"
	"img2ascii/internal/imageproc"
)

type screen int

const (
	screenPicker screen = iota
	screenResult
)

// chrome is the number of lines taken by the header and help lines.
const chrome = 6

type model struct {
	theme Theme
	deps  Deps

	scr    screen
	picker filepicker.Model
	vp     viewport.Model
	width  int
	height int

	converting bool
	current    string
	rendering  asciiart.Rendering
	status     string
	err        error
}

func Run(deps Deps) error {
	m := newModel(deps)
	p := tea.NewProgram(wrapSafe(m), tea.WithAltScreen())
	_, err := p.Run()
	return err
}

func newModel(deps Deps) model {
	fp := filepicker.New()
	fp.AllowedTypes = append([]string(nil), imageproc.SupportedExtensions...)
	fp.CurrentDirectory = startDir(deps.StartDir)

	return model{
		theme:  DefaultTheme(),
		deps:   deps,
		scr:    screenPicker,
		picker: fp,
		vp:     viewport.New(80, 20),
	}
}

func startDir(dir string) string {
	if dir == "" {
		if wd, err := os.Getwd(); err == nil {
			dir = wd
		} else {
			dir = "."
		}
	}
	if abs, err := filepath.Abs(dir); err == nil {
		return abs
	}
	return dir
}

func (m model) Init() tea.Cmd { return m.picker.Init() }

func (m model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width, m.height = msg.Width, msg.Height
		m.vp.Width = max(msg.Width-2, 1)
		m.vp.Height = max(msg.Height-chrome, 1)
		var cmd tea.Cmd
		m.picker, cmd = m.picker.Update(msg)
		return m, cmd

	case convertedMsg:
		m.converting = false
		if msg.rendering.Text != "" {
			m.current = msg.path
			m.rendering = msg.rendering
			m.vp.SetContent(msg.rendering.ANSI)
			m.vp.GotoTop()
			m.scr = screenResult
		}
		if len(msg.saved) > 0 {
			m.status = "Saved: " + strings.Join(msg.saved, ", ")
		}
		m.err = msg.err
		return m, nil

	case tea.KeyMsg:
		if m.err != nil {
			// Any key closes the error box.
			m.err = nil
			return m, nil
		}
		switch msg.String() {
		case "ctrl+c":
			return m, tea.Quit
		case "q":
			if m.scr == screenResult {
				return m, tea.Quit
			}
		case "esc", "b":
			if m.scr == screenResult {
				m.scr = screenPicker
				return m, nil
			}
		}
	}

	if m.scr == screenResult {
		var cmd tea.Cmd
		m.vp, cmd = m.vp.Update(msg)
		return m, cmd
	}

	var cmd tea.Cmd
	m.picker, cmd = m.picker.Update(msg)
	if m.converting {
		return m, cmd
	}
	if ok, path := m.picker.DidSelectFile(msg); ok {
		m.converting = true
		m.status = "Converting " + filepath.Base(path) + "..."
		return m, tea.Batch(cmd, cmdConvert(m.deps, path))
	}
	if ok, path := m.picker.DidSelectDisabledFile(msg); ok {
		m.err = fmt.Errorf("%s is not a supported image (%s)", filepath.Base(path),
			strings.Join(imageproc.SupportedExtensions, " "))
		return m, cmd
	}
	return m, cmd
}

func (m model) View() string {
	wrap := lipgloss.NewStyle().Padding(0, 1)

	var header, body, help string
	switch m.scr {
	case screenResult:
		header = m.theme.Title.Render(filepath.Base(m.current)) + "  " +
			m.theme.Subtitle.Render(fmt.Sprintf("%d×%d", m.rendering.Columns, m.rendering.Rows))
		body = m.vp.View()
		help = "↑/↓ pgup/pgdn scroll • esc/b pick another • q quit"
	default:
		header = m.theme.Title.Render("img2ascii") + "  " +
			m.theme.Subtitle.Render(m.picker.CurrentDirectory)
		body = m.picker.View()
		help = "↑/↓ navigate • enter open • ← back • ctrl+c quit"
	}

	out := header + "\n\n" + body + "\n"
	if m.status != "" {
		out += m.theme.Status.Render(m.status) + "\n"
	}
	out += m.theme.Help.Render(help)

	if m.err != nil {
		box := m.theme.ErrorBox.Render(
			m.theme.Title.Render("Error") + "\n\n" + userMessage(m.err) + "\n\n" +
				m.theme.Help.Render("press any key"),
		)
		if m.width > 0 && m.height > 0 {
			return lipgloss.Place(m.width, m.height, lipgloss.Center, lipgloss.Center, box)
		}
		return box
	}
	return wrap.Render(out)
}
