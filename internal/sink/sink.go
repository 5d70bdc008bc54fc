// Package sink writes renderings to files and terminals.
package sink

import (
	"fmt"
	"html"
	"io"
	"os"
	"path/filepath"
	"strings"

	"img2ascii/internal/asciiart"
)

const htmlPageTemplate = `<!DOCTYPE html>
<html>
<head><meta charset="utf-8"><title>%s</title></head>
<body style="background:black;color:white;">
%s
</body>
</html>
`

// SiblingPath returns imagePath with its extension replaced by ext.
func SiblingPath(imagePath, ext string) string {
	if !strings.HasPrefix(ext, ".") {
		ext = "." + ext
	}
	return strings.TrimSuffix(imagePath, filepath.Ext(imagePath)) + ext
}

// WriteText stores the glyph grid of r at path.
func WriteText(path string, r asciiart.Rendering) error {
	if err := os.WriteFile(path, []byte(r.Text), 0o644); err != nil {
		return fmt.Errorf("write %s: %w", path, err)
	}
	return nil
}

// HTMLPage wraps the HTML fragment of r in a standalone dark page.
func HTMLPage(title string, r asciiart.Rendering) string {
	return fmt.Sprintf(htmlPageTemplate, html.EscapeString(title), r.HTML)
}

// WriteHTMLPage stores r as a standalone HTML page at path.
func WriteHTMLPage(path string, r asciiart.Rendering) error {
	page := HTMLPage(filepath.Base(path), r)
	if err := os.WriteFile(path, []byte(page), 0o644); err != nil {
		return fmt.Errorf("write %s: %w", path, err)
	}
	return nil
}

// Print writes the terminal form of r followed by a newline.
func Print(w io.Writer, r asciiart.Rendering) error {
	_, err := fmt.Fprintln(w, r.ANSI)
	return err
}

// Summary is the statistics block printed after a CLI run.
type Summary struct {
	OutputPath    string
	ExtraOutputs  []string
	Columns       int
	Rows          int
	Monochrome    bool
	PaletteLength int
	Contrast      float64
}

// PrintSummary writes s in a fixed, aligned layout.
func PrintSummary(w io.Writer, s Summary) error {
	var sb strings.Builder
	fmt.Fprintf(&sb, "\nASCII conversion complete! Saved to: %s\n", s.OutputPath)
	for _, p := range s.ExtraOutputs {
		fmt.Fprintf(&sb, "Also saved        : %s\n", p)
	}
	fmt.Fprintf(&sb, "Columns           : %d\n", s.Columns)
	fmt.Fprintf(&sb, "Rows              : %d\n", s.Rows)
	fmt.Fprintf(&sb, "Monochrome        : %t\n", s.Monochrome)
	fmt.Fprintf(&sb, "Char set length   : %d\n", s.PaletteLength)
	fmt.Fprintf(&sb, "Contrast enhancer : %g\n", s.Contrast)
	_, err := io.WriteString(w, sb.String())
	return err
}
