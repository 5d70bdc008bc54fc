package cli

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"img2ascii/internal/asciiart"
	"img2ascii/internal/pipeline"
	"img2ascii/internal/sink"
	"img2ascii/internal/snapshot"
	u "img2ascii/internal/utils"
)

type convertOptions struct {
	columns  int
	contrast float64
	palette  string
	color    bool
	html     bool
	png      bool
	quiet    bool
}

func (o convertOptions) params(cfg u.Config) asciiart.Params {
	return asciiart.Params{
		Columns:    o.columns,
		Palette:    []rune(o.palette),
		Monochrome: !o.color,
		Contrast:   o.contrast,
		WidthRatio: cfg.Convert.WidthRatio,
		MaxRows:    cfg.Limits.MaxRows,
		MaxPixels:  cfg.Limits.MaxPixels,
	}
}

// withConfigDefaults takes columns, contrast and palette from cfg unless
// the matching flag was given.
func (o convertOptions) withConfigDefaults(cmd *cobra.Command, cfg u.Config) convertOptions {
	flags := cmd.Flags()
	if !flags.Changed("columns") {
		o.columns = cfg.Convert.DefaultColumns
	}
	if !flags.Changed("contrast") {
		o.contrast = cfg.Convert.DefaultContrast
	}
	if !flags.Changed("palette") {
		o.palette = cfg.Convert.Palette
	}
	return o
}

func convertCmd(s *session) *cobra.Command {
	var opts convertOptions

	cmd := &cobra.Command{
		Use:   "convert <image_path>",
		Short: "Convert an image and save the result next to it",
		Args: func(cmd *cobra.Command, args []string) error {
			if len(args) != 1 {
				_ = cmd.Usage()
				return errors.New("expected exactly one image path")
			}
			return nil
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			return runConvert(cmd, s.cfg, args[0], opts.withConfigDefaults(cmd, s.cfg))
		},
	}

	f := cmd.Flags()
	f.IntVarP(&opts.columns, "columns", "c", asciiart.DefaultColumns, "output width in characters")
	f.Float64Var(&opts.contrast, "contrast", asciiart.DefaultContrast, "contrast factor applied before conversion (1 = unchanged)")
	f.StringVar(&opts.palette, "palette", asciiart.DefaultPaletteString, "glyphs ordered darkest to lightest")
	f.BoolVar(&opts.color, "color", false, "colorize terminal and HTML output")
	f.BoolVar(&opts.html, "html", false, "also write a sibling .html page")
	f.BoolVar(&opts.png, "png", false, "also write a sibling .png screenshot of the HTML page (needs Chrome)")
	f.BoolVarP(&opts.quiet, "quiet", "q", false, "do not print the art to the terminal")
	return cmd
}

func runConvert(cmd *cobra.Command, cfg u.Config, path string, opts convertOptions) error {
	if _, err := os.Stat(path); err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return fmt.Errorf("File not found: %s", path)
		}
		return err
	}

	p := opts.params(cfg)
	u.Info("Converting image", "path", path, "columns", p.Columns, "contrast", p.Contrast, "monochrome", p.Monochrome)

	r, err := pipeline.FromPath(path, p)
	if err != nil {
		u.Error("Conversion failed", "path", path, "error", err)
		return err
	}

	out := cmd.OutOrStdout()
	if !opts.quiet {
		if err := sink.Print(out, r); err != nil {
			return err
		}
	}

	txtPath := sink.SiblingPath(path, ".txt")
	if err := sink.WriteText(txtPath, r); err != nil {
		return err
	}

	var extras []string
	if opts.html {
		htmlPath := sink.SiblingPath(path, ".html")
		if err := sink.WriteHTMLPage(htmlPath, r); err != nil {
			return err
		}
		extras = append(extras, htmlPath)
	}
	if opts.png {
		pngPath := sink.SiblingPath(path, ".png")
		if pngPath == path {
			pngPath = sink.SiblingPath(path, ".ascii.png")
		}
		page := sink.HTMLPage(filepath.Base(path), r)
		if err := snapshot.WriteFile(cmd.Context(), pngPath, page, snapshot.OptionsFrom(cfg)); err != nil {
			return fmt.Errorf("png snapshot: %w", err)
		}
		extras = append(extras, pngPath)
	}

	u.Info("Conversion saved", "path", txtPath, "rows", r.Rows)
	return sink.PrintSummary(out, sink.Summary{
		OutputPath:    txtPath,
		ExtraOutputs:  extras,
		Columns:       r.Columns,
		Rows:          r.Rows,
		Monochrome:    r.Monochrome,
		PaletteLength: len(p.Palette),
		Contrast:      p.Contrast,
	})
}
