package cli

import (
	"github.com/spf13/cobra"

	"img2ascii/internal/tui"
)

func viewCmd(s *session) *cobra.Command {
	var columns int
	var color bool

	cmd := &cobra.Command{
		Use:   "view [dir]",
		Short: "Browse images and preview them as text art",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			deps := tui.Deps{Config: s.cfg}
			if len(args) == 1 {
				deps.StartDir = args[0]
			}
			if cmd.Flags().Changed("columns") {
				deps.Config.Viewer.Columns = columns
			}
			if color {
				deps.Config.Viewer.Monochrome = false
			}
			return tui.Run(deps)
		},
	}

	cmd.Flags().IntVarP(&columns, "columns", "c", 120, "output width in characters (default viewer.columns)")
	cmd.Flags().BoolVar(&color, "color", false, "colorize the preview")
	return cmd
}
