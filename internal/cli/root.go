// Package cli wires the img2ascii command line.
package cli

import (
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	u "img2ascii/internal/utils"
)

// Execute runs the root command and exits non-zero on failure.
func Execute() {
	if err := execute(os.Args[1:], os.Stdout, os.Stderr); err != nil {
		os.Exit(1)
	}
}

func execute(args []string, stdout, stderr io.Writer) error {
	cmd := newRootCmd()
	cmd.SetArgs(args)
	cmd.SetOut(stdout)
	cmd.SetErr(stderr)
	err := cmd.Execute()
	if err != nil {
		fmt.Fprintln(stderr, err)
	}
	return err
}

// session is the state shared by subcommands once the root has loaded it.
type session struct {
	cfg u.Config
}

func newRootCmd() *cobra.Command {
	var configPath string
	var debug bool
	s := &session{cfg: u.DefaultConfig()}

	cmd := &cobra.Command{
		Use:           "img2ascii",
		Short:         "Turn images into text art",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(_ *cobra.Command, _ []string) error {
			cfg, err := loadConfig(configPath)
			if err != nil {
				return err
			}
			u.InitFileLogger(cfg.Logger.File, cfg.Logger.MaxSizeMB, cfg.Logger.MaxBackups,
				cfg.Logger.MaxAgeDays, cfg.Logger.Compress, cfg.Logger.Level)
			if debug {
				u.SetLogLevel("debug")
			}
			s.cfg = cfg
			return nil
		},
	}

	cmd.PersistentFlags().StringVar(&configPath, "config", "", "config file (default $CONFIG_PATH or config.yaml)")
	cmd.PersistentFlags().BoolVar(&debug, "debug", false, "enable debug logging to logger.file")

	cmd.AddCommand(convertCmd(s))
	cmd.AddCommand(viewCmd(s))
	return cmd
}

// loadConfig turns the panics of LoadFrom into an error.
func loadConfig(path string) (cfg u.Config, err error) {
	if path == "" {
		path = os.Getenv("CONFIG_PATH")
	}
	if path == "" {
		path = "config.yaml"
	}
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("%v", r)
		}
	}()
	return u.LoadFrom(path), nil
}
