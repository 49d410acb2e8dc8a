// Package main is the entry point for keystroke, a modal file list driven
// by vi-style key sequences.
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/dshills/keystroke/internal/config"
)

// Version information (set via ldflags during build).
var (
	version = "dev"
	commit  = "unknown"
	date    = "unknown"
)

// Flags
var (
	configDir string
	debug     bool
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		// Error already printed by cobra
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:   "keystroke [dir]",
		Short: "Modal file list driven by vi-style key sequences",
		Long: `keystroke lists a directory and dispatches typed keys through modal key
bindings: builtin keys, user mappings from the rc and keymap files, and keys
registered by Lua plugins.

Configuration lives in the config directory:
  config.toml     settings
  keystrokerc     map/noremap/unmap commands
  keymaps/        YAML or TOML mapping files
  plugins/        Lua plugins`,
		Version:      version,
		Args:         cobra.MaximumNArgs(1),
		SilenceUsage: true,
		RunE:         runE,
	}

	root.PersistentFlags().StringVar(&configDir, "config", "", "config directory (default "+config.DefaultDir()+")")
	root.PersistentFlags().BoolVar(&debug, "debug", false, "enable debug logging")

	root.AddCommand(
		&cobra.Command{
			Use:   "run [dir]",
			Short: "Open the interactive file list (default command)",
			Args:  cobra.MaximumNArgs(1),
			RunE:  runE,
		},
		newKeysCmd(),
		newCheckCmd(),
		newVersionCmd(),
	)
	return root
}

func runE(cmd *cobra.Command, args []string) error {
	dir := "."
	if len(args) == 1 {
		dir = args[0]
	}
	return runUI(dir)
}

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Show version information",
		Args:  cobra.NoArgs,
		Run: func(cmd *cobra.Command, args []string) {
			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "keystroke %s\n", version)
			fmt.Fprintf(out, "Commit: %s\n", commit)
			fmt.Fprintf(out, "Built: %s\n", date)
		},
	}
}

// loadSettings reads the settings of the --config directory and applies
// the global flags.
func loadSettings() (config.Settings, error) {
	dir := configDir
	if dir == "" {
		dir = config.DefaultDir()
	}
	s, err := config.LoadSettings(dir)
	if err != nil {
		return s, err
	}
	if debug {
		s.LogLevel = "debug"
	}
	return s, nil
}
