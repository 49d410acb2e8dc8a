package main

import (
	"errors"
	"fmt"
	"io"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/dshills/keystroke/internal/config"
	"github.com/dshills/keystroke/internal/input/key"
	"github.com/dshills/keystroke/internal/input/keymap"
	"github.com/dshills/keystroke/internal/input/mode"
	"github.com/dshills/keystroke/internal/plugin"
)

// errCheckFailed is returned after the problems were printed.
var errCheckFailed = errors.New("configuration has errors")

var (
	problemFormat = color.New(color.FgHiRed).SprintFunc()
	okFormat      = color.New(color.FgGreen).SprintFunc()
)

func newCheckCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "check [rcfile...]",
		Short: "Check mappings and plugins for errors",
		Long: `Load the configured rc file, keymap files and plugin manifests without
starting the UI and report every problem found. When rc files are given only
those are checked.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := loadSettings()
			if err != nil {
				return err
			}
			n := check(cmd.OutOrStdout(), s, args)
			if n > 0 {
				cmd.SilenceErrors = true
				fmt.Fprintf(cmd.ErrOrStderr(), "%d problems\n", n)
				return errCheckFailed
			}
			fmt.Fprintln(cmd.OutOrStdout(), okFormat("ok"))
			return nil
		},
	}
}

// check prints the problems of the configuration and returns their count.
func check(out io.Writer, s config.Settings, rcFiles []string) int {
	tr := key.NewTranslator(s.ExtendedKeys)
	store := keymap.NewStore(mode.DefaultSet())

	var problems []error
	if len(rcFiles) > 0 {
		src := config.NewSourcer(store, tr)
		for _, path := range rcFiles {
			if err := src.SourceFile(path); err != nil {
				problems = append(problems, unjoin(err)...)
			}
		}
	} else {
		if err := config.LoadMappings(store, tr, s); err != nil {
			problems = append(problems, unjoin(err)...)
		}

		loader := plugin.NewLoader(s.PluginsDir)
		if _, err := loader.Discover(); err != nil {
			problems = append(problems, err)
		}
		for _, info := range loader.Errors() {
			problems = append(problems, fmt.Errorf("plugin %s: %w", info.Name, info.Error))
		}
	}

	for _, p := range problems {
		fmt.Fprintln(out, problemFormat(p.Error()))
	}
	return len(problems)
}

// unjoin splits an error built by errors.Join.
func unjoin(err error) []error {
	if joined, ok := err.(interface{ Unwrap() []error }); ok {
		var out []error
		for _, e := range joined.Unwrap() {
			out = append(out, unjoin(e)...)
		}
		return out
	}
	return []error{err}
}
