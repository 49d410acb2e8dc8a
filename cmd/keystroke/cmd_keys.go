package main

import (
	"fmt"
	"io"
	"strings"

	"github.com/mattn/go-runewidth"
	"github.com/spf13/cobra"

	"github.com/dshills/keystroke/internal/app"
	"github.com/dshills/keystroke/internal/input/keymap"
	"github.com/dshills/keystroke/internal/input/mode"
)

func newKeysCmd() *cobra.Command {
	var (
		modeName string
		origins  bool
	)
	cmd := &cobra.Command{
		Use:   "keys [prefix]",
		Short: "List the keys that complete a prefix",
		Long: `List every binding of a mode that starts with prefix, including user
mappings and plugin keys. A prefix ending in an operator such as "d" lists
the operator followed by each selector.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			prefix := ""
			if len(args) == 1 {
				prefix = args[0]
			}
			return listKeys(cmd.OutOrStdout(), cmd.ErrOrStderr(), modeName, prefix, origins)
		},
	}
	cmd.Flags().StringVarP(&modeName, "mode", "m", mode.Normal, "mode to list")
	cmd.Flags().BoolVar(&origins, "origin", false, "show who registered each key")
	return cmd
}

func listKeys(out, errOut io.Writer, modeName, prefix string, origins bool) error {
	s, err := loadSettings()
	if err != nil {
		return err
	}
	s.Watch = false

	a, err := app.New(app.Options{Settings: &s, Pane: app.NewPane("", nil), LogOutput: io.Discard})
	if err != nil {
		return err
	}
	defer a.Close()
	if err := a.Start(); err != nil {
		fmt.Fprintf(errOut, "warning: %v\n", err)
	}

	tr := a.Translator()
	seq, err := tr.ParseStrict(prefix)
	if err != nil && prefix != "" {
		return err
	}
	sugg, err := a.Store().Suggest(modeName, seq, keymap.SuggestOptions{Foreign: true})
	if err != nil {
		return err
	}

	rows := make([][2]string, 0, len(sugg))
	width := 0
	for _, sg := range sugg {
		lhs := tr.Format(sg.Keys)
		width = max(width, runewidth.StringWidth(lhs))
		descr := sg.Description
		if sg.Origin == keymap.OriginUser && descr == "" {
			descr = tr.Format(sg.RHS)
			if descr == "" {
				descr = "<nop>"
			}
		}
		if origins {
			descr = fmt.Sprintf("[%s] %s", sg.Origin, descr)
		}
		rows = append(rows, [2]string{lhs, descr})
	}
	for _, r := range rows {
		fmt.Fprintf(out, "%s  %s\n", runewidth.FillRight(r[0], width), strings.TrimSpace(r[1]))
	}
	return nil
}
