package app

import (
	"bytes"
	"fmt"
	"strconv"
	"strings"

	"github.com/dshills/keystroke/internal/config"
	"github.com/dshills/keystroke/internal/input/keymap"
	"github.com/dshills/keystroke/internal/input/mode"
)

// runCommand executes a command line entered after ':'.
//
//	{n}               go to item n
//	q[uit]            quit
//	reload            reload mappings and plugins
//	plugins           list plugins
//	keys [{prefix}]   list the normal mode keys starting with prefix
//	stats             list the most used keys
//
// Everything else is an rc file command (map, unmap, ...).
func (a *App) runCommand(line string) error {
	line = strings.TrimSpace(line)
	name, args, _ := strings.Cut(line, " ")
	args = strings.TrimSpace(args)

	if n, err := strconv.Atoi(line); err == nil {
		a.pane.GoTo(n - 1)
		return nil
	}

	switch name {
	case "":
		return nil
	case "q", "q!", "quit", "qa":
		a.Quit()
		return nil
	case "reload":
		return a.Reload()
	case "plugins":
		return a.openMenu("plugins", a.pluginLines())
	case "keys":
		lines, err := a.keyLines(mode.Normal, args)
		if err != nil {
			return err
		}
		return a.openMenu("keys", lines)
	case "stats":
		return a.openMenu("stats", a.statLines())
	}

	var out bytes.Buffer
	src := config.NewSourcer(a.store, a.translator)
	src.SetOutput(&out)
	if err := src.Run(line); err != nil {
		return err
	}
	if out.Len() > 0 {
		return a.openMenu("mappings", strings.Split(strings.TrimRight(out.String(), "\n"), "\n"))
	}
	return nil
}

func (a *App) pluginLines() []string {
	var lines []string
	for _, h := range a.plugins.List() {
		line := fmt.Sprintf("%-20s %s", h.Name(), h.State())
		if err := h.Error(); err != nil {
			line += ": " + firstLine(err.Error())
		}
		lines = append(lines, line)
	}
	return lines
}

// keyLines lists the bindings completing prefix in notation form.
func (a *App) keyLines(modeName, prefix string) ([]string, error) {
	seq, err := a.translator.ParseStrict(prefix)
	if err != nil && prefix != "" {
		return nil, err
	}
	sugg, err := a.store.Suggest(modeName, seq, keymap.SuggestOptions{Foreign: true})
	if err != nil {
		return nil, err
	}
	lines := make([]string, 0, len(sugg))
	for _, s := range sugg {
		lines = append(lines, fmt.Sprintf("%-12s %s", a.translator.Format(s.Keys), a.describe(s)))
	}
	return lines, nil
}

// describe returns the text shown next to a suggestion.
func (a *App) describe(s keymap.Suggestion) string {
	if s.Description != "" {
		return s.Description
	}
	if s.Origin == keymap.OriginUser {
		if len(s.RHS) == 0 {
			return "<nop>"
		}
		return a.translator.Format(s.RHS)
	}
	return ""
}

func (a *App) statLines() []string {
	m := a.dispatcher.Metrics()
	if m == nil {
		return nil
	}
	snap := m.Snapshot()
	lines := []string{fmt.Sprintf("keys %d, executed %d, unmatched %d, errors %d, avg %s",
		snap.TotalKeys, snap.TotalExecuted, snap.TotalNoMatch, snap.TotalErrors, snap.AverageDuration)}
	for _, b := range m.TopBindings(10) {
		lines = append(lines, fmt.Sprintf("%-8s %-12s %d", b.Mode, b.Keys, b.ExecCount))
	}
	return lines
}

// openMenu shows lines in menu mode. An empty list only sets the status.
func (a *App) openMenu(title string, lines []string) error {
	if len(lines) == 0 {
		a.setStatus("no "+title, false)
		return nil
	}
	a.mu.Lock()
	a.menu = menu{title: title, items: lines}
	a.mu.Unlock()
	return a.input.SwitchMode(mode.Menu)
}
