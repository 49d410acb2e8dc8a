package app

import "github.com/dshills/keystroke/internal/input/mode"

// menu is a list shown in menu mode.
type menu struct {
	title  string
	items  []string
	cursor int
}

func (m *menu) move(delta int) {
	if len(m.items) == 0 {
		return
	}
	m.cursor = min(max(m.cursor+delta, 0), len(m.items)-1)
}

func (m *menu) current() string {
	if len(m.items) == 0 {
		return ""
	}
	return m.items[m.cursor]
}

// View is a copy of everything a front end draws.
type View struct {
	Mode mode.Mode

	Dir       string
	Entries   []string
	Cursor    int
	Selection []int

	// Pending are the keys typed so far, in key notation.
	Pending string

	Cmdline    string
	Status     string
	StatusErr  bool
	ViewOffset int

	MenuTitle  string
	MenuItems  []string
	MenuCursor int
}

// Selected reports whether entry i is part of the visual selection.
func (v View) Selected(i int) bool {
	if len(v.Selection) == 0 {
		return false
	}
	return i >= v.Selection[0] && i <= v.Selection[len(v.Selection)-1]
}

// View returns the current state of the application.
func (a *App) View() View {
	ctx := a.input.Context()
	v := View{
		Mode:      a.modes.Current(),
		Dir:       a.pane.Dir(),
		Entries:   a.pane.Entries(),
		Cursor:    a.pane.Cursor(),
		Selection: a.pane.Selection(),
		Pending:   a.translator.Format(ctx.Pending),
	}

	a.mu.Lock()
	defer a.mu.Unlock()
	v.Cmdline = a.cmdline
	v.Status = a.status
	v.StatusErr = a.statusErr
	v.ViewOffset = a.viewOffset
	v.MenuTitle = a.menu.title
	v.MenuItems = append([]string(nil), a.menu.items...)
	v.MenuCursor = a.menu.cursor
	return v
}
