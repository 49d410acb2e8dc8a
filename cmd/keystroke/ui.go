package main

import (
	"fmt"
	"io"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/gdamore/tcell/v2"
	"github.com/mattn/go-runewidth"

	"github.com/dshills/keystroke/internal/app"
	"github.com/dshills/keystroke/internal/input/key"
	"github.com/dshills/keystroke/internal/input/mode"
)

// redrawInterval picks up changes made off the key path: timeouts,
// reloads and plugin messages.
const redrawInterval = 100 * time.Millisecond

var (
	styleNormal    = tcell.StyleDefault
	styleCursor    = tcell.StyleDefault.Reverse(true)
	styleSelected  = tcell.StyleDefault.Background(tcell.ColorNavy).Foreground(tcell.ColorWhite)
	styleDir       = tcell.StyleDefault.Foreground(tcell.ColorBlue).Bold(true)
	styleStatusBar = tcell.StyleDefault.Background(tcell.ColorGray).Foreground(tcell.ColorBlack)
	styleError     = tcell.StyleDefault.Foreground(tcell.ColorRed)
	styleTitle     = tcell.StyleDefault.Bold(true).Underline(true)
)

func runUI(dir string) error {
	s, err := loadSettings()
	if err != nil {
		return err
	}
	pane, err := app.ReadPane(dir)
	if err != nil {
		return err
	}

	opts := app.Options{Settings: &s, Pane: pane}
	if s.LogFile == "" {
		// stderr is the terminal
		opts.LogOutput = io.Discard
	}
	a, err := app.New(opts)
	if err != nil {
		return err
	}
	defer a.Close()
	if err := a.Start(); err != nil {
		a.Logger().Warn("startup: %v", err)
	}

	screen, err := tcell.NewScreen()
	if err != nil {
		return fmt.Errorf("failed to create terminal: %w", err)
	}
	if err := screen.Init(); err != nil {
		return fmt.Errorf("failed to initialize terminal: %w", err)
	}
	defer screen.Fini()

	signals := make(chan os.Signal, 1)
	signal.Notify(signals, syscall.SIGINT, syscall.SIGTERM)
	defer signal.Stop(signals)

	events := make(chan tcell.Event, 16)
	go func() {
		for {
			ev := screen.PollEvent()
			if ev == nil {
				close(events)
				return
			}
			events <- ev
		}
	}()

	ticker := time.NewTicker(redrawInterval)
	defer ticker.Stop()

	u := &ui{screen: screen, extended: s.ExtendedKeys}
	for {
		u.draw(a.View())
		select {
		case <-a.Done():
			return nil
		case <-signals:
			return nil
		case ev, ok := <-events:
			if !ok {
				return nil
			}
			switch ev := ev.(type) {
			case *tcell.EventKey:
				for _, code := range keyCodes(ev.Key(), ev.Rune(), ev.Modifiers(), u.extended) {
					a.HandleKey(code)
				}
			case *tcell.EventResize:
				screen.Sync()
			}
		case <-ticker.C:
		}
	}
}

// specialKeys maps tcell's named keys to key codes.
var specialKeys = map[tcell.Key]rune{
	tcell.KeyUp:      key.KeyUp,
	tcell.KeyDown:    key.KeyDown,
	tcell.KeyLeft:    key.KeyLeft,
	tcell.KeyRight:   key.KeyRight,
	tcell.KeyHome:    key.KeyHome,
	tcell.KeyEnd:     key.KeyEnd,
	tcell.KeyPgUp:    key.KeyPageUp,
	tcell.KeyPgDn:    key.KeyPageDown,
	tcell.KeyInsert:  key.KeyInsert,
	tcell.KeyDelete:  key.KeyDelete,
	tcell.KeyBacktab: key.KeyBacktab,
}

// keyCodes converts a terminal key event to the codes bindings are
// written in. Alt sends an escape before the key. Without extended keys
// only keys with a byte form are delivered.
func keyCodes(k tcell.Key, r rune, mods tcell.ModMask, extended bool) []rune {
	var code rune
	switch {
	case k == tcell.KeyRune:
		code = r
	case k == tcell.KeyBackspace || k == tcell.KeyBackspace2:
		// tcell reports both ^H and DEL as backspace
		code = key.KeyDel
		if extended {
			code = key.KeyBackspace
		}
	case k >= tcell.KeyCtrlSpace && k <= tcell.KeyCtrlUnderscore:
		code = rune(k - tcell.KeyCtrlSpace)
	case k < tcell.KeyCtrlSpace:
		// tab, enter, escape and the other C0 codes
		code = rune(k)
	case k >= tcell.KeyF1 && k <= tcell.KeyF1+key.MaxFunctionKey-1:
		if !extended {
			return nil
		}
		code = key.F(int(k-tcell.KeyF1) + 1)
	default:
		c, ok := specialKeys[k]
		if !ok || !extended {
			return nil
		}
		code = c
	}

	if mods&tcell.ModAlt != 0 && !key.IsSpecial(code) {
		return []rune{key.KeyEscape, code}
	}
	return []rune{code}
}

type ui struct {
	screen   tcell.Screen
	extended bool
	top      int
}

func (u *ui) draw(v app.View) {
	u.screen.Clear()
	w, h := u.screen.Size()
	if h < 3 {
		u.screen.Show()
		return
	}
	body := h - 2

	switch v.Mode.Name {
	case mode.Menu:
		u.drawMenu(v, w, body)
	case mode.View:
		u.drawInfo(v, w, body)
	default:
		u.drawEntries(v, w, body)
	}
	u.drawStatusBar(v, w, h-2)
	u.drawBottomLine(v, w, h-1)
	u.screen.Show()
}

func (u *ui) drawEntries(v app.View, w, rows int) {
	u.top = scrollTop(u.top, v.Cursor, rows)
	for row := 0; row < rows && u.top+row < len(v.Entries); row++ {
		i := u.top + row
		name := v.Entries[i]
		style := styleNormal
		if strings.HasSuffix(name, "/") {
			style = styleDir
		}
		switch {
		case i == v.Cursor:
			style = styleCursor
		case v.Selected(i):
			style = styleSelected
		}
		putString(u.screen, 0, row, runewidth.FillRight(" "+name, w), style, w)
	}
}

func (u *ui) drawMenu(v app.View, w, rows int) {
	putString(u.screen, 0, 0, v.MenuTitle, styleTitle, w)
	top := scrollTop(0, v.MenuCursor, rows-1)
	for row := 0; row < rows-1 && top+row < len(v.MenuItems); row++ {
		i := top + row
		style := styleNormal
		if i == v.MenuCursor {
			style = styleCursor
		}
		putString(u.screen, 0, row+1, runewidth.FillRight(v.MenuItems[i], w), style, w)
	}
}

func (u *ui) drawInfo(v app.View, w, rows int) {
	lines := entryInfo(v)
	for row := 0; row < rows && v.ViewOffset+row < len(lines); row++ {
		putString(u.screen, 0, row, lines[v.ViewOffset+row], styleNormal, w)
	}
}

func (u *ui) drawStatusBar(v app.View, w, y int) {
	left := fmt.Sprintf(" %s  %s", v.Mode.Display, v.Dir)
	right := fmt.Sprintf("%s  %d/%d ", v.Pending, min(v.Cursor+1, len(v.Entries)), len(v.Entries))
	pad := w - runewidth.StringWidth(left) - runewidth.StringWidth(right)
	line := left + strings.Repeat(" ", max(pad, 1)) + right
	putString(u.screen, 0, y, runewidth.FillRight(line, w), styleStatusBar, w)
}

func (u *ui) drawBottomLine(v app.View, w, y int) {
	if v.Mode.Name == mode.Cmdline {
		line := ":" + v.Cmdline
		putString(u.screen, 0, y, line, styleNormal, w)
		u.screen.ShowCursor(min(runewidth.StringWidth(line), w-1), y)
		return
	}
	u.screen.HideCursor()
	style := styleNormal
	if v.StatusErr {
		style = styleError
	}
	putString(u.screen, 0, y, v.Status, style, w)
}

// entryInfo describes the entry under the cursor.
func entryInfo(v app.View) []string {
	if len(v.Entries) == 0 {
		return []string{"(empty)"}
	}
	name := v.Entries[v.Cursor]
	path := filepath.Join(v.Dir, strings.TrimSuffix(name, "/"))
	lines := []string{path, ""}

	fi, err := os.Lstat(path)
	if err != nil {
		return append(lines, err.Error())
	}
	lines = append(lines,
		fmt.Sprintf("Size:     %s", humanize.IBytes(uint64(max(fi.Size(), 0)))),
		fmt.Sprintf("Mode:     %s", fi.Mode()),
		fmt.Sprintf("Modified: %s (%s)", fi.ModTime().Format(time.DateTime), humanize.Time(fi.ModTime())),
	)
	if fi.IsDir() {
		if entries, err := os.ReadDir(path); err == nil {
			lines = append(lines, "", fmt.Sprintf("%d entries:", len(entries)))
			for _, e := range entries {
				lines = append(lines, "  "+e.Name())
			}
		}
	}
	return lines
}

// scrollTop returns the first visible row keeping cursor on screen.
func scrollTop(top, cursor, rows int) int {
	if rows <= 0 {
		return 0
	}
	if cursor < top {
		return cursor
	}
	if cursor >= top+rows {
		return cursor - rows + 1
	}
	return top
}

// putString draws s from column x, stopping at maxX.
func putString(s tcell.Screen, x, y int, str string, style tcell.Style, maxX int) {
	for _, r := range str {
		rw := runewidth.RuneWidth(r)
		if rw == 0 {
			rw = 1
		}
		if x+rw > maxX {
			return
		}
		s.SetContent(x, y, r, nil, style)
		x += rw
	}
}
