package main

import (
	"bytes"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"testing"

	"github.com/gdamore/tcell/v2"

	"github.com/dshills/keystroke/internal/app"
	"github.com/dshills/keystroke/internal/config"
	"github.com/dshills/keystroke/internal/input/key"
)

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
}

// useConfigDir points the --config flag at a fresh directory.
func useConfigDir(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	writeFile(t, filepath.Join(dir, config.SettingsFile), "log_file = \"\"\nwatch = false\n")
	old := configDir
	configDir = dir
	t.Cleanup(func() { configDir = old })
	return dir
}

func TestKeyCodes(t *testing.T) {
	tests := []struct {
		name     string
		k        tcell.Key
		r        rune
		mods     tcell.ModMask
		extended bool
		want     []rune
	}{
		{"rune", tcell.KeyRune, 'j', 0, true, []rune{'j'}},
		{"enter", tcell.KeyEnter, 0, 0, true, []rune{key.KeyEnter}},
		{"escape", tcell.KeyEscape, 0, 0, false, []rune{key.KeyEscape}},
		{"ctrl-w", tcell.KeyCtrlW, 0, tcell.ModCtrl, true, []rune{0x17}},
		{"ctrl-c", tcell.KeyCtrlC, 0, tcell.ModCtrl, false, []rune{key.KeyCtrlC}},
		{"ctrl-u", tcell.KeyCtrlU, 0, tcell.ModCtrl, true, []rune{0x15}},
		{"ctrl-space", tcell.KeyCtrlSpace, 0, tcell.ModCtrl, true, []rune{0}},
		{"ctrl-underscore", tcell.KeyCtrlUnderscore, 0, tcell.ModCtrl, true, []rune{0x1f}},
		{"tab", tcell.KeyTab, 0, 0, true, []rune{'\t'}},
		{"backspace", tcell.KeyBackspace, 0, 0, true, []rune{key.KeyBackspace}},
		{"backspace plain", tcell.KeyBackspace, 0, 0, false, []rune{key.KeyDel}},
		{"alt-x", tcell.KeyRune, 'x', tcell.ModAlt, true, []rune{key.KeyEscape, 'x'}},
		{"backspace extended", tcell.KeyBackspace2, 0, 0, true, []rune{key.KeyBackspace}},
		{"backspace raw", tcell.KeyBackspace2, 0, 0, false, []rune{key.KeyDel}},
		{"up", tcell.KeyUp, 0, 0, true, []rune{key.KeyUp}},
		{"up raw", tcell.KeyUp, 0, 0, false, nil},
		{"f5", tcell.KeyF5, 0, 0, true, []rune{key.F(5)}},
		{"alt-up", tcell.KeyUp, 0, tcell.ModAlt, true, []rune{key.KeyUp}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := keyCodes(tt.k, tt.r, tt.mods, tt.extended)
			if !slices.Equal(got, tt.want) {
				t.Errorf("keyCodes() = %v, want %v", got, tt.want)
			}
		})
	}
}

// Raw control bytes reach the application the way the terminal input
// parser builds them: KeyCtrlSpace plus the byte, or KeyBackspace for
// both ^H and DEL.
func TestKeyCodesFromParsedEvents(t *testing.T) {
	tests := []struct {
		name     string
		ev       *tcell.EventKey
		extended bool
		want     []rune
	}{
		{"ctrl-w", tcell.NewEventKey(tcell.KeyCtrlSpace+0x17, 0, tcell.ModCtrl), true, []rune{0x17}},
		{"ctrl-c", tcell.NewEventKey(tcell.KeyCtrlSpace+0x03, 0, tcell.ModCtrl), true, []rune{key.KeyCtrlC}},
		{"ctrl-g", tcell.NewEventKey(tcell.KeyCtrlSpace+0x07, 0, tcell.ModCtrl), false, []rune{0x07}},
		{"del extended", tcell.NewEventKey(tcell.KeyBackspace, 0, tcell.ModNone), true, []rune{key.KeyBackspace}},
		{"del raw", tcell.NewEventKey(tcell.KeyBackspace, 0, tcell.ModNone), false, []rune{key.KeyDel}},
		{"backspace2 folded", tcell.NewEventKey(tcell.KeyBackspace2, 0, tcell.ModNone), false, []rune{key.KeyDel}},
		{"enter", tcell.NewEventKey(tcell.KeyEnter, 0, tcell.ModNone), true, []rune{key.KeyEnter}},
		{"escape", tcell.NewEventKey(tcell.KeyEscape, 0, tcell.ModNone), true, []rune{key.KeyEscape}},
		{"rune", tcell.NewEventKey(tcell.KeyRune, 'G', tcell.ModNone), true, []rune{'G'}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := keyCodes(tt.ev.Key(), tt.ev.Rune(), tt.ev.Modifiers(), tt.extended)
			if !slices.Equal(got, tt.want) {
				t.Errorf("keyCodes(%v) = %v, want %v", tt.ev.Key(), got, tt.want)
			}
		})
	}
}

func TestScrollTop(t *testing.T) {
	tests := []struct {
		top, cursor, rows, want int
	}{
		{0, 3, 10, 0},
		{0, 12, 10, 3},
		{5, 2, 10, 2},
		{4, 8, 10, 4},
		{4, 8, 0, 0},
	}
	for _, tt := range tests {
		if got := scrollTop(tt.top, tt.cursor, tt.rows); got != tt.want {
			t.Errorf("scrollTop(%d, %d, %d) = %d, want %d", tt.top, tt.cursor, tt.rows, got, tt.want)
		}
	}
}

func TestEntryInfo(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, filepath.Join(dir, "sub", "inner.txt"), "x")

	lines := entryInfo(app.View{Dir: dir, Entries: []string{"sub/"}})
	text := strings.Join(lines, "\n")
	if lines[0] != filepath.Join(dir, "sub") || !strings.Contains(text, "inner.txt") {
		t.Errorf("entryInfo() = %q", lines)
	}
	if !strings.Contains(text, "ago") && !strings.Contains(text, "now") {
		t.Errorf("entryInfo() has no relative time: %q", lines)
	}
	if got := entryInfo(app.View{}); len(got) != 1 {
		t.Errorf("entryInfo() of empty view = %q", got)
	}
}

func TestCheck(t *testing.T) {
	dir := useConfigDir(t)
	s, err := loadSettings()
	if err != nil {
		t.Fatal(err)
	}

	writeFile(t, s.RCFile, "nmap J 2j\nbogus\nnmap <nosuchkey> x\n")
	writeFile(t, filepath.Join(s.PluginsDir, "empty", "README"), "")

	var out bytes.Buffer
	n := check(&out, s, nil)
	if n != 3 {
		t.Errorf("check() = %d problems, want 3:\n%s", n, out.String())
	}
	if !strings.Contains(out.String(), "plugin empty") {
		t.Errorf("output = %q", out.String())
	}

	good := filepath.Join(dir, "good.rc")
	writeFile(t, good, "nnoremap J 2j\n")
	out.Reset()
	if n := check(&out, s, []string{good}); n != 0 {
		t.Errorf("check(good) = %d: %s", n, out.String())
	}
}

func TestListKeys(t *testing.T) {
	dir := useConfigDir(t)
	writeFile(t, filepath.Join(dir, "keystrokerc"), "nmap dx dd\n")

	var out, errOut bytes.Buffer
	if err := listKeys(&out, &errOut, "normal", "d", true); err != nil {
		t.Fatal(err)
	}
	text := out.String()
	for _, want := range []string{"dd", "dj", "dgg", "[user] dd"} {
		if !strings.Contains(text, want) {
			t.Errorf("output missing %q:\n%s", want, text)
		}
	}
	if errOut.Len() != 0 {
		t.Errorf("warnings: %s", errOut.String())
	}

	if err := listKeys(&out, &errOut, "nosuchmode", "", false); err == nil {
		t.Error("unknown mode should fail")
	}
}

func TestVersionCmd(t *testing.T) {
	root := newRootCmd()
	var out bytes.Buffer
	root.SetOut(&out)
	root.SetArgs([]string{"version"})
	if err := root.Execute(); err != nil {
		t.Fatal(err)
	}
	if !strings.HasPrefix(out.String(), "keystroke dev") {
		t.Errorf("version output = %q", out.String())
	}
}
