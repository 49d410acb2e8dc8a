package config

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/dshills/keystroke/internal/input/key"
	"github.com/dshills/keystroke/internal/input/keymap"
	"github.com/dshills/keystroke/internal/input/mode"
)

// MaxSourceDepth limits nested source commands.
const MaxSourceDepth = 32

// mapPrefixes maps the command prefix of map commands to their modes.
var mapPrefixes = map[string][]string{
	"":  {mode.Normal, mode.Visual},
	"n": {mode.Normal},
	"v": {mode.Visual},
	"c": {mode.Cmdline},
	"q": {mode.View},
	"m": {mode.Menu},
}

// Sourcer runs rc file commands against a binding store.
//
// Supported commands, each with an n, v, c, q (view) or m (menu) prefix
// selecting a single mode; without prefix they apply to normal and visual
// mode:
//
//	map [<silent>] [<wait>] {lhs} {rhs}
//	noremap [<silent>] [<wait>] {lhs} {rhs}
//	unmap {lhs}
//	mapclear
//	map [{lhs}]              list user mappings
//	source {file}
//
// Lines starting with " are comments. A line starting with \ continues
// the previous one. An rhs of <nop> maps the keys to nothing.
type Sourcer struct {
	store      *keymap.Store
	translator *key.Translator

	// out receives mapping listings.
	out io.Writer

	depth int
}

// NewSourcer creates a sourcer adding mappings to store.
func NewSourcer(store *keymap.Store, tr *key.Translator) *Sourcer {
	return &Sourcer{store: store, translator: tr, out: io.Discard}
}

// SetOutput sets where mapping listings are written.
func (s *Sourcer) SetOutput(w io.Writer) {
	if w == nil {
		w = io.Discard
	}
	s.out = w
}

// SourceFile runs the commands of an rc file. Every command is attempted;
// failures are returned joined, each a *SourceError.
func (s *Sourcer) SourceFile(path string) error {
	if s.depth >= MaxSourceDepth {
		return fmt.Errorf("%w: %s", ErrSourceDepth, path)
	}
	f, err := os.Open(path)
	if err != nil {
		return err
	}
	defer f.Close()

	s.depth++
	defer func() { s.depth-- }()
	return s.source(f, path)
}

// SourceReader runs the commands read from r. name is used in errors and
// to resolve relative source paths.
func (s *Sourcer) SourceReader(r io.Reader, name string) error {
	return s.source(r, name)
}

// Run executes a single command line.
func (s *Sourcer) Run(line string) error {
	return s.exec(strings.TrimSpace(line), "")
}

// command is one logical rc line.
type command struct {
	line int
	text string
}

func (s *Sourcer) source(r io.Reader, name string) error {
	cmds, err := readCommands(r)
	if err != nil {
		return fmt.Errorf("reading %s: %w", name, err)
	}

	var errs []error
	for _, cmd := range cmds {
		err := s.exec(cmd.text, name)
		if err == nil {
			continue
		}
		var nested *sourcedError
		if errors.As(err, &nested) {
			errs = append(errs, nested.err)
			continue
		}
		errs = append(errs, &SourceError{Path: name, Line: cmd.line, Command: cmd.text, Err: err})
	}
	return errors.Join(errs...)
}

// readCommands splits r into commands, dropping comments and joining
// continuation lines.
func readCommands(r io.Reader) ([]command, error) {
	var cmds []command
	sc := bufio.NewScanner(r)
	lineNo := 0
	for sc.Scan() {
		lineNo++
		text := strings.TrimLeft(sc.Text(), " \t")
		switch {
		case text == "", strings.HasPrefix(text, `"`):
			continue
		case strings.HasPrefix(text, `\`):
			if len(cmds) > 0 {
				cmds[len(cmds)-1].text += text[1:]
				continue
			}
			text = text[1:]
		}
		cmds = append(cmds, command{line: lineNo, text: text})
	}
	return cmds, sc.Err()
}

// sourcedError carries the errors of a nested source command, which
// already name their own file and line.
type sourcedError struct {
	err error
}

func (e *sourcedError) Error() string { return e.err.Error() }

func (e *sourcedError) Unwrap() error { return e.err }

func (s *Sourcer) exec(text, from string) error {
	text = strings.TrimLeft(text, ": \t")
	if text == "" {
		return nil
	}
	name, args := splitWord(text)

	if name == "source" || name == "so" {
		return s.execSource(args, from)
	}
	for prefix, modes := range mapPrefixes {
		base, ok := strings.CutPrefix(name, prefix)
		if !ok {
			continue
		}
		switch base {
		case "map":
			return s.execMap(modes, args, 0)
		case "noremap", "nore":
			return s.execMap(modes, args, keymap.NoRemap)
		case "unmap", "unm":
			return s.execUnmap(modes, args)
		case "mapclear", "mapc":
			return s.execMapclear(modes, args)
		}
	}
	return fmt.Errorf("%w: %s", ErrUnknownCommand, name)
}

func (s *Sourcer) execSource(args, from string) error {
	path := strings.TrimSpace(args)
	if path == "" {
		return fmt.Errorf("%w: source needs a file name", ErrInvalidArgs)
	}
	dir := "."
	if from != "" {
		dir = filepath.Dir(from)
	}
	path = resolvePath(dir, path)

	if s.depth >= MaxSourceDepth {
		return fmt.Errorf("%w: %s", ErrSourceDepth, path)
	}
	if _, err := os.Stat(path); err != nil {
		return err
	}
	if err := s.SourceFile(path); err != nil {
		return &sourcedError{err: err}
	}
	return nil
}

func (s *Sourcer) execMap(modes []string, args string, flags keymap.Flags) error {
	args, mods := cutModifiers(args)
	flags |= mods

	lhsText, rhsText := splitWord(args)
	if lhsText == "" {
		return s.list(modes, nil)
	}
	lhs, err := s.translator.ParseStrict(lhsText)
	if err != nil {
		return err
	}
	if rhsText == "" {
		return s.list(modes, lhs)
	}

	var rhs key.Sequence
	if !strings.EqualFold(rhsText, "<nop>") {
		rhs = s.translator.Parse(rhsText)
	}
	for _, m := range modes {
		if err := s.store.AddUser(m, lhs, rhs, flags); err != nil {
			return err
		}
	}
	return nil
}

func (s *Sourcer) execUnmap(modes []string, args string) error {
	lhsText, extra := splitWord(args)
	if lhsText == "" || extra != "" {
		return fmt.Errorf("%w: unmap takes one key sequence", ErrInvalidArgs)
	}
	lhs, err := s.translator.ParseStrict(lhsText)
	if err != nil {
		return err
	}

	removed := false
	for _, m := range modes {
		err := s.store.RemoveUser(m, lhs)
		switch {
		case err == nil:
			removed = true
		case !errors.Is(err, keymap.ErrNotFound):
			return err
		}
	}
	if !removed {
		return fmt.Errorf("%w: %s", keymap.ErrNotFound, lhsText)
	}
	return nil
}

// execMapclear removes the user mappings of the modes. Plugin keys stay.
func (s *Sourcer) execMapclear(modes []string, args string) error {
	if args != "" {
		return fmt.Errorf("%w: mapclear takes no arguments", ErrInvalidArgs)
	}
	for _, m := range modes {
		bindings, err := s.store.List(m, keymap.OriginUser)
		if err != nil {
			return err
		}
		for _, b := range bindings {
			if err := s.store.RemoveUser(m, b.Keys); err != nil && !errors.Is(err, keymap.ErrNotFound) {
				return err
			}
		}
	}
	return nil
}

// list writes the user mappings of modes starting with prefix.
func (s *Sourcer) list(modes []string, prefix key.Sequence) error {
	for _, m := range modes {
		bindings, err := s.store.List(m, keymap.OriginUser)
		if err != nil {
			return err
		}
		for _, b := range bindings {
			if !b.Keys.HasPrefix(prefix) {
				continue
			}
			rhs := s.translator.Format(b.RHS)
			switch {
			case b.Handler != nil:
				rhs = b.Description
			case len(b.RHS) == 0:
				rhs = "<nop>"
			}
			marker := " "
			if b.Flags&keymap.NoRemap != 0 {
				marker = "*"
			}
			fmt.Fprintf(s.out, "%-8s %-16s %s%s\n", m, s.translator.Format(b.Keys), marker, rhs)
		}
	}
	return nil
}

// cutModifiers strips leading <silent> and <wait> from args.
func cutModifiers(args string) (string, keymap.Flags) {
	var flags keymap.Flags
	for {
		args = strings.TrimLeft(args, " \t")
		lower := strings.ToLower(args)
		switch {
		case strings.HasPrefix(lower, "<silent>"):
			flags |= keymap.Silent
			args = args[len("<silent>"):]
		case strings.HasPrefix(lower, "<wait>"):
			flags |= keymap.Wait
			args = args[len("<wait>"):]
		default:
			return args, flags
		}
	}
}

// splitWord returns the first blank separated word of s and the rest with
// leading blanks removed.
func splitWord(s string) (string, string) {
	s = strings.TrimLeft(s, " \t")
	i := strings.IndexAny(s, " \t")
	if i < 0 {
		return s, ""
	}
	return s[:i], strings.TrimLeft(s[i:], " \t")
}
