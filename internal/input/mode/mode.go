package mode

import (
	"errors"
	"fmt"
)

// Mode errors
var (
	ErrUnknownMode   = errors.New("unknown mode")
	ErrDuplicateMode = errors.New("duplicate mode")
	ErrEmptyStack    = errors.New("mode stack is empty")
)

// Flags describe how the dispatcher treats input in a mode.
type Flags uint8

const (
	// UsesCount makes leading digit runs a repeat count.
	UsesCount Flags = 1 << iota

	// UsesRegs accepts a `"x` register prefix before a command.
	UsesRegs

	// UsesInput hands unmatched keys to the mode's default handler
	// instead of reporting them as unmatched.
	UsesInput
)

// String returns the flag names joined by '|'.
func (f Flags) String() string {
	if f == 0 {
		return "none"
	}
	s := ""
	add := func(flag Flags, name string) {
		if f&flag == 0 {
			return
		}
		if s != "" {
			s += "|"
		}
		s += name
	}
	add(UsesCount, "count")
	add(UsesRegs, "regs")
	add(UsesInput, "input")
	return s
}

// Mode is a named partition of the key binding namespace.
type Mode struct {
	// Name is the unique mode identifier used in configuration ("normal").
	Name string

	// Display is shown on the status line.
	Display string

	// Flags control count, register and input handling.
	Flags Flags
}

// Has reports whether all of the given flags are set.
func (m Mode) Has(f Flags) bool {
	return m.Flags&f == f
}

// Standard mode names.
const (
	Normal  = "normal"
	Visual  = "visual"
	Cmdline = "cmdline"
	View    = "view"
	Menu    = "menu"
)

// Defaults returns the modes of the file manager in a fixed order.
func Defaults() []Mode {
	return []Mode{
		{Name: Normal, Display: "NORMAL", Flags: UsesCount | UsesRegs},
		{Name: Visual, Display: "VISUAL", Flags: UsesCount | UsesRegs},
		{Name: Cmdline, Display: "COMMAND", Flags: UsesInput},
		{Name: View, Display: "VIEW", Flags: UsesCount},
		{Name: Menu, Display: "MENU", Flags: UsesCount},
	}
}

// Set is the fixed collection of modes known to a binding store.
// It is built once at startup and never changes.
type Set struct {
	modes map[string]Mode
	order []string
}

// NewSet creates a set from the given modes, keeping their order.
func NewSet(modes ...Mode) (*Set, error) {
	s := &Set{
		modes: make(map[string]Mode, len(modes)),
		order: make([]string, 0, len(modes)),
	}
	for _, m := range modes {
		if m.Name == "" {
			return nil, fmt.Errorf("%w: empty name", ErrUnknownMode)
		}
		if _, dup := s.modes[m.Name]; dup {
			return nil, fmt.Errorf("%w: %s", ErrDuplicateMode, m.Name)
		}
		s.modes[m.Name] = m
		s.order = append(s.order, m.Name)
	}
	return s, nil
}

// DefaultSet returns a set holding Defaults.
func DefaultSet() *Set {
	s, err := NewSet(Defaults()...)
	if err != nil {
		panic(err)
	}
	return s
}

// Get returns the mode with the given name.
func (s *Set) Get(name string) (Mode, bool) {
	m, ok := s.modes[name]
	return m, ok
}

// Lookup is Get returning ErrUnknownMode for missing names.
func (s *Set) Lookup(name string) (Mode, error) {
	m, ok := s.modes[name]
	if !ok {
		return Mode{}, fmt.Errorf("%w: %q", ErrUnknownMode, name)
	}
	return m, nil
}

// Names returns mode names in registration order.
func (s *Set) Names() []string {
	out := make([]string, len(s.order))
	copy(out, s.order)
	return out
}

// Len returns the number of modes.
func (s *Set) Len() int {
	return len(s.order)
}
