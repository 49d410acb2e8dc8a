package keymap

import (
	"github.com/dshills/keystroke/internal/input/key"
)

// Origin tells who registered a binding.
type Origin uint8

const (
	// OriginBuiltin bindings are compiled in and never removed.
	OriginBuiltin Origin = iota

	// OriginUser bindings come from configuration and may be remaps.
	OriginUser

	// OriginForeign bindings are registered by plugins. They shadow user
	// bindings of the same keys but never builtins.
	OriginForeign
)

// String returns the origin name.
func (o Origin) String() string {
	switch o {
	case OriginBuiltin:
		return "builtin"
	case OriginUser:
		return "user"
	case OriginForeign:
		return "foreign"
	default:
		return "unknown"
	}
}

// Kind selects the namespace a binding lives in.
type Kind uint8

const (
	// KindAction bindings perform a complete operation.
	KindAction Kind = iota

	// KindSelector bindings pick the entries an action works on ("j" in "dj").
	KindSelector

	kindCount
)

// String returns the kind name.
func (k Kind) String() string {
	switch k {
	case KindAction:
		return "action"
	case KindSelector:
		return "selector"
	default:
		return "unknown"
	}
}

// Follow describes what an action expects after its own keys.
type Follow uint8

const (
	// FollowNone means the action is complete by itself.
	FollowNone Follow = iota

	// FollowSelector means a selector must come next ("d" in "dj").
	FollowSelector

	// FollowMultiKey means one arbitrary key comes next ("m" in "ma").
	FollowMultiKey
)

// Flags modify user bindings.
type Flags uint8

const (
	// NoRemap executes the right-hand side without user or foreign lookups.
	NoRemap Flags = 1 << iota

	// Silent suppresses echoing the mapping on the status line.
	Silent

	// Wait never resolves the binding on timeout while a longer one is
	// still possible.
	Wait
)

// Info describes the match a handler is called for.
type Info struct {
	// Mode is the mode the keys were typed in.
	Mode string

	// Keys are the keys of the matched binding.
	Keys key.Sequence

	// Count is the effective count, 1 when none was typed.
	Count int

	// CountGiven reports whether a count was typed.
	CountGiven bool

	// Register is the selected register, 0 when none.
	Register rune

	// Multi is the key that followed a FollowMultiKey binding.
	Multi rune

	// Mapped reports whether the keys came from a user mapping.
	Mapped bool

	// AfterWait reports whether the binding fired on timeout.
	AfterWait bool
}

// State carries results from a selector to the action it belongs to.
type State struct {
	// Selector is true when the action is called after a selector.
	Selector bool

	// Count is the number of units the selector spans. Before a selector
	// handler runs it holds the count the selector was invoked with.
	Count int

	// Indexes are the entries the selector picked, if it picks explicitly.
	Indexes []int
}

// Handler is invoked when its binding matches.
type Handler interface {
	Handle(info Info, st *State) error
}

// HandlerFunc adapts a function to the Handler interface.
type HandlerFunc func(info Info, st *State) error

// Handle calls f(info, st).
func (f HandlerFunc) Handle(info Info, st *State) error {
	return f(info, st)
}

// Binding associates a key sequence with a handler or, for user bindings,
// with a right-hand side that is matched again as if typed.
type Binding struct {
	// Keys is the sequence that triggers the binding.
	Keys key.Sequence

	// Origin is filled in by the store.
	Origin Origin

	// Kind selects the action or selector namespace.
	Kind Kind

	// Handler runs the binding. Nil for user remaps.
	Handler Handler

	// RHS is the right-hand side of a user remap.
	RHS key.Sequence

	// Flags apply to user bindings.
	Flags Flags

	// Follow is what an action expects after its keys.
	Follow Follow

	// SkipSuggestion hides the binding from suggestions.
	SkipSuggestion bool

	// Description is shown by suggestions and listings.
	Description string

	// Owner names the plugin that registered a foreign binding.
	Owner string
}

// IsRemap reports whether the binding is a user remap.
func (b *Binding) IsRemap() bool {
	return b.Origin == OriginUser && b.Handler == nil
}

// clone returns a copy safe to hand out while the store keeps changing.
// Key sequences are never modified in place, so they are shared.
func (b *Binding) clone() *Binding {
	c := *b
	return &c
}
