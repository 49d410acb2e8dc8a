package keymap

import (
	"errors"

	"github.com/dshills/keystroke/internal/input/mode"
)

// Store errors
var (
	// ErrEmptySequence is returned when a binding has no keys.
	ErrEmptySequence = errors.New("empty key sequence")

	// ErrUnknownMode is returned for modes the store was not built with.
	ErrUnknownMode = mode.ErrUnknownMode

	// ErrDuplicateBuiltin is returned when a builtin sequence is added twice.
	ErrDuplicateBuiltin = errors.New("duplicate builtin key")

	// ErrBuiltinConflict is returned when a foreign key equals a builtin key
	// or one of them is a prefix of the other.
	ErrBuiltinConflict = errors.New("key conflicts with a builtin key")

	// ErrRemapCycle is returned when a user mapping would make a remap
	// chain refer back to itself.
	ErrRemapCycle = errors.New("recursive key mapping")

	// ErrNilHandler is returned when a builtin or foreign key has no handler.
	ErrNilHandler = errors.New("key has no handler")

	// ErrInvalidBinding is returned for bindings whose fields contradict
	// each other, such as a selector that waits for another selector.
	ErrInvalidBinding = errors.New("invalid binding")

	// ErrNotFound is returned when removing a key that is not bound.
	ErrNotFound = errors.New("key not bound")
)
