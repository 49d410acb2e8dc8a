package input

import (
	"github.com/dshills/keystroke/internal/dispatcher"
	"github.com/dshills/keystroke/internal/input/key"
)

// Context describes the input state seen by hooks.
type Context struct {
	// Mode is the current mode name.
	Mode string

	// Pending holds the keys of the unfinished command.
	Pending key.Sequence

	// Waiting is the status that left the keys pending.
	Waiting dispatcher.Status
}

// HasPending returns true if there are keys waiting for more input.
func (c *Context) HasPending() bool {
	return len(c.Pending) > 0
}

// Clone creates a copy of the context.
func (c *Context) Clone() *Context {
	return &Context{
		Mode:    c.Mode,
		Pending: c.Pending.Clone(),
		Waiting: c.Waiting,
	}
}

// Event is one completed input step: a key or an expired timeout.
type Event struct {
	// Code is the key typed, 0 for a timeout.
	Code rune

	// TimedOut is set when the timeout ran the pending keys.
	TimedOut bool

	// Mode is the mode the keys ran in.
	Mode string

	// Input is what was passed to the dispatcher.
	Input key.Sequence

	// Result is the dispatcher result.
	Result dispatcher.Result
}
