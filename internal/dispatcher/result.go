package dispatcher

import (
	"fmt"

	"github.com/dshills/keystroke/internal/input/key"
)

// Status is the outcome of an Exec call.
type Status uint8

const (
	// StatusExecuted means every key was consumed by a handler.
	StatusExecuted Status = iota

	// StatusWaiting means the trailing keys are an incomplete command.
	StatusWaiting

	// StatusWaitingShort means the trailing keys form a complete command
	// that a longer binding also starts with. The caller either waits for
	// more keys or calls ExecTimedOut to run the shorter command.
	StatusWaitingShort

	// StatusNoMatch means a command was not bound. Keys after it are dropped.
	StatusNoMatch

	// StatusError means a handler failed or a mapping expanded too deeply.
	StatusError
)

// String returns a string representation of the status.
func (s Status) String() string {
	switch s {
	case StatusExecuted:
		return "executed"
	case StatusWaiting:
		return "waiting"
	case StatusWaitingShort:
		return "waiting-short"
	case StatusNoMatch:
		return "no-match"
	case StatusError:
		return "error"
	default:
		return "unknown"
	}
}

// Result is returned by Exec.
type Result struct {
	// Status is the outcome.
	Status Status

	// Rest holds the keys of an incomplete command when waiting. The caller
	// keeps them and passes them again followed by the next key. When part
	// of a mapping already ran, the rest of its expansion is returned.
	Rest key.Sequence

	// Err is set for StatusError.
	Err error

	// Executed is the number of handlers that ran.
	Executed int
}

// IsWaiting reports whether more keys may complete the input.
func (r Result) IsWaiting() bool {
	return r.Status == StatusWaiting || r.Status == StatusWaitingShort
}

// String implements fmt.Stringer for debugging.
func (r Result) String() string {
	if r.Err != nil {
		return fmt.Sprintf("%s: %v", r.Status, r.Err)
	}
	if len(r.Rest) > 0 {
		return fmt.Sprintf("%s (%s)", r.Status, r.Rest)
	}
	return r.Status.String()
}
