// Package dispatcher turns typed keys into handler calls.
//
// A Dispatcher matches input against a keymap.Store one command at a time.
// A command is an optional register ("x), an optional count, an action and,
// depending on the action, either one extra key or a selector with its own
// optional count:
//
//	"a3d2j
//	 |  | |
//	 |  | +- selector "j", count 3*2
//	 |  +--- action "d"
//	 +------ register a
//
// # Precedence
//
// Foreign bindings win over user bindings which win over builtin bindings.
// The longest match wins first; origins only break ties. User bindings
// without a handler are mappings: their left-hand side is replaced with
// the right-hand side and matching starts over. Keys produced by a NoRemap
// mapping only match builtin bindings.
//
// # Waiting
//
// Input that ends inside a command returns StatusWaiting. Input that is a
// complete command but also the start of a longer binding returns
// StatusWaitingShort; the caller either feeds more keys or, after its
// timeout, calls ExecTimedOut which runs the shorter command. Result.Rest
// holds the keys to feed again.
//
// # Handlers
//
// Handlers implement keymap.Handler. Selectors report the units they span
// through keymap.State, which the action receives afterwards. Modes with
// the UsesInput flag pass unmatched keys to a default handler set with
// SetDefault. Panics in handlers are recovered unless disabled in Config.
package dispatcher
