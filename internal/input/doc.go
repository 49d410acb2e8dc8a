// Package input runs the interactive key loop of keystroke.
//
// A Handler receives keys one at a time from a front-end, keeps the keys of
// an unfinished command and feeds them to a dispatcher.Dispatcher in the
// current mode. The dispatcher never waits; the handler does:
//
//   - StatusWaiting keeps the keys until more arrive.
//   - StatusWaitingShort keeps the keys and starts the timeout. When it
//     fires before the next key, the keys run with ExecTimedOut.
//   - Any other status clears the pending keys.
//
// # Modes
//
// The current mode is owned by a mode.Manager. Switching modes, which
// bindings usually do from their handlers, drops pending keys.
//
// # Usage
//
//	h, err := input.NewHandler(input.DefaultConfig(), disp, modes)
//	if err != nil {
//	    return err
//	}
//	defer h.Close()
//
//	for code := range keys {
//	    h.HandleKey(code)
//	}
package input
