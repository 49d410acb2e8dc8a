package input

import (
	"errors"
	"sync"
	"time"

	"github.com/dshills/keystroke/internal/dispatcher"
	"github.com/dshills/keystroke/internal/input/key"
	"github.com/dshills/keystroke/internal/input/mode"
)

// ErrClosed is returned by operations on a closed handler.
var ErrClosed = errors.New("input: handler closed")

// Config configures the input handler.
type Config struct {
	// Timeout is how long a complete command waits for a longer binding
	// that starts with it. Default: 1000ms. Zero waits forever.
	Timeout time.Duration

	// MinTimeout is the lower bound of Timeout. Default: 150ms.
	MinTimeout time.Duration

	// MetricsSamples is the number of latency samples kept. Zero disables
	// metrics.
	MetricsSamples int
}

// DefaultConfig returns a configuration with sensible defaults.
func DefaultConfig() Config {
	return Config{
		Timeout:        1000 * time.Millisecond,
		MinTimeout:     150 * time.Millisecond,
		MetricsSamples: 1000,
	}
}

// timeout returns the effective wait for ambiguous commands.
func (c Config) timeout() time.Duration {
	if c.Timeout <= 0 {
		return 0
	}
	if c.Timeout < c.MinTimeout {
		return c.MinTimeout
	}
	return c.Timeout
}

// Handler feeds keys to a dispatcher one at a time.
type Handler struct {
	// execMu serializes dispatching so handlers never run concurrently.
	execMu sync.Mutex

	// mu guards the fields below. Binding handlers may call SwitchMode,
	// so it is never held while the dispatcher runs.
	mu sync.Mutex

	config     Config
	dispatcher *dispatcher.Dispatcher
	modes      *mode.Manager
	hooks      *HookManager
	metrics    *Metrics

	pending key.Sequence
	waiting dispatcher.Status

	// Sequence timeout timer. timerGen invalidates callbacks of stopped
	// timers that already fired.
	timer    *time.Timer
	timerGen uint64

	// modeGen changes on every mode switch.
	modeGen uint64

	closed bool
}

// NewHandler creates a new input handler. The mode manager must use the
// mode set of the dispatcher's store.
func NewHandler(config Config, d *dispatcher.Dispatcher, modes *mode.Manager) (*Handler, error) {
	if d == nil || modes == nil {
		return nil, errors.New("input: dispatcher and mode manager are required")
	}
	h := &Handler{
		config:     config,
		dispatcher: d,
		modes:      modes,
		hooks:      NewHookManager(),
	}
	if config.MetricsSamples > 0 {
		h.metrics = NewMetrics(config.MetricsSamples)
	}
	return h, nil
}

// Dispatcher returns the dispatcher keys are fed to.
func (h *Handler) Dispatcher() *dispatcher.Dispatcher {
	return h.dispatcher
}

// Modes returns the mode manager.
func (h *Handler) Modes() *mode.Manager {
	return h.modes
}

// Hooks returns the hook manager.
func (h *Handler) Hooks() *HookManager {
	return h.hooks
}

// Metrics returns the metrics tracker, or nil if disabled.
func (h *Handler) Metrics() *Metrics {
	return h.metrics
}

// HandleKey adds one key to the pending keys and runs them.
func (h *Handler) HandleKey(code rune) dispatcher.Result {
	h.execMu.Lock()
	defer h.execMu.Unlock()
	start := time.Now()

	if h.IsClosed() {
		return dispatcher.Result{Status: dispatcher.StatusError, Err: ErrClosed}
	}
	ctx := h.Context()
	if h.hooks.RunPreKey(code, ctx) {
		if h.metrics != nil {
			h.metrics.RecordHookConsumption()
		}
		return dispatcher.Result{Status: ctx.Waiting, Rest: ctx.Pending}
	}

	h.mu.Lock()
	if h.closed {
		h.mu.Unlock()
		return dispatcher.Result{Status: dispatcher.StatusError, Err: ErrClosed}
	}
	h.stopTimerLocked()
	input := h.pending.Concat(key.Sequence{code})
	h.pending = nil
	modeName := h.modes.CurrentName()
	modeGen := h.modeGen
	h.mu.Unlock()

	res := h.dispatcher.Exec(modeName, input)
	h.settle(res, modeGen)

	if h.metrics != nil {
		h.metrics.RecordKey(time.Since(start), res.Executed, res.Status == dispatcher.StatusNoMatch)
	}
	h.hooks.RunPostKey(&Event{Code: code, Mode: modeName, Input: input, Result: res}, h.Context())
	return res
}

// Feed handles every key of seq in order and returns the last result.
func (h *Handler) Feed(seq key.Sequence) dispatcher.Result {
	var res dispatcher.Result
	for _, code := range seq {
		res = h.HandleKey(code)
	}
	return res
}

// Resolve runs the pending keys as if the timeout expired. It returns
// false when nothing was pending.
func (h *Handler) Resolve() (dispatcher.Result, bool) {
	h.execMu.Lock()
	defer h.execMu.Unlock()

	h.mu.Lock()
	h.stopTimerLocked()
	h.mu.Unlock()
	return h.resolve()
}

// resolve is Resolve with execMu held.
func (h *Handler) resolve() (dispatcher.Result, bool) {
	h.mu.Lock()
	if h.closed || len(h.pending) == 0 {
		h.mu.Unlock()
		return dispatcher.Result{}, false
	}
	input := h.pending
	h.pending = nil
	modeName := h.modes.CurrentName()
	modeGen := h.modeGen
	h.mu.Unlock()

	res := h.dispatcher.ExecTimedOut(modeName, input)
	h.settle(res, modeGen)
	h.hooks.RunPostKey(&Event{TimedOut: true, Mode: modeName, Input: input, Result: res}, h.Context())
	return res, true
}

// settle keeps the keys of an unfinished command. Keys typed for a mode
// that was left meanwhile are dropped.
func (h *Handler) settle(res dispatcher.Result, modeGen uint64) {
	h.mu.Lock()
	defer h.mu.Unlock()

	h.pending = nil
	h.waiting = res.Status
	if h.closed || !res.IsWaiting() {
		return
	}
	if modeGen != h.modeGen {
		if h.metrics != nil {
			h.metrics.RecordDropped()
		}
		return
	}
	h.pending = res.Rest
	if res.Status == dispatcher.StatusWaitingShort {
		h.startTimerLocked()
	}
}

// startTimerLocked arms the sequence timeout. h.mu must be held.
func (h *Handler) startTimerLocked() {
	h.stopTimerLocked()

	timeout := h.config.timeout()
	if timeout <= 0 {
		return
	}
	gen := h.timerGen
	h.timer = time.AfterFunc(timeout, func() {
		h.handleTimeout(gen)
	})
}

// stopTimerLocked stops the sequence timeout. h.mu must be held.
func (h *Handler) stopTimerLocked() {
	h.timerGen++
	if h.timer != nil {
		h.timer.Stop()
		h.timer = nil
	}
}

// handleTimeout is called when the sequence timeout fires.
func (h *Handler) handleTimeout(gen uint64) {
	h.execMu.Lock()
	defer h.execMu.Unlock()

	h.mu.Lock()
	stale := gen != h.timerGen
	if !stale {
		h.timer = nil
	}
	h.mu.Unlock()
	if stale {
		return
	}

	if h.metrics != nil {
		h.metrics.RecordTimeout()
	}
	h.resolve()
}

// Context returns a copy of the current input state.
func (h *Handler) Context() *Context {
	h.mu.Lock()
	defer h.mu.Unlock()
	return &Context{
		Mode:    h.modes.CurrentName(),
		Pending: h.pending.Clone(),
		Waiting: h.waiting,
	}
}

// PendingKeys returns the keys of the unfinished command.
func (h *Handler) PendingKeys() key.Sequence {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.pending.Clone()
}

// CurrentMode returns the name of the current mode.
func (h *Handler) CurrentMode() string {
	return h.modes.CurrentName()
}

// SwitchMode changes to a different mode and drops pending keys.
func (h *Handler) SwitchMode(name string) error {
	return h.changeMode(func() error { return h.modes.Switch(name) })
}

// PushMode enters a mode remembering the current one.
func (h *Handler) PushMode(name string) error {
	return h.changeMode(func() error { return h.modes.Push(name) })
}

// PopMode returns to the mode active before the last PushMode.
func (h *Handler) PopMode() error {
	return h.changeMode(h.modes.Pop)
}

// changeMode runs change without h.mu so mode change callbacks may use
// the handler.
func (h *Handler) changeMode(change func() error) error {
	if h.IsClosed() {
		return ErrClosed
	}
	if err := change(); err != nil {
		return err
	}

	h.mu.Lock()
	defer h.mu.Unlock()
	h.modeGen++
	h.resetLocked()
	return nil
}

// Reset drops pending keys.
func (h *Handler) Reset() {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.resetLocked()
}

func (h *Handler) resetLocked() {
	h.stopTimerLocked()
	if len(h.pending) > 0 && h.metrics != nil {
		h.metrics.RecordDropped()
	}
	h.pending = nil
	h.waiting = dispatcher.StatusExecuted
}

// Close stops the timeout and rejects further keys.
func (h *Handler) Close() {
	h.mu.Lock()
	defer h.mu.Unlock()

	if h.closed {
		return
	}
	h.closed = true
	h.stopTimerLocked()
	h.pending = nil
}

// IsClosed returns true if the handler has been closed.
func (h *Handler) IsClosed() bool {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.closed
}
