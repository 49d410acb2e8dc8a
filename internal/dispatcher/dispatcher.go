package dispatcher

import (
	"fmt"
	"runtime"
	"sync"
	"time"

	"github.com/dshills/keystroke/internal/input/key"
	"github.com/dshills/keystroke/internal/input/keymap"
	"github.com/dshills/keystroke/internal/input/mode"
	"github.com/dshills/keystroke/internal/input/vim"
)

// ExecEvent describes one handler run.
type ExecEvent struct {
	// Mode is the mode the keys were typed in.
	Mode string

	// Binding is the binding that ran, nil for a mode's default handler.
	Binding *keymap.Binding

	// Info is what the handler was called with.
	Info keymap.Info

	// Duration is how long the handler took.
	Duration time.Duration

	// Err is the handler error, if any.
	Err error
}

// ExecHook is called after every handler run. Hooks run on the goroutine
// that called Exec and must not block.
type ExecHook func(ev ExecEvent)

// ExecOptions modify a single Exec call.
type ExecOptions struct {
	// TimedOut resolves trailing ambiguity in favor of the shorter binding:
	// no more keys are coming.
	TimedOut bool

	// NoRemap matches builtin bindings only.
	NoRemap bool
}

// Dispatcher runs key sequences against a binding store.
type Dispatcher struct {
	mu sync.RWMutex

	store  *keymap.Store
	config Config

	// Metrics
	metrics *Metrics

	// defaults handle unmatched keys of UsesInput modes.
	defaults map[string]keymap.Handler

	hooks []ExecHook
}

// New creates a new dispatcher with the given configuration.
func New(store *keymap.Store, config Config) *Dispatcher {
	d := &Dispatcher{
		store:    store,
		config:   config,
		defaults: make(map[string]keymap.Handler),
	}
	if config.EnableMetrics {
		d.metrics = NewMetrics()
	}
	return d
}

// NewWithDefaults creates a new dispatcher with default configuration.
func NewWithDefaults(store *keymap.Store) *Dispatcher {
	return New(store, DefaultConfig())
}

// Store returns the binding store.
func (d *Dispatcher) Store() *keymap.Store {
	return d.store
}

// Config returns the dispatcher configuration.
func (d *Dispatcher) Config() Config {
	return d.config
}

// Metrics returns the metrics collector, or nil if disabled.
func (d *Dispatcher) Metrics() *Metrics {
	return d.metrics
}

// SetDefault sets the handler for unmatched keys of a mode. It is only
// used when the mode has the UsesInput flag.
func (d *Dispatcher) SetDefault(modeName string, h keymap.Handler) error {
	if _, err := d.store.Mode(modeName); err != nil {
		return err
	}
	d.mu.Lock()
	defer d.mu.Unlock()
	if h == nil {
		delete(d.defaults, modeName)
		return nil
	}
	d.defaults[modeName] = h
	return nil
}

func (d *Dispatcher) defaultHandler(modeName string) keymap.Handler {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return d.defaults[modeName]
}

// OnExec registers a hook called after every handler run.
func (d *Dispatcher) OnExec(h ExecHook) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.hooks = append(d.hooks, h)
}

func (d *Dispatcher) notify(ev ExecEvent) {
	d.mu.RLock()
	hooks := make([]ExecHook, len(d.hooks))
	copy(hooks, d.hooks)
	d.mu.RUnlock()

	for _, h := range hooks {
		h(ev)
	}
}

// Exec runs input in a mode.
//
// Complete commands run in order. When the input ends inside a command the
// result is waiting and Rest holds that command's keys.
func (d *Dispatcher) Exec(modeName string, input key.Sequence) Result {
	return d.ExecWithOptions(modeName, input, ExecOptions{})
}

// ExecTimedOut is Exec for input after the wait timeout expired: a command
// that is complete but also starts a longer binding runs.
func (d *Dispatcher) ExecTimedOut(modeName string, input key.Sequence) Result {
	return d.ExecWithOptions(modeName, input, ExecOptions{TimedOut: true})
}

// ExecNoRemap is Exec considering builtin bindings only.
func (d *Dispatcher) ExecNoRemap(modeName string, input key.Sequence) Result {
	return d.ExecWithOptions(modeName, input, ExecOptions{NoRemap: true})
}

// ExecWithOptions runs input with explicit options.
func (d *Dispatcher) ExecWithOptions(modeName string, input key.Sequence, opts ExecOptions) Result {
	m, err := d.store.Mode(modeName)
	if err != nil {
		return Result{Status: StatusError, Err: err}
	}
	if len(input) == 0 {
		// nothing typed is not an error
		return Result{Status: StatusNoMatch}
	}

	e := &execution{
		d:     d,
		mode:  m,
		opts:  opts,
		typed: input,
		keys:  input.Clone(),
	}
	res := e.run()
	if d.metrics != nil {
		d.metrics.recordResult(len(input), res.Status)
	}
	return res
}

// execution is the match state of one Exec call.
type execution struct {
	d    *Dispatcher
	mode mode.Mode
	opts ExecOptions

	typed key.Sequence

	// keys are the keys not consumed yet. Mappings replace their left-hand
	// side here with the right-hand side.
	keys key.Sequence

	// Keys before noremapEnd come from a NoRemap mapping, keys before
	// mappedEnd come from any mapping.
	noremapEnd int
	mappedEnd  int

	// origin indexes the typed command the mapped keys came from. partial
	// is set once a handler consumed some of them.
	origin  int
	partial bool

	// depth counts mapping expansions since the last handler ran.
	depth int

	executed int
}

func (e *execution) run() Result {
	for len(e.keys) > 0 {
		status, err := e.step()
		switch status {
		case StatusExecuted:
			continue
		case StatusWaiting, StatusWaitingShort:
			return Result{Status: status, Rest: e.rest(), Executed: e.executed}
		case StatusError:
			return Result{Status: StatusError, Err: err, Executed: e.executed}
		default:
			return Result{Status: status, Executed: e.executed}
		}
	}
	return Result{Status: StatusExecuted, Executed: e.executed}
}

// rest returns the keys to feed again after a wait. Keys of a mapping are
// returned as typed unless a handler already ran for part of them.
func (e *execution) rest() key.Sequence {
	if e.mappedEnd > 0 && !e.partial {
		return e.typed[e.origin:].Clone()
	}
	return e.keys.Clone()
}

// resolved reports whether a complete match should run even though a
// longer binding is possible. Keys of a mapping do not wait for typed ones.
func (e *execution) resolved() bool {
	return e.opts.TimedOut || len(e.keys) <= e.mappedEnd
}

// step handles the command at the start of e.keys. StatusExecuted means the
// command was consumed or expanded and matching continues.
func (e *execution) step() (Status, error) {
	keys := e.keys
	pos := 0
	if e.mappedEnd == 0 {
		e.origin = len(e.typed) - len(keys)
		e.partial = false
	}

	var reg rune
	if e.mode.Has(mode.UsesRegs) && keys[0] == '"' {
		if len(keys) == 1 {
			return StatusWaiting, nil
		}
		if !vim.IsValidRegister(keys[1]) {
			return StatusNoMatch, nil
		}
		reg = keys[1]
		pos = 2
	}

	count := 0
	if e.mode.Has(mode.UsesCount) {
		n, consumed := vim.ParseCount(keys[pos:])
		count = n
		pos += consumed
	}
	if pos == len(keys) {
		return StatusWaiting, nil
	}

	matchStart := pos
	m, err := e.match(keys[pos:], keymap.KindAction, pos)
	if err != nil {
		return StatusError, err
	}
	b := m.Binding
	if b == nil {
		if m.More && !e.opts.TimedOut {
			return StatusWaiting, nil
		}
		return e.fallback(matchStart, reg)
	}
	if m.More && !e.resolved() {
		if b.Follow != keymap.FollowNone || b.Flags&keymap.Wait != 0 {
			return StatusWaiting, nil
		}
		return StatusWaitingShort, nil
	}
	pos += m.Len

	if b.IsRemap() {
		return e.expand(b, keys[:matchStart], pos)
	}

	info := keymap.Info{
		Mode:       e.mode.Name,
		Keys:       b.Keys,
		Count:      max(count, 1),
		CountGiven: count > 0,
		Register:   reg,
		Mapped:     matchStart < e.mappedEnd,
		AfterWait:  m.More && e.opts.TimedOut,
	}
	var st keymap.State

	switch b.Follow {
	case keymap.FollowMultiKey:
		if pos == len(keys) {
			return StatusWaiting, nil
		}
		info.Multi = keys[pos]
		pos++
	case keymap.FollowSelector:
		status, next, err := e.selector(pos, count, reg, &st)
		if status != StatusExecuted {
			return status, err
		}
		pos = next
	}

	if err := e.call(b.Handler, b, info, &st); err != nil {
		return StatusError, err
	}
	e.consume(pos)
	return StatusExecuted, nil
}

// selector matches and runs the selector starting at pos. The selector is
// called with the action count and its own count multiplied, and reports
// the units it spans through st.
func (e *execution) selector(pos, count int, reg rune, st *keymap.State) (Status, int, error) {
	keys := e.keys

	selCount := 0
	if e.mode.Has(mode.UsesCount) {
		n, consumed := vim.ParseCount(keys[pos:])
		selCount = n
		pos += consumed
	}
	if pos == len(keys) {
		return StatusWaiting, pos, nil
	}

	selStart := pos
	m, err := e.match(keys[pos:], keymap.KindSelector, pos)
	if err != nil {
		return StatusError, pos, err
	}
	s := m.Binding
	if s == nil {
		if m.More && !e.opts.TimedOut {
			return StatusWaiting, pos, nil
		}
		return StatusNoMatch, pos, nil
	}
	if m.More && !e.resolved() {
		return StatusWaitingShort, pos, nil
	}
	pos += m.Len

	info := keymap.Info{
		Mode:       e.mode.Name,
		Keys:       s.Keys,
		Count:      vim.CombineCounts(count, selCount),
		CountGiven: count > 0 || selCount > 0,
		Register:   reg,
		Mapped:     selStart < e.mappedEnd,
		AfterWait:  m.More && e.opts.TimedOut,
	}
	if s.Follow == keymap.FollowMultiKey {
		if pos == len(keys) {
			return StatusWaiting, pos, nil
		}
		info.Multi = keys[pos]
		pos++
	}

	sel := keymap.State{Count: info.Count}
	if err := e.call(s.Handler, s, info, &sel); err != nil {
		return StatusError, pos, err
	}
	*st = keymap.State{Selector: true, Count: sel.Count, Indexes: sel.Indexes}
	return StatusExecuted, pos, nil
}

// fallback hands the key at pos to the mode's default handler.
func (e *execution) fallback(pos int, reg rune) (Status, error) {
	if !e.mode.Has(mode.UsesInput) {
		return StatusNoMatch, nil
	}
	h := e.d.defaultHandler(e.mode.Name)
	if h == nil {
		return StatusNoMatch, nil
	}

	info := keymap.Info{
		Mode:     e.mode.Name,
		Keys:     e.keys[pos : pos+1],
		Count:    1,
		Register: reg,
		Mapped:   pos < e.mappedEnd,
		Multi:    e.keys[pos],
	}
	var st keymap.State
	if err := e.call(h, nil, info, &st); err != nil {
		return StatusError, err
	}
	e.consume(pos + 1)
	return StatusExecuted, nil
}

// expand replaces the left-hand side of a user remap with its right-hand
// side. The register and count typed before it are kept in front.
func (e *execution) expand(b *keymap.Binding, prefix key.Sequence, pos int) (Status, error) {
	e.depth++
	if limit := e.d.config.MaxRemapDepth; limit > 0 && e.depth > limit {
		return StatusError, fmt.Errorf("%w: %s", ErrRemapDepth, b.Keys)
	}
	if e.d.metrics != nil {
		e.d.metrics.recordRemap()
	}

	rest := e.keys[pos:]
	oldMapped := max(e.mappedEnd-pos, 0)
	oldNoremap := max(e.noremapEnd-pos, 0)

	// A mapping to nothing swallows its count as well.
	var head key.Sequence
	if len(b.RHS) > 0 {
		head = prefix.Concat(b.RHS)
	}
	e.keys = head.Concat(rest)
	e.mappedEnd = len(head) + oldMapped
	e.noremapEnd = 0
	if b.Flags&keymap.NoRemap != 0 {
		e.noremapEnd = len(head) + oldNoremap
	}
	return StatusExecuted, nil
}

func (e *execution) match(input key.Sequence, kind keymap.Kind, at int) (keymap.MatchResult, error) {
	return e.d.store.Match(e.mode.Name, input, keymap.MatchOptions{
		Kind:    kind,
		NoRemap: e.opts.NoRemap || at < e.noremapEnd,
	})
}

// consume drops the first n keys after a handler ran.
func (e *execution) consume(n int) {
	e.keys = e.keys[n:]
	e.mappedEnd = max(e.mappedEnd-n, 0)
	e.noremapEnd = max(e.noremapEnd-n, 0)
	e.partial = e.mappedEnd > 0
	e.depth = 0
}

// call runs a handler and records the run.
func (e *execution) call(h keymap.Handler, b *keymap.Binding, info keymap.Info, st *keymap.State) error {
	start := time.Now()
	err := e.d.invoke(h, info, st)
	duration := time.Since(start)
	e.executed++

	if e.d.metrics != nil {
		e.d.metrics.recordExec(info.Mode, info.Keys.String(), duration, err != nil)
	}
	e.d.notify(ExecEvent{
		Mode:     info.Mode,
		Binding:  b,
		Info:     info,
		Duration: duration,
		Err:      err,
	})
	return err
}

// invoke executes a handler with panic recovery.
func (d *Dispatcher) invoke(h keymap.Handler, info keymap.Info, st *keymap.State) (err error) {
	if d.config.RecoverFromPanic {
		defer func() {
			if r := recover(); r != nil {
				stack := make([]byte, 4096)
				n := runtime.Stack(stack, false)
				err = fmt.Errorf("%w for %s: %v\n%s", ErrHandlerPanic, info.Keys, r, stack[:n])
				if d.metrics != nil {
					d.metrics.recordPanic()
				}
			}
		}()
	}
	return h.Handle(info, st)
}
