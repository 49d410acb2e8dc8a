package input

import (
	"sort"
	"sync"

	"github.com/dshills/keystroke/internal/dispatcher"
)

// Hook observes and intercepts keys.
type Hook interface {
	// PreKey is called before a key is added to the pending keys.
	// Return true to consume the key.
	PreKey(code rune, ctx *Context) bool

	// PostKey is called after the dispatcher ran a key or a timeout.
	PostKey(ev *Event, ctx *Context)
}

// HookPriority defines the execution order for hooks.
// Lower values execute first.
type HookPriority int

const (
	// HookPriorityHigh runs early in the hook chain.
	HookPriorityHigh HookPriority = -100
	// HookPriorityNormal is the default priority.
	HookPriorityNormal HookPriority = 0
	// HookPriorityLow runs late in the hook chain.
	HookPriorityLow HookPriority = 100
)

// HookID uniquely identifies a registered hook.
type HookID uint64

// HookRegistration holds metadata about a registered hook.
type HookRegistration struct {
	ID       HookID
	Name     string
	Priority HookPriority
	Hook     Hook
}

// HookManager runs hooks in priority order. Hooks of equal priority run in
// registration order.
type HookManager struct {
	mu      sync.RWMutex
	hooks   []HookRegistration
	nextID  HookID
	enabled bool
}

// NewHookManager creates a new hook manager.
func NewHookManager() *HookManager {
	return &HookManager{enabled: true}
}

// Register adds a hook with default priority.
func (m *HookManager) Register(hook Hook) HookID {
	return m.RegisterWithOptions(hook, "", HookPriorityNormal)
}

// RegisterWithOptions adds a hook with a name and priority.
func (m *HookManager) RegisterWithOptions(hook Hook, name string, priority HookPriority) HookID {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.nextID++
	m.hooks = append(m.hooks, HookRegistration{
		ID:       m.nextID,
		Name:     name,
		Priority: priority,
		Hook:     hook,
	})
	sort.SliceStable(m.hooks, func(i, j int) bool {
		return m.hooks[i].Priority < m.hooks[j].Priority
	})
	return m.nextID
}

// Unregister removes a hook by ID.
func (m *HookManager) Unregister(id HookID) bool {
	m.mu.Lock()
	defer m.mu.Unlock()

	for i := range m.hooks {
		if m.hooks[i].ID == id {
			m.hooks = append(m.hooks[:i], m.hooks[i+1:]...)
			return true
		}
	}
	return false
}

// UnregisterByName removes every hook registered under name.
func (m *HookManager) UnregisterByName(name string) bool {
	m.mu.Lock()
	defer m.mu.Unlock()

	kept := m.hooks[:0]
	for _, reg := range m.hooks {
		if reg.Name != name {
			kept = append(kept, reg)
		}
	}
	removed := len(kept) != len(m.hooks)
	m.hooks = kept
	return removed
}

// SetEnabled enables or disables all hooks.
func (m *HookManager) SetEnabled(enabled bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.enabled = enabled
}

// Count returns the number of registered hooks.
func (m *HookManager) Count() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.hooks)
}

// List returns all hook registrations in execution order.
func (m *HookManager) List() []HookRegistration {
	m.mu.RLock()
	defer m.mu.RUnlock()

	result := make([]HookRegistration, len(m.hooks))
	copy(result, m.hooks)
	return result
}

// snapshot copies the hooks so they run outside the lock.
func (m *HookManager) snapshot() []Hook {
	m.mu.RLock()
	defer m.mu.RUnlock()

	if !m.enabled || len(m.hooks) == 0 {
		return nil
	}
	hooks := make([]Hook, len(m.hooks))
	for i := range m.hooks {
		hooks[i] = m.hooks[i].Hook
	}
	return hooks
}

// RunPreKey runs PreKey hooks until one consumes the key.
func (m *HookManager) RunPreKey(code rune, ctx *Context) bool {
	for _, hook := range m.snapshot() {
		if hook.PreKey(code, ctx) {
			return true
		}
	}
	return false
}

// RunPostKey runs all PostKey hooks.
func (m *HookManager) RunPostKey(ev *Event, ctx *Context) {
	for _, hook := range m.snapshot() {
		hook.PostKey(ev, ctx)
	}
}

// Clear removes all hooks.
func (m *HookManager) Clear() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.hooks = nil
}

// BaseHook provides a default implementation of the Hook interface.
// Embed this in custom hooks to only implement the methods you need.
type BaseHook struct{}

// PreKey is a no-op that does not consume keys.
func (BaseHook) PreKey(rune, *Context) bool {
	return false
}

// PostKey is a no-op.
func (BaseHook) PostKey(*Event, *Context) {}

// FuncHook wraps functions into a Hook interface implementation.
type FuncHook struct {
	PreKeyFunc  func(code rune, ctx *Context) bool
	PostKeyFunc func(ev *Event, ctx *Context)
}

// PreKey calls PreKeyFunc if set.
func (h FuncHook) PreKey(code rune, ctx *Context) bool {
	if h.PreKeyFunc != nil {
		return h.PreKeyFunc(code, ctx)
	}
	return false
}

// PostKey calls PostKeyFunc if set.
func (h FuncHook) PostKey(ev *Event, ctx *Context) {
	if h.PostKeyFunc != nil {
		h.PostKeyFunc(ev, ctx)
	}
}

// LoggingHook reports every dispatcher result that did not execute cleanly.
type LoggingHook struct {
	BaseHook
	Logger func(format string, args ...interface{})
}

// PostKey logs no-match and error results.
func (h LoggingHook) PostKey(ev *Event, ctx *Context) {
	if h.Logger == nil {
		return
	}
	switch {
	case ev.Result.Err != nil:
		h.Logger("input: %s %q: %v", ev.Mode, ev.Input.String(), ev.Result.Err)
	case ev.Result.Status == dispatcher.StatusNoMatch:
		h.Logger("input: %s %q: no mapping", ev.Mode, ev.Input.String())
	}
}
