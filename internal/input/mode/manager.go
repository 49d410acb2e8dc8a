package mode

import (
	"fmt"
	"sync"
)

// Manager tracks the active mode and coordinates mode transitions.
type Manager struct {
	mu sync.RWMutex

	set *Set

	// current is the active mode.
	current Mode

	// previous is the mode before the current one.
	previous Mode

	// modeStack allows pushing/popping modes (e.g. a menu opened from normal).
	modeStack []Mode

	// callbacks are notified on mode changes.
	callbacks []ChangeCallback
}

// ChangeCallback is called when the mode changes.
type ChangeCallback func(from, to Mode)

// NewManager creates a manager over the given set, starting in initial.
func NewManager(set *Set, initial string) (*Manager, error) {
	m, err := set.Lookup(initial)
	if err != nil {
		return nil, err
	}
	return &Manager{
		set:       set,
		current:   m,
		modeStack: make([]Mode, 0, 4),
	}, nil
}

// Set returns the modes the manager switches between.
func (m *Manager) Set() *Set {
	return m.set
}

// Current returns the current mode.
func (m *Manager) Current() Mode {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.current
}

// CurrentName returns the name of the current mode.
func (m *Manager) CurrentName() string {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.current.Name
}

// Previous returns the previous mode. The zero Mode is returned before the
// first switch.
func (m *Manager) Previous() Mode {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.previous
}

// Switch changes to a different mode.
func (m *Manager) Switch(name string) error {
	m.mu.Lock()
	next, err := m.set.Lookup(name)
	if err != nil {
		m.mu.Unlock()
		return err
	}
	old, callbacks := m.switchToLocked(next)
	m.mu.Unlock()

	notify(callbacks, old, next)
	return nil
}

// switchToLocked performs the mode switch (must hold lock).
// Returns the old mode and callbacks to notify.
func (m *Manager) switchToLocked(next Mode) (Mode, []ChangeCallback) {
	old := m.current
	m.previous = old
	m.current = next

	callbacks := make([]ChangeCallback, len(m.callbacks))
	copy(callbacks, m.callbacks)
	return old, callbacks
}

func notify(callbacks []ChangeCallback, from, to Mode) {
	for _, cb := range callbacks {
		if cb != nil {
			cb(from, to)
		}
	}
}

// Push saves the current mode and switches to a new one.
// Use Pop to restore it.
func (m *Manager) Push(name string) error {
	m.mu.Lock()
	next, err := m.set.Lookup(name)
	if err != nil {
		m.mu.Unlock()
		return err
	}
	m.modeStack = append(m.modeStack, m.current)
	old, callbacks := m.switchToLocked(next)
	m.mu.Unlock()

	notify(callbacks, old, next)
	return nil
}

// Pop restores the most recently pushed mode.
func (m *Manager) Pop() error {
	m.mu.Lock()
	if len(m.modeStack) == 0 {
		m.mu.Unlock()
		return ErrEmptyStack
	}
	next := m.modeStack[len(m.modeStack)-1]
	m.modeStack = m.modeStack[:len(m.modeStack)-1]
	old, callbacks := m.switchToLocked(next)
	m.mu.Unlock()

	notify(callbacks, old, next)
	return nil
}

// StackDepth returns the number of modes on the stack.
func (m *Manager) StackDepth() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.modeStack)
}

// OnChange registers a callback for mode changes.
// Returns a function to unregister the callback.
func (m *Manager) OnChange(callback ChangeCallback) func() {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.callbacks = append(m.callbacks, callback)
	index := len(m.callbacks) - 1

	return func() {
		m.mu.Lock()
		defer m.mu.Unlock()
		// Remove callback by setting to nil (preserves indices)
		if index < len(m.callbacks) {
			m.callbacks[index] = nil
		}
	}
}

// IsMode returns true if the current mode matches the given name.
func (m *Manager) IsMode(name string) bool {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.current.Name == name
}

// String implements fmt.Stringer for debugging.
func (m *Manager) String() string {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return fmt.Sprintf("mode.Manager{current=%s, stack=%d}", m.current.Name, len(m.modeStack))
}
