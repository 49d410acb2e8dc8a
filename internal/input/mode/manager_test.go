package mode

import (
	"errors"
	"testing"
)

func newTestManager(t *testing.T) *Manager {
	t.Helper()
	m, err := NewManager(DefaultSet(), Normal)
	if err != nil {
		t.Fatalf("NewManager() error = %v", err)
	}
	return m
}

func TestNewManagerUnknownInitial(t *testing.T) {
	if _, err := NewManager(DefaultSet(), "insert"); !errors.Is(err, ErrUnknownMode) {
		t.Errorf("NewManager error = %v, want ErrUnknownMode", err)
	}
}

func TestManagerSwitch(t *testing.T) {
	m := newTestManager(t)

	if err := m.Switch(Visual); err != nil {
		t.Fatalf("Switch() error = %v", err)
	}
	if !m.IsMode(Visual) {
		t.Errorf("current = %q, want visual", m.CurrentName())
	}
	if m.Previous().Name != Normal {
		t.Errorf("previous = %q, want normal", m.Previous().Name)
	}
	if err := m.Switch("bogus"); !errors.Is(err, ErrUnknownMode) {
		t.Errorf("Switch(bogus) error = %v, want ErrUnknownMode", err)
	}
	if !m.IsMode(Visual) {
		t.Error("failed switch should not change the mode")
	}
}

func TestManagerPushPop(t *testing.T) {
	m := newTestManager(t)

	if err := m.Push(Menu); err != nil {
		t.Fatalf("Push() error = %v", err)
	}
	if m.StackDepth() != 1 {
		t.Errorf("StackDepth() = %d, want 1", m.StackDepth())
	}
	if err := m.Pop(); err != nil {
		t.Fatalf("Pop() error = %v", err)
	}
	if !m.IsMode(Normal) {
		t.Errorf("after Pop current = %q, want normal", m.CurrentName())
	}
	if err := m.Pop(); !errors.Is(err, ErrEmptyStack) {
		t.Errorf("Pop() on empty stack error = %v, want ErrEmptyStack", err)
	}
}

func TestManagerOnChange(t *testing.T) {
	m := newTestManager(t)

	var from, to string
	calls := 0
	unregister := m.OnChange(func(f, n Mode) {
		calls++
		from, to = f.Name, n.Name
		// Callbacks run outside the lock.
		_ = m.CurrentName()
	})

	if err := m.Switch(Cmdline); err != nil {
		t.Fatal(err)
	}
	if calls != 1 || from != Normal || to != Cmdline {
		t.Errorf("callback got %d calls, %s -> %s", calls, from, to)
	}

	unregister()
	if err := m.Switch(Normal); err != nil {
		t.Fatal(err)
	}
	if calls != 1 {
		t.Errorf("callback called after unregister")
	}
}
