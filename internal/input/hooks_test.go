package input

import (
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/dshills/keystroke/internal/dispatcher"
	"github.com/dshills/keystroke/internal/input/key"
)

func TestHookManagerPriority(t *testing.T) {
	m := NewHookManager()

	var order []string
	hook := func(name string) Hook {
		return FuncHook{PreKeyFunc: func(rune, *Context) bool {
			order = append(order, name)
			return false
		}}
	}
	m.RegisterWithOptions(hook("low"), "low", HookPriorityLow)
	m.Register(hook("normal-1"))
	m.RegisterWithOptions(hook("high"), "high", HookPriorityHigh)
	m.Register(hook("normal-2"))

	m.RunPreKey('x', &Context{})
	want := []string{"high", "normal-1", "normal-2", "low"}
	if strings.Join(order, ",") != strings.Join(want, ",") {
		t.Errorf("order = %v, want %v", order, want)
	}
}

func TestHookManagerStopsOnConsume(t *testing.T) {
	m := NewHookManager()

	second := false
	m.Register(FuncHook{PreKeyFunc: func(rune, *Context) bool { return true }})
	m.Register(FuncHook{PreKeyFunc: func(rune, *Context) bool {
		second = true
		return false
	}})

	if !m.RunPreKey('x', &Context{}) {
		t.Error("RunPreKey should report the key consumed")
	}
	if second {
		t.Error("hooks after the consuming one should not run")
	}
}

func TestHookManagerUnregister(t *testing.T) {
	m := NewHookManager()

	id := m.Register(BaseHook{})
	m.RegisterWithOptions(BaseHook{}, "named", HookPriorityNormal)
	m.RegisterWithOptions(BaseHook{}, "named", HookPriorityLow)

	if !m.Unregister(id) || m.Unregister(id) {
		t.Error("Unregister should succeed once")
	}
	if !m.UnregisterByName("named") || m.Count() != 0 {
		t.Errorf("UnregisterByName left %d hooks", m.Count())
	}
	if m.UnregisterByName("named") {
		t.Error("UnregisterByName of a missing name should report false")
	}
}

func TestHookManagerDisabled(t *testing.T) {
	m := NewHookManager()
	m.Register(FuncHook{PreKeyFunc: func(rune, *Context) bool { return true }})

	m.SetEnabled(false)
	if m.RunPreKey('x', &Context{}) {
		t.Error("disabled hooks should not run")
	}
	m.SetEnabled(true)
	if len(m.List()) != 1 {
		t.Errorf("List() = %v", m.List())
	}
	m.Clear()
	if m.Count() != 0 {
		t.Error("Clear left hooks")
	}
}

func TestLoggingHook(t *testing.T) {
	var lines []string
	h := LoggingHook{Logger: func(format string, args ...interface{}) {
		lines = append(lines, format)
	}}

	h.PostKey(&Event{Input: key.Seq("j"), Result: dispatcher.Result{Status: dispatcher.StatusExecuted}}, nil)
	h.PostKey(&Event{Input: key.Seq("q"), Result: dispatcher.Result{Status: dispatcher.StatusNoMatch}}, nil)
	h.PostKey(&Event{Input: key.Seq("x"), Result: dispatcher.Result{Status: dispatcher.StatusError, Err: errors.New("boom")}}, nil)

	if len(lines) != 2 {
		t.Errorf("logged %d lines, want 2", len(lines))
	}
}

func TestMetricsSnapshot(t *testing.T) {
	m := NewMetrics(4)

	for i := 1; i <= 6; i++ {
		m.RecordKey(time.Duration(i)*time.Millisecond, 1, i == 6)
	}
	m.RecordTimeout()

	snap := m.Snapshot()
	if snap.KeysTotal != 6 || snap.CommandsTotal != 6 || snap.NoMatchTotal != 1 || snap.SequenceTimeouts != 1 {
		t.Errorf("snapshot = %+v", snap)
	}
	if snap.PeakLatency != 6*time.Millisecond {
		t.Errorf("PeakLatency = %v", snap.PeakLatency)
	}
	// Only the latest four samples (3..6ms) are kept.
	if snap.AvgLatency != 4500*time.Microsecond {
		t.Errorf("AvgLatency = %v", snap.AvgLatency)
	}

	m.Reset()
	if snap := m.Snapshot(); snap.KeysTotal != 0 || snap.AvgLatency != 0 {
		t.Errorf("snapshot after Reset = %+v", snap)
	}
}
