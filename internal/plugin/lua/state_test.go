package lua

import (
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	glua "github.com/yuin/gopher-lua"
)

func newState(t *testing.T, opts ...StateOption) *State {
	t.Helper()
	state, err := NewState(opts...)
	if err != nil {
		t.Fatalf("NewState() error = %v", err)
	}
	t.Cleanup(func() { state.Close() })
	return state
}

func TestStateDoString(t *testing.T) {
	state := newState(t)

	if err := state.DoString(`x = 1 + 1`); err != nil {
		t.Fatalf("DoString() error = %v", err)
	}
	if v, ok := state.GetGlobal("x").(glua.LNumber); !ok || v != 2 {
		t.Errorf("x = %v, want 2", state.GetGlobal("x"))
	}

	if err := state.DoString(`invalid lua code !!!`); err == nil {
		t.Error("DoString() with a syntax error should fail")
	}
}

func TestStateCall(t *testing.T) {
	state := newState(t)

	if err := state.DoString(`function add(a, b) return a + b, "done" end`); err != nil {
		t.Fatal(err)
	}
	results, err := state.Call("add", glua.LNumber(2), glua.LNumber(3))
	if err != nil {
		t.Fatalf("Call() error = %v", err)
	}
	if len(results) != 2 || results[0] != glua.LNumber(5) || results[1] != glua.LString("done") {
		t.Errorf("Call() = %v", results)
	}

	if _, err := state.Call("missing"); err == nil {
		t.Error("Call() of a missing function should fail")
	}
}

func TestStateCallFunction(t *testing.T) {
	state := newState(t)

	if err := state.DoString(`f = function() error("boom") end; g = function() end`); err != nil {
		t.Fatal(err)
	}
	f := state.GetGlobal("f").(*glua.LFunction)
	if _, err := state.CallFunction(f); err == nil || !strings.Contains(err.Error(), "boom") {
		t.Errorf("CallFunction() error = %v", err)
	}

	g := state.GetGlobal("g").(*glua.LFunction)
	results, err := state.CallFunction(g)
	if err != nil || results == nil || len(results) != 0 {
		t.Errorf("CallFunction() = %v, %v", results, err)
	}
}

func TestStatePrintRedirect(t *testing.T) {
	var (
		mu    sync.Mutex
		lines []string
	)
	state := newState(t, WithPrint(func(msg string) {
		mu.Lock()
		lines = append(lines, msg)
		mu.Unlock()
	}))

	if err := state.DoString(`print("hello", 42, nil)`); err != nil {
		t.Fatal(err)
	}
	if len(lines) != 1 || lines[0] != "hello\t42\tnil" {
		t.Errorf("printed %q", lines)
	}
}

func TestSandboxRemovesLoaders(t *testing.T) {
	state := newState(t)

	for _, code := range []string{
		`dofile("x.lua")`,
		`loadfile("x.lua")`,
		`load("return 1")`,
		`os.exit(1)`,
		`io.open("/etc/passwd")`,
		`require("os")`,
	} {
		if err := state.DoString(code); err == nil {
			t.Errorf("DoString(%q) should fail", code)
		}
	}
}

func TestSandboxRequire(t *testing.T) {
	state := newState(t, WithModule("greeting", func(L *glua.LState) int {
		mod := L.NewTable()
		L.SetField(mod, "text", glua.LString("hi"))
		L.Push(mod)
		return 1
	}))

	if err := state.DoString(`s = require("string").upper(require("greeting").text)`); err != nil {
		t.Fatalf("require error = %v", err)
	}
	if got := state.GetGlobal("s"); got != glua.LString("HI") {
		t.Errorf("s = %v", got)
	}
	if !state.Sandbox().Allowed("greeting") || state.Sandbox().Allowed("socket") {
		t.Error("Allowed() disagrees with the preloaded modules")
	}
}

func TestStateExecutionTimeout(t *testing.T) {
	state := newState(t, WithExecutionTimeout(50*time.Millisecond))

	err := state.DoString(`while true do end`)
	if !errors.Is(err, ErrExecutionTimeout) {
		t.Fatalf("DoString() error = %v, want ErrExecutionTimeout", err)
	}

	// The state stays usable after a timeout.
	if err := state.DoString(`y = 1`); err != nil {
		t.Errorf("DoString() after timeout error = %v", err)
	}
}

func TestStateClose(t *testing.T) {
	state := newState(t)

	if err := state.Close(); err != nil {
		t.Fatal(err)
	}
	if !state.IsClosed() {
		t.Error("IsClosed() = false after Close()")
	}
	if err := state.DoString(`x = 1`); !errors.Is(err, ErrStateClosed) {
		t.Errorf("DoString() after Close() error = %v", err)
	}
	if state.GetGlobal("x") != glua.LNil {
		t.Error("GetGlobal() after Close() should return nil")
	}
	if err := state.Close(); err != nil {
		t.Errorf("second Close() error = %v", err)
	}
}

func TestBridge(t *testing.T) {
	state := newState(t)

	if err := state.DoString(`t = { name = "x", n = 3, ok = true, list = {"a", "b"}, nums = {1, 2.5} }`); err != nil {
		t.Fatal(err)
	}
	tbl := state.GetGlobal("t").(*glua.LTable)
	b := NewBridge(state.L)

	if s, ok := b.GetTableString(tbl, "name"); !ok || s != "x" {
		t.Errorf("GetTableString() = %q, %v", s, ok)
	}
	if n, ok := b.GetTableInt(tbl, "n"); !ok || n != 3 {
		t.Errorf("GetTableInt() = %d, %v", n, ok)
	}
	if v, ok := b.GetTableBool(tbl, "ok"); !ok || !v {
		t.Errorf("GetTableBool() = %v, %v", v, ok)
	}
	list, _ := b.GetTableTable(tbl, "list")
	if s, ok := b.Strings(list); !ok || strings.Join(s, ",") != "a,b" {
		t.Errorf("Strings() = %q, %v", s, ok)
	}
	nums, _ := b.GetTableTable(tbl, "nums")
	if _, ok := b.Ints(nums); ok {
		t.Error("Ints() should reject 2.5")
	}
	if got := b.IntTable([]int{4, 5}).Len(); got != 2 {
		t.Errorf("IntTable() length = %d", got)
	}
}
