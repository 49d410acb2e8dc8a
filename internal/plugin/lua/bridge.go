package lua

import (
	lua "github.com/yuin/gopher-lua"
)

// Bridge converts between Lua tables and Go values for the plugin API.
type Bridge struct {
	L *lua.LState
}

// NewBridge creates a new Bridge for the given Lua state.
func NewBridge(L *lua.LState) *Bridge {
	return &Bridge{L: L}
}

// GetTableString gets a string field from a Lua table.
func (b *Bridge) GetTableString(t *lua.LTable, key string) (string, bool) {
	if s, ok := t.RawGetString(key).(lua.LString); ok {
		return string(s), true
	}
	return "", false
}

// GetTableInt gets an integral number field from a Lua table.
func (b *Bridge) GetTableInt(t *lua.LTable, key string) (int, bool) {
	return toInt(t.RawGetString(key))
}

// GetTableBool gets a bool field from a Lua table.
func (b *Bridge) GetTableBool(t *lua.LTable, key string) (bool, bool) {
	if v, ok := t.RawGetString(key).(lua.LBool); ok {
		return bool(v), true
	}
	return false, false
}

// GetTableFunc gets a function field from a Lua table.
func (b *Bridge) GetTableFunc(t *lua.LTable, key string) (*lua.LFunction, bool) {
	f, ok := t.RawGetString(key).(*lua.LFunction)
	return f, ok
}

// GetTableTable gets a table field from a Lua table.
func (b *Bridge) GetTableTable(t *lua.LTable, key string) (*lua.LTable, bool) {
	tbl, ok := t.RawGetString(key).(*lua.LTable)
	return tbl, ok
}

// Strings returns the array part of t as strings. Values of other types
// make it fail.
func (b *Bridge) Strings(t *lua.LTable) ([]string, bool) {
	n := t.Len()
	out := make([]string, 0, n)
	for i := 1; i <= n; i++ {
		s, ok := t.RawGetInt(i).(lua.LString)
		if !ok {
			return nil, false
		}
		out = append(out, string(s))
	}
	return out, true
}

// Ints returns the array part of t as integers. Values that are not
// integral numbers make it fail.
func (b *Bridge) Ints(t *lua.LTable) ([]int, bool) {
	n := t.Len()
	out := make([]int, 0, n)
	for i := 1; i <= n; i++ {
		v, ok := toInt(t.RawGetInt(i))
		if !ok {
			return nil, false
		}
		out = append(out, v)
	}
	return out, true
}

// IntTable creates an array table from values.
func (b *Bridge) IntTable(values []int) *lua.LTable {
	t := b.L.CreateTable(len(values), 0)
	for i, v := range values {
		t.RawSetInt(i+1, lua.LNumber(v))
	}
	return t
}

// StringTable creates an array table from values.
func (b *Bridge) StringTable(values []string) *lua.LTable {
	t := b.L.CreateTable(len(values), 0)
	for i, v := range values {
		t.RawSetInt(i+1, lua.LString(v))
	}
	return t
}

func toInt(v lua.LValue) (int, bool) {
	n, ok := v.(lua.LNumber)
	if !ok || float64(n) != float64(int(n)) {
		return 0, false
	}
	return int(n), true
}
