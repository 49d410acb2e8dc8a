package api

import (
	lua "github.com/yuin/gopher-lua"

	"github.com/dshills/keystroke/internal/input/mode"
)

// ModeProvider reports the active mode.
type ModeProvider interface {
	CurrentName() string
}

// ModeModule implements vifm.mode.
type ModeModule struct {
	ctx *Context
}

// NewModeModule creates a new mode module.
func NewModeModule(ctx *Context) *ModeModule {
	return &ModeModule{ctx: ctx}
}

// Name returns the module name.
func (m *ModeModule) Name() string {
	return "mode"
}

// Register creates the vifm.mode table.
func (m *ModeModule) Register(L *lua.LState) (*lua.LTable, error) {
	mod := L.NewTable()
	L.SetField(mod, "current", L.NewFunction(m.current))
	L.SetField(mod, "is", L.NewFunction(m.is))

	L.SetField(mod, "NORMAL", lua.LString(mode.Normal))
	L.SetField(mod, "VISUAL", lua.LString(mode.Visual))
	L.SetField(mod, "CMDLINE", lua.LString(mode.Cmdline))
	L.SetField(mod, "VIEW", lua.LString(mode.View))
	L.SetField(mod, "MENU", lua.LString(mode.Menu))
	return mod, nil
}

func (m *ModeModule) currentName() string {
	if m.ctx.Mode == nil {
		return mode.Normal
	}
	return m.ctx.Mode.CurrentName()
}

// current() -> string
func (m *ModeModule) current(L *lua.LState) int {
	L.Push(lua.LString(m.currentName()))
	return 1
}

// is(name) -> bool
func (m *ModeModule) is(L *lua.LState) int {
	name := L.CheckString(1)
	L.Push(lua.LBool(m.currentName() == name))
	return 1
}
