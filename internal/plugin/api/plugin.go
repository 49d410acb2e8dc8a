package api

import (
	"path/filepath"

	lua "github.com/yuin/gopher-lua"
)

// PluginModule implements vifm.plugin, which describes the running plugin.
type PluginModule struct {
	ctx *Context
}

// NewPluginModule creates a new plugin module.
func NewPluginModule(ctx *Context) *PluginModule {
	return &PluginModule{ctx: ctx}
}

// Name returns the module name.
func (m *PluginModule) Name() string {
	return "plugin"
}

// Register creates the vifm.plugin table.
func (m *PluginModule) Register(L *lua.LState) (*lua.LTable, error) {
	mod := L.NewTable()
	L.SetField(mod, "name", lua.LString(m.ctx.Plugin))
	L.SetField(mod, "path", lua.LString(m.ctx.Path))
	L.SetField(mod, "id", lua.LString(m.ctx.Owner))
	L.SetField(mod, "file", L.NewFunction(m.file))
	return mod, nil
}

// file(name) -> string
// Returns the path of a file inside the plugin directory.
func (m *PluginModule) file(L *lua.LState) int {
	name := L.CheckString(1)
	if filepath.IsAbs(name) {
		L.ArgError(1, "path must be relative to the plugin")
		return 0
	}
	L.Push(lua.LString(filepath.Join(m.ctx.Path, filepath.Clean("/"+name))))
	return 1
}
