package api

import (
	"strings"

	lua "github.com/yuin/gopher-lua"
)

// Level is the severity of a status bar message.
type Level string

const (
	// LevelInfo is a regular message.
	LevelInfo Level = "info"
	// LevelError is an error message.
	LevelError Level = "error"
	// LevelQuick is a transient message that is replaced by the next one.
	LevelQuick Level = "quick"
)

// StatusProvider displays messages to the user.
type StatusProvider interface {
	Notify(plugin, message string, level Level)
}

// StatusFunc adapts a function to the StatusProvider interface.
type StatusFunc func(plugin, message string, level Level)

// Notify calls f(plugin, message, level).
func (f StatusFunc) Notify(plugin, message string, level Level) {
	f(plugin, message, level)
}

// StatusModule implements vifm.sb.
type StatusModule struct {
	ctx *Context
}

// NewStatusModule creates a new status bar module.
func NewStatusModule(ctx *Context) *StatusModule {
	return &StatusModule{ctx: ctx}
}

// Name returns the module name.
func (m *StatusModule) Name() string {
	return "sb"
}

// Register creates the vifm.sb table.
func (m *StatusModule) Register(L *lua.LState) (*lua.LTable, error) {
	mod := L.NewTable()
	L.SetField(mod, "info", L.NewFunction(m.notifier(LevelInfo)))
	L.SetField(mod, "error", L.NewFunction(m.notifier(LevelError)))
	L.SetField(mod, "quick", L.NewFunction(m.notifier(LevelQuick)))
	return mod, nil
}

// notifier returns a function joining its arguments with spaces and
// sending them at level.
func (m *StatusModule) notifier(level Level) lua.LGFunction {
	return func(L *lua.LState) int {
		n := L.GetTop()
		if n == 0 {
			L.ArgError(1, "message expected")
			return 0
		}
		parts := make([]string, 0, n)
		for i := 1; i <= n; i++ {
			parts = append(parts, L.ToStringMeta(L.Get(i)).String())
		}
		m.Notify(strings.Join(parts, " "), level)
		return 0
	}
}

// Notify sends a message on behalf of the plugin. Without a provider the
// message is dropped.
func (m *StatusModule) Notify(message string, level Level) {
	if m.ctx.Status == nil {
		return
	}
	m.ctx.Status.Notify(m.ctx.Plugin, message, level)
}

