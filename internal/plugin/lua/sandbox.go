package lua

import (
	"strings"

	lua "github.com/yuin/gopher-lua"
)

// safeModules are the built-in modules require may return.
var safeModules = map[string]bool{
	"string": true,
	"table":  true,
	"math":   true,
}

// Sandbox restricts Lua execution to safe operations.
type Sandbox struct {
	L *lua.LState

	print func(msg string)

	// modules are the names require accepts besides safeModules.
	modules map[string]bool
}

// NewSandbox creates a new sandbox for the Lua state. Output of print goes
// to printFn, or nowhere when it is nil.
func NewSandbox(L *lua.LState, printFn func(msg string)) *Sandbox {
	return &Sandbox{
		L:       L,
		print:   printFn,
		modules: make(map[string]bool),
	}
}

// Install sets up the sandbox restrictions. preload lists the modules
// registered with PreloadModule that require may load.
func (s *Sandbox) Install(preload map[string]lua.LGFunction) {
	// Remove functions that load code from outside the plugin API.
	for _, name := range []string{"dofile", "loadfile", "load", "loadstring"} {
		s.L.SetGlobal(name, lua.LNil)
	}
	for name := range preload {
		s.modules[name] = true
	}

	s.installPrint()
	s.installSafeRequire()
}

// Allow lets require load a module registered later with PreloadModule.
func (s *Sandbox) Allow(name string) {
	s.modules[name] = true
}

// Allowed reports whether require accepts name.
func (s *Sandbox) Allowed(name string) bool {
	return safeModules[name] || s.modules[name]
}

// installPrint replaces print with a version that writes to the sandbox
// output.
func (s *Sandbox) installPrint() {
	s.L.SetGlobal("print", s.L.NewFunction(func(L *lua.LState) int {
		n := L.GetTop()
		parts := make([]string, 0, n)
		for i := 1; i <= n; i++ {
			parts = append(parts, L.ToStringMeta(L.Get(i)).String())
		}
		if s.print != nil {
			s.print(strings.Join(parts, "\t"))
		}
		return 0
	}))
}

// installSafeRequire clears the module search paths and replaces require
// with a version that only loads whitelisted modules.
func (s *Sandbox) installSafeRequire() {
	if pkgTable, ok := s.L.GetGlobal("package").(*lua.LTable); ok {
		s.L.SetField(pkgTable, "path", lua.LString(""))
		s.L.SetField(pkgTable, "cpath", lua.LString(""))
	}

	originalRequire := s.L.GetGlobal("require")
	s.L.SetGlobal("require", s.L.NewFunction(func(L *lua.LState) int {
		modName := L.CheckString(1)
		if !s.Allowed(modName) {
			L.RaiseError("module %q is not available", modName)
			return 0
		}
		L.Push(originalRequire)
		L.Push(lua.LString(modName))
		L.Call(1, 1)
		return 1
	}))
}
