package api

import (
	"fmt"
	"sync"

	lua "github.com/yuin/gopher-lua"

	"github.com/dshills/keystroke/internal/input/key"
	"github.com/dshills/keystroke/internal/input/keymap"
	plua "github.com/dshills/keystroke/internal/plugin/lua"
)

// Namespace is the global table and module name of the plugin API.
const Namespace = "vifm"

// Version is reported to plugins as vifm.version.
const Version = "0.1.0"

// Module represents a part of the Lua API.
type Module interface {
	// Name returns the field of the vifm table the module is stored in.
	Name() string

	// Register creates the module table in L.
	Register(L *lua.LState) (*lua.LTable, error)
}

// Context gives API modules access to the application for one plugin.
type Context struct {
	// Plugin is the plugin name.
	Plugin string

	// Path is the plugin directory.
	Path string

	// Owner tags the keys the plugin registers. It is unique per load of
	// a plugin.
	Owner string

	// Store receives the plugin's keys.
	Store *keymap.Store

	// Translator parses key notation.
	Translator *key.Translator

	// State runs Lua handlers. It must be the state the modules are
	// registered in.
	State *plua.State

	// Status shows messages to the user.
	Status StatusProvider

	// Mode reports the current mode.
	Mode ModeProvider
}

// Registry manages API modules and their registration.
type Registry struct {
	mu      sync.RWMutex
	modules map[string]Module
	order   []string
}

// NewRegistry creates a new API registry.
func NewRegistry() *Registry {
	return &Registry{
		modules: make(map[string]Module),
	}
}

// DefaultRegistry creates a registry with the standard modules for ctx.
func DefaultRegistry(ctx *Context) *Registry {
	r := NewRegistry()
	for _, mod := range []Module{
		NewKeysModule(ctx),
		NewStatusModule(ctx),
		NewModeModule(ctx),
		NewPluginModule(ctx),
	} {
		// Names of the standard modules are distinct.
		_ = r.Register(mod)
	}
	return r
}

// Register adds a module to the registry.
func (r *Registry) Register(mod Module) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.modules[mod.Name()]; exists {
		return fmt.Errorf("module %q already registered", mod.Name())
	}
	r.modules[mod.Name()] = mod
	r.order = append(r.order, mod.Name())
	return nil
}

// Get returns a module by name.
func (r *Registry) Get(name string) (Module, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	mod, ok := r.modules[name]
	return mod, ok
}

// List returns the registered module names in registration order.
func (r *Registry) List() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	names := make([]string, len(r.order))
	copy(names, r.order)
	return names
}

// Install builds the vifm table from every module, stores it as a global
// and makes require("vifm") return it.
func (r *Registry) Install(L *lua.LState) error {
	r.mu.RLock()
	defer r.mu.RUnlock()

	root := L.NewTable()
	for _, name := range r.order {
		tbl, err := r.modules[name].Register(L)
		if err != nil {
			return fmt.Errorf("failed to register module %q: %w", name, err)
		}
		L.SetField(root, name, tbl)
	}
	L.SetField(root, "version", lua.LString(Version))

	L.SetGlobal(Namespace, root)
	L.PreloadModule(Namespace, func(L *lua.LState) int {
		L.Push(root)
		return 1
	})
	return nil
}
