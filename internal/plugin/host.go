package plugin

import (
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/dshills/keystroke/internal/input/key"
	"github.com/dshills/keystroke/internal/input/keymap"
	"github.com/dshills/keystroke/internal/plugin/api"
	plua "github.com/dshills/keystroke/internal/plugin/lua"
)

// Env is what plugins are connected to.
type Env struct {
	// Store receives the keys plugins register. Required.
	Store *keymap.Store

	// Translator parses key notation. Defaults to the extended table.
	Translator *key.Translator

	// Status receives print output and vifm.sb messages.
	Status api.StatusProvider

	// Mode reports the current mode to vifm.mode.
	Mode api.ModeProvider
}

// Host manages a single plugin's Lua state and lifecycle.
type Host struct {
	mu sync.RWMutex

	name     string
	manifest *Manifest
	env      Env

	// id tags the keys of the current load.
	id    string
	state *plua.State

	pluginState State
	err         error
	loadedAt    time.Time

	executionTimeout time.Duration
}

// HostOption configures a Host.
type HostOption func(*Host)

// WithHostExecutionTimeout sets the execution timeout for plugin calls.
func WithHostExecutionTimeout(d time.Duration) HostOption {
	return func(h *Host) {
		h.executionTimeout = d
	}
}

// NewHost creates a new plugin host for the given manifest.
func NewHost(manifest *Manifest, env Env, opts ...HostOption) (*Host, error) {
	if manifest == nil {
		return nil, ErrNilManifest
	}
	if env.Store == nil {
		return nil, ErrNoStore
	}
	if env.Translator == nil {
		env.Translator = key.NewTranslator(true)
	}

	h := &Host{
		name:             manifest.Name,
		manifest:         manifest,
		env:              env,
		pluginState:      StateUnloaded,
		executionTimeout: plua.DefaultExecutionTimeout,
	}
	for _, opt := range opts {
		opt(h)
	}
	return h, nil
}

// Name returns the plugin name.
func (h *Host) Name() string {
	return h.name
}

// Manifest returns the plugin manifest.
func (h *Host) Manifest() *Manifest {
	return h.manifest
}

// ID returns the owner id of the keys registered by the current load, or
// "" when the plugin is not loaded.
func (h *Host) ID() string {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return h.id
}

// State returns the current plugin state.
func (h *Host) State() State {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return h.pluginState
}

// Error returns the error of the last failed load.
func (h *Host) Error() error {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return h.err
}

// LoadedAt returns when the plugin was last loaded.
func (h *Host) LoadedAt() time.Time {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return h.loadedAt
}

// Load creates a fresh Lua state, installs the vifm API and runs the
// plugin's main file. A plugin that fails to load leaves no keys behind.
func (h *Host) Load() error {
	h.mu.Lock()
	defer h.mu.Unlock()

	if h.pluginState == StateLoaded {
		return ErrAlreadyLoaded
	}

	id := uuid.NewString()
	state, err := plua.NewState(
		plua.WithExecutionTimeout(h.executionTimeout),
		plua.WithPrint(func(msg string) {
			if h.env.Status != nil {
				h.env.Status.Notify(h.name, msg, api.LevelInfo)
			}
		}),
	)
	if err != nil {
		return h.fail(err)
	}

	ctx := &api.Context{
		Plugin:     h.name,
		Path:       h.manifest.Path(),
		Owner:      id,
		Store:      h.env.Store,
		Translator: h.env.Translator,
		State:      state,
		Status:     h.env.Status,
		Mode:       h.env.Mode,
	}
	if err := state.Do(api.DefaultRegistry(ctx).Install); err != nil {
		state.Close()
		return h.fail(fmt.Errorf("failed to install api: %w", err))
	}
	state.Sandbox().Allow(api.Namespace)

	if err := state.DoFile(h.manifest.MainPath()); err != nil {
		h.env.Store.ClearOwner(id)
		state.Close()
		return h.fail(fmt.Errorf("failed to load plugin: %w", err))
	}

	h.id = id
	h.state = state
	h.pluginState = StateLoaded
	h.err = nil
	h.loadedAt = time.Now()
	return nil
}

// fail records err. Must be called with mu held.
func (h *Host) fail(err error) error {
	h.pluginState = StateError
	h.err = err
	return err
}

// Unload removes the plugin's keys and closes its Lua state.
func (h *Host) Unload() error {
	h.mu.Lock()
	defer h.mu.Unlock()

	if h.pluginState != StateLoaded {
		h.pluginState = StateUnloaded
		h.err = nil
		return nil
	}

	h.env.Store.ClearOwner(h.id)
	err := h.state.Close()

	h.state = nil
	h.id = ""
	h.pluginState = StateUnloaded
	h.err = nil
	return err
}

// Reload unloads and loads the plugin again.
func (h *Host) Reload() error {
	if err := h.Unload(); err != nil {
		return err
	}
	return h.Load()
}

// DoString runs code in the plugin's Lua state.
func (h *Host) DoString(code string) error {
	h.mu.RLock()
	state := h.state
	h.mu.RUnlock()

	if state == nil {
		return ErrNotLoaded
	}
	return state.DoString(code)
}
