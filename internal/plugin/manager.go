package plugin

import (
	"errors"
	"fmt"
	"sync"
	"time"
)

// Manager manages the lifecycle of all plugins.
type Manager struct {
	mu sync.RWMutex

	// Loader for plugin discovery
	loader *Loader

	env Env

	// Plugins by name, failed ones included
	plugins map[string]*Host

	// Plugin load order (for deterministic iteration)
	loadOrder []string

	// Event handlers (protected by mu)
	eventHandlers []EventHandler

	config ManagerConfig
}

// ManagerConfig configures the plugin manager.
type ManagerConfig struct {
	// PluginPaths are directories to search for plugins
	PluginPaths []string

	// ExecutionTimeout limits each call into a plugin.
	ExecutionTimeout time.Duration
}

// EventHandler handles plugin manager events.
// Handlers must not call back into the Manager. Panics in handlers are
// recovered.
type EventHandler func(event ManagerEvent)

// ManagerEvent represents a plugin manager event.
type ManagerEvent struct {
	Type   ManagerEventType
	Plugin string
	Error  error
}

// ManagerEventType is the type of manager event.
type ManagerEventType int

const (
	// EventPluginLoaded is emitted when a plugin is loaded.
	EventPluginLoaded ManagerEventType = iota
	// EventPluginUnloaded is emitted when a plugin is unloaded.
	EventPluginUnloaded
	// EventPluginError is emitted when a plugin fails to load.
	EventPluginError
)

// String returns a string representation of the event type.
func (t ManagerEventType) String() string {
	switch t {
	case EventPluginLoaded:
		return "loaded"
	case EventPluginUnloaded:
		return "unloaded"
	case EventPluginError:
		return "error"
	default:
		return "unknown"
	}
}

// NewManager creates a new plugin manager.
func NewManager(config ManagerConfig, env Env) *Manager {
	return &Manager{
		loader:  NewLoader(config.PluginPaths...),
		env:     env,
		plugins: make(map[string]*Host),
		config:  config,
	}
}

// Discover searches for available plugins.
func (m *Manager) Discover() ([]*PluginInfo, error) {
	return m.loader.Discover()
}

// Load loads a plugin by name. A plugin that fails is kept in the list
// in StateError so it can be reported.
func (m *Manager) Load(name string) (*Host, error) {
	m.mu.RLock()
	existing, exists := m.plugins[name]
	m.mu.RUnlock()
	if exists && existing.State() == StateLoaded {
		return nil, fmt.Errorf("plugin %q: %w", name, ErrAlreadyLoaded)
	}

	info, err := m.loader.FindPlugin(name)
	if err != nil {
		return nil, err
	}
	host, err := m.newHost(info)
	if err != nil {
		return nil, err
	}

	loadErr := info.Error
	if loadErr == nil {
		loadErr = host.Load()
	}
	m.track(name, host)

	if loadErr != nil {
		m.emitEvent(ManagerEvent{Type: EventPluginError, Plugin: name, Error: loadErr})
		return host, fmt.Errorf("plugin %q: %w", name, loadErr)
	}
	m.emitEvent(ManagerEvent{Type: EventPluginLoaded, Plugin: name})
	return host, nil
}

// newHost creates a host for a discovered plugin. Plugins whose discovery
// failed get a host already in StateError.
func (m *Manager) newHost(info *PluginInfo) (*Host, error) {
	manifest := info.Manifest
	if manifest == nil {
		manifest = NewManifestMinimal(info.Name, info.Path)
	}
	var opts []HostOption
	if m.config.ExecutionTimeout > 0 {
		opts = append(opts, WithHostExecutionTimeout(m.config.ExecutionTimeout))
	}
	host, err := NewHost(manifest, m.env, opts...)
	if err != nil {
		return nil, err
	}
	if info.Error != nil {
		host.mu.Lock()
		host.fail(info.Error)
		host.mu.Unlock()
	}
	return host, nil
}

// LoadAll loads all discovered plugins in name order.
func (m *Manager) LoadAll() error {
	plugins, err := m.loader.Discover()
	if err != nil {
		return err
	}

	var loadErrors []error
	for _, info := range plugins {
		if _, err := m.Load(info.Name); err != nil {
			loadErrors = append(loadErrors, err)
		}
	}

	if len(loadErrors) > 0 {
		return fmt.Errorf("failed to load %d plugins: %w", len(loadErrors), errors.Join(loadErrors...))
	}
	return nil
}

// track records host under name.
func (m *Manager) track(name string, host *Host) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, exists := m.plugins[name]; !exists {
		m.loadOrder = append(m.loadOrder, name)
	}
	m.plugins[name] = host
}

// Unload unloads a plugin by name and forgets it.
func (m *Manager) Unload(name string) error {
	m.mu.Lock()
	host, exists := m.plugins[name]
	if !exists {
		m.mu.Unlock()
		return fmt.Errorf("plugin %q: %w", name, ErrPluginNotFound)
	}
	delete(m.plugins, name)
	m.removeFromLoadOrder(name)
	m.mu.Unlock()

	if err := host.Unload(); err != nil {
		return fmt.Errorf("failed to unload plugin %q: %w", name, err)
	}
	m.emitEvent(ManagerEvent{Type: EventPluginUnloaded, Plugin: name})
	return nil
}

// UnloadAll unloads all plugins in reverse load order.
func (m *Manager) UnloadAll() error {
	m.mu.RLock()
	names := make([]string, len(m.loadOrder))
	copy(names, m.loadOrder)
	m.mu.RUnlock()

	var unloadErrors []error
	for i := len(names) - 1; i >= 0; i-- {
		if err := m.Unload(names[i]); err != nil {
			unloadErrors = append(unloadErrors, err)
		}
	}

	if len(unloadErrors) > 0 {
		return fmt.Errorf("failed to unload %d plugins: %w", len(unloadErrors), errors.Join(unloadErrors...))
	}
	return nil
}

// Reload reloads one plugin from disk.
func (m *Manager) Reload(name string) error {
	if err := m.Unload(name); err != nil {
		return err
	}
	// Pick up changes to the manifest.
	if _, err := m.loader.Discover(); err != nil {
		return err
	}
	_, err := m.Load(name)
	return err
}

// ReloadAll unloads every plugin and loads the plugins found on disk.
// Plugins register their keys again, which is needed after the store's
// user and foreign bindings were cleared.
func (m *Manager) ReloadAll() error {
	return errors.Join(m.UnloadAll(), m.LoadAll())
}

// Get returns a plugin by name.
func (m *Manager) Get(name string) (*Host, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	host, ok := m.plugins[name]
	return host, ok
}

// List returns all plugins, failed ones included, in load order.
func (m *Manager) List() []*Host {
	m.mu.RLock()
	defer m.mu.RUnlock()

	hosts := make([]*Host, 0, len(m.loadOrder))
	for _, name := range m.loadOrder {
		hosts = append(hosts, m.plugins[name])
	}
	return hosts
}

// Subscribe adds an event handler.
// Returns an unsubscribe function to remove the handler.
func (m *Manager) Subscribe(handler EventHandler) func() {
	if handler == nil {
		return func() {}
	}

	m.mu.Lock()
	m.eventHandlers = append(m.eventHandlers, handler)
	index := len(m.eventHandlers) - 1
	m.mu.Unlock()

	return func() {
		m.mu.Lock()
		defer m.mu.Unlock()
		// Set to nil instead of removing to keep indexes stable
		if index < len(m.eventHandlers) {
			m.eventHandlers[index] = nil
		}
	}
}

// Count returns the number of plugins, failed ones included.
func (m *Manager) Count() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.plugins)
}

// Errors returns all plugins in error state with their errors.
func (m *Manager) Errors() map[string]error {
	m.mu.RLock()
	defer m.mu.RUnlock()

	errs := make(map[string]error)
	for name, host := range m.plugins {
		if host.State() == StateError && host.Error() != nil {
			errs[name] = host.Error()
		}
	}
	return errs
}

// Loader returns the underlying loader.
func (m *Manager) Loader() *Loader {
	return m.loader
}

// emitEvent sends an event to all handlers.
// Handlers are called outside any locks and panics are recovered.
func (m *Manager) emitEvent(event ManagerEvent) {
	m.mu.RLock()
	handlers := make([]EventHandler, len(m.eventHandlers))
	copy(handlers, m.eventHandlers)
	m.mu.RUnlock()

	for _, handler := range handlers {
		if handler == nil {
			continue
		}
		func() {
			defer func() {
				_ = recover()
			}()
			handler(event)
		}()
	}
}

// removeFromLoadOrder removes a name from the load order slice.
// Must be called with mu held.
func (m *Manager) removeFromLoadOrder(name string) {
	for i, n := range m.loadOrder {
		if n == name {
			m.loadOrder = append(m.loadOrder[:i], m.loadOrder[i+1:]...)
			return
		}
	}
}
