// Package app wires the key dispatch engine to a file list: settings,
// logging, the binding store with its builtin keys, user mappings, Lua
// plugins and the configuration watcher.
package app

import (
	"errors"
	"fmt"
	"io"
	"os"
	"sync"
	"sync/atomic"
	"time"

	"github.com/dshills/keystroke/internal/config"
	"github.com/dshills/keystroke/internal/config/watcher"
	"github.com/dshills/keystroke/internal/dispatcher"
	"github.com/dshills/keystroke/internal/input"
	"github.com/dshills/keystroke/internal/input/key"
	"github.com/dshills/keystroke/internal/input/keymap"
	"github.com/dshills/keystroke/internal/input/mode"
	"github.com/dshills/keystroke/internal/plugin"
	"github.com/dshills/keystroke/internal/plugin/api"
)

// reloadDebounce coalesces bursts of writes to the watched files.
const reloadDebounce = 200 * time.Millisecond

// App is the running application.
type App struct {
	settings config.Settings
	logger   *Logger
	logFile  io.Closer

	translator *key.Translator
	store      *keymap.Store
	dispatcher *dispatcher.Dispatcher
	modes      *mode.Manager
	input      *input.Handler
	plugins    *plugin.Manager
	watcher    *watcher.Watcher
	pane       *Pane

	// reloadMu serializes Reload.
	reloadMu sync.Mutex

	// mu guards the UI state below. It is never held while keys are
	// dispatched.
	mu         sync.Mutex
	cmdline    string
	status     string
	statusErr  bool
	viewOffset int
	menu       menu

	started  atomic.Bool
	quitting atomic.Bool
	done     chan struct{}
	closed   atomic.Bool
}

// Options configures the application.
type Options struct {
	// ConfigDir holds config.toml, the rc file, keymaps and plugins.
	// Defaults to config.DefaultDir().
	ConfigDir string

	// Settings overrides loading ConfigDir/config.toml.
	Settings *config.Settings

	// Pane is the file list to operate on. Defaults to the working
	// directory.
	Pane *Pane

	// LogOutput overrides the log file of the settings.
	LogOutput io.Writer
}

// New creates an application. Mappings and plugins are loaded by Start.
func New(opts Options) (*App, error) {
	settings, err := loadSettings(opts)
	if err != nil {
		return nil, NewComponentError("config", "load", err)
	}

	a := &App{
		settings: settings,
		pane:     opts.Pane,
		done:     make(chan struct{}),
	}
	a.initLogger(opts.LogOutput)

	if a.pane == nil {
		wd, err := os.Getwd()
		if err == nil {
			a.pane, err = ReadPane(wd)
		}
		if err != nil {
			a.logger.Warn("cannot list working directory: %v", err)
			a.pane = NewPane("", nil)
		}
	}

	if err := a.initInput(); err != nil {
		a.closeLog()
		return nil, err
	}

	a.plugins = plugin.NewManager(plugin.ManagerConfig{
		PluginPaths: []string{settings.PluginsDir},
	}, plugin.Env{
		Store:      a.store,
		Translator: a.translator,
		Status:     api.StatusFunc(a.notify),
		Mode:       a.modes,
	})
	a.plugins.Subscribe(func(ev plugin.ManagerEvent) {
		log := a.logger.WithComponent("plugin").WithField("plugin", ev.Plugin)
		if ev.Error != nil {
			log.Error("%s: %v", ev.Type, ev.Error)
			return
		}
		log.Info("%s", ev.Type)
	})
	return a, nil
}

func loadSettings(opts Options) (config.Settings, error) {
	if opts.Settings != nil {
		return *opts.Settings, opts.Settings.Validate()
	}
	dir := opts.ConfigDir
	if dir == "" {
		dir = config.DefaultDir()
	}
	return config.LoadSettings(dir)
}

func (a *App) initLogger(out io.Writer) {
	if out == nil {
		if a.settings.LogFile != "" {
			f := OpenLogFile(a.settings.LogFile)
			a.logFile = f
			out = f
		} else {
			out = os.Stderr
		}
	}
	a.logger = NewLogger(LoggerConfig{
		Level:  ParseLogLevel(a.settings.LogLevel),
		Output: out,
		Prefix: "keystroke",
	})
}

func (a *App) initInput() error {
	a.translator = key.NewTranslator(a.settings.ExtendedKeys)
	a.store = keymap.NewStore(mode.DefaultSet())

	cfg := dispatcher.DefaultConfig().
		WithMaxRemapDepth(a.settings.MaxRemapDepth).
		WithMetrics()
	a.dispatcher = dispatcher.New(a.store, cfg)

	log := a.logger.WithComponent("dispatcher")
	a.dispatcher.OnExec(func(ev dispatcher.ExecEvent) {
		if ev.Err != nil {
			log.Warn("%s %s: %v", ev.Mode, a.translator.Format(ev.Info.Keys), ev.Err)
			return
		}
		if log.Enabled(LogLevelDebug) {
			log.Debug("%s %s count=%d in %s", ev.Mode, a.translator.Format(ev.Info.Keys), ev.Info.Count, ev.Duration)
		}
	})

	modes, err := mode.NewManager(a.store.Modes(), mode.Normal)
	if err != nil {
		return NewComponentError("mode", "init", err)
	}
	a.modes = modes
	a.modes.OnChange(func(from, to mode.Mode) {
		a.logger.Debug("mode %s -> %s", from.Name, to.Name)
	})

	a.input, err = input.NewHandler(input.Config{
		Timeout:        a.settings.Timeout(),
		MinTimeout:     a.settings.MinTimeout(),
		MetricsSamples: 1000,
	}, a.dispatcher, a.modes)
	if err != nil {
		return NewComponentError("input", "init", err)
	}
	a.input.Hooks().RegisterWithOptions(input.LoggingHook{
		Logger: a.logger.WithComponent("input").Debug,
	}, "logging", input.HookPriorityLow)

	if err := a.registerBuiltins(); err != nil {
		return NewComponentError("keys", "register", err)
	}
	return nil
}

// Start loads the user mappings and plugins, then starts watching the
// configuration files when enabled. Broken mappings and plugins are
// reported and skipped; the returned error joins them.
func (a *App) Start() error {
	if a.closed.Load() {
		return ErrClosed
	}
	if !a.started.CompareAndSwap(false, true) {
		return ErrAlreadyStarted
	}
	err := a.load()
	if a.settings.Watch {
		if werr := a.startWatcher(); werr != nil {
			a.logger.Warn("not watching configuration: %v", werr)
		}
	}
	return err
}

func (a *App) load() error {
	var errs []error
	if err := config.LoadMappings(a.store, a.translator, a.settings); err != nil {
		a.logger.WithComponent("config").Error("mappings: %v", err)
		errs = append(errs, componentError("config", "load mappings", err))
	}
	if err := a.plugins.LoadAll(); err != nil {
		errs = append(errs, componentError("plugin", "load", err))
	}
	if err := errors.Join(errs...); err != nil {
		a.setStatus(firstLine(err.Error()), true)
		return err
	}
	return nil
}

func (a *App) startWatcher() error {
	log := a.logger.WithComponent("watcher")
	w, err := watcher.New(
		watcher.WithDebounce(reloadDebounce),
		watcher.WithErrorHandler(func(err error) { log.Warn("%v", err) }),
	)
	if err != nil {
		return err
	}
	for _, path := range a.settings.WatchedFiles() {
		if err := w.Watch(path); err != nil {
			log.Debug("skipping %s: %v", path, err)
		}
	}
	w.OnChange(func(ev watcher.Event) {
		log.Info("%s %s, reloading", ev.Op, ev.Path)
		if err := a.Reload(); err != nil {
			log.Error("reload: %v", err)
		}
	})
	w.Start()
	a.watcher = w
	return nil
}

// Reload drops all user and plugin bindings and loads them again.
func (a *App) Reload() error {
	a.reloadMu.Lock()
	defer a.reloadMu.Unlock()

	if a.closed.Load() {
		return ErrClosed
	}
	a.input.Reset()
	a.store.ClearUserAll()

	var errs []error
	if err := config.LoadMappings(a.store, a.translator, a.settings); err != nil {
		errs = append(errs, componentError("config", "load mappings", err))
	}
	if err := a.plugins.ReloadAll(); err != nil {
		errs = append(errs, componentError("plugin", "reload", err))
	}
	err := errors.Join(errs...)
	if err != nil {
		a.setStatus(firstLine(err.Error()), true)
	} else {
		a.setStatus("configuration reloaded", false)
	}
	return err
}

// HandleKey feeds one key code to the input handler.
func (a *App) HandleKey(code rune) dispatcher.Result {
	if a.closed.Load() {
		return dispatcher.Result{Status: dispatcher.StatusError, Err: ErrClosed}
	}
	res := a.input.HandleKey(code)
	if res.Status == dispatcher.StatusError && res.Err != nil {
		a.setStatus(res.Err.Error(), true)
	}
	return res
}

// Quit asks the application to stop. Done is closed once.
func (a *App) Quit() {
	if a.quitting.CompareAndSwap(false, true) {
		close(a.done)
	}
}

// Done is closed when the application wants to stop.
func (a *App) Done() <-chan struct{} {
	return a.done
}

// Close stops the watcher, unloads plugins and closes the log file.
func (a *App) Close() error {
	if !a.closed.CompareAndSwap(false, true) {
		return ErrClosed
	}
	// The watcher callback takes reloadMu, so stop it first.
	if a.watcher != nil {
		a.watcher.Stop()
	}
	a.reloadMu.Lock()
	defer a.reloadMu.Unlock()

	a.input.Close()
	err := a.plugins.UnloadAll()
	a.Quit()
	a.logger.Info("closed")
	a.closeLog()
	return componentError("plugin", "unload", err)
}

func (a *App) closeLog() {
	if a.logFile != nil {
		_ = a.logFile.Close()
	}
}

// Settings returns the settings in use.
func (a *App) Settings() config.Settings { return a.settings }

// Logger returns the application logger.
func (a *App) Logger() *Logger { return a.logger }

// Translator returns the key notation translator.
func (a *App) Translator() *key.Translator { return a.translator }

// Store returns the binding store.
func (a *App) Store() *keymap.Store { return a.store }

// Dispatcher returns the dispatcher.
func (a *App) Dispatcher() *dispatcher.Dispatcher { return a.dispatcher }

// Input returns the input handler.
func (a *App) Input() *input.Handler { return a.input }

// Plugins returns the plugin manager.
func (a *App) Plugins() *plugin.Manager { return a.plugins }

// Pane returns the file list.
func (a *App) Pane() *Pane { return a.pane }

// notify shows plugin messages on the status line.
func (a *App) notify(name, msg string, level api.Level) {
	log := a.logger.WithComponent("plugin").WithField("plugin", name)
	switch level {
	case api.LevelError:
		log.Error("%s", msg)
	default:
		log.Debug("%s", msg)
	}
	a.setStatus(msg, level == api.LevelError)
}

func (a *App) setStatus(msg string, isErr bool) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.status = msg
	a.statusErr = isErr
}

func (a *App) report(format string, args ...any) {
	a.setStatus(fmt.Sprintf(format, args...), false)
}

func (a *App) setCmdline(s string) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.cmdline = s
}

func firstLine(s string) string {
	for i, r := range s {
		if r == '\n' {
			return s[:i]
		}
	}
	return s
}
