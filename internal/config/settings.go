package config

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/pelletier/go-toml/v2"
)

// SettingsFile is the settings file name inside the config directory.
const SettingsFile = "config.toml"

// Settings are the values of config.toml.
type Settings struct {
	// TimeoutLen is how long, in milliseconds, a complete command waits for
	// a longer binding that starts with it.
	TimeoutLen int `toml:"timeout_len"`

	// MinTimeoutLen is the lower bound of TimeoutLen in milliseconds.
	MinTimeoutLen int `toml:"min_timeout_len"`

	// LogLevel is one of debug, info, warn, error.
	LogLevel string `toml:"log_level"`

	// LogFile is the log destination. Empty logs to stderr.
	LogFile string `toml:"log_file"`

	// RCFile is the command file with mappings.
	RCFile string `toml:"rc_file"`

	// KeymapFiles are YAML or TOML mapping files, applied after RCFile.
	// Directories are searched for *.yaml, *.yml and *.toml.
	KeymapFiles []string `toml:"keymap_files"`

	// PluginsDir holds one directory per Lua plugin.
	PluginsDir string `toml:"plugins_dir"`

	// ExtendedKeys selects the key notation table with application key
	// codes. Without it <home>, arrows and friends are escape sequences.
	ExtendedKeys bool `toml:"extended_keys"`

	// MaxRemapDepth limits consecutive mapping expansions.
	MaxRemapDepth int `toml:"max_remap_depth"`

	// Watch reloads mappings when the rc or keymap files change.
	Watch bool `toml:"watch"`
}

// DefaultSettings returns the built-in settings relative to dir.
func DefaultSettings(dir string) Settings {
	return Settings{
		TimeoutLen:    1000,
		MinTimeoutLen: 150,
		LogLevel:      "info",
		LogFile:       filepath.Join(dir, "keystroke.log"),
		RCFile:        filepath.Join(dir, "keystrokerc"),
		KeymapFiles:   []string{filepath.Join(dir, "keymaps")},
		PluginsDir:    filepath.Join(dir, "plugins"),
		ExtendedKeys:  true,
		MaxRemapDepth: 1000,
		Watch:         true,
	}
}

// DefaultDir returns the default configuration directory.
func DefaultDir() string {
	if xdg := os.Getenv("XDG_CONFIG_HOME"); xdg != "" {
		return filepath.Join(xdg, "keystroke")
	}
	home, _ := os.UserHomeDir()
	return filepath.Join(home, ".config", "keystroke")
}

// LoadSettings reads dir/config.toml over the defaults. A missing file
// yields the defaults.
func LoadSettings(dir string) (Settings, error) {
	return LoadSettingsFile(filepath.Join(dir, SettingsFile))
}

// LoadSettingsFile reads a settings file over the defaults for its
// directory. Relative paths in the file are relative to that directory.
func LoadSettingsFile(path string) (Settings, error) {
	dir := filepath.Dir(path)
	s := DefaultSettings(dir)

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return s, nil
		}
		return s, fmt.Errorf("reading config file %s: %w", path, err)
	}
	if err := decodeSettings(path, bytes.NewReader(data), &s); err != nil {
		return s, err
	}
	s.resolve(dir)
	return s, s.Validate()
}

// ReadSettings decodes settings from r over the defaults for dir.
func ReadSettings(r io.Reader, dir string) (Settings, error) {
	s := DefaultSettings(dir)
	if err := decodeSettings("<reader>", r, &s); err != nil {
		return s, err
	}
	s.resolve(dir)
	return s, s.Validate()
}

func decodeSettings(source string, r io.Reader, s *Settings) error {
	dec := toml.NewDecoder(r).DisallowUnknownFields()
	if err := dec.Decode(s); err != nil {
		perr := &ParseError{Path: source, Message: err.Error(), Err: err}
		var derr *toml.DecodeError
		if errors.As(err, &derr) {
			perr.Line, perr.Column = derr.Position()
		}
		return perr
	}
	return nil
}

// resolve makes file paths absolute.
func (s *Settings) resolve(dir string) {
	s.LogFile = resolvePath(dir, s.LogFile)
	s.RCFile = resolvePath(dir, s.RCFile)
	s.PluginsDir = resolvePath(dir, s.PluginsDir)
	for i, p := range s.KeymapFiles {
		s.KeymapFiles[i] = resolvePath(dir, p)
	}
}

func resolvePath(dir, p string) string {
	if p == "" {
		return ""
	}
	if p == "~" || strings.HasPrefix(p, "~/") {
		if home, err := os.UserHomeDir(); err == nil {
			p = filepath.Join(home, p[1:])
		}
	}
	if !filepath.IsAbs(p) {
		p = filepath.Join(dir, p)
	}
	return filepath.Clean(p)
}

// Validate checks the values are usable.
func (s Settings) Validate() error {
	var errs []error
	if s.TimeoutLen < 0 {
		errs = append(errs, fmt.Errorf("%w: timeout_len must not be negative", ErrInvalidSetting))
	}
	if s.MinTimeoutLen < 0 {
		errs = append(errs, fmt.Errorf("%w: min_timeout_len must not be negative", ErrInvalidSetting))
	}
	if s.MaxRemapDepth < 1 {
		errs = append(errs, fmt.Errorf("%w: max_remap_depth must be positive", ErrInvalidSetting))
	}
	switch s.LogLevel {
	case "debug", "info", "warn", "error":
	default:
		errs = append(errs, fmt.Errorf("%w: log_level %q", ErrInvalidSetting, s.LogLevel))
	}
	return errors.Join(errs...)
}

// Timeout returns TimeoutLen as a duration.
func (s Settings) Timeout() time.Duration {
	return time.Duration(s.TimeoutLen) * time.Millisecond
}

// MinTimeout returns MinTimeoutLen as a duration.
func (s Settings) MinTimeout() time.Duration {
	return time.Duration(s.MinTimeoutLen) * time.Millisecond
}

// WatchedFiles returns the files whose change reloads mappings.
func (s Settings) WatchedFiles() []string {
	files := make([]string, 0, len(s.KeymapFiles)+1)
	if s.RCFile != "" {
		files = append(files, s.RCFile)
	}
	return append(files, s.KeymapFiles...)
}
