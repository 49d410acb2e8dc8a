package keymap

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/pelletier/go-toml/v2"
	"gopkg.in/yaml.v3"

	"github.com/dshills/keystroke/internal/input/key"
)

// Format is a keymap file encoding.
type Format string

// Supported keymap file formats.
const (
	FormatYAML Format = "yaml"
	FormatTOML Format = "toml"
)

// FormatFromPath picks the format from a file extension.
func FormatFromPath(path string) (Format, bool) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		return FormatYAML, true
	case ".toml":
		return FormatTOML, true
	default:
		return "", false
	}
}

// File is the content of a keymap file.
//
//	mappings:
//	  - mode: normal
//	    lhs: "<space>j"
//	    rhs: "5j"
//	    noremap: true
type File struct {
	Mappings []Mapping `yaml:"mappings" toml:"mappings"`
}

// Mapping is one user mapping as written in a keymap file. Keys use
// bracket notation.
type Mapping struct {
	Mode    string `yaml:"mode" toml:"mode"`
	LHS     string `yaml:"lhs" toml:"lhs"`
	RHS     string `yaml:"rhs" toml:"rhs"`
	NoRemap bool   `yaml:"noremap,omitempty" toml:"noremap,omitempty"`
	Silent  bool   `yaml:"silent,omitempty" toml:"silent,omitempty"`
	Wait    bool   `yaml:"wait,omitempty" toml:"wait,omitempty"`
}

// Flags returns the binding flags of the mapping.
func (m Mapping) Flags() Flags {
	var f Flags
	if m.NoRemap {
		f |= NoRemap
	}
	if m.Silent {
		f |= Silent
	}
	if m.Wait {
		f |= Wait
	}
	return f
}

// Loader loads keymap files into a store.
type Loader struct {
	// searchPaths are directories to search for keymap files.
	searchPaths []string

	translator *key.Translator
}

// NewLoader creates a loader that parses keys with tr.
func NewLoader(tr *key.Translator) *Loader {
	return &Loader{
		searchPaths: make([]string, 0),
		translator:  tr,
	}
}

// AddSearchPath adds a directory to search for keymap files.
func (l *Loader) AddSearchPath(path string) {
	l.searchPaths = append(l.searchPaths, path)
}

// LoadFile reads a keymap file, choosing the decoder by extension.
func (l *Loader) LoadFile(path string) (*File, error) {
	format, ok := FormatFromPath(path)
	if !ok {
		return nil, fmt.Errorf("keymap file %s: unsupported extension", path)
	}

	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("opening keymap file: %w", err)
	}
	defer f.Close()

	file, err := l.LoadReader(f, format)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return file, nil
}

// LoadReader decodes a keymap file from r.
func (l *Loader) LoadReader(r io.Reader, format Format) (*File, error) {
	var file File
	switch format {
	case FormatYAML:
		dec := yaml.NewDecoder(r)
		dec.KnownFields(true)
		if err := dec.Decode(&file); err != nil && !errors.Is(err, io.EOF) {
			return nil, fmt.Errorf("decoding keymap: %w", err)
		}
	case FormatTOML:
		dec := toml.NewDecoder(r)
		dec.DisallowUnknownFields()
		if err := dec.Decode(&file); err != nil {
			return nil, fmt.Errorf("decoding keymap: %w", err)
		}
	default:
		return nil, fmt.Errorf("unknown keymap format %q", format)
	}
	return &file, nil
}

// Paths returns the keymap files found in the search paths, sorted within
// each directory.
func (l *Loader) Paths() []string {
	var paths []string
	for _, dir := range l.searchPaths {
		var found []string
		for _, pattern := range []string{"*.yaml", "*.yml", "*.toml"} {
			matches, err := filepath.Glob(filepath.Join(dir, pattern))
			if err != nil {
				continue
			}
			found = append(found, matches...)
		}
		sort.Strings(found)
		paths = append(paths, found...)
	}
	return paths
}

// Apply adds the mappings of file to store as user bindings. Every mapping
// is attempted; the failures are joined into the returned error.
func (l *Loader) Apply(store *Store, file *File) error {
	var errs []error
	for i, m := range file.Mappings {
		if err := l.applyMapping(store, m); err != nil {
			errs = append(errs, fmt.Errorf("mapping %d (%s): %w", i, m.LHS, err))
		}
	}
	return errors.Join(errs...)
}

func (l *Loader) applyMapping(store *Store, m Mapping) error {
	lhs, err := l.translator.ParseStrict(m.LHS)
	if err != nil {
		return err
	}
	rhs := l.translator.Parse(m.RHS)
	if strings.EqualFold(m.RHS, "<nop>") {
		rhs = nil
	}
	modeName := m.Mode
	if modeName == "" {
		modeName = "normal"
	}
	return store.AddUser(modeName, lhs, rhs, m.Flags())
}

// LoadAndApply loads every file from the search paths into store. Files
// that fail to decode are skipped and reported in the returned error.
func (l *Loader) LoadAndApply(store *Store) error {
	var errs []error
	for _, path := range l.Paths() {
		file, err := l.LoadFile(path)
		if err != nil {
			errs = append(errs, err)
			continue
		}
		if err := l.Apply(store, file); err != nil {
			errs = append(errs, fmt.Errorf("%s: %w", path, err))
		}
	}
	return errors.Join(errs...)
}
