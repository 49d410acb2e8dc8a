package config

import (
	"errors"
	"fmt"
	"os"

	"github.com/dshills/keystroke/internal/input/key"
	"github.com/dshills/keystroke/internal/input/keymap"
)

// LoadMappings adds the user mappings of the rc file and the keymap files
// named by s to store. Missing files are skipped. Loading continues past
// failures, which are returned joined.
func LoadMappings(store *keymap.Store, tr *key.Translator, s Settings) error {
	var errs []error

	if s.RCFile != "" {
		if _, err := os.Stat(s.RCFile); err == nil {
			if err := NewSourcer(store, tr).SourceFile(s.RCFile); err != nil {
				errs = append(errs, err)
			}
		} else if !os.IsNotExist(err) {
			errs = append(errs, err)
		}
	}

	loader := keymap.NewLoader(tr)
	for _, path := range s.KeymapFiles {
		info, err := os.Stat(path)
		switch {
		case os.IsNotExist(err):
			continue
		case err != nil:
			errs = append(errs, err)
			continue
		case info.IsDir():
			loader.AddSearchPath(path)
			continue
		}

		file, err := loader.LoadFile(path)
		if err != nil {
			errs = append(errs, err)
			continue
		}
		if err := loader.Apply(store, file); err != nil {
			errs = append(errs, fmt.Errorf("%s: %w", path, err))
		}
	}
	if err := loader.LoadAndApply(store); err != nil {
		errs = append(errs, err)
	}
	return errors.Join(errs...)
}
