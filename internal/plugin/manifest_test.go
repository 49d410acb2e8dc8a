package plugin

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
)

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatal(err)
	}
}

func TestLoadManifest(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, filepath.Join(dir, ManifestFile), `
name = "fzf-keys"
version = "1.2.0"
description = "fuzzy finding"
main = "lua/main.lua"
`)

	m, err := LoadManifestFromDir(dir)
	if err != nil {
		t.Fatalf("LoadManifestFromDir() error = %v", err)
	}
	if m.Name != "fzf-keys" || m.Version != "1.2.0" || m.Description != "fuzzy finding" {
		t.Errorf("manifest = %+v", m)
	}
	if m.Path() != dir {
		t.Errorf("Path() = %q, want %q", m.Path(), dir)
	}
	if want := filepath.Join(dir, "lua", "main.lua"); m.MainPath() != want {
		t.Errorf("MainPath() = %q, want %q", m.MainPath(), want)
	}
	if m.String() != "fzf-keys v1.2.0" {
		t.Errorf("String() = %q", m.String())
	}
}

func TestLoadManifestDefaults(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, filepath.Join(dir, ManifestFile), `name = "x"`)

	m, err := LoadManifestFromDir(dir)
	if err != nil {
		t.Fatal(err)
	}
	if m.Main != "init.lua" || m.Version != "0.0.0" {
		t.Errorf("defaults = %+v", m)
	}
}

func TestLoadManifestErrors(t *testing.T) {
	tests := []struct {
		name    string
		content string
		wantErr error
	}{
		{"missing name", `version = "1.0.0"`, ErrMissingName},
		{"bad name", `name = "Bad Name"`, ErrInvalidName},
		{"bad version", "name = \"a\"\nversion = \"one\"", ErrInvalidVersion},
		{"main not lua", "name = \"a\"\nmain = \"init.py\"", ErrInvalidMain},
		{"main escapes", "name = \"a\"\nmain = \"../x.lua\"", ErrInvalidMain},
		{"unknown field", "name = \"a\"\ncapabilities = [\"shell\"]", nil},
		{"syntax", `name = `, nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			dir := t.TempDir()
			writeFile(t, filepath.Join(dir, ManifestFile), tt.content)

			_, err := LoadManifestFromDir(dir)
			if err == nil {
				t.Fatal("LoadManifestFromDir() should fail")
			}
			if tt.wantErr != nil && !errors.Is(err, tt.wantErr) {
				t.Errorf("error = %v, want %v", err, tt.wantErr)
			}
		})
	}
}

func TestLoadManifestMissing(t *testing.T) {
	if _, err := LoadManifest(filepath.Join(t.TempDir(), ManifestFile)); err == nil {
		t.Error("LoadManifest() of a missing file should fail")
	}
}

func TestNewManifestMinimal(t *testing.T) {
	m := NewManifestMinimal("solo", "/p")
	if err := m.Validate(); err != nil {
		t.Errorf("Validate() error = %v", err)
	}
	if m.MainPath() != filepath.Join("/p", "init.lua") {
		t.Errorf("MainPath() = %q", m.MainPath())
	}
}

func TestStateString(t *testing.T) {
	tests := []struct {
		state State
		want  string
	}{
		{StateUnloaded, "unloaded"},
		{StateLoaded, "loaded"},
		{StateError, "error"},
		{State(42), "unknown"},
	}
	for _, tt := range tests {
		if got := tt.state.String(); got != tt.want {
			t.Errorf("State(%d).String() = %q, want %q", tt.state, got, tt.want)
		}
	}
}
