package keymap

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/dshills/keystroke/internal/input/key"
	"github.com/dshills/keystroke/internal/input/mode"
)

const yamlKeymap = `mappings:
  - mode: normal
    lhs: "<space>j"
    rhs: "5j"
  - mode: visual
    lhs: "<c-w>"
    rhs: "gg"
    noremap: true
    silent: true
  - lhs: "Q"
    rhs: "<nop>"
`

const tomlKeymap = `
[[mappings]]
mode = "normal"
lhs = "zz"
rhs = "G"
wait = true
`

func TestLoaderYAML(t *testing.T) {
	l := NewLoader(key.NewTranslator(true))
	file, err := l.LoadReader(strings.NewReader(yamlKeymap), FormatYAML)
	if err != nil {
		t.Fatalf("LoadReader error = %v", err)
	}
	if len(file.Mappings) != 3 {
		t.Fatalf("got %d mappings, want 3", len(file.Mappings))
	}
	if f := file.Mappings[1].Flags(); f != NoRemap|Silent {
		t.Errorf("flags = %v, want NoRemap|Silent", f)
	}

	s := newTestStore(t)
	if err := l.Apply(s, file); err != nil {
		t.Fatalf("Apply error = %v", err)
	}

	res, _ := s.Lookup(mode.Normal, key.Seq(" j"))
	if res.Binding == nil || !res.Binding.RHS.Equals(key.Seq("5j")) {
		t.Errorf("<space>j = %+v", res.Binding)
	}
	res, _ = s.Lookup(mode.Visual, key.Sequence{0x17})
	if res.Binding == nil || res.Binding.Flags != NoRemap|Silent {
		t.Errorf("visual <c-w> = %+v", res.Binding)
	}
	res, _ = s.Lookup(mode.Normal, key.Seq("Q"))
	if res.Binding == nil || len(res.Binding.RHS) != 0 {
		t.Errorf("Q should map to nothing, got %+v", res.Binding)
	}
}

func TestLoaderTOML(t *testing.T) {
	l := NewLoader(key.NewTranslator(true))
	file, err := l.LoadReader(strings.NewReader(tomlKeymap), FormatTOML)
	if err != nil {
		t.Fatalf("LoadReader error = %v", err)
	}
	if len(file.Mappings) != 1 || file.Mappings[0].Flags() != Wait {
		t.Fatalf("mappings = %+v", file.Mappings)
	}
}

func TestLoaderRejectsUnknownFields(t *testing.T) {
	l := NewLoader(key.NewTranslator(true))
	if _, err := l.LoadReader(strings.NewReader("mappings:\n  - lhs: a\n    action: b\n"), FormatYAML); err == nil {
		t.Error("YAML with an unknown field should fail")
	}
	if _, err := l.LoadReader(strings.NewReader("[[mappings]]\nlhs = \"a\"\naction = \"b\"\n"), FormatTOML); err == nil {
		t.Error("TOML with an unknown field should fail")
	}
}

func TestLoaderEmptyYAML(t *testing.T) {
	l := NewLoader(key.NewTranslator(true))
	file, err := l.LoadReader(strings.NewReader(""), FormatYAML)
	if err != nil {
		t.Fatalf("empty file error = %v", err)
	}
	if len(file.Mappings) != 0 {
		t.Errorf("got %d mappings", len(file.Mappings))
	}
}

func TestLoaderApplyCollectsErrors(t *testing.T) {
	l := NewLoader(key.NewTranslator(true))
	file := &File{Mappings: []Mapping{
		{Mode: "normal", LHS: "", RHS: "j"},
		{Mode: "bogus", LHS: "x", RHS: "j"},
		{Mode: "normal", LHS: "<bogus>", RHS: "j"},
		{Mode: "normal", LHS: "ok", RHS: "j"},
	}}
	s := newTestStore(t)
	err := l.Apply(s, file)
	if err == nil {
		t.Fatal("Apply should report the broken mappings")
	}
	if n := strings.Count(err.Error(), "mapping "); n != 3 {
		t.Errorf("error mentions %d mappings, want 3: %v", n, err)
	}
	if !s.UserExists(mode.Normal, key.Seq("ok")) {
		t.Error("valid mapping was not applied")
	}
}

func TestLoaderLoadAndApply(t *testing.T) {
	dir := t.TempDir()
	write := func(name, content string) {
		t.Helper()
		if err := os.WriteFile(filepath.Join(dir, name), []byte(content), 0o644); err != nil {
			t.Fatal(err)
		}
	}
	write("a.yaml", yamlKeymap)
	write("b.toml", tomlKeymap)
	write("c.yml", "mappings: [")
	write("notes.txt", "ignored")

	l := NewLoader(key.NewTranslator(true))
	l.AddSearchPath(dir)

	paths := l.Paths()
	if len(paths) != 3 {
		t.Fatalf("Paths() = %v, want 3 files", paths)
	}

	s := newTestStore(t)
	err := l.LoadAndApply(s)
	if err == nil || !strings.Contains(err.Error(), "c.yml") {
		t.Errorf("LoadAndApply error = %v, want the broken c.yml", err)
	}
	if !s.UserExists(mode.Normal, key.Seq("zz")) || !s.UserExists(mode.Normal, key.Seq(" j")) {
		t.Error("valid files were not applied")
	}
}

func TestFormatFromPath(t *testing.T) {
	tests := []struct {
		path string
		want Format
		ok   bool
	}{
		{"keys.yaml", FormatYAML, true},
		{"keys.YML", FormatYAML, true},
		{"keys.toml", FormatTOML, true},
		{"keys.json", "", false},
	}
	for _, tt := range tests {
		got, ok := FormatFromPath(tt.path)
		if got != tt.want || ok != tt.ok {
			t.Errorf("FormatFromPath(%q) = %q, %v", tt.path, got, ok)
		}
	}
}
