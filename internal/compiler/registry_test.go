package compiler

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/paiml/depyler-sub010/internal/hir"
)

// writePyFile creates a .py file with the given content in the specified directory.
func writePyFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		t.Fatalf("failed to create directory for %s: %v", path, err)
	}
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatalf("failed to write %s: %v", path, err)
	}
	return path
}

func discover(t *testing.T, entryPath string) *ModuleRegistry {
	t.Helper()
	reg, err := NewModuleRegistry(entryPath)
	if err != nil {
		t.Fatalf("NewModuleRegistry: %v", err)
	}
	diag, err := reg.DiscoverDependencies()
	if err != nil {
		t.Fatalf("DiscoverDependencies: %v", err)
	}
	if diag.HasErrors() {
		t.Fatalf("unexpected diagnostics: %s", diag.Format("test"))
	}
	return reg
}

func TestRegistrySingleFileNoImports(t *testing.T) {
	tmpDir := t.TempDir()
	entryPath := writePyFile(t, tmpDir, "main.py", "def main():\n    print(1)\n")

	reg := discover(t, entryPath)
	if len(reg.AllModules()) != 1 {
		t.Fatalf("expected 1 module, got %d", len(reg.AllModules()))
	}
	mod := reg.Module(entryPath)
	if mod == nil {
		t.Fatal("Module returned nil for entry path")
	}
	if mod.Name != "main" {
		t.Errorf("expected module name 'main', got %q", mod.Name)
	}

	sorted, err := reg.TopologicalSort()
	if err != nil {
		t.Fatalf("TopologicalSort: %v", err)
	}
	if len(sorted) != 1 || sorted[0] != entryPath {
		t.Errorf("expected [%s], got %v", entryPath, sorted)
	}
}

func TestRegistryStdlibImportsAreNotFollowed(t *testing.T) {
	tmpDir := t.TempDir()
	entryPath := writePyFile(t, tmpDir, "main.py", "import os\nimport json\n\ndef main():\n    print(os.getcwd())\n")

	reg := discover(t, entryPath)
	if len(reg.AllModules()) != 1 {
		t.Fatalf("expected 1 module, got %d", len(reg.AllModules()))
	}
	if deps := reg.Dependencies(entryPath); len(deps) != 0 {
		t.Errorf("expected no local dependencies, got %v", deps)
	}
}

func TestRegistryTopologicalOrder(t *testing.T) {
	tests := []struct {
		name  string
		files map[string]string
		entry string
		want  []string
	}{
		{
			name: "a imports b",
			files: map[string]string{
				"b.py": "def helper() -> int:\n    return 42\n",
				"a.py": "from b import helper\n\ndef main():\n    print(helper())\n",
			},
			entry: "a.py",
			want:  []string{"b.py", "a.py"},
		},
		{
			name: "chain",
			files: map[string]string{
				"c.py": "X = 1\n",
				"b.py": "import c\n\nY = 2\n",
				"a.py": "import b\n\nZ = 3\n",
			},
			entry: "a.py",
			want:  []string{"c.py", "b.py", "a.py"},
		},
		{
			name: "diamond",
			files: map[string]string{
				"d.py": "X = 1\n",
				"b.py": "import d\n",
				"c.py": "import d\n",
				"a.py": "import b\nimport c\n",
			},
			entry: "a.py",
			want:  []string{"d.py", "b.py", "c.py", "a.py"},
		},
		{
			name: "package subdirectory",
			files: map[string]string{
				"pkg/__init__.py": "",
				"pkg/util.py":     "def f() -> int:\n    return 1\n",
				"main.py":         "from pkg.util import f\n",
			},
			entry: "main.py",
			want:  []string{"pkg/util.py", "main.py"},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tmpDir := t.TempDir()
			for name, content := range tt.files {
				writePyFile(t, tmpDir, name, content)
			}
			reg := discover(t, filepath.Join(tmpDir, tt.entry))
			sorted, err := reg.TopologicalSort()
			if err != nil {
				t.Fatalf("TopologicalSort: %v", err)
			}
			var got []string
			for _, p := range sorted {
				rel, _ := filepath.Rel(tmpDir, p)
				got = append(got, filepath.ToSlash(rel))
			}
			if strings.Join(got, ",") != strings.Join(tt.want, ",") {
				t.Errorf("order = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestRegistryCycle(t *testing.T) {
	tmpDir := t.TempDir()
	writePyFile(t, tmpDir, "b.py", "import a\n")
	entryPath := writePyFile(t, tmpDir, "a.py", "import b\n")

	reg := discover(t, entryPath)
	_, err := reg.TopologicalSort()
	if err == nil {
		t.Fatal("expected cycle error")
	}
	if !strings.Contains(err.Error(), "import cycle detected: a.py -> b.py -> a.py") {
		t.Errorf("unexpected error: %v", err)
	}
}

func TestRegistryMissingEntry(t *testing.T) {
	reg, err := NewModuleRegistry(filepath.Join(t.TempDir(), "nope.py"))
	if err != nil {
		t.Fatalf("NewModuleRegistry: %v", err)
	}
	if _, err := reg.DiscoverDependencies(); err == nil || !strings.Contains(err.Error(), "module not found") {
		t.Errorf("expected module not found error, got %v", err)
	}
}

func TestRegistryParseErrorsIncludeFilePath(t *testing.T) {
	tmpDir := t.TempDir()
	badPath := writePyFile(t, tmpDir, "bad.py", "def broken(:\n    return 0\n")
	entryPath := writePyFile(t, tmpDir, "main.py", "import bad\n")

	reg, err := NewModuleRegistry(entryPath)
	if err != nil {
		t.Fatalf("NewModuleRegistry: %v", err)
	}
	diag, err := reg.DiscoverDependencies()
	if err != nil {
		t.Fatalf("DiscoverDependencies: %v", err)
	}
	if !diag.HasErrors() {
		t.Fatal("expected parse errors from bad.py")
	}
	if formatted := diag.Format("default"); !strings.Contains(formatted, badPath) {
		t.Errorf("expected file path %q in diagnostics, got: %s", badPath, formatted)
	}
}

func TestResolveImportPath(t *testing.T) {
	tmpDir := t.TempDir()
	writePyFile(t, tmpDir, "helpers.py", "")
	writePyFile(t, tmpDir, "sub/lib.py", "")

	tests := []struct {
		imp  *hir.Import
		dir  string
		want string
		ok   bool
	}{
		{&hir.Import{Module: "helpers"}, tmpDir, "helpers.py", true},
		{&hir.Import{Module: "sub.lib"}, tmpDir, "sub/lib.py", true},
		{&hir.Import{Module: "helpers", Level: 2}, filepath.Join(tmpDir, "sub"), "helpers.py", true},
		{&hir.Import{Module: "os"}, tmpDir, "", false},
		{&hir.Import{Module: ""}, tmpDir, "", false},
	}
	for _, tt := range tests {
		got, ok := resolveImportPath(tt.imp, tt.dir)
		if ok != tt.ok {
			t.Errorf("resolveImportPath(%q) ok = %v, want %v", tt.imp.Module, ok, tt.ok)
			continue
		}
		if ok && got != filepath.Join(tmpDir, filepath.FromSlash(tt.want)) {
			t.Errorf("resolveImportPath(%q) = %q, want %q", tt.imp.Module, got, tt.want)
		}
	}
}
