package compiler

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/paiml/depyler-sub010/internal/astbridge"
	"github.com/paiml/depyler-sub010/internal/diagnostic"
	"github.com/paiml/depyler-sub010/internal/hir"
)

// ModuleRegistry holds the import graph of the Python files reachable from
// an entry file. Only imports naming a local .py file (or package
// __init__.py) become edges; stdlib and third-party imports are mapped by
// the crate registry instead.
type ModuleRegistry struct {
	entryPath    string
	modules      map[string]*hir.Module
	sources      map[string]string
	dependencies map[string][]string
}

// NewModuleRegistry creates a registry rooted at entryPath
func NewModuleRegistry(entryPath string) (*ModuleRegistry, error) {
	abs, err := filepath.Abs(entryPath)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve entry path: %w", err)
	}
	return &ModuleRegistry{
		entryPath:    abs,
		modules:      make(map[string]*hir.Module),
		sources:      make(map[string]string),
		dependencies: make(map[string][]string),
	}, nil
}

// DiscoverDependencies loads the entry file and, breadth first, every local
// module it imports. Parse errors come back as diagnostics stamped with
// their file. An unreadable file is fatal.
func (r *ModuleRegistry) DiscoverDependencies() (*diagnostic.Diagnostics, error) {
	diag := diagnostic.New()
	seen := map[string]bool{r.entryPath: true}
	pending := []string{r.entryPath}

	for len(pending) > 0 {
		path := pending[0]
		pending = pending[1:]

		mod, err := r.load(path, diag)
		if err != nil {
			return diag, err
		}
		if mod == nil {
			continue
		}
		for _, dep := range localImports(mod, filepath.Dir(path)) {
			r.dependencies[path] = append(r.dependencies[path], dep)
			if !seen[dep] {
				seen[dep] = true
				pending = append(pending, dep)
			}
		}
	}
	return diag, nil
}

// load reads and lowers one file. A nil module means it did not parse.
func (r *ModuleRegistry) load(path string, diag *diagnostic.Diagnostics) (*hir.Module, error) {
	source, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("module not found: %s", path)
	}
	r.sources[path] = string(source)

	mod, d := astbridge.Parse(ModuleNameOf(path), string(source))
	if d.HasParseErrors() {
		d.InFile(path)
		for _, item := range d.Errors() {
			diag.Add(item)
		}
	}
	if mod != nil {
		r.modules[path] = mod
	}
	return mod, nil
}

// localImports returns the files behind mod's local imports, deduplicated
// in import order
func localImports(mod *hir.Module, dir string) []string {
	var out []string
	dup := make(map[string]bool)
	for _, imp := range mod.Imports() {
		path, ok := resolveImportPath(imp, dir)
		if !ok || dup[path] {
			continue
		}
		dup[path] = true
		out = append(out, path)
	}
	return out
}

type visitState int

const (
	unvisited visitState = iota
	inProgress
	done
)

// TopologicalSort orders the discovered files so every module comes after
// the modules it imports; the entry file is last. Circular imports are an
// error naming the cycle.
func (r *ModuleRegistry) TopologicalSort() ([]string, error) {
	state := make(map[string]visitState)
	var order, path []string

	var visit func(file string) error
	visit = func(file string) error {
		switch state[file] {
		case done:
			return nil
		case inProgress:
			return cycleError(path, file)
		}
		state[file] = inProgress
		path = append(path, file)
		for _, dep := range r.dependencies[file] {
			if err := visit(dep); err != nil {
				return err
			}
		}
		path = path[:len(path)-1]
		state[file] = done
		order = append(order, file)
		return nil
	}

	if err := visit(r.entryPath); err != nil {
		return nil, err
	}
	return order, nil
}

func cycleError(path []string, repeated string) error {
	start := 0
	for i, p := range path {
		if p == repeated {
			start = i
			break
		}
	}
	var names []string
	for _, p := range path[start:] {
		names = append(names, filepath.Base(p))
	}
	names = append(names, filepath.Base(repeated))
	return fmt.Errorf("import cycle detected: %s", strings.Join(names, " -> "))
}

// Module returns the lowered module for an absolute file path, or nil
func (r *ModuleRegistry) Module(path string) *hir.Module {
	return r.modules[path]
}

// AllModules returns every lowered module keyed by absolute file path
func (r *ModuleRegistry) AllModules() map[string]*hir.Module {
	return r.modules
}

// Source returns the text read for path
func (r *ModuleRegistry) Source(path string) string {
	return r.sources[path]
}

// Dependencies returns the local modules path imports
func (r *ModuleRegistry) Dependencies(path string) []string {
	return r.dependencies[path]
}

// resolveImportPath maps an import to a local file. "helpers" is
// helpers.py or helpers/__init__.py next to the importer; dotted names walk
// subdirectories and a relative level climbs parents.
func resolveImportPath(imp *hir.Import, dir string) (string, bool) {
	if imp.Module == "" {
		return "", false
	}
	base := dir
	for i := 1; i < imp.Level; i++ {
		base = filepath.Dir(base)
	}
	rel := filepath.FromSlash(strings.ReplaceAll(imp.Module, ".", "/"))
	for _, candidate := range []string{
		filepath.Join(base, rel+".py"),
		filepath.Join(base, rel, "__init__.py"),
	} {
		if info, err := os.Stat(candidate); err == nil && !info.IsDir() {
			return filepath.Clean(candidate), true
		}
	}
	return "", false
}
