package compiler

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"

	"github.com/paiml/depyler-sub010/internal/genctx"
)

func TestTranspileScenarios(t *testing.T) {
	tests := []struct {
		name string
		src  string
		want []string
	}{
		{
			name: "add",
			src:  "def add(a: int, b: int) -> int:\n    return a + b\n",
			want: []string{"fn add(a: i32, b: i32) -> i32", "a + b"},
		},
		{
			name: "append then len",
			src:  "def f(xs: list[int]) -> int:\n    xs.append(1)\n    return len(xs)\n",
			want: []string{"xs: &mut Vec<i32>", "xs.push(1)", "xs.len() as i32"},
		},
		{
			name: "upper",
			src:  "def g(s: str) -> str:\n    return s.upper()\n",
			want: []string{"s: &str", "s.to_uppercase()"},
		},
		{
			name: "raise",
			src:  "def h(x: int) -> int:\n    if x < 0:\n        raise ValueError(\"neg\")\n    return x\n",
			want: []string{"Result<i32, DepylerError>", "Ok(x)"},
		},
		{
			name: "enumerate",
			src:  "def show(xs: list[int]):\n    for i, v in enumerate(xs):\n        print(i, v)\n",
			want: []string{".iter().enumerate()", "println!("},
		},
		{
			name: "dict comprehension",
			src:  "def copy(pairs: dict[str, str]) -> dict[str, str]:\n    d = {k: v for k, v in pairs.items()}\n    return d\n",
			want: []string{"collect::<HashMap<_, _>>()", "use std::collections::HashMap;"},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res := Transpile(tt.src, Options{})
			if res.Failed() {
				t.Fatalf("unexpected errors:\n%s", res.Diagnostics.Format("test"))
			}
			for _, w := range tt.want {
				if !strings.Contains(res.RustSource, w) {
					t.Errorf("output missing %q:\n%s", w, res.RustSource)
				}
			}
		})
	}
}

func TestTranspileParseError(t *testing.T) {
	res := Transpile("def f(:\n    pass\n", Options{})
	if !res.Failed() {
		t.Fatal("expected parse errors")
	}
	if res.RustSource != "" {
		t.Error("expected no Rust source on parse error")
	}
	if res.HIR != nil {
		t.Error("expected no HIR on parse error")
	}
}

func TestTranspileIsDeterministic(t *testing.T) {
	src := "class P:\n    def __init__(self, x: int):\n        self.x = x\n\ndef f(ps: list[P]) -> int:\n    return len(ps)\n"
	first := Transpile(src, Options{}).RustSource
	for i := 0; i < 5; i++ {
		if got := Transpile(src, Options{}).RustSource; got != first {
			t.Fatalf("run %d differs:\n%s\n---\n%s", i, first, got)
		}
	}
}

func TestTranspileIntWidth(t *testing.T) {
	res := Transpile("def add(a: int, b: int) -> int:\n    return a + b\n", Options{IntWidth: "i64"})
	if !strings.Contains(res.RustSource, "fn add(a: i64, b: i64) -> i64") {
		t.Errorf("expected i64 signature:\n%s", res.RustSource)
	}
}

func TestTranspileTracer(t *testing.T) {
	tracer := &genctx.MemoryTracer{}
	Transpile("def f(xs: list[int]):\n    xs.append(1)\n", Options{Tracer: tracer})
	if len(tracer.Decisions) == 0 {
		t.Error("expected recorded decisions")
	}
}

func TestTranspileManifest(t *testing.T) {
	src := "import argparse\n\ndef main():\n    parser = argparse.ArgumentParser()\n    parser.add_argument(\"name\")\n    args = parser.parse_args()\n    print(args.name)\n"
	res := Transpile(src, Options{ModuleName: "greet", EmitManifest: true})
	if res.Failed() {
		t.Fatalf("unexpected errors:\n%s", res.Diagnostics.Format("test"))
	}
	if !strings.Contains(res.Manifest, `name = "greet"`) {
		t.Errorf("manifest missing package name:\n%s", res.Manifest)
	}
	if !strings.Contains(res.Manifest, `clap = { version = "4.5", features = ["derive"] }`) {
		t.Errorf("manifest missing clap:\n%s", res.Manifest)
	}
}

func TestCheck(t *testing.T) {
	if diag := Check("def add(a: int, b: int) -> int:\n    return a + b\n", Options{}); diag.HasErrors() {
		t.Errorf("expected no errors, got:\n%s", diag.Format("test"))
	}
	if diag := Check("def f(:\n", Options{}); !diag.HasErrors() {
		t.Error("expected errors")
	}
}

func TestEmitRustCreatesFiles(t *testing.T) {
	dir := t.TempDir()
	out := filepath.Join(dir, "main.rs")
	err := EmitRust("def add(a: int, b: int) -> int:\n    return a + b\n", out, Options{EmitManifest: true})
	if err != nil {
		t.Fatalf("EmitRust: %v", err)
	}
	data, err := os.ReadFile(out)
	if err != nil {
		t.Fatalf("read output: %v", err)
	}
	if !strings.Contains(string(data), "fn add") {
		t.Errorf("unexpected output:\n%s", data)
	}
	if _, err := os.Stat(filepath.Join(dir, "Cargo.toml")); err != nil {
		t.Errorf("expected Cargo.toml: %v", err)
	}
}

func TestEmitRustFailsOnErrors(t *testing.T) {
	out := filepath.Join(t.TempDir(), "main.rs")
	if err := EmitRust("def f(:\n", out, Options{}); err == nil {
		t.Fatal("expected error")
	}
	if _, err := os.Stat(out); err == nil {
		t.Error("output written despite errors")
	}
}

func TestDumpHIR(t *testing.T) {
	out, err := DumpHIR("def add(a: int, b: int) -> int:\n    return a + b\n")
	if err != nil {
		t.Fatalf("DumpHIR: %v", err)
	}
	for _, w := range []string{"Function", `"add"`} {
		if !strings.Contains(out, w) {
			t.Errorf("dump missing %q:\n%s", w, out)
		}
	}
}

func TestDumpAST(t *testing.T) {
	out, err := DumpAST("def add(a: int, b: int) -> int:\n    return a + b\n")
	if err != nil {
		t.Fatalf("DumpAST: %v", err)
	}
	for _, w := range []string{"Module", "FunctionDef: add(a, b)"} {
		if !strings.Contains(out, w) {
			t.Errorf("dump missing %q:\n%s", w, out)
		}
	}
	if _, err := DumpAST("def f(:\n"); err == nil {
		t.Error("expected parse error")
	}
}

func TestCargoName(t *testing.T) {
	tests := map[string]string{
		"main":     "main",
		"My-Tool":  "my_tool",
		"2fast":    "py_2fast",
		"":         "py_",
		"data.etl": "data_etl",
	}
	for in, want := range tests {
		if got := cargoName(in); got != want {
			t.Errorf("cargoName(%q) = %q, want %q", in, got, want)
		}
	}
}

func TestTranspileFilesKeepsOrder(t *testing.T) {
	dir := t.TempDir()
	var paths []string
	for _, name := range []string{"one", "two", "three", "four"} {
		p := filepath.Join(dir, name+".py")
		src := "def " + name + "() -> int:\n    return 1\n"
		if err := os.WriteFile(p, []byte(src), 0644); err != nil {
			t.Fatal(err)
		}
		paths = append(paths, p)
	}

	results, err := TranspileFiles(context.Background(), paths, Options{})
	if err != nil {
		t.Fatalf("TranspileFiles: %v", err)
	}
	if len(results) != len(paths) {
		t.Fatalf("got %d results, want %d", len(results), len(paths))
	}
	for i, r := range results {
		if r.Path != paths[i] {
			t.Errorf("result %d path = %s, want %s", i, r.Path, paths[i])
		}
		name := ModuleNameOf(paths[i])
		if !strings.Contains(r.RustSource, "fn "+name+"()") {
			t.Errorf("result %d missing fn %s:\n%s", i, name, r.RustSource)
		}
		if !strings.Contains(r.RustSource, "from "+name) {
			t.Errorf("result %d header does not name module %s", i, name)
		}
	}
}

func TestTranspileFilesMissingFile(t *testing.T) {
	_, err := TranspileFiles(context.Background(), []string{filepath.Join(t.TempDir(), "nope.py")}, Options{})
	if err == nil || !strings.Contains(err.Error(), "failed to read") {
		t.Errorf("expected read error, got %v", err)
	}
}

func TestTranspileProject(t *testing.T) {
	dir := t.TempDir()
	writePyFile(t, dir, "util.py", "def double(x: int) -> int:\n    return x * 2\n")
	entry := writePyFile(t, dir, "main.py", "from util import double\n\ndef main():\n    print(double(2))\n")

	results, err := TranspileProject(context.Background(), entry, Options{})
	if err != nil {
		t.Fatalf("TranspileProject: %v", err)
	}
	if len(results) != 2 {
		t.Fatalf("expected 2 results, got %d", len(results))
	}
	if filepath.Base(results[0].Path) != "util.py" || filepath.Base(results[1].Path) != "main.py" {
		t.Errorf("unexpected order: %s, %s", results[0].Path, results[1].Path)
	}
}

func TestCacheCollapsesIdenticalInput(t *testing.T) {
	cache := NewCache()
	src := "def add(a: int, b: int) -> int:\n    return a + b\n"

	var wg sync.WaitGroup
	results := make([]*Result, 8)
	for i := range results {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			results[i] = cache.Transpile(src, Options{})
		}(i)
	}
	wg.Wait()

	if cache.Len() != 1 {
		t.Errorf("expected 1 cache entry, got %d", cache.Len())
	}
	for i, r := range results {
		if r.RustSource != results[0].RustSource {
			t.Errorf("result %d differs", i)
		}
	}
	if _, misses := cache.Stats(); misses != 1 {
		t.Errorf("expected 1 miss, got %d", misses)
	}
}

func TestCacheKey(t *testing.T) {
	src := "X = 1\n"
	base := CacheKey(src, Options{})
	if len(base) != 64 {
		t.Errorf("expected 64 hex chars, got %d", len(base))
	}
	if CacheKey(src, Options{}) != base {
		t.Error("key is not stable")
	}
	if CacheKey(src, Options{IntWidth: "i64"}) == base {
		t.Error("int width not part of key")
	}
	if CacheKey(src, Options{Mode: genctx.Hybrid}) == base {
		t.Error("mode not part of key")
	}
	if CacheKey("X = 2\n", Options{}) == base {
		t.Error("source not part of key")
	}
	if CacheKey(src, Options{Tracer: &genctx.MemoryTracer{}}) != base {
		t.Error("tracer should not change the key")
	}

	cache := NewCache()
	cache.Transpile(src, Options{})
	cache.Forget(src, Options{})
	if cache.Len() != 0 {
		t.Errorf("expected empty cache after Forget, got %d", cache.Len())
	}
}

func TestTranspileFilesCached(t *testing.T) {
	dir := t.TempDir()
	src := "def f() -> int:\n    return 1\n"
	a := writePyFile(t, dir, "a.py", src)
	b := writePyFile(t, dir, "b.py", src)

	cache := NewCache()
	for round := 0; round < 2; round++ {
		results, err := TranspileFilesCached(context.Background(), []string{a, b}, Options{}, cache)
		if err != nil {
			t.Fatalf("TranspileFilesCached: %v", err)
		}
		if !strings.Contains(results[1].RustSource, "from b") {
			t.Errorf("round %d: second result not named after b.py", round)
		}
	}
	// same text, different module names
	if cache.Len() != 2 {
		t.Errorf("expected 2 cache entries, got %d", cache.Len())
	}
	if hits, misses := cache.Stats(); hits != 2 || misses != 2 {
		t.Errorf("hits/misses = %d/%d, want 2/2", hits, misses)
	}
}

func TestTranspileFilesCachedStampsEachPath(t *testing.T) {
	dir := t.TempDir()
	src := "X = 1\n\ndef f() -> int:\n    global X\n    return X\n"
	a := writePyFile(t, dir, "x/mod.py", src)
	b := writePyFile(t, dir, "y/mod.py", src)

	cache := NewCache()
	results, err := TranspileFilesCached(context.Background(), []string{a, b}, Options{}, cache)
	if err != nil {
		t.Fatalf("TranspileFilesCached: %v", err)
	}
	if cache.Len() != 1 {
		t.Fatalf("expected 1 shared cache entry, got %d", cache.Len())
	}
	for i, want := range []string{a, b} {
		items := results[i].Diagnostics.All()
		if len(items) == 0 {
			t.Fatalf("result %d: expected a diagnostic for the global declaration", i)
		}
		for _, d := range items {
			if d.File != want {
				t.Errorf("result %d: diagnostic stamped %q, want %q", i, d.File, want)
			}
		}
	}
}
