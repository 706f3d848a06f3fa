package main

import (
	"strings"
	"testing"

	"github.com/paiml/depyler-sub010/internal/compiler"
	"github.com/paiml/depyler-sub010/internal/genctx"
)

func TestParseArgs(t *testing.T) {
	o, files, ok := parseArgs("transpile", []string{"--hybrid", "--i64", "-o", "out.rs", "a.py"})
	if !ok {
		t.Fatal("parseArgs failed")
	}
	if len(files) != 1 || files[0] != "a.py" {
		t.Errorf("files = %v", files)
	}
	opts := o.compilerOptions()
	if opts.Mode != genctx.Hybrid || opts.IntWidth != "i64" {
		t.Errorf("options = %+v", opts)
	}
	if o.out != "out.rs" {
		t.Errorf("out = %q", o.out)
	}

	if _, _, ok := parseArgs("transpile", nil); ok {
		t.Error("expected failure without input files")
	}
	if _, _, ok := parseArgs("transpile", []string{"-o", "x.rs", "a.py", "b.py"}); ok {
		t.Error("expected failure for -o with two inputs")
	}
}

func TestEvalSnippet(t *testing.T) {
	cache := compiler.NewCache()
	o := &options{}

	out := evalSnippet(cache, o, "def add(a: int, b: int) -> int:\n    return a + b")
	if !strings.Contains(out, "fn add(a: i32, b: i32) -> i32") {
		t.Errorf("unexpected output:\n%s", out)
	}

	o.i64 = true
	out = evalSnippet(cache, o, "def add(a: int, b: int) -> int:\n    return a + b")
	if !strings.Contains(out, "fn add(a: i64, b: i64) -> i64") {
		t.Errorf("i64 toggle ignored:\n%s", out)
	}

	out = evalSnippet(cache, o, "def f(:")
	if !strings.Contains(out, "error[<repl>:") {
		t.Errorf("expected a formatted error:\n%s", out)
	}
}
