package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"path/filepath"

	"github.com/paiml/depyler-sub010/internal/compiler"
	"github.com/paiml/depyler-sub010/internal/genctx"
	"github.com/paiml/depyler-sub010/internal/linter"
)

const usage = `depyler - Python to Rust transpiler

Usage:
  depyler transpile [options] <file.py>...   Write <file>.rs next to each input
  depyler check [options] <file.py>...       Transpile and report diagnostics only
  depyler lint <file.py>...                  Report transpilability and style warnings
  depyler build [options] <file.py>          Transpile and build a native binary with cargo
  depyler watch [options] <file.py>...       Re-transpile whenever an input changes
  depyler repl [options]                     Transpile snippets interactively

Options:
  -o <path>       Output path (transpile and build, single input only)
  --hybrid        Fall back to DepylerValue for heterogeneous containers
  --i64           Map Python int to i64 instead of i32
  --trace         Log inference decisions to stderr
  --dump-ast      Print the parsed syntax tree instead of Rust
  --dump-hir      Print the HIR instead of Rust
  --manifest      Write a Cargo.toml next to the output
  --project       Follow local imports from the entry file

Examples:
  depyler transpile hello.py              Emit hello.rs
  depyler transpile --project main.py     Emit main.rs and one .rs per imported module
  depyler build -o hello hello.py         Build hello (native binary)
  depyler lint hello.py                   Lint for transpilation blockers
`

func main() {
	if len(os.Args) < 2 {
		fmt.Fprint(os.Stderr, usage)
		os.Exit(1)
	}

	command := os.Args[1]
	args := os.Args[2:]

	var code int
	switch command {
	case "transpile":
		code = handleTranspile(args)
	case "check":
		code = handleCheck(args)
	case "lint":
		code = handleLint(args)
	case "build":
		code = handleBuild(args)
	case "watch":
		code = handleWatch(args)
	case "repl":
		code = handleRepl(args)
	case "help", "--help", "-h":
		fmt.Print(usage)
	default:
		fmt.Fprintf(os.Stderr, "Unknown command: %s\n\n", command)
		fmt.Fprint(os.Stderr, usage)
		code = 1
	}
	os.Exit(code)
}

// options holds the flags shared by the transpiling commands
type options struct {
	out      string
	hybrid   bool
	i64      bool
	trace    bool
	dumpAST  bool
	dumpHIR  bool
	manifest bool
	project  bool
}

func newFlagSet(name string, o *options) *flag.FlagSet {
	fs := flag.NewFlagSet(name, flag.ContinueOnError)
	fs.Usage = func() { fmt.Fprint(os.Stderr, usage) }
	fs.StringVar(&o.out, "o", "", "output path")
	fs.BoolVar(&o.hybrid, "hybrid", false, "hybrid fallback for heterogeneous containers")
	fs.BoolVar(&o.i64, "i64", false, "map int to i64")
	fs.BoolVar(&o.trace, "trace", false, "log inference decisions")
	fs.BoolVar(&o.dumpAST, "dump-ast", false, "print the syntax tree")
	fs.BoolVar(&o.dumpHIR, "dump-hir", false, "print the HIR")
	fs.BoolVar(&o.manifest, "manifest", false, "write Cargo.toml")
	fs.BoolVar(&o.project, "project", false, "follow local imports")
	return fs
}

func (o *options) compilerOptions() compiler.Options {
	opts := compiler.Options{EmitManifest: o.manifest}
	if o.hybrid {
		opts.Mode = genctx.Hybrid
	}
	if o.i64 {
		opts.IntWidth = "i64"
	}
	if o.trace {
		opts.Tracer = genctx.NewLogTracer(os.Stderr)
	}
	return opts
}

// parseArgs parses flags and requires at least one input file
func parseArgs(name string, args []string) (*options, []string, bool) {
	o := &options{}
	fs := newFlagSet(name, o)
	if err := fs.Parse(args); err != nil {
		return nil, nil, false
	}
	if fs.NArg() == 0 {
		fmt.Fprintln(os.Stderr, "Error: no input file specified")
		return nil, nil, false
	}
	if o.out != "" && fs.NArg() > 1 {
		fmt.Fprintln(os.Stderr, "Error: -o needs exactly one input file")
		return nil, nil, false
	}
	return o, fs.Args(), true
}

func handleTranspile(args []string) int {
	o, files, ok := parseArgs("transpile", args)
	if !ok {
		return 1
	}

	if o.dumpAST || o.dumpHIR {
		dumper := compiler.DumpHIR
		if o.dumpAST {
			dumper = compiler.DumpAST
		}
		for _, path := range files {
			source, err := os.ReadFile(path)
			if err != nil {
				fmt.Fprintf(os.Stderr, "Error reading file: %s\n", err)
				return 1
			}
			dump, err := dumper(string(source))
			if err != nil {
				fmt.Fprintf(os.Stderr, "%s\n", err)
				return 1
			}
			fmt.Println(dump)
		}
		return 0
	}

	results, err := transpileAll(o, files)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %s\n", err)
		return 1
	}

	code := 0
	for _, r := range results {
		if !report(r) {
			code = 1
			continue
		}
		outPath := compiler.OutputPath(r.Path)
		if o.out != "" {
			outPath = o.out
		}
		if err := writeOutput(r, outPath); err != nil {
			fmt.Fprintf(os.Stderr, "Error: %s\n", err)
			return 1
		}
		fmt.Printf("Wrote %s\n", outPath)
	}
	return code
}

func transpileAll(o *options, files []string) ([]compiler.FileResult, error) {
	ctx := context.Background()
	if o.project {
		var all []compiler.FileResult
		for _, entry := range files {
			results, err := compiler.TranspileProject(ctx, entry, o.compilerOptions())
			if err != nil {
				return nil, err
			}
			all = append(all, results...)
		}
		return all, nil
	}
	return compiler.TranspileFiles(ctx, files, o.compilerOptions())
}

// report prints the diagnostics of r and returns false when it has errors
func report(r compiler.FileResult) bool {
	if out := compiler.FormatDiagnostics(r.Result, r.Path); out != "" {
		fmt.Fprintln(os.Stderr, out)
	}
	return !r.Failed()
}

func writeOutput(r compiler.FileResult, outPath string) error {
	if err := os.WriteFile(outPath, []byte(r.RustSource), 0644); err != nil {
		return err
	}
	if r.Manifest != "" {
		manifestPath := filepath.Join(filepath.Dir(outPath), "Cargo.toml")
		if err := os.WriteFile(manifestPath, []byte(r.Manifest), 0644); err != nil {
			return err
		}
	}
	return nil
}

func handleCheck(args []string) int {
	o, files, ok := parseArgs("check", args)
	if !ok {
		return 1
	}
	results, err := transpileAll(o, files)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %s\n", err)
		return 1
	}
	code := 0
	for _, r := range results {
		if !report(r) {
			code = 1
		}
		fmt.Printf("%s: %s\n", r.Path, compiler.Summary(r.Result))
	}
	if code == 0 {
		fmt.Println("No errors found.")
	}
	return code
}

func handleLint(args []string) int {
	o := &options{}
	fs := newFlagSet("lint", o)
	if err := fs.Parse(args); err != nil {
		return 1
	}
	if fs.NArg() == 0 {
		fmt.Fprintln(os.Stderr, "Error: no input file specified")
		return 1
	}

	total := 0
	for _, filePath := range fs.Args() {
		source, err := os.ReadFile(filePath)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error reading file: %s\n", err)
			return 1
		}
		diag := linter.LintSource(string(source))
		if diag.HasErrors() {
			fmt.Fprintf(os.Stderr, "%s\n", diag.Format(filePath))
			return 1
		}
		if diag.Count() > 0 {
			fmt.Println(diag.Format(filePath))
		}
		total += diag.Count()
	}

	if total == 0 {
		fmt.Println("No lint warnings.")
		return 0
	}
	fmt.Printf("%d warning(s) found.\n", total)
	return 0
}

func handleBuild(args []string) int {
	o, files, ok := parseArgs("build", args)
	if !ok {
		return 1
	}
	if len(files) != 1 {
		fmt.Fprintln(os.Stderr, "Error: build takes exactly one input file")
		return 1
	}
	filePath := files[0]
	source, err := os.ReadFile(filePath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error reading file: %s\n", err)
		return 1
	}

	outPath := o.out
	if outPath == "" {
		outPath = compiler.ModuleNameOf(filePath)
	}
	opts := o.compilerOptions()
	opts.ModuleName = compiler.ModuleNameOf(filePath)

	fmt.Printf("Compiling %s...\n", filePath)
	if err := compiler.Build(string(source), outPath, opts); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %s\n", err)
		return 1
	}
	fmt.Printf("Built %s\n", outPath)
	return 0
}
