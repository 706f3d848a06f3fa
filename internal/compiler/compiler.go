package compiler

import (
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strings"

	"github.com/pkg/errors"
	"github.com/sanity-io/litter"

	"github.com/paiml/depyler-sub010/internal/analysis"
	"github.com/paiml/depyler-sub010/internal/ast"
	"github.com/paiml/depyler-sub010/internal/astbridge"
	"github.com/paiml/depyler-sub010/internal/diagnostic"
	"github.com/paiml/depyler-sub010/internal/genctx"
	"github.com/paiml/depyler-sub010/internal/hir"
	"github.com/paiml/depyler-sub010/internal/parser"
	"github.com/paiml/depyler-sub010/internal/rustast"
	"github.com/paiml/depyler-sub010/internal/rustgen"
)

// Options configures one transpilation
type Options struct {
	Mode       genctx.Mode
	IntWidth   string // "i32" (default) or "i64"
	ModuleName string
	Tracer     genctx.Tracer

	// EmitManifest fills Result.Manifest with a Cargo.toml for the crates
	// the generated code uses
	EmitManifest bool

	// CrateVersions pins crate requirements, merged with the registry
	// defaults by highest lower bound
	CrateVersions map[string]string
}

func (o Options) moduleName() string {
	if o.ModuleName != "" {
		return o.ModuleName
	}
	return "input"
}

// Result holds the output of a transpilation
type Result struct {
	Diagnostics *diagnostic.Diagnostics
	RustSource  string
	HIR         *hir.Module
	Crates      []string
	Manifest    string
}

// Failed reports whether the result carries error diagnostics
func (r *Result) Failed() bool {
	return r.Diagnostics != nil && r.Diagnostics.HasErrors()
}

// Transpile runs the full pipeline: parse -> bridge -> analysis -> rustgen.
// Returns the result without writing files or invoking cargo. Unsupported
// constructs do not stop generation; they leave placeholders in the output
// and error diagnostics in the result.
func Transpile(source string, opts Options) *Result {
	res := &Result{}

	mod, diags := astbridge.Parse(opts.moduleName(), source)
	if mod == nil {
		res.Diagnostics = diags
		return res
	}
	res.HIR = mod

	ctx := genctx.New(genctx.Options{Mode: opts.Mode, IntType: opts.IntWidth, Tracer: opts.Tracer})
	ctx.Diags.Merge(diags)
	analysis.Run(mod, ctx)
	res.RustSource = rustast.Print(rustgen.Generate(mod, ctx))
	res.Diagnostics = ctx.Diags
	res.Crates = usedCrates(ctx)

	if opts.EmitManifest {
		manifest, err := Manifest(cargoName(opts.moduleName()), res.Crates, opts.CrateVersions)
		if err != nil {
			res.Diagnostics.Errorf(0, 0, "cargo manifest: %s", err)
		} else {
			res.Manifest = manifest
		}
	}
	return res
}

// usedCrates lists the crates referenced through imports plus those the
// preamble pulls in
func usedCrates(ctx *genctx.Context) []string {
	crates := ctx.Crates()
	extra := map[genctx.Flag]string{
		genctx.NeedClap:      "clap",
		genctx.NeedSerdeJSON: "serde_json",
	}
	for _, flag := range []genctx.Flag{genctx.NeedClap, genctx.NeedSerdeJSON} {
		if !ctx.Needs(flag) {
			continue
		}
		found := false
		for _, c := range crates {
			if c == extra[flag] {
				found = true
			}
		}
		if !found {
			crates = append(crates, extra[flag])
		}
	}
	return crates
}

// Check runs the pipeline and returns its diagnostics only.
func Check(source string, opts Options) *diagnostic.Diagnostics {
	return Transpile(source, opts).Diagnostics
}

// DumpHIR parses source and renders its HIR module for debugging.
func DumpHIR(source string) (string, error) {
	mod, diags := astbridge.Parse("input", source)
	if mod == nil {
		return "", errors.Errorf("parse errors:\n%s", diags.Format("input"))
	}
	opts := litter.Options{HidePrivateFields: true, StripPackageNames: true}
	return opts.Sdump(mod), nil
}

// DumpAST parses source and renders the surface syntax tree
func DumpAST(source string) (string, error) {
	p := parser.New(source)
	mod := p.Parse()
	if diags := p.Diagnostics(); diags.HasErrors() {
		return "", errors.Errorf("parse errors:\n%s", diags.Format("input"))
	}
	return ast.Print(mod), nil
}

// EmitRust runs the full pipeline and writes the Rust source to outPath.
// With opts.EmitManifest a Cargo.toml is written next to it.
func EmitRust(source, outPath string, opts Options) error {
	res := Transpile(source, opts)
	if res.Failed() {
		return errors.Errorf("transpilation errors:\n%s", res.Diagnostics.Format(opts.moduleName()))
	}

	if err := os.WriteFile(outPath, []byte(res.RustSource), 0644); err != nil {
		return errors.Wrapf(err, "failed to write %s", outPath)
	}
	if res.Manifest != "" {
		manifestPath := filepath.Join(filepath.Dir(outPath), "Cargo.toml")
		if err := os.WriteFile(manifestPath, []byte(res.Manifest), 0644); err != nil {
			return errors.Wrap(err, "failed to write Cargo.toml")
		}
	}
	return nil
}

// Build runs the full pipeline and produces a native binary.
// It creates a temp Cargo project, writes generated Rust, runs cargo build,
// and copies the binary to outPath.
func Build(source, outPath string, opts Options) error {
	res := Transpile(source, opts)
	if res.Failed() {
		return errors.Errorf("transpilation errors:\n%s", res.Diagnostics.Format(opts.moduleName()))
	}

	pkg := cargoName(opts.moduleName())
	manifest, err := Manifest(pkg, res.Crates, opts.CrateVersions)
	if err != nil {
		return errors.Wrap(err, "cargo manifest")
	}

	tmpDir, err := os.MkdirTemp("", "depyler-build-*")
	if err != nil {
		return errors.Wrap(err, "failed to create temp dir")
	}
	defer os.RemoveAll(tmpDir)

	if err := os.WriteFile(filepath.Join(tmpDir, "Cargo.toml"), []byte(manifest), 0644); err != nil {
		return errors.Wrap(err, "failed to write Cargo.toml")
	}

	srcDir := filepath.Join(tmpDir, "src")
	if err := os.MkdirAll(srcDir, 0755); err != nil {
		return errors.Wrap(err, "failed to create src dir")
	}
	if err := os.WriteFile(filepath.Join(srcDir, "main.rs"), []byte(res.RustSource), 0644); err != nil {
		return errors.Wrap(err, "failed to write main.rs")
	}

	cmd := exec.Command("cargo", "build", "--release", "--quiet")
	cmd.Dir = tmpDir
	cmd.Stderr = os.Stderr
	if err := cmd.Run(); err != nil {
		return errors.Wrap(err, "cargo build failed")
	}

	outDir := filepath.Dir(outPath)
	if outDir != "." && outDir != "" {
		if err := os.MkdirAll(outDir, 0755); err != nil {
			return errors.Wrap(err, "failed to create output dir")
		}
	}

	bin, err := os.ReadFile(filepath.Join(tmpDir, "target", "release", pkg))
	if err != nil {
		return errors.Wrap(err, "failed to read built binary")
	}
	if err := os.WriteFile(outPath, bin, 0755); err != nil {
		return errors.Wrap(err, "failed to write output binary")
	}
	return nil
}

// OutputPath returns the .rs path for a Python source path
func OutputPath(path string) string {
	return strings.TrimSuffix(path, filepath.Ext(path)) + ".rs"
}

// ModuleNameOf derives a module name from a file path
func ModuleNameOf(path string) string {
	return strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
}

// cargoName turns a module name into a valid Cargo package name
func cargoName(name string) string {
	var b strings.Builder
	for _, r := range strings.ToLower(name) {
		switch {
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9', r == '_':
			b.WriteRune(r)
		default:
			b.WriteByte('_')
		}
	}
	out := b.String()
	if out == "" || (out[0] >= '0' && out[0] <= '9') {
		out = "py_" + out
	}
	return out
}

// FormatDiagnostics renders diagnostics for path, or "" when there are none
func FormatDiagnostics(res *Result, path string) string {
	if res.Diagnostics == nil {
		return ""
	}
	return res.Diagnostics.Format(path)
}

// Summary is a one-line count of a result's diagnostics
func Summary(res *Result) string {
	if res.Diagnostics == nil {
		return "no diagnostics"
	}
	return fmt.Sprintf("%d error(s), %d warning(s)", res.Diagnostics.ErrorCount(), res.Diagnostics.WarningCount())
}
