package compiler

import (
	"context"
	"os"
	"runtime"

	"github.com/pkg/errors"
	"golang.org/x/sync/errgroup"
)

// FileResult is the transpilation of one input file
type FileResult struct {
	Path string
	*Result
}

// TranspileFiles transpiles each path independently, at most GOMAXPROCS at
// a time. Results keep the order of paths. Each file gets its own module
// name and context; a read error cancels the remaining work.
func TranspileFiles(ctx context.Context, paths []string, opts Options) ([]FileResult, error) {
	return transpileFiles(ctx, paths, opts, nil)
}

// TranspileFilesCached is TranspileFiles backed by cache
func TranspileFilesCached(ctx context.Context, paths []string, opts Options, cache *Cache) ([]FileResult, error) {
	return transpileFiles(ctx, paths, opts, cache)
}

func transpileFiles(ctx context.Context, paths []string, opts Options, cache *Cache) ([]FileResult, error) {
	out := make([]FileResult, len(paths))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(runtime.GOMAXPROCS(0))

	for i, path := range paths {
		i, path := i, path
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			source, err := os.ReadFile(path)
			if err != nil {
				return errors.Wrapf(err, "failed to read %s", path)
			}
			fileOpts := opts
			if fileOpts.ModuleName == "" {
				fileOpts.ModuleName = ModuleNameOf(path)
			}
			var res *Result
			if cache != nil {
				// cached results are shared, stamp a private copy
				shared := cache.Transpile(string(source), fileOpts)
				own := *shared
				own.Diagnostics = shared.Diagnostics.Clone()
				res = &own
			} else {
				res = Transpile(string(source), fileOpts)
			}
			res.Diagnostics.InFile(path)
			out[i] = FileResult{Path: path, Result: res}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return out, nil
}

// TranspileProject discovers the local modules imported from entryPath and
// transpiles them in dependency order, entry last.
func TranspileProject(ctx context.Context, entryPath string, opts Options) ([]FileResult, error) {
	reg, err := NewModuleRegistry(entryPath)
	if err != nil {
		return nil, err
	}
	diag, err := reg.DiscoverDependencies()
	if err != nil {
		return nil, err
	}
	if diag.HasErrors() {
		return nil, errors.Errorf("parse errors:\n%s", diag.Format(entryPath))
	}
	sorted, err := reg.TopologicalSort()
	if err != nil {
		return nil, err
	}
	return TranspileFiles(ctx, sorted, opts)
}
