package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"

	"github.com/fsnotify/fsnotify"

	"github.com/paiml/depyler-sub010/internal/compiler"
)

// handleWatch transpiles the inputs once and again on every write. The
// containing directories are watched, since editors often replace a file
// instead of writing it in place.
func handleWatch(args []string) int {
	o, files, ok := parseArgs("watch", args)
	if !ok {
		return 1
	}

	w, err := fsnotify.NewWatcher()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %s\n", err)
		return 1
	}
	defer w.Close()

	watched := make(map[string]bool)
	dirs := make(map[string]bool)
	for _, f := range files {
		abs, err := filepath.Abs(f)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: %s\n", err)
			return 1
		}
		watched[abs] = true
		dir := filepath.Dir(abs)
		if !dirs[dir] {
			if err := w.Add(dir); err != nil {
				fmt.Fprintf(os.Stderr, "Error watching %s: %s\n", dir, err)
				return 1
			}
			dirs[dir] = true
		}
	}

	cache := compiler.NewCache()
	opts := o.compilerOptions()
	results, err := compiler.TranspileFilesCached(context.Background(), files, opts, cache)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %s\n", err)
		return 1
	}
	for _, r := range results {
		writeWatched(r)
	}
	fmt.Println("Watching for changes (Ctrl-C to stop)...")

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt)
	for {
		select {
		case ev, ok := <-w.Events:
			if !ok {
				return 0
			}
			if ev.Op&(fsnotify.Write|fsnotify.Create) == 0 || !watched[ev.Name] {
				continue
			}
			transpileOne(cache, ev.Name, opts)
		case err, ok := <-w.Errors:
			if !ok {
				return 0
			}
			fmt.Fprintf(os.Stderr, "watch error: %s\n", err)
		case <-stop:
			return 0
		}
	}
}

// transpileOne writes path's .rs output, reusing the cached result when
// the content did not change
func transpileOne(cache *compiler.Cache, path string, opts compiler.Options) {
	source, err := os.ReadFile(path)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error reading file: %s\n", err)
		return
	}
	opts.ModuleName = compiler.ModuleNameOf(path)
	writeWatched(compiler.FileResult{Path: path, Result: cache.Transpile(string(source), opts)})
}

func writeWatched(r compiler.FileResult) {
	if !report(r) {
		return
	}
	outPath := compiler.OutputPath(r.Path)
	if err := writeOutput(r, outPath); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %s\n", err)
		return
	}
	fmt.Printf("Wrote %s (%s)\n", outPath, compiler.Summary(r.Result))
}
