package main

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/chzyer/readline"

	"github.com/paiml/depyler-sub010/internal/compiler"
)

const replHelp = `Enter Python code; a blank line ends a block.
  :hir     toggle HIR output
  :i64     toggle i64 integers
  :hybrid  toggle hybrid mode
  :quit    leave
`

// handleRepl reads Python snippets and prints their Rust translation
func handleRepl(args []string) int {
	o := &options{}
	fs := newFlagSet("repl", o)
	if err := fs.Parse(args); err != nil {
		return 1
	}
	if fs.NArg() > 0 {
		fmt.Fprintln(os.Stderr, "Error: repl takes no input files")
		return 1
	}

	rl, err := readline.New(">>> ")
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %s\n", err)
		return 1
	}
	defer rl.Close()

	fmt.Print(replHelp)
	cache := compiler.NewCache()
	for {
		snippet, err := loadSnippet(rl)
		if err != nil {
			if err == readline.ErrInterrupt {
				continue
			}
			if err != io.EOF {
				fmt.Fprintln(os.Stderr, err)
			}
			return 0
		}
		switch strings.TrimSpace(snippet) {
		case "":
			continue
		case ":quit", ":q":
			return 0
		case ":hir":
			o.dumpHIR = !o.dumpHIR
			fmt.Printf("HIR output %s\n", onOff(o.dumpHIR))
			continue
		case ":i64":
			o.i64 = !o.i64
			fmt.Printf("i64 integers %s\n", onOff(o.i64))
			continue
		case ":hybrid":
			o.hybrid = !o.hybrid
			fmt.Printf("hybrid mode %s\n", onOff(o.hybrid))
			continue
		}
		fmt.Println(evalSnippet(cache, o, snippet))
	}
}

// loadSnippet reads one line, or a block when the line opens one
func loadSnippet(rl *readline.Instance) (string, error) {
	rl.SetPrompt(">>> ")
	line, err := rl.Readline()
	if err != nil {
		return "", err
	}
	if !strings.HasSuffix(strings.TrimSpace(line), ":") {
		return line, nil
	}
	lines := []string{line}
	rl.SetPrompt("... ")
	for {
		next, err := rl.Readline()
		if err != nil {
			return "", err
		}
		if strings.TrimSpace(next) == "" {
			return strings.Join(lines, "\n"), nil
		}
		lines = append(lines, next)
	}
}

// evalSnippet transpiles snippet and renders the output or diagnostics
func evalSnippet(cache *compiler.Cache, o *options, snippet string) string {
	source := snippet + "\n"
	if o.dumpHIR {
		dump, err := compiler.DumpHIR(source)
		if err != nil {
			return err.Error()
		}
		return dump
	}
	opts := o.compilerOptions()
	opts.ModuleName = "repl"
	res := cache.Transpile(source, opts)
	var b strings.Builder
	if out := compiler.FormatDiagnostics(res, "<repl>"); out != "" {
		b.WriteString(out)
		b.WriteString("\n")
	}
	b.WriteString(res.RustSource)
	return strings.TrimRight(b.String(), "\n")
}

func onOff(b bool) string {
	if b {
		return "on"
	}
	return "off"
}
