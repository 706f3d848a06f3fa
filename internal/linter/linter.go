package linter

import (
	"strings"
	"unicode"

	"github.com/paiml/depyler-sub010/internal/ast"
	"github.com/paiml/depyler-sub010/internal/diagnostic"
	"github.com/paiml/depyler-sub010/internal/parser"
)

// Linter performs transpilability and style checks on a parsed Python
// module. It reports warnings (never errors) using the diagnostic system.
type Linter struct {
	mod  *ast.Module
	diag *diagnostic.Diagnostics
}

// Lint runs all lint rules on the given module and returns diagnostics.
func Lint(mod *ast.Module) *diagnostic.Diagnostics {
	l := &Linter{
		mod:  mod,
		diag: diagnostic.New(),
	}
	l.lintDefs(mod.Body, "")
	l.checkBareExcept(mod.Body)
	return l.diag
}

// LintSource parses source and lints it. Parse errors are returned as they
// are and stop linting.
func LintSource(source string) *diagnostic.Diagnostics {
	p := parser.New(source)
	mod := p.Parse()
	if p.Diagnostics().HasErrors() {
		return p.Diagnostics()
	}
	return Lint(mod)
}

// lintDefs visits the definitions at one nesting level; class is the
// enclosing class name or ""
func (l *Linter) lintDefs(stmts []ast.Statement, class string) {
	for _, stmt := range stmts {
		switch s := stmt.(type) {
		case *ast.FunctionDef:
			l.lintFunction(s, class)
		case *ast.ClassDef:
			l.checkClassNaming(s.Name, s.Line, s.Column)
			l.lintDefs(s.Body, s.Name)
		case *ast.IfStmt:
			// definitions under the main guard or a version check
			l.lintDefs(s.Body, class)
			l.lintDefs(s.Orelse, class)
		}
	}
}

func (l *Linter) lintFunction(fn *ast.FunctionDef, class string) {
	name := fn.Name
	if class != "" {
		name = class + "." + fn.Name
	}
	l.checkFunctionNaming(fn.Name, fn.Line, fn.Column)
	l.checkAnnotations(fn, name, class != "" && !hasDecorator(fn, "staticmethod"))
	l.checkMutableDefaults(fn, name)
	l.checkBareExcept(fn.Body)
	l.checkGlobal(fn, name)

	used := collectUsedNames(fn.Body)
	if class == "" {
		l.checkUnusedParams(name, fn.Params, used)
	}
	l.checkUnusedVariables(name, fn.Body, used)

	for _, stmt := range fn.Body {
		if nested, ok := stmt.(*ast.FunctionDef); ok {
			l.lintFunction(nested, "")
		}
	}
}

// --- Lint rules ---

// checkAnnotations warns about parameters and returns without type
// annotations. The receiver of a method is exempt.
func (l *Linter) checkAnnotations(fn *ast.FunctionDef, name string, method bool) {
	for i, p := range fn.Params {
		if method && i == 0 {
			continue
		}
		if p.Annotation == nil {
			l.diag.WarningWithHint(p.Line, p.Column,
				"parameter '"+p.Name+"' in '"+name+"' has no type annotation",
				"annotate it so the parameter type does not have to be inferred")
		}
	}
	if fn.Returns == nil && fn.Name != "__init__" && returnsValue(fn.Body) {
		l.diag.Warningf(fn.Line, fn.Column, "function '%s' has no return annotation", name)
	}
}

// checkMutableDefaults warns about list, dict and set default values,
// which Python evaluates once and shares across calls.
func (l *Linter) checkMutableDefaults(fn *ast.FunctionDef, name string) {
	for _, p := range fn.Params {
		if isMutableLiteral(p.Default) {
			l.diag.WarningWithHint(p.Line, p.Column,
				"parameter '"+p.Name+"' in '"+name+"' has a mutable default",
				"use None and create the value in the body")
		}
	}
}

// checkBareExcept warns about except clauses without an exception type.
func (l *Linter) checkBareExcept(stmts []ast.Statement) {
	for _, stmt := range stmts {
		ast.Inspect(stmt, func(n ast.Node) bool {
			switch t := n.(type) {
			case *ast.FunctionDef, *ast.ClassDef:
				return false
			case *ast.TryStmt:
				for _, h := range t.Handlers {
					if h.Type == nil {
						l.diag.Warningf(h.Line, h.Column, "bare 'except:' catches every exception; name the exception type")
					}
				}
			}
			return true
		})
	}
}

// checkGlobal warns about global and nonlocal statements, which have no
// direct Rust equivalent.
func (l *Linter) checkGlobal(fn *ast.FunctionDef, name string) {
	for _, s := range fn.Body {
		ast.Inspect(s, func(n ast.Node) bool {
			switch t := n.(type) {
			case *ast.FunctionDef, *ast.ClassDef:
				return false
			case *ast.GlobalStmt:
				l.diag.Warningf(t.Line, t.Column, "'global %s' in '%s' makes the function depend on module state",
					strings.Join(t.Names, ", "), name)
			case *ast.NonlocalStmt:
				l.diag.Warningf(t.Line, t.Column, "'nonlocal %s' in '%s' is not supported by the transpiler",
					strings.Join(t.Names, ", "), name)
			}
			return true
		})
	}
}

// checkFunctionNaming warns if a function/method name is not snake_case.
func (l *Linter) checkFunctionNaming(name string, line, col int) {
	if isDunder(name) {
		return
	}
	if !isSnakeCase(strings.TrimLeft(name, "_")) {
		l.diag.Warningf(line, col,
			"function '%s' should use snake_case naming", name)
	}
}

// checkClassNaming warns if a class name is not CapWords.
func (l *Linter) checkClassNaming(name string, line, col int) {
	if !isPascalCase(strings.TrimLeft(name, "_")) {
		l.diag.Warningf(line, col,
			"class '%s' should use CapWords naming", name)
	}
}

// checkUnusedParams warns about function parameters that are never read in the body.
func (l *Linter) checkUnusedParams(scopeName string, params []*ast.Param, usedNames map[string]bool) {
	for _, p := range params {
		if strings.HasPrefix(p.Name, "_") || usedNames[p.Name] {
			continue
		}
		l.diag.Warningf(p.Line, p.Column,
			"parameter '%s' in '%s' is never used", p.Name, scopeName)
	}
}

// checkUnusedVariables warns about locals that are assigned but never read.
// Each name is reported once, at its first assignment.
func (l *Linter) checkUnusedVariables(scopeName string, body []ast.Statement, usedNames map[string]bool) {
	declared := map[string]bool{}
	for _, name := range globalNames(body) {
		declared[name] = true
	}
	for _, s := range body {
		ast.Inspect(s, func(n ast.Node) bool {
			var targets []ast.Expression
			switch t := n.(type) {
			case *ast.FunctionDef, *ast.ClassDef, *ast.Lambda:
				return false
			case *ast.AssignStmt:
				targets = t.Targets
			case *ast.AnnAssignStmt:
				if t.Value != nil {
					targets = []ast.Expression{t.Target}
				}
			}
			for _, target := range targets {
				for _, name := range storedNames(target) {
					if declared[name] || strings.HasPrefix(name, "_") {
						continue
					}
					declared[name] = true
					if !usedNames[name] {
						line, col := target.Pos()
						l.diag.Warningf(line, col,
							"variable '%s' in '%s' is assigned but never used", name, scopeName)
					}
				}
			}
			return true
		})
	}
}

// --- Name collection helpers ---

// collectUsedNames collects every name that is read anywhere in stmts,
// including nested functions and lambdas that close over it. Plain
// assignment targets are writes and are not collected; the object of a
// subscript or attribute target is a read.
func collectUsedNames(stmts []ast.Statement) map[string]bool {
	used := make(map[string]bool)
	var visit func(n ast.Node) bool
	visit = func(n ast.Node) bool {
		switch t := n.(type) {
		case *ast.Name:
			used[t.ID] = true
		case *ast.AssignStmt:
			for _, target := range t.Targets {
				visitTarget(target, visit)
			}
			ast.Inspect(t.Value, visit)
			return false
		case *ast.AnnAssignStmt:
			visitTarget(t.Target, visit)
			if t.Value != nil {
				ast.Inspect(t.Value, visit)
			}
			return false
		}
		return true
	}
	for _, s := range stmts {
		ast.Inspect(s, visit)
	}
	return used
}

// visitTarget walks the read parts of an assignment target
func visitTarget(target ast.Expression, visit func(ast.Node) bool) {
	switch t := target.(type) {
	case *ast.Name:
	case *ast.TupleExpr:
		for _, e := range t.Elts {
			visitTarget(e, visit)
		}
	case *ast.ListExpr:
		for _, e := range t.Elts {
			visitTarget(e, visit)
		}
	case *ast.Starred:
		visitTarget(t.Value, visit)
	default:
		ast.Inspect(target, visit)
	}
}

// storedNames lists the plain names an assignment target binds
func storedNames(target ast.Expression) []string {
	switch t := target.(type) {
	case *ast.Name:
		return []string{t.ID}
	case *ast.TupleExpr:
		var out []string
		for _, e := range t.Elts {
			out = append(out, storedNames(e)...)
		}
		return out
	case *ast.ListExpr:
		var out []string
		for _, e := range t.Elts {
			out = append(out, storedNames(e)...)
		}
		return out
	case *ast.Starred:
		return storedNames(t.Value)
	}
	return nil
}

// globalNames lists the names declared global or nonlocal in body
func globalNames(body []ast.Statement) []string {
	var out []string
	for _, s := range body {
		ast.Inspect(s, func(n ast.Node) bool {
			switch t := n.(type) {
			case *ast.FunctionDef, *ast.ClassDef:
				return false
			case *ast.GlobalStmt:
				out = append(out, t.Names...)
			case *ast.NonlocalStmt:
				out = append(out, t.Names...)
			}
			return true
		})
	}
	return out
}

// returnsValue reports whether body has a return with a value outside
// nested definitions
func returnsValue(body []ast.Statement) bool {
	found := false
	for _, s := range body {
		ast.Inspect(s, func(n ast.Node) bool {
			switch t := n.(type) {
			case *ast.FunctionDef, *ast.ClassDef, *ast.Lambda:
				return false
			case *ast.ReturnStmt:
				if t.Value != nil {
					found = true
				}
			}
			return !found
		})
	}
	return found
}

func isMutableLiteral(e ast.Expression) bool {
	switch t := e.(type) {
	case *ast.ListExpr, *ast.DictExpr, *ast.SetExpr, *ast.ListComp, *ast.DictComp, *ast.SetComp:
		return true
	case *ast.Call:
		if name, ok := t.Func.(*ast.Name); ok {
			switch name.ID {
			case "list", "dict", "set", "bytearray":
				return true
			}
		}
	}
	return false
}

func hasDecorator(fn *ast.FunctionDef, name string) bool {
	for _, d := range fn.Decorators {
		if n, ok := d.(*ast.Name); ok && n.ID == name {
			return true
		}
	}
	return false
}

// --- Naming convention helpers ---

func isDunder(name string) bool {
	return len(name) > 4 && strings.HasPrefix(name, "__") && strings.HasSuffix(name, "__")
}

// isSnakeCase returns true if the name follows snake_case conventions:
// lowercase letters, digits, and underscores only, not starting with a digit.
func isSnakeCase(name string) bool {
	if len(name) == 0 {
		return false
	}
	for i, r := range name {
		if i == 0 && unicode.IsDigit(r) {
			return false
		}
		if !unicode.IsLower(r) && r != '_' && !unicode.IsDigit(r) {
			return false
		}
	}
	return true
}

// isPascalCase returns true if the name starts with an uppercase letter
// and contains no underscores.
func isPascalCase(name string) bool {
	if len(name) == 0 {
		return false
	}
	runes := []rune(name)
	if !unicode.IsUpper(runes[0]) {
		return false
	}
	return !strings.ContainsRune(name, '_')
}
