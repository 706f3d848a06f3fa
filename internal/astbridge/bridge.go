// Package astbridge lowers the surface AST produced by the parser into HIR.
// Lowering is deterministic and total on the supported subset; constructs
// outside it are reported as UnsupportedConstruct diagnostics and skipped.
package astbridge

import (
	"fmt"
	"strings"

	"github.com/paiml/depyler-sub010/internal/ast"
	"github.com/paiml/depyler-sub010/internal/diagnostic"
	"github.com/paiml/depyler-sub010/internal/hir"
	"github.com/paiml/depyler-sub010/internal/parser"
)

// Bridge converts one parsed module to HIR
type Bridge struct {
	source   string
	lines    []string
	name     string
	diags    *diagnostic.Diagnostics
	tmp      int
	typeVars map[string]bool
	walrusOK bool // a NamedExpr is allowed at the current position
}

// WithSource creates a bridge for the given source text
func WithSource(text string) *Bridge {
	return &Bridge{
		source:   text,
		lines:    strings.Split(text, "\n"),
		name:     "main",
		diags:    diagnostic.New(),
		typeVars: make(map[string]bool),
	}
}

// WithName sets the module name recorded in the HIR module
func (b *Bridge) WithName(name string) *Bridge {
	if name != "" {
		b.name = name
	}
	return b
}

// Parse runs the parser and the bridge over source. When parsing fails the
// returned module is nil.
func Parse(name, source string) (*hir.Module, *diagnostic.Diagnostics) {
	p := parser.New(source)
	mod := p.Parse()
	if p.Diagnostics().HasErrors() {
		return nil, p.Diagnostics()
	}
	out, diags := WithSource(source).WithName(name).PythonToHIR(mod)
	diags.Merge(p.Diagnostics())
	return out, diags
}

// PythonToHIR lowers a parsed module. Top-level items keep source order.
func (b *Bridge) PythonToHIR(mod *ast.Module) (*hir.Module, *diagnostic.Diagnostics) {
	out := &hir.Module{Name: b.name}
	body := mod.Body
	if doc, ok := docstring(body); ok {
		out.Docstring = doc
		body = body[1:]
	}

	var main *hir.MainBlock
	for _, stmt := range body {
		switch s := stmt.(type) {
		case *ast.ImportStmt, *ast.ImportFromStmt:
			for _, imp := range b.convertImport(s) {
				out.Items = append(out.Items, imp)
			}

		case *ast.FunctionDef:
			if fn := b.convertFunction(s, false); fn != nil {
				out.Items = append(out.Items, fn)
			}

		case *ast.ClassDef:
			if cls := b.convertClass(s); cls != nil {
				out.Items = append(out.Items, cls)
			}

		case *ast.AssignStmt:
			if c := b.convertModuleAssign(s); c != nil {
				out.Items = append(out.Items, c)
			}

		case *ast.AnnAssignStmt:
			name, ok := s.Target.(*ast.Name)
			if !ok || s.Value == nil {
				b.unsupported(s, "module-level annotated target", "only 'NAME: T = value' is supported at module level")
				continue
			}
			out.Items = append(out.Items, &hir.Constant{
				Meta:  meta(s),
				Name:  name.ID,
				Type:  b.convertAnnotation(s.Annotation),
				Value: b.convertExpr(s.Value),
			})

		case *ast.IfStmt:
			if isMainGuard(s.Cond) {
				if main == nil {
					main = &hir.MainBlock{Meta: meta(s)}
					out.Items = append(out.Items, main)
				}
				main.Body = append(main.Body, b.convertStmts(s.Body)...)
				continue
			}
			main = b.appendToMain(out, main, s)

		case *ast.PassStmt:
			// nothing to emit

		case *ast.ExprStmt:
			if c, ok := s.Value.(*ast.Constant); ok && c.Kind == ast.ConstString {
				continue // stray string literal
			}
			main = b.appendToMain(out, main, s)

		default:
			main = b.appendToMain(out, main, s)
		}
	}
	return out, b.diags
}

// appendToMain folds a module-level executable statement into the main
// block, creating it when needed
func (b *Bridge) appendToMain(out *hir.Module, main *hir.MainBlock, s ast.Statement) *hir.MainBlock {
	if main == nil {
		main = &hir.MainBlock{Meta: meta(s)}
		out.Items = append(out.Items, main)
	}
	main.Body = append(main.Body, b.convertStmt(s)...)
	return main
}

// convertModuleAssign lowers NAME = value at module level to a constant.
// TypeVar declarations are recorded and produce no item.
func (b *Bridge) convertModuleAssign(s *ast.AssignStmt) *hir.Constant {
	if len(s.Targets) != 1 {
		b.unsupported(s, "module-level chained assignment", "assign each constant separately")
		return nil
	}
	name, ok := s.Targets[0].(*ast.Name)
	if !ok {
		b.unsupported(s, "module-level unpacking", "assign each constant separately")
		return nil
	}
	if call, ok := s.Value.(*ast.Call); ok {
		if fn, ok := call.Func.(*ast.Name); ok && fn.ID == "TypeVar" {
			b.typeVars[name.ID] = true
			return nil
		}
	}
	return &hir.Constant{Meta: meta(s), Name: name.ID, Value: b.convertExpr(s.Value)}
}

// isMainGuard matches __name__ == "__main__" in either operand order
func isMainGuard(cond ast.Expression) bool {
	cmp, ok := cond.(*ast.Compare)
	if !ok || len(cmp.Ops) != 1 || cmp.Ops[0] != "==" {
		return false
	}
	isName := func(e ast.Expression) bool {
		n, ok := e.(*ast.Name)
		return ok && n.ID == "__name__"
	}
	isMain := func(e ast.Expression) bool {
		c, ok := e.(*ast.Constant)
		return ok && c.Kind == ast.ConstString && c.Value == "__main__"
	}
	l, r := cmp.Left, cmp.Comparators[0]
	return (isName(l) && isMain(r)) || (isMain(l) && isName(r))
}

// docstring returns the leading string literal of a body
func docstring(body []ast.Statement) (string, bool) {
	if len(body) == 0 {
		return "", false
	}
	es, ok := body[0].(*ast.ExprStmt)
	if !ok {
		return "", false
	}
	c, ok := es.Value.(*ast.Constant)
	if !ok || c.Kind != ast.ConstString {
		return "", false
	}
	return c.Value, true
}

// newTemp returns a fresh synthetic variable name
func (b *Bridge) newTemp(prefix string) string {
	name := fmt.Sprintf("_%s_%d", prefix, b.tmp)
	b.tmp++
	return name
}

func (b *Bridge) unsupported(n ast.Node, nodeKind, hint string) {
	line, col := n.Pos()
	b.diags.Add(diagnostic.Diagnostic{
		Severity: diagnostic.Error,
		Kind:     diagnostic.UnsupportedConstruct,
		Message:  "unsupported construct: " + nodeKind,
		Line:     line,
		Column:   col,
		Hint:     hint,
		NodeKind: nodeKind,
	})
}

func meta(n ast.Node) hir.Meta {
	line, col := n.Pos()
	return hir.At(line, col)
}
