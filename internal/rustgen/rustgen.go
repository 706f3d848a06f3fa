// Package rustgen lowers an analyzed HIR module to a Rust syntax tree. It
// holds the statement and expression converters, call dispatch, the function
// and class converters, and the module converter that assembles the items
// behind the generated preamble.
package rustgen

import (
	"github.com/paiml/depyler-sub010/internal/analysis"
	"github.com/paiml/depyler-sub010/internal/genctx"
	"github.com/paiml/depyler-sub010/internal/hir"
	"github.com/paiml/depyler-sub010/internal/rustast"
)

// generator holds module-wide lowering state
type generator struct {
	ctx *genctx.Context
	mod *hir.Module

	// statics are module constants emitted as LazyLock statics
	statics map[string]bool
	// renames maps Python function names to the Rust names they are emitted
	// under (a user main() that cannot be the entry point)
	renames map[string]string
	// mainInlined is set when the user main() is the Rust entry point
	mainInlined bool

	fn *fnState
}

// fnState is the per-function lowering state that is not kept in the
// context
type fnState struct {
	sig *genctx.FuncSig
	// self is the receiver parameter name of a method, cls the class
	// parameter of a classmethod
	self string
	cls  string
	// retParam is the parameter a mutate-and-return function hands back
	retParam string
	// ctor is the local holding the value under construction in new()
	ctor string
	// nested holds inner functions generated ahead of the body
	nested map[*hir.FunctionDef]*rustast.Fn

	loops []*loopState
	tries int
	// zeroDiv counts enclosing try statements that catch ZeroDivisionError
	zeroDiv    int
	handlerErr []string
	closure    int
	// alias maps a Python local to a different Rust identifier
	alias map[string]string
	// gen is set while lowering the body of a generator
	gen *genMachine
}

type loopState struct {
	// flag is the for-else/while-else break flag, "" when the loop has no
	// else clause
	flag string
	// label is assigned when a break or continue must name the loop
	label string
	tries int
	// gen holds the jump targets of a loop that suspends
	gen *genLoop
}

// Generate lowers mod into a Rust file. ctx must hold the results of
// analysis.Run for the same module.
func Generate(mod *hir.Module, ctx *genctx.Context) *rustast.File {
	g := &generator{
		ctx:     ctx,
		mod:     mod,
		statics: map[string]bool{},
		renames: map[string]string{},
	}
	return g.generateModule()
}

func (g *generator) generateModule() *rustast.File {
	g.pickMain()

	var items []rustast.Item
	g.fn = &fnState{}
	g.ctx.EnterFunction("")
	items = append(items, g.argparseItems()...)
	for _, c := range g.mod.Constants() {
		items = append(items, g.generateConstant(c))
	}
	for _, cls := range g.mod.Classes() {
		items = append(items, g.generateClass(cls)...)
	}
	for _, fn := range g.mod.Functions() {
		sig := g.ctx.Sig(fn.Name)
		if sig == nil {
			continue
		}
		if sig.IsGenerator {
			items = append(items, g.generateGenerator(sig, g.fnName(fn.Name))...)
			continue
		}
		items = append(items, g.generateFunction(sig, g.fnName(fn.Name)))
	}
	if mb := g.mod.Main(); mb != nil && !g.mainInlined {
		if sig := g.ctx.Sig(analysis.MainKey); sig != nil {
			items = append(items, g.generateFunction(sig, "main"))
		}
	}
	g.ctx.Current = ""
	g.ctx.CurrentSig = nil

	file := &rustast.File{
		Header: []string{"Generated by depyler from " + g.moduleName() + ". Do not edit."},
		Attrs: []string{
			"allow(unused_variables, unused_mut, unused_parens, unused_imports, dead_code, non_snake_case, non_upper_case_globals)",
		},
	}
	file.Items = append(g.preamble(), items...)
	return file
}

func (g *generator) moduleName() string {
	if g.mod.Name == "" {
		return "module"
	}
	return g.mod.Name
}

// pickMain decides whether a user main() becomes the Rust entry point. It
// does when it takes no parameters, returns nothing and the main guard only
// calls it; otherwise it is emitted as py_main and the guard becomes main.
func (g *generator) pickMain() {
	user := g.mod.Function("main")
	if user == nil {
		return
	}
	sig := g.ctx.Sig("main")
	simple := sig != nil && len(sig.Params) == 0 && sig.Return == nil && !sig.ReturnsOption
	mb := g.mod.Main()
	if mb == nil {
		if !simple {
			g.renames["main"] = "py_main"
		}
		return
	}
	if simple && guardCallsMain(mb.Body) {
		g.mainInlined = true
		return
	}
	g.renames["main"] = "py_main"
}

func guardCallsMain(body []hir.Stmt) bool {
	if len(body) != 1 {
		return false
	}
	es, ok := body[0].(*hir.ExprStmt)
	if !ok {
		return false
	}
	call, ok := es.Value.(*hir.Call)
	if ok && call.Callee == nil && call.Func == "main" && len(call.Args) == 0 {
		return true
	}
	// sys.exit(main())
	if mc, ok := es.Value.(*hir.MethodCall); ok && mc.Method == "exit" && len(mc.Args) == 1 {
		inner, ok := mc.Args[0].(*hir.Call)
		return ok && inner.Func == "main" && len(inner.Args) == 0
	}
	return false
}

func (g *generator) fnName(name string) string {
	if r, ok := g.renames[name]; ok {
		return r
	}
	return g.ident(name)
}

// ident escapes a Python name as a Rust identifier, reporting names that
// cannot be one
func (g *generator) ident(name string) string {
	id, err := rustast.ParseIdent(name)
	if err != nil {
		g.ctx.Diags.Unsupported(0, 0, "identifier", "%v", err)
		return rustast.SanitizeIdent(name)
	}
	return id
}

// localIdent is ident for a local variable, honoring aliases
func (g *generator) localIdent(name string) string {
	if g.fn != nil && g.fn.alias != nil {
		if a, ok := g.fn.alias[name]; ok {
			return a
		}
	}
	return g.ident(name)
}

func (g *generator) setAlias(name, rust string) {
	if g.fn.alias == nil {
		g.fn.alias = map[string]string{}
	}
	g.fn.alias[name] = rust
}

func (g *generator) typeOf(e hir.Expr) *hir.Type {
	return analysis.TypeOf(g.ctx, e)
}

// generateConstant emits a module constant: a const for values Rust can
// evaluate at compile time, a LazyLock static otherwise
func (g *generator) generateConstant(c *hir.Constant) rustast.Item {
	t := c.Type
	if t == nil {
		t = g.ctx.Constants[c.Name]
	}
	name := g.ident(c.Name)
	if lit, ok := c.Value.(*hir.Literal); ok && lit.Kind == hir.LitString && (t == nil || t.Is(hir.KindString)) {
		return &rustast.Const{Pub: true, Name: name, Type: rustast.Ref(rustast.Named("str")), Value: g.literal(lit)}
	}
	if isConstExpr(c.Value) && t.IsCopy() {
		return &rustast.Const{Pub: true, Name: name, Type: g.mapType(t), Value: g.convert(c.Value, t)}
	}
	g.statics[c.Name] = true
	init := &rustast.Closure{Body: g.convert(c.Value, t)}
	return &rustast.Static{
		Pub:   true,
		Name:  name,
		Type:  rustast.Named("std::sync::LazyLock", g.mapType(t)),
		Value: rustast.CallPath("std::sync::LazyLock::new", init),
	}
}

// isConstExpr reports whether e is arithmetic over numeric and boolean
// literals
func isConstExpr(e hir.Expr) bool {
	switch n := e.(type) {
	case *hir.Literal:
		return n.Kind == hir.LitInt || n.Kind == hir.LitFloat || n.Kind == hir.LitBool
	case *hir.Unary:
		return n.Op != hir.Not && isConstExpr(n.Operand)
	case *hir.Binary:
		switch n.Op {
		case hir.Add, hir.Sub, hir.Mul, hir.BitAnd, hir.BitOr, hir.BitXor, hir.LShift, hir.RShift:
			return isConstExpr(n.Left) && isConstExpr(n.Right)
		}
	case *hir.TupleLit:
		for _, el := range n.Elems {
			if !isConstExpr(el) {
				return false
			}
		}
		return true
	}
	return false
}
