package analysis

import (
	"github.com/paiml/depyler-sub010/internal/genctx"
	"github.com/paiml/depyler-sub010/internal/hir"
)

// analyzeOptionals records "x is None" / "x is not None" tests on Optional
// locals and parameters so the code generator binds the unwrapped value with
// if-let or let-else instead of unwrapping on every use
func (a *analyzer) analyzeOptionals() {
	for _, sig := range a.funcs {
		a.enter(sig)
		hir.InspectStmts(sig.Func.Body, func(n hir.Node) bool {
			switch x := n.(type) {
			case *hir.FunctionDef, *hir.ClassDef:
				return false
			case *hir.If:
				if g := a.noneGuard(x); g != nil {
					a.ctx.NoneGuards[x] = g
					choice := "if let Some"
					if g.Diverges {
						choice = "let-else"
					}
					a.ctx.Trace("optional", sig.Key+"."+g.Var, choice, "None test")
				}
			}
			return true
		})
	}
}

func (a *analyzer) noneGuard(n *hir.If) *genctx.NoneGuard {
	cmp, ok := n.Cond.(*hir.Compare)
	if !ok || len(cmp.Ops) != 1 || !isNone(cmp.Comparators[0]) {
		return nil
	}
	v, ok := cmp.Left.(*hir.Var)
	if !ok || !TypeOf(a.ctx, v).Is(hir.KindOptional) {
		return nil
	}
	switch cmp.Ops[0] {
	case hir.IsNot:
		return &genctx.NoneGuard{Var: v.Name, Some: true}
	case hir.Is:
		g := &genctx.NoneGuard{Var: v.Name}
		g.Diverges = len(n.Else) == 0 && diverges(n.Body) && !rebindsIn(n.Body, v.Name)
		return g
	}
	return nil
}

// diverges reports whether a block always leaves the enclosing scope
func diverges(body []hir.Stmt) bool {
	if len(body) == 0 {
		return false
	}
	switch last := body[len(body)-1].(type) {
	case *hir.Return, *hir.Raise, *hir.Break, *hir.Continue:
		return true
	case *hir.If:
		return len(last.Else) > 0 && diverges(last.Body) && diverges(last.Else)
	case *hir.ExprStmt:
		if c, ok := last.Value.(*hir.Call); ok && c.Func == "exit" {
			return true
		}
		if mc, ok := last.Value.(*hir.MethodCall); ok && mc.Method == "exit" {
			if v, ok := mc.Recv.(*hir.Var); ok && v.Name == "sys" {
				return true
			}
		}
	}
	return false
}

func rebindsIn(body []hir.Stmt, name string) bool {
	found := false
	hir.InspectStmts(body, func(n hir.Node) bool {
		if as, ok := n.(*hir.Assign); ok && containsName(hir.Names(as.Target), name) {
			found = true
		}
		return !found
	})
	return found
}
