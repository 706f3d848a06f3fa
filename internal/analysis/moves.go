package analysis

import (
	"github.com/paiml/depyler-sub010/internal/genctx"
	"github.com/paiml/depyler-sub010/internal/hir"
	"github.com/paiml/depyler-sub010/internal/registry"
)

// analyzeMoves marks variable occurrences that move a non-Copy value while
// the variable is read again later in the function, or on the next iteration
// of an enclosing loop. The code generator clones exactly those occurrences.
func (a *analyzer) analyzeMoves() {
	for _, sig := range a.funcs {
		a.enter(sig)
		mv := &moveScan{a: a, sig: sig, uses: map[string][]*hir.Var{}}
		hir.InspectStmts(sig.Func.Body, func(n hir.Node) bool {
			if v, ok := n.(*hir.Var); ok && hasSpan(v) {
				mv.uses[v.Name] = append(mv.uses[v.Name], v)
			}
			return true
		})
		mv.stmts(sig.Func.Body)
	}
}

type moveScan struct {
	a     *analyzer
	sig   *genctx.FuncSig
	uses  map[string][]*hir.Var
	loops []hir.Stmt
}

func (mv *moveScan) stmts(list []hir.Stmt) {
	for _, s := range list {
		mv.stmt(s)
	}
}

func (mv *moveScan) stmt(s hir.Stmt) {
	switch n := s.(type) {
	case *hir.Assign:
		if n.Value != nil {
			mv.moved(n.Value)
			mv.expr(n.Value)
		}
		if _, ok := n.Target.(*hir.Var); !ok {
			mv.expr(n.Target)
		}
	case *hir.AugAssign:
		mv.expr(n.Value)
	case *hir.Return:
		mv.expr(n.Value)
	case *hir.If:
		mv.expr(n.Cond)
		mv.stmts(n.Body)
		mv.stmts(n.Else)
	case *hir.While:
		mv.expr(n.Cond)
		mv.loops = append(mv.loops, s)
		mv.stmts(n.Body)
		mv.loops = mv.loops[:len(mv.loops)-1]
		mv.stmts(n.Else)
	case *hir.For:
		mv.expr(n.Iter)
		mv.loops = append(mv.loops, s)
		mv.stmts(n.Body)
		mv.loops = mv.loops[:len(mv.loops)-1]
		mv.stmts(n.Else)
	case *hir.Try:
		mv.stmts(n.Body)
		for _, h := range n.Handlers {
			mv.stmts(h.Body)
		}
		mv.stmts(n.Else)
		mv.stmts(n.Finally)
	case *hir.With:
		for _, it := range n.Items {
			mv.expr(it.Context)
		}
		mv.stmts(n.Body)
	case *hir.Raise:
		mv.expr(n.Exc)
	case *hir.Assert:
		mv.expr(n.Test)
	case *hir.ExprStmt:
		mv.expr(n.Value)
	}
}

// expr visits the moving positions inside e
func (mv *moveScan) expr(e hir.Expr) {
	if e == nil {
		return
	}
	hir.Inspect(e, func(n hir.Node) bool {
		switch x := n.(type) {
		case *hir.Call:
			sig := CalleeSig(mv.a.ctx, x)
			for i, arg := range x.Args {
				if sig == nil {
					continue
				}
				if sig.Func != nil && sig.Func.Name == "__init__" {
					mv.moved(arg)
					continue
				}
				if p := sig.Param(i); p != nil && p.Borrow == genctx.Owned && !p.StrRef {
					mv.moved(arg)
				}
			}
		case *hir.MethodCall:
			if sig := CalleeSig(mv.a.ctx, x); sig != nil {
				for i, arg := range x.Args {
					if p := sig.Param(i); p != nil && p.Borrow == genctx.Owned {
						mv.moved(arg)
					}
				}
				break
			}
			if rule, ok := registry.Method(receiverKind(mv.a.ctx, x.Recv), x.Method); ok && rule.Args == registry.ArgsOwned {
				for _, arg := range x.Args {
					mv.moved(arg)
				}
			}
		case *hir.ListLit:
			mv.movedAll(x.Elems)
		case *hir.TupleLit:
			mv.movedAll(x.Elems)
		case *hir.SetLit:
			mv.movedAll(x.Elems)
		case *hir.DictLit:
			mv.movedAll(x.Keys)
			mv.movedAll(x.Values)
		case *hir.Lambda:
			return false
		}
		return true
	})
}

func (mv *moveScan) movedAll(list []hir.Expr) {
	for _, e := range list {
		mv.moved(e)
	}
}

// moved handles a value in a moving position
func (mv *moveScan) moved(e hir.Expr) {
	v, ok := e.(*hir.Var)
	if !ok || !hasSpan(v) {
		return
	}
	t := TypeOf(mv.a.ctx, v)
	if t.IsCopy() || mv.a.ctx.IsClass(v.Name) {
		return
	}
	if mv.readLater(v) {
		mv.a.ctx.UsedLater[v] = true
		mv.a.ctx.Trace("clone", mv.sig.Key+"."+v.Name, "clone", "used after move")
	}
}

func (mv *moveScan) readLater(v *hir.Var) bool {
	for _, u := range mv.uses[v.Name] {
		if u != v && spanLess(v, u) {
			return true
		}
	}
	// the next iteration reads the value again unless the loop rebinds it
	for _, loop := range mv.loops {
		if !rebinds(loop, v.Name) {
			return true
		}
	}
	return false
}

func rebinds(loop hir.Stmt, name string) bool {
	found := false
	if f, ok := loop.(*hir.For); ok && containsName(hir.Names(f.Target), name) {
		return true
	}
	hir.Inspect(loop, func(n hir.Node) bool {
		if as, ok := n.(*hir.Assign); ok && containsName(hir.Names(as.Target), name) {
			found = true
		}
		return !found
	})
	return found
}
