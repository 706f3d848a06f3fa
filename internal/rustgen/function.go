package rustgen

import (
	"strings"

	"github.com/paiml/depyler-sub010/internal/genctx"
	"github.com/paiml/depyler-sub010/internal/hir"
	"github.com/paiml/depyler-sub010/internal/rustast"
)

// generateFunction lowers the function behind sig to a Rust fn named name.
// Methods get their receiver from the signature's self borrow.
func (g *generator) generateFunction(sig *genctx.FuncSig, name string) *rustast.Fn {
	saved := g.fn
	defer func() { g.fn = saved }()

	// inner functions are generated first; they cannot capture locals
	nested := map[*hir.FunctionDef]*rustast.Fn{}
	for _, fd := range nestedFunctions(sig.Func.Body) {
		if inner := g.ctx.Sig(fd.Func.Name); inner != nil && inner.Func == fd.Func {
			nested[fd] = g.generateFunction(inner, g.ident(fd.Func.Name))
		}
	}

	g.fn = &fnState{sig: sig, nested: nested}
	out := &rustast.Fn{
		Doc:   sig.Func.Docstring,
		Async: sig.IsAsync,
		Name:  name,
		Pub:   sig.Class != "",
		Ret:   g.returnType(sig),
	}
	out.Receiver, out.Params = g.enterFunction(sig)
	out.Body = g.block(sig.Func.Body)
	g.finishBody(sig, out.Body)
	return out
}

// enterFunction opens the function scope and binds the receiver and
// parameters
func (g *generator) enterFunction(sig *genctx.FuncSig) (string, []rustast.Param) {
	g.ctx.EnterFunction(sig.Key)
	fn := sig.Func
	receiver := ""
	if fn.IsMethod && len(fn.Params) > 0 {
		first := fn.Params[0].Name
		switch {
		case fn.IsClassMethod:
			g.fn.cls = first
		case !fn.IsStatic:
			g.fn.self = first
			receiver = "&self"
			if sig.SelfBorrow == genctx.Unique {
				receiver = "&mut self"
			}
			g.ctx.Scope().Bind(&genctx.Symbol{
				Name:     first,
				Type:     hir.CustomType(sig.Class),
				Borrow:   sig.SelfBorrow,
				Kind:     genctx.SymParam,
				Assigned: true,
			})
		}
	}

	var params []rustast.Param
	for _, p := range sig.Params {
		pattern := g.ident(p.Name)
		if p.Mut {
			pattern = "mut " + pattern
		}
		params = append(params, rustast.Param{Pattern: pattern, Type: g.paramType(p)})
		borrow := p.Borrow
		if p.StrRef {
			borrow = genctx.Shared
		}
		g.ctx.Scope().Bind(&genctx.Symbol{
			Name:     p.Name,
			Type:     p.Type,
			Mutable:  p.Mut,
			Borrow:   borrow,
			Kind:     genctx.SymParam,
			Assigned: true,
		})
		if p.Borrow == genctx.Unique {
			g.ctx.MutRefParams.Insert(p.Name)
		}
	}
	if sig.MutReturnRewrite {
		g.fn.retParam = returnedParam(sig)
	}
	return receiver, params
}

// returnedParam finds the &mut parameter a mutate-and-return function hands
// back
func returnedParam(sig *genctx.FuncSig) string {
	name := ""
	hir.InspectStmts(sig.Func.Body, func(n hir.Node) bool {
		switch r := n.(type) {
		case *hir.FunctionDef, *hir.Lambda:
			return false
		case *hir.Return:
			if v, ok := r.Value.(*hir.Var); ok {
				if p := sig.ParamNamed(v.Name); p != nil && p.Borrow == genctx.Unique {
					name = v.Name
				}
			}
		}
		return name == ""
	})
	return name
}

// nestedFunctions lists the function definitions of body, not descending
// into them
func nestedFunctions(body []hir.Stmt) []*hir.FunctionDef {
	var out []*hir.FunctionDef
	hir.InspectStmts(body, func(n hir.Node) bool {
		switch x := n.(type) {
		case *hir.FunctionDef:
			out = append(out, x)
			return false
		case *hir.ClassDef, *hir.Lambda:
			return false
		}
		return true
	})
	return out
}

// finishBody turns a trailing return into the tail expression and
// synthesizes the final value of paths that fall off the end
func (g *generator) finishBody(sig *genctx.FuncSig, body *rustast.Block) {
	if n := len(body.Stmts); n > 0 {
		if es, ok := body.Stmts[n-1].(*rustast.ExprStmt); ok {
			if ret, ok := es.X.(*rustast.Return); ok {
				body.Stmts = body.Stmts[:n-1]
				if ret.Value != nil {
					body.Tail = ret.Value
					return
				}
				body.Tail = g.fallOff(sig)
				return
			}
			if diverging(es.X) {
				return
			}
		}
	}
	body.Tail = g.fallOff(sig)
}

// fallOff is the value of a function whose body ends without a return
func (g *generator) fallOff(sig *genctx.FuncSig) rustast.Expr {
	var value rustast.Expr
	switch {
	case sig.MutReturnRewrite || (sig.Return == nil && !sig.ReturnsOption):
		if !sig.CanFail {
			return nil
		}
		value = rustast.Name("()")
	case sig.ReturnsOption:
		value = rustast.Name("None")
	default:
		return &rustast.Macro{Name: "unreachable"}
	}
	if sig.CanFail {
		return rustast.CallPath("Ok", value)
	}
	return value
}

// diverging reports whether a statement expression never completes
// normally
func diverging(e rustast.Expr) bool {
	switch n := e.(type) {
	case *rustast.Return, *rustast.Break, *rustast.Continue:
		return true
	case *rustast.BlockExpr:
		return blockDiverges(n.Block)
	case *rustast.Macro:
		return n.Name == "panic" || n.Name == "unreachable" || n.Name == "unimplemented"
	case *rustast.Loop:
		return !hasBreak(n.Body, n.Label)
	case *rustast.If:
		els, ok := n.Else.(*rustast.BlockExpr)
		if !ok {
			if nested, ok := n.Else.(*rustast.If); ok {
				return blockDiverges(n.Then) && diverging(nested)
			}
			return false
		}
		return blockDiverges(n.Then) && blockDiverges(els.Block)
	case *rustast.Call:
		if id, ok := n.Func.(*rustast.Ident); ok && id.Name == "std::process::exit" {
			return true
		}
	case *rustast.Raw:
		return strings.HasPrefix(n.Text, "std::process::exit")
	}
	return false
}

func blockDiverges(b *rustast.Block) bool {
	if b == nil || len(b.Stmts) == 0 || b.Tail != nil {
		return false
	}
	es, ok := b.Stmts[len(b.Stmts)-1].(*rustast.ExprStmt)
	return ok && diverging(es.X)
}

// hasBreak reports whether an unlabeled break, or one naming label, leaves
// the loop whose body is b
func hasBreak(b *rustast.Block, label string) bool {
	found := false
	var visit func(e rustast.Expr, depth int)
	var visitBlock func(b *rustast.Block, depth int)
	visitBlock = func(b *rustast.Block, depth int) {
		if b == nil {
			return
		}
		for _, s := range b.Stmts {
			switch n := s.(type) {
			case *rustast.ExprStmt:
				visit(n.X, depth)
			case *rustast.Let:
				visit(n.Value, depth)
				visitBlock(n.Else, depth)
			}
		}
		visit(b.Tail, depth)
	}
	visit = func(e rustast.Expr, depth int) {
		switch n := e.(type) {
		case *rustast.Break:
			if (n.Label == "" && depth == 0) || (label != "" && n.Label == label) {
				found = true
			}
		case *rustast.If:
			visitBlock(n.Then, depth)
			visit(n.Else, depth)
		case *rustast.IfLet:
			visitBlock(n.Then, depth)
			visit(n.Else, depth)
		case *rustast.BlockExpr:
			visitBlock(n.Block, depth)
		case *rustast.Match:
			for _, arm := range n.Arms {
				visit(arm.Body, depth)
			}
		case *rustast.Loop:
			visitBlock(n.Body, depth+1)
		case *rustast.While:
			visitBlock(n.Body, depth+1)
		case *rustast.WhileLet:
			visitBlock(n.Body, depth+1)
		case *rustast.For:
			visitBlock(n.Body, depth+1)
		}
	}
	visitBlock(b, 0)
	return found
}
