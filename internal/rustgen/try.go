package rustgen

import (
	"sort"
	"strings"

	"github.com/paiml/depyler-sub010/internal/genctx"
	"github.com/paiml/depyler-sub010/internal/hir"
	"github.com/paiml/depyler-sub010/internal/rustast"
)

// A try statement lowers to an error sentinel and a labeled block:
//
//	let mut _try_3_err: Option<DepylerError> = None;
//	'try_3: { ... }
//	if let Some(_err) = _try_3_err.take() { match &_err { ... } }
//	<finally>
//	if let Some(_err) = _try_3_err { <propagate> }
//
// A raise or failing call inside the body stores the error and breaks out of
// the block.

func sentinelName(label string) string {
	return "_" + label + "_err"
}

func (g *generator) tryStmt(b *rustast.Block, n *hir.Try) {
	g.ctx.Need(genctx.NeedErrorType)
	label := g.ctx.PushTry()
	sentinel := sentinelName(label)
	b.Add(&rustast.Let{
		Mut:     true,
		Pattern: sentinel,
		Type:    rustast.Named("Option", rustast.Named("DepylerError")),
		Value:   rustast.Name("None"),
	})
	g.fn.tries++
	catches := catchesZeroDiv(n.Handlers)
	if catches {
		g.fn.zeroDiv++
	}
	body := g.block(n.Body)
	if catches {
		g.fn.zeroDiv--
	}
	g.fn.tries--
	g.ctx.PopTry()
	b.AddExpr(&rustast.BlockExpr{Label: label, Block: body})

	if len(n.Else) > 0 {
		b.AddExpr(&rustast.If{Cond: rustast.Method(rustast.Name(sentinel), "is_none"), Then: g.block(n.Else)})
	}
	if len(n.Handlers) > 0 {
		b.AddExpr(g.handlers(n, sentinel))
	}
	g.stmts(b, n.Finally)
	// an error no handler matched keeps propagating
	b.AddExpr(&rustast.IfLet{
		Pattern: "Some(_err)",
		Value:   rustast.Name(sentinel),
		Then:    stmtBlock(g.fail(rustast.Name("_err"))),
	})
}

func (g *generator) handlers(n *hir.Try, sentinel string) rustast.Expr {
	var arms []rustast.Arm
	catchAll := false
	for _, h := range n.Handlers {
		pattern := g.handlerPattern(h.Types)
		catchAll = pattern == "_"

		g.ctx.PushScope()
		body := &rustast.Block{}
		if h.Name != "" {
			body.Add(&rustast.Let{Pattern: g.ident(h.Name), Value: rustast.Method(rustast.Name("_err"), "clone")})
			excType := "Exception"
			if len(h.Types) > 0 {
				excType = h.Types[0]
			}
			g.ctx.Scope().Bind(&genctx.Symbol{Name: h.Name, Type: hir.CustomType(excType), Kind: genctx.SymLocal, Assigned: true})
		}
		g.fn.handlerErr = append(g.fn.handlerErr, "_err")
		g.stmts(body, h.Body)
		g.fn.handlerErr = g.fn.handlerErr[:len(g.fn.handlerErr)-1]
		g.ctx.PopScope()

		arms = append(arms, rustast.Arm{Pattern: pattern, Body: &rustast.BlockExpr{Block: body}})
		if catchAll {
			break
		}
	}
	if !catchAll {
		arms = append(arms, rustast.Arm{
			Pattern: "_",
			Body: &rustast.Assign{
				Target: rustast.Name(sentinel),
				Op:     "=",
				Value:  rustast.CallPath("Some", rustast.Method(rustast.Name("_err"), "clone")),
			},
		})
	}
	match := &rustast.Match{Subject: &rustast.Borrow{X: rustast.Name("_err")}, Arms: arms}
	return &rustast.IfLet{
		Pattern: "Some(_err)",
		Value:   rustast.Method(rustast.Name(sentinel), "take"),
		Then:    stmtBlock(match),
	}
}

func catchesZeroDiv(handlers []*hir.Handler) bool {
	for _, h := range handlers {
		if len(h.Types) == 0 {
			return true
		}
		for _, t := range h.Types {
			switch t {
			case "ZeroDivisionError", "Exception", "BaseException":
				return true
			}
		}
	}
	return false
}

// checkedDiv evaluates the divisor once and raises ZeroDivisionError into
// the enclosing try when it is zero. Outside such a try the Rust operator
// semantics are kept.
func (g *generator) checkedDiv(divisor rustast.Expr, zero, msg string, op func(d rustast.Expr) rustast.Expr) rustast.Expr {
	if g.fn == nil || g.fn.closure > 0 || g.fn.zeroDiv == 0 {
		return op(divisor)
	}
	d := rustast.Name("__divisor")
	body := &rustast.Block{Tail: op(d)}
	body.Add(&rustast.Let{Pattern: d.Name, Value: divisor})
	body.AddExpr(&rustast.If{
		Cond: &rustast.Binary{Op: "==", L: d, R: &rustast.Lit{Text: zero}},
		Then: stmtBlock(g.fail(rustast.CallPath("DepylerError::ZeroDivisionError", rustast.Method(rustast.Str(msg), "to_string")))),
	})
	g.ctx.AddErrorVariant("ZeroDivisionError")
	return &rustast.BlockExpr{Block: body}
}

// handlerPattern is the match pattern selecting the error variants an
// except clause catches, subclasses included
func (g *generator) handlerPattern(types []string) string {
	if len(types) == 0 {
		return "_"
	}
	var variants []string
	seen := map[string]bool{}
	add := func(name string) {
		if !seen[name] {
			seen[name] = true
			g.ctx.AddErrorVariant(name)
			variants = append(variants, "DepylerError::"+name+"(_)")
		}
	}
	for _, t := range types {
		if t == "Exception" || t == "BaseException" {
			return "_"
		}
		if !g.isExceptionName(t) {
			g.ctx.Diags.Unresolved(0, 0, t)
		}
		add(t)
		for _, sub := range g.subclassesOf(t) {
			add(sub)
		}
	}
	return strings.Join(variants, " | ")
}

// subclassesOf lists the user classes deriving from base, directly or not
func (g *generator) subclassesOf(base string) []string {
	var out []string
	for name, cls := range g.ctx.Classes {
		for c, depth := cls, 0; c != nil && len(c.Bases) > 0 && depth < 32; depth++ {
			if c.Bases[0] == base {
				out = append(out, name)
				break
			}
			c = g.ctx.Classes[c.Bases[0]]
		}
	}
	sort.Strings(out)
	return out
}

// fail raises err: into the enclosing try block, out of a fallible
// function, or as a panic
func (g *generator) fail(err rustast.Expr) rustast.Expr {
	if g.fn.closure == 0 && g.fn.tries > 0 {
		label := g.ctx.TryLabel()
		return &rustast.BlockExpr{Block: stmtBlock(
			&rustast.Assign{Target: rustast.Name(sentinelName(label)), Op: "=", Value: rustast.CallPath("Some", err)},
			&rustast.Break{Label: label},
		)}
	}
	if g.fn.closure == 0 && g.ctx.CurrentCanFail() {
		return &rustast.Return{Value: rustast.CallPath("Err", err)}
	}
	return &rustast.Macro{Name: "panic", Args: []rustast.Expr{rustast.Str("{}"), err}}
}

// propagate handles the Result of a call to a fallible function
func (g *generator) propagate(call rustast.Expr) rustast.Expr {
	switch {
	case g.fn == nil || g.fn.closure > 0:
		return rustast.Method(call, "unwrap")
	case g.fn.tries > 0:
		label := g.ctx.TryLabel()
		return &rustast.Match{Subject: call, Arms: []rustast.Arm{
			{Pattern: "Ok(_v)", Body: rustast.Name("_v")},
			{Pattern: "Err(_e)", Body: &rustast.BlockExpr{Block: stmtBlock(
				&rustast.Assign{Target: rustast.Name(sentinelName(label)), Op: "=", Value: rustast.CallPath("Some", rustast.Name("_e"))},
				&rustast.Break{Label: label},
			)}},
		}}
	case g.ctx.CurrentCanFail():
		return &rustast.Try{X: call}
	}
	return rustast.Method(call, "unwrap")
}

// fallible lowers a std Result whose error is reported as excType
func (g *generator) fallible(call rustast.Expr, excType, msg string) rustast.Expr {
	if g.fn != nil && g.fn.closure == 0 && (g.fn.tries > 0 || g.ctx.CurrentCanFail()) {
		g.ctx.AddErrorVariant(excType)
		mapped := rustast.Method(call, "map_err", &rustast.Closure{
			Params: []string{"_e"},
			Body:   rustast.CallPath("DepylerError::"+excType, rustast.Method(rustast.Name("_e"), "to_string")),
		})
		return g.propagate(mapped)
	}
	return rustast.Method(call, "expect", rustast.Str(msg))
}

func (g *generator) raise(n *hir.Raise) rustast.Expr {
	if n.Exc == nil {
		if k := len(g.fn.handlerErr); k > 0 {
			return g.fail(rustast.Method(rustast.Name(g.fn.handlerErr[k-1]), "clone"))
		}
		line, col := n.Loc()
		g.ctx.Diags.Unsupported(line, col, "raise", "bare raise outside an except clause")
		return &rustast.Macro{Name: "panic", Args: []rustast.Expr{rustast.Str("re-raised outside an except clause")}}
	}
	return g.fail(g.errorValue(n.Exc))
}

// errorValue lowers a raised value to a DepylerError
func (g *generator) errorValue(exc hir.Expr) rustast.Expr {
	switch x := exc.(type) {
	case *hir.Call:
		if x.Callee == nil && g.isExceptionName(x.Func) {
			return g.exceptionValue(x.Func, x.Args)
		}
	case *hir.Var:
		if sym := g.ctx.Lookup(x.Name); sym != nil {
			if sym.Type.Is(hir.KindCustom) && g.isExceptionName(sym.Type.Name) {
				return rustast.Method(g.varExpr(x), "clone")
			}
		} else if g.isExceptionName(x.Name) {
			return g.exceptionValue(x.Name, nil)
		}
	}
	g.ctx.AddErrorVariant("Exception")
	return rustast.CallPath("DepylerError::Exception", &rustast.Macro{Name: "format", Args: []rustast.Expr{rustast.Str("{}"), g.generateExpr(exc)}})
}

// exceptionValue constructs the variant for an exception class with its
// message
func (g *generator) exceptionValue(name string, args []hir.Expr) rustast.Expr {
	g.ctx.AddErrorVariant(name)
	var msg rustast.Expr
	switch len(args) {
	case 0:
		msg = rustast.CallPath("String::new")
	case 1:
		if g.typeOf(args[0]).Is(hir.KindString) {
			msg = g.toOwned(args[0], g.generateExpr(args[0]))
		} else {
			msg = &rustast.Macro{Name: "format", Args: []rustast.Expr{rustast.Str("{}"), g.generateExpr(args[0])}}
		}
	default:
		parts := make([]string, len(args))
		margs := []rustast.Expr{nil}
		for i, a := range args {
			parts[i] = "{}"
			margs = append(margs, g.generateExpr(a))
		}
		margs[0] = rustast.Str(strings.Join(parts, " "))
		msg = &rustast.Macro{Name: "format", Args: margs}
	}
	return rustast.CallPath("DepylerError::"+name, msg)
}
