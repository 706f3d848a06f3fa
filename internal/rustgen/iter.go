package rustgen

import (
	"strconv"
	"strings"

	"github.com/paiml/depyler-sub010/internal/analysis"
	"github.com/paiml/depyler-sub010/internal/genctx"
	"github.com/paiml/depyler-sub010/internal/hir"
	"github.com/paiml/depyler-sub010/internal/registry"
	"github.com/paiml/depyler-sub010/internal/rustast"
)

// elemShape describes the items a lowered iterator yields
type elemShape struct {
	typ *hir.Type
	// ref items are &T; bound items are reached through a reference pattern
	// and already bind by reference
	ref   bool
	bound bool
	char  bool
	// index is an enumerate counter, a usize offset by start
	index bool
	start rustast.Expr
	// parts holds per-component shapes when items are tuples
	parts []elemShape
}

func asIter(x rustast.Expr, isIter bool) rustast.Expr {
	if isIter {
		return x
	}
	return rustast.Method(x, "into_iter")
}

func isPlaceExpr(e hir.Expr) bool {
	switch e.(type) {
	case *hir.Var, *hir.Attribute, *hir.Index:
		return true
	}
	return false
}

// builtinName reports whether a call of name reaches the builtin rather than
// a user definition
func (g *generator) builtinName(name string) bool {
	return registry.IsBuiltin(name) && g.ctx.Lookup(name) == nil && g.ctx.Sig(name) == nil && !g.ctx.IsClass(name)
}

// iterate lowers the iterable of a for loop or comprehension. isIter
// reports whether the result is already an iterator rather than a value
// for loops consume through IntoIterator. inClosure selects forms that need
// no loop prologue.
func (g *generator) iterate(iter hir.Expr, inClosure bool) (x rustast.Expr, shape elemShape, isIter bool) {
	switch n := iter.(type) {
	case *hir.Call:
		if n.Callee == nil && g.builtinName(n.Func) {
			if x, shape, isIter, ok := g.builtinIter(n, inClosure); ok {
				return x, shape, isIter
			}
		}
	case *hir.MethodCall:
		if x, shape, ok := g.dictViewIter(n); ok {
			return x, shape, true
		}
	case *hir.Comprehension:
		if n.Kind == hir.CompGenerator {
			return g.comprehension(n, false), elemShape{typ: registry.IterElem(g.typeOf(n))}, true
		}
	}

	t := g.typeOf(iter)
	if t.Is(hir.KindOptional) {
		t = t.Elem()
	}
	x = g.generateExpr(iter)
	elem := registry.IterElem(t)
	place := isPlaceExpr(iter) || g.formOf(iter) != formOwned
	switch {
	case t.Is(hir.KindString):
		return rustast.Method(x, "chars"), elemShape{typ: hir.TypeString, char: true}, true
	case t.Is(hir.KindGeneric) && t.Name == "Iterator":
		return x, elemShape{typ: elem}, true
	case t.Is(hir.KindDict) || isDictLike(t):
		if place {
			return rustast.Method(x, "keys"), elemShape{typ: t.Key(), ref: true}, true
		}
		return rustast.Method(x, "into_keys"), elemShape{typ: t.Key()}, true
	case t.Is(hir.KindBytes) && place:
		return rustast.Method(x, "iter"), elemShape{typ: hir.TypeInt, ref: true}, true
	case place:
		return rustast.Method(x, "iter"), elemShape{typ: elem, ref: true}, true
	}
	return x, elemShape{typ: elem}, false
}

// builtinIter lowers the builtins that produce iterators without collecting
func (g *generator) builtinIter(n *hir.Call, inClosure bool) (rustast.Expr, elemShape, bool, bool) {
	args := n.Args
	switch n.Func {
	case "range":
		if len(args) == 0 {
			return nil, elemShape{}, false, false
		}
		return g.rangeIter(args), elemShape{typ: hir.TypeInt}, true, true

	case "enumerate":
		if len(args) == 0 {
			return nil, elemShape{}, false, false
		}
		inner, s, isIter := g.iterate(args[0], inClosure)
		it := rustast.Method(asIter(inner, isIter), "enumerate")
		var start rustast.Expr
		if len(args) > 1 {
			start = g.exprWant(args[1], hir.TypeInt)
		}
		for _, kw := range n.Kwargs {
			if kw.Name == "start" {
				start = g.exprWant(kw.Value, hir.TypeInt)
			}
		}
		shape := elemShape{typ: hir.TupleOf(hir.TypeInt, s.typ)}
		if inClosure {
			var idx rustast.Expr = &rustast.Cast{X: rustast.Name("_i"), Type: rustast.Named(g.ctx.IntType)}
			if start != nil {
				idx = &rustast.Binary{Op: "+", L: idx, R: start}
			}
			mapped := rustast.Method(it, "map", &rustast.Closure{
				Params: []string{"(_i, _x)"},
				Body:   &rustast.Tuple{Elems: []rustast.Expr{idx, rustast.Name("_x")}},
			})
			shape.parts = []elemShape{{typ: hir.TypeInt}, s}
			return mapped, shape, true, true
		}
		shape.parts = []elemShape{{typ: hir.TypeInt, index: true, start: start}, s}
		return it, shape, true, true

	case "zip":
		if len(args) < 2 {
			return nil, elemShape{}, false, false
		}
		var it rustast.Expr
		var parts []elemShape
		var types []*hir.Type
		for i, a := range args {
			x, s, isIter := g.iterate(a, inClosure)
			x = asIter(x, isIter)
			parts = append(parts, s)
			types = append(types, s.typ)
			if i == 0 {
				it = x
				continue
			}
			it = rustast.Method(it, "zip", x)
		}
		if len(args) > 2 {
			// flatten ((a, b), c) into (a, b, c)
			nested := "(_z0, _z1)"
			names := []string{"_z0", "_z1"}
			for i := 2; i < len(args); i++ {
				name := "_z" + strconv.Itoa(i)
				nested = "(" + nested + ", " + name + ")"
				names = append(names, name)
			}
			flat := &rustast.Tuple{}
			for _, nm := range names {
				flat.Elems = append(flat.Elems, rustast.Name(nm))
			}
			it = rustast.Method(it, "map", &rustast.Closure{Params: []string{nested}, Body: flat})
		}
		return it, elemShape{typ: hir.TupleOf(types...), parts: parts}, true, true

	case "reversed":
		if len(args) != 1 {
			return nil, elemShape{}, false, false
		}
		x, s, isIter := g.iterate(args[0], inClosure)
		return rustast.Method(asIter(x, isIter), "rev"), s, true, true

	case "sorted":
		if len(args) != 1 {
			return nil, elemShape{}, false, false
		}
		return g.sortedExpr(n), elemShape{typ: registry.IterElem(g.typeOf(n))}, false, true

	case "list", "tuple", "iter":
		if len(args) != 1 {
			return nil, elemShape{}, false, false
		}
		x, s, isIter := g.iterate(args[0], inClosure)
		return x, s, isIter, true

	case "map", "filter":
		if len(args) != 2 {
			return nil, elemShape{}, false, false
		}
		return g.ownedIter(n), elemShape{typ: registry.IterElem(g.typeOf(n))}, true, true
	}
	return nil, elemShape{}, false, false
}

// dictViewIter lowers d.items(), d.keys() and d.values() in iteration
// position without collecting
func (g *generator) dictViewIter(n *hir.MethodCall) (rustast.Expr, elemShape, bool) {
	if len(n.Args) != 0 {
		return nil, elemShape{}, false
	}
	t := g.typeOf(n.Recv)
	if !t.Is(hir.KindDict) && !isDictLike(t) {
		return nil, elemShape{}, false
	}
	place := isPlaceExpr(n.Recv) || g.formOf(n.Recv) != formOwned
	x := g.generateExpr(n.Recv)
	k, v := t.Key(), t.Value()
	switch n.Method {
	case "items":
		shape := elemShape{typ: hir.TupleOf(k, v), parts: []elemShape{{typ: k, ref: place}, {typ: v, ref: place}}}
		if place {
			return rustast.Method(x, "iter"), shape, true
		}
		return rustast.Method(x, "into_iter"), shape, true
	case "keys":
		if place {
			return rustast.Method(x, "keys"), elemShape{typ: k, ref: true}, true
		}
		return rustast.Method(x, "into_keys"), elemShape{typ: k}, true
	case "values":
		if place {
			return rustast.Method(x, "values"), elemShape{typ: v, ref: true}, true
		}
		return rustast.Method(x, "into_values"), elemShape{typ: v}, true
	}
	return nil, elemShape{}, false
}

// rangeIter lowers range(...). A negative constant step walks an inclusive
// range backwards. A step only known at run time goes through py_range.
func (g *generator) rangeIter(args []hir.Expr) rustast.Expr {
	var lo, hi rustast.Expr
	if len(args) == 1 {
		lo, hi = &rustast.Lit{Text: "0"}, g.exprWant(args[0], hir.TypeInt)
	} else {
		lo, hi = g.exprWant(args[0], hir.TypeInt), g.exprWant(args[1], hir.TypeInt)
	}
	if len(args) < 3 {
		return &rustast.Range{Lo: lo, Hi: hi}
	}
	step, ok := analysis.ConstIndex(args[2])
	switch {
	case ok && step > 0:
		return rustast.Method(&rustast.Range{Lo: lo, Hi: hi}, "step_by", &rustast.Lit{Text: strconv.Itoa(step)})
	case ok && step < 0:
		var r rustast.Expr = rustast.Method(&rustast.Range{Lo: plusOne(hi), Hi: lo, Inclusive: true}, "rev")
		if step != -1 {
			r = rustast.Method(r, "step_by", &rustast.Lit{Text: strconv.Itoa(-step)})
		}
		return r
	case ok:
		line, col := args[2].Loc()
		g.ctx.Diags.Errorf(line, col, "range() arg 3 must not be zero")
	}
	g.ctx.Need(genctx.NeedPyRange)
	return rustast.CallPath("py_range", lo, hi, g.exprWant(args[2], hir.TypeInt))
}

func plusOne(x rustast.Expr) rustast.Expr {
	if lit, ok := x.(*rustast.Lit); ok {
		if n, err := strconv.Atoi(lit.Text); err == nil {
			return &rustast.Lit{Text: strconv.Itoa(n + 1)}
		}
	}
	return &rustast.Binary{Op: "+", L: x, R: &rustast.Lit{Text: "1"}}
}

// bindPattern binds a loop or comprehension target for items of shape and
// returns the Rust pattern. Loop prologue statements go to prologue; a nil
// prologue marks a closure parameter.
func (g *generator) bindPattern(target hir.Expr, shape elemShape, prologue *[]rustast.Stmt) string {
	switch t := target.(type) {
	case *hir.Var:
		return g.bindLeaf(t.Name, shape, prologue)
	case *hir.TupleLit:
		return g.bindTuple(t.Elems, shape, prologue)
	case *hir.ListLit:
		return g.bindTuple(t.Elems, shape, prologue)
	}
	line, col := target.Loc()
	g.ctx.Diags.Unsupported(line, col, "loop target", "unsupported loop target")
	return "_"
}

func (g *generator) bindTuple(elems []hir.Expr, shape elemShape, prologue *[]rustast.Stmt) string {
	parts := shape.parts
	if len(parts) != len(elems) {
		parts = make([]elemShape, len(elems))
		for i := range elems {
			et := hir.TypeUnknown
			switch {
			case shape.typ.Is(hir.KindTuple) && i < len(shape.typ.Elems):
				et = shape.typ.Elems[i]
			case shape.typ.Is(hir.KindList):
				et = shape.typ.Elem()
			}
			parts[i] = elemShape{typ: et, bound: shape.ref || shape.bound}
		}
	}
	out := make([]string, len(elems))
	for i, el := range elems {
		out[i] = g.bindPattern(el, parts[i], prologue)
	}
	return "(" + strings.Join(out, ", ") + ")"
}

func (g *generator) bindLeaf(name string, shape elemShape, prologue *[]rustast.Stmt) string {
	if name == "_" {
		return "_"
	}
	id := g.ident(name)
	mut := prologue != nil && g.ctx.IsMutable(g.ctx.Current, name)
	sym := &genctx.Symbol{Name: name, Type: shape.typ, Kind: genctx.SymLoopVar, Assigned: true}
	if sym.Type.IsUnknown() {
		if vt := g.ctx.VarType(g.ctx.Current, name); !vt.IsUnknown() {
			sym.Type = vt
		}
	}
	pattern := id
	switch {
	case shape.index:
		sym.Type = hir.TypeInt
		var v rustast.Expr = &rustast.Cast{X: rustast.Name(id), Type: rustast.Named(g.ctx.IntType)}
		if shape.start != nil {
			v = &rustast.Binary{Op: "+", L: v, R: shape.start}
		}
		if prologue != nil {
			*prologue = append(*prologue, &rustast.Let{Mut: mut, Pattern: id, Value: v})
		}
	case shape.char:
		g.ctx.CharIterVars.Insert(name)
		if mut {
			pattern = "mut " + id
		}
	case shape.bound:
		sym.Borrow = genctx.Shared
	case shape.ref:
		if sym.Type.IsCopy() {
			pattern = "&" + id
			if mut {
				*prologue = append(*prologue, &rustast.Let{Mut: true, Pattern: id, Value: rustast.Name(id)})
			}
			break
		}
		sym.Borrow = genctx.Shared
	default:
		if mut {
			pattern = "mut " + id
		}
	}
	sym.Mutable = mut
	g.ctx.Scope().Bind(sym)
	return pattern
}

// filterPattern binds a target for a filter closure, which receives a
// reference to each item
func (g *generator) filterPattern(target hir.Expr, shape elemShape) string {
	if v, ok := target.(*hir.Var); ok && !shape.ref && !shape.char && !shape.bound && len(shape.parts) == 0 && !shape.typ.IsCopy() {
		return g.bindLeaf(v.Name, elemShape{typ: shape.typ, bound: true}, nil)
	}
	if shape.bound {
		return g.bindPattern(target, shape, nil)
	}
	return "&" + g.bindPattern(target, shape, nil)
}

// releaseChars forgets the char loop variables bound by target
func (g *generator) releaseChars(target hir.Expr, shape elemShape) {
	switch t := target.(type) {
	case *hir.Var:
		if shape.char {
			g.ctx.CharIterVars.Remove(t.Name)
		}
	case *hir.TupleLit:
		for i, el := range t.Elems {
			if i < len(shape.parts) {
				g.releaseChars(el, shape.parts[i])
			}
		}
	}
}

// ownedIter lowers an iterable as an iterator over owned items
func (g *generator) ownedIter(e hir.Expr) rustast.Expr {
	if call, ok := e.(*hir.Call); ok && call.Callee == nil && g.builtinName(call.Func) && len(call.Args) == 2 {
		switch call.Func {
		case "map":
			return g.mapIter(call)
		case "filter":
			return g.filterIter(call)
		}
	}
	x, shape, isIter := g.iterate(e, true)
	return g.owning(asIter(x, isIter), shape)
}

// owning maps an iterator of shape to one over owned items
func (g *generator) owning(it rustast.Expr, shape elemShape) rustast.Expr {
	switch {
	case shape.char:
		return rustast.Method(it, "map", &rustast.Closure{Params: []string{"_c"}, Body: rustast.Method(rustast.Name("_c"), "to_string")})
	case shape.ref:
		if shape.typ.IsCopy() {
			return rustast.Method(it, "copied")
		}
		return rustast.Method(it, "cloned")
	case len(shape.parts) > 0:
		anyRef := false
		for _, p := range shape.parts {
			anyRef = anyRef || p.ref || p.char
		}
		if !anyRef {
			return it
		}
		names := make([]string, len(shape.parts))
		tuple := &rustast.Tuple{}
		for i, p := range shape.parts {
			names[i] = "_p" + strconv.Itoa(i)
			var v rustast.Expr = rustast.Name(names[i])
			switch {
			case p.char:
				v = rustast.Method(v, "to_string")
			case p.ref && p.typ.IsCopy():
				v = &rustast.Deref{X: v}
			case p.ref:
				v = rustast.Method(v, "clone")
			}
			tuple.Elems = append(tuple.Elems, v)
		}
		return rustast.Method(it, "map", &rustast.Closure{Params: []string{"(" + strings.Join(names, ", ") + ")"}, Body: tuple})
	}
	return it
}

// toVec lowers an iterable as an owned Vec
func (g *generator) toVec(e hir.Expr) rustast.Expr {
	t := g.typeOf(e)
	if t.Is(hir.KindList) {
		if _, ok := e.(*hir.Comprehension); !ok {
			return g.toOwned(e, g.generateExpr(e))
		}
	}
	return collectVec(g.ownedIter(e))
}

// mapIter lowers map(f, xs)
func (g *generator) mapIter(n *hir.Call) rustast.Expr {
	x, shape, isIter := g.iterate(n.Args[1], true)
	it := asIter(x, isIter)
	if l, ok := n.Args[0].(*hir.Lambda); ok && len(l.Params) == 1 {
		return rustast.Method(it, "map", g.lambdaOver(l, shape, false))
	}
	return rustast.Method(g.owning(it, shape), "map", g.generateExpr(n.Args[0]))
}

// filterIter lowers filter(f, xs)
func (g *generator) filterIter(n *hir.Call) rustast.Expr {
	x, shape, isIter := g.iterate(n.Args[1], true)
	it := asIter(x, isIter)
	if l, ok := n.Args[0].(*hir.Lambda); ok && len(l.Params) == 1 {
		return g.owning(rustast.Method(it, "filter", g.lambdaOver(l, shape, true)), shape)
	}
	if isNone(n.Args[0]) {
		g.ctx.PushScope()
		pat := g.filterPattern(&hir.Var{Name: "_x"}, shape)
		body := g.cond(&hir.Var{Name: "_x"})
		g.ctx.PopScope()
		return g.owning(rustast.Method(it, "filter", &rustast.Closure{Params: []string{pat}, Body: body}), shape)
	}
	f := g.generateExpr(n.Args[0])
	return g.owning(rustast.Method(it, "filter", &rustast.Closure{
		Params: []string{"_x"},
		Body:   &rustast.Call{Func: f, Args: []rustast.Expr{rustast.Name("_x")}},
	}), shape)
}

// lambdaOver lowers a one-parameter lambda applied to items of shape. As a
// filter the item is received by reference and the body is a condition.
func (g *generator) lambdaOver(l *hir.Lambda, shape elemShape, filter bool) rustast.Expr {
	g.ctx.PushScope()
	g.fn.closure++
	defer func() {
		g.fn.closure--
		g.ctx.PopScope()
	}()
	target := &hir.Var{Name: l.Params[0]}
	if filter {
		pat := g.filterPattern(target, shape)
		return &rustast.Closure{Params: []string{pat}, Body: g.cond(l.Body)}
	}
	pat := g.bindPattern(target, shape, nil)
	return &rustast.Closure{Params: []string{pat}, Body: g.toOwned(l.Body, g.generateExpr(l.Body))}
}
