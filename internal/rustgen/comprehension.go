package rustgen

import (
	"github.com/paiml/depyler-sub010/internal/genctx"
	"github.com/paiml/depyler-sub010/internal/hir"
	"github.com/paiml/depyler-sub010/internal/rustast"
)

// comprehension lowers a comprehension to an iterator chain: filter per
// condition, flat_map per extra generator, map to the element. Generators
// consumed in place stay uncollected.
func (g *generator) comprehension(n *hir.Comprehension, collect bool) rustast.Expr {
	owned := func(e hir.Expr) rustast.Expr { return g.toOwned(e, g.generateExpr(e)) }
	var elem func() rustast.Expr
	var into rustast.Type
	switch n.Kind {
	case hir.CompDict:
		g.ctx.Need(genctx.NeedHashMap)
		into = rustast.Named("HashMap", &rustast.InferType{}, &rustast.InferType{})
		elem = func() rustast.Expr {
			return &rustast.Tuple{Elems: []rustast.Expr{owned(n.Key), owned(n.Element)}}
		}
	case hir.CompSet:
		g.ctx.Need(genctx.NeedHashSet)
		into = rustast.Named("HashSet", &rustast.InferType{})
		elem = func() rustast.Expr { return owned(n.Element) }
	default:
		into = rustast.Named("Vec", &rustast.InferType{})
		elem = func() rustast.Expr { return owned(n.Element) }
	}
	chain := g.compChain(n.Generators, 0, elem)
	if n.Kind == hir.CompGenerator && !collect {
		return chain
	}
	return &rustast.MethodCall{Recv: chain, Method: "collect", Turbofish: []rustast.Type{into}}
}

// compChain lowers generator i and everything inside it
func (g *generator) compChain(gens []*hir.Generator, i int, elem func() rustast.Expr) rustast.Expr {
	gen := gens[i]
	src, shape, isIter := g.iterate(gen.Iter, true)
	it := asIter(src, isIter)

	g.fn.closure++
	defer func() { g.fn.closure-- }()

	for _, f := range gen.Filters {
		g.ctx.PushScope()
		pat := g.filterPattern(gen.Target, shape)
		cond := g.cond(f)
		g.releaseChars(gen.Target, shape)
		g.ctx.PopScope()
		it = rustast.Method(it, "filter", &rustast.Closure{Params: []string{pat}, Body: cond, Move: i > 0})
	}

	g.ctx.PushScope()
	defer g.ctx.PopScope()
	pat := g.bindPattern(gen.Target, shape, nil)
	defer g.releaseChars(gen.Target, shape)
	if i == len(gens)-1 {
		return rustast.Method(it, "map", &rustast.Closure{Params: []string{pat}, Body: elem(), Move: i > 0})
	}
	inner := g.compChain(gens, i+1, elem)
	return rustast.Method(it, "flat_map", &rustast.Closure{Params: []string{pat}, Body: inner, Move: i > 0})
}

// compIter lowers a generator argument of a reducing builtin, mapping each
// element through elem
func (g *generator) compIter(n *hir.Comprehension, elem func(hir.Expr) rustast.Expr) rustast.Expr {
	return g.compChain(n.Generators, 0, func() rustast.Expr { return elem(n.Element) })
}
