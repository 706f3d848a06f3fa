package astbridge

import (
	"github.com/paiml/depyler-sub010/internal/ast"
	"github.com/paiml/depyler-sub010/internal/hir"
)

var constantKinds = map[ast.ConstantKind]hir.LitKind{
	ast.ConstInt:    hir.LitInt,
	ast.ConstFloat:  hir.LitFloat,
	ast.ConstString: hir.LitString,
	ast.ConstBytes:  hir.LitBytes,
	ast.ConstBool:   hir.LitBool,
	ast.ConstNone:   hir.LitNone,
}

// convertExpr lowers an expression. Unsupported forms are reported and
// replaced by a None literal so lowering can continue.
func (b *Bridge) convertExpr(expr ast.Expression) hir.Expr {
	// walrus is only permitted at the top of a condition chain
	walrus := b.walrusOK
	switch expr.(type) {
	case *ast.BoolOp, *ast.Compare, *ast.UnaryOp, *ast.NamedExpr:
	default:
		b.walrusOK = false
	}
	defer func() { b.walrusOK = walrus }()

	switch e := expr.(type) {
	case *ast.Name:
		return &hir.Var{Meta: meta(e), Name: e.ID}

	case *ast.Constant:
		kind, ok := constantKinds[e.Kind]
		if !ok {
			b.unsupported(e, "ellipsis expression", "")
			return none(e)
		}
		return &hir.Literal{Meta: meta(e), Kind: kind, Value: e.Value}

	case *ast.BinOp:
		return &hir.Binary{Meta: meta(e), Op: hir.BinOp(e.Op), Left: b.convertExpr(e.Left), Right: b.convertExpr(e.Right)}

	case *ast.UnaryOp:
		return &hir.Unary{Meta: meta(e), Op: hir.UnaryOp(e.Op), Operand: b.convertExpr(e.Operand)}

	case *ast.BoolOp:
		out := &hir.BoolOp{Meta: meta(e), And: e.Op == "and"}
		for _, v := range e.Values {
			out.Values = append(out.Values, b.convertExpr(v))
		}
		return out

	case *ast.Compare:
		out := &hir.Compare{Meta: meta(e), Left: b.convertExpr(e.Left)}
		for i, op := range e.Ops {
			out.Ops = append(out.Ops, hir.CmpOp(op))
			out.Comparators = append(out.Comparators, b.convertExpr(e.Comparators[i]))
		}
		return out

	case *ast.Call:
		return b.convertCall(e)

	case *ast.Attribute:
		return &hir.Attribute{Meta: meta(e), Recv: b.convertExpr(e.Value), Name: e.Attr}

	case *ast.Subscript:
		if sl, ok := e.Index.(*ast.SliceExpr); ok {
			return &hir.Slice{
				Meta: meta(e),
				Recv: b.convertExpr(e.Value),
				Lo:   b.optExpr(sl.Lower),
				Hi:   b.optExpr(sl.Upper),
				Step: b.optExpr(sl.Step),
			}
		}
		return &hir.Index{Meta: meta(e), Recv: b.convertExpr(e.Value), Key: b.convertExpr(e.Index)}

	case *ast.SliceExpr:
		b.unsupported(e, "slice outside subscript", "")
		return none(e)

	case *ast.ListExpr:
		return &hir.ListLit{Meta: meta(e), Elems: b.convertExprs(e.Elts)}
	case *ast.TupleExpr:
		return &hir.TupleLit{Meta: meta(e), Elems: b.convertExprs(e.Elts)}
	case *ast.SetExpr:
		return &hir.SetLit{Meta: meta(e), Elems: b.convertExprs(e.Elts)}

	case *ast.DictExpr:
		out := &hir.DictLit{Meta: meta(e)}
		for i, k := range e.Keys {
			if k == nil {
				b.unsupported(e, "dict unpacking", "merge dictionaries with update()")
				continue
			}
			out.Keys = append(out.Keys, b.convertExpr(k))
			out.Values = append(out.Values, b.convertExpr(e.Values[i]))
		}
		return out

	case *ast.ListComp:
		return b.convertComprehension(e, hir.CompList, e.Generators, nil, e.Elt)
	case *ast.SetComp:
		return b.convertComprehension(e, hir.CompSet, e.Generators, nil, e.Elt)
	case *ast.GeneratorExp:
		return b.convertComprehension(e, hir.CompGenerator, e.Generators, nil, e.Elt)
	case *ast.DictComp:
		return b.convertComprehension(e, hir.CompDict, e.Generators, e.Key, e.Value)

	case *ast.Lambda:
		out := &hir.Lambda{Meta: meta(e), Body: b.convertExpr(e.Body)}
		for _, p := range e.Params {
			out.Params = append(out.Params, p.Name)
		}
		return out

	case *ast.FString:
		return b.convertFString(e)

	case *ast.IfExp:
		return &hir.IfExpr{
			Meta: meta(e),
			Cond: b.convertExpr(e.Test),
			Then: b.convertExpr(e.Body),
			Else: b.convertExpr(e.Orelse),
		}

	case *ast.Await:
		return &hir.Await{Meta: meta(e), Value: b.convertExpr(e.Value)}

	case *ast.Yield:
		return &hir.Yield{Meta: meta(e), Value: b.optExpr(e.Value)}

	case *ast.Starred:
		if e.Double {
			b.unsupported(e, "double-star expression", "")
			return none(e)
		}
		return &hir.Starred{Meta: meta(e), Value: b.convertExpr(e.Value)}

	case *ast.NamedExpr:
		if !walrus {
			b.unsupported(e, "walrus operator outside a condition", "assign the value on its own line first")
		}
		return &hir.NamedExpr{Meta: meta(e), Target: e.Target, Value: b.convertExpr(e.Value)}
	}

	b.unsupported(expr, "expression", "")
	return none(expr)
}

func (b *Bridge) convertExprs(exprs []ast.Expression) []hir.Expr {
	out := make([]hir.Expr, 0, len(exprs))
	for _, e := range exprs {
		out = append(out, b.convertExpr(e))
	}
	return out
}

// optExpr lowers an optional expression, keeping an untyped nil for absent
func (b *Bridge) optExpr(e ast.Expression) hir.Expr {
	if e == nil {
		return nil
	}
	return b.convertExpr(e)
}

// convertTarget lowers an assignment target
func (b *Bridge) convertTarget(e ast.Expression) hir.Expr {
	switch t := e.(type) {
	case *ast.TupleExpr:
		return &hir.TupleLit{Meta: meta(t), Elems: b.convertTargets(t.Elts)}
	case *ast.ListExpr:
		return &hir.TupleLit{Meta: meta(t), Elems: b.convertTargets(t.Elts)}
	}
	return b.convertExpr(e)
}

func (b *Bridge) convertTargets(exprs []ast.Expression) []hir.Expr {
	out := make([]hir.Expr, 0, len(exprs))
	for _, e := range exprs {
		out = append(out, b.convertTarget(e))
	}
	return out
}

// convertCall splits calls into named calls, method calls and calls of an
// arbitrary callee
func (b *Bridge) convertCall(e *ast.Call) hir.Expr {
	args := b.convertExprs(e.Args)
	var kwargs []*hir.Kwarg
	for _, kw := range e.Keywords {
		if kw.Arg == "" {
			b.unsupported(e, "keyword argument unpacking", "pass keyword arguments explicitly")
			continue
		}
		kwargs = append(kwargs, &hir.Kwarg{Name: kw.Arg, Value: b.convertExpr(kw.Value)})
	}

	switch fn := e.Func.(type) {
	case *ast.Name:
		return &hir.Call{Meta: meta(e), Func: fn.ID, Args: args, Kwargs: kwargs}
	case *ast.Attribute:
		return &hir.MethodCall{Meta: meta(e), Recv: b.convertExpr(fn.Value), Method: fn.Attr, Args: args, Kwargs: kwargs}
	}
	return &hir.Call{Meta: meta(e), Callee: b.convertExpr(e.Func), Args: args, Kwargs: kwargs}
}

func (b *Bridge) convertComprehension(n ast.Node, kind hir.CompKind, gens []*ast.Comprehension, key, elt ast.Expression) hir.Expr {
	out := &hir.Comprehension{Meta: meta(n), Kind: kind}
	for _, g := range gens {
		if g.IsAsync {
			b.unsupported(n, "async comprehension", "")
		}
		gen := &hir.Generator{Target: b.convertTarget(g.Target), Iter: b.convertExpr(g.Iter)}
		for _, f := range g.Ifs {
			gen.Filters = append(gen.Filters, b.convertCondition(f))
		}
		out.Generators = append(out.Generators, gen)
	}
	if key != nil {
		out.Key = b.convertExpr(key)
	}
	out.Element = b.convertExpr(elt)
	return out
}

// convertFString splits an f-string into literal and interpolated parts.
// Adjacent literals are merged.
func (b *Bridge) convertFString(e *ast.FString) hir.Expr {
	out := &hir.FString{Meta: meta(e)}
	for _, part := range e.Parts {
		switch p := part.(type) {
		case *ast.Constant:
			if n := len(out.Parts); n > 0 && out.Parts[n-1].Expr == nil {
				out.Parts[n-1].Literal += p.Value
				continue
			}
			out.Parts = append(out.Parts, hir.FPart{Literal: p.Value})
		case *ast.FormattedValue:
			out.Parts = append(out.Parts, hir.FPart{
				Expr:       b.convertExpr(p.Value),
				Conversion: p.Conversion,
				Spec:       p.FormatSpec,
			})
		}
	}
	return out
}

func none(n ast.Node) *hir.Literal {
	return &hir.Literal{Meta: meta(n), Kind: hir.LitNone, Value: "None"}
}
