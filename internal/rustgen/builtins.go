package rustgen

import (
	"strings"

	"github.com/paiml/depyler-sub010/internal/analysis"
	"github.com/paiml/depyler-sub010/internal/genctx"
	"github.com/paiml/depyler-sub010/internal/hir"
	"github.com/paiml/depyler-sub010/internal/registry"
	"github.com/paiml/depyler-sub010/internal/rustast"
)

func (g *generator) intType() rustast.Type {
	return rustast.Named(g.ctx.IntType)
}

func (g *generator) asInt(x rustast.Expr) rustast.Expr {
	return &rustast.Cast{X: x, Type: g.intType()}
}

func unimplemented(what string) rustast.Expr {
	return &rustast.Macro{Name: "unimplemented", Args: []rustast.Expr{rustast.Str(what)}}
}

// builtinCall lowers a call of a Python builtin function
func (g *generator) builtinCall(n *hir.Call) rustast.Expr {
	b, _ := registry.LookupBuiltin(n.Func)
	args := n.Args
	if !b.Accepts(len(args)) {
		line, col := n.Loc()
		g.ctx.Diags.Errorf(line, col, "%s() does not take %d arguments", n.Func, len(args))
		return unimplemented(n.Func)
	}
	var arg0 hir.Expr
	var t0 *hir.Type
	if len(args) > 0 {
		arg0 = args[0]
		t0 = g.typeOf(arg0)
	}

	switch n.Func {
	case "print":
		return g.printCall(n)

	case "len":
		x := g.generateExpr(arg0)
		if t0.Is(hir.KindString) {
			return g.asInt(rustast.Method(rustast.Method(x, "chars"), "count"))
		}
		return g.asInt(rustast.Method(x, "len"))

	case "range":
		return collectVec(g.rangeIter(args))

	case "enumerate", "zip", "reversed", "map", "filter":
		x, shape, isIter, ok := g.builtinIter(n, true)
		if !ok {
			break
		}
		return collectVec(g.owning(asIter(x, isIter), shape))

	case "iter":
		x, shape, isIter := g.iterate(arg0, true)
		return g.owning(asIter(x, isIter), shape)

	case "next":
		it := rustast.Method(g.lvalue(arg0), "next")
		if len(args) == 2 {
			return rustast.Method(it, "unwrap_or", g.convert(args[1], g.typeOf(n)))
		}
		return g.fallibleOption(it, "StopIteration", "next() on an exhausted iterator")

	case "sorted":
		return g.sortedExpr(n)

	case "min", "max":
		return g.minMax(n)

	case "sum":
		return g.sum(n)

	case "abs":
		return rustast.Method(g.typedLit(g.generateExpr(arg0), t0), "abs")

	case "round":
		if t0.Is(hir.KindInt) && len(args) == 1 {
			return g.toOwned(arg0, g.generateExpr(arg0))
		}
		x := g.operand(arg0, hir.TypeFloat)
		if len(args) == 1 {
			return g.asInt(rustast.Method(g.typedLit(x, hir.TypeFloat), "round"))
		}
		scale := "10f64.powi(" + rustast.RenderExpr(g.exprWant(args[1], hir.TypeInt)) + " as i32)"
		return g.raw("(" + rustast.RenderOperand(x) + " * " + scale + ").round() / " + scale)

	case "pow":
		p := g.binaryExpr(&hir.Binary{Meta: n.Meta, Op: hir.Pow, Left: args[0], Right: args[1]}, nil)
		if len(args) == 3 {
			return &rustast.Binary{Op: "%", L: p, R: g.generateExpr(args[2])}
		}
		return p

	case "any", "all":
		return g.anyAll(n.Func, arg0)

	case "chr":
		c := rustast.CallPath("char::from_u32", &rustast.Cast{X: g.generateExpr(arg0), Type: rustast.Named("u32")})
		return rustast.Method(rustast.Method(c, "expect", rustast.Str("chr() arg not in range")), "to_string")

	case "ord":
		x := g.generateExpr(arg0)
		if g.formOf(arg0) == formChar {
			return g.asInt(x)
		}
		c := rustast.Method(rustast.Method(x, "chars"), "next")
		return g.asInt(rustast.Method(c, "expect", rustast.Str("ord() expected a character")))

	case "int":
		return g.intCall(n)

	case "float":
		switch {
		case arg0 == nil:
			return &rustast.Lit{Text: "0.0"}
		case t0.Is(hir.KindString):
			parse := &rustast.MethodCall{Recv: rustast.Method(g.generateExpr(arg0), "trim"), Method: "parse", Turbofish: []rustast.Type{rustast.Named("f64")}}
			return g.fallible(parse, "ValueError", "could not convert string to float")
		case t0.Is(hir.KindFloat):
			return g.toOwned(arg0, g.generateExpr(arg0))
		}
		return g.toFloat(g.generateExpr(arg0))

	case "str":
		return g.strCall(arg0)

	case "bool":
		if arg0 == nil {
			return &rustast.Lit{Text: "false"}
		}
		return g.cond(arg0)

	case "bytes":
		switch {
		case arg0 == nil:
			return rustast.CallPath("Vec::new")
		case t0.Is(hir.KindString):
			return rustast.Method(rustast.Method(g.generateExpr(arg0), "as_bytes"), "to_vec")
		case t0.Is(hir.KindInt):
			return g.raw("vec![0u8; " + rustast.RenderOperand(g.generateExpr(arg0)) + " as usize]")
		case t0.Is(hir.KindBytes):
			return g.toOwned(arg0, g.generateExpr(arg0))
		}
		return &rustast.MethodCall{
			Recv:      rustast.Method(g.ownedIter(arg0), "map", g.raw("|_b| _b as u8")),
			Method:    "collect",
			Turbofish: []rustast.Type{rustast.Named("Vec", rustast.Named("u8"))},
		}

	case "input":
		return g.inputCall(arg0)

	case "hex", "oct", "bin":
		spec := map[string]string{"hex": "{:#x}", "oct": "{:#o}", "bin": "{:#b}"}[n.Func]
		if i, ok := analysis.ConstIndex(arg0); ok && i >= 0 {
			return &rustast.Macro{Name: "format", Args: []rustast.Expr{rustast.Str(spec), g.generateExpr(arg0)}}
		}
		// Rust formats negative integers as two's complement
		return g.raw("{ let _v: " + g.ctx.IntType + " = " + rustast.RenderExpr(g.exprWant(arg0, hir.TypeInt)) +
			"; format!(\"{}" + spec + "\", if _v < 0 { \"-\" } else { \"\" }, _v.unsigned_abs()) }")

	case "divmod":
		a, b := g.generateExpr(args[0]), g.generateExpr(args[1])
		if t0.Is(hir.KindInt) && g.typeOf(args[1]).Is(hir.KindInt) {
			g.ctx.Need(genctx.NeedFloorDiv)
			g.ctx.Need(genctx.NeedPyMod)
			return &rustast.Tuple{Elems: []rustast.Expr{rustast.CallPath("py_floor_div", a, b), rustast.CallPath("py_mod", a, b)}}
		}
		a, b = g.operand(args[0], hir.TypeFloat), g.operand(args[1], hir.TypeFloat)
		return &rustast.Tuple{Elems: []rustast.Expr{
			rustast.Method(&rustast.Binary{Op: "/", L: a, R: b}, "floor"),
			rustast.Method(a, "rem_euclid", b),
		}}

	case "hash":
		return g.raw("{ use std::hash::{Hash, Hasher}; let mut _h = std::collections::hash_map::DefaultHasher::new(); " +
			rustast.RenderOperand(g.toRef(arg0, g.generateExpr(arg0))) + ".hash(&mut _h); _h.finish() as " + g.ctx.IntType + " }")

	case "repr":
		if t0.Is(hir.KindString) {
			return &rustast.Macro{Name: "format", Args: []rustast.Expr{rustast.Str("'{}'"), g.generateExpr(arg0)}}
		}
		return &rustast.Macro{Name: "format", Args: []rustast.Expr{rustast.Str("{:?}"), g.generateExpr(arg0)}}

	case "open":
		return g.openCall(n)

	case "list", "tuple":
		if arg0 == nil {
			return rustast.CallPath("Vec::new")
		}
		return g.toVec(arg0)

	case "set", "frozenset":
		g.ctx.Need(genctx.NeedHashSet)
		if arg0 == nil {
			return rustast.CallPath("HashSet::new")
		}
		return &rustast.MethodCall{Recv: g.ownedIter(arg0), Method: "collect", Turbofish: []rustast.Type{rustast.Named("HashSet", &rustast.InferType{})}}

	case "dict":
		g.ctx.Need(genctx.NeedHashMap)
		if len(n.Kwargs) > 0 && arg0 == nil {
			return g.dictFromKwargs(n)
		}
		if arg0 == nil {
			return rustast.CallPath("HashMap::new")
		}
		if t0.Is(hir.KindDict) || isDictLike(t0) {
			return g.toOwned(arg0, g.generateExpr(arg0))
		}
		return &rustast.MethodCall{Recv: g.ownedIter(arg0), Method: "collect", Turbofish: []rustast.Type{rustast.Named("HashMap", &rustast.InferType{}, &rustast.InferType{})}}

	case "isinstance":
		// types are static after inference; the check always holds
		line, col := n.Loc()
		g.ctx.Diags.Warningf(line, col, "isinstance() is assumed to hold")
		return &rustast.Lit{Text: "true"}
	}
	line, col := n.Loc()
	g.ctx.Diags.Unsupported(line, col, "builtin", "%s() with these arguments", n.Func)
	return unimplemented(n.Func)
}

// fallibleOption unwraps an Option, raising excType when it is None
func (g *generator) fallibleOption(x rustast.Expr, excType, msg string) rustast.Expr {
	if g.fn != nil && g.fn.closure == 0 && (g.fn.tries > 0 || g.ctx.CurrentCanFail()) {
		g.ctx.AddErrorVariant(excType)
		okOr := rustast.Method(x, "ok_or_else", &rustast.Closure{
			Body: rustast.CallPath("DepylerError::"+excType, rustast.Method(rustast.Str(msg), "to_string")),
		})
		return g.propagate(okOr)
	}
	return rustast.Method(x, "expect", rustast.Str(msg))
}

// printCall lowers print(...) to println!, print! or their stderr forms
func (g *generator) printCall(n *hir.Call) rustast.Expr {
	sep, end := " ", "\n"
	stderr := false
	for _, kw := range n.Kwargs {
		switch kw.Name {
		case "sep", "end":
			lit, ok := kw.Value.(*hir.Literal)
			if !ok || lit.Kind != hir.LitString {
				if !isNone(kw.Value) {
					line, col := kw.Value.Loc()
					g.ctx.Diags.Unsupported(line, col, "print", "non-literal %s=", kw.Name)
				}
				continue
			}
			if kw.Name == "sep" {
				sep = lit.Value
			} else {
				end = lit.Value
			}
		case "file":
			stderr = g.isStderr(kw.Value)
		case "flush":
		default:
			line, col := kw.Value.Loc()
			g.ctx.Diags.Warningf(line, col, "print keyword %s is ignored", kw.Name)
		}
	}
	var tmpl strings.Builder
	var args []rustast.Expr
	for i, a := range n.Args {
		if i > 0 {
			tmpl.WriteString(rustast.EscapeFormat(sep))
		}
		if lit, ok := a.(*hir.Literal); ok && (lit.Kind == hir.LitString || lit.Kind == hir.LitNone) {
			text := lit.Value
			if lit.Kind == hir.LitNone {
				text = "None"
			}
			tmpl.WriteString(rustast.EscapeFormat(text))
			continue
		}
		spec, x := g.displayArg(a)
		tmpl.WriteString(spec)
		args = append(args, x)
	}
	name := "print"
	if stderr {
		name = "eprint"
	}
	text := tmpl.String()
	switch {
	case end == "\n":
		name += "ln"
	default:
		text += rustast.EscapeFormat(end)
	}
	if text == "" && len(args) == 0 {
		return &rustast.Macro{Name: name}
	}
	return &rustast.Macro{Name: name, Args: append([]rustast.Expr{rustast.Str(text)}, args...)}
}

func (g *generator) isStderr(e hir.Expr) bool {
	a, ok := e.(*hir.Attribute)
	if !ok || a.Name != "stderr" {
		return false
	}
	v, ok := a.Recv.(*hir.Var)
	return ok && (v.Name == "sys" || g.ctx.ImportedModules[v.Name] == "sys")
}

// displayArg returns the placeholder and argument printing e the way
// Python's str() would
func (g *generator) displayArg(e hir.Expr) (string, rustast.Expr) {
	t := g.typeOf(e)
	x := g.generateExpr(e)
	switch {
	case t.Is(hir.KindString), t.Is(hir.KindInt):
		return "{}", x
	case t.Is(hir.KindBool):
		return "{}", &rustast.If{
			Cond: x,
			Then: &rustast.Block{Tail: rustast.Str("True")},
			Else: &rustast.BlockExpr{Block: &rustast.Block{Tail: rustast.Str("False")}},
		}
	case t.Is(hir.KindCustom):
		if t.IsDynamic() || g.isExceptionName(t.Name) {
			return "{}", x
		}
		if cls, ok := g.ctx.Classes[t.Name]; ok && (cls.Method("__str__") != nil || cls.Method("__repr__") != nil) {
			return "{}", x
		}
	}
	return "{:?}", x
}

// strCall lowers str(x)
func (g *generator) strCall(e hir.Expr) rustast.Expr {
	if e == nil {
		return rustast.CallPath("String::new")
	}
	t := g.typeOf(e)
	switch {
	case t.Is(hir.KindString):
		return g.toOwned(e, g.generateExpr(e))
	case t.Is(hir.KindInt):
		return rustast.Method(g.typedLit(g.generateExpr(e), t), "to_string")
	}
	spec, x := g.displayArg(e)
	return &rustast.Macro{Name: "format", Args: []rustast.Expr{rustast.Str(spec), x}}
}

// intCall lowers int(x) and int(s, base)
func (g *generator) intCall(n *hir.Call) rustast.Expr {
	if len(n.Args) == 0 {
		return &rustast.Lit{Text: "0"}
	}
	e := n.Args[0]
	t := g.typeOf(e)
	x := g.generateExpr(e)
	if len(n.Args) == 2 {
		parse := rustast.CallPath(g.ctx.IntType+"::from_str_radix", rustast.Method(g.toStr(e, x), "trim"), &rustast.Cast{X: g.generateExpr(n.Args[1]), Type: rustast.Named("u32")})
		return g.fallible(parse, "ValueError", "invalid literal for int()")
	}
	switch {
	case t.Is(hir.KindString):
		if g.formOf(e) == formChar {
			c := rustast.Method(x, "to_digit", &rustast.Lit{Text: "10"})
			return g.asInt(g.fallibleOption(c, "ValueError", "invalid literal for int()"))
		}
		parse := &rustast.MethodCall{Recv: rustast.Method(x, "trim"), Method: "parse", Turbofish: []rustast.Type{g.intType()}}
		return g.fallible(parse, "ValueError", "invalid literal for int()")
	case t.Is(hir.KindInt):
		return g.toOwned(e, x)
	case t.Is(hir.KindFloat):
		// int() truncates toward zero like an as cast
		return g.asInt(x)
	}
	return g.asInt(x)
}

// inputCall lowers input([prompt]) to a stdin line read
func (g *generator) inputCall(prompt hir.Expr) rustast.Expr {
	b := &rustast.Block{}
	if prompt != nil {
		spec, x := g.displayArg(prompt)
		b.AddExpr(&rustast.Macro{Name: "print", Args: []rustast.Expr{rustast.Str(spec), x}})
		b.AddExpr(g.raw("std::io::Write::flush(&mut std::io::stdout()).expect(\"failed to flush stdout\")"))
	}
	b.Add(&rustast.Let{Mut: true, Pattern: "_line", Value: rustast.CallPath("String::new")})
	b.AddExpr(g.raw("std::io::stdin().read_line(&mut _line).expect(\"failed to read stdin\")"))
	b.Tail = g.raw("_line.trim_end_matches(['\\r', '\\n']).to_string()")
	return &rustast.BlockExpr{Block: b}
}

// openCall lowers open(path[, mode])
func (g *generator) openCall(n *hir.Call) rustast.Expr {
	path := g.generateExpr(n.Args[0])
	mode := "r"
	if len(n.Args) > 1 {
		if lit, ok := n.Args[1].(*hir.Literal); ok && lit.Kind == hir.LitString {
			mode = lit.Value
		}
	}
	for _, kw := range n.Kwargs {
		if lit, ok := kw.Value.(*hir.Literal); ok && kw.Name == "mode" && lit.Kind == hir.LitString {
			mode = lit.Value
		}
	}
	var call rustast.Expr
	switch {
	case strings.ContainsAny(mode, "wx"):
		call = rustast.CallPath("std::fs::File::create", path)
	case strings.Contains(mode, "a"):
		call = g.raw("std::fs::OpenOptions::new().append(true).create(true).open(" + rustast.RenderExpr(path) + ")")
	default:
		call = rustast.CallPath("std::fs::File::open", path)
	}
	return g.fallible(call, "IOError", "failed to open file")
}

// dictFromKwargs lowers dict(a=1, b=2)
func (g *generator) dictFromKwargs(n *hir.Call) rustast.Expr {
	t := g.typeOf(n)
	var pairs []rustast.Expr
	for _, kw := range n.Kwargs {
		pairs = append(pairs, &rustast.Tuple{Elems: []rustast.Expr{
			rustast.Method(rustast.Str(kw.Name), "to_string"),
			g.convert(kw.Value, t.Value()),
		}})
	}
	return &rustast.MethodCall{
		Recv:      rustast.Method(&rustast.Macro{Name: "vec", Bracket: true, Args: pairs}, "into_iter"),
		Method:    "collect",
		Turbofish: []rustast.Type{rustast.Named("HashMap", &rustast.InferType{}, &rustast.InferType{})},
	}
}

// anyAll lowers any(...) and all(...)
func (g *generator) anyAll(name string, arg hir.Expr) rustast.Expr {
	if c, ok := arg.(*hir.Comprehension); ok && c.Kind == hir.CompGenerator {
		it := g.compIter(c, g.cond)
		return rustast.Method(it, name, &rustast.Closure{Params: []string{"_b"}, Body: rustast.Name("_b")})
	}
	x, shape, isIter := g.iterate(arg, true)
	it := g.owning(asIter(x, isIter), shape)
	g.ctx.PushScope()
	defer g.ctx.PopScope()
	g.ctx.Scope().Bind(&genctx.Symbol{Name: "_x", Type: shape.typ, Kind: genctx.SymLocal, Assigned: true})
	return rustast.Method(it, name, &rustast.Closure{Params: []string{"_x"}, Body: g.cond(&hir.Var{Name: "_x"})})
}

// minMax lowers min/max over an iterable or over several arguments
func (g *generator) minMax(n *hir.Call) rustast.Expr {
	name := n.Func
	t := g.typeOf(n)
	var key, def hir.Expr
	for _, kw := range n.Kwargs {
		switch kw.Name {
		case "key":
			key = kw.Value
		case "default":
			def = kw.Value
		}
	}
	if len(n.Args) > 1 && key == nil {
		var x rustast.Expr
		for _, a := range n.Args {
			v := g.typedLit(g.convert(a, t), t)
			switch {
			case x == nil:
				x = v
			case t.IsCopy():
				x = rustast.Method(x, name, v)
			default:
				x = rustast.CallPath("std::cmp::"+name, x, v)
			}
		}
		return x
	}

	var it rustast.Expr
	var elem *hir.Type
	if len(n.Args) > 1 {
		elems := make([]rustast.Expr, len(n.Args))
		for i, a := range n.Args {
			elems[i] = g.convert(a, t)
		}
		it = rustast.Method(&rustast.Macro{Name: "vec", Bracket: true, Args: elems}, "into_iter")
		elem = t
	} else if c, ok := n.Args[0].(*hir.Comprehension); ok && c.Kind == hir.CompGenerator {
		it = g.comprehension(c, false)
		elem = registry.IterElem(g.typeOf(c))
	} else {
		x, shape, isIter := g.iterate(n.Args[0], true)
		it = g.owning(asIter(x, isIter), shape)
		elem = shape.typ
	}

	var res rustast.Expr
	switch {
	case key != nil:
		keyFn, keyT := g.keyClosure(key, elem)
		if keyT.Is(hir.KindFloat) {
			k := rustast.RenderOperand(keyFn)
			res = rustast.Method(it, name+"_by", g.raw("|a, b| ("+k+")(a).total_cmp(&("+k+")(b))"))
		} else {
			res = rustast.Method(it, name+"_by_key", keyFn)
		}
	case elem.Is(hir.KindFloat):
		res = rustast.Method(it, name+"_by", g.raw("|a, b| a.total_cmp(b)"))
	default:
		res = rustast.Method(it, name)
	}
	if def != nil {
		return rustast.Method(res, "unwrap_or", g.convert(def, t))
	}
	return g.fallibleOption(res, "ValueError", name+"() arg is an empty sequence")
}

// sum lowers sum(iterable[, start])
func (g *generator) sum(n *hir.Call) rustast.Expr {
	t := g.typeOf(n)
	var it rustast.Expr
	if c, ok := n.Args[0].(*hir.Comprehension); ok && c.Kind == hir.CompGenerator {
		it = g.compIter(c, func(e hir.Expr) rustast.Expr { return g.convert(e, t) })
	} else {
		x, shape, isIter := g.iterate(n.Args[0], true)
		it = g.owning(asIter(x, isIter), shape)
	}
	total := &rustast.MethodCall{Recv: it, Method: "sum", Turbofish: []rustast.Type{g.mapType(t)}}
	if len(n.Args) == 2 {
		return &rustast.Binary{Op: "+", L: total, R: g.convert(n.Args[1], t)}
	}
	return total
}

// sortedExpr lowers sorted(iterable, key=..., reverse=...) to a sorted copy
func (g *generator) sortedExpr(n *hir.Call) rustast.Expr {
	b := &rustast.Block{}
	b.Add(&rustast.Let{Mut: true, Pattern: "_s", Value: g.toVec(n.Args[0])})
	g.sortInto(b, rustast.Name("_s"), registry.IterElem(g.typeOf(n)), n.Kwargs)
	b.Tail = rustast.Name("_s")
	return &rustast.BlockExpr{Block: b}
}

// builtinValue lowers a builtin used as a value, as in map(str, xs)
func (g *generator) builtinValue(name string) rustast.Expr {
	param := []string{"_x"}
	x := rustast.Name("_x")
	switch name {
	case "str":
		return &rustast.Closure{Params: param, Body: rustast.Method(x, "to_string")}
	case "int", "float":
		ty := g.ctx.IntType
		if name == "float" {
			ty = "f64"
		}
		parse := &rustast.MethodCall{
			Recv:      rustast.Method(rustast.Method(x, "to_string"), "trim"),
			Method:    "parse",
			Turbofish: []rustast.Type{rustast.Named(ty)},
		}
		body := rustast.Method(parse, "expect", rustast.Str("invalid literal for "+name+"()"))
		return &rustast.Closure{Params: param, Body: body}
	case "len":
		return &rustast.Closure{Params: param, Body: g.asInt(rustast.Method(x, "len"))}
	case "abs":
		return &rustast.Closure{Params: param, Body: rustast.Method(x, "abs")}
	case "bool":
		g.ctx.Need(genctx.NeedTruthy)
		return &rustast.Closure{Params: param, Body: rustast.CallPath("is_truthy", &rustast.Borrow{X: x})}
	}
	g.ctx.Diags.Unsupported(0, 0, "builtin", "%s used as a value", name)
	return rustast.Name(g.ident(name))
}

// typeConstructorCall lowers the class-level builtins dict.fromkeys and
// int.from_bytes
func (g *generator) typeConstructorCall(name string, n *hir.MethodCall) rustast.Expr {
	b, _ := registry.LookupBuiltin(name)
	if !b.Accepts(len(n.Args)) {
		line, col := n.Loc()
		g.ctx.Diags.Errorf(line, col, "%s() does not take %d arguments", name, len(n.Args))
		return unimplemented(name)
	}
	switch name {
	case "dict.fromkeys":
		g.ctx.Need(genctx.NeedHashMap)
		var value rustast.Expr
		if len(n.Args) == 2 {
			value = rustast.Method(g.convert(n.Args[1], g.typeOf(n).Value()), "clone")
		} else {
			g.ctx.Need(genctx.NeedDepylerValue)
			value = rustast.Name("DepylerValue::None")
		}
		pair := &rustast.Closure{Params: []string{"_k"}, Body: &rustast.Tuple{Elems: []rustast.Expr{rustast.Name("_k"), value}}}
		return &rustast.MethodCall{
			Recv:      rustast.Method(g.ownedIter(n.Args[0]), "map", pair),
			Method:    "collect",
			Turbofish: []rustast.Type{rustast.Named("HashMap", &rustast.InferType{}, &rustast.InferType{})},
		}
	case "int.from_bytes":
		order := "big"
		if lit, ok := n.Args[1].(*hir.Literal); ok && lit.Kind == hir.LitString {
			order = lit.Value
		}
		it := rustast.Method(g.generateExpr(n.Args[0]), "iter")
		if order == "little" {
			it = rustast.Method(it, "rev")
		}
		return rustast.Method(it, "fold", &rustast.Lit{Text: "0 as " + g.ctx.IntType},
			g.raw("|_n, &_b| (_n << 8) | _b as "+g.ctx.IntType))
	}
	line, col := n.Loc()
	g.ctx.Diags.Unsupported(line, col, "builtin", "%s", name)
	return unimplemented(name)
}
