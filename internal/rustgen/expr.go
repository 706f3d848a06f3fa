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

// generateExpr lowers e in its natural Rust form
func (g *generator) generateExpr(e hir.Expr) rustast.Expr {
	return g.exprWant(e, nil)
}

// exprWant lowers e knowing the type the surrounding code expects, which
// decides integer division and the element types of empty literals
func (g *generator) exprWant(e hir.Expr, want *hir.Type) rustast.Expr {
	switch n := e.(type) {
	case *hir.Literal:
		if n.Kind == hir.LitNone {
			return rustast.Name("None")
		}
		return g.literal(n)
	case *hir.Var:
		return g.varExpr(n)
	case *hir.Binary:
		return g.binaryExpr(n, want)
	case *hir.Unary:
		return g.unaryExpr(n, want)
	case *hir.Compare:
		return g.compareExpr(n)
	case *hir.BoolOp:
		return g.boolOpExpr(n)
	case *hir.Call:
		return g.callExpr(n)
	case *hir.MethodCall:
		return g.methodCallExpr(n)
	case *hir.Attribute:
		return g.attributeExpr(n)
	case *hir.Index:
		return g.indexExpr(n)
	case *hir.Slice:
		return g.sliceExpr(n)
	case *hir.ListLit:
		return g.listLit(n, want)
	case *hir.SetLit:
		return g.setLit(n, want)
	case *hir.TupleLit:
		return g.tupleLit(n, want)
	case *hir.DictLit:
		return g.dictLit(n, want)
	case *hir.Comprehension:
		return g.comprehension(n, true)
	case *hir.Lambda:
		return g.lambda(n, false)
	case *hir.FString:
		return g.fstring(n)
	case *hir.IfExpr:
		return g.ifExprValue(n, want)
	case *hir.Await:
		return &rustast.Await{X: g.generateExpr(n.Value)}
	case *hir.Yield:
		line, col := n.Loc()
		g.ctx.Diags.Unsupported(line, col, "yield", "yield is only supported as a statement of a module-level generator function")
		return &rustast.Macro{Name: "unimplemented", Args: []rustast.Expr{rustast.Str("yield")}}
	case *hir.Starred:
		return g.exprWant(n.Value, want)
	case *hir.NamedExpr:
		if g.ctx.Lookup(n.Target) != nil {
			return g.varExpr(&hir.Var{Name: n.Target})
		}
		return g.exprWant(n.Value, want)
	}
	line, col := e.Loc()
	g.ctx.Diags.Unsupported(line, col, "expression", "expression has no lowering")
	return &rustast.Macro{Name: "unimplemented"}
}

func (g *generator) literal(l *hir.Literal) rustast.Expr {
	switch l.Kind {
	case hir.LitInt:
		return &rustast.Lit{Text: intLiteral(l.Value)}
	case hir.LitFloat:
		return &rustast.Lit{Text: floatLiteral(l.Value)}
	case hir.LitString:
		return rustast.Str(l.Value)
	case hir.LitBytes:
		return bytesLiteral(l.Value)
	case hir.LitBool:
		if l.Value == "True" {
			return &rustast.Lit{Text: "true"}
		}
		return &rustast.Lit{Text: "false"}
	}
	return rustast.Name("None")
}

func intLiteral(s string) string {
	if len(s) > 2 && s[0] == '0' {
		switch s[1] {
		case 'X', 'O', 'B':
			return "0" + strings.ToLower(s[1:2]) + s[2:]
		}
	}
	return s
}

func floatLiteral(s string) string {
	s = strings.ToLower(s)
	if strings.HasPrefix(s, ".") {
		s = "0" + s
	}
	if i := strings.IndexByte(s, 'e'); i >= 0 {
		mant := s[:i]
		if !strings.Contains(mant, ".") {
			mant += ".0"
		} else if strings.HasSuffix(mant, ".") {
			mant += "0"
		}
		return mant + s[i:]
	}
	if strings.HasSuffix(s, ".") {
		return s + "0"
	}
	if !strings.Contains(s, ".") {
		return s + ".0"
	}
	return s
}

func bytesLiteral(s string) rustast.Expr {
	ascii := true
	for i := 0; i < len(s); i++ {
		if s[i] >= 0x7f || (s[i] < 0x20 && s[i] != '\n' && s[i] != '\t' && s[i] != '\r') {
			ascii = false
			break
		}
	}
	if ascii {
		return rustast.Method(&rustast.Lit{Text: "b" + rustast.Quote(s)}, "to_vec")
	}
	elems := make([]rustast.Expr, len(s))
	for i := 0; i < len(s); i++ {
		elems[i] = &rustast.Lit{Text: strconv.Itoa(int(s[i])) + "u8"}
	}
	return &rustast.Macro{Name: "vec", Bracket: true, Args: elems}
}

func (g *generator) varExpr(v *hir.Var) rustast.Expr {
	name := v.Name
	if g.fn != nil {
		if name == g.fn.self && name != "" {
			return rustast.Name("self")
		}
		if name == g.fn.cls && name != "" {
			return rustast.Name("Self")
		}
	}
	if sym := g.ctx.Lookup(name); sym != nil {
		if sym.Kind == genctx.SymField {
			return &rustast.Field{Recv: rustast.Name("self"), Name: g.ident(name)}
		}
		id := rustast.Name(g.localIdent(name))
		if sym.Borrow == genctx.Shared && sym.Type.IsCopy() && !g.ctx.CharIterVars.Contains(name) {
			return &rustast.Deref{X: id}
		}
		return id
	}
	if t, ok := g.ctx.Constants[name]; ok {
		id := rustast.Name(g.ident(name))
		if g.statics[name] && t.IsCopy() {
			return &rustast.Deref{X: id}
		}
		return id
	}
	if g.ctx.Sig(name) != nil {
		return rustast.Name(g.fnName(name))
	}
	if g.ctx.IsClass(name) {
		return rustast.Name(name)
	}
	if imp, ok := g.ctx.ImportedItems[name]; ok && imp.Known {
		g.ctx.UseCrate(imp.Entry.Crate)
		if imp.Entry.Kind == registry.KindConst && len(imp.Entry.Forms) > 0 {
			return g.raw(registry.Expand(imp.Entry.Forms[0], "", nil, g.ctx.IntType))
		}
		if imp.Entry.Rust != "" {
			return rustast.Name(imp.Entry.Rust)
		}
	}
	if registry.IsBuiltin(name) {
		return g.builtinValue(name)
	}
	line, col := v.Loc()
	g.ctx.Diags.Unresolved(line, col, name)
	return rustast.Name(g.ident(name))
}

// raw wraps template output and records the helpers and crates it names
func (g *generator) raw(text string) rustast.Expr {
	for marker, flag := range map[string]genctx.Flag{
		"HashMap":  genctx.NeedHashMap,
		"HashSet":  genctx.NeedHashSet,
		"VecDeque": genctx.NeedVecDeque,
	} {
		if strings.Contains(text, marker) && !strings.Contains(text, "std::collections::"+marker) {
			g.ctx.Need(flag)
		}
	}
	for _, crate := range []string{"serde_json", "regex", "rand", "chrono", "sha2", "itertools"} {
		if strings.Contains(text, crate+"::") {
			g.ctx.UseCrate(crate)
			if crate == "serde_json" {
				g.ctx.Need(genctx.NeedSerdeJSON)
			}
		}
	}
	if strings.Contains(text, "py_floor_div(") {
		g.ctx.Need(genctx.NeedFloorDiv)
	}
	return &rustast.Raw{Text: text}
}

func (g *generator) isRecursiveAttr(n *hir.Attribute) bool {
	t := g.typeOf(n.Recv)
	if t.Is(hir.KindOptional) {
		t = t.Elem()
	}
	return t.Is(hir.KindCustom) && g.ctx.IsRecursiveField(t.Name, n.Name)
}

func (g *generator) attributeExpr(n *hir.Attribute) rustast.Expr {
	if dotted := analysis.ResolveDotted(g.ctx, n); dotted != "" {
		if e, ok := registry.Lookup(dotted); ok {
			g.ctx.UseCrate(e.Crate)
			if e.Kind == registry.KindConst && len(e.Forms) > 0 {
				return g.raw(registry.Expand(e.Forms[0], "", nil, g.ctx.IntType))
			}
			if e.Rust != "" {
				return rustast.Name(e.Rust)
			}
		}
		line, col := n.Loc()
		g.ctx.Diags.Unresolved(line, col, dotted)
		return rustast.Name(strings.ReplaceAll(dotted, ".", "::"))
	}
	if x, ok := g.argsAttribute(n); ok {
		return x
	}
	if v, ok := n.Recv.(*hir.Var); ok && g.ctx.Lookup(v.Name) == nil && g.ctx.IsClass(v.Name) {
		return rustast.Name(v.Name + "::" + g.ident(n.Name))
	}
	recvT := g.typeOf(n.Recv)
	if recvT.Is(hir.KindOptional) {
		recvT = recvT.Elem()
	}
	recv := g.generateExpr(n.Recv)
	if recvT.Is(hir.KindCustom) {
		if cls, ok := g.ctx.Classes[recvT.Name]; ok {
			for _, cv := range cls.ClassVars {
				if cv.Name == n.Name {
					return rustast.Name(cls.Name + "::" + g.ident(n.Name))
				}
			}
			if m := cls.Method(n.Name); m != nil && m.IsProperty {
				call := rustast.Expr(rustast.Method(recv, g.ident(n.Name)))
				if sig := g.ctx.Sig(cls.Name + "." + m.Name); sig != nil && sig.CanFail {
					call = g.propagate(call)
				}
				return call
			}
			if g.ctx.IsRecursiveField(cls.Name, n.Name) {
				return rustast.Method(rustast.Method(&rustast.Field{Recv: recv, Name: g.ident(n.Name)}, "as_deref"), "cloned")
			}
		}
	}
	return &rustast.Field{Recv: recv, Name: g.ident(n.Name)}
}

// usizeIndex lowers a Python index into recv, counting negative constants
// from the end
func (g *generator) usizeIndex(key hir.Expr, recv rustast.Expr, length string) rustast.Expr {
	if i, ok := analysis.ConstIndex(key); ok {
		if i >= 0 {
			return &rustast.Lit{Text: strconv.Itoa(i)}
		}
		return &rustast.Binary{Op: "-", L: rustast.Method(recv, length), R: &rustast.Lit{Text: strconv.Itoa(-i)}}
	}
	return normIndex(g.generateExpr(key), rustast.Method(recv, length), false)
}

// normIndex resolves a runtime index against a length the way Python does,
// counting negative values from the end. Slice bounds clamp at zero.
func normIndex(key, length rustast.Expr, clamp bool) rustast.Expr {
	from := "(" + rustast.RenderExpr(length) + " as isize + __idx)"
	if clamp {
		from += ".max(0)"
	}
	return &rustast.Raw{Text: "{ let __idx = (" + rustast.RenderExpr(key) + ") as isize; if __idx < 0 { " +
		from + " as usize } else { __idx as usize } }"}
}

func (g *generator) indexExpr(n *hir.Index) rustast.Expr {
	recvT := g.typeOf(n.Recv)
	if recvT.Is(hir.KindOptional) {
		recvT = recvT.Elem()
	}
	recv := g.generateExpr(n.Recv)
	switch recvT.Kind {
	case hir.KindDict:
		get := rustast.Method(recv, "get", g.keyRef(n.Key))
		return rustast.Method(rustast.Method(get, "cloned"), "unwrap_or_default")
	case hir.KindTuple:
		if i, ok := analysis.ConstIndex(n.Key); ok {
			if i < 0 {
				i += len(recvT.Elems)
			}
			return &rustast.Field{Recv: recv, Name: strconv.Itoa(i)}
		}
	case hir.KindString:
		var chars rustast.Expr = rustast.Method(recv, "chars")
		var idx rustast.Expr
		if i, ok := analysis.ConstIndex(n.Key); ok && i < 0 {
			chars = rustast.Method(chars, "rev")
			idx = &rustast.Lit{Text: strconv.Itoa(-i - 1)}
		} else {
			idx = g.usizeIndex(n.Key, rustast.Method(recv, "chars"), "count")
		}
		nth := rustast.Method(chars, "nth", idx)
		return rustast.Method(rustast.Method(nth, "map", &rustast.Closure{Params: []string{"c"}, Body: rustast.Method(rustast.Name("c"), "to_string")}), "unwrap_or_default")
	case hir.KindBytes:
		return &rustast.Cast{X: &rustast.Index{Recv: recv, Index: g.usizeIndex(n.Key, recv, "len")}, Type: rustast.Named(g.ctx.IntType)}
	}
	return &rustast.Index{Recv: recv, Index: g.usizeIndex(n.Key, recv, "len")}
}

// keyRef lowers a dict or set lookup key as a borrowed value
func (g *generator) keyRef(key hir.Expr) rustast.Expr {
	return g.toRef(key, g.generateExpr(key))
}

// lvalue lowers the target of an element or attribute assignment. Dict
// elements use entry-style access so nested containers are updated in place.
func (g *generator) lvalue(e hir.Expr) rustast.Expr {
	switch n := e.(type) {
	case *hir.Index:
		recvT := g.typeOf(n.Recv)
		recv := g.lvalue(n.Recv)
		if recvT.Is(hir.KindDict) {
			return rustast.Method(rustast.Method(recv, "entry", g.convert(n.Key, recvT.Key())), "or_default")
		}
		return &rustast.Index{Recv: recv, Index: g.usizeIndex(n.Key, recv, "len")}
	case *hir.Attribute:
		if analysis.ResolveDotted(g.ctx, n) != "" {
			return g.attributeExpr(n)
		}
		return &rustast.Field{Recv: g.lvalue(n.Recv), Name: g.ident(n.Name)}
	case *hir.Var:
		x := g.varExpr(n)
		if d, ok := x.(*rustast.Deref); ok {
			return d.X
		}
		return x
	}
	return g.generateExpr(e)
}

func (g *generator) sliceExpr(n *hir.Slice) rustast.Expr {
	recvT := g.typeOf(n.Recv)
	recv := g.generateExpr(n.Recv)
	step, hasStep := 1, n.Step != nil
	if hasStep {
		if s, ok := analysis.ConstIndex(n.Step); ok {
			step = s
		} else {
			line, col := n.Loc()
			g.ctx.Diags.Unsupported(line, col, "slice", "slice step must be a constant")
		}
	}
	if recvT.Is(hir.KindString) {
		return g.stringSlice(n, recv, step)
	}
	length := func() rustast.Expr { return rustast.Method(recv, "len") }
	bound := func(e hir.Expr) rustast.Expr {
		if i, ok := analysis.ConstIndex(e); ok && i < 0 {
			return rustast.Method(length(), "saturating_sub", &rustast.Lit{Text: strconv.Itoa(-i)})
		}
		if i, ok := analysis.ConstIndex(e); ok {
			return &rustast.Lit{Text: strconv.Itoa(i)}
		}
		return normIndex(g.generateExpr(e), length(), true)
	}
	rng := &rustast.Range{}
	var lo rustast.Expr
	if n.Lo != nil {
		lo = rustast.Method(bound(n.Lo), "min", length())
		rng.Lo = lo
		if lit, ok := bound(n.Lo).(*rustast.Lit); ok && lit.Text == "0" {
			rng.Lo = nil
		}
	}
	if n.Hi != nil {
		rng.Hi = rustast.Method(length(), "min", bound(n.Hi))
		if rng.Lo != nil {
			// an upper bound below the lower one yields an empty slice
			rng.Hi = rustast.Method(rng.Hi, "max", lo)
		}
	}
	var sub rustast.Expr = recv
	if rng.Lo != nil || rng.Hi != nil {
		sub = &rustast.Index{Recv: recv, Index: rng}
	}
	switch {
	case step == 1:
		if rng.Lo == nil && rng.Hi == nil {
			return rustast.Method(recv, "clone")
		}
		return rustast.Method(sub, "to_vec")
	case step == -1:
		it := rustast.Method(rustast.Method(rustast.Method(sub, "iter"), "rev"), "cloned")
		return collectVec(it)
	case step > 1:
		it := rustast.Method(rustast.Method(rustast.Method(sub, "iter"), "step_by", &rustast.Lit{Text: strconv.Itoa(step)}), "cloned")
		return collectVec(it)
	}
	it := rustast.Method(rustast.Method(rustast.Method(rustast.Method(sub, "iter"), "rev"), "step_by", &rustast.Lit{Text: strconv.Itoa(-step)}), "cloned")
	return collectVec(it)
}

func (g *generator) stringSlice(n *hir.Slice, recv rustast.Expr, step int) rustast.Expr {
	count := func() rustast.Expr { return rustast.Method(rustast.Method(recv, "chars"), "count") }
	bound := func(e hir.Expr) rustast.Expr {
		if i, ok := analysis.ConstIndex(e); ok {
			if i < 0 {
				return rustast.Method(count(), "saturating_sub", &rustast.Lit{Text: strconv.Itoa(-i)})
			}
			return &rustast.Lit{Text: strconv.Itoa(i)}
		}
		return normIndex(g.generateExpr(e), count(), true)
	}
	var it rustast.Expr = rustast.Method(recv, "chars")
	if step < 0 {
		it = rustast.Method(it, "rev")
	}
	if n.Lo != nil {
		it = rustast.Method(it, "skip", bound(n.Lo))
	}
	if n.Hi != nil {
		take := bound(n.Hi)
		if n.Lo != nil {
			take = rustast.Method(take, "saturating_sub", bound(n.Lo))
		}
		it = rustast.Method(it, "take", take)
	}
	if s := step; s > 1 || s < -1 {
		if s < 0 {
			s = -s
		}
		it = rustast.Method(it, "step_by", &rustast.Lit{Text: strconv.Itoa(s)})
	}
	return &rustast.MethodCall{Recv: it, Method: "collect", Turbofish: []rustast.Type{rustast.Named("String")}}
}

func collectVec(it rustast.Expr) rustast.Expr {
	return &rustast.MethodCall{Recv: it, Method: "collect", Turbofish: []rustast.Type{rustast.Named("Vec", &rustast.InferType{})}}
}

// elemWant picks the element type a literal is built with. typed is false
// when the elements are wrapped in DepylerValue. The expected element type
// wins for a homogeneous literal; a heterogeneous one is checked first, so
// a type inferred from the literal itself cannot hide the mismatch.
func (g *generator) elemWant(elems []hir.Expr, want *hir.Type, at hir.Node) (elem *hir.Type, typed bool) {
	var expected *hir.Type
	if want != nil && len(want.Elems) > 0 && want.Elems[0].IsFullyKnown() {
		expected = want.Elems[0]
	}
	if expected.IsDynamic() {
		return expected, false
	}
	elem, homogeneous := analysis.ElemType(g.ctx, elems)
	if homogeneous {
		if expected != nil {
			return expected, true
		}
		return elem, true
	}
	if expected != nil && g.fits(expected, elems) {
		return expected, true
	}
	if g.ctx.Mode == genctx.Hybrid {
		return hir.TypeDynamic, false
	}
	line, col := at.Loc()
	first := g.typeOf(elems[0])
	for _, e := range elems[1:] {
		if t := g.typeOf(e); analysis.Join(first, t) == nil {
			g.ctx.Diags.Mismatch(line, col, first.String(), t.String())
			break
		}
	}
	if expected != nil {
		return expected, true
	}
	return first, true
}

// fits reports whether every element joins with t
func (g *generator) fits(t *hir.Type, elems []hir.Expr) bool {
	for _, e := range elems {
		if _, ok := e.(*hir.Starred); ok {
			continue
		}
		if analysis.Join(t, g.typeOf(e)) == nil {
			return false
		}
	}
	return true
}

// dynamic wraps a value of a heterogeneous literal in the DepylerValue union
func (g *generator) dynamic(e hir.Expr) rustast.Expr {
	g.ctx.Need(genctx.NeedDepylerValue)
	if lit, ok := e.(*hir.Literal); ok && lit.Kind == hir.LitNone {
		return rustast.Name("DepylerValue::None")
	}
	return rustast.CallPath("DepylerValue::from", g.toOwned(e, g.generateExpr(e)))
}

func (g *generator) elements(elems []hir.Expr, elem *hir.Type, typed bool) []rustast.Expr {
	out := make([]rustast.Expr, len(elems))
	for i, e := range elems {
		if typed {
			out[i] = g.convert(e, elem)
		} else {
			out[i] = g.dynamic(e)
		}
	}
	return out
}

func hasStarred(elems []hir.Expr) bool {
	for _, e := range elems {
		if _, ok := e.(*hir.Starred); ok {
			return true
		}
	}
	return false
}

func (g *generator) listLit(n *hir.ListLit, want *hir.Type) rustast.Expr {
	if len(n.Elems) == 0 {
		return rustast.CallPath("Vec::new")
	}
	elem, typed := g.elemWant(n.Elems, want, n)
	if hasStarred(n.Elems) {
		// [*a, b] concatenates slices
		parts := make([]rustast.Expr, len(n.Elems))
		for i, e := range n.Elems {
			if s, ok := e.(*hir.Starred); ok {
				parts[i] = rustast.Method(g.generateExpr(s.Value), "as_slice")
				continue
			}
			parts[i] = &rustast.Raw{Text: "&[" + rustast.RenderExpr(g.convert(e, elem)) + "][..]"}
		}
		return rustast.Method(&rustast.Raw{Text: "[" + renderList(parts) + "]"}, "concat")
	}
	return &rustast.Macro{Name: "vec", Bracket: true, Args: g.elements(n.Elems, elem, typed)}
}

func renderList(list []rustast.Expr) string {
	parts := make([]string, len(list))
	for i, e := range list {
		parts[i] = rustast.RenderExpr(e)
	}
	return strings.Join(parts, ", ")
}

func (g *generator) setLit(n *hir.SetLit, want *hir.Type) rustast.Expr {
	g.ctx.Need(genctx.NeedHashSet)
	if len(n.Elems) == 0 {
		return rustast.CallPath("HashSet::new")
	}
	elem, typed := g.elemWant(n.Elems, want, n)
	arr := &rustast.Raw{Text: "[" + renderList(g.elements(n.Elems, elem, typed)) + "]"}
	return rustast.CallPath("HashSet::from", arr)
}

func (g *generator) tupleLit(n *hir.TupleLit, want *hir.Type) rustast.Expr {
	out := &rustast.Tuple{}
	for i, e := range n.Elems {
		var w *hir.Type
		if want.Is(hir.KindTuple) && i < len(want.Elems) {
			w = want.Elems[i]
		}
		if w == nil {
			out.Elems = append(out.Elems, g.toOwned(e, g.generateExpr(e)))
			continue
		}
		out.Elems = append(out.Elems, g.convert(e, w))
	}
	return out
}

func (g *generator) dictLit(n *hir.DictLit, want *hir.Type) rustast.Expr {
	g.ctx.Need(genctx.NeedHashMap)
	if len(n.Keys) == 0 {
		return rustast.CallPath("HashMap::new")
	}
	var keyWant, valueWant *hir.Type
	if want.Is(hir.KindDict) {
		keyWant, valueWant = hir.ListOf(want.Key()), hir.ListOf(want.Value())
	}
	key, _ := g.elemWant(n.Keys, keyWant, n)
	value, typed := g.elemWant(n.Values, valueWant, n)
	pairs := make([]rustast.Expr, len(n.Keys))
	for i := range n.Keys {
		var v rustast.Expr
		if typed {
			v = g.convert(n.Values[i], value)
		} else {
			v = g.dynamic(n.Values[i])
		}
		pairs[i] = &rustast.Tuple{Elems: []rustast.Expr{g.convert(n.Keys[i], key), v}}
	}
	return rustast.CallPath("HashMap::from", &rustast.Raw{Text: "[" + renderList(pairs) + "]"})
}

// fstring lowers an f-string to format!
func (g *generator) fstring(n *hir.FString) rustast.Expr {
	var tmpl strings.Builder
	var args []rustast.Expr
	for _, p := range n.Parts {
		if p.Expr == nil {
			tmpl.WriteString(rustast.EscapeFormat(p.Literal))
			continue
		}
		tmpl.WriteString("{" + g.formatSpec(p.Expr, p.Conversion, p.Spec) + "}")
		args = append(args, g.generateExpr(p.Expr))
	}
	return &rustast.Macro{Name: "format", Args: append([]rustast.Expr{rustast.Str(tmpl.String())}, args...)}
}

// formatSpec translates a Python format spec to a Rust one. Containers and
// options print with Debug.
func (g *generator) formatSpec(e hir.Expr, conv byte, spec string) string {
	debug := conv == 'r'
	t := g.typeOf(e)
	if t.IsCollection() || t.Is(hir.KindOptional) {
		debug = true
	}
	spec = strings.NewReplacer(",", "", "_", "").Replace(spec)
	if spec != "" {
		switch spec[len(spec)-1] {
		case 'f', 'd', 's', 'g', 'n', '%':
			spec = spec[:len(spec)-1]
		}
	}
	if debug {
		spec += "?"
	}
	if spec == "" {
		return ""
	}
	return ":" + spec
}

// ifExprValue lowers a conditional expression
func (g *generator) ifExprValue(n *hir.IfExpr, want *hir.Type) rustast.Expr {
	t := want
	if t == nil {
		t = g.typeOf(n)
	}
	return &rustast.If{
		Cond: g.cond(n.Cond),
		Then: &rustast.Block{Tail: g.convert(n.Then, t)},
		Else: &rustast.BlockExpr{Block: &rustast.Block{Tail: g.convert(n.Else, t)}},
	}
}

// lambda lowers a lambda to a closure. borrowed parameters are bound as
// references, as in sort keys and filters.
func (g *generator) lambda(n *hir.Lambda, borrowed bool) rustast.Expr {
	g.ctx.PushScope()
	g.fn.closure++
	defer func() {
		g.fn.closure--
		g.ctx.PopScope()
	}()
	params := make([]string, len(n.Params))
	for i, p := range n.Params {
		params[i] = g.ident(p)
		sym := &genctx.Symbol{Name: p, Type: hir.TypeUnknown, Kind: genctx.SymParam, Assigned: true}
		if borrowed {
			sym.Borrow = genctx.Shared
		}
		g.ctx.Scope().Bind(sym)
	}
	return &rustast.Closure{Params: params, Body: g.generateExpr(n.Body)}
}
