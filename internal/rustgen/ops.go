package rustgen

import (
	"strconv"
	"strings"

	"github.com/paiml/depyler-sub010/internal/analysis"
	"github.com/paiml/depyler-sub010/internal/genctx"
	"github.com/paiml/depyler-sub010/internal/hir"
	"github.com/paiml/depyler-sub010/internal/rustast"
)

// binaryExpr lowers an arithmetic or bitwise operation. want decides
// whether / between integers stays integral.
func (g *generator) binaryExpr(n *hir.Binary, want *hir.Type) rustast.Expr {
	lt, rt := g.typeOf(n.Left), g.typeOf(n.Right)
	switch n.Op {
	case hir.Add:
		if lt.Is(hir.KindString) || rt.Is(hir.KindString) {
			return g.concat(n)
		}
		if lt.Is(hir.KindList) || lt.Is(hir.KindBytes) || rt.Is(hir.KindList) {
			parts := &rustast.Macro{Name: "vec", Bracket: true, Args: []rustast.Expr{
				rustast.Method(g.generateExpr(n.Left), "as_slice"),
				rustast.Method(g.generateExpr(n.Right), "as_slice"),
			}}
			return rustast.Method(parts, "concat")
		}
	case hir.Mul:
		switch {
		case lt.Is(hir.KindString) && rt.Is(hir.KindInt):
			return rustast.Method(g.generateExpr(n.Left), "repeat", usize(g.generateExpr(n.Right)))
		case lt.Is(hir.KindInt) && rt.Is(hir.KindString):
			return rustast.Method(g.generateExpr(n.Right), "repeat", usize(g.generateExpr(n.Left)))
		case lt.Is(hir.KindList) && rt.Is(hir.KindInt):
			return g.listRepeat(n.Left, n.Right)
		case lt.Is(hir.KindInt) && rt.Is(hir.KindList):
			return g.listRepeat(n.Right, n.Left)
		}
	case hir.Div:
		if lt.Is(hir.KindInt) && rt.Is(hir.KindInt) && want.Is(hir.KindInt) {
			l := g.operand(n.Left, nil)
			return g.checkedDiv(g.operand(n.Right, nil), "0", "division by zero", func(d rustast.Expr) rustast.Expr {
				return &rustast.Binary{Op: "/", L: l, R: d}
			})
		}
		l := g.operand(n.Left, hir.TypeFloat)
		return g.checkedDiv(g.operand(n.Right, hir.TypeFloat), "0.0", "division by zero", func(d rustast.Expr) rustast.Expr {
			return &rustast.Binary{Op: "/", L: l, R: d}
		})
	case hir.FloorDiv:
		if lt.Is(hir.KindInt) && rt.Is(hir.KindInt) {
			g.ctx.Need(genctx.NeedFloorDiv)
			l := g.operand(n.Left, nil)
			return g.checkedDiv(g.operand(n.Right, nil), "0", "integer division or modulo by zero", func(d rustast.Expr) rustast.Expr {
				return rustast.CallPath("py_floor_div", l, d)
			})
		}
		l := g.operand(n.Left, hir.TypeFloat)
		return g.checkedDiv(g.operand(n.Right, hir.TypeFloat), "0.0", "float floor division by zero", func(d rustast.Expr) rustast.Expr {
			return rustast.Method(&rustast.Binary{Op: "/", L: l, R: d}, "floor")
		})
	case hir.Mod:
		if lt.Is(hir.KindString) {
			return g.percentFormat(n)
		}
		if lt.Is(hir.KindInt) && rt.Is(hir.KindInt) {
			g.ctx.Need(genctx.NeedPyMod)
			l := g.operand(n.Left, nil)
			return g.checkedDiv(g.operand(n.Right, nil), "0", "integer division or modulo by zero", func(d rustast.Expr) rustast.Expr {
				return rustast.CallPath("py_mod", l, d)
			})
		}
		if lt.IsNumeric() && rt.IsNumeric() {
			l := g.typedLit(g.operand(n.Left, hir.TypeFloat), hir.TypeFloat)
			return g.checkedDiv(g.operand(n.Right, hir.TypeFloat), "0.0", "float modulo", func(d rustast.Expr) rustast.Expr {
				return rustast.Method(l, "rem_euclid", d)
			})
		}
	case hir.Pow:
		exp, constExp := analysis.ConstIndex(n.Right)
		if lt.Is(hir.KindInt) && rt.Is(hir.KindInt) && (!constExp || exp >= 0) {
			base := g.typedLit(g.operand(n.Left, nil), hir.TypeInt)
			return rustast.Method(base, "pow", &rustast.Cast{X: g.operand(n.Right, nil), Type: rustast.Named("u32")})
		}
		base := g.typedLit(g.operand(n.Left, hir.TypeFloat), hir.TypeFloat)
		if rt.Is(hir.KindInt) && constExp {
			return rustast.Method(base, "powi", &rustast.Lit{Text: strconv.Itoa(exp)})
		}
		return rustast.Method(base, "powf", g.operand(n.Right, hir.TypeFloat))
	case hir.MatMul:
		line, col := n.Loc()
		g.ctx.Diags.Unsupported(line, col, "operator", "matrix multiplication")
		return &rustast.Macro{Name: "unimplemented", Args: []rustast.Expr{rustast.Str("@")}}
	}

	if lt.Is(hir.KindSet) {
		method := map[hir.BinOp]string{
			hir.BitAnd: "intersection",
			hir.BitOr:  "union",
			hir.BitXor: "symmetric_difference",
			hir.Sub:    "difference",
		}[n.Op]
		if method != "" {
			g.ctx.Need(genctx.NeedHashSet)
			it := rustast.Method(g.generateExpr(n.Left), method, g.toRef(n.Right, g.generateExpr(n.Right)))
			return &rustast.MethodCall{
				Recv:      rustast.Method(it, "cloned"),
				Method:    "collect",
				Turbofish: []rustast.Type{rustast.Named("HashSet", &rustast.InferType{})},
			}
		}
	}
	if lt.Is(hir.KindDict) && n.Op == hir.BitOr {
		merged := g.ctx.Fresh("merged")
		return &rustast.BlockExpr{Block: &rustast.Block{
			Stmts: []rustast.Stmt{
				&rustast.Let{Mut: true, Pattern: merged, Value: g.toOwned(n.Left, g.generateExpr(n.Left))},
				&rustast.ExprStmt{X: rustast.Method(rustast.Name(merged), "extend", rustast.Method(g.toOwned(n.Right, g.generateExpr(n.Right)), "into_iter"))},
			},
			Tail: rustast.Name(merged),
		}}
	}

	t := g.typeOf(n)
	switch n.Op {
	case hir.LShift, hir.RShift:
		t = nil
	}
	return &rustast.Binary{Op: string(n.Op), L: g.operand(n.Left, t), R: g.operand(n.Right, t)}
}

func usize(x rustast.Expr) rustast.Expr {
	return &rustast.Cast{X: x, Type: rustast.Named("usize")}
}

// operand lowers one side of an arithmetic operation computed in type t
func (g *generator) operand(e hir.Expr, t *hir.Type) rustast.Expr {
	x := g.exprWant(e, t)
	if t.Is(hir.KindFloat) && g.typeOf(e).Is(hir.KindInt) {
		return g.toFloat(x)
	}
	return x
}

// concat lowers a chain of string additions to one format!
func (g *generator) concat(n *hir.Binary) rustast.Expr {
	var operands []hir.Expr
	var flatten func(e hir.Expr)
	flatten = func(e hir.Expr) {
		if b, ok := e.(*hir.Binary); ok && b.Op == hir.Add && (g.typeOf(b.Left).Is(hir.KindString) || g.typeOf(b.Right).Is(hir.KindString)) {
			flatten(b.Left)
			flatten(b.Right)
			return
		}
		operands = append(operands, e)
	}
	flatten(n)

	var tmpl strings.Builder
	var args []rustast.Expr
	for _, op := range operands {
		if lit, ok := op.(*hir.Literal); ok && lit.Kind == hir.LitString {
			tmpl.WriteString(rustast.EscapeFormat(lit.Value))
			continue
		}
		tmpl.WriteString("{}")
		args = append(args, g.generateExpr(op))
	}
	return &rustast.Macro{Name: "format", Args: append([]rustast.Expr{rustast.Str(tmpl.String())}, args...)}
}

// listRepeat lowers [x] * n and xs * n
func (g *generator) listRepeat(list, count hir.Expr) rustast.Expr {
	n := usize(g.generateExpr(count))
	if lit, ok := list.(*hir.ListLit); ok && len(lit.Elems) == 1 && !hasStarred(lit.Elems) {
		elem := g.toOwned(lit.Elems[0], g.generateExpr(lit.Elems[0]))
		return g.raw("vec![" + rustast.RenderExpr(elem) + "; " + rustast.RenderExpr(n) + "]")
	}
	return rustast.Method(g.generateExpr(list), "repeat", n)
}

// percentFormat lowers "fmt" % args to format!
func (g *generator) percentFormat(n *hir.Binary) rustast.Expr {
	lit, ok := n.Left.(*hir.Literal)
	if !ok || lit.Kind != hir.LitString {
		line, col := n.Loc()
		g.ctx.Diags.Unsupported(line, col, "operator", "%% formatting with a non-literal format string")
		return &rustast.Macro{Name: "format", Args: []rustast.Expr{rustast.Str("{}"), g.generateExpr(n.Left)}}
	}
	values := []hir.Expr{n.Right}
	if t, ok := n.Right.(*hir.TupleLit); ok {
		values = t.Elems
	}
	tmpl, used := convertPercent(lit.Value)
	if used != len(values) {
		line, col := n.Loc()
		g.ctx.Diags.Mismatch(line, col, strconv.Itoa(used)+" format arguments", strconv.Itoa(len(values)))
	}
	args := []rustast.Expr{rustast.Str(tmpl)}
	for _, v := range values {
		args = append(args, g.generateExpr(v))
	}
	return &rustast.Macro{Name: "format", Args: args}
}

// convertPercent rewrites printf-style directives as format! placeholders
// and counts them
func convertPercent(s string) (string, int) {
	var out strings.Builder
	used := 0
	for i := 0; i < len(s); i++ {
		c := s[i]
		switch c {
		case '{':
			out.WriteString("{{")
			continue
		case '}':
			out.WriteString("}}")
			continue
		case '%':
		default:
			out.WriteByte(c)
			continue
		}
		j := i + 1
		if j < len(s) && s[j] == '%' {
			out.WriteByte('%')
			i = j
			continue
		}
		for j < len(s) && strings.IndexByte("-+ 0#.123456789", s[j]) >= 0 {
			j++
		}
		if j >= len(s) {
			out.WriteString(s[i:])
			break
		}
		flags, conv := s[i+1:j], s[j]
		spec := ""
		switch {
		case strings.HasPrefix(flags, "-"):
			spec = "<" + flags[1:]
		case strings.HasPrefix(flags, "0") && len(flags) > 1:
			spec = "0" + flags[1:]
		default:
			spec = flags
		}
		switch conv {
		case 'f', 'F':
			if !strings.Contains(spec, ".") {
				spec += ".6"
			}
		case 'r':
			spec += "?"
		case 'x':
			spec += "x"
		case 'X':
			spec += "X"
		case 'o':
			spec += "o"
		case 'e':
			spec += "e"
		}
		if spec == "" {
			out.WriteString("{}")
		} else {
			out.WriteString("{:" + spec + "}")
		}
		used++
		i = j
	}
	return out.String(), used
}

func (g *generator) unaryExpr(n *hir.Unary, want *hir.Type) rustast.Expr {
	switch n.Op {
	case hir.Not:
		return negate(g.cond(n.Operand))
	case hir.UPlus:
		return g.exprWant(n.Operand, want)
	case hir.Invert:
		return &rustast.Unary{Op: "!", X: g.exprWant(n.Operand, want)}
	}
	x := g.exprWant(n.Operand, want)
	if lit, ok := x.(*rustast.Lit); ok && !strings.HasPrefix(lit.Text, "-") {
		return &rustast.Lit{Text: "-" + lit.Text}
	}
	return &rustast.Unary{Op: "-", X: x}
}

// compareExpr lowers a comparison; chains evaluate each middle operand once
func (g *generator) compareExpr(n *hir.Compare) rustast.Expr {
	if len(n.Ops) == 1 {
		return g.compareOne(n.Left, n.Ops[0], n.Comparators[0])
	}
	g.ctx.PushScope()
	defer g.ctx.PopScope()
	b := &rustast.Block{}
	var conj rustast.Expr
	left := n.Left
	for i, op := range n.Ops {
		right := n.Comparators[i]
		if i < len(n.Ops)-1 && !isPure(right) {
			tmp := g.ctx.Fresh("cmp")
			b.Add(&rustast.Let{Pattern: tmp, Value: g.generateExpr(right)})
			g.ctx.Scope().Bind(&genctx.Symbol{Name: tmp, Type: g.typeOf(right), Kind: genctx.SymLocal, Assigned: true})
			right = &hir.Var{Name: tmp}
		}
		term := g.compareOne(left, op, right)
		if conj == nil {
			conj = term
		} else {
			conj = &rustast.Binary{Op: "&&", L: conj, R: term}
		}
		left = right
	}
	if len(b.Stmts) == 0 {
		return conj
	}
	b.Tail = conj
	return &rustast.BlockExpr{Block: b}
}

func (g *generator) compareOne(l hir.Expr, op hir.CmpOp, r hir.Expr) rustast.Expr {
	switch op {
	case hir.In:
		return g.containsExpr(l, r)
	case hir.NotIn:
		return &rustast.Unary{Op: "!", X: g.containsExpr(l, r)}
	case hir.Is, hir.Eq:
		op = hir.Eq
	case hir.IsNot, hir.NotEq:
		op = hir.NotEq
	}
	if (op == hir.Eq || op == hir.NotEq) && (isNone(l) || isNone(r)) {
		x := l
		if isNone(l) {
			x = r
		}
		if isNone(x) {
			return &rustast.Lit{Text: strconv.FormatBool(op == hir.Eq)}
		}
		method := "is_none"
		if op == hir.NotEq {
			method = "is_some"
		}
		return rustast.Method(g.generateExpr(x), method)
	}
	lx, rx := g.compareOperands(l, r)
	return &rustast.Binary{Op: string(op), L: lx, R: rx}
}

// compareOperands lowers both sides of a comparison so their Rust types
// meet: Some-wrapping against optionals, char literals against chars,
// int-to-float widening and dereferencing a lone reference
func (g *generator) compareOperands(l, r hir.Expr) (rustast.Expr, rustast.Expr) {
	lt, rt := g.typeOf(l), g.typeOf(r)
	lx, rx := g.generateExpr(l), g.generateExpr(r)
	lf, rf := g.formOf(l), g.formOf(r)

	switch {
	case lt.Is(hir.KindOptional) && !rt.Is(hir.KindOptional) && !rt.IsUnknown():
		return lx, rustast.CallPath("Some", g.convert(r, lt.Elem()))
	case rt.Is(hir.KindOptional) && !lt.Is(hir.KindOptional) && !lt.IsUnknown():
		return rustast.CallPath("Some", g.convert(l, rt.Elem())), rx
	}

	if lf == formChar || rf == formChar {
		if lf == formChar && rf == formChar {
			return lx, rx
		}
		if lf == formChar {
			if c, ok := charLit(r); ok {
				return lx, c
			}
			return rustast.Method(lx, "to_string"), rx
		}
		if c, ok := charLit(l); ok {
			return c, rx
		}
		return lx, rustast.Method(rx, "to_string")
	}

	switch {
	case lt.Is(hir.KindInt) && rt.Is(hir.KindFloat):
		lx = g.toFloat(lx)
	case lt.Is(hir.KindFloat) && rt.Is(hir.KindInt):
		rx = g.toFloat(rx)
	}

	isRef := func(f form) bool { return f == formRef || f == formMut }
	if isRef(lf) && !isRef(rf) && rf != formStr {
		lx = &rustast.Deref{X: lx}
	}
	if isRef(rf) && !isRef(lf) && lf != formStr {
		rx = &rustast.Deref{X: rx}
	}
	return lx, rx
}

// charLit renders a one-character string literal as a char literal
func charLit(e hir.Expr) (rustast.Expr, bool) {
	lit, ok := e.(*hir.Literal)
	if !ok || lit.Kind != hir.LitString {
		return nil, false
	}
	runes := []rune(lit.Value)
	if len(runes) != 1 {
		return nil, false
	}
	return &rustast.Lit{Text: strconv.QuoteRune(runes[0])}, true
}

// containsExpr lowers item in container
func (g *generator) containsExpr(item, container hir.Expr) rustast.Expr {
	switch c := container.(type) {
	case *hir.TupleLit:
		return g.literalContains(item, c.Elems)
	case *hir.ListLit:
		return g.literalContains(item, c.Elems)
	case *hir.SetLit:
		return g.literalContains(item, c.Elems)
	}
	ct := g.typeOf(container)
	if ct.Is(hir.KindOptional) {
		ct = ct.Elem()
	}
	cx := g.generateExpr(container)
	ix := g.generateExpr(item)
	switch {
	case ct.Is(hir.KindString):
		pat := ix
		if !isStringLit(item) && g.formOf(item) != formChar {
			pat = g.toStr(item, ix)
		}
		return rustast.Method(cx, "contains", pat)
	case ct.Is(hir.KindDict) || isDictLike(ct):
		return rustast.Method(cx, "contains_key", g.keyRef(item))
	case ct.Is(hir.KindSet):
		return rustast.Method(cx, "contains", g.keyRef(item))
	case ct.Is(hir.KindList) && ct.Elem().Is(hir.KindString) && (isStringLit(item) || g.formOf(item) == formStr || g.formOf(item) == formChar):
		needle := ix
		if g.formOf(item) == formChar {
			needle = &rustast.Borrow{X: rustast.Method(ix, "to_string")}
		}
		return rustast.Method(rustast.Method(cx, "iter"), "any", &rustast.Closure{
			Params: []string{"_s"},
			Body:   &rustast.Binary{Op: "==", L: rustast.Name("_s"), R: needle},
		})
	}
	return rustast.Method(cx, "contains", g.toRef(item, ix))
}

// literalContains lowers membership in a literal tuple, list or set to a
// search of a Rust array
func (g *generator) literalContains(item hir.Expr, elems []hir.Expr) rustast.Expr {
	ix := g.generateExpr(item)
	if g.formOf(item) == formChar {
		chars := make([]rustast.Expr, 0, len(elems))
		for _, el := range elems {
			c, ok := charLit(el)
			if !ok {
				chars = nil
				break
			}
			chars = append(chars, c)
		}
		if chars != nil {
			return rustast.Method(g.raw("["+renderList(chars)+"]"), "contains", &rustast.Borrow{X: ix})
		}
		ix = rustast.Method(ix, "to_string")
	}
	allStr := len(elems) > 0
	parts := make([]rustast.Expr, len(elems))
	for i, el := range elems {
		allStr = allStr && isStringLit(el)
		parts[i] = g.generateExpr(el)
	}
	array := g.raw("[" + renderList(parts) + "]")
	if allStr && g.typeOf(item).Is(hir.KindString) {
		if f := g.formOf(item); f != formStr {
			return rustast.Method(array, "contains", &rustast.Borrow{X: rustast.Method(ix, "as_str")})
		}
		return rustast.Method(array, "contains", &rustast.Borrow{X: ix})
	}
	return rustast.Method(array, "contains", g.toRef(item, ix))
}

// boolOpExpr lowers and/or. Boolean operands short-circuit directly; other
// operands keep Python's value semantics.
func (g *generator) boolOpExpr(n *hir.BoolOp) rustast.Expr {
	t := g.typeOf(n)
	allBool := true
	for _, v := range n.Values {
		if vt := g.typeOf(v); !vt.Is(hir.KindBool) {
			allBool = false
		}
	}
	if allBool || t.Is(hir.KindBool) || t.IsUnknown() {
		return g.cond(n)
	}

	last := n.Values[len(n.Values)-1]
	if !n.And && g.typeOf(n.Values[0]).Is(hir.KindOptional) {
		// x or default
		acc := g.toOwned(n.Values[0], g.generateExpr(n.Values[0]))
		for i, v := range n.Values[1:] {
			if vt := g.typeOf(v); vt.Is(hir.KindOptional) && i < len(n.Values)-2 {
				acc = rustast.Method(acc, "or", g.toOwned(v, g.generateExpr(v)))
				continue
			}
			if t.Is(hir.KindOptional) {
				acc = rustast.Method(acc, "or", g.convert(v, t))
			} else {
				acc = rustast.Method(acc, "unwrap_or", g.convert(v, t))
			}
		}
		return acc
	}

	result := g.convert(last, t)
	for i := len(n.Values) - 2; i >= 0; i-- {
		v := n.Values[i]
		if !isPure(v) {
			line, col := v.Loc()
			g.ctx.Diags.Warningf(line, col, "operand of %s is evaluated twice", map[bool]string{true: "and", false: "or"}[n.And])
		}
		self := &rustast.Block{Tail: g.convert(v, t)}
		rest := &rustast.Block{Tail: result}
		if n.And {
			result = &rustast.If{Cond: g.cond(v), Then: rest, Else: &rustast.BlockExpr{Block: self}}
		} else {
			result = &rustast.If{Cond: g.cond(v), Then: self, Else: &rustast.BlockExpr{Block: rest}}
		}
	}
	return result
}

// cond lowers e as a Rust bool following Python truthiness
func (g *generator) cond(e hir.Expr) rustast.Expr {
	switch n := e.(type) {
	case *hir.Compare:
		return g.compareExpr(n)
	case *hir.BoolOp:
		op := "||"
		if n.And {
			op = "&&"
		}
		var x rustast.Expr
		for _, v := range n.Values {
			c := g.cond(v)
			if x == nil {
				x = c
			} else {
				x = &rustast.Binary{Op: op, L: x, R: c}
			}
		}
		return x
	case *hir.Unary:
		if n.Op == hir.Not {
			return negate(g.cond(n.Operand))
		}
	case *hir.Literal:
		switch n.Kind {
		case hir.LitNone:
			return &rustast.Lit{Text: "false"}
		case hir.LitBool:
			return g.literal(n)
		}
	}
	t := g.typeOf(e)
	x := g.generateExpr(e)
	switch {
	case t.Is(hir.KindBool):
		return x
	case t.Is(hir.KindInt):
		return &rustast.Binary{Op: "!=", L: x, R: &rustast.Lit{Text: "0"}}
	case t.Is(hir.KindFloat):
		return &rustast.Binary{Op: "!=", L: x, R: &rustast.Lit{Text: "0.0"}}
	case t.Is(hir.KindString), t.Is(hir.KindBytes), t.Is(hir.KindList), t.Is(hir.KindSet), t.Is(hir.KindDict), isDictLike(t),
		t.Is(hir.KindGeneric) && t.Name == "VecDeque", t.Is(hir.KindCustom) && t.Name == "deque":
		if g.formOf(e) == formChar {
			return &rustast.Lit{Text: "true"}
		}
		return &rustast.Unary{Op: "!", X: rustast.Method(x, "is_empty")}
	case t.Is(hir.KindTuple):
		return &rustast.Lit{Text: strconv.FormatBool(len(t.Elems) > 0)}
	case t.Is(hir.KindOptional):
		return rustast.Method(x, "is_some")
	case t.Is(hir.KindNone):
		return &rustast.Lit{Text: "false"}
	case t.Is(hir.KindCustom) && !t.IsDynamic():
		return &rustast.Lit{Text: "true"}
	}
	g.ctx.Need(genctx.NeedTruthy)
	return rustast.CallPath("is_truthy", &rustast.Borrow{X: x})
}

// negate inverts a lowered condition, folding a leading ! and the simple
// forms that have a direct opposite
func negate(x rustast.Expr) rustast.Expr {
	switch c := x.(type) {
	case *rustast.Unary:
		if c.Op == "!" {
			return c.X
		}
	case *rustast.Lit:
		switch c.Text {
		case "true":
			return &rustast.Lit{Text: "false"}
		case "false":
			return &rustast.Lit{Text: "true"}
		}
	case *rustast.MethodCall:
		switch {
		case c.Method == "is_some" && len(c.Args) == 0:
			return rustast.Method(c.Recv, "is_none")
		case c.Method == "is_none" && len(c.Args) == 0:
			return rustast.Method(c.Recv, "is_some")
		}
	}
	return &rustast.Unary{Op: "!", X: x}
}
