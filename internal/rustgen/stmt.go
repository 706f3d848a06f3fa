package rustgen

import (
	"strconv"
	"strings"

	"github.com/paiml/depyler-sub010/internal/analysis"
	"github.com/paiml/depyler-sub010/internal/genctx"
	"github.com/paiml/depyler-sub010/internal/hir"
	"github.com/paiml/depyler-sub010/internal/rustast"
)

// block lowers stmts in a nested scope
func (g *generator) block(stmts []hir.Stmt) *rustast.Block {
	g.ctx.PushScope()
	defer g.ctx.PopScope()
	b := &rustast.Block{}
	g.stmts(b, stmts)
	return b
}

func (g *generator) stmts(b *rustast.Block, stmts []hir.Stmt) {
	for _, s := range stmts {
		g.stmt(b, s)
	}
}

func stmtBlock(stmts ...rustast.Expr) *rustast.Block {
	b := &rustast.Block{}
	for _, e := range stmts {
		b.AddExpr(e)
	}
	return b
}

// stmt appends the lowering of s to b
func (g *generator) stmt(b *rustast.Block, s hir.Stmt) {
	if ap := g.ctx.Argparse; ap != nil && ap.Skip[s] {
		return
	}
	g.hoist(b, s)
	switch n := s.(type) {
	case *hir.Assign:
		g.assign(b, n)
	case *hir.AugAssign:
		g.augAssign(b, n)
	case *hir.Return:
		b.AddExpr(g.returnStmt(n))
	case *hir.If:
		g.ifStmt(b, n)
	case *hir.While:
		g.whileStmt(b, n)
	case *hir.For:
		g.forStmt(b, n)
	case *hir.Try:
		g.tryStmt(b, n)
	case *hir.With:
		g.withStmt(b, n)
	case *hir.Raise:
		b.AddExpr(g.raise(n))
	case *hir.Import:
		// resolved by the import table
	case *hir.ClassDef:
		line, col := n.Loc()
		g.ctx.Diags.Unsupported(line, col, "class definition", "class %s defined inside a function", n.Class.Name)
	case *hir.FunctionDef:
		if fn, ok := g.fn.nested[n]; ok {
			b.Add(&rustast.ItemStmt{Item: fn})
		}
	case *hir.Pass:
	case *hir.Break:
		b.AddExpr(g.breakStmt(n))
	case *hir.Continue:
		b.AddExpr(g.continueStmt(n))
	case *hir.Global:
		// writes would land on a shadowing local, not the module binding
		line, col := n.Loc()
		g.ctx.Diags.Unsupported(line, col, "global", "global declaration of %s", strings.Join(n.Names, ", "))
		b.Add(&rustast.Comment{Text: "global " + strings.Join(n.Names, ", ")})
	case *hir.Nonlocal:
		line, col := n.Loc()
		g.ctx.Diags.Unsupported(line, col, "nonlocal", "nonlocal declaration of %s", strings.Join(n.Names, ", "))
		b.Add(&rustast.Comment{Text: "nonlocal " + strings.Join(n.Names, ", ")})
	case *hir.Delete:
		g.deleteStmt(b, n)
	case *hir.Assert:
		b.AddExpr(g.assertStmt(n))
	case *hir.ExprStmt:
		g.exprStmt(b, n)
	}
}

// hoist declares the names s binds and later code reads ahead of s. Loop
// and try hoists start from a default value; if/with hoists are assigned on
// every path.
func (g *generator) hoist(b *rustast.Block, s hir.Stmt) {
	names := g.ctx.Hoisted[s]
	if len(names) == 0 {
		return
	}
	defaulted := false
	switch s.(type) {
	case *hir.For, *hir.While, *hir.Try:
		defaulted = true
	}
	for _, name := range names {
		if g.ctx.Lookup(name) != nil {
			continue
		}
		t := g.ctx.VarType(g.ctx.Current, name)
		if t == nil {
			t = hir.TypeUnknown
		}
		let := &rustast.Let{Pattern: g.ident(name), Mut: g.ctx.IsMutable(g.ctx.Current, name)}
		if !t.IsUnknown() {
			let.Type = g.letType(t)
		}
		if defaulted {
			let.Mut = true
			let.Value = defaultValue(t)
		}
		b.Add(let)
		g.ctx.Scope().Bind(&genctx.Symbol{Name: name, Type: t, Mutable: let.Mut, Kind: genctx.SymHoisted, Assigned: defaulted})
	}
}

func defaultValue(t *hir.Type) rustast.Expr {
	if t.Is(hir.KindOptional) {
		return rustast.Name("None")
	}
	return rustast.CallPath("Default::default")
}

func (g *generator) exprStmt(b *rustast.Block, n *hir.ExprStmt) {
	switch v := n.Value.(type) {
	case *hir.Literal:
		// docstrings and bare constants
		return
	case *hir.Call:
		b.AddExpr(g.lowerCall(v, true))
		return
	case *hir.MethodCall:
		b.AddExpr(g.lowerMethodCall(v, true))
		return
	}
	b.AddExpr(g.generateExpr(n.Value))
}

// ---------------------------------------------------------------------------
// Assignment
// ---------------------------------------------------------------------------

func (g *generator) assign(b *rustast.Block, n *hir.Assign) {
	switch t := n.Target.(type) {
	case *hir.Var:
		g.assignVar(b, n, t)
	case *hir.TupleLit:
		g.assignTuple(b, t.Elems, n.Value)
	case *hir.ListLit:
		g.assignTuple(b, t.Elems, n.Value)
	case *hir.Index:
		g.store(b, t, nil, n.Value)
	case *hir.Attribute:
		g.store(b, t, nil, n.Value)
	default:
		line, col := n.Loc()
		g.ctx.Diags.Unsupported(line, col, "assignment", "unsupported assignment target")
	}
}

func isParseArgs(e hir.Expr, parser string) bool {
	mc, ok := e.(*hir.MethodCall)
	if !ok || mc.Method != "parse_args" {
		return false
	}
	v, ok := mc.Recv.(*hir.Var)
	return ok && v.Name == parser
}

// shadows reports whether assigning to sym must introduce a new binding:
// references held by parameters and loop variables are not rebound through
func shadows(sym *genctx.Symbol) bool {
	return sym.Borrow != genctx.Owned && (sym.Kind == genctx.SymParam || sym.Kind == genctx.SymLoopVar || sym.Kind == genctx.SymLocal)
}

func (g *generator) assignVar(b *rustast.Block, n *hir.Assign, v *hir.Var) {
	name := v.Name
	if ap := g.ctx.Argparse; ap != nil && name == ap.ArgsVar && g.ctx.Current == ap.Function && isParseArgs(n.Value, ap.ParserVar) {
		b.Add(&rustast.Let{Pattern: g.ident(name), Value: rustast.CallPath("Args::parse")})
		g.ctx.Scope().Bind(&genctx.Symbol{Name: name, Type: hir.CustomType("Args"), Kind: genctx.SymLocal, Assigned: true})
		return
	}
	if n.Value != nil && g.selfUpdate(b, name, n.Value) {
		return
	}

	t := n.Annotation
	if t == nil {
		t = g.ctx.VarType(g.ctx.Current, name)
	}
	if t.IsUnknown() && n.Value != nil {
		t = g.typeOf(n.Value)
	}

	sym := g.ctx.Lookup(name)
	if sym != nil && (g.fn.self == name || !shadows(sym)) {
		if n.Value == nil {
			return
		}
		want := sym.Type
		if want.IsUnknown() {
			want = t
		}
		b.AddExpr(&rustast.Assign{Target: g.lvalue(v), Op: "=", Value: g.convert(n.Value, want)})
		sym.Assigned = true
		return
	}

	let := &rustast.Let{Mut: g.ctx.IsMutable(g.ctx.Current, name), Pattern: g.localIdent(name)}
	if n.Value == nil {
		// a bare declaration is assigned later
		if n.Annotation != nil {
			let.Type = g.letType(n.Annotation)
		}
		b.Add(let)
		g.ctx.Scope().Bind(&genctx.Symbol{Name: name, Type: t, Mutable: let.Mut, Kind: genctx.SymHoisted})
		return
	}
	let.Value = g.convert(n.Value, t)
	let.Type = g.letAnnotation(n, t)
	b.Add(let)
	g.ctx.Scope().Bind(&genctx.Symbol{Name: name, Type: t, Mutable: let.Mut, Kind: genctx.SymLocal, Assigned: true})
}

// letAnnotation decides whether a let carries an explicit type: declared
// annotations, empty literals and values whose type differs from the
// variable's joined type
func (g *generator) letAnnotation(n *hir.Assign, t *hir.Type) rustast.Type {
	if n.Annotation != nil {
		return g.letType(n.Annotation)
	}
	if isEmptyLiteral(n.Value) || isNone(n.Value) {
		if t.IsUnknown() {
			return nil
		}
		return g.letType(t)
	}
	if vt := g.typeOf(n.Value); !vt.Equal(t) && t.IsFullyKnown() {
		return g.letType(t)
	}
	return nil
}

func isEmptyLiteral(e hir.Expr) bool {
	switch n := e.(type) {
	case *hir.ListLit:
		return len(n.Elems) == 0
	case *hir.SetLit:
		return len(n.Elems) == 0
	case *hir.DictLit:
		return len(n.Keys) == 0
	case *hir.Call:
		switch n.Func {
		case "list", "dict", "set":
			return n.Callee == nil && len(n.Args) == 0
		}
	}
	return false
}

// selfUpdate lowers x = f(x) for a function rewritten to mutate x in place
func (g *generator) selfUpdate(b *rustast.Block, name string, value hir.Expr) bool {
	call, ok := value.(*hir.Call)
	if !ok {
		return false
	}
	sig := analysis.CalleeSig(g.ctx, call)
	if sig == nil || !sig.MutReturnRewrite {
		return false
	}
	ret := returnedParam(sig)
	for i, p := range sig.Params {
		if p.Name != ret || i >= len(call.Args) {
			continue
		}
		if v, ok := call.Args[i].(*hir.Var); ok && v.Name == name {
			b.AddExpr(g.lowerCall(call, true))
			return true
		}
	}
	return false
}

// assignTuple lowers tuple unpacking: one let when every name is new, a
// destructuring assignment when every name exists, else through a temp
func (g *generator) assignTuple(b *rustast.Block, elems []hir.Expr, value hir.Expr) {
	vt := g.typeOf(value)
	fresh, bound, simple := 0, 0, true
	for _, el := range elems {
		switch t := el.(type) {
		case *hir.Var:
			if sym := g.ctx.Lookup(t.Name); sym != nil && !shadows(sym) {
				bound++
			} else {
				fresh++
			}
		default:
			simple = false
		}
	}
	lit, isLit := value.(*hir.TupleLit)
	if simple && !vt.Is(hir.KindList) && (!isLit || len(lit.Elems) == len(elems)) {
		if bound == 0 {
			parts := make([]string, len(elems))
			for i, el := range elems {
				name := el.(*hir.Var).Name
				parts[i] = g.ident(name)
				if g.ctx.IsMutable(g.ctx.Current, name) {
					parts[i] = "mut " + parts[i]
				}
			}
			b.Add(&rustast.Let{Pattern: "(" + strings.Join(parts, ", ") + ")", Value: g.tupleValue(value, elems)})
			for i, el := range elems {
				name := el.(*hir.Var).Name
				g.ctx.Scope().Bind(&genctx.Symbol{Name: name, Type: g.partType(name, vt, i), Mutable: g.ctx.IsMutable(g.ctx.Current, name), Kind: genctx.SymLocal, Assigned: true})
			}
			return
		}
		if fresh == 0 {
			targets := &rustast.Tuple{}
			for _, el := range elems {
				targets.Elems = append(targets.Elems, g.lvalue(el))
			}
			b.AddExpr(&rustast.Assign{Target: targets, Op: "=", Value: g.tupleValue(value, elems)})
			return
		}
	}
	tmp := g.ctx.Fresh("tup")
	b.Add(&rustast.Let{Pattern: tmp, Value: g.toOwned(value, g.generateExpr(value))})
	for i, el := range elems {
		et := hir.TypeUnknown
		var part rustast.Expr
		switch {
		case vt.Is(hir.KindList):
			et = vt.Elem()
			part = &rustast.Index{Recv: rustast.Name(tmp), Index: &rustast.Lit{Text: strconv.Itoa(i)}}
			if !et.IsCopy() {
				part = rustast.Method(part, "clone")
			}
		default:
			if vt.Is(hir.KindTuple) && i < len(vt.Elems) {
				et = vt.Elems[i]
			}
			part = &rustast.Field{Recv: rustast.Name(tmp), Name: strconv.Itoa(i)}
		}
		g.storeValue(b, el, part, et)
	}
}

func (g *generator) partType(name string, vt *hir.Type, i int) *hir.Type {
	if t := g.ctx.VarType(g.ctx.Current, name); t != nil && !t.IsUnknown() {
		return t
	}
	if vt.Is(hir.KindTuple) && i < len(vt.Elems) {
		return vt.Elems[i]
	}
	return hir.TypeUnknown
}

// tupleValue lowers the right side of a tuple unpacking as an owned tuple
func (g *generator) tupleValue(value hir.Expr, targets []hir.Expr) rustast.Expr {
	lit, ok := value.(*hir.TupleLit)
	if !ok {
		return g.toOwned(value, g.generateExpr(value))
	}
	out := &rustast.Tuple{}
	for i, el := range lit.Elems {
		want := g.typeOf(el)
		if v, ok := targets[i].(*hir.Var); ok {
			if t := g.ctx.VarType(g.ctx.Current, v.Name); t != nil && !t.IsUnknown() {
				want = t
			}
		}
		out.Elems = append(out.Elems, g.convert(el, want))
	}
	return out
}

// storeValue assigns an already lowered value to target
func (g *generator) storeValue(b *rustast.Block, target hir.Expr, val rustast.Expr, t *hir.Type) {
	switch tg := target.(type) {
	case *hir.Var:
		sym := g.ctx.Lookup(tg.Name)
		if sym != nil && !shadows(sym) {
			b.AddExpr(&rustast.Assign{Target: g.lvalue(tg), Op: "=", Value: val})
			sym.Assigned = true
			return
		}
		mut := g.ctx.IsMutable(g.ctx.Current, tg.Name)
		b.Add(&rustast.Let{Mut: mut, Pattern: g.ident(tg.Name), Value: val})
		vt := g.ctx.VarType(g.ctx.Current, tg.Name)
		if vt.IsUnknown() {
			vt = t
		}
		g.ctx.Scope().Bind(&genctx.Symbol{Name: tg.Name, Type: vt, Mutable: mut, Kind: genctx.SymLocal, Assigned: true})
	case *hir.Index, *hir.Attribute:
		g.store(b, tg, val, nil)
	case *hir.TupleLit:
		tmp := g.ctx.Fresh("tup")
		b.Add(&rustast.Let{Pattern: tmp, Value: val})
		for i, el := range tg.Elems {
			et := hir.TypeUnknown
			if t.Is(hir.KindTuple) && i < len(t.Elems) {
				et = t.Elems[i]
			}
			g.storeValue(b, el, &rustast.Field{Recv: rustast.Name(tmp), Name: strconv.Itoa(i)}, et)
		}
	default:
		line, col := target.Loc()
		g.ctx.Diags.Unsupported(line, col, "assignment", "unsupported unpacking target")
	}
}

// store assigns to an element or attribute. Either val (already lowered)
// or value is set.
func (g *generator) store(b *rustast.Block, target hir.Expr, val rustast.Expr, value hir.Expr) {
	switch tg := target.(type) {
	case *hir.Index:
		recvT := g.typeOf(tg.Recv)
		if recvT.Is(hir.KindOptional) {
			recvT = recvT.Elem()
		}
		if recvT.Is(hir.KindDict) || isDictLike(recvT) {
			if val == nil {
				val = g.convert(value, recvT.Value())
			}
			b.AddExpr(rustast.Method(g.lvalue(tg.Recv), "insert", g.convert(tg.Key, recvT.Key()), val))
			return
		}
		if val == nil {
			val = g.convert(value, recvT.Elem())
		}
		b.AddExpr(&rustast.Assign{Target: g.lvalue(tg), Op: "=", Value: val})
	case *hir.Attribute:
		if v, ok := tg.Recv.(*hir.Var); ok && g.ctx.Lookup(v.Name) == nil && (g.ctx.IsClass(v.Name) || analysis.ResolveDotted(g.ctx, tg) != "") {
			line, col := tg.Loc()
			g.ctx.Diags.Unsupported(line, col, "assignment", "assignment to %s.%s", v.Name, tg.Name)
			return
		}
		if val == nil {
			if g.isRecursiveAttr(tg) {
				val = g.boxed(value)
			} else {
				val = g.convert(value, g.typeOf(tg))
			}
		}
		b.AddExpr(&rustast.Assign{Target: g.lvalue(tg), Op: "=", Value: val})
	}
}

func isDictLike(t *hir.Type) bool {
	if !t.Is(hir.KindCustom) {
		return false
	}
	switch t.Name {
	case "Counter", "defaultdict", "OrderedDict":
		return true
	}
	return false
}

// boxed lowers a value stored in an Option<Box<T>> field
func (g *generator) boxed(value hir.Expr) rustast.Expr {
	if isNone(value) {
		return rustast.Name("None")
	}
	if g.typeOf(value).Is(hir.KindOptional) {
		return rustast.Method(g.toOwned(value, g.generateExpr(value)), "map", rustast.Name("Box::new"))
	}
	return rustast.CallPath("Some", rustast.CallPath("Box::new", g.toOwned(value, g.generateExpr(value))))
}

// augAssign lowers target op= value
func (g *generator) augAssign(b *rustast.Block, n *hir.AugAssign) {
	tt := g.typeOf(n.Target)
	_, isVar := n.Target.(*hir.Var)
	_, isAttr := n.Target.(*hir.Attribute)
	direct := isVar || isAttr
	if idx, ok := n.Target.(*hir.Index); ok {
		recvT := g.typeOf(idx.Recv)
		direct = (recvT.Is(hir.KindList) || recvT.Is(hir.KindGeneric)) && tt.IsNumeric()
	}

	if direct {
		target := g.lvalue(n.Target)
		switch {
		case tt.Is(hir.KindString) && n.Op == hir.Add:
			b.AddExpr(g.pushStr(target, n.Value))
			return
		case (tt.Is(hir.KindList) || tt.Is(hir.KindGeneric)) && n.Op == hir.Add:
			b.AddExpr(rustast.Method(target, "extend", g.ownedIter(n.Value)))
			return
		case tt.Is(hir.KindSet) && n.Op == hir.BitOr:
			b.AddExpr(rustast.Method(target, "extend", g.ownedIter(n.Value)))
			return
		case tt.Is(hir.KindSet) && n.Op == hir.Sub:
			other := g.generateExpr(n.Value)
			b.AddExpr(rustast.Method(target, "retain", &rustast.Closure{
				Params: []string{"_x"},
				Body:   &rustast.Unary{Op: "!", X: rustast.Method(other, "contains", rustast.Name("_x"))},
			}))
			return
		case tt.Is(hir.KindDict) && n.Op == hir.BitOr:
			b.AddExpr(rustast.Method(target, "extend", rustast.Method(g.toOwned(n.Value, g.generateExpr(n.Value)), "into_iter")))
			return
		}
		switch n.Op {
		case hir.FloorDiv, hir.Pow, hir.MatMul:
			b.AddExpr(&rustast.Assign{Target: target, Op: "=", Value: g.binaryExpr(&hir.Binary{Meta: n.Meta, Op: n.Op, Left: n.Target, Right: n.Value}, tt)})
			return
		case hir.Mod, hir.Div:
			if tt.Is(hir.KindInt) || g.fn.zeroDiv > 0 {
				b.AddExpr(&rustast.Assign{Target: target, Op: "=", Value: g.binaryExpr(&hir.Binary{Meta: n.Meta, Op: n.Op, Left: n.Target, Right: n.Value}, tt)})
				return
			}
		}
		want := tt
		if n.Op == hir.LShift || n.Op == hir.RShift {
			want = nil
		}
		b.AddExpr(&rustast.Assign{Target: target, Op: string(n.Op) + "=", Value: g.operand(n.Value, want)})
		return
	}

	// element read-modify-write through a temp
	tmp := g.ctx.Fresh("aug")
	value := g.binaryExpr(&hir.Binary{Meta: n.Meta, Op: n.Op, Left: n.Target, Right: n.Value}, tt)
	b.Add(&rustast.Let{Pattern: tmp, Value: value})
	g.store(b, n.Target, rustast.Name(tmp), nil)
}

// pushStr appends a string value to a String place
func (g *generator) pushStr(target rustast.Expr, value hir.Expr) rustast.Expr {
	if g.formOf(value) == formChar {
		return rustast.Method(target, "push", g.generateExpr(value))
	}
	return rustast.Method(target, "push_str", g.toStr(value, g.generateExpr(value)))
}

// ---------------------------------------------------------------------------
// Return
// ---------------------------------------------------------------------------

func (g *generator) returnStmt(n *hir.Return) rustast.Expr {
	sig := g.fn.sig
	if sig == nil {
		return &rustast.Return{}
	}
	if g.fn.gen != nil {
		return genReturn()
	}
	var value rustast.Expr
	switch {
	case g.fn.ctor != "":
		value = rustast.Name(g.fn.ctor)
	case n.Value == nil:
		if sig.ReturnsOption {
			value = rustast.Name("None")
		}
	case g.fn.retParam != "" && isVarNamed(n.Value, g.fn.retParam):
	case isNone(n.Value):
		if sig.ReturnsOption {
			value = rustast.Name("None")
		}
	case sig.Return == nil && !sig.ReturnsOption:
		line, col := n.Loc()
		g.ctx.Diags.Unsupported(line, col, "return", "value returned from a function without a return type")
	default:
		value = g.convert(n.Value, resultType(sig))
	}
	if sig.CanFail {
		if value == nil {
			value = rustast.Name("()")
		}
		value = rustast.CallPath("Ok", value)
	}
	return &rustast.Return{Value: value}
}

func isVarNamed(e hir.Expr, name string) bool {
	v, ok := e.(*hir.Var)
	return ok && v.Name == name
}

// ---------------------------------------------------------------------------
// Conditionals
// ---------------------------------------------------------------------------

func (g *generator) ifStmt(b *rustast.Block, n *hir.If) {
	if ng := g.ctx.NoneGuards[n]; ng != nil && g.noneGuard(b, n, ng) {
		return
	}
	g.walrusPrelude(b, n.Cond)
	b.AddExpr(g.ifExpr(n))
}

func (g *generator) ifExpr(n *hir.If) *rustast.If {
	return &rustast.If{Cond: g.cond(n.Cond), Then: g.block(n.Body), Else: g.elseBranch(n.Else)}
}

func (g *generator) elseBranch(stmts []hir.Stmt) rustast.Expr {
	if len(stmts) == 0 {
		return nil
	}
	if elif, ok := stmts[0].(*hir.If); ok && len(stmts) == 1 {
		if g.ctx.NoneGuards[elif] == nil && len(g.ctx.Hoisted[elif]) == 0 && !hasWalrus(elif.Cond) {
			return g.ifExpr(elif)
		}
	}
	return &rustast.BlockExpr{Block: g.block(stmts)}
}

// noneGuard lowers an "is None" / "is not None" test on an optional local to
// if-let or let-else, binding the unwrapped value under the same name
func (g *generator) noneGuard(b *rustast.Block, n *hir.If, ng *genctx.NoneGuard) bool {
	sym := g.ctx.Lookup(ng.Var)
	if sym == nil || sym.Kind == genctx.SymField {
		return false
	}
	inner := sym.Type.Elem()
	id := g.localIdent(ng.Var)
	switch {
	case ng.Some:
		var value rustast.Expr = rustast.Name(id)
		borrow := genctx.Shared
		switch sym.Borrow {
		case genctx.Owned:
			value = &rustast.Borrow{X: value}
		case genctx.Unique:
			borrow = genctx.Unique
		}
		g.ctx.PushScope()
		g.ctx.Scope().Bind(&genctx.Symbol{Name: ng.Var, Type: inner, Borrow: borrow, Kind: genctx.SymLocal, Assigned: true})
		then := g.block(n.Body)
		g.ctx.PopScope()
		b.AddExpr(&rustast.IfLet{Pattern: "Some(" + id + ")", Value: value, Then: then, Else: g.elseBranch(n.Else)})
		return true
	case ng.Diverges:
		els := g.block(n.Body)
		pattern := id
		mut := sym.Borrow == genctx.Owned && g.ctx.IsMutable(g.ctx.Current, ng.Var)
		if mut {
			pattern = "mut " + id
		}
		b.Add(&rustast.Let{Pattern: "Some(" + pattern + ")", Value: rustast.Name(id), Else: els})
		g.ctx.Scope().Bind(&genctx.Symbol{Name: ng.Var, Type: inner, Borrow: sym.Borrow, Mutable: mut, Kind: genctx.SymLocal, Assigned: true})
		g.ctx.Unwrapped.Insert(ng.Var)
		return true
	}
	return false
}

// walrusTargets lists the named expressions of a condition, outside
// lambdas and comprehensions
func walrusTargets(e hir.Expr) []*hir.NamedExpr {
	var out []*hir.NamedExpr
	if e == nil {
		return nil
	}
	hir.Inspect(e, func(n hir.Node) bool {
		switch x := n.(type) {
		case *hir.NamedExpr:
			out = append(out, x)
		case *hir.Lambda, *hir.Comprehension:
			return false
		}
		return true
	})
	return out
}

func hasWalrus(e hir.Expr) bool {
	return len(walrusTargets(e)) > 0
}

// walrusPrelude binds the targets of named expressions in cond before the
// statement that tests it
func (g *generator) walrusPrelude(b *rustast.Block, cond hir.Expr) {
	for _, ne := range walrusTargets(cond) {
		t := g.ctx.VarType(g.ctx.Current, ne.Target)
		if t.IsUnknown() {
			t = g.typeOf(ne.Value)
		}
		value := g.convert(ne.Value, t)
		if sym := g.ctx.Lookup(ne.Target); sym != nil {
			b.AddExpr(&rustast.Assign{Target: g.lvalue(&hir.Var{Name: ne.Target}), Op: "=", Value: value})
			continue
		}
		mut := g.ctx.IsMutable(g.ctx.Current, ne.Target)
		b.Add(&rustast.Let{Mut: mut, Pattern: g.ident(ne.Target), Value: value})
		g.ctx.Scope().Bind(&genctx.Symbol{Name: ne.Target, Type: t, Mutable: mut, Kind: genctx.SymLocal, Assigned: true})
	}
}

// ---------------------------------------------------------------------------
// Loops
// ---------------------------------------------------------------------------

func isTrue(e hir.Expr) bool {
	l, ok := e.(*hir.Literal)
	return ok && ((l.Kind == hir.LitBool && l.Value == "True") || (l.Kind == hir.LitInt && l.Value == "1"))
}

// pushLoop enters a loop. A loop with an else clause gets a break flag
// declared in b.
func (g *generator) pushLoop(b *rustast.Block, hasElse bool) *loopState {
	ls := &loopState{tries: g.fn.tries}
	if hasElse {
		ls.flag = g.ctx.Fresh("broke")
		b.Add(&rustast.Let{Mut: true, Pattern: ls.flag, Value: &rustast.Lit{Text: "false"}})
	}
	g.fn.loops = append(g.fn.loops, ls)
	return ls
}

func (g *generator) popLoop(ls *loopState, loop rustast.Expr) {
	g.fn.loops = g.fn.loops[:len(g.fn.loops)-1]
	if ls.label == "" {
		return
	}
	switch n := loop.(type) {
	case *rustast.Loop:
		n.Label = ls.label
	case *rustast.While:
		n.Label = ls.label
	case *rustast.For:
		n.Label = ls.label
	}
}

// loopElse runs the else clause when the loop ended without break
func (g *generator) loopElse(b *rustast.Block, ls *loopState, els []hir.Stmt) {
	if ls.flag == "" {
		return
	}
	b.AddExpr(&rustast.If{Cond: &rustast.Unary{Op: "!", X: rustast.Name(ls.flag)}, Then: g.block(els)})
}

func (g *generator) currentLoop() *loopState {
	if n := len(g.fn.loops); n > 0 {
		return g.fn.loops[n-1]
	}
	return nil
}

// loopLabel names the innermost loop when a jump leaves a labeled try block
func (g *generator) loopLabel(ls *loopState) string {
	if g.fn.tries <= ls.tries {
		return ""
	}
	if ls.label == "" {
		ls.label = strings.TrimPrefix(g.ctx.Fresh("loop"), "_")
	}
	return ls.label
}

func (g *generator) breakStmt(n *hir.Break) rustast.Expr {
	ls := g.currentLoop()
	if ls == nil {
		line, col := n.Loc()
		g.ctx.Diags.Unsupported(line, col, "break", "break outside a loop")
		return &rustast.Macro{Name: "unreachable"}
	}
	if ls.gen != nil {
		return &rustast.BlockExpr{Block: jumpTo(ls.gen.exit)}
	}
	brk := &rustast.Break{Label: g.loopLabel(ls)}
	if ls.flag == "" {
		return brk
	}
	return &rustast.BlockExpr{Block: stmtBlock(
		&rustast.Assign{Target: rustast.Name(ls.flag), Op: "=", Value: &rustast.Lit{Text: "true"}},
		brk,
	)}
}

func (g *generator) continueStmt(n *hir.Continue) rustast.Expr {
	ls := g.currentLoop()
	if ls == nil {
		line, col := n.Loc()
		g.ctx.Diags.Unsupported(line, col, "continue", "continue outside a loop")
		return &rustast.Macro{Name: "unreachable"}
	}
	if ls.gen != nil {
		return &rustast.BlockExpr{Block: jumpTo(ls.gen.head)}
	}
	return &rustast.Continue{Label: g.loopLabel(ls)}
}

func (g *generator) whileStmt(b *rustast.Block, n *hir.While) {
	ls := g.pushLoop(b, len(n.Else) > 0)
	var loop rustast.Expr
	switch {
	case isTrue(n.Cond):
		loop = &rustast.Loop{Body: g.block(n.Body)}
	case hasWalrus(n.Cond):
		g.ctx.PushScope()
		body := &rustast.Block{}
		g.walrusPrelude(body, n.Cond)
		body.AddExpr(&rustast.If{
			Cond: &rustast.Unary{Op: "!", X: g.cond(n.Cond)},
			Then: stmtBlock(&rustast.Break{}),
		})
		g.stmts(body, n.Body)
		g.ctx.PopScope()
		loop = &rustast.Loop{Body: body}
	default:
		loop = &rustast.While{Cond: g.cond(n.Cond), Body: g.block(n.Body)}
	}
	g.popLoop(ls, loop)
	b.AddExpr(loop)
	g.loopElse(b, ls, n.Else)
}

func (g *generator) forStmt(b *rustast.Block, n *hir.For) {
	if n.IsAsync {
		line, col := n.Loc()
		g.ctx.Diags.Unsupported(line, col, "async for", "async iteration is lowered as a plain loop")
	}
	iter, shape, _ := g.iterate(n.Iter, false)
	ls := g.pushLoop(b, len(n.Else) > 0)
	g.ctx.PushScope()
	var prologue []rustast.Stmt
	pattern := g.bindPattern(n.Target, shape, &prologue)
	body := &rustast.Block{Stmts: prologue}
	g.stmts(body, n.Body)
	g.releaseChars(n.Target, shape)
	g.ctx.PopScope()
	loop := &rustast.For{Pattern: pattern, Iter: iter, Body: body}
	g.popLoop(ls, loop)
	b.AddExpr(loop)
	g.loopElse(b, ls, n.Else)
}

// ---------------------------------------------------------------------------
// With, del, assert
// ---------------------------------------------------------------------------

// withStmt lowers a with statement to a scoped block; the bound resources
// are released when the block ends
func (g *generator) withStmt(b *rustast.Block, n *hir.With) {
	g.ctx.PushScope()
	inner := &rustast.Block{}
	for _, it := range n.Items {
		ct := g.typeOf(it.Context)
		val := g.toOwned(it.Context, g.generateExpr(it.Context))
		v, ok := it.Target.(*hir.Var)
		if !ok {
			if it.Target != nil {
				line, col := n.Loc()
				g.ctx.Diags.Unsupported(line, col, "with", "unsupported with target")
			}
			inner.Add(&rustast.Let{Pattern: g.ctx.Fresh("guard"), Value: val})
			continue
		}
		mut := g.ctx.IsMutable(g.ctx.Current, v.Name) || (ct.Is(hir.KindCustom) && ct.Name == "File")
		inner.Add(&rustast.Let{Mut: mut, Pattern: g.ident(v.Name), Value: val})
		g.ctx.Scope().Bind(&genctx.Symbol{Name: v.Name, Type: ct, Mutable: mut, Kind: genctx.SymLocal, Assigned: true})
	}
	g.stmts(inner, n.Body)
	g.ctx.PopScope()
	b.AddExpr(&rustast.BlockExpr{Block: inner})
}

func (g *generator) deleteStmt(b *rustast.Block, n *hir.Delete) {
	for _, t := range n.Targets {
		switch tg := t.(type) {
		case *hir.Index:
			recvT := g.typeOf(tg.Recv)
			recv := g.lvalue(tg.Recv)
			if recvT.Is(hir.KindDict) || isDictLike(recvT) {
				b.AddExpr(rustast.Method(recv, "remove", g.keyRef(tg.Key)))
				continue
			}
			b.AddExpr(rustast.Method(recv, "remove", g.usizeIndex(tg.Key, recv, "len")))
		case *hir.Var:
			b.AddExpr(rustast.CallPath("drop", g.varExpr(tg)))
		default:
			line, col := n.Loc()
			g.ctx.Diags.Unsupported(line, col, "del", "unsupported del target")
		}
	}
}

func (g *generator) assertStmt(n *hir.Assert) rustast.Expr {
	var msg []rustast.Expr
	if n.Msg != nil {
		msg = []rustast.Expr{rustast.Str("{}"), g.generateExpr(n.Msg)}
	}
	if cmp, ok := n.Test.(*hir.Compare); ok && len(cmp.Ops) == 1 && !isNone(cmp.Comparators[0]) {
		switch cmp.Ops[0] {
		case hir.Eq, hir.NotEq:
			l, r := g.compareOperands(cmp.Left, cmp.Comparators[0])
			name := "assert_eq"
			if cmp.Ops[0] == hir.NotEq {
				name = "assert_ne"
			}
			return &rustast.Macro{Name: name, Args: append([]rustast.Expr{l, r}, msg...)}
		}
	}
	return &rustast.Macro{Name: "assert", Args: append([]rustast.Expr{g.cond(n.Test)}, msg...)}
}
