package analysis

import (
	"github.com/paiml/depyler-sub010/internal/genctx"
	"github.com/paiml/depyler-sub010/internal/hir"
)

// registerSignatures is phase A of the signature pass: declared parameter
// and return annotations for every function, method and the main block
func (a *analyzer) registerSignatures() {
	for _, fn := range a.mod.Functions() {
		a.register("", fn)
	}
	for _, cls := range a.mod.Classes() {
		for _, m := range cls.Methods {
			a.register(cls.Name, m)
		}
	}
	if mb := a.mod.Main(); mb != nil {
		fn := &hir.Function{Meta: mb.Meta, Name: MainKey, Body: mb.Body}
		a.register("", fn)
	}
	// nested definitions are emitted as inner items and resolved by name
	for _, sig := range append([]*genctx.FuncSig(nil), a.funcs...) {
		hir.InspectStmts(sig.Func.Body, func(n hir.Node) bool {
			if fd, ok := n.(*hir.FunctionDef); ok {
				if a.ctx.Sig(fd.Func.Name) == nil {
					a.register("", fd.Func)
				}
			}
			return true
		})
	}
}

func (a *analyzer) register(class string, fn *hir.Function) {
	key := funcKey(class, fn.Name)
	sig := &genctx.FuncSig{
		Key:     key,
		Name:    fn.Name,
		Class:   class,
		Func:    fn,
		IsAsync: fn.IsAsync,
	}
	if fn.IsMethod && !fn.IsStatic && !fn.IsClassMethod {
		sig.SelfBorrow = genctx.Shared
	}
	for _, p := range fn.PositionalParams() {
		sig.Params = append(sig.Params, a.paramInfo(fn, p))
	}
	for _, p := range fn.Params {
		switch p.Kind {
		case hir.Varargs:
			info := a.paramInfo(fn, p)
			info.Type = hir.ListOf(info.Type)
			info.Borrow = genctx.Shared
			sig.Params = append(sig.Params, info)
			sig.IsVariadic = true
			a.ctx.VarargFuncs.Insert(key)
		case hir.Kwargs:
			line, col := fn.Loc()
			a.ctx.Diags.Unsupported(line, col, "**kwargs parameter", "parameter %s of %s is dropped", p.Name, fn.Name)
		}
	}

	sig.IsGenerator = class == "" && !fn.IsAsync && hir.ContainsYield(fn.Body...)
	if rt := fn.ReturnType; rt != nil && !rt.Is(hir.KindNone) {
		if rt.Is(hir.KindOptional) {
			sig.Return = rt.Elem()
			sig.ReturnsOption = true
		} else {
			sig.Return = rt
		}
	}
	a.ctx.Functions[key] = sig
	a.funcs = append(a.funcs, sig)
}

func (a *analyzer) paramInfo(fn *hir.Function, p *hir.Param) *genctx.ParamInfo {
	info := &genctx.ParamInfo{Name: p.Name, Type: p.Type, Default: p.Default, Kind: p.Kind}
	if info.Type == nil && p.Default != nil {
		if t := TypeOf(a.ctx, p.Default); !t.Is(hir.KindNone) {
			info.Type = t
		} else {
			info.Type = hir.OptionalOf(hir.TypeUnknown)
		}
	}
	if info.Type == nil {
		info.Type = hir.TypeUnknown
	}
	if info.Type.Is(hir.KindOptional) {
		info.Optional = true
	}
	return info
}

// CalleeSig resolves a call to the signature of a module function, a class
// constructor or a method of a user class. It returns nil for builtins,
// imported functions and unknown callees.
func CalleeSig(c *genctx.Context, e hir.Expr) *genctx.FuncSig {
	switch n := e.(type) {
	case *hir.Call:
		if n.Callee != nil || c.Lookup(n.Func) != nil {
			return nil
		}
		if c.IsClass(n.Func) {
			return methodSig(c, n.Func, "__init__")
		}
		if n.Func == MainKey {
			return nil
		}
		return c.Sig(n.Func)
	case *hir.MethodCall:
		if v, ok := n.Recv.(*hir.Var); ok && c.IsClass(v.Name) && c.Lookup(v.Name) == nil {
			return methodSig(c, v.Name, n.Method)
		}
		recv := TypeOf(c, n.Recv)
		if recv.Is(hir.KindOptional) {
			recv = recv.Elem()
		}
		if recv.Is(hir.KindCustom) && c.IsClass(recv.Name) {
			return methodSig(c, recv.Name, n.Method)
		}
	}
	return nil
}

// methodSig finds a method on class or its single-inheritance bases
func methodSig(c *genctx.Context, class, method string) *genctx.FuncSig {
	seen := map[string]bool{}
	for class != "" && !seen[class] {
		seen[class] = true
		if sig := c.Sig(funcKey(class, method)); sig != nil {
			return sig
		}
		cls, ok := c.Classes[class]
		if !ok || len(cls.Bases) == 0 {
			return nil
		}
		class = cls.Bases[0]
	}
	return nil
}

// inferLocals runs forward local type inference for every function. It runs
// twice so that callers see the inferred return types of functions defined
// after them.
func (a *analyzer) inferLocals() {
	for round := 0; round < 2; round++ {
		for _, sig := range a.funcs {
			a.enter(sig)
			a.inferStmts(sig.Key, sig.Func.Body)
			switch {
			case sig.IsGenerator:
				a.inferYield(sig)
			case sig.Func.ReturnType == nil && sig.Name != "__init__":
				a.inferReturn(sig)
			}
		}
	}
}

func (a *analyzer) bindLocal(fn, name string, t *hir.Type, declared bool) {
	vars, ok := a.ctx.VarTypes[fn]
	if !ok {
		vars = make(map[string]*hir.Type)
		a.ctx.VarTypes[fn] = vars
	}
	if sym := a.ctx.Scope().ResolveLocal(name); sym != nil && sym.Kind == genctx.SymParam {
		return
	}
	old := vars[name]
	switch {
	case declared || old == nil:
		vars[name] = t
	default:
		if j := Join(old, t); j != nil {
			vars[name] = j
		}
	}
	if vars[name].Is(hir.KindOptional) {
		a.ctx.MarkOptional(fn, name)
	}
	a.ctx.Scope().Bind(&genctx.Symbol{Name: name, Type: vars[name], Kind: genctx.SymLocal, Assigned: true})
}

func (a *analyzer) bindTarget(fn string, target hir.Expr, t *hir.Type) {
	switch tg := target.(type) {
	case *hir.Var:
		a.bindLocal(fn, tg.Name, t, false)
	case *hir.TupleLit, *hir.ListLit:
		var elems []hir.Expr
		if tl, ok := tg.(*hir.TupleLit); ok {
			elems = tl.Elems
		} else {
			elems = tg.(*hir.ListLit).Elems
		}
		for i, el := range elems {
			et := hir.TypeUnknown
			switch {
			case t.Is(hir.KindTuple) && i < len(t.Elems):
				et = t.Elems[i]
			case t.Is(hir.KindList):
				et = t.Elem()
			}
			if s, ok := el.(*hir.Starred); ok {
				a.bindTarget(fn, s.Value, hir.ListOf(et))
				continue
			}
			a.bindTarget(fn, el, et)
		}
	}
}

func (a *analyzer) inferStmts(fn string, stmts []hir.Stmt) {
	for _, s := range stmts {
		a.inferStmt(fn, s)
	}
}

func (a *analyzer) inferStmt(fn string, s hir.Stmt) {
	switch n := s.(type) {
	case *hir.Assign:
		a.inferCond(fn, n.Value)
		if v, ok := n.Target.(*hir.Var); ok && n.Annotation != nil {
			a.bindLocal(fn, v.Name, n.Annotation, true)
			return
		}
		if n.Value == nil {
			return
		}
		t := TypeOf(a.ctx, n.Value)
		if v, ok := n.Target.(*hir.Var); ok {
			// an empty literal takes its element type from later use
			if old := a.ctx.VarType(fn, v.Name); old != nil && t.IsCollection() && !t.IsFullyKnown() && old.Kind == t.Kind {
				t = old.Unify(t)
			}
		}
		a.bindTarget(fn, n.Target, t)
	case *hir.AugAssign:
		if v, ok := n.Target.(*hir.Var); ok {
			t := binaryType(n.Op, TypeOf(a.ctx, v), TypeOf(a.ctx, n.Value))
			a.bindLocal(fn, v.Name, t, false)
		}
	case *hir.If:
		a.inferCond(fn, n.Cond)
		a.inferStmts(fn, n.Body)
		a.inferStmts(fn, n.Else)
	case *hir.While:
		a.inferCond(fn, n.Cond)
		a.inferStmts(fn, n.Body)
		a.inferStmts(fn, n.Else)
	case *hir.For:
		a.bindTarget(fn, n.Target, LoopElemType(a.ctx, n.Iter))
		a.inferStmts(fn, n.Body)
		a.inferStmts(fn, n.Else)
	case *hir.Try:
		a.inferStmts(fn, n.Body)
		for _, h := range n.Handlers {
			if h.Name != "" {
				name := "Exception"
				if len(h.Types) == 1 {
					name = h.Types[0]
				}
				a.bindLocal(fn, h.Name, hir.CustomType(name), true)
			}
			a.inferStmts(fn, h.Body)
		}
		a.inferStmts(fn, n.Else)
		a.inferStmts(fn, n.Finally)
	case *hir.With:
		for _, it := range n.Items {
			if it.Target != nil {
				a.bindTarget(fn, it.Target, TypeOf(a.ctx, it.Context))
			}
		}
		a.inferStmts(fn, n.Body)
	case *hir.ExprStmt:
		a.inferCond(fn, n.Value)
		a.refineFromMutation(fn, n.Value)
	}
}

// inferCond binds walrus targets
func (a *analyzer) inferCond(fn string, e hir.Expr) {
	if e == nil {
		return
	}
	hir.Inspect(e, func(n hir.Node) bool {
		switch x := n.(type) {
		case *hir.NamedExpr:
			a.bindLocal(fn, x.Target, TypeOf(a.ctx, x.Value), false)
		case *hir.Lambda, *hir.Comprehension:
			return false
		}
		return true
	})
}

// refineFromMutation fills an empty collection's element type from the
// first append/add/setitem-like call on it
func (a *analyzer) refineFromMutation(fn string, e hir.Expr) {
	mc, ok := e.(*hir.MethodCall)
	if !ok || len(mc.Args) == 0 {
		return
	}
	v, ok := mc.Recv.(*hir.Var)
	if !ok {
		return
	}
	cur := a.ctx.VarType(fn, v.Name)
	if cur == nil || cur.IsFullyKnown() {
		return
	}
	arg := TypeOf(a.ctx, mc.Args[0])
	var refined *hir.Type
	switch {
	case cur.Is(hir.KindList) && (mc.Method == "append" || mc.Method == "insert"):
		if mc.Method == "insert" && len(mc.Args) == 2 {
			arg = TypeOf(a.ctx, mc.Args[1])
		}
		refined = hir.ListOf(arg)
	case cur.Is(hir.KindList) && mc.Method == "extend":
		refined = hir.ListOf(LoopElemType(a.ctx, mc.Args[0]))
	case cur.Is(hir.KindSet) && mc.Method == "add":
		refined = hir.SetOf(arg)
	}
	if refined != nil {
		a.bindLocal(fn, v.Name, cur.Unify(refined), true)
	}
}

// inferReturn types an unannotated function from its return statements
func (a *analyzer) inferReturn(sig *genctx.FuncSig) {
	var (
		out      *hir.Type
		sawNone  bool
		sawValue bool
	)
	hir.InspectStmts(sig.Func.Body, func(n hir.Node) bool {
		switch r := n.(type) {
		case *hir.FunctionDef, *hir.ClassDef, *hir.Lambda:
			return false
		case *hir.Return:
			if r.Value == nil || isNone(r.Value) {
				sawNone = true
				return false
			}
			sawValue = true
			t := TypeOf(a.ctx, r.Value)
			if out == nil {
				out = t
			} else if j := Join(out, t); j != nil {
				out = j
			}
		}
		return true
	})
	if !sawValue {
		sig.Return = nil
		return
	}
	if out.Is(hir.KindOptional) {
		out = out.Elem()
		sawNone = true
	}
	sig.Return = out
	if sawNone {
		sig.ReturnsOption = true
		a.ctx.Trace("return", sig.Key, "Option", "returns both None and a value")
	}
}

// inferYield types a generator as an Iterator over the join of its yielded
// values. A declared Iterator or Generator annotation is kept.
func (a *analyzer) inferYield(sig *genctx.FuncSig) {
	sig.ReturnsOption = false
	if rt := sig.Func.ReturnType; rt.Is(hir.KindGeneric) && rt.Name == "Iterator" {
		sig.Return = rt
		return
	}
	var item *hir.Type
	hir.InspectStmts(sig.Func.Body, func(n hir.Node) bool {
		switch y := n.(type) {
		case *hir.FunctionDef, *hir.ClassDef, *hir.Lambda:
			return false
		case *hir.Yield:
			t := hir.TypeNone
			if y.Value != nil {
				t = TypeOf(a.ctx, y.Value)
			}
			if item == nil {
				item = t
			} else if j := Join(item, t); j != nil {
				item = j
			}
		}
		return true
	})
	sig.Return = hir.GenericType("Iterator", item)
	a.ctx.Trace("return", sig.Key, "Iterator", "function body yields")
}

func isNone(e hir.Expr) bool {
	l, ok := e.(*hir.Literal)
	return ok && l.Kind == hir.LitNone
}
