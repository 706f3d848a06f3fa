package rustgen

import (
	"strings"

	"github.com/paiml/depyler-sub010/internal/analysis"
	"github.com/paiml/depyler-sub010/internal/genctx"
	"github.com/paiml/depyler-sub010/internal/hir"
	"github.com/paiml/depyler-sub010/internal/registry"
	"github.com/paiml/depyler-sub010/internal/rustast"
)

// Call dispatch tries, in order: local bindings, user functions and
// classes, imported registry entries, builtins. User definitions shadow
// builtins of the same name.

func (g *generator) callExpr(n *hir.Call) rustast.Expr {
	return g.lowerCall(n, false)
}

func (g *generator) methodCallExpr(n *hir.MethodCall) rustast.Expr {
	return g.lowerMethodCall(n, false)
}

// lowerCall lowers f(args). discard is set when the value is unused.
func (g *generator) lowerCall(n *hir.Call, discard bool) rustast.Expr {
	if n.Callee != nil {
		return &rustast.Call{Func: g.generateExpr(n.Callee), Args: g.plainArgs(n.Args)}
	}
	name := n.Func
	if g.fn != nil && g.fn.cls != "" && name == g.fn.cls && g.fn.sig != nil {
		return g.constructCall(n, g.fn.sig.Class, "Self")
	}
	if g.ctx.Lookup(name) != nil {
		// a closure or function value held in a local
		return &rustast.Call{Func: g.varExpr(&hir.Var{Meta: n.Meta, Name: name}), Args: g.plainArgs(n.Args)}
	}
	if sig := g.ctx.Sig(name); sig != nil && name != analysis.MainKey && sig.Class == "" {
		return g.userCall(sig, n.Args, n.Kwargs, discard, func(args []rustast.Expr) rustast.Expr {
			return rustast.CallPath(g.fnName(name), args...)
		})
	}
	if g.ctx.IsClass(name) {
		if g.isExceptionName(name) {
			return g.exceptionValue(name, n.Args)
		}
		return g.constructCall(n, name, name)
	}
	if imp, ok := g.ctx.ImportedItems[name]; ok {
		if imp.Known {
			return g.entryCall(imp.Entry, n.Args, n.Kwargs, n)
		}
		line, col := n.Loc()
		g.ctx.Diags.Unresolved(line, col, imp.Python)
		return rustast.CallPath(g.ident(name), g.plainArgs(n.Args)...)
	}
	if registry.IsExceptionType(name) {
		return g.exceptionValue(name, n.Args)
	}
	if registry.IsBuiltin(name) {
		return g.builtinCall(n)
	}
	line, col := n.Loc()
	g.ctx.Diags.Unresolved(line, col, name)
	return rustast.CallPath(g.ident(name), g.plainArgs(n.Args)...)
}

// plainArgs lowers arguments for a callee without a known signature
func (g *generator) plainArgs(args []hir.Expr) []rustast.Expr {
	out := make([]rustast.Expr, len(args))
	for i, a := range args {
		out[i] = g.adjust(a, g.generateExpr(a), nil)
	}
	return out
}

// ctorSig finds the signature new() is generated from: the class's own
// __init__ or dataclass fields, else the nearest base constructor
func (g *generator) ctorSig(class string) *genctx.FuncSig {
	seen := map[string]bool{}
	for name := class; name != "" && !seen[name]; {
		seen[name] = true
		cls, ok := g.ctx.Classes[name]
		if !ok {
			return nil
		}
		if cls.Method("__init__") != nil || cls.IsDataclass || len(cls.Bases) == 0 || !g.ctx.IsClass(cls.Bases[0]) {
			return g.ctx.Sig(name + ".__init__")
		}
		name = cls.Bases[0]
	}
	return nil
}

// constructCall lowers Class(args) to path::new(args)
func (g *generator) constructCall(n *hir.Call, class, path string) rustast.Expr {
	sig := g.ctorSig(class)
	if sig == nil {
		return rustast.CallPath(path+"::new", g.plainArgs(n.Args)...)
	}
	return g.userCall(sig, n.Args, n.Kwargs, false, func(args []rustast.Expr) rustast.Expr {
		return rustast.CallPath(path+"::new", args...)
	})
}

// userCall lowers a call of a user function or method. build assembles the
// call from the adjusted arguments.
func (g *generator) userCall(sig *genctx.FuncSig, args []hir.Expr, kwargs []*hir.Kwarg, discard bool, build func([]rustast.Expr) rustast.Expr) rustast.Expr {
	bound := g.bindArgs(sig, args, kwargs)
	call := build(g.userArgs(sig, bound))
	if sig.CanFail {
		call = g.propagate(call)
	}
	if sig.MutReturnRewrite && !discard {
		// the callee mutates its argument in place; the value is the argument
		ret := returnedParam(sig)
		for i, p := range sig.Params {
			if p.Name == ret && bound.fixed[i] != nil {
				arg := g.lvalue(bound.fixed[i])
				return &rustast.BlockExpr{Block: &rustast.Block{
					Stmts: []rustast.Stmt{&rustast.ExprStmt{X: call}},
					Tail:  rustast.Method(arg, "clone"),
				}}
			}
		}
	}
	return call
}

// boundArgs are call arguments matched to parameters
type boundArgs struct {
	fixed []hir.Expr
	rest  []hir.Expr
}

func (g *generator) bindArgs(sig *genctx.FuncSig, args []hir.Expr, kwargs []*hir.Kwarg) boundArgs {
	out := boundArgs{fixed: make([]hir.Expr, len(sig.Params))}
	pos := 0
	for _, a := range args {
		for pos < len(sig.Params) && sig.Params[pos].Kind != hir.Positional {
			pos++
		}
		if pos < len(sig.Params) {
			out.fixed[pos] = a
			pos++
			continue
		}
		out.rest = append(out.rest, a)
	}
	for _, kw := range kwargs {
		found := false
		for i, p := range sig.Params {
			if p.Name == kw.Name && p.Kind != hir.Varargs {
				out.fixed[i] = kw.Value
				found = true
				break
			}
		}
		if !found {
			line, col := kw.Value.Loc()
			g.ctx.Diags.Errorf(line, col, "%s() got an unexpected keyword argument %q", sig.Name, kw.Name)
		}
	}
	if len(out.rest) > 0 && !sig.IsVariadic {
		line, col := out.rest[0].Loc()
		g.ctx.Diags.Errorf(line, col, "%s() takes %d positional arguments but more were given", sig.Name, sig.Arity())
	}
	return out
}

// userArgs adjusts bound arguments to the parameters of sig, filling
// defaults and packing varargs into a slice
func (g *generator) userArgs(sig *genctx.FuncSig, bound boundArgs) []rustast.Expr {
	var out []rustast.Expr
	for i, p := range sig.Params {
		switch {
		case p.Kind == hir.Varargs:
			out = append(out, g.varargs(p, bound.rest))
		case bound.fixed[i] != nil:
			out = append(out, g.adjustArg(bound.fixed[i], p))
		case p.Default != nil:
			out = append(out, g.adjust(p.Default, g.exprWant(p.Default, paramWant(p)), p))
		default:
			g.ctx.Diags.Errorf(0, 0, "%s() missing required argument %q", sig.Name, p.Name)
			out = append(out, rustast.CallPath("Default::default"))
		}
	}
	return out
}

func (g *generator) varargs(p *genctx.ParamInfo, rest []hir.Expr) rustast.Expr {
	if len(rest) == 1 {
		if s, ok := rest[0].(*hir.Starred); ok {
			return g.raw("&" + rustast.RenderOperand(g.generateExpr(s.Value)) + "[..]")
		}
	}
	elems := make([]rustast.Expr, len(rest))
	for i, a := range rest {
		elems[i] = g.convert(a, p.Type.Elem())
	}
	return g.raw("&[" + renderList(elems) + "]")
}

// lowerMethodCall lowers recv.m(args): module functions, type
// constructors, user methods, then the method-on-receiver registry
func (g *generator) lowerMethodCall(n *hir.MethodCall, discard bool) rustast.Expr {
	if dotted := analysis.ResolveDotted(g.ctx, n.Recv); dotted != "" {
		full := dotted + "." + n.Method
		if e, ok := registry.Lookup(full); ok {
			return g.entryCall(e, n.Args, n.Kwargs, n)
		}
		line, col := n.Loc()
		g.ctx.Diags.Unresolved(line, col, full)
		return rustast.CallPath(strings.ReplaceAll(full, ".", "::"), g.plainArgs(n.Args)...)
	}
	if v, ok := n.Recv.(*hir.Var); ok && g.ctx.Lookup(v.Name) == nil && !g.ctx.IsClass(v.Name) {
		if _, ok := registry.LookupBuiltin(v.Name + "." + n.Method); ok {
			return g.typeConstructorCall(v.Name+"."+n.Method, n)
		}
	}
	if c, ok := n.Recv.(*hir.Call); ok && c.Callee == nil && c.Func == "super" {
		return g.superCall(n)
	}
	if v, ok := n.Recv.(*hir.Var); ok && g.fn != nil && g.fn.cls != "" && v.Name == g.fn.cls && g.fn.sig != nil {
		if sig := g.ctx.Sig(g.fn.sig.Class + "." + n.Method); sig != nil {
			return g.userCall(sig, n.Args, n.Kwargs, discard, func(args []rustast.Expr) rustast.Expr {
				return rustast.CallPath("Self::"+g.ident(n.Method), args...)
			})
		}
	}
	if sig := analysis.CalleeSig(g.ctx, n); sig != nil {
		return g.userMethodCall(n, sig, discard)
	}
	return g.registryMethodCall(n)
}

func (g *generator) userMethodCall(n *hir.MethodCall, sig *genctx.FuncSig, discard bool) rustast.Expr {
	method := g.ident(n.Method)
	if v, ok := n.Recv.(*hir.Var); ok && g.ctx.Lookup(v.Name) == nil && g.ctx.IsClass(v.Name) {
		return g.userCall(sig, n.Args, n.Kwargs, discard, func(args []rustast.Expr) rustast.Expr {
			return rustast.CallPath(v.Name+"::"+method, args...)
		})
	}
	var recv rustast.Expr
	if sig.SelfBorrow == genctx.Unique {
		recv = g.lvalue(n.Recv)
	} else {
		recv = g.generateExpr(n.Recv)
	}
	if g.typeOf(n.Recv).Is(hir.KindOptional) {
		view := "as_ref"
		if sig.SelfBorrow == genctx.Unique {
			view = "as_mut"
		}
		recv = rustast.Method(rustast.Method(recv, view), "expect", rustast.Str("method called on None"))
	}
	return g.userCall(sig, n.Args, n.Kwargs, discard, func(args []rustast.Expr) rustast.Expr {
		return &rustast.MethodCall{Recv: recv, Method: method, Args: args}
	})
}

// superCall lowers super().__init__(...) inside a constructor by building
// the base value and copying its fields
func (g *generator) superCall(n *hir.MethodCall) rustast.Expr {
	line, col := n.Loc()
	if g.fn == nil || g.fn.sig == nil {
		g.ctx.Diags.Unsupported(line, col, "super", "super() outside a method")
		return &rustast.Macro{Name: "unimplemented", Args: []rustast.Expr{rustast.Str("super")}}
	}
	cls := g.ctx.Classes[g.fn.sig.Class]
	if cls == nil || len(cls.Bases) == 0 || !g.ctx.IsClass(cls.Bases[0]) {
		if n.Method == "__init__" {
			// exception and object bases carry no state
			return &rustast.Tuple{}
		}
		g.ctx.Diags.Unsupported(line, col, "super", "super() without a user base class")
		return &rustast.Macro{Name: "unimplemented", Args: []rustast.Expr{rustast.Str("super")}}
	}
	base := cls.Bases[0]
	if n.Method != "__init__" || g.fn.ctor == "" {
		g.ctx.Diags.Unsupported(line, col, "super", "super().%s outside the constructor", n.Method)
		return &rustast.Macro{Name: "unimplemented", Args: []rustast.Expr{rustast.Str("super()." + n.Method)}}
	}
	build := g.constructCall(&hir.Call{Meta: n.Meta, Func: base, Args: n.Args, Kwargs: n.Kwargs}, base, base)
	b := &rustast.Block{}
	b.Add(&rustast.Let{Pattern: "_base", Value: build})
	for _, f := range g.allFields(base) {
		b.AddExpr(&rustast.Assign{
			Target: &rustast.Field{Recv: rustast.Name(g.fn.ctor), Name: g.ident(f.Name)},
			Op:     "=",
			Value:  &rustast.Field{Recv: rustast.Name("_base"), Name: g.ident(f.Name)},
		})
	}
	return &rustast.BlockExpr{Block: b}
}

// registryMethodCall lowers a method of a builtin receiver through the
// method-on-receiver registry
func (g *generator) registryMethodCall(n *hir.MethodCall) rustast.Expr {
	recvT := g.typeOf(n.Recv)
	if recvT.Is(hir.KindOptional) {
		recvT = recvT.Elem()
	}
	kind := registry.ReceiverKindOf(recvT)
	if kind == registry.RecvUnknown && recvT.IsUnknown() {
		if v, ok := n.Recv.(*hir.Var); ok {
			kind = registry.GuessReceiverKind(v.Name)
		}
	}

	switch {
	case n.Method == "sort" && len(n.Kwargs) > 0:
		return g.sortCall(n)
	case n.Method == "format" && kind == registry.RecvString && isStringLit(n.Recv):
		return g.strFormat(n)
	}

	rule, ok := registry.Method(kind, n.Method)
	tmpl := ""
	if ok {
		tmpl, ok = rule.Form(len(n.Args))
	}
	if !ok {
		if kind != registry.RecvUnknown {
			line, col := n.Loc()
			g.ctx.Diags.Unresolved(line, col, kind.String()+"."+n.Method)
		}
		return &rustast.MethodCall{Recv: g.generateExpr(n.Recv), Method: g.ident(n.Method), Args: g.plainArgs(n.Args)}
	}
	if len(n.Kwargs) > 0 {
		line, col := n.Loc()
		g.ctx.Diags.Warningf(line, col, "keyword arguments to %s are ignored", n.Method)
	}

	var recv rustast.Expr
	if rule.Mutating {
		recv = g.lvalue(n.Recv)
	} else {
		recv = g.generateExpr(n.Recv)
	}
	args := make([]rustast.Expr, len(n.Args))
	for i, a := range n.Args {
		args[i] = g.methodArg(rule, kind, recvT, n.Method, i, a)
	}
	return g.raw(expandTemplate(tmpl, recv, args, g.ctx.IntType))
}

// methodArg adjusts argument i of a registry method per its policy
func (g *generator) methodArg(rule registry.MethodRule, kind registry.ReceiverKind, recvT *hir.Type, method string, i int, a hir.Expr) rustast.Expr {
	switch rule.Args {
	case registry.ArgsOwned:
		if method == "insert" && i == 0 {
			return g.generateExpr(a)
		}
		want := recvT.Elem()
		if kind == registry.RecvDict || isDictLike(recvT) {
			want = recvT.Key()
			if i > 0 {
				want = recvT.Value()
			}
		}
		if want.IsUnknown() {
			return g.toOwned(a, g.generateExpr(a))
		}
		return g.convert(a, want)
	case registry.ArgsStr:
		x := g.generateExpr(a)
		if g.typeOf(a).Is(hir.KindString) {
			return g.toStr(a, x)
		}
		return x
	case registry.ArgsKeyRef:
		if i == 0 {
			return g.keyRef(a)
		}
		return g.convert(a, recvT.Value())
	case registry.ArgsBorrowed:
		return g.toRef(a, g.generateExpr(a))
	}
	return g.generateExpr(a)
}

// entryCall lowers a call of a module-registry entry
func (g *generator) entryCall(e registry.Entry, args []hir.Expr, kwargs []*hir.Kwarg, at hir.Node) rustast.Expr {
	g.ctx.UseCrate(e.Crate)
	for _, need := range e.Needs {
		g.ctx.Need(genctx.Flag(need))
	}
	if len(kwargs) > 0 {
		line, col := at.Loc()
		g.ctx.Diags.Warningf(line, col, "keyword arguments to %s are ignored", e.Python)
	}
	lowered := make([]rustast.Expr, len(args))
	for i, a := range args {
		x := g.generateExpr(a)
		if g.typeOf(a).Is(hir.KindString) {
			x = g.toStr(a, x)
		}
		lowered[i] = x
	}
	tmpl, ok := e.Form(len(args))
	if !ok {
		if e.Kind == registry.KindType {
			return g.raw(e.Construct(renderList(lowered)))
		}
		line, col := at.Loc()
		g.ctx.Diags.Unsupported(line, col, "call", "%s does not take %d arguments", e.Python, len(args))
		return &rustast.Macro{Name: "unimplemented", Args: []rustast.Expr{rustast.Str(e.Python)}}
	}
	return g.raw(expandTemplate(tmpl, nil, lowered, g.ctx.IntType))
}

// expandTemplate renders recv and args into a registry template. A
// placeholder standing alone between delimiters takes the bare expression;
// anywhere else the operand is parenthesized as needed.
func expandTemplate(tmpl string, recv rustast.Expr, args []rustast.Expr, intType string) string {
	strs := make([]string, len(args))
	for i, a := range args {
		if standalone(tmpl, "{"+string(rune('0'+i))+"}") {
			strs[i] = rustast.RenderExpr(a)
		} else {
			strs[i] = rustast.RenderOperand(a)
		}
	}
	r := ""
	if recv != nil {
		r = rustast.RenderOperand(recv)
	}
	return registry.Expand(tmpl, r, strs, intType)
}

func standalone(tmpl, ph string) bool {
	found := false
	for i := strings.Index(tmpl, ph); i >= 0; {
		found = true
		before := strings.TrimRight(tmpl[:i], " ")
		after := strings.TrimLeft(tmpl[i+len(ph):], " ")
		okBefore := strings.HasSuffix(before, "(") || strings.HasSuffix(before, ",")
		okAfter := strings.HasPrefix(after, ")") || strings.HasPrefix(after, ",")
		if !okBefore || !okAfter {
			return false
		}
		next := strings.Index(tmpl[i+len(ph):], ph)
		if next < 0 {
			break
		}
		i += len(ph) + next
	}
	return found
}

// sortCall lowers xs.sort(key=..., reverse=...)
func (g *generator) sortCall(n *hir.MethodCall) rustast.Expr {
	b := &rustast.Block{}
	g.sortInto(b, g.lvalue(n.Recv), g.typeOf(n.Recv).Elem(), n.Kwargs)
	return &rustast.BlockExpr{Block: b}
}

// sortInto appends the statements sorting the Vec place recv per the key
// and reverse keyword arguments
func (g *generator) sortInto(b *rustast.Block, recv rustast.Expr, elem *hir.Type, kwargs []*hir.Kwarg) {
	var key hir.Expr
	var reverse rustast.Expr
	for _, kw := range kwargs {
		switch kw.Name {
		case "key":
			key = kw.Value
		case "reverse":
			if lit, ok := kw.Value.(*hir.Literal); ok && lit.Kind == hir.LitBool {
				if lit.Value == "True" {
					reverse = &rustast.Lit{Text: "true"}
				}
				continue
			}
			reverse = g.cond(kw.Value)
		default:
			line, col := kw.Value.Loc()
			g.ctx.Diags.Warningf(line, col, "sort keyword %s is ignored", kw.Name)
		}
	}
	b.AddExpr(g.sortInPlace(recv, elem, key))
	if reverse == nil {
		return
	}
	rev := rustast.Method(recv, "reverse")
	if lit, ok := reverse.(*rustast.Lit); ok && lit.Text == "true" {
		b.AddExpr(rev)
		return
	}
	b.AddExpr(&rustast.If{Cond: reverse, Then: stmtBlock(rev)})
}

// sortInPlace sorts the Vec place recv of elem by an optional key
func (g *generator) sortInPlace(recv rustast.Expr, elem *hir.Type, key hir.Expr) rustast.Expr {
	if key == nil || isNone(key) {
		if elem.Is(hir.KindFloat) {
			return rustast.Method(recv, "sort_by", g.raw("|a, b| a.partial_cmp(b).expect(\"NaN in sort\")"))
		}
		return rustast.Method(recv, "sort")
	}
	keyFn, keyT := g.keyClosure(key, elem)
	if keyT.Is(hir.KindFloat) {
		return rustast.Method(recv, "sort_by", g.raw("|a, b| ("+rustast.RenderOperand(keyFn)+")(a).partial_cmp(&("+rustast.RenderOperand(keyFn)+")(b)).expect(\"NaN in sort key\")"))
	}
	return rustast.Method(recv, "sort_by_key", keyFn)
}

// keyClosure lowers a key function receiving &elem, with the key type
func (g *generator) keyClosure(key hir.Expr, elem *hir.Type) (rustast.Expr, *hir.Type) {
	shape := elemShape{typ: elem, ref: true}
	switch k := key.(type) {
	case *hir.Lambda:
		if len(k.Params) == 1 {
			g.ctx.PushScope()
			g.fn.closure++
			pat := g.bindPattern(&hir.Var{Name: k.Params[0]}, shape, nil)
			kt := g.typeOf(k.Body)
			body := g.toOwned(k.Body, g.generateExpr(k.Body))
			g.fn.closure--
			g.ctx.PopScope()
			return &rustast.Closure{Params: []string{pat}, Body: body}, kt
		}
	case *hir.Var:
		if sig := g.ctx.Sig(k.Name); sig != nil && g.ctx.Lookup(k.Name) == nil {
			var arg rustast.Expr = rustast.Name("_k")
			if p := sig.Param(0); p == nil || p.Borrow == genctx.Owned && !p.StrRef {
				arg = rustast.Method(arg, "clone")
			}
			call := rustast.Expr(rustast.CallPath(g.fnName(k.Name), arg))
			if sig.CanFail {
				call = rustast.Method(call, "unwrap")
			}
			return &rustast.Closure{Params: []string{"_k"}, Body: call}, resultType(sig)
		}
		if g.builtinName(k.Name) {
			b, _ := registry.LookupBuiltin(k.Name)
			return g.builtinValue(k.Name), b.Result([]*hir.Type{elem})
		}
	case *hir.Attribute:
		// key=str.lower
		if v, ok := k.Recv.(*hir.Var); ok && v.Name == "str" {
			if rule, ok := registry.Method(registry.RecvString, k.Name); ok {
				if tmpl, ok := rule.Form(0); ok {
					return g.raw("|_k| " + registry.Expand(tmpl, "_k", nil, g.ctx.IntType)), rule.ResultType(hir.TypeString)
				}
			}
		}
	}
	return &rustast.Closure{Params: []string{"_k"}, Body: &rustast.Call{Func: g.generateExpr(key), Args: []rustast.Expr{rustast.Name("_k")}}}, hir.TypeUnknown
}

// strFormat lowers "template".format(args) to format!
func (g *generator) strFormat(n *hir.MethodCall) rustast.Expr {
	lit := n.Recv.(*hir.Literal)
	var tmpl strings.Builder
	s := lit.Value
	auto := 0
	var args []rustast.Expr
	for i := 0; i < len(s); i++ {
		c := s[i]
		if c == '{' && i+1 < len(s) && s[i+1] == '{' {
			tmpl.WriteString("{{")
			i++
			continue
		}
		if c == '}' && i+1 < len(s) && s[i+1] == '}' {
			tmpl.WriteString("}}")
			i++
			continue
		}
		if c != '{' {
			tmpl.WriteByte(c)
			continue
		}
		end := strings.IndexByte(s[i:], '}')
		if end < 0 {
			tmpl.WriteString(rustast.EscapeFormat(s[i:]))
			break
		}
		field := s[i+1 : i+end]
		i += end
		name, spec, _ := strings.Cut(field, ":")
		var value hir.Expr
		switch {
		case name == "":
			if auto < len(n.Args) {
				value = n.Args[auto]
			}
			auto++
		case name[0] >= '0' && name[0] <= '9':
			idx := int(name[0] - '0')
			if idx < len(n.Args) {
				value = n.Args[idx]
			}
		default:
			for _, kw := range n.Kwargs {
				if kw.Name == name {
					value = kw.Value
				}
			}
		}
		if value == nil {
			line, col := n.Loc()
			g.ctx.Diags.Errorf(line, col, "format field {%s} has no argument", field)
			tmpl.WriteString("{}")
			args = append(args, rustast.Str(""))
			continue
		}
		tmpl.WriteString("{" + g.formatSpec(value, 0, spec) + "}")
		args = append(args, g.generateExpr(value))
	}
	return &rustast.Macro{Name: "format", Args: append([]rustast.Expr{rustast.Str(tmpl.String())}, args...)}
}
