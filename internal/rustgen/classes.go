package rustgen

import (
	"github.com/paiml/depyler-sub010/internal/genctx"
	"github.com/paiml/depyler-sub010/internal/hir"
	"github.com/paiml/depyler-sub010/internal/rustast"
)

// generateClass lowers a class to a struct and its impl blocks. Exception
// classes become variants of the error enum instead.
func (g *generator) generateClass(cls *hir.Class) []rustast.Item {
	if g.isExceptionClass(cls) {
		g.ctx.AddErrorVariant(cls.Name)
		return nil
	}
	fields := g.allFields(cls.Name)
	st := &rustast.Struct{
		Doc:   cls.Docstring,
		Attrs: []string{"derive(Debug, Clone, PartialEq)"},
		Pub:   true,
		Name:  cls.Name,
	}
	if g.defaultable(fields) {
		st.Attrs[0] = "derive(Debug, Clone, PartialEq, Default)"
	}
	for _, f := range fields {
		st.Fields = append(st.Fields, rustast.StructField{Pub: true, Name: g.ident(f.Name), Type: g.fieldType(cls.Name, f)})
	}

	impl := &rustast.Impl{For: rustast.Named(cls.Name)}
	for _, cv := range cls.ClassVars {
		if item := g.classVar(cv); item != nil {
			impl.Items = append(impl.Items, item)
		}
	}
	if sig := g.ctorSig(cls.Name); sig != nil {
		impl.Items = append(impl.Items, g.generateCtor(cls, sig))
	}
	defined := map[string]bool{"__init__": true}
	for _, m := range cls.Methods {
		defined[m.Name] = true
		if sig := g.ctx.Sig(cls.Name + "." + m.Name); sig != nil && m.Name != "__init__" {
			impl.Items = append(impl.Items, g.generateFunction(sig, g.ident(m.Name)))
		}
	}
	// inherited methods are copied into the subclass; the fields they touch
	// were copied with them
	for _, base := range g.bases(cls.Name) {
		for _, m := range g.ctx.Classes[base].Methods {
			if defined[m.Name] {
				continue
			}
			defined[m.Name] = true
			if sig := g.ctx.Sig(base + "." + m.Name); sig != nil {
				impl.Items = append(impl.Items, g.generateFunction(sig, g.ident(m.Name)))
			}
		}
	}

	items := []rustast.Item{st, impl}
	if defined["__str__"] || defined["__repr__"] {
		method := "__str__"
		if !defined["__str__"] {
			method = "__repr__"
		}
		items = append(items, &rustast.RawItem{Text: "impl std::fmt::Display for " + cls.Name + " {\n" +
			"    fn fmt(&self, f: &mut std::fmt::Formatter<'_>) -> std::fmt::Result {\n" +
			"        write!(f, \"{}\", self." + method + "())\n" +
			"    }\n}"})
	}
	return items
}

// bases lists the user base classes of name, nearest first
func (g *generator) bases(name string) []string {
	var out []string
	seen := map[string]bool{name: true}
	for cls := g.ctx.Classes[name]; cls != nil && len(cls.Bases) > 0; {
		base := cls.Bases[0]
		if seen[base] || !g.ctx.IsClass(base) {
			break
		}
		seen[base] = true
		out = append(out, base)
		cls = g.ctx.Classes[base]
	}
	return out
}

// allFields lists the fields of name with inherited ones first
func (g *generator) allFields(name string) []*hir.Field {
	chain := append([]string{name}, g.bases(name)...)
	var out []*hir.Field
	seen := map[string]bool{}
	for i := len(chain) - 1; i >= 0; i-- {
		for _, f := range g.ctx.Classes[chain[i]].Fields {
			if !seen[f.Name] {
				seen[f.Name] = true
				out = append(out, f)
			}
		}
	}
	return out
}

func (g *generator) fieldType(class string, f *hir.Field) rustast.Type {
	if g.ctx.IsRecursiveField(class, f.Name) {
		inner := f.Type
		if inner.Is(hir.KindOptional) {
			inner = inner.Elem()
		}
		return rustast.Named("Option", rustast.Named("Box", g.mapType(inner)))
	}
	return g.mapType(f.Type)
}

// defaultable reports whether every field type implements Default
func (g *generator) defaultable(fields []*hir.Field) bool {
	var ok func(t *hir.Type) bool
	ok = func(t *hir.Type) bool {
		switch t.Kind {
		case hir.KindCustom:
			if cls, found := g.ctx.Classes[t.Name]; found && !g.isExceptionClass(cls) {
				return true
			}
			return isDictLike(t) || t.Name == "deque"
		case hir.KindGeneric, hir.KindTypeVar, hir.KindUnknown:
			return false
		case hir.KindOptional:
			return true
		}
		for _, e := range t.Elems {
			if !ok(e) {
				return false
			}
		}
		return true
	}
	for _, f := range fields {
		if f.Type == nil || !ok(f.Type) {
			return false
		}
	}
	return true
}

// classVar lowers a class attribute to an associated const
func (g *generator) classVar(cv *hir.Field) rustast.Item {
	t := cv.Type
	if t == nil {
		t = g.typeOf(cv.Default)
	}
	name := g.ident(cv.Name)
	if lit, ok := cv.Default.(*hir.Literal); ok && lit.Kind == hir.LitString {
		return &rustast.Const{Pub: true, Name: name, Type: rustast.Ref(rustast.Named("str")), Value: g.literal(lit)}
	}
	if cv.Default != nil && isConstExpr(cv.Default) && t.IsCopy() {
		return &rustast.Const{Pub: true, Name: name, Type: g.mapType(t), Value: g.convert(cv.Default, t)}
	}
	line, col := 0, 0
	if cv.Default != nil {
		line, col = cv.Default.Loc()
	}
	g.ctx.Diags.Unsupported(line, col, "class attribute", "class attribute %s is not a constant expression", cv.Name)
	return nil
}

// generateCtor lowers __init__ (or the generated dataclass constructor) to
// new(). A body that only assigns fields from the parameters becomes a
// struct literal; anything else builds the value in a local.
func (g *generator) generateCtor(cls *hir.Class, sig *genctx.FuncSig) *rustast.Fn {
	saved := g.fn
	defer func() { g.fn = saved }()
	g.fn = &fnState{sig: sig}
	_, params := g.enterFunction(sig)
	out := &rustast.Fn{Doc: sig.Func.Docstring, Pub: true, Name: "new", Params: params, Ret: rustast.Named("Self")}
	if sig.CanFail {
		g.ctx.Need(genctx.NeedErrorType)
		out.Ret = rustast.Named("Result", rustast.Named("Self"), rustast.Named("DepylerError"))
	}
	fields := g.allFields(cls.Name)

	wrap := func(x rustast.Expr) rustast.Expr {
		if sig.CanFail {
			return rustast.CallPath("Ok", x)
		}
		return x
	}

	if sig.Func.Body == nil {
		lit := &rustast.StructLit{Name: "Self"}
		for _, f := range fields {
			var v rustast.Expr
			if p := sig.ParamNamed(f.Name); p != nil {
				v = g.fieldValue(cls.Name, f, &hir.Var{Name: f.Name})
			} else {
				v = g.fieldDefault(cls.Name, f)
			}
			lit.Fields = append(lit.Fields, rustast.FieldInit{Name: g.ident(f.Name), Value: v})
		}
		out.Body = &rustast.Block{Tail: wrap(lit)}
		return out
	}

	self := g.fn.self
	if assigns, ok := directInit(sig.Func.Body, self); ok {
		lit := &rustast.StructLit{Name: "Self"}
		for _, f := range fields {
			var v rustast.Expr
			if value, ok := assigns[f.Name]; ok {
				v = g.fieldValue(cls.Name, f, value)
			} else {
				v = g.fieldDefault(cls.Name, f)
			}
			lit.Fields = append(lit.Fields, rustast.FieldInit{Name: g.ident(f.Name), Value: v})
		}
		out.Body = &rustast.Block{Tail: wrap(lit)}
		return out
	}

	// self is rebound as a mutable local named self_
	g.fn.self = ""
	g.fn.ctor = "self_"
	g.setAlias(self, "self_")
	g.ctx.Scope().Bind(&genctx.Symbol{Name: self, Type: hir.CustomType(cls.Name), Mutable: true, Kind: genctx.SymLocal, Assigned: true})
	lit := &rustast.StructLit{Name: "Self"}
	for _, f := range fields {
		lit.Fields = append(lit.Fields, rustast.FieldInit{Name: g.ident(f.Name), Value: g.fieldDefault(cls.Name, f)})
	}
	body := &rustast.Block{}
	body.Add(&rustast.Let{Mut: true, Pattern: "self_", Value: lit})
	g.stmts(body, sig.Func.Body)
	if n := len(body.Stmts); n > 0 {
		if es, ok := body.Stmts[n-1].(*rustast.ExprStmt); ok && diverging(es.X) {
			out.Body = body
			return out
		}
	}
	body.Tail = wrap(rustast.Name("self_"))
	out.Body = body
	return out
}

// directInit matches an __init__ body made only of self.field = value
// assignments whose values do not read self
func directInit(body []hir.Stmt, self string) (map[string]hir.Expr, bool) {
	out := map[string]hir.Expr{}
	for _, s := range body {
		switch st := s.(type) {
		case *hir.Pass:
			continue
		case *hir.Assign:
			attr, ok := st.Target.(*hir.Attribute)
			if !ok || st.Value == nil {
				return nil, false
			}
			recv, ok := attr.Recv.(*hir.Var)
			if !ok || recv.Name != self {
				return nil, false
			}
			if _, dup := out[attr.Name]; dup || hir.Uses(st.Value, self) {
				return nil, false
			}
			out[attr.Name] = st.Value
		default:
			return nil, false
		}
	}
	return out, true
}

// fieldValue lowers value stored into field f of class
func (g *generator) fieldValue(class string, f *hir.Field, value hir.Expr) rustast.Expr {
	if g.ctx.IsRecursiveField(class, f.Name) {
		if v, ok := value.(*hir.Var); ok && g.typeOf(v).Is(hir.KindOptional) {
			return rustast.Method(g.generateExpr(v), "map", rustast.Name("Box::new"))
		}
		return g.boxed(value)
	}
	return g.convert(value, f.Type)
}

func (g *generator) fieldDefault(class string, f *hir.Field) rustast.Expr {
	if g.ctx.IsRecursiveField(class, f.Name) {
		return rustast.Name("None")
	}
	if f.Default != nil {
		return g.convert(f.Default, f.Type)
	}
	return defaultValue(f.Type)
}
