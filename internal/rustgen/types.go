package rustgen

import (
	"strings"

	"github.com/paiml/depyler-sub010/internal/genctx"
	"github.com/paiml/depyler-sub010/internal/hir"
	"github.com/paiml/depyler-sub010/internal/registry"
	"github.com/paiml/depyler-sub010/internal/rustast"
)

// mapType lowers a HIR type to its Rust spelling. Unknown becomes the
// DepylerValue union.
func (g *generator) mapType(t *hir.Type) rustast.Type {
	return g.rustType(t, false)
}

// letType is mapType with Unknown components left to inference
func (g *generator) letType(t *hir.Type) rustast.Type {
	return g.rustType(t, true)
}

func (g *generator) rustType(t *hir.Type, infer bool) rustast.Type {
	if t == nil {
		return rustast.Unit
	}
	elem := func(i int) rustast.Type {
		if i < len(t.Elems) {
			return g.rustType(t.Elems[i], infer)
		}
		return g.rustType(nil, infer)
	}
	switch t.Kind {
	case hir.KindInt:
		return rustast.Named(g.ctx.IntType)
	case hir.KindFloat:
		return rustast.Named("f64")
	case hir.KindBool:
		return rustast.Named("bool")
	case hir.KindString:
		return rustast.Named("String")
	case hir.KindBytes:
		return rustast.Named("Vec", rustast.Named("u8"))
	case hir.KindNone:
		return rustast.Unit
	case hir.KindList:
		return rustast.Named("Vec", elem(0))
	case hir.KindTuple:
		out := &rustast.TupleType{}
		for i := range t.Elems {
			out.Elems = append(out.Elems, elem(i))
		}
		return out
	case hir.KindSet:
		g.ctx.Need(genctx.NeedHashSet)
		return rustast.Named("HashSet", elem(0))
	case hir.KindDict:
		g.ctx.Need(genctx.NeedHashMap)
		return rustast.Named("HashMap", elem(0), elem(1))
	case hir.KindOptional:
		return rustast.Named("Option", elem(0))
	case hir.KindResult:
		return rustast.Named("Result", elem(0), elem(1))
	case hir.KindCustom:
		return g.customType(t.Name)
	case hir.KindGeneric:
		return g.genericType(t, infer)
	case hir.KindTypeVar:
		return rustast.Named(t.Name)
	}
	if infer {
		return &rustast.InferType{}
	}
	g.ctx.Need(genctx.NeedDepylerValue)
	return rustast.Named("DepylerValue")
}

func (g *generator) customType(name string) rustast.Type {
	switch {
	case name == hir.TypeDynamic.Name:
		g.ctx.Need(genctx.NeedDepylerValue)
		return rustast.Named(name)
	case g.isExceptionName(name):
		g.ctx.Need(genctx.NeedErrorType)
		return rustast.Named("DepylerError")
	case g.ctx.IsClass(name):
		return rustast.Named(name)
	case g.ctx.Argparse != nil && name == "Args":
		return rustast.Named("Args")
	}
	switch name {
	case "File", "TextIO", "IO", "BinaryIO":
		return rustast.Named("std::fs::File")
	case "Pattern", "Match":
		g.ctx.UseCrate("regex")
		return rustast.Named("regex::Regex")
	case "Counter", "defaultdict", "OrderedDict":
		g.ctx.Need(genctx.NeedHashMap)
		return rustast.Named("HashMap", &rustast.InferType{}, &rustast.InferType{})
	case "deque":
		g.ctx.Need(genctx.NeedVecDeque)
		return rustast.Named("VecDeque", &rustast.InferType{})
	}
	if imp, ok := g.ctx.ImportedItems[name]; ok && imp.Known && imp.Entry.Kind == registry.KindType && imp.Entry.Rust != "" {
		g.ctx.UseCrate(imp.Entry.Crate)
		return rustast.Named(imp.Entry.Rust)
	}
	for _, mod := range []string{"datetime", "pathlib", "decimal"} {
		if e, ok := registry.Lookup(mod + "." + name); ok && e.Kind == registry.KindType {
			g.ctx.UseCrate(e.Crate)
			return rustast.Named(e.Rust)
		}
	}
	g.ctx.Diags.Unresolved(0, 0, name)
	return rustast.Named(g.ident(name))
}

func (g *generator) genericType(t *hir.Type, infer bool) rustast.Type {
	args := make([]rustast.Type, len(t.Elems))
	for i, e := range t.Elems {
		args[i] = g.rustType(e, infer)
	}
	arg := func(i int) rustast.Type {
		if i < len(args) {
			return args[i]
		}
		return g.rustType(nil, infer)
	}
	switch t.Name {
	case "VecDeque":
		g.ctx.Need(genctx.NeedVecDeque)
		return rustast.Named("VecDeque", arg(0))
	case "Iterator":
		return rustast.Named("std::vec::IntoIter", arg(0))
	case "Callable":
		if len(args) == 0 {
			return rustast.Named("impl Fn()")
		}
		params := make([]string, len(args)-1)
		for i := range params {
			params[i] = rustast.RenderType(args[i])
		}
		sig := "impl Fn(" + strings.Join(params, ", ") + ")"
		if ret := args[len(args)-1]; !rustast.IsUnit(ret) {
			sig += " -> " + rustast.RenderType(ret)
		}
		return rustast.Named(sig)
	}
	return rustast.Named(g.ident(t.Name), args...)
}

// paramType is the Rust type of a parameter after borrow inference
func (g *generator) paramType(p *genctx.ParamInfo) rustast.Type {
	if p.Kind == hir.Varargs {
		return rustast.Ref(&rustast.SliceType{Elem: g.mapType(p.Type.Elem())})
	}
	if p.StrRef {
		return rustast.Ref(rustast.Named("str"))
	}
	t := g.mapType(p.Type)
	switch p.Borrow {
	case genctx.Shared:
		return rustast.Ref(t)
	case genctx.Unique:
		return rustast.RefMut(t)
	}
	return t
}

// returnType is the Rust return type of sig: Option for functions that may
// return None, Result for functions that can fail
func (g *generator) returnType(sig *genctx.FuncSig) rustast.Type {
	var base rustast.Type = rustast.Unit
	if sig.Return != nil && !sig.MutReturnRewrite {
		base = g.mapType(sig.Return)
	}
	if sig.ReturnsOption && !sig.MutReturnRewrite {
		base = rustast.Named("Option", base)
	}
	if sig.CanFail {
		g.ctx.Need(genctx.NeedErrorType)
		return rustast.Named("Result", base, rustast.Named("DepylerError"))
	}
	return base
}

// resultType is the Python-level type a call of sig produces
func resultType(sig *genctx.FuncSig) *hir.Type {
	if sig.Return == nil || sig.MutReturnRewrite {
		return hir.TypeNone
	}
	if sig.ReturnsOption {
		return hir.OptionalOf(sig.Return)
	}
	return sig.Return
}

// isExceptionName reports whether name is a builtin exception or a user
// exception class
func (g *generator) isExceptionName(name string) bool {
	if registry.IsExceptionType(name) {
		return true
	}
	if cls, ok := g.ctx.Classes[name]; ok {
		return g.isExceptionClass(cls)
	}
	return false
}

func (g *generator) isExceptionClass(cls *hir.Class) bool {
	seen := map[string]bool{}
	for cls != nil && !seen[cls.Name] {
		seen[cls.Name] = true
		if cls.IsException() {
			return true
		}
		if len(cls.Bases) == 0 {
			return false
		}
		if registry.IsExceptionType(cls.Bases[0]) {
			return true
		}
		cls = g.ctx.Classes[cls.Bases[0]]
	}
	return false
}

// typedLit gives an integer or float literal receiver an explicit suffix so
// method calls on it have a concrete type
func (g *generator) typedLit(x rustast.Expr, t *hir.Type) rustast.Expr {
	lit, ok := x.(*rustast.Lit)
	if !ok || lit.Text == "" || strings.HasPrefix(lit.Text, "-") {
		return x
	}
	c := lit.Text[0]
	if c < '0' || c > '9' {
		return x
	}
	switch {
	case t.Is(hir.KindFloat):
		return &rustast.Lit{Text: lit.Text + "_f64"}
	case t.Is(hir.KindInt):
		return &rustast.Lit{Text: lit.Text + "_" + g.ctx.IntType}
	}
	return x
}
