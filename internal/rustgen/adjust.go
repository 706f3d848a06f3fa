package rustgen

import (
	"strings"

	"github.com/paiml/depyler-sub010/internal/genctx"
	"github.com/paiml/depyler-sub010/internal/hir"
	"github.com/paiml/depyler-sub010/internal/rustast"
)

// form is the shape a lowered expression has in Rust
type form int

const (
	formOwned form = iota // an owned value or temporary
	formPlace             // a field, element or static that cannot be moved out of
	formRef               // a shared reference: &T parameter, .iter() loop variable
	formStr               // &str: string literal, &str parameter, string const
	formMut               // a &mut T parameter
	formChar              // a char from a .chars() loop
)

func (g *generator) formOf(e hir.Expr) form {
	switch n := e.(type) {
	case *hir.Literal:
		if n.Kind == hir.LitString {
			return formStr
		}
	case *hir.Var:
		if g.fn != nil && (n.Name == g.fn.self || n.Name == g.fn.cls) && n.Name != "" {
			if g.fn.sig != nil && g.fn.sig.SelfBorrow == genctx.Unique {
				return formMut
			}
			return formRef
		}
		sym := g.ctx.Lookup(n.Name)
		if sym == nil {
			if t, ok := g.ctx.Constants[n.Name]; ok {
				switch {
				case g.statics[n.Name]:
					return formPlace
				case t == nil || t.Is(hir.KindString):
					return formStr
				}
			}
			return formOwned
		}
		if sym.Kind == genctx.SymField {
			if sym.Type.IsCopy() {
				return formOwned
			}
			return formPlace
		}
		if g.ctx.CharIterVars.Contains(n.Name) {
			return formChar
		}
		switch sym.Borrow {
		case genctx.Shared:
			if sym.Type.IsCopy() {
				return formOwned
			}
			if sym.Kind == genctx.SymParam && g.ctx.IsRefParam(g.ctx.Current, n.Name) {
				return formStr
			}
			return formRef
		case genctx.Unique:
			return formMut
		}
	case *hir.Attribute:
		if g.isRecursiveAttr(n) {
			return formOwned
		}
		if t := g.typeOf(n); t.IsCopy() {
			return formOwned
		}
		return formPlace
	case *hir.Index:
		recv := g.typeOf(n.Recv)
		if recv.Is(hir.KindList) || recv.Is(hir.KindTuple) || recv.IsUnknown() || recv.Is(hir.KindGeneric) {
			if g.typeOf(n).IsCopy() {
				return formOwned
			}
			return formPlace
		}
	case *hir.NamedExpr:
		return g.formOf(&hir.Var{Name: n.Target})
	}
	return formOwned
}

// toOwned turns the lowering x of e into an owned value: string slices get
// .to_string(), borrowed and place values are cloned, and variables that are
// moved while still read later are cloned
func (g *generator) toOwned(e hir.Expr, x rustast.Expr) rustast.Expr {
	switch g.formOf(e) {
	case formStr, formChar:
		return rustast.Method(x, "to_string")
	case formRef, formPlace, formMut:
		if g.typeOf(e).IsCopy() {
			return x
		}
		return rustast.Method(x, "clone")
	}
	if v, ok := e.(*hir.Var); ok && g.ctx.UsedLater[v] && !g.typeOf(e).IsCopy() {
		return rustast.Method(x, "clone")
	}
	return x
}

// toRef produces a shared reference to the value of e
func (g *generator) toRef(e hir.Expr, x rustast.Expr) rustast.Expr {
	switch g.formOf(e) {
	case formRef, formStr, formMut:
		return x
	case formChar:
		return &rustast.Borrow{X: rustast.Method(x, "to_string")}
	}
	return &rustast.Borrow{X: x}
}

// toStr produces a &str view of a string expression
func (g *generator) toStr(e hir.Expr, x rustast.Expr) rustast.Expr {
	return g.toRef(e, x)
}

// toMut produces a &mut reference to the place e
func (g *generator) toMut(e hir.Expr, x rustast.Expr) rustast.Expr {
	if g.formOf(e) == formMut {
		return x
	}
	return &rustast.Borrow{Mut: true, X: x}
}

// convert lowers e as an owned value of type want, wrapping it in Some,
// widening integers to floats and boxing where the target requires it
func (g *generator) convert(e hir.Expr, want *hir.Type) rustast.Expr {
	have := g.typeOf(e)
	if want.Is(hir.KindOptional) && !have.Is(hir.KindOptional) && !isNone(e) && !have.IsUnknown() {
		return rustast.CallPath("Some", g.convert(e, want.Elem()))
	}
	x := g.exprWant(e, want)
	if isNone(e) {
		return x
	}
	if want.Is(hir.KindFloat) && have.Is(hir.KindInt) {
		return g.toFloat(x)
	}
	return g.toOwned(e, x)
}

// toFloat widens an integer expression
func (g *generator) toFloat(x rustast.Expr) rustast.Expr {
	if lit, ok := x.(*rustast.Lit); ok && isIntText(lit.Text) {
		return &rustast.Lit{Text: lit.Text + ".0"}
	}
	return &rustast.Cast{X: x, Type: rustast.Named("f64")}
}

func isIntText(s string) bool {
	s = strings.TrimPrefix(s, "-")
	if s == "" {
		return false
	}
	for _, c := range s {
		if (c < '0' || c > '9') && c != '_' {
			return false
		}
	}
	return true
}

// adjustArg lowers a call argument for a parameter of a user function
func (g *generator) adjustArg(arg hir.Expr, p *genctx.ParamInfo) rustast.Expr {
	return g.adjust(arg, g.exprWant(arg, paramWant(p)), p)
}

func paramWant(p *genctx.ParamInfo) *hir.Type {
	if p == nil {
		return nil
	}
	if p.Type.Is(hir.KindOptional) {
		return p.Type.Elem()
	}
	return p.Type
}

// adjust reshapes an already lowered argument x for parameter p. It is
// idempotent: adjusting its own output returns it unchanged.
func (g *generator) adjust(arg hir.Expr, x rustast.Expr, p *genctx.ParamInfo) rustast.Expr {
	if p == nil {
		if ownedAdjusted(x) {
			return x
		}
		return g.toOwned(arg, x)
	}
	if _, ok := x.(*rustast.Borrow); ok && (p.Borrow != genctx.Owned || p.StrRef) {
		return x
	}
	none := isNone(arg)
	have := g.typeOf(arg)
	wrap := p.Optional && !none && !have.Is(hir.KindOptional) && !isSomeCall(x)
	switch {
	case p.Borrow == genctx.Unique:
		return g.toMut(arg, x)
	case p.StrRef:
		return g.toStr(arg, x)
	case p.Borrow == genctx.Shared:
		if wrap {
			return &rustast.Borrow{X: rustast.CallPath("Some", g.toOwned(arg, x))}
		}
		if none {
			return &rustast.Borrow{X: x}
		}
		return g.toRef(arg, x)
	}
	if ownedAdjusted(x) {
		return x
	}
	if wrap {
		inner := x
		if p.Type.Elem().Is(hir.KindFloat) && have.Is(hir.KindInt) {
			inner = g.toFloat(inner)
		} else {
			inner = g.toOwned(arg, inner)
		}
		return rustast.CallPath("Some", inner)
	}
	if none {
		return x
	}
	if p.Type.Is(hir.KindFloat) && have.Is(hir.KindInt) {
		return g.toFloat(x)
	}
	return g.toOwned(arg, x)
}

// ownedAdjusted recognizes the owned forms adjust produces
func ownedAdjusted(x rustast.Expr) bool {
	switch n := x.(type) {
	case *rustast.MethodCall:
		return (n.Method == "clone" || n.Method == "to_string") && len(n.Args) == 0
	case *rustast.Call:
		return isSomeCall(n)
	case *rustast.Try, *rustast.Cast:
		return true
	case *rustast.Lit:
		return strings.HasSuffix(n.Text, ".0")
	}
	return false
}

func isSomeCall(x rustast.Expr) bool {
	c, ok := x.(*rustast.Call)
	if !ok {
		return false
	}
	id, ok := c.Func.(*rustast.Ident)
	return ok && id.Name == "Some"
}

func isNone(e hir.Expr) bool {
	lit, ok := e.(*hir.Literal)
	return ok && lit.Kind == hir.LitNone
}

func isStringLit(e hir.Expr) bool {
	lit, ok := e.(*hir.Literal)
	return ok && lit.Kind == hir.LitString
}

// isPure reports whether e can be evaluated twice without side effects or
// significant cost
func isPure(e hir.Expr) bool {
	switch n := e.(type) {
	case *hir.Var, *hir.Literal:
		return true
	case *hir.Attribute:
		return isPure(n.Recv)
	case *hir.Unary:
		return isPure(n.Operand)
	}
	return false
}
