package analysis

import (
	"strconv"

	"github.com/paiml/depyler-sub010/internal/genctx"
	"github.com/paiml/depyler-sub010/internal/hir"
	"github.com/paiml/depyler-sub010/internal/registry"
)

// TypeOf computes the static type of e in the context's current function.
// It never fails: anything it cannot type is Unknown.
func TypeOf(c *genctx.Context, e hir.Expr) *hir.Type {
	if e == nil {
		return hir.TypeNone
	}
	switch n := e.(type) {
	case *hir.Literal:
		return literalType(n)
	case *hir.Var:
		if t := c.TypeOf(n.Name); t != nil {
			return t
		}
		if c.IsClass(n.Name) {
			return hir.CustomType(n.Name)
		}
		if imp, ok := c.ImportedItems[n.Name]; ok && imp.Known && imp.Entry.Result != nil {
			return imp.Entry.Result
		}
		return hir.TypeUnknown
	case *hir.Binary:
		return binaryType(n.Op, TypeOf(c, n.Left), TypeOf(c, n.Right))
	case *hir.Unary:
		if n.Op == hir.Not {
			return hir.TypeBool
		}
		return TypeOf(c, n.Operand)
	case *hir.Compare:
		return hir.TypeBool
	case *hir.BoolOp:
		var out *hir.Type
		for _, v := range n.Values {
			t := TypeOf(c, v)
			if out == nil {
				out = t
				continue
			}
			if j := Join(out, t); j != nil {
				out = j
			} else {
				return hir.TypeBool
			}
		}
		// x or default unwraps an Option
		if !n.And && out.Is(hir.KindOptional) {
			if last := TypeOf(c, n.Values[len(n.Values)-1]); !last.Is(hir.KindOptional) && !last.Is(hir.KindNone) {
				return out.Elem()
			}
		}
		return out
	case *hir.Call:
		return callType(c, n)
	case *hir.MethodCall:
		return methodCallType(c, n)
	case *hir.Attribute:
		return attributeType(c, n)
	case *hir.Index:
		return indexType(c, n)
	case *hir.Slice:
		return TypeOf(c, n.Recv)
	case *hir.ListLit:
		return hir.ListOf(literalElem(c, n.Elems))
	case *hir.SetLit:
		return hir.SetOf(literalElem(c, n.Elems))
	case *hir.TupleLit:
		elems := make([]*hir.Type, len(n.Elems))
		for i, el := range n.Elems {
			elems[i] = TypeOf(c, el)
		}
		return hir.TupleOf(elems...)
	case *hir.DictLit:
		key, _ := ElemType(c, n.Keys)
		return hir.DictOf(key, literalElem(c, n.Values))
	case *hir.Comprehension:
		return comprehensionType(c, n)
	case *hir.Lambda:
		return hir.GenericType("Callable")
	case *hir.FString:
		return hir.TypeString
	case *hir.IfExpr:
		then, els := TypeOf(c, n.Then), TypeOf(c, n.Else)
		if j := Join(then, els); j != nil {
			return j
		}
		return then
	case *hir.Await:
		return TypeOf(c, n.Value)
	case *hir.Yield:
		return hir.TypeUnknown
	case *hir.Starred:
		return TypeOf(c, n.Value)
	case *hir.NamedExpr:
		return TypeOf(c, n.Value)
	}
	return hir.TypeUnknown
}

func literalType(l *hir.Literal) *hir.Type {
	switch l.Kind {
	case hir.LitInt:
		return hir.TypeInt
	case hir.LitFloat:
		return hir.TypeFloat
	case hir.LitString:
		return hir.TypeString
	case hir.LitBytes:
		return hir.TypeBytes
	case hir.LitBool:
		return hir.TypeBool
	}
	return hir.TypeNone
}

// Join merges the types of two values that flow into the same slot. Int and
// Float join to Float, None and T to Optional(T). Nil means the types are
// incompatible.
func Join(a, b *hir.Type) *hir.Type {
	switch {
	case a.IsUnknown():
		return b
	case b.IsUnknown():
		return a
	case a.Equal(b):
		return a
	case a.IsNumeric() && b.IsNumeric():
		return hir.TypeFloat
	case a.Is(hir.KindNone):
		return hir.OptionalOf(b)
	case b.Is(hir.KindNone):
		return hir.OptionalOf(a)
	case a.Is(hir.KindOptional) && !b.Is(hir.KindOptional):
		if inner := Join(a.Elem(), b); inner != nil {
			return hir.OptionalOf(inner)
		}
		return nil
	case b.Is(hir.KindOptional) && !a.Is(hir.KindOptional):
		return Join(b, a)
	case a.Kind == b.Kind && a.Name == b.Name && len(a.Elems) == len(b.Elems):
		return a.Unify(b)
	}
	return nil
}

// literalElem is ElemType for a container literal: in hybrid mode a
// heterogeneous literal holds DepylerValue elements
func literalElem(c *genctx.Context, elems []hir.Expr) *hir.Type {
	elem, homogeneous := ElemType(c, elems)
	if !homogeneous && c.Mode == genctx.Hybrid {
		return hir.TypeDynamic
	}
	return elem
}

// ElemType joins the types of a literal's elements. homogeneous is false when
// two elements have incompatible types; the first element's type is returned
// in that case.
func ElemType(c *genctx.Context, elems []hir.Expr) (elem *hir.Type, homogeneous bool) {
	homogeneous = true
	for _, e := range elems {
		if s, ok := e.(*hir.Starred); ok {
			e = s.Value
			t := registry.IterElem(TypeOf(c, e))
			if elem == nil {
				elem = t
			} else if j := Join(elem, t); j != nil {
				elem = j
			} else {
				homogeneous = false
			}
			continue
		}
		t := TypeOf(c, e)
		if elem == nil {
			elem = t
			continue
		}
		if j := Join(elem, t); j != nil {
			elem = j
		} else {
			homogeneous = false
		}
	}
	if elem == nil {
		elem = hir.TypeUnknown
	}
	return elem, homogeneous
}

func binaryType(op hir.BinOp, l, r *hir.Type) *hir.Type {
	switch op {
	case hir.Div:
		if l.IsNumeric() || r.IsNumeric() {
			return hir.TypeFloat
		}
	case hir.Add:
		if l.Is(hir.KindString) || l.Is(hir.KindList) || l.Is(hir.KindBytes) {
			return l.Unify(r)
		}
	case hir.Mul:
		if l.Is(hir.KindString) || l.Is(hir.KindList) {
			return l
		}
		if r.Is(hir.KindString) || r.Is(hir.KindList) {
			return r
		}
	case hir.Mod:
		if l.Is(hir.KindString) {
			return hir.TypeString
		}
	case hir.BitAnd, hir.BitOr, hir.BitXor:
		if l.Is(hir.KindSet) {
			return l.Unify(r)
		}
		if l.Is(hir.KindBool) && r.Is(hir.KindBool) {
			return hir.TypeBool
		}
	case hir.Sub:
		if l.Is(hir.KindSet) {
			return l
		}
	}
	switch {
	case l.Is(hir.KindFloat) || r.Is(hir.KindFloat):
		return hir.TypeFloat
	case l.Is(hir.KindInt) || l.Is(hir.KindBool):
		return hir.TypeInt
	case l.IsUnknown() && r.Is(hir.KindInt):
		return hir.TypeInt
	}
	return l
}

func argTypes(c *genctx.Context, args []hir.Expr) []*hir.Type {
	out := make([]*hir.Type, len(args))
	for i, a := range args {
		out[i] = TypeOf(c, a)
	}
	return out
}

func callType(c *genctx.Context, n *hir.Call) *hir.Type {
	if n.Callee != nil {
		return hir.TypeUnknown
	}
	if c.Lookup(n.Func) == nil {
		if sig := c.Sig(n.Func); sig != nil {
			return returnType(sig)
		}
		if c.IsClass(n.Func) {
			return hir.CustomType(n.Func)
		}
		if imp, ok := c.ImportedItems[n.Func]; ok && imp.Known {
			return entryResult(imp.Entry)
		}
		if b, ok := registry.LookupBuiltin(n.Func); ok {
			return b.Result(argTypes(c, n.Args))
		}
		if registry.IsExceptionType(n.Func) {
			return hir.CustomType(n.Func)
		}
	}
	return hir.TypeUnknown
}

func entryResult(e registry.Entry) *hir.Type {
	if e.Result == nil {
		return hir.TypeUnknown
	}
	return e.Result
}

// returnType is the Python-level result of calling sig: Optional when the
// function returns an Option
func returnType(sig *genctx.FuncSig) *hir.Type {
	if sig.Return == nil {
		return hir.TypeNone
	}
	if sig.ReturnsOption {
		return hir.OptionalOf(sig.Return)
	}
	return sig.Return
}

func methodCallType(c *genctx.Context, n *hir.MethodCall) *hir.Type {
	if sig := CalleeSig(c, n); sig != nil {
		if sig.Func != nil && sig.Func.Name == "__init__" {
			return hir.CustomType(sig.Class)
		}
		return returnType(sig)
	}
	if dotted := ResolveDotted(c, n.Recv); dotted != "" {
		if e, ok := registry.Lookup(dotted + "." + n.Method); ok {
			return entryResult(e)
		}
		if b, ok := registry.LookupBuiltin(dotted + "." + n.Method); ok {
			return b.Result(argTypes(c, n.Args))
		}
		return hir.TypeUnknown
	}
	if v, ok := n.Recv.(*hir.Var); ok && c.Lookup(v.Name) == nil {
		if b, ok := registry.LookupBuiltin(v.Name + "." + n.Method); ok {
			return b.Result(argTypes(c, n.Args))
		}
	}
	recv := TypeOf(c, n.Recv)
	kind := registry.ReceiverKindOf(recv)
	if kind == registry.RecvUnknown && recv.IsUnknown() {
		if v, ok := n.Recv.(*hir.Var); ok {
			kind = registry.GuessReceiverKind(v.Name)
		}
	}
	if rule, ok := registry.Method(kind, n.Method); ok {
		if recv.Is(hir.KindOptional) {
			recv = recv.Elem()
		}
		if (kind == registry.RecvCounter || kind == registry.RecvDefaultDict || kind == registry.RecvOrderedDict) && recv.Is(hir.KindCustom) {
			recv = hir.DictOf(nil, nil)
		}
		return rule.ResultType(recv)
	}
	return hir.TypeUnknown
}

func attributeType(c *genctx.Context, n *hir.Attribute) *hir.Type {
	if dotted := ResolveDotted(c, n); dotted != "" {
		if e, ok := registry.Lookup(dotted); ok {
			return entryResult(e)
		}
		return hir.TypeUnknown
	}
	if c.Argparse != nil {
		if v, ok := n.Recv.(*hir.Var); ok && v.Name == c.Argparse.ArgsVar {
			if f := c.Argparse.Field(n.Name); f != nil {
				return ArgFieldType(f)
			}
		}
	}
	recv := TypeOf(c, n.Recv)
	if recv.Is(hir.KindOptional) {
		recv = recv.Elem()
	}
	if recv.Is(hir.KindCustom) {
		if cls, ok := c.Classes[recv.Name]; ok {
			if f := cls.Field(n.Name); f != nil {
				if c.IsRecursiveField(cls.Name, f.Name) {
					return hir.OptionalOf(f.Type)
				}
				return f.Type
			}
			for _, cv := range cls.ClassVars {
				if cv.Name == n.Name {
					return cv.Type
				}
			}
			if m := cls.Method(n.Name); m != nil && m.IsProperty {
				if sig := c.Sig(funcKey(cls.Name, m.Name)); sig != nil {
					return returnType(sig)
				}
			}
		}
	}
	return hir.TypeUnknown
}

// ArgFieldType is the type of args.<field> for a recognized argparse field
func ArgFieldType(f *genctx.ArgField) *hir.Type {
	t := f.Type
	if t == nil {
		t = hir.TypeString
	}
	switch {
	case f.Action == "store_true" || f.Action == "store_false":
		return hir.TypeBool
	case f.Action == "count":
		return hir.TypeInt
	case f.Many:
		return hir.ListOf(t)
	case f.Optional && f.Default == nil:
		return hir.OptionalOf(t)
	}
	return t
}

func indexType(c *genctx.Context, n *hir.Index) *hir.Type {
	recv := TypeOf(c, n.Recv)
	switch recv.Kind {
	case hir.KindList, hir.KindSet:
		return recv.Elem()
	case hir.KindDict:
		return recv.Value()
	case hir.KindString:
		return hir.TypeString
	case hir.KindBytes:
		return hir.TypeInt
	case hir.KindTuple:
		if i, ok := constIndex(n.Key); ok {
			if i < 0 {
				i += len(recv.Elems)
			}
			if i >= 0 && i < len(recv.Elems) {
				return recv.Elems[i]
			}
		}
		if elem, homogeneous := typesJoin(recv.Elems); homogeneous {
			return elem
		}
	case hir.KindGeneric:
		return recv.Elem()
	}
	return hir.TypeUnknown
}

func typesJoin(ts []*hir.Type) (*hir.Type, bool) {
	var out *hir.Type
	for _, t := range ts {
		if out == nil {
			out = t
			continue
		}
		j := Join(out, t)
		if j == nil {
			return out, false
		}
		out = j
	}
	return out, out != nil
}

// constIndex extracts a literal integer index, including negative ones
func constIndex(e hir.Expr) (int, bool) {
	switch n := e.(type) {
	case *hir.Literal:
		if n.Kind == hir.LitInt {
			i, err := strconv.Atoi(n.Value)
			return i, err == nil
		}
	case *hir.Unary:
		if n.Op == hir.Neg {
			if i, ok := constIndex(n.Operand); ok {
				return -i, true
			}
		}
	}
	return 0, false
}

// ConstIndex is constIndex for the code generator
func ConstIndex(e hir.Expr) (int, bool) {
	return constIndex(e)
}

func comprehensionType(c *genctx.Context, n *hir.Comprehension) *hir.Type {
	c.PushScope()
	defer c.PopScope()
	for _, g := range n.Generators {
		BindTarget(c, g.Target, registry.IterElem(iterType(c, g.Iter)))
	}
	switch n.Kind {
	case hir.CompSet:
		return hir.SetOf(TypeOf(c, n.Element))
	case hir.CompDict:
		return hir.DictOf(TypeOf(c, n.Key), TypeOf(c, n.Element))
	}
	return hir.ListOf(TypeOf(c, n.Element))
}

// iterType is the type iterated by a for loop or generator. Dict iteration
// yields keys.
func iterType(c *genctx.Context, e hir.Expr) *hir.Type {
	t := TypeOf(c, e)
	if t.Is(hir.KindDict) {
		return hir.ListOf(t.Key())
	}
	return t
}

// LoopElemType is the element type bound by "for target in iter"
func LoopElemType(c *genctx.Context, iter hir.Expr) *hir.Type {
	return registry.IterElem(iterType(c, iter))
}

// BindTarget binds the names of an assignment or loop target in the current
// scope, destructuring tuple types
func BindTarget(c *genctx.Context, target hir.Expr, t *hir.Type) {
	switch tg := target.(type) {
	case *hir.Var:
		c.Scope().Bind(&genctx.Symbol{Name: tg.Name, Type: t, Kind: genctx.SymLoopVar, Assigned: true})
	case *hir.TupleLit:
		for i, el := range tg.Elems {
			var et *hir.Type
			switch {
			case t.Is(hir.KindTuple) && i < len(t.Elems):
				et = t.Elems[i]
			case t.Is(hir.KindList):
				et = t.Elem()
			default:
				et = hir.TypeUnknown
			}
			BindTarget(c, el, et)
		}
	case *hir.ListLit:
		BindTarget(c, &hir.TupleLit{Elems: tg.Elems}, t)
	}
}
