package astbridge

import (
	"github.com/paiml/depyler-sub010/internal/ast"
	"github.com/paiml/depyler-sub010/internal/hir"
	"github.com/paiml/depyler-sub010/internal/parser"
)

// scalarTypes maps annotation names to scalar HIR types
var scalarTypes = map[string]*hir.Type{
	"int":   hir.TypeInt,
	"float": hir.TypeFloat,
	"bool":  hir.TypeBool,
	"str":   hir.TypeString,
	"bytes": hir.TypeBytes,
	"None":  hir.TypeNone,
}

// convertAnnotation lowers a type annotation expression
func (b *Bridge) convertAnnotation(e ast.Expression) *hir.Type {
	switch n := e.(type) {
	case nil:
		return nil

	case *ast.Name:
		return b.namedType(n.ID)

	case *ast.Attribute:
		// typing.List, collections.abc.Sequence, ...
		return b.namedType(n.Attr)

	case *ast.Constant:
		switch n.Kind {
		case ast.ConstNone:
			return hir.TypeNone
		case ast.ConstString:
			// forward reference: "Node" or "list[Node]"
			inner, diags := parser.ParseExpression(n.Value)
			if diags.HasErrors() {
				return hir.CustomType(n.Value)
			}
			return b.convertAnnotation(inner)
		}

	case *ast.BinOp:
		if n.Op == "|" {
			return b.unionOf(flattenUnion(n))
		}

	case *ast.Subscript:
		return b.subscriptType(n)
	}
	return hir.TypeUnknown
}

func (b *Bridge) namedType(name string) *hir.Type {
	if t, ok := scalarTypes[name]; ok {
		return t
	}
	if b.typeVars[name] {
		return hir.TypeVarType(name)
	}
	switch name {
	case "list", "List", "Sequence", "MutableSequence":
		return hir.ListOf(nil)
	case "dict", "Dict", "Mapping", "MutableMapping", "DefaultDict", "OrderedDict", "Counter":
		return hir.DictOf(nil, nil)
	case "set", "Set", "frozenset", "FrozenSet", "AbstractSet":
		return hir.SetOf(nil)
	case "tuple", "Tuple":
		return hir.TupleOf()
	case "Optional":
		return hir.OptionalOf(nil)
	case "Any", "object":
		return hir.TypeUnknown
	}
	return hir.CustomType(name)
}

func (b *Bridge) subscriptType(n *ast.Subscript) *hir.Type {
	var base string
	switch v := n.Value.(type) {
	case *ast.Name:
		base = v.ID
	case *ast.Attribute:
		base = v.Attr
	default:
		return hir.TypeUnknown
	}

	var args []ast.Expression
	if tup, ok := n.Index.(*ast.TupleExpr); ok {
		args = tup.Elts
	} else {
		args = []ast.Expression{n.Index}
	}
	arg := func(i int) *hir.Type {
		if i < len(args) {
			return b.convertAnnotation(args[i])
		}
		return hir.TypeUnknown
	}

	switch base {
	case "list", "List", "Sequence", "MutableSequence", "Iterable", "Collection":
		return hir.ListOf(arg(0))
	case "dict", "Dict", "Mapping", "MutableMapping", "DefaultDict", "OrderedDict":
		return hir.DictOf(arg(0), arg(1))
	case "Counter":
		return hir.DictOf(arg(0), hir.TypeInt)
	case "set", "Set", "frozenset", "FrozenSet", "AbstractSet":
		return hir.SetOf(arg(0))
	case "tuple", "Tuple":
		if len(args) == 2 {
			if c, ok := args[1].(*ast.Constant); ok && c.Kind == ast.ConstEllipsis {
				return hir.ListOf(arg(0))
			}
		}
		elems := make([]*hir.Type, len(args))
		for i := range args {
			elems[i] = arg(i)
		}
		return hir.TupleOf(elems...)
	case "Optional":
		return hir.OptionalOf(arg(0))
	case "Union":
		return b.unionOf(args)
	case "Deque", "deque":
		return hir.GenericType("VecDeque", arg(0))
	case "Iterator", "Generator", "AsyncIterator":
		return hir.GenericType("Iterator", arg(0))
	case "Callable":
		var params []*hir.Type
		if l, ok := args[0].(*ast.ListExpr); ok {
			for _, p := range l.Elts {
				params = append(params, b.convertAnnotation(p))
			}
		}
		return hir.GenericType("Callable", append(params, arg(1))...)
	case "ClassVar", "Final":
		return arg(0)
	case "type", "Type":
		return arg(0)
	}

	elems := make([]*hir.Type, len(args))
	for i := range args {
		elems[i] = arg(i)
	}
	return hir.GenericType(base, elems...)
}

// unionOf lowers Union[...] / A | B. A union with None becomes Optional of
// the remaining member; other unions have no homogeneous representation and
// are Unknown.
func (b *Bridge) unionOf(members []ast.Expression) *hir.Type {
	var rest []*hir.Type
	hasNone := false
	for _, m := range members {
		t := b.convertAnnotation(m)
		if t.Is(hir.KindNone) {
			hasNone = true
			continue
		}
		rest = append(rest, t)
	}
	var inner *hir.Type
	switch {
	case len(rest) == 1:
		inner = rest[0]
	case len(rest) > 1:
		inner = rest[0]
		for _, t := range rest[1:] {
			if !t.Equal(inner) {
				inner = hir.TypeUnknown
				break
			}
		}
	default:
		return hir.TypeNone
	}
	if hasNone {
		return hir.OptionalOf(inner)
	}
	return inner
}

func flattenUnion(e ast.Expression) []ast.Expression {
	if bin, ok := e.(*ast.BinOp); ok && bin.Op == "|" {
		return append(flattenUnion(bin.Left), flattenUnion(bin.Right)...)
	}
	return []ast.Expression{e}
}
