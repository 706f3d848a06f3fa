package hir

import "strings"

// Kind enumerates the closed set of HIR types
type Kind int

const (
	KindUnknown Kind = iota
	KindInt
	KindFloat
	KindBool
	KindString
	KindBytes
	KindNone
	KindList
	KindTuple
	KindSet
	KindDict
	KindOptional
	KindResult
	KindCustom
	KindGeneric
	KindTypeVar
)

// Type is an HIR type. Elems holds the type arguments: the element of
// List/Set/Optional, the key and value of Dict, the members of Tuple, the ok
// and error types of Result and the arguments of Generic.
type Type struct {
	Kind  Kind
	Name  string // Custom, Generic and TypeVar names
	Elems []*Type
}

// Built-in scalar types
var (
	TypeUnknown = &Type{Kind: KindUnknown}
	TypeInt     = &Type{Kind: KindInt}
	TypeFloat   = &Type{Kind: KindFloat}
	TypeBool    = &Type{Kind: KindBool}
	TypeString  = &Type{Kind: KindString}
	TypeBytes   = &Type{Kind: KindBytes}
	TypeNone    = &Type{Kind: KindNone}

	// TypeDynamic is the element type of a heterogeneous literal in hybrid
	// mode, lowered to the DepylerValue union
	TypeDynamic = &Type{Kind: KindCustom, Name: "DepylerValue"}
)

// IsDynamic reports whether t is the DepylerValue union
func (t *Type) IsDynamic() bool {
	return t != nil && t.Kind == KindCustom && t.Name == TypeDynamic.Name
}

func orUnknown(t *Type) *Type {
	if t == nil {
		return TypeUnknown
	}
	return t
}

// ListOf returns List(elem); a nil element becomes Unknown
func ListOf(elem *Type) *Type {
	return &Type{Kind: KindList, Elems: []*Type{orUnknown(elem)}}
}

// SetOf returns Set(elem)
func SetOf(elem *Type) *Type {
	return &Type{Kind: KindSet, Elems: []*Type{orUnknown(elem)}}
}

// DictOf returns Dict(key, value)
func DictOf(key, value *Type) *Type {
	return &Type{Kind: KindDict, Elems: []*Type{orUnknown(key), orUnknown(value)}}
}

// TupleOf returns Tuple(elems...)
func TupleOf(elems ...*Type) *Type {
	out := make([]*Type, len(elems))
	for i, e := range elems {
		out[i] = orUnknown(e)
	}
	return &Type{Kind: KindTuple, Elems: out}
}

// OptionalOf returns Optional(inner). Optional(Optional(T)) collapses to
// Optional(T) and Optional(None) stays None.
func OptionalOf(inner *Type) *Type {
	inner = orUnknown(inner)
	switch inner.Kind {
	case KindOptional, KindNone:
		return inner
	}
	return &Type{Kind: KindOptional, Elems: []*Type{inner}}
}

// ResultOf returns Result(ok, err)
func ResultOf(ok, err *Type) *Type {
	return &Type{Kind: KindResult, Elems: []*Type{orUnknown(ok), orUnknown(err)}}
}

// CustomType returns a reference to a user or imported type by name
func CustomType(name string) *Type {
	return &Type{Kind: KindCustom, Name: name}
}

// GenericType returns name[args...] for types the model has no dedicated kind for
func GenericType(name string, args ...*Type) *Type {
	out := make([]*Type, len(args))
	for i, a := range args {
		out[i] = orUnknown(a)
	}
	return &Type{Kind: KindGeneric, Name: name, Elems: out}
}

// TypeVarType returns a type variable
func TypeVarType(name string) *Type {
	return &Type{Kind: KindTypeVar, Name: name}
}

// Elem returns the element type of a List, Set or Optional, or the first
// type argument otherwise
func (t *Type) Elem() *Type {
	if t == nil || len(t.Elems) == 0 {
		return TypeUnknown
	}
	return t.Elems[0]
}

// Key returns the key type of a Dict
func (t *Type) Key() *Type {
	return t.Elem()
}

// Value returns the value type of a Dict
func (t *Type) Value() *Type {
	if t == nil || len(t.Elems) < 2 {
		return TypeUnknown
	}
	return t.Elems[1]
}

// Is reports whether t has kind k
func (t *Type) Is(k Kind) bool {
	return t != nil && t.Kind == k
}

// IsUnknown reports whether t is nil or Unknown
func (t *Type) IsUnknown() bool {
	return t == nil || t.Kind == KindUnknown
}

// IsCollection reports whether t is a List, Set, Dict or Tuple
func (t *Type) IsCollection() bool {
	if t == nil {
		return false
	}
	switch t.Kind {
	case KindList, KindSet, KindDict, KindTuple:
		return true
	}
	return false
}

// IsNumeric reports whether t is Int or Float
func (t *Type) IsNumeric() bool {
	return t.Is(KindInt) || t.Is(KindFloat)
}

// IsCopy reports whether values of t are copied rather than moved
func (t *Type) IsCopy() bool {
	if t == nil {
		return false
	}
	switch t.Kind {
	case KindInt, KindFloat, KindBool, KindNone:
		return true
	case KindTuple:
		for _, e := range t.Elems {
			if !e.IsCopy() {
				return false
			}
		}
		return true
	case KindOptional:
		return t.Elem().IsCopy()
	}
	return false
}

// IsFullyKnown reports whether t contains no Unknown component
func (t *Type) IsFullyKnown() bool {
	if t.IsUnknown() {
		return false
	}
	for _, e := range t.Elems {
		if !e.IsFullyKnown() {
			return false
		}
	}
	return true
}

// Equal reports structural equality
func (t *Type) Equal(other *Type) bool {
	if t == nil || other == nil {
		return t.IsUnknown() && other.IsUnknown()
	}
	if t.Kind != other.Kind || t.Name != other.Name || len(t.Elems) != len(other.Elems) {
		return false
	}
	for i := range t.Elems {
		if !t.Elems[i].Equal(other.Elems[i]) {
			return false
		}
	}
	return true
}

// Unify returns the more specific of two types describing the same value:
// Unknown components of one side are filled from the other. When the types
// disagree, t wins.
func (t *Type) Unify(other *Type) *Type {
	if t.IsUnknown() {
		return orUnknown(other)
	}
	if other.IsUnknown() || t.Kind != other.Kind || len(t.Elems) != len(other.Elems) {
		return t
	}
	if len(t.Elems) == 0 {
		return t
	}
	out := &Type{Kind: t.Kind, Name: t.Name, Elems: make([]*Type, len(t.Elems))}
	for i := range t.Elems {
		out.Elems[i] = t.Elems[i].Unify(other.Elems[i])
	}
	return out
}

// String returns the SRC spelling of the type, used in diagnostics
func (t *Type) String() string {
	if t == nil {
		return "Unknown"
	}
	switch t.Kind {
	case KindInt:
		return "int"
	case KindFloat:
		return "float"
	case KindBool:
		return "bool"
	case KindString:
		return "str"
	case KindBytes:
		return "bytes"
	case KindNone:
		return "None"
	case KindList:
		return "list[" + t.Elem().String() + "]"
	case KindSet:
		return "set[" + t.Elem().String() + "]"
	case KindDict:
		return "dict[" + t.Key().String() + ", " + t.Value().String() + "]"
	case KindTuple:
		return "tuple[" + joinTypes(t.Elems) + "]"
	case KindOptional:
		return "Optional[" + t.Elem().String() + "]"
	case KindResult:
		return "Result[" + joinTypes(t.Elems) + "]"
	case KindCustom, KindTypeVar:
		return t.Name
	case KindGeneric:
		return t.Name + "[" + joinTypes(t.Elems) + "]"
	}
	return "Unknown"
}

func joinTypes(ts []*Type) string {
	parts := make([]string, len(ts))
	for i, e := range ts {
		parts[i] = e.String()
	}
	return strings.Join(parts, ", ")
}
