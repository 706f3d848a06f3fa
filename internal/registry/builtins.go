package registry

import "github.com/paiml/depyler-sub010/internal/hir"

// Builtin describes a builtin function for type inference. Lowering lives in
// rustgen; this table only answers arity and result type questions.
type Builtin struct {
	Name    string
	MinArgs int
	MaxArgs int // -1 for variadic
	Result  func(args []*hir.Type) *hir.Type
}

func arg(args []*hir.Type, i int) *hir.Type {
	if i < len(args) && args[i] != nil {
		return args[i]
	}
	return hir.TypeUnknown
}

func fixed(t *hir.Type) func([]*hir.Type) *hir.Type {
	return func([]*hir.Type) *hir.Type { return t }
}

// IterElem returns the element type produced by iterating over t: list and
// set elements, dict keys, one-character strings
func IterElem(t *hir.Type) *hir.Type {
	if t == nil {
		return hir.TypeUnknown
	}
	switch t.Kind {
	case hir.KindString:
		return hir.TypeString
	case hir.KindBytes:
		return hir.TypeInt
	case hir.KindDict, hir.KindList, hir.KindSet, hir.KindGeneric, hir.KindOptional:
		return t.Elem()
	case hir.KindTuple:
		if len(t.Elems) > 0 {
			return t.Elems[0]
		}
	}
	return hir.TypeUnknown
}

func minMax(args []*hir.Type) *hir.Type {
	if len(args) == 1 {
		return IterElem(args[0])
	}
	return arg(args, 0)
}

var builtins = map[string]Builtin{}

func builtin(name string, min, max int, result func([]*hir.Type) *hir.Type) {
	builtins[name] = Builtin{Name: name, MinArgs: min, MaxArgs: max, Result: result}
}

func init() {
	builtin("len", 1, 1, fixed(hir.TypeInt))
	builtin("range", 1, 3, fixed(hir.ListOf(hir.TypeInt)))
	builtin("enumerate", 1, 2, func(a []*hir.Type) *hir.Type {
		return hir.ListOf(hir.TupleOf(hir.TypeInt, IterElem(arg(a, 0))))
	})
	builtin("zip", 1, -1, func(a []*hir.Type) *hir.Type {
		elems := make([]*hir.Type, len(a))
		for i := range a {
			elems[i] = IterElem(a[i])
		}
		return hir.ListOf(hir.TupleOf(elems...))
	})
	builtin("sorted", 1, 1, func(a []*hir.Type) *hir.Type { return hir.ListOf(IterElem(arg(a, 0))) })
	builtin("reversed", 1, 1, func(a []*hir.Type) *hir.Type { return hir.ListOf(IterElem(arg(a, 0))) })
	builtin("min", 1, -1, minMax)
	builtin("max", 1, -1, minMax)
	builtin("sum", 1, 2, func(a []*hir.Type) *hir.Type {
		if e := IterElem(arg(a, 0)); e.IsNumeric() {
			return e
		}
		return hir.TypeInt
	})
	builtin("abs", 1, 1, func(a []*hir.Type) *hir.Type { return arg(a, 0) })
	builtin("round", 1, 2, func(a []*hir.Type) *hir.Type {
		if len(a) == 2 {
			return hir.TypeFloat
		}
		return hir.TypeInt
	})
	builtin("pow", 2, 3, func(a []*hir.Type) *hir.Type { return arg(a, 0) })
	builtin("any", 1, 1, fixed(hir.TypeBool))
	builtin("all", 1, 1, fixed(hir.TypeBool))
	builtin("chr", 1, 1, fixed(hir.TypeString))
	builtin("ord", 1, 1, fixed(hir.TypeInt))
	builtin("int", 0, 2, fixed(hir.TypeInt))
	builtin("float", 0, 1, fixed(hir.TypeFloat))
	builtin("str", 0, 1, fixed(hir.TypeString))
	builtin("bool", 0, 1, fixed(hir.TypeBool))
	builtin("bytes", 0, 1, fixed(hir.TypeBytes))
	builtin("list", 0, 1, func(a []*hir.Type) *hir.Type { return hir.ListOf(IterElem(arg(a, 0))) })
	builtin("set", 0, 1, func(a []*hir.Type) *hir.Type { return hir.SetOf(IterElem(arg(a, 0))) })
	builtin("frozenset", 0, 1, func(a []*hir.Type) *hir.Type { return hir.SetOf(IterElem(arg(a, 0))) })
	builtin("tuple", 0, 1, func(a []*hir.Type) *hir.Type { return hir.ListOf(IterElem(arg(a, 0))) })
	builtin("dict", 0, 1, func(a []*hir.Type) *hir.Type {
		if t := arg(a, 0); t.Is(hir.KindDict) {
			return t
		}
		return hir.DictOf(nil, nil)
	})
	builtin("isinstance", 2, 2, fixed(hir.TypeBool))
	builtin("print", 0, -1, fixed(hir.TypeNone))
	builtin("input", 0, 1, fixed(hir.TypeString))
	builtin("hex", 1, 1, fixed(hir.TypeString))
	builtin("oct", 1, 1, fixed(hir.TypeString))
	builtin("bin", 1, 1, fixed(hir.TypeString))
	builtin("divmod", 2, 2, func(a []*hir.Type) *hir.Type { return hir.TupleOf(arg(a, 0), arg(a, 0)) })
	builtin("hash", 1, 1, fixed(hir.TypeInt))
	builtin("repr", 1, 1, fixed(hir.TypeString))
	builtin("open", 1, 3, fixed(hir.CustomType("File")))
	builtin("map", 2, 2, fixed(hir.ListOf(nil)))
	builtin("filter", 2, 2, func(a []*hir.Type) *hir.Type { return hir.ListOf(IterElem(arg(a, 1))) })
	builtin("iter", 1, 1, func(a []*hir.Type) *hir.Type { return hir.GenericType("Iterator", IterElem(arg(a, 0))) })
	builtin("next", 1, 2, func(a []*hir.Type) *hir.Type { return IterElem(arg(a, 0)) })
	builtin("dict.fromkeys", 1, 2, func(a []*hir.Type) *hir.Type { return hir.DictOf(IterElem(arg(a, 0)), arg(a, 1)) })
	builtin("int.from_bytes", 2, 2, fixed(hir.TypeInt))
}

// LookupBuiltin returns the builtin entry for name ("dict.fromkeys" for
// type-constructor forms)
func LookupBuiltin(name string) (Builtin, bool) {
	b, ok := builtins[name]
	return b, ok
}

// IsBuiltin reports whether name is a builtin function
func IsBuiltin(name string) bool {
	_, ok := builtins[name]
	return ok
}

// Accepts reports whether the builtin accepts n positional arguments
func (b Builtin) Accepts(n int) bool {
	return n >= b.MinArgs && (b.MaxArgs < 0 || n <= b.MaxArgs)
}

// exceptionTypes are the builtin exception classes that become variants of
// the generated error enum
var exceptionTypes = map[string]bool{
	"Exception": true, "ValueError": true, "TypeError": true, "KeyError": true,
	"IndexError": true, "RuntimeError": true, "ZeroDivisionError": true,
	"AttributeError": true, "NotImplementedError": true, "IOError": true,
	"OSError": true, "FileNotFoundError": true, "StopIteration": true,
	"AssertionError": true, "OverflowError": true, "ArithmeticError": true,
	"LookupError": true, "PermissionError": true, "UnicodeDecodeError": true,
}

// IsExceptionType reports whether name is a builtin exception class
func IsExceptionType(name string) bool {
	return exceptionTypes[name]
}
