// Package registry holds the static lowering tables: the module-mapping
// registry (dotted Python name -> Rust path and call template), the crate
// table, the method-on-receiver registry and the builtin table.
//
// Templates are Rust source fragments with placeholders:
//
//	{0} {1} ...  adjusted call arguments
//	{args}       all arguments joined with ", "
//	{r}          the receiver expression (method templates)
//	{int}        the integer type selected for the module (i32 or i64)
package registry

import (
	"sort"
	"strings"

	"github.com/paiml/depyler-sub010/internal/hir"
)

// EntryKind classifies a mapped symbol
type EntryKind int

const (
	KindFunction EntryKind = iota
	KindType
	KindConst
	KindModule
)

func (k EntryKind) String() string {
	switch k {
	case KindFunction:
		return "function"
	case KindType:
		return "type"
	case KindConst:
		return "const"
	case KindModule:
		return "module"
	}
	return "unknown"
}

// ConstructorPattern is how X(args) lowers for a mapped type
type ConstructorPattern int

const (
	// ConstructFunction calls the path as a plain function
	ConstructFunction ConstructorPattern = iota
	// ConstructNew calls Path::new(args)
	ConstructNew
	// ConstructMethod calls Path::<Method>(args)
	ConstructMethod
)

// Constructor pairs a pattern with the method name ConstructMethod uses
type Constructor struct {
	Pattern ConstructorPattern
	Method  string
}

// Entry is one row of the module-mapping registry
type Entry struct {
	Python          string
	Rust            string
	Kind            EntryKind
	Constructor     Constructor
	BorrowByDefault bool
	Crate           string

	// Forms[n] is the call template for n arguments; "" marks an arity
	// without a lowering. For constants Forms[0] is the value expression.
	Forms []string

	// Result is the Python-level result type of a call, or of the constant
	Result *hir.Type

	// Needs lists preamble helpers the lowering references
	Needs []string
}

// Form returns the template for a call with n arguments
func (e Entry) Form(n int) (string, bool) {
	if n < len(e.Forms) && e.Forms[n] != "" {
		return e.Forms[n], true
	}
	// a single trailing form taking {args} accepts any arity
	if len(e.Forms) > 0 {
		last := e.Forms[len(e.Forms)-1]
		if strings.Contains(last, "{args}") {
			return last, true
		}
	}
	return "", false
}

// Construct renders the constructor call for a type entry
func (e Entry) Construct(args string) string {
	switch e.Constructor.Pattern {
	case ConstructNew:
		return e.Rust + "::new(" + args + ")"
	case ConstructMethod:
		return e.Rust + "::" + e.Constructor.Method + "(" + args + ")"
	}
	return e.Rust + "(" + args + ")"
}

// Module describes a mapped Python module
type Module struct {
	Name  string
	Rust  string
	Crate string
}

var (
	modules = map[string]Module{}
	entries = map[string]Entry{}
)

func module(name, rust, crate string, items ...Entry) {
	modules[name] = Module{Name: name, Rust: rust, Crate: crate}
	for _, it := range items {
		if it.Crate == "" {
			it.Crate = crate
		}
		it.Python = name + "." + it.Python
		entries[it.Python] = it
	}
}

func fn(name string, result *hir.Type, forms ...string) Entry {
	return Entry{Python: name, Kind: KindFunction, Forms: forms, Result: result}
}

func constant(name string, result *hir.Type, value string) Entry {
	return Entry{Python: name, Kind: KindConst, Forms: []string{value}, Result: result}
}

func typ(name, rust string, ctor Constructor, forms ...string) Entry {
	return Entry{
		Python:          name,
		Rust:            rust,
		Kind:            KindType,
		Constructor:     ctor,
		BorrowByDefault: true,
		Forms:           forms,
		Result:          hir.CustomType(name),
	}
}

// Lookup resolves a dotted Python name such as "collections.Counter"
func Lookup(dotted string) (Entry, bool) {
	e, ok := entries[dotted]
	return e, ok
}

// LookupModule resolves a module name such as "os.path"
func LookupModule(name string) (Module, bool) {
	m, ok := modules[name]
	return m, ok
}

// ModuleNames returns the registered module names, sorted
func ModuleNames() []string {
	out := make([]string, 0, len(modules))
	for name := range modules {
		out = append(out, name)
	}
	sort.Strings(out)
	return out
}

// Expand substitutes template placeholders
func Expand(template string, recv string, args []string, intType string) string {
	var sb strings.Builder
	for i := 0; i < len(template); i++ {
		c := template[i]
		if c != '{' {
			sb.WriteByte(c)
			continue
		}
		end := strings.IndexByte(template[i:], '}')
		if end < 0 {
			sb.WriteString(template[i:])
			break
		}
		key := template[i+1 : i+end]
		switch {
		case key == "r":
			sb.WriteString(recv)
		case key == "int":
			sb.WriteString(intType)
		case key == "args":
			sb.WriteString(strings.Join(args, ", "))
		case len(key) == 1 && key[0] >= '0' && key[0] <= '9':
			n := int(key[0] - '0')
			if n < len(args) {
				sb.WriteString(args[n])
			}
		default:
			sb.WriteByte(c)
			continue
		}
		i += end
	}
	return sb.String()
}
