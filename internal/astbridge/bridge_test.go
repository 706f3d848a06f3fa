package astbridge

import (
	"testing"

	"github.com/paiml/depyler-sub010/internal/diagnostic"
	"github.com/paiml/depyler-sub010/internal/hir"
)

func lower(t *testing.T, src string) (*hir.Module, *diagnostic.Diagnostics) {
	t.Helper()
	mod, diags := Parse("main", src)
	if mod == nil {
		t.Fatalf("parse failed: %v", diags.Errors())
	}
	return mod, diags
}

func hasUnsupported(diags *diagnostic.Diagnostics, nodeKind string) bool {
	for _, d := range diags.OfKind(diagnostic.UnsupportedConstruct) {
		if d.NodeKind == nodeKind {
			return true
		}
	}
	return false
}

func TestFunctionSignature(t *testing.T) {
	mod, diags := lower(t, `
def add(a: int, b: int = 2, *rest: int, key: str, **opts) -> int:
    """Adds."""
    return a + b
`)
	if diags.HasErrors() {
		t.Fatalf("unexpected errors: %v", diags.Errors())
	}
	fn := mod.Function("add")
	if fn == nil {
		t.Fatal("expected function add")
	}
	if fn.Docstring != "Adds." {
		t.Errorf("expected docstring, got %q", fn.Docstring)
	}
	if !fn.ReturnType.Equal(hir.TypeInt) {
		t.Errorf("expected int return, got %s", fn.ReturnType)
	}
	kinds := []hir.ParamKind{hir.Positional, hir.Positional, hir.Varargs, hir.KwOnly, hir.Kwargs}
	if len(fn.Params) != len(kinds) {
		t.Fatalf("expected %d params, got %d", len(kinds), len(fn.Params))
	}
	for i, k := range kinds {
		if fn.Params[i].Kind != k {
			t.Errorf("param %d: expected kind %d, got %d", i, k, fn.Params[i].Kind)
		}
	}
	if fn.Params[4].Type != nil {
		t.Error("unannotated parameter should have a nil type")
	}
	if _, ok := fn.Body[0].(*hir.Return); !ok {
		t.Errorf("docstring should be stripped from the body, got %T", fn.Body[0])
	}
}

func TestAnnotations(t *testing.T) {
	tests := []struct {
		annotation string
		expected   string
	}{
		{"int", "int"},
		{"List[int]", "list[int]"},
		{"dict[str, list[float]]", "dict[str, list[float]]"},
		{"Optional[str]", "Optional[str]"},
		{"str | None", "Optional[str]"},
		{"Union[int, None]", "Optional[int]"},
		{"Tuple[int, str]", "tuple[int, str]"},
		{"Tuple[int, ...]", "list[int]"},
		{"'Node'", "Node"},
		{"Optional['Node']", "Optional[Node]"},
		{"typing.Set[int]", "set[int]"},
		{"Any", "Unknown"},
	}
	for _, tt := range tests {
		t.Run(tt.annotation, func(t *testing.T) {
			mod, _ := lower(t, "def f(x: "+tt.annotation+"):\n    pass\n")
			got := mod.Function("f").Params[0].Type
			if got.String() != tt.expected {
				t.Errorf("expected %s, got %s", tt.expected, got)
			}
		})
	}
}

func TestTypeVarAnnotation(t *testing.T) {
	mod, _ := lower(t, `
T = TypeVar("T")

def first(xs: list[T]) -> T:
    return xs[0]
`)
	if len(mod.Constants()) != 0 {
		t.Error("TypeVar declarations should not become constants")
	}
	ret := mod.Function("first").ReturnType
	if ret.Kind != hir.KindTypeVar {
		t.Errorf("expected a type variable, got %s", ret)
	}
}

func TestChainedAssignmentUsesTemp(t *testing.T) {
	mod, _ := lower(t, `
def f():
    a = b = compute()
`)
	body := mod.Function("f").Body
	if len(body) != 3 {
		t.Fatalf("expected temp + 2 assignments, got %d statements", len(body))
	}
	tmp := body[0].(*hir.Assign).Target.(*hir.Var).Name
	for i, name := range []string{"a", "b"} {
		as := body[i+1].(*hir.Assign)
		if as.Target.(*hir.Var).Name != name {
			t.Errorf("expected target %s, got %v", name, as.Target)
		}
		if as.Value.(*hir.Var).Name != tmp {
			t.Errorf("expected value %s", tmp)
		}
	}
}

func TestSubscriptAugAssignKept(t *testing.T) {
	mod, _ := lower(t, `
def f(counts: dict[str, int], k: str):
    counts[k] += 1
`)
	aug, ok := mod.Function("f").Body[0].(*hir.AugAssign)
	if !ok {
		t.Fatalf("expected AugAssign, got %T", mod.Function("f").Body[0])
	}
	if _, ok := aug.Target.(*hir.Index); !ok || aug.Op != hir.Add {
		t.Errorf("expected counts[k] += ..., got %T %s", aug.Target, aug.Op)
	}
}

func TestCallShapes(t *testing.T) {
	mod, _ := lower(t, `
def f(xs):
    print(len(xs))
    xs.append(1)
    math.sqrt(2.0)
    make()(3)
`)
	body := mod.Function("f").Body
	call := body[0].(*hir.ExprStmt).Value.(*hir.Call)
	if call.Func != "print" || call.Args[0].(*hir.Call).Func != "len" {
		t.Error("expected print(len(xs))")
	}
	mc := body[1].(*hir.ExprStmt).Value.(*hir.MethodCall)
	if mc.Method != "append" || mc.Recv.(*hir.Var).Name != "xs" {
		t.Error("expected xs.append method call")
	}
	if body[2].(*hir.ExprStmt).Value.(*hir.MethodCall).Method != "sqrt" {
		t.Error("module function call should lower to a method call on the module")
	}
	if body[3].(*hir.ExprStmt).Value.(*hir.Call).Callee == nil {
		t.Error("call of a call should keep the callee expression")
	}
}

func TestChainedComparison(t *testing.T) {
	mod, _ := lower(t, "def f(a, b, c):\n    return a < b <= c\n")
	cmp := mod.Function("f").Body[0].(*hir.Return).Value.(*hir.Compare)
	if len(cmp.Ops) != 2 || cmp.Ops[0] != hir.Lt || cmp.Ops[1] != hir.LtE {
		t.Errorf("expected chain [< <=], got %v", cmp.Ops)
	}
}

func TestFStringParts(t *testing.T) {
	mod, _ := lower(t, "def f(name, n):\n    return f\"hi {name}, n={n:>4}!\"\n")
	fs := mod.Function("f").Body[0].(*hir.Return).Value.(*hir.FString)
	if len(fs.Parts) != 5 {
		t.Fatalf("expected 5 parts, got %d", len(fs.Parts))
	}
	if fs.Parts[0].Literal != "hi " || fs.Parts[3].Spec != ">4" || fs.Parts[4].Literal != "!" {
		t.Errorf("unexpected parts: %+v", fs.Parts)
	}
}

func TestClassFields(t *testing.T) {
	mod, diags := lower(t, `
@dataclass
class Point:
    x: int
    y: int = 0
    count: ClassVar[int] = 0

class Stack:
    def __init__(self, name: str):
        self.items = []
        self.name = name
        self.size = 0

    def push(self, item):
        self.items.append(item)

    @staticmethod
    def empty():
        return Stack("")
`)
	if diags.HasErrors() {
		t.Fatalf("unexpected errors: %v", diags.Errors())
	}
	point := mod.Class("Point")
	if !point.IsDataclass || len(point.Fields) != 2 || len(point.ClassVars) != 1 {
		t.Errorf("unexpected Point: dataclass=%v fields=%d classvars=%d",
			point.IsDataclass, len(point.Fields), len(point.ClassVars))
	}
	if point.Field("y").Default == nil {
		t.Error("expected default for y")
	}

	stack := mod.Class("Stack")
	tests := []struct {
		name string
		typ  string
	}{
		{"items", "list[Unknown]"},
		{"name", "str"},
		{"size", "int"},
	}
	for _, tt := range tests {
		f := stack.Field(tt.name)
		if f == nil {
			t.Errorf("missing field %s", tt.name)
			continue
		}
		if f.Type.String() != tt.typ {
			t.Errorf("field %s: expected %s, got %s", tt.name, tt.typ, f.Type)
		}
	}
	if m := stack.Method("empty"); m == nil || !m.IsStatic || !m.IsMethod {
		t.Error("expected static method empty")
	}
}

func TestUnsupportedConstructs(t *testing.T) {
	tests := []struct {
		name     string
		src      string
		nodeKind string
	}{
		{"metaclass", "class A(metaclass=Meta):\n    pass\n", "metaclass"},
		{"multiple inheritance", "class A(B, C):\n    pass\n", "multiple inheritance"},
		{"unknown decorator", "@cache\ndef f():\n    pass\n", "decorator @cache"},
		{"walrus in assignment", "def f(x):\n    y = (n := x)\n", "walrus operator outside a condition"},
		{"sequence pattern", "def f(p):\n    match p:\n        case [a, b]:\n            pass\n", "match pattern (sequence)"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, diags := lower(t, tt.src)
			if !hasUnsupported(diags, tt.nodeKind) {
				t.Errorf("expected unsupported %q, got %v", tt.nodeKind, diags.All())
			}
		})
	}
}

func TestWalrusAllowedInConditions(t *testing.T) {
	_, diags := lower(t, `
def f(xs):
    if (n := len(xs)) > 3:
        return n
    while (line := read()) and line != "":
        pass
    return [y for x in xs if (y := x * 2) > 0]
`)
	if diags.HasErrors() {
		t.Errorf("unexpected errors: %v", diags.Errors())
	}
}

func TestUnknownDecoratorDropped(t *testing.T) {
	mod, _ := lower(t, "@cache\n@staticmethod\ndef f():\n    pass\n")
	fn := mod.Function("f")
	if fn.HasDecorator("cache") || !fn.HasDecorator("staticmethod") {
		t.Errorf("unexpected decorators %v", fn.Decorators)
	}
}

func TestMatchDesugarsToIfChain(t *testing.T) {
	mod, diags := lower(t, `
def describe(code):
    match code:
        case 200 | 201:
            return "ok"
        case 404:
            return "missing"
        case other:
            return str(other)
`)
	if diags.HasErrors() {
		t.Fatalf("unexpected errors: %v", diags.Errors())
	}
	body := mod.Function("describe").Body
	if len(body) != 2 {
		t.Fatalf("expected subject temp + if chain, got %d statements", len(body))
	}
	first := body[1].(*hir.If)
	if or, ok := first.Cond.(*hir.BoolOp); !ok || or.And || len(or.Values) != 2 {
		t.Errorf("expected or-condition, got %T", first.Cond)
	}
	second := first.Else[0].(*hir.If)
	if len(second.Else) != 2 {
		t.Fatalf("expected capture binding + return in final else, got %d", len(second.Else))
	}
	bind := second.Else[0].(*hir.Assign)
	if bind.Target.(*hir.Var).Name != "other" {
		t.Error("capture pattern should bind the subject")
	}
}

func TestMainBlock(t *testing.T) {
	mod, _ := lower(t, `
def main():
    print("hi")

if __name__ == "__main__":
    main()
`)
	mb := mod.Main()
	if mb == nil || len(mb.Body) != 1 {
		t.Fatal("expected main block with one statement")
	}
}

func TestTopLevelStatementsFoldIntoMain(t *testing.T) {
	mod, _ := lower(t, "LIMIT = 10\nfor i in range(LIMIT):\n    print(i)\n")
	if len(mod.Constants()) != 1 {
		t.Errorf("expected one constant, got %d", len(mod.Constants()))
	}
	if mod.Main() == nil {
		t.Error("loose statements should be collected into main")
	}
}

func TestTryHandlers(t *testing.T) {
	mod, _ := lower(t, `
def f(s):
    try:
        return int(s)
    except (ValueError, KeyError) as e:
        return 0
    except Exception:
        return -1
    finally:
        print("done")
`)
	try := mod.Function("f").Body[0].(*hir.Try)
	if len(try.Handlers) != 2 {
		t.Fatalf("expected 2 handlers, got %d", len(try.Handlers))
	}
	if got := try.Handlers[0].Types; len(got) != 2 || got[0] != "ValueError" || try.Handlers[0].Name != "e" {
		t.Errorf("unexpected first handler %+v", try.Handlers[0])
	}
	if len(try.Handlers[1].Types) != 0 {
		t.Error("except Exception should be a catch-all")
	}
	if len(try.Finally) != 1 {
		t.Error("expected finally body")
	}
}

func TestParseErrorReturnsNilModule(t *testing.T) {
	mod, diags := Parse("main", "def f(:\n")
	if mod != nil {
		t.Error("expected nil module on parse error")
	}
	if !diags.HasParseErrors() {
		t.Error("expected parse diagnostics")
	}
}

func TestDeterministic(t *testing.T) {
	src := "def f(a, b):\n    x = y = a + b\n    return x * y\n"
	a, _ := lower(t, src)
	b, _ := lower(t, src)
	if len(a.Function("f").Body) != len(b.Function("f").Body) {
		t.Fatal("lowering should be deterministic")
	}
	na := a.Function("f").Body[0].(*hir.Assign).Target.(*hir.Var).Name
	nb := b.Function("f").Body[0].(*hir.Assign).Target.(*hir.Var).Name
	if na != nb {
		t.Errorf("temp names differ: %s vs %s", na, nb)
	}
}
