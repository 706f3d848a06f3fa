package analysis

import (
	"testing"

	"github.com/sanity-io/litter"

	"github.com/paiml/depyler-sub010/internal/astbridge"
	"github.com/paiml/depyler-sub010/internal/diagnostic"
	"github.com/paiml/depyler-sub010/internal/genctx"
	"github.com/paiml/depyler-sub010/internal/hir"
)

func analyze(t *testing.T, src string) (*hir.Module, *genctx.Context) {
	t.Helper()
	mod, diags := astbridge.Parse("test", src)
	if mod == nil {
		t.Fatalf("parse failed: %v", diags.Errors())
	}
	ctx := genctx.New(genctx.Options{})
	Run(mod, ctx)
	return mod, ctx
}

func param(t *testing.T, ctx *genctx.Context, fn, name string) *genctx.ParamInfo {
	t.Helper()
	sig := ctx.Sig(fn)
	if sig == nil {
		t.Fatalf("no signature for %s", fn)
	}
	p := sig.ParamNamed(name)
	if p == nil {
		t.Fatalf("no parameter %s in %s", name, fn)
	}
	return p
}

func TestBorrowFlags(t *testing.T) {
	tests := []struct {
		name   string
		src    string
		fn     string
		param  string
		borrow genctx.BorrowKind
		mut    bool
	}{
		{"append makes &mut", "def f(xs: list[int]) -> int:\n    xs.append(1)\n    return len(xs)\n", "f", "xs", genctx.Unique, false},
		{"read-only string is shared", "def g(s: str) -> str:\n    return s.upper()\n", "g", "s", genctx.Shared, false},
		{"int stays owned", "def h(n: int) -> int:\n    return n * 2\n", "h", "n", genctx.Owned, false},
		{"dict read is shared", "def k(d: dict[str, int]) -> int:\n    return d[\"a\"]\n", "k", "d", genctx.Shared, false},
		{"returned collection is owned", "def m(xs: list[int]) -> list[int]:\n    return xs\n", "m", "xs", genctx.Owned, false},
		{"rebound param is owned mut", "def r(n: int) -> int:\n    n = n + 1\n    return n\n", "r", "n", genctx.Owned, true},
		{"index write makes &mut", "def w(xs: list[int], i: int):\n    xs[i] = 0\n", "w", "xs", genctx.Unique, false},
		{"name heuristic borrows", "def u(config):\n    return config.get(\"a\")\n", "u", "config", genctx.Shared, false},
		{"stored in a field is owned", "class Box:\n    def __init__(self, items: list[int]):\n        self.items = items\n", "Box.__init__", "items", genctx.Owned, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, ctx := analyze(t, tt.src)
			p := param(t, ctx, tt.fn, tt.param)
			if p.Borrow != tt.borrow {
				t.Errorf("expected borrow %s, got %s", tt.borrow, p.Borrow)
			}
			if p.Mut != tt.mut {
				t.Errorf("expected mut=%v, got %v", tt.mut, p.Mut)
			}
		})
	}
}

func TestStuckParameterDefaultsToOwned(t *testing.T) {
	mod, diags := astbridge.Parse("test", "def s(x):\n    return x + 1\n")
	if mod == nil {
		t.Fatal("parse failed")
	}
	ctx := genctx.New(genctx.Options{})
	Run(mod, ctx)
	diags.Merge(ctx.Diags)
	if p := param(t, ctx, "s", "x"); p.Borrow != genctx.Owned || !p.Stuck {
		t.Errorf("expected stuck owned parameter, got %s stuck=%v", p.Borrow, p.Stuck)
	}
	if len(diags.OfKind(diagnostic.InferenceStuck)) != 1 {
		t.Errorf("expected one InferenceStuck diagnostic, got %v", diags.All())
	}
}

func TestMutateAndReturnTieBreak(t *testing.T) {
	_, ctx := analyze(t, `
def push(xs: list[int]):
    xs.append(1)
    return xs

def push_owned(xs: list[int]) -> list[int]:
    xs.append(1)
    return xs
`)
	if p := param(t, ctx, "push", "xs"); p.Borrow != genctx.Unique || !ctx.Sig("push").MutReturnRewrite {
		t.Errorf("unannotated mutate-and-return should take &mut and return unit")
	}
	if p := param(t, ctx, "push_owned", "xs"); p.Borrow != genctx.Owned || !p.Mut {
		t.Errorf("annotated mutate-and-return should keep an owned mut binding, got %s", p.Borrow)
	}
	if ctx.Sig("push_owned").MutReturnRewrite {
		t.Error("push_owned must not be rewritten")
	}
}

func TestForwardReferenceSecondRound(t *testing.T) {
	_, ctx := analyze(t, `
def caller(xs: list[int]) -> None:
    helper(xs)

def helper(ys: list[int]) -> None:
    ys.append(1)
`)
	if p := param(t, ctx, "helper", "ys"); p.Borrow != genctx.Unique {
		t.Fatalf("helper.ys should be &mut, got %s", p.Borrow)
	}
	if p := param(t, ctx, "caller", "xs"); p.Borrow != genctx.Unique {
		t.Errorf("caller.xs is passed where &mut is expected, got %s", p.Borrow)
	}
}

func TestCanFailFixpoint(t *testing.T) {
	mem := &genctx.MemoryTracer{}
	mod, _ := astbridge.Parse("test", `
def check(x: int) -> int:
    if x < 0:
        raise ValueError("neg")
    return x

def use(x: int) -> int:
    return check(x) + 1

def outer(x: int) -> int:
    return use(x)

def pure(x: int) -> int:
    return x
`)
	ctx := genctx.New(genctx.Options{Tracer: mem})
	Run(mod, ctx)
	for _, fn := range []string{"check", "use", "outer"} {
		if !ctx.Sig(fn).CanFail || !ctx.ResultFuncs.Contains(fn) {
			t.Errorf("%s should be can-fail", fn)
		}
	}
	if ctx.Sig("pure").CanFail {
		t.Error("pure must not be can-fail")
	}
	if got := len(mem.Of("can-fail")); got != 3 {
		t.Errorf("expected 3 can-fail decisions, got %d", got)
	}
}

func TestMutableLocals(t *testing.T) {
	_, ctx := analyze(t, `
def f() -> int:
    a = 1
    b = 2
    b = 3
    xs = []
    xs.append(a)
    c = 0
    c += 1
    d = {}
    d["k"] = 1
    return a + b + c
`)
	tests := []struct {
		name    string
		mutable bool
	}{
		{"a", false},
		{"b", true},
		{"xs", true},
		{"c", true},
		{"d", true},
	}
	for _, tt := range tests {
		if got := ctx.IsMutable("f", tt.name); got != tt.mutable {
			t.Errorf("%s: expected mutable=%v, got %v", tt.name, tt.mutable, got)
		}
	}
}

func TestHoistingAcrossBranches(t *testing.T) {
	mod, ctx := analyze(t, `
def pick(flag: bool) -> int:
    if flag:
        v = 1
    else:
        v = 2
    return v
`)
	ifStmt, ok := mod.Function("pick").Body[0].(*hir.If)
	if !ok {
		t.Fatalf("expected if statement, got %s", litter.Sdump(mod.Function("pick").Body[0]))
	}
	hoisted := ctx.Hoisted[ifStmt]
	if len(hoisted) != 1 || hoisted[0] != "v" {
		t.Errorf("expected v hoisted, got %v", hoisted)
	}
	if ctx.IsMutable("pick", "v") {
		t.Error("a branch-assigned hoisted name is assigned once per path")
	}
}

func TestUseAfterMove(t *testing.T) {
	mod, ctx := analyze(t, `
def consume(xs: list[int]) -> list[int]:
    return xs

def later() -> int:
    data = [1, 2]
    consume(data)
    return len(data)

def last() -> int:
    data = [1, 2]
    out = consume(data)
    return len(out)
`)
	call := mod.Function("later").Body[1].(*hir.ExprStmt).Value.(*hir.Call)
	if !ctx.UsedLater[call.Args[0].(*hir.Var)] {
		t.Error("data is read after being moved and must be cloned")
	}
	assign := mod.Function("last").Body[1].(*hir.Assign)
	arg := assign.Value.(*hir.Call).Args[0].(*hir.Var)
	if ctx.UsedLater[arg] {
		t.Error("data is not read after the move")
	}
}

func TestNoneGuards(t *testing.T) {
	mod, ctx := analyze(t, `
from typing import Optional

def f(x: Optional[int]) -> int:
    if x is None:
        return 0
    return x + 1

def g(x: Optional[int]) -> int:
    if x is not None:
        return x
    return 0
`)
	guard := ctx.NoneGuards[mod.Function("f").Body[0].(*hir.If)]
	if guard == nil || guard.Var != "x" || guard.Some || !guard.Diverges {
		t.Errorf("expected diverging None guard, got %+v", guard)
	}
	guard = ctx.NoneGuards[mod.Function("g").Body[0].(*hir.If)]
	if guard == nil || !guard.Some || guard.Diverges {
		t.Errorf("expected is-not-None guard, got %+v", guard)
	}
}

func TestArgparsePattern(t *testing.T) {
	_, ctx := analyze(t, `
import argparse

def main():
    parser = argparse.ArgumentParser(description="tool")
    parser.add_argument("input")
    parser.add_argument("--count", type=int, default=1)
    parser.add_argument("-v", "--verbose", action="store_true")
    args = parser.parse_args()
    print(args.input)
`)
	info := ctx.Argparse
	if info == nil {
		t.Fatal("argparse pattern not recognized")
	}
	if info.ParserVar != "parser" || info.ArgsVar != "args" || info.Description != "tool" {
		t.Errorf("unexpected parser info %+v", info)
	}
	if len(info.Fields) != 3 || len(info.Skip) != 4 {
		t.Fatalf("expected 3 fields and 4 skipped statements, got %d and %d", len(info.Fields), len(info.Skip))
	}
	tests := []struct {
		field string
		typ   *hir.Type
	}{
		{"input", hir.TypeString},
		{"count", hir.TypeInt},
		{"verbose", hir.TypeBool},
	}
	for _, tt := range tests {
		f := info.Field(tt.field)
		if f == nil {
			t.Errorf("missing field %s", tt.field)
			continue
		}
		if got := ArgFieldType(f); !got.Equal(tt.typ) {
			t.Errorf("%s: expected %s, got %s", tt.field, tt.typ, got)
		}
	}
	if info.Field("verbose").Short != "v" {
		t.Error("expected short flag v")
	}
	if !ctx.Needs(genctx.NeedClap) || len(ctx.Crates()) != 1 {
		t.Errorf("expected clap to be required, got %v", ctx.Crates())
	}
}

func TestDataclassConstructorAndRecursiveFields(t *testing.T) {
	_, ctx := analyze(t, `
from typing import Optional

@dataclass
class Point:
    x: int
    y: int = 0

class Node:
    def __init__(self, value: int, next: Optional["Node"] = None):
        self.value = value
        self.next = next
`)
	sig := ctx.Sig("Point.__init__")
	if sig == nil || len(sig.Params) != 2 {
		t.Fatalf("expected generated constructor with two parameters, got %s", litter.Sdump(sig))
	}
	if sig.Params[0].Name != "x" || sig.Params[1].Default == nil {
		t.Error("constructor parameters follow field order and keep defaults")
	}
	if !ctx.IsRecursiveField("Node", "next") {
		t.Error("Node.next is self-referential")
	}
	if ctx.IsRecursiveField("Node", "value") {
		t.Error("Node.value is not self-referential")
	}
}

func TestExceptionClassesBecomeVariants(t *testing.T) {
	_, ctx := analyze(t, `
class AppError(Exception):
    pass

class NotFound(AppError):
    pass

class Plain:
    pass
`)
	got := ctx.ErrorVariants()
	if len(got) != 2 || got[0] != "AppError" || got[1] != "NotFound" {
		t.Errorf("unexpected error variants %v", got)
	}
}

func TestLocalInference(t *testing.T) {
	_, ctx := analyze(t, `
def f(xs: list[int]) -> float:
    total = 0
    for x in xs:
        total += x
    avg = total / len(xs)
    names = []
    names.append("a")
    return avg

def g(n: int):
    if n > 0:
        return n
    return None
`)
	tests := []struct {
		name string
		typ  *hir.Type
	}{
		{"total", hir.TypeInt},
		{"x", hir.TypeInt},
		{"avg", hir.TypeFloat},
		{"names", hir.ListOf(hir.TypeString)},
	}
	for _, tt := range tests {
		if got := ctx.VarType("f", tt.name); !got.Equal(tt.typ) {
			t.Errorf("%s: expected %s, got %s", tt.name, tt.typ, got)
		}
	}
	g := ctx.Sig("g")
	if !g.Return.Equal(hir.TypeInt) || !g.ReturnsOption {
		t.Errorf("expected Option<int> return, got %s option=%v", g.Return, g.ReturnsOption)
	}
}

func TestDataclassImportResolves(t *testing.T) {
	src := "from dataclasses import dataclass, field\n\n@dataclass\nclass Point:\n    x: int\n    y: int = 0\n"
	_, ctx := analyze(t, src)
	if got := ctx.Diags.OfKind(diagnostic.UnresolvedName); len(got) != 0 {
		t.Errorf("expected dataclasses imports to resolve, got %v", got)
	}
}

func TestUnresolvedImport(t *testing.T) {
	_, ctx := analyze(t, "import numpy as np\nfrom os.path import join\n")
	if len(ctx.Diags.OfKind(diagnostic.UnresolvedName)) != 1 {
		t.Errorf("expected one unresolved import, got %v", ctx.Diags.All())
	}
	if imp, ok := ctx.ImportedItems["join"]; !ok || !imp.Known {
		t.Error("os.path.join should resolve through the registry")
	}
}

func TestAnnotationOverridesBorrow(t *testing.T) {
	tests := []struct {
		name   string
		src    string
		fn     string
		param  string
		borrow genctx.BorrowKind
		strRef bool
	}{
		{
			"owned keeps a read-only list by value",
			"# @depyler: ownership = owned\ndef f(xs: list[int]) -> int:\n    return len(xs)\n",
			"f", "xs", genctx.Owned, false,
		},
		{
			"borrowed lends an unused list",
			"# @depyler: ownership = borrowed\ndef g(xs: list[int]):\n    pass\n",
			"g", "xs", genctx.Shared, false,
		},
		{
			"borrowed does not borrow a returned value",
			"# @depyler: ownership = borrowed\ndef h(xs: list[int]) -> list[int]:\n    return xs\n",
			"h", "xs", genctx.Owned, false,
		},
		{
			"always_owned keeps String",
			"# @depyler: string_strategy = always_owned\ndef k(s: str) -> int:\n    return len(s)\n",
			"k", "s", genctx.Owned, false,
		},
		{
			"unannotated string is &str",
			"def m(s: str) -> int:\n    return len(s)\n",
			"m", "s", genctx.Shared, true,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, ctx := analyze(t, tt.src)
			p := param(t, ctx, tt.fn, tt.param)
			if p.Borrow != tt.borrow {
				t.Errorf("expected borrow %s, got %s", tt.borrow, p.Borrow)
			}
			if p.StrRef != tt.strRef {
				t.Errorf("expected str ref %v, got %v", tt.strRef, p.StrRef)
			}
		})
	}
}

func TestUnknownAnnotationWarns(t *testing.T) {
	_, ctx := analyze(t, "# @depyler: turbo = on\ndef f() -> int:\n    return 1\n")
	if ctx.Diags.WarningCount() == 0 {
		t.Error("expected a warning for an unknown annotation key")
	}
}

func TestGeneratorSignature(t *testing.T) {
	src := "def count_up(n: int):\n    i = 0\n    while i < n:\n        yield i\n        i += 1\n\n" +
		"def names(xs: list[str]):\n    for x in xs:\n        yield x.upper()\n"
	_, ctx := analyze(t, src)
	tests := []struct {
		fn   string
		item *hir.Type
	}{
		{"count_up", hir.TypeInt},
		{"names", hir.TypeString},
	}
	for _, tt := range tests {
		sig := ctx.Sig(tt.fn)
		if !sig.IsGenerator {
			t.Errorf("%s: not marked as a generator", tt.fn)
			continue
		}
		if sig.Return == nil || sig.Return.Name != "Iterator" || !sig.Return.Elem().Equal(tt.item) {
			t.Errorf("%s: expected Iterator[%s], got %s", tt.fn, tt.item, sig.Return)
		}
		if sig.CanFail || sig.ReturnsOption {
			t.Errorf("%s: generator must not return Result or Option", tt.fn)
		}
	}
	if p := param(t, ctx, "names", "xs"); p.Borrow != genctx.Owned {
		t.Errorf("generator parameter should be owned, got %s", p.Borrow)
	}
}
