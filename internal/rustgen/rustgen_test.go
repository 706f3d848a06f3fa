package rustgen

import (
	"strings"
	"testing"

	"github.com/paiml/depyler-sub010/internal/analysis"
	"github.com/paiml/depyler-sub010/internal/astbridge"
	"github.com/paiml/depyler-sub010/internal/diagnostic"
	"github.com/paiml/depyler-sub010/internal/genctx"
	"github.com/paiml/depyler-sub010/internal/hir"
	"github.com/paiml/depyler-sub010/internal/rustast"
)

func transpile(t *testing.T, src string) (string, *genctx.Context) {
	t.Helper()
	return transpileWith(t, src, genctx.Options{})
}

func transpileWith(t *testing.T, src string, opts genctx.Options) (string, *genctx.Context) {
	t.Helper()
	mod, diags := astbridge.Parse("test", src)
	if mod == nil {
		t.Fatalf("parse failed: %v", diags.Errors())
	}
	ctx := genctx.New(opts)
	analysis.Run(mod, ctx)
	return rustast.Print(Generate(mod, ctx)), ctx
}

func TestGenerate(t *testing.T) {
	tests := []struct {
		name string
		src  string
		want []string
	}{
		{
			name: "typed function",
			src:  "def add(a: int, b: int) -> int:\n    return a + b\n",
			want: []string{"fn add(a: i32, b: i32) -> i32", "a + b"},
		},
		{
			name: "list append",
			src:  "def push_one(xs: list[int]) -> int:\n    xs.append(1)\n    return len(xs)\n",
			want: []string{"xs.push(1)", "xs.len() as i32"},
		},
		{
			name: "string method",
			src:  "def shout(s: str) -> str:\n    return s.upper()\n",
			want: []string{"to_uppercase()"},
		},
		{
			name: "raise becomes Err",
			src:  "def check(x: int) -> int:\n    if x < 0:\n        raise ValueError(\"negative\")\n    return x\n",
			want: []string{"DepylerError::ValueError", "Ok(x)", "pub enum DepylerError", "Result<i32, DepylerError>"},
		},
		{
			name: "floor division",
			src:  "def half(a: int, b: int) -> int:\n    return a // b\n",
			want: []string{"py_floor_div(a, b)", "pub fn py_floor_div(a: i32, b: i32) -> i32"},
		},
		{
			name: "class with constructor",
			src: "class Point:\n    def __init__(self, x: int, y: int):\n        self.x = x\n        self.y = y\n\n" +
				"    def norm2(self) -> int:\n        return self.x * self.x + self.y * self.y\n",
			want: []string{"pub struct Point", "impl Point", "pub fn new(", "Self { x, y }", "pub fn norm2(&self) -> i32"},
		},
		{
			name: "exception class is an error variant",
			src: "class NotFound(Exception):\n    pass\n\n" +
				"def find(x: int) -> int:\n    if x == 0:\n        raise NotFound(\"missing\")\n    return x\n",
			want: []string{"NotFound(String)", "DepylerError::NotFound"},
		},
		{
			name: "sorted with key",
			src:  "def by_len(words: list[str]) -> list[str]:\n    return sorted(words, key=lambda w: len(w))\n",
			want: []string{"sort_by_key(", "_s"},
		},
		{
			name: "argparse becomes clap",
			src: "import argparse\n\ndef main():\n    parser = argparse.ArgumentParser(description=\"demo\")\n" +
				"    parser.add_argument(\"name\")\n    parser.add_argument(\"--count\", type=int, default=1)\n" +
				"    args = parser.parse_args()\n    print(args.name)\n",
			want: []string{"derive(clap::Parser, Debug)", "use clap::Parser;", "default_value_t = 1"},
		},
		{
			name: "class attribute is an associated const",
			src:  "class K:\n    LIMIT = 3\n",
			want: []string{"pub const LIMIT: i32 = 3;"},
		},
		{
			name: "try except finally",
			src: "def check(x: int) -> int:\n    try:\n        if x < 0:\n            raise ValueError(\"neg\")\n        r = x\n" +
				"    except ValueError:\n        r = 0\n    finally:\n        print(\"done\")\n    return r\n",
			want: []string{"Option<DepylerError> = None", "break 'try_", "DepylerError::ValueError(_)", "println!(\"done\")", "if let Some(_err) ="},
		},
		{
			name: "truthiness per type",
			src: "def t(s: str, n: int, xs: list[int], f: float) -> int:\n    c = 0\n" +
				"    if s:\n        c += 1\n    if n:\n        c += 1\n    if xs:\n        c += 1\n    if f:\n        c += 1\n    return c\n",
			want: []string{"!s.is_empty()", "n != 0", "!xs.is_empty()", "f != 0.0"},
		},
		{
			name: "branch assignments are hoisted",
			src:  "def pick(flag: bool) -> int:\n    if flag:\n        v = 1\n    else:\n        v = 2\n    return v\n",
			want: []string{"v: i32;", "v = 1;", "v = 2;"},
		},
		{
			name: "negative range step",
			src:  "def down() -> int:\n    t = 0\n    for i in range(10, 0, -2):\n        t += i\n    return t\n",
			want: []string{"1..=10", ".rev().step_by(2)"},
		},
		{
			name: "runtime range step",
			src:  "def walk(a: int, b: int, c: int) -> int:\n    t = 0\n    for i in range(a, b, c):\n        t += i\n    return t\n",
			want: []string{"py_range(a, b, c)", "pub fn py_range("},
		},
		{
			name: "augmented assignment on an element",
			src:  "def bump(xs: list[int], i: int):\n    xs[i] += 1\n",
			want: []string{"] += 1", "__idx < 0"},
		},
		{
			name: "chained comparison",
			src:  "def between(a: int, b: int, c: int) -> bool:\n    return a < b < c\n",
			want: []string{"a < b && b < c"},
		},
		{
			name: "chained comparison evaluates the middle once",
			src:  "def mid(x: int) -> int:\n    return x * 2\n\ndef ok(x: int) -> bool:\n    return 0 < mid(x) < 10\n",
			want: []string{"let _cmp", "&&"},
		},
		{
			name: "true division widens",
			src:  "def ratio(a: int, b: int) -> float:\n    return a / b\n",
			want: []string{"as f64"},
		},
		{
			name: "integer power",
			src:  "def sq(n: int) -> int:\n    return n ** 2\n",
			want: []string{".pow("},
		},
		{
			name: "membership by container type",
			src: "def has(d: dict[str, int], k: str) -> bool:\n    return k in d\n\n" +
				"def sub(s: str, t: str) -> bool:\n    return t in s\n\n" +
				"def mem(xs: list[int], x: int) -> bool:\n    return x in xs\n",
			want: []string{"d.contains_key(k)", "s.contains(t)", "xs.contains(&x)"},
		},
		{
			name: "f-string",
			src:  "def greet(name: str) -> str:\n    return f\"hello {name}\"\n",
			want: []string{"format!(\"hello {}\", name)"},
		},
		{
			name: "assert equality",
			src:  "def chk(a: int):\n    assert a == 1\n",
			want: []string{"assert_eq!(a, 1)"},
		},
		{
			name: "slice with upper bound below lower",
			src:  "def sl(xs: list[int]) -> list[int]:\n    return xs[1:-1]\n",
			want: []string{".saturating_sub(1)", ".max("},
		},
		{
			name: "runtime negative index",
			src:  "def at(xs: list[int], i: int) -> int:\n    return xs[i]\n",
			want: []string{"__idx < 0", "as isize + __idx"},
		},
		{
			name: "zero division inside try",
			src: "def safe(x: int) -> int:\n    try:\n        y = 10 // x\n    except ZeroDivisionError:\n        y = 0\n    return y\n",
			want: []string{"__divisor == 0", "DepylerError::ZeroDivisionError(\"integer division or modulo by zero\".to_string())"},
		},
		{
			name: "hex keeps the sign",
			src:  "def h(n: int) -> str:\n    return hex(n)\n",
			want: []string{"unsigned_abs()", "{:#x}"},
		},
		{
			name: "generator becomes an iterator struct",
			src:  "def count_up(n: int):\n    i = 0\n    while i < n:\n        yield i\n        i += 1\n",
			want: []string{
				"pub struct CountUpGenerator",
				"impl Iterator for CountUpGenerator",
				"type Item = i32;",
				"return Some(self.i)",
				"self.i += 1",
				"self.i < self.n",
				"fn count_up(n: i32) -> impl Iterator<Item = i32>",
				"__state: 0",
			},
		},
		{
			name: "generator loop keeps its iterator in the state",
			src:  "def evens(xs: list[int]):\n    for x in xs:\n        if x % 2 == 0:\n            yield x\n",
			want: []string{"__iter_0: Box<dyn Iterator<Item = i32>>", "self.__iter_0.next()", "Some(_v) =>", "self.x = _v;"},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			out, _ := transpile(t, tt.src)
			for _, w := range tt.want {
				if !strings.Contains(out, w) {
					t.Errorf("output missing %q:\n%s", w, out)
				}
			}
		})
	}
}

func TestGenerateHeader(t *testing.T) {
	out, _ := transpile(t, "X = 1\n")
	if !strings.Contains(out, "Generated by depyler") {
		t.Errorf("missing header:\n%s", out)
	}
	if strings.Contains(out, "DepylerError") {
		t.Errorf("error type emitted for a module that never raises:\n%s", out)
	}
}

func TestExceptionClassHasNoStruct(t *testing.T) {
	out, _ := transpile(t, "class Oops(Exception):\n    pass\n\ndef f():\n    raise Oops(\"x\")\n")
	if strings.Contains(out, "struct Oops") {
		t.Errorf("exception class lowered to a struct:\n%s", out)
	}
}

func TestUnresolvedCallWarns(t *testing.T) {
	_, ctx := transpile(t, "def f() -> int:\n    return mystery(1)\n")
	if ctx.Diags.WarningCount() == 0 {
		t.Error("expected a warning for an unresolved call")
	}
}

func TestHeterogeneousListByMode(t *testing.T) {
	src := "def show():\n    xs = [1, \"a\"]\n    print(xs)\n"

	out, _ := transpileWith(t, src, genctx.Options{Mode: genctx.Hybrid})
	for _, w := range []string{"DepylerValue::from(1)", "impl From<i32> for DepylerValue", "impl From<&str> for DepylerValue"} {
		if !strings.Contains(out, w) {
			t.Errorf("hybrid output missing %q:\n%s", w, out)
		}
	}

	_, ctx := transpileWith(t, src, genctx.Options{Mode: genctx.Strict})
	if len(ctx.Diags.OfKind(diagnostic.TypeMismatch)) == 0 {
		t.Errorf("strict mode recorded no type mismatch: %v", ctx.Diags.All())
	}
}

func TestGlobalDeclarationIsReported(t *testing.T) {
	_, ctx := transpile(t, "X = 1\n\ndef f() -> int:\n    global X\n    return X\n")
	found := false
	for _, d := range ctx.Diags.OfKind(diagnostic.UnsupportedConstruct) {
		if d.NodeKind == "global" {
			found = true
		}
	}
	if !found {
		t.Errorf("expected an unsupported construct diagnostic for global: %v", ctx.Diags.All())
	}
}

func TestNotFoldsNegation(t *testing.T) {
	tests := []struct {
		name string
		src  string
		want string
	}{
		{"collection", "def e(xs: list[int]) -> bool:\n    return not xs\n", "xs.is_empty()"},
		{"optional", "def n(x: int | None) -> bool:\n    return not x\n", "x.is_none()"},
		{"double not", "def b(f: bool) -> bool:\n    return not not f\n", "f"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			out, _ := transpile(t, tt.src)
			if !strings.Contains(out, tt.want) {
				t.Errorf("output missing %q:\n%s", tt.want, out)
			}
			if strings.Contains(out, "!!") {
				t.Errorf("double negation emitted:\n%s", out)
			}
		})
	}
}

func TestAdjustIsIdempotent(t *testing.T) {
	src := "def total(xs: list[int]) -> int:\n    return sum(xs)\n\n" +
		"def keep(name: str) -> str:\n    return name\n\n" +
		"def take(s: str, xs: list[int]) -> int:\n    xs.append(len(s))\n    return len(xs)\n"
	mod, diags := astbridge.Parse("test", src)
	if mod == nil {
		t.Fatalf("parse failed: %v", diags.Errors())
	}
	ctx := genctx.New(genctx.Options{})
	analysis.Run(mod, ctx)
	g := &generator{ctx: ctx, mod: mod, statics: map[string]bool{}, renames: map[string]string{}}
	take := ctx.Sig("take")
	g.fn = &fnState{sig: take}
	g.enterFunction(take)

	tests := []struct {
		name  string
		arg   hir.Expr
		param *genctx.ParamInfo
	}{
		{"str parameter to &str", &hir.Var{Name: "s"}, take.ParamNamed("s")},
		{"&mut parameter to &mut", &hir.Var{Name: "xs"}, take.ParamNamed("xs")},
		{"literal to &Vec", &hir.ListLit{Elems: []hir.Expr{&hir.Literal{Kind: hir.LitInt, Value: "1"}}}, ctx.Sig("total").ParamNamed("xs")},
		{"literal to String", &hir.Literal{Kind: hir.LitString, Value: "a"}, ctx.Sig("keep").ParamNamed("name")},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			once := g.adjustArg(tt.arg, tt.param)
			twice := g.adjust(tt.arg, once, tt.param)
			if a, b := rustast.RenderExpr(once), rustast.RenderExpr(twice); a != b {
				t.Errorf("adjusting twice changed %s to %s", a, b)
			}
		})
	}
}

func TestCallArgumentsBorrowOnce(t *testing.T) {
	out, _ := transpile(t, "def total(xs: list[int]) -> int:\n    return sum(xs)\n\n"+
		"def outer(xs: list[int]) -> int:\n    ys = [1, 2]\n    return total(xs) + total(ys)\n")
	for _, w := range []string{"total(xs)", "total(&ys)"} {
		if !strings.Contains(out, w) {
			t.Errorf("output missing %q:\n%s", w, out)
		}
	}
	if strings.Contains(out, "&&") {
		t.Errorf("argument borrowed twice:\n%s", out)
	}
}

func TestGeneratorBreakAndReturn(t *testing.T) {
	src := "def first_big(xs: list[int], limit: int):\n    for x in xs:\n        if x > limit:\n            yield x\n            break\n    return\n"
	out, ctx := transpile(t, src)
	for _, w := range []string{"self.__state = usize::MAX;", "return None;", "_ => return None,"} {
		if !strings.Contains(out, w) {
			t.Errorf("output missing %q:\n%s", w, out)
		}
	}
	if strings.Contains(out, "unimplemented!(\"yield\")") {
		t.Errorf("generator fell back to unimplemented:\n%s", out)
	}
	if n := len(ctx.Diags.OfKind(diagnostic.UnsupportedConstruct)); n != 0 {
		t.Errorf("unexpected unsupported constructs: %v", ctx.Diags.All())
	}
}
