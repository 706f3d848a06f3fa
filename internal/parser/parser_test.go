package parser

import (
	"strings"
	"testing"

	"github.com/paiml/depyler-sub010/internal/ast"
)

func parseOK(t *testing.T, input string) *ast.Module {
	t.Helper()
	p := New(input)
	mod := p.Parse()
	if p.Diagnostics().HasErrors() {
		t.Fatalf("unexpected errors: %s", p.Diagnostics().Format("test.py"))
	}
	return mod
}

func TestParseSimpleFunction(t *testing.T) {
	mod := parseOK(t, "def add(a: int, b: int) -> int:\n    return a + b\n")

	if len(mod.Body) != 1 {
		t.Fatalf("expected 1 statement, got %d", len(mod.Body))
	}
	fn, ok := mod.Body[0].(*ast.FunctionDef)
	if !ok {
		t.Fatalf("expected FunctionDef, got %T", mod.Body[0])
	}
	if fn.Name != "add" {
		t.Errorf("expected function name 'add', got %q", fn.Name)
	}
	if len(fn.Params) != 2 {
		t.Fatalf("expected 2 params, got %d", len(fn.Params))
	}
	if ast.ExprString(fn.Params[0].Annotation) != "int" {
		t.Errorf("unexpected first param annotation: %s", ast.ExprString(fn.Params[0].Annotation))
	}
	if ast.ExprString(fn.Returns) != "int" {
		t.Errorf("expected return annotation 'int', got %q", ast.ExprString(fn.Returns))
	}
	ret, ok := fn.Body[0].(*ast.ReturnStmt)
	if !ok {
		t.Fatalf("expected ReturnStmt, got %T", fn.Body[0])
	}
	if got := ast.ExprString(ret.Value); got != "(a + b)" {
		t.Errorf("expected (a + b), got %s", got)
	}
}

func TestParseParamKinds(t *testing.T) {
	mod := parseOK(t, "def f(a, b=1, *args, c, d=2, **kw):\n    pass\n")
	fn := mod.Body[0].(*ast.FunctionDef)
	expected := []struct {
		name       string
		kind       ast.ParamKind
		hasDefault bool
	}{
		{"a", ast.ParamPositional, false},
		{"b", ast.ParamPositional, true},
		{"args", ast.ParamVarargs, false},
		{"c", ast.ParamKwOnly, false},
		{"d", ast.ParamKwOnly, true},
		{"kw", ast.ParamKwargs, false},
	}
	if len(fn.Params) != len(expected) {
		t.Fatalf("expected %d params, got %d", len(expected), len(fn.Params))
	}
	for i, want := range expected {
		got := fn.Params[i]
		if got.Name != want.name || got.Kind != want.kind || (got.Default != nil) != want.hasDefault {
			t.Errorf("param[%d]: got %s kind=%d default=%v", i, got.Name, got.Kind, got.Default != nil)
		}
	}
}

func TestParseKeywordOnlyMarker(t *testing.T) {
	mod := parseOK(t, "def f(a, *, b):\n    pass\n")
	fn := mod.Body[0].(*ast.FunctionDef)
	if len(fn.Params) != 2 || fn.Params[1].Kind != ast.ParamKwOnly {
		t.Fatalf("expected b to be keyword-only, got %+v", fn.Params)
	}
}

func TestParseIfElifElse(t *testing.T) {
	input := `if x < 0:
    y = -1
elif x == 0:
    y = 0
else:
    y = 1
`
	mod := parseOK(t, input)
	stmt, ok := mod.Body[0].(*ast.IfStmt)
	if !ok {
		t.Fatalf("expected IfStmt, got %T", mod.Body[0])
	}
	if len(stmt.Orelse) != 1 {
		t.Fatalf("expected elif chain in Orelse, got %d statements", len(stmt.Orelse))
	}
	elif, ok := stmt.Orelse[0].(*ast.IfStmt)
	if !ok {
		t.Fatalf("expected nested IfStmt, got %T", stmt.Orelse[0])
	}
	if len(elif.Orelse) != 1 {
		t.Errorf("expected else body on elif, got %d", len(elif.Orelse))
	}
}

func TestParseSameLineBlock(t *testing.T) {
	mod := parseOK(t, "def h(x: int) -> int:\n    if x < 0: raise ValueError(\"neg\")\n    return x\n")
	fn := mod.Body[0].(*ast.FunctionDef)
	if len(fn.Body) != 2 {
		t.Fatalf("expected 2 statements, got %d", len(fn.Body))
	}
	ifs := fn.Body[0].(*ast.IfStmt)
	if _, ok := ifs.Body[0].(*ast.RaiseStmt); !ok {
		t.Errorf("expected RaiseStmt, got %T", ifs.Body[0])
	}
}

func TestParseAssignments(t *testing.T) {
	tests := []struct {
		name  string
		input string
		check func(t *testing.T, s ast.Statement)
	}{
		{
			name:  "chain",
			input: "a = b = 1\n",
			check: func(t *testing.T, s ast.Statement) {
				as := s.(*ast.AssignStmt)
				if len(as.Targets) != 2 {
					t.Errorf("expected 2 targets, got %d", len(as.Targets))
				}
			},
		},
		{
			name:  "tuple unpacking",
			input: "a, b = b, a\n",
			check: func(t *testing.T, s ast.Statement) {
				as := s.(*ast.AssignStmt)
				if _, ok := as.Targets[0].(*ast.TupleExpr); !ok {
					t.Errorf("expected tuple target, got %T", as.Targets[0])
				}
			},
		},
		{
			name:  "annotated",
			input: "x: list[int] = []\n",
			check: func(t *testing.T, s ast.Statement) {
				as := s.(*ast.AnnAssignStmt)
				if ast.ExprString(as.Annotation) != "list[int]" {
					t.Errorf("unexpected annotation %s", ast.ExprString(as.Annotation))
				}
			},
		},
		{
			name:  "augmented subscript",
			input: "d[k] += 1\n",
			check: func(t *testing.T, s ast.Statement) {
				as := s.(*ast.AugAssignStmt)
				if as.Op != "+" {
					t.Errorf("expected op '+', got %q", as.Op)
				}
				if _, ok := as.Target.(*ast.Subscript); !ok {
					t.Errorf("expected subscript target, got %T", as.Target)
				}
			},
		},
		{
			name:  "floor div augmented",
			input: "n //= 2\n",
			check: func(t *testing.T, s ast.Statement) {
				if op := s.(*ast.AugAssignStmt).Op; op != "//" {
					t.Errorf("expected op '//', got %q", op)
				}
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mod := parseOK(t, tt.input)
			tt.check(t, mod.Body[0])
		})
	}
}

func TestParseExpressions(t *testing.T) {
	tests := []struct {
		input    string
		expected string
	}{
		{"1 + 2 * 3", "(1 + (2 * 3))"},
		{"-x ** 2", "(-(x ** 2))"},
		{"2 ** 3 ** 2", "(2 ** (3 ** 2))"},
		{"a < b < c", "(a < b < c)"},
		{"x not in xs", "(x not in xs)"},
		{"x is not None", "(x is not None)"},
		{"not a and b or c", "(((not a) and b) or c)"},
		{"a if c else b", "(a if c else b)"},
		{"f(x, *rest, key=1, **kw)", "f(x, *rest, key=1, **kw)"},
		{"xs[1:-1]", "xs[1:(-1)]"},
		{"xs[::2]", "xs[::2]"},
		{"obj.method(1).attr", "obj.method(1).attr"},
		{"[x * 2 for x in xs if x > 0]", "[(x * 2) for x in xs if (x > 0)]"},
		{"{k: v for k, v in pairs.items()}", "{k: v for (k, v) in pairs.items()}"},
		{"{1, 2}", "{1, 2}"},
		{"{}", "{}"},
		{"sum(x for x in xs)", "sum((x for x in xs))"},
		{"lambda a, b: a + b", "(lambda a, b: (a + b))"},
		{"(y := f(x))", "(y := f(x))"},
		{"a // b % c", "((a // b) % c)"},
		{"x | y & z", "(x | (y & z))"},
		{"()", "()"},
		{"(1,)", "(1)"},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			expr, diags := ParseExpression(tt.input)
			if diags.HasErrors() {
				t.Fatalf("unexpected errors: %s", diags.Format("expr"))
			}
			if got := ast.ExprString(expr); got != tt.expected {
				t.Errorf("expected %s, got %s", tt.expected, got)
			}
		})
	}
}

func TestParseFString(t *testing.T) {
	expr, diags := ParseExpression(`f"x={x:>4} y={y!r} {{lit}}"`)
	if diags.HasErrors() {
		t.Fatalf("unexpected errors: %s", diags.Format("expr"))
	}
	fs, ok := expr.(*ast.FString)
	if !ok {
		t.Fatalf("expected FString, got %T", expr)
	}
	if len(fs.Parts) != 5 {
		t.Fatalf("expected 5 parts, got %d: %s", len(fs.Parts), ast.ExprString(fs))
	}
	x := fs.Parts[1].(*ast.FormattedValue)
	if x.FormatSpec != ">4" {
		t.Errorf("expected spec '>4', got %q", x.FormatSpec)
	}
	y := fs.Parts[3].(*ast.FormattedValue)
	if y.Conversion != 'r' {
		t.Errorf("expected !r conversion, got %q", y.Conversion)
	}
	if lit := fs.Parts[4].(*ast.Constant).Value; lit != " {lit}" {
		t.Errorf("expected literal ' {lit}', got %q", lit)
	}
}

func TestParseFStringSelfDocumenting(t *testing.T) {
	expr, _ := ParseExpression(`f"{value=}"`)
	fs := expr.(*ast.FString)
	if len(fs.Parts) != 2 {
		t.Fatalf("expected 2 parts, got %d", len(fs.Parts))
	}
	if fs.Parts[0].(*ast.Constant).Value != "value=" {
		t.Errorf("expected literal 'value=', got %q", fs.Parts[0].(*ast.Constant).Value)
	}
	if fs.Parts[1].(*ast.FormattedValue).Conversion != 'r' {
		t.Error("expected repr conversion for self-documenting field")
	}
}

func TestParseStringConcatenation(t *testing.T) {
	expr, _ := ParseExpression(`"a" 'b'`)
	c, ok := expr.(*ast.Constant)
	if !ok || c.Value != "ab" {
		t.Fatalf("expected concatenated 'ab', got %s", ast.ExprString(expr))
	}
}

func TestParseClassDef(t *testing.T) {
	input := `@dataclass
class Point:
    """A point."""
    x: int
    y: int = 0

    def norm(self) -> float:
        return (self.x ** 2 + self.y ** 2) ** 0.5
`
	mod := parseOK(t, input)
	cls, ok := mod.Body[0].(*ast.ClassDef)
	if !ok {
		t.Fatalf("expected ClassDef, got %T", mod.Body[0])
	}
	if cls.Name != "Point" {
		t.Errorf("expected Point, got %s", cls.Name)
	}
	if len(cls.Decorators) != 1 || ast.ExprString(cls.Decorators[0]) != "dataclass" {
		t.Errorf("expected dataclass decorator")
	}
	if len(cls.Body) != 4 {
		t.Errorf("expected 4 body statements, got %d", len(cls.Body))
	}
}

func TestParseClassBases(t *testing.T) {
	mod := parseOK(t, "class E(Exception, metaclass=Meta):\n    pass\n")
	cls := mod.Body[0].(*ast.ClassDef)
	if len(cls.Bases) != 1 || len(cls.Keywords) != 1 || cls.Keywords[0].Arg != "metaclass" {
		t.Errorf("unexpected bases/keywords: %d/%d", len(cls.Bases), len(cls.Keywords))
	}
}

func TestParseTryExcept(t *testing.T) {
	input := `try:
    x = f()
except ValueError as e:
    x = 0
except:
    raise
else:
    pass
finally:
    done()
`
	mod := parseOK(t, input)
	try, ok := mod.Body[0].(*ast.TryStmt)
	if !ok {
		t.Fatalf("expected TryStmt, got %T", mod.Body[0])
	}
	if len(try.Handlers) != 2 {
		t.Fatalf("expected 2 handlers, got %d", len(try.Handlers))
	}
	if try.Handlers[0].Name != "e" || ast.ExprString(try.Handlers[0].Type) != "ValueError" {
		t.Errorf("unexpected first handler")
	}
	if try.Handlers[1].Type != nil {
		t.Errorf("expected bare except")
	}
	if len(try.Orelse) != 1 || len(try.Finalbody) != 1 {
		t.Errorf("expected else and finally bodies")
	}
}

func TestParseForWithElse(t *testing.T) {
	mod := parseOK(t, "for i, v in enumerate(xs):\n    print(i, v)\nelse:\n    pass\n")
	f := mod.Body[0].(*ast.ForStmt)
	if _, ok := f.Target.(*ast.TupleExpr); !ok {
		t.Errorf("expected tuple target, got %T", f.Target)
	}
	if len(f.Orelse) != 1 {
		t.Errorf("expected else body")
	}
}

func TestParseWith(t *testing.T) {
	mod := parseOK(t, "with open(p) as f, lock:\n    data = f.read()\n")
	w := mod.Body[0].(*ast.WithStmt)
	if len(w.Items) != 2 {
		t.Fatalf("expected 2 items, got %d", len(w.Items))
	}
	if ast.ExprString(w.Items[0].Target) != "f" || w.Items[1].Target != nil {
		t.Errorf("unexpected with targets")
	}
}

func TestParseImports(t *testing.T) {
	mod := parseOK(t, "import os.path as osp, sys\nfrom collections import (Counter, defaultdict as dd)\nfrom . import sibling\n")
	imp := mod.Body[0].(*ast.ImportStmt)
	if imp.Names[0].Name != "os.path" || imp.Names[0].AsName != "osp" || imp.Names[1].Name != "sys" {
		t.Errorf("unexpected import names")
	}
	from := mod.Body[1].(*ast.ImportFromStmt)
	if from.Module != "collections" || len(from.Names) != 2 || from.Names[1].AsName != "dd" {
		t.Errorf("unexpected from-import")
	}
	rel := mod.Body[2].(*ast.ImportFromStmt)
	if rel.Level != 1 || rel.Module != "" {
		t.Errorf("expected relative import level 1, got %d %q", rel.Level, rel.Module)
	}
}

func TestParseAsync(t *testing.T) {
	mod := parseOK(t, "async def fetch(u: str) -> str:\n    r = await get(u)\n    return r\n")
	fn := mod.Body[0].(*ast.FunctionDef)
	if !fn.IsAsync {
		t.Error("expected async function")
	}
	as := fn.Body[0].(*ast.AssignStmt)
	if _, ok := as.Value.(*ast.Await); !ok {
		t.Errorf("expected Await, got %T", as.Value)
	}
}

func TestParseMatch(t *testing.T) {
	input := `match cmd:
    case "go" | "run":
        x = 1
    case Color.RED:
        x = 2
    case [a, b]:
        x = 3
    case other:
        x = 4
`
	mod := parseOK(t, input)
	m, ok := mod.Body[0].(*ast.MatchStmt)
	if !ok {
		t.Fatalf("expected MatchStmt, got %T", mod.Body[0])
	}
	if len(m.Cases) != 4 {
		t.Fatalf("expected 4 cases, got %d", len(m.Cases))
	}
	if _, ok := m.Cases[0].Pattern.(*ast.OrPattern); !ok {
		t.Errorf("case 0: expected OrPattern, got %T", m.Cases[0].Pattern)
	}
	if _, ok := m.Cases[1].Pattern.(*ast.ValuePattern); !ok {
		t.Errorf("case 1: expected ValuePattern, got %T", m.Cases[1].Pattern)
	}
	if op, ok := m.Cases[2].Pattern.(*ast.OtherPattern); !ok || op.Kind != "sequence" {
		t.Errorf("case 2: expected sequence OtherPattern, got %T", m.Cases[2].Pattern)
	}
	if cp, ok := m.Cases[3].Pattern.(*ast.CapturePattern); !ok || cp.Name != "other" {
		t.Errorf("case 3: expected capture, got %T", m.Cases[3].Pattern)
	}
}

func TestParseMatchAsIdentifier(t *testing.T) {
	mod := parseOK(t, "match = re.match(p, s)\nif match:\n    pass\n")
	if _, ok := mod.Body[0].(*ast.AssignStmt); !ok {
		t.Errorf("expected AssignStmt, got %T", mod.Body[0])
	}
}

func TestParseSemicolons(t *testing.T) {
	mod := parseOK(t, "a = 1; b = 2\n")
	if len(mod.Body) != 2 {
		t.Errorf("expected 2 statements, got %d", len(mod.Body))
	}
}

func TestParseErrors(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		message string
	}{
		{"missing colon", "def f()\n    pass\n", "expected :"},
		{"unterminated string", "x = \"abc\n", "unterminated string"},
		{"missing block", "if x:\ny = 1\n", "expected an indented block"},
		{"bad dedent", "if a:\n    x = 1\n  y = 2\n", "unindent does not match"},
		{"try without handler", "try:\n    pass\nx = 1\n", "at least one except"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := New(tt.input)
			p.Parse()
			if !p.Diagnostics().HasParseErrors() {
				t.Fatal("expected parse errors")
			}
			formatted := p.Diagnostics().Format("test.py")
			if !strings.Contains(formatted, tt.message) {
				t.Errorf("expected %q in diagnostics, got:\n%s", tt.message, formatted)
			}
		})
	}
}

func TestParseRecoversAfterError(t *testing.T) {
	p := New("x = = 1\ndef f():\n    return 1\n")
	mod := p.Parse()
	if !p.Diagnostics().HasErrors() {
		t.Fatal("expected an error")
	}
	found := false
	for _, s := range mod.Body {
		if fn, ok := s.(*ast.FunctionDef); ok && fn.Name == "f" {
			found = true
		}
	}
	if !found {
		t.Error("parser did not recover to parse the following function")
	}
}
