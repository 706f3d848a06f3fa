package linter

import (
	"strings"
	"testing"

	"github.com/paiml/depyler-sub010/internal/diagnostic"
	"github.com/paiml/depyler-sub010/internal/parser"
)

func parseAndLint(t *testing.T, source string) []string {
	t.Helper()
	p := parser.New(source)
	mod := p.Parse()

	if p.Diagnostics().HasErrors() {
		t.Fatalf("Parser errors: %s", p.Diagnostics().Format("test"))
	}

	diag := Lint(mod)
	var warnings []string
	for _, d := range diag.All() {
		if d.Severity != diagnostic.Warning {
			t.Errorf("linter produced a non-warning: %s", d.Message)
		}
		warnings = append(warnings, d.Message)
	}
	return warnings
}

func containsWarning(warnings []string, substr string) bool {
	for _, w := range warnings {
		if strings.Contains(w, substr) {
			return true
		}
	}
	return false
}

func countWarnings(warnings []string, substr string) int {
	n := 0
	for _, w := range warnings {
		if strings.Contains(w, substr) {
			n++
		}
	}
	return n
}

func TestLintRules(t *testing.T) {
	tests := []struct {
		name    string
		source  string
		want    string
		present bool
	}{
		{"missing param annotation", "def f(x) -> int:\n    return x\n", "parameter 'x' in 'f' has no type annotation", true},
		{"annotated param", "def f(x: int) -> int:\n    return x\n", "has no type annotation", false},
		{"self is exempt", "class A:\n    def m(self) -> int:\n        return 1\n", "parameter 'self'", false},
		{"staticmethod first param is checked", "class A:\n    @staticmethod\n    def m(x) -> int:\n        return x\n", "parameter 'x' in 'A.m' has no type annotation", true},
		{"missing return annotation", "def f(x: int):\n    return x\n", "function 'f' has no return annotation", true},
		{"procedure needs no return annotation", "def f(x: int):\n    print(x)\n", "no return annotation", false},
		{"init needs no return annotation", "class A:\n    def __init__(self, x: int):\n        self.x = x\n", "no return annotation", false},
		{"mutable list default", "def f(xs: list = []) -> int:\n    return len(xs)\n", "parameter 'xs' in 'f' has a mutable default", true},
		{"mutable dict call default", "def f(d: dict = dict()) -> int:\n    return len(d)\n", "mutable default", true},
		{"none default", "def f(xs: list = None) -> int:\n    return 0 if xs is None else len(xs)\n", "mutable default", false},
		{"bare except", "def f() -> int:\n    try:\n        return 1\n    except:\n        return 0\n", "bare 'except:'", true},
		{"typed except", "def f() -> int:\n    try:\n        return 1\n    except ValueError:\n        return 0\n", "bare 'except:'", false},
		{"module level bare except", "try:\n    import json\nexcept:\n    pass\n", "bare 'except:'", true},
		{"global", "COUNT = 0\n\ndef bump():\n    global COUNT\n    COUNT = COUNT + 1\n", "'global COUNT' in 'bump'", true},
		{"unused local", "def f() -> int:\n    unused = 5\n    return 1\n", "variable 'unused' in 'f' is assigned but never used", true},
		{"used local", "def f() -> int:\n    x = 5\n    return x\n", "never used", false},
		{"underscore local", "def f() -> int:\n    _ = 5\n    return 1\n", "never used", false},
		{"tuple target", "def f(p: tuple) -> int:\n    a, b = p\n    return a\n", "variable 'b' in 'f'", true},
		{"subscript target reads object", "def f(xs: list) -> None:\n    ys = xs\n    ys[0] = 1\n", "variable 'ys'", false},
		{"closure reads local", "def f() -> int:\n    n = 2\n    g = lambda x: x * n\n    return g(3)\n", "variable 'n'", false},
		{"unused param", "def f(a: int, b: int) -> int:\n    return a\n", "parameter 'b' in 'f' is never used", true},
		{"underscore param", "def f(a: int, _b: int) -> int:\n    return a\n", "is never used", false},
		{"camelCase function", "def doThing() -> int:\n    return 1\n", "function 'doThing' should use snake_case naming", true},
		{"private snake function", "def _helper() -> int:\n    return 1\n", "snake_case", false},
		{"dunder method", "class A:\n    def __eq__(self, other: object) -> bool:\n        return True\n", "snake_case", false},
		{"snake_case class", "class my_thing:\n    pass\n", "class 'my_thing' should use CapWords naming", true},
		{"CapWords class", "class MyThing:\n    pass\n", "CapWords", false},
		{"function under main guard", "if __name__ == \"__main__\":\n    def runIt():\n        pass\n", "function 'runIt'", true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			warnings := parseAndLint(t, tt.source)
			if got := containsWarning(warnings, tt.want); got != tt.present {
				t.Errorf("warning %q present = %v, want %v; got: %v", tt.want, got, tt.present, warnings)
			}
		})
	}
}

func TestBareExceptReportedOnce(t *testing.T) {
	source := "def f() -> int:\n    if True:\n        try:\n            return 1\n        except:\n            return 0\n    return 2\n"
	warnings := parseAndLint(t, source)
	if n := countWarnings(warnings, "bare 'except:'"); n != 1 {
		t.Errorf("expected 1 bare except warning, got %d: %v", n, warnings)
	}
}

func TestUnusedVariableReportedOnce(t *testing.T) {
	source := "def f() -> int:\n    x = 1\n    x = 2\n    return 0\n"
	warnings := parseAndLint(t, source)
	if n := countWarnings(warnings, "variable 'x'"); n != 1 {
		t.Errorf("expected 1 warning for x, got %d: %v", n, warnings)
	}
}

func TestCleanModuleHasNoWarnings(t *testing.T) {
	source := `class Point:
    def __init__(self, x: int, y: int):
        self.x = x
        self.y = y

    def norm2(self) -> int:
        return self.x * self.x + self.y * self.y


def total(points: list[Point]) -> int:
    result = 0
    for p in points:
        result += p.norm2()
    return result
`
	if warnings := parseAndLint(t, source); len(warnings) != 0 {
		t.Errorf("expected no warnings, got: %v", warnings)
	}
}

func TestLintSourceParseError(t *testing.T) {
	diag := LintSource("def f(:\n")
	if !diag.HasErrors() {
		t.Error("expected parse errors")
	}
}
