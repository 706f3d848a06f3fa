package registry

import (
	"testing"

	"github.com/paiml/depyler-sub010/internal/hir"
)

func TestLookupModuleEntries(t *testing.T) {
	tests := []struct {
		name  string
		kind  EntryKind
		crate string
	}{
		{"math.sqrt", KindFunction, ""},
		{"math.pi", KindConst, ""},
		{"json.loads", KindFunction, "serde_json"},
		{"re.compile", KindFunction, "regex"},
		{"collections.Counter", KindType, ""},
		{"random.randint", KindFunction, "rand"},
		{"datetime.datetime.now", KindFunction, "chrono"},
		{"hashlib.sha256", KindFunction, "sha2"},
		{"itertools.combinations", KindFunction, "itertools"},
		{"argparse.ArgumentParser", KindType, "clap"},
		{"dataclasses.dataclass", KindFunction, ""},
		{"dataclasses.field", KindFunction, ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			e, ok := Lookup(tt.name)
			if !ok {
				t.Fatalf("expected registry entry for %s", tt.name)
			}
			if e.Kind != tt.kind {
				t.Errorf("expected kind %s, got %s", tt.kind, e.Kind)
			}
			if e.Crate != tt.crate {
				t.Errorf("expected crate %q, got %q", tt.crate, e.Crate)
			}
			if e.Crate != "" {
				if _, ok := Crate(e.Crate); !ok {
					t.Errorf("crate %s missing from crate table", e.Crate)
				}
			}
		})
	}
	if _, ok := Lookup("math.nonexistent"); ok {
		t.Error("unexpected entry for math.nonexistent")
	}
}

func TestEntryForms(t *testing.T) {
	e, _ := Lookup("os.getenv")
	if _, ok := e.Form(0); ok {
		t.Error("os.getenv takes at least one argument")
	}
	form, ok := e.Form(2)
	if !ok {
		t.Fatal("expected two-argument form")
	}
	got := Expand(form, "", []string{`"HOME"`, `"/"`}, "i32")
	if got != `std::env::var("HOME").unwrap_or_else(|_| "/".to_string())` {
		t.Errorf("unexpected expansion %s", got)
	}
}

func TestConstructorPatterns(t *testing.T) {
	tests := []struct {
		name     string
		args     string
		expected string
	}{
		{"collections.deque", "", "std::collections::VecDeque::new()"},
		{"re.Pattern", `"a+"`, `regex::Regex::new("a+")`},
		{"pathlib.Path", `"x"`, `std::path::PathBuf::from("x")`},
	}
	for _, tt := range tests {
		e, ok := Lookup(tt.name)
		if !ok {
			t.Fatalf("missing %s", tt.name)
		}
		if got := e.Construct(tt.args); got != tt.expected {
			t.Errorf("%s: expected %s, got %s", tt.name, tt.expected, got)
		}
	}
}

func TestExpand(t *testing.T) {
	tests := []struct {
		template string
		recv     string
		args     []string
		expected string
	}{
		{"{r}.push({0})", "xs", []string{"1"}, "xs.push(1)"},
		{"{r}.len() as {int}", "xs", nil, "xs.len() as i64"},
		{"f({args})", "", []string{"a", "b"}, "f(a, b)"},
		{`format!("{:02x}", {0})`, "", []string{"b"}, `format!("{:02x}", b)`},
		{"{ let x = {0}; x }", "", []string{"y"}, "{ let x = y; x }"},
	}
	for _, tt := range tests {
		if got := Expand(tt.template, tt.recv, tt.args, "i64"); got != tt.expected {
			t.Errorf("Expand(%q): expected %q, got %q", tt.template, tt.expected, got)
		}
	}
}

func TestMethodRegistry(t *testing.T) {
	tests := []struct {
		kind     ReceiverKind
		method   string
		mutating bool
		result   *hir.Type
		recv     *hir.Type
	}{
		{RecvString, "upper", false, hir.TypeString, hir.TypeString},
		{RecvString, "split", false, hir.ListOf(hir.TypeString), hir.TypeString},
		{RecvList, "append", true, hir.TypeNone, hir.ListOf(hir.TypeInt)},
		{RecvList, "pop", true, hir.TypeInt, hir.ListOf(hir.TypeInt)},
		{RecvDict, "get", false, hir.OptionalOf(hir.TypeInt), hir.DictOf(hir.TypeString, hir.TypeInt)},
		{RecvDict, "items", false, hir.ListOf(hir.TupleOf(hir.TypeString, hir.TypeInt)), hir.DictOf(hir.TypeString, hir.TypeInt)},
		{RecvSet, "add", true, hir.TypeNone, hir.SetOf(hir.TypeInt)},
		{RecvCounter, "most_common", false, hir.ListOf(hir.TupleOf(hir.TypeString, hir.TypeInt)), hir.DictOf(hir.TypeString, hir.TypeInt)},
		{RecvDeque, "popleft", true, hir.TypeInt, hir.GenericType("VecDeque", hir.TypeInt)},
	}
	for _, tt := range tests {
		t.Run(tt.kind.String()+"."+tt.method, func(t *testing.T) {
			m, ok := Method(tt.kind, tt.method)
			if !ok {
				t.Fatal("missing rule")
			}
			if m.Mutating != tt.mutating {
				t.Errorf("expected mutating=%v", tt.mutating)
			}
			if got := m.ResultType(tt.recv); !got.Equal(tt.result) {
				t.Errorf("expected result %s, got %s", tt.result, got)
			}
		})
	}
}

func TestMethodFallbacks(t *testing.T) {
	if _, ok := Method(RecvCounter, "keys"); !ok {
		t.Error("Counter should fall back to dict methods")
	}
	if _, ok := Method(RecvDefaultDict, "get"); !ok {
		t.Error("defaultdict should fall back to dict methods")
	}
	if m, ok := Method(RecvUnknown, "upper"); !ok || m.Result != ResultString {
		t.Error("unknown receivers should find string methods")
	}
	if _, ok := Method(RecvString, "append"); ok {
		t.Error("str has no append")
	}
}

func TestIsMutatingMethod(t *testing.T) {
	for _, name := range []string{"append", "extend", "insert", "pop", "remove", "clear", "sort", "reverse", "update"} {
		if !IsMutatingMethod(name) {
			t.Errorf("%s should be mutating", name)
		}
	}
	for _, name := range []string{"get", "upper", "keys", "copy"} {
		if IsMutatingMethod(name) {
			t.Errorf("%s should not be mutating", name)
		}
	}
}

func TestReceiverKindOf(t *testing.T) {
	tests := []struct {
		typ  *hir.Type
		kind ReceiverKind
	}{
		{hir.TypeString, RecvString},
		{hir.ListOf(hir.TypeInt), RecvList},
		{hir.OptionalOf(hir.DictOf(nil, nil)), RecvDict},
		{hir.GenericType("VecDeque", hir.TypeInt), RecvDeque},
		{hir.CustomType("File"), RecvFile},
		{hir.TypeUnknown, RecvUnknown},
		{nil, RecvUnknown},
	}
	for _, tt := range tests {
		if got := ReceiverKindOf(tt.typ); got != tt.kind {
			t.Errorf("%s: expected %s, got %s", tt.typ, tt.kind, got)
		}
	}
}

func TestBuiltinResults(t *testing.T) {
	xs := hir.ListOf(hir.TypeFloat)
	tests := []struct {
		name     string
		args     []*hir.Type
		expected *hir.Type
	}{
		{"len", []*hir.Type{xs}, hir.TypeInt},
		{"enumerate", []*hir.Type{xs}, hir.ListOf(hir.TupleOf(hir.TypeInt, hir.TypeFloat))},
		{"zip", []*hir.Type{xs, hir.ListOf(hir.TypeString)}, hir.ListOf(hir.TupleOf(hir.TypeFloat, hir.TypeString))},
		{"sum", []*hir.Type{xs}, hir.TypeFloat},
		{"max", []*hir.Type{xs}, hir.TypeFloat},
		{"max", []*hir.Type{hir.TypeInt, hir.TypeInt}, hir.TypeInt},
		{"sorted", []*hir.Type{hir.SetOf(hir.TypeString)}, hir.ListOf(hir.TypeString)},
		{"round", []*hir.Type{hir.TypeFloat}, hir.TypeInt},
		{"isinstance", nil, hir.TypeBool},
	}
	for _, tt := range tests {
		b, ok := LookupBuiltin(tt.name)
		if !ok {
			t.Fatalf("missing builtin %s", tt.name)
		}
		if got := b.Result(tt.args); !got.Equal(tt.expected) {
			t.Errorf("%s: expected %s, got %s", tt.name, tt.expected, got)
		}
	}
	if b, _ := LookupBuiltin("range"); b.Accepts(4) || !b.Accepts(3) {
		t.Error("range accepts 1 to 3 arguments")
	}
}

func TestCrateTable(t *testing.T) {
	expected := []string{"chrono", "clap", "itertools", "rand", "regex", "serde_json", "sha2"}
	got := CrateNames()
	if len(got) != len(expected) {
		t.Fatalf("expected %d crates, got %v", len(expected), got)
	}
	for i := range expected {
		if got[i] != expected[i] {
			t.Errorf("crate %d: expected %s, got %s", i, expected[i], got[i])
		}
	}
	if c, _ := Crate("clap"); len(c.Features) != 1 || c.Features[0] != "derive" {
		t.Error("clap needs the derive feature")
	}
}

func TestNameHeuristics(t *testing.T) {
	for _, name := range []string{"config", "path", "data", "args", "input_path", "_config"} {
		if !BorrowWorthyName(name) {
			t.Errorf("%s should be borrow-worthy", name)
		}
	}
	if BorrowWorthyName("n") || BorrowWorthyName("count") {
		t.Error("scalar-looking names should not be borrow-worthy")
	}
	if GuessReceiverKind("line") != RecvString || GuessReceiverKind("seen") != RecvSet {
		t.Error("unexpected receiver guess")
	}
}
