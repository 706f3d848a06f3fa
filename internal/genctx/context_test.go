package genctx

import (
	"bytes"
	"strings"
	"testing"

	"github.com/paiml/depyler-sub010/internal/hir"
)

func TestBorrowJoin(t *testing.T) {
	tests := []struct {
		a, b     BorrowKind
		expected BorrowKind
	}{
		{Owned, Owned, Owned},
		{Owned, Shared, Shared},
		{Shared, Owned, Shared},
		{Shared, Unique, Unique},
		{Unique, Owned, Unique},
	}
	for _, tt := range tests {
		t.Run(tt.a.String()+"+"+tt.b.String(), func(t *testing.T) {
			if got := tt.a.Join(tt.b); got != tt.expected {
				t.Errorf("expected %s, got %s", tt.expected, got)
			}
		})
	}
	if Unique.Prefix() != "&mut " || Shared.Prefix() != "&" || Owned.Prefix() != "" {
		t.Error("unexpected borrow prefixes")
	}
}

func TestScopeResolution(t *testing.T) {
	outer := NewScope(nil)
	if err := outer.Define("x", &Symbol{Name: "x", Type: hir.TypeInt}); err != nil {
		t.Fatal(err)
	}
	if err := outer.Define("x", &Symbol{Name: "x"}); err == nil {
		t.Error("expected redefinition error")
	}
	inner := NewScope(outer)
	inner.Bind(&Symbol{Name: "y", Type: hir.TypeString})

	if sym := inner.Resolve("x"); sym == nil || !sym.Type.Is(hir.KindInt) {
		t.Error("inner scope should see outer x")
	}
	if inner.ResolveLocal("x") != nil {
		t.Error("x is not local to the inner scope")
	}
	if outer.Resolve("y") != nil {
		t.Error("outer scope should not see inner y")
	}
}

func TestContextScopes(t *testing.T) {
	c := New(Options{})
	c.EnterFunction("f")
	c.Scope().Bind(&Symbol{Name: "a", Type: hir.TypeInt})
	c.PushScope()
	c.Scope().Bind(&Symbol{Name: "b", Type: hir.TypeFloat})
	if c.Lookup("a") == nil || c.Lookup("b") == nil {
		t.Fatal("expected both bindings visible")
	}
	c.PopScope()
	if c.Lookup("b") != nil {
		t.Error("b should be out of scope")
	}
	c.PopScope()
	if c.Lookup("a") == nil {
		t.Error("popping the function scope must be a no-op")
	}
}

func TestFlagsAndCratesSorted(t *testing.T) {
	c := New(Options{})
	c.Need(NeedVecDeque)
	c.Need(NeedHashMap)
	c.Need(NeedHashMap)
	c.UseCrate("serde_json")
	c.UseCrate("regex")
	c.UseCrate("")

	flags := c.Flags()
	if len(flags) != 2 || flags[0] != NeedHashMap || flags[1] != NeedVecDeque {
		t.Errorf("unexpected flags %v", flags)
	}
	crates := c.Crates()
	if len(crates) != 2 || crates[0] != "regex" || crates[1] != "serde_json" {
		t.Errorf("unexpected crates %v", crates)
	}
	if c.Needs(NeedHashSet) {
		t.Error("hashset was never requested")
	}
}

func TestErrorVariantsKeepOrder(t *testing.T) {
	c := New(Options{})
	c.AddErrorVariant("ValueError")
	c.AddErrorVariant("KeyError")
	c.AddErrorVariant("ValueError")
	got := c.ErrorVariants()
	if len(got) != 2 || got[0] != "ValueError" || got[1] != "KeyError" {
		t.Errorf("unexpected variants %v", got)
	}
	if !c.Needs(NeedErrorType) {
		t.Error("registering a variant requires the error type")
	}
}

func TestVarTypesUnify(t *testing.T) {
	c := New(Options{})
	c.SetVarType("f", "xs", hir.ListOf(nil))
	c.SetVarType("f", "xs", hir.ListOf(hir.TypeInt))
	if got := c.VarType("f", "xs"); !got.Equal(hir.ListOf(hir.TypeInt)) {
		t.Errorf("expected list[int], got %s", got)
	}
	if c.VarType("g", "xs") != nil {
		t.Error("types are per function")
	}
}

func TestDefaults(t *testing.T) {
	c := New(Options{})
	if c.IntType != "i32" || c.Mode != Strict {
		t.Errorf("unexpected defaults %s %s", c.IntType, c.Mode)
	}
	if _, ok := c.Tracer.(NopTracer); !ok {
		t.Error("default tracer should discard")
	}
}

func TestTracers(t *testing.T) {
	mem := &MemoryTracer{}
	c := New(Options{Tracer: mem})
	c.Trace("borrow", "f.xs", "&mut", "append")
	c.Trace("clone", "g.s", "clone", "used later")
	if got := mem.Of("borrow"); len(got) != 1 || got[0].Choice != "&mut" {
		t.Errorf("unexpected borrow decisions %v", got)
	}

	var buf bytes.Buffer
	lt := NewLogTracer(&buf)
	lt.Trace(Decision{Category: "can-fail", Subject: "h", Choice: "Result", Reason: "raise"})
	out := buf.String()
	if !strings.Contains(out, "category=can-fail") || !strings.Contains(out, "subject=h") {
		t.Errorf("unexpected log output %q", out)
	}
}

func TestTryLabels(t *testing.T) {
	c := New(Options{})
	c.EnterFunction("f")
	if c.TryLabel() != "" {
		t.Fatal("no try outside a try body")
	}
	outer := c.PushTry()
	inner := c.PushTry()
	if outer == inner || c.TryLabel() != inner {
		t.Errorf("unexpected labels %s %s", outer, inner)
	}
	c.PopTry()
	if c.TryLabel() != outer {
		t.Error("expected outer label after pop")
	}
}
