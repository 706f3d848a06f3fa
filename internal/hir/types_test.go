package hir

import "testing"

func TestOptionalCollapses(t *testing.T) {
	inner := OptionalOf(TypeInt)
	outer := OptionalOf(inner)
	if !outer.Equal(inner) {
		t.Errorf("Optional(Optional(int)) should collapse, got %s", outer)
	}
	if got := OptionalOf(TypeNone); got.Kind != KindNone {
		t.Errorf("Optional(None) should stay None, got %s", got)
	}
}

func TestListOfNilIsUnknown(t *testing.T) {
	l := ListOf(nil)
	if l.Elem().Kind != KindUnknown {
		t.Errorf("expected List(Unknown), got %s", l)
	}
	if l.IsFullyKnown() {
		t.Error("List(Unknown) is not fully known")
	}
}

func TestTypeString(t *testing.T) {
	tests := []struct {
		typ      *Type
		expected string
	}{
		{TypeInt, "int"},
		{ListOf(TypeString), "list[str]"},
		{DictOf(TypeString, ListOf(TypeInt)), "dict[str, list[int]]"},
		{TupleOf(TypeInt, TypeFloat), "tuple[int, float]"},
		{OptionalOf(CustomType("Node")), "Optional[Node]"},
		{GenericType("Iterator", TypeInt), "Iterator[int]"},
	}
	for _, tt := range tests {
		if got := tt.typ.String(); got != tt.expected {
			t.Errorf("expected %s, got %s", tt.expected, got)
		}
	}
}

func TestUnifyFillsUnknown(t *testing.T) {
	a := DictOf(TypeString, nil)
	b := DictOf(TypeUnknown, TypeInt)
	got := a.Unify(b)
	if !got.Equal(DictOf(TypeString, TypeInt)) {
		t.Errorf("expected dict[str, int], got %s", got)
	}
	if !TypeInt.Unify(TypeFloat).Equal(TypeInt) {
		t.Error("disagreeing types should keep the receiver")
	}
}

func TestIsCopy(t *testing.T) {
	tests := []struct {
		typ  *Type
		copy bool
	}{
		{TypeInt, true},
		{TypeBool, true},
		{TypeString, false},
		{TupleOf(TypeInt, TypeFloat), true},
		{TupleOf(TypeInt, TypeString), false},
		{OptionalOf(TypeInt), true},
		{ListOf(TypeInt), false},
	}
	for _, tt := range tests {
		if got := tt.typ.IsCopy(); got != tt.copy {
			t.Errorf("%s: expected IsCopy=%v, got %v", tt.typ, tt.copy, got)
		}
	}
}

func TestInspectAndUses(t *testing.T) {
	body := []Stmt{
		&Assign{Target: &Var{Name: "y"}, Value: &Binary{Op: Add, Left: &Var{Name: "x"}, Right: &Literal{Kind: LitInt, Value: "1"}}},
		&Return{Value: &Var{Name: "y"}},
	}
	count := 0
	InspectStmts(body, func(n Node) bool {
		if _, ok := n.(*Var); ok {
			count++
		}
		return true
	})
	if count != 3 {
		t.Errorf("expected 3 Var nodes, got %d", count)
	}
	if !Uses(body[0], "x") || Uses(body[1], "x") {
		t.Error("Uses reported the wrong statements")
	}
	if RootVar(&Attribute{Recv: &Index{Recv: &Var{Name: "xs"}, Key: &Literal{Kind: LitInt, Value: "0"}}, Name: "a"}) != "xs" {
		t.Error("RootVar should find xs")
	}
}
