package rustast

import (
	"errors"
	"strings"
	"testing"
)

func TestParseIdent(t *testing.T) {
	tests := []struct {
		in      string
		want    string
		wantErr bool
	}{
		{"total", "total", false},
		{"_private", "_private", false},
		{"type", "r#type", false},
		{"match", "r#match", false},
		{"self", "self_", false},
		{"Self", "Self_", false},
		{"café", "café", false},
		{"x1", "x1", false},
		{"", "", true},
		{"1x", "", true},
		{"a-b", "", true},
		{"a.b", "", true},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ParseIdent(tt.in)
			if tt.wantErr {
				if !errors.Is(err, ErrInvalidIdent) {
					t.Fatalf("expected ErrInvalidIdent, got %v", err)
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if got != tt.want {
				t.Errorf("expected %q, got %q", tt.want, got)
			}
		})
	}
}

func TestSanitizeIdent(t *testing.T) {
	tests := map[string]string{
		"1x":  "_1x",
		"a-b": "a_b",
		"":    "_unnamed",
		"fn":  "r#fn",
	}
	for in, want := range tests {
		if got := SanitizeIdent(in); got != want {
			t.Errorf("SanitizeIdent(%q) = %q, want %q", in, got, want)
		}
	}
}

func TestCaseConversion(t *testing.T) {
	if got := SnakeCase("HTTPServerError"); got != "http_server_error" {
		t.Errorf("SnakeCase: got %q", got)
	}
	if got := PascalCase("dry-run"); got != "DryRun" {
		t.Errorf("PascalCase: got %q", got)
	}
}

func TestQuote(t *testing.T) {
	if got := Quote("a\"b\\c\n"); got != `"a\"b\\c\n"` {
		t.Errorf("unexpected quoting %s", got)
	}
	if got := EscapeFormat("{x}"); got != "{{x}}" {
		t.Errorf("unexpected format escaping %s", got)
	}
}

func TestRenderTypes(t *testing.T) {
	tests := []struct {
		typ  Type
		want string
	}{
		{Named("Vec", Named("i32")), "Vec<i32>"},
		{RefMut(Named("Vec", Named("String"))), "&mut Vec<String>"},
		{Ref(Named("str")), "&str"},
		{&TupleType{Elems: []Type{Named("i32")}}, "(i32,)"},
		{&TupleType{Elems: []Type{Named("i32"), Named("f64")}}, "(i32, f64)"},
		{Ref(&SliceType{Elem: Named("i32")}), "&[i32]"},
		{Named("HashMap", &InferType{}, &InferType{}), "HashMap<_, _>"},
		{Unit, "()"},
	}
	for _, tt := range tests {
		if got := RenderType(tt.typ); got != tt.want {
			t.Errorf("expected %s, got %s", tt.want, got)
		}
	}
}

func TestRenderPrecedence(t *testing.T) {
	a, b, c := Name("a"), Name("b"), Name("c")
	tests := []struct {
		name string
		expr Expr
		want string
	}{
		{"left assoc", &Binary{Op: "-", L: &Binary{Op: "-", L: a, R: b}, R: c}, "a - b - c"},
		{"right grouping", &Binary{Op: "-", L: a, R: &Binary{Op: "-", L: b, R: c}}, "a - (b - c)"},
		{"mul over add", &Binary{Op: "*", L: &Binary{Op: "+", L: a, R: b}, R: c}, "(a + b) * c"},
		{"receiver", Method(&Binary{Op: "+", L: a, R: b}, "abs"), "(a + b).abs()"},
		{"cast receiver", Method(&Cast{X: a, Type: Named("f64")}, "sqrt"), "(a as f64).sqrt()"},
		{"cast before less", &Binary{Op: "<", L: &Cast{X: a, Type: Named("i64")}, R: b}, "(a as i64) < b"},
		{"unary", &Unary{Op: "!", X: Method(a, "is_empty")}, "!a.is_empty()"},
		{"borrow", &Borrow{Mut: true, X: a}, "&mut a"},
		{"try", &Try{X: CallPath("f", a)}, "f(a)?"},
		{"raw receiver", Method(&Raw{Text: "x.len() as i32"}, "abs"), "(x.len() as i32).abs()"},
		{"atomic raw", Method(&Raw{Text: "x.len()"}, "max"), "x.len().max()"},
		{"closure", Method(a, "map", &Closure{Params: []string{"x"}, Body: &Binary{Op: "*", L: Name("x"), R: &Lit{Text: "2"}}}), "a.map(|x| x * 2)"},
		{"tuple of one", &Tuple{Elems: []Expr{a}}, "(a,)"},
		{"macro", &Macro{Name: "vec", Bracket: true, Args: []Expr{&Lit{Text: "1"}, &Lit{Text: "2"}}}, "vec![1, 2]"},
		{"range", &Range{Lo: &Lit{Text: "0"}, Hi: &Binary{Op: "+", L: a, R: &Lit{Text: "1"}}}, "0..a + 1"},
		{"negative literal receiver", Method(&Lit{Text: "-1"}, "abs"), "(-1).abs()"},
		{"struct shorthand", &StructLit{Name: "Point", Fields: []FieldInit{{Name: "x", Value: Name("x")}, {Name: "y", Value: &Lit{Text: "0"}}}}, "Point { x, y: 0 }"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := RenderExpr(tt.expr); got != tt.want {
				t.Errorf("expected %q, got %q", tt.want, got)
			}
		})
	}
}

func TestPrintFile(t *testing.T) {
	body := &Block{}
	body.Add(&Let{Mut: true, Pattern: "total", Type: Named("i32"), Value: &Lit{Text: "0"}})
	body.AddExpr(&For{
		Pattern: "x",
		Iter:    Method(Name("xs"), "iter"),
		Body:    &Block{Stmts: []Stmt{&ExprStmt{X: &Assign{Target: Name("total"), Op: "+=", Value: &Deref{X: Name("x")}}}}},
	})
	body.Tail = Name("total")

	f := &File{
		Header: []string{"generated"},
		Attrs:  []string{"allow(unused)"},
		Items: []Item{
			&Use{Path: "std::collections::HashMap"},
			&Fn{
				Doc:    "Sum the values.",
				Name:   "sum",
				Params: []Param{{Pattern: "xs", Type: Ref(Named("Vec", Named("i32")))}},
				Ret:    Named("i32"),
				Body:   body,
			},
		},
	}
	got := Print(f)
	for _, want := range []string{
		"// generated\n#![allow(unused)]\n",
		"use std::collections::HashMap;\n\n/// Sum the values.\n",
		"fn sum(xs: &Vec<i32>) -> i32 {\n",
		"    let mut total: i32 = 0;\n",
		"    for x in xs.iter() {\n        total += *x;\n    }\n",
		"    total\n}\n",
	} {
		if !strings.Contains(got, want) {
			t.Errorf("output missing %q:\n%s", want, got)
		}
	}
}

func TestPrintControlFlow(t *testing.T) {
	match := &Match{
		Subject: Name("err"),
		Arms: []Arm{
			{Pattern: "DepylerError::ValueError(_)", Body: &BlockExpr{Block: &Block{Stmts: []Stmt{&ExprStmt{X: &Macro{Name: "println", Args: []Expr{Str("bad")}}}}}}},
			{Pattern: "_", Body: &Lit{Text: "()"}},
		},
	}
	tryBlock := &BlockExpr{Label: "try_0", Block: &Block{Stmts: []Stmt{&ExprStmt{X: &Break{Label: "try_0"}}}}}
	ifElse := &If{
		Cond: Name("flag"),
		Then: &Block{Stmts: []Stmt{&ExprStmt{X: &Return{Value: &Lit{Text: "1"}}}}},
		Else: &If{Cond: Name("other"), Then: &Block{Tail: &Lit{Text: "2"}}, Else: &BlockExpr{Block: &Block{Tail: &Lit{Text: "3"}}}},
	}
	letElse := &Let{Pattern: "Some(v)", Value: Name("opt"), Else: &Block{Stmts: []Stmt{&ExprStmt{X: &Return{Value: &Lit{Text: "0"}}}}}}

	f := &File{Items: []Item{&Fn{Name: "f", Body: &Block{Stmts: []Stmt{
		&ExprStmt{X: tryBlock},
		&ExprStmt{X: match},
		&ExprStmt{X: ifElse},
		letElse,
	}}}}}
	got := Print(f)
	for _, want := range []string{
		"    'try_0: {\n        break 'try_0;\n    }\n",
		"    match err {\n        DepylerError::ValueError(_) => {\n            println!(\"bad\");\n        }\n        _ => (),\n    }\n",
		"    if flag {\n        return 1;\n    } else if other {\n        2\n    } else {\n        3\n    }\n",
		"    let Some(v) = opt else {\n        return 0;\n    };\n",
	} {
		if !strings.Contains(got, want) {
			t.Errorf("output missing %q:\n%s", want, got)
		}
	}
}

func TestPrintItems(t *testing.T) {
	items := []Item{
		&Struct{Attrs: []string{"derive(Debug, Clone)"}, Pub: true, Name: "Point", Fields: []StructField{
			{Pub: true, Name: "x", Type: Named("i32")},
			{Pub: true, Name: "next", Type: Named("Option", Named("Box", Named("Point")))},
		}},
		&Enum{Name: "Commands", Variants: []Variant{
			{Name: "Run", Named: []StructField{{Name: "fast", Type: Named("bool")}}},
			{Name: "Value", Fields: []Type{Named("String")}},
			{Name: "Stop"},
		}},
		&Impl{For: Named("Point"), Items: []Item{&Fn{Pub: true, Name: "norm", Receiver: "&self", Ret: Named("f64"), Body: &Block{Tail: &Lit{Text: "0.0"}}}}},
		&Const{Pub: true, Name: "LIMIT", Type: Named("i32"), Value: &Lit{Text: "10"}},
	}
	want := []string{
		"#[derive(Debug, Clone)]\npub struct Point {\n    pub x: i32,\n    pub next: Option<Box<Point>>,\n}\n",
		"enum Commands {\n    Run {\n        fast: bool,\n    },\n    Value(String),\n    Stop,\n}\n",
		"impl Point {\n    pub fn norm(&self) -> f64 {\n        0.0\n    }\n}\n",
		"pub const LIMIT: i32 = 10;\n",
	}
	for i, it := range items {
		if got := RenderItem(it); got != want[i] {
			t.Errorf("item %d:\nexpected %q\ngot      %q", i, want[i], got)
		}
	}
}
