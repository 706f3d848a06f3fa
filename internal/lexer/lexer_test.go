package lexer

import (
	"testing"
)

func TestNextToken_Operators(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected []TokenType
	}{
		{
			name:     "arithmetic operators",
			input:    "+ - * / % ** // @",
			expected: []TokenType{PLUS, MINUS, STAR, SLASH, PERCENT, DOUBLESTAR, DOUBLESLASH, AT, NEWLINE, EOF},
		},
		{
			name:     "comparison operators",
			input:    "== != < > <= >=",
			expected: []TokenType{EQ, NEQ, LT, GT, LEQ, GEQ, NEWLINE, EOF},
		},
		{
			name:     "bitwise operators",
			input:    "& | ^ ~ << >>",
			expected: []TokenType{AMP, PIPE, CARET, TILDE, LSHIFT, RSHIFT, NEWLINE, EOF},
		},
		{
			name:     "assignment forms",
			input:    "= := += //= **= ->",
			expected: []TokenType{ASSIGN, WALRUS, AUGASSIGN, AUGASSIGN, AUGASSIGN, ARROW, NEWLINE, EOF},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			l := New(tt.input)
			for i, expectedType := range tt.expected {
				tok := l.NextToken()
				if tok.Type != expectedType {
					t.Errorf("token[%d] - wrong type. expected=%q, got=%q",
						i, expectedType, tok.Type)
				}
			}
		})
	}
}

func TestNextToken_AugAssignLiteral(t *testing.T) {
	toks := New("x //= 2").Tokenize()
	if toks[1].Type != AUGASSIGN || toks[1].Literal != "//=" {
		t.Fatalf("expected AUGASSIGN '//=', got %s", toks[1])
	}
}

func TestNextToken_Delimiters(t *testing.T) {
	input := "( ) { } [ ] , : ; . ..."
	expected := []TokenType{
		LPAREN, RPAREN, LBRACE, RBRACE, LBRACKET, RBRACKET,
		COMMA, COLON, SEMICOLON, DOT, ELLIPSIS, NEWLINE, EOF,
	}

	l := New(input)
	for i, expectedType := range expected {
		tok := l.NextToken()
		if tok.Type != expectedType {
			t.Errorf("token[%d] - wrong type. expected=%q, got=%q",
				i, expectedType, tok.Type)
		}
	}
}

func TestNextToken_Keywords(t *testing.T) {
	tests := []struct {
		keyword  string
		expected TokenType
	}{
		{"def", DEF},
		{"class", CLASS},
		{"return", RETURN},
		{"elif", ELIF},
		{"None", NONE},
		{"True", TRUE},
		{"False", FALSE},
		{"lambda", LAMBDA},
		{"async", ASYNC},
		{"await", AWAIT},
		{"nonlocal", NONLOCAL},
		{"match", IDENT},
		{"case", IDENT},
		{"none", IDENT},
	}

	for _, tt := range tests {
		t.Run(tt.keyword, func(t *testing.T) {
			tok := New(tt.keyword).NextToken()
			if tok.Type != tt.expected {
				t.Errorf("wrong type for %q. expected=%q, got=%q", tt.keyword, tt.expected, tok.Type)
			}
		})
	}
}

func TestNextToken_Indentation(t *testing.T) {
	input := `def f(x):
    if x:
        return 1

    return 2
y = 3
`
	expected := []TokenType{
		DEF, IDENT, LPAREN, IDENT, RPAREN, COLON, NEWLINE,
		INDENT, IF, IDENT, COLON, NEWLINE,
		INDENT, RETURN, INT_LIT, NEWLINE,
		DEDENT, RETURN, INT_LIT, NEWLINE,
		DEDENT, IDENT, ASSIGN, INT_LIT, NEWLINE,
		EOF,
	}

	toks := New(input).Tokenize()
	if len(toks) != len(expected) {
		t.Fatalf("expected %d tokens, got %d: %v", len(expected), len(toks), toks)
	}
	for i, tok := range toks {
		if tok.Type != expected[i] {
			t.Errorf("token[%d] - wrong type. expected=%q, got=%q", i, expected[i], tok.Type)
		}
	}
}

func TestNextToken_DedentAtEOF(t *testing.T) {
	toks := New("if a:\n    if b:\n        pass").Tokenize()
	dedents := 0
	for _, tok := range toks {
		if tok.Type == DEDENT {
			dedents++
		}
	}
	if dedents != 2 {
		t.Errorf("expected 2 DEDENT tokens at EOF, got %d", dedents)
	}
	if toks[len(toks)-1].Type != EOF {
		t.Errorf("last token should be EOF, got %s", toks[len(toks)-1].Type)
	}
}

func TestNextToken_InconsistentDedent(t *testing.T) {
	toks := New("if a:\n    x = 1\n  y = 2\n").Tokenize()
	found := false
	for _, tok := range toks {
		if tok.Type == ILLEGAL {
			found = true
		}
	}
	if !found {
		t.Error("expected ILLEGAL token for inconsistent dedent")
	}
}

func TestNextToken_ImplicitLineJoining(t *testing.T) {
	input := "x = [1,\n     2,\n     3]\n"
	expected := []TokenType{
		IDENT, ASSIGN, LBRACKET, INT_LIT, COMMA, INT_LIT, COMMA, INT_LIT, RBRACKET, NEWLINE, EOF,
	}
	toks := New(input).Tokenize()
	if len(toks) != len(expected) {
		t.Fatalf("expected %d tokens, got %d: %v", len(expected), len(toks), toks)
	}
	for i, tok := range toks {
		if tok.Type != expected[i] {
			t.Errorf("token[%d] - wrong type. expected=%q, got=%q", i, expected[i], tok.Type)
		}
	}
}

func TestNextToken_BackslashContinuation(t *testing.T) {
	toks := New("x = 1 + \\\n    2\n").Tokenize()
	for _, tok := range toks[:5] {
		if tok.Type == NEWLINE || tok.Type == INDENT {
			t.Fatalf("continuation line produced layout token: %v", toks)
		}
	}
}

func TestNextToken_CommentsAndBlankLines(t *testing.T) {
	input := "# header\n\nx = 1  # trailing\n\n   # indented comment\ny = 2\n"
	expected := []TokenType{IDENT, ASSIGN, INT_LIT, NEWLINE, IDENT, ASSIGN, INT_LIT, NEWLINE, EOF}
	toks := New(input).Tokenize()
	if len(toks) != len(expected) {
		t.Fatalf("expected %d tokens, got %d: %v", len(expected), len(toks), toks)
	}
	for i, tok := range toks {
		if tok.Type != expected[i] {
			t.Errorf("token[%d] - wrong type. expected=%q, got=%q", i, expected[i], tok.Type)
		}
	}
}

func TestNextToken_Numbers(t *testing.T) {
	tests := []struct {
		input   string
		tt      TokenType
		literal string
	}{
		{"42", INT_LIT, "42"},
		{"1_000_000", INT_LIT, "1000000"},
		{"0xff", INT_LIT, "0xff"},
		{"0b1010", INT_LIT, "0b1010"},
		{"0o17", INT_LIT, "0o17"},
		{"3.14", FLOAT_LIT, "3.14"},
		{"1e9", FLOAT_LIT, "1e9"},
		{"2.5e-3", FLOAT_LIT, "2.5e-3"},
		{".5", FLOAT_LIT, ".5"},
		{"10.", FLOAT_LIT, "10."},
		{"3j", ILLEGAL, "complex literals are not supported"},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			tok := New(tt.input).NextToken()
			if tok.Type != tt.tt {
				t.Errorf("wrong type. expected=%q, got=%q", tt.tt, tok.Type)
			}
			if tok.Literal != tt.literal {
				t.Errorf("wrong literal. expected=%q, got=%q", tt.literal, tok.Literal)
			}
		})
	}
}

func TestNextToken_Strings(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		tt      TokenType
		literal string
		raw     bool
	}{
		{"double quoted", `"hello"`, STRING_LIT, "hello", false},
		{"single quoted", `'hello'`, STRING_LIT, "hello", false},
		{"escapes", `"a\tb\n"`, STRING_LIT, "a\tb\n", false},
		{"escaped quote", `'it\'s'`, STRING_LIT, "it's", false},
		{"hex escape", `"\x41"`, STRING_LIT, "A", false},
		{"raw", `r"\d+"`, STRING_LIT, `\d+`, true},
		{"bytes", `b"abc"`, BYTES_LIT, "abc", false},
		{"raw bytes", `Rb"\n"`, BYTES_LIT, `\n`, true},
		{"unicode prefix", `u"x"`, STRING_LIT, "x", false},
		{"fstring", `f"x={x}"`, FSTRING_LIT, "x={x}", false},
		{"fstring keeps escapes", `f"a\n{b}"`, FSTRING_LIT, `a\n{b}`, false},
		{"triple quoted", "\"\"\"line1\nline2\"\"\"", STRING_LIT, "line1\nline2", false},
		{"triple with inner quote", `'''it's'''`, STRING_LIT, "it's", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tok := New(tt.input).NextToken()
			if tok.Type != tt.tt {
				t.Fatalf("wrong type. expected=%q, got=%q", tt.tt, tok.Type)
			}
			if tok.Literal != tt.literal {
				t.Errorf("wrong literal. expected=%q, got=%q", tt.literal, tok.Literal)
			}
			if tok.Raw != tt.raw {
				t.Errorf("wrong raw flag. expected=%v, got=%v", tt.raw, tok.Raw)
			}
		})
	}
}

func TestNextToken_UnterminatedString(t *testing.T) {
	tok := New("\"abc\nx").NextToken()
	if tok.Type != ILLEGAL {
		t.Errorf("expected ILLEGAL, got %s", tok.Type)
	}
}

func TestNextToken_TripleQuotedLineTracking(t *testing.T) {
	toks := New("s = \"\"\"a\nb\nc\"\"\"\nx = 1\n").Tokenize()
	var x Token
	for _, tok := range toks {
		if tok.Type == IDENT && tok.Literal == "x" {
			x = tok
		}
	}
	if x.Line != 4 {
		t.Errorf("expected x on line 4, got %d", x.Line)
	}
}

func TestNextToken_IdentifierNotStringPrefix(t *testing.T) {
	toks := New("rb = fr").Tokenize()
	if toks[0].Type != IDENT || toks[0].Literal != "rb" {
		t.Errorf("expected IDENT rb, got %s", toks[0])
	}
	if toks[2].Type != IDENT || toks[2].Literal != "fr" {
		t.Errorf("expected IDENT fr, got %s", toks[2])
	}
}

func TestNextToken_UnicodeIdentifierNFKC(t *testing.T) {
	// U+FB01 LATIN SMALL LIGATURE FI normalizes to "fi"
	tok := New("\ufb01le = 1").NextToken()
	if tok.Type != IDENT {
		t.Fatalf("expected IDENT, got %s", tok.Type)
	}
	if tok.Literal != "file" {
		t.Errorf("expected NFKC-normalized 'file', got %q", tok.Literal)
	}
}

func TestNextToken_Positions(t *testing.T) {
	toks := New("x = 1\ndef f():\n    pass\n").Tokenize()
	tests := []struct {
		idx  int
		line int
		col  int
	}{
		{0, 1, 1}, // x
		{2, 1, 5}, // 1
		{4, 2, 1}, // def
		{5, 2, 5}, // f
	}
	for _, tt := range tests {
		tok := toks[tt.idx]
		if tok.Line != tt.line || tok.Column != tt.col {
			t.Errorf("token[%d] %s: expected %d:%d, got %d:%d", tt.idx, tok, tt.line, tt.col, tok.Line, tok.Column)
		}
	}
}

func TestUnescape(t *testing.T) {
	tests := []struct {
		in, out string
	}{
		{`plain`, "plain"},
		{`a\nb`, "a\nb"},
		{`\\`, `\`},
		{`\d`, `\d`},
		{`\u00e9`, "é"},
	}
	for _, tt := range tests {
		if got := Unescape(tt.in); got != tt.out {
			t.Errorf("Unescape(%q) = %q, want %q", tt.in, got, tt.out)
		}
	}
}
