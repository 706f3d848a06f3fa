package lexer

import "fmt"

// TokenType represents the type of a token
type TokenType int

const (
	// Special tokens
	ILLEGAL TokenType = iota
	EOF
	NEWLINE
	INDENT
	DEDENT

	// Literals
	IDENT       // x, y, my_variable
	INT_LIT     // 123, 0xff, 1_000
	FLOAT_LIT   // 1.5, 1e9
	STRING_LIT  // "hello" (Literal holds the decoded value)
	BYTES_LIT   // b"hello"
	FSTRING_LIT // f"x={x}" (Literal holds the raw body)

	// Keywords
	DEF
	CLASS
	RETURN
	IF
	ELIF
	ELSE
	WHILE
	FOR
	IN
	NOT
	AND
	OR
	IS
	NONE
	TRUE
	FALSE
	PASS
	BREAK
	CONTINUE
	TRY
	EXCEPT
	FINALLY
	RAISE
	WITH
	AS
	IMPORT
	FROM
	GLOBAL
	NONLOCAL
	DEL
	ASSERT
	LAMBDA
	YIELD
	AWAIT
	ASYNC

	// Operators
	PLUS        // +
	MINUS       // -
	STAR        // *
	DOUBLESTAR  // **
	SLASH       // /
	DOUBLESLASH // //
	PERCENT     // %
	AT          // @
	AMP         // &
	PIPE        // |
	CARET       // ^
	TILDE       // ~
	LSHIFT      // <<
	RSHIFT      // >>
	EQ          // ==
	NEQ         // !=
	LT          // <
	GT          // >
	LEQ         // <=
	GEQ         // >=
	ASSIGN      // =
	WALRUS      // :=
	AUGASSIGN   // += -= *= ... (Literal holds the operator)
	ARROW       // ->

	// Delimiters
	LPAREN    // (
	RPAREN    // )
	LBRACE    // {
	RBRACE    // }
	LBRACKET  // [
	RBRACKET  // ]
	COMMA     // ,
	COLON     // :
	SEMICOLON // ;
	DOT       // .
	ELLIPSIS  // ...
)

// Token represents a lexical token
type Token struct {
	Type    TokenType
	Literal string
	Line    int
	Column  int
	Raw     bool // string literal carried an r prefix
}

var tokenNames = map[TokenType]string{
	ILLEGAL:     "ILLEGAL",
	EOF:         "EOF",
	NEWLINE:     "NEWLINE",
	INDENT:      "INDENT",
	DEDENT:      "DEDENT",
	IDENT:       "IDENT",
	INT_LIT:     "INT_LIT",
	FLOAT_LIT:   "FLOAT_LIT",
	STRING_LIT:  "STRING_LIT",
	BYTES_LIT:   "BYTES_LIT",
	FSTRING_LIT: "FSTRING_LIT",
	DEF:         "def",
	CLASS:       "class",
	RETURN:      "return",
	IF:          "if",
	ELIF:        "elif",
	ELSE:        "else",
	WHILE:       "while",
	FOR:         "for",
	IN:          "in",
	NOT:         "not",
	AND:         "and",
	OR:          "or",
	IS:          "is",
	NONE:        "None",
	TRUE:        "True",
	FALSE:       "False",
	PASS:        "pass",
	BREAK:       "break",
	CONTINUE:    "continue",
	TRY:         "try",
	EXCEPT:      "except",
	FINALLY:     "finally",
	RAISE:       "raise",
	WITH:        "with",
	AS:          "as",
	IMPORT:      "import",
	FROM:        "from",
	GLOBAL:      "global",
	NONLOCAL:    "nonlocal",
	DEL:         "del",
	ASSERT:      "assert",
	LAMBDA:      "lambda",
	YIELD:       "yield",
	AWAIT:       "await",
	ASYNC:       "async",
	PLUS:        "+",
	MINUS:       "-",
	STAR:        "*",
	DOUBLESTAR:  "**",
	SLASH:       "/",
	DOUBLESLASH: "//",
	PERCENT:     "%",
	AT:          "@",
	AMP:         "&",
	PIPE:        "|",
	CARET:       "^",
	TILDE:       "~",
	LSHIFT:      "<<",
	RSHIFT:      ">>",
	EQ:          "==",
	NEQ:         "!=",
	LT:          "<",
	GT:          ">",
	LEQ:         "<=",
	GEQ:         ">=",
	ASSIGN:      "=",
	WALRUS:      ":=",
	AUGASSIGN:   "AUGASSIGN",
	ARROW:       "->",
	LPAREN:      "(",
	RPAREN:      ")",
	LBRACE:      "{",
	RBRACE:      "}",
	LBRACKET:    "[",
	RBRACKET:    "]",
	COMMA:       ",",
	COLON:       ":",
	SEMICOLON:   ";",
	DOT:         ".",
	ELLIPSIS:    "...",
}

// String returns a string representation of the token type
func (t TokenType) String() string {
	if name, ok := tokenNames[t]; ok {
		return name
	}
	return fmt.Sprintf("TokenType(%d)", int(t))
}

// String returns a string representation of the token
func (t Token) String() string {
	return fmt.Sprintf("%s(%q) at %d:%d", t.Type, t.Literal, t.Line, t.Column)
}

// keywords maps reserved words to their token types. "match" and "case" are
// soft keywords and stay identifiers.
var keywords = map[string]TokenType{
	"def":      DEF,
	"class":    CLASS,
	"return":   RETURN,
	"if":       IF,
	"elif":     ELIF,
	"else":     ELSE,
	"while":    WHILE,
	"for":      FOR,
	"in":       IN,
	"not":      NOT,
	"and":      AND,
	"or":       OR,
	"is":       IS,
	"None":     NONE,
	"True":     TRUE,
	"False":    FALSE,
	"pass":     PASS,
	"break":    BREAK,
	"continue": CONTINUE,
	"try":      TRY,
	"except":   EXCEPT,
	"finally":  FINALLY,
	"raise":    RAISE,
	"with":     WITH,
	"as":       AS,
	"import":   IMPORT,
	"from":     FROM,
	"global":   GLOBAL,
	"nonlocal": NONLOCAL,
	"del":      DEL,
	"assert":   ASSERT,
	"lambda":   LAMBDA,
	"yield":    YIELD,
	"await":    AWAIT,
	"async":    ASYNC,
}

// LookupIdent checks if an identifier is a keyword
func LookupIdent(ident string) TokenType {
	if tok, ok := keywords[ident]; ok {
		return tok
	}
	return IDENT
}
