package lexer

import (
	"strconv"
	"strings"
	"unicode"
	"unicode/utf8"

	"golang.org/x/text/unicode/norm"
)

// tabSize is the column a tab advances to a multiple of when measuring indentation
const tabSize = 8

// Lexer scans Python source code and produces tokens, including the
// NEWLINE/INDENT/DEDENT layout tokens.
type Lexer struct {
	input        string
	position     int  // current position in input (points to current char)
	readPosition int  // current reading position in input (after current char)
	ch           byte // current char under examination
	line         int  // current line number
	column       int  // current column number

	indents     []int   // indentation stack, always starts with 0
	parenDepth  int     // nesting of (), [] and {}; newlines are ignored inside
	atLineStart bool    // next token begins a logical line
	pending     []Token // queued layout tokens
	lastType    TokenType
	emitted     bool // at least one token on the current logical line
}

// New creates a new Lexer instance
func New(input string) *Lexer {
	l := &Lexer{
		input:       input,
		line:        1,
		column:      0,
		indents:     []int{0},
		atLineStart: true,
		lastType:    NEWLINE,
	}
	l.readChar()
	return l
}

// readChar reads the next character and advances the position
func (l *Lexer) readChar() {
	if l.readPosition >= len(l.input) {
		l.ch = 0
	} else {
		l.ch = l.input[l.readPosition]
	}
	l.position = l.readPosition
	l.readPosition++
	l.column++
}

// peekChar returns the next character without advancing the position
func (l *Lexer) peekChar() byte {
	if l.readPosition >= len(l.input) {
		return 0
	}
	return l.input[l.readPosition]
}

// peekAt returns the character n bytes after the current one
func (l *Lexer) peekAt(n int) byte {
	idx := l.position + n
	if idx >= len(l.input) {
		return 0
	}
	return l.input[idx]
}

// nextLine consumes a newline character and moves to the start of the next line
func (l *Lexer) nextLine() {
	l.line++
	l.column = 0
	l.readChar()
}

func (l *Lexer) tok(tt TokenType, lit string, line, col int) Token {
	return Token{Type: tt, Literal: lit, Line: line, Column: col}
}

// NextToken returns the next token from the input
func (l *Lexer) NextToken() Token {
	tok := l.nextToken()
	l.lastType = tok.Type
	switch tok.Type {
	case NEWLINE, INDENT, DEDENT:
		if tok.Type == NEWLINE {
			l.emitted = false
		}
	default:
		l.emitted = true
	}
	return tok
}

func (l *Lexer) nextToken() Token {
	if len(l.pending) > 0 {
		tok := l.pending[0]
		l.pending = l.pending[1:]
		return tok
	}

	if l.atLineStart && l.parenDepth == 0 {
		if tok, ok := l.readIndentation(); ok {
			return tok
		}
	}

	l.skipInlineWhitespace()

	line, col := l.line, l.column

	switch l.ch {
	case 0:
		return l.finish()
	case '\n':
		l.nextLine()
		if l.parenDepth > 0 {
			return l.nextToken()
		}
		l.atLineStart = true
		if !l.emitted {
			return l.nextToken()
		}
		return l.tok(NEWLINE, "\n", line, col)
	case '(', '[', '{':
		l.parenDepth++
		ch := l.ch
		l.readChar()
		return l.tok(delimiter(ch), string(ch), line, col)
	case ')', ']', '}':
		if l.parenDepth > 0 {
			l.parenDepth--
		}
		ch := l.ch
		l.readChar()
		return l.tok(delimiter(ch), string(ch), line, col)
	case '"', '\'':
		return l.readString("", line, col)
	}

	if l.ch == '.' && isDigit(l.peekChar()) {
		return l.readNumber(line, col)
	}
	if isDigit(l.ch) {
		return l.readNumber(line, col)
	}
	if isLetter(l.ch) || l.ch >= utf8.RuneSelf {
		if prefix, ok := l.stringPrefix(); ok {
			for range prefix {
				l.readChar()
			}
			return l.readString(strings.ToLower(prefix), line, col)
		}
		ident := l.readIdentifier()
		if ident == "" {
			bad := string(l.ch)
			l.readChar()
			return l.tok(ILLEGAL, bad, line, col)
		}
		return l.tok(LookupIdent(ident), ident, line, col)
	}

	return l.readOperator(line, col)
}

// readIndentation measures the indentation of a new logical line and returns
// the first layout token it implies, if any. Blank and comment-only lines are
// consumed without producing tokens.
func (l *Lexer) readIndentation() (Token, bool) {
	for {
		width := 0
		for l.ch == ' ' || l.ch == '\t' || l.ch == '\f' {
			switch l.ch {
			case ' ':
				width++
			case '\t':
				width = (width/tabSize + 1) * tabSize
			default:
				width = 0
			}
			l.readChar()
		}

		switch l.ch {
		case '#':
			l.skipComment()
			continue
		case '\r':
			l.readChar()
			continue
		case '\n':
			l.nextLine()
			continue
		case 0:
			l.atLineStart = false
			return Token{}, false
		}

		l.atLineStart = false
		top := l.indents[len(l.indents)-1]
		line := l.line
		switch {
		case width > top:
			l.indents = append(l.indents, width)
			return l.tok(INDENT, "", line, 1), true
		case width < top:
			var dedents []Token
			for len(l.indents) > 1 && l.indents[len(l.indents)-1] > width {
				l.indents = l.indents[:len(l.indents)-1]
				dedents = append(dedents, l.tok(DEDENT, "", line, 1))
			}
			if l.indents[len(l.indents)-1] != width {
				dedents = append(dedents, l.tok(ILLEGAL, "unindent does not match any outer indentation level", line, 1))
			}
			l.pending = append(l.pending, dedents[1:]...)
			return dedents[0], true
		}
		return Token{}, false
	}
}

// finish emits the trailing NEWLINE and DEDENT tokens before EOF
func (l *Lexer) finish() Token {
	line, col := l.line, l.column
	if l.emitted && l.lastType != NEWLINE {
		l.emitted = false
		return l.tok(NEWLINE, "", line, col)
	}
	for len(l.indents) > 1 {
		l.indents = l.indents[:len(l.indents)-1]
		l.pending = append(l.pending, l.tok(DEDENT, "", line, col))
	}
	l.pending = append(l.pending, l.tok(EOF, "", line, col))
	tok := l.pending[0]
	l.pending = l.pending[1:]
	return tok
}

// skipInlineWhitespace skips spaces, comments and backslash continuations
func (l *Lexer) skipInlineWhitespace() {
	for {
		switch {
		case l.ch == ' ' || l.ch == '\t' || l.ch == '\f' || l.ch == '\r':
			l.readChar()
		case l.ch == '#':
			l.skipComment()
		case l.ch == '\\' && (l.peekChar() == '\n' || (l.peekChar() == '\r' && l.peekAt(2) == '\n')):
			l.readChar()
			if l.ch == '\r' {
				l.readChar()
			}
			l.nextLine()
		default:
			return
		}
	}
}

// skipComment skips a # comment up to (not including) the newline
func (l *Lexer) skipComment() {
	for l.ch != '\n' && l.ch != 0 {
		l.readChar()
	}
}

// readIdentifier reads an identifier or keyword. Non-ASCII identifiers are
// NFKC-normalized.
func (l *Lexer) readIdentifier() string {
	position := l.position
	ascii := true
	for {
		if isLetter(l.ch) || isDigit(l.ch) {
			l.readChar()
			continue
		}
		if l.ch >= utf8.RuneSelf {
			r, size := utf8.DecodeRuneInString(l.input[l.position:])
			if !(unicode.IsLetter(r) || unicode.IsDigit(r) || unicode.Is(unicode.Mn, r) || unicode.Is(unicode.Mc, r)) {
				break
			}
			ascii = false
			for i := 0; i < size; i++ {
				l.readChar()
			}
			continue
		}
		break
	}
	ident := l.input[position:l.position]
	if !ascii {
		ident = norm.NFKC.String(ident)
	}
	return ident
}

// stringPrefix reports whether the current identifier start is a string
// prefix (r, b, f, u and their two-letter combinations) followed by a quote.
func (l *Lexer) stringPrefix() (string, bool) {
	for n := 2; n >= 1; n-- {
		if l.position+n >= len(l.input) {
			continue
		}
		q := l.input[l.position+n]
		if q != '"' && q != '\'' {
			continue
		}
		prefix := l.input[l.position : l.position+n]
		switch strings.ToLower(prefix) {
		case "r", "b", "f", "u", "rb", "br", "fr", "rf":
			return prefix, true
		}
	}
	return "", false
}

// readString reads a (possibly triple-quoted) string literal starting at the
// opening quote. prefix is the lower-cased string prefix.
func (l *Lexer) readString(prefix string, line, col int) Token {
	raw := strings.Contains(prefix, "r")
	isBytes := strings.Contains(prefix, "b")
	isF := strings.Contains(prefix, "f")

	quote := l.ch
	triple := l.peekChar() == quote && l.peekAt(2) == quote
	if triple {
		l.readChar()
		l.readChar()
	}
	l.readChar()

	var body strings.Builder
	for {
		if l.ch == 0 {
			return l.tok(ILLEGAL, "unterminated string", line, col)
		}
		if l.ch == '\n' {
			if !triple {
				return l.tok(ILLEGAL, "unterminated string", line, col)
			}
			body.WriteByte('\n')
			l.nextLine()
			continue
		}
		if l.ch == '\\' {
			body.WriteByte('\\')
			l.readChar()
			if l.ch == 0 {
				continue
			}
			body.WriteByte(l.ch)
			if l.ch == '\n' {
				l.nextLine()
				continue
			}
			l.readChar()
			continue
		}
		if l.ch == quote {
			if !triple {
				l.readChar()
				break
			}
			if l.peekChar() == quote && l.peekAt(2) == quote {
				l.readChar()
				l.readChar()
				l.readChar()
				break
			}
		}
		body.WriteByte(l.ch)
		l.readChar()
	}

	text := body.String()
	switch {
	case isF:
		return Token{Type: FSTRING_LIT, Literal: text, Line: line, Column: col, Raw: raw}
	case raw:
		tt := STRING_LIT
		if isBytes {
			tt = BYTES_LIT
		}
		return Token{Type: tt, Literal: text, Line: line, Column: col, Raw: true}
	case isBytes:
		return l.tok(BYTES_LIT, Unescape(text), line, col)
	default:
		return l.tok(STRING_LIT, Unescape(text), line, col)
	}
}

// Unescape decodes Python backslash escapes. Unknown escapes keep the
// backslash, as Python does.
func Unescape(s string) string {
	if !strings.Contains(s, "\\") {
		return s
	}
	var b strings.Builder
	for i := 0; i < len(s); i++ {
		c := s[i]
		if c != '\\' || i+1 >= len(s) {
			b.WriteByte(c)
			continue
		}
		i++
		switch s[i] {
		case 'n':
			b.WriteByte('\n')
		case 't':
			b.WriteByte('\t')
		case 'r':
			b.WriteByte('\r')
		case '0':
			b.WriteByte(0)
		case 'a':
			b.WriteByte('\a')
		case 'b':
			b.WriteByte('\b')
		case 'f':
			b.WriteByte('\f')
		case 'v':
			b.WriteByte('\v')
		case '\\':
			b.WriteByte('\\')
		case '\'':
			b.WriteByte('\'')
		case '"':
			b.WriteByte('"')
		case '\n':
			// line continuation inside a string
		case 'x':
			if i+2 < len(s) {
				if v, err := strconv.ParseUint(s[i+1:i+3], 16, 8); err == nil {
					b.WriteRune(rune(v))
					i += 2
					continue
				}
			}
			b.WriteString("\\x")
		case 'u', 'U':
			n := 4
			if s[i] == 'U' {
				n = 8
			}
			if i+n < len(s) {
				if v, err := strconv.ParseUint(s[i+1:i+1+n], 16, 32); err == nil {
					b.WriteRune(rune(v))
					i += n
					continue
				}
			}
			b.WriteByte('\\')
			b.WriteByte(s[i])
		default:
			b.WriteByte('\\')
			b.WriteByte(s[i])
		}
	}
	return b.String()
}

// readNumber reads an integer or float literal. Underscore separators are
// dropped from the literal; complex literals are rejected.
func (l *Lexer) readNumber(line, col int) Token {
	position := l.position
	tokenType := INT_LIT

	if l.ch == '0' && strings.ContainsRune("xXoObB", rune(l.peekChar())) {
		l.readChar()
		l.readChar()
		for isHexDigit(l.ch) || l.ch == '_' {
			l.readChar()
		}
		lit := strings.ReplaceAll(l.input[position:l.position], "_", "")
		return l.tok(INT_LIT, lit, line, col)
	}

	for isDigit(l.ch) || l.ch == '_' {
		l.readChar()
	}
	if l.ch == '.' && l.peekChar() != '.' {
		tokenType = FLOAT_LIT
		l.readChar()
		for isDigit(l.ch) || l.ch == '_' {
			l.readChar()
		}
	}
	if l.ch == 'e' || l.ch == 'E' {
		next := l.peekChar()
		if isDigit(next) || ((next == '+' || next == '-') && isDigit(l.peekAt(2))) {
			tokenType = FLOAT_LIT
			l.readChar()
			if l.ch == '+' || l.ch == '-' {
				l.readChar()
			}
			for isDigit(l.ch) {
				l.readChar()
			}
		}
	}
	if l.ch == 'j' || l.ch == 'J' {
		l.readChar()
		return l.tok(ILLEGAL, "complex literals are not supported", line, col)
	}

	lit := strings.ReplaceAll(l.input[position:l.position], "_", "")
	return l.tok(tokenType, lit, line, col)
}

// readOperator reads an operator or delimiter token
func (l *Lexer) readOperator(line, col int) Token {
	three := l.slice(3)
	two := l.slice(2)

	switch three {
	case "**=", "//=", ">>=", "<<=":
		l.advance(3)
		return l.tok(AUGASSIGN, three, line, col)
	case "...":
		l.advance(3)
		return l.tok(ELLIPSIS, three, line, col)
	}

	switch two {
	case "+=", "-=", "*=", "/=", "%=", "&=", "|=", "^=", "@=":
		l.advance(2)
		return l.tok(AUGASSIGN, two, line, col)
	case "**":
		l.advance(2)
		return l.tok(DOUBLESTAR, two, line, col)
	case "//":
		l.advance(2)
		return l.tok(DOUBLESLASH, two, line, col)
	case "<<":
		l.advance(2)
		return l.tok(LSHIFT, two, line, col)
	case ">>":
		l.advance(2)
		return l.tok(RSHIFT, two, line, col)
	case "==":
		l.advance(2)
		return l.tok(EQ, two, line, col)
	case "!=":
		l.advance(2)
		return l.tok(NEQ, two, line, col)
	case "<=":
		l.advance(2)
		return l.tok(LEQ, two, line, col)
	case ">=":
		l.advance(2)
		return l.tok(GEQ, two, line, col)
	case ":=":
		l.advance(2)
		return l.tok(WALRUS, two, line, col)
	case "->":
		l.advance(2)
		return l.tok(ARROW, two, line, col)
	}

	ch := l.ch
	l.readChar()
	switch ch {
	case '+':
		return l.tok(PLUS, "+", line, col)
	case '-':
		return l.tok(MINUS, "-", line, col)
	case '*':
		return l.tok(STAR, "*", line, col)
	case '/':
		return l.tok(SLASH, "/", line, col)
	case '%':
		return l.tok(PERCENT, "%", line, col)
	case '@':
		return l.tok(AT, "@", line, col)
	case '&':
		return l.tok(AMP, "&", line, col)
	case '|':
		return l.tok(PIPE, "|", line, col)
	case '^':
		return l.tok(CARET, "^", line, col)
	case '~':
		return l.tok(TILDE, "~", line, col)
	case '<':
		return l.tok(LT, "<", line, col)
	case '>':
		return l.tok(GT, ">", line, col)
	case '=':
		return l.tok(ASSIGN, "=", line, col)
	case ',':
		return l.tok(COMMA, ",", line, col)
	case ':':
		return l.tok(COLON, ":", line, col)
	case ';':
		return l.tok(SEMICOLON, ";", line, col)
	case '.':
		return l.tok(DOT, ".", line, col)
	}
	return l.tok(ILLEGAL, string(ch), line, col)
}

func (l *Lexer) slice(n int) string {
	end := l.position + n
	if end > len(l.input) {
		return ""
	}
	return l.input[l.position:end]
}

func (l *Lexer) advance(n int) {
	for i := 0; i < n; i++ {
		l.readChar()
	}
}

// Tokenize returns all tokens from the input
func (l *Lexer) Tokenize() []Token {
	var tokens []Token
	for {
		tok := l.NextToken()
		tokens = append(tokens, tok)
		if tok.Type == EOF {
			break
		}
	}
	return tokens
}

// Helper functions

func delimiter(ch byte) TokenType {
	switch ch {
	case '(':
		return LPAREN
	case ')':
		return RPAREN
	case '[':
		return LBRACKET
	case ']':
		return RBRACKET
	case '{':
		return LBRACE
	default:
		return RBRACE
	}
}

func isLetter(ch byte) bool {
	return 'a' <= ch && ch <= 'z' || 'A' <= ch && ch <= 'Z' || ch == '_'
}

func isDigit(ch byte) bool {
	return '0' <= ch && ch <= '9'
}

func isHexDigit(ch byte) bool {
	return isDigit(ch) || 'a' <= ch && ch <= 'f' || 'A' <= ch && ch <= 'F'
}
