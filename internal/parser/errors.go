package parser

import (
	"github.com/paiml/depyler-sub010/internal/diagnostic"
	"github.com/paiml/depyler-sub010/internal/lexer"
)

// syncTokens are tokens the parser can synchronize to after an error
var syncTokens = map[lexer.TokenType]bool{
	lexer.DEF:    true,
	lexer.CLASS:  true,
	lexer.DEDENT: true,
	lexer.EOF:    true,
}

// Parser holds the parser state
type Parser struct {
	tokens []lexer.Token
	pos    int
	diags  *diagnostic.Diagnostics
}

// current returns the current token
func (p *Parser) current() lexer.Token {
	if p.pos >= len(p.tokens) {
		return lexer.Token{Type: lexer.EOF}
	}
	return p.tokens[p.pos]
}

// peek returns the next token without consuming
func (p *Parser) peek() lexer.Token {
	if p.pos+1 >= len(p.tokens) {
		return lexer.Token{Type: lexer.EOF}
	}
	return p.tokens[p.pos+1]
}

// advance moves to the next token and returns the consumed token
func (p *Parser) advance() lexer.Token {
	tok := p.current()
	if p.pos < len(p.tokens) {
		p.pos++
	}
	return tok
}

// expect consumes the current token if it matches the expected type,
// otherwise reports an error
func (p *Parser) expect(tt lexer.TokenType) lexer.Token {
	tok := p.current()
	if tok.Type != tt {
		p.diags.ParseErrorf(tok.Line, tok.Column, "expected %s, got %s", tt, tok.Type)
		return tok
	}
	return p.advance()
}

// check returns true if the current token is of the given type
func (p *Parser) check(tt lexer.TokenType) bool {
	return p.current().Type == tt
}

// checkSoft reports whether the current token is the soft keyword kw
func (p *Parser) checkSoft(kw string) bool {
	tok := p.current()
	return tok.Type == lexer.IDENT && tok.Literal == kw
}

// match consumes the current token if it matches, returns true if consumed
func (p *Parser) match(tt lexer.TokenType) bool {
	if p.check(tt) {
		p.advance()
		return true
	}
	return false
}

// errorf reports a parse error at the current token
func (p *Parser) errorf(format string, args ...interface{}) {
	tok := p.current()
	p.diags.ParseErrorf(tok.Line, tok.Column, format, args...)
}

// synchronize skips tokens until the end of the current logical line or a
// sync point is found.
func (p *Parser) synchronize() {
	for !p.check(lexer.EOF) {
		if p.current().Type == lexer.NEWLINE {
			p.advance() // consume the newline and continue
			return
		}
		if syncTokens[p.current().Type] {
			return
		}
		p.advance()
	}
}
