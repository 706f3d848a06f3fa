package parser

import (
	"github.com/paiml/depyler-sub010/internal/ast"
	"github.com/paiml/depyler-sub010/internal/lexer"
)

// Expression parsing - recursive descent, one function per precedence level.
//
// Precedence levels (lowest to highest):
//  1. lambda, conditional expression (a if c else b)
//  2. or
//  3. and
//  4. not
//  5. comparisons (< > == >= <= != in, not in, is, is not)
//  6. |
//  7. ^
//  8. &
//  9. << >>
//  10. + -
//  11. * / // % @
//  12. unary + - ~
//  13. ** (right-associative)
//  14. await
//  15. primary (attribute, call, subscript)

// canStartExpr reports whether the current token can begin an expression
func (p *Parser) canStartExpr() bool {
	switch p.current().Type {
	case lexer.IDENT, lexer.INT_LIT, lexer.FLOAT_LIT, lexer.STRING_LIT, lexer.BYTES_LIT,
		lexer.FSTRING_LIT, lexer.NONE, lexer.TRUE, lexer.FALSE, lexer.ELLIPSIS,
		lexer.LPAREN, lexer.LBRACKET, lexer.LBRACE, lexer.MINUS, lexer.PLUS, lexer.TILDE,
		lexer.NOT, lexer.LAMBDA, lexer.AWAIT, lexer.STAR, lexer.YIELD:
		return true
	}
	return false
}

// parseStarExprsOrYield parses a yield expression or a star-expression list
func (p *Parser) parseStarExprsOrYield() ast.Expression {
	if p.check(lexer.YIELD) {
		return p.parseYield()
	}
	return p.parseStarExprs()
}

// parseStarExprs parses a comma-separated expression list, producing a tuple
// when a comma is present
func (p *Parser) parseStarExprs() ast.Expression {
	tok := p.current()
	first := p.parseStarOrNamed()
	if !p.check(lexer.COMMA) {
		return first
	}
	elts := []ast.Expression{first}
	for p.match(lexer.COMMA) {
		if !p.canStartExpr() {
			break
		}
		elts = append(elts, p.parseStarOrNamed())
	}
	return &ast.TupleExpr{Elts: elts, Line: tok.Line, Column: tok.Column}
}

func (p *Parser) parseStarOrNamed() ast.Expression {
	if p.check(lexer.STAR) {
		tok := p.advance()
		return &ast.Starred{Value: p.parseBitOr(), Line: tok.Line, Column: tok.Column}
	}
	return p.parseNamedExpr()
}

// parseNamedExpr parses: NAME := test | test
func (p *Parser) parseNamedExpr() ast.Expression {
	if p.check(lexer.IDENT) && p.peek().Type == lexer.WALRUS {
		name := p.advance()
		p.advance()
		return &ast.NamedExpr{
			Target: name.Literal,
			Value:  p.parseTest(),
			Line:   name.Line,
			Column: name.Column,
		}
	}
	return p.parseTest()
}

// parseTest parses a lambda or a conditional expression
func (p *Parser) parseTest() ast.Expression {
	if p.check(lexer.LAMBDA) {
		return p.parseLambda()
	}
	expr := p.parseOr()
	if p.check(lexer.IF) {
		tok := p.advance()
		cond := p.parseOr()
		p.expect(lexer.ELSE)
		orelse := p.parseTest()
		return &ast.IfExp{Test: cond, Body: expr, Orelse: orelse, Line: tok.Line, Column: tok.Column}
	}
	return expr
}

func (p *Parser) parseLambda() ast.Expression {
	tok := p.expect(lexer.LAMBDA)
	params := p.parseParams(lexer.COLON, false)
	p.expect(lexer.COLON)
	return &ast.Lambda{Params: params, Body: p.parseTest(), Line: tok.Line, Column: tok.Column}
}

func (p *Parser) parseYield() ast.Expression {
	tok := p.expect(lexer.YIELD)
	p.match(lexer.FROM)
	y := &ast.Yield{Line: tok.Line, Column: tok.Column}
	if p.canStartExpr() {
		y.Value = p.parseStarExprs()
	}
	return y
}

func (p *Parser) parseOr() ast.Expression {
	tok := p.current()
	left := p.parseAnd()
	if !p.check(lexer.OR) {
		return left
	}
	values := []ast.Expression{left}
	for p.match(lexer.OR) {
		values = append(values, p.parseAnd())
	}
	return &ast.BoolOp{Op: "or", Values: values, Line: tok.Line, Column: tok.Column}
}

func (p *Parser) parseAnd() ast.Expression {
	tok := p.current()
	left := p.parseNot()
	if !p.check(lexer.AND) {
		return left
	}
	values := []ast.Expression{left}
	for p.match(lexer.AND) {
		values = append(values, p.parseNot())
	}
	return &ast.BoolOp{Op: "and", Values: values, Line: tok.Line, Column: tok.Column}
}

func (p *Parser) parseNot() ast.Expression {
	if p.check(lexer.NOT) {
		tok := p.advance()
		return &ast.UnaryOp{Op: "not", Operand: p.parseNot(), Line: tok.Line, Column: tok.Column}
	}
	return p.parseComparison()
}

// compOp returns the comparison operator at the current position and the
// number of tokens it spans
func (p *Parser) compOp() (string, int) {
	switch p.current().Type {
	case lexer.LT, lexer.GT, lexer.EQ, lexer.NEQ, lexer.LEQ, lexer.GEQ:
		return p.current().Literal, 1
	case lexer.IN:
		return "in", 1
	case lexer.NOT:
		if p.peek().Type == lexer.IN {
			return "not in", 2
		}
	case lexer.IS:
		if p.peek().Type == lexer.NOT {
			return "is not", 2
		}
		return "is", 1
	}
	return "", 0
}

func (p *Parser) parseComparison() ast.Expression {
	tok := p.current()
	left := p.parseBitOr()
	op, n := p.compOp()
	if n == 0 {
		return left
	}
	cmp := &ast.Compare{Left: left, Line: tok.Line, Column: tok.Column}
	for n > 0 {
		for i := 0; i < n; i++ {
			p.advance()
		}
		cmp.Ops = append(cmp.Ops, op)
		cmp.Comparators = append(cmp.Comparators, p.parseBitOr())
		op, n = p.compOp()
	}
	return cmp
}

// parseBinaryLevel parses a left-associative binary level
func (p *Parser) parseBinaryLevel(next func() ast.Expression, ops ...lexer.TokenType) ast.Expression {
	left := next()
	for {
		matched := false
		for _, op := range ops {
			if p.check(op) {
				matched = true
				break
			}
		}
		if !matched {
			return left
		}
		opTok := p.advance()
		line, col := left.Pos()
		left = &ast.BinOp{Left: left, Op: opTok.Literal, Right: next(), Line: line, Column: col}
	}
}

func (p *Parser) parseBitOr() ast.Expression {
	return p.parseBinaryLevel(p.parseBitXor, lexer.PIPE)
}

func (p *Parser) parseBitXor() ast.Expression {
	return p.parseBinaryLevel(p.parseBitAnd, lexer.CARET)
}

func (p *Parser) parseBitAnd() ast.Expression {
	return p.parseBinaryLevel(p.parseShift, lexer.AMP)
}

func (p *Parser) parseShift() ast.Expression {
	return p.parseBinaryLevel(p.parseArith, lexer.LSHIFT, lexer.RSHIFT)
}

func (p *Parser) parseArith() ast.Expression {
	return p.parseBinaryLevel(p.parseTerm, lexer.PLUS, lexer.MINUS)
}

func (p *Parser) parseTerm() ast.Expression {
	return p.parseBinaryLevel(p.parseFactor, lexer.STAR, lexer.SLASH, lexer.DOUBLESLASH, lexer.PERCENT, lexer.AT)
}

func (p *Parser) parseFactor() ast.Expression {
	switch p.current().Type {
	case lexer.PLUS, lexer.MINUS, lexer.TILDE:
		tok := p.advance()
		return &ast.UnaryOp{Op: tok.Literal, Operand: p.parseFactor(), Line: tok.Line, Column: tok.Column}
	}
	return p.parsePower()
}

func (p *Parser) parsePower() ast.Expression {
	base := p.parseAwait()
	if p.check(lexer.DOUBLESTAR) {
		p.advance()
		line, col := base.Pos()
		return &ast.BinOp{Left: base, Op: "**", Right: p.parseFactor(), Line: line, Column: col}
	}
	return base
}

func (p *Parser) parseAwait() ast.Expression {
	if p.check(lexer.AWAIT) {
		tok := p.advance()
		return &ast.Await{Value: p.parsePrimary(), Line: tok.Line, Column: tok.Column}
	}
	return p.parsePrimary()
}

// parsePrimary parses an atom followed by any number of trailers
func (p *Parser) parsePrimary() ast.Expression {
	expr := p.parseAtom()
	for {
		switch p.current().Type {
		case lexer.DOT:
			p.advance()
			name := p.expect(lexer.IDENT)
			line, col := expr.Pos()
			expr = &ast.Attribute{Value: expr, Attr: name.Literal, Line: line, Column: col}
		case lexer.LPAREN:
			p.advance()
			args, keywords := p.parseCallArgs()
			p.expect(lexer.RPAREN)
			line, col := expr.Pos()
			expr = &ast.Call{Func: expr, Args: args, Keywords: keywords, Line: line, Column: col}
		case lexer.LBRACKET:
			p.advance()
			index := p.parseSubscriptList()
			p.expect(lexer.RBRACKET)
			line, col := expr.Pos()
			expr = &ast.Subscript{Value: expr, Index: index, Line: line, Column: col}
		default:
			return expr
		}
	}
}

// parseCallArgs parses call arguments up to (not including) the closing paren
func (p *Parser) parseCallArgs() ([]ast.Expression, []*ast.Keyword) {
	var args []ast.Expression
	var keywords []*ast.Keyword
	for !p.check(lexer.RPAREN) && !p.check(lexer.EOF) {
		tok := p.current()
		switch {
		case p.check(lexer.STAR):
			p.advance()
			args = append(args, &ast.Starred{Value: p.parseTest(), Line: tok.Line, Column: tok.Column})
		case p.check(lexer.DOUBLESTAR):
			p.advance()
			keywords = append(keywords, &ast.Keyword{Value: p.parseTest()})
		case p.check(lexer.IDENT) && p.peek().Type == lexer.ASSIGN:
			name := p.advance()
			p.advance()
			keywords = append(keywords, &ast.Keyword{Arg: name.Literal, Value: p.parseTest()})
		default:
			arg := p.parseNamedExpr()
			if p.check(lexer.FOR) || p.check(lexer.ASYNC) {
				arg = &ast.GeneratorExp{Elt: arg, Generators: p.parseComprehensions(), Line: tok.Line, Column: tok.Column}
			}
			args = append(args, arg)
		}
		if !p.match(lexer.COMMA) {
			break
		}
	}
	return args, keywords
}

// parseSubscriptList parses the inside of [...]: one or more slices or
// expressions; several items form a tuple
func (p *Parser) parseSubscriptList() ast.Expression {
	tok := p.current()
	first := p.parseSubscriptItem()
	if !p.check(lexer.COMMA) {
		return first
	}
	elts := []ast.Expression{first}
	for p.match(lexer.COMMA) {
		if p.check(lexer.RBRACKET) {
			break
		}
		elts = append(elts, p.parseSubscriptItem())
	}
	return &ast.TupleExpr{Elts: elts, Line: tok.Line, Column: tok.Column}
}

func (p *Parser) parseSubscriptItem() ast.Expression {
	tok := p.current()
	var lower ast.Expression
	if !p.check(lexer.COLON) {
		lower = p.parseStarOrNamed()
		if !p.check(lexer.COLON) {
			return lower
		}
	}
	slice := &ast.SliceExpr{Lower: lower, Line: tok.Line, Column: tok.Column}
	p.expect(lexer.COLON)
	if p.canStartExpr() {
		slice.Upper = p.parseTest()
	}
	if p.match(lexer.COLON) && p.canStartExpr() {
		slice.Step = p.parseTest()
	}
	return slice
}

// parseComprehensions parses one or more "for <targets> in <expr> (if <expr>)*" clauses
func (p *Parser) parseComprehensions() []*ast.Comprehension {
	var gens []*ast.Comprehension
	for p.check(lexer.FOR) || (p.check(lexer.ASYNC) && p.peek().Type == lexer.FOR) {
		gen := &ast.Comprehension{IsAsync: p.match(lexer.ASYNC)}
		p.expect(lexer.FOR)
		gen.Target = p.parseTargetList()
		p.expect(lexer.IN)
		gen.Iter = p.parseOr()
		for p.match(lexer.IF) {
			gen.Ifs = append(gen.Ifs, p.parseOr())
		}
		gens = append(gens, gen)
	}
	return gens
}

// parseTarget parses a single assignment target (no comparison operators, so
// "in" stays available to for-loops)
func (p *Parser) parseTarget() ast.Expression {
	if p.check(lexer.STAR) {
		tok := p.advance()
		return &ast.Starred{Value: p.parseBitOr(), Line: tok.Line, Column: tok.Column}
	}
	return p.parseBitOr()
}

// parseTargetList parses comma-separated targets, producing a tuple when a
// comma is present
func (p *Parser) parseTargetList() ast.Expression {
	tok := p.current()
	first := p.parseTarget()
	if !p.check(lexer.COMMA) {
		return first
	}
	elts := []ast.Expression{first}
	for p.match(lexer.COMMA) {
		if p.check(lexer.IN) || !p.canStartExpr() {
			break
		}
		elts = append(elts, p.parseTarget())
	}
	return &ast.TupleExpr{Elts: elts, Line: tok.Line, Column: tok.Column}
}

// parseAtom parses names, literals and bracketed displays
func (p *Parser) parseAtom() ast.Expression {
	tok := p.current()

	switch tok.Type {
	case lexer.IDENT:
		p.advance()
		return &ast.Name{ID: tok.Literal, Line: tok.Line, Column: tok.Column}

	case lexer.INT_LIT:
		p.advance()
		return &ast.Constant{Kind: ast.ConstInt, Value: tok.Literal, Line: tok.Line, Column: tok.Column}

	case lexer.FLOAT_LIT:
		p.advance()
		return &ast.Constant{Kind: ast.ConstFloat, Value: tok.Literal, Line: tok.Line, Column: tok.Column}

	case lexer.STRING_LIT, lexer.BYTES_LIT, lexer.FSTRING_LIT:
		return p.parseStrings()

	case lexer.NONE:
		p.advance()
		return &ast.Constant{Kind: ast.ConstNone, Value: "None", Line: tok.Line, Column: tok.Column}

	case lexer.TRUE, lexer.FALSE:
		p.advance()
		return &ast.Constant{Kind: ast.ConstBool, Value: tok.Literal, Line: tok.Line, Column: tok.Column}

	case lexer.ELLIPSIS:
		p.advance()
		return &ast.Constant{Kind: ast.ConstEllipsis, Value: "...", Line: tok.Line, Column: tok.Column}

	case lexer.LPAREN:
		return p.parseParenthesized()

	case lexer.LBRACKET:
		return p.parseListDisplay()

	case lexer.LBRACE:
		return p.parseBraceDisplay()

	case lexer.YIELD:
		return p.parseYield()

	case lexer.LAMBDA:
		return p.parseLambda()
	}

	p.errorf("unexpected %s in expression", tok.Type)
	if !p.check(lexer.NEWLINE) && !p.check(lexer.EOF) && !p.check(lexer.DEDENT) {
		p.advance()
	}
	return &ast.Constant{Kind: ast.ConstNone, Value: "None", Line: tok.Line, Column: tok.Column}
}

// parseStrings parses one or more adjacent string literals, concatenating
// them. Any f-string in the run makes the result an f-string.
func (p *Parser) parseStrings() ast.Expression {
	first := p.current()
	var toks []lexer.Token
	for p.check(lexer.STRING_LIT) || p.check(lexer.BYTES_LIT) || p.check(lexer.FSTRING_LIT) {
		toks = append(toks, p.advance())
	}

	hasF := false
	for _, t := range toks {
		if t.Type == lexer.FSTRING_LIT {
			hasF = true
		}
	}

	if !hasF {
		kind := ast.ConstString
		if first.Type == lexer.BYTES_LIT {
			kind = ast.ConstBytes
		}
		value := ""
		for _, t := range toks {
			if (t.Type == lexer.BYTES_LIT) != (kind == ast.ConstBytes) {
				p.diags.ParseErrorf(t.Line, t.Column, "cannot mix bytes and nonbytes literals")
			}
			value += t.Literal
		}
		return &ast.Constant{Kind: kind, Value: value, Line: first.Line, Column: first.Column}
	}

	fs := &ast.FString{Line: first.Line, Column: first.Column}
	for _, t := range toks {
		if t.Type == lexer.FSTRING_LIT {
			fs.Parts = append(fs.Parts, p.parseFStringBody(t)...)
			continue
		}
		fs.Parts = append(fs.Parts, &ast.Constant{Kind: ast.ConstString, Value: t.Literal, Line: t.Line, Column: t.Column})
	}
	fs.Parts = mergeLiteralParts(fs.Parts)
	return fs
}

// parseParenthesized parses (), (expr), (a, b) and (x for ...)
func (p *Parser) parseParenthesized() ast.Expression {
	tok := p.expect(lexer.LPAREN)
	if p.match(lexer.RPAREN) {
		return &ast.TupleExpr{Line: tok.Line, Column: tok.Column}
	}
	if p.check(lexer.YIELD) {
		y := p.parseYield()
		p.expect(lexer.RPAREN)
		return y
	}

	first := p.parseStarOrNamed()
	if p.check(lexer.FOR) || p.check(lexer.ASYNC) {
		gen := &ast.GeneratorExp{Elt: first, Generators: p.parseComprehensions(), Line: tok.Line, Column: tok.Column}
		p.expect(lexer.RPAREN)
		return gen
	}
	if !p.check(lexer.COMMA) {
		p.expect(lexer.RPAREN)
		return first
	}

	elts := []ast.Expression{first}
	for p.match(lexer.COMMA) {
		if p.check(lexer.RPAREN) {
			break
		}
		elts = append(elts, p.parseStarOrNamed())
	}
	p.expect(lexer.RPAREN)
	return &ast.TupleExpr{Elts: elts, Line: tok.Line, Column: tok.Column}
}

// parseListDisplay parses [a, b] and [x for ...]
func (p *Parser) parseListDisplay() ast.Expression {
	tok := p.expect(lexer.LBRACKET)
	if p.match(lexer.RBRACKET) {
		return &ast.ListExpr{Line: tok.Line, Column: tok.Column}
	}

	first := p.parseStarOrNamed()
	if p.check(lexer.FOR) || p.check(lexer.ASYNC) {
		comp := &ast.ListComp{Elt: first, Generators: p.parseComprehensions(), Line: tok.Line, Column: tok.Column}
		p.expect(lexer.RBRACKET)
		return comp
	}

	elts := []ast.Expression{first}
	for p.match(lexer.COMMA) {
		if p.check(lexer.RBRACKET) {
			break
		}
		elts = append(elts, p.parseStarOrNamed())
	}
	p.expect(lexer.RBRACKET)
	return &ast.ListExpr{Elts: elts, Line: tok.Line, Column: tok.Column}
}

// parseBraceDisplay parses dict and set displays and their comprehensions
func (p *Parser) parseBraceDisplay() ast.Expression {
	tok := p.expect(lexer.LBRACE)
	if p.match(lexer.RBRACE) {
		return &ast.DictExpr{Line: tok.Line, Column: tok.Column}
	}

	if p.check(lexer.DOUBLESTAR) {
		return p.parseDictEntries(tok, nil, nil)
	}

	first := p.parseStarOrNamed()
	if p.match(lexer.COLON) {
		value := p.parseTest()
		if p.check(lexer.FOR) || p.check(lexer.ASYNC) {
			comp := &ast.DictComp{Key: first, Value: value, Generators: p.parseComprehensions(), Line: tok.Line, Column: tok.Column}
			p.expect(lexer.RBRACE)
			return comp
		}
		return p.parseDictEntries(tok, first, value)
	}

	if p.check(lexer.FOR) || p.check(lexer.ASYNC) {
		comp := &ast.SetComp{Elt: first, Generators: p.parseComprehensions(), Line: tok.Line, Column: tok.Column}
		p.expect(lexer.RBRACE)
		return comp
	}

	elts := []ast.Expression{first}
	for p.match(lexer.COMMA) {
		if p.check(lexer.RBRACE) {
			break
		}
		elts = append(elts, p.parseStarOrNamed())
	}
	p.expect(lexer.RBRACE)
	return &ast.SetExpr{Elts: elts, Line: tok.Line, Column: tok.Column}
}

// parseDictEntries parses the remaining "k: v" and "**m" entries of a dict
// display whose first entry (if any) has already been read
func (p *Parser) parseDictEntries(tok lexer.Token, key, value ast.Expression) ast.Expression {
	dict := &ast.DictExpr{Line: tok.Line, Column: tok.Column}
	if value != nil {
		dict.Keys = append(dict.Keys, key)
		dict.Values = append(dict.Values, value)
		if !p.match(lexer.COMMA) {
			p.expect(lexer.RBRACE)
			return dict
		}
	}
	for !p.check(lexer.RBRACE) && !p.check(lexer.EOF) {
		if p.match(lexer.DOUBLESTAR) {
			dict.Keys = append(dict.Keys, nil)
			dict.Values = append(dict.Values, p.parseBitOr())
		} else {
			k := p.parseTest()
			p.expect(lexer.COLON)
			dict.Keys = append(dict.Keys, k)
			dict.Values = append(dict.Values, p.parseTest())
		}
		if !p.match(lexer.COMMA) {
			break
		}
	}
	p.expect(lexer.RBRACE)
	return dict
}
