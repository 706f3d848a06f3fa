package parser

import (
	"strings"

	"github.com/paiml/depyler-sub010/internal/ast"
	"github.com/paiml/depyler-sub010/internal/diagnostic"
	"github.com/paiml/depyler-sub010/internal/lexer"
)

// New creates a new parser. Illegal tokens produced by the lexer are reported
// as parse errors and dropped from the stream.
func New(source string) *Parser {
	l := lexer.New(source)
	diags := diagnostic.New()
	var tokens []lexer.Token
	for _, tok := range l.Tokenize() {
		if tok.Type == lexer.ILLEGAL {
			if len(tok.Literal) == 1 {
				diags.ParseErrorf(tok.Line, tok.Column, "unexpected character %q", tok.Literal)
			} else {
				diags.ParseErrorf(tok.Line, tok.Column, "%s", tok.Literal)
			}
			continue
		}
		tokens = append(tokens, tok)
	}
	return &Parser{
		tokens: tokens,
		pos:    0,
		diags:  diags,
	}
}

// Diagnostics returns the parser's diagnostics
func (p *Parser) Diagnostics() *diagnostic.Diagnostics {
	return p.diags
}

// Parse parses the token stream into a Module AST
func (p *Parser) Parse() *ast.Module {
	mod := &ast.Module{}
	for !p.check(lexer.EOF) {
		if p.match(lexer.NEWLINE) {
			continue
		}
		if p.check(lexer.INDENT) || p.check(lexer.DEDENT) {
			if p.check(lexer.INDENT) {
				p.errorf("unexpected indent")
			}
			p.advance()
			continue
		}
		startPos := p.pos
		mod.Body = append(mod.Body, p.parseStatement()...)
		if p.pos == startPos {
			p.advance() // ensure forward progress to avoid infinite loop
		}
	}
	return mod
}

// ParseExpression parses a standalone expression, as found inside f-string
// replacement fields.
func ParseExpression(src string) (ast.Expression, *diagnostic.Diagnostics) {
	p := New(strings.TrimSpace(src))
	expr := p.parseStarExprs()
	p.match(lexer.NEWLINE)
	if !p.check(lexer.EOF) {
		p.errorf("unexpected %s in expression", p.current().Type)
	}
	return expr, p.diags
}

// parseStatement parses one statement line. Simple statements separated by
// ';' yield several statements.
func (p *Parser) parseStatement() []ast.Statement {
	switch p.current().Type {
	case lexer.DEF:
		return []ast.Statement{p.parseFunctionDef(nil, false)}
	case lexer.CLASS:
		return []ast.Statement{p.parseClassDef(nil)}
	case lexer.AT:
		return []ast.Statement{p.parseDecorated()}
	case lexer.ASYNC:
		return []ast.Statement{p.parseAsync(nil)}
	case lexer.IF:
		return []ast.Statement{p.parseIfStmt()}
	case lexer.WHILE:
		return []ast.Statement{p.parseWhileStmt()}
	case lexer.FOR:
		return []ast.Statement{p.parseForStmt(false)}
	case lexer.TRY:
		return []ast.Statement{p.parseTryStmt()}
	case lexer.WITH:
		return []ast.Statement{p.parseWithStmt(false)}
	}
	if p.checkSoft("match") && p.looksLikeMatch() {
		return []ast.Statement{p.parseMatchStmt()}
	}
	return p.parseSimpleStatements()
}

// parseSimpleStatements parses: simple_stmt (';' simple_stmt)* NEWLINE
func (p *Parser) parseSimpleStatements() []ast.Statement {
	errs := p.diags.ErrorCount()
	var stmts []ast.Statement
	for {
		stmts = append(stmts, p.parseSimpleStatement())
		if !p.match(lexer.SEMICOLON) {
			break
		}
		if p.check(lexer.NEWLINE) || p.check(lexer.EOF) {
			break
		}
	}
	if p.diags.ErrorCount() > errs {
		p.synchronize()
		return stmts
	}
	if !p.check(lexer.EOF) && !p.check(lexer.DEDENT) {
		if !p.check(lexer.NEWLINE) {
			p.errorf("expected NEWLINE, got %s", p.current().Type)
			p.synchronize()
			return stmts
		}
		p.advance()
	}
	return stmts
}

func (p *Parser) parseSimpleStatement() ast.Statement {
	tok := p.current()
	switch tok.Type {
	case lexer.RETURN:
		p.advance()
		var value ast.Expression
		if p.canStartExpr() {
			value = p.parseStarExprs()
		}
		return &ast.ReturnStmt{Value: value, Line: tok.Line, Column: tok.Column}
	case lexer.PASS:
		p.advance()
		return &ast.PassStmt{Line: tok.Line, Column: tok.Column}
	case lexer.BREAK:
		p.advance()
		return &ast.BreakStmt{Line: tok.Line, Column: tok.Column}
	case lexer.CONTINUE:
		p.advance()
		return &ast.ContinueStmt{Line: tok.Line, Column: tok.Column}
	case lexer.RAISE:
		return p.parseRaiseStmt()
	case lexer.IMPORT:
		return p.parseImportStmt()
	case lexer.FROM:
		return p.parseImportFromStmt()
	case lexer.GLOBAL:
		p.advance()
		return &ast.GlobalStmt{Names: p.parseNameList(), Line: tok.Line, Column: tok.Column}
	case lexer.NONLOCAL:
		p.advance()
		return &ast.NonlocalStmt{Names: p.parseNameList(), Line: tok.Line, Column: tok.Column}
	case lexer.DEL:
		p.advance()
		targets := []ast.Expression{p.parseTarget()}
		for p.match(lexer.COMMA) {
			if !p.canStartExpr() {
				break
			}
			targets = append(targets, p.parseTarget())
		}
		return &ast.DeleteStmt{Targets: targets, Line: tok.Line, Column: tok.Column}
	case lexer.ASSERT:
		p.advance()
		stmt := &ast.AssertStmt{Test: p.parseTest(), Line: tok.Line, Column: tok.Column}
		if p.match(lexer.COMMA) {
			stmt.Msg = p.parseTest()
		}
		return stmt
	}
	return p.parseExprStmtOrAssign()
}

// parseExprStmtOrAssign parses an expression statement, an assignment chain,
// an annotated assignment or an augmented assignment
func (p *Parser) parseExprStmtOrAssign() ast.Statement {
	tok := p.current()
	expr := p.parseStarExprsOrYield()

	switch {
	case p.check(lexer.COLON):
		p.advance()
		stmt := &ast.AnnAssignStmt{
			Target:     expr,
			Annotation: p.parseTest(),
			Line:       tok.Line,
			Column:     tok.Column,
		}
		if p.match(lexer.ASSIGN) {
			stmt.Value = p.parseStarExprsOrYield()
		}
		return stmt

	case p.check(lexer.AUGASSIGN):
		opTok := p.advance()
		return &ast.AugAssignStmt{
			Target: expr,
			Op:     strings.TrimSuffix(opTok.Literal, "="),
			Value:  p.parseStarExprsOrYield(),
			Line:   tok.Line,
			Column: tok.Column,
		}

	case p.check(lexer.ASSIGN):
		targets := []ast.Expression{expr}
		var value ast.Expression
		for p.match(lexer.ASSIGN) {
			value = p.parseStarExprsOrYield()
			targets = append(targets, value)
		}
		return &ast.AssignStmt{
			Targets: targets[:len(targets)-1],
			Value:   value,
			Line:    tok.Line,
			Column:  tok.Column,
		}
	}

	return &ast.ExprStmt{Value: expr, Line: tok.Line, Column: tok.Column}
}

// parseBlock parses: ':' (simple_stmts | NEWLINE INDENT stmt+ DEDENT)
func (p *Parser) parseBlock() []ast.Statement {
	p.expect(lexer.COLON)
	if !p.check(lexer.NEWLINE) {
		return p.parseSimpleStatements()
	}
	p.advance()
	if !p.check(lexer.INDENT) {
		p.errorf("expected an indented block")
		return nil
	}
	p.advance()

	var body []ast.Statement
	for !p.check(lexer.DEDENT) && !p.check(lexer.EOF) {
		if p.match(lexer.NEWLINE) {
			continue
		}
		if p.check(lexer.INDENT) {
			p.errorf("unexpected indent")
			p.advance()
			continue
		}
		startPos := p.pos
		body = append(body, p.parseStatement()...)
		if p.pos == startPos {
			p.advance()
		}
	}
	p.match(lexer.DEDENT)
	return body
}

// parseDecorated parses: ('@' expr NEWLINE)+ (def | class | async def)
func (p *Parser) parseDecorated() ast.Statement {
	var decorators []ast.Expression
	for p.match(lexer.AT) {
		decorators = append(decorators, p.parseNamedExpr())
		p.expect(lexer.NEWLINE)
	}
	switch p.current().Type {
	case lexer.DEF:
		return p.parseFunctionDef(decorators, false)
	case lexer.CLASS:
		return p.parseClassDef(decorators)
	case lexer.ASYNC:
		return p.parseAsync(decorators)
	}
	tok := p.current()
	p.errorf("expected def or class after decorator, got %s", tok.Type)
	p.synchronize()
	return &ast.PassStmt{Line: tok.Line, Column: tok.Column}
}

// parseAsync parses: async (def | for | with)
func (p *Parser) parseAsync(decorators []ast.Expression) ast.Statement {
	tok := p.expect(lexer.ASYNC)
	switch p.current().Type {
	case lexer.DEF:
		fn := p.parseFunctionDef(decorators, true)
		fn.Line, fn.Column = tok.Line, tok.Column
		return fn
	case lexer.FOR:
		return p.parseForStmt(true)
	case lexer.WITH:
		return p.parseWithStmt(true)
	}
	p.errorf("expected def, for or with after async, got %s", p.current().Type)
	p.synchronize()
	return &ast.PassStmt{Line: tok.Line, Column: tok.Column}
}

// parseFunctionDef parses: def <name>(<params>) [-> <expr>]: <block>
func (p *Parser) parseFunctionDef(decorators []ast.Expression, isAsync bool) *ast.FunctionDef {
	tok := p.expect(lexer.DEF)
	name := p.expect(lexer.IDENT)
	p.expect(lexer.LPAREN)
	params := p.parseParams(lexer.RPAREN, true)
	p.expect(lexer.RPAREN)

	var returns ast.Expression
	if p.match(lexer.ARROW) {
		returns = p.parseTest()
	}

	body := p.parseBlock()

	return &ast.FunctionDef{
		Name:       name.Literal,
		Params:     params,
		Returns:    returns,
		Body:       body,
		Decorators: decorators,
		IsAsync:    isAsync,
		Line:       tok.Line,
		Column:     tok.Column,
	}
}

// parseParams parses a parameter list up to (not including) end. Annotations
// are only accepted for def parameters, not lambda parameters.
func (p *Parser) parseParams(end lexer.TokenType, annotations bool) []*ast.Param {
	var params []*ast.Param
	kwOnly := false
	for !p.check(end) && !p.check(lexer.EOF) {
		tok := p.current()
		switch {
		case p.match(lexer.SLASH):
			// positional-only marker
		case p.check(lexer.STAR) && (p.peek().Type == lexer.COMMA || p.peek().Type == end):
			p.advance()
			kwOnly = true
		case p.match(lexer.STAR):
			param := p.parseParam(annotations, false)
			param.Kind = ast.ParamVarargs
			param.Line, param.Column = tok.Line, tok.Column
			params = append(params, param)
			kwOnly = true
		case p.match(lexer.DOUBLESTAR):
			param := p.parseParam(annotations, false)
			param.Kind = ast.ParamKwargs
			param.Line, param.Column = tok.Line, tok.Column
			params = append(params, param)
		default:
			param := p.parseParam(annotations, true)
			if kwOnly {
				param.Kind = ast.ParamKwOnly
			}
			params = append(params, param)
		}
		if !p.match(lexer.COMMA) {
			break
		}
	}
	return params
}

func (p *Parser) parseParam(annotations, defaults bool) *ast.Param {
	name := p.expect(lexer.IDENT)
	param := &ast.Param{Name: name.Literal, Line: name.Line, Column: name.Column}
	if annotations && p.match(lexer.COLON) {
		param.Annotation = p.parseTest()
	}
	if defaults && p.match(lexer.ASSIGN) {
		param.Default = p.parseTest()
	}
	return param
}

// parseClassDef parses: class <name> [(bases)]: <block>
func (p *Parser) parseClassDef(decorators []ast.Expression) *ast.ClassDef {
	tok := p.expect(lexer.CLASS)
	name := p.expect(lexer.IDENT)

	cls := &ast.ClassDef{
		Name:       name.Literal,
		Decorators: decorators,
		Line:       tok.Line,
		Column:     tok.Column,
	}
	if p.match(lexer.LPAREN) {
		cls.Bases, cls.Keywords = p.parseCallArgs()
		p.expect(lexer.RPAREN)
	}
	cls.Body = p.parseBlock()
	return cls
}

// parseIfStmt parses: if <expr>: <block> (elif <expr>: <block>)* [else: <block>]
func (p *Parser) parseIfStmt() *ast.IfStmt {
	tok := p.advance() // if or elif
	cond := p.parseNamedExpr()
	body := p.parseBlock()

	stmt := &ast.IfStmt{Cond: cond, Body: body, Line: tok.Line, Column: tok.Column}
	switch {
	case p.check(lexer.ELIF):
		stmt.Orelse = []ast.Statement{p.parseIfStmt()}
	case p.match(lexer.ELSE):
		stmt.Orelse = p.parseBlock()
	}
	return stmt
}

// parseWhileStmt parses: while <expr>: <block> [else: <block>]
func (p *Parser) parseWhileStmt() *ast.WhileStmt {
	tok := p.expect(lexer.WHILE)
	cond := p.parseNamedExpr()
	stmt := &ast.WhileStmt{Cond: cond, Body: p.parseBlock(), Line: tok.Line, Column: tok.Column}
	if p.match(lexer.ELSE) {
		stmt.Orelse = p.parseBlock()
	}
	return stmt
}

// parseForStmt parses: for <targets> in <expr>: <block> [else: <block>]
func (p *Parser) parseForStmt(isAsync bool) *ast.ForStmt {
	tok := p.expect(lexer.FOR)
	target := p.parseTargetList()
	p.expect(lexer.IN)
	iter := p.parseStarExprs()

	stmt := &ast.ForStmt{
		Target:  target,
		Iter:    iter,
		Body:    p.parseBlock(),
		IsAsync: isAsync,
		Line:    tok.Line,
		Column:  tok.Column,
	}
	if p.match(lexer.ELSE) {
		stmt.Orelse = p.parseBlock()
	}
	return stmt
}

// parseTryStmt parses: try: <block> (except [<expr> [as <name>]]: <block>)* [else: <block>] [finally: <block>]
func (p *Parser) parseTryStmt() *ast.TryStmt {
	tok := p.expect(lexer.TRY)
	stmt := &ast.TryStmt{Body: p.parseBlock(), Line: tok.Line, Column: tok.Column}

	for p.check(lexer.EXCEPT) {
		htok := p.advance()
		handler := &ast.ExceptHandler{Line: htok.Line, Column: htok.Column}
		if !p.check(lexer.COLON) {
			handler.Type = p.parseTest()
			if p.match(lexer.AS) {
				handler.Name = p.expect(lexer.IDENT).Literal
			}
		}
		handler.Body = p.parseBlock()
		stmt.Handlers = append(stmt.Handlers, handler)
	}
	if p.match(lexer.ELSE) {
		stmt.Orelse = p.parseBlock()
	}
	if p.match(lexer.FINALLY) {
		stmt.Finalbody = p.parseBlock()
	}
	if len(stmt.Handlers) == 0 && stmt.Finalbody == nil {
		p.diags.ParseErrorf(tok.Line, tok.Column, "try statement needs at least one except or finally clause")
	}
	return stmt
}

// parseWithStmt parses: with <expr> [as <target>] (, ...)*: <block>
func (p *Parser) parseWithStmt(isAsync bool) *ast.WithStmt {
	tok := p.expect(lexer.WITH)
	stmt := &ast.WithStmt{IsAsync: isAsync, Line: tok.Line, Column: tok.Column}
	for {
		item := &ast.WithItem{Context: p.parseTest()}
		if p.match(lexer.AS) {
			item.Target = p.parseTarget()
		}
		stmt.Items = append(stmt.Items, item)
		if !p.match(lexer.COMMA) {
			break
		}
	}
	stmt.Body = p.parseBlock()
	return stmt
}

// parseRaiseStmt parses: raise [<expr> [from <expr>]]
func (p *Parser) parseRaiseStmt() *ast.RaiseStmt {
	tok := p.expect(lexer.RAISE)
	stmt := &ast.RaiseStmt{Line: tok.Line, Column: tok.Column}
	if p.canStartExpr() {
		stmt.Exc = p.parseTest()
		if p.match(lexer.FROM) {
			stmt.Cause = p.parseTest()
		}
	}
	return stmt
}

// parseImportStmt parses: import a.b [as c], ...
func (p *Parser) parseImportStmt() *ast.ImportStmt {
	tok := p.expect(lexer.IMPORT)
	stmt := &ast.ImportStmt{Line: tok.Line, Column: tok.Column}
	for {
		alias := &ast.Alias{Name: p.parseDottedName()}
		if p.match(lexer.AS) {
			alias.AsName = p.expect(lexer.IDENT).Literal
		}
		stmt.Names = append(stmt.Names, alias)
		if !p.match(lexer.COMMA) {
			break
		}
	}
	return stmt
}

// parseImportFromStmt parses: from [.]*module import (* | names | (names))
func (p *Parser) parseImportFromStmt() *ast.ImportFromStmt {
	tok := p.expect(lexer.FROM)
	stmt := &ast.ImportFromStmt{Line: tok.Line, Column: tok.Column}
	for {
		if p.match(lexer.DOT) {
			stmt.Level++
		} else if p.match(lexer.ELLIPSIS) {
			stmt.Level += 3
		} else {
			break
		}
	}
	if !p.check(lexer.IMPORT) {
		stmt.Module = p.parseDottedName()
	}
	p.expect(lexer.IMPORT)

	if p.match(lexer.STAR) {
		stmt.Names = []*ast.Alias{{Name: "*"}}
		return stmt
	}
	paren := p.match(lexer.LPAREN)
	for p.check(lexer.IDENT) {
		alias := &ast.Alias{Name: p.advance().Literal}
		if p.match(lexer.AS) {
			alias.AsName = p.expect(lexer.IDENT).Literal
		}
		stmt.Names = append(stmt.Names, alias)
		if !p.match(lexer.COMMA) {
			break
		}
	}
	if paren {
		p.expect(lexer.RPAREN)
	}
	if len(stmt.Names) == 0 {
		p.errorf("expected imported name, got %s", p.current().Type)
	}
	return stmt
}

func (p *Parser) parseDottedName() string {
	parts := []string{p.expect(lexer.IDENT).Literal}
	for p.check(lexer.DOT) && p.peek().Type == lexer.IDENT {
		p.advance()
		parts = append(parts, p.advance().Literal)
	}
	return strings.Join(parts, ".")
}

func (p *Parser) parseNameList() []string {
	names := []string{p.expect(lexer.IDENT).Literal}
	for p.match(lexer.COMMA) {
		names = append(names, p.expect(lexer.IDENT).Literal)
	}
	return names
}

// looksLikeMatch reports whether the soft keyword "match" at the current
// position starts a match statement: the logical line must end in ':' and the
// keyword must not be used as a plain name.
func (p *Parser) looksLikeMatch() bool {
	switch p.peek().Type {
	case lexer.ASSIGN, lexer.AUGASSIGN, lexer.DOT, lexer.COLON, lexer.NEWLINE,
		lexer.EOF, lexer.COMMA, lexer.RPAREN, lexer.EQ, lexer.WALRUS:
		return false
	}
	depth := 0
	for i := p.pos + 1; i < len(p.tokens); i++ {
		switch p.tokens[i].Type {
		case lexer.LPAREN, lexer.LBRACKET, lexer.LBRACE:
			depth++
		case lexer.RPAREN, lexer.RBRACKET, lexer.RBRACE:
			depth--
		case lexer.NEWLINE, lexer.EOF:
			return i > 0 && p.tokens[i-1].Type == lexer.COLON && depth == 0
		}
	}
	return false
}

// parseMatchStmt parses: match <expr>: NEWLINE INDENT (case <pattern> [if <expr>]: <block>)+ DEDENT
func (p *Parser) parseMatchStmt() *ast.MatchStmt {
	tok := p.advance() // match
	stmt := &ast.MatchStmt{Subject: p.parseStarExprs(), Line: tok.Line, Column: tok.Column}
	p.expect(lexer.COLON)
	p.expect(lexer.NEWLINE)
	p.expect(lexer.INDENT)

	for p.checkSoft("case") {
		ctok := p.advance()
		c := &ast.MatchCase{Pattern: p.parsePattern(), Line: ctok.Line, Column: ctok.Column}
		if p.match(lexer.IF) {
			c.Guard = p.parseNamedExpr()
		}
		c.Body = p.parseBlock()
		stmt.Cases = append(stmt.Cases, c)
		for p.match(lexer.NEWLINE) {
		}
	}
	if len(stmt.Cases) == 0 {
		p.errorf("expected case clause, got %s", p.current().Type)
	}
	if !p.match(lexer.DEDENT) && !p.check(lexer.EOF) {
		p.errorf("expected case clause, got %s", p.current().Type)
		p.synchronize()
	}
	return stmt
}

// parsePattern parses an or-pattern, optionally followed by "as name"
func (p *Parser) parsePattern() ast.Pattern {
	tok := p.current()
	alts := []ast.Pattern{p.parseClosedPattern()}
	for p.match(lexer.PIPE) {
		alts = append(alts, p.parseClosedPattern())
	}
	var pat ast.Pattern = alts[0]
	if len(alts) > 1 {
		pat = &ast.OrPattern{Alternatives: alts, Line: tok.Line, Column: tok.Column}
	}
	if p.match(lexer.AS) {
		p.expect(lexer.IDENT)
		return &ast.OtherPattern{Kind: "as", Line: tok.Line, Column: tok.Column}
	}
	return pat
}

func (p *Parser) parseClosedPattern() ast.Pattern {
	tok := p.current()
	switch tok.Type {
	case lexer.INT_LIT, lexer.FLOAT_LIT, lexer.STRING_LIT, lexer.BYTES_LIT,
		lexer.NONE, lexer.TRUE, lexer.FALSE, lexer.MINUS:
		return &ast.ValuePattern{Value: p.parseArith(), Line: tok.Line, Column: tok.Column}
	case lexer.IDENT:
		if p.peek().Type == lexer.DOT {
			value := p.parsePrimary()
			if _, ok := value.(*ast.Call); ok {
				return &ast.OtherPattern{Kind: "class", Line: tok.Line, Column: tok.Column}
			}
			return &ast.ValuePattern{Value: value, Line: tok.Line, Column: tok.Column}
		}
		if p.peek().Type == lexer.LPAREN {
			p.advance()
			p.skipBalanced()
			return &ast.OtherPattern{Kind: "class", Line: tok.Line, Column: tok.Column}
		}
		p.advance()
		return &ast.CapturePattern{Name: tok.Literal, Line: tok.Line, Column: tok.Column}
	case lexer.LPAREN, lexer.LBRACKET:
		p.skipBalanced()
		return &ast.OtherPattern{Kind: "sequence", Line: tok.Line, Column: tok.Column}
	case lexer.LBRACE:
		p.skipBalanced()
		return &ast.OtherPattern{Kind: "mapping", Line: tok.Line, Column: tok.Column}
	case lexer.STAR:
		p.advance()
		p.expect(lexer.IDENT)
		return &ast.OtherPattern{Kind: "star", Line: tok.Line, Column: tok.Column}
	}
	p.errorf("unexpected %s in pattern", tok.Type)
	p.advance()
	return &ast.OtherPattern{Kind: "invalid", Line: tok.Line, Column: tok.Column}
}

// skipBalanced consumes a bracketed token group starting at the current
// opening bracket
func (p *Parser) skipBalanced() {
	depth := 0
	for !p.check(lexer.EOF) {
		switch p.advance().Type {
		case lexer.LPAREN, lexer.LBRACKET, lexer.LBRACE:
			depth++
		case lexer.RPAREN, lexer.RBRACKET, lexer.RBRACE:
			depth--
			if depth <= 0 {
				return
			}
		}
	}
}
