package parser

import (
	"strings"

	"github.com/paiml/depyler-sub010/internal/ast"
	"github.com/paiml/depyler-sub010/internal/lexer"
)

// parseFStringBody splits the raw body of an f-string token into literal
// parts and replacement fields. Each field expression is parsed with
// ParseExpression; errors are reported at the token position.
func (p *Parser) parseFStringBody(tok lexer.Token) []ast.Expression {
	body := tok.Literal
	var parts []ast.Expression
	var lit strings.Builder

	flush := func() {
		if lit.Len() == 0 {
			return
		}
		text := lit.String()
		if !tok.Raw {
			text = lexer.Unescape(text)
		}
		parts = append(parts, &ast.Constant{Kind: ast.ConstString, Value: text, Line: tok.Line, Column: tok.Column})
		lit.Reset()
	}

	for i := 0; i < len(body); i++ {
		c := body[i]
		switch {
		case c == '{' && i+1 < len(body) && body[i+1] == '{':
			lit.WriteByte('{')
			i++
		case c == '}' && i+1 < len(body) && body[i+1] == '}':
			lit.WriteByte('}')
			i++
		case c == '{':
			end := fieldEnd(body, i+1)
			if end < 0 {
				p.diags.ParseErrorf(tok.Line, tok.Column, "f-string: expecting '}'")
				return parts
			}
			flush()
			parts = append(parts, p.parseField(tok, body[i+1:end])...)
			i = end
		case c == '}':
			p.diags.ParseErrorf(tok.Line, tok.Column, "f-string: single '}' is not allowed")
		default:
			lit.WriteByte(c)
		}
	}
	flush()
	return parts
}

// parseField parses the inside of one replacement field: expr[=][!conv][:spec]
func (p *Parser) parseField(tok lexer.Token, field string) []ast.Expression {
	exprText, conv, spec := splitField(field)

	var parts []ast.Expression
	trimmed := strings.TrimRight(exprText, " ")
	if strings.HasSuffix(trimmed, "=") && !strings.HasSuffix(trimmed, "==") &&
		!strings.HasSuffix(trimmed, "!=") && !strings.HasSuffix(trimmed, "<=") && !strings.HasSuffix(trimmed, ">=") {
		// self-documenting field: f"{x=}" renders "x=" followed by repr(x)
		parts = append(parts, &ast.Constant{Kind: ast.ConstString, Value: exprText, Line: tok.Line, Column: tok.Column})
		exprText = strings.TrimSuffix(trimmed, "=")
		if conv == 0 && spec == "" {
			conv = 'r'
		}
	}

	if strings.TrimSpace(exprText) == "" {
		p.diags.ParseErrorf(tok.Line, tok.Column, "f-string: empty expression not allowed")
		return parts
	}

	expr, diags := ParseExpression(exprText)
	for _, d := range diags.All() {
		p.diags.ParseErrorf(tok.Line, tok.Column, "f-string: %s", d.Message)
	}
	parts = append(parts, &ast.FormattedValue{
		Value:      expr,
		Conversion: conv,
		FormatSpec: spec,
		Line:       tok.Line,
		Column:     tok.Column,
	})
	return parts
}

// fieldEnd returns the index of the '}' closing the field that starts at
// start, skipping nested brackets and string literals
func fieldEnd(body string, start int) int {
	depth := 0
	var quote byte
	for i := start; i < len(body); i++ {
		c := body[i]
		if quote != 0 {
			if c == quote {
				quote = 0
			}
			continue
		}
		switch c {
		case '\'', '"':
			quote = c
		case '(', '[', '{':
			depth++
		case ')', ']':
			depth--
		case '}':
			if depth == 0 {
				return i
			}
			depth--
		}
	}
	return -1
}

// splitField separates the expression, conversion and format spec of a field
func splitField(field string) (string, byte, string) {
	depth := 0
	var quote byte
	for i := 0; i < len(field); i++ {
		c := field[i]
		if quote != 0 {
			if c == quote {
				quote = 0
			}
			continue
		}
		switch c {
		case '\'', '"':
			quote = c
		case '(', '[', '{':
			depth++
		case ')', ']', '}':
			depth--
		case '!':
			if depth == 0 && i+1 < len(field) && field[i+1] != '=' {
				conv := field[i+1]
				rest := field[i+2:]
				spec := ""
				if strings.HasPrefix(rest, ":") {
					spec = rest[1:]
				}
				return field[:i], conv, spec
			}
		case ':':
			if depth == 0 {
				return field[:i], 0, field[i+1:]
			}
		}
	}
	return field, 0, ""
}

// mergeLiteralParts joins adjacent string constants
func mergeLiteralParts(parts []ast.Expression) []ast.Expression {
	var out []ast.Expression
	for _, part := range parts {
		if c, ok := part.(*ast.Constant); ok && len(out) > 0 {
			if prev, ok := out[len(out)-1].(*ast.Constant); ok {
				out[len(out)-1] = &ast.Constant{
					Kind:   ast.ConstString,
					Value:  prev.Value + c.Value,
					Line:   prev.Line,
					Column: prev.Column,
				}
				continue
			}
		}
		out = append(out, part)
	}
	return out
}
