package rustast

import (
	"errors"
	"fmt"
	"strings"
	"unicode"
)

// ErrInvalidIdent is returned for names that cannot become Rust identifiers
var ErrInvalidIdent = errors.New("invalid identifier")

var keywords = map[string]bool{
	"as": true, "break": true, "const": true, "continue": true, "else": true,
	"enum": true, "extern": true, "false": true, "fn": true, "for": true,
	"if": true, "impl": true, "in": true, "let": true, "loop": true,
	"match": true, "mod": true, "move": true, "mut": true, "pub": true,
	"ref": true, "return": true, "static": true, "struct": true, "trait": true,
	"true": true, "type": true, "unsafe": true, "use": true, "where": true,
	"while": true, "async": true, "await": true, "dyn": true, "abstract": true,
	"become": true, "box": true, "do": true, "final": true, "macro": true,
	"override": true, "priv": true, "typeof": true, "unsized": true,
	"virtual": true, "yield": true, "try": true, "gen": true,
}

// keywords that cannot be written as raw identifiers
var reserved = map[string]bool{
	"self": true, "Self": true, "super": true, "crate": true,
}

// IsKeyword reports whether name is a Rust keyword
func IsKeyword(name string) bool {
	return keywords[name] || reserved[name]
}

// ParseIdent validates a source name as a Rust identifier and escapes it:
// keywords become raw identifiers (r#type), names that cannot be raw get a
// trailing underscore (self_)
func ParseIdent(name string) (string, error) {
	if name == "" {
		return "", fmt.Errorf("%w: empty name", ErrInvalidIdent)
	}
	for i, r := range name {
		switch {
		case r == '_':
		case unicode.IsLetter(r):
		case i > 0 && (unicode.IsDigit(r) || unicode.Is(unicode.Mn, r) || unicode.Is(unicode.Mc, r)):
		default:
			return "", fmt.Errorf("%w: %q", ErrInvalidIdent, name)
		}
	}
	switch {
	case reserved[name]:
		return name + "_", nil
	case keywords[name]:
		return "r#" + name, nil
	}
	return name, nil
}

// SanitizeIdent forces name into a valid identifier. It never fails; the
// generator uses it after reporting a ParseIdent error.
func SanitizeIdent(name string) string {
	var sb strings.Builder
	for i, r := range name {
		switch {
		case r == '_' || unicode.IsLetter(r):
			sb.WriteRune(r)
		case unicode.IsDigit(r):
			if i == 0 {
				sb.WriteByte('_')
			}
			sb.WriteRune(r)
		default:
			sb.WriteByte('_')
		}
	}
	if sb.Len() == 0 {
		return "_unnamed"
	}
	out, err := ParseIdent(sb.String())
	if err != nil {
		return "_unnamed"
	}
	return out
}

// Quote renders s as a Rust string literal
func Quote(s string) string {
	var sb strings.Builder
	sb.WriteByte('"')
	for _, r := range s {
		switch r {
		case '\\':
			sb.WriteString(`\\`)
		case '"':
			sb.WriteString(`\"`)
		case '\n':
			sb.WriteString(`\n`)
		case '\r':
			sb.WriteString(`\r`)
		case '\t':
			sb.WriteString(`\t`)
		case 0:
			sb.WriteString(`\0`)
		default:
			if r < 0x20 || r == 0x7f {
				fmt.Fprintf(&sb, `\u{%x}`, r)
			} else {
				sb.WriteRune(r)
			}
		}
	}
	sb.WriteByte('"')
	return sb.String()
}

// EscapeFormat doubles the braces of literal text placed in a format string
func EscapeFormat(s string) string {
	s = strings.ReplaceAll(s, "{", "{{")
	return strings.ReplaceAll(s, "}", "}}")
}

// SnakeCase converts CamelCase to snake_case
func SnakeCase(name string) string {
	var sb strings.Builder
	runes := []rune(name)
	for i, r := range runes {
		if unicode.IsUpper(r) {
			if i > 0 && (unicode.IsLower(runes[i-1]) || (i+1 < len(runes) && unicode.IsLower(runes[i+1]) && runes[i-1] != '_')) {
				sb.WriteByte('_')
			}
			sb.WriteRune(unicode.ToLower(r))
			continue
		}
		sb.WriteRune(r)
	}
	return sb.String()
}

// PascalCase converts snake_case or kebab-case to PascalCase
func PascalCase(name string) string {
	var sb strings.Builder
	upper := true
	for _, r := range name {
		if r == '_' || r == '-' || r == ' ' {
			upper = true
			continue
		}
		if upper {
			sb.WriteRune(unicode.ToUpper(r))
			upper = false
			continue
		}
		sb.WriteRune(r)
	}
	return sb.String()
}
