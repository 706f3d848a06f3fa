package diagnostic

import (
	"fmt"
	"sort"
	"strings"
)

// Severity represents the severity level of a diagnostic message
type Severity int

const (
	Error Severity = iota
	Warning
	Info
)

// String returns the string representation of the severity level
func (s Severity) String() string {
	switch s {
	case Error:
		return "error"
	case Warning:
		return "warning"
	case Info:
		return "info"
	default:
		return "unknown"
	}
}

// Kind classifies a diagnostic by the stage and recovery policy that produced it.
type Kind int

const (
	General Kind = iota
	Parse
	UnsupportedConstruct
	UnresolvedName
	TypeMismatch
	InferenceStuck
)

// String returns the string representation of the kind
func (k Kind) String() string {
	switch k {
	case General:
		return "general"
	case Parse:
		return "parse"
	case UnsupportedConstruct:
		return "unsupported"
	case UnresolvedName:
		return "unresolved-name"
	case TypeMismatch:
		return "type-mismatch"
	case InferenceStuck:
		return "inference-stuck"
	default:
		return "unknown"
	}
}

// Diagnostic represents a single transpiler error, warning, or info message
type Diagnostic struct {
	Severity Severity
	Kind     Kind
	Message  string
	Line     int
	Column   int
	File     string // optional file path (for multi-file runs)
	Hint     string // optional suggestion
	NodeKind string // SRC node kind for UnsupportedConstruct
}

// Diagnostics manages a collection of diagnostic messages
type Diagnostics struct {
	items []Diagnostic
}

// New creates a new empty Diagnostics collection
func New() *Diagnostics {
	return &Diagnostics{
		items: make([]Diagnostic, 0),
	}
}

// Add appends a fully built diagnostic.
func (d *Diagnostics) Add(item Diagnostic) {
	d.items = append(d.items, item)
}

// Errorf adds an error diagnostic with formatted message
func (d *Diagnostics) Errorf(line, col int, format string, args ...interface{}) {
	d.Add(Diagnostic{
		Severity: Error,
		Message:  fmt.Sprintf(format, args...),
		Line:     line,
		Column:   col,
	})
}

// Warningf adds a warning diagnostic with formatted message
func (d *Diagnostics) Warningf(line, col int, format string, args ...interface{}) {
	d.Add(Diagnostic{
		Severity: Warning,
		Message:  fmt.Sprintf(format, args...),
		Line:     line,
		Column:   col,
	})
}

// Infof adds an info diagnostic with formatted message
func (d *Diagnostics) Infof(line, col int, format string, args ...interface{}) {
	d.Add(Diagnostic{
		Severity: Info,
		Message:  fmt.Sprintf(format, args...),
		Line:     line,
		Column:   col,
	})
}

// ParseErrorf adds a parse error. Parse errors are fatal for the module.
func (d *Diagnostics) ParseErrorf(line, col int, format string, args ...interface{}) {
	d.Add(Diagnostic{
		Severity: Error,
		Kind:     Parse,
		Message:  fmt.Sprintf(format, args...),
		Line:     line,
		Column:   col,
	})
}

// Unsupported records a construct that has no lowering. The caller emits a
// placeholder and continues.
func (d *Diagnostics) Unsupported(line, col int, nodeKind, format string, args ...interface{}) {
	d.Add(Diagnostic{
		Severity: Error,
		Kind:     UnsupportedConstruct,
		Message:  fmt.Sprintf(format, args...),
		Line:     line,
		Column:   col,
		NodeKind: nodeKind,
	})
}

// Unresolved records a name that resolved to neither a local, an import, nor a
// registry entry. The name is emitted verbatim.
func (d *Diagnostics) Unresolved(line, col int, name string) {
	d.Add(Diagnostic{
		Severity: Warning,
		Kind:     UnresolvedName,
		Message:  fmt.Sprintf("unresolved name '%s'", name),
		Line:     line,
		Column:   col,
	})
}

// Mismatch records a type mismatch between an expected and a found type.
func (d *Diagnostics) Mismatch(line, col int, expected, found string) {
	d.Add(Diagnostic{
		Severity: Warning,
		Kind:     TypeMismatch,
		Message:  fmt.Sprintf("type mismatch: expected %s, found %s", expected, found),
		Line:     line,
		Column:   col,
	})
}

// Stuck records a parameter whose borrow form could not be inferred; it is
// defaulted to owned.
func (d *Diagnostics) Stuck(line, col int, fn, param string) {
	d.Add(Diagnostic{
		Severity: Warning,
		Kind:     InferenceStuck,
		Message:  fmt.Sprintf("could not infer ownership of '%s' in '%s'; passing by value", param, fn),
		Line:     line,
		Column:   col,
	})
}

// ErrorWithHint adds an error diagnostic with an optional hint
func (d *Diagnostics) ErrorWithHint(line, col int, msg, hint string) {
	d.Add(Diagnostic{
		Severity: Error,
		Message:  msg,
		Line:     line,
		Column:   col,
		Hint:     hint,
	})
}

// WarningWithHint adds a warning diagnostic with an optional hint
func (d *Diagnostics) WarningWithHint(line, col int, msg, hint string) {
	d.Add(Diagnostic{
		Severity: Warning,
		Message:  msg,
		Line:     line,
		Column:   col,
		Hint:     hint,
	})
}

// Merge appends every diagnostic of other.
func (d *Diagnostics) Merge(other *Diagnostics) {
	if other == nil {
		return
	}
	d.items = append(d.items, other.items...)
}

// HasErrors returns true if there are any error-level diagnostics
func (d *Diagnostics) HasErrors() bool {
	for _, item := range d.items {
		if item.Severity == Error {
			return true
		}
	}
	return false
}

// HasParseErrors reports whether any diagnostic is a parse error.
func (d *Diagnostics) HasParseErrors() bool {
	return len(d.OfKind(Parse)) > 0
}

// Errors returns only the error-level diagnostics
func (d *Diagnostics) Errors() []Diagnostic {
	errors := make([]Diagnostic, 0)
	for _, item := range d.items {
		if item.Severity == Error {
			errors = append(errors, item)
		}
	}
	return errors
}

// OfKind returns the diagnostics of the given kind in insertion order.
func (d *Diagnostics) OfKind(k Kind) []Diagnostic {
	var out []Diagnostic
	for _, item := range d.items {
		if item.Kind == k {
			out = append(out, item)
		}
	}
	return out
}

// All returns all diagnostics regardless of severity
func (d *Diagnostics) All() []Diagnostic {
	return d.items
}

// Count returns the total number of diagnostics
func (d *Diagnostics) Count() int {
	return len(d.items)
}

// ErrorCount returns the number of error-level diagnostics
func (d *Diagnostics) ErrorCount() int {
	return len(d.Errors())
}

// WarningCount returns the number of warning-level diagnostics
func (d *Diagnostics) WarningCount() int {
	count := 0
	for _, item := range d.items {
		if item.Severity == Warning {
			count++
		}
	}
	return count
}

// InFile stamps every diagnostic without a file with the given path.
func (d *Diagnostics) InFile(file string) {
	for i := range d.items {
		if d.items[i].File == "" {
			d.items[i].File = file
		}
	}
}

// Clone returns an independent copy of the collection
func (d *Diagnostics) Clone() *Diagnostics {
	out := New()
	out.items = append(out.items, d.items...)
	return out
}

// Sorted returns the diagnostics ordered by position, keeping insertion order
// for equal positions.
func (d *Diagnostics) Sorted() []Diagnostic {
	out := make([]Diagnostic, len(d.items))
	copy(out, d.items)
	sort.SliceStable(out, func(i, j int) bool {
		if out[i].Line != out[j].Line {
			return out[i].Line < out[j].Line
		}
		return out[i].Column < out[j].Column
	})
	return out
}

// Format returns human-readable messages
// Output format:
//
//	error[filename:3:10]: unsupported construct: metaclass
//	  hint: remove the metaclass keyword
//	warning[filename:5:1]: unresolved name 'foo'
func (d *Diagnostics) Format(filename string) string {
	if len(d.items) == 0 {
		return ""
	}

	var builder strings.Builder
	for i, item := range d.items {
		fileToUse := filename
		if item.File != "" {
			fileToUse = item.File
		}

		builder.WriteString(fmt.Sprintf("%s[%s:%d:%d]: %s",
			item.Severity.String(),
			fileToUse,
			item.Line,
			item.Column,
			item.Message,
		))

		if item.Hint != "" {
			builder.WriteString(fmt.Sprintf("\n  hint: %s", item.Hint))
		}

		if i < len(d.items)-1 {
			builder.WriteString("\n")
		}
	}

	return builder.String()
}

// Clear removes all diagnostics from the collection
func (d *Diagnostics) Clear() {
	d.items = make([]Diagnostic, 0)
}
