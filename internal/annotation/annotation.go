// Package annotation reads "# @depyler: key = value" comments. The comments
// directly above a def steer the lowering of that function; keys the
// lowering does not act on are kept so tooling can still inspect them.
package annotation

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/hashicorp/go-set/v2"
	"github.com/pkg/errors"

	"github.com/paiml/depyler-sub010/internal/diagnostic"
)

// Ownership overrides parameter borrow inference
type Ownership int

const (
	OwnershipInferred Ownership = iota
	Owned
	Borrowed
	Shared
)

func (o Ownership) String() string {
	switch o {
	case Owned:
		return "owned"
	case Borrowed:
		return "borrowed"
	case Shared:
		return "shared"
	}
	return "inferred"
}

// StringStrategy overrides the &str/String choice for string parameters
type StringStrategy int

const (
	Conservative StringStrategy = iota
	AlwaysOwned
	ZeroCopy
)

func (s StringStrategy) String() string {
	switch s {
	case AlwaysOwned:
		return "always_owned"
	case ZeroCopy:
		return "zero_copy"
	}
	return "conservative"
}

// Entry is one annotation comment
type Entry struct {
	Line  int
	Key   string
	Value string
}

// Set is the annotations attached to one function
type Set struct {
	Ownership Ownership
	Strings   StringStrategy
	// Other holds recognized keys that do not change the lowering
	Other map[string]string
}

var pattern = regexp.MustCompile(`#\s*@depyler:\s*(\w+)\s*=\s*(.+)`)

var passive = set.From([]string{
	"type_strategy", "safety_level", "fallback", "bounds_checking",
	"optimization_level", "performance_critical", "vectorize", "unroll_loops", "optimization_hint",
	"thread_safety", "interior_mutability", "hash_strategy",
	"panic_behavior", "error_strategy", "global_strategy",
	"termination", "invariant", "verify_bounds",
	"service_type", "migration_strategy", "compatibility_layer", "pattern",
	"custom_attribute",
})

// Match parses one source line as an annotation comment
func Match(line string) (key, value string, ok bool) {
	m := pattern.FindStringSubmatch(line)
	if m == nil {
		return "", "", false
	}
	return m[1], strings.TrimSpace(strings.Trim(strings.TrimSpace(m[2]), `"`)), true
}

// Above collects the annotation comments in the run of comment, blank and
// decorator lines directly above the 1-based line def. Entries come back in
// source order.
func Above(lines []string, def int) []Entry {
	var out []Entry
	for i := def - 2; i >= 0 && i < len(lines); i-- {
		text := strings.TrimSpace(lines[i])
		if text != "" && !strings.HasPrefix(text, "#") && !strings.HasPrefix(text, "@") {
			break
		}
		if key, value, ok := Match(text); ok {
			out = append(out, Entry{Line: i + 1, Key: key, Value: value})
		}
	}
	for i, j := 0, len(out)-1; i < j; i, j = i+1, j-1 {
		out[i], out[j] = out[j], out[i]
	}
	return out
}

// Parse builds the set for entries. Unknown keys and invalid values are
// reported and ignored; a later entry for the same key wins. It returns nil
// when entries is empty.
func Parse(entries []Entry, diags *diagnostic.Diagnostics) *Set {
	if len(entries) == 0 {
		return nil
	}
	s := &Set{Other: map[string]string{}}
	for _, e := range entries {
		switch e.Key {
		case "ownership":
			o, err := parseOwnership(e.Value)
			if err != nil {
				diags.WarningWithHint(e.Line, 0, err.Error(), "use owned, borrowed or shared")
				continue
			}
			s.Ownership = o
		case "string_strategy":
			st, err := parseStrings(e.Value)
			if err != nil {
				diags.WarningWithHint(e.Line, 0, err.Error(), "use conservative, always_owned or zero_copy")
				continue
			}
			s.Strings = st
		default:
			if !passive.Contains(e.Key) {
				diags.WarningWithHint(e.Line, 0, fmt.Sprintf("unknown annotation key %q", e.Key), "the annotation is ignored")
				continue
			}
			s.Other[e.Key] = e.Value
		}
	}
	return s
}

func parseOwnership(v string) (Ownership, error) {
	switch v {
	case "owned":
		return Owned, nil
	case "borrowed":
		return Borrowed, nil
	case "shared":
		return Shared, nil
	}
	return OwnershipInferred, errors.Errorf("invalid value %q for annotation ownership", v)
}

func parseStrings(v string) (StringStrategy, error) {
	switch v {
	case "conservative":
		return Conservative, nil
	case "always_owned":
		return AlwaysOwned, nil
	case "zero_copy":
		return ZeroCopy, nil
	}
	return Conservative, errors.Errorf("invalid value %q for annotation string_strategy", v)
}
