package annotation

import (
	"strings"
	"testing"

	"github.com/paiml/depyler-sub010/internal/diagnostic"
)

func TestMatch(t *testing.T) {
	tests := []struct {
		line  string
		key   string
		value string
		ok    bool
	}{
		{"# @depyler: ownership = borrowed", "ownership", "borrowed", true},
		{"#@depyler:string_strategy=always_owned", "string_strategy", "always_owned", true},
		{`    # @depyler: custom_attribute = "inline"`, "custom_attribute", "inline", true},
		{"# depyler: ownership = owned", "", "", false},
		{"x = 1", "", "", false},
	}
	for _, tt := range tests {
		t.Run(tt.line, func(t *testing.T) {
			key, value, ok := Match(tt.line)
			if ok != tt.ok || key != tt.key || value != tt.value {
				t.Errorf("Match(%q) = %q, %q, %v; want %q, %q, %v", tt.line, key, value, ok, tt.key, tt.value, tt.ok)
			}
		})
	}
}

func TestAbove(t *testing.T) {
	src := strings.Join([]string{
		"x = 1",
		"# @depyler: ownership = owned",
		"# plain comment",
		"",
		"# @depyler: string_strategy = zero_copy",
		"@staticmethod",
		"def f(s):",
	}, "\n")
	entries := Above(strings.Split(src, "\n"), 7)
	if len(entries) != 2 {
		t.Fatalf("expected 2 entries, got %d: %v", len(entries), entries)
	}
	if entries[0].Key != "ownership" || entries[0].Line != 2 {
		t.Errorf("first entry = %+v", entries[0])
	}
	if entries[1].Key != "string_strategy" || entries[1].Line != 5 {
		t.Errorf("second entry = %+v", entries[1])
	}
}

func TestAboveStopsAtCode(t *testing.T) {
	lines := []string{
		"# @depyler: ownership = owned",
		"def g():",
		"    pass",
		"def f():",
	}
	if entries := Above(lines, 4); len(entries) != 0 {
		t.Errorf("annotation of another function leaked: %v", entries)
	}
}

func TestParse(t *testing.T) {
	diags := diagnostic.New()
	s := Parse([]Entry{
		{Line: 1, Key: "ownership", Value: "shared"},
		{Line: 2, Key: "string_strategy", Value: "always_owned"},
		{Line: 3, Key: "optimization_level", Value: "aggressive"},
	}, diags)
	if s.Ownership != Shared {
		t.Errorf("expected shared ownership, got %s", s.Ownership)
	}
	if s.Strings != AlwaysOwned {
		t.Errorf("expected always_owned, got %s", s.Strings)
	}
	if s.Other["optimization_level"] != "aggressive" {
		t.Errorf("passive key not kept: %v", s.Other)
	}
	if diags.WarningCount() != 0 {
		t.Errorf("unexpected warnings: %v", diags.All())
	}
}

func TestParseWarnings(t *testing.T) {
	tests := []struct {
		name  string
		entry Entry
		want  string
	}{
		{"unknown key", Entry{Line: 4, Key: "speed", Value: "max"}, "unknown annotation key"},
		{"invalid ownership", Entry{Line: 4, Key: "ownership", Value: "leased"}, "invalid value"},
		{"invalid strategy", Entry{Line: 4, Key: "string_strategy", Value: "cow"}, "invalid value"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			diags := diagnostic.New()
			s := Parse([]Entry{tt.entry}, diags)
			if s.Ownership != OwnershipInferred || s.Strings != Conservative {
				t.Errorf("rejected entry changed the set: %+v", s)
			}
			all := diags.All()
			if len(all) != 1 || !strings.Contains(all[0].Message, tt.want) || all[0].Line != 4 {
				t.Errorf("expected one warning on line 4 containing %q, got %v", tt.want, all)
			}
		})
	}
}

func TestParseEmpty(t *testing.T) {
	if s := Parse(nil, diagnostic.New()); s != nil {
		t.Errorf("expected nil set, got %+v", s)
	}
}
