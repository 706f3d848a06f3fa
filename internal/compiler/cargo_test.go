package compiler

import (
	"strings"
	"testing"
)

func TestDependencies(t *testing.T) {
	tests := []struct {
		name   string
		crates []string
		pins   map[string]string
		want   []string // name@requirement in order
	}{
		{"registry defaults", []string{"regex", "clap"}, nil, []string{"clap@4.5", "regex@1.10"}},
		{"duplicate names", []string{"regex", "regex"}, nil, []string{"regex@1.10"}},
		{"higher pin wins", []string{"regex"}, map[string]string{"regex": "1.11"}, []string{"regex@1.11"}},
		{"lower pin loses", []string{"regex"}, map[string]string{"regex": "1.2"}, []string{"regex@1.10"}},
		{"unused pin ignored", []string{"serde_json"}, map[string]string{"rand": "0.9"}, []string{"serde_json@1.0"}},
		{"none", nil, nil, nil},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			deps, err := Dependencies(tt.crates, tt.pins)
			if err != nil {
				t.Fatalf("Dependencies: %v", err)
			}
			var got []string
			for _, d := range deps {
				got = append(got, d.Name+"@"+d.Requirement)
			}
			if strings.Join(got, ",") != strings.Join(tt.want, ",") {
				t.Errorf("got %v, want %v", got, tt.want)
			}
		})
	}
}

func TestDependenciesErrors(t *testing.T) {
	if _, err := Dependencies([]string{"tokio"}, nil); err == nil || !strings.Contains(err.Error(), "unknown crate") {
		t.Errorf("expected unknown crate error, got %v", err)
	}
	_, err := Dependencies([]string{"regex"}, map[string]string{"regex": "banana"})
	if err == nil || !strings.Contains(err.Error(), "invalid requirement") {
		t.Errorf("expected invalid requirement error, got %v", err)
	}
}

func TestLowerBound(t *testing.T) {
	tests := []struct {
		req  string
		want string
	}{
		{"1.10", "1.10.0"},
		{"^0.8", "0.8.0"},
		{">=1.2, <2.0", "1.2.0"},
		{"*", "0.0.0"},
		{"~4.5.1", "4.5.1"},
	}
	for _, tt := range tests {
		v, err := lowerBound(tt.req)
		if err != nil {
			t.Errorf("lowerBound(%q): %v", tt.req, err)
			continue
		}
		if v.String() != tt.want {
			t.Errorf("lowerBound(%q) = %s, want %s", tt.req, v, tt.want)
		}
	}
}

func TestManifest(t *testing.T) {
	got, err := Manifest("demo", []string{"serde_json", "clap"}, nil)
	if err != nil {
		t.Fatalf("Manifest: %v", err)
	}
	want := `[package]
name = "demo"
version = "0.1.0"
edition = "2021"

[dependencies]
clap = { version = "4.5", features = ["derive"] }
serde_json = "1.0"
`
	if got != want {
		t.Errorf("Manifest:\n%s\nwant:\n%s", got, want)
	}
}
