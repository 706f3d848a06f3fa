package diagnostic

import (
	"strings"
	"testing"
)

func TestSeverityPolicy(t *testing.T) {
	tests := []struct {
		name     string
		add      func(d *Diagnostics)
		severity Severity
		kind     Kind
	}{
		{"parse", func(d *Diagnostics) { d.ParseErrorf(1, 1, "bad token") }, Error, Parse},
		{"unsupported", func(d *Diagnostics) { d.Unsupported(1, 1, "metaclass", "metaclasses are not supported") }, Error, UnsupportedConstruct},
		{"unresolved", func(d *Diagnostics) { d.Unresolved(1, 1, "foo") }, Warning, UnresolvedName},
		{"mismatch", func(d *Diagnostics) { d.Mismatch(1, 1, "int", "str") }, Warning, TypeMismatch},
		{"stuck", func(d *Diagnostics) { d.Stuck(1, 1, "f", "x") }, Warning, InferenceStuck},
		{"general error", func(d *Diagnostics) { d.Errorf(1, 1, "boom") }, Error, General},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			d := New()
			tt.add(d)
			items := d.All()
			if len(items) != 1 {
				t.Fatalf("expected 1 diagnostic, got %d", len(items))
			}
			if items[0].Severity != tt.severity {
				t.Errorf("severity = %s, want %s", items[0].Severity, tt.severity)
			}
			if items[0].Kind != tt.kind {
				t.Errorf("kind = %s, want %s", items[0].Kind, tt.kind)
			}
			if d.HasErrors() != (tt.severity == Error) {
				t.Errorf("HasErrors = %v", d.HasErrors())
			}
		})
	}
}

func TestFormat(t *testing.T) {
	d := New()
	d.ErrorWithHint(3, 10, "unsupported construct: metaclass", "remove the metaclass keyword")
	d.Unresolved(5, 1, "foo")

	got := d.Format("prog.py")
	want := "error[prog.py:3:10]: unsupported construct: metaclass\n  hint: remove the metaclass keyword\nwarning[prog.py:5:1]: unresolved name 'foo'"
	if got != want {
		t.Errorf("Format:\n%s\nwant:\n%s", got, want)
	}
	if New().Format("x") != "" {
		t.Error("empty diagnostics should format to an empty string")
	}
}

func TestInFileAndMerge(t *testing.T) {
	a := New()
	a.Warningf(1, 1, "first")
	b := New()
	b.Add(Diagnostic{Severity: Warning, Message: "second", File: "other.py"})
	a.Merge(b)
	a.Merge(nil)
	a.InFile("main.py")

	out := a.Format("ignored")
	if !strings.Contains(out, "warning[main.py:1:1]: first") {
		t.Errorf("file not stamped:\n%s", out)
	}
	if !strings.Contains(out, "warning[other.py:0:0]: second") {
		t.Errorf("existing file overwritten:\n%s", out)
	}
	if a.Count() != 2 || a.WarningCount() != 2 || a.ErrorCount() != 0 {
		t.Errorf("counts = %d/%d/%d", a.Count(), a.WarningCount(), a.ErrorCount())
	}
}

func TestSorted(t *testing.T) {
	d := New()
	d.Warningf(5, 1, "c")
	d.Warningf(2, 7, "b")
	d.Warningf(2, 3, "a")
	d.Warningf(2, 3, "a2")

	var got []string
	for _, item := range d.Sorted() {
		got = append(got, item.Message)
	}
	if strings.Join(got, ",") != "a,a2,b,c" {
		t.Errorf("Sorted = %v", got)
	}
	if d.All()[0].Message != "c" {
		t.Error("Sorted must not reorder the collection")
	}
}

func TestOfKindAndClear(t *testing.T) {
	d := New()
	d.Unresolved(1, 1, "a")
	d.Unresolved(2, 1, "b")
	d.ParseErrorf(3, 1, "x")
	if n := len(d.OfKind(UnresolvedName)); n != 2 {
		t.Errorf("OfKind(UnresolvedName) = %d, want 2", n)
	}
	if !d.HasParseErrors() {
		t.Error("expected parse errors")
	}
	d.Clear()
	if d.Count() != 0 {
		t.Errorf("Count after Clear = %d", d.Count())
	}
}
