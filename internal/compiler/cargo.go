package compiler

import (
	"fmt"
	"sort"
	"strings"

	"github.com/Masterminds/semver/v3"
	"github.com/pkg/errors"

	"github.com/paiml/depyler-sub010/internal/registry"
)

// Dependency is one [dependencies] entry of a generated Cargo.toml
type Dependency struct {
	Name        string
	Requirement string
	Features    []string
}

// Dependencies resolves crate names against the registry. A name listed
// twice, or pinned in pins, keeps the requirement with the highest lower
// bound; features are unioned.
func Dependencies(crates []string, pins map[string]string) ([]Dependency, error) {
	merged := make(map[string]*Dependency)
	for _, name := range crates {
		info, ok := registry.Crate(name)
		if !ok {
			return nil, errors.Errorf("unknown crate %q", name)
		}
		if err := mergeDependency(merged, Dependency{Name: info.Name, Requirement: info.Version, Features: info.Features}); err != nil {
			return nil, err
		}
	}
	for name, req := range pins {
		if _, used := merged[name]; !used {
			continue
		}
		if err := mergeDependency(merged, Dependency{Name: name, Requirement: req}); err != nil {
			return nil, err
		}
	}

	out := make([]Dependency, 0, len(merged))
	for _, d := range merged {
		sort.Strings(d.Features)
		out = append(out, *d)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}

func mergeDependency(merged map[string]*Dependency, d Dependency) error {
	if _, err := semver.NewConstraint(d.Requirement); err != nil {
		return errors.Wrapf(err, "crate %s: invalid requirement %q", d.Name, d.Requirement)
	}
	ex, ok := merged[d.Name]
	if !ok {
		merged[d.Name] = &Dependency{Name: d.Name, Requirement: d.Requirement, Features: append([]string(nil), d.Features...)}
		return nil
	}
	higher, err := higherRequirement(ex.Requirement, d.Requirement)
	if err != nil {
		return errors.Wrapf(err, "crate %s", d.Name)
	}
	ex.Requirement = higher
	for _, f := range d.Features {
		if !contains(ex.Features, f) {
			ex.Features = append(ex.Features, f)
		}
	}
	return nil
}

// higherRequirement returns whichever requirement has the higher lower
// bound, preferring a when they tie
func higherRequirement(a, b string) (string, error) {
	la, err := lowerBound(a)
	if err != nil {
		return "", err
	}
	lb, err := lowerBound(b)
	if err != nil {
		return "", err
	}
	if lb.GreaterThan(la) {
		return b, nil
	}
	return a, nil
}

// lowerBound extracts the smallest version a requirement admits. Upper
// bounds ("<2", "<=1.5") are skipped; of several lower bounds the highest
// wins.
func lowerBound(req string) (*semver.Version, error) {
	var best *semver.Version
	for _, part := range strings.Split(req, ",") {
		part = strings.TrimSpace(part)
		if strings.HasPrefix(part, "<") {
			continue
		}
		part = strings.TrimLeft(part, "^~=> ")
		if part == "" || part == "*" {
			continue
		}
		part = strings.ReplaceAll(part, ".*", "")
		v, err := semver.NewVersion(part)
		if err != nil {
			return nil, errors.Wrapf(err, "requirement %q", req)
		}
		if best == nil || v.GreaterThan(best) {
			best = v
		}
	}
	if best == nil {
		return semver.MustParse("0.0.0"), nil
	}
	return best, nil
}

func contains(list []string, s string) bool {
	for _, x := range list {
		if x == s {
			return true
		}
	}
	return false
}

// Manifest renders a Cargo.toml for a binary package named pkg that
// depends on crates.
func Manifest(pkg string, crates []string, pins map[string]string) (string, error) {
	deps, err := Dependencies(crates, pins)
	if err != nil {
		return "", err
	}
	var b strings.Builder
	b.WriteString("[package]\n")
	fmt.Fprintf(&b, "name = %q\n", pkg)
	b.WriteString("version = \"0.1.0\"\n")
	b.WriteString("edition = \"2021\"\n")
	b.WriteString("\n[dependencies]\n")
	for _, d := range deps {
		if len(d.Features) == 0 {
			fmt.Fprintf(&b, "%s = %q\n", d.Name, d.Requirement)
			continue
		}
		quoted := make([]string, len(d.Features))
		for i, f := range d.Features {
			quoted[i] = fmt.Sprintf("%q", f)
		}
		fmt.Fprintf(&b, "%s = { version = %q, features = [%s] }\n", d.Name, d.Requirement, strings.Join(quoted, ", "))
	}
	return b.String(), nil
}
