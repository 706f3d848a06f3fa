package registry

import "sort"

// CrateInfo is an ecosystem crate the generated code may depend on.
// Version is a Cargo requirement string.
type CrateInfo struct {
	Name     string
	Version  string
	Features []string
}

var crates = map[string]CrateInfo{
	"serde_json": {Name: "serde_json", Version: "1.0"},
	"regex":      {Name: "regex", Version: "1.10"},
	"rand":       {Name: "rand", Version: "0.8"},
	"chrono":     {Name: "chrono", Version: "0.4"},
	"clap":       {Name: "clap", Version: "4.5", Features: []string{"derive"}},
	"sha2":       {Name: "sha2", Version: "0.10"},
	"itertools":  {Name: "itertools", Version: "0.11"},
}

// Crate returns the crate entry for name
func Crate(name string) (CrateInfo, bool) {
	c, ok := crates[name]
	return c, ok
}

// CrateNames returns every known crate name, sorted
func CrateNames() []string {
	out := make([]string, 0, len(crates))
	for name := range crates {
		out = append(out, name)
	}
	sort.Strings(out)
	return out
}
