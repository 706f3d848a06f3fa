package analysis

import (
	"strings"

	"github.com/paiml/depyler-sub010/internal/genctx"
	"github.com/paiml/depyler-sub010/internal/hir"
	"github.com/paiml/depyler-sub010/internal/registry"
)

// registerClasses fills the class table. Exception classes become variants
// of the module error enum.
func (a *analyzer) registerClasses() {
	for _, cls := range a.mod.Classes() {
		a.ctx.ClassNames.Insert(cls.Name)
		a.ctx.Classes[cls.Name] = cls
	}
	for _, cls := range a.mod.Classes() {
		if a.isExceptionClass(cls.Name) {
			a.ctx.AddErrorVariant(cls.Name)
		}
	}
}

// isExceptionClass follows single-inheritance bases up to a builtin
// exception
func (a *analyzer) isExceptionClass(name string) bool {
	seen := map[string]bool{}
	for name != "" && !seen[name] {
		seen[name] = true
		if registry.IsExceptionType(name) {
			return true
		}
		cls, ok := a.ctx.Classes[name]
		if !ok || len(cls.Bases) == 0 {
			return false
		}
		name = cls.Bases[0]
	}
	return false
}

// registerImports resolves imports through the module registry. Unknown
// modules and names are recorded and reported as unresolved.
func (a *analyzer) registerImports() {
	for _, imp := range a.mod.Imports() {
		line, col := imp.Loc()
		if imp.Level > 0 {
			a.ctx.Diags.Unresolved(line, col, strings.Repeat(".", imp.Level)+imp.Module)
			continue
		}
		if len(imp.Items) == 0 {
			local, target := imp.Alias, imp.Module
			if local == "" {
				// "import os.path" binds "os"
				local = strings.SplitN(imp.Module, ".", 2)[0]
				target = local
			}
			a.ctx.ImportedModules[local] = target
			if _, ok := registry.LookupModule(imp.Module); !ok {
				a.ctx.Diags.Unresolved(line, col, imp.Module)
			}
			continue
		}
		for _, item := range imp.Items {
			local := item.Alias
			if local == "" {
				local = item.Name
			}
			dotted := imp.Module + "." + item.Name
			entry, ok := registry.Lookup(dotted)
			if !ok {
				if _, isMod := registry.LookupModule(dotted); isMod {
					a.ctx.ImportedModules[local] = dotted
					continue
				}
				a.ctx.Diags.Unresolved(line, col, dotted)
			}
			a.ctx.ImportedItems[local] = genctx.Import{Local: local, Python: dotted, Entry: entry, Known: ok}
			a.ctx.Trace("import", local, entry.Kind.String(), dotted)
		}
	}
}

// registerConstants types module-level constants from their annotation or
// value
func (a *analyzer) registerConstants() {
	for _, c := range a.mod.Constants() {
		t := c.Type
		if t == nil {
			t = TypeOf(a.ctx, c.Value)
		}
		a.ctx.Constants[c.Name] = t
	}
}

// ResolveDotted renders the dotted registry name of an attribute chain
// rooted at an imported module ("os.path.join"), or "" when the chain is not
// rooted at a module
func ResolveDotted(c *genctx.Context, e hir.Expr) string {
	var parts []string
	for {
		switch n := e.(type) {
		case *hir.Attribute:
			parts = append(parts, n.Name)
			e = n.Recv
			continue
		case *hir.Var:
			var root string
			if mod, ok := c.ImportedModules[n.Name]; ok {
				root = mod
			} else if imp, ok := c.ImportedItems[n.Name]; ok && imp.Known && imp.Entry.Kind == registry.KindType {
				root = imp.Python
			} else {
				return ""
			}
			if c.Lookup(n.Name) != nil {
				return ""
			}
			for i := len(parts) - 1; i >= 0; i-- {
				root += "." + parts[i]
			}
			return root
		}
		return ""
	}
}

// LookupEntry resolves an imported name or dotted module attribute to its
// registry entry
func LookupEntry(c *genctx.Context, e hir.Expr) (registry.Entry, bool) {
	if v, ok := e.(*hir.Var); ok {
		if c.Lookup(v.Name) != nil {
			return registry.Entry{}, false
		}
		imp, ok := c.ImportedItems[v.Name]
		if !ok || !imp.Known {
			return registry.Entry{}, false
		}
		return imp.Entry, true
	}
	dotted := ResolveDotted(c, e)
	if dotted == "" {
		return registry.Entry{}, false
	}
	return registry.Lookup(dotted)
}
