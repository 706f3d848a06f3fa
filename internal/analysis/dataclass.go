package analysis

import (
	"github.com/paiml/depyler-sub010/internal/genctx"
	"github.com/paiml/depyler-sub010/internal/hir"
)

// analyzeDataclasses registers the generated constructor of every class
// without an explicit __init__ (field order, defaults kept) and detects
// self-referential fields, which are stored as Option<Box<T>>
func (a *analyzer) analyzeDataclasses() {
	for _, cls := range a.mod.Classes() {
		for _, f := range cls.Fields {
			if a.selfReferential(cls.Name, f.Type) {
				a.ctx.MarkRecursiveField(cls.Name, f.Name)
				a.ctx.Trace("recursive", cls.Name+"."+f.Name, "Option<Box<"+cls.Name+">>", "self-referential field")
			}
		}
		if cls.Method("__init__") != nil {
			continue
		}
		key := funcKey(cls.Name, "__init__")
		sig := &genctx.FuncSig{
			Key:      key,
			Name:     "__init__",
			Class:    cls.Name,
			Func:     &hir.Function{Meta: cls.Meta, Name: "__init__", IsMethod: true},
			Analyzed: true,
		}
		if cls.IsDataclass {
			for _, f := range cls.Fields {
				sig.Params = append(sig.Params, &genctx.ParamInfo{
					Name:     f.Name,
					Type:     f.Type,
					Default:  f.Default,
					Optional: f.Type.Is(hir.KindOptional),
				})
			}
			a.ctx.Trace("dataclass", cls.Name, "new", "fields in declaration order")
		}
		a.ctx.Functions[key] = sig
	}
}

// selfReferential reports whether a field of type t holds a value of class
// directly (not through a collection)
func (a *analyzer) selfReferential(class string, t *hir.Type) bool {
	if t.Is(hir.KindOptional) {
		t = t.Elem()
	}
	return t.Is(hir.KindCustom) && t.Name == class
}
