package analysis

import (
	"github.com/paiml/depyler-sub010/internal/annotation"
	"github.com/paiml/depyler-sub010/internal/genctx"
	"github.com/paiml/depyler-sub010/internal/hir"
)

// analyzeStrings records every string-typed parameter and lowers the ones
// that are read-only and never stored or returned to &str
func (a *analyzer) analyzeStrings() {
	for _, sig := range a.funcs {
		for _, p := range sig.Params {
			if !p.Type.Is(hir.KindString) {
				continue
			}
			if ann := sig.Func.Annotations; ann != nil && ann.Strings == annotation.AlwaysOwned && p.Borrow == genctx.Shared {
				p.Borrow = genctx.Owned
				a.ctx.Trace("str-ref", sig.Key+"."+p.Name, "String", "always_owned string strategy")
			}
			p.StrRef = p.Borrow == genctx.Shared
			a.ctx.MarkStrParam(sig.Key, p.Name, p.StrRef)
			if p.StrRef {
				a.ctx.Trace("str-ref", sig.Key+"."+p.Name, "&str", "read-only string parameter")
			}
		}
	}
}
