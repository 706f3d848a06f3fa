// Package analysis runs the lowering analyses over a HIR module. The passes
// run in a fixed order and write only into the genctx.Context tables; the
// HIR itself is never modified.
package analysis

import (
	"github.com/paiml/depyler-sub010/internal/genctx"
	"github.com/paiml/depyler-sub010/internal/hir"
)

type analyzer struct {
	mod *hir.Module
	ctx *genctx.Context

	// funcs lists every analyzed function in source order: free functions
	// first, then methods class by class
	funcs []*genctx.FuncSig
}

// Run analyzes mod into ctx
func Run(mod *hir.Module, ctx *genctx.Context) {
	ctx.Module = mod
	a := &analyzer{mod: mod, ctx: ctx}

	a.registerClasses()
	a.registerImports()
	a.registerConstants()

	a.registerSignatures()
	a.inferLocals()
	a.inferBorrows()
	a.propagateCanFail()

	a.analyzeMutability()
	a.analyzeStrings()
	a.analyzeMoves()
	a.analyzeOptionals()
	a.analyzeArgparse()
	a.analyzeDataclasses()

	ctx.Current = ""
	ctx.CurrentSig = nil
}

// enter makes key the function whose locals TypeOf resolves
func (a *analyzer) enter(sig *genctx.FuncSig) {
	a.ctx.EnterFunction(sig.Key)
	for _, p := range sig.Params {
		a.ctx.Scope().Bind(&genctx.Symbol{Name: p.Name, Type: p.Type, Kind: genctx.SymParam, Assigned: true})
	}
	if sig.Class != "" && sig.Func.IsMethod && !sig.Func.IsStatic && len(sig.Func.Params) > 0 {
		self := sig.Func.Params[0].Name
		a.ctx.Scope().Bind(&genctx.Symbol{Name: self, Type: hir.CustomType(sig.Class), Kind: genctx.SymParam, Assigned: true})
	}
}

// MainKey is the signature key of the module main block
const MainKey = "__main__"

func funcKey(class, name string) string {
	if class == "" {
		return name
	}
	return class + "." + name
}

func spanLess(a, b hir.Node) bool {
	al, ac := a.Loc()
	bl, bc := b.Loc()
	if al != bl {
		return al < bl
	}
	return ac < bc
}

func hasSpan(n hir.Node) bool {
	l, _ := n.Loc()
	return l > 0
}
