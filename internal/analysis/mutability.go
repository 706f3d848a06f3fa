package analysis

import (
	"sort"

	"github.com/paiml/depyler-sub010/internal/genctx"
	"github.com/paiml/depyler-sub010/internal/hir"
	"github.com/paiml/depyler-sub010/internal/registry"
)

// analyzeMutability decides which locals need a mut binding and which names
// are declared ahead of the block that binds them. A local is mutable iff it
// is rebound after its first binding, mutated through an index or attribute,
// the receiver of a mutating method, or passed where &mut is expected.
func (a *analyzer) analyzeMutability() {
	for _, sig := range a.funcs {
		a.enter(sig)
		m := &mutScan{a: a, sig: sig, params: map[string]bool{}}
		for _, p := range sig.Func.Params {
			m.params[p.Name] = true
		}
		m.block(sig.Func.Body, map[string]bool{})
	}
}

type mutScan struct {
	a      *analyzer
	sig    *genctx.FuncSig
	params map[string]bool
	// rest holds the statements following the current one at every
	// enclosing block level
	rest [][]hir.Stmt
}

func (m *mutScan) mark(name, reason string) {
	if name == "" || m.params[name] {
		return
	}
	if !m.a.ctx.IsMutable(m.sig.Key, name) {
		m.a.ctx.Trace("mut", m.sig.Key+"."+name, "mut", reason)
	}
	m.a.ctx.MarkMutable(m.sig.Key, name)
}

func (m *mutScan) usedAfter(name string) bool {
	for _, stmts := range m.rest {
		for _, s := range stmts {
			if hir.Uses(s, name) {
				return true
			}
		}
	}
	return false
}

func copyBound(b map[string]bool) map[string]bool {
	out := make(map[string]bool, len(b))
	for k, v := range b {
		out[k] = v
	}
	return out
}

// block scans stmts with the names bound on entry and returns the names bound
// on exit
func (m *mutScan) block(stmts []hir.Stmt, bound map[string]bool) map[string]bool {
	for i, s := range stmts {
		m.rest = append(m.rest, stmts[i+1:])
		bound = m.stmt(s, bound)
		m.rest = m.rest[:len(m.rest)-1]
	}
	return bound
}

func (m *mutScan) bind(target hir.Expr, bound map[string]bool) {
	switch t := target.(type) {
	case *hir.Var:
		if bound[t.Name] {
			m.mark(t.Name, "rebound")
		}
		bound[t.Name] = true
	case *hir.TupleLit:
		for _, el := range t.Elems {
			m.bind(el, bound)
		}
	case *hir.ListLit:
		for _, el := range t.Elems {
			m.bind(el, bound)
		}
	case *hir.Starred:
		m.bind(t.Value, bound)
	case *hir.Index, *hir.Attribute:
		m.mark(hir.RootVar(t), "element or field assignment")
	}
}

func (m *mutScan) stmt(s hir.Stmt, bound map[string]bool) map[string]bool {
	switch n := s.(type) {
	case *hir.Assign:
		m.exprs(n.Value)
		if n.Value == nil && n.Annotation != nil {
			// a bare declaration binds nothing yet
			return bound
		}
		m.bind(n.Target, bound)
	case *hir.AugAssign:
		m.exprs(n.Value)
		if v, ok := n.Target.(*hir.Var); ok {
			m.mark(v.Name, "augmented assignment")
			bound[v.Name] = true
		} else {
			m.mark(hir.RootVar(n.Target), "augmented element assignment")
		}
	case *hir.If:
		m.exprs(n.Cond)
		body := m.block(n.Body, copyBound(bound))
		els := m.block(n.Else, copyBound(bound))
		if len(n.Else) > 0 {
			var both []string
			for name := range body {
				if !bound[name] && els[name] {
					both = append(both, name)
				}
			}
			m.hoist(s, both, false)
		}
		for name := range body {
			bound[name] = true
		}
		for name := range els {
			bound[name] = true
		}
	case *hir.While:
		m.exprs(n.Cond)
		m.loop(s, n.Body, n.Else, bound)
	case *hir.For:
		m.exprs(n.Iter)
		m.loop(s, n.Body, n.Else, bound)
	case *hir.Try:
		body := m.block(n.Body, copyBound(bound))
		fresh := newNames(body, bound)
		for _, h := range n.Handlers {
			hb := copyBound(bound)
			if h.Name != "" {
				hb[h.Name] = true
			}
			hb = m.block(h.Body, hb)
			fresh = append(fresh, newNames(hb, bound)...)
		}
		m.hoist(s, dedupe(fresh), true)
		for name := range body {
			bound[name] = true
		}
		bound = m.block(n.Else, bound)
		bound = m.block(n.Finally, bound)
	case *hir.With:
		inner := copyBound(bound)
		for _, it := range n.Items {
			m.exprs(it.Context)
			if it.Target != nil {
				m.bind(it.Target, inner)
			}
		}
		body := m.block(n.Body, copyBound(inner))
		m.hoist(s, newNames(body, inner), false)
		for name := range body {
			bound[name] = true
		}
	case *hir.Delete:
		for _, t := range n.Targets {
			if _, ok := t.(*hir.Var); !ok {
				m.mark(hir.RootVar(t), "del of an element")
			}
		}
	case *hir.Return:
		m.exprs(n.Value)
	case *hir.Raise:
		m.exprs(n.Exc)
	case *hir.Assert:
		m.exprs(n.Test)
	case *hir.ExprStmt:
		m.exprs(n.Value)
	}
	return bound
}

// loop scans a loop body. Names first bound in the body are fresh on every
// iteration unless they are read after the loop; those are declared before
// it with a default value and need mut.
func (m *mutScan) loop(s hir.Stmt, body, els []hir.Stmt, bound map[string]bool) {
	inner := copyBound(bound)
	if f, ok := s.(*hir.For); ok {
		for _, name := range hir.Names(f.Target) {
			inner[name] = true
		}
	}
	after := m.block(body, inner)
	m.hoist(s, newNames(after, inner), true)
	m.block(els, copyBound(bound))
	for _, name := range m.a.ctx.Hoisted[s] {
		bound[name] = true
	}
}

func newNames(after, before map[string]bool) []string {
	var out []string
	for name := range after {
		if !before[name] {
			out = append(out, name)
		}
	}
	sort.Strings(out)
	return out
}

func dedupe(names []string) []string {
	sort.Strings(names)
	out := names[:0]
	for i, n := range names {
		if i == 0 || n != names[i-1] {
			out = append(out, n)
		}
	}
	return out
}

// hoist records names read after s. Defaulted hoists are assigned more than
// once and need mut.
func (m *mutScan) hoist(s hir.Stmt, names []string, defaulted bool) {
	sort.Strings(names)
	for _, name := range names {
		if m.params[name] || !m.usedAfter(name) {
			continue
		}
		m.a.ctx.Hoisted[s] = append(m.a.ctx.Hoisted[s], name)
		m.a.ctx.Trace("hoist", m.sig.Key+"."+name, "declare before block", "bound inside and read after")
		if defaulted {
			m.mark(name, "declared before the block with a default")
		}
	}
}

// exprs marks receivers of mutating methods and &mut arguments
func (m *mutScan) exprs(e hir.Expr) {
	if e == nil {
		return
	}
	hir.Inspect(e, func(n hir.Node) bool {
		switch x := n.(type) {
		case *hir.MethodCall:
			if root := hir.RootVar(x.Recv); root != "" && m.mutatingCall(x) {
				m.mark(root, "receiver of "+x.Method)
			}
			m.mutArgs(CalleeSig(m.a.ctx, x), x.Args)
		case *hir.Call:
			m.mutArgs(CalleeSig(m.a.ctx, x), x.Args)
		case *hir.Lambda:
			return false
		}
		return true
	})
}

func (m *mutScan) mutatingCall(mc *hir.MethodCall) bool {
	if sig := CalleeSig(m.a.ctx, mc); sig != nil {
		return sig.SelfBorrow == genctx.Unique
	}
	kind := receiverKind(m.a.ctx, mc.Recv)
	if kind == registry.RecvUnknown {
		return registry.IsMutatingMethod(mc.Method)
	}
	rule, ok := registry.Method(kind, mc.Method)
	return ok && rule.Mutating
}

func (m *mutScan) mutArgs(sig *genctx.FuncSig, args []hir.Expr) {
	if sig == nil {
		return
	}
	for i, arg := range args {
		if p := sig.Param(i); p != nil && p.Borrow == genctx.Unique {
			if v, ok := arg.(*hir.Var); ok {
				m.mark(v.Name, "passed as &mut to "+sig.Key)
			}
		}
	}
}
