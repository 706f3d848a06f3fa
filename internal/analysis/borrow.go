package analysis

import (
	"github.com/paiml/depyler-sub010/internal/annotation"
	"github.com/paiml/depyler-sub010/internal/genctx"
	"github.com/paiml/depyler-sub010/internal/hir"
	"github.com/paiml/depyler-sub010/internal/registry"
)

// usage summarizes how a function body uses one name
type usage struct {
	read     bool
	rebound  bool
	written  bool // index/attribute write, mutating method, &mut argument
	returned bool
	stored   bool // moved into a field, collection or another binding
	forward  bool // passed to a function not analyzed yet
}

// scanUsage collects the usage of name in body
func (a *analyzer) scanUsage(body []hir.Stmt, name string, t *hir.Type) usage {
	s := &usageScan{a: a, name: name, typ: t}
	s.stmts(body)
	return s.u
}

type usageScan struct {
	a    *analyzer
	name string
	typ  *hir.Type
	u    usage
}

func (s *usageScan) isName(e hir.Expr) bool {
	v, ok := e.(*hir.Var)
	return ok && v.Name == s.name
}

func (s *usageScan) rooted(e hir.Expr) bool {
	return hir.RootVar(e) == s.name
}

func (s *usageScan) stmts(list []hir.Stmt) {
	for _, st := range list {
		s.stmt(st)
	}
}

func (s *usageScan) stmt(st hir.Stmt) {
	switch n := st.(type) {
	case *hir.Assign:
		s.target(n.Target)
		if n.Value != nil {
			if s.isName(n.Value) {
				s.u.stored = true
				s.u.read = true
			} else {
				s.expr(n.Value)
			}
		}
	case *hir.AugAssign:
		switch {
		case s.isName(n.Target):
			if s.typ.Is(hir.KindList) || s.typ.Is(hir.KindSet) || s.typ.Is(hir.KindDict) {
				s.u.written = true
			} else {
				s.u.rebound = true
			}
			s.u.read = true
		case s.rooted(n.Target):
			s.u.written = true
			s.u.read = true
		default:
			s.expr(n.Target)
		}
		s.expr(n.Value)
	case *hir.Return:
		if n.Value == nil {
			return
		}
		if s.returnsName(n.Value) {
			s.u.returned = true
			s.u.read = true
			return
		}
		s.expr(n.Value)
	case *hir.If:
		s.expr(n.Cond)
		s.stmts(n.Body)
		s.stmts(n.Else)
	case *hir.While:
		s.expr(n.Cond)
		s.stmts(n.Body)
		s.stmts(n.Else)
	case *hir.For:
		if names := hir.Names(n.Target); containsName(names, s.name) {
			s.u.rebound = true
		}
		s.expr(n.Iter)
		s.stmts(n.Body)
		s.stmts(n.Else)
	case *hir.Try:
		s.stmts(n.Body)
		for _, h := range n.Handlers {
			s.stmts(h.Body)
		}
		s.stmts(n.Else)
		s.stmts(n.Finally)
	case *hir.With:
		for _, it := range n.Items {
			s.expr(it.Context)
		}
		s.stmts(n.Body)
	case *hir.Raise:
		s.expr(n.Exc)
		s.expr(n.Cause)
	case *hir.Delete:
		for _, t := range n.Targets {
			if s.rooted(t) && !s.isName(t) {
				s.u.written = true
			}
		}
	case *hir.Assert:
		s.expr(n.Test)
		s.expr(n.Msg)
	case *hir.ExprStmt:
		s.expr(n.Value)
	case *hir.FunctionDef:
		if hir.Uses(n, s.name) {
			s.u.read = true
		}
	}
}

// returnsName reports whether the returned value moves name out: name
// itself or name as a direct member of a returned literal
func (s *usageScan) returnsName(e hir.Expr) bool {
	if s.isName(e) {
		return true
	}
	var elems []hir.Expr
	switch n := e.(type) {
	case *hir.TupleLit:
		elems = n.Elems
	case *hir.ListLit:
		elems = n.Elems
	default:
		return false
	}
	found := false
	for _, el := range elems {
		if s.isName(el) {
			found = true
		} else {
			s.expr(el)
		}
	}
	return found
}

func (s *usageScan) target(t hir.Expr) {
	switch n := t.(type) {
	case *hir.Var:
		if n.Name == s.name {
			s.u.rebound = true
		}
	case *hir.TupleLit:
		for _, el := range n.Elems {
			s.target(el)
		}
	case *hir.ListLit:
		for _, el := range n.Elems {
			s.target(el)
		}
	case *hir.Starred:
		s.target(n.Value)
	case *hir.Index:
		if s.rooted(n) {
			s.u.written = true
			s.u.read = true
		}
		s.expr(n.Key)
	case *hir.Attribute:
		if s.rooted(n) {
			s.u.written = true
			s.u.read = true
		}
	}
}

func (s *usageScan) expr(e hir.Expr) {
	if e == nil {
		return
	}
	hir.Inspect(e, func(n hir.Node) bool {
		switch x := n.(type) {
		case *hir.Var:
			if x.Name == s.name {
				s.u.read = true
			}
		case *hir.MethodCall:
			s.methodCall(x)
		case *hir.Call:
			s.call(x)
		case *hir.ListLit:
			s.elems(x.Elems)
		case *hir.TupleLit:
			s.elems(x.Elems)
		case *hir.SetLit:
			s.elems(x.Elems)
		case *hir.DictLit:
			s.elems(x.Values)
		}
		return true
	})
}

// elems marks name stored when it is a direct member of a collection literal
func (s *usageScan) elems(list []hir.Expr) {
	for _, el := range list {
		if s.isName(el) && !s.typ.IsCopy() {
			s.u.stored = true
		}
	}
}

func (s *usageScan) methodCall(mc *hir.MethodCall) {
	if s.rooted(mc.Recv) && s.mutates(mc) {
		s.u.written = true
	}
	sig := CalleeSig(s.a.ctx, mc)
	for i, arg := range mc.Args {
		if !s.isName(arg) {
			continue
		}
		if sig != nil {
			s.argument(sig, i)
			continue
		}
		// arguments of append/add/insert end up inside the receiver
		if rule, ok := registry.Method(receiverKind(s.a.ctx, mc.Recv), mc.Method); ok && rule.Args == registry.ArgsOwned && !s.typ.IsCopy() {
			s.u.stored = true
		}
	}
}

// mutates reports whether mc can mutate its receiver. A user-class method
// mutates when it takes &mut self.
func (s *usageScan) mutates(mc *hir.MethodCall) bool {
	if sig := CalleeSig(s.a.ctx, mc); sig != nil {
		return sig.SelfBorrow == genctx.Unique
	}
	kind := receiverKind(s.a.ctx, mc.Recv)
	if kind == registry.RecvUnknown {
		return registry.IsMutatingMethod(mc.Method)
	}
	rule, ok := registry.Method(kind, mc.Method)
	return ok && rule.Mutating
}

func (s *usageScan) call(c *hir.Call) {
	sig := CalleeSig(s.a.ctx, c)
	for i, arg := range c.Args {
		if !s.isName(arg) {
			continue
		}
		if sig == nil {
			continue
		}
		if sig.Func != nil && sig.Func.Name == "__init__" && !s.typ.IsCopy() {
			s.u.stored = true
			continue
		}
		s.argument(sig, i)
	}
}

// argument records name passed at position i of sig
func (s *usageScan) argument(sig *genctx.FuncSig, i int) {
	if !sig.Analyzed {
		s.u.forward = true
		return
	}
	p := sig.Param(i)
	if p == nil {
		return
	}
	if p.Borrow == genctx.Unique {
		s.u.written = true
	}
}

func receiverKind(c *genctx.Context, recv hir.Expr) registry.ReceiverKind {
	t := TypeOf(c, recv)
	kind := registry.ReceiverKindOf(t)
	if kind == registry.RecvUnknown && t.IsUnknown() {
		if v, ok := recv.(*hir.Var); ok {
			kind = registry.GuessReceiverKind(v.Name)
		}
	}
	return kind
}

func containsName(names []string, name string) bool {
	for _, n := range names {
		if n == name {
			return true
		}
	}
	return false
}

// referenceWorthy reports whether a parameter of type t defaults to a shared
// borrow: strings, collections and user aggregates
func (a *analyzer) referenceWorthy(t *hir.Type) bool {
	if t == nil {
		return false
	}
	switch t.Kind {
	case hir.KindString, hir.KindBytes, hir.KindList, hir.KindDict, hir.KindSet, hir.KindTuple:
		return !t.IsCopy()
	case hir.KindOptional:
		return a.referenceWorthy(t.Elem())
	case hir.KindGeneric:
		return t.Name == "VecDeque"
	case hir.KindCustom:
		if a.ctx.IsClass(t.Name) {
			return true
		}
		if imp, ok := a.ctx.ImportedItems[t.Name]; ok && imp.Known {
			return imp.Entry.BorrowByDefault
		}
		switch t.Name {
		case "Counter", "defaultdict", "OrderedDict":
			return true
		}
	}
	return false
}

// inferBorrows is phase B of the signature pass. It runs a second time when a
// function passes a parameter to a function analyzed after it.
func (a *analyzer) inferBorrows() {
	forward := a.borrowRound()
	if forward {
		a.borrowRound()
	}
	for _, sig := range a.funcs {
		for _, p := range sig.Params {
			if p.Stuck {
				line, col := sig.Func.Loc()
				a.ctx.Diags.Stuck(line, col, sig.Key, p.Name)
			}
		}
	}
}

func (a *analyzer) borrowRound() bool {
	forward := false
	for _, sig := range a.funcs {
		a.enter(sig)
		for _, p := range sig.Params {
			if p.Kind == hir.Varargs {
				continue
			}
			u := a.scanUsage(sig.Func.Body, p.Name, p.Type)
			if u.forward {
				forward = true
			}
			a.decideBorrow(sig, p, u)
		}
		if sig.SelfBorrow != genctx.Owned && len(sig.Func.Params) > 0 {
			self := sig.Func.Params[0].Name
			u := a.scanUsage(sig.Func.Body, self, hir.CustomType(sig.Class))
			if u.written {
				sig.SelfBorrow = genctx.Unique
			} else {
				sig.SelfBorrow = genctx.Shared
			}
		}
		sig.Analyzed = true
	}
	return forward
}

// decideBorrow applies the borrow rules to one parameter. The result is the
// least form covering every write and read site.
func (a *analyzer) decideBorrow(sig *genctx.FuncSig, p *genctx.ParamInfo, u usage) {
	p.Borrow, p.Mut, p.Stuck = genctx.Owned, false, false
	subject := sig.Key + "." + p.Name
	if sig.IsGenerator {
		a.ctx.Trace("borrow", subject, "owned", "held by the generator state")
		return
	}
	if a.annotatedBorrow(sig, p, u) {
		return
	}
	switch {
	case u.written && u.returned:
		if sig.Func.ReturnType != nil {
			p.Mut = true
			a.ctx.Trace("borrow", subject, "owned mut", "mutated and returned by an annotated function")
			return
		}
		p.Borrow = genctx.Unique
		sig.MutReturnRewrite = true
		a.ctx.Trace("borrow", subject, "&mut", "mutated and returned; function returns unit")
	case u.written:
		p.Borrow = genctx.Unique
		a.ctx.Trace("borrow", subject, "&mut", "write site")
	case u.rebound:
		p.Mut = true
		a.ctx.Trace("borrow", subject, "owned mut", "rebound in the body")
	case u.returned || u.stored:
		a.ctx.Trace("borrow", subject, "owned", "escapes the function")
	case !u.read:
		a.ctx.Trace("borrow", subject, "owned", "never read")
	case p.Type.IsUnknown():
		if registry.BorrowWorthyName(p.Name) {
			p.Borrow = genctx.Shared
			a.ctx.Trace("borrow", subject, "&", "name heuristic")
			return
		}
		p.Stuck = true
		a.ctx.Trace("borrow", subject, "owned", "no type evidence")
	case a.referenceWorthy(p.Type):
		p.Borrow = genctx.Shared
		a.ctx.Trace("borrow", subject, "&", "read-only reference-worthy type")
	default:
		a.ctx.Trace("borrow", subject, "owned", "copy type")
	}
}

// annotatedBorrow applies an ownership annotation. Borrowing is not forced
// on values that escape or on copy types.
func (a *analyzer) annotatedBorrow(sig *genctx.FuncSig, p *genctx.ParamInfo, u usage) bool {
	ann := sig.Func.Annotations
	if ann == nil {
		return false
	}
	subject := sig.Key + "." + p.Name
	switch ann.Ownership {
	case annotation.Owned:
		p.Mut = u.written || u.rebound
		a.ctx.Trace("borrow", subject, "owned", "ownership annotation")
		return true
	case annotation.Borrowed, annotation.Shared:
		if u.returned || u.stored || u.rebound || p.Type.IsUnknown() || p.Type.IsCopy() {
			return false
		}
		p.Borrow = genctx.Shared
		if u.written {
			p.Borrow = genctx.Unique
		}
		a.ctx.Trace("borrow", subject, p.Borrow.String(), ann.Ownership.String()+" ownership annotation")
		return true
	}
	return false
}

// propagateCanFail computes the can-fail set: functions containing a raise or
// a try statement, closed over calls to can-fail functions
func (a *analyzer) propagateCanFail() {
	for _, sig := range a.funcs {
		if directlyFails(sig.Func.Body) {
			a.markCanFail(sig, "raise or try in body")
		}
		a.registerRaised(sig.Func.Body)
	}
	for changed := true; changed; {
		changed = false
		for _, sig := range a.funcs {
			if sig.CanFail || sig.IsGenerator {
				continue
			}
			a.enter(sig)
			if callee := a.failingCallee(sig.Func.Body); callee != "" {
				a.markCanFail(sig, "calls "+callee)
				changed = true
			}
		}
	}
}

func (a *analyzer) markCanFail(sig *genctx.FuncSig, reason string) {
	if sig.IsGenerator {
		// next() has no error channel, failures panic
		return
	}
	sig.CanFail = true
	a.ctx.ResultFuncs.Insert(sig.Key)
	a.ctx.Trace("can-fail", sig.Key, "Result", reason)
}

// registerRaised adds the exception types raised or caught in body to the
// module error enum
func (a *analyzer) registerRaised(body []hir.Stmt) {
	add := func(name string) {
		if registry.IsExceptionType(name) || a.isExceptionClass(name) {
			a.ctx.AddErrorVariant(name)
		}
	}
	hir.InspectStmts(body, func(n hir.Node) bool {
		switch x := n.(type) {
		case *hir.Raise:
			switch exc := x.Exc.(type) {
			case *hir.Call:
				add(exc.Func)
			case *hir.Var:
				add(exc.Name)
			}
		case *hir.Try:
			for _, h := range x.Handlers {
				for _, t := range h.Types {
					if t != "Exception" && t != "BaseException" {
						add(t)
					}
				}
			}
		}
		return true
	})
}

func directlyFails(body []hir.Stmt) bool {
	found := false
	hir.InspectStmts(body, func(n hir.Node) bool {
		switch n.(type) {
		case *hir.FunctionDef, *hir.ClassDef, *hir.Lambda:
			return false
		case *hir.Raise, *hir.Try:
			found = true
		}
		return !found
	})
	return found
}

func (a *analyzer) failingCallee(body []hir.Stmt) string {
	callee := ""
	hir.InspectStmts(body, func(n hir.Node) bool {
		if callee != "" {
			return false
		}
		switch x := n.(type) {
		case *hir.FunctionDef, *hir.ClassDef, *hir.Lambda:
			return false
		case *hir.Call, *hir.MethodCall:
			if sig := CalleeSig(a.ctx, x.(hir.Expr)); sig != nil && sig.CanFail {
				callee = sig.Key
			}
		}
		return callee == ""
	})
	return callee
}
