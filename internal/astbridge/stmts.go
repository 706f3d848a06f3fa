package astbridge

import (
	"strings"

	"github.com/paiml/depyler-sub010/internal/ast"
	"github.com/paiml/depyler-sub010/internal/hir"
)

// convertStmts lowers a statement list
func (b *Bridge) convertStmts(stmts []ast.Statement) []hir.Stmt {
	var out []hir.Stmt
	for _, s := range stmts {
		out = append(out, b.convertStmt(s)...)
	}
	return out
}

// convertStmt lowers one statement into zero or more HIR statements
func (b *Bridge) convertStmt(stmt ast.Statement) []hir.Stmt {
	switch s := stmt.(type) {
	case *ast.ExprStmt:
		if c, ok := s.Value.(*ast.Constant); ok && c.Kind == ast.ConstEllipsis {
			return []hir.Stmt{&hir.Pass{Meta: meta(s)}}
		}
		return []hir.Stmt{&hir.ExprStmt{Meta: meta(s), Value: b.convertExpr(s.Value)}}

	case *ast.AssignStmt:
		return b.convertAssign(s)

	case *ast.AnnAssignStmt:
		var value hir.Expr
		if s.Value != nil {
			value = b.convertExpr(s.Value)
		}
		return []hir.Stmt{&hir.Assign{
			Meta:       meta(s),
			Target:     b.convertTarget(s.Target),
			Value:      value,
			Annotation: b.convertAnnotation(s.Annotation),
		}}

	case *ast.AugAssignStmt:
		return []hir.Stmt{&hir.AugAssign{
			Meta:   meta(s),
			Target: b.convertTarget(s.Target),
			Op:     hir.BinOp(s.Op),
			Value:  b.convertExpr(s.Value),
		}}

	case *ast.ReturnStmt:
		ret := &hir.Return{Meta: meta(s)}
		if s.Value != nil {
			ret.Value = b.convertExpr(s.Value)
		}
		return []hir.Stmt{ret}

	case *ast.IfStmt:
		return []hir.Stmt{&hir.If{
			Meta: meta(s),
			Cond: b.convertCondition(s.Cond),
			Body: b.convertStmts(s.Body),
			Else: b.convertStmts(s.Orelse),
		}}

	case *ast.WhileStmt:
		return []hir.Stmt{&hir.While{
			Meta: meta(s),
			Cond: b.convertCondition(s.Cond),
			Body: b.convertStmts(s.Body),
			Else: b.convertStmts(s.Orelse),
		}}

	case *ast.ForStmt:
		return []hir.Stmt{&hir.For{
			Meta:    meta(s),
			Target:  b.convertTarget(s.Target),
			Iter:    b.convertExpr(s.Iter),
			Body:    b.convertStmts(s.Body),
			Else:    b.convertStmts(s.Orelse),
			IsAsync: s.IsAsync,
		}}

	case *ast.TryStmt:
		return []hir.Stmt{b.convertTry(s)}

	case *ast.WithStmt:
		w := &hir.With{Meta: meta(s), Body: b.convertStmts(s.Body), IsAsync: s.IsAsync}
		for _, it := range s.Items {
			item := &hir.WithItem{Context: b.convertExpr(it.Context)}
			if it.Target != nil {
				item.Target = b.convertTarget(it.Target)
			}
			w.Items = append(w.Items, item)
		}
		return []hir.Stmt{w}

	case *ast.RaiseStmt:
		r := &hir.Raise{Meta: meta(s)}
		if s.Exc != nil {
			r.Exc = b.convertExpr(s.Exc)
		}
		if s.Cause != nil {
			r.Cause = b.convertExpr(s.Cause)
		}
		return []hir.Stmt{r}

	case *ast.ImportStmt, *ast.ImportFromStmt:
		var out []hir.Stmt
		for _, imp := range b.convertImport(s) {
			out = append(out, imp)
		}
		return out

	case *ast.FunctionDef:
		if fn := b.convertFunction(s, false); fn != nil {
			return []hir.Stmt{&hir.FunctionDef{Meta: meta(s), Func: fn}}
		}
		return nil

	case *ast.ClassDef:
		if cls := b.convertClass(s); cls != nil {
			return []hir.Stmt{&hir.ClassDef{Meta: meta(s), Class: cls}}
		}
		return nil

	case *ast.PassStmt:
		return []hir.Stmt{&hir.Pass{Meta: meta(s)}}
	case *ast.BreakStmt:
		return []hir.Stmt{&hir.Break{Meta: meta(s)}}
	case *ast.ContinueStmt:
		return []hir.Stmt{&hir.Continue{Meta: meta(s)}}
	case *ast.GlobalStmt:
		return []hir.Stmt{&hir.Global{Meta: meta(s), Names: s.Names}}
	case *ast.NonlocalStmt:
		return []hir.Stmt{&hir.Nonlocal{Meta: meta(s), Names: s.Names}}

	case *ast.DeleteStmt:
		d := &hir.Delete{Meta: meta(s)}
		for _, t := range s.Targets {
			d.Targets = append(d.Targets, b.convertTarget(t))
		}
		return []hir.Stmt{d}

	case *ast.AssertStmt:
		a := &hir.Assert{Meta: meta(s), Test: b.convertExpr(s.Test)}
		if s.Msg != nil {
			a.Msg = b.convertExpr(s.Msg)
		}
		return []hir.Stmt{a}

	case *ast.MatchStmt:
		return b.convertMatch(s)
	}

	b.unsupported(stmt, "statement", "")
	return nil
}

// convertAssign lowers an assignment. A chain a = b = e evaluates e once into
// a temp and assigns the temp to every target.
func (b *Bridge) convertAssign(s *ast.AssignStmt) []hir.Stmt {
	value := b.convertExpr(s.Value)
	if len(s.Targets) == 1 {
		return []hir.Stmt{&hir.Assign{Meta: meta(s), Target: b.convertTarget(s.Targets[0]), Value: value}}
	}

	tmp := b.newTemp("tmp")
	out := []hir.Stmt{&hir.Assign{Meta: meta(s), Target: &hir.Var{Meta: meta(s), Name: tmp}, Value: value}}
	for _, t := range s.Targets {
		out = append(out, &hir.Assign{
			Meta:   meta(s),
			Target: b.convertTarget(t),
			Value:  &hir.Var{Meta: meta(s), Name: tmp},
		})
	}
	return out
}

// convertCondition lowers an if/while condition, where walrus is allowed
func (b *Bridge) convertCondition(e ast.Expression) hir.Expr {
	saved := b.walrusOK
	b.walrusOK = true
	defer func() { b.walrusOK = saved }()
	return b.convertExpr(e)
}

func (b *Bridge) convertTry(s *ast.TryStmt) *hir.Try {
	t := &hir.Try{
		Meta:    meta(s),
		Body:    b.convertStmts(s.Body),
		Else:    b.convertStmts(s.Orelse),
		Finally: b.convertStmts(s.Finalbody),
	}
	for _, h := range s.Handlers {
		handler := &hir.Handler{Meta: meta(h), Name: h.Name, Body: b.convertStmts(h.Body)}
		handler.Types = exceptionNames(h.Type)
		t.Handlers = append(t.Handlers, handler)
	}
	return t
}

// exceptionNames returns the exception class names an except clause names.
// "Exception" and "BaseException" are catch-alls and yield no names.
func exceptionNames(e ast.Expression) []string {
	var names []string
	var add func(ast.Expression)
	add = func(e ast.Expression) {
		switch n := e.(type) {
		case *ast.Name:
			names = append(names, n.ID)
		case *ast.Attribute:
			names = append(names, n.Attr)
		case *ast.TupleExpr:
			for _, el := range n.Elts {
				add(el)
			}
		}
	}
	if e != nil {
		add(e)
	}
	for _, n := range names {
		if n == "Exception" || n == "BaseException" {
			return nil
		}
	}
	return names
}

// convertImport lowers import statements. "from __future__" imports vanish.
func (b *Bridge) convertImport(stmt ast.Statement) []*hir.Import {
	switch s := stmt.(type) {
	case *ast.ImportStmt:
		var out []*hir.Import
		for _, a := range s.Names {
			out = append(out, &hir.Import{Meta: meta(s), Module: a.Name, Alias: a.AsName})
		}
		return out
	case *ast.ImportFromStmt:
		if s.Module == "__future__" || s.Module == "typing" || s.Module == "typing_extensions" {
			return nil
		}
		imp := &hir.Import{Meta: meta(s), Module: s.Module, Level: s.Level}
		for _, a := range s.Names {
			if a.Name == "*" {
				b.unsupported(s, "star import", "import the needed names explicitly")
				return nil
			}
			imp.Items = append(imp.Items, hir.ImportItem{Name: a.Name, Alias: a.AsName})
		}
		return []*hir.Import{imp}
	}
	return nil
}

// convertMatch desugars a match statement into a temp binding followed by an
// if-chain. Literal, value, capture, wildcard and "|" patterns are modeled;
// other cases are reported and skipped.
func (b *Bridge) convertMatch(s *ast.MatchStmt) []hir.Stmt {
	tmp := b.newTemp("match")
	subject := func() hir.Expr { return &hir.Var{Meta: meta(s), Name: tmp} }
	out := []hir.Stmt{&hir.Assign{Meta: meta(s), Target: subject(), Value: b.convertExpr(s.Subject)}}

	type arm struct {
		cond hir.Expr // nil for an irrefutable arm
		body []hir.Stmt
	}
	var arms []arm

	for _, c := range s.Cases {
		body := b.convertStmts(c.Body)
		var guard hir.Expr
		if c.Guard != nil {
			guard = b.convertCondition(c.Guard)
		}

		switch p := c.Pattern.(type) {
		case *ast.CapturePattern:
			if p.Name != "_" {
				bind := &hir.Assign{Meta: meta(p), Target: &hir.Var{Meta: meta(p), Name: p.Name}, Value: subject()}
				body = append([]hir.Stmt{bind}, body...)
				if guard != nil {
					b.unsupported(p, "match guard on capture pattern", "compare the subject directly in an if statement")
					continue
				}
			}
			arms = append(arms, arm{cond: guard, body: body})
		default:
			cond := b.patternCondition(c.Pattern, subject)
			if cond == nil {
				continue
			}
			if guard != nil {
				cond = &hir.BoolOp{Meta: meta(c.Pattern), And: true, Values: []hir.Expr{cond, guard}}
			}
			arms = append(arms, arm{cond: cond, body: body})
		}
		if arms[len(arms)-1].cond == nil {
			break // later cases are unreachable
		}
	}

	if len(arms) == 0 {
		return out
	}

	var chain []hir.Stmt
	for i := len(arms) - 1; i >= 0; i-- {
		a := arms[i]
		if a.cond == nil {
			chain = a.body
			continue
		}
		chain = []hir.Stmt{&hir.If{Meta: meta(s), Cond: a.cond, Body: a.body, Else: chain}}
	}
	return append(out, chain...)
}

// patternCondition builds the test for a refutable pattern, or reports it
func (b *Bridge) patternCondition(pat ast.Pattern, subject func() hir.Expr) hir.Expr {
	switch p := pat.(type) {
	case *ast.ValuePattern:
		value := b.convertExpr(p.Value)
		op := hir.Eq
		if l, ok := value.(*hir.Literal); ok && l.Kind == hir.LitNone {
			op = hir.Is
		}
		return &hir.Compare{Meta: meta(p), Left: subject(), Ops: []hir.CmpOp{op}, Comparators: []hir.Expr{value}}
	case *ast.OrPattern:
		var alts []hir.Expr
		for _, alt := range p.Alternatives {
			cond := b.patternCondition(alt, subject)
			if cond == nil {
				return nil
			}
			alts = append(alts, cond)
		}
		return &hir.BoolOp{Meta: meta(p), Values: alts}
	case *ast.CapturePattern:
		b.unsupported(p, "capture pattern inside or-pattern", "")
		return nil
	case *ast.OtherPattern:
		b.unsupported(p, "match pattern ("+p.Kind+")", "only literal, value, capture and wildcard patterns are supported")
		return nil
	}
	return nil
}

// dottedName renders a Name/Attribute chain as a dotted path
func dottedName(e ast.Expression) string {
	switch n := e.(type) {
	case *ast.Name:
		return n.ID
	case *ast.Attribute:
		base := dottedName(n.Value)
		if base == "" {
			return ""
		}
		return base + "." + n.Attr
	case *ast.Call:
		return dottedName(n.Func)
	}
	return ""
}

func lastComponent(dotted string) string {
	if i := strings.LastIndex(dotted, "."); i >= 0 {
		return dotted[i+1:]
	}
	return dotted
}
