package ast

// Inspect traverses node depth-first, calling f for every node. When f
// returns false the children of that node are skipped. Nil children are
// not visited.
func Inspect(node Node, f func(Node) bool) {
	if node == nil || !f(node) {
		return
	}
	switch n := node.(type) {
	case *Module:
		inspectStmts(n.Body, f)
	case *ExprStmt:
		inspectExpr(n.Value, f)
	case *AssignStmt:
		inspectExprs(n.Targets, f)
		inspectExpr(n.Value, f)
	case *AnnAssignStmt:
		inspectExpr(n.Target, f)
		inspectExpr(n.Annotation, f)
		inspectExpr(n.Value, f)
	case *AugAssignStmt:
		inspectExpr(n.Target, f)
		inspectExpr(n.Value, f)
	case *ReturnStmt:
		inspectExpr(n.Value, f)
	case *IfStmt:
		inspectExpr(n.Cond, f)
		inspectStmts(n.Body, f)
		inspectStmts(n.Orelse, f)
	case *WhileStmt:
		inspectExpr(n.Cond, f)
		inspectStmts(n.Body, f)
		inspectStmts(n.Orelse, f)
	case *ForStmt:
		inspectExpr(n.Target, f)
		inspectExpr(n.Iter, f)
		inspectStmts(n.Body, f)
		inspectStmts(n.Orelse, f)
	case *TryStmt:
		inspectStmts(n.Body, f)
		for _, h := range n.Handlers {
			inspectExpr(h.Type, f)
			inspectStmts(h.Body, f)
		}
		inspectStmts(n.Orelse, f)
		inspectStmts(n.Finalbody, f)
	case *WithStmt:
		for _, item := range n.Items {
			inspectExpr(item.Context, f)
			inspectExpr(item.Target, f)
		}
		inspectStmts(n.Body, f)
	case *RaiseStmt:
		inspectExpr(n.Exc, f)
		inspectExpr(n.Cause, f)
	case *FunctionDef:
		inspectExprs(n.Decorators, f)
		for _, p := range n.Params {
			inspectExpr(p.Annotation, f)
			inspectExpr(p.Default, f)
		}
		inspectExpr(n.Returns, f)
		inspectStmts(n.Body, f)
	case *ClassDef:
		inspectExprs(n.Decorators, f)
		inspectExprs(n.Bases, f)
		for _, kw := range n.Keywords {
			inspectExpr(kw.Value, f)
		}
		inspectStmts(n.Body, f)
	case *DeleteStmt:
		inspectExprs(n.Targets, f)
	case *AssertStmt:
		inspectExpr(n.Test, f)
		inspectExpr(n.Msg, f)
	case *MatchStmt:
		inspectExpr(n.Subject, f)
		for _, c := range n.Cases {
			inspectPattern(c.Pattern, f)
			inspectExpr(c.Guard, f)
			inspectStmts(c.Body, f)
		}

	case *BinOp:
		inspectExpr(n.Left, f)
		inspectExpr(n.Right, f)
	case *UnaryOp:
		inspectExpr(n.Operand, f)
	case *BoolOp:
		inspectExprs(n.Values, f)
	case *Compare:
		inspectExpr(n.Left, f)
		inspectExprs(n.Comparators, f)
	case *Call:
		inspectExpr(n.Func, f)
		inspectExprs(n.Args, f)
		for _, kw := range n.Keywords {
			inspectExpr(kw.Value, f)
		}
	case *Attribute:
		inspectExpr(n.Value, f)
	case *Subscript:
		inspectExpr(n.Value, f)
		inspectExpr(n.Index, f)
	case *SliceExpr:
		inspectExpr(n.Lower, f)
		inspectExpr(n.Upper, f)
		inspectExpr(n.Step, f)
	case *ListExpr:
		inspectExprs(n.Elts, f)
	case *TupleExpr:
		inspectExprs(n.Elts, f)
	case *SetExpr:
		inspectExprs(n.Elts, f)
	case *DictExpr:
		inspectExprs(n.Keys, f)
		inspectExprs(n.Values, f)
	case *ListComp:
		inspectGenerators(n.Generators, f)
		inspectExpr(n.Elt, f)
	case *SetComp:
		inspectGenerators(n.Generators, f)
		inspectExpr(n.Elt, f)
	case *GeneratorExp:
		inspectGenerators(n.Generators, f)
		inspectExpr(n.Elt, f)
	case *DictComp:
		inspectGenerators(n.Generators, f)
		inspectExpr(n.Key, f)
		inspectExpr(n.Value, f)
	case *Lambda:
		for _, p := range n.Params {
			inspectExpr(p.Default, f)
		}
		inspectExpr(n.Body, f)
	case *FString:
		inspectExprs(n.Parts, f)
	case *FormattedValue:
		inspectExpr(n.Value, f)
	case *IfExp:
		inspectExpr(n.Test, f)
		inspectExpr(n.Body, f)
		inspectExpr(n.Orelse, f)
	case *Await:
		inspectExpr(n.Value, f)
	case *Yield:
		inspectExpr(n.Value, f)
	case *Starred:
		inspectExpr(n.Value, f)
	case *NamedExpr:
		inspectExpr(n.Value, f)
	}
}

func inspectStmts(stmts []Statement, f func(Node) bool) {
	for _, s := range stmts {
		if s != nil {
			Inspect(s, f)
		}
	}
}

func inspectExpr(e Expression, f func(Node) bool) {
	if e != nil {
		Inspect(e, f)
	}
}

func inspectExprs(exprs []Expression, f func(Node) bool) {
	for _, e := range exprs {
		inspectExpr(e, f)
	}
}

func inspectGenerators(gens []*Comprehension, f func(Node) bool) {
	for _, g := range gens {
		inspectExpr(g.Iter, f)
		inspectExpr(g.Target, f)
		inspectExprs(g.Ifs, f)
	}
}

func inspectPattern(p Pattern, f func(Node) bool) {
	switch pt := p.(type) {
	case *ValuePattern:
		inspectExpr(pt.Value, f)
	case *OrPattern:
		for _, alt := range pt.Alternatives {
			inspectPattern(alt, f)
		}
	}
}
