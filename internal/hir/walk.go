package hir

// Inspect traverses the tree rooted at n in depth-first order, calling f for
// every node. When f returns false the node's children are skipped. Nested
// function and class bodies are visited; callers that treat them as separate
// scopes return false for *FunctionDef and *ClassDef.
func Inspect(n Node, f func(Node) bool) {
	if n == nil || !f(n) {
		return
	}
	switch n := n.(type) {
	// Expressions
	case *Binary:
		inspectExprs(f, n.Left, n.Right)
	case *Unary:
		Inspect(n.Operand, f)
	case *Compare:
		Inspect(n.Left, f)
		inspectExprs(f, n.Comparators...)
	case *BoolOp:
		inspectExprs(f, n.Values...)
	case *Call:
		if n.Callee != nil {
			Inspect(n.Callee, f)
		}
		inspectExprs(f, n.Args...)
		inspectKwargs(f, n.Kwargs)
	case *MethodCall:
		Inspect(n.Recv, f)
		inspectExprs(f, n.Args...)
		inspectKwargs(f, n.Kwargs)
	case *Attribute:
		Inspect(n.Recv, f)
	case *Index:
		inspectExprs(f, n.Recv, n.Key)
	case *Slice:
		inspectExprs(f, n.Recv, n.Lo, n.Hi, n.Step)
	case *ListLit:
		inspectExprs(f, n.Elems...)
	case *SetLit:
		inspectExprs(f, n.Elems...)
	case *TupleLit:
		inspectExprs(f, n.Elems...)
	case *DictLit:
		inspectExprs(f, n.Keys...)
		inspectExprs(f, n.Values...)
	case *Comprehension:
		for _, g := range n.Generators {
			inspectExprs(f, g.Iter, g.Target)
			inspectExprs(f, g.Filters...)
		}
		inspectExprs(f, n.Key, n.Element)
	case *Lambda:
		Inspect(n.Body, f)
	case *FString:
		for _, p := range n.Parts {
			if p.Expr != nil {
				Inspect(p.Expr, f)
			}
		}
	case *IfExpr:
		inspectExprs(f, n.Cond, n.Then, n.Else)
	case *Await:
		Inspect(n.Value, f)
	case *Yield:
		if n.Value != nil {
			Inspect(n.Value, f)
		}
	case *Starred:
		Inspect(n.Value, f)
	case *NamedExpr:
		Inspect(n.Value, f)

	// Statements
	case *Assign:
		inspectExprs(f, n.Value, n.Target)
	case *AugAssign:
		inspectExprs(f, n.Value, n.Target)
	case *Return:
		inspectExprs(f, n.Value)
	case *If:
		Inspect(n.Cond, f)
		InspectStmts(n.Body, f)
		InspectStmts(n.Else, f)
	case *While:
		Inspect(n.Cond, f)
		InspectStmts(n.Body, f)
		InspectStmts(n.Else, f)
	case *For:
		inspectExprs(f, n.Iter, n.Target)
		InspectStmts(n.Body, f)
		InspectStmts(n.Else, f)
	case *Try:
		InspectStmts(n.Body, f)
		for _, h := range n.Handlers {
			InspectStmts(h.Body, f)
		}
		InspectStmts(n.Else, f)
		InspectStmts(n.Finally, f)
	case *With:
		for _, it := range n.Items {
			inspectExprs(f, it.Context, it.Target)
		}
		InspectStmts(n.Body, f)
	case *Raise:
		inspectExprs(f, n.Exc, n.Cause)
	case *FunctionDef:
		InspectStmts(n.Func.Body, f)
	case *ClassDef:
		for _, m := range n.Class.Methods {
			InspectStmts(m.Body, f)
		}
	case *Delete:
		inspectExprs(f, n.Targets...)
	case *Assert:
		inspectExprs(f, n.Test, n.Msg)
	case *ExprStmt:
		Inspect(n.Value, f)
	}
}

// InspectStmts calls Inspect on each statement
func InspectStmts(stmts []Stmt, f func(Node) bool) {
	for _, s := range stmts {
		Inspect(s, f)
	}
}

func inspectExprs(f func(Node) bool, exprs ...Expr) {
	for _, e := range exprs {
		if e != nil {
			Inspect(e, f)
		}
	}
}

func inspectKwargs(f func(Node) bool, kwargs []*Kwarg) {
	for _, kw := range kwargs {
		Inspect(kw.Value, f)
	}
}

// Names returns the variable names bound by an assignment target
func Names(target Expr) []string {
	switch t := target.(type) {
	case *Var:
		return []string{t.Name}
	case *TupleLit:
		var out []string
		for _, e := range t.Elems {
			out = append(out, Names(e)...)
		}
		return out
	case *ListLit:
		var out []string
		for _, e := range t.Elems {
			out = append(out, Names(e)...)
		}
		return out
	case *Starred:
		return Names(t.Value)
	}
	return nil
}

// RootVar returns the variable at the root of an attribute/index chain
// (xs in xs[i].a), or "" when the chain does not start at a variable
func RootVar(e Expr) string {
	for {
		switch n := e.(type) {
		case *Var:
			return n.Name
		case *Attribute:
			e = n.Recv
		case *Index:
			e = n.Recv
		case *Slice:
			e = n.Recv
		default:
			return ""
		}
	}
}

// Uses reports whether name is referenced anywhere in n
func Uses(n Node, name string) bool {
	found := false
	Inspect(n, func(c Node) bool {
		if found {
			return false
		}
		if v, ok := c.(*Var); ok && v.Name == name {
			found = true
		}
		return !found
	})
	return found
}

// ContainsYield reports whether stmts yield, not counting nested functions,
// lambdas and classes
func ContainsYield(stmts ...Stmt) bool {
	found := false
	InspectStmts(stmts, func(n Node) bool {
		switch n.(type) {
		case *FunctionDef, *ClassDef, *Lambda:
			return false
		case *Yield:
			found = true
		}
		return !found
	})
	return found
}
