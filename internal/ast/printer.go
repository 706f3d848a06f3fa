package ast

import (
	"fmt"
	"strings"
)

// Print returns a tree-like string representation of the AST for debugging
func Print(node Node) string {
	var sb strings.Builder
	printNode(&sb, node, 0)
	return sb.String()
}

func printBody(sb *strings.Builder, label string, body []Statement, indent int) {
	if len(body) == 0 {
		return
	}
	sb.WriteString(strings.Repeat("  ", indent) + label + ":\n")
	for _, s := range body {
		printNode(sb, s, indent+1)
	}
}

func printNode(sb *strings.Builder, node Node, indent int) {
	if node == nil {
		return
	}

	prefix := strings.Repeat("  ", indent)

	switch n := node.(type) {
	case *Module:
		sb.WriteString(prefix + "Module\n")
		for _, s := range n.Body {
			printNode(sb, s, indent+1)
		}

	case *FunctionDef:
		modifiers := ""
		if n.IsAsync {
			modifiers = "async "
		}
		names := make([]string, len(n.Params))
		for i, p := range n.Params {
			names[i] = p.Name
			switch p.Kind {
			case ParamVarargs:
				names[i] = "*" + p.Name
			case ParamKwargs:
				names[i] = "**" + p.Name
			}
		}
		sb.WriteString(fmt.Sprintf("%s%sFunctionDef: %s(%s)\n", prefix, modifiers, n.Name, strings.Join(names, ", ")))
		for _, d := range n.Decorators {
			sb.WriteString(fmt.Sprintf("%s  @%s\n", prefix, ExprString(d)))
		}
		if n.Returns != nil {
			sb.WriteString(fmt.Sprintf("%s  Returns: %s\n", prefix, ExprString(n.Returns)))
		}
		printBody(sb, "Body", n.Body, indent+1)

	case *ClassDef:
		bases := make([]string, len(n.Bases))
		for i, b := range n.Bases {
			bases[i] = ExprString(b)
		}
		sb.WriteString(fmt.Sprintf("%sClassDef: %s(%s)\n", prefix, n.Name, strings.Join(bases, ", ")))
		printBody(sb, "Body", n.Body, indent+1)

	case *IfStmt:
		sb.WriteString(fmt.Sprintf("%sIf: %s\n", prefix, ExprString(n.Cond)))
		printBody(sb, "Then", n.Body, indent+1)
		printBody(sb, "Else", n.Orelse, indent+1)

	case *WhileStmt:
		sb.WriteString(fmt.Sprintf("%sWhile: %s\n", prefix, ExprString(n.Cond)))
		printBody(sb, "Body", n.Body, indent+1)

	case *ForStmt:
		sb.WriteString(fmt.Sprintf("%sFor: %s in %s\n", prefix, ExprString(n.Target), ExprString(n.Iter)))
		printBody(sb, "Body", n.Body, indent+1)
		printBody(sb, "Else", n.Orelse, indent+1)

	case *TryStmt:
		sb.WriteString(prefix + "Try\n")
		printBody(sb, "Body", n.Body, indent+1)
		for _, h := range n.Handlers {
			label := "Except"
			if h.Type != nil {
				label += " " + ExprString(h.Type)
			}
			if h.Name != "" {
				label += " as " + h.Name
			}
			printBody(sb, label, h.Body, indent+1)
		}
		printBody(sb, "Else", n.Orelse, indent+1)
		printBody(sb, "Finally", n.Finalbody, indent+1)

	case *WithStmt:
		items := make([]string, len(n.Items))
		for i, it := range n.Items {
			items[i] = ExprString(it.Context)
			if it.Target != nil {
				items[i] += " as " + ExprString(it.Target)
			}
		}
		sb.WriteString(fmt.Sprintf("%sWith: %s\n", prefix, strings.Join(items, ", ")))
		printBody(sb, "Body", n.Body, indent+1)

	case *MatchStmt:
		sb.WriteString(fmt.Sprintf("%sMatch: %s\n", prefix, ExprString(n.Subject)))
		for _, c := range n.Cases {
			printBody(sb, "Case", c.Body, indent+1)
		}

	case *AssignStmt:
		targets := make([]string, len(n.Targets))
		for i, t := range n.Targets {
			targets[i] = ExprString(t)
		}
		sb.WriteString(fmt.Sprintf("%sAssign: %s = %s\n", prefix, strings.Join(targets, " = "), ExprString(n.Value)))

	case *AnnAssignStmt:
		sb.WriteString(fmt.Sprintf("%sAnnAssign: %s: %s = %s\n", prefix, ExprString(n.Target), ExprString(n.Annotation), ExprString(n.Value)))

	case *AugAssignStmt:
		sb.WriteString(fmt.Sprintf("%sAugAssign: %s %s= %s\n", prefix, ExprString(n.Target), n.Op, ExprString(n.Value)))

	case *ReturnStmt:
		sb.WriteString(fmt.Sprintf("%sReturn: %s\n", prefix, ExprString(n.Value)))

	case *RaiseStmt:
		sb.WriteString(fmt.Sprintf("%sRaise: %s\n", prefix, ExprString(n.Exc)))

	case *ExprStmt:
		sb.WriteString(fmt.Sprintf("%sExpr: %s\n", prefix, ExprString(n.Value)))

	case *ImportStmt:
		for _, a := range n.Names {
			sb.WriteString(fmt.Sprintf("%sImport: %s\n", prefix, a.Name))
		}

	case *ImportFromStmt:
		names := make([]string, len(n.Names))
		for i, a := range n.Names {
			names[i] = a.Name
		}
		sb.WriteString(fmt.Sprintf("%sImportFrom: %s: %s\n", prefix, n.Module, strings.Join(names, ", ")))

	case *AssertStmt:
		sb.WriteString(fmt.Sprintf("%sAssert: %s\n", prefix, ExprString(n.Test)))

	case Statement:
		sb.WriteString(fmt.Sprintf("%s%T\n", prefix, n))

	case Expression:
		sb.WriteString(prefix + ExprString(n) + "\n")
	}
}

// ExprString renders an expression back to compact source form. It is used
// for debugging output and diagnostic messages.
func ExprString(e Expression) string {
	if e == nil {
		return ""
	}
	switch n := e.(type) {
	case *Name:
		return n.ID
	case *Constant:
		switch n.Kind {
		case ConstString:
			return fmt.Sprintf("%q", n.Value)
		case ConstBytes:
			return fmt.Sprintf("b%q", n.Value)
		case ConstNone:
			return "None"
		case ConstEllipsis:
			return "..."
		}
		return n.Value
	case *BinOp:
		return fmt.Sprintf("(%s %s %s)", ExprString(n.Left), n.Op, ExprString(n.Right))
	case *UnaryOp:
		if n.Op == "not" {
			return "(not " + ExprString(n.Operand) + ")"
		}
		return "(" + n.Op + ExprString(n.Operand) + ")"
	case *BoolOp:
		parts := make([]string, len(n.Values))
		for i, v := range n.Values {
			parts[i] = ExprString(v)
		}
		return "(" + strings.Join(parts, " "+n.Op+" ") + ")"
	case *Compare:
		var sb strings.Builder
		sb.WriteString("(" + ExprString(n.Left))
		for i, op := range n.Ops {
			sb.WriteString(" " + op + " " + ExprString(n.Comparators[i]))
		}
		sb.WriteString(")")
		return sb.String()
	case *Call:
		args := make([]string, 0, len(n.Args)+len(n.Keywords))
		for _, a := range n.Args {
			args = append(args, ExprString(a))
		}
		for _, k := range n.Keywords {
			if k.Arg == "" {
				args = append(args, "**"+ExprString(k.Value))
			} else {
				args = append(args, k.Arg+"="+ExprString(k.Value))
			}
		}
		return ExprString(n.Func) + "(" + strings.Join(args, ", ") + ")"
	case *Attribute:
		return ExprString(n.Value) + "." + n.Attr
	case *Subscript:
		return ExprString(n.Value) + "[" + ExprString(n.Index) + "]"
	case *SliceExpr:
		s := ExprString(n.Lower) + ":" + ExprString(n.Upper)
		if n.Step != nil {
			s += ":" + ExprString(n.Step)
		}
		return s
	case *ListExpr:
		return "[" + joinExprs(n.Elts) + "]"
	case *TupleExpr:
		return "(" + joinExprs(n.Elts) + ")"
	case *SetExpr:
		return "{" + joinExprs(n.Elts) + "}"
	case *DictExpr:
		parts := make([]string, len(n.Keys))
		for i := range n.Keys {
			if n.Keys[i] == nil {
				parts[i] = "**" + ExprString(n.Values[i])
				continue
			}
			parts[i] = ExprString(n.Keys[i]) + ": " + ExprString(n.Values[i])
		}
		return "{" + strings.Join(parts, ", ") + "}"
	case *ListComp:
		return "[" + ExprString(n.Elt) + generatorsString(n.Generators) + "]"
	case *SetComp:
		return "{" + ExprString(n.Elt) + generatorsString(n.Generators) + "}"
	case *GeneratorExp:
		return "(" + ExprString(n.Elt) + generatorsString(n.Generators) + ")"
	case *DictComp:
		return "{" + ExprString(n.Key) + ": " + ExprString(n.Value) + generatorsString(n.Generators) + "}"
	case *Lambda:
		names := make([]string, len(n.Params))
		for i, p := range n.Params {
			names[i] = p.Name
		}
		return "(lambda " + strings.Join(names, ", ") + ": " + ExprString(n.Body) + ")"
	case *FString:
		var sb strings.Builder
		sb.WriteString("f\"")
		for _, p := range n.Parts {
			if c, ok := p.(*Constant); ok {
				sb.WriteString(c.Value)
				continue
			}
			sb.WriteString("{" + ExprString(p) + "}")
		}
		sb.WriteString("\"")
		return sb.String()
	case *FormattedValue:
		return ExprString(n.Value)
	case *IfExp:
		return fmt.Sprintf("(%s if %s else %s)", ExprString(n.Body), ExprString(n.Test), ExprString(n.Orelse))
	case *Await:
		return "(await " + ExprString(n.Value) + ")"
	case *Yield:
		return "(yield " + ExprString(n.Value) + ")"
	case *Starred:
		if n.Double {
			return "**" + ExprString(n.Value)
		}
		return "*" + ExprString(n.Value)
	case *NamedExpr:
		return "(" + n.Target + " := " + ExprString(n.Value) + ")"
	}
	return fmt.Sprintf("<%T>", e)
}

func joinExprs(exprs []Expression) string {
	parts := make([]string, len(exprs))
	for i, e := range exprs {
		parts[i] = ExprString(e)
	}
	return strings.Join(parts, ", ")
}

func generatorsString(gens []*Comprehension) string {
	var sb strings.Builder
	for _, g := range gens {
		sb.WriteString(" for " + ExprString(g.Target) + " in " + ExprString(g.Iter))
		for _, cond := range g.Ifs {
			sb.WriteString(" if " + ExprString(cond))
		}
	}
	return sb.String()
}
