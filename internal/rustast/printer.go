package rustast

import (
	"strings"
)

// Print renders a file as Rust source. The printer only indents; it does
// not reflow long lines.
func Print(f *File) string {
	p := &printer{}
	for _, h := range f.Header {
		p.line("// " + h)
	}
	for _, a := range f.Attrs {
		p.line("#![" + a + "]")
	}
	if len(f.Header) > 0 || len(f.Attrs) > 0 {
		p.line("")
	}
	for i, it := range f.Items {
		if i > 0 && !(isUse(it) && isUse(f.Items[i-1])) {
			p.line("")
		}
		p.item(it)
	}
	return p.sb.String()
}

func isUse(it Item) bool {
	_, ok := it.(*Use)
	return ok
}

// RenderExpr renders one expression
func RenderExpr(e Expr) string {
	p := &printer{}
	p.expr(e, 0)
	return p.sb.String()
}

// RenderOperand renders e so that it can be used as a method receiver or an
// operand without changing its meaning
func RenderOperand(e Expr) string {
	p := &printer{}
	p.expr(e, precPostfix)
	return p.sb.String()
}

// RenderType renders a type
func RenderType(t Type) string {
	if t == nil {
		return "()"
	}
	switch n := t.(type) {
	case *PathType:
		if len(n.Args) == 0 {
			return n.Name
		}
		args := make([]string, len(n.Args))
		for i, a := range n.Args {
			args[i] = RenderType(a)
		}
		return n.Name + "<" + strings.Join(args, ", ") + ">"
	case *RefType:
		if n.Mut {
			return "&mut " + RenderType(n.Elem)
		}
		return "&" + RenderType(n.Elem)
	case *TupleType:
		elems := make([]string, len(n.Elems))
		for i, e := range n.Elems {
			elems[i] = RenderType(e)
		}
		if len(elems) == 1 {
			return "(" + elems[0] + ",)"
		}
		return "(" + strings.Join(elems, ", ") + ")"
	case *SliceType:
		return "[" + RenderType(n.Elem) + "]"
	case *InferType:
		return "_"
	}
	return "()"
}

// RenderItem renders one item
func RenderItem(it Item) string {
	p := &printer{}
	p.item(it)
	return p.sb.String()
}

type printer struct {
	sb     strings.Builder
	indent int
}

func (p *printer) write(s string) {
	p.sb.WriteString(s)
}

func (p *printer) pad() {
	p.sb.WriteString(strings.Repeat("    ", p.indent))
}

func (p *printer) line(s string) {
	if s == "" {
		p.sb.WriteString("\n")
		return
	}
	p.pad()
	p.sb.WriteString(s)
	p.sb.WriteString("\n")
}

// --- Items ---

func (p *printer) doc(doc string) {
	if doc == "" {
		return
	}
	for _, l := range strings.Split(strings.TrimSpace(doc), "\n") {
		l = strings.TrimRight(l, " \t")
		if l == "" {
			p.line("///")
		} else {
			p.line("/// " + strings.TrimSpace(l))
		}
	}
}

func (p *printer) attrs(attrs []string) {
	for _, a := range attrs {
		p.line("#[" + a + "]")
	}
}

func vis(pub bool) string {
	if pub {
		return "pub "
	}
	return ""
}

func (p *printer) item(it Item) {
	switch n := it.(type) {
	case *Fn:
		p.fn(n)
	case *Struct:
		p.doc(n.Doc)
		p.attrs(n.Attrs)
		if len(n.Fields) == 0 {
			p.line(vis(n.Pub) + "struct " + n.Name + " {}")
			return
		}
		p.line(vis(n.Pub) + "struct " + n.Name + " {")
		p.indent++
		p.fields(n.Fields)
		p.indent--
		p.line("}")
	case *Enum:
		p.doc(n.Doc)
		p.attrs(n.Attrs)
		p.line(vis(n.Pub) + "enum " + n.Name + " {")
		p.indent++
		for _, v := range n.Variants {
			p.attrs(v.Attrs)
			switch {
			case len(v.Named) > 0:
				p.line(v.Name + " {")
				p.indent++
				p.fields(v.Named)
				p.indent--
				p.line("},")
			case len(v.Fields) > 0:
				types := make([]string, len(v.Fields))
				for i, t := range v.Fields {
					types[i] = RenderType(t)
				}
				p.line(v.Name + "(" + strings.Join(types, ", ") + "),")
			default:
				p.line(v.Name + ",")
			}
		}
		p.indent--
		p.line("}")
	case *Impl:
		head := "impl" + n.Generics + " "
		if n.Trait != "" {
			head += n.Trait + " for "
		}
		p.line(head + RenderType(n.For) + " {")
		p.indent++
		for i, m := range n.Items {
			if i > 0 {
				p.line("")
			}
			p.item(m)
		}
		p.indent--
		p.line("}")
	case *Const:
		p.pad()
		p.write(vis(n.Pub) + "const " + n.Name + ": " + RenderType(n.Type) + " = ")
		p.expr(n.Value, 0)
		p.write(";\n")
	case *Static:
		p.pad()
		p.write(vis(n.Pub) + "static " + n.Name + ": " + RenderType(n.Type) + " = ")
		p.expr(n.Value, 0)
		p.write(";\n")
	case *Use:
		p.line("use " + n.Path + ";")
	case *RawItem:
		for _, l := range strings.Split(strings.TrimRight(n.Text, "\n"), "\n") {
			p.line(l)
		}
	}
}

func (p *printer) fields(fields []StructField) {
	for _, f := range fields {
		p.doc(f.Doc)
		p.attrs(f.Attrs)
		p.line(vis(f.Pub) + f.Name + ": " + RenderType(f.Type) + ",")
	}
}

func (p *printer) fn(f *Fn) {
	p.doc(f.Doc)
	p.attrs(f.Attrs)
	p.pad()
	p.write(vis(f.Pub))
	if f.Async {
		p.write("async ")
	}
	p.write("fn " + f.Name + f.Generics + "(")
	var params []string
	if f.Receiver != "" {
		params = append(params, f.Receiver)
	}
	for _, prm := range f.Params {
		params = append(params, prm.Pattern+": "+RenderType(prm.Type))
	}
	p.write(strings.Join(params, ", ") + ")")
	if !IsUnit(f.Ret) {
		p.write(" -> " + RenderType(f.Ret))
	}
	p.write(" ")
	body := f.Body
	if body == nil {
		body = &Block{}
	}
	p.block(body)
	p.write("\n")
}

// --- Blocks and statements ---

func (p *printer) block(b *Block) {
	if len(b.Stmts) == 0 && b.Tail == nil {
		p.write("{}")
		return
	}
	p.write("{\n")
	p.indent++
	for _, s := range b.Stmts {
		switch n := s.(type) {
		case *ItemStmt:
			p.item(n.Item)
			continue
		case *Comment:
			p.line("// " + n.Text)
			continue
		}
		p.pad()
		p.stmt(s)
		p.write("\n")
	}
	if b.Tail != nil {
		p.pad()
		p.expr(b.Tail, 0)
		p.write("\n")
	}
	p.indent--
	p.pad()
	p.write("}")
}

func (p *printer) stmt(s Stmt) {
	switch n := s.(type) {
	case *Let:
		p.write("let ")
		if n.Mut {
			p.write("mut ")
		}
		p.write(n.Pattern)
		if n.Type != nil {
			p.write(": " + RenderType(n.Type))
		}
		if n.Value != nil {
			p.write(" = ")
			p.expr(n.Value, 0)
		}
		if n.Else != nil {
			p.write(" else ")
			p.block(n.Else)
		}
		p.write(";")
	case *ExprStmt:
		p.expr(n.X, 0)
		if !IsBlockLike(n.X) {
			p.write(";")
		}
	}
}

// --- Expressions ---

const (
	precLowest  = 0
	precAssign  = 1
	precRange   = 2
	precOr      = 3
	precAnd     = 4
	precCompare = 5
	precBitOr   = 6
	precBitXor  = 7
	precBitAnd  = 8
	precShift   = 9
	precAdd     = 10
	precMul     = 11
	precCast    = 12
	precUnary   = 13
	precPostfix = 14
	precAtom    = 15
)

func binaryPrec(op string) int {
	switch op {
	case "||":
		return precOr
	case "&&":
		return precAnd
	case "==", "!=", "<", ">", "<=", ">=":
		return precCompare
	case "|":
		return precBitOr
	case "^":
		return precBitXor
	case "&":
		return precBitAnd
	case "<<", ">>":
		return precShift
	case "+", "-":
		return precAdd
	case "*", "/", "%":
		return precMul
	}
	return precLowest
}

func prec(e Expr) int {
	switch n := e.(type) {
	case *Binary:
		return binaryPrec(n.Op)
	case *Unary, *Borrow, *Deref:
		return precUnary
	case *Cast:
		return precCast
	case *Range:
		return precRange
	case *Assign:
		return precAssign
	case *Closure, *Return, *Break, *Continue:
		return precLowest
	case *Lit:
		if strings.HasPrefix(n.Text, "-") {
			return precUnary
		}
	case *Raw:
		return rawPrec(n.Text)
	}
	return precAtom
}

// rawPrec classifies template text: atomic unless it has a top-level space
// or starts with a prefix operator
func rawPrec(text string) int {
	depth := 0
	inStr := false
	for i := 0; i < len(text); i++ {
		c := text[i]
		if inStr {
			if c == '\\' {
				i++
			} else if c == '"' {
				inStr = false
			}
			continue
		}
		switch c {
		case '"':
			inStr = true
		case '(', '[', '{':
			depth++
		case ')', ']', '}':
			depth--
		case ' ':
			if depth == 0 {
				return precLowest
			}
		}
	}
	if text != "" && strings.ContainsRune("&!-*", rune(text[0])) {
		return precUnary
	}
	return precAtom
}

func (p *printer) exprs(list []Expr) {
	for i, e := range list {
		if i > 0 {
			p.write(", ")
		}
		p.expr(e, 0)
	}
}

// expr prints e, parenthesized when its precedence is below min
func (p *printer) expr(e Expr, min int) {
	if e == nil {
		p.write("()")
		return
	}
	if prec(e) < min {
		p.write("(")
		p.expr(e, 0)
		p.write(")")
		return
	}
	switch n := e.(type) {
	case *Lit:
		p.write(n.Text)
	case *Ident:
		p.write(n.Name)
	case *Raw:
		p.write(n.Text)
	case *Binary:
		pr := binaryPrec(n.Op)
		left := pr
		if pr == precCompare {
			left = pr + 1
		}
		if _, ok := n.L.(*Cast); ok && (n.Op == "<" || n.Op == "<<") {
			left = precAtom
		}
		p.expr(n.L, left)
		p.write(" " + n.Op + " ")
		p.expr(n.R, pr+1)
	case *Unary:
		p.write(n.Op)
		p.expr(n.X, precUnary)
	case *Borrow:
		if n.Mut {
			p.write("&mut ")
		} else {
			p.write("&")
		}
		p.expr(n.X, precUnary)
	case *Deref:
		p.write("*")
		p.expr(n.X, precUnary)
	case *Paren:
		p.write("(")
		p.expr(n.X, 0)
		p.write(")")
	case *Cast:
		p.expr(n.X, precCast)
		p.write(" as " + RenderType(n.Type))
	case *Call:
		p.expr(n.Func, precPostfix)
		p.write("(")
		p.exprs(n.Args)
		p.write(")")
	case *MethodCall:
		p.expr(n.Recv, precPostfix)
		p.write("." + n.Method)
		if len(n.Turbofish) > 0 {
			types := make([]string, len(n.Turbofish))
			for i, t := range n.Turbofish {
				types[i] = RenderType(t)
			}
			p.write("::<" + strings.Join(types, ", ") + ">")
		}
		p.write("(")
		p.exprs(n.Args)
		p.write(")")
	case *Field:
		p.expr(n.Recv, precPostfix)
		p.write("." + n.Name)
	case *Index:
		p.expr(n.Recv, precPostfix)
		p.write("[")
		p.expr(n.Index, 0)
		p.write("]")
	case *Macro:
		open, close := "(", ")"
		if n.Bracket {
			open, close = "[", "]"
		}
		p.write(n.Name + "!" + open)
		p.exprs(n.Args)
		p.write(close)
	case *Closure:
		if n.Move {
			p.write("move ")
		}
		p.write("|" + strings.Join(n.Params, ", ") + "| ")
		p.expr(n.Body, 0)
	case *Tuple:
		p.write("(")
		p.exprs(n.Elems)
		if len(n.Elems) == 1 {
			p.write(",")
		}
		p.write(")")
	case *StructLit:
		if len(n.Fields) == 0 && n.Rest == nil {
			p.write(n.Name + " {}")
			return
		}
		p.write(n.Name + " { ")
		for i, f := range n.Fields {
			if i > 0 {
				p.write(", ")
			}
			if id, ok := f.Value.(*Ident); ok && id.Name == f.Name {
				p.write(f.Name)
				continue
			}
			p.write(f.Name + ": ")
			p.expr(f.Value, 0)
		}
		if n.Rest != nil {
			if len(n.Fields) > 0 {
				p.write(", ")
			}
			p.write("..")
			p.expr(n.Rest, precPostfix)
		}
		p.write(" }")
	case *Range:
		if n.Lo != nil {
			p.expr(n.Lo, precRange+1)
		}
		if n.Inclusive {
			p.write("..=")
		} else {
			p.write("..")
		}
		if n.Hi != nil {
			p.expr(n.Hi, precRange+1)
		}
	case *Try:
		p.expr(n.X, precPostfix)
		p.write("?")
	case *Await:
		p.expr(n.X, precPostfix)
		p.write(".await")
	case *BlockExpr:
		if n.Label != "" {
			p.write("'" + n.Label + ": ")
		}
		p.block(n.Block)
	case *If:
		p.write("if ")
		p.expr(n.Cond, 0)
		p.write(" ")
		p.block(n.Then)
		p.elseBranch(n.Else)
	case *IfLet:
		p.write("if let " + n.Pattern + " = ")
		p.expr(n.Value, 0)
		p.write(" ")
		p.block(n.Then)
		p.elseBranch(n.Else)
	case *Match:
		p.write("match ")
		p.expr(n.Subject, 0)
		p.write(" {\n")
		p.indent++
		for _, arm := range n.Arms {
			p.pad()
			p.write(arm.Pattern)
			if arm.Guard != nil {
				p.write(" if ")
				p.expr(arm.Guard, 0)
			}
			p.write(" => ")
			p.expr(arm.Body, 0)
			if _, ok := arm.Body.(*BlockExpr); !ok {
				p.write(",")
			}
			p.write("\n")
		}
		p.indent--
		p.pad()
		p.write("}")
	case *While:
		p.label(n.Label)
		p.write("while ")
		p.expr(n.Cond, 0)
		p.write(" ")
		p.block(n.Body)
	case *WhileLet:
		p.label(n.Label)
		p.write("while let " + n.Pattern + " = ")
		p.expr(n.Value, 0)
		p.write(" ")
		p.block(n.Body)
	case *Loop:
		p.label(n.Label)
		p.write("loop ")
		p.block(n.Body)
	case *For:
		p.label(n.Label)
		p.write("for " + n.Pattern + " in ")
		p.expr(n.Iter, 0)
		p.write(" ")
		p.block(n.Body)
	case *Return:
		p.write("return")
		if n.Value != nil {
			p.write(" ")
			p.expr(n.Value, 0)
		}
	case *Break:
		p.write("break")
		if n.Label != "" {
			p.write(" '" + n.Label)
		}
		if n.Value != nil {
			p.write(" ")
			p.expr(n.Value, 0)
		}
	case *Continue:
		p.write("continue")
		if n.Label != "" {
			p.write(" '" + n.Label)
		}
	case *Assign:
		p.expr(n.Target, precUnary)
		p.write(" " + n.Op + " ")
		p.expr(n.Value, 0)
	}
}

func (p *printer) label(l string) {
	if l != "" {
		p.write("'" + l + ": ")
	}
}

func (p *printer) elseBranch(e Expr) {
	if e == nil {
		return
	}
	p.write(" else ")
	switch n := e.(type) {
	case *BlockExpr:
		p.block(n.Block)
	case *If, *IfLet:
		p.expr(n, 0)
	default:
		p.block(&Block{Tail: e})
	}
}
