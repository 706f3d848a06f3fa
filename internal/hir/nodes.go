package hir

// Span is a source position
type Span struct {
	Line   int
	Column int
}

// Meta carries the optional source span every HIR node embeds
type Meta struct {
	Span *Span
}

// Loc returns the node's line and column, or 0, 0 when the node is synthetic
func (m Meta) Loc() (int, int) {
	if m.Span == nil {
		return 0, 0
	}
	return m.Span.Line, m.Span.Column
}

// At builds a Meta for the given position
func At(line, col int) Meta {
	return Meta{Span: &Span{Line: line, Column: col}}
}

// Node is implemented by every HIR expression and statement
type Node interface {
	Loc() (line, col int)
}

// Expr is an HIR expression
type Expr interface {
	Node
	exprNode()
}

// Stmt is an HIR statement
type Stmt interface {
	Node
	stmtNode()
}

// BinOp is a binary arithmetic or bitwise operator
type BinOp string

const (
	Add      BinOp = "+"
	Sub      BinOp = "-"
	Mul      BinOp = "*"
	Div      BinOp = "/"
	FloorDiv BinOp = "//"
	Mod      BinOp = "%"
	Pow      BinOp = "**"
	MatMul   BinOp = "@"
	BitAnd   BinOp = "&"
	BitOr    BinOp = "|"
	BitXor   BinOp = "^"
	LShift   BinOp = "<<"
	RShift   BinOp = ">>"
)

// CmpOp is a comparison operator
type CmpOp string

const (
	Eq    CmpOp = "=="
	NotEq CmpOp = "!="
	Lt    CmpOp = "<"
	LtE   CmpOp = "<="
	Gt    CmpOp = ">"
	GtE   CmpOp = ">="
	In    CmpOp = "in"
	NotIn CmpOp = "not in"
	Is    CmpOp = "is"
	IsNot CmpOp = "is not"
)

// UnaryOp is a prefix operator
type UnaryOp string

const (
	Neg    UnaryOp = "-"
	UPlus  UnaryOp = "+"
	Not    UnaryOp = "not"
	Invert UnaryOp = "~"
)

// LitKind classifies literals
type LitKind int

const (
	LitInt LitKind = iota
	LitFloat
	LitString
	LitBytes
	LitBool
	LitNone
)

// ---------------------------------------------------------------------------
// Expressions
// ---------------------------------------------------------------------------

// Literal is a constant. Value holds the source text for numbers, the decoded
// text for strings and "True"/"False" for booleans.
type Literal struct {
	Meta
	Kind  LitKind
	Value string
}

// Var is a name reference
type Var struct {
	Meta
	Name string
}

// Binary is l op r
type Binary struct {
	Meta
	Op    BinOp
	Left  Expr
	Right Expr
}

// Unary is op e
type Unary struct {
	Meta
	Op      UnaryOp
	Operand Expr
}

// Compare is a comparison chain: Left Ops[0] Comparators[0] Ops[1] ...
type Compare struct {
	Meta
	Left        Expr
	Ops         []CmpOp
	Comparators []Expr
}

// BoolOp is a chain of "and" or "or"
type BoolOp struct {
	Meta
	And    bool
	Values []Expr
}

// Kwarg is a keyword argument
type Kwarg struct {
	Name  string
	Value Expr
}

// Call is a call of a named function, or of Callee when the callee is not a
// plain name
type Call struct {
	Meta
	Func   string
	Callee Expr
	Args   []Expr
	Kwargs []*Kwarg
}

// MethodCall is recv.method(args)
type MethodCall struct {
	Meta
	Recv   Expr
	Method string
	Args   []Expr
	Kwargs []*Kwarg
}

// Attribute is recv.name
type Attribute struct {
	Meta
	Recv Expr
	Name string
}

// Index is recv[key]
type Index struct {
	Meta
	Recv Expr
	Key  Expr
}

// Slice is recv[lo:hi:step]; absent bounds are nil
type Slice struct {
	Meta
	Recv Expr
	Lo   Expr
	Hi   Expr
	Step Expr
}

// ListLit is [a, b]
type ListLit struct {
	Meta
	Elems []Expr
}

// SetLit is {a, b}
type SetLit struct {
	Meta
	Elems []Expr
}

// TupleLit is (a, b)
type TupleLit struct {
	Meta
	Elems []Expr
}

// DictLit is {k: v}
type DictLit struct {
	Meta
	Keys   []Expr
	Values []Expr
}

// CompKind is the container a comprehension builds
type CompKind int

const (
	CompList CompKind = iota
	CompSet
	CompDict
	CompGenerator
)

// Generator is one "for target in iter if filter..." clause
type Generator struct {
	Target  Expr
	Iter    Expr
	Filters []Expr
}

// Comprehension is a list, set, dict or generator comprehension. Key is set
// for dict comprehensions only.
type Comprehension struct {
	Meta
	Kind       CompKind
	Generators []*Generator
	Element    Expr
	Key        Expr
}

// Lambda is lambda params: body
type Lambda struct {
	Meta
	Params []string
	Body   Expr
}

// FPart is one part of an f-string: a literal when Expr is nil
type FPart struct {
	Literal    string
	Expr       Expr
	Conversion byte
	Spec       string
}

// FString is an f-string decomposed into parts
type FString struct {
	Meta
	Parts []FPart
}

// IfExpr is then if cond else else
type IfExpr struct {
	Meta
	Cond Expr
	Then Expr
	Else Expr
}

// Await is await e
type Await struct {
	Meta
	Value Expr
}

// Yield is yield e
type Yield struct {
	Meta
	Value Expr
}

// Starred is *e
type Starred struct {
	Meta
	Value Expr
}

// NamedExpr is target := value
type NamedExpr struct {
	Meta
	Target string
	Value  Expr
}

func (*Literal) exprNode()       {}
func (*Var) exprNode()           {}
func (*Binary) exprNode()        {}
func (*Unary) exprNode()         {}
func (*Compare) exprNode()       {}
func (*BoolOp) exprNode()        {}
func (*Call) exprNode()          {}
func (*MethodCall) exprNode()    {}
func (*Attribute) exprNode()     {}
func (*Index) exprNode()         {}
func (*Slice) exprNode()         {}
func (*ListLit) exprNode()       {}
func (*SetLit) exprNode()        {}
func (*TupleLit) exprNode()      {}
func (*DictLit) exprNode()       {}
func (*Comprehension) exprNode() {}
func (*Lambda) exprNode()        {}
func (*FString) exprNode()       {}
func (*IfExpr) exprNode()        {}
func (*Await) exprNode()         {}
func (*Yield) exprNode()         {}
func (*Starred) exprNode()       {}
func (*NamedExpr) exprNode()     {}

// ---------------------------------------------------------------------------
// Statements
// ---------------------------------------------------------------------------

// Assign binds Value to Target. Tuple unpacking uses a TupleLit target.
// Value is nil for a bare annotated declaration.
type Assign struct {
	Meta
	Target     Expr
	Value      Expr
	Annotation *Type
}

// AugAssign is target op= value
type AugAssign struct {
	Meta
	Target Expr
	Op     BinOp
	Value  Expr
}

// Return is return [value]
type Return struct {
	Meta
	Value Expr
}

// If is if cond: body else: else
type If struct {
	Meta
	Cond Expr
	Body []Stmt
	Else []Stmt
}

// While is while cond: body else: else
type While struct {
	Meta
	Cond Expr
	Body []Stmt
	Else []Stmt
}

// For is for target in iter: body else: else
type For struct {
	Meta
	Target  Expr
	Iter    Expr
	Body    []Stmt
	Else    []Stmt
	IsAsync bool
}

// Handler is one except clause. Types is empty for a catch-all.
type Handler struct {
	Meta
	Types []string
	Name  string
	Body  []Stmt
}

// Try is try/except/else/finally
type Try struct {
	Meta
	Body     []Stmt
	Handlers []*Handler
	Else     []Stmt
	Finally  []Stmt
}

// WithItem is context [as target]
type WithItem struct {
	Context Expr
	Target  Expr
}

// With is with items: body
type With struct {
	Meta
	Items   []*WithItem
	Body    []Stmt
	IsAsync bool
}

// Raise is raise [exc [from cause]]
type Raise struct {
	Meta
	Exc   Expr
	Cause Expr
}

// ImportItem is one name of a from-import
type ImportItem struct {
	Name  string
	Alias string
}

// Import is "import Module [as Alias]" when Items is empty, else
// "from Module import Items"
type Import struct {
	Meta
	Module string
	Alias  string
	Items  []ImportItem
	Level  int
}

// ClassDef is a class defined inside a function body
type ClassDef struct {
	Meta
	Class *Class
}

// FunctionDef is a function defined inside another function body
type FunctionDef struct {
	Meta
	Func *Function
}

// Pass is pass
type Pass struct{ Meta }

// Break is break
type Break struct{ Meta }

// Continue is continue
type Continue struct{ Meta }

// Global is global names
type Global struct {
	Meta
	Names []string
}

// Nonlocal is nonlocal names
type Nonlocal struct {
	Meta
	Names []string
}

// Delete is del targets
type Delete struct {
	Meta
	Targets []Expr
}

// Assert is assert test [, msg]
type Assert struct {
	Meta
	Test Expr
	Msg  Expr
}

// ExprStmt is an expression evaluated for its effect
type ExprStmt struct {
	Meta
	Value Expr
}

func (*Assign) stmtNode()      {}
func (*AugAssign) stmtNode()   {}
func (*Return) stmtNode()      {}
func (*If) stmtNode()          {}
func (*While) stmtNode()       {}
func (*For) stmtNode()         {}
func (*Try) stmtNode()         {}
func (*With) stmtNode()        {}
func (*Raise) stmtNode()       {}
func (*Import) stmtNode()      {}
func (*ClassDef) stmtNode()    {}
func (*FunctionDef) stmtNode() {}
func (*Pass) stmtNode()        {}
func (*Break) stmtNode()       {}
func (*Continue) stmtNode()    {}
func (*Global) stmtNode()      {}
func (*Nonlocal) stmtNode()    {}
func (*Delete) stmtNode()      {}
func (*Assert) stmtNode()      {}
func (*ExprStmt) stmtNode()    {}
