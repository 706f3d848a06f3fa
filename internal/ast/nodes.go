package ast

// Node is the base interface for all AST nodes
type Node interface {
	Pos() (line, col int)
}

// Statement nodes
type Statement interface {
	Node
	stmtNode()
}

// Expression nodes
type Expression interface {
	Node
	exprNode()
}

// Module represents a parsed source file
type Module struct {
	Body []Statement
}

func (m *Module) Pos() (int, int) {
	if len(m.Body) > 0 {
		return m.Body[0].Pos()
	}
	return 1, 1
}

// ---------------------------------------------------------------------------
// Statements
// ---------------------------------------------------------------------------

// ExprStmt represents an expression evaluated for its side effects
type ExprStmt struct {
	Value  Expression
	Line   int
	Column int
}

func (s *ExprStmt) Pos() (int, int) { return s.Line, s.Column }
func (s *ExprStmt) stmtNode()       {}

// AssignStmt represents: t1 = t2 = ... = value
type AssignStmt struct {
	Targets []Expression
	Value   Expression
	Line    int
	Column  int
}

func (s *AssignStmt) Pos() (int, int) { return s.Line, s.Column }
func (s *AssignStmt) stmtNode()       {}

// AnnAssignStmt represents: target: annotation [= value]
type AnnAssignStmt struct {
	Target     Expression
	Annotation Expression
	Value      Expression // nil when only declared
	Line       int
	Column     int
}

func (s *AnnAssignStmt) Pos() (int, int) { return s.Line, s.Column }
func (s *AnnAssignStmt) stmtNode()       {}

// AugAssignStmt represents: target op= value
type AugAssignStmt struct {
	Target Expression
	Op     string // "+", "-", "//", ...
	Value  Expression
	Line   int
	Column int
}

func (s *AugAssignStmt) Pos() (int, int) { return s.Line, s.Column }
func (s *AugAssignStmt) stmtNode()       {}

// ReturnStmt represents: return [value]
type ReturnStmt struct {
	Value  Expression
	Line   int
	Column int
}

func (s *ReturnStmt) Pos() (int, int) { return s.Line, s.Column }
func (s *ReturnStmt) stmtNode()       {}

// IfStmt represents an if/elif/else chain; elif is a nested IfStmt in Orelse
type IfStmt struct {
	Cond   Expression
	Body   []Statement
	Orelse []Statement
	Line   int
	Column int
}

func (s *IfStmt) Pos() (int, int) { return s.Line, s.Column }
func (s *IfStmt) stmtNode()       {}

// WhileStmt represents a while loop
type WhileStmt struct {
	Cond   Expression
	Body   []Statement
	Orelse []Statement
	Line   int
	Column int
}

func (s *WhileStmt) Pos() (int, int) { return s.Line, s.Column }
func (s *WhileStmt) stmtNode()       {}

// ForStmt represents: [async] for target in iter
type ForStmt struct {
	Target  Expression
	Iter    Expression
	Body    []Statement
	Orelse  []Statement
	IsAsync bool
	Line    int
	Column  int
}

func (s *ForStmt) Pos() (int, int) { return s.Line, s.Column }
func (s *ForStmt) stmtNode()       {}

// TryStmt represents try/except/else/finally
type TryStmt struct {
	Body      []Statement
	Handlers  []*ExceptHandler
	Orelse    []Statement
	Finalbody []Statement
	Line      int
	Column    int
}

func (s *TryStmt) Pos() (int, int) { return s.Line, s.Column }
func (s *TryStmt) stmtNode()       {}

// ExceptHandler represents: except [Type [as name]]:
type ExceptHandler struct {
	Type   Expression // nil for a bare except
	Name   string
	Body   []Statement
	Line   int
	Column int
}

func (h *ExceptHandler) Pos() (int, int) { return h.Line, h.Column }

// WithStmt represents: [async] with item, ...:
type WithStmt struct {
	Items   []*WithItem
	Body    []Statement
	IsAsync bool
	Line    int
	Column  int
}

func (s *WithStmt) Pos() (int, int) { return s.Line, s.Column }
func (s *WithStmt) stmtNode()       {}

// WithItem represents: context [as target]
type WithItem struct {
	Context Expression
	Target  Expression
}

// RaiseStmt represents: raise [exc [from cause]]
type RaiseStmt struct {
	Exc    Expression
	Cause  Expression
	Line   int
	Column int
}

func (s *RaiseStmt) Pos() (int, int) { return s.Line, s.Column }
func (s *RaiseStmt) stmtNode()       {}

// Alias represents: name [as asname]
type Alias struct {
	Name   string
	AsName string
}

// ImportStmt represents: import a.b [as c], ...
type ImportStmt struct {
	Names  []*Alias
	Line   int
	Column int
}

func (s *ImportStmt) Pos() (int, int) { return s.Line, s.Column }
func (s *ImportStmt) stmtNode()       {}

// ImportFromStmt represents: from [.]module import name [as alias], ...
type ImportFromStmt struct {
	Module string
	Names  []*Alias // a single "*" alias for star imports
	Level  int      // number of leading dots
	Line   int
	Column int
}

func (s *ImportFromStmt) Pos() (int, int) { return s.Line, s.Column }
func (s *ImportFromStmt) stmtNode()       {}

// ParamKind distinguishes positional, *args, **kwargs and keyword-only params
type ParamKind int

const (
	ParamPositional ParamKind = iota
	ParamVarargs
	ParamKwargs
	ParamKwOnly
)

// Param represents a function parameter
type Param struct {
	Name       string
	Annotation Expression
	Default    Expression
	Kind       ParamKind
	Line       int
	Column     int
}

func (p *Param) Pos() (int, int) { return p.Line, p.Column }

// FunctionDef represents: [async] def name(params) [-> returns]:
type FunctionDef struct {
	Name       string
	Params     []*Param
	Returns    Expression
	Body       []Statement
	Decorators []Expression
	IsAsync    bool
	Line       int
	Column     int
}

func (s *FunctionDef) Pos() (int, int) { return s.Line, s.Column }
func (s *FunctionDef) stmtNode()       {}

// ClassDef represents: class Name(bases, key=value):
type ClassDef struct {
	Name       string
	Bases      []Expression
	Keywords   []*Keyword
	Body       []Statement
	Decorators []Expression
	Line       int
	Column     int
}

func (s *ClassDef) Pos() (int, int) { return s.Line, s.Column }
func (s *ClassDef) stmtNode()       {}

// PassStmt represents pass
type PassStmt struct {
	Line   int
	Column int
}

func (s *PassStmt) Pos() (int, int) { return s.Line, s.Column }
func (s *PassStmt) stmtNode()       {}

// BreakStmt represents break
type BreakStmt struct {
	Line   int
	Column int
}

func (s *BreakStmt) Pos() (int, int) { return s.Line, s.Column }
func (s *BreakStmt) stmtNode()       {}

// ContinueStmt represents continue
type ContinueStmt struct {
	Line   int
	Column int
}

func (s *ContinueStmt) Pos() (int, int) { return s.Line, s.Column }
func (s *ContinueStmt) stmtNode()       {}

// GlobalStmt represents: global a, b
type GlobalStmt struct {
	Names  []string
	Line   int
	Column int
}

func (s *GlobalStmt) Pos() (int, int) { return s.Line, s.Column }
func (s *GlobalStmt) stmtNode()       {}

// NonlocalStmt represents: nonlocal a, b
type NonlocalStmt struct {
	Names  []string
	Line   int
	Column int
}

func (s *NonlocalStmt) Pos() (int, int) { return s.Line, s.Column }
func (s *NonlocalStmt) stmtNode()       {}

// DeleteStmt represents: del t1, t2
type DeleteStmt struct {
	Targets []Expression
	Line    int
	Column  int
}

func (s *DeleteStmt) Pos() (int, int) { return s.Line, s.Column }
func (s *DeleteStmt) stmtNode()       {}

// AssertStmt represents: assert test [, msg]
type AssertStmt struct {
	Test   Expression
	Msg    Expression
	Line   int
	Column int
}

func (s *AssertStmt) Pos() (int, int) { return s.Line, s.Column }
func (s *AssertStmt) stmtNode()       {}

// MatchStmt represents: match subject: case ...
type MatchStmt struct {
	Subject Expression
	Cases   []*MatchCase
	Line    int
	Column  int
}

func (s *MatchStmt) Pos() (int, int) { return s.Line, s.Column }
func (s *MatchStmt) stmtNode()       {}

// MatchCase represents: case pattern [if guard]:
type MatchCase struct {
	Pattern Pattern
	Guard   Expression
	Body    []Statement
	Line    int
	Column  int
}

// Pattern is a match-statement pattern
type Pattern interface {
	Node
	patternNode()
}

// ValuePattern matches a literal or dotted constant
type ValuePattern struct {
	Value  Expression
	Line   int
	Column int
}

func (p *ValuePattern) Pos() (int, int) { return p.Line, p.Column }
func (p *ValuePattern) patternNode()    {}

// CapturePattern binds the subject to Name; Name "_" is the wildcard
type CapturePattern struct {
	Name   string
	Line   int
	Column int
}

func (p *CapturePattern) Pos() (int, int) { return p.Line, p.Column }
func (p *CapturePattern) patternNode()    {}

// OrPattern represents: p1 | p2 | ...
type OrPattern struct {
	Alternatives []Pattern
	Line         int
	Column       int
}

func (p *OrPattern) Pos() (int, int) { return p.Line, p.Column }
func (p *OrPattern) patternNode()    {}

// OtherPattern is any pattern form the parser skipped over (sequence,
// mapping, class patterns). Kind names the form.
type OtherPattern struct {
	Kind   string
	Line   int
	Column int
}

func (p *OtherPattern) Pos() (int, int) { return p.Line, p.Column }
func (p *OtherPattern) patternNode()    {}

// ---------------------------------------------------------------------------
// Expressions
// ---------------------------------------------------------------------------

// Name represents an identifier reference
type Name struct {
	ID     string
	Line   int
	Column int
}

func (e *Name) Pos() (int, int) { return e.Line, e.Column }
func (e *Name) exprNode()       {}

// ConstantKind classifies literal constants
type ConstantKind int

const (
	ConstInt ConstantKind = iota
	ConstFloat
	ConstString
	ConstBytes
	ConstBool
	ConstNone
	ConstEllipsis
)

// Constant represents a literal. Value holds the literal text for numbers,
// the decoded text for strings and "True"/"False" for booleans.
type Constant struct {
	Kind   ConstantKind
	Value  string
	Line   int
	Column int
}

func (e *Constant) Pos() (int, int) { return e.Line, e.Column }
func (e *Constant) exprNode()       {}

// BinOp represents left op right
type BinOp struct {
	Left   Expression
	Op     string
	Right  Expression
	Line   int
	Column int
}

func (e *BinOp) Pos() (int, int) { return e.Line, e.Column }
func (e *BinOp) exprNode()       {}

// UnaryOp represents op operand ("-", "+", "~", "not")
type UnaryOp struct {
	Op      string
	Operand Expression
	Line    int
	Column  int
}

func (e *UnaryOp) Pos() (int, int) { return e.Line, e.Column }
func (e *UnaryOp) exprNode()       {}

// BoolOp represents a chain of "and" or "or"
type BoolOp struct {
	Op     string
	Values []Expression
	Line   int
	Column int
}

func (e *BoolOp) Pos() (int, int) { return e.Line, e.Column }
func (e *BoolOp) exprNode()       {}

// Compare represents left op1 c1 op2 c2 ...
type Compare struct {
	Left        Expression
	Ops         []string // "<", "==", "in", "not in", "is", "is not", ...
	Comparators []Expression
	Line        int
	Column      int
}

func (e *Compare) Pos() (int, int) { return e.Line, e.Column }
func (e *Compare) exprNode()       {}

// Keyword represents a keyword argument; Arg is empty for **expr
type Keyword struct {
	Arg   string
	Value Expression
}

// Call represents func(args, key=value)
type Call struct {
	Func     Expression
	Args     []Expression
	Keywords []*Keyword
	Line     int
	Column   int
}

func (e *Call) Pos() (int, int) { return e.Line, e.Column }
func (e *Call) exprNode()       {}

// Attribute represents value.attr
type Attribute struct {
	Value  Expression
	Attr   string
	Line   int
	Column int
}

func (e *Attribute) Pos() (int, int) { return e.Line, e.Column }
func (e *Attribute) exprNode()       {}

// Subscript represents value[index]
type Subscript struct {
	Value  Expression
	Index  Expression
	Line   int
	Column int
}

func (e *Subscript) Pos() (int, int) { return e.Line, e.Column }
func (e *Subscript) exprNode()       {}

// SliceExpr represents lower:upper:step inside a subscript
type SliceExpr struct {
	Lower  Expression
	Upper  Expression
	Step   Expression
	Line   int
	Column int
}

func (e *SliceExpr) Pos() (int, int) { return e.Line, e.Column }
func (e *SliceExpr) exprNode()       {}

// ListExpr represents [a, b, c]
type ListExpr struct {
	Elts   []Expression
	Line   int
	Column int
}

func (e *ListExpr) Pos() (int, int) { return e.Line, e.Column }
func (e *ListExpr) exprNode()       {}

// TupleExpr represents (a, b) or a bare a, b
type TupleExpr struct {
	Elts   []Expression
	Line   int
	Column int
}

func (e *TupleExpr) Pos() (int, int) { return e.Line, e.Column }
func (e *TupleExpr) exprNode()       {}

// SetExpr represents {a, b}
type SetExpr struct {
	Elts   []Expression
	Line   int
	Column int
}

func (e *SetExpr) Pos() (int, int) { return e.Line, e.Column }
func (e *SetExpr) exprNode()       {}

// DictExpr represents {k: v, ...}; a nil key marks a **spread entry
type DictExpr struct {
	Keys   []Expression
	Values []Expression
	Line   int
	Column int
}

func (e *DictExpr) Pos() (int, int) { return e.Line, e.Column }
func (e *DictExpr) exprNode()       {}

// Comprehension represents one "for target in iter if cond" clause
type Comprehension struct {
	Target  Expression
	Iter    Expression
	Ifs     []Expression
	IsAsync bool
}

// ListComp represents [elt for ...]
type ListComp struct {
	Elt        Expression
	Generators []*Comprehension
	Line       int
	Column     int
}

func (e *ListComp) Pos() (int, int) { return e.Line, e.Column }
func (e *ListComp) exprNode()       {}

// SetComp represents {elt for ...}
type SetComp struct {
	Elt        Expression
	Generators []*Comprehension
	Line       int
	Column     int
}

func (e *SetComp) Pos() (int, int) { return e.Line, e.Column }
func (e *SetComp) exprNode()       {}

// GeneratorExp represents (elt for ...)
type GeneratorExp struct {
	Elt        Expression
	Generators []*Comprehension
	Line       int
	Column     int
}

func (e *GeneratorExp) Pos() (int, int) { return e.Line, e.Column }
func (e *GeneratorExp) exprNode()       {}

// DictComp represents {key: value for ...}
type DictComp struct {
	Key        Expression
	Value      Expression
	Generators []*Comprehension
	Line       int
	Column     int
}

func (e *DictComp) Pos() (int, int) { return e.Line, e.Column }
func (e *DictComp) exprNode()       {}

// Lambda represents lambda params: body
type Lambda struct {
	Params []*Param
	Body   Expression
	Line   int
	Column int
}

func (e *Lambda) Pos() (int, int) { return e.Line, e.Column }
func (e *Lambda) exprNode()       {}

// FString represents an f-string; Parts are *Constant (string) and
// *FormattedValue
type FString struct {
	Parts  []Expression
	Line   int
	Column int
}

func (e *FString) Pos() (int, int) { return e.Line, e.Column }
func (e *FString) exprNode()       {}

// FormattedValue represents {value!conv:spec} inside an f-string
type FormattedValue struct {
	Value      Expression
	Conversion byte // 0, 'r', 's' or 'a'
	FormatSpec string
	Line       int
	Column     int
}

func (e *FormattedValue) Pos() (int, int) { return e.Line, e.Column }
func (e *FormattedValue) exprNode()       {}

// IfExp represents body if test else orelse
type IfExp struct {
	Test   Expression
	Body   Expression
	Orelse Expression
	Line   int
	Column int
}

func (e *IfExp) Pos() (int, int) { return e.Line, e.Column }
func (e *IfExp) exprNode()       {}

// Await represents await value
type Await struct {
	Value  Expression
	Line   int
	Column int
}

func (e *Await) Pos() (int, int) { return e.Line, e.Column }
func (e *Await) exprNode()       {}

// Yield represents yield [value]
type Yield struct {
	Value  Expression
	Line   int
	Column int
}

func (e *Yield) Pos() (int, int) { return e.Line, e.Column }
func (e *Yield) exprNode()       {}

// Starred represents *value (or **value inside a call)
type Starred struct {
	Value  Expression
	Double bool
	Line   int
	Column int
}

func (e *Starred) Pos() (int, int) { return e.Line, e.Column }
func (e *Starred) exprNode()       {}

// NamedExpr represents target := value
type NamedExpr struct {
	Target string
	Value  Expression
	Line   int
	Column int
}

func (e *NamedExpr) Pos() (int, int) { return e.Line, e.Column }
func (e *NamedExpr) exprNode()       {}
