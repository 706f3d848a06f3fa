// Package rustast is the Rust syntax tree the code generator builds. It
// models the item, statement and expression forms the generator emits; rule
// templates from the registry travel as Raw expressions.
package rustast

// ---------------------------------------------------------------------------
// Types
// ---------------------------------------------------------------------------

// Type is a Rust type
type Type interface {
	typeNode()
}

// PathType is a named type with optional generic arguments: Vec<i32>
type PathType struct {
	Name string
	Args []Type
}

// RefType is &T or &mut T
type RefType struct {
	Mut  bool
	Elem Type
}

// TupleType is (A, B); the empty tuple is unit
type TupleType struct {
	Elems []Type
}

// SliceType is [T]
type SliceType struct {
	Elem Type
}

// InferType is _
type InferType struct{}

func (*PathType) typeNode()  {}
func (*RefType) typeNode()   {}
func (*TupleType) typeNode() {}
func (*SliceType) typeNode() {}
func (*InferType) typeNode() {}

// Named builds a path type
func Named(name string, args ...Type) *PathType {
	return &PathType{Name: name, Args: args}
}

// Ref builds &T
func Ref(t Type) *RefType { return &RefType{Elem: t} }

// RefMut builds &mut T
func RefMut(t Type) *RefType { return &RefType{Mut: true, Elem: t} }

// Unit is ()
var Unit = &TupleType{}

// IsUnit reports whether t is the unit type
func IsUnit(t Type) bool {
	tt, ok := t.(*TupleType)
	return t == nil || (ok && len(tt.Elems) == 0)
}

// ---------------------------------------------------------------------------
// Expressions
// ---------------------------------------------------------------------------

// Expr is a Rust expression
type Expr interface {
	exprNode()
}

// Lit is a literal token: 1, 2.5, true, "text"
type Lit struct {
	Text string
}

// Ident is a name or path. The text is already escaped.
type Ident struct {
	Name string
}

// Binary is L op R
type Binary struct {
	Op string
	L  Expr
	R  Expr
}

// Unary is a prefix operator: !x, -x
type Unary struct {
	Op string
	X  Expr
}

// Borrow is &x or &mut x
type Borrow struct {
	Mut bool
	X   Expr
}

// Deref is *x
type Deref struct {
	X Expr
}

// Paren is (x)
type Paren struct {
	X Expr
}

// Cast is x as T
type Cast struct {
	X    Expr
	Type Type
}

// Call is f(args)
type Call struct {
	Func Expr
	Args []Expr
}

// MethodCall is recv.method::<Turbofish>(args)
type MethodCall struct {
	Recv      Expr
	Method    string
	Turbofish []Type
	Args      []Expr
}

// Field is recv.name; tuple fields use the index as name
type Field struct {
	Recv Expr
	Name string
}

// Index is recv[index]
type Index struct {
	Recv  Expr
	Index Expr
}

// Macro is name!(args) or name![args]
type Macro struct {
	Name    string
	Args    []Expr
	Bracket bool
}

// Closure is |params| body
type Closure struct {
	Params []string
	Body   Expr
	Move   bool
}

// Tuple is (a, b)
type Tuple struct {
	Elems []Expr
}

// FieldInit is one field of a struct literal
type FieldInit struct {
	Name  string
	Value Expr
}

// StructLit is Name { field: value }
type StructLit struct {
	Name   string
	Fields []FieldInit
	// Rest is the ..base expression, if any
	Rest Expr
}

// Range is lo..hi or lo..=hi; either bound may be nil
type Range struct {
	Lo        Expr
	Hi        Expr
	Inclusive bool
}

// Try is x?
type Try struct {
	X Expr
}

// Await is x.await
type Await struct {
	X Expr
}

// BlockExpr is an optionally labeled block used as an expression
type BlockExpr struct {
	Label string
	Block *Block
}

// If is if cond { then } else ...; Else is nil, a *BlockExpr, an *If or an
// *IfLet
type If struct {
	Cond Expr
	Then *Block
	Else Expr
}

// IfLet is if let pattern = value { then } else ...
type IfLet struct {
	Pattern string
	Value   Expr
	Then    *Block
	Else    Expr
}

// Arm is one match arm
type Arm struct {
	Pattern string
	Guard   Expr
	Body    Expr
}

// Match is match subject { arms }
type Match struct {
	Subject Expr
	Arms    []Arm
}

// While is 'label: while cond { body }
type While struct {
	Label string
	Cond  Expr
	Body  *Block
}

// WhileLet is while let pattern = value { body }
type WhileLet struct {
	Label   string
	Pattern string
	Value   Expr
	Body    *Block
}

// Loop is 'label: loop { body }
type Loop struct {
	Label string
	Body  *Block
}

// For is 'label: for pattern in iter { body }
type For struct {
	Label   string
	Pattern string
	Iter    Expr
	Body    *Block
}

// Return is return [value]
type Return struct {
	Value Expr
}

// Break is break ['label] [value]
type Break struct {
	Label string
	Value Expr
}

// Continue is continue ['label]
type Continue struct {
	Label string
}

// Assign is target op value, with op one of = += -= ...
type Assign struct {
	Target Expr
	Op     string
	Value  Expr
}

// Raw is Rust source text substituted from a registry template
type Raw struct {
	Text string
}

func (*Lit) exprNode()        {}
func (*Ident) exprNode()      {}
func (*Binary) exprNode()     {}
func (*Unary) exprNode()      {}
func (*Borrow) exprNode()     {}
func (*Deref) exprNode()      {}
func (*Paren) exprNode()      {}
func (*Cast) exprNode()       {}
func (*Call) exprNode()       {}
func (*MethodCall) exprNode() {}
func (*Field) exprNode()      {}
func (*Index) exprNode()      {}
func (*Macro) exprNode()      {}
func (*Closure) exprNode()    {}
func (*Tuple) exprNode()      {}
func (*StructLit) exprNode()  {}
func (*Range) exprNode()      {}
func (*Try) exprNode()        {}
func (*Await) exprNode()      {}
func (*BlockExpr) exprNode()  {}
func (*If) exprNode()         {}
func (*IfLet) exprNode()      {}
func (*Match) exprNode()      {}
func (*While) exprNode()      {}
func (*WhileLet) exprNode()   {}
func (*Loop) exprNode()       {}
func (*For) exprNode()        {}
func (*Return) exprNode()     {}
func (*Break) exprNode()      {}
func (*Continue) exprNode()   {}
func (*Assign) exprNode()     {}
func (*Raw) exprNode()        {}

// Name builds an identifier expression from escaped text
func Name(name string) *Ident { return &Ident{Name: name} }

// Method builds recv.method(args)
func Method(recv Expr, method string, args ...Expr) *MethodCall {
	return &MethodCall{Recv: recv, Method: method, Args: args}
}

// CallPath builds path(args)
func CallPath(path string, args ...Expr) *Call {
	return &Call{Func: &Ident{Name: path}, Args: args}
}

// Str builds a string literal
func Str(s string) *Lit { return &Lit{Text: Quote(s)} }

// IsBlockLike reports whether e ends in a block and needs no semicolon as a
// statement
func IsBlockLike(e Expr) bool {
	switch e.(type) {
	case *BlockExpr, *If, *IfLet, *Match, *While, *WhileLet, *Loop, *For:
		return true
	}
	return false
}

// ---------------------------------------------------------------------------
// Statements
// ---------------------------------------------------------------------------

// Stmt is a statement inside a block
type Stmt interface {
	stmtNode()
}

// Let is let [mut] pattern[: T] [= value] [else { ... }];
type Let struct {
	Mut     bool
	Pattern string
	Type    Type
	Value   Expr
	Else    *Block
}

// ExprStmt is an expression statement; block-like expressions print
// without a semicolon
type ExprStmt struct {
	X Expr
}

// ItemStmt is an item nested in a block
type ItemStmt struct {
	Item Item
}

// Comment is a line comment
type Comment struct {
	Text string
}

func (*Let) stmtNode()      {}
func (*ExprStmt) stmtNode() {}
func (*ItemStmt) stmtNode() {}
func (*Comment) stmtNode()  {}

// Block is { stmts; tail }
type Block struct {
	Stmts []Stmt
	Tail  Expr
}

// Add appends statements to the block
func (b *Block) Add(stmts ...Stmt) {
	b.Stmts = append(b.Stmts, stmts...)
}

// AddExpr appends an expression statement
func (b *Block) AddExpr(e Expr) {
	b.Stmts = append(b.Stmts, &ExprStmt{X: e})
}

// ---------------------------------------------------------------------------
// Items
// ---------------------------------------------------------------------------

// Item is a module-level or impl-level item
type Item interface {
	itemNode()
}

// Param is a function parameter
type Param struct {
	Pattern string
	Type    Type
}

// Fn is a function or method
type Fn struct {
	Doc      string
	Attrs    []string
	Pub      bool
	Async    bool
	Name     string
	Generics string
	// Receiver is "&self", "&mut self", "self" or "" for free functions
	Receiver string
	Params   []Param
	Ret      Type
	Body     *Block
}

// StructField is one named field
type StructField struct {
	Attrs []string
	Doc   string
	Pub   bool
	Name  string
	Type  Type
}

// Struct is a struct with named fields
type Struct struct {
	Doc    string
	Attrs  []string
	Pub    bool
	Name   string
	Fields []StructField
}

// Variant is an enum variant: unit, tuple (Fields) or struct-like (Named)
type Variant struct {
	Attrs  []string
	Name   string
	Fields []Type
	Named  []StructField
}

// Enum is an enum definition
type Enum struct {
	Doc      string
	Attrs    []string
	Pub      bool
	Name     string
	Variants []Variant
}

// Impl is impl [Trait for] Type { items }
type Impl struct {
	Generics string
	Trait    string
	For      Type
	Items    []Item
}

// Const is a const item
type Const struct {
	Pub   bool
	Name  string
	Type  Type
	Value Expr
}

// Static is a static item
type Static struct {
	Pub   bool
	Name  string
	Type  Type
	Value Expr
}

// Use is a use declaration
type Use struct {
	Path string
}

// RawItem is verbatim item text, used for generated helper items
type RawItem struct {
	Text string
}

func (*Fn) itemNode()      {}
func (*Struct) itemNode()  {}
func (*Enum) itemNode()    {}
func (*Impl) itemNode()    {}
func (*Const) itemNode()   {}
func (*Static) itemNode()  {}
func (*Use) itemNode()     {}
func (*RawItem) itemNode() {}

// File is a generated Rust source file
type File struct {
	Header []string // leading line comments
	Attrs  []string // inner attributes without the #![...] wrapper
	Items  []Item
}
