// Package genctx holds the per-module lowering context: symbol tables filled
// by the analysis passes, the per-function state the code generator threads
// through every statement and expression, and the generated-helper flags.
package genctx

import (
	"fmt"
	"sort"

	"github.com/hashicorp/go-set/v2"

	"github.com/paiml/depyler-sub010/internal/diagnostic"
	"github.com/paiml/depyler-sub010/internal/hir"
	"github.com/paiml/depyler-sub010/internal/registry"
)

// Mode selects how heterogeneous containers are handled
type Mode int

const (
	// Strict reports a TypeMismatch and uses the first element type
	Strict Mode = iota
	// Hybrid falls back to the DepylerValue tagged union
	Hybrid
)

func (m Mode) String() string {
	if m == Hybrid {
		return "hybrid"
	}
	return "strict"
}

// Flag names a generated preamble item
type Flag string

const (
	NeedHashMap      Flag = "hashmap"
	NeedHashSet      Flag = "hashset"
	NeedVecDeque     Flag = "vecdeque"
	NeedSerdeJSON    Flag = "serde_json"
	NeedDepylerValue Flag = "depyler_value"
	NeedErrorType    Flag = "error_type"
	NeedTruthy       Flag = "is_truthy"
	NeedFloorDiv     Flag = "py_floor_div"
	NeedPyMod        Flag = "py_mod"
	NeedPyRange      Flag = "py_range"
	NeedClap         Flag = "clap"
)

// ParamInfo is the inferred passing form of one parameter
type ParamInfo struct {
	Name     string
	Type     *hir.Type
	Borrow   BorrowKind
	Mut      bool // owned binding rebound in the body
	Optional bool
	Default  hir.Expr
	Kind     hir.ParamKind
	StrRef   bool // string parameter lowered as &str
	Stuck    bool // no usage evidence; defaulted to owned
}

// FuncSig is everything call sites need to know about a function
type FuncSig struct {
	Key    string // "f" or "Class.method"
	Name   string
	Class  string
	Func   *hir.Function
	Params []*ParamInfo

	// Return is the declared return type, or the inferred one when absent.
	// Nil means unit.
	Return *hir.Type

	CanFail       bool
	ReturnsOption bool
	// MutReturnRewrite marks a function rewritten to take &mut and return
	// unit because it mutated and returned a parameter
	MutReturnRewrite bool
	IsVariadic       bool
	IsAsync          bool
	// IsGenerator marks a function whose body yields. Return is then the
	// Iterator type over the yielded items.
	IsGenerator bool
	SelfBorrow  BorrowKind
	Analyzed    bool
}

// Param returns the i-th parameter or nil
func (s *FuncSig) Param(i int) *ParamInfo {
	if s == nil || i < 0 || i >= len(s.Params) {
		return nil
	}
	return s.Params[i]
}

// ParamNamed returns the named parameter or nil
func (s *FuncSig) ParamNamed(name string) *ParamInfo {
	if s == nil {
		return nil
	}
	for _, p := range s.Params {
		if p.Name == name {
			return p
		}
	}
	return nil
}

// Arity returns the number of positional parameters
func (s *FuncSig) Arity() int {
	n := 0
	for _, p := range s.Params {
		if p.Kind == hir.Positional || p.Kind == hir.KwOnly {
			n++
		}
	}
	return n
}

// Import is an imported name resolved through the module registry
type Import struct {
	Local  string // name in the importing module
	Python string // dotted Python name
	Entry  registry.Entry
	Known  bool
}

// ArgparseInfo describes a recognized argparse usage
type ArgparseInfo struct {
	ParserVar   string
	ArgsVar     string
	Function    string
	Fields      []*ArgField
	Subcommands []*Subcommand
	Description string

	// Skip holds the parser-building statements replaced by the generated
	// Args aggregate
	Skip map[hir.Stmt]bool
}

// ArgField is one add_argument call
type ArgField struct {
	Name     string // Rust field name
	Flag     string // "--verbose" or "" for positionals
	Short    string
	Type     *hir.Type
	Optional bool
	Default  hir.Expr
	Action   string // "store_true", "count", ...
	Help     string
	Many     bool // nargs "*" / "+"
}

// Subcommand is one add_parser call of a subparsers group
type Subcommand struct {
	Name   string
	Var    string
	Fields []*ArgField
}

// Field returns the argparse field with the given name
func (a *ArgparseInfo) Field(name string) *ArgField {
	if a == nil {
		return nil
	}
	for _, f := range a.Fields {
		if f.Name == name {
			return f
		}
	}
	for _, sc := range a.Subcommands {
		for _, f := range sc.Fields {
			if f.Name == name {
				return f
			}
		}
	}
	return nil
}

// NoneGuard describes an "x is None" / "x is not None" test on an Optional
// local
type NoneGuard struct {
	Var string
	// Some is true when the body runs with x present (is not None)
	Some bool
	// Diverges is true for "if x is None: return/raise" without else; the
	// rest of the function sees x unwrapped
	Diverges bool
}

// Options configure a new Context
type Options struct {
	Mode    Mode
	IntType string // "i32" or "i64"
	Tracer  Tracer
}

// Context is the per-module lowering state
type Context struct {
	Mode    Mode
	IntType string
	Tracer  Tracer
	Diags   *diagnostic.Diagnostics
	Module  *hir.Module

	// Class & import table
	ClassNames      *set.Set[string]
	Classes         map[string]*hir.Class
	ImportedItems   map[string]Import
	ImportedModules map[string]string // alias -> module name
	Constants       map[string]*hir.Type

	// Function signatures keyed by "f" or "Class.method"
	Functions    map[string]*FuncSig
	VarargFuncs  *set.Set[string]
	ResultFuncs  *set.Set[string]
	FnStrParams  map[string]*set.Set[string]
	RefParams    map[string]*set.Set[string]
	VarTypes     map[string]map[string]*hir.Type
	MutableVars  map[string]*set.Set[string]
	OptionalVars map[string]*set.Set[string]

	// UsedLater marks argument occurrences whose variable is read again
	// after the call that would move it
	UsedLater map[*hir.Var]bool

	// RecursiveFields maps a class to fields wrapped in Option<Box<T>>
	RecursiveFields map[string]*set.Set[string]

	Argparse *ArgparseInfo

	// NoneGuards and Hoisted are keyed by HIR node identity. Hoisted lists the
	// names declared before an if, with, loop or try statement because they
	// are bound inside it and read after it.
	NoneGuards map[*hir.If]*NoneGuard
	Hoisted    map[hir.Stmt][]string

	// Per-function code generation state
	Current      string
	CurrentSig   *FuncSig
	Unwrapped    *set.Set[string]
	MutRefParams *set.Set[string]
	CharIterVars *set.Set[string]
	scope        *Scope
	tryLabels    []string

	flags         *set.Set[Flag]
	crates        *set.Set[string]
	errorVariants []string
	tmp           int
}

// New creates an empty context
func New(opts Options) *Context {
	tracer := opts.Tracer
	if tracer == nil {
		tracer = NopTracer{}
	}
	intType := opts.IntType
	if intType == "" {
		intType = "i32"
	}
	return &Context{
		Mode:            opts.Mode,
		IntType:         intType,
		Tracer:          tracer,
		Diags:           diagnostic.New(),
		ClassNames:      set.New[string](0),
		Classes:         make(map[string]*hir.Class),
		ImportedItems:   make(map[string]Import),
		ImportedModules: make(map[string]string),
		Constants:       make(map[string]*hir.Type),
		Functions:       make(map[string]*FuncSig),
		VarargFuncs:     set.New[string](0),
		ResultFuncs:     set.New[string](0),
		FnStrParams:     make(map[string]*set.Set[string]),
		RefParams:       make(map[string]*set.Set[string]),
		VarTypes:        make(map[string]map[string]*hir.Type),
		MutableVars:     make(map[string]*set.Set[string]),
		OptionalVars:    make(map[string]*set.Set[string]),
		UsedLater:       make(map[*hir.Var]bool),
		RecursiveFields: make(map[string]*set.Set[string]),
		NoneGuards:      make(map[*hir.If]*NoneGuard),
		Hoisted:         make(map[hir.Stmt][]string),
		Unwrapped:       set.New[string](0),
		MutRefParams:    set.New[string](0),
		CharIterVars:    set.New[string](0),
		flags:           set.New[Flag](0),
		crates:          set.New[string](0),
	}
}

// Trace records an inference decision
func (c *Context) Trace(category, subject, choice, reason string) {
	c.Tracer.Trace(Decision{Category: category, Subject: subject, Choice: choice, Reason: reason})
}

// Need sets a generated-helper flag. Flags are never unset.
func (c *Context) Need(f Flag) {
	c.flags.Insert(f)
}

// Needs reports whether a helper flag is set
func (c *Context) Needs(f Flag) bool {
	return c.flags.Contains(f)
}

// Flags returns the set flags, sorted
func (c *Context) Flags() []Flag {
	out := c.flags.Slice()
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}

// UseCrate records an ecosystem crate dependency
func (c *Context) UseCrate(name string) {
	if name != "" {
		c.crates.Insert(name)
	}
}

// Crates returns the used crates, sorted
func (c *Context) Crates() []string {
	out := c.crates.Slice()
	sort.Strings(out)
	return out
}

// AddErrorVariant registers an exception class as a variant of the module
// error enum. Variants keep first-registration order.
func (c *Context) AddErrorVariant(name string) {
	c.Need(NeedErrorType)
	for _, v := range c.errorVariants {
		if v == name {
			return
		}
	}
	c.errorVariants = append(c.errorVariants, name)
}

// ErrorVariants returns the registered error enum variants
func (c *Context) ErrorVariants() []string {
	return c.errorVariants
}

// IsClass reports whether name is a user class
func (c *Context) IsClass(name string) bool {
	return c.ClassNames.Contains(name)
}

// Sig returns the signature registered under key, or nil
func (c *Context) Sig(key string) *FuncSig {
	return c.Functions[key]
}

// Fresh returns a new temp name
func (c *Context) Fresh(prefix string) string {
	name := fmt.Sprintf("_%s%d", prefix, c.tmp)
	c.tmp++
	return name
}

// VarType returns the recorded type of a local in fn
func (c *Context) VarType(fn, name string) *hir.Type {
	if vars, ok := c.VarTypes[fn]; ok {
		return vars[name]
	}
	return nil
}

// SetVarType records or refines the type of a local in fn
func (c *Context) SetVarType(fn, name string, t *hir.Type) {
	if t == nil {
		return
	}
	vars, ok := c.VarTypes[fn]
	if !ok {
		vars = make(map[string]*hir.Type)
		c.VarTypes[fn] = vars
	}
	if old, ok := vars[name]; ok && old != nil {
		vars[name] = old.Unify(t)
		return
	}
	vars[name] = t
}

func memberSet(m map[string]*set.Set[string], fn string) *set.Set[string] {
	s, ok := m[fn]
	if !ok {
		s = set.New[string](0)
		m[fn] = s
	}
	return s
}

// MarkMutable records that a local of fn needs a mut binding
func (c *Context) MarkMutable(fn, name string) {
	memberSet(c.MutableVars, fn).Insert(name)
}

// IsMutable reports whether a local of fn needs a mut binding
func (c *Context) IsMutable(fn, name string) bool {
	s, ok := c.MutableVars[fn]
	return ok && s.Contains(name)
}

// MarkStrParam records a string-typed parameter of fn; ref marks it as
// lowered to &str
func (c *Context) MarkStrParam(fn, name string, ref bool) {
	memberSet(c.FnStrParams, fn).Insert(name)
	if ref {
		memberSet(c.RefParams, fn).Insert(name)
	}
}

// IsRefParam reports whether a parameter of fn is lowered as &str
func (c *Context) IsRefParam(fn, name string) bool {
	s, ok := c.RefParams[fn]
	return ok && s.Contains(name)
}

// MarkOptional records that a local of fn holds an Option
func (c *Context) MarkOptional(fn, name string) {
	memberSet(c.OptionalVars, fn).Insert(name)
}

// IsOptional reports whether a local of fn holds an Option
func (c *Context) IsOptional(fn, name string) bool {
	s, ok := c.OptionalVars[fn]
	return ok && s.Contains(name)
}

// MarkRecursiveField records a self-referential class field
func (c *Context) MarkRecursiveField(class, field string) {
	memberSet(c.RecursiveFields, class).Insert(field)
}

// IsRecursiveField reports whether a class field is boxed
func (c *Context) IsRecursiveField(class, field string) bool {
	s, ok := c.RecursiveFields[class]
	return ok && s.Contains(field)
}

// EnterFunction resets per-function state for code generation of key
func (c *Context) EnterFunction(key string) {
	c.Current = key
	c.CurrentSig = c.Functions[key]
	c.Unwrapped = set.New[string](0)
	c.MutRefParams = set.New[string](0)
	c.CharIterVars = set.New[string](0)
	c.scope = NewScope(nil)
	c.tryLabels = nil
}

// Scope returns the innermost code generation scope
func (c *Context) Scope() *Scope {
	if c.scope == nil {
		c.scope = NewScope(nil)
	}
	return c.scope
}

// PushScope opens a nested block scope
func (c *Context) PushScope() {
	c.scope = NewScope(c.Scope())
}

// PopScope closes the innermost block scope
func (c *Context) PopScope() {
	if c.scope != nil && c.scope.Parent() != nil {
		c.scope = c.scope.Parent()
	}
}

// Lookup resolves a name in the current scope chain
func (c *Context) Lookup(name string) *Symbol {
	return c.Scope().Resolve(name)
}

// PushTry enters a try body and returns its block label
func (c *Context) PushTry() string {
	label := fmt.Sprintf("try_%d", c.tmp)
	c.tmp++
	c.tryLabels = append(c.tryLabels, label)
	return label
}

// PopTry leaves the innermost try body
func (c *Context) PopTry() {
	if n := len(c.tryLabels); n > 0 {
		c.tryLabels = c.tryLabels[:n-1]
	}
}

// TryLabel returns the innermost try label, or "" outside a try body
func (c *Context) TryLabel() string {
	if n := len(c.tryLabels); n > 0 {
		return c.tryLabels[n-1]
	}
	return ""
}

// CurrentCanFail reports whether the function being generated returns Result
func (c *Context) CurrentCanFail() bool {
	return c.CurrentSig != nil && c.CurrentSig.CanFail
}

// TypeOf returns the best known type of a variable in the current function
func (c *Context) TypeOf(name string) *hir.Type {
	if sym := c.Lookup(name); sym != nil && sym.Type != nil {
		return sym.Type
	}
	if t := c.VarType(c.Current, name); t != nil {
		return t
	}
	if t, ok := c.Constants[name]; ok {
		return t
	}
	return nil
}
