package genctx

import (
	"fmt"

	"github.com/paiml/depyler-sub010/internal/hir"
)

// SymbolKind represents the kind of a binding in a lowering scope
type SymbolKind int

const (
	SymLocal SymbolKind = iota
	SymParam
	SymConst
	SymLoopVar
	SymHoisted
	// SymField is a generator local kept in the state struct
	SymField
)

// String returns the string representation of the symbol kind
func (sk SymbolKind) String() string {
	switch sk {
	case SymLocal:
		return "local"
	case SymParam:
		return "parameter"
	case SymConst:
		return "constant"
	case SymLoopVar:
		return "loop variable"
	case SymHoisted:
		return "hoisted"
	case SymField:
		return "generator field"
	default:
		return "unknown"
	}
}

// Symbol is a binding visible during code generation. Borrow is the form the
// Rust binding holds (a &str parameter, a &mut Vec parameter, ...).
type Symbol struct {
	Name    string
	Type    *hir.Type
	Mutable bool
	Borrow  BorrowKind
	Kind    SymbolKind
	// Assigned is false for a hoisted "let x;" until a branch assigns it
	Assigned bool
}

// Scope represents a lexical block with a symbol table
type Scope struct {
	parent  *Scope
	symbols map[string]*Symbol
}

// NewScope creates a new scope with an optional parent
func NewScope(parent *Scope) *Scope {
	return &Scope{
		parent:  parent,
		symbols: make(map[string]*Symbol),
	}
}

// Parent returns the enclosing scope
func (s *Scope) Parent() *Scope {
	return s.parent
}

// Define adds a symbol to the current scope.
// Returns an error if the symbol is already defined in this scope.
func (s *Scope) Define(name string, sym *Symbol) error {
	if _, exists := s.symbols[name]; exists {
		return fmt.Errorf("symbol '%s' already defined in this scope", name)
	}
	s.symbols[name] = sym
	return nil
}

// Bind adds or replaces a symbol in the current scope
func (s *Scope) Bind(sym *Symbol) {
	s.symbols[sym.Name] = sym
}

// Resolve looks up a symbol in the current scope and parent scopes.
// Returns nil if the symbol is not found.
func (s *Scope) Resolve(name string) *Symbol {
	if sym, ok := s.symbols[name]; ok {
		return sym
	}
	if s.parent != nil {
		return s.parent.Resolve(name)
	}
	return nil
}

// ResolveLocal looks up a symbol only in the current scope
func (s *Scope) ResolveLocal(name string) *Symbol {
	if sym, ok := s.symbols[name]; ok {
		return sym
	}
	return nil
}
