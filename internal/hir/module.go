package hir

import "github.com/paiml/depyler-sub010/internal/annotation"

// ParamKind distinguishes how a parameter binds arguments
type ParamKind int

const (
	Positional ParamKind = iota
	Varargs
	Kwargs
	KwOnly
)

// Param is a function parameter. Type is nil when unannotated.
type Param struct {
	Name    string
	Type    *Type
	Default Expr
	Kind    ParamKind
}

// Function is a free function or a method
type Function struct {
	Meta
	Name       string
	Params     []*Param
	ReturnType *Type // nil when unannotated
	Body       []Stmt
	Decorators []string
	IsAsync    bool
	Docstring  string

	// Method flags, set for functions inside a class body
	IsMethod      bool
	IsStatic      bool
	IsClassMethod bool
	IsProperty    bool

	// Annotations are the # @depyler: comments above the def, nil when
	// there are none
	Annotations *annotation.Set
}

// HasDecorator reports whether the function carries the named decorator
func (f *Function) HasDecorator(name string) bool {
	for _, d := range f.Decorators {
		if d == name {
			return true
		}
	}
	return false
}

// PositionalParams returns the parameters that participate in borrow
// inference, skipping a method's self/cls receiver
func (f *Function) PositionalParams() []*Param {
	var out []*Param
	for i, p := range f.Params {
		if i == 0 && f.IsMethod && !f.IsStatic {
			continue
		}
		if p.Kind == Positional || p.Kind == KwOnly {
			out = append(out, p)
		}
	}
	return out
}

// Field is a class field
type Field struct {
	Name    string
	Type    *Type
	Default Expr
}

// Class is a user-defined class
type Class struct {
	Meta
	Name        string
	Bases       []string
	Fields      []*Field
	Methods     []*Function
	IsDataclass bool
	ClassVars   []*Field
	Docstring   string
}

// Field returns the named field, or nil
func (c *Class) Field(name string) *Field {
	for _, f := range c.Fields {
		if f.Name == name {
			return f
		}
	}
	return nil
}

// Method returns the named method, or nil
func (c *Class) Method(name string) *Function {
	for _, m := range c.Methods {
		if m.Name == name {
			return m
		}
	}
	return nil
}

// IsException reports whether the class derives from an exception base
func (c *Class) IsException() bool {
	for _, b := range c.Bases {
		if b == "Exception" || b == "BaseException" || b == "ValueError" ||
			b == "RuntimeError" || b == "KeyError" || b == "TypeError" {
			return true
		}
	}
	return false
}

// Item is a top-level module item
type Item interface {
	Node
	itemNode()
}

// Constant is a module-level assignment to a single name
type Constant struct {
	Meta
	Name  string
	Type  *Type // declared annotation, nil when absent
	Value Expr
}

// MainBlock is the body of "if __name__ == '__main__':"
type MainBlock struct {
	Meta
	Body []Stmt
}

func (*Import) itemNode()    {}
func (*Constant) itemNode()  {}
func (*Class) itemNode()     {}
func (*Function) itemNode()  {}
func (*MainBlock) itemNode() {}

// Module is a lowered source file. Items keep source order.
type Module struct {
	Name      string
	Items     []Item
	Docstring string
}

// Functions returns the module's free functions in source order
func (m *Module) Functions() []*Function {
	var out []*Function
	for _, it := range m.Items {
		if f, ok := it.(*Function); ok {
			out = append(out, f)
		}
	}
	return out
}

// Classes returns the module's classes in source order
func (m *Module) Classes() []*Class {
	var out []*Class
	for _, it := range m.Items {
		if c, ok := it.(*Class); ok {
			out = append(out, c)
		}
	}
	return out
}

// Imports returns the module's imports in source order
func (m *Module) Imports() []*Import {
	var out []*Import
	for _, it := range m.Items {
		if i, ok := it.(*Import); ok {
			out = append(out, i)
		}
	}
	return out
}

// Constants returns the module-level constants in source order
func (m *Module) Constants() []*Constant {
	var out []*Constant
	for _, it := range m.Items {
		if c, ok := it.(*Constant); ok {
			out = append(out, c)
		}
	}
	return out
}

// Main returns the main block, or nil
func (m *Module) Main() *MainBlock {
	for _, it := range m.Items {
		if mb, ok := it.(*MainBlock); ok {
			return mb
		}
	}
	return nil
}

// Class returns the named class, or nil
func (m *Module) Class(name string) *Class {
	for _, c := range m.Classes() {
		if c.Name == name {
			return c
		}
	}
	return nil
}

// Function returns the named free function, or nil
func (m *Module) Function(name string) *Function {
	for _, f := range m.Functions() {
		if f.Name == name {
			return f
		}
	}
	return nil
}
