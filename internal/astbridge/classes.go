package astbridge

import (
	"strings"

	"github.com/paiml/depyler-sub010/internal/annotation"
	"github.com/paiml/depyler-sub010/internal/ast"
	"github.com/paiml/depyler-sub010/internal/hir"
)

// knownDecorators are kept on the HIR function; anything else is reported
// and dropped
var knownDecorators = map[string]bool{
	"staticmethod":   true,
	"classmethod":    true,
	"property":       true,
	"dataclass":      true,
	"coroutine":      true,
	"abstractmethod": true,
	"override":       true,
}

var paramKinds = map[ast.ParamKind]hir.ParamKind{
	ast.ParamPositional: hir.Positional,
	ast.ParamVarargs:    hir.Varargs,
	ast.ParamKwargs:     hir.Kwargs,
	ast.ParamKwOnly:     hir.KwOnly,
}

// convertFunction lowers a function definition. inClass marks methods.
func (b *Bridge) convertFunction(f *ast.FunctionDef, inClass bool) *hir.Function {
	fn := &hir.Function{
		Meta:        meta(f),
		Name:        f.Name,
		IsAsync:     f.IsAsync,
		IsMethod:    inClass,
		Annotations: annotation.Parse(annotation.Above(b.lines, f.Line), b.diags),
	}

	for _, d := range f.Decorators {
		name := dottedName(d)
		switch {
		case name == "staticmethod":
			fn.IsStatic = true
		case name == "classmethod":
			fn.IsClassMethod = true
		case name == "property":
			fn.IsProperty = true
		case strings.HasSuffix(name, ".setter") || strings.HasSuffix(name, ".getter"):
			fn.IsProperty = true
			name = "property." + lastComponent(name)
		case name == "coroutine" || name == "asyncio.coroutine":
			fn.IsAsync = true
			name = "coroutine"
		case name == "abc.abstractmethod":
			name = "abstractmethod"
		case knownDecorators[name]:
		default:
			b.unsupported(d, "decorator @"+name, "the decorator is dropped")
			continue
		}
		fn.Decorators = append(fn.Decorators, name)
	}

	for _, p := range f.Params {
		param := &hir.Param{Name: p.Name, Kind: paramKinds[p.Kind]}
		if p.Annotation != nil {
			param.Type = b.convertAnnotation(p.Annotation)
		}
		if p.Default != nil {
			param.Default = b.convertExpr(p.Default)
		}
		fn.Params = append(fn.Params, param)
	}
	if f.Returns != nil {
		fn.ReturnType = b.convertAnnotation(f.Returns)
	}

	body := f.Body
	if doc, ok := docstring(body); ok {
		fn.Docstring = doc
		body = body[1:]
	}
	fn.Body = b.convertStmts(body)
	return fn
}

// convertClass lowers a class definition. Fields come from annotations in
// the class body and from self.x assignments in __init__, in that order.
func (b *Bridge) convertClass(c *ast.ClassDef) *hir.Class {
	cls := &hir.Class{Meta: meta(c), Name: c.Name}

	for _, kw := range c.Keywords {
		if kw.Arg == "metaclass" {
			b.unsupported(c, "metaclass", "use a plain class")
		}
	}

	for _, base := range c.Bases {
		name := dottedName(base)
		if _, generic := base.(*ast.Subscript); generic {
			name = dottedName(base.(*ast.Subscript).Value)
		}
		switch lastComponent(name) {
		case "", "object", "Generic", "Protocol", "ABC":
			continue
		}
		cls.Bases = append(cls.Bases, lastComponent(name))
	}
	if len(cls.Bases) > 1 {
		b.unsupported(c, "multiple inheritance", "keep a single base class")
		cls.Bases = cls.Bases[:1]
	}

	for _, d := range c.Decorators {
		switch lastComponent(dottedName(d)) {
		case "dataclass":
			cls.IsDataclass = true
		default:
			b.unsupported(d, "class decorator @"+dottedName(d), "the decorator is dropped")
		}
	}

	body := c.Body
	if doc, ok := docstring(body); ok {
		cls.Docstring = doc
		body = body[1:]
	}

	for _, stmt := range body {
		switch s := stmt.(type) {
		case *ast.AnnAssignStmt:
			name, ok := s.Target.(*ast.Name)
			if !ok {
				b.unsupported(s, "class-level annotated target", "")
				continue
			}
			field := &hir.Field{Name: name.ID, Type: b.convertAnnotation(s.Annotation)}
			if s.Value != nil {
				field.Default = b.fieldDefault(s.Value)
			}
			if isClassVar(s.Annotation) {
				cls.ClassVars = append(cls.ClassVars, field)
			} else {
				cls.Fields = append(cls.Fields, field)
			}

		case *ast.AssignStmt:
			name, ok := s.Targets[0].(*ast.Name)
			if !ok || len(s.Targets) != 1 {
				b.unsupported(s, "class-level assignment", "")
				continue
			}
			cls.ClassVars = append(cls.ClassVars, &hir.Field{
				Name:    name.ID,
				Type:    literalType(s.Value),
				Default: b.convertExpr(s.Value),
			})

		case *ast.FunctionDef:
			cls.Methods = append(cls.Methods, b.convertFunction(s, true))

		case *ast.PassStmt:

		case *ast.ExprStmt:
			if c, ok := s.Value.(*ast.Constant); ok && (c.Kind == ast.ConstEllipsis || c.Kind == ast.ConstString) {
				continue
			}
			b.unsupported(s, "statement in class body", "")

		default:
			b.unsupported(stmt, "statement in class body", "")
		}
	}

	if init := findInit(body); init != nil {
		b.collectInitFields(cls, init)
	}
	return cls
}

// collectInitFields adds a field for each self.x assignment in __init__ that
// is not already declared. The type comes from the annotation, the annotated
// parameter the value names, or the literal form of the value.
func (b *Bridge) collectInitFields(cls *hir.Class, init *ast.FunctionDef) {
	params := make(map[string]ast.Expression)
	for _, p := range init.Params {
		if p.Annotation != nil {
			params[p.Name] = p.Annotation
		}
	}

	var visit func([]ast.Statement)
	visit = func(stmts []ast.Statement) {
		for _, stmt := range stmts {
			var target, annotation, value ast.Expression
			switch s := stmt.(type) {
			case *ast.AssignStmt:
				if len(s.Targets) == 1 {
					target, value = s.Targets[0], s.Value
				}
			case *ast.AnnAssignStmt:
				target, annotation, value = s.Target, s.Annotation, s.Value
			case *ast.IfStmt:
				visit(s.Body)
				visit(s.Orelse)
				continue
			}

			attr, ok := target.(*ast.Attribute)
			if !ok {
				continue
			}
			self, ok := attr.Value.(*ast.Name)
			if !ok || self.ID != "self" || cls.Field(attr.Attr) != nil {
				continue
			}

			var typ *hir.Type
			switch {
			case annotation != nil:
				typ = b.convertAnnotation(annotation)
			case value != nil:
				if n, ok := value.(*ast.Name); ok && params[n.ID] != nil {
					typ = b.convertAnnotation(params[n.ID])
				} else {
					typ = literalType(value)
				}
			default:
				typ = hir.TypeUnknown
			}
			cls.Fields = append(cls.Fields, &hir.Field{Name: attr.Attr, Type: typ})
		}
	}
	visit(init.Body)
}

// fieldDefault lowers a dataclass default. field(default_factory=list) and
// field(default=x) are unwrapped.
func (b *Bridge) fieldDefault(e ast.Expression) hir.Expr {
	call, ok := e.(*ast.Call)
	if !ok || lastComponent(dottedName(call.Func)) != "field" {
		return b.convertExpr(e)
	}
	for _, kw := range call.Keywords {
		switch kw.Arg {
		case "default":
			return b.convertExpr(kw.Value)
		case "default_factory":
			return &hir.Call{Meta: meta(call), Func: dottedName(kw.Value)}
		}
	}
	return nil
}

func findInit(body []ast.Statement) *ast.FunctionDef {
	for _, s := range body {
		if f, ok := s.(*ast.FunctionDef); ok && f.Name == "__init__" {
			return f
		}
	}
	return nil
}

func isClassVar(e ast.Expression) bool {
	sub, ok := e.(*ast.Subscript)
	return ok && lastComponent(dottedName(sub.Value)) == "ClassVar"
}

// literalType infers a type from the syntactic form of a value
func literalType(e ast.Expression) *hir.Type {
	switch v := e.(type) {
	case *ast.Constant:
		switch v.Kind {
		case ast.ConstInt:
			return hir.TypeInt
		case ast.ConstFloat:
			return hir.TypeFloat
		case ast.ConstString:
			return hir.TypeString
		case ast.ConstBytes:
			return hir.TypeBytes
		case ast.ConstBool:
			return hir.TypeBool
		case ast.ConstNone:
			return hir.OptionalOf(nil)
		}
	case *ast.ListExpr:
		if len(v.Elts) > 0 {
			return hir.ListOf(literalType(v.Elts[0]))
		}
		return hir.ListOf(nil)
	case *ast.DictExpr:
		if len(v.Keys) > 0 && v.Keys[0] != nil {
			return hir.DictOf(literalType(v.Keys[0]), literalType(v.Values[0]))
		}
		return hir.DictOf(nil, nil)
	case *ast.SetExpr:
		if len(v.Elts) > 0 {
			return hir.SetOf(literalType(v.Elts[0]))
		}
		return hir.SetOf(nil)
	case *ast.Call:
		switch dottedName(v.Func) {
		case "list":
			return hir.ListOf(nil)
		case "dict":
			return hir.DictOf(nil, nil)
		case "set":
			return hir.SetOf(nil)
		}
	}
	return hir.TypeUnknown
}
