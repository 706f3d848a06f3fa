package rustgen

import (
	"sort"
	"strconv"

	"github.com/paiml/depyler-sub010/internal/analysis"
	"github.com/paiml/depyler-sub010/internal/genctx"
	"github.com/paiml/depyler-sub010/internal/hir"
	"github.com/paiml/depyler-sub010/internal/rustast"
)

// A generator function lowers to a state struct implementing Iterator.
// Parameters and locals become fields, and the body is cut at each yield
// into numbered states that next() dispatches on:
//
//	pub struct CountUpGenerator { __state: usize, n: i32, i: i32 }
//
//	impl Iterator for CountUpGenerator {
//	    type Item = i32;
//	    fn next(&mut self) -> Option<Self::Item> {
//	        loop {
//	            match self.__state {
//	                0 => { self.i = 0; self.__state = 1; continue; }
//	                1 => { if self.i < self.n { ... } else { ... } }
//	                ...
//	                _ => return None,
//	            }
//	        }
//	    }
//	}
//
//	fn count_up(n: i32) -> impl Iterator<Item = i32> { ... }
//
// A state ends by returning the next item, by jumping to another state or
// by finishing.

const (
	stateField = "__state"
	doneState  = "usize::MAX"
)

// genMachine collects the states of one generator
type genMachine struct {
	states []*rustast.Block
	cur    int
	item   *hir.Type
	// iters are the fields holding the iterators of suspending for loops
	iters []rustast.StructField
}

// genLoop holds the states a break or continue inside a suspending loop
// jumps to
type genLoop struct {
	head int
	exit int
}

func (m *genMachine) newState() int {
	m.states = append(m.states, &rustast.Block{})
	return len(m.states) - 1
}

func (m *genMachine) block() *rustast.Block {
	return m.states[m.cur]
}

// fallTo ends the current state with a jump to state to unless it already
// left
func (m *genMachine) fallTo(to int) {
	b := m.block()
	if blockDiverges(b) {
		return
	}
	b.AddExpr(setState(strconv.Itoa(to)))
	b.AddExpr(&rustast.Continue{})
}

func selfField(name string) rustast.Expr {
	return &rustast.Field{Recv: rustast.Name("self"), Name: name}
}

func setState(to string) rustast.Expr {
	return &rustast.Assign{Target: selfField(stateField), Op: "=", Value: &rustast.Lit{Text: to}}
}

// jumpTo is the block that resumes at state to
func jumpTo(to int) *rustast.Block {
	return stmtBlock(setState(strconv.Itoa(to)), &rustast.Continue{})
}

// genReturn finishes the generator
func genReturn() rustast.Expr {
	return &rustast.BlockExpr{Block: stmtBlock(setState(doneState), &rustast.Return{Value: rustast.Name("None")})}
}

// generateGenerator emits the state struct, its Iterator impl and the
// function name that builds it
func (g *generator) generateGenerator(sig *genctx.FuncSig, name string) []rustast.Item {
	saved := g.fn
	defer func() { g.fn = saved }()

	m := &genMachine{item: sig.Return.Elem()}
	g.fn = &fnState{sig: sig, gen: m}
	g.ctx.EnterFunction(sig.Key)

	structName := rustast.PascalCase(name) + "Generator"
	itemType := g.mapType(m.item)
	st := &rustast.Struct{
		Doc:    "State of the " + name + " generator.",
		Name:   structName,
		Fields: []rustast.StructField{{Name: stateField, Type: rustast.Named("usize")}},
	}
	lit := &rustast.StructLit{Name: structName, Fields: []rustast.FieldInit{{Name: stateField, Value: &rustast.Lit{Text: "0"}}}}
	out := &rustast.Fn{
		Doc:  sig.Func.Docstring,
		Name: name,
		Ret:  rustast.Named("impl Iterator<Item = " + rustast.RenderType(itemType) + ">"),
	}

	for _, p := range sig.Params {
		id := g.ident(p.Name)
		t := g.mapType(p.Type)
		out.Params = append(out.Params, rustast.Param{Pattern: id, Type: t})
		st.Fields = append(st.Fields, rustast.StructField{Name: id, Type: t})
		lit.Fields = append(lit.Fields, rustast.FieldInit{Name: id, Value: rustast.Name(id)})
		g.bindField(p.Name, p.Type)
	}
	for _, local := range g.generatorLocals(sig) {
		t := g.ctx.VarType(sig.Key, local)
		id := g.ident(local)
		st.Fields = append(st.Fields, rustast.StructField{Name: id, Type: g.letType(t)})
		lit.Fields = append(lit.Fields, rustast.FieldInit{Name: id, Value: defaultValue(t)})
		g.bindField(local, t)
	}

	m.newState()
	g.genStmts(m, sig.Func.Body)
	if b := m.block(); !blockDiverges(b) {
		b.AddExpr(genReturn())
	}

	for _, it := range m.iters {
		st.Fields = append(st.Fields, it)
		lit.Fields = append(lit.Fields, rustast.FieldInit{
			Name:  it.Name,
			Value: rustast.CallPath("Box::new", rustast.CallPath("std::iter::empty")),
		})
	}

	arms := make([]rustast.Arm, 0, len(m.states)+1)
	for i, b := range m.states {
		arms = append(arms, rustast.Arm{Pattern: strconv.Itoa(i), Body: &rustast.BlockExpr{Block: b}})
	}
	arms = append(arms, rustast.Arm{Pattern: "_", Body: &rustast.Return{Value: rustast.Name("None")}})
	next := &rustast.Fn{
		Name:     "next",
		Receiver: "&mut self",
		Ret:      rustast.Named("Option", rustast.Named("Self::Item")),
		Body: stmtBlock(&rustast.Loop{Body: stmtBlock(&rustast.Match{
			Subject: selfField(stateField),
			Arms:    arms,
		})}),
	}
	impl := &rustast.Impl{
		Trait: "Iterator",
		For:   rustast.Named(structName),
		Items: []rustast.Item{&rustast.RawItem{Text: "type Item = " + rustast.RenderType(itemType) + ";"}, next},
	}
	out.Body = &rustast.Block{Tail: lit}
	return []rustast.Item{st, impl, out}
}

// generatorLocals lists the locals of a generator that are not parameters,
// sorted so the struct layout is stable. Bound exceptions stay locals of
// their handler.
func (g *generator) generatorLocals(sig *genctx.FuncSig) []string {
	var out []string
	for name, t := range g.ctx.VarTypes[sig.Key] {
		if name == "_" || sig.ParamNamed(name) != nil {
			continue
		}
		if t.Is(hir.KindCustom) && g.isExceptionName(t.Name) {
			continue
		}
		out = append(out, name)
	}
	sort.Strings(out)
	return out
}

func (g *generator) bindField(name string, t *hir.Type) {
	if t == nil {
		t = hir.TypeUnknown
	}
	g.ctx.Scope().Bind(&genctx.Symbol{Name: name, Type: t, Mutable: true, Kind: genctx.SymField, Assigned: true})
}

// genStmts lowers stmts into the current state, cutting new states around
// the statements that suspend
func (g *generator) genStmts(m *genMachine, stmts []hir.Stmt) {
	for _, s := range stmts {
		if !hir.ContainsYield(s) {
			g.stmt(m.block(), s)
			continue
		}
		switch n := s.(type) {
		case *hir.ExprStmt:
			y, ok := n.Value.(*hir.Yield)
			if !ok {
				line, col := n.Loc()
				g.ctx.Diags.Unsupported(line, col, "yield", "yield used as a value")
				continue
			}
			g.genYield(m, y)
		case *hir.If:
			g.genIf(m, n)
		case *hir.While:
			g.genWhile(m, n)
		case *hir.For:
			g.genFor(m, n)
		default:
			line, col := s.Loc()
			g.ctx.Diags.Unsupported(line, col, "yield", "yield inside this statement")
		}
	}
}

// genYield returns the item and resumes at a fresh state
func (g *generator) genYield(m *genMachine, y *hir.Yield) {
	var v rustast.Expr = rustast.Name("()")
	if y.Value != nil {
		v = g.convert(y.Value, m.item)
	}
	next := m.newState()
	b := m.block()
	b.AddExpr(setState(strconv.Itoa(next)))
	b.AddExpr(&rustast.Return{Value: rustast.CallPath("Some", v)})
	m.cur = next
}

func (g *generator) genIf(m *genMachine, n *hir.If) {
	then := m.newState()
	join := m.newState()
	els := join
	if len(n.Else) > 0 {
		els = m.newState()
	}
	g.walrusPrelude(m.block(), n.Cond)
	m.block().AddExpr(&rustast.If{
		Cond: g.cond(n.Cond),
		Then: jumpTo(then),
		Else: &rustast.BlockExpr{Block: jumpTo(els)},
	})
	m.cur = then
	g.genStmts(m, n.Body)
	m.fallTo(join)
	if len(n.Else) > 0 {
		m.cur = els
		g.genStmts(m, n.Else)
		m.fallTo(join)
	}
	m.cur = join
}

func (g *generator) genWhile(m *genMachine, n *hir.While) {
	head := m.newState()
	body := m.newState()
	after := m.newState()
	exit := after
	if len(n.Else) > 0 {
		exit = m.newState()
	}
	m.fallTo(head)
	m.cur = head
	g.walrusPrelude(m.block(), n.Cond)
	m.block().AddExpr(&rustast.If{
		Cond: g.cond(n.Cond),
		Then: jumpTo(body),
		Else: &rustast.BlockExpr{Block: jumpTo(exit)},
	})
	g.genLoopBody(m, n.Body, &genLoop{head: head, exit: after}, body)
	if len(n.Else) > 0 {
		m.cur = exit
		g.genStmts(m, n.Else)
		m.fallTo(after)
	}
	m.cur = after
}

// genFor stores the loop's iterator in a field so it survives suspension.
// Iterables other than generators are collected first, which ends any
// borrow of the generator's own fields.
func (g *generator) genFor(m *genMachine, n *hir.For) {
	item := analysis.LoopElemType(g.ctx, n.Iter)
	var it rustast.Expr
	if iterT := g.typeOf(n.Iter); iterT.Is(hir.KindGeneric) && iterT.Name == "Iterator" && !isPlaceExpr(n.Iter) {
		it = g.generateExpr(n.Iter)
	} else {
		x, shape, isIter := g.iterate(n.Iter, true)
		if item.IsUnknown() {
			item = shape.typ
		}
		it = rustast.Method(collectVec(g.owning(asIter(x, isIter), shape)), "into_iter")
	}
	field := "__iter_" + strconv.Itoa(len(m.iters))
	m.iters = append(m.iters, rustast.StructField{
		Name: field,
		Type: rustast.Named("Box", rustast.Named("dyn Iterator<Item = "+rustast.RenderType(g.mapType(item))+">")),
	})
	m.block().AddExpr(&rustast.Assign{Target: selfField(field), Op: "=", Value: rustast.CallPath("Box::new", it)})

	head := m.newState()
	body := m.newState()
	after := m.newState()
	exit := after
	if len(n.Else) > 0 {
		exit = m.newState()
	}
	m.fallTo(head)
	m.cur = head
	bind := &rustast.Block{}
	g.genBind(bind, n.Target, rustast.Name("_v"))
	bind.AddExpr(setState(strconv.Itoa(body)))
	bind.AddExpr(&rustast.Continue{})
	m.block().AddExpr(&rustast.Match{Subject: rustast.Method(selfField(field), "next"), Arms: []rustast.Arm{
		{Pattern: "Some(_v)", Body: &rustast.BlockExpr{Block: bind}},
		{Pattern: "None", Body: &rustast.BlockExpr{Block: jumpTo(exit)}},
	}})
	g.genLoopBody(m, n.Body, &genLoop{head: head, exit: after}, body)
	if len(n.Else) > 0 {
		m.cur = exit
		g.genStmts(m, n.Else)
		m.fallTo(after)
	}
	m.cur = after
}

// genLoopBody lowers a suspending loop body starting at state body; the
// body loops back to the head
func (g *generator) genLoopBody(m *genMachine, stmts []hir.Stmt, jumps *genLoop, body int) {
	g.fn.loops = append(g.fn.loops, &loopState{tries: g.fn.tries, gen: jumps})
	m.cur = body
	g.genStmts(m, stmts)
	m.fallTo(jumps.head)
	g.fn.loops = g.fn.loops[:len(g.fn.loops)-1]
}

// genBind assigns one item of a suspending for loop to its target fields
func (g *generator) genBind(b *rustast.Block, target hir.Expr, value rustast.Expr) {
	switch t := target.(type) {
	case *hir.Var:
		if t.Name == "_" {
			return
		}
		b.AddExpr(&rustast.Assign{Target: g.lvalue(t), Op: "=", Value: value})
	case *hir.TupleLit:
		for i, el := range t.Elems {
			g.genBind(b, el, &rustast.Field{Recv: value, Name: strconv.Itoa(i)})
		}
	case *hir.ListLit:
		for i, el := range t.Elems {
			g.genBind(b, el, &rustast.Field{Recv: value, Name: strconv.Itoa(i)})
		}
	default:
		line, col := target.Loc()
		g.ctx.Diags.Unsupported(line, col, "for", "unsupported loop target in a generator")
	}
}
