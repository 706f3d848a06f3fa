package analysis

import (
	"strings"

	"github.com/paiml/depyler-sub010/internal/genctx"
	"github.com/paiml/depyler-sub010/internal/hir"
)

// analyzeArgparse recognizes the argparse pattern
//
//	parser = argparse.ArgumentParser(...)
//	parser.add_argument(...)
//	sub = parser.add_subparsers(dest=...)
//	run = sub.add_parser("run")
//	run.add_argument(...)
//	args = parser.parse_args()
//
// in one function and records the typed Args aggregate it lowers to
func (a *analyzer) analyzeArgparse() {
	for _, sig := range a.funcs {
		a.enter(sig)
		if info := a.argparseIn(sig); info != nil {
			a.ctx.Argparse = info
			a.ctx.Need(genctx.NeedClap)
			a.ctx.UseCrate("clap")
			a.ctx.SetVarType(sig.Key, info.ArgsVar, hir.CustomType("Args"))
			a.ctx.Trace("argparse", sig.Key, "clap::Parser", "parser "+info.ParserVar)
			return
		}
	}
}

func (a *analyzer) isArgumentParser(e hir.Expr) bool {
	switch n := e.(type) {
	case *hir.Call:
		imp, ok := a.ctx.ImportedItems[n.Func]
		return ok && imp.Python == "argparse.ArgumentParser"
	case *hir.MethodCall:
		return n.Method == "ArgumentParser" && ResolveDotted(a.ctx, n.Recv) == "argparse"
	}
	return false
}

func (a *analyzer) argparseIn(sig *genctx.FuncSig) *genctx.ArgparseInfo {
	var info *genctx.ArgparseInfo
	subparsers := map[string]bool{}
	commands := map[string]*genctx.Subcommand{}

	for _, s := range sig.Func.Body {
		switch n := s.(type) {
		case *hir.Assign:
			target, ok := n.Target.(*hir.Var)
			if !ok || n.Value == nil {
				continue
			}
			if a.isArgumentParser(n.Value) {
				info = &genctx.ArgparseInfo{
					ParserVar: target.Name,
					Function:  sig.Key,
					Skip:      map[hir.Stmt]bool{s: true},
				}
				if mc, ok := n.Value.(*hir.MethodCall); ok {
					info.Description = stringKwarg(mc.Kwargs, "description")
				} else if c, ok := n.Value.(*hir.Call); ok {
					info.Description = stringKwarg(c.Kwargs, "description")
				}
				continue
			}
			mc, ok := n.Value.(*hir.MethodCall)
			if !ok || info == nil {
				continue
			}
			recv, ok := mc.Recv.(*hir.Var)
			if !ok {
				continue
			}
			switch {
			case recv.Name == info.ParserVar && mc.Method == "parse_args":
				info.ArgsVar = target.Name
				return info
			case recv.Name == info.ParserVar && mc.Method == "add_subparsers":
				subparsers[target.Name] = true
				info.Skip[s] = true
			case subparsers[recv.Name] && mc.Method == "add_parser" && len(mc.Args) > 0:
				sc := &genctx.Subcommand{Name: stringLit(mc.Args[0]), Var: target.Name}
				commands[target.Name] = sc
				info.Subcommands = append(info.Subcommands, sc)
				info.Skip[s] = true
			case mc.Method == "add_argument":
				if f := argField(mc); f != nil {
					a.addField(info, commands, recv.Name, f)
				}
				info.Skip[s] = true
			}
		case *hir.ExprStmt:
			mc, ok := n.Value.(*hir.MethodCall)
			if !ok || info == nil || mc.Method != "add_argument" {
				continue
			}
			recv, ok := mc.Recv.(*hir.Var)
			if !ok {
				continue
			}
			if f := argField(mc); f != nil {
				a.addField(info, commands, recv.Name, f)
				info.Skip[s] = true
			}
		}
	}
	return nil
}

func (a *analyzer) addField(info *genctx.ArgparseInfo, commands map[string]*genctx.Subcommand, recv string, f *genctx.ArgField) {
	if recv == info.ParserVar {
		info.Fields = append(info.Fields, f)
		return
	}
	if sc, ok := commands[recv]; ok {
		sc.Fields = append(sc.Fields, f)
	}
}

// argField reads one add_argument call
func argField(mc *hir.MethodCall) *genctx.ArgField {
	f := &genctx.ArgField{}
	for _, arg := range mc.Args {
		name := stringLit(arg)
		switch {
		case strings.HasPrefix(name, "--"):
			f.Flag = name
		case strings.HasPrefix(name, "-"):
			f.Short = strings.TrimPrefix(name, "-")
		default:
			f.Name = name
		}
	}
	if f.Flag == "" && f.Name == "" && f.Short == "" {
		return nil
	}
	if f.Flag != "" {
		f.Name = strings.TrimPrefix(f.Flag, "--")
		f.Optional = true
	} else if f.Name == "" {
		f.Name = f.Short
		f.Flag = "-" + f.Short
		f.Optional = true
	}
	for _, kw := range mc.Kwargs {
		switch kw.Name {
		case "type":
			if v, ok := kw.Value.(*hir.Var); ok {
				switch v.Name {
				case "int":
					f.Type = hir.TypeInt
				case "float":
					f.Type = hir.TypeFloat
				case "str":
					f.Type = hir.TypeString
				}
			}
		case "action":
			f.Action = stringLit(kw.Value)
		case "default":
			if !isNone(kw.Value) {
				f.Default = kw.Value
			}
		case "help":
			f.Help = stringLit(kw.Value)
		case "nargs":
			switch stringLit(kw.Value) {
			case "*", "+":
				f.Many = true
			case "?":
				f.Optional = true
			}
		case "required":
			if l, ok := kw.Value.(*hir.Literal); ok && l.Value == "True" {
				f.Optional = false
			}
		case "dest":
			f.Name = stringLit(kw.Value)
		}
	}
	f.Name = strings.ReplaceAll(f.Name, "-", "_")
	if f.Type == nil && f.Default != nil {
		if l, ok := f.Default.(*hir.Literal); ok {
			f.Type = literalType(l)
		}
	}
	return f
}

func stringLit(e hir.Expr) string {
	if l, ok := e.(*hir.Literal); ok && l.Kind == hir.LitString {
		return l.Value
	}
	return ""
}

func stringKwarg(kwargs []*hir.Kwarg, name string) string {
	for _, kw := range kwargs {
		if kw.Name == name {
			return stringLit(kw.Value)
		}
	}
	return ""
}
