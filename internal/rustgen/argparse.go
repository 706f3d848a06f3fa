package rustgen

import (
	"strings"

	"github.com/paiml/depyler-sub010/internal/analysis"
	"github.com/paiml/depyler-sub010/internal/genctx"
	"github.com/paiml/depyler-sub010/internal/hir"
	"github.com/paiml/depyler-sub010/internal/rustast"
)

// argparseItems emits the clap Args struct for a recognized argparse
// parser, with a Commands enum when it has subparsers
func (g *generator) argparseItems() []rustast.Item {
	ap := g.ctx.Argparse
	if ap == nil {
		return nil
	}
	args := &rustast.Struct{
		Attrs: []string{"derive(clap::Parser, Debug)"},
		Pub:   true,
		Name:  "Args",
	}
	if ap.Description != "" {
		args.Attrs = append(args.Attrs, "command(about = "+rustast.Quote(ap.Description)+")")
	}
	for _, f := range ap.Fields {
		args.Fields = append(args.Fields, g.argField(f))
	}
	if len(ap.Subcommands) == 0 {
		return []rustast.Item{args}
	}

	args.Fields = append(args.Fields, rustast.StructField{
		Attrs: []string{"command(subcommand)"},
		Pub:   true,
		Name:  "command",
		Type:  rustast.Named("Commands"),
	})
	cmds := &rustast.Enum{Attrs: []string{"derive(clap::Subcommand, Debug)"}, Pub: true, Name: "Commands"}
	var arms []string
	for _, sc := range ap.Subcommands {
		v := rustast.Variant{Name: rustast.PascalCase(sc.Name)}
		for _, f := range sc.Fields {
			field := g.argField(f)
			field.Pub = false
			v.Named = append(v.Named, field)
		}
		if len(v.Named) == 0 {
			arms = append(arms, "            Commands::"+v.Name+" => "+rustast.Quote(sc.Name)+",")
		} else {
			arms = append(arms, "            Commands::"+v.Name+" { .. } => "+rustast.Quote(sc.Name)+",")
		}
		cmds.Variants = append(cmds.Variants, v)
	}
	name := &rustast.RawItem{Text: "impl Commands {\n" +
		"    pub fn name(&self) -> &'static str {\n" +
		"        match self {\n" + strings.Join(arms, "\n") + "\n        }\n    }\n}"}
	return []rustast.Item{args, cmds, name}
}

// argField lowers one add_argument call to a clap field
func (g *generator) argField(f *genctx.ArgField) rustast.StructField {
	t := g.mapType(analysis.ArgFieldType(f))
	var parts []string
	if f.Flag != "" {
		if long := strings.TrimPrefix(f.Flag, "--"); long != f.Flag {
			parts = append(parts, "long = "+rustast.Quote(long))
		}
		if f.Short != "" {
			parts = append(parts, "short = '"+f.Short[:1]+"'")
		}
	}
	switch f.Action {
	case "store_true":
		parts = append(parts, "action = clap::ArgAction::SetTrue")
	case "store_false":
		parts = append(parts, "action = clap::ArgAction::SetFalse")
	case "count":
		parts = append(parts, "action = clap::ArgAction::Count")
		t = rustast.Named("u8")
	}
	if f.Default != nil && f.Action == "" && !f.Many {
		if lit, ok := f.Default.(*hir.Literal); ok {
			if lit.Kind == hir.LitString {
				parts = append(parts, "default_value = "+rustast.Quote(lit.Value))
			} else {
				parts = append(parts, "default_value_t = "+rustast.RenderExpr(g.literal(lit)))
			}
		} else {
			line, col := f.Default.Loc()
			g.ctx.Diags.Unsupported(line, col, "argparse", "non-literal default for %s", f.Name)
		}
	}
	if f.Help != "" {
		parts = append(parts, "help = "+rustast.Quote(f.Help))
	}
	field := rustast.StructField{Pub: true, Name: g.ident(f.Name), Type: t}
	if len(parts) > 0 {
		field.Attrs = []string{"arg(" + strings.Join(parts, ", ") + ")"}
	}
	return field
}

// argsAttribute lowers args.name for the parsed argparse namespace when the
// name lives in a subcommand or names the chosen subcommand
func (g *generator) argsAttribute(n *hir.Attribute) (rustast.Expr, bool) {
	ap := g.ctx.Argparse
	if ap == nil || len(ap.Subcommands) == 0 {
		return nil, false
	}
	v, ok := n.Recv.(*hir.Var)
	if !ok || v.Name != ap.ArgsVar {
		return nil, false
	}
	for _, f := range ap.Fields {
		if f.Name == n.Name {
			return nil, false
		}
	}
	recv := &rustast.Field{Recv: g.generateExpr(v), Name: "command"}
	var arms []rustast.Arm
	for _, sc := range ap.Subcommands {
		for _, f := range sc.Fields {
			if f.Name == n.Name {
				id := g.ident(f.Name)
				arms = append(arms, rustast.Arm{
					Pattern: "Commands::" + rustast.PascalCase(sc.Name) + " { " + id + ", .. }",
					Body:    rustast.Method(rustast.Name(id), "clone"),
				})
			}
		}
	}
	if len(arms) == 0 {
		// add_subparsers(dest=...) names the chosen subcommand
		return rustast.Method(rustast.Method(recv, "name"), "to_string"), true
	}
	if len(arms) < len(ap.Subcommands) {
		arms = append(arms, rustast.Arm{Pattern: "_", Body: rustast.CallPath("Default::default")})
	}
	return &rustast.Match{Subject: &rustast.Borrow{X: recv}, Arms: arms}, true
}
