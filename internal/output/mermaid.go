package output

import (
	"fmt"
	"strings"

	"duml/internal/engine/graph"
	"duml/internal/engine/model"
)

// MermaidGenerator renders a Mermaid classDiagram with one namespace per
// module. Mermaid has no notion of edges between namespaces, so import
// edges are listed as comments.
type MermaidGenerator struct {
	tree  *model.Tree
	graph *graph.Graph
	opts  DrawOptions
}

func NewMermaidGenerator(tree *model.Tree, g *graph.Graph, opts DrawOptions) *MermaidGenerator {
	return &MermaidGenerator{tree: tree, graph: g, opts: opts}
}

func (m *MermaidGenerator) Generate() (string, error) {
	var b strings.Builder
	b.WriteString("classDiagram\n")

	ids := newIDSet()
	types := typeIDs(m.tree, ids)

	for _, mod := range m.tree.Modules() {
		modID := ids.id("module " + mod.Name)
		b.WriteString(fmt.Sprintf("  namespace %s {\n", modID))

		if m.opts.ModuleData && (len(mod.Variables) > 0 || len(mod.Methods) > 0) {
			b.WriteString(fmt.Sprintf("    class data_%s[\"module %s\"] {\n", modID, escapeMermaidLabel(mod.Name)))
			b.WriteString("      <<module>>\n")
			writeMermaidVariables(&b, mod.Variables)
			writeMermaidMethods(&b, mod.Methods)
			b.WriteString("    }\n")
		}
		if m.opts.Aliases && len(mod.Aliases) > 0 {
			b.WriteString(fmt.Sprintf("    class alias_%s[\"aliases %s\"] {\n", modID, escapeMermaidLabel(mod.Name)))
			for _, a := range mod.Aliases {
				b.WriteString(fmt.Sprintf("      %s %s\n", mermaidText(a.Source), mermaidText(a.Target)))
			}
			b.WriteString("    }\n")
		}
		if m.opts.Todos && len(mod.Todos) > 0 {
			b.WriteString(fmt.Sprintf("    class todo_%s[\"TODO %s\"] {\n", modID, escapeMermaidLabel(mod.Name)))
			for _, todo := range mod.Todos {
				b.WriteString("      " + mermaidText(todo) + "\n")
			}
			b.WriteString("    }\n")
		}

		for _, t := range mod.Types {
			m.writeType(&b, types[t], t)
		}
		b.WriteString("  }\n")
	}

	if m.opts.Inheritance {
		for _, e := range m.graph.Edges(graph.EdgeInheritance) {
			b.WriteString(fmt.Sprintf("  %s <|-- %s\n", types[e.To], types[e.From]))
		}
	}
	if m.opts.Composition {
		for _, e := range m.graph.Edges(graph.EdgeComposition) {
			b.WriteString(fmt.Sprintf("  %s *-- %s : %s\n", types[e.From], types[e.To], mermaidText(e.Via)))
		}
	}
	if m.opts.Imports {
		for _, e := range m.graph.ImportEdges() {
			b.WriteString(fmt.Sprintf("  %%%% import %s --> %s\n", e.From, e.To))
		}
	}
	return b.String(), nil
}

func (m *MermaidGenerator) writeType(b *strings.Builder, id string, t model.Type) {
	label := t.Name()
	if t.Version() != "" {
		label += " ? " + t.Version()
	}
	b.WriteString(fmt.Sprintf("    class %s[\"%s\"] {\n", id, escapeMermaidLabel(label)))
	switch v := t.(type) {
	case *model.Class:
		if v.Kind() != model.KindClass {
			b.WriteString(fmt.Sprintf("      <<%s>>\n", v.Kind()))
		}
		writeMermaidVariables(b, v.Variables)
		writeMermaidMethods(b, v.Methods)
	case *model.Enum:
		b.WriteString("      <<enumeration>>\n")
		for _, val := range v.Values {
			b.WriteString("      " + mermaidText(val) + "\n")
		}
	case *model.Union:
		b.WriteString("      <<union>>\n")
		writeMermaidVariables(b, v.Variables)
	}
	b.WriteString("    }\n")
}

func writeMermaidVariables(b *strings.Builder, vars []*model.Variable) {
	for _, v := range vars {
		b.WriteString(fmt.Sprintf("      %s%s %s\n", mermaidVisibility(v.Qualifiers), mermaidText(v.Type), mermaidText(v.Name)))
	}
}

func writeMermaidMethods(b *strings.Builder, methods []*model.Method) {
	for _, m := range methods {
		line := fmt.Sprintf("      %s%s(%s)", mermaidVisibility(m.Qualifiers), mermaidText(m.Name), mermaidText(m.Arguments))
		if m.ReturnType != "" {
			line += " " + mermaidText(m.ReturnType)
		}
		b.WriteString(line + "\n")
	}
}

func mermaidVisibility(qualifiers string) string {
	switch visibilityOf(qualifiers) {
	case VisibilityPrivate:
		return "-"
	case VisibilityProtected:
		return "#"
	case VisibilityPackage:
		return "~"
	case VisibilityPublic:
		return "+"
	}
	return ""
}

// mermaidText drops characters that end a class body or start generics.
var mermaidReplacer = strings.NewReplacer("{", "(", "}", ")", "<", "(", ">", ")", "\"", "'", "~", "-")

func mermaidText(s string) string {
	return mermaidReplacer.Replace(s)
}

func escapeMermaidLabel(s string) string {
	return strings.ReplaceAll(s, "\"", "'")
}
