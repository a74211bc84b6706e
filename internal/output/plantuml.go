package output

import (
	"fmt"
	"strings"

	"duml/internal/engine/graph"
	"duml/internal/engine/model"
)

type PlantUMLGenerator struct {
	tree  *model.Tree
	graph *graph.Graph
	opts  DrawOptions
}

func NewPlantUMLGenerator(tree *model.Tree, g *graph.Graph, opts DrawOptions) *PlantUMLGenerator {
	return &PlantUMLGenerator{tree: tree, graph: g, opts: opts}
}

func (p *PlantUMLGenerator) Generate() (string, error) {
	var b strings.Builder
	b.WriteString("@startuml\n")
	b.WriteString("skinparam packageStyle rectangle\n")
	b.WriteString("skinparam classAttributeIconSize 0\n")
	b.WriteString("hide empty members\n\n")

	ids := newIDSet()
	types := typeIDs(p.tree, ids)
	packages := make(map[string]string)

	for _, m := range p.tree.Modules() {
		pkg := "pkg_" + ids.id("module "+m.Name)
		packages[m.Name] = pkg
		b.WriteString(fmt.Sprintf("package \"%s\" as %s {\n", escapePlantUML(m.Name), pkg))

		if p.opts.ModuleData && (len(m.Variables) > 0 || len(m.Methods) > 0) {
			b.WriteString(fmt.Sprintf("  class \"module %s\" as data_%s << (M,#DDDDDD) >> {\n", escapePlantUML(m.Name), pkg))
			writePlantUMLVariables(&b, m.Variables)
			writePlantUMLMethods(&b, m.Methods)
			b.WriteString("  }\n")
		}
		if p.opts.Aliases && len(m.Aliases) > 0 {
			b.WriteString(fmt.Sprintf("  class \"aliases %s\" as alias_%s << (A,#EEEEEE) >> {\n", escapePlantUML(m.Name), pkg))
			for _, a := range m.Aliases {
				b.WriteString(fmt.Sprintf("    %s %s%s\n", a.Source, a.Target, versionSuffixPlain(a.Version)))
			}
			b.WriteString("  }\n")
		}
		if p.opts.Todos && len(m.Todos) > 0 {
			b.WriteString(fmt.Sprintf("  note as todo_%s\n", pkg))
			b.WriteString("    TODO\n")
			for _, todo := range m.Todos {
				b.WriteString("    * " + todo + "\n")
			}
			b.WriteString("  end note\n")
		}

		for _, t := range m.Types {
			p.writeType(&b, types[t], t)
		}
		b.WriteString("}\n\n")
	}

	if p.opts.Inheritance {
		for _, e := range p.graph.Edges(graph.EdgeInheritance) {
			b.WriteString(fmt.Sprintf("%s <|-- %s\n", types[e.To], types[e.From]))
		}
	}
	if p.opts.Composition {
		for _, e := range p.graph.Edges(graph.EdgeComposition) {
			b.WriteString(fmt.Sprintf("%s *-- %s : %s\n", types[e.From], types[e.To], e.Via))
		}
	}
	if p.opts.Imports {
		cycleEdges := cycleEdgeSet(p.graph.DetectCycles())
		for _, e := range p.graph.ImportEdges() {
			if cycleEdges[e.From+"->"+e.To] {
				b.WriteString(fmt.Sprintf("%s ..> %s #red : CYCLE\n", packages[e.From], packages[e.To]))
				continue
			}
			b.WriteString(fmt.Sprintf("%s ..> %s\n", packages[e.From], packages[e.To]))
		}
	}

	b.WriteString("@enduml\n")
	return b.String(), nil
}

func (p *PlantUMLGenerator) writeType(b *strings.Builder, id string, t model.Type) {
	name := escapePlantUML(t.Name() + versionSuffixPlain(t.Version()))
	switch v := t.(type) {
	case *model.Class:
		keyword := "class"
		stereo := ""
		switch v.Kind() {
		case model.KindInterface:
			keyword = "interface"
		case model.KindStruct:
			stereo = " <<struct>>"
		}
		b.WriteString(fmt.Sprintf("  %s \"%s\" as %s%s {\n", keyword, name, id, stereo))
		writePlantUMLVariables(b, v.Variables)
		writePlantUMLMethods(b, v.Methods)
	case *model.Enum:
		b.WriteString(fmt.Sprintf("  enum \"%s\" as %s {\n", name, id))
		for _, val := range v.Values {
			b.WriteString("    " + val + "\n")
		}
	case *model.Union:
		b.WriteString(fmt.Sprintf("  class \"%s\" as %s <<union>> {\n", name, id))
		writePlantUMLVariables(b, v.Variables)
	}
	b.WriteString("  }\n")
}

func writePlantUMLVariables(b *strings.Builder, vars []*model.Variable) {
	for _, v := range vars {
		b.WriteString(fmt.Sprintf("    %s%s : %s%s\n", plantUMLVisibility(v.Qualifiers), v.Name, v.Type, versionSuffixPlain(v.Version)))
	}
}

func writePlantUMLMethods(b *strings.Builder, methods []*model.Method) {
	for _, m := range methods {
		line := fmt.Sprintf("    %s%s(%s)", plantUMLVisibility(m.Qualifiers), m.Name, m.Arguments)
		if m.ReturnType != "" {
			line += " : " + m.ReturnType
		}
		b.WriteString(line + versionSuffixPlain(m.Version) + "\n")
	}
}

func plantUMLVisibility(qualifiers string) string {
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

func versionSuffixPlain(version string) string {
	if version == "" {
		return ""
	}
	return " ? " + version
}

func escapePlantUML(s string) string {
	return strings.ReplaceAll(s, "\"", "'")
}
