package output

import (
	"fmt"
	"strings"

	"duml/internal/engine/graph"
	"duml/internal/engine/model"
)

// DOTGenerator renders the tree as a Graphviz UML diagram: one cluster per
// module, one record node per type.
type DOTGenerator struct {
	tree  *model.Tree
	graph *graph.Graph
	opts  DrawOptions
}

func NewDOTGenerator(tree *model.Tree, g *graph.Graph, opts DrawOptions) *DOTGenerator {
	return &DOTGenerator{tree: tree, graph: g, opts: opts}
}

func (d *DOTGenerator) Generate() (string, error) {
	var buf strings.Builder

	buf.WriteString("digraph G {\n")
	buf.WriteString("  fontname = \"Bitstream Vera Sans\"\n")
	buf.WriteString("  fontsize = 8\n")
	buf.WriteString("  compound = true\n\n")
	buf.WriteString("  node [fontname = \"Bitstream Vera Sans\", fontsize = 8, shape = \"record\"];\n")
	buf.WriteString("  edge [fontname = \"Bitstream Vera Sans\", fontsize = 8];\n\n")

	ids := newIDSet()
	types := typeIDs(d.tree, ids)
	anchors := make(map[string]string)
	cycleEdges := cycleEdgeSet(d.graph.DetectCycles())

	for _, m := range d.tree.Modules() {
		modID := ids.id("module " + m.Name)
		buf.WriteString(fmt.Sprintf("  subgraph cluster_%s {\n", modID))
		buf.WriteString(fmt.Sprintf("    label = \"%s\";\n", escapeDOTString(m.Name)))

		if d.opts.Imports {
			anchors[m.Name] = "pkg_" + modID
			buf.WriteString(fmt.Sprintf("    pkg_%s [shape = \"tab\", label = \"%s\"];\n", modID, escapeDOTString(m.Name)))
		}
		if d.opts.Todos && len(m.Todos) > 0 {
			lines := make([]string, 0, len(m.Todos))
			for _, todo := range m.Todos {
				lines = append(lines, escapeRecord(todo)+`\l`)
			}
			writeRecord(&buf, "todo_"+modID, "TODO "+escapeRecord(m.Name), `color = "dimgray", fontcolor = "dimgray"`, strings.Join(lines, ""))
		}
		if d.opts.Aliases && len(m.Aliases) > 0 {
			lines := make([]string, 0, len(m.Aliases))
			for _, a := range m.Aliases {
				lines = append(lines, escapeRecord(model.JoinQualifiers(a.Qualifiers, a.Keyword, a.Source, a.Target))+versionSuffix(a.Version)+`\l`)
			}
			writeRecord(&buf, "alias_"+modID, "aliases "+escapeRecord(m.Name), "", strings.Join(lines, ""))
		}
		if d.opts.ModuleData && (len(m.Variables) > 0 || len(m.Methods) > 0) {
			writeRecord(&buf, "data_"+modID, "module "+escapeRecord(m.Name), "",
				dotVariables(m.Variables), dotMethods(m.Methods))
		}

		for _, t := range m.Types {
			d.writeType(&buf, types[t], t)
		}
		buf.WriteString("  }\n\n")
	}

	if d.opts.Inheritance {
		buf.WriteString("  edge [arrowhead = \"onormal\", style = \"solid\"];\n")
		for _, e := range d.graph.Edges(graph.EdgeInheritance) {
			buf.WriteString(fmt.Sprintf("  %s -> %s;\n", types[e.From], types[e.To]))
		}
	}
	if d.opts.Composition {
		buf.WriteString("  edge [arrowhead = \"normalinv\", style = \"solid\"];\n")
		for _, e := range d.graph.Edges(graph.EdgeComposition) {
			buf.WriteString(fmt.Sprintf("  %s -> %s;\n", types[e.To], types[e.From]))
		}
	}
	if d.opts.Imports {
		buf.WriteString("  edge [arrowhead = \"vee\", style = \"dashed\"];\n")
		for _, e := range d.graph.ImportEdges() {
			attrs := ""
			if cycleEdges[e.From+"->"+e.To] {
				attrs = ` [color = "red", label = "CYCLE"]`
			}
			buf.WriteString(fmt.Sprintf("  %s -> %s%s;\n", anchors[e.From], anchors[e.To], attrs))
		}
	}

	buf.WriteString("}\n")
	return buf.String(), nil
}

func (d *DOTGenerator) writeType(buf *strings.Builder, id string, t model.Type) {
	title := scopeMarker(t.Qualifiers())
	switch v := t.(type) {
	case *model.Class:
		if v.Kind() != model.KindClass {
			title += string(v.Kind()) + " "
		}
		title += escapeRecord(v.Name())
		if len(v.BaseTypes) > 0 {
			title += " : " + escapeRecord(strings.Join(v.BaseTypes, ","))
		}
		title += versionSuffix(v.Version())
		writeRecord(buf, id, title, "", dotVariables(v.Variables), dotMethods(v.Methods))
	case *model.Enum:
		title += "enum " + escapeRecord(v.Name())
		if v.BaseType != "" {
			title += " : " + escapeRecord(v.BaseType)
		}
		title += versionSuffix(v.Version())
		var values strings.Builder
		for _, val := range v.Values {
			values.WriteString(escapeRecord(val) + `\l`)
		}
		writeRecord(buf, id, title, "", values.String())
	case *model.Union:
		title += "union " + escapeRecord(v.Name()) + versionSuffix(v.Version())
		writeRecord(buf, id, title, "", dotVariables(v.Variables))
	}
}

// writeRecord emits `id [label = "{title|part|part}"]`.
func writeRecord(buf *strings.Builder, id, title, attrs string, parts ...string) {
	label := "{" + title
	for _, p := range parts {
		label += "|" + p
	}
	label += "}"
	if attrs != "" {
		attrs = ", " + attrs
	}
	buf.WriteString(fmt.Sprintf("    %s [label = \"%s\"%s];\n", id, label, attrs))
}

func dotVariables(vars []*model.Variable) string {
	var b strings.Builder
	for _, v := range vars {
		b.WriteString(scopeMarker(v.Qualifiers) + escapeRecord(v.Name+" : "+v.Type) + versionSuffix(v.Version) + `\l`)
	}
	return b.String()
}

func dotMethods(methods []*model.Method) string {
	var b strings.Builder
	for _, m := range methods {
		sig := m.Signature()
		if m.ReturnType != "" {
			sig += " : " + m.ReturnType
		}
		b.WriteString(scopeMarker(m.Qualifiers) + escapeRecord(sig) + versionSuffix(m.Version) + `\l`)
	}
	return b.String()
}

func scopeMarker(qualifiers string) string {
	switch visibilityOf(qualifiers) {
	case VisibilityPrivate:
		return "- "
	case VisibilityProtected:
		return "# "
	case VisibilityPackage:
		return "! "
	case VisibilityPublic:
		return "+ "
	}
	return ""
}

func versionSuffix(version string) string {
	if version == "" {
		return ""
	}
	return " ? " + escapeRecord(version)
}

var recordEscaper = strings.NewReplacer(
	`\`, `\\`, `"`, `\"`, "{", `\{`, "}", `\}`, "|", `\|`, "<", `\<`, ">", `\>`,
)

// escapeRecord escapes text for use inside a record label.
func escapeRecord(s string) string {
	return recordEscaper.Replace(s)
}

func escapeDOTString(s string) string {
	return strings.NewReplacer(`\`, `\\`, `"`, `\"`).Replace(s)
}

func cycleEdgeSet(cycles [][]string) map[string]bool {
	out := make(map[string]bool)
	for _, cycle := range cycles {
		for i := range cycle {
			out[cycle[i]+"->"+cycle[(i+1)%len(cycle)]] = true
		}
	}
	return out
}
