package output

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	errs "duml/internal/core/errors"
	"duml/internal/engine/graph"
	"duml/internal/engine/model"
	"duml/internal/engine/scanner"
)

const sample = `
module shapes;
import util;
alias double Real;
// TODO: add polygons
int created;
void reset();

class Shape {
    public double area();
}
class Circle : Shape {
    private Point center;
    double r;
    version(Fast) float cached;
}
struct Point { int x; int y; }
enum Color : ubyte { Red, Green }
union Raw { int i; float f; }
`

const utilSource = `
module util;
import shapes;
`

func sampleTree(t *testing.T) (*model.Tree, *graph.Graph) {
	t.Helper()
	kw := scanner.DefaultKeywords()
	sc := scanner.New(kw)
	tree := model.NewTree()
	for _, f := range []struct{ name, src string }{{"shapes.d", sample}, {"util.d", utilSource}} {
		if _, err := sc.Scan(tree, f.name, f.src); err != nil {
			t.Fatal(err)
		}
	}
	return tree, graph.Build(tree, kw.PrimitiveTypes)
}

func TestParseDrawOptions(t *testing.T) {
	all, err := ParseDrawOptions("*")
	if err != nil || all != AllDrawOptions() {
		t.Fatalf("expected all options, got %+v, %v", all, err)
	}
	o, err := ParseDrawOptions("ci")
	if err != nil {
		t.Fatal(err)
	}
	if !o.Composition || !o.Inheritance || o.Aliases || o.Todos {
		t.Errorf("unexpected options %+v", o)
	}
	if o.String() != "ci" {
		t.Errorf("expected ci, got %q", o.String())
	}
	if _, err := ParseDrawOptions("cx"); !errs.IsCode(err, errs.CodeValidationError) {
		t.Errorf("expected validation error, got %v", err)
	}
}

func TestDOTGenerator(t *testing.T) {
	tree, g := sampleTree(t)
	dot, err := NewDOTGenerator(tree, g, AllDrawOptions()).Generate()
	if err != nil {
		t.Fatal(err)
	}

	for _, want := range []string{
		"digraph G {",
		"subgraph cluster_module_shapes {",
		`shapes_Circle [label = "{Circle : Shape|- center : Point\lr : double\l`,
		`cached : float ? Fast\l`,
		`shapes_Shape [label = "{Shape||+ area() : double\l}"];`,
		`enum Color : ubyte|Red\lGreen\l`,
		`union Raw|i : int\lf : float\l`,
		`todo_module_shapes [label = "{TODO shapes|add polygons\l}", color = "dimgray", fontcolor = "dimgray"];`,
		`alias double Real\l`,
		"shapes_Circle -> shapes_Shape;",
		"shapes_Point -> shapes_Circle;",
		`pkg_module_shapes -> pkg_module_util [color = "red", label = "CYCLE"];`,
	} {
		if !strings.Contains(dot, want) {
			t.Errorf("DOT output missing %q\n%s", want, dot)
		}
	}
}

func TestDOTGenerator_DrawOptionsFilter(t *testing.T) {
	tree, g := sampleTree(t)
	dot, err := NewDOTGenerator(tree, g, DrawOptions{Inheritance: true}).Generate()
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(dot, "shapes_Circle -> shapes_Shape;") {
		t.Error("expected inheritance edge")
	}
	for _, absent := range []string{"normalinv", "todo_", "alias_", "data_", "pkg_"} {
		if strings.Contains(dot, absent) {
			t.Errorf("DOT output should not contain %q", absent)
		}
	}
}

func TestMermaidGenerator(t *testing.T) {
	tree, g := sampleTree(t)
	out, err := NewMermaidGenerator(tree, g, AllDrawOptions()).Generate()
	if err != nil {
		t.Fatal(err)
	}
	for _, want := range []string{
		"classDiagram",
		"namespace module_shapes {",
		`class shapes_Circle["Circle"] {`,
		"-Point center",
		"+area() double",
		"<<enumeration>>",
		"shapes_Shape <|-- shapes_Circle",
		"shapes_Circle *-- shapes_Point : center",
	} {
		if !strings.Contains(out, want) {
			t.Errorf("Mermaid output missing %q\n%s", want, out)
		}
	}
}

func TestPlantUMLGenerator(t *testing.T) {
	tree, g := sampleTree(t)
	out, err := NewPlantUMLGenerator(tree, g, AllDrawOptions()).Generate()
	if err != nil {
		t.Fatal(err)
	}
	for _, want := range []string{
		"@startuml",
		`package "shapes" as pkg_module_shapes {`,
		`class "Point" as shapes_Point <<struct>> {`,
		`enum "Color" as shapes_Color {`,
		"shapes_Shape <|-- shapes_Circle",
		"pkg_module_shapes ..> pkg_module_util #red : CYCLE",
		"@enduml",
	} {
		if !strings.Contains(out, want) {
			t.Errorf("PlantUML output missing %q\n%s", want, out)
		}
	}
}

func TestTSVGenerator(t *testing.T) {
	tree, _ := sampleTree(t)
	out, err := NewTSVGenerator(tree).Generate()
	if err != nil {
		t.Fatal(err)
	}
	lines := strings.Split(strings.TrimSpace(out), "\n")
	if lines[0] != strings.TrimSpace(tsvHeader) {
		t.Errorf("unexpected header %q", lines[0])
	}
	for _, want := range []string{
		"class\tshapes\t\tCircle\tShape\t\t",
		"variable\tshapes\tCircle\tcenter\tPoint\tprivate\t",
		"variable\tshapes\tCircle\tcached\tfloat\t\tFast",
		"enum_value\tshapes\tColor\tRed\t\t\t",
		"import\tutil\t\tshapes\t\t\t",
	} {
		if !strings.Contains(out, want+"\n") {
			t.Errorf("TSV output missing row %q", want)
		}
	}
}

func TestRenderAndFormats(t *testing.T) {
	tree, g := sampleTree(t)
	for _, name := range []string{"dot", "mermaid", "puml", "TSV"} {
		f, err := ParseFormat(name)
		if err != nil {
			t.Fatalf("ParseFormat(%q): %v", name, err)
		}
		if _, err := Render(f, tree, g, AllDrawOptions()); err != nil {
			t.Errorf("Render(%s): %v", f, err)
		}
	}
	if _, err := ParseFormat("svg"); !errs.IsCode(err, errs.CodeNotSupported) {
		t.Errorf("expected not supported, got %v", err)
	}
}

func TestWriteFileCreatesDirectories(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "graph.dot")
	if err := WriteFile(path, "digraph G {}\n"); err != nil {
		t.Fatal(err)
	}
	data, err := os.ReadFile(path)
	if err != nil || string(data) != "digraph G {}\n" {
		t.Fatalf("unexpected content %q, %v", data, err)
	}
}

func TestRenderPNGMissingBinary(t *testing.T) {
	old := DotBinary
	DotBinary = "duml-no-such-graphviz-binary"
	defer func() { DotBinary = old }()

	err := RenderPNG(context.Background(), "in.dot", filepath.Join(t.TempDir(), "out.png"))
	if !errs.IsCode(err, errs.CodeNotFound) {
		t.Errorf("expected not found error, got %v", err)
	}
}

func TestReplaceBetweenMarkers(t *testing.T) {
	doc := "# Title\n<!-- duml:classes:start -->\nold\n<!-- duml:classes:end -->\ntail\n"
	got, err := ReplaceBetweenMarkers(doc, "classes", "new\n")
	if err != nil {
		t.Fatal(err)
	}
	want := "# Title\n<!-- duml:classes:start -->\nnew\n<!-- duml:classes:end -->\ntail\n"
	if got != want {
		t.Errorf("unexpected result:\n%q\nwant\n%q", got, want)
	}

	crlf := "<!-- duml:x:start -->\r\n<!-- duml:x:end -->\r\n"
	got, err = ReplaceBetweenMarkers(crlf, "x", "a\nb")
	if err != nil {
		t.Fatal(err)
	}
	if got != "<!-- duml:x:start -->\r\na\r\nb\r\n<!-- duml:x:end -->\r\n" {
		t.Errorf("line endings not kept: %q", got)
	}

	for name, content := range map[string]string{
		"missing":   "no markers here",
		"duplicate": doc + doc,
		"reversed":  "<!-- duml:classes:end -->\n<!-- duml:classes:start -->\n",
	} {
		if _, err := ReplaceBetweenMarkers(content, "classes", "x"); !errs.IsCode(err, errs.CodeValidationError) {
			t.Errorf("%s: expected validation error, got %v", name, err)
		}
	}
	if _, err := ReplaceBetweenMarkers(doc, " ", "x"); err == nil {
		t.Error("expected error for empty marker")
	}
}

func TestInjectDiagram(t *testing.T) {
	tree, g := sampleTree(t)
	doc, err := Render(FormatMermaid, tree, g, AllDrawOptions())
	if err != nil {
		t.Fatal(err)
	}

	path := filepath.Join(t.TempDir(), "README.md")
	if err := os.WriteFile(path, []byte("intro\n<!-- duml:classes:start -->\n<!-- duml:classes:end -->\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	if err := InjectDiagram(path, "classes", MarkdownBlock(doc)); err != nil {
		t.Fatal(err)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(string(data), "<!-- duml:classes:start -->\n```mermaid\nclassDiagram") {
		t.Errorf("diagram not injected:\n%s", data)
	}

	err = InjectDiagram(filepath.Join(t.TempDir(), "missing.md"), "classes", "x")
	if !errs.IsCode(err, errs.CodeNotFound) {
		t.Errorf("expected not found error, got %v", err)
	}
}
