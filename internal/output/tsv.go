package output

import (
	"strings"

	"duml/internal/engine/model"
)

// TSVGenerator lists every declaration as one tab separated row.
type TSVGenerator struct {
	tree *model.Tree
}

func NewTSVGenerator(tree *model.Tree) *TSVGenerator {
	return &TSVGenerator{tree: tree}
}

const tsvHeader = "Kind\tModule\tOwner\tName\tType\tQualifiers\tVersion\n"

func (t *TSVGenerator) Generate() (string, error) {
	return FormatDeclarations(t.tree.Declarations()), nil
}

// FormatDeclarations renders declaration rows as TSV with a header line.
func FormatDeclarations(decls []model.Declaration) string {
	var buf strings.Builder
	buf.WriteString(tsvHeader)

	for _, d := range decls {
		fields := []string{d.Kind, d.Module, d.Owner, d.Name, d.Type, d.Qualifiers, d.Version}
		for i, f := range fields {
			fields[i] = tsvField(f)
		}
		buf.WriteString(strings.Join(fields, "\t"))
		buf.WriteByte('\n')
	}
	return buf.String()
}

var tsvEscaper = strings.NewReplacer("\t", " ", "\n", " ")

func tsvField(s string) string {
	return tsvEscaper.Replace(s)
}
