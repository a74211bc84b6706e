package browser

import (
	"fmt"
	"strings"

	"duml/internal/engine/model"
)

// moduleDetails renders a module's declarations as indented text.
func moduleDetails(mod *model.Module) string {
	var b strings.Builder
	fmt.Fprintf(&b, "module %s\n", mod.Name)

	if len(mod.Imports) > 0 {
		fmt.Fprintf(&b, "\nimports: %s\n", strings.Join(mod.Imports, ", "))
	}
	for _, a := range mod.Aliases {
		fmt.Fprintf(&b, "%s %s %s\n", a.Keyword, a.Source, a.Target)
	}
	for _, todo := range mod.Todos {
		fmt.Fprintf(&b, "TODO %s\n", todo)
	}

	if len(mod.Variables) > 0 || len(mod.Methods) > 0 {
		b.WriteString("\n")
		writeMembers(&b, "", mod.Variables, mod.Methods)
	}

	for _, t := range mod.Types {
		b.WriteString("\n")
		switch v := t.(type) {
		case *model.Class:
			head := fmt.Sprintf("%s %s", v.Kind(), v.Name())
			if len(v.BaseTypes) > 0 {
				head += " : " + strings.Join(v.BaseTypes, ", ")
			}
			b.WriteString(decorate(head, v.Qualifiers(), v.Version()) + "\n")
			writeMembers(&b, "  ", v.Variables, v.Methods)
		case *model.Enum:
			head := "enum " + v.Name()
			if v.BaseType != "" {
				head += " : " + v.BaseType
			}
			b.WriteString(decorate(head, v.Qualifiers(), v.Version()) + "\n")
			for _, val := range v.Values {
				fmt.Fprintf(&b, "  %s\n", val)
			}
		case *model.Union:
			b.WriteString(decorate("union "+v.Name(), v.Qualifiers(), v.Version()) + "\n")
			writeMembers(&b, "  ", v.Variables, nil)
		}
	}
	return strings.TrimRight(b.String(), "\n")
}

func writeMembers(b *strings.Builder, indent string, vars []*model.Variable, methods []*model.Method) {
	for _, v := range vars {
		b.WriteString(indent + decorate(v.Type+" "+v.Name, v.Qualifiers, v.Version) + "\n")
	}
	for _, m := range methods {
		sig := m.Signature()
		if m.ReturnType != "" {
			sig = m.ReturnType + " " + sig
		}
		b.WriteString(indent + decorate(sig, m.Qualifiers, m.Version) + "\n")
	}
}

func decorate(s, qualifiers, version string) string {
	if qualifiers != "" {
		s = qualifiers + " " + s
	}
	if version != "" {
		s += "  [version " + version + "]"
	}
	return s
}
