package model

import "strings"

// Declaration is one flattened entry of the tree. Owner is empty for
// module-level entries. Type holds the variable type, method return type,
// class base list, enum base type or alias source.
type Declaration struct {
	Kind       string
	Module     string
	Owner      string
	Name       string
	Type       string
	Qualifiers string
	Version    string
}

// Declarations lists every entry of the tree in module order, module-level
// entries before types.
func (t *Tree) Declarations() []Declaration {
	var out []Declaration
	add := func(kind, module, owner, name, typ, quals, version string) {
		out = append(out, Declaration{kind, module, owner, name, typ, quals, version})
	}

	for _, m := range t.Modules() {
		for _, imp := range m.Imports {
			add("import", m.Name, "", imp, "", "", "")
		}
		for _, a := range m.Aliases {
			add("alias", m.Name, "", a.Target, a.Source, a.Qualifiers, a.Version)
		}
		for _, todo := range m.Todos {
			add("todo", m.Name, "", todo, "", "", "")
		}
		for _, v := range m.Variables {
			add("variable", m.Name, "", v.Name, v.Type, v.Qualifiers, v.Version)
		}
		for _, x := range m.Methods {
			add("method", m.Name, "", x.Signature(), x.ReturnType, x.Qualifiers, x.Version)
		}
		for _, typ := range m.Types {
			switch v := typ.(type) {
			case *Class:
				add(string(v.Kind()), m.Name, "", v.Name(), strings.Join(v.BaseTypes, ","), v.Qualifiers(), v.Version())
				for _, f := range v.Variables {
					add("variable", m.Name, v.Name(), f.Name, f.Type, f.Qualifiers, f.Version)
				}
				for _, x := range v.Methods {
					add("method", m.Name, v.Name(), x.Signature(), x.ReturnType, x.Qualifiers, x.Version)
				}
			case *Enum:
				add("enum", m.Name, "", v.Name(), v.BaseType, v.Qualifiers(), v.Version())
				for _, val := range v.Values {
					add("enum_value", m.Name, v.Name(), val, "", "", "")
				}
			case *Union:
				add("union", m.Name, "", v.Name(), "", v.Qualifiers(), v.Version())
				for _, f := range v.Variables {
					add("variable", m.Name, v.Name(), f.Name, f.Type, f.Qualifiers, f.Version)
				}
			}
		}
	}
	return out
}
