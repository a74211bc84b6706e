// Package model holds the declaration tree produced by the scanner.
//
// The tree is organised by module. Each module owns its types, top-level
// methods and variables, imports, aliases and harvested TODO notes. Types are
// a closed set (Class, Enum, Union) behind the Type interface; renderers
// switch on the concrete type to reach member lists. Everything outside the
// scanner treats the tree as read-only.
package model

import "strings"

// Kind discriminates the Type variants.
type Kind string

const (
	KindClass     Kind = "class"
	KindStruct    Kind = "struct"
	KindInterface Kind = "interface"
	KindEnum      Kind = "enum"
	KindUnion     Kind = "union"
)

const (
	ConstructorName = "this"
	DestructorName  = "~this"
)

// Type is the read-only view shared by classes, enums and unions.
type Type interface {
	Name() string
	Kind() Kind
	Module() *Module
	Qualifiers() string
	Version() string

	setModule(m *Module)
}

type typeBase struct {
	name       string
	module     *Module
	qualifiers string
	version    string
}

func (t *typeBase) Name() string { return t.name }
func (t *typeBase) Module() *Module { return t.module }
func (t *typeBase) Qualifiers() string { return t.qualifiers }
func (t *typeBase) Version() string { return t.version }
func (t *typeBase) setModule(m *Module) { t.module = m }

// Class covers class, struct and interface definitions.
type Class struct {
	typeBase
	keyword   Kind
	BaseTypes []string
	Methods   []*Method
	Variables []*Variable
}

func NewClass(keyword Kind, name string, module *Module, qualifiers string, baseTypes []string, version string) *Class {
	if keyword == "" {
		keyword = KindClass
	}
	bases := make([]string, 0, len(baseTypes))
	for _, b := range baseTypes {
		if b = Normalize(b); b != "" {
			bases = append(bases, b)
		}
	}
	return &Class{
		typeBase: typeBase{
			name:       Normalize(name),
			module:     module,
			qualifiers: Normalize(qualifiers),
			version:    Normalize(version),
		},
		keyword:   keyword,
		BaseTypes: bases,
	}
}

func (c *Class) Kind() Kind { return c.keyword }

func (c *Class) AddMethod(m *Method) { c.Methods = append(c.Methods, m) }
func (c *Class) AddVariable(v *Variable) { c.Variables = append(c.Variables, v) }

type Enum struct {
	typeBase
	BaseType string
	Values   []string
}

func NewEnum(name string, module *Module, values []string, baseType, qualifiers, version string) *Enum {
	normalized := make([]string, 0, len(values))
	for _, v := range values {
		if v = Normalize(v); v != "" {
			normalized = append(normalized, v)
		}
	}
	return &Enum{
		typeBase: typeBase{
			name:       Normalize(name),
			module:     module,
			qualifiers: Normalize(qualifiers),
			version:    Normalize(version),
		},
		BaseType: Normalize(baseType),
		Values:   normalized,
	}
}

func (e *Enum) Kind() Kind { return KindEnum }

type Union struct {
	typeBase
	Variables []*Variable
}

func NewUnion(name string, module *Module, qualifiers, version string) *Union {
	return &Union{
		typeBase: typeBase{
			name:       Normalize(name),
			module:     module,
			qualifiers: Normalize(qualifiers),
			version:    Normalize(version),
		},
	}
}

func (u *Union) Kind() Kind { return KindUnion }

func (u *Union) AddVariable(v *Variable) { u.Variables = append(u.Variables, v) }

type Method struct {
	Name       string
	ReturnType string
	Qualifiers string
	Arguments  string
	Version    string
}

func NewMethod(name, returnType, qualifiers, arguments, version string) *Method {
	qualifiers, returnType = NormalizeTypeModifiers(qualifiers, returnType)
	return &Method{
		Name:       Normalize(name),
		ReturnType: returnType,
		Qualifiers: qualifiers,
		Arguments:  Normalize(arguments),
		Version:    Normalize(version),
	}
}

func (m *Method) IsConstructor() bool { return m.Name == ConstructorName }

// Signature is the name followed by the parenthesised argument list.
func (m *Method) Signature() string { return m.Name + "(" + m.Arguments + ")" }
func (m *Method) IsDestructor() bool { return m.Name == DestructorName }

type Variable struct {
	Name       string
	Type       string
	Qualifiers string
	Version    string
}

func NewVariable(name, typ, qualifiers, version string) *Variable {
	qualifiers, typ = NormalizeTypeModifiers(qualifiers, typ)
	return &Variable{
		Name:       Normalize(name),
		Type:       typ,
		Qualifiers: qualifiers,
		Version:    Normalize(version),
	}
}

// Alias records `alias Source Target;` and `typedef Source Target;`.
type Alias struct {
	Keyword    string
	Source     string
	Target     string
	Qualifiers string
	Version    string
}

func NewAlias(keyword, source, target, qualifiers, version string) *Alias {
	return &Alias{
		Keyword:    Normalize(keyword),
		Source:     Normalize(source),
		Target:     Normalize(target),
		Qualifiers: Normalize(qualifiers),
		Version:    Normalize(version),
	}
}

type Module struct {
	Name      string
	Types     []Type
	Methods   []*Method
	Variables []*Variable
	Imports   []string
	Aliases   []*Alias
	Todos     []string
}

func NewModule(name string) *Module {
	return &Module{Name: Normalize(name)}
}

func (m *Module) AddType(t Type) { m.Types = append(m.Types, t) }
func (m *Module) AddMethod(x *Method) { m.Methods = append(m.Methods, x) }
func (m *Module) AddVariable(v *Variable) { m.Variables = append(m.Variables, v) }
func (m *Module) AddImport(name string) { m.Imports = append(m.Imports, Normalize(name)) }
func (m *Module) AddAlias(a *Alias) { m.Aliases = append(m.Aliases, a) }
func (m *Module) AddTodo(note string) { m.Todos = append(m.Todos, Normalize(note)) }

// ImportTargets returns the imported module names without selector lists.
func (m *Module) ImportTargets() []string {
	out := make([]string, 0, len(m.Imports))
	for _, imp := range m.Imports {
		name := imp
		if idx := strings.Index(name, ":"); idx >= 0 {
			name = name[:idx]
		}
		if idx := strings.Index(name, "="); idx >= 0 {
			name = name[idx+1:]
		}
		for _, part := range strings.Split(name, ",") {
			if part = Normalize(part); part != "" {
				out = append(out, part)
			}
		}
	}
	return out
}

// QualifiedName is "module.Name", or the bare name for a type not attached
// to a module.
func QualifiedName(t Type) string {
	if t.Module() == nil {
		return t.Name()
	}
	return t.Module().Name + "." + t.Name()
}

// QualifiedNames maps QualifiedName over types.
func QualifiedNames(types []Type) []string {
	out := make([]string, 0, len(types))
	for _, t := range types {
		out = append(out, QualifiedName(t))
	}
	return out
}
