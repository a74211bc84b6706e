package model

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNormalize(t *testing.T) {
	assert.Equal(t, "a b c", Normalize("  a \t b\n\n c  "))
	assert.Equal(t, "", Normalize(" \n\t "))
	assert.Equal(t, "static private", JoinQualifiers("static ", "", " private"))
}

func TestNormalizeTypeModifiers(t *testing.T) {
	tests := []struct {
		name      string
		quals     string
		typ       string
		wantQuals string
		wantType  string
	}{
		{"qualifier moved", "const immutable", "int", "const", "immutable int"},
		{"paren form", "const", "immutable(int)", "const", "immutable int"},
		{"paren form with suffix", "", "immutable( char )[]", "", "immutable char[]"},
		{"both forms", "immutable static", "immutable(int)", "static", "immutable int"},
		{"untouched", "static", "int[]", "static", "int[]"},
		{"token only", "immutableish", "int", "immutableish", "int"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			q, typ := NormalizeTypeModifiers(tt.quals, tt.typ)
			assert.Equal(t, tt.wantQuals, q)
			assert.Equal(t, tt.wantType, typ)

			q2, typ2 := NormalizeTypeModifiers(q, typ)
			assert.Equal(t, q, q2, "qualifiers must be stable")
			assert.Equal(t, typ, typ2, "type must be stable")
		})
	}
}

func TestNewVariableNormalizesFields(t *testing.T) {
	v := NewVariable(" x ", "immutable(int)", " const  ", " X ")
	assert.Equal(t, "x", v.Name)
	assert.Equal(t, "immutable int", v.Type)
	assert.Equal(t, "const", v.Qualifiers)
	assert.Equal(t, "X", v.Version)
}

func TestMethodConstructorForms(t *testing.T) {
	assert.True(t, NewMethod("this", "", "", "int x", "").IsConstructor())
	assert.True(t, NewMethod("~this", "", "", "", "").IsDestructor())
	assert.False(t, NewMethod("run", "void", "", "", "").IsConstructor())
}

func TestTreeOpenReusesModules(t *testing.T) {
	tree := NewTree()
	a := tree.Open("shared")
	b := tree.Open("  shared ")
	assert.Same(t, a, b)
	assert.Len(t, tree.Modules(), 1)
	assert.Nil(t, tree.Module("missing"))
}

func TestTreeMergeJoinsModulesByName(t *testing.T) {
	shared := NewTree()

	first := NewTree()
	m1 := first.Open("shared")
	m1.AddVariable(NewVariable("a", "int", "", ""))
	c := NewClass(KindClass, "Foo", m1, "", nil, "")
	m1.AddType(c)
	shared.Merge(first)

	second := NewTree()
	m2 := second.Open("shared")
	m2.AddVariable(NewVariable("b", "int", "", ""))
	second.Open("other").AddImport("shared")
	shared.Merge(second)

	mods := shared.Modules()
	require.Len(t, mods, 2)
	assert.Equal(t, "shared", mods[0].Name)
	require.Len(t, mods[0].Variables, 2)
	assert.Equal(t, "a", mods[0].Variables[0].Name)
	assert.Equal(t, "b", mods[0].Variables[1].Name)
	assert.Same(t, mods[0], c.Module(), "merged type must point at the shared module")
	assert.Empty(t, first.Modules())
}

func TestImportTargets(t *testing.T) {
	m := NewModule("app")
	m.AddImport("std.stdio: writeln, write")
	m.AddImport("core.thread")
	m.AddImport("io = std.file")
	assert.Equal(t, []string{"std.stdio", "core.thread", "std.file"}, m.ImportTargets())
}

func TestStats(t *testing.T) {
	tree := NewTree()
	m := tree.Open("app")
	c := NewClass(KindStruct, "S", m, "", nil, "")
	c.AddMethod(NewMethod("f", "void", "", "", ""))
	c.AddVariable(NewVariable("x", "int", "", ""))
	m.AddType(c)
	m.AddType(NewEnum("E", m, []string{"A", " ", "B"}, "", "", ""))
	u := NewUnion("U", m, "", "")
	u.AddVariable(NewVariable("i", "int", "", ""))
	m.AddType(u)

	s := tree.Stats()
	assert.Equal(t, Stats{Modules: 1, Classes: 1, Enums: 1, Unions: 1, Methods: 1, Variables: 2}, s)
	assert.Equal(t, []string{"A", "B"}, m.Types[1].(*Enum).Values)
}

func TestDeclarations(t *testing.T) {
	tree := NewTree()
	m := tree.Open("shapes")
	m.AddImport("util")
	cls := NewClass(KindStruct, "Point", m, "", nil, "")
	cls.AddVariable(NewVariable("x", "int", "", ""))
	cls.AddMethod(NewMethod("len", "double", "const", "", "Fast"))
	m.AddType(cls)
	m.AddType(NewEnum("Color", m, []string{"Red"}, "", "", ""))

	got := tree.Declarations()
	require.Len(t, got, 6)
	assert.Equal(t, Declaration{Kind: "import", Module: "shapes", Name: "util"}, got[0])
	assert.Equal(t, Declaration{Kind: "struct", Module: "shapes", Name: "Point"}, got[1])
	assert.Equal(t, Declaration{Kind: "variable", Module: "shapes", Owner: "Point", Name: "x", Type: "int"}, got[2])
	assert.Equal(t, Declaration{Kind: "method", Module: "shapes", Owner: "Point", Name: "len()", Type: "double", Qualifiers: "const", Version: "Fast"}, got[3])
	assert.Equal(t, "enum_value", got[5].Kind)
	assert.Equal(t, "Color", got[5].Owner)
}
