// Package graph derives relationships from a scanned declaration tree:
// inheritance and composition between types, and imports between modules.
package graph

import (
	"maps"
	"slices"
	"strings"

	"duml/internal/engine/model"
)

type EdgeKind string

const (
	EdgeInheritance EdgeKind = "inheritance"
	EdgeComposition EdgeKind = "composition"
)

// TypeEdge links two types. For inheritance From derives from To; for
// composition From holds a member of type To.
type TypeEdge struct {
	Kind EdgeKind
	From model.Type
	To   model.Type
	// Via is the member name for composition, the base name as written for
	// inheritance.
	Via string
}

type ImportEdge struct {
	From string
	To   string
}

// Ambiguity is a bare type name that matched types in more than one other
// module. No edge is drawn for it.
type Ambiguity struct {
	Kind       EdgeKind
	From       model.Type
	Name       string
	Candidates []model.Type
}

type ModuleMetrics struct {
	FanIn      int
	FanOut     int
	Types      int
	Importance float64
}

type Graph struct {
	tree       *model.Tree
	primitives map[string]bool

	byModule map[string]map[string]model.Type // module -> type name -> type
	byName   map[string][]model.Type          // type name -> types in tree order

	typeEdges   []TypeEdge
	imports     map[string]map[string]bool // from -> to
	importedBy  map[string]map[string]bool // to -> from
	ambiguities []Ambiguity
}

// Build links the types of tree. primitives are type names that never
// produce composition edges.
func Build(tree *model.Tree, primitives []string) *Graph {
	g := &Graph{
		tree:       tree,
		primitives: make(map[string]bool, len(primitives)),
		byModule:   make(map[string]map[string]model.Type),
		byName:     make(map[string][]model.Type),
		imports:    make(map[string]map[string]bool),
		importedBy: make(map[string]map[string]bool),
	}
	for _, p := range primitives {
		g.primitives[p] = true
	}

	modules := tree.Modules()
	for _, m := range modules {
		idx := make(map[string]model.Type, len(m.Types))
		for _, t := range m.Types {
			if _, dup := idx[t.Name()]; !dup {
				idx[t.Name()] = t
			}
			g.byName[t.Name()] = append(g.byName[t.Name()], t)
		}
		g.byModule[m.Name] = idx
	}

	for _, m := range modules {
		g.linkImports(m)
		for _, t := range m.Types {
			switch v := t.(type) {
			case *model.Class:
				g.linkBases(v)
				g.linkMembers(v, v.Variables)
			case *model.Union:
				g.linkMembers(v, v.Variables)
			}
		}
	}
	return g
}

func (g *Graph) linkBases(c *model.Class) {
	for _, base := range c.BaseTypes {
		if to := g.resolve(EdgeInheritance, c, templateBase(base)); to != nil {
			g.typeEdges = append(g.typeEdges, TypeEdge{Kind: EdgeInheritance, From: c, To: to, Via: base})
		}
	}
}

func (g *Graph) linkMembers(owner model.Type, vars []*model.Variable) {
	seen := make(map[model.Type]bool)
	for _, v := range vars {
		name := MemberTypeName(v.Type)
		if name == "" || g.primitives[name] {
			continue
		}
		to := g.resolve(EdgeComposition, owner, name)
		if to == nil || seen[to] {
			continue
		}
		seen[to] = true
		g.typeEdges = append(g.typeEdges, TypeEdge{Kind: EdgeComposition, From: owner, To: to, Via: v.Name})
	}
}

func (g *Graph) linkImports(m *model.Module) {
	for _, target := range m.ImportTargets() {
		if target == m.Name || g.tree.Module(target) == nil {
			continue
		}
		if g.imports[m.Name] == nil {
			g.imports[m.Name] = make(map[string]bool)
		}
		if g.importedBy[target] == nil {
			g.importedBy[target] = make(map[string]bool)
		}
		g.imports[m.Name][target] = true
		g.importedBy[target][m.Name] = true
	}
}

// resolve finds the type a name written inside from refers to. A qualified
// name is looked up in its module. A bare name prefers the declaring module,
// then a unique match anywhere in the tree.
func (g *Graph) resolve(kind EdgeKind, from model.Type, name string) model.Type {
	if idx := strings.LastIndexByte(name, '.'); idx > 0 {
		if types, ok := g.byModule[name[:idx]]; ok {
			if t, ok := types[name[idx+1:]]; ok {
				return t
			}
		}
		name = name[idx+1:]
	}
	if from.Module() != nil {
		if t, ok := g.byModule[from.Module().Name][name]; ok {
			return t
		}
	}
	candidates := g.byName[name]
	switch len(candidates) {
	case 0:
		return nil
	case 1:
		return candidates[0]
	}
	g.ambiguities = append(g.ambiguities, Ambiguity{
		Kind:       kind,
		From:       from,
		Name:       name,
		Candidates: append([]model.Type(nil), candidates...),
	})
	return nil
}

// MemberTypeName reduces a variable type to the type name it refers to by
// stripping type constructors, pointers, arrays and template arguments.
// "immutable(Foo)[]" and "const Foo*" both give "Foo".
func MemberTypeName(typ string) string {
	s := strings.TrimSpace(typ)
	for {
		trimmed := false
		for _, mod := range []string{"immutable", "const", "shared", "inout", "scope", "ref"} {
			if strings.HasPrefix(s, mod) {
				rest := s[len(mod):]
				if rest == "" || rest[0] == ' ' || rest[0] == '(' {
					s = strings.TrimSpace(rest)
					trimmed = true
				}
			}
		}
		if !trimmed {
			break
		}
	}
	s = strings.TrimLeft(s, "( ")
	if idx := strings.IndexAny(s, "[*)! "); idx >= 0 {
		s = s[:idx]
	}
	return s
}

func templateBase(name string) string {
	if idx := strings.IndexByte(name, '!'); idx >= 0 {
		name = name[:idx]
	}
	if idx := strings.IndexByte(name, '('); idx >= 0 {
		name = name[:idx]
	}
	return strings.TrimSpace(name)
}

// Edges returns the type edges of the given kind in tree order.
func (g *Graph) Edges(kind EdgeKind) []TypeEdge {
	var out []TypeEdge
	for _, e := range g.typeEdges {
		if e.Kind == kind {
			out = append(out, e)
		}
	}
	return out
}

// ImportEdges returns edges between modules present in the tree, sorted.
func (g *Graph) ImportEdges() []ImportEdge {
	var out []ImportEdge
	for _, from := range slices.Sorted(maps.Keys(g.imports)) {
		for _, to := range sortedSet(g.imports[from]) {
			out = append(out, ImportEdge{From: from, To: to})
		}
	}
	return out
}

func (g *Graph) Ambiguities() []Ambiguity {
	return g.ambiguities
}

// Metrics reports per-module fan-in, fan-out and an importance score.
func (g *Graph) Metrics() map[string]ModuleMetrics {
	out := make(map[string]ModuleMetrics)
	for _, m := range g.tree.Modules() {
		mm := ModuleMetrics{
			FanIn:  len(g.importedBy[m.Name]),
			FanOut: len(g.imports[m.Name]),
			Types:  len(m.Types),
		}
		mm.Importance = CalculateImportanceScore(mm.FanIn, mm.FanOut, mm.Types)
		out[m.Name] = mm
	}
	return out
}

// CalculateImportanceScore ranks a module by how central it is:
//
//	Score = (FanIn * 2) + (FanOut * 1) + (Types * 0.5)
func CalculateImportanceScore(fanIn, fanOut, types int) float64 {
	return float64(fanIn*2) + float64(fanOut) + float64(types)*0.5
}

func sortedSet(m map[string]bool) []string {
	return slices.Sorted(maps.Keys(m))
}
