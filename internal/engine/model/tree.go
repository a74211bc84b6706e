package model

import "sync"

// GlobalModuleName is the implicit module for declarations that appear before
// any module directive.
const GlobalModuleName = "global"

// Tree is the set of modules accumulated across scanned files.
type Tree struct {
	mu      sync.RWMutex
	modules []*Module
	byName  map[string]*Module
}

func NewTree() *Tree {
	return &Tree{byName: make(map[string]*Module)}
}

// Module returns the module with the given name, or nil.
func (t *Tree) Module(name string) *Module {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.byName[Normalize(name)]
}

// Open returns the module with the given name, creating it on first use.
func (t *Tree) Open(name string) *Module {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.openLocked(Normalize(name))
}

func (t *Tree) openLocked(name string) *Module {
	if m, ok := t.byName[name]; ok {
		return m
	}
	m := NewModule(name)
	t.modules = append(t.modules, m)
	t.byName[name] = m
	return m
}

// Modules returns the modules in first-seen order.
func (t *Tree) Modules() []*Module {
	t.mu.RLock()
	defer t.mu.RUnlock()
	out := make([]*Module, len(t.modules))
	copy(out, t.modules)
	return out
}

// Types returns every type of every module in declaration order.
func (t *Tree) Types() []Type {
	t.mu.RLock()
	defer t.mu.RUnlock()
	var out []Type
	for _, m := range t.modules {
		out = append(out, m.Types...)
	}
	return out
}

// Merge moves the contents of other into t, joining modules by name. Types
// taken from other are re-pointed at the receiving module. other must not be
// used afterwards.
func (t *Tree) Merge(other *Tree) {
	if other == nil || other == t {
		return
	}
	other.mu.Lock()
	defer other.mu.Unlock()
	t.mu.Lock()
	defer t.mu.Unlock()

	for _, src := range other.modules {
		dst := t.openLocked(src.Name)
		for _, typ := range src.Types {
			typ.setModule(dst)
			dst.Types = append(dst.Types, typ)
		}
		dst.Methods = append(dst.Methods, src.Methods...)
		dst.Variables = append(dst.Variables, src.Variables...)
		dst.Imports = append(dst.Imports, src.Imports...)
		dst.Aliases = append(dst.Aliases, src.Aliases...)
		dst.Todos = append(dst.Todos, src.Todos...)
	}
	other.modules = nil
	other.byName = make(map[string]*Module)
}

// Stats counts declarations by category.
type Stats struct {
	Modules   int
	Classes   int
	Enums     int
	Unions    int
	Methods   int
	Variables int
	Imports   int
	Aliases   int
	Todos     int
}

func (t *Tree) Stats() Stats {
	t.mu.RLock()
	defer t.mu.RUnlock()

	var s Stats
	s.Modules = len(t.modules)
	for _, m := range t.modules {
		s.Methods += len(m.Methods)
		s.Variables += len(m.Variables)
		s.Imports += len(m.Imports)
		s.Aliases += len(m.Aliases)
		s.Todos += len(m.Todos)
		for _, typ := range m.Types {
			switch v := typ.(type) {
			case *Class:
				s.Classes++
				s.Methods += len(v.Methods)
				s.Variables += len(v.Variables)
			case *Enum:
				s.Enums++
			case *Union:
				s.Unions++
				s.Variables += len(v.Variables)
			}
		}
	}
	return s
}
