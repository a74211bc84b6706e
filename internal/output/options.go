package output

import (
	"fmt"
	"strings"
	"unicode"

	errs "duml/internal/core/errors"
	"duml/internal/engine/model"
)

// DrawOptions selects what a diagram contains besides the types themselves.
type DrawOptions struct {
	Composition bool // c
	Inheritance bool // i
	Aliases     bool // a
	ModuleData  bool // m: module-level variables and methods
	Todos       bool // t
	Imports     bool // p: module import edges
}

func AllDrawOptions() DrawOptions {
	return DrawOptions{true, true, true, true, true, true}
}

// ParseDrawOptions reads "*" or any combination of the letters c, i, a, m,
// t and p. An empty string draws types only.
func ParseDrawOptions(s string) (DrawOptions, error) {
	s = strings.TrimSpace(s)
	if s == "*" {
		return AllDrawOptions(), nil
	}
	var o DrawOptions
	for _, r := range s {
		switch r {
		case 'c':
			o.Composition = true
		case 'i':
			o.Inheritance = true
		case 'a':
			o.Aliases = true
		case 'm':
			o.ModuleData = true
		case 't':
			o.Todos = true
		case 'p':
			o.Imports = true
		case '*':
			return AllDrawOptions(), nil
		default:
			return DrawOptions{}, errs.Newf(errs.CodeValidationError, "unknown draw option %q", r)
		}
	}
	return o, nil
}

func (o DrawOptions) String() string {
	if o == AllDrawOptions() {
		return "*"
	}
	var b strings.Builder
	for _, f := range []struct {
		on bool
		c  byte
	}{{o.Composition, 'c'}, {o.Inheritance, 'i'}, {o.Aliases, 'a'}, {o.ModuleData, 'm'}, {o.Todos, 't'}, {o.Imports, 'p'}} {
		if f.on {
			b.WriteByte(f.c)
		}
	}
	return b.String()
}

// Visibility of a declaration as the UML marker each format uses.
type Visibility int

const (
	VisibilityNone Visibility = iota
	VisibilityPrivate
	VisibilityProtected
	VisibilityPackage
	VisibilityPublic
)

func visibilityOf(qualifiers string) Visibility {
	switch {
	case model.HasQualifier(qualifiers, "private"):
		return VisibilityPrivate
	case model.HasQualifier(qualifiers, "protected"):
		return VisibilityProtected
	case model.HasQualifier(qualifiers, "package"):
		return VisibilityPackage
	case model.HasQualifier(qualifiers, "public"), model.HasQualifier(qualifiers, "export"):
		return VisibilityPublic
	}
	return VisibilityNone
}

func sanitizeID(name string) string {
	if name == "" {
		return "n"
	}
	var b strings.Builder
	for _, r := range name {
		if r < unicode.MaxASCII && (unicode.IsLetter(r) || unicode.IsDigit(r)) {
			b.WriteRune(r)
			continue
		}
		b.WriteRune('_')
	}
	out := b.String()
	if unicode.IsDigit(rune(out[0])) {
		return "n_" + out
	}
	return out
}

// idSet hands out stable, unique identifiers for arbitrary names.
type idSet struct {
	ids  map[string]string
	used map[string]int
}

func newIDSet() *idSet {
	return &idSet{ids: make(map[string]string), used: make(map[string]int)}
}

func (s *idSet) id(name string) string {
	if id, ok := s.ids[name]; ok {
		return id
	}
	base := sanitizeID(name)
	idx := s.used[base]
	s.used[base] = idx + 1
	id := base
	if idx > 0 {
		id = fmt.Sprintf("%s_%d", base, idx+1)
	}
	s.ids[name] = id
	return id
}

func typeKey(t model.Type) string {
	mod := ""
	if t.Module() != nil {
		mod = t.Module().Name
	}
	return mod + "." + t.Name()
}

// typeIDs assigns every type of the tree a unique identifier. Two types of
// the same name in one module (alternative version branches) stay distinct.
func typeIDs(tree *model.Tree, ids *idSet) map[model.Type]string {
	out := make(map[model.Type]string)
	for _, m := range tree.Modules() {
		for _, t := range m.Types {
			key := typeKey(t)
			for {
				if _, taken := ids.ids[key]; !taken {
					break
				}
				key += "'"
			}
			out[t] = ids.id(key)
		}
	}
	return out
}
