package scanner

import (
	"strings"

	"duml/internal/engine/model"
)

// declType reports whether text captured in a type position can really be a
// type. Statement keywords never are, and neither are qualifiers other than
// immutable, which the regexps only land on after backtracking.
func (f *fileScan) declType(typ string) bool {
	if statementWords[typ] {
		return false
	}
	return typ == "immutable" || !f.sc.pats.qualifierSet[typ]
}

// matchMethod recognizes methods, constructors and destructors, declared or
// defined. A definition's body and any chained contract blocks after it are
// skipped without being scanned.
func (f *fileScan) matchMethod(pos, end int) (int, error) {
	pats := f.sc.pats
	ctor := false
	m, ok := find(pats.methodHead, f.src, pos, end)
	if ok && !f.declType(m.group("ret")) {
		ok = false
	}
	if !ok {
		if m, ok = find(pats.ctorHead, f.src, pos, end); !ok {
			return pos, nil
		}
		ctor = true
	}

	name := m.group("name")
	args, p, ok := f.parens(m.end(), end)
	if !ok {
		return pos, nil
	}
	if !ctor {
		// Template functions: the first list is the template parameters.
		if q := f.skipSpace(p, end); q < end && f.src[q] == '(' {
			if inner, next, ok := f.parens(q+1, end); ok {
				name += "(" + args + ")"
				args, p = inner, next
			}
		}
	}

	t, ok := find(pats.methodTail, f.src, p, end)
	if !ok {
		return pos, nil
	}
	attrs := pats.contractKw.ReplaceAllString(t.group("attrs"), " ")
	quals := model.JoinQualifiers(
		m.group("quals"),
		strings.Join(pats.attribute.FindAllString(attrs, -1), " "),
		f.ctx.Qualifiers,
	)

	ret := ""
	if !ctor {
		ret = m.group("ret")
	}
	f.addMethod(model.NewMethod(name, ret, quals, args, f.ctx.Version))

	next := t.end()
	if t.group("term") != "{" {
		return next, nil
	}
	next, err := f.closeOf("{", "}", next, end)
	if err != nil {
		return 0, err
	}
	for {
		c, ok := find(pats.contract, f.src, next, end)
		if !ok {
			return next, nil
		}
		if next, err = f.closeOf("{", "}", c.end(), end); err != nil {
			return 0, err
		}
	}
}

// parens returns the text inside a parenthesized list whose "(" ends at from
// and the offset past its ")". An unbalanced list is not a declaration.
func (f *fileScan) parens(from, end int) (string, int, bool) {
	n, err := FindMatchingClose("(", ")", f.src[from:end])
	if err != nil {
		return "", 0, false
	}
	return f.src[from : from+n-1], from + n, true
}

func (f *fileScan) matchVariable(pos, end int) (int, error) {
	m, ok := find(f.sc.pats.variable, f.src, pos, end)
	if !ok {
		return pos, nil
	}
	typ := m.group("type")
	if !f.declType(typ) {
		return pos, nil
	}
	quals := f.qualifiers(m.group("quals"))
	for _, name := range strings.Split(m.group("names"), ",") {
		if name = strings.TrimSpace(name); name != "" {
			f.addVariable(model.NewVariable(name, typ, quals, f.ctx.Version))
		}
	}
	return m.end(), nil
}
