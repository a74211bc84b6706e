package scanner

import (
	"regexp"

	"duml/internal/engine/model"
)

// matchVersion handles `version(X) { } else { }`, the scope-wide
// `version(X):` form and a version guarding one declaration. Declarations in
// the else branch carry "!X".
func (f *fileScan) matchVersion(pos, end int) (int, error) {
	m, ok := find(f.sc.pats.version, f.src, pos, end)
	if !ok {
		return pos, nil
	}
	name := model.Normalize(m.group("name"))
	switch m.group("term") {
	case ":":
		// Restored when the enclosing scan returns.
		f.ctx.Version = name
		return m.end(), nil
	case "":
		// version(X) guarding a single declaration. A label cannot be
		// guarded this way; leaving it unconsumed gets the line diagnosed.
		if f.labelAt(m.end(), end) {
			return pos, nil
		}
		saved := f.ctx.snapshot()
		defer f.ctx.restore(saved)
		f.ctx.Version = name
		n, err := f.step(m.end(), end)
		if err != nil || n == m.end() {
			return pos, err
		}
		return n, nil
	}

	saved := f.ctx.snapshot()
	defer f.ctx.restore(saved)

	f.ctx.Version = name
	after, err := f.block(m.end()-1, end, f.scan)
	if err != nil {
		return 0, err
	}
	if e, ok := find(f.sc.pats.elseBlock, f.src, after, end); ok {
		f.ctx.Version = "!" + name
		after, err = f.block(e.end()-1, end, f.scan)
		if err != nil {
			return 0, err
		}
	}
	return after, nil
}

// labelAt reports whether a scope-wide `name:` form starts at pos.
func (f *fileScan) labelAt(pos, end int) bool {
	pos = f.skipSpace(pos, end)
	for _, re := range []*regexp.Regexp{f.sc.pats.qualBlock, f.sc.pats.version, f.sc.pats.extern} {
		if m, ok := find(re, f.src, pos, end); ok && m.group("term") == ":" {
			return true
		}
	}
	return false
}

// matchExtern enters extern(ABI) blocks with the context unchanged. The ABI
// itself is not recorded.
func (f *fileScan) matchExtern(pos, end int) (int, error) {
	m, ok := find(f.sc.pats.extern, f.src, pos, end)
	if !ok {
		return pos, nil
	}
	if m.group("term") == ":" {
		return m.end(), nil
	}
	return f.block(m.end()-1, end, f.scan)
}

// matchQualifierBlock handles `private:` which applies to the rest of the
// scope and `private { }` which applies to the braces only.
func (f *fileScan) matchQualifierBlock(pos, end int) (int, error) {
	m, ok := find(f.sc.pats.qualBlock, f.src, pos, end)
	if !ok {
		return pos, nil
	}
	quals := model.Normalize(m.group("quals"))
	if m.group("term") == ":" {
		f.ctx.Qualifiers = quals
		return m.end(), nil
	}

	saved := f.ctx.snapshot()
	defer f.ctx.restore(saved)

	f.ctx.Qualifiers = quals
	return f.block(m.end()-1, end, f.scan)
}
