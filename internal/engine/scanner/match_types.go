package scanner

import (
	"strings"

	"duml/internal/engine/model"
)

func (f *fileScan) matchClass(pos, end int) (int, error) {
	m, ok := find(f.sc.pats.class, f.src, pos, end)
	if !ok {
		return pos, nil
	}
	mod := f.module()
	cls := model.NewClass(
		model.Kind(m.group("kw")),
		m.group("name"),
		mod,
		f.qualifiers(m.group("quals")),
		splitTopLevel(m.group("bases")),
		f.ctx.Version,
	)
	mod.AddType(cls)

	saved := f.ctx.snapshot()
	defer f.ctx.restore(saved)

	f.ctx.Type = cls
	f.ctx.Qualifiers = ""
	return f.block(m.end()-1, end, f.scan)
}

// matchEnum reads the comma separated member list of an enum body. Member
// text is kept as written, initializers included.
func (f *fileScan) matchEnum(pos, end int) (int, error) {
	m, ok := find(f.sc.pats.enum, f.src, pos, end)
	if !ok {
		return pos, nil
	}
	after, err := f.closeOf("{", "}", m.end(), end)
	if err != nil {
		return 0, err
	}

	var values []string
	p, to := f.skipSpace(m.end(), after-1), after-1
	for p < to {
		if n, err := f.matchComment(p, to); err != nil {
			return 0, err
		} else if n > p {
			p = f.skipSpace(n, to)
			continue
		}
		if f.src[p] == ',' {
			p = f.skipSpace(f.skipLine(p, to, DiagEnumMember), to)
			continue
		}
		value, next := f.enumValue(p, to)
		if value != "" {
			values = append(values, value)
		}
		p = f.skipSpace(next, to)
	}

	mod := f.module()
	mod.AddType(model.NewEnum(
		m.group("name"),
		mod,
		values,
		m.group("base"),
		f.qualifiers(m.group("quals")),
		f.ctx.Version,
	))
	return after, nil
}

// enumValue collects one member up to the next top-level comma, dropping
// comments inside it. The returned offset is past the comma.
func (f *fileScan) enumValue(pos, end int) (string, int) {
	var b strings.Builder
	depth := 0
	i := pos
	for i < end {
		rest := f.src[i:end]
		switch {
		case strings.HasPrefix(rest, "//"):
			if idx := strings.IndexByte(rest, '\n'); idx >= 0 {
				i += idx
			} else {
				i = end
			}
			continue
		case strings.HasPrefix(rest, "/*"):
			if idx := strings.Index(rest[2:], "*/"); idx >= 0 {
				i += idx + 4
			} else {
				i = end
			}
			b.WriteByte(' ')
			continue
		}
		c := f.src[i]
		switch c {
		case '(', '[':
			depth++
		case ')', ']':
			depth--
		case ',':
			if depth <= 0 {
				return model.Normalize(b.String()), i + 1
			}
		}
		b.WriteByte(c)
		i++
	}
	return model.Normalize(b.String()), end
}

// matchUnion accepts only variables and comments inside the union body.
func (f *fileScan) matchUnion(pos, end int) (int, error) {
	m, ok := find(f.sc.pats.union, f.src, pos, end)
	if !ok {
		return pos, nil
	}
	after, err := f.closeOf("{", "}", m.end(), end)
	if err != nil {
		return 0, err
	}

	mod := f.module()
	u := model.NewUnion(m.group("name"), mod, f.qualifiers(m.group("quals")), f.ctx.Version)
	mod.AddType(u)

	saved := f.ctx.snapshot()
	defer f.ctx.restore(saved)
	f.ctx.Type = u
	f.ctx.Qualifiers = ""

	p, to := f.skipSpace(m.end(), after-1), after-1
	for p < to {
		n, err := f.matchComment(p, to)
		if err != nil {
			return 0, err
		}
		if n == p {
			n, err = f.matchVariable(p, to)
			if err != nil {
				return 0, err
			}
		}
		if n == p {
			n = f.skipLine(p, to, DiagUnionMember)
		}
		p = f.skipSpace(n, to)
	}
	return after, nil
}

// splitTopLevel splits a base list on commas outside template argument
// parentheses.
func splitTopLevel(list string) []string {
	var out []string
	depth, start := 0, 0
	for i := 0; i < len(list); i++ {
		switch list[i] {
		case '(', '[':
			depth++
		case ')', ']':
			depth--
		case ',':
			if depth == 0 {
				out = append(out, list[start:i])
				start = i + 1
			}
		}
	}
	if rest := strings.TrimSpace(list[start:]); rest != "" {
		out = append(out, rest)
	}
	return out
}
