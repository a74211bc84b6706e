package scanner

import (
	"strings"

	"duml/internal/engine/model"
)

// matchComment consumes a line comment, a block comment or a nesting
// comment and harvests TODO notes from its text.
func (f *fileScan) matchComment(pos, end int) (int, error) {
	rest := f.src[pos:end]
	switch {
	case strings.HasPrefix(rest, "//"):
		body := rest[2:]
		if idx := strings.IndexByte(body, '\n'); idx >= 0 {
			body = body[:idx]
		}
		f.harvestTodos(body)
		return pos + 2 + len(body), nil

	case strings.HasPrefix(rest, "/*"):
		idx := strings.Index(rest[2:], "*/")
		if idx < 0 {
			f.diagnose(DiagUnterminatedComment, pos, firstLine(rest))
			f.harvestTodos(rest[2:])
			return end, nil
		}
		f.harvestTodos(rest[2 : 2+idx])
		return pos + 2 + idx + 2, nil

	case strings.HasPrefix(rest, "/+"):
		after, err := f.closeOf("/+", "+/", pos+2, end)
		if err != nil {
			return 0, err
		}
		f.harvestTodos(f.src[pos+2 : after-2])
		return after, nil
	}
	return pos, nil
}

func (f *fileScan) harvestTodos(text string) {
	for _, m := range f.sc.pats.todo.FindAllStringSubmatch(text, -1) {
		note := strings.TrimSpace(strings.TrimSuffix(strings.TrimSpace(m[1]), "*/"))
		if note == "" {
			continue
		}
		if f.ctx.Module == nil {
			// Held until the file names its module.
			f.pendingTodos = append(f.pendingTodos, note)
			continue
		}
		f.ctx.Module.AddTodo(note)
	}
}

func (f *fileScan) flushTodos(m *model.Module) {
	for _, note := range f.pendingTodos {
		m.AddTodo(note)
	}
	f.pendingTodos = nil
}

func (f *fileScan) matchModule(pos, end int) (int, error) {
	m, ok := find(f.sc.pats.module, f.src, pos, end)
	if !ok {
		return pos, nil
	}
	f.ctx.Module = f.tree.Open(m.group("name"))
	f.ctx.Qualifiers = ""
	f.flushTodos(f.ctx.Module)
	return m.end(), nil
}

func (f *fileScan) matchImport(pos, end int) (int, error) {
	m, ok := find(f.sc.pats.importDecl, f.src, pos, end)
	if !ok {
		return pos, nil
	}
	if f.ctx.Module == nil {
		f.diagnose(DiagMissingModule, pos, f.src[pos:m.end()])
		return m.end(), nil
	}
	target := model.Normalize(m.group("name"))
	if sel := model.Normalize(m.group("sel")); sel != "" {
		target += " : " + sel
	}
	f.ctx.Module.AddImport(target)
	return m.end(), nil
}

// matchAlias handles `alias Src Target;`, `typedef Src Target;` and the
// assignment spelling `alias Target = Src;`. Aliases always belong to the
// module, even when declared inside a type body.
func (f *fileScan) matchAlias(pos, end int) (int, error) {
	m, ok := find(f.sc.pats.alias, f.src, pos, end)
	if !ok {
		m, ok = find(f.sc.pats.aliasAssign, f.src, pos, end)
	}
	if !ok {
		return pos, nil
	}
	if f.ctx.Module == nil {
		f.diagnose(DiagMissingModule, pos, f.src[pos:m.end()])
		return m.end(), nil
	}
	f.ctx.Module.AddAlias(model.NewAlias(
		m.group("kw"),
		m.group("src"),
		m.group("target"),
		f.qualifiers(m.group("quals")),
		f.ctx.Version,
	))
	return m.end(), nil
}

func firstLine(s string) string {
	if idx := strings.IndexByte(s, '\n'); idx >= 0 {
		return s[:idx]
	}
	return s
}
