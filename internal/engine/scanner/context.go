package scanner

import "duml/internal/engine/model"

// Context is the lexical state threaded through nested scans.
type Context struct {
	// Module is nil until the first module directive of a file.
	Module *model.Module
	// Type is the enclosing class or union; nil at module scope.
	Type model.Type
	// Qualifiers is the active prefix set by a qualifier block.
	Qualifiers string
	// Version is the active conditional tag, "!NAME" inside an else branch.
	Version string
}

type contextSnapshot struct {
	typ        model.Type
	qualifiers string
	version    string
}

func (c *Context) snapshot() contextSnapshot {
	return contextSnapshot{typ: c.Type, qualifiers: c.Qualifiers, version: c.Version}
}

// restore puts back the scope-bound fields. Module is not scope-bound: a
// module directive stays in effect until the next one.
func (c *Context) restore(s contextSnapshot) {
	c.Type = s.typ
	c.Qualifiers = s.qualifiers
	c.Version = s.version
}
