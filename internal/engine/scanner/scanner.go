// Package scanner recognizes declarations in D source text and feeds them
// into a model.Tree.
//
// The scanner is deliberately grammar-partial: an ordered list of matchers is
// tried against the start of the remaining text, the first one that consumes
// something wins, and text nobody recognizes is skipped one line at a time
// with a diagnostic. Block forms (conditional, extern, qualifier, class,
// union) recurse into their bodies with an updated Context.
//
// Matchers work on (src, pos, end) spans of the original text so diagnostics
// can report line numbers and no text is copied while scanning.
package scanner

import (
	"sort"
	"strings"
	"unicode"

	errs "duml/internal/core/errors"
	"duml/internal/engine/model"
)

type matchFunc func(f *fileScan, pos, end int) (int, error)

type matcher struct {
	name string
	fn   matchFunc
}

// Scanner holds the compiled matchers for one keyword set. It keeps no
// per-file state and may be shared.
type Scanner struct {
	keywords Keywords
	pats     *patterns
	matchers []matcher
}

func New(kw Keywords) *Scanner {
	s := &Scanner{
		keywords: kw,
		pats:     compilePatterns(kw),
	}
	// Order matters: comments first so commented-out code is never read as a
	// declaration, directives and qualifier blocks before the class, method
	// and variable forms they overlap with.
	s.matchers = []matcher{
		{"comment", (*fileScan).matchComment},
		{"version", (*fileScan).matchVersion},
		{"extern", (*fileScan).matchExtern},
		{"alias", (*fileScan).matchAlias},
		{"module", (*fileScan).matchModule},
		{"import", (*fileScan).matchImport},
		{"qualifiers", (*fileScan).matchQualifierBlock},
		{"class", (*fileScan).matchClass},
		{"enum", (*fileScan).matchEnum},
		{"union", (*fileScan).matchUnion},
		{"method", (*fileScan).matchMethod},
		{"variable", (*fileScan).matchVariable},
	}
	return s
}

// Keywords returns the keyword set the scanner was built with. Primitive
// types are not used while scanning; the graph reads them from here.
func (s *Scanner) Keywords() Keywords { return s.keywords }

// Scan parses one file's source into tree. The file is scanned into a
// private tree first and merged only when the scan completes, so a fatal
// unterminated block leaves tree exactly as it was. The returned Result is
// non-nil even when err is set.
func (s *Scanner) Scan(tree *model.Tree, file, src string) (*Result, error) {
	f := &fileScan{
		sc:    s,
		file:  file,
		src:   src,
		lines: lineStarts(src),
		tree:  model.NewTree(),
	}

	pos, end := trimSpan(src, 0, len(src))
	err := f.scan(pos, end)
	res := &Result{File: file, Diagnostics: f.diags}
	if err != nil {
		return res, errs.AddContext(err, errs.CtxFile, file)
	}
	if len(f.pendingTodos) > 0 {
		f.flushTodos(f.tree.Open(model.GlobalModuleName))
	}
	tree.Merge(f.tree)
	return res, nil
}

// fileScan is the state of one Scan call.
type fileScan struct {
	sc    *Scanner
	file  string
	src   string
	lines []int
	tree  *model.Tree
	ctx   Context
	diags []Diagnostic

	pendingTodos []string
}

// scan is the dispatcher loop over src[pos:end]. Every iteration either
// advances through a matcher or discards a line, so it always terminates.
// Scope-bound context set by `name:` forms inside the span does not leak
// out of it.
func (f *fileScan) scan(pos, end int) error {
	saved := f.ctx.snapshot()
	defer func() {
		f.ctx.Qualifiers = saved.qualifiers
		f.ctx.Version = saved.version
	}()

	pos = f.skipSpace(pos, end)
	for pos < end {
		next, err := f.step(pos, end)
		if err != nil {
			return err
		}
		if next == pos {
			next = f.skipLine(pos, end, DiagUnrecognized)
		}
		pos = f.skipSpace(next, end)
	}
	return nil
}

// step runs the matchers in order and returns the offset after the first
// one that consumed input, or pos when none did.
func (f *fileScan) step(pos, end int) (int, error) {
	for _, m := range f.sc.matchers {
		n, err := m.fn(f, pos, end)
		if err != nil {
			return 0, err
		}
		if n > pos {
			return n, nil
		}
	}
	return pos, nil
}

// block scans the body of a `{ ... }` whose opening brace sits at open and
// returns the offset just past the closing brace.
func (f *fileScan) block(open, end int, body func(from, to int) error) (int, error) {
	after, err := f.closeOf("{", "}", open+1, end)
	if err != nil {
		return 0, err
	}
	if body != nil {
		if err := body(open+1, after-1); err != nil {
			return 0, err
		}
	}
	return after, nil
}

// closeOf finds the balancing close symbol for an open symbol that ends at
// from. Errors carry the line of the opening symbol.
func (f *fileScan) closeOf(open, close string, from, end int) (int, error) {
	n, err := FindMatchingClose(open, close, f.src[from:end])
	if err != nil {
		return 0, errs.AddContext(err, errs.CtxLine, f.lineOf(from-len(open)))
	}
	return from + n, nil
}

// module returns the module declarations attach to. Before any module
// directive that is the implicit global module.
func (f *fileScan) module() *model.Module {
	if f.ctx.Module != nil {
		return f.ctx.Module
	}
	return f.tree.Open(model.GlobalModuleName)
}

func (f *fileScan) qualifiers(declared string) string {
	return model.JoinQualifiers(declared, f.ctx.Qualifiers)
}

func (f *fileScan) addMethod(m *model.Method) {
	switch t := f.ctx.Type.(type) {
	case nil:
		f.module().AddMethod(m)
	case *model.Class:
		t.AddMethod(m)
	}
}

func (f *fileScan) addVariable(v *model.Variable) {
	switch t := f.ctx.Type.(type) {
	case nil:
		f.module().AddVariable(v)
	case *model.Class:
		t.AddVariable(v)
	case *model.Union:
		t.AddVariable(v)
	}
}

func (f *fileScan) diagnose(kind DiagnosticKind, pos int, snippet string) {
	f.diags = append(f.diags, Diagnostic{
		Kind:    kind,
		File:    f.file,
		Line:    f.lineOf(pos),
		Snippet: strings.TrimSpace(snippet),
	})
}

// skipLine records a diagnostic for the line starting at pos and returns the
// offset of the next line, or end.
func (f *fileScan) skipLine(pos, end int, kind DiagnosticKind) int {
	line := firstLine(f.src[pos:end])
	f.diagnose(kind, pos, line)
	if pos+len(line) >= end {
		return end
	}
	return pos + len(line) + 1
}

func (f *fileScan) skipSpace(pos, end int) int {
	for pos < end && isSpace(f.src[pos]) {
		pos++
	}
	return pos
}

// lineOf returns the 1-based line number of offset pos.
func (f *fileScan) lineOf(pos int) int {
	return sort.SearchInts(f.lines, pos+1)
}

func lineStarts(src string) []int {
	starts := []int{0}
	for i := 0; i < len(src); i++ {
		if src[i] == '\n' {
			starts = append(starts, i+1)
		}
	}
	return starts
}

func trimSpan(src string, pos, end int) (int, int) {
	for pos < end && isSpace(src[pos]) {
		pos++
	}
	for end > pos && isSpace(src[end-1]) {
		end--
	}
	return pos, end
}

func isSpace(b byte) bool {
	return b < 0x80 && unicode.IsSpace(rune(b))
}
