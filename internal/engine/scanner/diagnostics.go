package scanner

import "fmt"

type DiagnosticKind string

const (
	DiagUnrecognized        DiagnosticKind = "unrecognized"
	DiagEnumMember          DiagnosticKind = "enum-member"
	DiagUnionMember         DiagnosticKind = "union-member"
	DiagMissingModule       DiagnosticKind = "missing-module"
	DiagUnterminatedComment DiagnosticKind = "unterminated-comment"
)

// Diagnostic is a recoverable problem found while scanning one file.
type Diagnostic struct {
	Kind    DiagnosticKind
	File    string
	Line    int
	Snippet string
}

func (d Diagnostic) String() string {
	switch d.Kind {
	case DiagMissingModule:
		return fmt.Sprintf("%s:%d: no current module, discarded: %s", d.File, d.Line, d.Snippet)
	case DiagUnterminatedComment:
		return fmt.Sprintf("%s:%d: unterminated comment: %s", d.File, d.Line, d.Snippet)
	case DiagEnumMember:
		return fmt.Sprintf("%s:%d: cannot parse line for enum: %s", d.File, d.Line, d.Snippet)
	case DiagUnionMember:
		return fmt.Sprintf("%s:%d: cannot parse line for union: %s", d.File, d.Line, d.Snippet)
	default:
		return fmt.Sprintf("%s:%d: cannot parse line: %s", d.File, d.Line, d.Snippet)
	}
}

// Result is what a single file scan reports back besides the tree it fed.
type Result struct {
	File        string
	Diagnostics []Diagnostic
}
