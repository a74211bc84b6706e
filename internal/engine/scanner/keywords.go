package scanner

// Keywords are the word lists the matchers are built from. They are fixed
// for the lifetime of a Scanner.
type Keywords struct {
	// Qualifiers may precede any declaration.
	Qualifiers []string
	// BlockQualifiers may open a `name:` or `name { }` qualifier block.
	BlockQualifiers []string
	// PrimitiveTypes are built-in type names.
	PrimitiveTypes []string
}

func DefaultKeywords() Keywords {
	return Keywords{
		Qualifiers: []string{
			"const", "immutable", "shared", "static", "private", "protected",
			"package", "public", "export", "pure", "ref", "final", "override",
			"in", "out", "inout", "lazy", "abstract", "nothrow", "__gshared",
			"synchronized", "scope", "deprecated",
		},
		BlockQualifiers: []string{
			"private", "protected", "public", "package", "static", "export",
		},
		PrimitiveTypes: []string{
			"void", "int", "uint", "float", "double", "string", "bool",
			"byte", "ubyte", "short", "ushort", "long", "ulong", "cent", "ucent",
			"real", "ifloat", "idouble", "ireal", "cfloat", "cdouble", "creal",
			"char", "wchar", "dchar", "size_t", "ptrdiff_t", "wstring", "dstring",
		},
	}
}

// statementWords are never a type name; a type or return type spelled with
// one of them means the matcher is looking at a statement or at a type
// declaration the type matchers rejected.
var statementWords = map[string]bool{
	"return": true, "import": true, "module": true, "alias": true,
	"typedef": true, "goto": true, "throw": true, "delete": true,
	"new": true, "case": true, "else": true, "if": true, "while": true,
	"for": true, "foreach": true, "foreach_reverse": true, "switch": true,
	"do": true, "assert": true, "static_assert": true, "version": true,
	"debug": true, "template": true, "mixin": true, "break": true,
	"continue": true, "default": true, "with": true, "try": true,
	"catch": true, "finally": true, "class": true, "struct": true,
	"interface": true, "union": true, "enum": true,
}
