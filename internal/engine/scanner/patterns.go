package scanner

import (
	"regexp"
	"strings"
)

// Type constructor spellings such as immutable(char)[] or const(Foo)*.
const typeCtor = `(?:immutable|const|shared|inout)\s*\(\s*[^()]+?\s*\)(?:\[[^\]]*\]|\*)*`

// A type name, possibly instantiated with parenthesized template arguments
// such as Array!(int)[].
const typeName = `[^(\s;=,{}]+(?:\([^()]*\)[^(\s;=,{}]*)*`

// An optional template constraint, allowed before or after a base list.
const constraint = `(?:if\s*\([^{]*\)\s*)?`

const scopeWords = `(?:public|private|package|protected|export)`

// patterns holds the compiled regular expressions for one keyword set.
// Every expression is anchored at the start of the text it is applied to.
type patterns struct {
	variable    *regexp.Regexp
	methodHead  *regexp.Regexp
	ctorHead    *regexp.Regexp
	methodTail  *regexp.Regexp
	contract    *regexp.Regexp
	class       *regexp.Regexp
	enum        *regexp.Regexp
	union       *regexp.Regexp
	module      *regexp.Regexp
	importDecl  *regexp.Regexp
	alias       *regexp.Regexp
	aliasAssign *regexp.Regexp
	qualBlock   *regexp.Regexp
	version     *regexp.Regexp
	elseBlock   *regexp.Regexp
	extern      *regexp.Regexp
	todo        *regexp.Regexp
	attribute   *regexp.Regexp
	contractKw  *regexp.Regexp

	qualifierSet map[string]bool
}

func alternation(words []string) string {
	quoted := make([]string, 0, len(words))
	for _, w := range words {
		if w = strings.TrimSpace(w); w != "" {
			quoted = append(quoted, regexp.QuoteMeta(w))
		}
	}
	if len(quoted) == 0 {
		// Matches nothing.
		return `[^\s\S]`
	}
	return "(?:" + strings.Join(quoted, "|") + ")"
}

func compilePatterns(kw Keywords) *patterns {
	qualToken := `(?:` + alternation(kw.Qualifiers) + `|@\w+(?:\([^)]*\))?|extern\s*\([^)]*\))`
	quals := `(?P<quals>(?:` + qualToken + `\s+)*)`
	blockQual := alternation(kw.BlockQualifiers)

	p := &patterns{
		variable: regexp.MustCompile(`\A` + quals +
			`(?P<type>` + typeCtor + `|` + typeName + `)\s+` +
			`(?P<names>[^;\s()=,{}]+(?:\s*,\s*[^;\s()=,{}]+)*)` +
			`(?P<init>\s*=\s*[^;]*)?\s*;`),
		methodHead: regexp.MustCompile(`\A` + quals +
			`(?P<ret>` + typeCtor + `|` + typeName + `)\s+(?P<name>[^\s(;=,{}]+)\s*\(`),
		ctorHead: regexp.MustCompile(`\A` + quals + `(?P<name>~?this)\s*\(`),
		methodTail: regexp.MustCompile(`\A(?P<attrs>(?:\s+|` +
			`(?:const|immutable|shared|inout|nothrow|pure|return|scope|override|final)\b|` +
			`@\w+(?:\([^)]*\))?|` +
			`(?:in|out|body|do)\b(?:\s*\([^)]*\))?|` +
			`if\s*\([^{;]*\))*)(?P<term>[{;])`),
		contract: regexp.MustCompile(`\A\s*(?:in|out|body|do)\b(?:\s*\([^)]*\))?\s*\{`),
		class: regexp.MustCompile(`\A` + quals +
			`(?P<kw>class|struct|interface)\s+(?P<name>[^{:;\s]+)\s*` + constraint +
			`(?::\s*(?P<bases>[^{;]+?)\s*)?` + constraint + `\{`),
		enum: regexp.MustCompile(`\A` + quals +
			`enum\s+(?P<name>[^{:;=\s]+)\s*(?::\s*(?P<base>[^{;]+))?\{`),
		union: regexp.MustCompile(`\A` + quals +
			`union\s+(?P<name>[^{:;\s]+)\s*` + constraint + `\{`),
		module: regexp.MustCompile(`\Amodule\s+(?P<name>[^;]+);`),
		importDecl: regexp.MustCompile(`\A(?P<quals>(?:(?:` + scopeWords + `|static)\s+)*)` +
			`import\s+(?P<name>[^;:]+?)\s*(?::\s*(?P<sel>[^;]+))?;`),
		alias: regexp.MustCompile(`\A(?P<quals>(?:` + scopeWords + `\s+)*)` +
			`(?P<kw>alias|typedef)\s+(?P<src>[^\s;=]+)\s+(?P<target>[^\s;=]+)\s*;`),
		aliasAssign: regexp.MustCompile(`\A(?P<quals>(?:` + scopeWords + `\s+)*)` +
			`(?P<kw>alias)\s+(?P<target>[^\s;=]+)\s*=\s*(?P<src>[^;]+?)\s*;`),
		qualBlock: regexp.MustCompile(`\A(?P<quals>` + blockQual + `(?:\s+` + blockQual + `)*)\s*(?P<term>[:{])`),
		version: regexp.MustCompile(`\A(?:else\s*)?version\s*\(\s*(?P<name>[^)]+?)\s*\)\s*(?P<term>[:{]?)`),
		elseBlock: regexp.MustCompile(`\A\s*else\s*\{`),
		extern: regexp.MustCompile(`\A(?:` + scopeWords + `\s+)?extern\s*\([^)]+\)\s*(?P<term>[{:])`),
		todo: regexp.MustCompile(`(?i)todo\s*:\s*([^\n]+)`),
		attribute: regexp.MustCompile(`\b(?:const|immutable|shared|inout|nothrow|pure|return|scope|override|final)\b|@\w+(?:\([^)]*\))?`),
		contractKw: regexp.MustCompile(`\b(?:in|out|body|do)\b(?:\s*\([^)]*\))?|if\s*\([^{;]*\)`),

		qualifierSet: make(map[string]bool, len(kw.Qualifiers)),
	}
	for _, q := range kw.Qualifiers {
		p.qualifierSet[strings.TrimSpace(q)] = true
	}
	return p
}

// match is one regexp hit with absolute offsets into the scanned source.
type match struct {
	src string
	re  *regexp.Regexp
	idx []int
}

func (m match) group(name string) string {
	i := m.re.SubexpIndex(name)
	if i < 0 || m.idx[2*i] < 0 {
		return ""
	}
	return m.src[m.idx[2*i]:m.idx[2*i+1]]
}

func (m match) end() int { return m.idx[1] }

// find applies re to src[pos:end] and returns the hit with offsets rebased
// onto src.
func find(re *regexp.Regexp, src string, pos, end int) (match, bool) {
	idx := re.FindStringSubmatchIndex(src[pos:end])
	if idx == nil {
		return match{}, false
	}
	for i := range idx {
		if idx[i] >= 0 {
			idx[i] += pos
		}
	}
	return match{src: src, re: re, idx: idx}, true
}
