package model

import (
	"regexp"
	"strings"
)

// Normalize collapses runs of whitespace to single spaces and trims the ends.
func Normalize(s string) string {
	return strings.Join(strings.Fields(s), " ")
}

// JoinQualifiers concatenates qualifier fragments, skipping empty ones.
func JoinQualifiers(parts ...string) string {
	return Normalize(strings.Join(parts, " "))
}

const immutableToken = "immutable"

var parenImmutable = regexp.MustCompile(`^immutable\s*\(\s*(.+?)\s*\)(.*)$`)

// NormalizeTypeModifiers moves an "immutable" qualifier token onto the type
// text and rewrites a parenthesized immutable(T) type as "immutable T".
// Applying it to its own output returns the same pair.
func NormalizeTypeModifiers(qualifiers, typ string) (string, string) {
	qualifiers = Normalize(qualifiers)
	typ = Normalize(typ)

	if m := parenImmutable.FindStringSubmatch(typ); m != nil {
		typ = Normalize(immutableToken + " " + m[1] + m[2])
	}

	fields := strings.Fields(qualifiers)
	kept := fields[:0]
	moved := false
	for _, f := range fields {
		if f == immutableToken {
			moved = true
			continue
		}
		kept = append(kept, f)
	}
	qualifiers = strings.Join(kept, " ")

	if moved && !hasImmutablePrefix(typ) {
		typ = Normalize(immutableToken + " " + typ)
	}
	return qualifiers, typ
}

func hasImmutablePrefix(typ string) bool {
	return typ == immutableToken || strings.HasPrefix(typ, immutableToken+" ")
}

// HasQualifier reports whether the whitespace separated qualifier list
// contains token.
func HasQualifier(qualifiers, token string) bool {
	for _, f := range strings.Fields(qualifiers) {
		if f == token {
			return true
		}
	}
	return false
}
