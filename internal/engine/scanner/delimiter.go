package scanner

import (
	"strings"

	errs "duml/internal/core/errors"
)

// FindMatchingClose is called with the text that follows an opening symbol
// that has already been consumed. It returns the offset just past the close
// symbol that balances it, counting nested open/close pairs on the way.
func FindMatchingClose(open, close, text string) (int, error) {
	if open == "" || close == "" {
		return 0, errs.New(errs.CodeValidationError, "delimiter symbols must not be empty")
	}
	level := 1
	for i := 0; i < len(text); {
		switch {
		case strings.HasPrefix(text[i:], close):
			level--
			i += len(close)
			if level == 0 {
				return i, nil
			}
		case strings.HasPrefix(text[i:], open):
			level++
			i += len(open)
		default:
			i++
		}
	}
	return 0, errs.Newf(errs.CodeUnterminatedBlock, "unterminated %q block: missing %q", open, close)
}
