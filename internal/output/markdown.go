package output

import (
	"fmt"
	"io/fs"
	"os"
	"strings"

	errs "duml/internal/core/errors"
	"duml/internal/shared/util"
)

// MarkdownBlock wraps a Mermaid document in a fenced code block.
func MarkdownBlock(mermaid string) string {
	return "```mermaid\n" + strings.TrimRight(mermaid, "\n") + "\n```"
}

// InjectDiagram replaces the text between the duml markers named marker in
// the markdown file at path. The file is replaced atomically.
func InjectDiagram(path, marker, diagram string) error {
	content, err := os.ReadFile(path)
	if err != nil {
		code := errs.CodeInternal
		if os.IsNotExist(err) {
			code = errs.CodeNotFound
		}
		return errs.AddContext(errs.Wrap(err, code, "read markdown file"), errs.CtxPath, path)
	}

	next, err := ReplaceBetweenMarkers(string(content), marker, diagram)
	if err != nil {
		return errs.AddContext(err, errs.CtxPath, path)
	}

	perm := fs.FileMode(0o644)
	if info, err := os.Stat(path); err == nil {
		perm = info.Mode().Perm()
	}
	if err := util.WriteFileAtomic(path, []byte(next), perm); err != nil {
		return errs.AddContext(errs.Wrap(err, errs.CodeInternal, "replace markdown file"), errs.CtxPath, path)
	}
	return nil
}

// ReplaceBetweenMarkers swaps the lines between
// <!-- duml:marker:start --> and <!-- duml:marker:end --> for replacement.
// Both markers must appear exactly once, start first. The file's line
// ending style is kept.
func ReplaceBetweenMarkers(content, marker, replacement string) (string, error) {
	marker = strings.TrimSpace(marker)
	if marker == "" {
		return "", errs.New(errs.CodeValidationError, "markdown marker must not be empty")
	}

	newline := "\n"
	if strings.Contains(content, "\r\n") {
		newline = "\r\n"
	}

	start := fmt.Sprintf("<!-- duml:%s:start -->", marker)
	end := fmt.Sprintf("<!-- duml:%s:end -->", marker)
	if strings.Count(content, start) != 1 || strings.Count(content, end) != 1 {
		return "", errs.Newf(errs.CodeValidationError, "markdown marker %q must appear exactly once for start and end", marker)
	}

	startIdx := strings.Index(content, start)
	endIdx := strings.Index(content, end)
	if endIdx < startIdx {
		return "", errs.Newf(errs.CodeValidationError, "markdown marker %q ends before it starts", marker)
	}

	body := strings.TrimRight(replacement, "\r\n")
	if newline != "\n" {
		body = strings.ReplaceAll(body, "\n", newline)
	}
	return content[:startIdx+len(start)] + newline + body + newline + content[endIdx:], nil
}
