package errors

import (
	"errors"
	"fmt"
	"testing"
)

func TestDomainError(t *testing.T) {
	t.Run("New", func(t *testing.T) {
		err := New(CodeNotFound, "file not found")
		if err.Error() != "[NOT_FOUND] file not found" {
			t.Errorf("expected [NOT_FOUND] file not found, got %s", err.Error())
		}
	})

	t.Run("Wrap", func(t *testing.T) {
		original := errors.New("original error")
		err := Wrap(original, CodeInternal, "internal failure")
		expected := "[INTERNAL_ERROR] internal failure: original error"
		if err.Error() != expected {
			t.Errorf("expected %s, got %s", expected, err.Error())
		}
		if !errors.Is(err, original) {
			t.Error("expected wrapped error to unwrap to original")
		}
	})

	t.Run("IsCode", func(t *testing.T) {
		err := Newf(CodeUnterminatedBlock, "missing %q", "}")
		if !IsCode(err, CodeUnterminatedBlock) {
			t.Error("expected IsCode to return true for CodeUnterminatedBlock")
		}
		if IsCode(err, CodeNotFound) {
			t.Error("expected IsCode to return false for CodeNotFound")
		}
	})

	t.Run("IsCodeThroughFmtWrap", func(t *testing.T) {
		err := fmt.Errorf("scan a.d: %w", New(CodeUnterminatedBlock, "unterminated"))
		if !IsCode(err, CodeUnterminatedBlock) {
			t.Error("expected IsCode to see through fmt.Errorf wrapping")
		}
	})

	t.Run("AddContext", func(t *testing.T) {
		err := AddContext(New(CodeUnterminatedBlock, "unterminated"), CtxFile, "a.d")
		err = AddContext(err, CtxLine, 3)
		expected := "[UNTERMINATED_BLOCK] unterminated {file=a.d line=3}"
		if err.Error() != expected {
			t.Errorf("expected %s, got %s", expected, err.Error())
		}
	})

	t.Run("AddContextPlainError", func(t *testing.T) {
		err := AddContext(errors.New("boom"), CtxPath, "x")
		if !IsCode(err, CodeInternal) {
			t.Errorf("expected plain errors to be wrapped as internal, got %v", err)
		}
	})
}
