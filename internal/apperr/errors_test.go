package apperr

import (
	"errors"
	"fmt"
	"strings"
	"testing"
)

func TestUnclosedSnippetError_Message(t *testing.T) {
	err := &UnclosedSnippetError{Path: "src/main.go", Identifier: "setup", Line: 12}
	want := `src/main.go:12: snippet "setup" is never closed`
	if err.Error() != want {
		t.Errorf("Error() = %q, want %q", err.Error(), want)
	}
}

func TestGlobPatternError_Unwrap(t *testing.T) {
	inner := errors.New("syntax error in pattern")
	err := fmt.Errorf("resolve sources: %w", &GlobPatternError{Pattern: "src/[", Err: inner})

	var ge *GlobPatternError
	if !errors.As(err, &ge) {
		t.Fatalf("errors.As failed for %v", err)
	}
	if ge.Pattern != "src/[" {
		t.Errorf("pattern = %q", ge.Pattern)
	}
	if !errors.Is(err, inner) {
		t.Error("expected wrapped parser error to be reachable")
	}
}

func TestValidationError_ListsAllProblems(t *testing.T) {
	err := &ValidationError{Problems: []string{"start: cannot be blank", "end: cannot be blank"}}
	msg := err.Error()
	for _, p := range err.Problems {
		if !strings.Contains(msg, p) {
			t.Errorf("message %q missing %q", msg, p)
		}
	}
}

func TestTemplateNotFoundError_Default(t *testing.T) {
	err := &TemplateNotFoundError{}
	if !strings.Contains(err.Error(), "no default template") {
		t.Errorf("unexpected message: %v", err)
	}
}
