package errors

import (
	stderrors "errors"
	"fmt"
	"testing"
)

func TestNew(t *testing.T) {
	err := New(ErrCodeParse, "invalid unit literal: %q", "12zz")
	if err.Code != ErrCodeParse {
		t.Errorf("Code = %s, want %s", err.Code, ErrCodeParse)
	}
	want := `PARSE_ERROR: invalid unit literal: "12zz"`
	if err.Error() != want {
		t.Errorf("Error() = %q, want %q", err.Error(), want)
	}
}

func TestWrapPreservesCause(t *testing.T) {
	cause := stderrors.New("no such file")
	err := Wrap(ErrCodeFileNotFound, cause, "load template %s", "deck.json")

	if !stderrors.Is(err, cause) {
		t.Error("wrapped error should match cause via errors.Is")
	}
	if err.Unwrap() != cause {
		t.Error("Unwrap should return the cause")
	}
}

func TestIsMatchesCode(t *testing.T) {
	err := New(ErrCodeRegistry, "duplicate pid")
	if !Is(err, ErrCodeRegistry) {
		t.Error("Is should match the error's own code")
	}
	if Is(err, ErrCodeParse) {
		t.Error("Is should not match a different code")
	}

	// Code should be found through wrapping layers.
	wrapped := fmt.Errorf("outer: %w", err)
	if !Is(wrapped, ErrCodeRegistry) {
		t.Error("Is should unwrap to find the coded error")
	}
}

func TestGetCode(t *testing.T) {
	if got := GetCode(New(ErrCodePagination, "boom")); got != ErrCodePagination {
		t.Errorf("GetCode = %s, want %s", got, ErrCodePagination)
	}
	if got := GetCode(stderrors.New("plain")); got != "" {
		t.Errorf("GetCode on plain error = %s, want empty", got)
	}
}

func TestUserMessage(t *testing.T) {
	err := New(ErrCodeConfiguration, "layout has no slots")
	if got := UserMessage(err); got != "layout has no slots" {
		t.Errorf("UserMessage = %q", got)
	}
	plain := stderrors.New("some failure")
	if got := UserMessage(plain); got != "some failure" {
		t.Errorf("UserMessage on plain error = %q", got)
	}
}
