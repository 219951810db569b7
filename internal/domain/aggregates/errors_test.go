package aggregates

import (
	"errors"
	"fmt"
	"testing"
)

func TestErrorStringFormats(t *testing.T) {
	cases := []struct {
		err  *Error
		want string
	}{
		{&Error{Code: CodeNotFound, Op: "Canvas.GetLatest", Message: "project 3 not found"}, "Canvas.GetLatest: project 3 not found (not_found)"},
		{&Error{Code: CodeConflict, Op: "Canvas.CreateVersion"}, "Canvas.CreateVersion (conflict)"},
		{&Error{Code: CodeStorage, Message: "boom"}, "boom (storage)"},
		{&Error{Code: CodeForbidden}, "forbidden"},
	}
	for _, tc := range cases {
		if got := tc.err.Error(); got != tc.want {
			t.Fatalf("Error(): want=%q got=%q", tc.want, got)
		}
	}
}

func TestSentinelMatchingByCode(t *testing.T) {
	err := fmt.Errorf("handler: %w", NewError(CodeForbidden, "op", "not a member", nil))
	if !errors.Is(err, ErrForbidden) {
		t.Fatalf("expected errors.Is to match forbidden sentinel")
	}
	if errors.Is(err, ErrNotFound) {
		t.Fatalf("forbidden must not match not_found")
	}
	if CodeOf(err) != CodeForbidden {
		t.Fatalf("CodeOf: want=%s got=%s", CodeForbidden, CodeOf(err))
	}
	if MessageOf(err) != "not a member" {
		t.Fatalf("MessageOf: got=%q", MessageOf(err))
	}
}

func TestWrapKeepsCause(t *testing.T) {
	cause := errors.New("disk full")
	err := Wrap(CodeStorage, "op", cause)
	if !errors.Is(err, cause) {
		t.Fatalf("wrapped error should unwrap to cause")
	}
	if Wrap(CodeStorage, "op", nil) != nil {
		t.Fatalf("Wrap(nil) must be nil")
	}
}
