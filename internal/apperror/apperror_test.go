package apperror

import (
	"errors"
	"fmt"
	"net/http"
	"testing"
)

func TestKindStatus(t *testing.T) {
	tests := []struct {
		name string
		err  *Error
		want int
	}{
		{"unauthenticated", NewUnauthenticated("login"), http.StatusUnauthorized},
		{"forbidden", NewForbidden("no"), http.StatusForbidden},
		{"invalid input", NewInvalidInput("bad id"), http.StatusBadRequest},
		{"validation", NewValidation([]string{"Title is required"}), http.StatusBadRequest},
		{"not found", NewNotFound("gone"), http.StatusNotFound},
		{"conflict reported as bad request", NewConflict("dup"), http.StatusBadRequest},
		{"unavailable", NewUnavailable("off"), http.StatusServiceUnavailable},
		{"internal", NewInternal(errors.New("boom")), http.StatusInternalServerError},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.err.Status(); got != tt.want {
				t.Errorf("Status() = %d, want %d", got, tt.want)
			}
		})
	}
}

func TestInternalHidesCause(t *testing.T) {
	cause := errors.New(`pq: relation "articles" does not exist`)
	err := NewInternal(cause)

	if SafeMessage(err) == cause.Error() {
		t.Error("internal cause leaked into the client message")
	}
	if !errors.Is(err, cause) {
		t.Error("errors.Is should reach the internal cause")
	}
}

func TestFrom(t *testing.T) {
	nf := NewNotFound("Article not found")
	wrapped := fmt.Errorf("get article: %w", nf)

	if got := From(wrapped); got != nf {
		t.Errorf("From(wrapped) = %v, want the original *Error", got)
	}
	if got := SafeStatus(wrapped); got != http.StatusNotFound {
		t.Errorf("SafeStatus(wrapped) = %d, want 404", got)
	}

	plain := errors.New("disk full")
	if got := From(plain); got.Kind != Internal {
		t.Errorf("From(plain).Kind = %v, want Internal", got.Kind)
	}
	if got := SafeStatus(plain); got != http.StatusInternalServerError {
		t.Errorf("SafeStatus(plain) = %d, want 500", got)
	}
}

func TestNewValidationDetails(t *testing.T) {
	rules := []string{"Title is required", "Content is required"}
	err := NewValidation(rules)

	got, ok := err.Details["errors"].([]string)
	if !ok {
		t.Fatalf("details.errors has type %T", err.Details["errors"])
	}
	if len(got) != 2 || got[0] != rules[0] || got[1] != rules[1] {
		t.Errorf("details.errors = %v, want %v", got, rules)
	}
	if err.Kind.Name() != "ValidationError" {
		t.Errorf("Name() = %q", err.Kind.Name())
	}
}
