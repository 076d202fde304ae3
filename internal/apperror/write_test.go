package apperror

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

func TestWrite(t *testing.T) {
	tests := []struct {
		name       string
		err        error
		wantStatus int
		wantName   string
		wantMsg    string
	}{
		{"forbidden", NewForbidden("You can only update your own articles"), http.StatusForbidden, "ForbiddenError", "You can only update your own articles"},
		{"not found", NewNotFound("Article not found"), http.StatusNotFound, "NotFoundError", "Article not found"},
		{"plain error", errors.New("secret table name"), http.StatusInternalServerError, "InternalServerError", "An unexpected error occurred. Please try again."},
		{"rate limited", NewTooManyRequests(), http.StatusTooManyRequests, "RateLimitError", "Too many requests, please try again later."},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := httptest.NewRecorder()
			Write(rec, httptest.NewRequest(http.MethodGet, "/api/articles", nil), tt.err)

			if rec.Code != tt.wantStatus {
				t.Errorf("status = %d, want %d", rec.Code, tt.wantStatus)
			}
			if ct := rec.Header().Get("Content-Type"); !strings.HasPrefix(ct, "application/json") {
				t.Errorf("content type = %q", ct)
			}

			var got envelope
			if err := json.NewDecoder(rec.Body).Decode(&got); err != nil {
				t.Fatalf("decode: %v", err)
			}
			if got.Error.Status != tt.wantStatus || got.Error.Name != tt.wantName || got.Error.Message != tt.wantMsg {
				t.Errorf("body = %+v", got.Error)
			}
			if got.Error.Details == nil {
				t.Error("details should be an object, not null")
			}
		})
	}
}

func TestWriteValidationDetails(t *testing.T) {
	rec := httptest.NewRecorder()
	Write(rec, httptest.NewRequest(http.MethodPost, "/api/articles", nil),
		NewValidation([]string{"Title is required", "Category is required"}))

	var got struct {
		Error struct {
			Details struct {
				Errors []string `json:"errors"`
			} `json:"details"`
		} `json:"error"`
	}
	if err := json.NewDecoder(rec.Body).Decode(&got); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(got.Error.Details.Errors) != 2 || got.Error.Details.Errors[1] != "Category is required" {
		t.Errorf("details.errors = %v", got.Error.Details.Errors)
	}
}
