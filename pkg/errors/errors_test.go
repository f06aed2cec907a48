package errors

import (
	"errors"
	"fmt"
	"net/http"
	"testing"
)

func TestNewAndWrap(t *testing.T) {
	err := New(ErrCodeInvalidRowShape, "row %d has %d obstacles", 3, 4)
	if got, want := err.Error(), "INVALID_ROW_SHAPE: row 3 has 4 obstacles"; got != want {
		t.Errorf("Error() = %q, want %q", got, want)
	}

	cause := errors.New("open intro.toml: no such file")
	wrapped := Wrap(ErrCodeFileNotFound, cause, "read level")
	if got, want := wrapped.Error(), "FILE_NOT_FOUND: read level: open intro.toml: no such file"; got != want {
		t.Errorf("Error() = %q, want %q", got, want)
	}
	if errors.Unwrap(wrapped) != cause {
		t.Error("Unwrap() should return the cause")
	}
	if !errors.Is(wrapped, cause) {
		t.Error("errors.Is(wrapped, cause) = false, want true")
	}
}

func TestCodeLookup(t *testing.T) {
	tests := []struct {
		name    string
		err     error
		code    Code
		message string
	}{
		{"coded", New(ErrCodeInvalidInput, "bad speed"), ErrCodeInvalidInput, "bad speed"},
		{"outer code wins", Wrap(ErrCodeMissingPrefab, New(ErrCodeInvalidInput, "inner"), "outer"), ErrCodeMissingPrefab, "outer"},
		{"through fmt wrapping", fmt.Errorf("plan: %w", New(ErrCodeIndexOutOfRange, "row 6")), ErrCodeIndexOutOfRange, "row 6"},
		{"plain", errors.New("plain"), "", "plain"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := GetCode(tt.err); got != tt.code {
				t.Errorf("GetCode() = %q, want %q", got, tt.code)
			}
			if tt.code != "" && !Is(tt.err, tt.code) {
				t.Errorf("Is(%q) = false, want true", tt.code)
			}
			if got := UserMessage(tt.err); got != tt.message {
				t.Errorf("UserMessage() = %q, want %q", got, tt.message)
			}
		})
	}

	if Is(nil, ErrCodeInvalidInput) || GetCode(nil) != "" {
		t.Error("nil error should have no code")
	}
	if Is(errors.New("plain"), "") {
		t.Error("Is() should never match the empty code")
	}
}

func TestClassification(t *testing.T) {
	tests := []struct {
		name       string
		err        error
		structural bool
		status     int
	}{
		{"row shape", New(ErrCodeInvalidRowShape, "bad row"), true, http.StatusUnprocessableEntity},
		{"out of range", New(ErrCodeIndexOutOfRange, "cursor"), true, http.StatusUnprocessableEntity},
		{"not initialized", Wrap(ErrCodeNotInitialized, errors.New("nil wheel"), "init"), true, http.StatusUnprocessableEntity},
		{"missing prefab", New(ErrCodeMissingPrefab, "Saw"), false, http.StatusUnprocessableEntity},
		{"bad input", New(ErrCodeInvalidInput, "speed"), false, http.StatusBadRequest},
		{"level not found", New(ErrCodeLevelNotFound, "intro"), false, http.StatusNotFound},
		{"unsupported", New(ErrCodeUnsupported, "png"), false, http.StatusNotImplemented},
		{"unknown code", New(Code("SOMETHING_ELSE"), "?"), false, http.StatusInternalServerError},
		{"plain error", errors.New("plain"), false, http.StatusInternalServerError},
		{"nil", nil, false, http.StatusInternalServerError},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := IsStructural(tt.err); got != tt.structural {
				t.Errorf("IsStructural() = %v, want %v", got, tt.structural)
			}
			if got := HTTPStatus(tt.err); got != tt.status {
				t.Errorf("HTTPStatus() = %d, want %d", got, tt.status)
			}
		})
	}
}
