// Package errors provides coded errors for rowstamp.
//
// Every failure a caller may act on carries a Code. Codes fall into three
// groups: structural codes abort a stamping run, MISSING_PREFAB is isolated
// to one lane, and the rest describe bad input or missing resources.
//
//	err := errors.New(errors.ErrCodeInvalidRowShape, "row %d has %d obstacles", i, n)
//	if errors.Is(err, errors.ErrCodeInvalidRowShape) {
//	    // the run is over
//	}
//
//	err = errors.Wrap(errors.ErrCodeNotInitialized, cause, "load level")
//
// Codes survive fmt.Errorf("...: %w", err) wrapping; Is and GetCode walk
// the chain.
package errors

import (
	"errors"
	"fmt"
	"net/http"
)

// Code represents a machine-readable error code.
type Code string

// Structural codes. Any of these stops a run.
const (
	ErrCodeInvalidRowShape Code = "INVALID_ROW_SHAPE"
	ErrCodeIndexOutOfRange Code = "INDEX_OUT_OF_RANGE"
	ErrCodeNotInitialized  Code = "NOT_INITIALIZED"
	ErrCodeInvalidLevel    Code = "INVALID_LEVEL"
	ErrCodeInvalidConfig   Code = "INVALID_CONFIG"
	ErrCodeInvalidObstacle Code = "INVALID_OBSTACLE"
)

// ErrCodeMissingPrefab is reported per lane; the lane is skipped.
const ErrCodeMissingPrefab Code = "MISSING_PREFAB"

// Input and lookup codes.
const (
	ErrCodeInvalidInput  Code = "INVALID_INPUT"
	ErrCodeInvalidFormat Code = "INVALID_FORMAT"
	ErrCodeInvalidPath   Code = "INVALID_PATH"

	ErrCodeNotFound      Code = "NOT_FOUND"
	ErrCodeFileNotFound  Code = "FILE_NOT_FOUND"
	ErrCodeLevelNotFound Code = "LEVEL_NOT_FOUND"

	ErrCodeInternal    Code = "INTERNAL_ERROR"
	ErrCodeUnsupported Code = "UNSUPPORTED"
)

type codeInfo struct {
	structural bool
	status     int
}

var codes = map[Code]codeInfo{
	ErrCodeInvalidRowShape: {true, http.StatusUnprocessableEntity},
	ErrCodeIndexOutOfRange: {true, http.StatusUnprocessableEntity},
	ErrCodeNotInitialized:  {true, http.StatusUnprocessableEntity},
	ErrCodeInvalidLevel:    {true, http.StatusUnprocessableEntity},
	ErrCodeInvalidConfig:   {true, http.StatusUnprocessableEntity},
	ErrCodeInvalidObstacle: {true, http.StatusUnprocessableEntity},
	ErrCodeMissingPrefab:   {false, http.StatusUnprocessableEntity},
	ErrCodeInvalidInput:    {false, http.StatusBadRequest},
	ErrCodeInvalidFormat:   {false, http.StatusBadRequest},
	ErrCodeInvalidPath:     {false, http.StatusBadRequest},
	ErrCodeNotFound:        {false, http.StatusNotFound},
	ErrCodeFileNotFound:    {false, http.StatusNotFound},
	ErrCodeLevelNotFound:   {false, http.StatusNotFound},
	ErrCodeInternal:        {false, http.StatusInternalServerError},
	ErrCodeUnsupported:     {false, http.StatusNotImplemented},
}

// Error is a coded error with an optional cause.
type Error struct {
	Code    Code
	Message string
	Cause   error
}

func (e *Error) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %s: %v", e.Code, e.Message, e.Cause)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func (e *Error) Unwrap() error { return e.Cause }

// New creates an Error with a formatted message.
func New(code Code, format string, args ...any) *Error {
	return &Error{Code: code, Message: fmt.Sprintf(format, args...)}
}

// Wrap creates an Error around cause.
func Wrap(code Code, cause error, format string, args ...any) *Error {
	return &Error{Code: code, Message: fmt.Sprintf(format, args...), Cause: cause}
}

// Is reports whether the first *Error in err's chain has the given code.
func Is(err error, code Code) bool {
	return GetCode(err) == code && code != ""
}

// GetCode returns the code of the first *Error in err's chain, or "".
func GetCode(err error) Code {
	var e *Error
	if errors.As(err, &e) {
		return e.Code
	}
	return ""
}

// UserMessage returns the message of the first *Error in err's chain
// without its code, or err.Error() for uncoded errors.
func UserMessage(err error) string {
	var e *Error
	if errors.As(err, &e) {
		return e.Message
	}
	return err.Error()
}

// IsStructural reports whether err aborts a whole stamping run.
// Missing prefabs and uncoded errors are not structural.
func IsStructural(err error) bool {
	return codes[GetCode(err)].structural
}

// HTTPStatus maps err to a response status. Uncoded errors and unknown
// codes are 500.
func HTTPStatus(err error) int {
	if info, ok := codes[GetCode(err)]; ok {
		return info.status
	}
	return http.StatusInternalServerError
}
