package errors

import (
	"regexp"
	"strings"
)

// maxLevelNameLen bounds level names served over HTTP.
const maxLevelNameLen = 128

// levelNamePattern matches names usable as a file stem and a URL segment.
var levelNamePattern = regexp.MustCompile(`^[A-Za-z0-9][A-Za-z0-9._-]*$`)

// ValidateLevelName rejects names that cannot safely address a level file
// in a served directory. Failures are INVALID_INPUT.
func ValidateLevelName(name string) error {
	switch {
	case name == "":
		return New(ErrCodeInvalidInput, "level name cannot be empty")
	case len(name) > maxLevelNameLen:
		return New(ErrCodeInvalidInput, "level name too long (max %d characters)", maxLevelNameLen)
	case strings.Contains(name, ".."):
		return New(ErrCodeInvalidInput, "level name cannot contain %q", "..")
	case !levelNamePattern.MatchString(name):
		return New(ErrCodeInvalidInput, "invalid level name: %q", name)
	}
	return nil
}
