package errors

import (
	"strings"
	"testing"
)

func TestValidateLevelName(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		wantErr bool
	}{
		{"simple", "tutorial", false},
		{"with digits", "level-02", false},
		{"with dot", "spin.fast", false},
		{"underscore", "boss_room", false},

		{"empty", "", true},
		{"too long", strings.Repeat("a", 129), true},
		{"traversal", "..", true},
		{"nested traversal", "a..b", true},
		{"slash", "a/b", true},
		{"leading dash", "-flag", true},
		{"space", "my level", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateLevelName(tt.input)
			if (err != nil) != tt.wantErr {
				t.Errorf("ValidateLevelName(%q) error = %v, wantErr %v", tt.input, err, tt.wantErr)
			}
			if err != nil && !Is(err, ErrCodeInvalidInput) {
				t.Errorf("ValidateLevelName(%q) returned wrong error code: %v", tt.input, err)
			}
		})
	}
}

func TestEveryCodeIsClassified(t *testing.T) {
	all := []Code{
		ErrCodeInvalidRowShape, ErrCodeIndexOutOfRange, ErrCodeNotInitialized,
		ErrCodeInvalidLevel, ErrCodeInvalidConfig, ErrCodeInvalidObstacle,
		ErrCodeMissingPrefab,
		ErrCodeInvalidInput, ErrCodeInvalidFormat, ErrCodeInvalidPath,
		ErrCodeNotFound, ErrCodeFileNotFound, ErrCodeLevelNotFound,
		ErrCodeInternal, ErrCodeUnsupported,
	}
	if len(all) != len(codes) {
		t.Errorf("%d codes listed, %d classified", len(all), len(codes))
	}
	for _, c := range all {
		if _, ok := codes[c]; !ok {
			t.Errorf("code %s has no classification", c)
		}
	}
}
