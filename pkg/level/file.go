package level

import (
	"bytes"
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"

	"github.com/BurntSushi/toml"

	"github.com/matzehuels/rowstamp/pkg/errors"
)

// Supported level file formats.
const (
	FormatTOML = "toml"
	FormatJSON = "json"
	FormatHCL  = "hcl"
)

// FormatFromPath infers the level format from a file extension.
// Unknown extensions default to TOML.
func FormatFromPath(path string) string {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".json":
		return FormatJSON
	case ".hcl":
		return FormatHCL
	}
	return FormatTOML
}

// Decode parses a level in the given format.
func Decode(data []byte, format string) (*Level, error) {
	var l Level
	switch format {
	case FormatTOML:
		md, err := toml.NewDecoder(bytes.NewReader(data)).Decode(&l)
		if err != nil {
			return nil, errors.Wrap(errors.ErrCodeInvalidLevel, err, "decode toml level")
		}
		if undecoded := md.Undecoded(); len(undecoded) > 0 {
			return nil, errors.New(errors.ErrCodeInvalidLevel, "unknown level keys: %v", undecoded)
		}
	case FormatJSON:
		dec := json.NewDecoder(bytes.NewReader(data))
		dec.DisallowUnknownFields()
		if err := dec.Decode(&l); err != nil {
			return nil, errors.Wrap(errors.ErrCodeInvalidLevel, err, "decode json level")
		}
	case FormatHCL:
		return decodeHCL(data, "level.hcl")
	default:
		return nil, errors.New(errors.ErrCodeInvalidFormat, "unsupported level format %q", format)
	}
	return &l, nil
}

// ReadFile loads a level from disk. The level name defaults to the file
// stem when the file does not set one.
func ReadFile(path string) (*Level, []byte, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil, errors.Wrap(errors.ErrCodeFileNotFound, err, "read level %s", path)
		}
		return nil, nil, errors.Wrap(errors.ErrCodeInternal, err, "read level %s", path)
	}
	l, err := Decode(data, FormatFromPath(path))
	if err != nil {
		return nil, nil, err
	}
	if l.Name == "" {
		l.Name = strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
	}
	return l, data, nil
}

// FileProvider loads its level from Path on every call.
type FileProvider struct {
	Path string
}

// GetLevel reads and decodes the level file.
func (p FileProvider) GetLevel(ctx context.Context) (*Level, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	l, _, err := ReadFile(p.Path)
	return l, err
}

// Encode writes l in the given format.
func Encode(l *Level, format string) ([]byte, error) {
	var buf bytes.Buffer
	switch format {
	case FormatTOML:
		if err := toml.NewEncoder(&buf).Encode(l); err != nil {
			return nil, errors.Wrap(errors.ErrCodeInternal, err, "encode toml level")
		}
	case FormatJSON:
		enc := json.NewEncoder(&buf)
		enc.SetIndent("", "  ")
		if err := enc.Encode(l); err != nil {
			return nil, errors.Wrap(errors.ErrCodeInternal, err, "encode json level")
		}
	case FormatHCL:
		return encodeHCL(l), nil
	default:
		return nil, errors.New(errors.ErrCodeInvalidFormat, "unsupported level format %q", format)
	}
	return buf.Bytes(), nil
}
