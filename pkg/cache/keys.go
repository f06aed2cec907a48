package cache

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
)

// Keyer builds cache keys.
type Keyer interface {
	// PlanKey returns the key for a plan of the level with the given
	// content hash.
	PlanKey(levelHash string, opts PlanKeyOpts) string

	// GraphKey returns the key for a rendered graph of the level with the
	// given content hash.
	GraphKey(levelHash string, opts GraphKeyOpts) string
}

// Hash returns the hex SHA-256 of data. Levels are keyed by their raw
// bytes, so reformatting a level file invalidates its entries.
func Hash(data []byte) string {
	sum := sha256.Sum256(data)
	return hex.EncodeToString(sum[:])
}

// DefaultKeyer builds keys of the form "kind:sha256(level, opts)".
type DefaultKeyer struct{}

// NewDefaultKeyer creates the default keyer.
func NewDefaultKeyer() Keyer {
	return DefaultKeyer{}
}

// PlanKey implements Keyer.
func (DefaultKeyer) PlanKey(levelHash string, opts PlanKeyOpts) string {
	return digestKey("plan", levelHash, opts)
}

// GraphKey implements Keyer.
func (DefaultKeyer) GraphKey(levelHash string, opts GraphKeyOpts) string {
	return digestKey("graph", levelHash, opts)
}

// digestKey hashes the level hash together with the JSON form of opts.
// Option structs only hold plain fields, so marshalling cannot fail.
func digestKey(kind, levelHash string, opts any) string {
	data, _ := json.Marshal(struct {
		Level string `json:"level"`
		Opts  any    `json:"opts"`
	}{levelHash, opts})
	return kind + ":" + Hash(data)
}

// ScopedKeyer prefixes every key of an inner Keyer, so several level sets
// can share one backend:
//
//	keyer := NewScopedKeyer(NewDefaultKeyer(), "levels:arcade:")
type ScopedKeyer struct {
	inner  Keyer
	prefix string
}

// NewScopedKeyer wraps inner, or the default keyer when inner is nil.
func NewScopedKeyer(inner Keyer, prefix string) Keyer {
	if inner == nil {
		inner = NewDefaultKeyer()
	}
	return &ScopedKeyer{inner: inner, prefix: prefix}
}

// PlanKey implements Keyer.
func (k *ScopedKeyer) PlanKey(levelHash string, opts PlanKeyOpts) string {
	return k.prefix + k.inner.PlanKey(levelHash, opts)
}

// GraphKey implements Keyer.
func (k *ScopedKeyer) GraphKey(levelHash string, opts GraphKeyOpts) string {
	return k.prefix + k.inner.GraphKey(levelHash, opts)
}
