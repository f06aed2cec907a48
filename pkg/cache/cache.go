// Package cache stores computed plans and rendered level graphs.
//
// Entries are opaque byte slices addressed by keys built with a Keyer, so
// the same key maps to the same level content and options everywhere:
//
//	key := keyer.PlanKey(cache.Hash(levelBytes), cache.PlanKeyOpts{...})
//	if data, hit, _ := c.Get(ctx, key); hit {
//	    ...
//	}
//
// Three backends are provided: FileCache for the CLI, RedisCache for a
// shared deployment of the HTTP API, and NullCache to disable caching.
package cache

import (
	"context"
	"time"
)

// Default time-to-live values.
const (
	// TTLPlan is how long a computed plan stays valid. Plans are pure
	// functions of their key, so the TTL only bounds disk use.
	TTLPlan = 7 * 24 * time.Hour

	// TTLGraph is how long a rendered level graph stays valid.
	TTLGraph = 7 * 24 * time.Hour
)

// Cache is a byte-oriented key/value store with expiry.
type Cache interface {
	// Get returns the value for key. A missing or expired key is a miss,
	// not an error.
	Get(ctx context.Context, key string) ([]byte, bool, error)

	// Set stores data under key. A zero ttl never expires.
	Set(ctx context.Context, key string, data []byte, ttl time.Duration) error

	// Delete removes key. Deleting a missing key is not an error.
	Delete(ctx context.Context, key string) error

	// Close releases the backend's resources.
	Close() error
}

// PlanKeyOpts are the options that change a plan's content.
type PlanKeyOpts struct {
	ObstaclesPerRow int     `json:"n"`
	Radius          float64 `json:"r"`
	Width           float64 `json:"w"`
	Speed           float64 `json:"speed"`
	InitialDelay    float64 `json:"delay"`
	Spacing         float64 `json:"spacing"`
	SpawnX          float64 `json:"sx"`
	SpawnY          float64 `json:"sy"`
	SpawnZ          float64 `json:"sz"`
	SpawnRotationX  float64 `json:"srx"`
	Strict          bool    `json:"strict"`
	LevelName       string  `json:"name,omitempty"`
}

// GraphKeyOpts are the options that change a rendered level graph.
type GraphKeyOpts struct {
	Format       string  `json:"format"`
	Detailed     bool    `json:"detailed"`
	InitialDelay float64 `json:"delay"`
	Spacing      float64 `json:"spacing"`
	LevelName    string  `json:"name,omitempty"`
}
