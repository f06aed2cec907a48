// Package prefab resolves obstacle prefabs by name and instantiates them
// into a scene.
package prefab

import (
	"slices"
	"sync"

	"github.com/matzehuels/rowstamp/pkg/geom"
	"github.com/matzehuels/rowstamp/pkg/level"
)

// Prefab is a named obstacle template.
type Prefab struct {
	Name string
	// Glyph is a single-character marker used by terminal views.
	Glyph rune
	// Rotation is composed onto the spawn rotation of every instance.
	Rotation geom.Quat
}

// Resolver looks up a prefab by name. A missing name returns false.
type Resolver interface {
	Resolve(name string) (*Prefab, bool)
}

// Registry is a name-keyed prefab table safe for concurrent use.
type Registry struct {
	mu      sync.RWMutex
	prefabs map[string]*Prefab
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{prefabs: make(map[string]*Prefab)}
}

// NewDefaultRegistry returns a registry with one prefab per obstacle code.
func NewDefaultRegistry() *Registry {
	r := NewRegistry()
	for _, c := range level.Codes() {
		name := c.String()
		r.Register(&Prefab{Name: name, Glyph: rune(name[0]), Rotation: geom.Identity})
	}
	return r
}

// Register adds or replaces a prefab under p.Name.
func (r *Registry) Register(p *Prefab) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.prefabs[p.Name] = p
}

// Unregister removes a prefab. It reports whether the name was present.
func (r *Registry) Unregister(name string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	_, ok := r.prefabs[name]
	delete(r.prefabs, name)
	return ok
}

// Resolve retrieves a prefab by name.
func (r *Registry) Resolve(name string) (*Prefab, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	p, ok := r.prefabs[name]
	return p, ok
}

// Names returns all registered prefab names, sorted.
func (r *Registry) Names() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	names := make([]string, 0, len(r.prefabs))
	for name := range r.prefabs {
		names = append(names, name)
	}
	slices.Sort(names)
	return names
}
