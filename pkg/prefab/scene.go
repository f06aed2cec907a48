package prefab

import (
	"sync"

	"github.com/google/uuid"

	"github.com/matzehuels/rowstamp/pkg/geom"
)

// Instance is a live obstacle created from a prefab.
type Instance struct {
	ID        uuid.UUID
	Prefab    *Prefab
	Transform *geom.Transform
}

// Instantiator creates instances of a prefab at a world pose.
type Instantiator interface {
	Instantiate(p *Prefab, pos geom.Vec3, rot geom.Quat) *Instance
}

// Scene is an in-memory Instantiator that keeps every instance it creates.
type Scene struct {
	mu        sync.Mutex
	instances []*Instance
}

// NewScene creates an empty scene.
func NewScene() *Scene {
	return &Scene{}
}

// Instantiate creates a root instance of p at the given world pose. The
// prefab's own rotation is applied on top of rot.
func (s *Scene) Instantiate(p *Prefab, pos geom.Vec3, rot geom.Quat) *Instance {
	if p.Rotation != (geom.Quat{}) {
		rot = rot.Mul(p.Rotation)
	}
	inst := &Instance{
		ID:        uuid.New(),
		Prefab:    p,
		Transform: geom.NewTransform(p.Name, pos, rot),
	}

	s.mu.Lock()
	s.instances = append(s.instances, inst)
	s.mu.Unlock()
	return inst
}

// Instances returns a snapshot of the scene's instances in creation order.
func (s *Scene) Instances() []*Instance {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]*Instance, len(s.instances))
	copy(out, s.instances)
	return out
}

// Len returns the number of live instances.
func (s *Scene) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.instances)
}

// DestroyAll detaches and drops every instance, returning how many were
// removed.
func (s *Scene) DestroyAll() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	n := len(s.instances)
	for _, inst := range s.instances {
		inst.Transform.SetParent(nil, false)
	}
	s.instances = nil
	return n
}
