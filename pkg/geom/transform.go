package geom

// Transform is a node in a parent/child hierarchy holding a local pose.
// World values are composed from the parent chain on every read, so moving
// a parent moves all of its children.
//
// Transform is not safe for concurrent use.
type Transform struct {
	Name string

	parent   *Transform
	localPos Vec3
	localRot Quat
}

// NewTransform creates a root transform with the given world pose.
func NewTransform(name string, pos Vec3, rot Quat) *Transform {
	return &Transform{Name: name, localPos: pos, localRot: rot.Normalize()}
}

// Parent returns the parent transform, or nil for a root.
func (t *Transform) Parent() *Transform { return t.parent }

// LocalPosition returns the position relative to the parent.
func (t *Transform) LocalPosition() Vec3 { return t.localPos }

// LocalRotation returns the rotation relative to the parent.
func (t *Transform) LocalRotation() Quat { return t.localRot }

// Position returns the world position.
func (t *Transform) Position() Vec3 {
	if t.parent == nil {
		return t.localPos
	}
	return t.parent.Position().Add(t.parent.Rotation().Rotate(t.localPos))
}

// Rotation returns the world rotation.
func (t *Transform) Rotation() Quat {
	if t.parent == nil {
		return t.localRot
	}
	return t.parent.Rotation().Mul(t.localRot).Normalize()
}

// SetPosition moves the transform to a world position.
func (t *Transform) SetPosition(world Vec3) {
	if t.parent == nil {
		t.localPos = world
		return
	}
	rel := world.Sub(t.parent.Position())
	t.localPos = t.parent.Rotation().Conjugate().Rotate(rel)
}

// SetRotation sets the world rotation.
func (t *Transform) SetRotation(world Quat) {
	if t.parent == nil {
		t.localRot = world.Normalize()
		return
	}
	t.localRot = t.parent.Rotation().Conjugate().Mul(world).Normalize()
}

// SetLocalPosition sets the position relative to the parent.
func (t *Transform) SetLocalPosition(p Vec3) { t.localPos = p }

// SetLocalRotation sets the rotation relative to the parent.
func (t *Transform) SetLocalRotation(q Quat) { t.localRot = q.Normalize() }

// SetParent attaches t under p (nil detaches). With keepWorld the world
// pose is preserved and the local pose recomputed; otherwise the local pose
// is kept and the world pose follows the new parent. Attaching a transform
// under itself or one of its descendants is ignored.
func (t *Transform) SetParent(p *Transform, keepWorld bool) {
	for a := p; a != nil; a = a.parent {
		if a == t {
			return
		}
	}
	if !keepWorld {
		t.parent = p
		return
	}
	pos, rot := t.Position(), t.Rotation()
	t.parent = p
	t.SetPosition(pos)
	t.SetRotation(rot)
}

// Rotate turns the transform by deg degrees about axis expressed in its
// own local frame.
func (t *Transform) Rotate(axis Vec3, deg float64) {
	t.localRot = t.localRot.Mul(AxisAngle(axis, deg)).Normalize()
}
