package geom

import (
	"math"
	"testing"
)

const tol = 1e-9

func TestQuatRotate(t *testing.T) {
	tests := []struct {
		name string
		axis Vec3
		deg  float64
		in   Vec3
		want Vec3
	}{
		{"x 90 turns y to z", AxisX, 90, AxisY, AxisZ},
		{"x -90 turns y to -z", AxisX, -90, AxisY, Vec3{0, 0, -1}},
		{"x 180 flips y", AxisX, 180, AxisY, Vec3{0, -1, 0}},
		{"x leaves x alone", AxisX, 37, AxisX, AxisX},
		{"z 90 turns x to y", AxisZ, 90, AxisX, AxisY},
		{"zero axis is identity", Vec3{}, 45, Vec3{1, 2, 3}, Vec3{1, 2, 3}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := AxisAngle(tt.axis, tt.deg).Rotate(tt.in)
			if !got.ApproxEqual(tt.want, tol) {
				t.Errorf("Rotate() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestQuatAngleAbout(t *testing.T) {
	for _, deg := range []float64{-120, -4.5, 0, 30, 90, 179} {
		q := AxisAngle(AxisX, deg)
		if got := q.AngleAbout(AxisX); math.Abs(got-deg) > 1e-6 {
			t.Errorf("AngleAbout(%v) = %v", deg, got)
		}
	}
}

func TestQuatMulComposes(t *testing.T) {
	a := AxisAngle(AxisX, 30)
	b := AxisAngle(AxisX, 60)
	if !a.Mul(b).ApproxEqual(AxisAngle(AxisX, 90), tol) {
		t.Error("30 then 60 degrees should equal 90 degrees")
	}
	if !a.Mul(a.Conjugate()).ApproxEqual(Identity, tol) {
		t.Error("q * conj(q) should be identity")
	}
}

func TestTransformSetParentKeepWorld(t *testing.T) {
	parent := NewTransform("wheel", Vec3{0, 5, 0}, AxisAngle(AxisX, 40))
	child := NewTransform("obstacle", Vec3{1, 2, 3}, AxisAngle(AxisY, 10))

	wantPos, wantRot := child.Position(), child.Rotation()
	child.SetParent(parent, true)

	if child.Parent() != parent {
		t.Fatal("Parent() should be the new parent")
	}
	if got := child.Position(); !got.ApproxEqual(wantPos, tol) {
		t.Errorf("Position() = %v, want %v", got, wantPos)
	}
	if got := child.Rotation(); !got.ApproxEqual(wantRot, tol) {
		t.Errorf("Rotation() = %v, want %v", got, wantRot)
	}
	if child.LocalPosition().ApproxEqual(wantPos, tol) {
		t.Error("local position should be re-expressed in the parent frame")
	}
}

func TestTransformSetParentKeepLocal(t *testing.T) {
	parent := NewTransform("wheel", Vec3{10, 0, 0}, Identity)
	child := NewTransform("obstacle", Vec3{1, 0, 0}, Identity)

	child.SetParent(parent, false)

	if got := child.Position(); !got.ApproxEqual(Vec3{11, 0, 0}, tol) {
		t.Errorf("Position() = %v, want {11 0 0}", got)
	}
}

func TestTransformFollowsParent(t *testing.T) {
	parent := NewTransform("wheel", Vec3{}, Identity)
	child := NewTransform("obstacle", Vec3{0, 20, 0}, Identity)
	child.SetParent(parent, true)

	parent.Rotate(AxisX, 90)

	if got := child.Position(); !got.ApproxEqual(Vec3{0, 0, 20}, tol) {
		t.Errorf("Position() after parent spin = %v, want {0 0 20}", got)
	}
}

func TestTransformSetPositionUnderParent(t *testing.T) {
	parent := NewTransform("wheel", Vec3{0, 1, 0}, AxisAngle(AxisX, 73))
	child := NewTransform("obstacle", Vec3{}, Identity)
	child.SetParent(parent, true)

	want := Vec3{-4, 20, 0}
	child.SetPosition(want)

	if got := child.Position(); !got.ApproxEqual(want, tol) {
		t.Errorf("Position() = %v, want %v", got, want)
	}
}

func TestTransformRotateSelfSpace(t *testing.T) {
	tr := NewTransform("obstacle", Vec3{}, AxisAngle(AxisY, 90))
	tr.Rotate(AxisX, 90)

	// Self-space X after a 90 degree yaw points along world -Z.
	want := AxisAngle(AxisY, 90).Mul(AxisAngle(AxisX, 90))
	if !tr.Rotation().ApproxEqual(want, tol) {
		t.Errorf("Rotation() = %v, want %v", tr.Rotation(), want)
	}
}

func TestTransformRejectsCycles(t *testing.T) {
	a := NewTransform("a", Vec3{}, Identity)
	b := NewTransform("b", Vec3{}, Identity)
	b.SetParent(a, true)
	a.SetParent(b, true)

	if a.Parent() != nil {
		t.Error("attaching a parent under its child should be ignored")
	}
	a.SetParent(a, true)
	if a.Parent() != nil {
		t.Error("attaching a transform under itself should be ignored")
	}
}
