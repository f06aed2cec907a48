package wheel

import (
	"sync"

	"github.com/matzehuels/rowstamp/pkg/geom"
)

// Axis is the wheel's rotation axis in its own frame.
var Axis = geom.AxisX

// Wheel is the spinning level surface. Speed is read by the row scheduler
// and may be changed at any time from any goroutine; the transform belongs
// to the goroutine that runs stamping callbacks.
type Wheel struct {
	mu    sync.RWMutex
	speed float64
	angle float64

	transform *geom.Transform
}

// New creates a wheel at the origin spinning at speed degrees per second.
func New(speed float64) *Wheel {
	return &Wheel{
		speed:     speed,
		transform: geom.NewTransform("wheel", geom.Vec3{}, geom.Identity),
	}
}

// Speed returns the current spin speed in degrees per second.
func (w *Wheel) Speed() float64 {
	w.mu.RLock()
	defer w.mu.RUnlock()
	return w.speed
}

// SetSpeed changes the spin speed.
func (w *Wheel) SetSpeed(speed float64) {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.speed = speed
}

// Transform returns the wheel's transform; stamped obstacles are parented
// under it.
func (w *Wheel) Transform() *geom.Transform { return w.transform }

// Angle returns the accumulated spin in degrees.
func (w *Wheel) Angle() float64 {
	w.mu.RLock()
	defer w.mu.RUnlock()
	return w.angle
}

// Spin advances the wheel by dt seconds at its current speed, turning the
// transform about Axis. Obstacles parented to the wheel turn with it.
func (w *Wheel) Spin(dt float64) {
	w.mu.Lock()
	step := w.speed * dt
	w.angle += step
	w.mu.Unlock()

	w.transform.Rotate(Axis, step)
}
