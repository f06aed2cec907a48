package wheel

// Lane is one horizontal obstacle slot across the wheel.
// Coordinates are in world units along the wheel axis.
type Lane struct {
	Index       int
	Left, Right float64
}

// Width returns the horizontal span of the lane.
func (l Lane) Width() float64 { return l.Right - l.Left }

// CenterX returns the horizontal center point of the lane.
func (l Lane) CenterX() float64 { return (l.Left + l.Right) / 2 }
