package level

import (
	"strconv"
	"strings"

	"github.com/matzehuels/rowstamp/pkg/errors"
)

// ObstacleCode identifies the obstacle prefab to place in a lane.
// Nothing marks an empty lane.
type ObstacleCode uint8

const (
	Nothing ObstacleCode = iota
	Box
	Spikes
	Wall
	Barrier
	Saw
	Ramp

	obstacleCodeCount
)

var obstacleNames = [obstacleCodeCount]string{
	Nothing: "Nothing",
	Box:     "Box",
	Spikes:  "Spikes",
	Wall:    "Wall",
	Barrier: "Barrier",
	Saw:     "Saw",
	Ramp:    "Ramp",
}

// Codes returns every obstacle code except Nothing, in declaration order.
func Codes() []ObstacleCode {
	codes := make([]ObstacleCode, 0, obstacleCodeCount-1)
	for c := Box; c < obstacleCodeCount; c++ {
		codes = append(codes, c)
	}
	return codes
}

// String returns the code's name, which doubles as its prefab name.
func (c ObstacleCode) String() string {
	if c < obstacleCodeCount {
		return obstacleNames[c]
	}
	return "ObstacleCode(" + strconv.Itoa(int(c)) + ")"
}

// ParseObstacleCode parses a code name case-insensitively. The shorthands
// "-", "." and "" mean Nothing.
func ParseObstacleCode(s string) (ObstacleCode, error) {
	s = strings.TrimSpace(s)
	switch s {
	case "", "-", ".":
		return Nothing, nil
	}
	for c, name := range obstacleNames {
		if strings.EqualFold(s, name) {
			return ObstacleCode(c), nil
		}
	}
	return Nothing, errors.New(errors.ErrCodeInvalidObstacle, "unknown obstacle code %q", s)
}

// MarshalText implements encoding.TextMarshaler.
func (c ObstacleCode) MarshalText() ([]byte, error) {
	if c >= obstacleCodeCount {
		return nil, errors.New(errors.ErrCodeInvalidObstacle, "unknown obstacle code %d", uint8(c))
	}
	return []byte(obstacleNames[c]), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (c *ObstacleCode) UnmarshalText(text []byte) error {
	parsed, err := ParseObstacleCode(string(text))
	if err != nil {
		return err
	}
	*c = parsed
	return nil
}
