package particle

import "strings"

// Shape is the visual form of every atom of a group.
type Shape int

const (
	// Square is the shape used when a configuration does not name one.
	Square Shape = iota
	Dot
	Triangle
)

var shapeNames = [...]string{
	Square:   "Square",
	Dot:      "Dot",
	Triangle: "Triangle",
}

func (s Shape) String() string {
	if s < 0 || int(s) >= len(shapeNames) {
		return shapeNames[Square]
	}
	return shapeNames[s]
}

// ParseShape maps a shape name to its Shape, case-insensitively.
// Unknown or empty names fall back to Square.
func ParseShape(name string) Shape {
	for i, n := range shapeNames {
		if strings.EqualFold(n, strings.TrimSpace(name)) {
			return Shape(i)
		}
	}
	return Square
}

// MarshalText implements encoding.TextMarshaler.
func (s Shape) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (s *Shape) UnmarshalText(text []byte) error {
	*s = ParseShape(string(text))
	return nil
}
