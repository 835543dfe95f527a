package geometry

import (
	"fmt"
	"math"
	"math/rand/v2"
)

// Epsilon is the tolerance used by Eq.
const Epsilon = 1e-9

// Vector2D is a point or a displacement in the simulation plane.
// It is a plain value: copying it never shares state.
type Vector2D struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// NewVector creates a new Vector2D.
func NewVector(x, y float64) Vector2D {
	return Vector2D{X: x, Y: y}
}

// RandomIn returns a vector drawn uniformly in [minX, maxX) x [minY, maxY),
// each axis independently.
func RandomIn(r *rand.Rand, minX, maxX, minY, maxY float64) Vector2D {
	return Vector2D{
		X: minX + r.Float64()*(maxX-minX),
		Y: minY + r.Float64()*(maxY-minY),
	}
}

// String implements the fmt.Stringer interface.
func (v Vector2D) String() string {
	return fmt.Sprintf("(%.2f, %.2f)", v.X, v.Y)
}

// ---------------------------------------------------------------------
// Value arithmetic
// ---------------------------------------------------------------------

// Add adds two vectors and returns the result.
func (v Vector2D) Add(other Vector2D) Vector2D {
	return Vector2D{v.X + other.X, v.Y + other.Y}
}

// Sub subtracts the other vector from the current vector.
func (v Vector2D) Sub(other Vector2D) Vector2D {
	return Vector2D{v.X - other.X, v.Y - other.Y}
}

// Mul scales the vector by a scalar value.
func (v Vector2D) Mul(scalar float64) Vector2D {
	return Vector2D{v.X * scalar, v.Y * scalar}
}

// ---------------------------------------------------------------------
// In-place mutators, used on the integration hot path.
// They only ever touch the receiver.
// ---------------------------------------------------------------------

// Accumulate adds other to v.
func (v *Vector2D) Accumulate(other Vector2D) {
	v.X += other.X
	v.Y += other.Y
}

// AccumulateScaled adds other*amplitude to v.
func (v *Vector2D) AccumulateScaled(other Vector2D, amplitude float64) {
	v.X += other.X * amplitude
	v.Y += other.Y * amplitude
}

// AverageWith replaces v by the midpoint of v and other.
// Applied to a velocity and a force it acts as a heavy damping step.
func (v *Vector2D) AverageWith(other Vector2D) {
	v.X = (v.X + other.X) * 0.5
	v.Y = (v.Y + other.Y) * 0.5
}

// ---------------------------------------------------------------------
// Magnitude and distance
// ---------------------------------------------------------------------

// LenSqr calculates the squared magnitude of the vector.
func (v Vector2D) LenSqr() float64 {
	return v.X*v.X + v.Y*v.Y
}

// Len calculates the Euclidean norm of the vector.
func (v Vector2D) Len() float64 {
	return math.Sqrt(v.X*v.X + v.Y*v.Y)
}

// DistanceTo calculates the Euclidean distance to another vector.
func (v Vector2D) DistanceTo(other Vector2D) float64 {
	return v.Sub(other).Len()
}

// Displacement returns the distance to other together with the
// difference vector v - other, so callers that need both only pay
// for one subtraction.
func (v Vector2D) Displacement(other Vector2D) (float64, Vector2D) {
	d := Vector2D{v.X - other.X, v.Y - other.Y}
	return d.Len(), d
}

// Eq checks if two vectors are approximately equal using Epsilon.
func (v Vector2D) Eq(other Vector2D) bool {
	return math.Abs(v.X-other.X) <= Epsilon && math.Abs(v.Y-other.Y) <= Epsilon
}
