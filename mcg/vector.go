package mcg

import (
	"fmt"
	"math"
)

// Vector is a point or displacement in integer space.
type Vector struct {
	H, V int64
}

// round rounds half toward positive infinity.
func round(x float64) int64 {
	return int64(math.Floor(x + 0.5))
}

// Vec returns the vector rounded to the grid.
func Vec(h, v float64) Vector { return Vector{H: round(h), V: round(v)} }

func (a Vector) String() string { return fmt.Sprintf("(%d,%d)", a.H, a.V) }

func (a Vector) Add(b Vector) Vector { return Vector{H: a.H + b.H, V: a.V + b.V} }

func (a Vector) Sub(b Vector) Vector { return Vector{H: a.H - b.H, V: a.V - b.V} }

func (a Vector) Neg() Vector { return Vector{H: -a.H, V: -a.V} }

// Scale multiplies by s and rounds to the grid.
func (a Vector) Scale(s float64) Vector {
	return Vec(float64(a.H)*s, float64(a.V)*s)
}

// AddScaled returns a + b·s rounded to the grid.
func (a Vector) AddScaled(b Vector, s float64) Vector {
	return Vec(float64(a.H)+float64(b.H)*s, float64(a.V)+float64(b.V)*s)
}

// To returns the displacement from a to b.
func (a Vector) To(b Vector) Vector { return b.Sub(a) }

func (a Vector) Dot(b Vector) int64 { return a.H*b.H + a.V*b.V }

// Cross is the component of the 3D cross product normal to the plane.
func (a Vector) Cross(b Vector) int64 { return a.H*b.V - a.V*b.H }

func (a Vector) LengthSq() int64 { return a.Dot(a) }

func (a Vector) Length() float64 { return math.Sqrt(float64(a.LengthSq())) }

// SetLength scales a to length l.
func (a Vector) SetLength(l float64) Vector {
	tl := a.Length()
	if tl == l {
		return a
	}
	return a.Scale(l / tl)
}

// Normalize scales a to length p, the integer space unit length. The zero
// vector is returned unchanged.
func (a Vector) Normalize(p float64) Vector {
	if a.IsZero() {
		return a
	}
	return a.SetLength(p)
}

func (a Vector) IsZero() bool { return a.H == 0 && a.V == 0 }

func (a Vector) DistanceSq(b Vector) int64 { return a.Sub(b).LengthSq() }

func (a Vector) Distance(b Vector) float64 { return math.Sqrt(float64(a.DistanceSq(b))) }

// AngleTo returns the unsigned angle between a and b in radians.
func (a Vector) AngleTo(b Vector) float64 {
	n := math.Sqrt(float64(a.LengthSq()) * float64(b.LengthSq()))
	c := float64(a.Dot(b)) / n
	return math.Acos(math.Max(-1, math.Min(1, c)))
}

// Rotate rotates a counterclockwise by angle radians.
func (a Vector) Rotate(angle float64) Vector {
	s, c := math.Sincos(angle)
	h, v := float64(a.H), float64(a.V)
	return Vec(c*h-s*v, s*h+c*v)
}

func (a Vector) Min(b Vector) Vector {
	return Vector{H: min(a.H, b.H), V: min(a.V, b.V)}
}

func (a Vector) Max(b Vector) Vector {
	return Vector{H: max(a.H, b.H), V: max(a.V, b.V)}
}

// HCompare returns the sign of a.H - b.H.
func (a Vector) HCompare(b Vector) int { return sign(a.H - b.H) }

// VCompare returns the sign of a.V - b.V.
func (a Vector) VCompare(b Vector) int { return sign(a.V - b.V) }

// HVCompare orders by H, then V.
func (a Vector) HVCompare(b Vector) int {
	if c := a.HCompare(b); c != 0 {
		return c
	}
	return a.VCompare(b)
}

func sign[T int64 | int | float64](x T) int {
	switch {
	case x < 0:
		return -1
	case x > 0:
		return 1
	}
	return 0
}

// bounds of an empty geometry: any point extends them.
var (
	emptyMin = Vector{H: math.MaxInt64, V: math.MaxInt64}
	emptyMax = Vector{H: math.MinInt64, V: math.MinInt64}
)
