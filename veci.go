package meshy

import (
	"math"

	"gonum.org/v1/gonum/spatial/r3"
)

// V3i is a 3D integer vector. It is used as a map key for vertices
// quantized to a tolerance.
type V3i [3]int64

// QuantizeV3 rounds each component of v to the nearest multiple of tol and
// returns the multiples. Vertices closer than tol/2 on every axis share a key.
func QuantizeV3(v r3.Vec, tol float64) V3i {
	ri := 1 / tol
	return V3i{
		int64(math.Round(v.X * ri)),
		int64(math.Round(v.Y * ri)),
		int64(math.Round(v.Z * ri)),
	}
}

// Add adds two vectors. Return v = a + b.
func (a V3i) Add(b V3i) V3i {
	return V3i{a[0] + b[0], a[1] + b[1], a[2] + b[2]}
}

// Sub subtracts two vectors. Return v = a - b.
func (a V3i) Sub(b V3i) V3i {
	return V3i{a[0] - b[0], a[1] - b[1], a[2] - b[2]}
}

// ToV3 converts V3i (integer) to r3.Vec (float) scaled by tol.
func (a V3i) ToV3(tol float64) r3.Vec {
	return r3.Vec{X: float64(a[0]) * tol, Y: float64(a[1]) * tol, Z: float64(a[2]) * tol}
}
