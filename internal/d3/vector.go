package d3

import "gonum.org/v1/gonum/spatial/r3"

// Elem returns a vector with every component set to f.
func Elem(f float64) r3.Vec { return r3.Vec{X: f, Y: f, Z: f} }

// Max returns the largest component of a.
func Max(a r3.Vec) float64 { return Index(a, ArgMax(a)) }

// Min returns the smallest component of a.
func Min(a r3.Vec) float64 { return Index(a, ArgMin(a)) }

// ArgMax returns the index of the largest component. Ties resolve to the
// lowest index.
func ArgMax(a r3.Vec) int {
	i := 0
	for j := 1; j < 3; j++ {
		if Index(a, j) > Index(a, i) {
			i = j
		}
	}
	return i
}

// ArgMin returns the index of the smallest component. Ties resolve to the
// lowest index.
func ArgMin(a r3.Vec) int {
	i := 0
	for j := 1; j < 3; j++ {
		if Index(a, j) < Index(a, i) {
			i = j
		}
	}
	return i
}

// Index returns the i'th component of a, 0 being X.
func Index(a r3.Vec, i int) float64 {
	switch i {
	case 0:
		return a.X
	case 1:
		return a.Y
	}
	return a.Z
}

// SetIndex returns a with its i'th component set to f.
func SetIndex(a r3.Vec, i int, f float64) r3.Vec {
	switch i {
	case 0:
		a.X = f
	case 1:
		a.Y = f
	default:
		a.Z = f
	}
	return a
}
