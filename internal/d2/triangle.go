package d2

import (
	"math"

	"gonum.org/v1/gonum/spatial/r2"
)

// Area returns the signed area of triangle abc. It is positive when
// the vertices wind counter clockwise.
func Area(a, b, c r2.Vec) float64 {
	return ((b.X-a.X)*(c.Y-a.Y) - (b.Y-a.Y)*(c.X-a.X)) / 2
}

// Left reports whether c lies strictly left of the directed line a→b,
// treating areas within tol of zero as collinear.
func Left(a, b, c r2.Vec, tol float64) bool {
	area := Area(a, b, c)
	return area > 0 && math.Abs(area) >= tol
}

// InTriangle returns true if pt lies strictly inside the counter
// clockwise triangle tri, with tol the collinearity tolerance of
// each of the three orientation checks.
func InTriangle(pt r2.Vec, tri [3]r2.Vec, tol float64) bool {
	return Left(tri[0], tri[1], pt, tol) &&
		Left(tri[1], tri[2], pt, tol) &&
		Left(tri[2], tri[0], pt, tol)
}
