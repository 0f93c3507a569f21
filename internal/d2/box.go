package d2

import (
	"math"

	"gonum.org/v1/gonum/spatial/r2"
)

// Box accumulates the 2D extent of a set of points.
type Box r2.Box

// EmptyBox returns an inverted box: the first Include replaces both corners.
func EmptyBox() Box {
	inf := math.Inf(1)
	return Box{Min: r2.Vec{X: inf, Y: inf}, Max: r2.Vec{X: -inf, Y: -inf}}
}

// Include grows the box to cover v.
func (b Box) Include(v r2.Vec) Box {
	b.Min.X, b.Max.X = math.Min(b.Min.X, v.X), math.Max(b.Max.X, v.X)
	b.Min.Y, b.Max.Y = math.Min(b.Min.Y, v.Y), math.Max(b.Max.Y, v.Y)
	return b
}
