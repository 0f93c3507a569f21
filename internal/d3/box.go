package d3

import (
	"math"

	"gonum.org/v1/gonum/spatial/r3"
)

// Box is an axis aligned bounding box over mesh vertices.
type Box r3.Box

// EmptyBox returns an inverted box. Include and Extend replace its corners
// with the first bounds they see.
func EmptyBox() Box {
	return Box{Min: Elem(math.Inf(1)), Max: Elem(math.Inf(-1))}
}

// Empty reports whether the box covers no point.
func (b Box) Empty() bool {
	return b.Min.X > b.Max.X || b.Min.Y > b.Max.Y || b.Min.Z > b.Max.Z
}

// Include grows the box to cover v.
func (b Box) Include(v r3.Vec) Box {
	return b.Extend(Box{Min: v, Max: v})
}

// Extend grows the box to cover o.
func (b Box) Extend(o Box) Box {
	for i := 0; i < 3; i++ {
		b.Min = SetIndex(b.Min, i, math.Min(Index(b.Min, i), Index(o.Min, i)))
		b.Max = SetIndex(b.Max, i, math.Max(Index(b.Max, i), Index(o.Max, i)))
	}
	return b
}

func (b Box) Size() r3.Vec   { return r3.Sub(b.Max, b.Min) }
func (b Box) Center() r3.Vec { return r3.Scale(0.5, r3.Add(b.Min, b.Max)) }

// Vertices returns the eight corners. Corner i takes its X from Max when
// bit 2 of i is set, Y when bit 1 is set and Z when bit 0 is set.
func (b Box) Vertices() []r3.Vec {
	v := make([]r3.Vec, 8)
	for i := range v {
		c := b.Min
		for a := 0; a < 3; a++ {
			if i&(4>>a) != 0 {
				c = SetIndex(c, a, Index(b.Max, a))
			}
		}
		v[i] = c
	}
	return v
}
