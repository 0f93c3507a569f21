// Package mcg implements fixed precision planar geometry on an integer grid:
// polygon sets, segment sets, a sweep line boolean engine, polygon offsetting
// and infill line generation.
//
// Coordinates are stored as integers scaled by 10^Precision. All predicates
// are evaluated in integer space so that the sweep sees a consistent view of
// the geometry regardless of floating point drift.
package mcg

import (
	"math"

	"github.com/soypat/meshy"
	"gonum.org/v1/gonum/spatial/r2"
	"gonum.org/v1/gonum/spatial/r3"
)

// DefaultPrecision is the number of decimal places kept by NewContext when
// precision is not positive.
const DefaultPrecision = 5

// Context describes the plane geometry lives on: the plane is normal to Axis
// and sits at D along it. H and V coordinates map to Axis.Next() and
// Axis.Next().Next() respectively.
type Context struct {
	Axis      meshy.Axis
	D         float64
	Precision int
	// P is the scale factor 10^Precision.
	P float64
}

// NewContext returns a context for the plane normal to axis at level d.
func NewContext(axis meshy.Axis, d float64, precision int) *Context {
	if precision <= 0 {
		precision = DefaultPrecision
	}
	return &Context{
		Axis:      axis,
		D:         d,
		Precision: precision,
		P:         math.Pow10(precision),
	}
}

// WithLevel returns a copy of c at level d.
func (c *Context) WithLevel(d float64) *Context {
	cp := *c
	cp.D = d
	return &cp
}

// Epsilon is one integer unit in float space.
func (c *Context) Epsilon() float64 { return 1 / c.P }

// Ftoi converts a float space length to integer space.
func (c *Context) Ftoi(f float64) int64 { return round(f * c.P) }

// Itof converts an integer space length to float space.
func (c *Context) Itof(i int64) float64 { return float64(i) / c.P }

// Vector projects a 3D point onto the context plane in integer space.
func (c *Context) Vector(v r3.Vec) Vector {
	p := c.Axis.Project(v)
	return Vector{H: c.Ftoi(p.X), V: c.Ftoi(p.Y)}
}

// V3 lifts p back into 3D at the context level.
func (c *Context) V3(p Vector) r3.Vec {
	return c.Axis.Unproject(c.V2(p), c.D)
}

// V2 converts p to float space plane coordinates.
func (c *Context) V2(p Vector) r2.Vec {
	return r2.Vec{X: c.Itof(p.H), Y: c.Itof(p.V)}
}
