package slicer

import (
	"math"

	"github.com/soypat/meshy"
	"gonum.org/v1/gonum/spatial/r3"
)

// FaceBounds is the extent of a face along the slicing axis.
type FaceBounds struct {
	Min, Max float64
}

func faceBounds(t r3.Triangle, axis meshy.Axis) FaceBounds {
	a, b, c := axis.Get(t[0]), axis.Get(t[1]), axis.Get(t[2])
	return FaceBounds{Min: math.Min(a, math.Min(b, c)), Max: math.Max(a, math.Max(b, c))}
}

// sortVertices orders the vertices of t along axis. ccw is false when the
// reordering flipped the winding.
func sortVertices(t r3.Triangle, axis meshy.Axis) (v [3]r3.Vec, ccw bool) {
	v = t
	ccw = true
	a, b, c := axis.Get(v[0]), axis.Get(v[1]), axis.Get(v[2])
	if c > a {
		if b > c {
			v[1], v[2] = v[2], v[1]
			ccw = false
		} else if a > b {
			v[0], v[1] = v[1], v[0]
			ccw = false
		}
		return v, ccw
	}
	switch {
	case b > a:
		v[0], v[1], v[2] = v[2], v[0], v[1]
	case c > b:
		v[0], v[1], v[2] = v[1], v[2], v[0]
	default:
		v[0], v[2] = v[2], v[0]
		ccw = false
	}
	return v, ccw
}

// planeIntersection returns the point of segment a-b at level. a is
// returned when the segment lies in a plane normal to axis.
func planeIntersection(axis meshy.Axis, level float64, a, b r3.Vec) r3.Vec {
	da, db := axis.Get(a), axis.Get(b)
	if da == db {
		return a
	}
	t := (level - da) / (db - da)
	return r3.Add(a, r3.Scale(t, r3.Sub(b, a)))
}

// sliceFace cuts t at level and calls fn with the one or two counterclockwise
// triangles of t below the plane. contour is set when p and q lie on the
// plane.
func sliceFace(t r3.Triangle, axis meshy.Axis, level float64, fn func(contour bool, p, q, r r3.Vec)) {
	v, ccw := sortVertices(t, axis)
	a, b, c := v[0], v[1], v[2]
	if axis.Get(b) > level {
		ab := planeIntersection(axis, level, a, b)
		ac := planeIntersection(axis, level, a, c)
		if ccw {
			fn(true, ab, ac, a)
		} else {
			fn(true, ac, ab, a)
		}
		return
	}
	ac := planeIntersection(axis, level, a, c)
	bc := planeIntersection(axis, level, b, c)
	if ccw {
		fn(false, a, b, ac)
		fn(true, bc, ac, b)
	} else {
		fn(false, b, a, ac)
		fn(true, ac, bc, b)
	}
}
