package d3

import (
	"math"

	"gonum.org/v1/gonum/spatial/r3"
)

const triEpsilon = 1e-6

// RayTriangle returns the ray parameter t at which the ray starting at orig
// with unit direction dir crosses tri, using the Möller-Trumbore algorithm.
// Only hits with t > 0 are reported. Triangles nearly parallel to the ray
// are rejected using a determinant normalized by the edge lengths.
func RayTriangle(orig, dir r3.Vec, tri r3.Triangle) (t float64, ok bool) {
	e1 := r3.Sub(tri[1], tri[0])
	e2 := r3.Sub(tri[2], tri[0])
	p := r3.Cross(dir, e2)
	det := r3.Dot(e1, p)
	norm := r3.Norm(e1) * r3.Norm(e2)
	if norm == 0 || math.Abs(det/norm) < triEpsilon {
		return 0, false
	}
	invDet := 1 / det
	tv := r3.Sub(orig, tri[0])
	u := r3.Dot(tv, p) * invDet
	if u < 0 || u > 1 {
		return 0, false
	}
	q := r3.Cross(tv, e1)
	v := r3.Dot(dir, q) * invDet
	if v < 0 || u+v > 1 {
		return 0, false
	}
	t = r3.Dot(e2, q) * invDet
	if t <= 0 {
		return 0, false
	}
	return t, true
}

// CubeIntersectsTriangle tests an axis aligned cube with minimum corner o
// and side s against triangle tri with normal n using the 13 separating axis
// tests of Akenine-Möller. Touching counts as intersecting.
func CubeIntersectsTriangle(o r3.Vec, s float64, tri r3.Triangle, n r3.Vec) bool {
	v0, v1, v2 := tri[0], tri[1], tri[2]
	// Axis aligned bounds first, they reject most cells.
	if math.Max(v0.X, math.Max(v1.X, v2.X)) < o.X || math.Min(v0.X, math.Min(v1.X, v2.X)) > o.X+s {
		return false
	}
	if math.Max(v0.Y, math.Max(v1.Y, v2.Y)) < o.Y || math.Min(v0.Y, math.Min(v1.Y, v2.Y)) > o.Y+s {
		return false
	}
	if math.Max(v0.Z, math.Max(v1.Z, v2.Z)) < o.Z || math.Min(v0.Z, math.Min(v1.Z, v2.Z)) > o.Z+s {
		return false
	}
	if !cubeIntersectsPlane(o, s, v0, n) {
		return false
	}
	f0 := r3.Sub(v1, v0)
	f1 := r3.Sub(v2, v1)
	f2 := r3.Sub(v0, v2)
	for axis := 0; axis < 3; axis++ {
		if !axisCrossEdge(o, s, axis, f0, v0, v2) ||
			!axisCrossEdge(o, s, axis, f1, v1, v0) ||
			!axisCrossEdge(o, s, axis, f2, v2, v1) {
			return false
		}
	}
	return true
}

// cubeIntersectsPlane reports whether the plane through v with normal n
// touches the cube.
func cubeIntersectsPlane(o r3.Vec, s float64, v, n r3.Vec) bool {
	vmin := r3.Sub(o, v)
	vmax := vmin
	if n.X > 0 {
		vmax.X += s
	} else {
		vmin.X += s
	}
	if n.Y > 0 {
		vmax.Y += s
	} else {
		vmin.Y += s
	}
	if n.Z > 0 {
		vmax.Z += s
	} else {
		vmin.Z += s
	}
	return r3.Dot(n, vmin) <= 0 && r3.Dot(n, vmax) >= 0
}

// axisCrossEdge projects the triangle and cube on the cross product of the
// given cartesian axis with edge f and reports false if the projections are
// disjoint. va lies on the edge and vb is the opposite vertex.
func axisCrossEdge(o r3.Vec, s float64, axis int, f, va, vb r3.Vec) bool {
	var c r3.Vec
	switch axis {
	case 0:
		if f.Z*f.Z+f.Y*f.Y <= triEpsilon {
			return true
		}
		c = r3.Vec{Y: -f.Z, Z: f.Y}
	case 1:
		if f.Z*f.Z+f.X*f.X <= triEpsilon {
			return true
		}
		c = r3.Vec{X: f.Z, Z: -f.X}
	default:
		if f.Y*f.Y+f.X*f.X <= triEpsilon {
			return true
		}
		c = r3.Vec{X: -f.Y, Y: f.X}
	}
	pa, pb := r3.Dot(c, va), r3.Dot(c, vb)
	tmin, tmax := math.Min(pa, pb), math.Max(pa, pb)
	vmin, vmax := math.Inf(1), math.Inf(-1)
	for i := 0; i < 8; i++ {
		corner := r3.Vec{
			X: o.X + s*float64(i&1),
			Y: o.Y + s*float64((i>>1)&1),
			Z: o.Z + s*float64((i>>2)&1),
		}
		vp := r3.Dot(c, corner)
		vmin = math.Min(vmin, vp)
		vmax = math.Max(vmax, vp)
	}
	return !(tmin > vmax || tmax < vmin)
}

// Normal returns the unit normal of the triangle following the right hand
// rule, or the zero vector for a degenerate triangle.
func Normal(t r3.Triangle) r3.Vec {
	n := r3.Cross(r3.Sub(t[1], t[0]), r3.Sub(t[2], t[0]))
	l := r3.Norm(n)
	if l == 0 {
		return r3.Vec{}
	}
	return r3.Scale(1/l, n)
}
