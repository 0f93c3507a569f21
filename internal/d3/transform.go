package d3

import (
	"math"

	"gonum.org/v1/gonum/spatial/r3"
)

// Transform is the affine map v ↦ L·v + T that places a mesh in world
// space. L is stored with the identity subtracted so the zero Transform
// leaves points unchanged.
type Transform struct {
	l [3]r3.Vec // rows of L - I
	t r3.Vec
}

// NewTransform returns the transform with linear part given by the rows of
// linear and translation t.
func NewTransform(linear [3]r3.Vec, t r3.Vec) Transform {
	var tf Transform
	for i, row := range linear {
		tf.l[i] = SetIndex(row, i, Index(row, i)-1)
	}
	tf.t = t
	return tf
}

// row returns row i of L.
func (t Transform) row(i int) r3.Vec {
	r := t.l[i]
	return SetIndex(r, i, Index(r, i)+1)
}

// Transform maps a point.
func (t Transform) Transform(v r3.Vec) r3.Vec {
	return r3.Add(t.Direction(v), t.t)
}

// Direction maps a direction, ignoring the translation.
func (t Transform) Direction(v r3.Vec) r3.Vec {
	return r3.Vec{X: r3.Dot(t.row(0), v), Y: r3.Dot(t.row(1), v), Z: r3.Dot(t.row(2), v)}
}

// Normal maps a surface normal and returns it with unit length. Normals go
// through the cofactor matrix of L, which is the inverse transpose scaled by
// the determinant; the determinant's sign is put back so mirroring keeps
// normals on the outside. The zero vector is returned as is.
func (t Transform) Normal(n r3.Vec) r3.Vec {
	if t.IsIdentity() {
		return n
	}
	r0, r1, r2 := t.row(0), t.row(1), t.row(2)
	c := r3.Vec{
		X: r3.Dot(r3.Cross(r1, r2), n),
		Y: r3.Dot(r3.Cross(r2, r0), n),
		Z: r3.Dot(r3.Cross(r0, r1), n),
	}
	l := r3.Norm(c)
	if l == 0 {
		return c
	}
	if t.Det() < 0 {
		l = -l
	}
	return r3.Scale(1/l, c)
}

// Det returns the determinant of L. A negative value means the transform
// mirrors space and flips triangle winding.
func (t Transform) Det() float64 {
	return r3.Dot(t.row(0), r3.Cross(t.row(1), t.row(2)))
}

// IsIdentity reports whether t leaves every point in place.
func (t Transform) IsIdentity() bool { return t == (Transform{}) }

// Translate returns t followed by a translation by v.
func (t Transform) Translate(v r3.Vec) Transform {
	t.t = r3.Add(t.t, v)
	return t
}

// Scale returns t followed by a per axis scaling by factor about origin.
// A negative component mirrors across the plane through origin.
func (t Transform) Scale(origin, factor r3.Vec) Transform {
	for i := 0; i < 3; i++ {
		f := Index(factor, i)
		r := r3.Scale(f, t.row(i))
		t.l[i] = SetIndex(r, i, Index(r, i)-1)
		o := Index(origin, i)
		t.t = SetIndex(t.t, i, f*(Index(t.t, i)-o)+o)
	}
	return t
}

// Mirror returns t followed by a reflection across the plane through
// origin normal to axis, 0 being X.
func (t Transform) Mirror(origin r3.Vec, axis int) Transform {
	return t.Scale(origin, SetIndex(Elem(1), axis, -1))
}

// Rotate returns t followed by a rotation of angle radians about the line
// through origin along axis, 0 being X. Positive angles turn counter
// clockwise looking down the axis.
func (t Transform) Rotate(origin r3.Vec, axis int, angle float64) Transform {
	s, c := math.Sincos(angle)
	i, j := (axis+1)%3, (axis+2)%3
	var rows [3]r3.Vec
	rows[axis] = SetIndex(r3.Vec{}, axis, 1)
	rows[i] = SetIndex(SetIndex(r3.Vec{}, i, c), j, -s)
	rows[j] = SetIndex(SetIndex(r3.Vec{}, i, s), j, c)
	r := NewTransform(rows, r3.Vec{})
	return t.then(r.Translate(r3.Sub(origin, r.Direction(origin))))
}

// then returns the transform applying t and then u.
func (t Transform) then(u Transform) Transform {
	r0, r1, r2 := t.row(0), t.row(1), t.row(2)
	var rows [3]r3.Vec
	for i := range rows {
		ur := u.row(i)
		rows[i] = r3.Add(r3.Add(r3.Scale(ur.X, r0), r3.Scale(ur.Y, r1)), r3.Scale(ur.Z, r2))
	}
	return NewTransform(rows, u.Transform(t.t))
}
