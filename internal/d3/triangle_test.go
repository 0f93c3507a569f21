package d3

import (
	"math"
	"testing"

	"gonum.org/v1/gonum/spatial/r3"
)

func TestRayTriangle(t *testing.T) {
	tri := r3.Triangle{{X: 0, Y: 0, Z: 1}, {X: 1, Y: 0, Z: 1}, {X: 0, Y: 1, Z: 1}}
	up := r3.Vec{Z: 1}
	for _, test := range []struct {
		orig r3.Vec
		dir  r3.Vec
		t    float64
		hit  bool
	}{
		{orig: r3.Vec{X: .2, Y: .2}, dir: up, t: 1, hit: true},
		{orig: r3.Vec{X: .2, Y: .2, Z: 3}, dir: r3.Scale(-1, up), t: 2, hit: true},
		{orig: r3.Vec{X: .2, Y: .2, Z: 3}, dir: up},     // behind origin
		{orig: r3.Vec{X: .8, Y: .8}, dir: up},           // outside triangle
		{orig: r3.Vec{X: .2, Y: .2}, dir: r3.Vec{X: 1}}, // parallel
		{orig: r3.Vec{X: -.9, Y: .2, Z: 0}, dir: r3.Unit(r3.Vec{X: 1, Z: 1}), t: 1.4142135623730951, hit: true},
	} {
		got, ok := RayTriangle(test.orig, test.dir, tri)
		if ok != test.hit {
			t.Errorf("%v %v: want hit %v, got %v", test.orig, test.dir, test.hit, ok)
			continue
		}
		if ok && math.Abs(got-test.t) > 1e-9 {
			t.Errorf("%v %v: want t=%g, got %g", test.orig, test.dir, test.t, got)
		}
	}
}

func TestCubeIntersectsTriangle(t *testing.T) {
	tri := r3.Triangle{{X: 0, Y: 0, Z: .5}, {X: 1, Y: 0, Z: .5}, {X: 0, Y: 1, Z: .5}}
	n := Normal(tri)
	for _, test := range []struct {
		o    r3.Vec
		s    float64
		want bool
	}{
		{o: r3.Vec{}, s: 1, want: true},
		{o: r3.Vec{Z: 1}, s: 1, want: false},                 // above plane
		{o: r3.Vec{X: .6, Y: .6, Z: .4}, s: .3, want: false}, // beyond hypotenuse
		{o: r3.Vec{X: .1, Y: .1, Z: .4}, s: .2, want: true},
		{o: r3.Vec{Z: .5}, s: .5, want: true}, // touching the plane
		{o: r3.Vec{X: -2, Y: -2}, s: 1, want: false},
	} {
		got := CubeIntersectsTriangle(test.o, test.s, tri, n)
		if got != test.want {
			t.Errorf("cube %v size %g: want %v, got %v", test.o, test.s, test.want, got)
		}
	}
}

func TestTransformNormal(t *testing.T) {
	var tf Transform
	tf = tf.Scale(r3.Vec{}, r3.Vec{X: 1, Y: 4, Z: 1})
	// A plane x+y=0 has normal (1,1,0). After scaling y by 4 the plane is
	// x+y/4=0 with normal proportional to (1,1/4,0).
	got := tf.Normal(r3.Vec{X: 1, Y: 1})
	want := r3.Unit(r3.Vec{X: 1, Y: .25})
	if r3.Norm(r3.Sub(got, want)) > 1e-12 {
		t.Errorf("want %v, got %v", want, got)
	}
	if d := tf.Direction(r3.Vec{Y: 1}); d != (r3.Vec{Y: 4}) {
		t.Errorf("direction: got %v", d)
	}
}

func TestTransformCompose(t *testing.T) {
	var tf Transform
	if !tf.IsIdentity() || tf.Det() != 1 {
		t.Fatal("zero transform is not the identity")
	}
	tf = tf.Translate(r3.Vec{Z: 1}).Scale(r3.Vec{X: 1, Y: 1, Z: 1}, r3.Vec{X: 2, Y: 2, Z: 2})
	// (0,0,0) moves to (0,0,1) then scales about (1,1,1).
	if got := tf.Transform(r3.Vec{}); got != (r3.Vec{X: -1, Y: -1, Z: 1}) {
		t.Errorf("transform: got %v", got)
	}
	if tf.Det() != 8 {
		t.Errorf("det: got %g", tf.Det())
	}

	m := Transform{}.Mirror(r3.Vec{X: 1}, 0)
	if got := m.Transform(r3.Vec{X: 3, Y: 2}); got != (r3.Vec{X: -1, Y: 2}) {
		t.Errorf("mirror: got %v", got)
	}
	if m.Det() != -1 {
		t.Errorf("mirror det: got %g", m.Det())
	}
	// An outward +X normal stays outward after mirroring across X.
	if got := m.Normal(r3.Vec{X: 1}); got != (r3.Vec{X: -1}) {
		t.Errorf("mirror normal: got %v", got)
	}

	rows := [3]r3.Vec{{Y: 1}, {X: -1}, {Z: 1}}
	rot := NewTransform(rows, r3.Vec{Z: 5})
	if got := rot.Transform(r3.Vec{X: 1}); r3.Norm(r3.Sub(got, r3.Vec{Y: -1, Z: 5})) > 1e-15 {
		t.Errorf("rotation: got %v", got)
	}
	if got := rot.Normal(r3.Vec{X: 1}); r3.Norm(r3.Sub(got, r3.Vec{Y: -1})) > 1e-15 {
		t.Errorf("rotation normal: got %v", got)
	}
}

func TestTransformRotate(t *testing.T) {
	const tol = 1e-12
	near := func(a, b r3.Vec) bool { return r3.Norm(r3.Sub(a, b)) < tol }
	quarter := Transform{}.Rotate(r3.Vec{X: 1}, 2, math.Pi/2)
	if got := quarter.Transform(r3.Vec{X: 2}); !near(got, r3.Vec{X: 1, Y: 1}) {
		t.Errorf("quarter turn: got %v", got)
	}
	if got := quarter.Normal(r3.Vec{X: 1}); !near(got, r3.Vec{Y: 1}) {
		t.Errorf("quarter turn normal: got %v", got)
	}
	if d := quarter.Det(); math.Abs(d-1) > tol {
		t.Errorf("rotation determinant %g", d)
	}
	// Rotations about X and Y follow the right hand rule too.
	if got := (Transform{}).Rotate(r3.Vec{}, 0, math.Pi/2).Transform(r3.Vec{Y: 1}); !near(got, r3.Vec{Z: 1}) {
		t.Errorf("x rotation: got %v", got)
	}
	if got := (Transform{}).Rotate(r3.Vec{}, 1, math.Pi/2).Transform(r3.Vec{Z: 1}); !near(got, r3.Vec{X: 1}) {
		t.Errorf("y rotation: got %v", got)
	}
	// Rotating applies after what the transform already does.
	moved := Transform{}.Translate(r3.Vec{X: 1}).Rotate(r3.Vec{}, 2, math.Pi)
	if got := moved.Transform(r3.Vec{}); !near(got, r3.Vec{X: -1}) {
		t.Errorf("translate then rotate: got %v", got)
	}
	full := quarter.Rotate(r3.Vec{X: 1}, 2, 3*math.Pi/2)
	if got := full.Transform(r3.Vec{X: 3, Y: 4, Z: 5}); !near(got, r3.Vec{X: 3, Y: 4, Z: 5}) {
		t.Errorf("full turn: got %v", got)
	}
}
