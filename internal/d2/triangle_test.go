package d2

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"gonum.org/v1/gonum/spatial/r2"
)

func TestTriangle(t *testing.T) {
	a, b, c := r2.Vec{}, r2.Vec{X: 2}, r2.Vec{Y: 2}
	assert.Equal(t, 2.0, Area(a, b, c))
	assert.Equal(t, -2.0, Area(a, c, b))

	assert.True(t, Left(a, b, r2.Vec{X: 1, Y: 1}, 1e-9))
	assert.False(t, Left(a, b, r2.Vec{X: 1, Y: -1}, 1e-9))
	assert.False(t, Left(a, b, r2.Vec{X: 5}, 1e-9), "collinear")
	assert.False(t, Left(a, b, r2.Vec{X: 1, Y: 1e-6}, 1e-3), "within tolerance")

	tri := [3]r2.Vec{a, b, c}
	for _, test := range []struct {
		pt   r2.Vec
		want bool
	}{
		{r2.Vec{X: 0.5, Y: 0.5}, true},
		{r2.Vec{X: 1.9, Y: 0.05}, true},
		{r2.Vec{X: 1, Y: 1}, false}, // on the hypotenuse
		{r2.Vec{X: 1}, false},
		{r2.Vec{}, false},
		{r2.Vec{X: 2, Y: 2}, false},
		{r2.Vec{X: -0.5, Y: 0.5}, false},
	} {
		assert.Equal(t, test.want, InTriangle(test.pt, tri, 1e-9), "%v", test.pt)
	}
	// Clockwise triangles contain nothing.
	assert.False(t, InTriangle(r2.Vec{X: 0.5, Y: 0.5}, [3]r2.Vec{a, c, b}, 1e-9))
}

func TestBox(t *testing.T) {
	b := EmptyBox()
	for _, v := range []r2.Vec{{X: 1, Y: -2}, {X: -3, Y: 4}, {X: 0, Y: 0}} {
		b = b.Include(v)
	}
	assert.Equal(t, r2.Vec{X: -3, Y: -2}, b.Min)
	assert.Equal(t, r2.Vec{X: 1, Y: 4}, b.Max)
}
