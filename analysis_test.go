package meshy_test

import (
	"math"
	"testing"

	"github.com/soypat/meshy"
	"github.com/soypat/meshy/octree"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gonum.org/v1/gonum/spatial/r3"
)

// step is a unit cube next to a 2x2x1 block, asymmetric in X and Y.
func step() *meshy.Mesh {
	return meshy.Merge(
		meshy.NewCuboid(r3.Vec{}, r3.Vec{X: 1, Y: 1, Z: 1}),
		meshy.NewCuboid(r3.Vec{X: 1}, r3.Vec{X: 3, Y: 2, Z: 1}),
	)
}

func assertVecNear(t *testing.T, want, got r3.Vec, tol float64) {
	t.Helper()
	assert.InDelta(t, want.X, got.X, tol, "X of %v", got)
	assert.InDelta(t, want.Y, got.Y, tol, "Y of %v", got)
	assert.InDelta(t, want.Z, got.Z, tol, "Z of %v", got)
}

func TestCenterOfMass(t *testing.T) {
	c, ok := meshy.NewCuboid(r3.Vec{}, r3.Vec{X: 2, Y: 4, Z: 6}).CenterOfMass()
	require.True(t, ok)
	assertVecNear(t, r3.Vec{X: 1, Y: 2, Z: 3}, c, 1e-12)

	c, ok = step().CenterOfMass()
	require.True(t, ok)
	assertVecNear(t, r3.Vec{X: 1.7, Y: 0.9, Z: 0.5}, c, 1e-12)

	_, ok = (&meshy.Mesh{}).CenterOfMass()
	assert.False(t, ok)
}

func TestCrossSection(t *testing.T) {
	cube := meshy.NewCuboid(r3.Vec{}, r3.Vec{X: 10, Y: 10, Z: 10})
	s := cube.CrossSection(meshy.Z, 5)
	assert.Len(t, s.Segments, 8)
	assert.InDelta(t, 100, s.Area, 1e-9)
	assert.InDelta(t, 40, s.Perimeter, 1e-9)
	assertVecNear(t, r3.Vec{Z: 5}, s.Bounds.Min, 1e-12)
	assertVecNear(t, r3.Vec{X: 10, Y: 10, Z: 5}, s.Bounds.Max, 1e-12)
	// Solid to the left of every segment seen from above.
	for _, seg := range s.Segments {
		mid := r3.Scale(0.5, r3.Add(seg[0], seg[1]))
		left := r3.Cross(r3.Vec{Z: 1}, r3.Sub(seg[1], seg[0]))
		inward := r3.Sub(r3.Vec{X: 5, Y: 5, Z: 5}, mid)
		assert.Greater(t, r3.Dot(left, inward), 0.0, "segment %v", seg)
	}

	s = meshy.NewCuboid(r3.Vec{}, r3.Vec{X: 2, Y: 4, Z: 6}).CrossSection(meshy.X, 1)
	assert.InDelta(t, 24, s.Area, 1e-9)
	assert.InDelta(t, 20, s.Perimeter, 1e-9)

	s = step().CrossSection(meshy.Z, 0.25)
	assert.InDelta(t, 5, s.Area, 1e-9)

	s = cube.CrossSection(meshy.Z, 11)
	assert.Empty(t, s.Segments)
	assert.Zero(t, s.Area)
}

func TestMirror(t *testing.T) {
	m := step()
	mx := m.Mirror(meshy.X)
	assert.InDelta(t, 5, mx.Volume(), 1e-9, "mirroring keeps the mesh outside out")
	bb, bbx := m.Bounds(), mx.Bounds()
	assertVecNear(t, bb.Min, bbx.Min, 1e-12)
	assertVecNear(t, bb.Max, bbx.Max, 1e-12)
	c, ok := mx.CenterOfMass()
	require.True(t, ok)
	assertVecNear(t, r3.Vec{X: 1.3, Y: 0.9, Z: 0.5}, c, 1e-12)
	s := mx.CrossSection(meshy.Z, 0.5)
	assert.InDelta(t, 5, s.Area, 1e-9)

	back := meshy.Merge(mx.Mirror(meshy.X))
	for i, v := range back.Vertices {
		assertVecNear(t, m.Vertices[i], v, 1e-12)
	}
	assert.Equal(t, m.Faces, back.Faces)

	flipped := m.FlipNormals()
	assert.InDelta(t, -5, flipped.Volume(), 1e-9)
	assert.InDelta(t, 5, flipped.FlipNormals().Volume(), 1e-9)
	assert.Equal(t, m.Faces[0], step().Faces[0], "source faces untouched")
}

func TestRotate(t *testing.T) {
	m := meshy.NewCuboid(r3.Vec{}, r3.Vec{X: 2, Y: 4, Z: 6})
	m.Normals = m.WorldNormals()
	rot := m.Rotate(meshy.Z, math.Pi/2)
	bb := rot.Bounds()
	assertVecNear(t, r3.Vec{X: -1, Y: 1}, bb.Min, 1e-12)
	assertVecNear(t, r3.Vec{X: 3, Y: 3, Z: 6}, bb.Max, 1e-12)
	assert.InDelta(t, 48, rot.Volume(), 1e-9)
	c, ok := rot.CenterOfMass()
	require.True(t, ok)
	assertVecNear(t, r3.Vec{X: 1, Y: 2, Z: 3}, c, 1e-12)
	// Stored normals turn with the mesh.
	for i := range rot.Faces {
		assertVecNear(t, r3.Unit(rot.Triangle(i).Normal()), rot.FaceNormal(i), 1e-12)
	}
	assert.Same(t, &m.Faces[0], &rot.Faces[0])
}

func TestThickness(t *testing.T) {
	slab := meshy.NewCuboid(r3.Vec{}, r3.Vec{X: 10, Y: 10, Z: 0.5})
	thin := slab.Thickness(octree.New(slab), 1)
	require.Len(t, thin, 4)
	for k, tf := range thin {
		// Faces 8 to 11 are the bottom and top of the cuboid.
		assert.Equal(t, 8+k, tf.Face)
		assert.InDelta(t, 0.5, tf.Thickness, 1e-9)
	}
	assert.Empty(t, slab.Thickness(octree.New(slab), 0.4))

	mirrored := slab.Mirror(meshy.Z)
	assert.Len(t, mirrored.Thickness(octree.New(mirrored), 1), 4)

	// An open mesh lets rays escape.
	open := meshy.NewCuboid(r3.Vec{}, r3.Vec{X: 10, Y: 10, Z: 0.5})
	open.Faces = open.Faces[:10]
	assert.Empty(t, open.Thickness(octree.New(open), 1))
}
