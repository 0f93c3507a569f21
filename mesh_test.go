package meshy

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gonum.org/v1/gonum/spatial/r2"
	"gonum.org/v1/gonum/spatial/r3"
	"gopkg.in/yaml.v2"
)

func TestCuboid(t *testing.T) {
	m := NewCuboid(r3.Vec{}, r3.Vec{X: 1, Y: 2, Z: 3})
	assert.InDelta(t, 6.0, m.Volume(), 1e-12)
	assert.InDelta(t, 2*(2+3+6), m.Area(), 1e-12)
	bb := m.Bounds()
	assert.Equal(t, r3.Vec{X: 1, Y: 2, Z: 3}, bb.Max)
	for i := range m.Faces {
		n := m.FaceNormal(i)
		c := m.Triangle(i).Centroid()
		// Normals point away from the center.
		assert.Greater(t, r3.Dot(n, r3.Sub(c, r3.Vec{X: .5, Y: 1, Z: 1.5})), 0.0, "face %d", i)
	}
}

func TestMeshTransform(t *testing.T) {
	m := NewCuboid(r3.Vec{}, r3.Vec{X: 1, Y: 1, Z: 1})
	m.Transform = m.Transform.Translate(r3.Vec{Z: 10})
	bb := m.Bounds()
	assert.InDelta(t, 10, bb.Min.Z, 1e-12)
	assert.InDelta(t, 11, bb.Max.Z, 1e-12)
	// Scaling changes world volume and keeps normals unit length.
	m.Transform = m.Transform.Scale(r3.Vec{}, r3.Vec{X: 2, Y: 2, Z: 2})
	assert.InDelta(t, 8, m.Volume(), 1e-9)
	m.Normals = make([]r3.Vec, len(m.Faces))
	for i := range m.Faces {
		tri := r3.Triangle{m.Vertices[m.Faces[i][0]], m.Vertices[m.Faces[i][1]], m.Vertices[m.Faces[i][2]]}
		m.Normals[i] = r3.Unit(tri.Normal())
	}
	for i := range m.Faces {
		assert.InDelta(t, 1, r3.Norm(m.FaceNormal(i)), 1e-12)
	}
	merged := Merge(m, nil, NewCuboid(r3.Vec{X: 5}, r3.Vec{X: 6, Y: 1, Z: 1}))
	assert.Len(t, merged.Faces, 24)
	assert.InDelta(t, 9, merged.Volume(), 1e-9)
}

func TestFromTriangles(t *testing.T) {
	cube := NewCuboid(r3.Vec{}, r3.Vec{X: 1, Y: 1, Z: 1})
	soup := cube.Triangles()
	// Perturb vertices below tolerance.
	soup[3][0] = r3.Add(soup[3][0], r3.Vec{X: 1e-7})
	m := FromTriangles(soup, 1e-4)
	assert.Len(t, m.Vertices, 8)
	assert.Len(t, m.Faces, 12)
	assert.InDelta(t, 1, m.Volume(), 1e-6)

	// Degenerate triangle collapses.
	soup = append(soup, r3.Triangle{{}, {X: 1e-9}, {Y: 1}})
	m = FromTriangles(soup, 1e-4)
	assert.Len(t, m.Faces, 12)
}

func TestAxis(t *testing.T) {
	v := r3.Vec{X: 1, Y: 2, Z: 3}
	for _, ax := range []Axis{X, Y, Z} {
		p := ax.Project(v)
		got := ax.Unproject(p, ax.Get(v))
		assert.Equal(t, v, got, ax.String())
	}
	assert.Equal(t, r2.Vec{X: 1, Y: 2}, Z.Project(v))
	assert.Equal(t, r2.Vec{X: 2, Y: 3}, X.Project(v))
	assert.Equal(t, r2.Vec{X: 3, Y: 1}, Y.Project(v))

	var cfg struct {
		Axis Axis `yaml:"axis"`
	}
	require.NoError(t, yaml.Unmarshal([]byte("axis: y\n"), &cfg))
	assert.Equal(t, Y, cfg.Axis)
	assert.Error(t, yaml.Unmarshal([]byte("axis: w\n"), &cfg))
	cfg.Axis = Z
	b, err := yaml.Marshal(cfg)
	require.NoError(t, err)
	cfg.Axis = X
	require.NoError(t, yaml.Unmarshal(b, &cfg))
	assert.Equal(t, Z, cfg.Axis)
}

func TestUtils(t *testing.T) {
	assert.Equal(t, 0.0, Acos(1+1e-12))
	assert.InDelta(t, math.Pi, Acos(-1-1e-12), 1e-15)
	assert.InDelta(t, math.Pi/4, DtoR(45), 1e-15)
	assert.Equal(t, 2, Clampi(7, -2, 2))
	q := QuantizeV3(r3.Vec{X: 0.10004, Y: -0.2, Z: 0}, 1e-3)
	assert.Equal(t, V3i{100, -200, 0}, q)
}
