package repair

import (
	"context"
	"math"
	"testing"

	"github.com/soypat/meshy"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gonum.org/v1/gonum/spatial/r3"
)

// gridCube returns a closed cube of side n with every face split into an
// n by n grid of unit cells. Cells for which skip returns true are left
// out. sign is -1 for the face at the origin and +1 for the far face.
func gridCube(n int, skip func(a meshy.Axis, sign, i, j int) bool) *meshy.Mesh {
	var tris []r3.Triangle
	for _, a := range []meshy.Axis{meshy.X, meshy.Y, meshy.Z} {
		u, w := a.Next(), a.Next().Next()
		for _, sign := range []int{-1, 1} {
			c := 0.0
			if sign > 0 {
				c = float64(n)
			}
			at := func(i, j int) r3.Vec {
				var p r3.Vec
				p = a.Set(p, c)
				p = u.Set(p, float64(i))
				return w.Set(p, float64(j))
			}
			for i := 0; i < n; i++ {
				for j := 0; j < n; j++ {
					if skip != nil && skip(a, sign, i, j) {
						continue
					}
					p00, p10, p11, p01 := at(i, j), at(i+1, j), at(i+1, j+1), at(i, j+1)
					if sign > 0 {
						tris = append(tris, r3.Triangle{p00, p10, p11}, r3.Triangle{p00, p11, p01})
					} else {
						tris = append(tris, r3.Triangle{p00, p11, p10}, r3.Triangle{p00, p01, p11})
					}
				}
			}
		}
	}
	return meshy.FromTriangles(tris, 1e-6)
}

// assertClosed checks that every directed edge of m is used once and its
// reverse is used once too.
func assertClosed(t *testing.T, m *meshy.Mesh) {
	t.Helper()
	welded := meshy.FromTriangles(m.Triangles(), DefaultPrecision)
	edges := make(map[[2]int]int)
	for _, f := range welded.Faces {
		for k := 0; k < 3; k++ {
			edges[[2]int{f[k], f[(k+1)%3]}]++
		}
	}
	for e, c := range edges {
		assert.Equal(t, 1, c, "edge %v", e)
		assert.Equal(t, 1, edges[[2]int{e[1], e[0]}], "edge %v has no twin", e)
	}
}

func TestWatertight(t *testing.T) {
	m := meshy.NewCuboid(r3.Vec{}, r3.Vec{X: 1, Y: 1, Z: 1})
	assert.Zero(t, BoundaryEdges(m, 0))
	assert.Nil(t, Patch(m, 0))
	assert.Nil(t, Patch(&meshy.Mesh{}, 0))
	assert.Zero(t, BoundaryEdges(gridCube(3, nil), 0))
	assert.Nil(t, Patch(gridCube(3, nil), 0))
}

func TestPatchMissingFace(t *testing.T) {
	m := meshy.NewCuboid(r3.Vec{}, r3.Vec{X: 1, Y: 1, Z: 1})
	m.Faces = m.Faces[:10] // drop +Z
	require.Equal(t, 4, BoundaryEdges(m, 0))

	patch := Patch(m, 0)
	require.NotNil(t, patch)
	assert.Len(t, patch.Faces, 2)
	for _, v := range patch.Vertices {
		assert.Equal(t, 1.0, v.Z)
	}
	for i := range patch.Faces {
		assert.InDelta(t, 1, patch.FaceNormal(i).Z, 1e-12)
	}
	merged := meshy.Merge(m, patch)
	assert.Zero(t, BoundaryEdges(merged, 0))
	assertClosed(t, merged)
	assert.InDelta(t, 1, merged.Volume(), 1e-9)
}

func TestPatchHoles(t *testing.T) {
	top := func(a meshy.Axis, sign int) bool { return a == meshy.Z && sign > 0 }
	for _, test := range []struct {
		name   string
		n      int
		skip   func(a meshy.Axis, sign, i, j int) bool
		border int
		planar bool
	}{
		{
			name: "center",
			n:    4,
			skip: func(a meshy.Axis, sign, i, j int) bool {
				return top(a, sign) && i >= 1 && i <= 2 && j >= 1 && j <= 2
			},
			border: 8,
			planar: true,
		},
		{
			name:   "whole face",
			n:      4,
			skip:   func(a meshy.Axis, sign, i, j int) bool { return top(a, sign) },
			border: 16,
			planar: true,
		},
		{
			name: "wide",
			n:    6,
			skip: func(a meshy.Axis, sign, i, j int) bool {
				return top(a, sign) && i >= 1 && i <= 4 && j >= 1 && j <= 4
			},
			border: 16,
			planar: true,
		},
		{
			name: "two holes",
			n:    4,
			skip: func(a meshy.Axis, sign, i, j int) bool {
				return (top(a, sign) && i == 1 && j == 1) ||
					(a == meshy.Y && sign < 0 && i >= 1 && i <= 2 && j >= 1 && j <= 2)
			},
			border: 12,
			planar: true,
		},
		{
			name: "shared vertex",
			n:    4,
			skip: func(a meshy.Axis, sign, i, j int) bool {
				return top(a, sign) && ((i == 1 && j == 1) || (i == 2 && j == 2))
			},
			border: 8,
			planar: true,
		},
		{
			name: "across edge",
			n:    6,
			skip: func(a meshy.Axis, sign, i, j int) bool {
				return sign > 0 && ((a == meshy.Z && i >= 4 && j >= 1 && j <= 4) ||
					(a == meshy.X && i >= 1 && i <= 4 && j >= 4))
			},
			border: 16,
		},
	} {
		t.Run(test.name, func(t *testing.T) {
			m := gridCube(test.n, test.skip)
			require.Equal(t, test.border, BoundaryEdges(m, 0))
			patch := Patch(m, 0)
			require.NotNil(t, patch)
			for _, v := range patch.Vertices {
				require.False(t, math.IsNaN(v.X) || math.IsNaN(v.Y) || math.IsNaN(v.Z))
			}
			merged := meshy.Merge(m, patch)
			assert.Zero(t, BoundaryEdges(merged, 0))
			assertClosed(t, merged)
			vol := merged.Volume()
			assert.Greater(t, vol, 0.0)
			if test.planar {
				full := float64(test.n * test.n * test.n)
				assert.InDelta(t, full, vol, 1e-6)
			}
		})
	}
}

func TestCycleDirection(t *testing.T) {
	m := meshy.NewCuboid(r3.Vec{}, r3.Vec{X: 1, Y: 1, Z: 1})
	m.Faces = m.Faces[:10]
	adj := newAdjacency(m.Triangles(), nil, DefaultPrecision)
	cycles := adj.cycles()
	require.Len(t, cycles, 1)
	c := cycles[0]
	require.Len(t, c, 4)
	// Consecutive rim vertices follow an edge of some face in order.
	faceEdges := make(map[[2]r3.Vec]bool)
	for _, tri := range m.Triangles() {
		for k := 0; k < 3; k++ {
			faceEdges[[2]r3.Vec{tri[k], tri[(k+1)%3]}] = true
		}
	}
	for i := range c {
		a, b := adj.verts[c[i]].v, adj.verts[c[(i+1)%len(c)]].v
		assert.True(t, faceEdges[[2]r3.Vec{a, b}], "rim edge %v-%v", a, b)
	}
}

func TestFillTriangle(t *testing.T) {
	rim := []r3.Vec{{}, {X: 1}, {Y: 1}}
	p, ok := fillHole(rim, []r3.Vec{{Z: 1}, {Z: 1}, {Z: 1}})
	require.True(t, ok)
	assert.Equal(t, [][3]int{{0, 2, 1}}, p.faces)
	_, ok = fillHole(rim[:2], nil)
	assert.False(t, ok)
}

func TestPatchContext(t *testing.T) {
	m := gridCube(4, func(a meshy.Axis, sign, i, j int) bool {
		return a == meshy.Z && sign > 0 && i == 1 && j == 1
	})
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := PatchContext(ctx, m, 0)
	assert.ErrorIs(t, err, context.Canceled)
}
