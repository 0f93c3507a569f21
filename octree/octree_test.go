package octree

import (
	"math"
	"math/rand"
	"testing"

	"github.com/deadsy/sdfx/render"
	"github.com/deadsy/sdfx/sdf"
	"github.com/soypat/meshy"
	"github.com/soypat/meshy/internal/d3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gonum.org/v1/gonum/spatial/r3"
)

func sphereMesh(t testing.TB, radius float64, cells int) *meshy.Mesh {
	t.Helper()
	s, err := sdf.Sphere3D(radius)
	require.NoError(t, err)
	tris := render.ToTriangles(s, render.NewMarchingCubesUniform(cells))
	soup := make([]r3.Triangle, 0, len(tris))
	for _, tri := range tris {
		var rt r3.Triangle
		for j := 0; j < 3; j++ {
			rt[j] = r3.Vec{X: tri[j].X, Y: tri[j].Y, Z: tri[j].Z}
		}
		soup = append(soup, rt)
	}
	m := meshy.FromTriangles(soup, radius*1e-6)
	require.NotZero(t, m.NumFaces())
	return m
}

// bruteForce is the reference nearest hit over every face.
func bruteForce(m *meshy.Mesh, p, dir r3.Vec, kind castKind) (Hit, bool) {
	d := r3.Unit(dir)
	var best Hit
	found := false
	for i := range m.Faces {
		dot := r3.Dot(m.FaceNormal(i), d)
		if (kind == internal && dot <= 0) || (kind == external && dot >= 0) {
			continue
		}
		t, ok := d3.RayTriangle(p, d, m.Triangle(i))
		if ok && (!found || t < best.Distance) {
			best = Hit{Point: r3.Add(p, r3.Scale(t, d)), Distance: t, Face: i}
			found = true
		}
	}
	return best, found
}

func TestEmpty(t *testing.T) {
	for _, m := range []*meshy.Mesh{nil, {}} {
		o := New(m)
		_, ok := o.Raycast(r3.Vec{}, r3.Vec{Z: 1})
		assert.False(t, ok)
		_, ok = o.RaycastInternal(r3.Vec{}, r3.Vec{Z: 1})
		assert.False(t, ok)
		assert.Equal(t, 0, o.NodeCount())
	}
}

func TestCubeRaycast(t *testing.T) {
	m := meshy.NewCuboid(r3.Vec{}, r3.Vec{X: 1, Y: 1, Z: 1})
	o := New(m)
	hit, ok := o.Raycast(r3.Vec{X: .3, Y: .6, Z: -1}, r3.Vec{Z: 2})
	require.True(t, ok)
	assert.InDelta(t, 1, hit.Distance, 1e-12)
	assert.InDelta(t, 0, hit.Point.Z, 1e-12)
	assert.Less(t, m.FaceNormal(hit.Face).Z, 0.0)

	hit, ok = o.RaycastInternal(r3.Vec{X: .3, Y: .6, Z: .5}, r3.Vec{Z: 1})
	require.True(t, ok)
	assert.InDelta(t, .5, hit.Distance, 1e-12)
	assert.Greater(t, m.FaceNormal(hit.Face).Z, 0.0)

	// From inside, an external cast finds nothing.
	_, ok = o.Raycast(r3.Vec{X: .3, Y: .6, Z: .5}, r3.Vec{Z: 1})
	assert.False(t, ok)
	// Pointing away.
	_, ok = o.Raycast(r3.Vec{X: .3, Y: .6, Z: -1}, r3.Vec{Z: -1})
	assert.False(t, ok)
	// Zero direction.
	_, ok = o.Raycast(r3.Vec{X: .3, Y: .6, Z: -1}, r3.Vec{})
	assert.False(t, ok)
}

func TestSphereAgainstBruteForce(t *testing.T) {
	const radius = 10
	m := sphereMesh(t, radius, 24)
	o := New(m)
	assert.Greater(t, o.Depth(), 0)

	// Every face must be registered in at least one leaf.
	registered := make([]bool, m.NumFaces())
	o.ForEachLeaf(func(cell r3.Box, faces []int) {
		for _, f := range faces {
			registered[f] = true
		}
	})
	for i, ok := range registered {
		require.True(t, ok, "face %d not in any leaf", i)
	}

	rng := rand.New(rand.NewSource(1))
	randVec := func(scale float64) r3.Vec {
		return r3.Vec{X: scale * (2*rng.Float64() - 1), Y: scale * (2*rng.Float64() - 1), Z: scale * (2*rng.Float64() - 1)}
	}
	axisDirs := []r3.Vec{{X: 1}, {X: -1}, {Y: 1}, {Y: -1}, {Z: 1}, {Z: -1}}
	for i := 0; i < 400; i++ {
		var p, d r3.Vec
		switch i % 4 {
		case 0: // outside looking in
			p = r3.Scale(2*radius, r3.Unit(randVec(1)))
			d = r3.Sub(randVec(radius/2), p)
		case 1: // inside
			p = randVec(radius / 2)
			d = randVec(1)
		case 2: // axis aligned
			p = randVec(radius * 1.5)
			d = axisDirs[rng.Intn(len(axisDirs))]
		default: // arbitrary
			p = randVec(radius * 2)
			d = randVec(1)
		}
		for _, kind := range []castKind{external, internal} {
			want, wantOK := bruteForce(m, p, d, kind)
			got, gotOK := o.cast(p, d, kind)
			require.Equal(t, wantOK, gotOK, "ray %d kind %d p=%v d=%v", i, kind, p, d)
			if !wantOK {
				continue
			}
			assert.InDelta(t, want.Distance, got.Distance, 1e-6, "ray %d", i)
			assert.InDelta(t, 0, r3.Norm(r3.Sub(want.Point, got.Point)), 1e-6, "ray %d", i)
			// Point lies on the reported face's plane.
			tri := m.Triangle(got.Face)
			n := d3.Normal(tri)
			assert.InDelta(t, 0, r3.Dot(n, r3.Sub(got.Point, tri[0])), 1e-6)
		}
	}
}

func TestDepthHeuristic(t *testing.T) {
	m := sphereMesh(t, 1, 8)
	o := New(m)
	want := int(math.Round(math.Log(float64(m.NumFaces())) * 0.6))
	assert.Equal(t, want, o.Depth())
	bb := o.Bounds()
	mb := m.Bounds()
	assert.True(t, bb.Min.X < mb.Min.X && bb.Max.X > mb.Max.X)
}
