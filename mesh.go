package meshy

import (
	"math"

	"github.com/soypat/meshy/internal/d3"
	"gonum.org/v1/gonum/spatial/r3"
)

// Transform is an affine transformation. Its zero value is the identity.
// Transforms with a negative determinant mirror the mesh; Mesh accounts for
// the flipped winding.
type Transform = d3.Transform

// Mesh is an indexed triangle mesh. Faces index into Vertices and wind
// counter clockwise when seen from outside. Normals, when not nil, hold one
// normal per face in local space. Vertices are in local space and Transform
// places them in world space.
//
// Mesh is read-only to every algorithm in this module.
type Mesh struct {
	Vertices  []r3.Vec
	Faces     [][3]int
	Normals   []r3.Vec
	Transform Transform
}

// NumFaces returns the amount of triangles in the mesh. It is safe to call
// on a nil Mesh.
func (m *Mesh) NumFaces() int {
	if m == nil {
		return 0
	}
	return len(m.Faces)
}

// WorldVertices returns the vertices with Transform applied.
func (m *Mesh) WorldVertices() []r3.Vec {
	out := make([]r3.Vec, len(m.Vertices))
	if m.Transform.IsIdentity() {
		copy(out, m.Vertices)
		return out
	}
	for i, v := range m.Vertices {
		out[i] = m.Transform.Transform(v)
	}
	return out
}

// Triangle returns the i'th face in world space, wound counter clockwise
// seen from outside.
func (m *Mesh) Triangle(i int) r3.Triangle {
	f := m.worldFace(i)
	return r3.Triangle{
		m.Transform.Transform(m.Vertices[f[0]]),
		m.Transform.Transform(m.Vertices[f[1]]),
		m.Transform.Transform(m.Vertices[f[2]]),
	}
}

// worldFace returns the vertex indices of face i in world winding order.
func (m *Mesh) worldFace(i int) [3]int {
	f := m.Faces[i]
	if !m.Transform.IsIdentity() && m.Transform.Det() < 0 {
		f[1], f[2] = f[2], f[1]
	}
	return f
}

// FaceNormal returns the unit world space normal of the i'th face. Stored
// normals are used when present, else the normal is computed from the
// world space triangle. Degenerate faces have a zero normal.
func (m *Mesh) FaceNormal(i int) r3.Vec {
	if m.Normals != nil {
		return m.Transform.Normal(m.Normals[i])
	}
	return d3.Normal(m.Triangle(i))
}

// WorldNormals returns FaceNormal for every face.
func (m *Mesh) WorldNormals() []r3.Vec {
	out := make([]r3.Vec, len(m.Faces))
	for i := range m.Faces {
		out[i] = m.FaceNormal(i)
	}
	return out
}

// Bounds returns the world space axis aligned bounding box of the
// referenced vertices. An empty mesh has an empty box.
func (m *Mesh) Bounds() r3.Box {
	bb := d3.EmptyBox()
	for _, f := range m.Faces {
		for _, vi := range f {
			bb = bb.Include(m.Transform.Transform(m.Vertices[vi]))
		}
	}
	return r3.Box(bb)
}

// Volume returns the signed volume enclosed by the mesh in world space.
// It is only meaningful for closed meshes.
func (m *Mesh) Volume() float64 {
	var vol float64
	for i := range m.Faces {
		t := m.Triangle(i)
		vol += r3.Dot(t[0], r3.Cross(t[1], t[2]))
	}
	return vol / 6
}

// Area returns the world space surface area.
func (m *Mesh) Area() float64 {
	var area float64
	for i := range m.Faces {
		area += m.Triangle(i).Area()
	}
	return area
}

// Mirror returns a copy of m reflected across the plane normal to a through
// the center of its bounds. An empty mesh is returned unchanged. The copy
// shares vertex and face storage with m.
func (m *Mesh) Mirror(a Axis) *Mesh {
	out := *m
	if m.NumFaces() > 0 {
		out.Transform = m.Transform.Mirror(d3.Box(m.Bounds()).Center(), int(a))
	}
	return &out
}

// Rotate returns a copy of m turned by angle radians about the line along a
// through the center of its bounds. The copy shares vertex and face storage
// with m.
func (m *Mesh) Rotate(a Axis, angle float64) *Mesh {
	out := *m
	if m.NumFaces() > 0 {
		out.Transform = m.Transform.Rotate(d3.Box(m.Bounds()).Center(), int(a), angle)
	}
	return &out
}

// FlipNormals returns a copy of m with every face turned inside out.
func (m *Mesh) FlipNormals() *Mesh {
	out := &Mesh{Vertices: m.Vertices, Transform: m.Transform}
	out.Faces = make([][3]int, len(m.Faces))
	for i, f := range m.Faces {
		out.Faces[i] = [3]int{f[0], f[2], f[1]}
	}
	if m.Normals != nil {
		out.Normals = make([]r3.Vec, len(m.Normals))
		for i, n := range m.Normals {
			out.Normals[i] = r3.Scale(-1, n)
		}
	}
	return out
}

// Merge concatenates meshes into a new mesh with the identity transform.
// Each input is baked into world space. Normals are recomputed. Nil meshes
// are skipped.
func Merge(meshes ...*Mesh) *Mesh {
	out := &Mesh{}
	for _, m := range meshes {
		if m == nil {
			continue
		}
		offset := len(out.Vertices)
		out.Vertices = append(out.Vertices, m.WorldVertices()...)
		for i := range m.Faces {
			f := m.worldFace(i)
			out.Faces = append(out.Faces, [3]int{f[0] + offset, f[1] + offset, f[2] + offset})
		}
	}
	return out
}

// FromTriangles welds a triangle soup into an indexed mesh. Vertices that
// quantize to the same multiple of tol are shared. If tol is zero it is
// inferred from the shortest edge. Triangles that collapse after welding
// are dropped.
func FromTriangles(tris []r3.Triangle, tol float64) *Mesh {
	if tol <= 0 {
		minDist2 := math.Inf(1)
		for _, t := range tris {
			for j := range t {
				d2 := r3.Norm2(r3.Sub(t[(j+1)%3], t[j]))
				if d2 > 0 {
					minDist2 = math.Min(minDist2, d2)
				}
			}
		}
		tol = 1e-9
		if !math.IsInf(minDist2, 1) {
			tol = math.Sqrt(minDist2) / 256
		}
	}
	m := &Mesh{Faces: make([][3]int, 0, len(tris))}
	// vertex index cache
	cache := make(map[V3i]int)
	for _, t := range tris {
		var face [3]int
		for j, vert := range t {
			key := QuantizeV3(vert, tol)
			idx, ok := cache[key]
			if !ok {
				idx = len(m.Vertices)
				cache[key] = idx
				m.Vertices = append(m.Vertices, vert)
			}
			face[j] = idx
		}
		if face[0] == face[1] || face[1] == face[2] || face[2] == face[0] {
			continue
		}
		m.Faces = append(m.Faces, face)
	}
	return m
}

// Triangles returns all faces in world space.
func (m *Mesh) Triangles() []r3.Triangle {
	out := make([]r3.Triangle, len(m.Faces))
	for i := range m.Faces {
		out[i] = m.Triangle(i)
	}
	return out
}

// NewCuboid returns a closed axis aligned box mesh spanning min to max with
// outward facing triangles.
func NewCuboid(min, max r3.Vec) *Mesh {
	bb := d3.Box{Min: min, Max: max}
	return &Mesh{
		Vertices: bb.Vertices(),
		// Vertex i has bit 2 set for max X, bit 1 for max Y, bit 0 for max Z.
		Faces: [][3]int{
			{0, 1, 3}, {0, 3, 2}, // -X
			{4, 6, 7}, {4, 7, 5}, // +X
			{0, 4, 5}, {0, 5, 1}, // -Y
			{2, 3, 7}, {2, 7, 6}, // +Y
			{0, 2, 6}, {0, 6, 4}, // -Z
			{1, 5, 7}, {1, 7, 3}, // +Z
		},
	}
}
