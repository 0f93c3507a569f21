// Package repair closes holes in triangle meshes.
//
// Holes are found as loops of edges whose faces do not balance, that is,
// edges traversed a different amount of times in each direction. Each loop
// is filled with an advancing front triangulation and the vertices it adds
// are relaxed with Laplacian smoothing.
package repair

import (
	"context"

	"github.com/soypat/meshy"
	"gonum.org/v1/gonum/spatial/r3"
)

// DefaultPrecision is the vertex welding tolerance used when a non-positive
// precision is passed.
const DefaultPrecision = 1e-5

// Patch returns the triangles that close the holes of m, wound to match the
// faces around each hole. Vertices of m closer than precision are treated
// as one. Patch returns nil when m has no holes or none could be filled.
// The result is meant to be merged with m by the caller.
func Patch(m *meshy.Mesh, precision float64) *meshy.Mesh {
	p, _ := PatchContext(context.Background(), m, precision)
	return p
}

// PatchContext is like Patch but stops between holes when ctx is done, in
// which case it returns the context's error.
func PatchContext(ctx context.Context, m *meshy.Mesh, precision float64) (*meshy.Mesh, error) {
	if m.NumFaces() == 0 {
		return nil, nil
	}
	if precision <= 0 {
		precision = DefaultPrecision
	}
	adj := newAdjacency(m.Triangles(), m.WorldNormals(), precision)
	if adj.boundaryEdges() == 0 {
		return nil, nil
	}
	cycles := adj.cycles()
	var (
		tris    []r3.Triangle
		aborted int
	)
	for _, c := range cycles {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		rim := make([]r3.Vec, len(c))
		normals := make([]r3.Vec, len(c))
		for i, vi := range c {
			rim[i] = adj.verts[vi].v
			normals[i] = unitOr(adj.verts[vi].normal, r3.Vec{})
		}
		p, ok := fillHole(rim, normals)
		if !ok {
			aborted++
			meshy.Logger().Debug("repair: hole not closed", "rim", len(c))
			continue
		}
		for _, f := range p.faces {
			tris = append(tris, r3.Triangle{p.verts[f[0]], p.verts[f[1]], p.verts[f[2]]})
		}
	}
	meshy.Logger().Debug("repair: patched", "holes", len(cycles), "aborted", aborted, "faces", len(tris))
	if len(tris) == 0 {
		return nil, nil
	}
	return meshy.FromTriangles(tris, precision), nil
}

// BoundaryEdges returns the amount of edges of m, after welding vertices
// closer than precision, whose faces do not balance. It is zero for closed
// and consistently wound meshes.
func BoundaryEdges(m *meshy.Mesh, precision float64) int {
	if m.NumFaces() == 0 {
		return 0
	}
	if precision <= 0 {
		precision = DefaultPrecision
	}
	return newAdjacency(m.Triangles(), nil, precision).boundaryEdges()
}
