// Package octree implements a triangle octree with parametric ray traversal
// used to find the nearest surface crossed by a ray.
package octree

import (
	"math"

	"github.com/soypat/meshy"
	"github.com/soypat/meshy/internal/d3"
	"gonum.org/v1/gonum/spatial/r3"
)

// overflow enlarges the root cell so the mesh lies strictly inside it.
const overflow = 1e-5

// Octree is a spatial index over the world space triangles of a mesh.
// It is immutable after New and safe for concurrent queries.
type Octree struct {
	nodes   []node
	tris    []r3.Triangle
	normals []r3.Vec
	origin  r3.Vec
	size    float64
	depth   int
}

// node is an octree cell. Cells at depth zero are leaves and hold face
// indices. Children are referenced by index into the node arena, -1 marks
// an empty octant. Octant i has bit 0 set for +x, bit 1 for +y and bit 2
// for +z.
type node struct {
	origin   r3.Vec
	size     float64
	depth    int
	children [8]int32
	faces    []int
}

// Hit is the result of a successful ray query.
type Hit = meshy.Hit

// New builds an octree over the faces of m in world space. A nil or empty
// mesh yields an octree without a root whose queries never hit.
func New(m *meshy.Mesh) *Octree {
	nf := m.NumFaces()
	if nf == 0 {
		return &Octree{}
	}
	o := &Octree{
		tris:    m.Triangles(),
		normals: m.WorldNormals(),
	}
	bb := d3.EmptyBox()
	for _, t := range o.tris {
		bb = bb.Include(t[0]).Include(t[1]).Include(t[2])
	}
	o.origin = r3.Sub(bb.Min, d3.Elem(overflow/2))
	o.size = d3.Max(bb.Size()) + overflow
	// Aim for a handful of faces per leaf.
	o.depth = int(math.Round(math.Log(float64(nf)) * 0.6))
	o.nodes = append(o.nodes, newNode(o.origin, o.size, o.depth))
	for i := range o.tris {
		o.addFace(0, i)
	}
	meshy.Logger().Debug("octree built", "faces", nf, "depth", o.depth, "nodes", len(o.nodes))
	return o
}

func newNode(origin r3.Vec, size float64, depth int) node {
	n := node{origin: origin, size: size, depth: depth}
	for i := range n.children {
		n.children[i] = -1
	}
	return n
}

func (o *Octree) addFace(ni int, fi int) {
	if o.nodes[ni].depth == 0 {
		o.nodes[ni].faces = append(o.nodes[ni].faces, fi)
		return
	}
	tri, normal := o.tris[fi], o.normals[fi]
	for i := 0; i < 8; i++ {
		child := o.nodes[ni].children[i]
		var co r3.Vec
		var cs float64
		if child < 0 {
			n := &o.nodes[ni]
			cs = n.size / 2
			co = childOrigin(n.origin, cs, i)
		} else {
			co, cs = o.nodes[child].origin, o.nodes[child].size
		}
		if !d3.CubeIntersectsTriangle(co, cs, tri, normal) {
			continue
		}
		if child < 0 {
			child = int32(len(o.nodes))
			o.nodes = append(o.nodes, newNode(co, cs, o.nodes[ni].depth-1))
			o.nodes[ni].children[i] = child
		}
		o.addFace(int(child), fi)
	}
}

func childOrigin(origin r3.Vec, cs float64, i int) r3.Vec {
	return r3.Vec{
		X: origin.X + cs*float64(i&1),
		Y: origin.Y + cs*float64((i>>1)&1),
		Z: origin.Z + cs*float64((i>>2)&1),
	}
}

// Bounds returns the root cell. The zero box is returned for an empty octree.
func (o *Octree) Bounds() r3.Box {
	if len(o.nodes) == 0 {
		return r3.Box{}
	}
	return r3.Box{Min: o.origin, Max: r3.Add(o.origin, d3.Elem(o.size))}
}

// Depth returns the depth of the root cell. Leaves have depth zero.
func (o *Octree) Depth() int { return o.depth }

// NodeCount returns the amount of cells allocated.
func (o *Octree) NodeCount() int { return len(o.nodes) }

// ForEachLeaf calls fn with the bounds and face indices of every leaf cell.
// fn must not modify faces.
func (o *Octree) ForEachLeaf(fn func(cell r3.Box, faces []int)) {
	for i := range o.nodes {
		n := &o.nodes[i]
		if n.depth == 0 {
			fn(r3.Box{Min: n.origin, Max: r3.Add(n.origin, d3.Elem(n.size))}, n.faces)
		}
	}
}
