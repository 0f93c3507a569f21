// Package support grows tree shaped support struts under the overhangs of a
// mesh and tessellates them into a printable tube mesh.
//
// The approach follows "Clever Support: Efficient Support Structure
// Generation for Digital Fabrication" by Vanek et al. Instead of searching
// the nearest mesh point on the GPU, rays are cast down and toward the
// candidate joint with an octree.
package support

import (
	"container/heap"
	"context"
	"math"
	"sort"

	"github.com/soypat/meshy"
	"github.com/soypat/meshy/internal/d2"
	"github.com/soypat/meshy/internal/d3"
	"github.com/soypat/meshy/octree"
	"gonum.org/v1/gonum/spatial/r2"
	"gonum.org/v1/gonum/spatial/r3"
)

// Node is a joint or end of a support tree. Branches lie above the node and
// Source below it. Absent references are -1.
type Node struct {
	V      r3.Vec
	Source int
	B0, B1 int
	// Weight is the total strut length carried by the node.
	Weight float64
	// NoTaper is set on roots standing on the build plate.
	NoTaper bool
}

func (n *Node) IsRoot() bool { return n.Source < 0 }
func (n *Node) IsLeaf() bool { return n.B0 < 0 && n.B1 < 0 }

// IsElbow reports whether one strut arrives from above and one leaves below.
func (n *Node) IsElbow() bool { return n.Source >= 0 && (n.B0 < 0) != (n.B1 < 0) }

// IsTJoint reports whether two struts arrive from above and one leaves below.
func (n *Node) IsTJoint() bool { return n.Source >= 0 && n.B0 >= 0 && n.B1 >= 0 }

// Anchor is a sampled point on an overhang.
type Anchor struct {
	Point, Normal r3.Vec
}

// Tree is a forest of support trees stored in one node arena.
type Tree struct {
	Nodes   []Node
	Anchors []Anchor
}

// Roots returns the indices of the nodes without a source.
func (t *Tree) Roots() []int {
	var roots []int
	for i := range t.Nodes {
		if t.Nodes[i].IsRoot() {
			roots = append(roots, i)
		}
	}
	return roots
}

// Leaves returns the indices of the nodes without branches.
func (t *Tree) Leaves() []int {
	var leaves []int
	for i := range t.Nodes {
		if t.Nodes[i].IsLeaf() {
			leaves = append(leaves, i)
		}
	}
	return leaves
}

func (t *Tree) addNode(v r3.Vec, b0, b1 int) int {
	if b0 < 0 {
		b0, b1 = b1, -1
	}
	idx := len(t.Nodes)
	n := Node{V: v, Source: -1, B0: b0, B1: b1}
	for _, b := range [2]int{b0, b1} {
		if b < 0 {
			continue
		}
		t.Nodes[b].Source = idx
		n.Weight += t.Nodes[b].Weight + r3.Norm(r3.Sub(v, t.Nodes[b].V))
	}
	t.Nodes = append(t.Nodes, n)
	return idx
}

// Generator builds supports for one mesh. It may be reused with different
// parameters and is safe for concurrent use.
type Generator struct {
	tris    []r3.Triangle
	normals []r3.Vec
	bounds  r3.Box
	index   *octree.Octree
}

// NewGenerator prepares m for support generation. A nil index is built
// from m.
func NewGenerator(m *meshy.Mesh, index *octree.Octree) *Generator {
	if index == nil {
		index = octree.New(m)
	}
	g := &Generator{index: index}
	if m.NumFaces() == 0 {
		return g
	}
	g.tris = m.Triangles()
	g.normals = m.WorldNormals()
	g.bounds = m.Bounds()
	return g
}

// Generate returns the support mesh for m in world space, or nil when no
// face needs support.
func Generate(ctx context.Context, m *meshy.Mesh, p Params) (*meshy.Mesh, error) {
	return NewGenerator(m, nil).Generate(ctx, p)
}

// Generate grows the support trees and tessellates them. The result is nil
// when nothing needs support. Errors come from invalid parameters or ctx.
func (g *Generator) Generate(ctx context.Context, p Params) (*meshy.Mesh, error) {
	t, err := g.Tree(ctx, p)
	if err != nil {
		return nil, err
	}
	return t.Mesh(p), nil
}

// Tree samples the overhangs of the mesh and greedily joins the samples
// into trees standing on the build plate or on the mesh.
func (g *Generator) Tree(ctx context.Context, p Params) (*Tree, error) {
	if err := p.Validate(); err != nil {
		return nil, err
	}
	t := &Tree{}
	if len(g.tris) == 0 {
		return t, nil
	}
	t.Anchors = g.sampleAnchors(p, g.overhangs(p))
	b := &builder{
		g:     g,
		p:     p,
		t:     t,
		down:  r3.Scale(-1, p.Axis.Unit()),
		cone:  p.coneAngle(),
		index: newActiveIndex(),
		box:   d3.EmptyBox(),
	}
	if err := b.build(ctx); err != nil {
		return nil, err
	}
	meshy.Logger().Debug("support trees", "anchors", len(t.Anchors),
		"nodes", len(t.Nodes), "skipped", b.skipped)
	return t, nil
}

// overhangs returns the faces that point down steeply enough to need
// support and are not resting on the build plate.
func (g *Generator) overhangs(p Params) []int {
	cutoff := math.Cos(meshy.DtoR(p.Angle))
	down := r3.Scale(-1, p.Axis.Unit())
	minFaceMax := p.MinHeight + p.LayerHeight/2
	var faces []int
	for i, tri := range g.tris {
		faceMax := math.Max(p.Axis.Get(tri[0]), math.Max(p.Axis.Get(tri[1]), p.Axis.Get(tri[2])))
		if r3.Dot(down, g.normals[i]) > cutoff && faceMax > minFaceMax {
			faces = append(faces, i)
		}
	}
	return faces
}

// sampleAnchors rasterizes faces on a grid aligned to the mesh bounds and
// projects the grid points inside each face onto its plane.
func (g *Generator) sampleAnchors(p Params, faces []int) []Anchor {
	ah := p.Axis.Next()
	av := ah.Next()
	hmin0, vmin0 := ah.Get(g.bounds.Min), av.Get(g.bounds.Min)
	res := p.Resolution
	var anchors []Anchor
	for _, fi := range faces {
		tri := g.tris[fi]
		n := g.normals[fi]
		bb := d3.EmptyBox().Include(tri[0]).Include(tri[1]).Include(tri[2])
		lo, hi := bb.Min, bb.Max
		// The face points down so it winds clockwise seen from above.
		ccw := [3]r2.Vec{p.Axis.Project(tri[1]), p.Axis.Project(tri[0]), p.Axis.Project(tri[2])}
		i0 := int(math.Floor((ah.Get(lo) - hmin0) / res))
		i1 := int(math.Ceil((ah.Get(hi) - hmin0) / res))
		j0 := int(math.Floor((av.Get(lo) - vmin0) / res))
		j1 := int(math.Ceil((av.Get(hi) - vmin0) / res))
		for i := i0; i < i1; i++ {
			for j := j0; j < j1; j++ {
				var pt r3.Vec
				pt = ah.Set(pt, hmin0+float64(i)*res)
				pt = av.Set(pt, vmin0+float64(j)*res)
				if !d2.InTriangle(p.Axis.Project(pt), ccw, p.Epsilon) {
					continue
				}
				anchors = append(anchors, Anchor{
					Point:  projectToPlane(pt, tri[0], n, p.Axis),
					Normal: n,
				})
			}
		}
	}
	return anchors
}

type builder struct {
	g     *Generator
	p     Params
	t     *Tree
	down  r3.Vec
	cone  float64
	queue nodeQueue
	index *activeIndex
	// box bounds every node created.
	box     d3.Box
	skipped int
}

func (b *builder) activate(idx int) {
	v := b.t.Nodes[idx].V
	b.index.add(idx, v)
	b.box = b.box.Include(v)
	heap.Push(&b.queue, queued{idx: idx, h: b.p.Axis.Get(v)})
}

func (b *builder) build(ctx context.Context) error {
	p := b.p
	t := b.t
	minLen := p.minStrutLength()
	for _, a := range t.Anchors {
		b.box = b.box.Include(a.Point)
		start := t.addNode(a.Point, -1, -1)
		// Try to lead the strut away from the surface along the normal.
		nv := r3.Add(a.Point, r3.Scale(minLen, a.Normal))
		hit, ok := b.g.index.Raycast(a.Point, a.Normal)
		if (ok && hit.Distance < minLen) || p.Axis.Get(nv) < p.MinHeight ||
			p.Axis.Get(a.Point)-p.MinHeight < minLen {
			b.activate(start)
			continue
		}
		b.activate(t.addNode(nv, start, -1))
	}

	for popped := 0; b.queue.Len() > 0; popped++ {
		if popped%256 == 0 {
			if err := ctx.Err(); err != nil {
				return err
			}
		}
		pi := heap.Pop(&b.queue).(queued).idx
		if !b.index.active(pi) {
			continue
		}
		b.index.remove(pi)
		b.connect(pi)
	}
	return nil
}

// connect joins node pi to its best target: the nearest cone joint with
// another active node, the mesh below, or the build plate.
func (b *builder) connect(pi int) {
	p := b.p
	t := b.t
	pv := t.Nodes[pi].V
	qi, joint, jointDist := b.nearestJoint(pi)

	down, downOK := b.g.index.Raycast(pv, b.down)
	var pointDown r3.Vec
	var distDown float64
	if downOK {
		pointDown = p.Axis.Set(down.Point, math.Max(p.Axis.Get(down.Point), p.MinHeight))
		distDown = math.Min(down.Distance, p.Axis.Get(pv)-p.MinHeight)
	} else {
		pointDown = p.Axis.Set(pv, p.MinHeight)
		distDown = p.Axis.Get(pv) - p.MinHeight
	}

	target, dist := pointDown, distDown
	toPlate := !downOK
	if qi >= 0 {
		d := r3.Unit(r3.Sub(joint, pv))
		hit, hitOK := b.g.index.Raycast(pv, d)
		switch {
		case hitOK && hit.Distance < jointDist:
			// The mesh is in the way of the joint; stand on it if the
			// strut meets it at a steep enough angle and before the
			// downward connection.
			n := b.g.normals[hit.Face]
			if hit.Distance < distDown && meshy.Acos(math.Abs(r3.Dot(n, d))) <= math.Pi/4+p.Epsilon {
				target, dist, toPlate = hit.Point, hit.Distance, false
			}
			qi = -1
		default:
			below, belowOK := b.g.index.Raycast(joint, b.down)
			if belowOK && below.Distance < p.minStrutLength() {
				qi = -1
				break
			}
			target, dist, toPlate = joint, jointDist, false
		}
	}
	if dist <= 0 {
		b.skipped++
		return
	}
	ni := t.addNode(target, pi, qi)
	t.Nodes[ni].NoTaper = toPlate && target == pointDown
	if qi >= 0 {
		b.index.remove(qi)
		b.activate(ni)
	}
}

// nearestJoint returns the active node whose downward cone meets pi's
// closest to pi. The popped node is the highest, so its distance to any
// joint is at least half its distance to the other apex; that bounds the
// radius searched.
func (b *builder) nearestJoint(pi int) (qi int, joint r3.Vec, dist float64) {
	p := b.p
	pv := b.t.Nodes[pi].V
	span := r3.Norm(r3.Sub(b.box.Max, b.box.Min))
	r := 4 * math.Max(p.Resolution, p.Radius)
	var cands []int
	for {
		qi, dist = -1, math.Inf(1)
		cands = b.index.within(cands[:0], pv, r)
		sort.Ints(cands)
		for _, ci := range cands {
			qv := b.t.Nodes[ci].V
			ixn, ok := coneIntersection(pv, qv, b.cone, p.Axis)
			if !ok || p.Axis.Get(ixn)-p.MinHeight <= p.Radius {
				continue
			}
			pd := r3.Norm(r3.Sub(pv, ixn))
			qd := r3.Norm(r3.Sub(qv, ixn))
			if pd < dist && pd > p.Radius && qd > p.Radius {
				qi, joint, dist = ci, ixn, pd
			}
		}
		if dist <= r/2 || r >= span {
			return qi, joint, dist
		}
		r *= 2
	}
}

// coneIntersection returns the nearest point where the downward cones with
// apexes p and q and half angle angle from the axis meet. It fails when
// one apex lies inside the other's cone.
func coneIntersection(p, q r3.Vec, angle float64, axis meshy.Axis) (r3.Vec, bool) {
	if p == q {
		return r3.Vec{}, false
	}
	up := axis.Unit()
	cos := math.Cos(angle)
	d := r3.Unit(r3.Sub(q, p))
	dot := -r3.Dot(d, up)
	if dot > cos || dot < -cos {
		return r3.Vec{}, false
	}
	d = axis.Set(d, 0)
	if r3.Norm2(d) == 0 {
		return r3.Vec{}, false
	}
	d = r3.Unit(d)
	tan := math.Tan(angle)
	// Move q level with p, keeping its cone's near side in place.
	diff := axis.Get(q) - axis.Get(p)
	qlevel := r3.Sub(r3.Sub(q, r3.Scale(diff, up)), r3.Scale(diff*tan, d))
	mid := r3.Scale(0.5, r3.Add(p, qlevel))
	l := r3.Norm(r3.Sub(mid, p))
	return axis.Set(mid, axis.Get(mid)-l/tan), true
}

// projectToPlane moves pt along the axis onto the plane through d with
// normal n. A plane parallel to the axis leaves pt unchanged.
func projectToPlane(pt, d, n r3.Vec, axis meshy.Axis) r3.Vec {
	na := axis.Get(n)
	if na == 0 {
		return pt
	}
	ah := axis.Next()
	av := ah.Next()
	h := (r3.Dot(d, n) - ah.Get(pt)*ah.Get(n) - av.Get(pt)*av.Get(n)) / na
	return axis.Set(pt, h)
}

type queued struct {
	idx int
	h   float64
}

// nodeQueue pops the highest node first, the earliest created on ties.
type nodeQueue []queued

func (q nodeQueue) Len() int { return len(q) }
func (q nodeQueue) Less(i, j int) bool {
	if q[i].h != q[j].h {
		return q[i].h > q[j].h
	}
	return q[i].idx < q[j].idx
}
func (q nodeQueue) Swap(i, j int) { q[i], q[j] = q[j], q[i] }
func (q *nodeQueue) Push(x any)   { *q = append(*q, x.(queued)) }
func (q *nodeQueue) Pop() any {
	old := *q
	n := len(old)
	x := old[n-1]
	*q = old[:n-1]
	return x
}
