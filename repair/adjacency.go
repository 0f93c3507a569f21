package repair

import (
	"math"

	"github.com/soypat/meshy"
	"gonum.org/v1/gonum/spatial/r3"
)

// vertexData holds the neighbours of a welded vertex. winding[k] counts the
// faces that traverse the edge to neighbours[k] forward minus those that
// traverse it backward. In a closed mesh every count is zero.
type vertexData struct {
	v          r3.Vec
	neighbours []int
	winding    []int
	// normal is the angle weighted sum of adjacent face normals.
	normal r3.Vec
}

// adjacency is a vertex adjacency map over a welded mesh. Vertices are
// numbered in order of first appearance.
type adjacency struct {
	tol   float64
	index map[meshy.V3i]int
	verts []vertexData
}

func newAdjacency(tris []r3.Triangle, normals []r3.Vec, tol float64) *adjacency {
	a := &adjacency{tol: tol, index: make(map[meshy.V3i]int)}
	for fi, t := range tris {
		var ids [3]int
		for k, v := range t {
			ids[k] = a.vertex(v)
		}
		if ids[0] == ids[1] || ids[1] == ids[2] || ids[2] == ids[0] {
			continue
		}
		var n r3.Vec
		if normals != nil {
			n = normals[fi]
		} else {
			n = unitOr(r3.Cross(r3.Sub(t[1], t[0]), r3.Sub(t[2], t[0])), r3.Vec{})
		}
		for k := 0; k < 3; k++ {
			d := &a.verts[ids[k]]
			n1, n2 := (k+1)%3, (k+2)%3
			d.addNeighbour(ids[n1], 1)
			d.addNeighbour(ids[n2], -1)
			angle := angleBetween(r3.Sub(t[n1], t[k]), r3.Sub(t[n2], t[k]))
			d.normal = r3.Add(d.normal, r3.Scale(angle, n))
		}
	}
	return a
}

func (a *adjacency) vertex(v r3.Vec) int {
	key := meshy.QuantizeV3(v, a.tol)
	if i, ok := a.index[key]; ok {
		return i
	}
	i := len(a.verts)
	a.index[key] = i
	a.verts = append(a.verts, vertexData{v: v})
	return i
}

func (d *vertexData) addNeighbour(n, w int) {
	for k, nb := range d.neighbours {
		if nb == n {
			d.winding[k] += w
			return
		}
	}
	d.neighbours = append(d.neighbours, n)
	d.winding = append(d.winding, w)
}

// boundaryEdges counts edges used by an unbalanced set of faces.
func (a *adjacency) boundaryEdges() int {
	var n int
	for i := range a.verts {
		for k, nb := range a.verts[i].neighbours {
			if nb > i && a.verts[i].winding[k] != 0 {
				n++
			}
		}
	}
	return n
}

// borderVertex is a vertex on the rim of one or more holes.
type borderVertex struct {
	neighbours []int
	// forward[k] is true when faces run from the vertex to neighbours[k].
	forward []bool
	holes   int
	normal  r3.Vec
}

// borderMap returns the vertices touching an unbalanced edge.
func (a *adjacency) borderMap() map[int]*borderVertex {
	border := make(map[int]*borderVertex)
	for i := range a.verts {
		d := &a.verts[i]
		var b *borderVertex
		for k, w := range d.winding {
			if w == 0 {
				continue
			}
			if b == nil {
				b = &borderVertex{normal: unitOr(d.normal, r3.Vec{})}
			}
			b.neighbours = append(b.neighbours, d.neighbours[k])
			b.forward = append(b.forward, w > 0)
		}
		if b != nil {
			// Each hole contributes two rim edges at the vertex.
			b.holes = max(1, len(b.neighbours)/2)
			border[i] = b
		}
	}
	return border
}

// cycles walks the border into closed loops of vertex indices. Loops follow
// the direction of the faces along the rim, which is clockwise seen from
// outside the mesh through the hole. Where a vertex borders several holes
// the walk takes the first edge counterclockwise from the incoming one
// around the vertex normal.
func (a *adjacency) cycles() [][]int {
	border := a.borderMap()
	var out [][]int
	for len(border) > 0 {
		start := -1
		for i := range a.verts {
			if b, ok := border[i]; ok && b.holes == 1 {
				start = i
				break
			}
		}
		if start < 0 {
			break
		}
		cycle, closed := a.walk(border, start)
		if closed {
			out = append(out, cycle)
		} else {
			meshy.Logger().Debug("repair: open border", "start", start, "length", len(cycle))
		}
	}
	return out
}

func (a *adjacency) walk(border map[int]*borderVertex, start int) (cycle []int, closed bool) {
	prev, curr := -1, start
	for steps := 0; steps <= len(a.verts); steps++ {
		b, ok := border[curr]
		if !ok || len(b.neighbours) == 0 {
			// Ensure progress on malformed borders.
			delete(border, start)
			return cycle, false
		}
		cycle = append(cycle, curr)
		var next int
		switch {
		case prev < 0:
			next = b.neighbours[0]
			if !b.forward[0] && len(b.neighbours) > 1 {
				next = b.neighbours[1]
			}
		case b.holes == 1:
			next = b.neighbours[0]
			if next == prev && len(b.neighbours) > 1 {
				next = b.neighbours[1]
			}
		default:
			next = a.turn(b, prev, curr)
			b.remove(prev)
			b.remove(next)
		}
		if b.holes == 1 {
			delete(border, curr)
		} else {
			b.holes--
		}
		prev, curr = curr, next
		if curr == start {
			return cycle, true
		}
	}
	delete(border, start)
	return cycle, false
}

// turn picks the rim edge leaving curr that forms the largest angle with
// the edge back to prev, measured around the vertex normal.
func (a *adjacency) turn(b *borderVertex, prev, curr int) int {
	v := a.verts[curr].v
	n := b.normal
	project := func(to int) r3.Vec {
		e := r3.Sub(a.verts[to].v, v)
		return unitOr(r3.Sub(e, r3.Scale(r3.Dot(n, e), n)), r3.Vec{})
	}
	prevEdge := project(prev)
	ortho := r3.Cross(prevEdge, n)
	best, bestAngle := b.neighbours[0], math.Inf(-1)
	for _, nb := range b.neighbours {
		var angle float64
		if nb != prev {
			e := project(nb)
			angle = meshy.Acos(r3.Dot(e, prevEdge))
			if r3.Dot(e, ortho) < 0 {
				angle = 2*math.Pi - angle
			}
		}
		if angle > bestAngle {
			best, bestAngle = nb, angle
		}
	}
	return best
}

func (b *borderVertex) remove(n int) {
	for k, nb := range b.neighbours {
		if nb == n {
			b.neighbours = append(b.neighbours[:k], b.neighbours[k+1:]...)
			b.forward = append(b.forward[:k], b.forward[k+1:]...)
			return
		}
	}
}

func angleBetween(a, b r3.Vec) float64 {
	la, lb := r3.Norm(a), r3.Norm(b)
	if la == 0 || lb == 0 {
		return 0
	}
	return meshy.Acos(r3.Dot(a, b) / (la * lb))
}

func unitOr(v, fallback r3.Vec) r3.Vec {
	l := r3.Norm(v)
	if l == 0 || math.IsNaN(l) || math.IsInf(l, 0) {
		return fallback
	}
	return r3.Scale(1/l, v)
}
