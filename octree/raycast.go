package octree

import (
	"math"

	"github.com/soypat/meshy/internal/d3"
	"gonum.org/v1/gonum/spatial/r3"
)

type castKind int

const (
	external castKind = iota
	internal
)

// Raycast returns the nearest intersection of the ray with a face whose
// normal points against dir, that is, a face seen from outside the mesh.
func (o *Octree) Raycast(origin, dir r3.Vec) (Hit, bool) {
	return o.cast(origin, dir, external)
}

// RaycastInternal returns the nearest intersection of the ray with a face
// whose normal points along dir. Cast from a point on the surface against
// its normal it measures wall thickness.
func (o *Octree) RaycastInternal(origin, dir r3.Vec) (Hit, bool) {
	return o.cast(origin, dir, internal)
}

// ray holds the state of one traversal. Naming follows "An Efficient
// Parametric Algorithm for Octree Traversal" by Revelles et al.
type ray struct {
	o    *Octree
	p, d r3.Vec
	// sign of each direction component: -1, 0 or 1.
	sign [3]int
	kind castKind
	tol  float64
}

func (o *Octree) cast(p, dir r3.Vec, kind castKind) (Hit, bool) {
	l := r3.Norm(dir)
	if len(o.nodes) == 0 || l == 0 || math.IsNaN(l) || math.IsInf(l, 0) {
		return Hit{}, false
	}
	r := ray{o: o, p: p, d: r3.Scale(1/l, dir), kind: kind, tol: 1e-9 * o.size}
	var t0, t1 r3.Vec
	for a := 0; a < 3; a++ {
		pa, da := d3.Index(r.p, a), d3.Index(r.d, a)
		lo := d3.Index(o.origin, a)
		hi := lo + o.size
		switch {
		case da > 0:
			r.sign[a] = 1
			t0 = d3.SetIndex(t0, a, (lo-pa)/da)
			t1 = d3.SetIndex(t1, a, (hi-pa)/da)
		case da < 0:
			// Swap entry and exit so t0 < t1 on every axis.
			r.sign[a] = -1
			t0 = d3.SetIndex(t0, a, (hi-pa)/da)
			t1 = d3.SetIndex(t1, a, (lo-pa)/da)
		default:
			if pa < lo || pa > hi {
				return Hit{}, false
			}
			t0 = d3.SetIndex(t0, a, math.Inf(-1))
			t1 = d3.SetIndex(t1, a, math.Inf(1))
		}
	}
	return r.proc(0, t0, t1)
}

func (r *ray) proc(ni int32, t0, t1 r3.Vec) (Hit, bool) {
	tEnter, tExit := d3.Max(t0), d3.Min(t1)
	if tEnter > tExit || tExit < 0 {
		return Hit{}, false
	}
	n := &r.o.nodes[ni]
	if n.depth == 0 {
		return r.leaf(n, tExit)
	}

	center := r3.Add(n.origin, d3.Elem(n.size/2))
	var tm r3.Vec
	for a := 0; a < 3; a++ {
		if r.sign[a] != 0 {
			tm = d3.SetIndex(tm, a, (d3.Index(t0, a)+d3.Index(t1, a))/2)
		} else if d3.Index(r.p, a) < d3.Index(center, a) {
			tm = d3.SetIndex(tm, a, math.Inf(1))
		} else {
			tm = d3.SetIndex(tm, a, math.Inf(-1))
		}
	}

	// First child crossed. On decreasing axes the far octant is entered first.
	idx := 0
	for a := 0; a < 3; a++ {
		if r.sign[a] < 0 {
			idx |= 1 << a
		}
	}
	entry := d3.ArgMax(t0)
	tEntry := d3.Index(t0, entry)
	for a := 0; a < 3; a++ {
		if a != entry && d3.Index(tm, a) < tEntry {
			idx += r.sign[a] << a
		}
	}
	for a := 0; a < 3; a++ {
		if r.sign[a] != 0 {
			continue
		}
		if d3.Index(r.p, a) < d3.Index(center, a) {
			idx &^= 1 << a
		} else {
			idx |= 1 << a
		}
	}

	for idx >= 0 {
		ct0, ct1 := r.childParams(idx, t0, tm, t1)
		if child := n.children[idx]; child >= 0 {
			if hit, ok := r.proc(child, ct0, ct1); ok {
				return hit, true
			}
		}
		idx = r.nextChild(idx, ct1)
	}
	return Hit{}, false
}

// leaf returns the nearest accepted hit among the leaf's faces. Hits past
// the leaf's exit parameter belong to a later cell and are rejected there
// so the first leaf reporting a hit holds the global nearest.
func (r *ray) leaf(n *node, tExit float64) (hit Hit, found bool) {
	for _, fi := range n.faces {
		dot := r3.Dot(r.o.normals[fi], r.d)
		if (r.kind == internal && dot <= 0) || (r.kind == external && dot >= 0) {
			continue
		}
		t, ok := d3.RayTriangle(r.p, r.d, r.o.tris[fi])
		if !ok || t > tExit+r.tol {
			continue
		}
		if !found || t < hit.Distance {
			found = true
			hit = Hit{Point: r3.Add(r.p, r3.Scale(t, r.d)), Distance: t, Face: fi}
		}
	}
	return hit, found
}

// childParams narrows the parent's parameters to octant idx.
func (r *ray) childParams(idx int, t0, tm, t1 r3.Vec) (ct0, ct1 r3.Vec) {
	ct0, ct1 = t0, t1
	for a := 0; a < 3; a++ {
		bit := idx>>a&1 == 1
		switch {
		case r.sign[a] == 0:
			if bit {
				ct0 = d3.SetIndex(ct0, a, math.Inf(-1))
			} else {
				ct1 = d3.SetIndex(ct1, a, math.Inf(1))
			}
		case r.near(bit, a):
			ct1 = d3.SetIndex(ct1, a, d3.Index(tm, a))
		default:
			ct0 = d3.SetIndex(ct0, a, d3.Index(tm, a))
		}
	}
	return ct0, ct1
}

// nextChild returns the octant the ray crosses into after leaving octant
// idx, or -1 if it leaves the parent.
func (r *ray) nextChild(idx int, ct1 r3.Vec) int {
	exit := d3.ArgMin(ct1)
	if r.sign[exit] != 0 && r.near(idx>>exit&1 == 1, exit) {
		return idx + r.sign[exit]<<exit
	}
	return -1
}

// near reports whether the octant half on axis a is crossed first.
func (r *ray) near(bit bool, a int) bool {
	return (!bit && r.sign[a] > 0) || (bit && r.sign[a] < 0)
}
