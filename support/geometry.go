package support

import (
	"math"

	"github.com/soypat/meshy"
	"gonum.org/v1/gonum/spatial/r3"
)

// endOffsetFactor extends end caps past their node by this fraction of the
// strut radius so the cap sinks into the surface it supports.
const endOffsetFactor = 0.5

// profiles holds the vertex loops of a node. ps faces the source strut, p0
// and p1 face branches B0 and B1. End profiles carry their center vertex
// after the loop.
type profiles struct {
	ps, p0, p1 []int
}

type tessellator struct {
	p     Params
	t     *Tree
	n     int
	eps   float64
	verts []r3.Vec
	faces [][3]int
	prof  []profiles
}

// Mesh tessellates the trees into tubes. Radii grow toward the roots with
// the weight carried. It returns nil when the tree has no struts.
func (t *Tree) Mesh(p Params) *meshy.Mesh {
	if len(t.Nodes) == 0 {
		return nil
	}
	ts := &tessellator{
		p:    p,
		t:    t,
		n:    max(4, p.subdivs()),
		eps:  math.Max(p.Epsilon, 1e-12),
		prof: make([]profiles, len(t.Nodes)),
	}
	for _, ri := range t.Roots() {
		ts.walk(ri, ts.makeProfiles)
		ts.walk(ri, ts.connectProfiles)
	}
	if len(ts.faces) == 0 {
		return nil
	}
	return &meshy.Mesh{Vertices: ts.verts, Faces: ts.faces}
}

// walk calls fn on every node of the tree rooted at ri, parents first.
func (ts *tessellator) walk(ri int, fn func(i int)) {
	stack := []int{ri}
	for len(stack) > 0 {
		i := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		fn(i)
		n := &ts.t.Nodes[i]
		if n.B1 >= 0 {
			stack = append(stack, n.B1)
		}
		if n.B0 >= 0 {
			stack = append(stack, n.B0)
		}
	}
}

func (ts *tessellator) dir(from, to int) (r3.Vec, bool) {
	d := r3.Sub(ts.t.Nodes[to].V, ts.t.Nodes[from].V)
	l := r3.Norm(d)
	if l < ts.eps || l == 0 {
		return r3.Vec{}, false
	}
	return r3.Scale(1/l, d), true
}

func (ts *tessellator) makeProfiles(i int) {
	n := &ts.t.Nodes[i]
	r := ts.p.radiusAt(n.Weight)
	switch {
	case n.IsRoot():
		// A root normally has one branch. Two branches happen when the
		// final connection was skipped; both get their own end.
		ts.prof[i].p0 = ts.endProfile(i, n.B0, r, true)
		ts.prof[i].p1 = ts.endProfile(i, n.B1, r, true)
	case n.IsLeaf():
		ts.prof[i].ps = ts.endProfile(i, n.Source, r, false)
	case n.IsElbow():
		ts.elbowProfile(i, r)
	default:
		ts.tJointProfiles(i, r)
	}
}

// endProfile places a circular loop where the strut toward neighbour ni
// ends at node i. Roots loop counterclockwise looking down the strut,
// leaves clockwise.
func (ts *tessellator) endProfile(i, ni int, r float64, root bool) []int {
	if ni < 0 {
		return nil
	}
	vn, ok := ts.dir(i, ni)
	if !ok {
		return nil
	}
	n := &ts.t.Nodes[i]
	offset := -endOffsetFactor * r
	if n.NoTaper {
		offset = 0
	} else {
		r *= ts.p.TaperFactor
	}
	center := r3.Add(n.V, r3.Scale(offset, vn))
	b := orthogonal(vn)
	c := r3.Cross(vn, b)
	incr := 2 * math.Pi / float64(ts.n)
	if !root {
		incr = -incr
	}
	start := len(ts.verts)
	loop := make([]int, ts.n+1)
	for k := 0; k < ts.n; k++ {
		a := float64(k) * incr
		ts.verts = append(ts.verts, r3.Add(center, r3.Add(r3.Scale(r*math.Cos(a), b), r3.Scale(r*math.Sin(a), c))))
		loop[k] = start + k
	}
	ts.verts = append(ts.verts, center)
	loop[ts.n] = start + ts.n
	return loop
}

// elbowProfile places an elliptical loop in the plane bisecting the two
// struts meeting at node i. The same loop serves both struts.
func (ts *tessellator) elbowProfile(i int, r float64) {
	n := &ts.t.Nodes[i]
	branch := n.B0
	if branch < 0 {
		branch = n.B1
	}
	v0, ok0 := ts.dir(i, branch)
	vs, oks := ts.dir(i, n.Source)
	if !ok0 || !oks {
		return
	}
	s := r3.Add(v0, vs)
	var b r3.Vec
	if r3.Norm(s) < ts.eps {
		b = orthogonal(v0)
	} else {
		b = r3.Unit(s)
	}
	ha := meshy.Acos(r3.Dot(v0, vs)) / 2
	m := r
	if sin := math.Sin(ha); sin > ts.eps {
		m = r / sin
	}
	c := r3.Cross(v0, b)
	start := len(ts.verts)
	loop := make([]int, ts.n)
	incr := 2 * math.Pi / float64(ts.n)
	for k := 0; k < ts.n; k++ {
		a := float64(k) * incr
		ts.verts = append(ts.verts, r3.Add(n.V, r3.Add(r3.Scale(m*math.Cos(a), b), r3.Scale(r*math.Sin(a), c))))
		loop[k] = start + k
	}
	pr := &ts.prof[i]
	pr.ps = loop
	if n.B0 >= 0 {
		pr.p0 = loop
	} else {
		pr.p1 = loop
	}
}

// tJointProfiles builds three loops for the struts meeting at node i.
// Neighbouring struts share a half ellipse lying in their bisecting plane.
// All three half ellipses meet at an inward and an outward vertex on the
// normal of the plane through the strut directions.
func (ts *tessellator) tJointProfiles(i int, r float64) {
	n := &ts.t.Nodes[i]
	v0, ok0 := ts.dir(i, n.B0)
	v1, ok1 := ts.dir(i, n.B1)
	vs, oks := ts.dir(i, n.Source)
	if !ok0 || !ok1 || !oks {
		return
	}
	eps := ts.eps

	// Bisectors; antiparallel pairs take the direction away from the third strut.
	bisector := func(a, b, third r3.Vec) r3.Vec {
		s := r3.Add(a, b)
		if r3.Norm(s) < eps {
			s = r3.Scale(-1, projectOut(third, a))
		}
		return r3.Unit(s)
	}
	b01 := bisector(v0, v1, vs)
	b0s := bisector(v0, vs, v1)
	b1s := bisector(v1, vs, v0)

	m01 := r / safeSin(meshy.Acos(r3.Dot(v0, v1))/2, eps)
	m0s := r / safeSin(meshy.Acos(r3.Dot(v0, vs))/2, eps)
	m1s := r / safeSin(meshy.Acos(r3.Dot(v1, vs))/2, eps)

	ihat := r3.Cross(r3.Sub(v1, v0), r3.Sub(vs, v0))
	if r3.Norm(ihat) < eps {
		// Coplanar through a line; fall back to an elbow style joint.
		ihat = orthogonal(b01)
	}
	ihat = r3.Unit(ihat)
	dot := r3.Dot(ihat, v1)
	if dot < 0 {
		ihat = r3.Scale(-1, ihat)
	}
	mio := r / math.Sqrt(math.Max(1-dot*dot, eps))

	d01, d0s, d1s := r3.Dot(ihat, b01), r3.Dot(ihat, b0s), r3.Dot(ihat, b1s)
	s01 := meshy.Acos(mio * d01 / m01)
	s0s := meshy.Acos(mio * d0s / m0s)
	s1s := meshy.Acos(mio * d1s / m1s)

	c01 := r3.Unit(projectOut(ihat, b01))
	c0s := r3.Unit(projectOut(ihat, b0s))
	c1s := r3.Unit(projectOut(ihat, b1s))

	n01 := mio * math.Sqrt(math.Max(1-d01*d01, 0)) / safeSin(s01, eps)
	n0s := mio * math.Sqrt(math.Max(1-d0s*d0s, 0)) / safeSin(s0s, eps)
	n1s := mio * math.Sqrt(math.Max(1-d1s*d1s, 0)) / safeSin(s1s, eps)

	inIdx := len(ts.verts)
	outIdx := inIdx + 1
	ts.verts = append(ts.verts, r3.Add(n.V, r3.Scale(mio, ihat)), r3.Sub(n.V, r3.Scale(mio, ihat)))

	// Arc vertices exclude the shared inward and outward ends.
	scount := (ts.n - 2) / 2
	arc := func(s, m, nn float64, b, c r3.Vec) int {
		start := len(ts.verts)
		for k := 1; k <= scount; k++ {
			a := s - float64(k)*math.Pi/float64(scount+1)
			ts.verts = append(ts.verts, r3.Add(n.V, r3.Add(r3.Scale(m*math.Cos(a), b), r3.Scale(nn*math.Sin(a), c))))
		}
		return start
	}
	a01 := arc(s01, m01, n01, b01, c01)
	a0s := arc(s0s, m0s, n0s, b0s, c0s)
	a1s := arc(s1s, m1s, n1s, b1s, c1s)

	// Looking down the inward vector with the source strut pointing down,
	// dir tells whether strut 0 sits on the left.
	cs := r3.Cross(ihat, vs)
	dir := r3.Dot(cs, v0)
	if math.Abs(dir) < eps {
		dir = -r3.Dot(cs, v1)
	}
	sL, sR := a1s, a0s
	l0, r0 := a01, a0s
	l1, r1 := a1s, a01
	if dir > 0 {
		sL, sR = a0s, a1s
		l0, r0 = a0s, a01
		l1, r1 = a01, a1s
	}
	loop := func(left, right int) []int {
		out := make([]int, 0, ts.n)
		out = append(out, inIdx)
		for k := 0; k < scount; k++ {
			out = append(out, left+k)
		}
		out = append(out, outIdx)
		for k := scount - 1; k >= 0; k-- {
			out = append(out, right+k)
		}
		return out
	}
	ts.prof[i] = profiles{ps: loop(sL, sR), p0: loop(l0, r0), p1: loop(l1, r1)}
}

func (ts *tessellator) connectProfiles(i int) {
	n := &ts.t.Nodes[i]
	switch {
	case n.IsRoot():
		ts.connect(i, n.B0)
		ts.connect(i, n.B1)
		ts.cap(ts.prof[i].p0, true)
		ts.cap(ts.prof[i].p1, true)
	case n.IsLeaf():
		ts.cap(ts.prof[i].ps, false)
	default:
		ts.connect(i, n.B0)
		ts.connect(i, n.B1)
	}
}

// connect joins node i's loop toward branch bi with the branch's source
// loop, starting at the branch vertex most directly above the first vertex.
func (ts *tessellator) connect(i, bi int) {
	if bi < 0 {
		return
	}
	n := &ts.t.Nodes[i]
	sp := ts.prof[i].p0
	if bi == n.B1 {
		sp = ts.prof[i].p1
	}
	tp := ts.prof[bi].ps
	vn, ok := ts.dir(i, bi)
	if !ok || len(sp) < ts.n || len(tp) < ts.n {
		meshy.Logger().Debug("skipped support strut", "node", i, "branch", bi)
		return
	}
	spt := ts.verts[sp[0]]
	tidx := 0
	maxdot := 0.0
	for k := 0; k < ts.n; k++ {
		d := r3.Sub(ts.verts[tp[k]], spt)
		if r3.Norm2(d) == 0 {
			continue
		}
		if dot := r3.Dot(r3.Unit(d), vn); dot > maxdot {
			maxdot, tidx = dot, k
		}
	}
	for k := 0; k < ts.n; k++ {
		a := tp[(tidx+k)%ts.n]
		b := tp[(tidx+k+1)%ts.n]
		c := sp[k]
		d := sp[(k+1)%ts.n]
		ts.faces = append(ts.faces, [3]int{a, c, d}, [3]int{a, d, b})
	}
}

// cap fans an end loop around its center vertex. Root loops wind the other
// way so both caps face out of the tube.
func (ts *tessellator) cap(loop []int, root bool) {
	if len(loop) < ts.n+1 {
		return
	}
	incr := 1
	if root {
		incr = ts.n - 1
	}
	pc := loop[ts.n]
	for k := 0; k < ts.n; k++ {
		ts.faces = append(ts.faces, [3]int{pc, loop[k], loop[(k+incr)%ts.n]})
	}
}

// orthogonal returns a unit vector orthogonal to v, horizontal when v is
// not vertical.
func orthogonal(v r3.Vec) r3.Vec {
	if v.X == 0 && v.Y == 0 {
		return r3.Vec{X: 1}
	}
	return r3.Unit(r3.Vec{X: v.Y, Y: -v.X})
}

// projectOut removes the component of v along unit vector n.
func projectOut(v, n r3.Vec) r3.Vec {
	return r3.Sub(v, r3.Scale(r3.Dot(v, n), n))
}

func safeSin(a, eps float64) float64 {
	s := math.Sin(a)
	if math.Abs(s) < eps {
		return 1
	}
	return s
}
