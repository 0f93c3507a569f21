package repair

import (
	"math"

	"github.com/soypat/meshy"
	"gonum.org/v1/gonum/spatial/r3"
)

const (
	// Interior angle below which a front vertex is clipped as an ear.
	earAngle = 75 * math.Pi / 180
	// Interior angle from which two vertices are placed instead of one.
	wideAngle = 135 * math.Pi / 180
	// New vertices lean toward the hole center by this fraction.
	centerPull = 0.2

	smoothIterations = 20
)

// frontVertex is a vertex on the advancing front of a hole.
type frontVertex struct {
	idx    int // into patch.verts
	normal r3.Vec
	angle  float64
}

// patch is the triangulation of a single hole in local indices. The first
// rim vertices of verts are the hole border.
type patch struct {
	verts []r3.Vec
	faces [][3]int
	rim   int
}

// filler closes one hole with an advancing front.
type filler struct {
	patch
	front   []frontVertex
	center  r3.Vec
	avgLen  float64
	avgDist float64
}

// fillHole triangulates the hole bounded by rim, given in the direction of
// the faces around it. normals are the vertex normals of the rim. fillHole
// reports false when the front fails to close.
func fillHole(rim, normals []r3.Vec) (patch, bool) {
	n := len(rim)
	if n < 3 {
		return patch{}, false
	}
	f := &filler{patch: patch{verts: append([]r3.Vec(nil), rim...), rim: n}}
	if n == 3 {
		f.faces = append(f.faces, [3]int{0, 2, 1})
		return f.patch, true
	}
	f.front = make([]frontVertex, n)
	for i := range f.front {
		f.front[i] = frontVertex{idx: i, normal: normals[i]}
		f.center = r3.Add(f.center, rim[i])
	}
	f.center = r3.Scale(1/float64(n), f.center)
	original := f.frontLength()
	f.avgLen = original / float64(n)
	for _, v := range rim {
		f.avgDist += r3.Norm(r3.Sub(v, f.center))
	}
	f.avgDist /= float64(n)
	for i := range f.front {
		f.front[i].angle = f.angleAt(i)
	}

	maxSteps := 64 * n
	for step := 1; len(f.front) > 3; step++ {
		if step%n == 0 && f.frontLength() > original {
			return patch{}, false
		}
		if step > maxSteps {
			return patch{}, false
		}
		f.advance(f.smallestAngle())
	}
	f.faces = append(f.faces, [3]int{f.front[0].idx, f.front[2].idx, f.front[1].idx})
	f.smooth()
	return f.patch, true
}

func (f *filler) pos(i int) r3.Vec { return f.verts[f.front[i].idx] }

func (f *filler) frontLength() float64 {
	var l float64
	for i := range f.front {
		l += r3.Norm(r3.Sub(f.pos((i+1)%len(f.front)), f.pos(i)))
	}
	return l
}

func (f *filler) smallestAngle() int {
	best := 0
	for i := range f.front {
		if f.front[i].angle < f.front[best].angle {
			best = i
		}
	}
	return best
}

// angleAt returns the interior angle of the front at i, measured around
// the vertex normal. Reflex vertices have angles above π.
func (f *filler) angleAt(i int) float64 {
	l := len(f.front)
	v := f.pos(i)
	e1 := unitOr(r3.Sub(f.pos((i+l-1)%l), v), r3.Vec{})
	e2 := unitOr(r3.Sub(f.pos((i+1)%l), v), r3.Vec{})
	angle := meshy.Acos(r3.Dot(e1, e2))
	if r3.Dot(r3.Cross(e1, f.front[i].normal), e2) > 0 {
		angle = 2*math.Pi - angle
	}
	return angle
}

// advance grows the front at i, the vertex with the smallest angle.
func (f *filler) advance(i int) {
	l := len(f.front)
	prev, next := (i+l-1)%l, (i+1)%l
	v, vp, vn := f.pos(i), f.pos(prev), f.pos(next)
	eprev, enext := r3.Sub(vp, v), r3.Sub(vn, v)
	angle := f.front[i].angle
	lp, ln := r3.Norm(eprev), r3.Norm(enext)

	if angle < earAngle {
		f.clip(i)
		return
	}
	axis := r3.Cross(eprev, enext)
	if r3.Norm2(axis) < 1e-24 {
		axis = f.front[i].normal
	} else if r3.Dot(axis, f.front[i].normal) < 0 {
		axis = r3.Scale(-1, axis)
	}
	if r3.Norm2(axis) == 0 {
		f.clip(i)
		return
	}
	along := func(frac, length float64) r3.Vec {
		dir := unitOr(r3.NewRotation(frac*angle, axis).Rotate(eprev), r3.Vec{})
		return f.pullToCenter(v, r3.Add(v, r3.Scale(length, dir)))
	}

	if angle < wideAngle {
		v1 := along(0.5, (lp+ln)/2)
		if r3.Norm(r3.Sub(v1, vn)) < f.avgLen {
			f.clip(i)
			return
		}
		f.split(i, v1)
		return
	}
	v1 := along(1./3, (2*lp+ln)/3)
	v2 := along(2./3, (lp+2*ln)/3)
	if r3.Norm(r3.Sub(v2, v1)) < f.avgLen {
		f.split(i, r3.Scale(0.5, r3.Add(v1, v2)))
		return
	}
	f.split(i, v1, v2)
}

// pullToCenter leans a new vertex w placed from v toward the hole center.
func (f *filler) pullToCenter(v, w r3.Vec) r3.Vec {
	toCenter := r3.Sub(f.center, v)
	if f.avgDist == 0 {
		return w
	}
	// Displacement is |w-v| * centerPull * |toCenter| / avgDist along toCenter.
	e := r3.Norm(r3.Sub(w, v))
	return r3.Add(w, r3.Scale(e*centerPull/f.avgDist, toCenter))
}

// clip closes the ear at i with one triangle and removes i from the front.
func (f *filler) clip(i int) {
	l := len(f.front)
	prev, next := (i+l-1)%l, (i+1)%l
	f.addFace(f.front[i].idx, f.front[prev].idx, f.front[next].idx, prev, next)
	f.front = append(f.front[:i], f.front[i+1:]...)
	l--
	if prev > i {
		prev--
	}
	if next > i {
		next--
	}
	f.front[prev].angle = f.angleAt(prev)
	f.front[next].angle = f.angleAt(next)
}

// split replaces front vertex i with new vertices fanned from it.
func (f *filler) split(i int, added ...r3.Vec) {
	l := len(f.front)
	prev, next := (i+l-1)%l, (i+1)%l
	center := f.front[i].idx
	normal := f.front[i].normal

	fan := []int{f.front[prev].idx}
	repl := make([]frontVertex, len(added))
	for k, w := range added {
		idx := len(f.verts)
		f.verts = append(f.verts, w)
		fan = append(fan, idx)
		repl[k] = frontVertex{idx: idx, normal: normal}
	}
	fan = append(fan, f.front[next].idx)
	for k := 0; k+1 < len(fan); k++ {
		n := f.addFace(center, fan[k], fan[k+1], -1, -1)
		for r := range repl {
			if repl[r].idx == fan[k] || repl[r].idx == fan[k+1] {
				repl[r].normal = unitOr(r3.Add(repl[r].normal, n), normal)
			}
		}
	}
	f.blendNormal(prev, center, fan[1])
	f.blendNormal(next, fan[len(fan)-2], center)

	front := make([]frontVertex, 0, l+len(added)-1)
	front = append(front, f.front[:i]...)
	front = append(front, repl...)
	front = append(front, f.front[i+1:]...)
	f.front = front
	l = len(f.front)
	for k := i - 1; k <= i+len(added); k++ {
		j := (k + l) % l
		f.front[j].angle = f.angleAt(j)
	}
}

// addFace appends a triangle and blends its normal into the front vertices
// at fp and fn, when non-negative. It returns the face normal.
func (f *filler) addFace(a, b, c, fp, fn int) r3.Vec {
	f.faces = append(f.faces, [3]int{a, b, c})
	va, vb, vc := f.verts[a], f.verts[b], f.verts[c]
	n := unitOr(r3.Cross(r3.Sub(vb, va), r3.Sub(vc, va)), r3.Vec{})
	if fp >= 0 {
		f.front[fp].normal = blend(f.front[fp].normal, n, angleBetween(r3.Sub(va, vb), r3.Sub(vc, vb)))
	}
	if fn >= 0 {
		f.front[fn].normal = blend(f.front[fn].normal, n, angleBetween(r3.Sub(va, vc), r3.Sub(vb, vc)))
	}
	return n
}

// blendNormal updates the normal of front vertex j after the triangle
// (j, a, b) was added around it.
func (f *filler) blendNormal(j, a, b int) {
	vj := f.verts[f.front[j].idx]
	va, vb := f.verts[a], f.verts[b]
	n := unitOr(r3.Cross(r3.Sub(va, vj), r3.Sub(vb, vj)), r3.Vec{})
	// Orientation of (j, a, b) may not match the patch; align it first.
	if r3.Dot(n, f.front[j].normal) < 0 {
		n = r3.Scale(-1, n)
	}
	f.front[j].normal = blend(f.front[j].normal, n, angleBetween(r3.Sub(va, vj), r3.Sub(vb, vj)))
}

func blend(normal, n r3.Vec, weight float64) r3.Vec {
	return unitOr(r3.Add(normal, r3.Scale(weight, n)), normal)
}

// smooth relaxes the vertices added inside the hole with Laplacian
// averaging. Rim vertices stay fixed.
func (p *patch) smooth() {
	if len(p.verts) == p.rim {
		return
	}
	neighbours := make([][]int, len(p.verts))
	link := func(a, b int) {
		for _, n := range neighbours[a] {
			if n == b {
				return
			}
		}
		neighbours[a] = append(neighbours[a], b)
	}
	for _, face := range p.faces {
		for k := 0; k < 3; k++ {
			a, b := face[k], face[(k+1)%3]
			link(a, b)
			link(b, a)
		}
	}
	snapshot := make([]r3.Vec, len(p.verts))
	for it := 0; it < smoothIterations; it++ {
		copy(snapshot, p.verts)
		for i := p.rim; i < len(p.verts); i++ {
			if len(neighbours[i]) == 0 {
				continue
			}
			var sum r3.Vec
			for _, n := range neighbours[i] {
				sum = r3.Add(sum, snapshot[n])
			}
			p.verts[i] = r3.Scale(1/float64(len(neighbours[i])), sum)
		}
	}
}
