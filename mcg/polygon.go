package mcg

import (
	"math"

	"gonum.org/v1/gonum/spatial/r3"
)

// capThreshold is the vertex angle past which offset spikes are capped.
const capThreshold = math.Pi * 5 / 6

// Polygon is a closed loop of vertices in integer space. Counterclockwise
// polygons have positive area and bound solid regions; clockwise ones are
// holes.
type Polygon struct {
	Context  *Context
	Points   []Vector
	Area     float64
	Min, Max Vector

	// bisectors of each vertex and their angle to the outgoing edge,
	// computed on the first offset.
	bisectors []Vector
	angles    []float64
}

// NewPolygon builds a polygon from a vertex loop, dropping vertices that are
// collinear with their neighbours. The result may be invalid.
func NewPolygon(ctx *Context, src []Vector) *Polygon {
	p := &Polygon{Context: ctx, Min: emptyMin, Max: emptyMax}
	if len(src) < 3 {
		return p
	}
	pts := make([]Vector, 0, len(src))
	for _, s := range src {
		n := len(pts)
		if n > 1 && collinear(pts[n-2], pts[n-1], s) {
			pts[n-1] = s
		} else {
			pts = append(pts, s)
		}
	}
	if len(pts) < 3 {
		return p
	}
	n := len(pts)
	if collinear(pts[n-2], pts[n-1], pts[0]) {
		pts = pts[:n-1]
		n--
	}
	if n >= 2 && collinear(pts[n-1], pts[0], pts[1]) {
		pts = pts[1:]
	}
	p.fromPoints(pts, nil)
	if !p.Valid() {
		return p.invalidate()
	}
	return p
}

// Count returns the number of vertices.
func (p *Polygon) Count() int { return len(p.Points) }

// Valid reports whether p has at least three vertices.
func (p *Polygon) Valid() bool { return len(p.Points) >= 3 }

// IsHole reports whether p winds clockwise.
func (p *Polygon) IsHole() bool { return p.Area < 0 }

// ForEachPointPair calls fn for every edge, including the closing one.
func (p *Polygon) ForEachPointPair(fn func(p1, p2 Vector)) {
	n := len(p.Points)
	for i := 0; i < n; i++ {
		fn(p.Points[i], p.Points[(i+1)%n])
	}
}

// Perimeter returns the loop length in integer units.
func (p *Polygon) Perimeter() float64 {
	var l float64
	p.ForEachPointPair(func(a, b Vector) { l += a.Distance(b) })
	return l
}

// IsSliver reports whether the polygon's area to perimeter ratio is below
// tol. A non-positive tol defaults to a hundredth of a float space unit.
func (p *Polygon) IsSliver(tol float64) bool {
	if tol <= 0 {
		tol = p.Context.P / 100
	}
	return math.Abs(p.Area)/p.Perimeter() < tol
}

// Size returns the extent of the bounding box.
func (p *Polygon) Size() Vector { return p.Min.To(p.Max) }

// Clone returns a deep copy of p.
func (p *Polygon) Clone() *Polygon {
	c := *p
	c.Points = append([]Vector(nil), p.Points...)
	c.bisectors, c.angles = nil, nil
	return &c
}

// Rotate rotates the vertices counterclockwise by angle radians in place.
func (p *Polygon) Rotate(angle float64) *Polygon {
	for i, pt := range p.Points {
		p.Points[i] = pt.Rotate(angle)
	}
	p.bisectors, p.angles = nil, nil
	p.calculateBounds()
	return p
}

// Vertices returns the loop lifted to 3D at the context level.
func (p *Polygon) Vertices() []r3.Vec {
	out := make([]r3.Vec, len(p.Points))
	for i, pt := range p.Points {
		out[i] = p.Context.V3(pt)
	}
	return out
}

func (p *Polygon) invalidate() *Polygon {
	p.Points = nil
	p.Area = 0
	p.Min, p.Max = emptyMin, emptyMax
	p.bisectors, p.angles = nil, nil
	return p
}

// fromPoints replaces the vertices with pts, keeping only those marked in
// mk when mk is not nil.
func (p *Polygon) fromPoints(pts []Vector, mk []bool) {
	if mk != nil {
		kept := pts[:0:0]
		for i, pt := range pts {
			if mk[i] {
				kept = append(kept, pt)
			}
		}
		pts = kept
	}
	p.Points = pts
	p.bisectors, p.angles = nil, nil
	p.calculateArea()
	p.calculateBounds()
}

func (p *Polygon) calculateArea() {
	p.Area = 0
	for i := 1; i < len(p.Points)-1; i++ {
		p.Area += Area(p.Points[0], p.Points[i], p.Points[i+1])
	}
}

func (p *Polygon) calculateBounds() {
	p.Min, p.Max = emptyMin, emptyMax
	for _, pt := range p.Points {
		p.Min = p.Min.Min(pt)
		p.Max = p.Max.Max(pt)
	}
}

func (p *Polygon) computeBisectors() {
	if p.bisectors != nil {
		return
	}
	n := len(p.Points)
	p.bisectors = make([]Vector, n)
	p.angles = make([]float64, n)
	for i := range p.Points {
		p1 := p.Points[(i-1+n)%n]
		p2 := p.Points[i]
		p3 := p.Points[(i+1)%n]
		b := bisector(p1, p2, p3, p.Context.P)
		p.bisectors[i] = b
		p.angles[i] = p2.To(p3).AngleTo(b)
	}
}

// FOffset is Offset with arguments in float space.
func (p *Polygon) FOffset(fdist, ftol float64) *Polygon {
	return p.Offset(p.Context.Ftoi(fdist), p.Context.Ftoi(ftol))
}

// Offset displaces every vertex along its bisector by dist integer units,
// outward when positive. Sharp vertices get their spike capped. Vertices
// whose neighbours cross the bisector are dropped. The result is invalid when
// an inward offset exceeds half the polygon's smallest extent or the result
// area is below tol². Self intersections are left for a subsequent union to
// resolve. A zero dist returns a copy of p.
func (p *Polygon) Offset(dist, tol int64) *Polygon {
	if dist == 0 {
		return p.Clone()
	}
	result := &Polygon{Context: p.Context, Min: emptyMin, Max: emptyMax}
	if !p.Valid() {
		return result
	}
	size := p.Size()
	minsize := float64(min(size.H, size.V))
	fdist := p.Context.Itof(dist)
	tolsq := float64(tol) * float64(tol)
	if p.Area > 0 && float64(dist) < -minsize/2 {
		return result
	}
	if p.Area < 0 && float64(dist) > minsize/2 {
		return result
	}
	p.computeBisectors()

	// vertexAngle is the angle between the offset direction and the
	// outgoing edge.
	vertexAngle := func(i int) float64 {
		if fdist > 0 {
			return p.angles[i]
		}
		return math.Pi - p.angles[i]
	}
	rpoints := make([]Vector, 0, len(p.Points))
	for i, pti := range p.Points {
		a := vertexAngle(i)
		if a == 0 {
			continue
		}
		b := p.bisectors[i]
		ptnew := pti.Add(b.Scale(fdist / math.Sin(a)))
		if a <= capThreshold {
			rpoints = append(rpoints, ptnew)
			continue
		}
		ha := (a - math.Pi/2) / 2
		hl := fdist * math.Tan(ha)
		ov := orthogonalRight(pti.To(ptnew), p.Context.P)
		mc := pti.AddScaled(b, fdist)
		p0 := mc.AddScaled(ov, -hl)
		p1 := mc.AddScaled(ov, hl)
		if fdist > 0 {
			rpoints = append(rpoints, p0, p1)
		} else {
			rpoints = append(rpoints, p1, p0)
		}
	}

	rlen := len(rpoints)
	if rlen == 0 {
		return result
	}
	mk := make([]bool, rlen)
	ri := 0
	for i, pt := range p.Points {
		a := vertexAngle(i)
		if a == 0 {
			continue
		}
		if a > capThreshold {
			mk[ri], mk[ri+1] = true, true
			ri += 2
			continue
		}
		rp := rpoints[ri]
		prev := rpoints[(ri-1+rlen)%rlen]
		next := rpoints[(ri+1)%rlen]
		ok := leftCompareStrict(pt, rp, prev) == -1 && leftCompareStrict(pt, rp, next) == 1
		mk[ri] = ok != (dist < 0)
		ri++
	}
	result.fromPoints(rpoints, mk)
	if math.Abs(result.Area) < tolsq {
		return result.invalidate()
	}
	return result
}

// FDecimate is Decimate with tol in float space.
func (p *Polygon) FDecimate(ftol float64) *Polygon {
	return p.Decimate(p.Context.Ftoi(ftol))
}

// Decimate drops vertices closer than tol to the last kept vertex. The
// polygon is invalidated when its area falls below tol²/4. Decimate mutates
// p and returns it.
func (p *Polygon) Decimate(tol int64) *Polygon {
	if tol <= 0 || len(p.Points) == 0 {
		return p
	}
	tolsq := tol * tol
	ref := p.Points[0]
	kept := []Vector{ref}
	for _, pt := range p.Points[1:] {
		if ref.DistanceSq(pt) < tolsq {
			continue
		}
		kept = append(kept, pt)
		ref = pt
	}
	p.fromPoints(kept, nil)
	if math.Abs(p.Area) < float64(tolsq)/4 || !p.Valid() {
		p.invalidate()
	}
	return p
}
