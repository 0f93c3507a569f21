package mcg

import "gonum.org/v1/gonum/spatial/r3"

// PolygonSet is a collection of polygons on one plane. Holes are polygons
// with negative area; the set's interior is where the winding number is
// positive.
type PolygonSet struct {
	Context  *Context
	Polygons []*Polygon
	Min, Max Vector
}

// NewPolygonSet returns an empty set on ctx's plane.
func NewPolygonSet(ctx *Context) *PolygonSet {
	return &PolygonSet{Context: ctx, Min: emptyMin, Max: emptyMax}
}

// Add appends p if it is valid.
func (ps *PolygonSet) Add(p *Polygon) *PolygonSet {
	if p == nil || !p.Valid() {
		return ps
	}
	ps.Polygons = append(ps.Polygons, p)
	ps.Min = ps.Min.Min(p.Min)
	ps.Max = ps.Max.Max(p.Max)
	return ps
}

// Count returns the number of polygons.
func (ps *PolygonSet) Count() int {
	if ps == nil {
		return 0
	}
	return len(ps.Polygons)
}

// PointCount returns the number of vertices over all polygons.
func (ps *PolygonSet) PointCount() int {
	n := 0
	for _, p := range ps.Polygons {
		n += p.Count()
	}
	return n
}

// ForEachPointPair calls fn for every edge of every polygon.
func (ps *PolygonSet) ForEachPointPair(fn func(p1, p2 Vector)) {
	for _, p := range ps.Polygons {
		p.ForEachPointPair(fn)
	}
}

// Area returns the signed area in float space units.
func (ps *PolygonSet) Area() float64 {
	var a float64
	for _, p := range ps.Polygons {
		a += p.Area
	}
	return a / (ps.Context.P * ps.Context.P)
}

// Perimeter returns the total boundary length in float space units.
func (ps *PolygonSet) Perimeter() float64 {
	var l float64
	for _, p := range ps.Polygons {
		l += p.Perimeter()
	}
	return l / ps.Context.P
}

// FOffset offsets every polygon by fdist in float space, dropping polygons
// that vanish. See Polygon.Offset.
func (ps *PolygonSet) FOffset(fdist, ftol float64) *PolygonSet {
	return ps.Offset(ps.Context.Ftoi(fdist), ps.Context.Ftoi(ftol))
}

// Offset offsets every polygon by dist integer units.
func (ps *PolygonSet) Offset(dist, tol int64) *PolygonSet {
	out := NewPolygonSet(ps.Context)
	for _, p := range ps.Polygons {
		out.Add(p.Offset(dist, tol))
	}
	return out
}

// FDecimate decimates every polygon with a float space tolerance and drops
// those that become invalid. It mutates ps.
func (ps *PolygonSet) FDecimate(ftol float64) *PolygonSet {
	return ps.Decimate(ps.Context.Ftoi(ftol))
}

// Decimate is FDecimate in integer units.
func (ps *PolygonSet) Decimate(tol int64) *PolygonSet {
	for _, p := range ps.Polygons {
		p.Decimate(tol)
	}
	return ps.Filter(func(p *Polygon) bool { return p.Valid() })
}

// FilterSlivers drops polygons whose area to perimeter ratio is below tol
// integer units. See Polygon.IsSliver.
func (ps *PolygonSet) FilterSlivers(tol float64) *PolygonSet {
	return ps.Filter(func(p *Polygon) bool { return !p.IsSliver(tol) })
}

// Filter keeps the polygons for which keep returns true, in place.
func (ps *PolygonSet) Filter(keep func(*Polygon) bool) *PolygonSet {
	kept := ps.Polygons[:0]
	ps.Min, ps.Max = emptyMin, emptyMax
	for _, p := range ps.Polygons {
		if keep(p) {
			kept = append(kept, p)
			ps.Min = ps.Min.Min(p.Min)
			ps.Max = ps.Max.Max(p.Max)
		}
	}
	for i := len(kept); i < len(ps.Polygons); i++ {
		ps.Polygons[i] = nil
	}
	ps.Polygons = kept
	return ps
}

// Clone returns a deep copy of ps.
func (ps *PolygonSet) Clone() *PolygonSet {
	c := NewPolygonSet(ps.Context)
	for _, p := range ps.Polygons {
		c.Add(p.Clone())
	}
	return c
}

// Merge appends other's polygons to ps without resolving overlaps.
func (ps *PolygonSet) Merge(other *PolygonSet) *PolygonSet {
	if other == nil {
		return ps
	}
	for _, p := range other.Polygons {
		ps.Add(p)
	}
	return ps
}

// Rotate rotates every polygon counterclockwise by angle radians in place.
func (ps *PolygonSet) Rotate(angle float64) *PolygonSet {
	ps.Min, ps.Max = emptyMin, emptyMax
	for _, p := range ps.Polygons {
		p.Rotate(angle)
		ps.Min = ps.Min.Min(p.Min)
		ps.Max = ps.Max.Max(p.Max)
	}
	return ps
}

// ToSegmentSet returns the polygon edges as a segment set.
func (ps *PolygonSet) ToSegmentSet() *SegmentSet {
	s := NewSegmentSet(ps.Context)
	ps.ForEachPointPair(s.AddPointPair)
	return s
}

// Loops returns every polygon lifted to 3D at the context level.
func (ps *PolygonSet) Loops() [][]r3.Vec {
	out := make([][]r3.Vec, len(ps.Polygons))
	for i, p := range ps.Polygons {
		out[i] = p.Vertices()
	}
	return out
}
