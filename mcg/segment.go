package mcg

import (
	"gonum.org/v1/gonum/spatial/r3"
)

// Segment is a directed point pair. For closed contours the interior lies to
// the left of P1→P2.
type Segment struct {
	P1, P2 Vector
}

func (s Segment) Valid() bool { return !coincident(s.P1, s.P2) }

func (s Segment) LengthSq() int64 { return s.P1.DistanceSq(s.P2) }

// SegmentSet is an unordered collection of segments on one plane.
type SegmentSet struct {
	Context  *Context
	Segments []Segment
	Min, Max Vector
}

// NewSegmentSet returns an empty set on ctx's plane.
func NewSegmentSet(ctx *Context) *SegmentSet {
	return &SegmentSet{Context: ctx, Min: emptyMin, Max: emptyMax}
}

// Count returns the number of segments.
func (s *SegmentSet) Count() int {
	if s == nil {
		return 0
	}
	return len(s.Segments)
}

// Add appends seg unless its endpoints coincide.
func (s *SegmentSet) Add(seg Segment) {
	if !seg.Valid() {
		return
	}
	s.Segments = append(s.Segments, seg)
	s.Min = s.Min.Min(seg.P1).Min(seg.P2)
	s.Max = s.Max.Max(seg.P1).Max(seg.P2)
}

// AddPointPair adds segment p1→p2.
func (s *SegmentSet) AddPointPair(p1, p2 Vector) { s.Add(Segment{P1: p1, P2: p2}) }

// AddV3Pair adds the segment between two 3D points projected onto the plane.
// When normal is non-zero the points are ordered so the surface the normal
// belongs to lies on the segment's left.
func (s *SegmentSet) AddV3Pair(v1, v2, normal r3.Vec) {
	p1, p2 := s.Context.Vector(v1), s.Context.Vector(v2)
	if coincident(p1, p2) {
		return
	}
	if normal != (r3.Vec{}) {
		c := r3.Cross(s.Context.Axis.Unit(), normal)
		if r3.Dot(c, r3.Sub(v2, v1)) <= 0 {
			p1, p2 = p2, p1
		}
	}
	s.AddPointPair(p1, p2)
}

// ForEachPointPair calls fn with the endpoints of every segment.
func (s *SegmentSet) ForEachPointPair(fn func(p1, p2 Vector)) {
	for _, seg := range s.Segments {
		fn(seg.P1, seg.P2)
	}
}

// Merge appends other's segments to s.
func (s *SegmentSet) Merge(other *SegmentSet) *SegmentSet {
	if other == nil {
		return s
	}
	for _, seg := range other.Segments {
		s.Add(seg)
	}
	return s
}

// Filter keeps the segments for which keep returns true, in place.
func (s *SegmentSet) Filter(keep func(Segment) bool) *SegmentSet {
	kept := s.Segments[:0]
	s.Min, s.Max = emptyMin, emptyMax
	for _, seg := range s.Segments {
		if keep(seg) {
			kept = append(kept, seg)
			s.Min = s.Min.Min(seg.P1).Min(seg.P2)
			s.Max = s.Max.Max(seg.P1).Max(seg.P2)
		}
	}
	s.Segments = kept
	return s
}

// Clone returns a deep copy of s.
func (s *SegmentSet) Clone() *SegmentSet {
	c := *s
	c.Segments = append([]Segment(nil), s.Segments...)
	return &c
}

// Rotate rotates every segment counterclockwise by angle radians in place.
func (s *SegmentSet) Rotate(angle float64) *SegmentSet {
	s.Min, s.Max = emptyMin, emptyMax
	for i, seg := range s.Segments {
		seg.P1, seg.P2 = seg.P1.Rotate(angle), seg.P2.Rotate(angle)
		s.Segments[i] = seg
		s.Min = s.Min.Min(seg.P1).Min(seg.P2)
		s.Max = s.Max.Max(seg.P1).Max(seg.P2)
	}
	return s
}

// ToPolygonSet joins the segments into closed loops. Where several segments
// leave a vertex the loop takes the rightmost turn. Chains that do not close
// are closed implicitly.
func (s *SegmentSet) ToPolygonSet() *PolygonSet {
	ps := NewPolygonSet(s.Context)
	m := newAdjacencyMap()
	for _, seg := range s.Segments {
		m.addSegment(seg.P1, seg.P2)
	}
	for _, loop := range m.loops() {
		p := NewPolygon(s.Context, loop)
		if p.Valid() {
			ps.Add(p)
		}
	}
	return ps
}

// Lines returns each segment lifted to 3D at the context level.
func (s *SegmentSet) Lines() [][2]r3.Vec {
	out := make([][2]r3.Vec, len(s.Segments))
	for i, seg := range s.Segments {
		out[i] = [2]r3.Vec{s.Context.V3(seg.P1), s.Context.V3(seg.P2)}
	}
	return out
}

// Length returns the total float space length.
func (s *SegmentSet) Length() float64 {
	var l float64
	for _, seg := range s.Segments {
		l += seg.P1.Distance(seg.P2)
	}
	return s.Context.Itof(1) * l
}
