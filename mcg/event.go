package mcg

import "fmt"

type eventKind uint8

const (
	rightEvent eventKind = iota
	leftEvent
)

// event is one endpoint of a segment in the sweep. Left and right events of
// a segment reference each other through twin. Events live in the sweeper's
// arena and are referenced by index.
type event struct {
	kind eventKind
	p    Vector
	// parent is the event this one was split from, or itself.
	parent int32
	twin   int32

	// Fields below are only maintained on left events.

	// depthBelow is the winding number of each operand just below the
	// segment; weight is the change in winding number across it.
	depthBelowA, depthBelowB int
	weightA, weightB         int
	contributing             bool
	// t is the insertion time into the status, used to place newer events
	// above older collinear ones.
	t        int
	requeued int
}

func (e *event) isLeft() bool { return e.kind == leftEvent }

func (e *event) zeroWeight() bool { return e.weightA == 0 && e.weightB == 0 }

// positionFlags describe where a left event's segment lies relative to the
// two operands.
type positionFlags uint8

const (
	posInsideA positionFlags = 1 << iota
	posInsideB
	posBoundaryA
	posBoundaryB
	posFromAtoB
)

func (s *sweeper) at(i int32) *event { return &s.ev[i] }

func (s *sweeper) newEvent(kind eventKind, p Vector) int32 {
	id := int32(len(s.ev))
	s.ev = append(s.ev, event{kind: kind, p: p, parent: id, twin: -1, contributing: kind == leftEvent, t: -1})
	return id
}

// clone copies src with point p under a new id.
func (s *sweeper) clone(src int32, p Vector) int32 {
	e := s.ev[src]
	e.p = p
	e.t = -1
	e.requeued = 0
	s.ev = append(s.ev, e)
	return int32(len(s.ev) - 1)
}

func (s *sweeper) twinP(i int32) Vector { return s.ev[s.ev[i].twin].p }

func (s *sweeper) vertical(i int32) bool { return s.ev[i].p.H == s.twinP(i).H }

func (s *sweeper) horizontal(i int32) bool { return s.ev[i].p.V == s.twinP(i).V }

func (s *sweeper) leftOf(i int32) int32 {
	if s.ev[i].isLeft() {
		return i
	}
	return s.ev[i].twin
}

func (s *sweeper) hvcompare(a, b int32) int { return s.ev[a].p.HVCompare(s.ev[b].p) }

// lrcompare puts right events first.
func (s *sweeper) lrcompare(a, b int32) int {
	la, lb := s.ev[a].isLeft(), s.ev[b].isLeft()
	switch {
	case !la && lb:
		return -1
	case la && !lb:
		return 1
	}
	return 0
}

// scompare compares the slopes of two segments sharing at least one point.
// a's slope is greater if a's far end is above b.
func (s *sweeper) scompare(a, b int32) int {
	a, b = s.leftOf(a), s.leftOf(b)
	va, vb := s.vertical(a), s.vertical(b)
	switch {
	case va && vb:
		return 0
	case !va && vb:
		return -1
	case va && !vb:
		return 1
	}
	pa, pta := s.ev[a].p, s.twinP(a)
	pb, ptb := s.ev[b].p, s.twinP(b)
	if coincident(pa, pb) {
		return leftCompareStrict(pb, ptb, pta)
	}
	lta := leftCompare(pb, ptb, pta)
	ltb := leftCompare(pa, pta, ptb)
	if lta == -1 || ltb == 1 {
		return -1
	}
	if lta == 1 || ltb == -1 {
		return 1
	}
	la := leftCompare(pb, ptb, pa)
	lb := leftCompare(pa, pta, pb)
	if la == 1 || lb == -1 {
		return -1
	}
	if la == -1 || lb == 1 {
		return 1
	}
	return 0
}

// pcompare compares the extents of the segments the events were split from.
func (s *sweeper) pcompare(a, b int32) int {
	cmp := Vector.HCompare
	if s.vertical(a) || s.vertical(b) {
		cmp = Vector.VCompare
	}
	if c := cmp(s.ev[s.ev[a].parent].p, s.ev[s.ev[b].parent].p); c != 0 {
		return c
	}
	ta, tb := s.ev[a].twin, s.ev[b].twin
	return cmp(s.ev[s.ev[ta].parent].p, s.ev[s.ev[tb].parent].p)
}

// sweepcompare is the queue order: left to right, bottom to top, right
// events before left events, then by slope.
func (s *sweeper) sweepcompare(a, b int32) int {
	if a == b {
		return 0
	}
	if c := s.hvcompare(a, b); c != 0 {
		return c
	}
	if c := s.lrcompare(a, b); c != 0 {
		return c
	}
	if c := s.scompare(a, b); c != 0 {
		return c
	}
	if c := s.pcompare(a, b); c != 0 {
		return c
	}
	return sign(int(a) - int(b))
}

// linecompare is the status order of two left events along the vertical
// line through the later one's start.
func (s *sweeper) linecompare(a, b int32) int {
	if a == b {
		return 0
	}
	if c := s.vlinecompare(a, b); c != 0 {
		return c
	}
	if c := s.scompare(a, b); c != 0 {
		return c
	}
	if c := sign(s.ev[a].t - s.ev[b].t); c != 0 {
		return c
	}
	if c := s.pcompare(a, b); c != 0 {
		return c
	}
	return sign(int(a) - int(b))
}

func (s *sweeper) vlinecompare(a, b int32) int {
	pa, pta := s.ev[a].p, s.twinP(a)
	pb, ptb := s.ev[b].p, s.twinP(b)
	switch {
	case pa.H == pb.H:
		return pa.VCompare(pb)
	case pa.H == ptb.H:
		return pa.VCompare(ptb)
	case pta.H == pb.H:
		return pta.VCompare(pb)
	}
	if max(pa.V, pta.V) < min(pb.V, ptb.V) {
		return -1
	}
	if max(pb.V, ptb.V) < min(pa.V, pta.V) {
		return 1
	}
	f, sec := a, b
	if pa.H > pb.H {
		f, sec = b, a
	}
	ps := s.ev[sec].p
	v := s.interpolate(f, float64(ps.H)).V
	result := sign(ps.V - v)
	if pa.H < pb.H {
		result = -result
	}
	return result
}

// interpolate returns the point of the segment at horizontal coordinate h.
func (s *sweeper) interpolate(i int32, h float64) Vector {
	pa, pat := s.ev[i].p, s.twinP(i)
	if pa.H == pat.H {
		return Vec(h, float64(pa.V))
	}
	v := float64(pa.V) + float64(pat.V-pa.V)*(h-float64(pa.H))/float64(pat.H-pa.H)
	return Vec(h, v)
}

func (s *sweeper) hcontains(i int32, h float64) bool {
	return float64(s.ev[i].p.H) <= h && h <= float64(s.twinP(i).H)
}

func (s *sweeper) setDepthFromBelow(i, below int32) {
	e := s.at(i)
	if below < 0 {
		e.depthBelowA, e.depthBelowB = 0, 0
		return
	}
	b := s.at(below)
	e.depthBelowA = b.depthBelowA + b.weightA
	e.depthBelowB = b.depthBelowB + b.weightB
}

// position classifies a left event against minimum winding depths mdA and
// mdB. Zero depths default to one.
func (s *sweeper) position(i int32, mdA, mdB int) positionFlags {
	if mdA == 0 {
		mdA = 1
	}
	if mdB == 0 {
		mdB = 1
	}
	e := s.at(i)
	if !e.contributing {
		return 0
	}
	dbA, daA := e.depthBelowA, e.depthBelowA+e.weightA
	dbB, daB := e.depthBelowB, e.depthBelowB+e.weightB
	boundaryA := (daA < mdA && dbA >= mdA) || (daA >= mdA && dbA < mdA)
	boundaryB := (daB < mdB && dbB >= mdB) || (daB >= mdB && dbB < mdB)
	var pos positionFlags
	if dbA >= mdA && daA >= mdA {
		pos |= posInsideA
	}
	if dbB >= mdB && daB >= mdB {
		pos |= posInsideB
	}
	if boundaryA {
		pos |= posBoundaryA
	}
	if boundaryB {
		pos |= posBoundaryB
	}
	if boundaryA && boundaryB && sign(e.weightA) == -sign(e.weightB) {
		pos |= posFromAtoB
	}
	return pos
}

// addSegment writes the left event's segment to set, oriented so the
// operand with weight w lies on its left.
func (s *sweeper) addSegment(i int32, set *SegmentSet, invert bool, w int) {
	pf, ps := s.ev[i].p, s.twinP(i)
	if w < 0 {
		pf, ps = ps, pf
	}
	if invert {
		pf, ps = ps, pf
	}
	set.AddPointPair(pf, ps)
}

func (s *sweeper) weight(i int32) int { return s.ev[i].weightA + s.ev[i].weightB }

func (s *sweeper) String() string {
	var str string
	s.status.ascend(false, func(e int32) {
		str += fmt.Sprintf("%d%v-%v ", e, s.ev[e].p, s.twinP(e))
	})
	return "[" + str + "]"
}
