package mcg

import "github.com/soypat/meshy"

// maxRequeue bounds how many times a left event is put back in the queue
// after its status neighbours are found out of order.
const maxRequeue = 8

// pointPairer is a sweep operand.
type pointPairer interface {
	ForEachPointPair(fn func(p1, p2 Vector))
}

// operation receives every segment as its right event leaves the sweep.
type operation interface {
	handle(s *sweeper, e int32)
}

type sweepParams struct {
	minDepthA, minDepthB int
	skipIntersections    bool
}

type sweeper struct {
	ctx    *Context
	ev     []event
	queue  eventQueue
	status status
	// front is the farthest event processed so far.
	front  int32
	op     operation
	ct     int
	params sweepParams
}

// sweep runs op over operands a and b (b may be nil) and returns the
// sweeper for the operation to read its results from.
func sweep(ctx *Context, op operation, params sweepParams, a, b pointPairer) *sweeper {
	s := &sweeper{ctx: ctx, front: -1, op: op, params: params}
	s.queue.less = func(x, y int32) bool { return s.sweepcompare(x, y) < 0 }
	s.status.cmp = s.linecompare
	a.ForEachPointPair(func(p1, p2 Vector) { s.addPointPair(p1, p2, 1, 0) })
	if b != nil {
		b.ForEachPointPair(func(p1, p2 Vector) { s.addPointPair(p1, p2, 0, 1) })
	}
	s.run()
	return s
}

func (s *sweeper) run() {
	for s.queue.Len() > 0 {
		ev := s.queue.pop()
		s.updateFront(ev)
		if s.hvcompare(ev, s.front) < 0 {
			meshy.Logger().Debug("mcg: sweep event behind front", "event", s.ev[ev].p, "front", s.ev[s.front].p)
			break
		}
		if s.ev[ev].isLeft() {
			if !s.ev[ev].contributing {
				continue
			}
			s.ev[ev].t = s.ct
			s.ct++
			s.insert(ev)
			up, dn := s.status.adjacent(ev)
			// An event above sharing the start point was placed by an
			// outdated slope order; requeue both.
			if up >= 0 && s.hvcompare(ev, up) == 0 && s.ev[ev].requeued < maxRequeue {
				s.requeue(up)
				s.requeue(ev)
				continue
			}
			s.setDepthFromBelow(ev, dn)
			if !s.params.skipIntersections {
				s.handleIntersection(ev, dn)
				s.handleIntersection(up, ev)
			}
			continue
		}
		tev := s.ev[ev].twin
		if !s.ev[tev].contributing {
			continue
		}
		s.handleRight(ev)
		up, dn := s.status.adjacent(tev)
		s.status.remove(tev)
		if !s.params.skipIntersections {
			s.handleIntersection(up, dn)
		}
	}
}

// createPointPair makes the event pair for p1-p2 without queueing it. The
// weights are those of a p1→p2 edge and flip when p2 comes first.
func (s *sweeper) createPointPair(p1, p2 Vector, wA, wB int) int32 {
	if coincident(p1, p2) {
		return -1
	}
	dir := p1.H < p2.H
	if p1.H == p2.H {
		dir = p1.V < p2.V
	}
	lp, rp := p1, p2
	if !dir {
		lp, rp = p2, p1
		wA, wB = -wA, -wB
	}
	el := s.newEvent(leftEvent, lp)
	er := s.newEvent(rightEvent, rp)
	s.ev[el].weightA, s.ev[el].weightB = wA, wB
	s.ev[el].twin, s.ev[er].twin = er, el
	return el
}

func (s *sweeper) addPointPair(p1, p2 Vector, wA, wB int) {
	el := s.createPointPair(p1, p2, wA, wB)
	if el < 0 {
		return
	}
	s.queue.push(el)
	s.queue.push(s.ev[el].twin)
}

// fixSwapped recreates an event pair whose left event is not before its
// right event, as may happen after a split. It returns the valid left
// event, or -1 if the segment collapsed.
func (s *sweeper) fixSwapped(e int32) int32 {
	te := s.ev[e].twin
	if s.hvcompare(e, te) < 0 {
		return e
	}
	s.invalidate(e)
	el := s.createPointPair(s.ev[te].p, s.ev[e].p, 0, 0)
	if el < 0 {
		return -1
	}
	src, dst := s.ev[e], s.at(el)
	dst.weightA, dst.weightB = -src.weightA, -src.weightB
	dst.depthBelowA = src.depthBelowA + src.weightA
	dst.depthBelowB = src.depthBelowB + src.weightB
	return el
}

func (s *sweeper) queueEvent(e int32) {
	if e >= 0 {
		s.queue.push(e)
	}
}

func (s *sweeper) requeue(e int32) {
	if e < 0 {
		return
	}
	s.status.remove(e)
	s.ev[e].requeued++
	s.queue.push(e)
}

func (s *sweeper) insert(e int32) bool {
	if !s.ev[e].contributing {
		return false
	}
	return s.status.insert(e)
}

func (s *sweeper) invalidate(e int32) { s.ev[e].contributing = false }

// handleRight hands the segment of right event e to the operation and
// retires it.
func (s *sweeper) handleRight(e int32) {
	te := s.ev[e].twin
	s.op.handle(s, te)
	s.invalidate(te)
}

func (s *sweeper) updateFront(e int32) {
	if s.front < 0 || s.hvcompare(e, s.front) > 0 {
		s.front = e
	}
}

// merge folds b into the coincident segment a. It returns -1 if the merged
// weights cancel out.
func (s *sweeper) merge(a, b int32) int32 {
	ea, eb := s.at(a), s.at(b)
	ea.depthBelowA, ea.depthBelowB = eb.depthBelowA, eb.depthBelowB
	ea.weightA += eb.weightA
	ea.weightB += eb.weightB
	eb.contributing = false
	if ea.zeroWeight() {
		ea.contributing = false
		return -1
	}
	return a
}

// split cuts the segment of left event e at pi. e keeps the first part and
// the returned left event starts the second.
func (s *sweeper) split(e int32, pi Vector) int32 {
	te := s.ev[e].twin
	ei := s.clone(te, pi)
	ite := s.clone(e, pi)
	s.ev[e].twin = ei
	s.ev[ei].twin = e
	s.ev[te].twin = ite
	s.ev[ite].twin = te
	s.queue.push(ei)
	return ite
}

// handleIntersection splits left events a (above) and b (below) where they
// cross and merges them where they coincide.
func (s *sweeper) handleIntersection(a, b int32) {
	if a < 0 || b < 0 || !s.ev[a].contributing || !s.ev[b].contributing {
		return
	}
	ta, tb := s.ev[a].twin, s.ev[b].twin
	hvcomp := s.hvcompare(a, b)
	thvcomp := s.hvcompare(ta, tb)
	if hvcomp == 0 && thvcomp == 0 {
		s.status.remove(a)
		s.status.remove(b)
		if a = s.merge(a, b); a >= 0 {
			s.insert(a)
		}
		return
	}

	pa, pta := s.ev[a].p, s.ev[ta].p
	pb, ptb := s.ev[b].p, s.ev[tb].p
	flags := intersect(pa, pta, pb, ptb)
	if flags == ixNone {
		return
	}
	if !s.horizontal(a) && !s.horizontal(b) {
		if max(pa.V, pta.V) < min(pb.V, ptb.V) || max(pb.V, ptb.V) < min(pa.V, pta.V) {
			return
		}
	}

	var pi Vector
	found := false
	switch {
	case flags == ixIntermediate:
		if !coincident(pa, pb) && !coincident(pta, ptb) {
			pi, found = intersection(pa, pta, pb, ptb)
		}
	case hvcomp != 0 && flags&ixA0B0 != 0:
		ia0, ib0 := flags&ixA0 != 0, flags&ixB0 != 0
		found = true
		switch {
		case ia0 && ib0 && hvcomp > 0, ia0 && !ib0:
			pi = pa
		default:
			pi = pb
		}
	case thvcomp != 0 && flags&ixA1B1 != 0:
		ia1, ib1 := flags&ixA1 != 0, flags&ixB1 != 0
		found = true
		switch {
		case ia1 && ib1 && thvcomp > 0, ib1 && !ia1:
			pi = ptb
		default:
			pi = pta
		}
	}
	if !found {
		return
	}

	// An intersection behind the front is moved just past it.
	if s.ev[s.front].p.HVCompare(pi) > 0 {
		h := max(pi.H, s.ev[s.front].p.H) + 1
		t := b
		if s.vertical(b) {
			t = a
		}
		pi = s.interpolate(t, float64(h))
	}
	ca, cta := coincident(pi, pa), coincident(pi, pta)
	cb, ctb := coincident(pi, pb), coincident(pi, ptb)

	// Positions in the status may change after splitting.
	rma := s.status.remove(a)
	rmb := s.status.remove(b)
	if !(ca || cta) {
		ita := s.split(a, pi)
		a = s.fixSwapped(a)
		if ita = s.fixSwapped(ita); ita >= 0 {
			s.queue.push(ita)
			s.queue.push(s.ev[ita].twin)
		}
	}
	if !(cb || ctb) {
		itb := s.split(b, pi)
		b = s.fixSwapped(b)
		if itb = s.fixSwapped(itb); itb >= 0 {
			s.queue.push(itb)
			s.queue.push(s.ev[itb].twin)
		}
	}
	if a < 0 || b < 0 {
		return
	}
	ta, tb = s.ev[a].twin, s.ev[b].twin
	if coincident(s.ev[a].p, s.ev[b].p) && coincident(s.ev[ta].p, s.ev[tb].p) {
		if a = s.merge(a, b); a >= 0 {
			s.insert(a)
		}
		return
	}

	var ia, ib bool
	switch {
	case s.hvcompare(s.front, ta) >= 0:
		// a lies entirely in the past.
		s.handleRight(ta)
	case ca:
		// a was split by b and may carry a stale depth.
		s.queue.push(a)
	case rma:
		ia = s.insert(a)
	}
	switch {
	case s.hvcompare(s.front, tb) >= 0:
		s.handleRight(tb)
	case cb:
		s.queue.push(b)
	case rmb:
		ib = s.insert(b)
	}

	// Events reinserted at a shared start point may no longer be neighbours;
	// recompute the depths of everything that now lies between them.
	if ia && ib && s.status.above(b) != a {
		nb := s.status.node(b)
		prev := int32(-1)
		if pv := nb.prev(); pv != nil {
			prev = pv.ev
		}
		for n := nb; n != nil && n.ev != a && s.vlinecompare(n.ev, b) == 0; n = n.next() {
			s.setDepthFromBelow(n.ev, prev)
			prev = n.ev
		}
	}
}
