package mcg

// Boolean operations share one sweep and differ only in which segments they
// keep. Each inspects a segment's position against both operands once the
// segment's winding depths are final.

type unionOp struct {
	sweepParams
	union *SegmentSet
}

func (op *unionOp) handle(s *sweeper, e int32) {
	pos := s.position(e, op.minDepthA, op.minDepthB)
	inside := pos&(posInsideA|posInsideB) != 0
	boundary := pos&(posBoundaryA|posBoundaryB) != 0
	if !inside && boundary && pos&posFromAtoB == 0 {
		s.addSegment(e, op.union, false, s.weight(e))
	}
}

type intersectionOp struct {
	sweepParams
	intersection *SegmentSet
}

func (op *intersectionOp) handle(s *sweeper, e int32) {
	pos := s.position(e, op.minDepthA, op.minDepthB)
	inside := pos&(posInsideA|posInsideB) != 0
	bA, bB := pos&posBoundaryA != 0, pos&posBoundaryB != 0
	switch {
	case bA && bB && pos&posFromAtoB == 0:
		s.addSegment(e, op.intersection, false, s.weight(e))
	case inside && (bA || bB):
		s.addSegment(e, op.intersection, false, s.weight(e))
	}
}

// intersectionOpenOp keeps the parts of open operand B inside closed
// operand A.
type intersectionOpenOp struct {
	sweepParams
	intersection *SegmentSet
}

func (op *intersectionOpenOp) handle(s *sweeper, e int32) {
	pos := s.position(e, op.minDepthA, op.minDepthB)
	if pos&posInsideA != 0 && s.ev[e].weightB != 0 {
		s.addSegment(e, op.intersection, false, s.weight(e))
	}
}

type differenceOp struct {
	sweepParams
	difference *SegmentSet
}

func (op *differenceOp) handle(s *sweeper, e int32) {
	pos := s.position(e, op.minDepthA, op.minDepthB)
	inside := pos&(posInsideA|posInsideB) != 0
	bA, bB := pos&posBoundaryA != 0, pos&posBoundaryB != 0
	switch {
	case bA && bB:
		if pos&posFromAtoB != 0 {
			s.addSegment(e, op.difference, false, s.ev[e].weightA)
		}
	case !inside && bA:
		s.addSegment(e, op.difference, false, s.weight(e))
	case inside && bB:
		s.addSegment(e, op.difference, true, s.weight(e))
	}
}

type fullDifferenceOp struct {
	sweepParams
	aMinusB, bMinusA, intersection *SegmentSet
}

func (op *fullDifferenceOp) handle(s *sweeper, e int32) {
	pos := s.position(e, op.minDepthA, op.minDepthB)
	inside := pos&(posInsideA|posInsideB) != 0
	bA, bB := pos&posBoundaryA != 0, pos&posBoundaryB != 0
	w := s.weight(e)
	if bA && bB {
		if pos&posFromAtoB != 0 {
			s.addSegment(e, op.aMinusB, false, s.ev[e].weightA)
			s.addSegment(e, op.bMinusA, false, s.ev[e].weightB)
		} else {
			s.addSegment(e, op.intersection, false, w)
		}
		return
	}
	if !inside && bA {
		s.addSegment(e, op.aMinusB, false, w)
	}
	if inside && bB {
		s.addSegment(e, op.aMinusB, true, w)
		s.addSegment(e, op.intersection, false, w)
	}
	if !inside && bB {
		s.addSegment(e, op.bMinusA, false, w)
	}
	if inside && bA {
		s.addSegment(e, op.bMinusA, true, w)
		s.addSegment(e, op.intersection, false, w)
	}
}

// linearInfillOp draws vertical lines spaced spacing apart through the
// interior of operand A. Lines are emitted as the sweep passes them, so
// the status holds exactly the segments crossing each line.
type linearInfillOp struct {
	sweepParams
	spacing float64
	// hline is the position of the next line.
	hline   float64
	lineidx int
	connect bool
	prevEnd Vector
	hasPrev bool
	infill  *SegmentSet
}

func (op *linearInfillOp) handle(s *sweeper, e int32) {
	h, ht := float64(s.ev[e].p.H), float64(s.twinP(e).H)
	if h == ht || op.hline >= ht {
		return
	}
	maxConnectSq := 2 * op.spacing * op.spacing
	for op.hline <= ht {
		even := op.lineidx%2 == 0
		prev := int32(-1)
		var end Vector
		hasEnd := false
		// Alternate the direction lines are drawn in.
		s.status.ascend(!even, func(curr int32) {
			if !s.hcontains(curr, op.hline) {
				return
			}
			if prev < 0 {
				prev = curr
				return
			}
			c, p := s.at(curr), s.at(prev)
			var write bool
			if even {
				write = c.depthBelowA > 0 && p.depthBelowA+p.weightA > 0
			} else {
				write = c.depthBelowA+c.weightA > 0 && p.depthBelowA > 0
			}
			if write {
				p1 := s.interpolate(prev, op.hline)
				p2 := s.interpolate(curr, op.hline)
				if op.connect && !hasEnd && op.hasPrev && float64(op.prevEnd.DistanceSq(p1)) <= maxConnectSq {
					op.infill.AddPointPair(op.prevEnd, p1)
				}
				op.infill.AddPointPair(p1, p2)
				end, hasEnd = p2, true
			}
			prev = -1
		})
		op.prevEnd, op.hasPrev = end, hasEnd
		op.hline += op.spacing
		op.lineidx++
	}
}
