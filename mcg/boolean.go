package mcg

func defaultParams() sweepParams {
	return sweepParams{minDepthA: 1, minDepthB: 1}
}

// Union returns the region covered by a or b. With b nil it resolves the
// self intersections and overlaps of a.
func Union(a, b *PolygonSet) *PolygonSet {
	if a == nil {
		return nil
	}
	return unionSegments(a.Context, a, optional(b)).ToPolygonSet()
}

func unionSegments(ctx *Context, a, b pointPairer) *SegmentSet {
	op := &unionOp{sweepParams: defaultParams(), union: NewSegmentSet(ctx)}
	sweep(ctx, op, op.sweepParams, a, b)
	return op.union
}

// Intersection returns the region covered by both a and b.
func Intersection(a, b *PolygonSet) *PolygonSet {
	if a.Count() == 0 || b.Count() == 0 {
		return NewPolygonSet(a.Context)
	}
	op := &intersectionOp{sweepParams: defaultParams(), intersection: NewSegmentSet(a.Context)}
	sweep(a.Context, op, op.sweepParams, a, b)
	return op.intersection.ToPolygonSet()
}

// IntersectionOpen clips open segments b to the interior of a.
func IntersectionOpen(a *PolygonSet, b *SegmentSet) *SegmentSet {
	if a.Count() == 0 || b.Count() == 0 {
		return NewSegmentSet(a.Context)
	}
	op := &intersectionOpenOp{sweepParams: defaultParams(), intersection: NewSegmentSet(a.Context)}
	sweep(a.Context, op, op.sweepParams, a, b)
	return op.intersection
}

// Difference returns the region covered by a but not b. If b is empty a
// copy of a is returned.
func Difference(a, b *PolygonSet) *PolygonSet {
	if a.Count() == 0 {
		return NewPolygonSet(a.Context)
	}
	if b.Count() == 0 {
		return a.Clone()
	}
	op := &differenceOp{sweepParams: defaultParams(), difference: NewSegmentSet(a.Context)}
	sweep(a.Context, op, op.sweepParams, a, b)
	return op.difference.ToPolygonSet()
}

// FullDifference computes a−b, b−a and a∩b in one sweep. A point is inside
// b where b's winding number is at least minDepthB, so b may be several
// overlapping sets merged together. Non-positive minDepthB means one.
func FullDifference(a, b *PolygonSet, minDepthB int) (aMinusB, bMinusA, both *PolygonSet) {
	ctx := a.Context
	switch {
	case a.Count() == 0:
		return NewPolygonSet(ctx), cloneOrEmpty(ctx, b), NewPolygonSet(ctx)
	case b.Count() == 0:
		return a.Clone(), NewPolygonSet(ctx), NewPolygonSet(ctx)
	}
	params := defaultParams()
	if minDepthB > 0 {
		params.minDepthB = minDepthB
	}
	op := &fullDifferenceOp{
		sweepParams:  params,
		aMinusB:      NewSegmentSet(ctx),
		bMinusA:      NewSegmentSet(ctx),
		intersection: NewSegmentSet(ctx),
	}
	sweep(ctx, op, op.sweepParams, a, b)
	return op.aMinusB.ToPolygonSet(), op.bMinusA.ToPolygonSet(), op.intersection.ToPolygonSet()
}

func cloneOrEmpty(ctx *Context, ps *PolygonSet) *PolygonSet {
	if ps == nil {
		return NewPolygonSet(ctx)
	}
	return ps.Clone()
}

// optional avoids passing a typed nil pointer as a non-nil interface.
func optional(ps *PolygonSet) pointPairer {
	if ps == nil {
		return nil
	}
	return ps
}
