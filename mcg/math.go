package mcg

// Area returns the signed area of triangle a-b-c, positive when
// counterclockwise.
func Area(a, b, c Vector) float64 {
	return float64(cross3(a, b, c)) / 2
}

// cross3 is twice the signed area of a-b-c.
func cross3(a, b, c Vector) int64 {
	return (c.H-b.H)*(a.V-b.V) - (c.V-b.V)*(a.H-b.H)
}

func coincident(a, b Vector) bool { return a == b }

// distanceToLineSq returns the squared distance from p to the line through a
// and b.
func distanceToLineSq(a, b, p Vector) int64 {
	ab := a.Sub(b)
	ap := a.Sub(p)
	dot := ab.Dot(ap)
	if dot == 0 {
		return ap.LengthSq()
	}
	proj := ab.Scale(float64(dot) / float64(ab.LengthSq()))
	return proj.DistanceSq(ap)
}

// leftCompare returns 1 if c is left of a-b, -1 if right and 0 when c is
// within snapping distance of the line.
func leftCompare(a, b, c Vector) int {
	if distanceToLineSq(a, b, c) <= 2 {
		return 0
	}
	return sign(cross3(a, b, c))
}

// leftCompareStrict is leftCompare without snapping tolerance.
func leftCompareStrict(a, b, c Vector) int {
	return sign(cross3(a, b, c))
}

// collinear reports whether b lies on a-c for consecutive vertices a, b, c.
func collinear(a, b, c Vector) bool {
	return leftCompare(a, c, b) == 0
}

func left(a, b, c Vector) bool { return leftCompare(a, b, c) > 0 }

// intersectFlags classify how segment a0-a1 touches b0-b1.
type intersectFlags uint8

const (
	ixNone         intersectFlags = 0
	ixIntermediate intersectFlags = 1
	ixA0           intersectFlags = 2
	ixA1           intersectFlags = 4
	ixB0           intersectFlags = 8
	ixB1           intersectFlags = 16

	ixA0B0 = ixA0 | ixB0
	ixA1B1 = ixA1 | ixB1
)

// intersect classifies the intersection of a-b and c-d. Endpoint flags are
// set when an endpoint lies on the other segment.
func intersect(a, b, c, d Vector) intersectFlags {
	labc, labd := leftCompare(a, b, c), leftCompare(a, b, d)
	lcda, lcdb := leftCompare(c, d, a), leftCompare(c, d, b)
	abBetween := labc != labd || labc == 0
	cdBetween := lcda != lcdb || lcda == 0
	var flags intersectFlags
	if labc == 0 && cdBetween {
		flags |= ixB0
	}
	if labd == 0 && cdBetween {
		flags |= ixB1
	}
	if lcda == 0 && abBetween {
		flags |= ixA0
	}
	if lcdb == 0 && abBetween {
		flags |= ixA1
	}
	if flags == ixNone && abBetween && cdBetween {
		flags = ixIntermediate
	}
	return flags
}

// intersection returns the crossing point of a0-a1 and b0-b1 rounded to the
// grid. It returns false for parallel segments or when the rounded point
// falls outside a's extent.
func intersection(a0, a1, b0, b1 Vector) (Vector, bool) {
	d := a0.H*(b1.V-b0.V) + a1.H*(b0.V-b1.V) + b1.H*(a1.V-a0.V) + b0.H*(a0.V-a1.V)
	if d == 0 {
		return Vector{}, false
	}
	n := a0.H*(b1.V-b0.V) + b0.H*(a0.V-b1.V) + b1.H*(b0.V-a0.V)
	ixn := a0.AddScaled(a0.To(a1), float64(n)/float64(d))
	if !inRange(ixn.H, a0.H, a1.H) || !inRange(ixn.V, a0.V, a1.V) {
		return Vector{}, false
	}
	return ixn, true
}

func inRange(x, a, b int64) bool {
	return x >= min(a, b) && x <= max(a, b)
}

// orthogonalRight returns a vector right of d with length l, or zero if d
// is zero.
func orthogonalRight(d Vector, l float64) Vector {
	return Vector{H: d.V, V: -d.H}.Normalize(l)
}

// bisector returns the unit (length p) bisector of a-b and b-c pointing to
// the right of both segments.
func bisector(a, b, c Vector, p float64) Vector {
	abr := orthogonalRight(a.To(b), p)
	bcr := orthogonalRight(b.To(c), p)
	return abr.Add(bcr).Normalize(p)
}
