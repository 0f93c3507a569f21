package mcg

import (
	"fmt"
	"math"
	"strings"
)

// InfillKind selects an infill pattern.
type InfillKind uint8

const (
	InfillNone InfillKind = iota
	// InfillSolid is parallel lines one line width apart.
	InfillSolid
	// InfillLines is parallel lines spaced by line width over density.
	InfillLines
	// InfillGrid is two perpendicular passes of lines.
	InfillGrid
)

var infillNames = [...]string{
	InfillNone:  "none",
	InfillSolid: "solid",
	InfillLines: "lines",
	InfillGrid:  "grid",
}

func (k InfillKind) String() string {
	if int(k) < len(infillNames) {
		return infillNames[k]
	}
	return fmt.Sprintf("InfillKind(%d)", k)
}

// ParseInfillKind parses the name of an infill pattern.
func ParseInfillKind(s string) (InfillKind, error) {
	for i, name := range infillNames {
		if strings.EqualFold(s, name) {
			return InfillKind(i), nil
		}
	}
	return InfillNone, fmt.Errorf("unknown infill type %q", s)
}

func (k InfillKind) MarshalYAML() (interface{}, error) { return k.String(), nil }

func (k *InfillKind) UnmarshalYAML(unmarshal func(interface{}) error) error {
	var s string
	if err := unmarshal(&s); err != nil {
		return err
	}
	v, err := ParseInfillKind(s)
	if err != nil {
		return err
	}
	*k = v
	return nil
}

// InfillAngle is the direction of infill lines relative to the H axis.
const InfillAngle = math.Pi / 4

// Infill fills contour with pattern kind. spacing is the integer space
// distance between lines. Odd parity turns line patterns by 90°; grids
// ignore it.
func Infill(contour *PolygonSet, kind InfillKind, spacing float64, parity int, connect bool) *SegmentSet {
	switch kind {
	case InfillSolid, InfillLines:
		return Linear(contour, InfillAngle, spacing, parity, connect)
	case InfillGrid:
		return Grid(contour, InfillAngle, spacing, connect)
	}
	return NewSegmentSet(contour.Context)
}

// Linear fills contour with parallel lines at angle, spacing integer units
// apart. One line passes through the origin. With connect set the end of a
// line is joined to the start of the next when they are close.
func Linear(contour *PolygonSet, angle, spacing float64, parity int, connect bool) *SegmentSet {
	if parity%2 != 0 {
		angle += math.Pi / 2
	}
	rotated := contour.Clone().Rotate(angle)
	return linearSweep(rotated, spacing, connect, false).Rotate(-angle)
}

// Grid fills contour with two perpendicular passes of Linear lines.
func Grid(contour *PolygonSet, angle, spacing float64, connect bool) *SegmentSet {
	rotated := contour.Clone().Rotate(angle)
	first := linearSweep(rotated, spacing, connect, true)
	rotated.Rotate(math.Pi / 2)
	second := linearSweep(rotated, spacing, connect, true)
	return second.Rotate(-math.Pi / 2).Merge(first).Rotate(-angle)
}

// linearSweep draws vertical lines through c.
func linearSweep(c *PolygonSet, spacing float64, connect, skipIntersections bool) *SegmentSet {
	ctx := c.Context
	if spacing <= 0 {
		spacing = ctx.P
	}
	if c.Count() == 0 {
		return NewSegmentSet(ctx)
	}
	op := &linearInfillOp{
		sweepParams: defaultParams(),
		spacing:     spacing,
		hline:       math.Ceil(float64(c.Min.H)/spacing) * spacing,
		connect:     connect,
		infill:      NewSegmentSet(ctx),
	}
	op.skipIntersections = skipIntersections
	sweep(ctx, op, op.sweepParams, c, nil)
	return op.infill
}
