package slicer

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"

	"github.com/soypat/meshy/mcg"
	"gonum.org/v1/gonum/spatial/r3"
)

// Stage names a derived product of a layer. Each stage is computed from the
// one before it.
type Stage uint8

const (
	// StageSource is the raw cross section of the mesh. It is never derived.
	StageSource Stage = iota
	StageBase
	StageWalls
	StageInfillContour
	StageDisjointContours
	StageInfill
)

func (s Stage) String() string {
	switch s {
	case StageSource:
		return "source"
	case StageBase:
		return "base"
	case StageWalls:
		return "walls"
	case StageInfillContour:
		return "infillContour"
	case StageDisjointContours:
		return "disjointContours"
	case StageInfill:
		return "infill"
	}
	return fmt.Sprintf("Stage(%d)", int(s))
}

// Disjoint splits the infill contour of a layer into regions that get the
// configured infill and regions exposed above or below that are filled
// solid.
type Disjoint struct {
	Inner, Solid *mcg.PolygonSet
}

// Infill holds the infill lines of a layer.
type Infill struct {
	Inner, Solid *mcg.SegmentSet
}

type layerParams struct {
	lineWidth         float64
	numWalls          int
	numTopLayers      int
	optimizeTopLayers bool
	infillType        mcg.InfillKind
	infillDensity     float64
	infillOverlap     float64
	connectLines      bool
}

// generation numbers every stage computation in the process so a stage can
// tell whether its inputs were recomputed since it last ran.
var generation atomic.Uint64

// stage memoizes a value together with the key of the inputs it was
// computed from.
type stage[T any, K comparable] struct {
	ready bool
	key   K
	gen   uint64
	val   T
}

func (s *stage[T, K]) get(key K, compute func() T) (T, uint64) {
	if !s.ready || s.key != key {
		s.val = compute()
		s.key = key
		s.gen = generation.Add(1)
		s.ready = true
	}
	return s.val, s.gen
}

func (s *stage[T, K]) unready() {
	var zero T
	s.ready = false
	s.val = zero
}

type baseKey struct {
	lineWidth float64
}

type wallsKey struct {
	base      uint64
	lineWidth float64
	numWalls  int
}

type contourKey struct {
	from      uint64
	lineWidth float64
	overlap   float64
}

type disjointKey struct {
	contour      uint64
	neighbours   uint64
	numTopLayers int
	optimize     bool
}

type infillKey struct {
	from      uint64
	lineWidth float64
	density   float64
	kind      mcg.InfillKind
	connect   bool
}

// Layer is one slice of the mesh. Its stages are computed lazily and cached
// until a parameter they depend on changes. Layer is safe for concurrent
// use. Returned geometry is shared with the cache and must not be modified.
type Layer struct {
	mu     sync.Mutex
	idx    int
	ctx    *mcg.Context
	stack  []*Layer
	params layerParams
	source *mcg.SegmentSet
	// fixedBase replaces the base stage of raft layers.
	fixedBase *mcg.PolygonSet

	base          stage[*mcg.PolygonSet, baseKey]
	walls         stage[[]*mcg.PolygonSet, wallsKey]
	infillContour stage[*mcg.PolygonSet, contourKey]
	disjoint      stage[Disjoint, disjointKey]
	infill        stage[Infill, infillKey]
}

func newLayer(idx int, ctx *mcg.Context, stack []*Layer, p layerParams) *Layer {
	return &Layer{idx: idx, ctx: ctx, stack: stack, params: p, source: mcg.NewSegmentSet(ctx)}
}

// Index returns the position of the layer in its stack.
func (l *Layer) Index() int { return l.idx }

// Context returns the plane the layer lies on.
func (l *Layer) Context() *mcg.Context { return l.ctx }

// Source returns the segments cut from the mesh.
func (l *Layer) Source() *mcg.SegmentSet { return l.source }

// Ready reports whether s is cached.
func (l *Layer) Ready(s Stage) bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	switch s {
	case StageSource:
		return true
	case StageBase:
		return l.base.ready
	case StageWalls:
		return l.walls.ready
	case StageInfillContour:
		return l.infillContour.ready
	case StageDisjointContours:
		return l.disjoint.ready
	case StageInfill:
		return l.infill.ready
	}
	return false
}

// Unready drops stage s and every stage derived from it.
func (l *Layer) Unready(s Stage) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.unready(s)
}

func (l *Layer) unready(s Stage) {
	switch s {
	case StageSource, StageBase:
		l.base.unready()
		fallthrough
	case StageWalls:
		l.walls.unready()
		fallthrough
	case StageInfillContour:
		l.infillContour.unready()
		fallthrough
	case StageDisjointContours:
		l.disjoint.unready()
		fallthrough
	case StageInfill:
		l.infill.unready()
	}
}

// setParams replaces the stage parameters and drops the first stage that
// depends on a changed value.
func (l *Layer) setParams(p layerParams) {
	l.mu.Lock()
	defer l.mu.Unlock()
	old := l.params
	l.params = p
	switch {
	case old.lineWidth != p.lineWidth:
		l.unready(StageBase)
	case old.numWalls != p.numWalls:
		l.unready(StageWalls)
	case old.infillOverlap != p.infillOverlap:
		l.unready(StageInfillContour)
	case old.numTopLayers != p.numTopLayers || old.optimizeTopLayers != p.optimizeTopLayers:
		l.unready(StageDisjointContours)
	case old != p:
		l.unready(StageInfill)
	}
}

func (l *Layer) snapshot() layerParams {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.params
}

// Base returns the decimated and unified cross section.
func (l *Layer) Base() *mcg.PolygonSet {
	l.mu.Lock()
	defer l.mu.Unlock()
	base, _ := l.baseLocked(l.params)
	return base
}

// Walls returns the wall contours from the outermost in.
func (l *Layer) Walls() []*mcg.PolygonSet {
	l.mu.Lock()
	defer l.mu.Unlock()
	walls, _ := l.wallsLocked(l.params)
	return walls
}

// InfillContour returns the region left for infill inside the walls.
func (l *Layer) InfillContour() *mcg.PolygonSet {
	contour, _ := l.infillContourGen()
	return contour
}

func (l *Layer) infillContourGen() (*mcg.PolygonSet, uint64) {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.infillContourLocked(l.params)
}

// DisjointInfillContours splits the infill contour by exposure. It computes
// the infill contours of neighbouring layers when needed.
func (l *Layer) DisjointInfillContours() Disjoint {
	p := l.snapshot()
	nb, ngen := l.neighbourContours(p)
	l.mu.Lock()
	defer l.mu.Unlock()
	d, _ := l.disjointLocked(p, nb, ngen)
	return d
}

// Infill returns the infill lines of the layer.
func (l *Layer) Infill() Infill {
	p := l.snapshot()
	var nb []*mcg.PolygonSet
	var ngen uint64
	if effectiveKind(p) != mcg.InfillSolid {
		nb, ngen = l.neighbourContours(p)
	}
	l.mu.Lock()
	defer l.mu.Unlock()
	inf, _ := l.infillLocked(p, nb, ngen)
	return inf
}

// compute fills every stage, checking ctx between them.
func (l *Layer) compute(ctx context.Context) error {
	steps := []func(){
		func() { l.Base() },
		func() { l.Walls() },
		func() { l.InfillContour() },
		func() { l.Infill() },
	}
	for _, step := range steps {
		if err := ctx.Err(); err != nil {
			return err
		}
		step()
	}
	return nil
}

func (l *Layer) baseLocked(p layerParams) (*mcg.PolygonSet, uint64) {
	if l.fixedBase != nil {
		return l.base.get(baseKey{}, func() *mcg.PolygonSet { return l.fixedBase })
	}
	return l.base.get(baseKey{lineWidth: p.lineWidth}, func() *mcg.PolygonSet {
		return mcg.Union(l.source.ToPolygonSet().FDecimate(p.lineWidth), nil)
	})
}

func (l *Layer) wallsLocked(p layerParams) ([]*mcg.PolygonSet, uint64) {
	base, bgen := l.baseLocked(p)
	key := wallsKey{base: bgen, lineWidth: p.lineWidth, numWalls: p.numWalls}
	return l.walls.get(key, func() []*mcg.PolygonSet {
		walls := make([]*mcg.PolygonSet, 0, p.numWalls)
		contour := base
		for w := 0; w < p.numWalls; w++ {
			// The outer wall is centred half a line inside the outline.
			dist := -p.lineWidth
			if w == 0 {
				dist /= 2
			}
			contour = mcg.Union(contour.FOffset(dist, p.lineWidth), nil)
			walls = append(walls, contour)
		}
		return walls
	})
}

func (l *Layer) infillContourLocked(p layerParams) (*mcg.PolygonSet, uint64) {
	overlap := 1 - p.infillOverlap
	if p.numWalls > 0 {
		walls, wgen := l.wallsLocked(p)
		key := contourKey{from: wgen, lineWidth: p.lineWidth, overlap: p.infillOverlap}
		return l.infillContour.get(key, func() *mcg.PolygonSet {
			return mcg.Union(walls[len(walls)-1].FOffset(-p.lineWidth*overlap, p.lineWidth), nil)
		})
	}
	base, bgen := l.baseLocked(p)
	key := contourKey{from: bgen, lineWidth: p.lineWidth, overlap: p.infillOverlap}
	return l.infillContour.get(key, func() *mcg.PolygonSet {
		return mcg.Union(base.FOffset(-p.lineWidth*(overlap-0.5), p.lineWidth), nil)
	})
}

// neighbourIndices returns the layers whose contours decide which parts
// of this layer are exposed. It returns nil when the whole layer is inner
// or the whole layer is solid.
func (l *Layer) neighbourIndices(p layerParams) []int {
	n, i := p.numTopLayers, l.idx
	last := len(l.stack) - 1
	if n == 0 || i < n || i > last-n {
		return nil
	}
	if p.optimizeTopLayers && n > 2 {
		return []int{i + 1, i - 1, i + n, i - n}
	}
	idx := make([]int, 0, 2*n)
	for k := 1; k <= n; k++ {
		idx = append(idx, i+k, i-k)
	}
	return idx
}

// neighbourContours must be called without holding l.mu.
func (l *Layer) neighbourContours(p layerParams) ([]*mcg.PolygonSet, uint64) {
	idx := l.neighbourIndices(p)
	if idx == nil {
		return nil, 0
	}
	contours := make([]*mcg.PolygonSet, len(idx))
	// FNV-1a style mix of the neighbour generations.
	h := uint64(14695981039346656037)
	for k, i := range idx {
		c, gen := l.stack[i].infillContourGen()
		contours[k] = c
		h ^= gen
		h *= 1099511628211
	}
	return contours, h
}

func (l *Layer) disjointLocked(p layerParams, neighbours []*mcg.PolygonSet, ngen uint64) (Disjoint, uint64) {
	contour, cgen := l.infillContourLocked(p)
	key := disjointKey{contour: cgen, neighbours: ngen, numTopLayers: p.numTopLayers, optimize: p.optimizeTopLayers}
	return l.disjoint.get(key, func() Disjoint {
		switch {
		case p.numTopLayers == 0:
			return Disjoint{Inner: contour, Solid: mcg.NewPolygonSet(l.ctx)}
		case neighbours == nil:
			return Disjoint{Inner: mcg.NewPolygonSet(l.ctx), Solid: contour}
		}
		merged := mcg.NewPolygonSet(l.ctx)
		for _, nb := range neighbours {
			merged.Merge(nb)
		}
		solid, _, inner := mcg.FullDifference(contour, merged, len(neighbours))
		return Disjoint{Inner: inner.FilterSlivers(0), Solid: solid.FilterSlivers(0)}
	})
}

// effectiveKind turns dense grids into solid infill.
func effectiveKind(p layerParams) mcg.InfillKind {
	if p.infillType == mcg.InfillGrid && p.infillDensity >= 1 {
		return mcg.InfillSolid
	}
	return p.infillType
}

func (l *Layer) infillLocked(p layerParams, neighbours []*mcg.PolygonSet, ngen uint64) (Infill, uint64) {
	kind := effectiveKind(p)
	ilw := float64(l.ctx.Ftoi(p.lineWidth))
	parity := l.idx % 2
	keep := func(s mcg.Segment) bool { return float64(s.LengthSq()) >= ilw*ilw/4 }
	key := infillKey{lineWidth: p.lineWidth, density: p.infillDensity, kind: kind, connect: p.connectLines}
	if kind == mcg.InfillSolid {
		contour, cgen := l.infillContourLocked(p)
		key.from = cgen
		return l.infill.get(key, func() Infill {
			solid := mcg.Linear(contour, mcg.InfillAngle, ilw, parity, p.connectLines)
			return Infill{Inner: mcg.NewSegmentSet(l.ctx), Solid: solid.Filter(keep)}
		})
	}
	d, dgen := l.disjointLocked(p, neighbours, ngen)
	key.from = dgen
	return l.infill.get(key, func() Infill {
		spacing := ilw / p.infillDensity
		var inner *mcg.SegmentSet
		switch kind {
		case mcg.InfillLines:
			inner = mcg.Linear(d.Inner, mcg.InfillAngle, spacing, parity, p.connectLines)
		case mcg.InfillGrid:
			inner = mcg.Grid(d.Inner, mcg.InfillAngle, spacing, p.connectLines)
		default:
			inner = mcg.NewSegmentSet(l.ctx)
		}
		solid := mcg.Linear(d.Solid, mcg.InfillAngle, ilw, parity, p.connectLines)
		return Infill{Inner: inner.Filter(keep), Solid: solid.Filter(keep)}
	})
}

type pointPairer interface {
	ForEachPointPair(fn func(p1, p2 mcg.Vector))
}

func (l *Layer) appendPairs(dst []r3.Vec, pp pointPairer) []r3.Vec {
	pp.ForEachPointPair(func(p1, p2 mcg.Vector) {
		dst = append(dst, l.ctx.V3(p1), l.ctx.V3(p2))
	})
	return dst
}

// Contours returns the segments of stage s lifted to 3D as consecutive
// point pairs. Disjoint contours and infill list the inner part first.
func (l *Layer) Contours(s Stage) []r3.Vec {
	var out []r3.Vec
	switch s {
	case StageSource:
		out = l.appendPairs(out, l.source)
	case StageBase:
		out = l.appendPairs(out, l.Base())
	case StageWalls:
		for _, w := range l.Walls() {
			out = l.appendPairs(out, w)
		}
	case StageInfillContour:
		out = l.appendPairs(out, l.InfillContour())
	case StageDisjointContours:
		d := l.DisjointInfillContours()
		out = l.appendPairs(out, d.Inner)
		out = l.appendPairs(out, d.Solid)
	case StageInfill:
		inf := l.Infill()
		out = l.appendPairs(out, inf.Inner)
		out = l.appendPairs(out, inf.Solid)
	}
	return out
}
