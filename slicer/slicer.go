// Package slicer cuts a triangle mesh into planar layers and derives the
// walls and infill printed on each of them.
package slicer

import (
	"context"
	"io"
	"math"
	"runtime"

	"github.com/soypat/meshy"
	"github.com/soypat/meshy/mcg"
	"golang.org/x/sync/errgroup"
	"gonum.org/v1/gonum/spatial/r3"
)

// Slicer holds the layers of one mesh. Layers are numbered by level: raft
// layers have negative levels and the first part layer is level 0.
//
// A Slicer must not be used concurrently except through Compute, which
// parallelizes internally.
type Slicer struct {
	params  Params
	tris    []r3.Triangle
	normals []r3.Vec
	faces   []FaceBounds
	// min and max bound the mesh in world space.
	min, max r3.Vec
	layers   []*Layer
	raft     []*Layer
	level    int
	// next counts the levels finished by Step, lowest first.
	next int
}

// New slices m. The mesh is read in world space and is not retained.
func New(m *meshy.Mesh, p Params) (*Slicer, error) {
	if err := p.Validate(); err != nil {
		return nil, err
	}
	s := &Slicer{params: p}
	n := m.NumFaces()
	s.tris = make([]r3.Triangle, n)
	s.normals = make([]r3.Vec, n)
	for i := 0; i < n; i++ {
		s.tris[i] = m.Triangle(i)
		s.normals[i] = m.FaceNormal(i)
	}
	if n > 0 {
		bb := m.Bounds()
		s.min, s.max = bb.Min, bb.Max
	}
	s.slice()
	s.level = s.MaxLevel()
	return s, nil
}

// Params returns the current parameters.
func (s *Slicer) Params() Params { return s.params }

// SetParams changes the parameters. Only the stages affected by the change
// are recomputed on their next access.
func (s *Slicer) SetParams(p Params) error {
	if err := p.Validate(); err != nil {
		return err
	}
	old := s.params
	s.params = p
	s.next = 0
	if !old.sameSlicing(p) {
		s.slice()
		s.level = meshy.Clampi(s.level, s.MinLevel(), s.MaxLevel())
		return nil
	}
	lp := p.sliceLayerParams()
	for _, l := range s.layers {
		l.setParams(lp)
	}
	if !old.sameRaft(p) {
		s.makeRaft()
	}
	s.level = meshy.Clampi(s.level, s.MinLevel(), s.MaxLevel())
	return nil
}

// numLayers is the number of part layers for the current parameters.
func (s *Slicer) numLayers() int {
	a := s.params.Axis
	n := int(math.Floor(0.5 + (a.Get(s.max)-a.Get(s.min))/s.params.LayerHeight))
	return max(1, n)
}

// levelPos returns the height of part layer i.
func (s *Slicer) levelPos(i int) float64 {
	return s.params.Axis.Get(s.min) + (float64(i)+0.5)*s.params.LayerHeight
}

// Baseline is the height of the bottom of the print including the raft.
func (s *Slicer) Baseline() float64 {
	return s.params.Axis.Get(s.min) - s.params.raftHeight()
}

// slice rebuilds the part layers from the mesh, then the raft.
func (s *Slicer) slice() {
	p := s.params
	axis := p.Axis
	s.faces = make([]FaceBounds, len(s.tris))
	for i, t := range s.tris {
		s.faces[i] = faceBounds(t, axis)
	}
	n := s.numLayers()
	layer0 := s.levelPos(0)

	// Bucket faces by the first layer that can cut them.
	buckets := make([][]int, n)
	for i, fb := range s.faces {
		idx := int(math.Ceil((fb.Min - layer0) / p.LayerHeight))
		if idx >= n {
			continue
		}
		idx = max(idx, 0)
		buckets[idx] = append(buckets[idx], i)
	}

	layers := make([]*Layer, n)
	lp := p.sliceLayerParams()
	var active []int
	for i := range layers {
		level := s.levelPos(i)
		ctx := mcg.NewContext(axis, level, p.Precision)
		l := newLayer(i, ctx, layers, lp)
		active = append(active, buckets[i]...)
		kept := active[:0]
		for _, fi := range active {
			if s.faces[fi].Max < level {
				continue
			}
			kept = append(kept, fi)
			normal := s.normals[fi]
			sliceFace(s.tris[fi], axis, level, func(contour bool, a, b, _ r3.Vec) {
				if contour {
					l.source.AddV3Pair(a, b, normal)
				}
			})
		}
		active = kept
		layers[i] = l
	}
	s.layers = layers
	meshy.Logger().Debug("slicer: sliced mesh", "faces", len(s.tris), "layers", n, "axis", axis)
	s.makeRaft()
}

// makeRaft builds the raft layers below the part from the outline of the
// first layer.
func (s *Slicer) makeRaft() {
	p := s.params
	s.raft = nil
	nr := p.numRaftLayers()
	if nr == 0 || len(s.layers) == 0 {
		return
	}
	outline := mcg.Union(s.layers[0].Base().FOffset(p.RaftOffset, p.LineWidth), nil)
	baseline := s.Baseline()
	baseHeight := float64(p.RaftNumBaseLayers) * p.RaftBaseLayerHeight
	raft := make([]*Layer, nr)
	for i := range raft {
		var level float64
		if i < p.RaftNumBaseLayers {
			level = baseline + (float64(i)+0.5)*p.RaftBaseLayerHeight
		} else {
			level = baseline + baseHeight + (float64(i-p.RaftNumBaseLayers)+0.5)*p.RaftTopLayerHeight
		}
		ctx := mcg.NewContext(p.Axis, level, p.Precision)
		l := newLayer(i, ctx, raft, p.raftLayerParams(i))
		l.fixedBase = outline
		raft[i] = l
	}
	s.raft = raft
	meshy.Logger().Debug("slicer: built raft", "layers", nr, "outline", outline.Count())
}

// MinLevel returns the level of the lowest layer, negative when there is a
// raft.
func (s *Slicer) MinLevel() int { return -len(s.raft) }

// MaxLevel returns the level of the highest part layer.
func (s *Slicer) MaxLevel() int { return len(s.layers) - 1 }

// NumLayers returns the number of part layers.
func (s *Slicer) NumLayers() int { return len(s.layers) }

// NumRaftLayers returns the number of raft layers.
func (s *Slicer) NumRaftLayers() int { return len(s.raft) }

// Layer returns the layer at level or nil if there is none.
func (s *Slicer) Layer(level int) *Layer {
	switch {
	case level >= 0 && level < len(s.layers):
		return s.layers[level]
	case level < 0 && level >= -len(s.raft):
		return s.raft[len(s.raft)+level]
	}
	return nil
}

// isRaftBase reports whether level is one of the raft base layers.
func (s *Slicer) isRaftBase(level int) bool {
	return level < 0 && level < s.MinLevel()+s.params.RaftNumBaseLayers
}

// layerHeight returns the height of the layer at level.
func (s *Slicer) layerHeight(level int) float64 {
	switch {
	case level >= 0:
		return s.params.LayerHeight
	case s.isRaftBase(level):
		return s.params.RaftBaseLayerHeight
	}
	return s.params.RaftTopLayerHeight
}

// lineWidth returns the line width of the layer at level.
func (s *Slicer) lineWidth(level int) float64 {
	switch {
	case level >= 0:
		return s.params.LineWidth
	case s.isRaftBase(level):
		return s.params.RaftBaseLineWidth
	}
	return s.params.RaftTopLineWidth
}

// SetLevel selects the layer shown by View, clamped to the valid levels.
// It returns the selected level.
func (s *Slicer) SetLevel(level int) int {
	s.level = meshy.Clampi(level, s.MinLevel(), s.MaxLevel())
	return s.level
}

// Level returns the level selected with SetLevel.
func (s *Slicer) Level() int { return s.level }

// Progress returns the number of levels finished by Step or Compute and
// the total number of levels.
func (s *Slicer) Progress() (done, total int) {
	return s.next, len(s.raft) + len(s.layers)
}

// Step computes every stage of the next n layers, lowest first. It returns
// the number of layers computed by this call and io.EOF once every layer
// is done. A cancelled ctx stops between stages; stages already computed
// stay cached.
func (s *Slicer) Step(ctx context.Context, n int) (int, error) {
	_, total := s.Progress()
	done := 0
	for done < n && s.next < total {
		l := s.Layer(s.MinLevel() + s.next)
		if err := l.compute(ctx); err != nil {
			return done, err
		}
		s.next++
		done++
	}
	if s.next >= total {
		return done, io.EOF
	}
	return done, nil
}

// Compute computes every stage of every layer using up to workers
// goroutines. Non-positive workers uses one per CPU.
func (s *Slicer) Compute(ctx context.Context, workers int) error {
	if workers <= 0 {
		workers = runtime.NumCPU()
	}
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(workers)
	for level := s.MinLevel(); level <= s.MaxLevel(); level++ {
		l := s.Layer(level)
		g.Go(func() error { return l.compute(gctx) })
	}
	if err := g.Wait(); err != nil {
		return err
	}
	_, s.next = s.Progress()
	return nil
}
