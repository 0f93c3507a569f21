package slicer

import (
	"context"
	"errors"
	"io"
	"math"
	"testing"

	"github.com/soypat/meshy"
	"github.com/soypat/meshy/mcg"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gonum.org/v1/gonum/spatial/r3"
	"gopkg.in/yaml.v2"
)

func cube() *meshy.Mesh {
	return meshy.NewCuboid(r3.Vec{}, r3.Vec{X: 10, Y: 10, Z: 10})
}

func cubeParams() Params {
	p := DefaultParams()
	p.LayerHeight = 0.5
	p.LineWidth = 0.5
	p.MakeRaft = false
	p.InfillType = mcg.InfillLines
	p.InfillDensity = 0.25
	return p
}

func newCubeSlicer(t *testing.T, p Params) *Slicer {
	t.Helper()
	s, err := New(cube(), p)
	require.NoError(t, err)
	return s
}

func TestCube(t *testing.T) {
	p := DefaultParams()
	p.LayerHeight = 1
	p.LineWidth = 1
	p.NumWalls = 1
	p.InfillType = mcg.InfillSolid
	p.InfillDensity = 1
	p.MakeRaft = false
	s := newCubeSlicer(t, p)
	require.NoError(t, s.Compute(context.Background(), 2))
	require.Equal(t, 10, s.NumLayers())
	for level := 0; level < s.NumLayers(); level++ {
		l := s.Layer(level)
		assert.InDelta(t, 40, l.Base().Perimeter(), 1e-3, "level %d", level)
		walls := l.Walls()
		require.Len(t, walls, 1)
		assert.InDelta(t, 36, walls[0].Perimeter(), 1e-3, "level %d", level)
		assert.InDelta(t, 64, l.InfillContour().Area(), 1e-3, "level %d", level)
		assert.NotZero(t, l.Infill().Solid.Count(), "level %d", level)
		assert.Zero(t, l.Infill().Inner.Count(), "level %d", level)
	}

	opts := DefaultMoveOptions()
	var volume float64
	err := s.WriteMoves(MoveWriterFunc(func(m Move) error {
		volume += m.Extrusion * opts.Filament.CrossSection()
		return nil
	}), opts)
	require.NoError(t, err)
	assert.InEpsilon(t, 1000, volume, 0.05)
}

func TestSortVertices(t *testing.T) {
	perms := [][3]float64{{0, 1, 2}, {0, 2, 1}, {1, 0, 2}, {1, 2, 0}, {2, 0, 1}, {2, 1, 0}}
	for _, z := range perms {
		tri := r3.Triangle{{X: 0, Y: 0, Z: z[0]}, {X: 1, Y: 0, Z: z[1]}, {X: 0, Y: 1, Z: z[2]}}
		v, ccw := sortVertices(tri, meshy.Z)
		assert.True(t, v[0].Z <= v[1].Z && v[1].Z <= v[2].Z, "perm %v not sorted", z)
		sorted := r3.Triangle(v)
		same := r3.Dot(sorted.Normal(), tri.Normal()) > 0
		assert.Equal(t, same, ccw, "perm %v", z)
	}
}

func TestSliceFace(t *testing.T) {
	tri := r3.Triangle{{X: 0, Y: 0, Z: 0}, {X: 2, Y: 0, Z: 0}, {X: 0, Y: 0, Z: 2}}
	var contours [][2]r3.Vec
	var n int
	sliceFace(tri, meshy.Z, 1, func(contour bool, p, q, _ r3.Vec) {
		n++
		if contour {
			contours = append(contours, [2]r3.Vec{p, q})
		}
	})
	assert.Equal(t, 2, n)
	require.Len(t, contours, 1)
	for _, p := range contours[0] {
		assert.InDelta(t, 1, p.Z, 1e-12)
	}
	// Flat edges resolve to their first vertex.
	assert.Equal(t, tri[0], planeIntersection(meshy.Z, 0, tri[0], tri[1]))
}

func TestValidate(t *testing.T) {
	require.NoError(t, DefaultParams().Validate())
	bad := []func(*Params){
		func(p *Params) { p.LayerHeight = 0 },
		func(p *Params) { p.LineWidth = -1 },
		func(p *Params) { p.Axis = 7 },
		func(p *Params) { p.InfillOverlap = 2 },
		func(p *Params) { p.RaftGap = -1 },
		func(p *Params) { p.NumWalls = -1 },
		func(p *Params) { p.InfillDensity = 1.5 },
		func(p *Params) { p.InfillDensity = -0.1 },
		func(p *Params) { p.RaftTopDensity = 2 },
	}
	for i, modify := range bad {
		p := DefaultParams()
		modify(&p)
		err := p.Validate()
		assert.ErrorIs(t, err, ErrInvalidParams, "case %d", i)
		_, err = New(cube(), p)
		assert.Error(t, err)
	}
	p := DefaultParams()
	p.MakeRaft = false
	p.RaftGap = -1
	assert.NoError(t, p.Validate())
}

func TestParamsYAML(t *testing.T) {
	p := DefaultParams()
	err := yaml.Unmarshal([]byte("axis: y\ninfillType: grid\nmode: full\nnumWalls: 4\n"), &p)
	require.NoError(t, err)
	assert.Equal(t, meshy.Y, p.Axis)
	assert.Equal(t, mcg.InfillGrid, p.InfillType)
	assert.Equal(t, ModeFull, p.Mode)
	assert.Equal(t, 4, p.NumWalls)
	assert.Equal(t, 0.1, p.LayerHeight)

	out, err := yaml.Marshal(p)
	require.NoError(t, err)
	var back Params
	require.NoError(t, yaml.Unmarshal(out, &back))
	assert.Equal(t, p, back)

	err = yaml.Unmarshal([]byte("infillType: hex\n"), &p)
	assert.Error(t, err)
}

func TestLayers(t *testing.T) {
	s := newCubeSlicer(t, cubeParams())
	require.Equal(t, 20, s.NumLayers())
	assert.Equal(t, 0, s.MinLevel())
	assert.Equal(t, 19, s.MaxLevel())
	assert.Nil(t, s.Layer(20))
	assert.Nil(t, s.Layer(-1))

	for _, level := range []int{0, 7, 19} {
		l := s.Layer(level)
		assert.InDelta(t, 0.25+0.5*float64(level), l.Context().D, 1e-12)
		src := l.Source().ToPolygonSet()
		assert.InDelta(t, 100, src.Area(), 1e-6, "level %d source is counterclockwise", level)
		assert.InDelta(t, 100, l.Base().Area(), 1e-6)

		walls := l.Walls()
		require.Len(t, walls, 2)
		assert.InDelta(t, 9.5*9.5, walls[0].Area(), 0.01)
		assert.InDelta(t, 8.5*8.5, walls[1].Area(), 0.01)
		assert.InDelta(t, 64, l.InfillContour().Area(), 0.01)
	}
}

func TestDisjointContours(t *testing.T) {
	s := newCubeSlicer(t, cubeParams())
	for _, level := range []int{0, 2, 17, 19} {
		d := s.Layer(level).DisjointInfillContours()
		assert.Zero(t, d.Inner.Count(), "level %d", level)
		assert.InDelta(t, 64, d.Solid.Area(), 0.01, "level %d", level)
	}
	for _, level := range []int{3, 10, 16} {
		d := s.Layer(level).DisjointInfillContours()
		assert.InDelta(t, 64, d.Inner.Area(), 0.01, "level %d", level)
		assert.Zero(t, d.Solid.Count(), "level %d", level)
	}

	p := cubeParams()
	p.NumTopLayers = 0
	require.NoError(t, s.SetParams(p))
	d := s.Layer(0).DisjointInfillContours()
	assert.InDelta(t, 64, d.Inner.Area(), 0.01)
	assert.Zero(t, d.Solid.Count())

	p.NumTopLayers = 2
	p.OptimizeTopLayers = false
	require.NoError(t, s.SetParams(p))
	assert.Equal(t, []int{11, 9, 12, 8}, s.Layer(10).neighbourIndices(s.Layer(10).snapshot()))
	d = s.Layer(10).DisjointInfillContours()
	assert.InDelta(t, 64, d.Inner.Area(), 0.01)
}

func TestInfill(t *testing.T) {
	s := newCubeSlicer(t, cubeParams())
	ilw := s.Layer(0).Context().Ftoi(0.5)
	minLenSq := ilw * ilw / 4

	bottom := s.Layer(0).Infill()
	assert.Zero(t, bottom.Inner.Count())
	assert.Greater(t, bottom.Solid.Count(), 10)

	mid := s.Layer(10).Infill()
	assert.Zero(t, mid.Solid.Count())
	require.NotZero(t, mid.Inner.Count())
	assert.Less(t, mid.Inner.Count(), bottom.Solid.Count())
	for _, seg := range mid.Inner.Segments {
		assert.GreaterOrEqual(t, seg.LengthSq(), minLenSq)
	}

	// Dense grids are printed solid.
	p := cubeParams()
	p.InfillType = mcg.InfillGrid
	p.InfillDensity = 1
	require.NoError(t, s.SetParams(p))
	solid := s.Layer(10).Infill()
	assert.Zero(t, solid.Inner.Count())
	assert.NotZero(t, solid.Solid.Count())

	p.InfillDensity = 0.25
	require.NoError(t, s.SetParams(p))
	grid := s.Layer(10).Infill()
	assert.NotZero(t, grid.Inner.Count())

	// Zero density disables the infill pattern.
	p.InfillDensity = 0
	require.NoError(t, s.SetParams(p))
	assert.Zero(t, s.Layer(10).Infill().Inner.Count())
}

func TestInvalidation(t *testing.T) {
	s := newCubeSlicer(t, cubeParams())
	l := s.Layer(5)
	assert.False(t, l.Ready(StageWalls))
	l.Infill()
	for _, st := range []Stage{StageBase, StageWalls, StageInfillContour, StageDisjointContours, StageInfill} {
		assert.True(t, l.Ready(st), st.String())
	}

	p := cubeParams()
	p.NumWalls = 1
	require.NoError(t, s.SetParams(p))
	assert.True(t, l.Ready(StageBase))
	assert.False(t, l.Ready(StageWalls))
	assert.False(t, l.Ready(StageInfill))
	assert.Len(t, l.Walls(), 1)
	assert.InDelta(t, 81, l.InfillContour().Area(), 0.01)

	p.InfillOverlap = 0
	require.NoError(t, s.SetParams(p))
	assert.True(t, l.Ready(StageWalls))
	assert.False(t, l.Ready(StageInfillContour))
	assert.InDelta(t, 8.5*8.5, l.InfillContour().Area(), 0.01)

	l.Unready(StageBase)
	assert.False(t, l.Ready(StageBase))
	assert.False(t, l.Ready(StageInfill))

	// A recomputed neighbour invalidates the disjoint contours.
	m := s.Layer(10)
	d1 := m.DisjointInfillContours()
	d2 := m.DisjointInfillContours()
	assert.Same(t, d1.Inner, d2.Inner)
	s.Layer(11).Unready(StageInfillContour)
	d3 := m.DisjointInfillContours()
	assert.NotSame(t, d1.Inner, d3.Inner)
	assert.InDelta(t, d1.Inner.Area(), d3.Inner.Area(), 1e-9)
}

func TestStep(t *testing.T) {
	s := newCubeSlicer(t, cubeParams())
	ctx := context.Background()
	n, err := s.Step(ctx, 8)
	assert.Equal(t, 8, n)
	assert.NoError(t, err)
	n, err = s.Step(ctx, 8)
	assert.Equal(t, 8, n)
	assert.NoError(t, err)
	n, err = s.Step(ctx, 8)
	assert.Equal(t, 4, n)
	assert.ErrorIs(t, err, io.EOF)
	done, total := s.Progress()
	assert.Equal(t, total, done)
	assert.True(t, s.Layer(19).Ready(StageInfill))

	s = newCubeSlicer(t, cubeParams())
	cctx, cancel := context.WithCancel(ctx)
	cancel()
	n, err = s.Step(cctx, 3)
	assert.Zero(t, n)
	assert.ErrorIs(t, err, context.Canceled)
	assert.False(t, s.Layer(0).Ready(StageBase))
	assert.ErrorIs(t, s.Compute(cctx, 2), context.Canceled)
}

func TestCompute(t *testing.T) {
	p := cubeParams()
	p.MakeRaft = true
	s := newCubeSlicer(t, p)
	require.Equal(t, -4, s.MinLevel())
	require.Equal(t, 4, s.NumRaftLayers())
	require.NoError(t, s.Compute(context.Background(), 4))
	done, total := s.Progress()
	assert.Equal(t, 24, total)
	assert.Equal(t, total, done)
	for level := s.MinLevel(); level <= s.MaxLevel(); level++ {
		assert.True(t, s.Layer(level).Ready(StageInfill), "level %d", level)
	}
	raftBase := s.Layer(-4)
	assert.InDelta(t, 144, raftBase.Base().Area(), 0.01)
	assert.InDelta(t, -0.3+0.05, raftBase.Context().D, 1e-9)
	assert.NotZero(t, raftBase.Infill().Inner.Count())
	assert.InDelta(t, -0.3, s.Baseline(), 1e-12)
}

func collectMoves(t *testing.T, s *Slicer) []Move {
	t.Helper()
	var moves []Move
	err := s.WriteMoves(MoveWriterFunc(func(m Move) error {
		moves = append(moves, m)
		return nil
	}), DefaultMoveOptions())
	require.NoError(t, err)
	require.NotEmpty(t, moves)
	return moves
}

func TestWriteMoves(t *testing.T) {
	s := newCubeSlicer(t, cubeParams())
	moves := collectMoves(t, s)
	opts := DefaultMoveOptions()
	assert.True(t, moves[0].Travel)
	assert.Equal(t, opts.Start, moves[0].From)
	lastFeature := map[int]Feature{}
	for i, m := range moves {
		if i > 0 {
			assert.Equal(t, moves[i-1].To, m.From, "move %d is disconnected", i)
		}
		if m.Travel {
			assert.Zero(t, m.Extrusion)
			assert.NotEqual(t, m.From, m.To, "move %d travels nowhere", i)
		} else {
			length := r3.Norm(r3.Sub(m.To, m.From))
			want := length * opts.ExtrusionMultiplier * 0.5 * 0.5 / opts.Filament.CrossSection()
			assert.InDelta(t, want, m.Extrusion, 1e-12)
		}
		want := 0.25 + 0.5*float64(m.Level) + 0.25
		assert.InDelta(t, want, m.To.Z, 1e-9)
		// Features never go back within a layer.
		assert.GreaterOrEqual(t, m.Feature, lastFeature[m.Level])
		lastFeature[m.Level] = m.Feature
	}
	assert.Equal(t, FeatureWall, lastFeature[0])

	stop := errors.New("stop")
	err := s.WriteMoves(MoveWriterFunc(func(Move) error { return stop }), opts)
	assert.ErrorIs(t, err, stop)

	// Starting on the first print point needs no travel.
	opts.Start = moves[0].To
	var first Move
	err = s.WriteMoves(MoveWriterFunc(func(m Move) error {
		first = m
		return stop
	}), opts)
	assert.ErrorIs(t, err, stop)
	assert.False(t, first.Travel)
	assert.Equal(t, opts.Start, first.From)
}

func TestWriteMovesRaft(t *testing.T) {
	p := cubeParams()
	p.MakeRaft = true
	s := newCubeSlicer(t, p)
	moves := collectMoves(t, s)
	assert.Equal(t, -4, moves[0].Level)
	assert.InDelta(t, 0.1, moves[0].To.Z, 1e-9)
	for _, m := range moves {
		if m.Level < 0 {
			assert.NotEqual(t, FeatureWall, m.Feature)
		}
		if m.Level == 0 {
			assert.InDelta(t, 0.8, m.To.Z, 1e-9)
		}
	}
}

func TestPreviewMesh(t *testing.T) {
	s := newCubeSlicer(t, cubeParams())
	assert.Equal(t, 9, s.SetLevel(9))
	pv := s.PreviewMesh()
	require.NotEmpty(t, pv.Positions)
	require.Len(t, pv.Normals, len(pv.Positions))
	assert.Zero(t, len(pv.Positions)%3)
	for i, v := range pv.Positions {
		assert.LessOrEqual(t, float64(v.Z), 4.75+1e-5)
		n := pv.Normals[i]
		assert.InDelta(t, 1, math.Sqrt(float64(n.X*n.X+n.Y*n.Y+n.Z*n.Z)), 1e-5)
	}
	assert.Len(t, pv.Triangles(), len(pv.Positions)/3)

	assert.Equal(t, s.MaxLevel(), s.SetLevel(1000))
	assert.Equal(t, s.MinLevel(), s.SetLevel(-1000))
}

func TestView(t *testing.T) {
	p := cubeParams()
	p.Mode = ModeFull
	s := newCubeSlicer(t, p)
	s.SetLevel(3)
	v := s.View()
	assert.NotEmpty(t, v.Base)
	assert.NotEmpty(t, v.Infill)
	assert.Nil(t, v.Mesh)
	// Two square walls on each of levels 0, 1 and 2.
	assert.Len(t, v.All, 3*2*4*2)

	p.Mode = ModePreview
	p.PreviewSliceMesh = true
	require.NoError(t, s.SetParams(p))
	v = s.View()
	assert.Nil(t, v.All)
	require.NotNil(t, v.Mesh)
	assert.NotEmpty(t, v.Mesh.Positions)
	assert.Len(t, v.Walls, 2*4*2)
}

func TestEmptyMesh(t *testing.T) {
	s, err := New(&meshy.Mesh{}, DefaultParams())
	require.NoError(t, err)
	assert.Equal(t, 1, s.NumLayers())
	assert.Zero(t, s.Layer(0).Base().Count())
	assert.Zero(t, s.Layer(0).Infill().Solid.Count())
	require.NoError(t, s.Compute(context.Background(), 0))
	err = s.WriteMoves(MoveWriterFunc(func(Move) error { return nil }), DefaultMoveOptions())
	assert.NoError(t, err)
	assert.Empty(t, s.PreviewMesh().Positions)
}
