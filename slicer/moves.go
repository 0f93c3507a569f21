package slicer

import (
	"fmt"

	"github.com/soypat/meshy/helpers/matter"
	"github.com/soypat/meshy/mcg"
	"gonum.org/v1/gonum/spatial/r3"
)

// Feature tells what a printed segment belongs to.
type Feature uint8

const (
	FeatureInnerInfill Feature = iota
	FeatureSolidInfill
	FeatureWall
)

func (f Feature) String() string {
	switch f {
	case FeatureInnerInfill:
		return "infill"
	case FeatureSolidInfill:
		return "solid"
	case FeatureWall:
		return "wall"
	}
	return fmt.Sprintf("Feature(%d)", int(f))
}

// Move is one straight motion of the print head. Positions are relative to
// the baseline, so the bottom of the print is at zero height.
type Move struct {
	From, To r3.Vec
	// Travel moves do not extrude.
	Travel bool
	// Extrusion is the length of filament fed during a print move.
	Extrusion float64
	Level     int
	Feature   Feature
}

// MoveWriter consumes the toolpath.
type MoveWriter interface {
	WriteMove(Move) error
}

// MoveWriterFunc adapts a function to MoveWriter.
type MoveWriterFunc func(Move) error

func (f MoveWriterFunc) WriteMove(m Move) error { return f(m) }

// MoveOptions configures WriteMoves.
type MoveOptions struct {
	Filament            matter.Filament
	ExtrusionMultiplier float64
	// Start is where the head rests before the first move, relative to the
	// baseline like every Move position.
	Start r3.Vec
}

// DefaultMoveOptions returns 1.75mm PLA with no extrusion correction.
func DefaultMoveOptions() MoveOptions {
	return MoveOptions{Filament: matter.PLA, ExtrusionMultiplier: 1}
}

// WriteMoves streams the toolpath of every layer, lowest first, computing
// stages as needed. Within a layer the inner infill goes first, then the
// solid infill, then the walls from the innermost out. Raft walls are only
// written when RaftWriteWalls is set. Every print move not starting where
// the head is, opts.Start at first, is preceded by a travel move.
func (s *Slicer) WriteMoves(w MoveWriter, opts MoveOptions) error {
	axis := s.params.Axis
	baseline := s.Baseline()
	pos := opts.Start
	for level := s.MinLevel(); level <= s.MaxLevel(); level++ {
		l := s.Layer(level)
		lh, lw := s.layerHeight(level), s.lineWidth(level)
		z := l.ctx.D - baseline + lh/2
		toWorld := func(p mcg.Vector) r3.Vec { return axis.Set(l.ctx.V3(p), z) }
		// The head re-enters each layer with a travel move.
		var ipos mcg.Vector
		hasPos := false
		write := func(pp pointPairer, feature Feature) error {
			var err error
			pp.ForEachPointPair(func(p1, p2 mcg.Vector) {
				if err != nil {
					return
				}
				v1, v2 := toWorld(p1), toWorld(p2)
				if (!hasPos || ipos != p1) && pos != v1 {
					err = w.WriteMove(Move{From: pos, To: v1, Travel: true, Level: level, Feature: feature})
					if err != nil {
						return
					}
				}
				err = w.WriteMove(Move{
					From:      v1,
					To:        v2,
					Extrusion: opts.Filament.Extrusion(r3.Norm(r3.Sub(v2, v1)), lw, lh, opts.ExtrusionMultiplier),
					Level:     level,
					Feature:   feature,
				})
				pos, ipos, hasPos = v2, p2, true
			})
			return err
		}
		inf := l.Infill()
		if err := write(inf.Inner, FeatureInnerInfill); err != nil {
			return err
		}
		if err := write(inf.Solid, FeatureSolidInfill); err != nil {
			return err
		}
		if level < 0 && !s.params.RaftWriteWalls {
			continue
		}
		walls := l.Walls()
		for i := len(walls) - 1; i >= 0; i-- {
			if err := write(walls[i], FeatureWall); err != nil {
				return err
			}
		}
	}
	return nil
}
