package slicer

import (
	"github.com/chewxy/math32"
	"github.com/soypat/glgl/math/ms3"
	"gonum.org/v1/gonum/spatial/r3"
)

// Preview is a float32 triangle buffer ready for upload to a GPU. Each
// triangle has its own three vertices and three copies of its normal.
type Preview struct {
	Positions []ms3.Vec
	Normals   []ms3.Vec
}

// Triangles returns the preview as a triangle list.
func (p *Preview) Triangles() []ms3.Triangle {
	out := make([]ms3.Triangle, len(p.Positions)/3)
	for i := range out {
		copy(out[i][:], p.Positions[3*i:3*i+3])
	}
	return out
}

func (p *Preview) add(n r3.Vec, verts ...r3.Vec) {
	nf := vec32(n)
	for _, v := range verts {
		p.Positions = append(p.Positions, vec32(v))
		p.Normals = append(p.Normals, nf)
	}
}

func vec32(v r3.Vec) ms3.Vec {
	return ms3.Vec{X: float32(v.X), Y: float32(v.Y), Z: float32(v.Z)}
}

func finite(v ms3.Vec) bool {
	for _, f := range [3]float32{v.X, v.Y, v.Z} {
		if math32.IsNaN(f) || math32.IsInf(f, 0) {
			return false
		}
	}
	return true
}

// PreviewMesh returns the part of the mesh below the current level's
// slicing plane. Faces crossing the plane are cut. Raft levels show
// nothing.
func (s *Slicer) PreviewMesh() *Preview {
	p := &Preview{}
	if s.level < 0 {
		return p
	}
	axis := s.params.Axis
	pos := s.levelPos(s.level)
	for i, fb := range s.faces {
		n := s.normals[i]
		switch {
		case fb.Max < pos:
			t := s.tris[i]
			p.add(n, t[0], t[1], t[2])
		case fb.Min < pos:
			sliceFace(s.tris[i], axis, pos, func(_ bool, a, b, c r3.Vec) {
				p.add(n, a, b, c)
			})
		}
	}
	// Faces of a mesh with non-finite coordinates are dropped as a whole.
	kept := 0
	for i := 0; i+2 < len(p.Positions); i += 3 {
		if finite(p.Positions[i]) && finite(p.Positions[i+1]) && finite(p.Positions[i+2]) {
			copy(p.Positions[kept:], p.Positions[i:i+3])
			copy(p.Normals[kept:], p.Normals[i:i+3])
			kept += 3
		}
	}
	p.Positions, p.Normals = p.Positions[:kept], p.Normals[:kept]
	return p
}

// View is what a viewer displays for the current level and mode. Line
// buffers hold consecutive point pairs.
type View struct {
	Base, Walls, Infill []r3.Vec
	// All holds the contours of every shown layer in full mode.
	All []r3.Vec
	// Mesh is the cut mesh, only set in preview mode with PreviewSliceMesh.
	Mesh *Preview
}

// View computes the geometry shown for the current level.
func (s *Slicer) View() View {
	var v View
	p := s.params
	l := s.Layer(s.level)
	if p.Mode != ModeFull || p.FullUpToLayer {
		v.Base = l.Contours(StageBase)
		if s.level >= 0 || p.RaftWriteWalls {
			v.Walls = l.Contours(StageWalls)
		}
		v.Infill = l.Contours(StageInfill)
	}
	switch p.Mode {
	case ModePreview:
		if p.PreviewSliceMesh {
			v.Mesh = s.PreviewMesh()
		}
	case ModeFull:
		top := s.MaxLevel()
		if p.FullUpToLayer {
			top = s.level - 1
		}
		for level := s.MinLevel(); level <= top; level++ {
			layer := s.Layer(level)
			v.All = append(v.All, layer.Contours(StageWalls)...)
			if p.FullShowInfill {
				v.All = append(v.All, layer.Contours(StageInfill)...)
			}
		}
	}
	return v
}
