// Package matter describes printing materials.
package matter

import (
	"math"

	"github.com/soypat/meshy"
	"gonum.org/v1/gonum/spatial/r3"
)

var (
	// PLA (polylactic acid) is the most widely used plastic filament material in 3D printing.
	PLA = Filament{Name: "PLA", Diameter: 1.75, shrink: 0.2e-2, pullShrink: .45} // 0.2% shrinkage
	// ABS shrinks noticeably more than PLA when cooling.
	ABS = Filament{Name: "ABS", Diameter: 1.75, shrink: 0.7e-2, pullShrink: .5}
)

// Filament is a thermoplastic fed to the extruder as a round strand.
type Filament struct {
	Name string
	// Diameter of the strand in millimetres.
	Diameter float64
	// shrink is the thermal contraction shrinkage of a material once the material
	// cools to room temperature after the heated bed is turned off.
	shrink float64
	// pullShrink takes into account viscoelastic shrinkage.
	pullShrink float64
}

// WithDiameter returns f with a different strand diameter.
func (f Filament) WithDiameter(d float64) Filament {
	f.Diameter = d
	return f
}

// CrossSection returns the area of the strand's cross section.
func (f Filament) CrossSection() float64 {
	return f.Diameter * f.Diameter * math.Pi / 4
}

// Extrusion returns the length of filament that must be fed to print a line
// of the given length, width and layer height.
func (f Filament) Extrusion(length, lineWidth, layerHeight, multiplier float64) float64 {
	cs := f.CrossSection()
	if cs == 0 {
		return 0
	}
	return length * multiplier * layerHeight * lineWidth / cs
}

// Compensate returns a copy of m in world space scaled up so that it shrinks
// to its modelled size after cooling. The bounding box minimum stays put.
func (f Filament) Compensate(m *meshy.Mesh) *meshy.Mesh {
	out := meshy.Merge(m)
	scale := 1 / (1 - f.shrink)
	origin := out.Bounds().Min
	for i, v := range out.Vertices {
		out.Vertices[i] = r3.Add(origin, r3.Scale(scale, r3.Sub(v, origin)))
	}
	return out
}

// InternalDimScale returns the modelled size of a hole or slot that prints
// at the real size.
func (f Filament) InternalDimScale(real float64) float64 {
	if real <= 0 {
		panic("InternalDimScale only works for non-zero dimensions")
	}
	return real*(f.shrink+1) + f.pullShrink
}
