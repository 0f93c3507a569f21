package meshy

import (
	"math"

	"github.com/soypat/meshy/internal/d3"
	"gonum.org/v1/gonum/spatial/r3"
)

// Hit is where a ray meets a face of a mesh.
type Hit struct {
	// Point is the world space intersection.
	Point r3.Vec
	// Distance from the ray origin to Point.
	Distance float64
	// Face is the index of the face hit in the mesh.
	Face int
}

// InternalRaycaster finds the nearest face a ray meets from inside the
// mesh, that is a face whose normal points along the ray. It is
// implemented by octree.Octree.
type InternalRaycaster interface {
	RaycastInternal(origin, dir r3.Vec) (Hit, bool)
}

// ThinFace is a face whose wall is thinner than a threshold.
type ThinFace struct {
	Face      int
	Thickness float64
}

// Thickness casts a ray from the center of every face against its normal
// and returns, in face order, the faces whose ray meets the far side of the
// wall closer than minThickness. rc must index the world space faces of m.
// Rays that leave the mesh through an opening are ignored.
func (m *Mesh) Thickness(rc InternalRaycaster, minThickness float64) []ThinFace {
	var thin []ThinFace
	for i := range m.Faces {
		n := m.FaceNormal(i)
		if n == (r3.Vec{}) {
			continue
		}
		hit, ok := rc.RaycastInternal(m.Triangle(i).Centroid(), r3.Scale(-1, n))
		if ok && hit.Distance < minThickness {
			thin = append(thin, ThinFace{Face: i, Thickness: hit.Distance})
		}
	}
	return thin
}

// CenterOfMass returns the centroid of the solid bounded by a closed mesh
// of uniform density. It returns false when the mesh encloses no volume.
func (m *Mesh) CenterOfMass() (r3.Vec, bool) {
	var (
		center r3.Vec
		vol    float64
	)
	for i := range m.Faces {
		t := m.Triangle(i)
		// Signed tetrahedron between the origin and the face.
		v := r3.Dot(t[0], r3.Cross(t[1], t[2])) / 6
		center = r3.Add(center, r3.Scale(v/4, r3.Add(t[0], r3.Add(t[1], t[2]))))
		vol += v
	}
	if vol == 0 || math.IsNaN(vol) {
		return r3.Vec{}, false
	}
	return r3.Scale(1/vol, center), true
}

// Section is the intersection of a mesh with a plane normal to an axis.
type Section struct {
	// Segments are oriented so the solid lies to their left seen from the
	// positive axis.
	Segments [][2]r3.Vec
	// Area is the signed area enclosed by the segments. Holes subtract.
	Area float64
	// Perimeter is the summed length of the segments.
	Perimeter float64
	// Bounds of the segments. Empty when there are none.
	Bounds r3.Box
}

// CrossSection cuts the world space mesh with the plane at pos along a.
// Vertices lying exactly on the plane count as above it.
func (m *Mesh) CrossSection(a Axis, pos float64) Section {
	up := a.Unit()
	ref := a.Set(r3.Vec{}, pos)
	bb := d3.EmptyBox()
	var s Section
	for i := range m.Faces {
		t := m.Triangle(i)
		var pts [2]r3.Vec
		k := 0
		for j := 0; j < 3; j++ {
			v0, v1 := t[j], t[(j+1)%3]
			d0, d1 := a.Get(v0)-pos, a.Get(v1)-pos
			if (d0 < 0) == (d1 < 0) {
				continue
			}
			if k < 2 {
				pts[k] = r3.Add(v0, r3.Scale(d0/(d0-d1), r3.Sub(v1, v0)))
			}
			k++
		}
		if k != 2 || pts[0] == pts[1] {
			continue
		}
		p, q := pts[0], pts[1]
		if r3.Dot(r3.Sub(q, p), r3.Cross(up, m.FaceNormal(i))) < 0 {
			p, q = q, p
		}
		s.Segments = append(s.Segments, [2]r3.Vec{p, q})
		s.Area += r3.Dot(r3.Cross(r3.Sub(p, ref), r3.Sub(q, ref)), up) / 2
		s.Perimeter += r3.Norm(r3.Sub(q, p))
		bb = bb.Include(p).Include(q)
	}
	s.Bounds = r3.Box(bb)
	return s
}
