package render

import (
	"errors"
	"image"
	"image/png"
	"io"

	"github.com/fogleman/fauxgl"
	"github.com/nfnt/resize"
	"github.com/soypat/meshy"
	"github.com/soypat/meshy/internal/d3"
	"gonum.org/v1/gonum/spatial/r3"
)

// Part is a mesh drawn in a single color.
type Part struct {
	Mesh *meshy.Mesh
	// Color in "#RRGGBB" notation.
	Color string
}

// View configures the camera of Preview. Positions are given in a space
// where the parts have been fitted in the cube spanning -1 to 1.
type View struct {
	// Eye is the camera position and LookAt the point it looks at.
	Eye, LookAt r3.Vec
	Up          r3.Vec
	// Width and Height of the output image in pixels.
	Width, Height int
	// Supersample renders at a multiple of the output size and scales
	// the image down for antialiasing.
	Supersample int
	// Vertical field of view in degrees.
	Fovy       float64
	Near, Far  float64
	Background string
}

// DefaultView looks at the parts from above a corner, with up along axis.
func DefaultView(up meshy.Axis) View {
	eye := r3.Add(r3.Scale(3, up.Unit()), r3.Scale(-3, up.Next().Unit()))
	eye = r3.Add(eye, r3.Scale(-2, up.Next().Next().Unit()))
	return View{
		Eye:         eye,
		Up:          up.Unit(),
		Width:       1024,
		Height:      768,
		Supersample: 2,
		Fovy:        30,
		Near:        1,
		Far:         20,
		Background:  "#FFF8E3",
	}
}

// Preview draws a shaded image of the parts and encodes it as PNG to w.
// Parts share one scale so their relative placement is kept.
func Preview(w io.Writer, view View, parts ...Part) error {
	img, err := PreviewImage(view, parts...)
	if err != nil {
		return err
	}
	return png.Encode(w, img)
}

// PreviewImage is like Preview but returns the image.
func PreviewImage(view View, parts ...Part) (image.Image, error) {
	if view.Width <= 0 || view.Height <= 0 {
		return nil, errors.New("preview size must be positive")
	}
	bb := d3.EmptyBox()
	for _, p := range parts {
		if p.Mesh.NumFaces() > 0 {
			bb = bb.Extend(d3.Box(p.Mesh.Bounds()))
		}
	}
	if bb.Empty() {
		return nil, errors.New("nothing to preview")
	}
	scale := 1.0
	if size := d3.Max(bb.Size()); size > 0 {
		scale = 2 / size
	}
	center := bb.Center()
	fit := func(v r3.Vec) fauxgl.Vector {
		v = r3.Scale(scale, r3.Sub(v, center))
		return fauxgl.V(v.X, v.Y, v.Z)
	}

	ss := max(1, view.Supersample)
	context := fauxgl.NewContext(view.Width*ss, view.Height*ss)
	background := view.Background
	if background == "" {
		background = "#FFFFFF"
	}
	context.ClearColorBufferWith(fauxgl.HexColor(background))

	var (
		eye    = fit3(view.Eye)
		lookat = fit3(view.LookAt)
		up     = fit3(view.Up)
		light  = fauxgl.V(-0.75, 1, 0.25).Normalize()
		aspect = float64(view.Width) / float64(view.Height)
	)
	matrix := fauxgl.LookAt(eye, lookat, up).Perspective(view.Fovy, aspect, view.Near, view.Far)
	shader := fauxgl.NewPhongShader(matrix, light, eye)
	context.Shader = shader
	for _, p := range parts {
		if p.Mesh.NumFaces() == 0 {
			continue
		}
		tris := make([]*fauxgl.Triangle, 0, p.Mesh.NumFaces())
		for i := range p.Mesh.Faces {
			t := p.Mesh.Triangle(i)
			tris = append(tris, fauxgl.NewTriangleForPoints(fit(t[0]), fit(t[1]), fit(t[2])))
		}
		color := p.Color
		if color == "" {
			color = "#468966"
		}
		shader.ObjectColor = fauxgl.HexColor(color)
		context.DrawMesh(fauxgl.NewTriangleMesh(tris))
	}
	img := context.Image()
	if ss > 1 {
		img = resize.Resize(uint(view.Width), uint(view.Height), img, resize.Bilinear)
	}
	return img, nil
}

func fit3(v r3.Vec) fauxgl.Vector { return fauxgl.V(v.X, v.Y, v.Z) }
