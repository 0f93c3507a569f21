package render_test

import (
	"bytes"
	"errors"
	"image/color"
	"image/png"
	"os"
	"path/filepath"
	"testing"

	"github.com/soypat/meshy"
	"github.com/soypat/meshy/render"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gonum.org/v1/gonum/spatial/r3"
	"gonum.org/v1/plot/cmpimg"
)

func box() *meshy.Mesh {
	return meshy.NewCuboid(r3.Vec{X: -1, Y: -2, Z: 0}, r3.Vec{X: 3, Y: 2, Z: 1.5})
}

func TestSTLWriteRead(t *testing.T) {
	a, b := box(), box()
	b.Transform = b.Transform.Translate(r3.Vec{X: 10})
	var buf bytes.Buffer
	require.NoError(t, render.WriteSTL(&buf, a, nil, b))
	assert.Equal(t, 84+50*24, buf.Len())
	got, err := render.ReadSTL(&buf)
	require.NoError(t, err)
	require.Len(t, got, 24)
	assert.Equal(t, a.Triangles(), got[:12])
	assert.Equal(t, b.Triangles(), got[12:])
	assert.InDelta(t, 10, got[12][0].X-got[0][0].X, 1e-12)

	welded := meshy.FromTriangles(got[:12], 1e-6)
	assert.Len(t, welded.Vertices, 8)
	assert.InDelta(t, a.Volume(), welded.Volume(), 1e-9)

	assert.Error(t, render.WriteSTL(&buf))
	assert.Error(t, render.WriteSTL(&buf, &meshy.Mesh{}))
	_, err = render.ReadSTL(bytes.NewReader(nil))
	assert.Error(t, err)
	_, err = render.ReadSTL(bytes.NewReader(make([]byte, 84)))
	assert.Error(t, err, "zero facet count")
}

func TestCreateSTL(t *testing.T) {
	// Stored normals of a mirrored mesh must agree with its world winding.
	m := box().Mirror(meshy.X)
	path := filepath.Join(t.TempDir(), "box.stl")
	require.NoError(t, render.CreateSTL(path, m))
	raw, err := os.ReadFile(path)
	require.NoError(t, err)
	var buf bytes.Buffer
	require.NoError(t, render.WriteSTL(&buf, m))
	assert.Equal(t, buf.Bytes(), raw)

	got, err := render.ReadSTL(bytes.NewReader(raw))
	require.NoError(t, err)
	assert.InDelta(t, box().Volume(), meshy.FromTriangles(got, 1e-6).Volume(), 1e-9)

	// Truncated files report the facet that failed.
	_, err = render.ReadSTL(bytes.NewReader(raw[:84+50*3+10]))
	assert.ErrorContains(t, err, "4 of 12")

	assert.Error(t, render.CreateSTL(filepath.Join(t.TempDir(), "missing", "x.stl"), m))
}

const asciiTriangle = `solid tri
  facet normal 0 0 1
    outer loop
      vertex 0 0 0
      vertex 1 0 0
      vertex 0 1 0
    endloop
  endfacet
  facet normal 0 0 -1
    outer loop
      vertex 0 0 0
      vertex 0 1 0
      vertex 1 0 0
    endloop
  endfacet
endsolid tri
`

func TestReadASCIISTL(t *testing.T) {
	got, err := render.ReadSTL(bytes.NewBufferString(asciiTriangle))
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, r3.Triangle{{}, {X: 1}, {Y: 1}}, got[0])
	assert.Equal(t, r3.Triangle{{}, {Y: 1}, {X: 1}}, got[1])

	_, err = render.ReadSTL(bytes.NewBufferString("solid x\n facet normal 0 0 1\n outer loop\n vertex 0 0\n"))
	assert.Error(t, err)
}

func TestPreview(t *testing.T) {
	view := render.DefaultView(meshy.Z)
	view.Width, view.Height = 160, 120
	support := meshy.NewCuboid(r3.Vec{Z: -1}, r3.Vec{X: 0.5, Y: 0.5, Z: 0})
	parts := []render.Part{{Mesh: box()}, {Mesh: support, Color: "#B64026"}}

	var b1, b2 bytes.Buffer
	require.NoError(t, render.Preview(&b1, view, parts...))
	require.NoError(t, render.Preview(&b2, view, parts...))
	equal, err := cmpimg.EqualApprox("png", b1.Bytes(), b2.Bytes(), 0)
	require.NoError(t, err)
	assert.True(t, equal, "preview is not deterministic")

	img, err := png.Decode(&b1)
	require.NoError(t, err)
	assert.Equal(t, 160, img.Bounds().Dx())
	assert.Equal(t, 120, img.Bounds().Dy())
	// The fitted parts cover the center of the image.
	bg := color.NRGBAModel.Convert(color.NRGBA{R: 0xFF, G: 0xF8, B: 0xE3, A: 0xFF})
	assert.NotEqual(t, bg, color.NRGBAModel.Convert(img.At(80, 60)))

	err = render.Preview(&b1, view, render.Part{Mesh: &meshy.Mesh{}})
	assert.Error(t, err)
	view.Width = 0
	assert.Error(t, render.Preview(&b1, view, parts...))
}

func TestPlotLayer(t *testing.T) {
	square := []r3.Vec{
		{X: 0, Y: 0, Z: 1}, {X: 1, Y: 0, Z: 1},
		{X: 1, Y: 0, Z: 1}, {X: 1, Y: 1, Z: 1},
		{X: 1, Y: 1, Z: 1}, {X: 0, Y: 1, Z: 1},
		{X: 0, Y: 1, Z: 1}, {X: 0, Y: 0, Z: 1},
	}
	opts := render.DefaultPlotOptions()
	opts.Title = "layer 1"
	var b bytes.Buffer
	err := render.PlotLayer(&b, opts,
		render.Segments{Name: "walls", Points: square},
		render.Segments{Name: "infill", Points: square[:2]},
	)
	require.NoError(t, err)
	img, err := png.Decode(&b)
	require.NoError(t, err)
	assert.Greater(t, img.Bounds().Dx(), 0)

	err = render.PlotLayer(&b, opts, render.Segments{Points: square[:3]})
	assert.Error(t, err)
	opts.Axis = meshy.Axis(5)
	err = render.PlotLayer(&b, opts)
	assert.Error(t, err)
}

func TestReadSTLNormalMismatch(t *testing.T) {
	tri := meshy.FromTriangles([]r3.Triangle{{{}, {X: 1}, {Y: 1}}}, 0)
	var b bytes.Buffer
	require.NoError(t, render.WriteSTL(&b, tri))
	raw := b.Bytes()
	// Overwrite the stored normal with +X.
	copy(raw[84:96], []byte{0, 0, 0x80, 0x3f, 0, 0, 0, 0, 0, 0, 0, 0})
	got, err := render.ReadSTL(bytes.NewReader(raw))
	assert.True(t, errors.Is(err, render.ErrNormalMismatch), "got %v", err)
	assert.Len(t, got, 1)
}
