package render

import (
	"errors"
	"image/color"
	"io"

	"github.com/soypat/meshy"
	"github.com/soypat/meshy/internal/d2"
	"gonum.org/v1/gonum/spatial/r2"
	"gonum.org/v1/gonum/spatial/r3"
	"gonum.org/v1/plot"
	"gonum.org/v1/plot/vg"
	"gonum.org/v1/plot/vg/draw"
	_ "gonum.org/v1/plot/vg/vgimg" // png, jpg and tiff writers
)

// Segments is a named group of line segments given as consecutive point
// pairs, as returned by slicer.Layer.Contours.
type Segments struct {
	Name   string
	Points []r3.Vec
	Color  color.Color
}

// PlotOptions configures PlotLayer.
type PlotOptions struct {
	Title string
	// Axis is the slicing axis. Points are projected onto the plane normal
	// to it.
	Axis meshy.Axis
	// Image size and format: "png", "jpg" or "tiff".
	Width, Height vg.Length
	Format        string
}

// DefaultPlotOptions returns a 12cm square PNG plot.
func DefaultPlotOptions() PlotOptions {
	return PlotOptions{
		Axis:   meshy.Z,
		Width:  12 * vg.Centimeter,
		Height: 12 * vg.Centimeter,
		Format: "png",
	}
}

// PlotLayer draws segment groups in the plane of a layer and writes the
// plot to w.
func PlotLayer(w io.Writer, opts PlotOptions, groups ...Segments) error {
	p, err := newLayerPlot(opts, groups...)
	if err != nil {
		return err
	}
	wt, err := p.WriterTo(opts.Width, opts.Height, opts.Format)
	if err != nil {
		return err
	}
	_, err = wt.WriteTo(w)
	return err
}

func newLayerPlot(opts PlotOptions, groups ...Segments) (*plot.Plot, error) {
	if !opts.Axis.Valid() {
		return nil, errors.New("invalid plot axis")
	}
	p := plot.New()
	p.Title.Text = opts.Title
	p.X.Label.Text = opts.Axis.Next().String()
	p.Y.Label.Text = opts.Axis.Next().Next().String()
	for i, g := range groups {
		if len(g.Points)%2 != 0 {
			return nil, errors.New("segment points must come in pairs")
		}
		sp := &segmentPlotter{
			style: draw.LineStyle{Color: g.Color, Width: vg.Points(1)},
			bb:    d2.EmptyBox(),
		}
		if sp.style.Color == nil {
			sp.style.Color = palette[i%len(palette)]
		}
		sp.pts = make([]r2.Vec, len(g.Points))
		for k, v := range g.Points {
			sp.pts[k] = opts.Axis.Project(v)
			sp.bb = sp.bb.Include(sp.pts[k])
		}
		p.Add(sp)
		if g.Name != "" {
			p.Legend.Add(g.Name, sp)
		}
	}
	return p, nil
}

var palette = []color.Color{
	color.RGBA{R: 0x46, G: 0x89, B: 0x66, A: 0xff},
	color.RGBA{R: 0xb6, G: 0x40, B: 0x26, A: 0xff},
	color.RGBA{R: 0x2b, G: 0x5c, B: 0x8a, A: 0xff},
	color.RGBA{R: 0xd9, G: 0x9a, B: 0x1e, A: 0xff},
}

// segmentPlotter implements plot.Plotter, plot.DataRanger and
// plot.Thumbnailer for disconnected line segments.
type segmentPlotter struct {
	pts   []r2.Vec
	bb    d2.Box
	style draw.LineStyle
}

func (s *segmentPlotter) Plot(c draw.Canvas, plt *plot.Plot) {
	trX, trY := plt.Transforms(&c)
	for i := 0; i+1 < len(s.pts); i += 2 {
		a, b := s.pts[i], s.pts[i+1]
		c.StrokeLine2(s.style, trX(a.X), trY(a.Y), trX(b.X), trY(b.Y))
	}
}

func (s *segmentPlotter) DataRange() (xmin, xmax, ymin, ymax float64) {
	if len(s.pts) == 0 {
		return 0, 0, 0, 0
	}
	return s.bb.Min.X, s.bb.Max.X, s.bb.Min.Y, s.bb.Max.Y
}

func (s *segmentPlotter) Thumbnail(c *draw.Canvas) {
	y := c.Center().Y
	c.StrokeLine2(s.style, c.Min.X, y, c.Max.X, y)
}
