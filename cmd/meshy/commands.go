package main

import (
	"bufio"
	"errors"
	"fmt"
	"io"

	"github.com/soypat/meshy"
	"github.com/soypat/meshy/mcg"
	"github.com/soypat/meshy/octree"
	"github.com/soypat/meshy/render"
	"github.com/soypat/meshy/repair"
	"github.com/soypat/meshy/slicer"
	"github.com/soypat/meshy/support"
	"github.com/spf13/cobra"
	"gonum.org/v1/gonum/spatial/r3"
	"gopkg.in/yaml.v2"
)

func newInfoCmd(flags *rootFlags) *cobra.Command {
	var (
		section      float64
		minThickness float64
	)
	cmd := &cobra.Command{
		Use:   "info FILE",
		Short: "Print mesh statistics",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(flags.config)
			if err != nil {
				return err
			}
			m, err := readMesh(args[0])
			if err != nil {
				return err
			}
			bb := m.Bounds()
			axis := cfg.Slicer.Axis
			if !cmd.Flags().Changed("section") {
				section = (axis.Get(bb.Min) + axis.Get(bb.Max)) / 2
			}
			w := cmd.OutOrStdout()
			fmt.Fprintf(w, "File: %s\n", args[0])
			fmt.Fprintf(w, "Triangles: %d\n", m.NumFaces())
			fmt.Fprintf(w, "Vertices: %d\n", len(m.Vertices))
			fmt.Fprintf(w, "Bounding box: %v - %v\n", bb.Min, bb.Max)
			fmt.Fprintf(w, "Volume: %g\n", m.Volume())
			fmt.Fprintf(w, "Area: %g\n", m.Area())
			if c, ok := m.CenterOfMass(); ok {
				fmt.Fprintf(w, "Center of mass: %.4g %.4g %.4g\n", c.X, c.Y, c.Z)
			} else {
				fmt.Fprintln(w, "Center of mass: none")
			}
			cs := m.CrossSection(axis, section)
			fmt.Fprintf(w, "Cross section %v=%g: area %.4g, perimeter %.4g\n", axis, section, cs.Area, cs.Perimeter)
			fmt.Fprintf(w, "Boundary edges: %d\n", repair.BoundaryEdges(m, cfg.RepairPrecision))
			if minThickness > 0 {
				thin := m.Thickness(octree.New(m), minThickness)
				fmt.Fprintf(w, "Faces thinner than %g: %d\n", minThickness, len(thin))
				for _, tf := range thin {
					meshy.Logger().Debug("thin face", "face", tf.Face, "thickness", tf.Thickness)
				}
			}
			return nil
		},
	}
	fs := cmd.Flags()
	fs.Float64Var(&section, "section", 0, "height of the cross section along the slicing axis (default mid height)")
	fs.Float64Var(&minThickness, "min-thickness", 1, "report faces whose wall is thinner than this; 0 skips the check")
	return cmd
}

func newMirrorCmd() *cobra.Command {
	var (
		output string
		axis   string
		flip   bool
	)
	cmd := &cobra.Command{
		Use:   "mirror FILE",
		Short: "Mirror a mesh across its center or flip its normals",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if axis == "" && !flip {
				return errors.New("nothing to do: pass --axis, --flip or both")
			}
			m, err := readMesh(args[0])
			if err != nil {
				return err
			}
			if axis != "" {
				a, err := meshy.ParseAxis(axis)
				if err != nil {
					return err
				}
				m = m.Mirror(a)
			}
			if flip {
				m = m.FlipNormals()
			}
			return render.CreateSTL(output, m)
		},
	}
	fs := cmd.Flags()
	fs.StringVarP(&output, "output", "o", "", "output STL file")
	fs.StringVar(&axis, "axis", "", "mirror across the plane through the mesh center normal to x, y or z")
	fs.BoolVar(&flip, "flip", false, "reverse the winding and normals of every face")
	cmd.MarkFlagRequired("output")
	return cmd
}

func newRotateCmd() *cobra.Command {
	var (
		output string
		axis   string
		angle  float64
	)
	cmd := &cobra.Command{
		Use:   "rotate FILE",
		Short: "Rotate a mesh about its center",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := meshy.ParseAxis(axis)
			if err != nil {
				return err
			}
			m, err := readMesh(args[0])
			if err != nil {
				return err
			}
			return render.CreateSTL(output, m.Rotate(a, meshy.DtoR(angle)))
		},
	}
	fs := cmd.Flags()
	fs.StringVarP(&output, "output", "o", "", "output STL file")
	fs.StringVar(&axis, "axis", "z", "rotation axis: x, y or z")
	fs.Float64Var(&angle, "angle", 90, "counter clockwise angle in degrees looking down the axis")
	cmd.MarkFlagRequired("output")
	return cmd
}

func newSliceCmd(flags *rootFlags) *cobra.Command {
	var (
		output    string
		workers   int
		plotPath  string
		plotLevel int
		lh, lw    float64
		walls     int
		infill    string
		density   float64
		noRaft    bool
	)
	cmd := &cobra.Command{
		Use:   "slice FILE",
		Short: "Slice a mesh and write its toolpath",
		Long: `Slice a mesh and write its toolpath as a plain listing, one move per line:

  travel X Y Z
  print X Y Z E FEATURE

where E is the length of filament fed during the move. Heights are relative to
the bottom of the print.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(flags.config)
			if err != nil {
				return err
			}
			p := &cfg.Slicer
			fs := cmd.Flags()
			if fs.Changed("layer-height") {
				p.LayerHeight = lh
			}
			if fs.Changed("line-width") {
				p.LineWidth = lw
			}
			if fs.Changed("walls") {
				p.NumWalls = walls
			}
			if fs.Changed("infill") {
				if p.InfillType, err = mcg.ParseInfillKind(infill); err != nil {
					return err
				}
			}
			if fs.Changed("density") {
				p.InfillDensity = density
			}
			if noRaft {
				p.MakeRaft = false
			}
			opts, err := cfg.Filament.moveOptions()
			if err != nil {
				return err
			}
			m, err := readMesh(args[0])
			if err != nil {
				return err
			}
			if cfg.Filament.Compensate {
				m = opts.Filament.Compensate(m)
			}
			s, err := slicer.New(m, *p)
			if err != nil {
				return err
			}
			if err := s.Compute(cmd.Context(), workers); err != nil {
				return err
			}
			if plotPath != "" {
				if err := plotLayer(plotPath, s, plotLevel); err != nil {
					return err
				}
			}

			var w io.Writer = cmd.OutOrStdout()
			closeOut := func() error { return nil }
			if output != "" {
				w, closeOut, err = create(output)
				if err != nil {
					return err
				}
			}
			bw := bufio.NewWriter(w)
			var total float64
			moves := 0
			err = s.WriteMoves(slicer.MoveWriterFunc(func(mv slicer.Move) error {
				moves++
				if mv.Travel {
					_, err := fmt.Fprintf(bw, "travel %.4f %.4f %.4f\n", mv.To.X, mv.To.Y, mv.To.Z)
					return err
				}
				total += mv.Extrusion
				_, err := fmt.Fprintf(bw, "print %.4f %.4f %.4f %.5f %v\n", mv.To.X, mv.To.Y, mv.To.Z, mv.Extrusion, mv.Feature)
				return err
			}), opts)
			if err == nil {
				err = bw.Flush()
			}
			if cerr := closeOut(); err == nil {
				err = cerr
			}
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.ErrOrStderr(), "%d layers (%d raft), %d moves, %.1f of %s filament\n",
				s.NumLayers(), s.NumRaftLayers(), moves, total, opts.Filament.Name)
			return nil
		},
	}
	fs := cmd.Flags()
	fs.StringVarP(&output, "output", "o", "", "toolpath output file (default stdout)")
	fs.IntVarP(&workers, "workers", "j", 0, "layers computed in parallel (default one per CPU)")
	fs.StringVar(&plotPath, "plot", "", "write a PNG plot of one layer's contours to this file")
	fs.IntVar(&plotLevel, "plot-level", 0, "level plotted by --plot; raft levels are negative")
	fs.Float64Var(&lh, "layer-height", 0, "layer height")
	fs.Float64Var(&lw, "line-width", 0, "line width")
	fs.IntVar(&walls, "walls", 0, "number of walls")
	fs.StringVar(&infill, "infill", "", "infill type: none, solid, lines or grid")
	fs.Float64Var(&density, "density", 0, "infill density between 0 and 1")
	fs.BoolVar(&noRaft, "no-raft", false, "do not make a raft")
	return cmd
}

func plotLayer(path string, s *slicer.Slicer, level int) error {
	level = s.SetLevel(level)
	l := s.Layer(level)
	opts := render.DefaultPlotOptions()
	opts.Axis = s.Params().Axis
	opts.Title = fmt.Sprintf("level %d", level)
	w, closeOut, err := create(path)
	if err != nil {
		return err
	}
	err = render.PlotLayer(w, opts,
		render.Segments{Name: "walls", Points: l.Contours(slicer.StageWalls)},
		render.Segments{Name: "infill", Points: l.Contours(slicer.StageInfill)},
	)
	if cerr := closeOut(); err == nil {
		err = cerr
	}
	return err
}

func newSupportCmd(flags *rootFlags) *cobra.Command {
	var (
		output    string
		merge     bool
		angle     float64
		radius    float64
		res       float64
		minHeight float64
	)
	cmd := &cobra.Command{
		Use:   "support FILE",
		Short: "Generate support struts under overhangs",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(flags.config)
			if err != nil {
				return err
			}
			p := &cfg.Support
			fs := cmd.Flags()
			if fs.Changed("angle") {
				p.Angle = angle
			}
			if fs.Changed("radius") {
				p.Radius = radius
			}
			if fs.Changed("resolution") {
				p.Resolution = res
			}
			m, err := readMesh(args[0])
			if err != nil {
				return err
			}
			if fs.Changed("min-height") {
				p.MinHeight = minHeight
			} else {
				p.MinHeight = p.Axis.Get(m.Bounds().Min)
			}
			sup, err := support.NewGenerator(m, octree.New(m)).Generate(cmd.Context(), *p)
			if err != nil {
				return err
			}
			if sup == nil {
				fmt.Fprintln(cmd.ErrOrStderr(), "no support needed")
				if !merge {
					return nil
				}
			} else {
				fmt.Fprintf(cmd.ErrOrStderr(), "support: %d triangles\n", sup.NumFaces())
			}
			meshes := []*meshy.Mesh{sup}
			if merge {
				meshes = []*meshy.Mesh{m, sup}
			}
			return render.CreateSTL(output, meshes...)
		},
	}
	fs := cmd.Flags()
	fs.StringVarP(&output, "output", "o", "", "output STL file")
	fs.BoolVar(&merge, "merge", false, "write the mesh together with its support")
	fs.Float64Var(&angle, "angle", 0, "overhang angle in degrees")
	fs.Float64Var(&radius, "radius", 0, "strut radius")
	fs.Float64Var(&res, "resolution", 0, "anchor spacing under overhangs")
	fs.Float64Var(&minHeight, "min-height", 0, "build plate height (default the bottom of the mesh)")
	cmd.MarkFlagRequired("output")
	return cmd
}

func newRepairCmd(flags *rootFlags) *cobra.Command {
	var (
		output    string
		patchOnly bool
	)
	cmd := &cobra.Command{
		Use:   "repair FILE",
		Short: "Close holes in a mesh",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(flags.config)
			if err != nil {
				return err
			}
			m, err := readMesh(args[0])
			if err != nil {
				return err
			}
			prec := cfg.RepairPrecision
			before := repair.BoundaryEdges(m, prec)
			patch, err := repair.PatchContext(cmd.Context(), m, prec)
			if err != nil {
				return err
			}
			if patch == nil {
				fmt.Fprintf(cmd.ErrOrStderr(), "no holes closed, %d boundary edges\n", before)
				return nil
			}
			out := meshy.Merge(m, patch)
			fmt.Fprintf(cmd.ErrOrStderr(), "boundary edges: %d before, %d after\n", before, repair.BoundaryEdges(out, prec))
			if patchOnly {
				out = patch
			}
			return render.CreateSTL(output, out)
		},
	}
	cmd.Flags().StringVarP(&output, "output", "o", "", "output STL file")
	cmd.Flags().BoolVar(&patchOnly, "patch-only", false, "write only the triangles that close the holes")
	cmd.MarkFlagRequired("output")
	return cmd
}

func newPreviewCmd(flags *rootFlags) *cobra.Command {
	var (
		output        string
		withSupport   bool
		withRepair    bool
		level         int
		width, height int
	)
	cmd := &cobra.Command{
		Use:   "preview FILE",
		Short: "Render a shaded PNG of a mesh",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(flags.config)
			if err != nil {
				return err
			}
			m, err := readMesh(args[0])
			if err != nil {
				return err
			}
			model := m
			if cmd.Flags().Changed("level") {
				if model, err = cutPreview(m, cfg.Slicer, level); err != nil {
					return err
				}
			}
			parts := []render.Part{{Mesh: model}}
			if withSupport {
				cfg.Support.MinHeight = cfg.Support.Axis.Get(m.Bounds().Min)
				sup, err := support.Generate(cmd.Context(), m, cfg.Support)
				if err != nil {
					return err
				}
				parts = append(parts, render.Part{Mesh: sup, Color: "#B64026"})
			}
			if withRepair {
				patch, err := repair.PatchContext(cmd.Context(), m, cfg.RepairPrecision)
				if err != nil {
					return err
				}
				parts = append(parts, render.Part{Mesh: patch, Color: "#2B5C8A"})
			}
			view := render.DefaultView(cfg.Slicer.Axis)
			view.Width, view.Height = width, height
			w, closeOut, err := create(output)
			if err != nil {
				return err
			}
			err = render.Preview(w, view, parts...)
			if cerr := closeOut(); err == nil {
				err = cerr
			}
			return err
		},
	}
	fs := cmd.Flags()
	fs.StringVarP(&output, "output", "o", "", "output PNG file")
	fs.BoolVar(&withSupport, "support", false, "draw generated supports")
	fs.BoolVar(&withRepair, "repair", false, "draw the patches that close holes")
	fs.IntVar(&level, "level", 0, "only draw the mesh below this slicing level")
	fs.IntVar(&width, "width", 1024, "image width in pixels")
	fs.IntVar(&height, "height", 768, "image height in pixels")
	cmd.MarkFlagRequired("output")
	return cmd
}

// cutPreview returns the part of m below a slicing level.
func cutPreview(m *meshy.Mesh, p slicer.Params, level int) (*meshy.Mesh, error) {
	s, err := slicer.New(m, p)
	if err != nil {
		return nil, err
	}
	s.SetLevel(level)
	pm := s.PreviewMesh()
	tris := make([]r3.Triangle, 0, len(pm.Positions)/3)
	for _, t := range pm.Triangles() {
		var tri r3.Triangle
		for k, v := range t {
			tri[k] = r3.Vec{X: float64(v.X), Y: float64(v.Y), Z: float64(v.Z)}
		}
		tris = append(tris, tri)
	}
	if len(tris) == 0 {
		return nil, errors.New("nothing below the requested level")
	}
	return meshy.FromTriangles(tris, 0), nil
}

func newConfigCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "config",
		Short: "Print the default configuration as YAML",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			b, err := yaml.Marshal(defaultConfig())
			if err != nil {
				return err
			}
			_, err = cmd.OutOrStdout().Write(b)
			return err
		},
	}
}
