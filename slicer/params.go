package slicer

import (
	"errors"
	"fmt"

	"github.com/soypat/meshy"
	"github.com/soypat/meshy/mcg"
)

// ErrInvalidParams is wrapped by every error returned from Params.Validate.
var ErrInvalidParams = errors.New("invalid slicer parameters")

// Mode selects what View displays.
type Mode uint8

const (
	// ModePreview shows the current layer and optionally the mesh cut at it.
	ModePreview Mode = iota
	// ModeFull shows the contours of many layers at once.
	ModeFull
)

func (m Mode) String() string {
	switch m {
	case ModePreview:
		return "preview"
	case ModeFull:
		return "full"
	}
	return fmt.Sprintf("Mode(%d)", int(m))
}

// ParseMode parses "preview" or "full".
func ParseMode(s string) (Mode, error) {
	switch s {
	case "preview":
		return ModePreview, nil
	case "full":
		return ModeFull, nil
	}
	return 0, fmt.Errorf("unknown slicer mode %q", s)
}

func (m Mode) MarshalYAML() (interface{}, error) { return m.String(), nil }

func (m *Mode) UnmarshalYAML(unmarshal func(interface{}) error) error {
	var s string
	if err := unmarshal(&s); err != nil {
		return err
	}
	v, err := ParseMode(s)
	if err != nil {
		return err
	}
	*m = v
	return nil
}

// Params configures a Slicer. Lengths are in mesh units.
type Params struct {
	Axis        meshy.Axis `yaml:"axis"`
	LayerHeight float64    `yaml:"layerHeight"`
	LineWidth   float64    `yaml:"lineWidth"`
	// Precision is the number of decimal digits kept by the polygon engine.
	Precision int  `yaml:"precision"`
	Mode      Mode `yaml:"mode"`

	NumWalls int `yaml:"numWalls"`
	// NumTopLayers is the number of solid layers at the top and bottom of
	// every surface.
	NumTopLayers int `yaml:"numTopLayers"`
	// OptimizeTopLayers compares a layer only against its direct neighbours
	// and the ones NumTopLayers away.
	OptimizeTopLayers  bool           `yaml:"optimizeTopLayers"`
	InfillType         mcg.InfillKind `yaml:"infillType"`
	InfillDensity      float64        `yaml:"infillDensity"`
	InfillOverlap      float64        `yaml:"infillOverlap"`
	InfillConnectLines bool           `yaml:"infillConnectLines"`

	MakeRaft            bool    `yaml:"makeRaft"`
	RaftNumTopLayers    int     `yaml:"raftNumTopLayers"`
	RaftTopLayerHeight  float64 `yaml:"raftTopLayerHeight"`
	RaftTopLineWidth    float64 `yaml:"raftTopLineWidth"`
	RaftTopDensity      float64 `yaml:"raftTopDensity"`
	RaftNumBaseLayers   int     `yaml:"raftNumBaseLayers"`
	RaftBaseLayerHeight float64 `yaml:"raftBaseLayerHeight"`
	RaftBaseLineWidth   float64 `yaml:"raftBaseLineWidth"`
	RaftBaseDensity     float64 `yaml:"raftBaseDensity"`
	// RaftOffset grows the raft outline past the first layer.
	RaftOffset float64 `yaml:"raftOffset"`
	// RaftGap separates the top of the raft from the part.
	RaftGap        float64 `yaml:"raftGap"`
	RaftWriteWalls bool    `yaml:"raftWriteWalls"`

	PreviewSliceMesh bool `yaml:"previewSliceMesh"`
	FullUpToLayer    bool `yaml:"fullUpToLayer"`
	FullShowInfill   bool `yaml:"fullShowInfill"`
}

// DefaultParams returns the parameters used when none are given.
func DefaultParams() Params {
	return Params{
		Axis:        meshy.Z,
		LayerHeight: 0.1,
		LineWidth:   0.1,
		Precision:   mcg.DefaultPrecision,
		Mode:        ModePreview,

		NumWalls:          2,
		NumTopLayers:      3,
		OptimizeTopLayers: true,
		InfillType:        mcg.InfillNone,
		InfillDensity:     0.1,
		InfillOverlap:     0.5,

		MakeRaft:            true,
		RaftNumTopLayers:    3,
		RaftTopLayerHeight:  0.05,
		RaftTopLineWidth:    0.05,
		RaftTopDensity:      1,
		RaftNumBaseLayers:   1,
		RaftBaseLayerHeight: 0.1,
		RaftBaseLineWidth:   0.1,
		RaftBaseDensity:     0.5,
		RaftOffset:          1,
		RaftGap:             0.05,

		FullUpToLayer: true,
	}
}

// Validate reports the first malformed parameter.
func (p Params) Validate() error {
	switch {
	case !p.Axis.Valid():
		return fmt.Errorf("%w: axis %v", ErrInvalidParams, p.Axis)
	case p.LayerHeight <= 0:
		return fmt.Errorf("%w: layer height must be positive, got %g", ErrInvalidParams, p.LayerHeight)
	case p.LineWidth <= 0:
		return fmt.Errorf("%w: line width must be positive, got %g", ErrInvalidParams, p.LineWidth)
	case p.Precision < 0 || p.Precision > 9:
		return fmt.Errorf("%w: precision must be in [0, 9], got %d", ErrInvalidParams, p.Precision)
	case p.NumWalls < 0 || p.NumTopLayers < 0:
		return fmt.Errorf("%w: negative wall or top layer count", ErrInvalidParams)
	case p.InfillDensity < 0 || p.InfillDensity > 1:
		return fmt.Errorf("%w: infill density must be in [0, 1], got %g", ErrInvalidParams, p.InfillDensity)
	case p.InfillOverlap < 0 || p.InfillOverlap > 1:
		return fmt.Errorf("%w: infill overlap must be in [0, 1], got %g", ErrInvalidParams, p.InfillOverlap)
	}
	if !p.MakeRaft {
		return nil
	}
	switch {
	case p.RaftNumTopLayers < 0 || p.RaftNumBaseLayers < 0:
		return fmt.Errorf("%w: negative raft layer count", ErrInvalidParams)
	case p.RaftTopLayerHeight <= 0 || p.RaftBaseLayerHeight <= 0:
		return fmt.Errorf("%w: raft layer heights must be positive", ErrInvalidParams)
	case p.RaftTopLineWidth <= 0 || p.RaftBaseLineWidth <= 0:
		return fmt.Errorf("%w: raft line widths must be positive", ErrInvalidParams)
	case p.RaftTopDensity <= 0 || p.RaftBaseDensity <= 0 || p.RaftTopDensity > 1 || p.RaftBaseDensity > 1:
		return fmt.Errorf("%w: raft densities must be in (0, 1]", ErrInvalidParams)
	case p.RaftGap < 0:
		return fmt.Errorf("%w: negative raft gap %g", ErrInvalidParams, p.RaftGap)
	}
	return nil
}

// numRaftLayers is zero when no raft is made.
func (p Params) numRaftLayers() int {
	if !p.MakeRaft {
		return 0
	}
	return p.RaftNumBaseLayers + p.RaftNumTopLayers
}

// raftHeight is the height of the raft including the gap to the part.
func (p Params) raftHeight() float64 {
	if !p.MakeRaft {
		return 0
	}
	return float64(p.RaftNumTopLayers)*p.RaftTopLayerHeight +
		float64(p.RaftNumBaseLayers)*p.RaftBaseLayerHeight + p.RaftGap
}

// sliceLayerParams returns the stage parameters of part layers.
func (p Params) sliceLayerParams() layerParams {
	kind := p.InfillType
	if p.InfillDensity == 0 {
		kind = mcg.InfillNone
	}
	return layerParams{
		lineWidth:         p.LineWidth,
		numWalls:          p.NumWalls,
		numTopLayers:      p.NumTopLayers,
		optimizeTopLayers: p.OptimizeTopLayers,
		infillType:        kind,
		infillDensity:     p.InfillDensity,
		infillOverlap:     p.InfillOverlap,
		connectLines:      p.InfillConnectLines,
	}
}

// raftLayerParams returns the stage parameters of raft layer i.
func (p Params) raftLayerParams(i int) layerParams {
	lp := layerParams{
		numWalls:      p.NumWalls,
		infillType:    mcg.InfillLines,
		infillOverlap: p.InfillOverlap,
		// Lines are joined when no walls will hold them together.
		connectLines: !p.RaftWriteWalls,
	}
	if i < p.RaftNumBaseLayers {
		lp.lineWidth, lp.infillDensity = p.RaftBaseLineWidth, p.RaftBaseDensity
	} else {
		lp.lineWidth, lp.infillDensity = p.RaftTopLineWidth, p.RaftTopDensity
	}
	return lp
}

// sameSlicing reports whether both parameter sets cut the mesh identically.
func (p Params) sameSlicing(q Params) bool {
	return p.Axis == q.Axis && p.LayerHeight == q.LayerHeight && p.Precision == q.Precision
}

// sameRaft reports whether both parameter sets produce the same raft.
func (p Params) sameRaft(q Params) bool {
	return p.MakeRaft == q.MakeRaft &&
		p.RaftNumTopLayers == q.RaftNumTopLayers &&
		p.RaftTopLayerHeight == q.RaftTopLayerHeight &&
		p.RaftTopLineWidth == q.RaftTopLineWidth &&
		p.RaftTopDensity == q.RaftTopDensity &&
		p.RaftNumBaseLayers == q.RaftNumBaseLayers &&
		p.RaftBaseLayerHeight == q.RaftBaseLayerHeight &&
		p.RaftBaseLineWidth == q.RaftBaseLineWidth &&
		p.RaftBaseDensity == q.RaftBaseDensity &&
		p.RaftOffset == q.RaftOffset &&
		p.RaftGap == q.RaftGap &&
		p.RaftWriteWalls == q.RaftWriteWalls &&
		p.LineWidth == q.LineWidth &&
		p.NumWalls == q.NumWalls &&
		p.InfillOverlap == q.InfillOverlap
}
