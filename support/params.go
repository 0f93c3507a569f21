package support

import (
	"errors"
	"fmt"
	"math"

	"github.com/soypat/meshy"
)

// ErrInvalidParams is wrapped by every error returned from Params.Validate.
var ErrInvalidParams = errors.New("invalid support parameters")

// RadiusFunc selects how strut radius grows with the length of strut it
// carries.
type RadiusFunc uint8

const (
	// RadiusSqrt grows the radius as radius + k·sqrt(weight).
	RadiusSqrt RadiusFunc = iota
	// RadiusConstant keeps every strut at the base radius.
	RadiusConstant
)

func (f RadiusFunc) String() string {
	switch f {
	case RadiusSqrt:
		return "sqrt"
	case RadiusConstant:
		return "constant"
	}
	return fmt.Sprintf("RadiusFunc(%d)", int(f))
}

// ParseRadiusFunc parses "sqrt" or "constant".
func ParseRadiusFunc(s string) (RadiusFunc, error) {
	switch s {
	case "sqrt":
		return RadiusSqrt, nil
	case "constant":
		return RadiusConstant, nil
	}
	return 0, fmt.Errorf("unknown radius function %q", s)
}

// Radius returns the strut radius at a node carrying weight.
func (f RadiusFunc) Radius(radius, weight, k float64) float64 {
	if f == RadiusConstant {
		return radius
	}
	return radius + k*math.Sqrt(weight)
}

func (f RadiusFunc) MarshalYAML() (interface{}, error) { return f.String(), nil }

func (f *RadiusFunc) UnmarshalYAML(unmarshal func(interface{}) error) error {
	var s string
	if err := unmarshal(&s); err != nil {
		return err
	}
	v, err := ParseRadiusFunc(s)
	if err != nil {
		return err
	}
	*f = v
	return nil
}

// Params configures support generation. Lengths are in mesh units.
type Params struct {
	// Angle in degrees is the largest angle between a face normal and
	// the down direction for which the face is supported. It is also the
	// steepest a strut may lean from horizontal.
	Angle float64 `yaml:"angle"`
	// Resolution is the spacing of the anchor grid under overhangs.
	Resolution  float64 `yaml:"resolution"`
	LayerHeight float64 `yaml:"layerHeight"`
	Radius      float64 `yaml:"radius"`
	// Subdivs is the number of sides of each strut. Odd values are
	// rounded down.
	Subdivs int `yaml:"subdivs"`
	// TaperFactor scales the radius where a strut meets the mesh.
	TaperFactor float64    `yaml:"taperFactor"`
	RadiusFn    RadiusFunc `yaml:"radiusFn"`
	RadiusFnK   float64    `yaml:"radiusFnK"`
	Axis        meshy.Axis `yaml:"axis"`
	Epsilon     float64    `yaml:"epsilon"`
	// MinHeight is the height of the build plate along Axis.
	MinHeight float64 `yaml:"minHeight"`
}

// DefaultParams returns the default support parameters.
func DefaultParams() Params {
	return Params{
		Angle:       45,
		Resolution:  0.3,
		LayerHeight: 0.1,
		Radius:      0.1,
		Subdivs:     16,
		TaperFactor: 0.5,
		RadiusFn:    RadiusSqrt,
		RadiusFnK:   0.01,
		Axis:        meshy.Z,
		Epsilon:     1e-5,
	}
}

// Validate reports the first malformed parameter.
func (p Params) Validate() error {
	switch {
	case !p.Axis.Valid():
		return fmt.Errorf("%w: axis %d", ErrInvalidParams, p.Axis)
	case !(p.Angle > 0 && p.Angle < 90):
		return fmt.Errorf("%w: angle %g must be in (0, 90)", ErrInvalidParams, p.Angle)
	case !(p.Resolution > 0):
		return fmt.Errorf("%w: resolution %g must be positive", ErrInvalidParams, p.Resolution)
	case !(p.LayerHeight > 0):
		return fmt.Errorf("%w: layer height %g must be positive", ErrInvalidParams, p.LayerHeight)
	case !(p.Radius > 0):
		return fmt.Errorf("%w: radius %g must be positive", ErrInvalidParams, p.Radius)
	case p.Subdivs < 4:
		return fmt.Errorf("%w: subdivs %d must be at least 4", ErrInvalidParams, p.Subdivs)
	case !(p.TaperFactor > 0):
		return fmt.Errorf("%w: taper factor %g must be positive", ErrInvalidParams, p.TaperFactor)
	case p.RadiusFn > RadiusConstant:
		return fmt.Errorf("%w: %v", ErrInvalidParams, p.RadiusFn)
	case p.RadiusFnK < 0:
		return fmt.Errorf("%w: radius constant %g is negative", ErrInvalidParams, p.RadiusFnK)
	case p.Epsilon < 0 || math.IsNaN(p.Epsilon):
		return fmt.Errorf("%w: epsilon %g is negative", ErrInvalidParams, p.Epsilon)
	}
	return nil
}

func (p Params) subdivs() int { return p.Subdivs - p.Subdivs%2 }

// coneAngle is the half angle of the downward cone a node may connect in,
// measured from the axis.
func (p Params) coneAngle() float64 { return meshy.DtoR(90 - p.Angle) }

func (p Params) minStrutLength() float64 { return 3 * p.Radius }

func (p Params) radiusAt(weight float64) float64 {
	return p.RadiusFn.Radius(p.Radius, weight, p.RadiusFnK)
}
