package meshy

import (
	"fmt"

	"gonum.org/v1/gonum/spatial/r2"
	"gonum.org/v1/gonum/spatial/r3"
)

// Axis names one of the three cartesian axes. The zero value is X.
type Axis int

const (
	X Axis = iota
	Y
	Z
)

// ParseAxis parses "x", "y" or "z" (case insensitive).
func ParseAxis(s string) (Axis, error) {
	switch s {
	case "x", "X":
		return X, nil
	case "y", "Y":
		return Y, nil
	case "z", "Z":
		return Z, nil
	}
	return 0, fmt.Errorf("invalid axis %q", s)
}

func (a Axis) String() string {
	switch a {
	case X:
		return "x"
	case Y:
		return "y"
	case Z:
		return "z"
	}
	return fmt.Sprintf("Axis(%d)", int(a))
}

// Next cycles the axis: x→y→z→x. For a slicing axis a, the plane
// coordinates are a.Next() (horizontal) and a.Next().Next() (vertical).
func (a Axis) Next() Axis {
	return (a + 1) % 3
}

// Get returns the component of v along the axis.
func (a Axis) Get(v r3.Vec) float64 {
	switch a {
	case X:
		return v.X
	case Y:
		return v.Y
	}
	return v.Z
}

// Set returns v with its component along the axis replaced by f.
func (a Axis) Set(v r3.Vec, f float64) r3.Vec {
	switch a {
	case X:
		v.X = f
	case Y:
		v.Y = f
	default:
		v.Z = f
	}
	return v
}

// Unit returns the unit vector pointing along the positive axis.
func (a Axis) Unit() r3.Vec {
	return a.Set(r3.Vec{}, 1)
}

// Project returns the plane coordinates of v normal to the axis: X holds
// the a.Next() component and Y the a.Next().Next() component.
func (a Axis) Project(v r3.Vec) r2.Vec {
	h := a.Next()
	return r2.Vec{X: h.Get(v), Y: h.Next().Get(v)}
}

// Unproject is the inverse of Project, placing p at height d on the axis.
func (a Axis) Unproject(p r2.Vec, d float64) r3.Vec {
	h := a.Next()
	v := a.Set(r3.Vec{}, d)
	v = h.Set(v, p.X)
	return h.Next().Set(v, p.Y)
}

// Valid reports whether a is one of X, Y or Z.
func (a Axis) Valid() bool { return a >= X && a <= Z }

// MarshalYAML implements yaml.Marshaler.
func (a Axis) MarshalYAML() (interface{}, error) {
	return a.String(), nil
}

// UnmarshalYAML implements yaml.Unmarshaler.
func (a *Axis) UnmarshalYAML(unmarshal func(interface{}) error) error {
	var s string
	if err := unmarshal(&s); err != nil {
		return err
	}
	ax, err := ParseAxis(s)
	if err != nil {
		return err
	}
	*a = ax
	return nil
}
