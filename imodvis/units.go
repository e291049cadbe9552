package imodvis

import (
	"github.com/pkg/errors"
	"golang.org/x/exp/constraints"
	"golang.org/x/exp/maps"
	"golang.org/x/exp/slices"
)

var unitCodes = map[string]int32{
	"pixel": 0,
	"km":    3,
	"m":     1,
	"cm":    -2,
	"mm":    -3,
	"um":    -6,
	"nm":    -9,
	"A":     -10,
	"pm":    -12,
}

// UnitNames lists the unit names accepted by SetUnits.
func UnitNames() []string {
	names := maps.Keys(unitCodes)
	slices.Sort(names)
	return names
}

// SetUnits sets the units of the model's pixel size, such as
// "nm" or "um".
func (m *Model) SetUnits(name string) error {
	code, ok := unitCodes[name]
	if !ok {
		return errors.Errorf("set units: unknown unit %q (expected one of %v)", name, UnitNames())
	}
	m.UnitCode = code
	return nil
}

// Units gets the name of the model's units, or an empty
// string if the unit code is not recognized.
func (m *Model) Units() string {
	for name, code := range unitCodes {
		if code == m.UnitCode {
			return name
		}
	}
	return ""
}

// SetPixelSizeXY sets the size of a pixel in the X-Y plane.
func (m *Model) SetPixelSizeXY(size float32) error {
	if size <= 0 {
		return errors.Errorf("set pixel size: invalid size %f", size)
	}
	m.PixelSize = size
	return nil
}

// SetPixelSizeZ sets the size of a pixel along the Z axis.
//
// The size is stored relative to the X-Y pixel size, so that
// should be set first.
func (m *Model) SetPixelSizeZ(size float32) error {
	if size <= 0 {
		return errors.Errorf("set pixel size: invalid size %f", size)
	}
	xy := m.PixelSize
	if xy <= 0 {
		xy = 1
	}
	m.Scale[2] = size / xy
	return nil
}

// PixelSizeZ gets the size of a pixel along the Z axis.
func (m *Model) PixelSizeZ() float32 {
	return m.PixelSize * m.Scale[2]
}

func clamp[F constraints.Float](x, min, max F) F {
	if x < min {
		return min
	} else if x > max {
		return max
	}
	return x
}
