package imodvis

import (
	"context"
	"math"
	"os"
	"strings"

	"github.com/pkg/errors"
	"github.com/unixpickle/model3d/model3d"
)

// A Format is an output format for exported surfaces.
type Format string

const (
	FormatVRML Format = "wrl"
	FormatSTL  Format = "stl"
	FormatPLY  Format = "ply"
)

// ParseFormat parses a format name, with or without a
// leading dot.
func ParseFormat(s string) (Format, error) {
	f := Format(strings.ToLower(strings.TrimPrefix(s, ".")))
	switch f {
	case FormatVRML, FormatSTL, FormatPLY:
		return f, nil
	case "vrml":
		return FormatVRML, nil
	}
	return "", errors.Errorf("unknown format %q", s)
}

// Ext gets the file extension for the format.
func (f Format) Ext() string {
	return "." + string(f)
}

// Export writes the meshes of every object in m to path.
//
// VRML is produced by the external imod2vrml2 program, while
// the other formats are encoded directly from the decoded
// meshes in physical units.
func Export(ctx context.Context, r Runner, m *Model, path string, format Format) error {
	switch format {
	case FormatVRML:
		cmd := Command{Tool: "imod2vrml2", SeparateOutput: true}
		return r.Export(ctx, m, cmd, path)
	case FormatSTL, FormatPLY:
		tris, colors, err := coloredTriangles(m)
		if err != nil {
			return errors.Wrap(err, "export "+path)
		}
		if len(tris) == 0 {
			return errors.Errorf("export %s: model has no mesh data", path)
		}
		if format == FormatSTL {
			err = model3d.NewMeshTriangles(tris).SaveGroupedSTL(path)
		} else {
			data := model3d.EncodePLY(tris, func(c model3d.Coord3D) [3]uint8 {
				return colors[c]
			})
			err = os.WriteFile(path, data, 0644)
		}
		return errors.Wrap(err, "export "+path)
	}
	return errors.Errorf("export %s: unknown format %q", path, format)
}

func coloredTriangles(m *Model) ([]*model3d.Triangle, map[model3d.Coord3D][3]uint8, error) {
	scale := m.VoxelScale()
	var tris []*model3d.Triangle
	colors := map[model3d.Coord3D][3]uint8{}
	for i, obj := range m.Objects {
		objTris, err := obj.Triangles(scale)
		if err != nil {
			return nil, nil, errors.Wrapf(err, "object %d", i+1)
		}
		color := colorBytes(obj.Color())
		for _, t := range objTris {
			for _, c := range t {
				colors[c] = color
			}
		}
		tris = append(tris, objTris...)
	}
	return tris, colors, nil
}

func colorBytes(c [3]float32) [3]uint8 {
	var res [3]uint8
	for i, x := range c {
		res[i] = uint8(math.Round(float64(clamp(x, 0, 1)) * 255))
	}
	return res
}

// A MeshSummary describes the surface of an object.
type MeshSummary struct {
	Triangles int
	Area      float64
	Min       model3d.Coord3D
	Max       model3d.Coord3D
}

// Summarize decodes the object's meshes and measures them in
// physical units.
func (m *Model) Summarize(obj *Object) (*MeshSummary, error) {
	mesh, err := obj.Mesh(m.VoxelScale())
	if err != nil {
		return nil, err
	}
	res := &MeshSummary{Triangles: len(mesh.TriangleSlice())}
	if res.Triangles > 0 {
		res.Area = mesh.Area()
		res.Min = mesh.Min()
		res.Max = mesh.Max()
	}
	return res, nil
}
