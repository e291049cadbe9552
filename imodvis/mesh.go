package imodvis

import (
	"github.com/pkg/errors"
	"github.com/unixpickle/model3d/model3d"
)

// Control codes in a mesh index list.
const (
	meshEnd            = -1
	meshNormal         = -20
	meshBeginPoly      = -21
	meshEndPoly        = -22
	meshBeginPolyNorm  = -23
	meshBeginBigPoly   = -24
	meshBeginPolyNorm2 = -25
)

// VoxelScale gets the physical size of one model unit along
// each axis, taking pixel size and Z scale into account.
func (m *Model) VoxelScale() model3d.Coord3D {
	pix := float64(m.PixelSize)
	if pix <= 0 {
		pix = 1
	}
	var scale [3]float64
	for i, s := range m.Scale {
		if s <= 0 {
			s = 1
		}
		scale[i] = float64(s) * pix
	}
	return model3d.XYZ(scale[0], scale[1], scale[2])
}

// Triangles decodes every mesh of the object into triangles,
// multiplying each vertex by scale.
//
// Degenerate triangles are dropped.
func (o *Object) Triangles(scale model3d.Coord3D) ([]*model3d.Triangle, error) {
	var res []*model3d.Triangle
	for i, mesh := range o.Meshes {
		tris, err := mesh.Triangles(scale)
		if err != nil {
			return nil, errors.Wrapf(err, "mesh %d", i+1)
		}
		res = append(res, tris...)
	}
	return res, nil
}

// Mesh decodes the object's triangles into a model3d mesh.
func (o *Object) Mesh(scale model3d.Coord3D) (*model3d.Mesh, error) {
	tris, err := o.Triangles(scale)
	if err != nil {
		return nil, err
	}
	return model3d.NewMeshTriangles(tris), nil
}

// Triangles decodes the index list into triangles.
func (m *Mesh) Triangles(scale model3d.Coord3D) ([]*model3d.Triangle, error) {
	vertex := func(idx int32) (model3d.Coord3D, error) {
		if idx < 0 || int(idx) >= len(m.Vertices) {
			return model3d.Coord3D{}, errors.Errorf("vertex index %d out of range", idx)
		}
		p := m.Vertices[idx]
		return model3d.XYZ(float64(p[0]), float64(p[1]), float64(p[2])).Mul(scale), nil
	}

	var res []*model3d.Triangle
	addPolygon := func(indices []int32, fan bool) error {
		coords := make([]model3d.Coord3D, len(indices))
		for i, idx := range indices {
			c, err := vertex(idx)
			if err != nil {
				return err
			}
			coords[i] = c
		}
		var tris []*model3d.Triangle
		if fan {
			for i := 2; i < len(coords); i++ {
				tris = append(tris, &model3d.Triangle{coords[0], coords[i-1], coords[i]})
			}
		} else {
			if len(coords)%3 != 0 {
				return errors.Errorf("polygon of %d vertices is not a triangle list", len(coords))
			}
			for i := 0; i < len(coords); i += 3 {
				tris = append(tris, &model3d.Triangle{coords[i], coords[i+1], coords[i+2]})
			}
		}
		for _, t := range tris {
			if t.Area() > 0 {
				res = append(res, t)
			}
		}
		return nil
	}

	list := m.Indices
	for i := 0; i < len(list); i++ {
		switch list[i] {
		case meshEnd:
			return res, nil
		case meshNormal:
			i++
		case meshBeginPoly, meshBeginPolyNorm2, meshBeginBigPoly, meshBeginPolyNorm:
			code := list[i]
			var indices []int32
			i++
			for ; i < len(list) && list[i] != meshEndPoly; i++ {
				if code == meshBeginPolyNorm {
					// Entries are (normal, vertex) pairs.
					i++
					if i >= len(list) {
						return nil, errors.New("unterminated normal pair")
					}
				}
				indices = append(indices, list[i])
			}
			if i >= len(list) {
				return nil, errors.New("unterminated polygon")
			}
			if err := addPolygon(indices, code == meshBeginBigPoly); err != nil {
				return nil, err
			}
		}
	}
	return res, nil
}
