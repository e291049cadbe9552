package imodvis

// A Point is a single 3D coordinate as stored in a model file.
type Point [3]float32

// A Chunk is a tagged block of a model file which is not
// decoded, but kept so that it can be written back out.
type Chunk struct {
	ID   string
	Data []byte
}

// Copy creates a deep copy of the chunk.
func (c *Chunk) Copy() *Chunk {
	return &Chunk{ID: c.ID, Data: append([]byte{}, c.Data...)}
}

// MINX stores the transformation between the model and the
// image it was drawn on.
type MINX struct {
	OScale [3]float32
	OTrans [3]float32
	ORot   [3]float32
	CScale [3]float32
	CTrans [3]float32
	CRot   [3]float32
}

// A Model is a decoded IMOD model.
type Model struct {
	Name string

	XMax, YMax, ZMax int32

	Flags     uint32
	DrawMode  int32
	MouseMode int32

	BlackLevel int32
	WhiteLevel int32

	Offset [3]float32
	Scale  [3]float32

	CurObject  int32
	CurContour int32
	CurPoint   int32

	Res    int32
	Thresh int32

	PixelSize float32
	UnitCode  int32
	Checksum  int32

	Alpha, Beta, Gamma float32

	Objects []*Object

	// MINX is nil if the model has no image transform.
	MINX *MINX

	// Extra holds model-level chunks in the order they were read.
	Extra []*Chunk
}

// Copy creates a deep copy of the model.
func (m *Model) Copy() *Model {
	res := *m
	res.Objects = make([]*Object, len(m.Objects))
	for i, obj := range m.Objects {
		res.Objects[i] = obj.Copy()
	}
	if m.MINX != nil {
		minx := *m.MINX
		res.MINX = &minx
	}
	res.Extra = copyChunks(m.Extra)
	return &res
}

// Subset creates a copy of the model containing only the
// objects at the given 0-based indices.
//
// View chunks are dropped, since they refer to the original
// object list.
func (m *Model) Subset(indices ...int) *Model {
	res := m.Copy()
	res.Objects = make([]*Object, len(indices))
	for i, idx := range indices {
		res.Objects[i] = m.Objects[idx].Copy()
	}
	res.dropViews()
	return res
}

func (m *Model) dropViews() {
	var kept []*Chunk
	for _, c := range m.Extra {
		if c.ID != "VIEW" {
			kept = append(kept, c)
		}
	}
	m.Extra = kept
	m.CurObject = 0
	m.CurContour = -1
	m.CurPoint = -1
}

// An Object is a named group of contours and meshes.
type Object struct {
	Name string

	// ExtraHeader is the reserved area of the object header.
	ExtraHeader [64]byte

	Flags    uint32
	Axis     int32
	DrawMode int32

	Red, Green, Blue float32

	PointDrawSize int32
	Symbol        uint8
	SymbolSize    uint8
	LineWidth2    uint8
	LineWidth     uint8
	LineStyle     uint8
	SymbolFlags   uint8
	SymbolPad     uint8
	Transparency  uint8

	Contours []*Contour
	Meshes   []*Mesh

	// Extra holds object-level chunks that follow the meshes.
	Extra []*Chunk
}

// Copy creates a deep copy of the object.
func (o *Object) Copy() *Object {
	res := *o
	res.Contours = make([]*Contour, len(o.Contours))
	for i, c := range o.Contours {
		res.Contours[i] = c.Copy()
	}
	res.Meshes = make([]*Mesh, len(o.Meshes))
	for i, mesh := range o.Meshes {
		res.Meshes[i] = mesh.Copy()
	}
	res.Extra = copyChunks(o.Extra)
	return &res
}

// SetName sets the object name. Names longer than the
// on-disk limit are truncated when the model is written.
func (o *Object) SetName(name string) {
	o.Name = name
}

// SetColor sets the object color, clamping each channel to
// the range [0, 1].
func (o *Object) SetColor(r, g, b float32) {
	o.Red = clamp(r, 0, 1)
	o.Green = clamp(g, 0, 1)
	o.Blue = clamp(b, 0, 1)
}

// Color returns the object color.
func (o *Object) Color() [3]float32 {
	return [3]float32{o.Red, o.Green, o.Blue}
}

// A Contour is a connected list of points on a plane.
type Contour struct {
	Flags   uint32
	Time    int32
	Surface int32
	Points  []Point

	// Extra holds chunks such as point sizes which directly
	// follow the contour.
	Extra []*Chunk
}

func (c *Contour) Copy() *Contour {
	res := *c
	res.Points = append([]Point{}, c.Points...)
	res.Extra = copyChunks(c.Extra)
	return &res
}

// A Mesh is a surface built from an object's contours.
//
// The index list uses the control codes in mesh.go to group
// vertices into polygons.
type Mesh struct {
	Vertices []Point
	Indices  []int32
	Flag     uint32
	Time     int16
	Surface  int16
}

func (m *Mesh) Copy() *Mesh {
	res := *m
	res.Vertices = append([]Point{}, m.Vertices...)
	res.Indices = append([]int32{}, m.Indices...)
	return &res
}

func copyChunks(chunks []*Chunk) []*Chunk {
	if chunks == nil {
		return nil
	}
	res := make([]*Chunk, len(chunks))
	for i, c := range chunks {
		res[i] = c.Copy()
	}
	return res
}
