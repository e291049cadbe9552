package imodvis

import (
	"bufio"
	"bytes"
	"encoding/binary"
	"io"

	"github.com/pkg/errors"
)

const (
	modelMagic   = "IMOD"
	modelVersion = "V1.2"

	maxChunkItems = 1 << 28
)

// Chunks which describe the whole model rather than the
// object they happen to follow.
var modelChunkIDs = map[string]bool{
	"VIEW": true,
	"MOST": true,
	"REFP": true,
	"IMNX": true,
	"SLAN": true,
}

// Chunks which belong to the contour they directly follow.
var contourChunkIDs = map[string]bool{
	"SIZE": true,
	"LABL": true,
}

type modelHeader struct {
	Name       [128]byte
	XMax       int32
	YMax       int32
	ZMax       int32
	ObjSize    int32
	Flags      uint32
	DrawMode   int32
	MouseMode  int32
	BlackLevel int32
	WhiteLevel int32
	Offset     [3]float32
	Scale      [3]float32
	Object     int32
	Contour    int32
	Point      int32
	Res        int32
	Thresh     int32
	PixSize    float32
	Units      int32
	Csum       int32
	Alpha      float32
	Beta       float32
	Gamma      float32
}

type objectHeader struct {
	Name       [64]byte
	Extra      [64]byte
	ContSize   int32
	Flags      uint32
	Axis       int32
	DrawMode   int32
	Red        float32
	Green      float32
	Blue       float32
	PDrawSize  int32
	Symbol     uint8
	SymSize    uint8
	LineWidth2 uint8
	LineWidth  uint8
	LineSty    uint8
	SymFlags   uint8
	SymPad     uint8
	Trans      uint8
	MeshSize   int32
	SurfSize   int32
}

type contourHeader struct {
	PSize int32
	Flags uint32
	Time  int32
	Surf  int32
}

type meshHeader struct {
	VSize int32
	LSize int32
	Flag  uint32
	Time  int16
	Surf  int16
}

// ReadModel decodes a binary IMOD model.
func ReadModel(r io.Reader) (*Model, error) {
	m, err := readModel(bufio.NewReader(r))
	if err != nil {
		return nil, errors.Wrap(err, "read model")
	}
	return m, nil
}

func readModel(r io.Reader) (*Model, error) {
	var magic [8]byte
	if _, err := io.ReadFull(r, magic[:]); err != nil {
		return nil, err
	}
	if string(magic[:4]) != modelMagic {
		return nil, errors.Errorf("bad magic %q", magic[:4])
	}
	var h modelHeader
	if err := binary.Read(r, binary.BigEndian, &h); err != nil {
		return nil, errors.Wrap(err, "header")
	}
	m := &Model{
		Name:       decodeName(h.Name[:]),
		XMax:       h.XMax,
		YMax:       h.YMax,
		ZMax:       h.ZMax,
		Flags:      h.Flags,
		DrawMode:   h.DrawMode,
		MouseMode:  h.MouseMode,
		BlackLevel: h.BlackLevel,
		WhiteLevel: h.WhiteLevel,
		Offset:     h.Offset,
		Scale:      h.Scale,
		CurObject:  h.Object,
		CurContour: h.Contour,
		CurPoint:   h.Point,
		Res:        h.Res,
		Thresh:     h.Thresh,
		PixelSize:  h.PixSize,
		UnitCode:   h.Units,
		Checksum:   h.Csum,
		Alpha:      h.Alpha,
		Beta:       h.Beta,
		Gamma:      h.Gamma,
	}

	var obj *Object
	var cont *Contour
	for {
		var id [4]byte
		if _, err := io.ReadFull(r, id[:]); err != nil {
			if err == io.EOF {
				// Some writers omit the trailing IEOF.
				break
			}
			return nil, err
		}
		switch string(id[:]) {
		case "IEOF":
			return m, nil
		case "OBJT":
			var err error
			cont = nil
			obj, err = readObjectHeader(r)
			if err != nil {
				return nil, errors.Wrapf(err, "object %d", len(m.Objects)+1)
			}
			m.Objects = append(m.Objects, obj)
		case "CONT":
			if obj == nil {
				return nil, errors.New("contour outside of object")
			}
			c, err := readContour(r)
			if err != nil {
				return nil, errors.Wrapf(err, "object %d contour", len(m.Objects))
			}
			obj.Contours = append(obj.Contours, c)
			cont = c
		case "MESH":
			if obj == nil {
				return nil, errors.New("mesh outside of object")
			}
			cont = nil
			mesh, err := readMesh(r)
			if err != nil {
				return nil, errors.Wrapf(err, "object %d mesh", len(m.Objects))
			}
			obj.Meshes = append(obj.Meshes, mesh)
		default:
			chunk, err := readChunk(r, string(id[:]))
			if err != nil {
				return nil, err
			}
			if chunk.ID == "MINX" {
				minx, err := decodeMINX(chunk.Data)
				if err != nil {
					return nil, err
				}
				m.MINX = minx
			} else if cont != nil && contourChunkIDs[chunk.ID] {
				cont.Extra = append(cont.Extra, chunk)
			} else if obj == nil || modelChunkIDs[chunk.ID] {
				m.Extra = append(m.Extra, chunk)
			} else {
				obj.Extra = append(obj.Extra, chunk)
			}
		}
	}
	return m, nil
}

func readObjectHeader(r io.Reader) (*Object, error) {
	var h objectHeader
	if err := binary.Read(r, binary.BigEndian, &h); err != nil {
		return nil, err
	}
	return &Object{
		Name:          decodeName(h.Name[:]),
		ExtraHeader:   h.Extra,
		Flags:         h.Flags,
		Axis:          h.Axis,
		DrawMode:      h.DrawMode,
		Red:           h.Red,
		Green:         h.Green,
		Blue:          h.Blue,
		PointDrawSize: h.PDrawSize,
		Symbol:        h.Symbol,
		SymbolSize:    h.SymSize,
		LineWidth2:    h.LineWidth2,
		LineWidth:     h.LineWidth,
		LineStyle:     h.LineSty,
		SymbolFlags:   h.SymFlags,
		SymbolPad:     h.SymPad,
		Transparency:  h.Trans,
	}, nil
}

func readContour(r io.Reader) (*Contour, error) {
	var h contourHeader
	if err := binary.Read(r, binary.BigEndian, &h); err != nil {
		return nil, err
	}
	if h.PSize < 0 || h.PSize > maxChunkItems {
		return nil, errors.Errorf("invalid point count %d", h.PSize)
	}
	points := make([]Point, h.PSize)
	if err := binary.Read(r, binary.BigEndian, points); err != nil {
		return nil, err
	}
	return &Contour{
		Flags:   h.Flags,
		Time:    h.Time,
		Surface: h.Surf,
		Points:  points,
	}, nil
}

func readMesh(r io.Reader) (*Mesh, error) {
	var h meshHeader
	if err := binary.Read(r, binary.BigEndian, &h); err != nil {
		return nil, err
	}
	if h.VSize < 0 || h.VSize > maxChunkItems {
		return nil, errors.Errorf("invalid vertex count %d", h.VSize)
	}
	if h.LSize < 0 || h.LSize > maxChunkItems {
		return nil, errors.Errorf("invalid index count %d", h.LSize)
	}
	mesh := &Mesh{
		Vertices: make([]Point, h.VSize),
		Indices:  make([]int32, h.LSize),
		Flag:     h.Flag,
		Time:     h.Time,
		Surface:  h.Surf,
	}
	if err := binary.Read(r, binary.BigEndian, mesh.Vertices); err != nil {
		return nil, err
	}
	if err := binary.Read(r, binary.BigEndian, mesh.Indices); err != nil {
		return nil, err
	}
	return mesh, nil
}

func readChunk(r io.Reader, id string) (*Chunk, error) {
	var size int32
	if err := binary.Read(r, binary.BigEndian, &size); err != nil {
		return nil, errors.Wrapf(err, "chunk %s", id)
	}
	if size < 0 || size > maxChunkItems {
		return nil, errors.Errorf("chunk %s: invalid size %d", id, size)
	}
	data := make([]byte, size)
	if _, err := io.ReadFull(r, data); err != nil {
		return nil, errors.Wrapf(err, "chunk %s", id)
	}
	return &Chunk{ID: id, Data: data}, nil
}

func decodeMINX(data []byte) (*MINX, error) {
	var minx MINX
	if len(data) < binary.Size(&minx) {
		return nil, errors.Errorf("chunk MINX: short payload of %d bytes", len(data))
	}
	if err := binary.Read(bytes.NewReader(data), binary.BigEndian, &minx); err != nil {
		return nil, errors.Wrap(err, "chunk MINX")
	}
	return &minx, nil
}

// WriteModel encodes m in the binary IMOD format.
func WriteModel(w io.Writer, m *Model) error {
	bw := bufio.NewWriter(w)
	if err := writeModel(bw, m); err != nil {
		return errors.Wrap(err, "write model")
	}
	if err := bw.Flush(); err != nil {
		return errors.Wrap(err, "write model")
	}
	return nil
}

func writeModel(w io.Writer, m *Model) error {
	if _, err := io.WriteString(w, modelMagic+modelVersion); err != nil {
		return err
	}
	h := modelHeader{
		XMax:       m.XMax,
		YMax:       m.YMax,
		ZMax:       m.ZMax,
		ObjSize:    int32(len(m.Objects)),
		Flags:      m.Flags,
		DrawMode:   m.DrawMode,
		MouseMode:  m.MouseMode,
		BlackLevel: m.BlackLevel,
		WhiteLevel: m.WhiteLevel,
		Offset:     m.Offset,
		Scale:      m.Scale,
		Object:     m.CurObject,
		Contour:    m.CurContour,
		Point:      m.CurPoint,
		Res:        m.Res,
		Thresh:     m.Thresh,
		PixSize:    m.PixelSize,
		Units:      m.UnitCode,
		Csum:       m.Checksum,
		Alpha:      m.Alpha,
		Beta:       m.Beta,
		Gamma:      m.Gamma,
	}
	encodeName(h.Name[:], m.Name)
	if err := binary.Write(w, binary.BigEndian, &h); err != nil {
		return err
	}
	for i, obj := range m.Objects {
		if err := writeObject(w, obj); err != nil {
			return errors.Wrapf(err, "object %d", i+1)
		}
	}
	for _, c := range m.Extra {
		if err := writeChunk(w, c); err != nil {
			return err
		}
	}
	if m.MINX != nil {
		var buf bytes.Buffer
		binary.Write(&buf, binary.BigEndian, m.MINX)
		if err := writeChunk(w, &Chunk{ID: "MINX", Data: buf.Bytes()}); err != nil {
			return err
		}
	}
	_, err := io.WriteString(w, "IEOF")
	return err
}

func writeObject(w io.Writer, obj *Object) error {
	h := objectHeader{
		Extra:      obj.ExtraHeader,
		ContSize:   int32(len(obj.Contours)),
		Flags:      obj.Flags,
		Axis:       obj.Axis,
		DrawMode:   obj.DrawMode,
		Red:        obj.Red,
		Green:      obj.Green,
		Blue:       obj.Blue,
		PDrawSize:  obj.PointDrawSize,
		Symbol:     obj.Symbol,
		SymSize:    obj.SymbolSize,
		LineWidth2: obj.LineWidth2,
		LineWidth:  obj.LineWidth,
		LineSty:    obj.LineStyle,
		SymFlags:   obj.SymbolFlags,
		SymPad:     obj.SymbolPad,
		Trans:      obj.Transparency,
		MeshSize:   int32(len(obj.Meshes)),
		SurfSize:   obj.NumSurfaces(),
	}
	encodeName(h.Name[:], obj.Name)
	if _, err := io.WriteString(w, "OBJT"); err != nil {
		return err
	}
	if err := binary.Write(w, binary.BigEndian, &h); err != nil {
		return err
	}
	for _, c := range obj.Contours {
		if _, err := io.WriteString(w, "CONT"); err != nil {
			return err
		}
		ch := contourHeader{
			PSize: int32(len(c.Points)),
			Flags: c.Flags,
			Time:  c.Time,
			Surf:  c.Surface,
		}
		if err := binary.Write(w, binary.BigEndian, &ch); err != nil {
			return err
		}
		if err := binary.Write(w, binary.BigEndian, c.Points); err != nil {
			return err
		}
		for _, chunk := range c.Extra {
			if err := writeChunk(w, chunk); err != nil {
				return err
			}
		}
	}
	for _, mesh := range obj.Meshes {
		if _, err := io.WriteString(w, "MESH"); err != nil {
			return err
		}
		mh := meshHeader{
			VSize: int32(len(mesh.Vertices)),
			LSize: int32(len(mesh.Indices)),
			Flag:  mesh.Flag,
			Time:  mesh.Time,
			Surf:  mesh.Surface,
		}
		if err := binary.Write(w, binary.BigEndian, &mh); err != nil {
			return err
		}
		if err := binary.Write(w, binary.BigEndian, mesh.Vertices); err != nil {
			return err
		}
		if err := binary.Write(w, binary.BigEndian, mesh.Indices); err != nil {
			return err
		}
	}
	for _, c := range obj.Extra {
		if err := writeChunk(w, c); err != nil {
			return err
		}
	}
	return nil
}

func writeChunk(w io.Writer, c *Chunk) error {
	if len(c.ID) != 4 {
		return errors.Errorf("invalid chunk ID %q", c.ID)
	}
	if _, err := io.WriteString(w, c.ID); err != nil {
		return err
	}
	if err := binary.Write(w, binary.BigEndian, int32(len(c.Data))); err != nil {
		return err
	}
	_, err := w.Write(c.Data)
	return err
}

// NumSurfaces gets the largest surface number used by any
// contour in the object.
func (o *Object) NumSurfaces() int32 {
	var res int32
	for _, c := range o.Contours {
		if c.Surface > res {
			res = c.Surface
		}
	}
	return res
}

func decodeName(b []byte) string {
	if i := bytes.IndexByte(b, 0); i >= 0 {
		b = b[:i]
	}
	return string(b)
}

// encodeName writes a NUL-terminated name into a fixed field,
// truncating it if necessary.
func encodeName(dst []byte, name string) {
	n := copy(dst[:len(dst)-1], name)
	for i := n; i < len(dst); i++ {
		dst[i] = 0
	}
}
