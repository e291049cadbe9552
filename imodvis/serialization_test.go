package imodvis

import (
	"bytes"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
)

func TestReadWriteModel(t *testing.T) {
	model := testModel()
	model.MINX = &MINX{
		OScale: [3]float32{1, 1, 1},
		CScale: [3]float32{2, 2, 7},
		CTrans: [3]float32{-10.5, 3, 0.25},
	}
	model.Extra = []*Chunk{{ID: "VIEW", Data: []byte{1, 2, 3, 4}}}
	model.Objects[1].Extra = []*Chunk{{ID: "MEPA", Data: []byte("params")}}

	var b bytes.Buffer
	if err := WriteModel(&b, model); err != nil {
		t.Fatal(err)
	}
	result, err := ReadModel(&b)
	if err != nil {
		t.Fatal(err)
	}
	if diff := cmp.Diff(model, result); diff != "" {
		t.Fatalf("round trip mismatch (-want +got):\n%s", diff)
	}
}

func TestReadWriteContourChunks(t *testing.T) {
	model := testModel()
	sizes := &Chunk{ID: "SIZE", Data: []byte{0x3f, 0x80, 0, 0, 0x40, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0}}
	model.Objects[0].Contours[0].Extra = []*Chunk{sizes}

	var b bytes.Buffer
	if err := WriteModel(&b, model); err != nil {
		t.Fatal(err)
	}
	data := append([]byte{}, b.Bytes()...)

	// Point sizes must directly follow their contour, before
	// the next contour and the next object.
	sizeOffset := bytes.Index(data, []byte("SIZE"))
	firstCont := bytes.Index(data, []byte("CONT"))
	secondCont := firstCont + 4 + bytes.Index(data[firstCont+4:], []byte("CONT"))
	if sizeOffset < firstCont || sizeOffset > secondCont {
		t.Fatalf("SIZE at offset %d is not between contours at %d and %d",
			sizeOffset, firstCont, secondCont)
	}

	result, err := ReadModel(bytes.NewReader(data))
	if err != nil {
		t.Fatal(err)
	}
	if diff := cmp.Diff(model, result); diff != "" {
		t.Fatalf("round trip mismatch (-want +got):\n%s", diff)
	}
	if len(result.Extra) != 0 {
		t.Errorf("contour chunks leaked into the model: %d", len(result.Extra))
	}

	var rewritten bytes.Buffer
	if err := WriteModel(&rewritten, result); err != nil {
		t.Fatal(err)
	}
	if !bytes.Equal(rewritten.Bytes(), data) {
		t.Error("rewritten model differs from the original bytes")
	}

	sub := result.Subset(1)
	if len(sub.Extra) != 0 {
		t.Errorf("subset carries %d chunks of other objects", len(sub.Extra))
	}
	for _, c := range sub.Objects[0].Contours {
		if len(c.Extra) != 0 {
			t.Error("subset contour has unexpected chunks")
		}
	}
	if got := result.Subset(0).Objects[0].Contours[0].Extra; len(got) != 1 || got[0].ID != "SIZE" {
		t.Errorf("subset lost contour chunks: %v", got)
	}
}

func TestReadModelErrors(t *testing.T) {
	var b bytes.Buffer
	if err := WriteModel(&b, testModel()); err != nil {
		t.Fatal(err)
	}
	data := b.Bytes()

	if _, err := ReadModel(strings.NewReader("NOPEV1.2")); err == nil {
		t.Error("expected error for bad magic")
	}
	for _, size := range []int{4, 100, 300, len(data) - 10} {
		if _, err := ReadModel(bytes.NewReader(data[:size])); err == nil {
			t.Errorf("expected error for truncation at %d bytes", size)
		}
	}

	// A missing IEOF marker at the end is tolerated.
	if m, err := ReadModel(bytes.NewReader(data[:len(data)-4])); err != nil {
		t.Error(err)
	} else if len(m.Objects) != len(testModel().Objects) {
		t.Errorf("expected %d objects but got %d", len(testModel().Objects), len(m.Objects))
	}
}

func TestWriteModelLongName(t *testing.T) {
	model := testModel()
	model.Objects[0].SetName(strings.Repeat("x", 100))
	var b bytes.Buffer
	if err := WriteModel(&b, model); err != nil {
		t.Fatal(err)
	}
	result, err := ReadModel(&b)
	if err != nil {
		t.Fatal(err)
	}
	if name := result.Objects[0].Name; name != strings.Repeat("x", 63) {
		t.Fatalf("unexpected name %q", name)
	}
}

// testModel creates a small model with three objects. The
// second object has a single-triangle mesh.
func testModel() *Model {
	return &Model{
		Name:       "test model",
		XMax:       512,
		YMax:       256,
		ZMax:       40,
		Flags:      1 << 12,
		DrawMode:   1,
		BlackLevel: 0,
		WhiteLevel: 255,
		Scale:      [3]float32{1, 1, 1},
		CurContour: -1,
		CurPoint:   -1,
		PixelSize:  1,
		Objects: []*Object{
			testObject("Alpha_1 PM", 1, 0, 0, 1, 1, 2),
			{
				Name:  "vessels",
				Red:   0.5,
				Green: 0.25,
				Blue:  1,
				Contours: []*Contour{
					{Surface: 1, Points: []Point{{0, 0, 0}, {1, 0, 0}, {0, 1, 0}}},
				},
				Meshes: []*Mesh{
					{
						Vertices: []Point{
							{0, 0, 0}, {0, 0, 1},
							{1, 0, 0}, {0, 0, 1},
							{0, 1, 0}, {0, 0, 1},
						},
						Indices: []int32{meshBeginPolyNorm2, 0, 2, 4, meshEndPoly, meshEnd},
					},
				},
			},
			testObject("junk", 0, 0, 1, 3),
		},
	}
}

// testObject creates an object with one contour per surface
// number in surfaces.
func testObject(name string, r, g, b float32, surfaces ...int32) *Object {
	obj := &Object{Name: name, Red: r, Green: g, Blue: b}
	for i, s := range surfaces {
		z := float32(i)
		obj.Contours = append(obj.Contours, &Contour{
			Surface: s,
			Points:  []Point{{0, 0, z}, {2, 0, z}, {2, 2, z}, {0, 2, z}},
		})
	}
	return obj
}
