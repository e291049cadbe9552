package imodvis

import (
	"reflect"
	"testing"
)

func TestParseRange(t *testing.T) {
	cases := map[string][]int{
		"":          nil,
		"3":         {3},
		"2-5":       {2, 3, 4, 5},
		"1,3-4, 7":  {1, 3, 4, 7},
		"2-1":       nil,
		"4,2-4":     {4, 2, 3},
		" 1 - 2 ,,": {1, 2},
	}
	for spec, expected := range cases {
		actual, err := ParseRange(spec)
		if err != nil {
			t.Errorf("%q: %v", spec, err)
		} else if !reflect.DeepEqual(actual, expected) {
			t.Errorf("%q: expected %v but got %v", spec, expected, actual)
		}
	}
	for _, spec := range []string{"a", "1-b", "1-2-3", "x-2"} {
		if _, err := ParseRange(spec); err == nil {
			t.Errorf("%q: expected error", spec)
		}
	}
}

func TestFilterByNContours(t *testing.T) {
	model := &Model{
		Objects: []*Object{
			testObject("a", 0, 0, 0, 1, 1, 1, 1),
			testObject("b", 0, 0, 0, 1, 1, 1),
			testObject("c", 0, 0, 0, 1, 1, 1, 1, 1),
			testObject("d", 0, 0, 0),
		},
		Extra: []*Chunk{{ID: "VIEW"}, {ID: "SLAN"}},
	}
	if err := model.FilterByNContours(">", 3); err != nil {
		t.Fatal(err)
	}
	if names := objectNames(model); !reflect.DeepEqual(names, []string{"a", "c"}) {
		t.Fatalf("unexpected objects %v", names)
	}
	if len(model.Extra) != 1 || model.Extra[0].ID != "SLAN" {
		t.Errorf("expected view chunks to be dropped")
	}

	if err := model.FilterByNContours("==", 5); err != nil {
		t.Fatal(err)
	}
	if names := objectNames(model); !reflect.DeepEqual(names, []string{"c"}) {
		t.Fatalf("unexpected objects %v", names)
	}

	if err := model.FilterByNContours("~", 1); err == nil {
		t.Error("expected error for unknown operator")
	}
}

func TestMoveObjects(t *testing.T) {
	model := &Model{
		Objects: []*Object{
			testObject("a", 0, 0, 0, 1),
			testObject("b", 0, 0, 0, 1, 2),
			testObject("c", 0, 0, 0, 1, 2, 3),
			testObject("d", 0, 0, 0, 1),
		},
	}
	model.Objects[2].Meshes = []*Mesh{{}}
	if err := model.MoveObjects(1, "3-4"); err != nil {
		t.Fatal(err)
	}
	if names := objectNames(model); !reflect.DeepEqual(names, []string{"a", "b"}) {
		t.Fatalf("unexpected objects %v", names)
	}
	if n := len(model.Objects[0].Contours); n != 5 {
		t.Errorf("expected 5 contours but got %d", n)
	}
	if n := len(model.Objects[0].Meshes); n != 1 {
		t.Errorf("expected 1 mesh but got %d", n)
	}

	// Moving an empty range does nothing.
	if err := model.MoveObjects(1, "3-2"); err != nil {
		t.Fatal(err)
	}
	if len(model.Objects) != 2 {
		t.Fatalf("expected 2 objects but got %d", len(model.Objects))
	}

	for _, c := range []struct {
		dest int
		spec string
	}{
		{0, "2"},
		{3, "1"},
		{1, "1-2"},
		{1, "3"},
		{1, "q"},
	} {
		if err := model.MoveObjects(c.dest, c.spec); err == nil {
			t.Errorf("expected error moving %q to %d", c.spec, c.dest)
		}
	}
	if len(model.Objects) != 2 {
		t.Fatalf("failed moves should not modify the model")
	}
}

func TestSetColor(t *testing.T) {
	var obj Object
	obj.SetColor(-1, 0.5, 2)
	if obj.Color() != [3]float32{0, 0.5, 1} {
		t.Fatalf("unexpected color %v", obj.Color())
	}
}

func TestPixelSize(t *testing.T) {
	var model Model
	if err := model.SetPixelSizeXY(10); err != nil {
		t.Fatal(err)
	}
	if err := model.SetPixelSizeZ(70); err != nil {
		t.Fatal(err)
	}
	if model.Scale[2] != 7 || model.PixelSizeZ() != 70 {
		t.Errorf("unexpected z scale %f", model.Scale[2])
	}
	if err := model.SetPixelSizeXY(0); err == nil {
		t.Error("expected error for zero pixel size")
	}
	if err := model.SetUnits("nm"); err != nil {
		t.Fatal(err)
	}
	if model.UnitCode != -9 || model.Units() != "nm" {
		t.Errorf("unexpected units %d", model.UnitCode)
	}
	if err := model.SetUnits("furlong"); err == nil {
		t.Error("expected error for unknown units")
	}
}

func objectNames(m *Model) []string {
	var res []string
	for _, obj := range m.Objects {
		res = append(res, obj.Name)
	}
	return res
}
