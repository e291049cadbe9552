package imodvis

import (
	"context"
	"math"
	"os"
	"path/filepath"
	"reflect"
	"strings"
	"testing"
)

func TestPostProcess(t *testing.T) {
	runner := &fakeRunner{}
	p := &PostProcessor{Config: DefaultPostProcessConfig(), Runner: runner}

	// Surfaces 1 and 3 have enough contours to be kept.
	model := &Model{
		Objects: []*Object{
			testObject("masked", 0.2, 0.2, 0.2, 1, 1, 1, 1, 1, 2, 2, 3, 3, 3, 3),
		},
	}
	report := &CellReport{}
	result, err := p.Process(context.Background(), model, report)
	if err != nil {
		t.Fatal(err)
	}
	if report.SortedObjects != 3 || report.KeptObjects != 2 || report.Skipped {
		t.Errorf("unexpected report %+v", report)
	}
	if len(result.Objects) != 1 {
		t.Fatalf("expected one object but got %d", len(result.Objects))
	}
	obj := result.Objects[0]
	if obj.Name != "Mitochondria" || obj.Color() != [3]float32{0, 1, 0} {
		t.Errorf("unexpected object %q %v", obj.Name, obj.Color())
	}
	if len(obj.Contours) != 9 {
		t.Errorf("expected 9 contours but got %d", len(obj.Contours))
	}
	if result.PixelSize != 10.718 || math.Abs(float64(result.PixelSizeZ())-70) > 1e-3 {
		t.Errorf("unexpected pixel sizes %f %f", result.PixelSize, result.PixelSizeZ())
	}
	if result.Units() != "nm" {
		t.Errorf("unexpected units %q", result.Units())
	}

	expectedCommands := []string{
		"imodmesh -e",
		"imodmesh -CTs -P 4",
		"imodsortsurf -s",
		"imodmesh -e",
		"imodmesh -CTs -P 4",
	}
	if !reflect.DeepEqual(runner.Commands, expectedCommands) {
		t.Errorf("unexpected commands %v", runner.Commands)
	}

	if model.Objects[0].Name != "masked" || model.PixelSize != 0 {
		t.Error("input model should not be modified")
	}
}

func TestPostProcessNothingKept(t *testing.T) {
	p := &PostProcessor{Config: DefaultPostProcessConfig(), Runner: &fakeRunner{}}
	model := &Model{Objects: []*Object{testObject("masked", 0, 0, 0, 1, 1, 2, 3)}}
	report := &CellReport{}
	result, err := p.Process(context.Background(), model, report)
	if err != nil {
		t.Fatal(err)
	}
	if result != nil || !report.Skipped {
		t.Errorf("expected skip but got %+v", report)
	}
}

func TestPostProcessAll(t *testing.T) {
	root := t.TempDir()
	input := &Model{Objects: []*Object{testObject("masked", 0, 0, 0, 1, 1, 1, 1)}}
	empty := &Model{Objects: []*Object{testObject("masked", 0, 0, 0, 1)}}
	for name, m := range map[string]*Model{"cell_2": input, "cell_10": input, "cell_1": empty} {
		dir := filepath.Join(root, name, "tmp")
		if err := os.MkdirAll(dir, 0755); err != nil {
			t.Fatal(err)
		}
		if err := SaveModel(filepath.Join(dir, "out.mod~"), m); err != nil {
			t.Fatal(err)
		}
	}
	// Files and unrelated directories are ignored.
	os.WriteFile(filepath.Join(root, "cell_notes"), []byte("x"), 0644)
	os.Mkdir(filepath.Join(root, "other"), 0755)

	p := &PostProcessor{Config: DefaultPostProcessConfig(), Runner: &fakeRunner{}}
	reports, err := p.ProcessAll(context.Background(), root)
	if err != nil {
		t.Fatal(err)
	}
	var dirs []string
	for _, r := range reports {
		dirs = append(dirs, filepath.Base(r.Dir))
	}
	if !reflect.DeepEqual(dirs, []string{"cell_1", "cell_10", "cell_2"}) {
		t.Fatalf("unexpected directories %v", dirs)
	}
	if !reports[0].Skipped || reports[0].OutputPath != "" {
		t.Errorf("expected first cell to be skipped")
	}
	for _, r := range reports[1:] {
		m, err := LoadModel(r.OutputPath)
		if err != nil {
			t.Fatal(err)
		}
		if len(m.Objects) != 1 || m.Objects[0].Name != "Mitochondria" {
			t.Errorf("%s: unexpected output", r.Dir)
		}
	}
	if _, err := os.Stat(filepath.Join(root, "cell_1", "tmp", "proc.mod")); !os.IsNotExist(err) {
		t.Error("skipped cell should not have output")
	}

	os.Remove(filepath.Join(root, "cell_2", "tmp", "out.mod~"))
	if _, err := p.ProcessAll(context.Background(), root); err == nil {
		t.Error("expected error for missing input")
	}
}

func TestReadPostProcessConfig(t *testing.T) {
	config, err := ReadPostProcessConfig(strings.NewReader(`
pixel_size_xy: 5
pixel_size_z: 30
object_name: Granules
object_color: [1, 0.5, 0]
mesh_commands:
  - imodmesh -e
`))
	if err != nil {
		t.Fatal(err)
	}
	expected := DefaultPostProcessConfig()
	expected.PixelSizeXY = 5
	expected.PixelSizeZ = 30
	expected.ObjectName = "Granules"
	expected.ObjectColor = [3]float32{1, 0.5, 0}
	expected.MeshCommands = []string{"imodmesh -e"}
	if !reflect.DeepEqual(config, expected) {
		t.Errorf("expected %+v but got %+v", expected, config)
	}

	if config, err := ReadPostProcessConfig(strings.NewReader("")); err != nil {
		t.Fatal(err)
	} else if !reflect.DeepEqual(config, DefaultPostProcessConfig()) {
		t.Error("empty config should give defaults")
	}

	for _, bad := range []string{"pixel_size: 3", "mesh_commands: ['  ']", "object_color: [1, 2]"} {
		if _, err := ReadPostProcessConfig(strings.NewReader(bad)); err == nil {
			t.Errorf("expected error for %q", bad)
		}
	}
}
