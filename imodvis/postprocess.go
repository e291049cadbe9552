package imodvis

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"

	"github.com/pkg/errors"
	"gopkg.in/yaml.v3"
)

// PostProcessConfig controls the cleanup of masked organelle
// segmentations.
type PostProcessConfig struct {
	// DirPattern is a glob, relative to the root, matching one
	// directory per cell.
	DirPattern string `yaml:"dir_pattern"`

	// InputName and OutputName are relative to each cell
	// directory.
	InputName  string `yaml:"input_name"`
	OutputName string `yaml:"output_name"`

	PixelSizeXY float32 `yaml:"pixel_size_xy"`
	PixelSizeZ  float32 `yaml:"pixel_size_z"`
	Units       string  `yaml:"units"`

	// MeshCommands are run before sorting and again after
	// merging.
	MeshCommands []string `yaml:"mesh_commands"`

	// SortCommands split the mesh into connected surfaces,
	// one object each.
	SortCommands []string `yaml:"sort_commands"`

	// Objects with MinContours or fewer contours are dropped.
	MinContours int `yaml:"min_contours"`

	ObjectName  string     `yaml:"object_name"`
	ObjectColor [3]float32 `yaml:"object_color"`
}

// DefaultPostProcessConfig gets the settings for mitochondria
// in the bin2 N15 islet dataset.
func DefaultPostProcessConfig() *PostProcessConfig {
	return &PostProcessConfig{
		DirPattern:   "cell_*",
		InputName:    filepath.Join("tmp", "out.mod~"),
		OutputName:   filepath.Join("tmp", "proc.mod"),
		PixelSizeXY:  10.718,
		PixelSizeZ:   70,
		Units:        "nm",
		MeshCommands: []string{"imodmesh -e", "imodmesh -CTs -P 4"},
		SortCommands: []string{"imodsortsurf -s"},
		MinContours:  3,
		ObjectName:   "Mitochondria",
		ObjectColor:  [3]float32{0, 1, 0},
	}
}

// ReadPostProcessConfig decodes a YAML config. Missing fields
// keep their default values.
func ReadPostProcessConfig(r io.Reader) (*PostProcessConfig, error) {
	config := DefaultPostProcessConfig()
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	if err := dec.Decode(config); err != nil && err != io.EOF {
		return nil, errors.Wrap(err, "read post-process config")
	}
	if _, err := config.commands(); err != nil {
		return nil, errors.Wrap(err, "read post-process config")
	}
	return config, nil
}

// LoadPostProcessConfig reads a YAML config from disk.
func LoadPostProcessConfig(path string) (*PostProcessConfig, error) {
	return Load(path, ReadPostProcessConfig)
}

type postProcessCommands struct {
	Mesh []Command
	Sort []Command
}

func (p *PostProcessConfig) commands() (*postProcessCommands, error) {
	var res postProcessCommands
	for _, item := range []struct {
		lines []string
		dst   *[]Command
	}{
		{p.MeshCommands, &res.Mesh},
		{p.SortCommands, &res.Sort},
	} {
		for _, line := range item.lines {
			cmd, err := ParseCommand(line)
			if err != nil {
				return nil, err
			}
			*item.dst = append(*item.dst, cmd)
		}
	}
	return &res, nil
}

// A PostProcessor cleans up automatic segmentations which
// have been masked to individual cells.
type PostProcessor struct {
	Config *PostProcessConfig
	Runner Runner

	// Logf, if set, receives progress messages.
	Logf func(format string, args ...any)
}

// A CellReport describes the result for one cell directory.
type CellReport struct {
	Dir        string
	OutputPath string

	// SortedObjects is the number of connected surfaces found,
	// and KeptObjects is how many survived filtering.
	SortedObjects int
	KeptObjects   int

	// Skipped is set if no objects survived filtering, in
	// which case nothing is written.
	Skipped bool
}

// CellDirs finds the cell directories under root in sorted
// order.
func (p *PostProcessor) CellDirs(root string) ([]string, error) {
	matches, err := filepath.Glob(filepath.Join(root, p.Config.DirPattern))
	if err != nil {
		return nil, errors.Wrap(err, "find cell directories")
	}
	var dirs []string
	for _, match := range matches {
		if info, err := os.Stat(match); err == nil && info.IsDir() {
			dirs = append(dirs, match)
		}
	}
	sort.Strings(dirs)
	return dirs, nil
}

// ProcessAll processes every cell directory under root.
func (p *PostProcessor) ProcessAll(ctx context.Context, root string) ([]*CellReport, error) {
	dirs, err := p.CellDirs(root)
	if err != nil {
		return nil, err
	}
	var reports []*CellReport
	for _, dir := range dirs {
		report, err := p.ProcessDir(ctx, dir)
		if err != nil {
			return reports, err
		}
		reports = append(reports, report)
	}
	return reports, nil
}

// ProcessDir processes the model of a single cell directory.
func (p *PostProcessor) ProcessDir(ctx context.Context, dir string) (*CellReport, error) {
	inPath := filepath.Join(dir, p.Config.InputName)
	p.logf("Loading file %s", inPath)
	m, err := LoadModel(inPath)
	if err != nil {
		return nil, errors.Wrap(err, "post-process "+dir)
	}
	report := &CellReport{Dir: dir}
	m, err = p.Process(ctx, m, report)
	if err != nil {
		return nil, errors.Wrap(err, "post-process "+dir)
	}
	if report.Skipped {
		p.logf("WARNING: no objects left in %s", dir)
		return report, nil
	}
	report.OutputPath = filepath.Join(dir, p.Config.OutputName)
	if err := SaveModel(report.OutputPath, m); err != nil {
		return nil, errors.Wrap(err, "post-process "+dir)
	}
	p.logf("%s written to disk", report.OutputPath)
	return report, nil
}

// Process applies the cleanup to a model, returning the new
// model. If report is non-nil, it is filled in.
//
// If no objects survive filtering, the returned model is nil
// and report.Skipped is set.
func (p *PostProcessor) Process(ctx context.Context, m *Model, report *CellReport) (*Model, error) {
	if report == nil {
		report = &CellReport{}
	}
	cmds, err := p.Config.commands()
	if err != nil {
		return nil, err
	}

	m = m.Copy()
	if err := m.SetPixelSizeXY(p.Config.PixelSizeXY); err != nil {
		return nil, err
	}
	if err := m.SetPixelSizeZ(p.Config.PixelSizeZ); err != nil {
		return nil, err
	}
	if err := m.SetUnits(p.Config.Units); err != nil {
		return nil, err
	}

	m, err = Chain(ctx, p.Runner, m, append(append([]Command{}, cmds.Mesh...), cmds.Sort...)...)
	if err != nil {
		return nil, err
	}
	report.SortedObjects = len(m.Objects)

	if err := m.FilterByNContours(">", p.Config.MinContours); err != nil {
		return nil, err
	}
	report.KeptObjects = len(m.Objects)
	p.logf(" - kept %d of %d objects", report.KeptObjects, report.SortedObjects)
	if len(m.Objects) == 0 {
		report.Skipped = true
		return nil, nil
	}

	if err := m.MoveObjects(1, fmt.Sprintf("2-%d", len(m.Objects))); err != nil {
		return nil, err
	}
	obj := m.Objects[0]
	obj.SetName(p.Config.ObjectName)
	c := p.Config.ObjectColor
	obj.SetColor(c[0], c[1], c[2])

	return Chain(ctx, p.Runner, m, cmds.Mesh...)
}

func (p *PostProcessor) logf(format string, args ...any) {
	if p.Logf != nil {
		p.Logf(format, args...)
	}
}
