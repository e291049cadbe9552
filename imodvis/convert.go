package imodvis

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/pkg/errors"
)

// DefaultMeshCommands remesh an object from its contours,
// capping ends and smoothing with a pass size of 10.
var DefaultMeshCommands = MustParseCommands("imodmesh -e", "imodmesh -CTs -P 10")

// A Converter turns the classified objects of a model into
// surface files and an Amira script which loads them.
type Converter struct {
	Rules  *Rules
	Runner Runner
	Format Format

	// Kinds are the kinds of objects to export.
	Kinds map[Kind]bool

	// CellTypes restricts which cells are exported. If nil,
	// every recognized cell type is exported.
	CellTypes map[string]bool

	// MeshCommands are run on each object before export. If
	// nil, DefaultMeshCommands are used.
	MeshCommands []Command

	// Strict makes a failure on any object fatal. Otherwise,
	// failed objects are logged and left out of the script.
	Strict bool

	// DryRun only classifies objects.
	DryRun bool

	// Logf, if set, receives progress messages.
	Logf func(format string, args ...any)
}

// An ObjectResult records what happened to one object.
type ObjectResult struct {
	// Index is 1-based.
	Index int
	Name  string
	Classification

	// Path is relative to the output directory, and is empty
	// if nothing was exported.
	Path string

	Err error
}

// A ConvertResult summarizes a conversion.
type ConvertResult struct {
	Objects    []*ObjectResult
	ScriptPath string
}

// Exported counts the objects which were written to disk.
func (c *ConvertResult) Exported() int {
	var n int
	for _, obj := range c.Objects {
		if obj.Path != "" {
			n++
		}
	}
	return n
}

// Convert processes every object of m and writes the results
// into outDir. The script is named after title.
func (c *Converter) Convert(ctx context.Context, m *Model, outDir, title string) (*ConvertResult, error) {
	if !c.DryRun {
		if err := os.MkdirAll(outDir, 0755); err != nil {
			return nil, errors.Wrap(err, "convert")
		}
	}

	c.logf("# Objects: %d", len(m.Objects))
	if m.MINX != nil {
		c.logf("MINX Scale: %v", m.MINX.CScale)
		c.logf("MINX Trans: %v", m.MINX.CTrans)
	} else {
		c.logf("WARNING: NO MINX DATA!")
	}

	rules := c.rules()
	result := &ConvertResult{}
	script := &Script{Title: title}
	usedPaths := map[string]bool{}
	for i, obj := range m.Objects {
		class := rules.Classify(obj.Name)
		res := &ObjectResult{Index: i + 1, Name: obj.Name, Classification: class}
		result.Objects = append(result.Objects, res)

		c.logf("Object %d", i+1)
		c.logf("Name: %s", obj.Name)
		c.logf("Color: %g, %g, %g", obj.Red, obj.Green, obj.Blue)
		if class.Recognized() {
			c.logf("Type: %s", class.Label)
		}
		if !c.selected(class) || c.DryRun {
			continue
		}

		relPath := c.outputPath(class.Kind, obj.Name, usedPaths)
		if err := c.exportObject(ctx, m, i, filepath.Join(outDir, relPath)); err != nil {
			res.Err = errors.Wrapf(err, "object %d (%s)", i+1, obj.Name)
			if c.Strict {
				return nil, res.Err
			}
			c.logf(" - skipping: %v", res.Err)
			continue
		}
		res.Path = relPath
		script.Add(&ScriptEntry{
			Label:       filepath.Base(relPath),
			Kind:        class.Kind,
			Description: fmt.Sprintf("%s: %s", class.Label, obj.Name),
			Path:        relPath,
			Color:       obj.Color(),
		})
	}

	if c.DryRun {
		return result, nil
	}
	result.ScriptPath = filepath.Join(outDir, "load_"+NormalizeName(title)+".hx")
	if err := Save(result.ScriptPath, script, WriteScript); err != nil {
		return nil, errors.Wrap(err, "convert")
	}
	return result, nil
}

func (c *Converter) selected(class Classification) bool {
	if !class.Recognized() || !c.Kinds[class.Kind] {
		return false
	}
	if class.Kind == KindCell && c.CellTypes != nil {
		return c.CellTypes[class.CellType]
	}
	return true
}

// outputPath picks a relative path for an object which is
// not in used, numbering repeated names, and marks it used.
func (c *Converter) outputPath(kind Kind, name string, used map[string]bool) string {
	base := filepath.Join(kind.Dir(), NormalizeName(name))
	path := base + c.Format.Ext()
	for n := 2; used[path]; n++ {
		path = fmt.Sprintf("%s_%d%s", base, n, c.Format.Ext())
	}
	used[path] = true
	return path
}

func (c *Converter) exportObject(ctx context.Context, m *Model, idx int, path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return err
	}
	cmds := c.MeshCommands
	if cmds == nil {
		cmds = DefaultMeshCommands
	}
	sub, err := Chain(ctx, c.Runner, m.Subset(idx), cmds...)
	if err != nil {
		return err
	}
	return Export(ctx, c.Runner, sub, path, c.Format)
}

func (c *Converter) rules() *Rules {
	if c.Rules == nil {
		return DefaultRules()
	}
	return c.Rules
}

func (c *Converter) logf(format string, args ...any) {
	if c.Logf != nil {
		c.Logf(format, args...)
	}
}
