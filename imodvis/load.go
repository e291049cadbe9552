package imodvis

import (
	"io"
	"os"

	"github.com/pkg/errors"
)

// Load opens the file at path and decodes it with readFn.
func Load[T any](path string, readFn func(r io.Reader) (T, error)) (T, error) {
	f, err := os.Open(path)
	if err != nil {
		var zero T
		return zero, err
	}
	defer f.Close()
	return readFn(f)
}

// Save creates the file at path and encodes obj into it with
// writeFn.
func Save[T any](path string, obj T, writeFn func(w io.Writer, obj T) error) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	if err := writeFn(f, obj); err != nil {
		f.Close()
		return err
	}
	return errors.Wrap(f.Close(), "save "+path)
}

// LoadModel reads a model file from disk.
func LoadModel(path string) (*Model, error) {
	return Load(path, ReadModel)
}

// SaveModel writes a model file to disk.
func SaveModel(path string, m *Model) error {
	return Save(path, m, WriteModel)
}

// LoadRules reads a YAML rule set from disk.
func LoadRules(path string) (*Rules, error) {
	return Load(path, ReadRules)
}
