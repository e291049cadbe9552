package imodvis

import (
	"context"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"time"

	"github.com/pkg/errors"
)

// Tools which read one model and write a separate output
// file, rather than modifying their input in place.
var separateOutputTools = map[string]bool{
	"imodsortsurf": true,
	"imod2vrml2":   true,
	"imod2vrml":    true,
	"imodjoin":     true,
}

// A Command is an invocation of an external IMOD program on
// a model file.
type Command struct {
	Tool string
	Args []string

	// SeparateOutput is set if the tool takes an output path
	// after the input path.
	SeparateOutput bool
}

// ParseCommand parses a command line such as
// "imodmesh -CTs -P 10".
func ParseCommand(line string) (Command, error) {
	fields := strings.Fields(line)
	if len(fields) == 0 {
		return Command{}, errors.New("parse command: empty command")
	}
	return Command{
		Tool:           fields[0],
		Args:           fields[1:],
		SeparateOutput: separateOutputTools[fields[0]],
	}, nil
}

// MustParseCommands parses a list of known-good command lines,
// panicking on failure.
func MustParseCommands(lines ...string) []Command {
	res := make([]Command, len(lines))
	for i, line := range lines {
		cmd, err := ParseCommand(line)
		if err != nil {
			panic(err)
		}
		res[i] = cmd
	}
	return res
}

func (c Command) String() string {
	return strings.Join(append([]string{c.Tool}, c.Args...), " ")
}

// A Runner applies external programs to models.
type Runner interface {
	// Run applies a command to a model and returns the
	// resulting model. The input model is not modified.
	Run(ctx context.Context, m *Model, cmd Command) (*Model, error)

	// Export applies a command which converts a model into a
	// different file format, writing the result to outPath.
	Export(ctx context.Context, m *Model, cmd Command, outPath string) error
}

// Chain runs a sequence of commands, feeding the output of
// each one into the next.
func Chain(ctx context.Context, r Runner, m *Model, cmds ...Command) (*Model, error) {
	for _, cmd := range cmds {
		var err error
		m, err = r.Run(ctx, m, cmd)
		if err != nil {
			return nil, err
		}
	}
	return m, nil
}

// ExecRunner runs IMOD programs as subprocesses, passing
// models through temporary files.
type ExecRunner struct {
	// BinDir is the directory containing the programs. If
	// empty, programs are looked up in $PATH.
	BinDir string

	// TempDir is where temporary models are stored. If empty,
	// the system default is used.
	TempDir string

	// Timeout limits each invocation, if non-zero.
	Timeout time.Duration
}

// NewExecRunner creates a runner which uses $IMOD_DIR/bin if
// the IMOD_DIR environment variable is set.
func NewExecRunner() *ExecRunner {
	var binDir string
	if dir := os.Getenv("IMOD_DIR"); dir != "" {
		binDir = filepath.Join(dir, "bin")
	}
	return &ExecRunner{BinDir: binDir}
}

func (e *ExecRunner) Run(ctx context.Context, m *Model, cmd Command) (*Model, error) {
	var result *Model
	err := e.withModelFile(m, func(inPath string) error {
		outPath := inPath
		paths := []string{inPath}
		if cmd.SeparateOutput {
			outPath = filepath.Join(filepath.Dir(inPath), "out.mod")
			paths = append(paths, outPath)
		}
		if err := e.runTool(ctx, cmd, paths...); err != nil {
			return err
		}
		var err error
		result, err = LoadModel(outPath)
		return err
	})
	if err != nil {
		return nil, errors.Wrapf(err, "run %s", cmd)
	}
	return result, nil
}

// Export runs the tool with the model file and outPath as its
// final arguments. A relative outPath is resolved against the
// current directory, since the tool runs in a temporary one.
func (e *ExecRunner) Export(ctx context.Context, m *Model, cmd Command, outPath string) error {
	outPath, err := filepath.Abs(outPath)
	if err != nil {
		return errors.Wrapf(err, "export %s", cmd)
	}
	err = e.withModelFile(m, func(inPath string) error {
		return e.runTool(ctx, cmd, inPath, outPath)
	})
	return errors.Wrapf(err, "export %s", cmd)
}

func (e *ExecRunner) withModelFile(m *Model, f func(path string) error) error {
	dir, err := os.MkdirTemp(e.TempDir, "imodvis")
	if err != nil {
		return err
	}
	defer os.RemoveAll(dir)
	if dir, err = filepath.Abs(dir); err != nil {
		return err
	}
	path := filepath.Join(dir, "in.mod")
	if err := SaveModel(path, m); err != nil {
		return err
	}
	return f(path)
}

func (e *ExecRunner) runTool(ctx context.Context, cmd Command, paths ...string) error {
	if e.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, e.Timeout)
		defer cancel()
	}
	tool := cmd.Tool
	if e.BinDir != "" {
		tool = filepath.Join(e.BinDir, tool)
	}
	args := append(append([]string{}, cmd.Args...), paths...)
	proc := exec.CommandContext(ctx, tool, args...)
	proc.Dir = filepath.Dir(paths[0])
	output, err := proc.CombinedOutput()
	if err != nil {
		if ctx.Err() == context.DeadlineExceeded {
			return errors.Errorf("timed out after %s", e.Timeout)
		}
		msg := strings.TrimSpace(string(output))
		if msg != "" {
			return errors.Wrap(err, msg)
		}
		return err
	}
	return nil
}
