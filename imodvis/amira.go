package imodvis

import (
	"fmt"
	"io"
	"path/filepath"
	"strings"
	"text/template"

	"github.com/pkg/errors"
)

// A ScriptEntry is one surface loaded by an Amira script.
type ScriptEntry struct {
	// Label is the name of the data object in Amira.
	Label string

	// Kind and Description are used for grouping and comments.
	Kind        Kind
	Description string

	// Path is relative to the directory of the script.
	Path string

	Color [3]float32
}

// A Script is an Amira Tcl script which loads a set of
// exported surfaces and gives each one a display module.
type Script struct {
	Title   string
	Entries []*ScriptEntry
}

// Add appends an entry to the script.
func (s *Script) Add(e *ScriptEntry) {
	s.Entries = append(s.Entries, e)
}

var scriptTemplate = template.Must(template.New("hx").Funcs(template.FuncMap{
	"tcl":   tclQuote,
	"color": tclColor,
}).Parse(`# Amira Script
# {{.Title}}

set dir ${SCRIPTDIR}
{{range .Groups}}
# {{.Kind}}
{{range .Entries}}
# {{.Description}}
set data [load [file join $dir {{tcl .Path}}]]
$data setLabel {{tcl .Label}}
set view [create HxDisplaySurface {{tcl (printf "%s-view" .Label)}}]
$view data connect $data
$view colormap setDefaultColor {{color .Color}}
$view fire
{{end}}{{end}}
viewer 0 viewAll
`))

// A ScriptGroup is a run of script entries of the same kind.
type ScriptGroup struct {
	Kind    Kind
	Entries []*ScriptEntry
}

// Groups gets the entries of the script grouped by kind, with
// groups in order of first appearance.
func (s *Script) Groups() []ScriptGroup {
	var groups []ScriptGroup
	index := map[Kind]int{}
	for _, e := range s.Entries {
		i, ok := index[e.Kind]
		if !ok {
			i = len(groups)
			index[e.Kind] = i
			groups = append(groups, ScriptGroup{Kind: e.Kind})
		}
		groups[i].Entries = append(groups[i].Entries, e)
	}
	return groups
}

// WriteScript renders s as an Amira .hx file.
func WriteScript(w io.Writer, s *Script) error {
	return errors.Wrap(scriptTemplate.Execute(w, s), "write script")
}

// tclQuote quotes a string as a single Tcl word, using
// forward slashes for paths.
func tclQuote(s string) string {
	s = filepath.ToSlash(s)
	r := strings.NewReplacer(`\`, `\\`, `"`, `\"`, `$`, `\$`, `[`, `\[`, `]`, `\]`)
	return `"` + r.Replace(s) + `"`
}

func tclColor(c [3]float32) string {
	return fmt.Sprintf("%g %g %g", clamp(c[0], 0, 1), clamp(c[1], 0, 1), clamp(c[2], 0, 1))
}
