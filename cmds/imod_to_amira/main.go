// Command imod_to_amira meshes the classified objects of an
// IMOD islet model and writes an Amira project which loads
// the resulting surfaces.
package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/unixpickle/essentials"
	"github.com/unixpickle/imod-vis/imodvis"
)

func main() {
	var rulesPath string
	var formatName string
	var kinds string
	var cellTypes string
	var meshCommands string
	var timeout time.Duration
	var strict bool
	var dryRun bool
	flag.StringVar(&rulesPath, "rules", "", "YAML file of naming rules (default: built-in islet rules)")
	flag.StringVar(&formatName, "format", "wrl", "output format: wrl, stl or ply")
	flag.StringVar(&kinds, "kinds", "cell", "comma-separated kinds to export (cell, vessels, connective_tissue)")
	flag.StringVar(&cellTypes, "cell-types", "", "comma-separated cell types to export (default: all)")
	flag.StringVar(&meshCommands, "mesh", strings.Join([]string{"imodmesh -e", "imodmesh -CTs -P 10"}, ";"),
		"semicolon-separated meshing commands run on each object")
	flag.DurationVar(&timeout, "timeout", 0, "time limit for each external command")
	flag.BoolVar(&strict, "strict", false, "stop at the first object which fails")
	flag.BoolVar(&dryRun, "dry-run", false, "only classify objects")
	flag.Parse()

	args := flag.Args()
	if len(args) != 2 {
		usage("Improper number of arguments.")
	}
	modelPath, outputPath := args[0], args[1]
	if info, err := os.Stat(modelPath); err != nil || !info.Mode().IsRegular() {
		usage(fmt.Sprintf("%s is not a valid file.", modelPath))
	}

	rules := imodvis.DefaultRules()
	if rulesPath != "" {
		var err error
		rules, err = imodvis.LoadRules(rulesPath)
		essentials.Must(err)
	}
	format, err := imodvis.ParseFormat(formatName)
	essentials.Must(err)

	runner := imodvis.NewExecRunner()
	runner.Timeout = timeout
	converter := &imodvis.Converter{
		Rules:        rules,
		Runner:       runner,
		Format:       format,
		Kinds:        map[imodvis.Kind]bool{},
		MeshCommands: parseCommands(meshCommands),
		Strict:       strict,
		DryRun:       dryRun,
		Logf:         log.Printf,
	}
	for _, kind := range splitList(kinds) {
		switch k := imodvis.Kind(kind); k {
		case imodvis.KindCell, imodvis.KindVessels, imodvis.KindConnectiveTissue:
			converter.Kinds[k] = true
		default:
			essentials.Die("unknown kind:", kind)
		}
	}
	if cellTypes != "" {
		converter.CellTypes = map[string]bool{}
		known := map[string]bool{}
		for _, t := range rules.CellTypes() {
			known[t] = true
		}
		for _, t := range splitList(cellTypes) {
			if !known[t] {
				essentials.Die("unknown cell type:", t)
			}
			converter.CellTypes[t] = true
		}
	}

	log.Printf("Loading IMOD model file %s", modelPath)
	model, err := imodvis.LoadModel(modelPath)
	essentials.Must(err)

	title := strings.TrimSuffix(filepath.Base(modelPath), filepath.Ext(modelPath))
	result, err := converter.Convert(context.Background(), model, outputPath, title)
	essentials.Must(err)

	var failed int
	for _, obj := range result.Objects {
		if obj.Err != nil {
			failed++
		}
	}
	log.Printf("Exported %d objects (%d failed)", result.Exported(), failed)
	if result.ScriptPath != "" {
		log.Printf("Wrote %s", result.ScriptPath)
	}
}

func usage(msg string) {
	fmt.Fprintln(os.Stderr)
	fmt.Fprintln(os.Stderr, "ERROR:", msg)
	fmt.Fprintln(os.Stderr)
	fmt.Fprintln(os.Stderr, "Usage: imod_to_amira [flags] <file.mod> <output_dir>")
	fmt.Fprintln(os.Stderr)
	flag.PrintDefaults()
	os.Exit(1)
}

func parseCommands(s string) []imodvis.Command {
	var res []imodvis.Command
	for _, line := range strings.Split(s, ";") {
		if strings.TrimSpace(line) == "" {
			continue
		}
		cmd, err := imodvis.ParseCommand(line)
		essentials.Must(err)
		res = append(res, cmd)
	}
	return res
}

func splitList(s string) []string {
	var res []string
	for _, item := range strings.Split(s, ",") {
		if item = strings.TrimSpace(item); item != "" {
			res = append(res, item)
		}
	}
	return res
}
