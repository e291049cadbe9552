// Command postprocess_mitochondria cleans up automatic
// mitochondria segmentations which have been masked to
// individual cells.
//
// Each cell directory is remeshed and sorted into connected
// surfaces, small surfaces are removed, and the rest are
// merged into a single named object which is remeshed and
// saved next to the input.
package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"

	"github.com/unixpickle/essentials"
	"github.com/unixpickle/imod-vis/imodvis"
)

func main() {
	var configPath string
	flag.StringVar(&configPath, "config", "", "YAML file overriding the default settings")
	flag.Usage = func() {
		fmt.Fprintln(os.Stderr, "Usage: postprocess_mitochondria [flags] [root_dir]")
		fmt.Fprintln(os.Stderr)
		flag.PrintDefaults()
	}
	flag.Parse()

	root := "output"
	switch len(flag.Args()) {
	case 0:
	case 1:
		root = flag.Args()[0]
	default:
		flag.Usage()
		os.Exit(1)
	}

	config := imodvis.DefaultPostProcessConfig()
	if configPath != "" {
		var err error
		config, err = imodvis.LoadPostProcessConfig(configPath)
		essentials.Must(err)
	}

	p := &imodvis.PostProcessor{
		Config: config,
		Runner: imodvis.NewExecRunner(),
		Logf:   log.Printf,
	}
	reports, err := p.ProcessAll(context.Background(), root)
	essentials.Must(err)

	var skipped int
	for _, r := range reports {
		if r.Skipped {
			skipped++
		}
	}
	log.Printf("Processed %d cell directories (%d skipped)", len(reports), skipped)
}
