// Command model_info prints the header of an IMOD model and
// the classification of each of its objects.
package main

import (
	"flag"
	"fmt"
	"log"
	"os"

	"github.com/unixpickle/essentials"
	"github.com/unixpickle/imod-vis/imodvis"
)

func main() {
	var rulesPath string
	var meshes bool
	flag.StringVar(&rulesPath, "rules", "", "YAML file of naming rules (default: built-in islet rules)")
	flag.BoolVar(&meshes, "meshes", false, "decode meshes and print surface statistics")
	flag.Parse()

	args := flag.Args()
	if len(args) != 1 {
		fmt.Fprintln(os.Stderr, "Usage: model_info [flags] <input.mod>")
		fmt.Fprintln(os.Stderr)
		flag.PrintDefaults()
		os.Exit(1)
	}
	inputPath := args[0]

	rules := imodvis.DefaultRules()
	if rulesPath != "" {
		var err error
		rules, err = imodvis.LoadRules(rulesPath)
		essentials.Must(err)
	}

	log.Println("Loading model...")
	model, err := imodvis.LoadModel(inputPath)
	essentials.Must(err)

	fmt.Println("Name:", model.Name)
	fmt.Printf("Image size: %d x %d x %d\n", model.XMax, model.YMax, model.ZMax)
	fmt.Printf("Pixel size: %g (Z: %g) %s\n", model.PixelSize, model.PixelSizeZ(), model.Units())
	if model.MINX != nil {
		fmt.Println("MINX scale:", model.MINX.CScale)
		fmt.Println("MINX trans:", model.MINX.CTrans)
	} else {
		fmt.Println("MINX: none")
	}
	fmt.Println("Number of objects:", len(model.Objects))

	for i, obj := range model.Objects {
		class := rules.Classify(obj.Name)
		label := class.Label
		if label == "" {
			label = "unrecognized " + string(class.Kind)
		}
		fmt.Printf("%d: %q (%s) color=%g,%g,%g contours=%d meshes=%d\n", i+1, obj.Name, label,
			obj.Red, obj.Green, obj.Blue, len(obj.Contours), len(obj.Meshes))
		if meshes {
			summary, err := model.Summarize(obj)
			if err != nil {
				fmt.Println("   mesh error:", err)
				continue
			}
			fmt.Printf("   triangles=%d area=%f min=%v max=%v\n", summary.Triangles, summary.Area,
				summary.Min, summary.Max)
		}
	}
}
