// Command nonstop repairs an SVG file for conversion to an Android vector
// drawable by copying gradient stops into the gradients that link to them.
// The result is written next to the input, with "_nonstop" added to its name.
//
// Usage:
//
//	nonstop [-f] [-v] [--check] [--preview file.png] file.svg
package main

import (
	"errors"
	"fmt"
	"image/png"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/pflag"

	"github.com/raykov/nonstop"
)

const usage = `Pass target SVG file name as parameter.
Add -f to force overwrite target _nonstop.svg file, -v to have verbose output.`

func main() {
	os.Exit(run(os.Args[1:], os.Stdout, os.Stderr))
}

// run executes the command and returns its exit code: 0 when the file was
// repaired or deliberately left alone, 1 when reading, processing or writing
// failed and 2 for bad flags.
func run(args []string, stdout, stderr io.Writer) int {
	fs := pflag.NewFlagSet("nonstop", pflag.ContinueOnError)
	fs.SetOutput(stderr)
	force := fs.BoolP("force", "f", false, "overwrite an existing _nonstop.svg file")
	verbose := fs.BoolP("verbose", "v", false, "log every gradient and stop processed")
	check := fs.Bool("check", false, "re-read the written file with the oksvg renderer")
	preview := fs.String("preview", "", "also render the repaired file to this PNG `file`")
	linkAttr := fs.String("link-attr", nonstop.DefaultLinkAttr, "attribute linking a gradient to another")
	gradientLinks := fs.Bool("gradient-links-only", false, "only count links on gradient elements")
	fs.Usage = func() {
		fmt.Fprintln(stderr, "Usage: nonstop [flags] file.svg")
		fs.PrintDefaults()
	}
	if err := fs.Parse(args); err != nil {
		if errors.Is(err, pflag.ErrHelp) {
			return 0
		}
		return 2
	}

	verbosity := 0
	if *verbose {
		verbosity = 1
	}
	log := newConsole(stdout, verbosity)
	if *force {
		log.Info("Option Force overwrite is on.")
	}
	if *verbose {
		log.Info("Option Verbose is on.")
	}

	if fs.NArg() == 0 {
		fmt.Fprintln(stdout, usage)
		return 0
	}
	filename := fs.Arg(fs.NArg() - 1)

	inputPath, err := filepath.Abs(filename)
	if err != nil {
		log.Error(err, "Cannot resolve input path", "file", filename)
		return 1
	}
	outputPath := OutputPath(inputPath)
	if _, err := os.Stat(outputPath); err == nil && !*force {
		log.Info(fmt.Sprintf("Target file %s already exists, exiting. Use -f option to force overwrite.",
			filepath.Base(outputPath)))
		return 0
	}

	doc, err := nonstop.ReadFile(inputPath)
	if err != nil {
		log.Error(err, "Cannot parse file", "file", inputPath)
		return 1
	}
	log.Info("Parsed file " + inputPath)
	nodes := doc.Root.Children()
	log.Info(fmt.Sprintf("Document contains %d nodes.", len(nodes)))

	proc := nonstop.NewProcessor(log, nonstop.Options{
		LinkAttr:          *linkAttr,
		GradientLinksOnly: *gradientLinks,
	})
	changed, err := proc.Process(nodes)
	if err != nil {
		log.Error(err, "Cannot repair file", "file", inputPath)
		return 1
	}
	if !changed {
		log.Info("Errors occurred, exiting.")
		return 0
	}

	log.Info("Processed document.")
	if err := doc.WriteFile(outputPath); err != nil {
		log.Error(err, "Cannot save file", "file", outputPath)
		return 1
	}
	log.Info(fmt.Sprintf("Saved new file %s successfully.", outputPath))

	if *check {
		if err := checkFile(outputPath); err != nil {
			log.Error(err, "Renderer rejected the saved file", "file", outputPath)
			return 1
		}
		log.Info("Saved file renders.")
	}
	if *preview != "" {
		if err := writePreview(outputPath, *preview); err != nil {
			log.Error(err, "Cannot write preview", "file", *preview)
			return 1
		}
		log.Info("Saved preview " + *preview)
	}
	return 0
}

// OutputPath derives the repaired file name: a trailing ".svg" becomes
// "_nonstop.svg", any other name gets "_nonstop.svg" appended.
func OutputPath(inputPath string) string {
	return strings.TrimSuffix(inputPath, ".svg") + "_nonstop.svg"
}

func checkFile(path string) error {
	fin, err := os.Open(path)
	if err != nil {
		return err
	}
	defer fin.Close()
	return nonstop.CheckRender(fin)
}

func writePreview(svgPath, pngPath string) error {
	fin, err := os.Open(svgPath)
	if err != nil {
		return err
	}
	defer fin.Close()
	img, err := nonstop.RenderPreview(fin, 0, 0, filepath.Base(svgPath))
	if err != nil {
		return err
	}
	fout, err := os.Create(pngPath)
	if err != nil {
		return err
	}
	if err := png.Encode(fout, img); err != nil {
		fout.Close()
		return err
	}
	return fout.Close()
}
