// Command pdfmerge merges PDF files into one document.
//
//	pdfmerge -o merged.pdf a.pdf b.pdf c.pdf
//	pdfmerge -config job.yaml
//
// The manifest form reads a YAML job description:
//
//	output: merged.pdf
//	inputs:
//	  - a.pdf
//	  - b.pdf
package main

import (
	"context"
	"flag"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	pdfutils "github.com/Vibes-INS/ins-pdf-utils"
	"github.com/Vibes-INS/ins-pdf-utils/observability"
)

type manifest struct {
	Output string   `yaml:"output"`
	Inputs []string `yaml:"inputs"`
}

func main() {
	output := flag.String("o", "", "output file")
	configPath := flag.String("config", "", "YAML merge manifest")
	verbose := flag.Bool("v", false, "verbose logging")
	flag.Parse()

	job := manifest{Output: *output, Inputs: flag.Args()}
	if *configPath != "" {
		loaded, err := loadManifest(*configPath)
		if err != nil {
			fatal(err)
		}
		job = loaded
		if *output != "" {
			job.Output = *output
		}
	}

	if len(job.Inputs) == 0 {
		fmt.Fprintln(os.Stderr, "usage: pdfmerge [-v] [-config job.yaml] -o out.pdf in1.pdf in2.pdf ...")
		os.Exit(2)
	}
	if job.Output == "" {
		fatal(fmt.Errorf("no output file given"))
	}

	logger := observability.NewWriterLogger(os.Stderr, *verbose)
	opts := []pdfutils.Option{pdfutils.WithLogger(logger)}
	if *verbose {
		opts = append(opts, pdfutils.WithTracer(observability.NewLogTracer(logger)))
	}

	merged, err := pdfutils.MergeFiles(context.Background(), job.Inputs, opts...)
	if err != nil {
		fatal(err)
	}
	if err := os.WriteFile(job.Output, merged, 0o644); err != nil {
		fatal(err)
	}
	logger.Info("wrote merged document",
		observability.String("output", job.Output),
		observability.Int("inputs", len(job.Inputs)))
}

func loadManifest(path string) (manifest, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return manifest{}, fmt.Errorf("read manifest: %w", err)
	}
	var m manifest
	if err := yaml.Unmarshal(data, &m); err != nil {
		return manifest{}, fmt.Errorf("parse manifest: %w", err)
	}
	return m, nil
}

func fatal(err error) {
	fmt.Fprintln(os.Stderr, "pdfmerge:", err)
	os.Exit(1)
}
