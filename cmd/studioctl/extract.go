package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/rs/zerolog"

	"studio/internal/bootstrap"
	"studio/internal/extraction"
	"studio/internal/infra"
	"studio/internal/storage"
)

type extractOutput struct {
	Name string `json:"name"`
	*extraction.Report
}

func runExtract(ctx context.Context, cfg *infra.Config, args []string, stdout io.Writer, logger zerolog.Logger) error {
	fs := flag.NewFlagSet("extract", flag.ContinueOnError)
	fs.SetOutput(io.Discard)
	var (
		nameFlag   string
		visionFlag bool
		seedFlag   uint64
		outFlag    string
	)
	fs.StringVar(&nameFlag, "name", "", "profile name (defaults to the first image's name)")
	fs.BoolVar(&visionFlag, "vision", false, "ask the vision model for typography and mood (needs GEMINI_API_KEY)")
	fs.Uint64Var(&seedFlag, "seed", cfg.Tuning.Palette.Seed, "clustering seed (defaults to the tuning file)")
	fs.StringVar(&outFlag, "out", "", "write the JSON report to this file instead of stdout")
	if err := fs.Parse(args); err != nil {
		return fmt.Errorf("%w\n%s", err, usage)
	}
	paths := fs.Args()
	if len(paths) == 0 {
		return fmt.Errorf("at least one image is required\n%s", usage)
	}

	inputs := make([]extraction.ImageInput, 0, len(paths))
	for _, p := range paths {
		data, err := os.ReadFile(p)
		if err != nil {
			return fmt.Errorf("read %s: %w", p, err)
		}
		inputs = append(inputs, extraction.ImageInput{
			ID:       filepath.Base(p),
			Data:     data,
			MimeType: storage.NormalizeMIME("", data),
		})
	}

	tuning := cfg.Tuning
	tuning.Palette.Seed = seedFlag
	var analyzer extraction.StyleAnalyzer
	if visionFlag {
		a, err := bootstrap.VisionAnalyzer(ctx, cfg, nil, logger)
		if err != nil {
			return err
		}
		analyzer = a
	}

	report, err := bootstrap.Extraction(tuning, analyzer, logger).Extract(ctx, inputs)
	if report == nil {
		return err
	}
	name := strings.TrimSpace(nameFlag)
	if name == "" {
		name = strings.TrimSuffix(inputs[0].ID, filepath.Ext(inputs[0].ID))
	}
	if writeErr := writeJSON(stdout, outFlag, extractOutput{Name: name, Report: report}); writeErr != nil {
		return writeErr
	}
	return err
}

func writeJSON(stdout io.Writer, path string, v any) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return err
	}
	data = append(data, '\n')
	if path == "" {
		_, err = stdout.Write(data)
		return err
	}
	return os.WriteFile(path, data, 0o644)
}
