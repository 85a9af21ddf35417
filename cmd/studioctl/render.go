package main

import (
	"bytes"
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"image/png"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/rs/zerolog"

	"studio/internal/bootstrap"
	"studio/internal/domain"
	"studio/internal/domain/jsoncfg"
	"studio/internal/infra"
	"studio/internal/storage"
)

func runRender(ctx context.Context, cfg *infra.Config, args []string, stdout, stderr io.Writer, logger zerolog.Logger) error {
	fs := flag.NewFlagSet("render", flag.ContinueOnError)
	fs.SetOutput(io.Discard)
	var (
		zonesFlag  string
		assetsFlag string
		outFlag    string
		widthFlag  int
		heightFlag int
		formatFlag string
	)
	fs.StringVar(&zonesFlag, "zones", "", "JSON file holding a zone array or a full render request")
	fs.StringVar(&assetsFlag, "assets", "", "directory of images; each file is asset id <name without extension>")
	fs.StringVar(&outFlag, "out", "", "output PNG path")
	fs.IntVar(&widthFlag, "width", 0, "canvas width in pixels")
	fs.IntVar(&heightFlag, "height", 0, "canvas height in pixels")
	fs.StringVar(&formatFlag, "format", "", "canvas preset (ig-post, ig-story, flyer-a5, flyer-a4)")
	if err := fs.Parse(args); err != nil {
		return fmt.Errorf("%w\n%s", err, usage)
	}
	if zonesFlag == "" || outFlag == "" {
		return fmt.Errorf("-zones and -out are required\n%s", usage)
	}

	req, err := loadRenderRequest(zonesFlag)
	if err != nil {
		return err
	}
	if widthFlag > 0 {
		req.CanvasWidth = widthFlag
	}
	if heightFlag > 0 {
		req.CanvasHeight = heightFlag
	}
	if formatFlag != "" {
		req.Format = formatFlag
	}
	req.Normalize()
	if err := req.Validate(cfg.Tuning.Compositor.MaxCanvas); err != nil {
		return err
	}
	zones, err := jsoncfg.DecodeZones(req.Zones)
	if err != nil {
		return err
	}

	registry := storage.NewMemoryRegistry(nil)
	if assetsFlag != "" {
		if registry, err = registerDir(ctx, assetsFlag); err != nil {
			return err
		}
	}
	comp, err := bootstrap.Compositor(cfg.Tuning.Compositor, registry, logger)
	if err != nil {
		return err
	}
	res, err := comp.Compose(ctx, zones, req.CanvasWidth, req.CanvasHeight)
	if err != nil {
		return err
	}

	var buf bytes.Buffer
	if err := png.Encode(&buf, res.Canvas); err != nil {
		return fmt.Errorf("encode png: %w", err)
	}
	if err := os.WriteFile(outFlag, buf.Bytes(), 0o644); err != nil {
		return err
	}
	for _, z := range res.Skipped {
		fmt.Fprintf(stderr, "skipped zone %d (order %d, %s): %v\n", z.Index, z.Order, z.Type, z.Err)
	}
	fmt.Fprintf(stdout, "wrote %s (%dx%d, %d zones, %d skipped)\n", outFlag, req.CanvasWidth, req.CanvasHeight, len(zones), len(res.Skipped))
	return nil
}

// loadRenderRequest accepts either a bare zone array or a render request
// object.
func loadRenderRequest(path string) (jsoncfg.RenderRequest, error) {
	var req jsoncfg.RenderRequest
	data, err := os.ReadFile(path)
	if err != nil {
		return req, err
	}
	if strings.HasPrefix(strings.TrimSpace(string(data)), "[") {
		err = json.Unmarshal(data, &req.Zones)
	} else {
		err = json.Unmarshal(data, &req)
	}
	if err != nil {
		return req, fmt.Errorf("%w: %s: %v", domain.ErrValidation, path, err)
	}
	return req, nil
}

func registerDir(ctx context.Context, dir string) (*storage.MemoryRegistry, error) {
	store, err := storage.NewFileStore(dir)
	if err != nil {
		return nil, err
	}
	registry := storage.NewMemoryRegistry(store)
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, err
	}
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		name := e.Name()
		id := strings.TrimSuffix(name, filepath.Ext(name))
		if err := registry.Register(ctx, domain.Asset{ID: id, Kind: domain.AssetKindImage, StorageKey: name, Filename: name}); err != nil {
			return nil, err
		}
	}
	return registry, nil
}
