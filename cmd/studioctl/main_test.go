package main

import (
	"bytes"
	"context"
	"encoding/json"
	"image"
	"image/color"
	"image/png"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func setupDir(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	t.Chdir(dir)
	t.Setenv("APP_ENV", "test")
	t.Setenv("STUDIO_TUNING_FILE", "")
	t.Setenv("GEMINI_API_KEY", "")
	t.Setenv("VISION_PROVIDER", "")
	return dir
}

func writePNG(t *testing.T, path string, colours []color.NRGBA) {
	t.Helper()
	img := image.NewNRGBA(image.Rect(0, 0, 8*len(colours), 8))
	for x := 0; x < img.Bounds().Dx(); x++ {
		for y := 0; y < 8; y++ {
			img.SetNRGBA(x, y, colours[x/8])
		}
	}
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		t.Fatalf("encode: %v", err)
	}
	if err := os.WriteFile(path, buf.Bytes(), 0o644); err != nil {
		t.Fatalf("write %s: %v", path, err)
	}
}

var stripes = []color.NRGBA{
	{10, 10, 10, 255},
	{40, 20, 30, 255},
	{200, 30, 30, 255},
	{30, 160, 40, 255},
	{40, 60, 200, 255},
	{128, 128, 128, 255},
	{220, 220, 210, 255},
	{250, 250, 250, 255},
}

func TestRunWithoutCommand(t *testing.T) {
	setupDir(t)
	var out, errOut bytes.Buffer
	if err := run(context.Background(), nil, &out, &errOut); err != errUsage {
		t.Fatalf("run() error = %v, want usage", err)
	}
	if err := run(context.Background(), []string{"bogus"}, &out, &errOut); err == nil || !strings.Contains(err.Error(), "unknown command") {
		t.Fatalf("run(bogus) error = %v", err)
	}
}

func TestExtractPrintsReport(t *testing.T) {
	dir := setupDir(t)
	good := filepath.Join(dir, "summer.png")
	writePNG(t, good, stripes)
	broken := filepath.Join(dir, "broken.png")
	if err := os.WriteFile(broken, []byte("not an image"), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}

	var out, errOut bytes.Buffer
	if err := run(context.Background(), []string{"extract", good, broken}, &out, &errOut); err != nil {
		t.Fatalf("extract error: %v (%s)", err, errOut.String())
	}
	var report struct {
		Name       string `json:"name"`
		ColourOnly bool   `json:"colour_only"`
		Images     []struct {
			ImageID      string `json:"image_id"`
			PaletteError string `json:"palette_error"`
		} `json:"images"`
	}
	if err := json.Unmarshal(out.Bytes(), &report); err != nil {
		t.Fatalf("decode report: %v (%s)", err, out.String())
	}
	if report.Name != "summer" || !report.ColourOnly {
		t.Fatalf("name = %q colour_only = %v", report.Name, report.ColourOnly)
	}
	if len(report.Images) != 2 || report.Images[0].PaletteError != "" || report.Images[1].PaletteError == "" {
		t.Fatalf("images = %+v", report.Images)
	}
}

func TestExtractFailsWhenEveryImageFails(t *testing.T) {
	dir := setupDir(t)
	broken := filepath.Join(dir, "broken.png")
	if err := os.WriteFile(broken, []byte("nope"), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}
	var out, errOut bytes.Buffer
	if err := run(context.Background(), []string{"extract", broken}, &out, &errOut); err == nil {
		t.Fatal("extract of only broken images succeeded")
	}
	if !strings.Contains(out.String(), "palette_error") {
		t.Fatalf("report missing per-image errors: %s", out.String())
	}
}

func TestRenderWritesPNG(t *testing.T) {
	dir := setupDir(t)
	assets := filepath.Join(dir, "assets")
	if err := os.MkdirAll(assets, 0o755); err != nil {
		t.Fatalf("mkdir: %v", err)
	}
	writePNG(t, filepath.Join(assets, "hero.png"), []color.NRGBA{{0, 0, 255, 255}})

	zones := `[
	  {"bounds": {"x": 0, "y": 0, "width": 50, "height": 100}, "content": {"type": "solid", "colour": "#ff0000"}, "zone_order": 0},
	  {"bounds": {"x": 50, "y": 0, "width": 50, "height": 100}, "content": {"type": "image", "asset_id": "hero"}, "zone_order": 1},
	  {"bounds": {"x": 0, "y": 0, "width": 10, "height": 10}, "content": {"type": "image", "asset_id": "ghost"}, "zone_order": 2}
	]`
	zonesPath := filepath.Join(dir, "zones.json")
	if err := os.WriteFile(zonesPath, []byte(zones), 0o644); err != nil {
		t.Fatalf("write zones: %v", err)
	}
	outPath := filepath.Join(dir, "out.png")

	var out, errOut bytes.Buffer
	args := []string{"render", "-zones", zonesPath, "-assets", assets, "-out", outPath, "-width", "100", "-height", "100"}
	if err := run(context.Background(), args, &out, &errOut); err != nil {
		t.Fatalf("render error: %v", err)
	}
	if !strings.Contains(errOut.String(), "skipped zone 2") {
		t.Fatalf("stderr = %q, want skipped zone report", errOut.String())
	}

	f, err := os.Open(outPath)
	if err != nil {
		t.Fatalf("open output: %v", err)
	}
	defer f.Close()
	img, err := png.Decode(f)
	if err != nil {
		t.Fatalf("decode output: %v", err)
	}
	if img.Bounds().Dx() != 100 || img.Bounds().Dy() != 100 {
		t.Fatalf("size = %v, want 100x100", img.Bounds())
	}
	if r, _, b, _ := img.At(25, 50).RGBA(); r>>8 != 255 || b != 0 {
		t.Fatalf("left pixel = %v, want red", img.At(25, 50))
	}
	if r, _, b, _ := img.At(75, 50).RGBA(); r != 0 || b>>8 != 255 {
		t.Fatalf("right pixel = %v, want blue", img.At(75, 50))
	}
}

func TestRenderUsesFormatPreset(t *testing.T) {
	dir := setupDir(t)
	zonesPath := filepath.Join(dir, "zones.json")
	if err := os.WriteFile(zonesPath, []byte(`{"format": "ig-post", "zones": []}`), 0o644); err != nil {
		t.Fatalf("write zones: %v", err)
	}
	outPath := filepath.Join(dir, "post.png")
	var out, errOut bytes.Buffer
	if err := run(context.Background(), []string{"render", "-zones", zonesPath, "-out", outPath}, &out, &errOut); err != nil {
		t.Fatalf("render error: %v", err)
	}
	if !strings.Contains(out.String(), "1080x1080") {
		t.Fatalf("stdout = %q, want 1080x1080", out.String())
	}
}

func TestRenderRequiresFlags(t *testing.T) {
	setupDir(t)
	var out, errOut bytes.Buffer
	if err := run(context.Background(), []string{"render", "-out", "x.png"}, &out, &errOut); err == nil {
		t.Fatal("render without -zones succeeded")
	}
}
