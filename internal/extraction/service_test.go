package extraction

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
	"sync"
	"testing"

	"studio/internal/domain"
	"studio/internal/storage"
	"studio/internal/vision"
)

type stubPalette struct {
	mu    sync.Mutex
	seeds []uint64
}

func (s *stubPalette) Extract(_ context.Context, data []byte, seed uint64) (domain.Palette, error) {
	s.mu.Lock()
	s.seeds = append(s.seeds, seed)
	s.mu.Unlock()
	if strings.HasPrefix(string(data), "bad") {
		return domain.Palette{}, domain.ErrExtraction
	}
	hex := "#" + strings.Repeat(string(data[:1]), 6)
	return domain.Palette{Buckets: domain.ColourBuckets{
		Primary: []string{hex}, Accent: []string{hex}, Background: []string{"#000000"}, Text: []string{"#ffffff"},
	}}, nil
}

type stubAnalyzer struct {
	result vision.Result
	err    error
}

func (s stubAnalyzer) Analyze(context.Context, []byte, string) (vision.Result, error) {
	return s.result, s.err
}

func unavailableAnalyzer() stubAnalyzer {
	return stubAnalyzer{result: vision.Result{Status: vision.StatusUnavailable}}
}

func TestExtractKeepsGoingPastFailedImages(t *testing.T) {
	pal := &stubPalette{}
	svc := NewService(pal, unavailableAnalyzer(), nil, Options{Workers: 2, Seed: 7})
	report, err := svc.Extract(context.Background(), []ImageInput{
		{ID: "a", Data: []byte("aaa")},
		{ID: "b", Data: []byte("bad")},
		{ID: "c", Data: []byte("ccc")},
	})
	if err != nil {
		t.Fatalf("Extract error: %v", err)
	}
	if !report.ColourOnly || report.ColourInputs != 2 || report.VisionInputs != 0 {
		t.Fatalf("report = colour_only %v, colour %d, vision %d", report.ColourOnly, report.ColourInputs, report.VisionInputs)
	}
	for i, want := range []string{"a", "b", "c"} {
		if report.Images[i].ImageID != want {
			t.Fatalf("Images[%d] = %q, want %q", i, report.Images[i].ImageID, want)
		}
	}
	if !errors.Is(report.Images[1].Palette.Err, domain.ErrExtraction) {
		t.Fatalf("image b palette error = %v, want ErrExtraction", report.Images[1].Palette.Err)
	}
	if got := report.Profile.Colours.Primary; len(got) != 2 || got[0] != "#aaaaaa" || got[1] != "#cccccc" {
		t.Fatalf("primary = %v, want [#aaaaaa #cccccc]", got)
	}
	for _, seed := range pal.seeds {
		if seed != 7 {
			t.Fatalf("seed = %d, want 7", seed)
		}
	}
}

func TestExtractUsesSeedZero(t *testing.T) {
	pal := &stubPalette{}
	svc := NewService(pal, unavailableAnalyzer(), nil, Options{Seed: 0})
	if _, err := svc.Extract(context.Background(), []ImageInput{{ID: "a", Data: []byte("aaa")}}); err != nil {
		t.Fatalf("Extract error: %v", err)
	}
	if len(pal.seeds) != 1 || pal.seeds[0] != 0 {
		t.Fatalf("seeds = %v, want [0]", pal.seeds)
	}
}

func TestExtractTotalFailure(t *testing.T) {
	svc := NewService(&stubPalette{}, stubAnalyzer{err: domain.ErrAnalysis}, nil, Options{})
	report, err := svc.Extract(context.Background(), []ImageInput{{ID: "x", Data: []byte("bad")}})
	if !errors.Is(err, domain.ErrSynthesis) {
		t.Fatalf("Extract error = %v, want ErrSynthesis", err)
	}
	if report == nil || len(report.Images) != 1 || report.Images[0].Vision.OK() {
		t.Fatalf("report = %+v, want one failed outcome", report)
	}
}

func TestExtractRequiresImages(t *testing.T) {
	svc := NewService(&stubPalette{}, nil, nil, Options{})
	if _, err := svc.Extract(context.Background(), nil); !errors.Is(err, domain.ErrValidation) {
		t.Fatalf("Extract(nil) error = %v, want ErrValidation", err)
	}
}

func TestExtractUsesVisionAnalyses(t *testing.T) {
	analysis := domain.VisionAnalysis{
		Typography: domain.VisionTypography{
			Headline: domain.TypeStyle{Style: "display", Weight: "black"},
			Body:     domain.TypeStyle{Style: "mono", Weight: "light"},
			HasText:  true,
		},
		Mood: domain.Mood{Warmth: 0.4},
	}
	svc := NewService(&stubPalette{}, stubAnalyzer{result: vision.Result{Status: vision.StatusAnalyzed, Analysis: analysis}}, nil, Options{})
	report, err := svc.Extract(context.Background(), []ImageInput{{ID: "a", Data: []byte("aaa")}})
	if err != nil {
		t.Fatalf("Extract error: %v", err)
	}
	if report.ColourOnly {
		t.Fatal("ColourOnly = true, want false")
	}
	if got := report.Profile.Typography.Headline.Family; got != "Instrument Serif" {
		t.Fatalf("headline family = %q, want Instrument Serif", got)
	}
	if got := report.Profile.Mood.Warmth; got != 0.4 {
		t.Fatalf("warmth = %v, want 0.4", got)
	}
}

func TestExtractAssetsIsolatesMissingAssets(t *testing.T) {
	store, err := storage.NewFileStore(t.TempDir())
	if err != nil {
		t.Fatalf("NewFileStore: %v", err)
	}
	ctx := context.Background()
	if _, err := store.Write(ctx, "images/a.png", []byte("aaa")); err != nil {
		t.Fatalf("Write: %v", err)
	}
	reg := storage.NewMemoryRegistry(store)
	if err := reg.Register(ctx, domain.Asset{ID: "a", StorageKey: "images/a.png", MimeType: "image/png"}); err != nil {
		t.Fatalf("Register: %v", err)
	}

	svc := NewService(&stubPalette{}, unavailableAnalyzer(), nil, Options{})
	report, err := svc.ExtractAssets(ctx, reg, []string{"a", "ghost"})
	if err != nil {
		t.Fatalf("ExtractAssets error: %v", err)
	}
	ghost := report.Images[1]
	if ghost.ImageID != "ghost" || !errors.Is(ghost.Palette.Err, domain.ErrNotFound) || !errors.Is(ghost.Palette.Err, domain.ErrExtraction) {
		t.Fatalf("ghost outcome = %+v, want extraction error wrapping not found", ghost)
	}
	if !report.Images[0].Palette.OK() {
		t.Fatalf("asset a palette error = %v", report.Images[0].Palette.Err)
	}
}

func TestExtractHonoursCancellation(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	svc := NewService(&stubPalette{}, nil, nil, Options{})
	if _, err := svc.Extract(ctx, []ImageInput{{ID: "a", Data: []byte("aaa")}}); !errors.Is(err, context.Canceled) {
		t.Fatalf("Extract error = %v, want context.Canceled", err)
	}
}

func TestImageOutcomeJSON(t *testing.T) {
	o := ImageOutcome{
		ImageID: "a",
		Palette: domain.Failed[domain.Palette](domain.ErrExtraction),
		Vision:  domain.Succeeded(vision.Result{Status: vision.StatusUnavailable}),
	}
	raw, err := json.Marshal(o)
	if err != nil {
		t.Fatalf("Marshal: %v", err)
	}
	var got map[string]any
	if err := json.Unmarshal(raw, &got); err != nil {
		t.Fatalf("Unmarshal: %v", err)
	}
	if got["palette_error"] != domain.ErrExtraction.Error() || got["vision_status"] != "unavailable" {
		t.Fatalf("json = %s", raw)
	}
	if _, ok := got["palette"]; ok {
		t.Fatalf("json = %s, want no palette", raw)
	}
}
