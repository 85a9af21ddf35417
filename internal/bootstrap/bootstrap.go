// Package bootstrap assembles the studio services from configuration. The
// api, the worker and studioctl share it so they render and extract
// identically.
package bootstrap

import (
	"context"
	"fmt"
	"net/http"
	"path/filepath"
	"strings"

	"github.com/rs/zerolog"

	"studio/internal/compositor"
	"studio/internal/domain"
	"studio/internal/domain/jsoncfg"
	"studio/internal/extraction"
	"studio/internal/infra"
	"studio/internal/palette"
	"studio/internal/providers/genai"
	"studio/internal/providers/qwen"
	"studio/internal/storage"
	"studio/internal/synthesis"
	"studio/internal/vision"
)

// KeySource yields a stored vision credential. credentials.Store is one.
type KeySource interface {
	VisionAPIKey(ctx context.Context) (string, error)
}

// FileStore opens the storage root, resolving a relative path against the
// working directory.
func FileStore(path string) (*storage.FileStore, error) {
	if strings.TrimSpace(path) == "" {
		path = "./storage"
	}
	if !filepath.IsAbs(path) {
		if abs, err := filepath.Abs(path); err == nil {
			path = abs
		}
	}
	return storage.NewFileStore(path)
}

func Compositor(t infra.CompositorTuning, assets domain.AssetResolver, logger zerolog.Logger) (*compositor.Compositor, error) {
	bg, err := jsoncfg.ParseColour(t.Background, jsoncfg.DefaultSolidColour)
	if err != nil {
		return nil, fmt.Errorf("compositor background: %w", err)
	}
	var fonts []string
	for _, p := range []string{t.PrimaryFont, t.SecondaryFont} {
		if p = strings.TrimSpace(p); p != "" {
			fonts = append(fonts, p)
		}
	}
	if fonts == nil {
		fonts = []string{}
	}
	l := logger.With().Str("component", "compositor").Logger()
	return compositor.New(assets, compositor.Options{
		Background:   bg,
		MaxDimension: t.MaxCanvas,
		FontPaths:    fonts,
		Logger:       &l,
	}), nil
}

// Extraction wires the palette extractor, analyzer and synthesizer. A nil
// analyzer yields colour-only profiles.
func Extraction(t infra.Tuning, analyzer extraction.StyleAnalyzer, logger zerolog.Logger) *extraction.Service {
	l := logger.With().Str("component", "extraction").Logger()
	extractor := palette.NewExtractor(palette.Options{
		WorkingWidth:  t.Palette.WorkingWidth,
		Clusters:      t.Palette.Clusters,
		MaxIterations: t.Palette.MaxIterations,
	})
	return extraction.NewService(extractor, analyzer, synthesis.New(&l), extraction.Options{
		Workers: t.Extraction.Workers,
		Seed:    t.Palette.Seed,
		Logger:  &l,
	})
}

// VisionAnalyzer builds the analyzer for the configured provider. The Gemini
// key comes from the environment first, then from keys. Without a key the
// analyzer reports every image as unavailable.
func VisionAnalyzer(ctx context.Context, cfg *infra.Config, keys KeySource, logger zerolog.Logger) (*vision.Analyzer, error) {
	l := logger.With().Str("component", "vision").Str("provider", cfg.VisionProvider).Logger()
	httpClient := &http.Client{Timeout: cfg.VisionTimeout + cfg.VisionTimeout/2}

	var (
		capability vision.Capability
		model      string
	)
	switch cfg.VisionProvider {
	case infra.VisionProviderQwen:
		client, err := qwen.NewClient(qwen.Options{
			APIKey:     cfg.QwenAPIKey,
			BaseURL:    cfg.QwenBaseURL,
			Model:      cfg.QwenModel,
			HTTPClient: httpClient,
			Logger:     &l,
		})
		if err != nil {
			return nil, err
		}
		capability, model = client, client.Model()
	default:
		key := strings.TrimSpace(cfg.GeminiAPIKey)
		if key == "" && keys != nil {
			stored, err := keys.VisionAPIKey(ctx)
			if err != nil {
				l.Warn().Err(err).Msg("vision: failed to load api key from store")
			} else {
				key = stored
			}
		}
		client, err := genai.NewClient(genai.Options{
			APIKey:     key,
			BaseURL:    cfg.GeminiBaseURL,
			Model:      cfg.GeminiModel,
			HTTPClient: httpClient,
			Logger:     &l,
		})
		if err != nil {
			return nil, err
		}
		capability, model = client, client.Model()
	}

	if !capability.Available() {
		l.Warn().Str("model", model).Msg("vision: api key missing, profiles will be colour-only")
	}
	return vision.NewAnalyzer(capability, vision.Options{Timeout: cfg.VisionTimeout, Logger: &l}), nil
}
