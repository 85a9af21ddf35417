// Package extraction runs palette extraction and vision analysis over a batch
// of reference images and synthesizes the results into one style profile.
package extraction

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"

	"studio/internal/domain"
	"studio/internal/synthesis"
	"studio/internal/vision"
)

// DefaultWorkers bounds how many images are processed at once.
const DefaultWorkers = 4

type PaletteExtractor interface {
	Extract(ctx context.Context, data []byte, seed uint64) (domain.Palette, error)
}

type StyleAnalyzer interface {
	Analyze(ctx context.Context, image []byte, mimeType string) (vision.Result, error)
}

// ImageInput is one reference image.
type ImageInput struct {
	ID       string
	Data     []byte
	MimeType string
}

// ImageOutcome holds both per-image results. A failure in one never hides
// the other.
type ImageOutcome struct {
	ImageID string
	Palette domain.Outcome[domain.Palette]
	Vision  domain.Outcome[vision.Result]
}

type imageOutcomeJSON struct {
	ImageID      string          `json:"image_id"`
	Palette      *domain.Palette `json:"palette,omitempty"`
	PaletteError string          `json:"palette_error,omitempty"`
	VisionStatus string          `json:"vision_status"`
	VisionError  string          `json:"vision_error,omitempty"`
}

func (o ImageOutcome) MarshalJSON() ([]byte, error) {
	out := imageOutcomeJSON{ImageID: o.ImageID}
	if o.Palette.OK() {
		p := o.Palette.Value
		out.Palette = &p
	} else {
		out.PaletteError = o.Palette.Err.Error()
	}
	if o.Vision.OK() {
		out.VisionStatus = string(o.Vision.Value.Status)
	} else {
		out.VisionStatus = "failed"
		out.VisionError = o.Vision.Err.Error()
	}
	return json.Marshal(out)
}

// Report is a synthesized profile plus the per-image outcomes behind it.
type Report struct {
	synthesis.Result
	Images []ImageOutcome `json:"images"`
}

type Options struct {
	Workers int
	// Seed is passed to every palette extraction as given; zero is a valid
	// seed. infra.DefaultTuning supplies the usual value.
	Seed   uint64
	Logger *zerolog.Logger
}

// Service is safe for concurrent use as long as its collaborators are.
type Service struct {
	palette  PaletteExtractor
	analyzer StyleAnalyzer
	synth    *synthesis.Synthesizer
	workers  int
	seed     uint64
	logger   zerolog.Logger
}

func NewService(extractor PaletteExtractor, analyzer StyleAnalyzer, synth *synthesis.Synthesizer, opts Options) *Service {
	s := &Service{
		palette:  extractor,
		analyzer: analyzer,
		synth:    synth,
		workers:  opts.Workers,
		seed:     opts.Seed,
		logger:   zerolog.Nop(),
	}
	if s.workers <= 0 {
		s.workers = DefaultWorkers
	}
	if opts.Logger != nil {
		s.logger = *opts.Logger
	}
	if s.synth == nil {
		s.synth = synthesis.New(opts.Logger)
	}
	return s
}

// Extract processes images and synthesizes a profile. Per-image failures are
// recorded in Report.Images; the call fails only when the batch is empty,
// the context ends, or no input of either kind succeeded.
func (s *Service) Extract(ctx context.Context, images []ImageInput) (*Report, error) {
	return s.run(ctx, len(images), func(_ context.Context, i int) (ImageInput, error) {
		return images[i], nil
	})
}

// ExtractAssets loads each asset from registry and processes it like
// Extract. An asset that cannot be loaded fails only its own outcome.
func (s *Service) ExtractAssets(ctx context.Context, registry domain.AssetRegistry, ids []string) (*Report, error) {
	return s.run(ctx, len(ids), func(ctx context.Context, i int) (ImageInput, error) {
		asset, err := registry.Resolve(ctx, ids[i])
		if err != nil {
			return ImageInput{ID: ids[i]}, err
		}
		data, err := registry.Open(ctx, ids[i])
		if err != nil {
			return ImageInput{ID: ids[i]}, err
		}
		return ImageInput{ID: asset.ID, Data: data, MimeType: asset.MimeType}, nil
	})
}

type loadFunc func(ctx context.Context, i int) (ImageInput, error)

func (s *Service) run(ctx context.Context, n int, load loadFunc) (*Report, error) {
	if n == 0 {
		return nil, fmt.Errorf("%w: at least one image is required", domain.ErrValidation)
	}

	outcomes := make([]ImageOutcome, n)
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(s.workers)
	for i := 0; i < n; i++ {
		g.Go(func() error {
			outcomes[i] = s.processOne(gctx, i, load)
			return nil
		})
	}
	_ = g.Wait()
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	colours := make([]domain.Outcome[domain.Palette], 0, n)
	analyses := make([]domain.Outcome[domain.VisionAnalysis], 0, n)
	for _, o := range outcomes {
		colours = append(colours, o.Palette)
		switch {
		case !o.Vision.OK():
			analyses = append(analyses, domain.Failed[domain.VisionAnalysis](o.Vision.Err))
		case o.Vision.Value.Status == vision.StatusAnalyzed:
			analyses = append(analyses, domain.Succeeded(o.Vision.Value.Analysis))
		default:
			analyses = append(analyses, domain.Failed[domain.VisionAnalysis](domain.ErrVisionUnavailable))
		}
	}

	res, err := s.synth.Synthesize(colours, analyses)
	if err != nil {
		return &Report{Images: outcomes}, err
	}
	return &Report{Result: res, Images: outcomes}, nil
}

func (s *Service) processOne(ctx context.Context, i int, load loadFunc) ImageOutcome {
	input, err := load(ctx, i)
	out := ImageOutcome{ImageID: input.ID}
	if out.ImageID == "" {
		out.ImageID = fmt.Sprintf("#%d", i)
	}
	log := s.logger.With().Str("image", out.ImageID).Logger()
	if err != nil {
		log.Warn().Err(err).Msg("extraction: image unavailable")
		out.Palette = domain.Failed[domain.Palette](fmt.Errorf("%w: load image: %w", domain.ErrExtraction, err))
		out.Vision = domain.Failed[vision.Result](fmt.Errorf("%w: load image: %w", domain.ErrAnalysis, err))
		return out
	}

	if p, err := s.palette.Extract(ctx, input.Data, s.seed); err != nil {
		log.Warn().Err(err).Msg("extraction: palette failed")
		out.Palette = domain.Failed[domain.Palette](err)
	} else {
		out.Palette = domain.Succeeded(p)
	}

	if s.analyzer == nil {
		out.Vision = domain.Succeeded(vision.Result{Status: vision.StatusUnavailable, Reason: "no analyzer configured"})
		return out
	}
	res, err := s.analyzer.Analyze(ctx, input.Data, input.MimeType)
	if err != nil {
		log.Warn().Err(err).Msg("extraction: vision analysis failed")
		out.Vision = domain.Failed[vision.Result](err)
		return out
	}
	out.Vision = domain.Succeeded(res)
	return out
}
