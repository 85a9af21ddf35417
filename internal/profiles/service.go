// Package profiles creates style profiles from registered assets and keeps
// their analysis up to date.
package profiles

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/rs/zerolog"

	"studio/internal/domain"
	"studio/internal/extraction"
)

type Extractor interface {
	ExtractAssets(ctx context.Context, registry domain.AssetRegistry, ids []string) (*extraction.Report, error)
}

// Analysis is a freshly saved profile plus the per-image report behind it.
type Analysis struct {
	Record *domain.ProfileRecord `json:"profile"`
	Report *extraction.Report    `json:"report"`
}

type Service struct {
	repo      domain.ProfileRepository
	assets    domain.AssetRegistry
	extractor Extractor
	logger    zerolog.Logger
}

func NewService(repo domain.ProfileRepository, assets domain.AssetRegistry, extractor Extractor, logger zerolog.Logger) *Service {
	return &Service{repo: repo, assets: assets, extractor: extractor, logger: logger}
}

// Create stores a profile over existing assets. Unknown asset ids are
// rejected up front so analysis never runs against a dangling reference.
func (s *Service) Create(ctx context.Context, name string, assetIDs []string) (*domain.ProfileRecord, error) {
	ids := dedupe(assetIDs)
	if len(ids) == 0 {
		return nil, fmt.Errorf("%w: at least one source image is required", domain.ErrValidation)
	}
	for _, id := range ids {
		if _, err := s.assets.Resolve(ctx, id); err != nil {
			if errors.Is(err, domain.ErrNotFound) {
				return nil, fmt.Errorf("%w: unknown asset %s", domain.ErrValidation, id)
			}
			return nil, err
		}
	}
	return s.repo.Create(ctx, name, ids)
}

func (s *Service) Get(ctx context.Context, id string) (*domain.ProfileRecord, error) {
	return s.repo.Get(ctx, id)
}

func (s *Service) List(ctx context.Context) ([]domain.ProfileRecord, error) {
	return s.repo.List(ctx)
}

// Analyze runs extraction over the profile's sources and saves the result.
// When every input fails the stored profile is left untouched and the
// returned Analysis still carries the per-image report.
func (s *Service) Analyze(ctx context.Context, id string) (*Analysis, error) {
	rec, err := s.repo.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	report, err := s.extractor.ExtractAssets(ctx, s.assets, rec.SourceAssetIDs)
	if err != nil {
		s.logger.Warn().Err(err).Str("profile_id", id).Msg("profiles: analysis failed")
		return &Analysis{Record: rec, Report: report}, err
	}
	saved, err := s.repo.SaveAnalysis(ctx, id, report.Profile)
	if err != nil {
		return nil, err
	}
	s.logger.Info().
		Str("profile_id", id).
		Int("version", saved.Version).
		Bool("colour_only", report.ColourOnly).
		Int("colour_inputs", report.ColourInputs).
		Int("vision_inputs", report.VisionInputs).
		Msg("profiles: analysis saved")
	return &Analysis{Record: saved, Report: report}, nil
}

func dedupe(ids []string) []string {
	seen := make(map[string]struct{}, len(ids))
	out := make([]string, 0, len(ids))
	for _, id := range ids {
		id = strings.TrimSpace(id)
		if id == "" {
			continue
		}
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		out = append(out, id)
	}
	return out
}
