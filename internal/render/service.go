// Package render turns render requests into stored PNG files.
package render

import (
	"bytes"
	"context"
	"fmt"
	"image/png"
	"regexp"
	"strings"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"studio/internal/compositor"
	"studio/internal/domain"
	"studio/internal/domain/jsoncfg"
	"studio/internal/storage"
	"studio/pkg/archive"
)

const keyPrefix = "renders/"

var renderIDPattern = regexp.MustCompile(`^[a-f0-9-]+$`)

// SkippedZone reports a zone left blank in the output.
type SkippedZone struct {
	Index int    `json:"index"`
	Order int    `json:"zone_order"`
	Type  string `json:"type"`
	Error string `json:"error"`
}

// Output describes a stored render.
type Output struct {
	ID         string        `json:"render_id"`
	Width      int           `json:"width"`
	Height     int           `json:"height"`
	StorageKey string        `json:"storage_key"`
	SizeBytes  int           `json:"size_bytes"`
	Skipped    []SkippedZone `json:"skipped_zones"`
}

type Composer interface {
	Compose(ctx context.Context, zones []domain.Zone, width, height int) (*compositor.Result, error)
}

type Service struct {
	composer     Composer
	store        *storage.FileStore
	maxDimension int
	encoder      png.Encoder
	logger       zerolog.Logger
}

func NewService(composer Composer, store *storage.FileStore, maxDimension int, logger zerolog.Logger) *Service {
	return &Service{
		composer:     composer,
		store:        store,
		maxDimension: maxDimension,
		encoder:      png.Encoder{CompressionLevel: png.BestCompression},
		logger:       logger,
	}
}

// Render validates req, composes it and stores the PNG under a new id.
func (s *Service) Render(ctx context.Context, req jsoncfg.RenderRequest) (*Output, error) {
	req.Normalize()
	if err := req.Validate(s.maxDimension); err != nil {
		return nil, err
	}
	zones, err := jsoncfg.DecodeZones(req.Zones)
	if err != nil {
		return nil, err
	}
	res, err := s.composer.Compose(ctx, zones, req.CanvasWidth, req.CanvasHeight)
	if err != nil {
		return nil, err
	}

	var buf bytes.Buffer
	if err := s.encoder.Encode(&buf, res.Canvas); err != nil {
		return nil, fmt.Errorf("%w: encode png: %w", domain.ErrRender, err)
	}
	id := uuid.Must(uuid.NewV7()).String()
	key, err := s.store.Write(ctx, keyPrefix+id+".png", buf.Bytes())
	if err != nil {
		return nil, fmt.Errorf("%w: store: %w", domain.ErrRender, err)
	}

	out := &Output{
		ID:         id,
		Width:      req.CanvasWidth,
		Height:     req.CanvasHeight,
		StorageKey: key,
		SizeBytes:  buf.Len(),
		Skipped:    make([]SkippedZone, 0, len(res.Skipped)),
	}
	for _, z := range res.Skipped {
		out.Skipped = append(out.Skipped, SkippedZone{Index: z.Index, Order: z.Order, Type: string(z.Type), Error: z.Err.Error()})
	}
	s.logger.Info().
		Str("render_id", id).
		Int("zones", len(zones)).
		Int("skipped", len(out.Skipped)).
		Int("bytes", out.SizeBytes).
		Msg("render: stored")
	return out, nil
}

// Open returns the PNG bytes of a stored render.
func (s *Service) Open(ctx context.Context, id string) ([]byte, error) {
	id = strings.TrimSpace(id)
	if !ValidID(id) {
		return nil, fmt.Errorf("%w: invalid render id", domain.ErrValidation)
	}
	return s.store.Read(ctx, keyPrefix+id+".png")
}

// Archive bundles the listed renders into a zip. Every id must exist.
func (s *Service) Archive(ctx context.Context, ids []string) ([]byte, error) {
	if len(ids) == 0 {
		return nil, fmt.Errorf("%w: ids are required", domain.ErrValidation)
	}
	entries := make([]archive.Entry, 0, len(ids))
	for _, id := range ids {
		data, err := s.Open(ctx, id)
		if err != nil {
			return nil, err
		}
		entries = append(entries, archive.Entry{Filename: strings.TrimSpace(id) + ".png", Data: data})
	}
	return archive.Bundle(entries)
}

// ValidID reports whether id has the shape of a render id.
func ValidID(id string) bool {
	return renderIDPattern.MatchString(id)
}
