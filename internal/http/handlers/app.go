// Package handlers exposes the studio services over HTTP.
package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"github.com/rs/zerolog"

	"studio/internal/domain"
	"studio/internal/domain/jsoncfg"
	"studio/internal/profiles"
	"studio/internal/render"
	"studio/internal/storage"
)

type AssetIngestor interface {
	Ingest(ctx context.Context, up storage.Upload) (domain.Asset, error)
}

type AssetLister interface {
	List(ctx context.Context, limit, offset int) ([]domain.Asset, error)
}

type ProfileService interface {
	Create(ctx context.Context, name string, assetIDs []string) (*domain.ProfileRecord, error)
	Get(ctx context.Context, id string) (*domain.ProfileRecord, error)
	List(ctx context.Context) ([]domain.ProfileRecord, error)
	Analyze(ctx context.Context, id string) (*profiles.Analysis, error)
}

type RenderService interface {
	Render(ctx context.Context, req jsoncfg.RenderRequest) (*render.Output, error)
	Open(ctx context.Context, id string) ([]byte, error)
	Archive(ctx context.Context, ids []string) ([]byte, error)
}

// VisionStatus reports whether profile analysis can reach a vision backend.
type VisionStatus interface {
	Available() bool
}

type App struct {
	Ingestor AssetIngestor
	Assets   AssetLister
	Profiles ProfileService
	Renders  RenderService
	Jobs     domain.JobRepository
	// Vision and VisionProvider feed the health report. A nil Vision reads
	// as unavailable.
	Vision         VisionStatus
	VisionProvider string

	// MaxUploadBytes bounds a multipart asset upload.
	MaxUploadBytes int64
	Logger         zerolog.Logger
}

func (a *App) json(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(v)
}

func (a *App) error(w http.ResponseWriter, code int, kind, msg string) {
	a.json(w, code, map[string]any{
		"error": map[string]string{"code": kind, "message": msg},
	})
}

// fail maps a service error onto a status code. Unknown errors are logged
// and reported as internal.
func (a *App) fail(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case errors.Is(err, domain.ErrValidation):
		a.error(w, http.StatusBadRequest, "bad_request", err.Error())
	case errors.Is(err, domain.ErrNotFound):
		a.error(w, http.StatusNotFound, "not_found", err.Error())
	case errors.Is(err, domain.ErrDuplicateAsset):
		a.error(w, http.StatusConflict, "duplicate_asset", err.Error())
	case errors.Is(err, domain.ErrSynthesis):
		a.error(w, http.StatusUnprocessableEntity, "synthesis_failed", err.Error())
	case errors.Is(err, context.DeadlineExceeded):
		a.error(w, http.StatusGatewayTimeout, "timeout", "request timed out")
	default:
		a.loggerFor(r).Error().Err(err).Str("path", r.URL.Path).Msg("handler failed")
		a.error(w, http.StatusInternalServerError, "internal", "internal error")
	}
}

func (a *App) loggerFor(r *http.Request) *zerolog.Logger {
	if l := zerolog.Ctx(r.Context()); l.GetLevel() != zerolog.Disabled {
		return l
	}
	return &a.Logger
}

func (a *App) decode(w http.ResponseWriter, r *http.Request, v any) bool {
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxJSONBody))
	if err := dec.Decode(v); err != nil {
		a.error(w, http.StatusBadRequest, "bad_request", "invalid payload")
		return false
	}
	return true
}

const maxJSONBody = 4 << 20
