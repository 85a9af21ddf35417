package handlers

import (
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"

	"studio/internal/domain"
)

type createProfileRequest struct {
	Name           string   `json:"name"`
	SourceAssetIDs []string `json:"source_asset_ids"`
}

func (a *App) CreateProfile(w http.ResponseWriter, r *http.Request) {
	var req createProfileRequest
	if !a.decode(w, r, &req) {
		return
	}
	rec, err := a.Profiles.Create(r.Context(), req.Name, req.SourceAssetIDs)
	if err != nil {
		a.fail(w, r, err)
		return
	}
	a.json(w, http.StatusCreated, rec)
}

func (a *App) ListProfiles(w http.ResponseWriter, r *http.Request) {
	items, err := a.Profiles.List(r.Context())
	if err != nil {
		a.fail(w, r, err)
		return
	}
	if items == nil {
		items = []domain.ProfileRecord{}
	}
	a.json(w, http.StatusOK, map[string]any{"items": items})
}

func (a *App) GetProfile(w http.ResponseWriter, r *http.Request) {
	rec, err := a.Profiles.Get(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		a.fail(w, r, err)
		return
	}
	a.json(w, http.StatusOK, rec)
}

// AnalyzeProfile runs extraction synchronously. When every input fails the
// 422 body still carries the per-image outcomes.
func (a *App) AnalyzeProfile(w http.ResponseWriter, r *http.Request) {
	analysis, err := a.Profiles.Analyze(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		if errors.Is(err, domain.ErrSynthesis) && analysis != nil && analysis.Report != nil {
			a.json(w, http.StatusUnprocessableEntity, map[string]any{
				"error":  map[string]string{"code": "synthesis_failed", "message": err.Error()},
				"images": analysis.Report.Images,
			})
			return
		}
		a.fail(w, r, err)
		return
	}
	a.json(w, http.StatusOK, analysis)
}
