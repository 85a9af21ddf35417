package handlers

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"

	"studio/internal/domain"
)

type enqueueJobRequest struct {
	Kind    domain.JobKind  `json:"kind"`
	Payload json.RawMessage `json:"payload"`
}

func (a *App) EnqueueJob(w http.ResponseWriter, r *http.Request) {
	var req enqueueJobRequest
	if !a.decode(w, r, &req) {
		return
	}
	if req.Kind == domain.JobKindProfileAnalyze {
		var p domain.ProfileJobPayload
		if err := json.Unmarshal(req.Payload, &p); err != nil || p.ProfileID == "" {
			a.error(w, http.StatusBadRequest, "bad_request", "payload.profile_id required")
			return
		}
		if _, err := a.Profiles.Get(r.Context(), p.ProfileID); err != nil {
			a.fail(w, r, err)
			return
		}
	}
	job, err := a.Jobs.Enqueue(r.Context(), req.Kind, req.Payload)
	if err != nil {
		a.fail(w, r, err)
		return
	}
	a.json(w, http.StatusAccepted, job)
}

func (a *App) GetJob(w http.ResponseWriter, r *http.Request) {
	job, err := a.Jobs.Get(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		a.fail(w, r, err)
		return
	}
	a.json(w, http.StatusOK, job)
}
