package handlers

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"

	"studio/internal/domain/jsoncfg"
)

func (a *App) CreateRender(w http.ResponseWriter, r *http.Request) {
	var req jsoncfg.RenderRequest
	if !a.decode(w, r, &req) {
		return
	}
	out, err := a.Renders.Render(r.Context(), req)
	if err != nil {
		a.fail(w, r, err)
		return
	}
	a.json(w, http.StatusCreated, out)
}

func (a *App) GetRender(w http.ResponseWriter, r *http.Request) {
	data, err := a.Renders.Open(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		a.fail(w, r, err)
		return
	}
	w.Header().Set("Content-Type", "image/png")
	w.Header().Set("Content-Length", strconv.Itoa(len(data)))
	w.Header().Set("Cache-Control", "public, max-age=31536000, immutable")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(data)
}

// ArchiveRenders bundles ?ids=a,b into one zip download.
func (a *App) ArchiveRenders(w http.ResponseWriter, r *http.Request) {
	var ids []string
	for _, raw := range r.URL.Query()["ids"] {
		for _, id := range strings.Split(raw, ",") {
			if id = strings.TrimSpace(id); id != "" {
				ids = append(ids, id)
			}
		}
	}
	data, err := a.Renders.Archive(r.Context(), ids)
	if err != nil {
		a.fail(w, r, err)
		return
	}
	w.Header().Set("Content-Type", "application/zip")
	w.Header().Set("Content-Disposition", `attachment; filename="renders.zip"`)
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(data)
}
