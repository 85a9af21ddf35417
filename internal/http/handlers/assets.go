package handlers

import (
	"errors"
	"io"
	"net/http"
	"strconv"

	"studio/internal/storage"
)

const uploadField = "file"

// UploadAsset ingests one multipart image under the "file" field. An
// optional "id" field pins the asset id.
func (a *App) UploadAsset(w http.ResponseWriter, r *http.Request) {
	limit := a.MaxUploadBytes
	if limit <= 0 {
		limit = storage.DefaultMaxUploadBytes
	}
	r.Body = http.MaxBytesReader(w, r.Body, limit+1<<20)
	if err := r.ParseMultipartForm(limit); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			a.error(w, http.StatusRequestEntityTooLarge, "too_large", "upload too large")
			return
		}
		a.error(w, http.StatusBadRequest, "bad_request", "multipart form required")
		return
	}
	file, header, err := r.FormFile(uploadField)
	if err != nil {
		a.error(w, http.StatusBadRequest, "bad_request", "file field required")
		return
	}
	defer file.Close()
	data, err := io.ReadAll(io.LimitReader(file, limit+1))
	if err != nil {
		a.error(w, http.StatusBadRequest, "bad_request", "failed to read upload")
		return
	}
	if int64(len(data)) > limit {
		a.error(w, http.StatusRequestEntityTooLarge, "too_large", "upload too large")
		return
	}

	asset, err := a.Ingestor.Ingest(r.Context(), storage.Upload{
		ID:       r.FormValue("id"),
		Filename: header.Filename,
		MimeType: header.Header.Get("Content-Type"),
		Data:     data,
	})
	if err != nil {
		a.fail(w, r, err)
		return
	}
	a.json(w, http.StatusCreated, asset)
}

func (a *App) ListAssets(w http.ResponseWriter, r *http.Request) {
	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))
	if limit <= 0 || limit > 100 {
		limit = 20
	}
	offset, _ := strconv.Atoi(r.URL.Query().Get("offset"))
	if offset < 0 {
		offset = 0
	}
	items, err := a.Assets.List(r.Context(), limit, offset)
	if err != nil {
		a.fail(w, r, err)
		return
	}
	a.json(w, http.StatusOK, map[string]any{"items": items, "limit": limit, "offset": offset})
}
