package repo

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/jackc/pgx/v5/pgconn"

	"studio/internal/domain"
	"studio/internal/sqlinline"
	"studio/internal/storage"
)

const assetID = "0190c0de-0000-7000-8000-000000000001"

var uploadedAt = time.Date(2026, 5, 4, 10, 0, 0, 0, time.UTC)

func assetRow(key string) []any {
	return []any{assetID, "image", key, "poster.png", "image/png", int64(42), 12, 8, []byte(`{"dominant_colour":"#C81E1E"}`), uploadedAt}
}

func TestAssetRegister(t *testing.T) {
	exec := &stubExecutor{tag: pgconn.NewCommandTag("INSERT 0 1")}
	r := NewAssetRepository(exec, nil)
	err := r.Register(context.Background(), domain.Asset{ID: assetID, StorageKey: "images/a.png", MimeType: "image/png"})
	if err != nil {
		t.Fatalf("Register error: %v", err)
	}
	c := exec.calls[0]
	if c.query != sqlinline.QInsertAsset || c.args[0] != assetID || c.args[1] != "image" {
		t.Fatalf("unexpected call %q %v", c.query, c.args)
	}
	if _, ok := c.args[9].(time.Time); !ok {
		t.Fatalf("uploaded_at arg = %T, want time.Time", c.args[9])
	}
}

func TestAssetRegisterDuplicates(t *testing.T) {
	cases := []struct {
		name string
		exec *stubExecutor
	}{
		{"conflict ignored", &stubExecutor{tag: pgconn.NewCommandTag("INSERT 0 0")}},
		{"unique violation", &stubExecutor{err: &pgconn.PgError{Code: "23505"}}},
	}
	for _, tc := range cases {
		err := NewAssetRepository(tc.exec, nil).Register(context.Background(), domain.Asset{ID: assetID, StorageKey: "images/a.png"})
		if !errors.Is(err, domain.ErrDuplicateAsset) {
			t.Fatalf("%s: error = %v, want ErrDuplicateAsset", tc.name, err)
		}
	}
}

func TestAssetRegisterValidates(t *testing.T) {
	exec := &stubExecutor{}
	r := NewAssetRepository(exec, nil)
	if err := r.Register(context.Background(), domain.Asset{ID: "not-a-uuid", StorageKey: "k"}); !errors.Is(err, domain.ErrValidation) {
		t.Fatalf("error = %v, want ErrValidation", err)
	}
	if err := r.Register(context.Background(), domain.Asset{ID: assetID}); !errors.Is(err, domain.ErrValidation) {
		t.Fatalf("error = %v, want ErrValidation", err)
	}
	if len(exec.calls) != 0 {
		t.Fatalf("executor called %d times, want 0", len(exec.calls))
	}
}

func TestAssetResolveAndOpen(t *testing.T) {
	store, err := storage.NewFileStore(t.TempDir())
	if err != nil {
		t.Fatalf("NewFileStore: %v", err)
	}
	ctx := context.Background()
	if _, err := store.Write(ctx, "images/a.png", []byte("png")); err != nil {
		t.Fatalf("Write: %v", err)
	}
	r := NewAssetRepository(&stubExecutor{row: stubRow{values: assetRow("images/a.png")}}, store)

	asset, err := r.Resolve(ctx, assetID)
	if err != nil {
		t.Fatalf("Resolve error: %v", err)
	}
	if asset.Kind != domain.AssetKindImage || asset.Width != 12 || asset.Metadata["dominant_colour"] != "#C81E1E" {
		t.Fatalf("asset = %+v", asset)
	}
	data, err := r.Open(ctx, assetID)
	if err != nil || string(data) != "png" {
		t.Fatalf("Open = %q, %v", data, err)
	}
}

func TestAssetResolveNotFound(t *testing.T) {
	exec := &stubExecutor{}
	r := NewAssetRepository(exec, nil)
	if _, err := r.Resolve(context.Background(), assetID); !errors.Is(err, domain.ErrNotFound) {
		t.Fatalf("Resolve error = %v, want ErrNotFound", err)
	}
	if _, err := r.Resolve(context.Background(), "logo"); !errors.Is(err, domain.ErrNotFound) {
		t.Fatalf("Resolve non-uuid error = %v, want ErrNotFound", err)
	}
	if len(exec.calls) != 1 {
		t.Fatalf("executor called %d times, want 1", len(exec.calls))
	}
}

func TestAssetList(t *testing.T) {
	exec := &stubExecutor{rows: [][]any{assetRow("images/a.png"), assetRow("images/b.png")}}
	assets, err := NewAssetRepository(exec, nil).List(context.Background(), 0, -1)
	if err != nil {
		t.Fatalf("List error: %v", err)
	}
	if len(assets) != 2 || assets[1].StorageKey != "images/b.png" {
		t.Fatalf("assets = %+v", assets)
	}
	if exec.calls[0].args[0] != 50 || exec.calls[0].args[1] != 0 {
		t.Fatalf("paging args = %v, want [50 0]", exec.calls[0].args)
	}
}

func profileRow(profile []byte, version int) []any {
	return []any{assetID, "Summer", []byte(`["a","b"]`), profile, version, uploadedAt, uploadedAt}
}

func TestProfileCreate(t *testing.T) {
	exec := &stubExecutor{row: stubRow{values: profileRow(nil, 0)}}
	r := NewProfileRepository(exec)
	rec, err := r.Create(context.Background(), " Summer ", []string{"a", "b"})
	if err != nil {
		t.Fatalf("Create error: %v", err)
	}
	if rec.Profile != nil || len(rec.SourceAssetIDs) != 2 || rec.Version != 0 {
		t.Fatalf("record = %+v", rec)
	}
	if exec.calls[0].args[0] != "Summer" || string(exec.calls[0].args[1].([]byte)) != `["a","b"]` {
		t.Fatalf("args = %v", exec.calls[0].args)
	}
	if _, err := r.Create(context.Background(), "", []string{"a"}); !errors.Is(err, domain.ErrValidation) {
		t.Fatalf("Create without name error = %v, want ErrValidation", err)
	}
	if _, err := r.Create(context.Background(), "x", nil); !errors.Is(err, domain.ErrValidation) {
		t.Fatalf("Create without sources error = %v, want ErrValidation", err)
	}
}

func TestProfileSaveAnalysis(t *testing.T) {
	profile := domain.StyleProfile{Mood: domain.Mood{Warmth: 0.5}}
	raw, _ := json.Marshal(profile)
	exec := &stubExecutor{row: stubRow{values: profileRow(raw, 3)}}
	rec, err := NewProfileRepository(exec).SaveAnalysis(context.Background(), assetID, profile)
	if err != nil {
		t.Fatalf("SaveAnalysis error: %v", err)
	}
	if rec.Profile == nil || rec.Profile.Mood.Warmth != 0.5 || rec.Version != 3 {
		t.Fatalf("record = %+v", rec)
	}
	if exec.calls[0].query != sqlinline.QSaveProfileAnalysis {
		t.Fatalf("query = %q", exec.calls[0].query)
	}
}

func TestProfileGetNotFound(t *testing.T) {
	r := NewProfileRepository(&stubExecutor{})
	if _, err := r.Get(context.Background(), assetID); !errors.Is(err, domain.ErrNotFound) {
		t.Fatalf("Get error = %v, want ErrNotFound", err)
	}
	if _, err := r.SaveAnalysis(context.Background(), "nope", domain.StyleProfile{}); !errors.Is(err, domain.ErrNotFound) {
		t.Fatalf("SaveAnalysis error = %v, want ErrNotFound", err)
	}
}

func TestProfileList(t *testing.T) {
	exec := &stubExecutor{rows: [][]any{profileRow(nil, 0)}}
	recs, err := NewProfileRepository(exec).List(context.Background())
	if err != nil || len(recs) != 1 || recs[0].Name != "Summer" {
		t.Fatalf("List = %+v, %v", recs, err)
	}
}

func jobRow(status string, result []byte) []any {
	return []any{assetID, "RENDER", status, []byte(`{"canvas_width":10}`), result, "", uploadedAt, uploadedAt}
}

func TestJobEnqueue(t *testing.T) {
	exec := &stubExecutor{row: stubRow{values: jobRow("QUEUED", nil)}}
	r := NewJobRepository(exec)
	job, err := r.Enqueue(context.Background(), domain.JobKindRender, []byte(`{"canvas_width":10}`))
	if err != nil {
		t.Fatalf("Enqueue error: %v", err)
	}
	if job.Kind != domain.JobKindRender || job.Status != domain.JobStatusQueued || job.Result != nil {
		t.Fatalf("job = %+v", job)
	}
	if _, err := r.Enqueue(context.Background(), "VIDEO", nil); !errors.Is(err, domain.ErrValidation) {
		t.Fatalf("unknown kind error = %v, want ErrValidation", err)
	}
	if _, err := r.Enqueue(context.Background(), domain.JobKindRender, []byte("{")); !errors.Is(err, domain.ErrValidation) {
		t.Fatalf("bad payload error = %v, want ErrValidation", err)
	}
}

func TestJobClaim(t *testing.T) {
	job, err := NewJobRepository(&stubExecutor{row: stubRow{values: jobRow("RUNNING", nil)}}).Claim(context.Background())
	if err != nil || job.Status != domain.JobStatusRunning {
		t.Fatalf("Claim = %+v, %v", job, err)
	}
	if _, err := NewJobRepository(&stubExecutor{}).Claim(context.Background()); !errors.Is(err, domain.ErrNotFound) {
		t.Fatalf("empty queue error = %v, want ErrNotFound", err)
	}
}

func TestJobCompleteAndFail(t *testing.T) {
	exec := &stubExecutor{}
	r := NewJobRepository(exec)
	if err := r.Complete(context.Background(), assetID, []byte(`{"ok":true}`)); err != nil {
		t.Fatalf("Complete error: %v", err)
	}
	if err := r.Fail(context.Background(), assetID, "boom"); err != nil {
		t.Fatalf("Fail error: %v", err)
	}
	if exec.calls[0].query != sqlinline.QCompleteJob || exec.calls[1].query != sqlinline.QFailJob || exec.calls[1].args[1] != "boom" {
		t.Fatalf("calls = %+v", exec.calls)
	}
}
