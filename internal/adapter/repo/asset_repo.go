package repo

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"studio/internal/domain"
	"studio/internal/infra"
	"studio/internal/sqlinline"
	"studio/internal/storage"
)

// AssetRepositoryPG is the Postgres asset registry. Rows map an asset id to
// exactly one storage key; the bytes live in the blob store.
type AssetRepositoryPG struct {
	sql   infra.SQLExecutor
	blobs storage.BlobReader
}

// NewAssetRepository constructs a new asset repository instance.
func NewAssetRepository(sql infra.SQLExecutor, blobs storage.BlobReader) *AssetRepositoryPG {
	return &AssetRepositoryPG{sql: sql, blobs: blobs}
}

// Register inserts asset. Reusing an id or a storage key fails with
// domain.ErrDuplicateAsset.
func (r *AssetRepositoryPG) Register(ctx context.Context, asset domain.Asset) error {
	if _, err := uuid.Parse(asset.ID); err != nil {
		return fmt.Errorf("%w: asset id must be a uuid", domain.ErrValidation)
	}
	if strings.TrimSpace(asset.StorageKey) == "" {
		return fmt.Errorf("%w: storage key is required", domain.ErrValidation)
	}
	kind := asset.Kind
	if kind == "" {
		kind = domain.AssetKindImage
	}
	uploaded := asset.UploadedAt
	if uploaded.IsZero() {
		uploaded = time.Now().UTC()
	}
	meta, err := json.Marshal(asset.Metadata)
	if err != nil {
		return fmt.Errorf("encode asset metadata: %w", err)
	}
	tag, err := r.sql.Exec(ctx, sqlinline.QInsertAsset,
		asset.ID,
		string(kind),
		asset.StorageKey,
		asset.Filename,
		asset.MimeType,
		asset.SizeBytes,
		asset.Width,
		asset.Height,
		meta,
		uploaded,
	)
	if err != nil {
		if infra.IsUniqueViolation(err) {
			return fmt.Errorf("%w: %s", domain.ErrDuplicateAsset, asset.ID)
		}
		return err
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("%w: %s", domain.ErrDuplicateAsset, asset.ID)
	}
	return nil
}

func (r *AssetRepositoryPG) Resolve(ctx context.Context, id string) (domain.Asset, error) {
	if _, err := uuid.Parse(id); err != nil {
		return domain.Asset{}, fmt.Errorf("%w: asset %s", domain.ErrNotFound, id)
	}
	asset, err := scanAsset(r.sql.QueryRow(ctx, sqlinline.QSelectAssetByID, id))
	if err != nil {
		if infra.IsNoRows(err) {
			return domain.Asset{}, fmt.Errorf("%w: asset %s", domain.ErrNotFound, id)
		}
		return domain.Asset{}, err
	}
	return asset, nil
}

// Open resolves id and reads its bytes from the blob store.
func (r *AssetRepositoryPG) Open(ctx context.Context, id string) ([]byte, error) {
	asset, err := r.Resolve(ctx, id)
	if err != nil {
		return nil, err
	}
	return r.blobs.Read(ctx, asset.StorageKey)
}

// List returns assets newest first.
func (r *AssetRepositoryPG) List(ctx context.Context, limit, offset int) ([]domain.Asset, error) {
	if limit <= 0 {
		limit = 50
	}
	if offset < 0 {
		offset = 0
	}
	rows, err := r.sql.Query(ctx, sqlinline.QListAssets, limit, offset)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	assets := []domain.Asset{}
	for rows.Next() {
		asset, err := scanAsset(rows)
		if err != nil {
			return nil, err
		}
		assets = append(assets, asset)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return assets, nil
}

type scanner interface {
	Scan(dest ...any) error
}

func scanAsset(row scanner) (domain.Asset, error) {
	var (
		asset domain.Asset
		kind  string
		meta  []byte
	)
	if err := row.Scan(
		&asset.ID,
		&kind,
		&asset.StorageKey,
		&asset.Filename,
		&asset.MimeType,
		&asset.SizeBytes,
		&asset.Width,
		&asset.Height,
		&meta,
		&asset.UploadedAt,
	); err != nil {
		return domain.Asset{}, err
	}
	asset.Kind = domain.AssetKind(kind)
	if len(meta) > 0 {
		if err := json.Unmarshal(meta, &asset.Metadata); err != nil {
			return domain.Asset{}, fmt.Errorf("decode asset metadata: %w", err)
		}
	}
	return asset, nil
}

var _ domain.AssetRegistry = (*AssetRepositoryPG)(nil)
