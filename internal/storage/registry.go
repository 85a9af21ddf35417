package storage

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"

	"studio/internal/domain"
)

// BlobReader reads stored bytes by storage key.
type BlobReader interface {
	Read(ctx context.Context, key string) ([]byte, error)
}

// MemoryRegistry is an in-process asset registry backed by a BlobReader. It
// serves the CLI and tests; the API uses the Postgres registry.
type MemoryRegistry struct {
	mu     sync.RWMutex
	assets map[string]domain.Asset
	blobs  BlobReader
}

func NewMemoryRegistry(blobs BlobReader) *MemoryRegistry {
	return &MemoryRegistry{assets: make(map[string]domain.Asset), blobs: blobs}
}

// Register records asset. Each id maps to exactly one storage key, so a
// second registration of the same id fails with domain.ErrDuplicateAsset.
func (r *MemoryRegistry) Register(_ context.Context, asset domain.Asset) error {
	id := strings.TrimSpace(asset.ID)
	if id == "" {
		return fmt.Errorf("%w: asset id is required", domain.ErrValidation)
	}
	if strings.TrimSpace(asset.StorageKey) == "" {
		return fmt.Errorf("%w: storage key is required", domain.ErrValidation)
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, exists := r.assets[id]; exists {
		return fmt.Errorf("%w: %s", domain.ErrDuplicateAsset, id)
	}
	asset.ID = id
	r.assets[id] = asset
	return nil
}

func (r *MemoryRegistry) Resolve(_ context.Context, id string) (domain.Asset, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	asset, ok := r.assets[strings.TrimSpace(id)]
	if !ok {
		return domain.Asset{}, fmt.Errorf("%w: asset %s", domain.ErrNotFound, id)
	}
	return asset, nil
}

// Open resolves id and reads its bytes.
func (r *MemoryRegistry) Open(ctx context.Context, id string) ([]byte, error) {
	asset, err := r.Resolve(ctx, id)
	if err != nil {
		return nil, err
	}
	if r.blobs == nil {
		return nil, fmt.Errorf("%w: no blob store for asset %s", domain.ErrNotFound, id)
	}
	return r.blobs.Read(ctx, asset.StorageKey)
}

// List returns registered assets ordered by id.
func (r *MemoryRegistry) List() []domain.Asset {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]domain.Asset, 0, len(r.assets))
	for _, a := range r.assets {
		out = append(out, a)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

var _ domain.AssetRegistry = (*MemoryRegistry)(nil)
