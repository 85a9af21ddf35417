package profiles

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"studio/internal/domain"
)

// MemoryRepository keeps profiles in process. The CLI uses it when no
// database is configured.
type MemoryRepository struct {
	mu      sync.RWMutex
	records map[string]domain.ProfileRecord
	now     func() time.Time
}

func NewMemoryRepository() *MemoryRepository {
	return &MemoryRepository{records: make(map[string]domain.ProfileRecord), now: time.Now}
}

func (m *MemoryRepository) Create(_ context.Context, name string, sourceAssetIDs []string) (*domain.ProfileRecord, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, fmt.Errorf("%w: name is required", domain.ErrValidation)
	}
	if len(sourceAssetIDs) == 0 {
		return nil, fmt.Errorf("%w: at least one source image is required", domain.ErrValidation)
	}
	now := m.now().UTC()
	rec := domain.ProfileRecord{
		ID:             uuid.NewString(),
		Name:           name,
		SourceAssetIDs: append([]string(nil), sourceAssetIDs...),
		CreatedAt:      now,
		UpdatedAt:      now,
	}
	m.mu.Lock()
	m.records[rec.ID] = rec
	m.mu.Unlock()
	return &rec, nil
}

func (m *MemoryRepository) Get(_ context.Context, id string) (*domain.ProfileRecord, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	rec, ok := m.records[id]
	if !ok {
		return nil, fmt.Errorf("%w: profile %s", domain.ErrNotFound, id)
	}
	return &rec, nil
}

func (m *MemoryRepository) List(_ context.Context) ([]domain.ProfileRecord, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]domain.ProfileRecord, 0, len(m.records))
	for _, rec := range m.records {
		out = append(out, rec)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].ID < out[j].ID
		}
		return out[i].CreatedAt.After(out[j].CreatedAt)
	})
	return out, nil
}

func (m *MemoryRepository) SaveAnalysis(_ context.Context, id string, profile domain.StyleProfile) (*domain.ProfileRecord, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	rec, ok := m.records[id]
	if !ok {
		return nil, fmt.Errorf("%w: profile %s", domain.ErrNotFound, id)
	}
	p := profile
	rec.Profile = &p
	rec.Version++
	rec.UpdatedAt = m.now().UTC()
	m.records[id] = rec
	return &rec, nil
}

var _ domain.ProfileRepository = (*MemoryRepository)(nil)
