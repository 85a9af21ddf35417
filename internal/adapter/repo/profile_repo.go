package repo

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/google/uuid"

	"studio/internal/domain"
	"studio/internal/infra"
	"studio/internal/sqlinline"
)

// ProfileRepositoryPG implements domain.ProfileRepository.
type ProfileRepositoryPG struct {
	sql infra.SQLExecutor
}

func NewProfileRepository(sql infra.SQLExecutor) *ProfileRepositoryPG {
	return &ProfileRepositoryPG{sql: sql}
}

// Create stores a profile shell that has not been analyzed yet.
func (r *ProfileRepositoryPG) Create(ctx context.Context, name string, sourceAssetIDs []string) (*domain.ProfileRecord, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, fmt.Errorf("%w: name is required", domain.ErrValidation)
	}
	if len(sourceAssetIDs) == 0 {
		return nil, fmt.Errorf("%w: at least one source image is required", domain.ErrValidation)
	}
	ids, err := json.Marshal(sourceAssetIDs)
	if err != nil {
		return nil, err
	}
	return scanProfile(r.sql.QueryRow(ctx, sqlinline.QInsertProfile, name, ids))
}

func (r *ProfileRepositoryPG) Get(ctx context.Context, id string) (*domain.ProfileRecord, error) {
	if _, err := uuid.Parse(id); err != nil {
		return nil, fmt.Errorf("%w: profile %s", domain.ErrNotFound, id)
	}
	rec, err := scanProfile(r.sql.QueryRow(ctx, sqlinline.QSelectProfileByID, id))
	if err != nil {
		if infra.IsNoRows(err) {
			return nil, fmt.Errorf("%w: profile %s", domain.ErrNotFound, id)
		}
		return nil, err
	}
	return rec, nil
}

func (r *ProfileRepositoryPG) List(ctx context.Context) ([]domain.ProfileRecord, error) {
	rows, err := r.sql.Query(ctx, sqlinline.QListProfiles)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := []domain.ProfileRecord{}
	for rows.Next() {
		rec, err := scanProfile(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *rec)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return out, nil
}

// SaveAnalysis replaces the stored profile and bumps its version.
func (r *ProfileRepositoryPG) SaveAnalysis(ctx context.Context, id string, profile domain.StyleProfile) (*domain.ProfileRecord, error) {
	if _, err := uuid.Parse(id); err != nil {
		return nil, fmt.Errorf("%w: profile %s", domain.ErrNotFound, id)
	}
	raw, err := json.Marshal(profile)
	if err != nil {
		return nil, err
	}
	rec, err := scanProfile(r.sql.QueryRow(ctx, sqlinline.QSaveProfileAnalysis, id, raw))
	if err != nil {
		if infra.IsNoRows(err) {
			return nil, fmt.Errorf("%w: profile %s", domain.ErrNotFound, id)
		}
		return nil, err
	}
	return rec, nil
}

func scanProfile(row scanner) (*domain.ProfileRecord, error) {
	var (
		rec     domain.ProfileRecord
		ids     []byte
		profile []byte
	)
	if err := row.Scan(&rec.ID, &rec.Name, &ids, &profile, &rec.Version, &rec.CreatedAt, &rec.UpdatedAt); err != nil {
		return nil, err
	}
	rec.SourceAssetIDs = []string{}
	if len(ids) > 0 {
		if err := json.Unmarshal(ids, &rec.SourceAssetIDs); err != nil {
			return nil, fmt.Errorf("decode source ids: %w", err)
		}
	}
	if len(profile) > 0 {
		var p domain.StyleProfile
		if err := json.Unmarshal(profile, &p); err != nil {
			return nil, fmt.Errorf("decode profile: %w", err)
		}
		rec.Profile = &p
	}
	return &rec, nil
}

var _ domain.ProfileRepository = (*ProfileRepositoryPG)(nil)
