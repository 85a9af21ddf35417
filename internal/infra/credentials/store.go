// Package credentials keeps third-party API keys in the integration_tokens
// table so operators can rotate them without redeploying.
package credentials

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
	"time"

	"studio/internal/infra"
	"studio/internal/sqlinline"
)

const (
	// ProviderVision is the integration token row holding the Gemini key used
	// for style analysis.
	ProviderVision = "gemini-vision"
)

type Store struct {
	sql infra.SQLExecutor
	now func() time.Time
}

func NewStore(sql infra.SQLExecutor) *Store {
	return &Store{sql: sql, now: time.Now}
}

// VisionAPIKey returns the stored vision key, or "" when none is stored.
// An empty key is the normal "vision unavailable" configuration.
func (s *Store) VisionAPIKey(ctx context.Context) (string, error) {
	return s.Token(ctx, ProviderVision)
}

func (s *Store) Token(ctx context.Context, provider string) (string, error) {
	row := s.sql.QueryRow(ctx, sqlinline.QSelectIntegrationToken, provider)
	var token string
	if err := row.Scan(&token); err != nil {
		if infra.IsNoRows(err) {
			return "", nil
		}
		return "", err
	}
	return strings.TrimSpace(token), nil
}

func (s *Store) SetVisionAPIKey(ctx context.Context, key, model string) error {
	key = strings.TrimSpace(key)
	if key == "" {
		return errors.New("vision api key is required")
	}
	props := map[string]any{"rotated_at": s.now().UTC().Format(time.RFC3339)}
	if model = strings.TrimSpace(model); model != "" {
		props["model"] = model
	}
	return s.upsert(ctx, ProviderVision, key, props)
}

// ClearVisionAPIKey removes the stored key, switching analysis back to the
// unavailable state.
func (s *Store) ClearVisionAPIKey(ctx context.Context) error {
	_, err := s.sql.Exec(ctx, sqlinline.QDeleteIntegrationToken, ProviderVision)
	return err
}

func (s *Store) upsert(ctx context.Context, provider, token string, props map[string]any) error {
	payload := props
	if payload == nil {
		payload = map[string]any{}
	}
	raw, err := json.Marshal(payload)
	if err != nil {
		return err
	}
	_, err = s.sql.Exec(ctx, sqlinline.QUpsertIntegrationToken, provider, token, raw)
	return err
}
