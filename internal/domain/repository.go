package domain

import "context"

// AssetResolver turns an asset id into readable image bytes.
type AssetResolver interface {
	Open(ctx context.Context, id string) ([]byte, error)
}

// AssetRegistry maps asset ids to a single storage location.
type AssetRegistry interface {
	AssetResolver
	Register(ctx context.Context, asset Asset) error
	Resolve(ctx context.Context, id string) (Asset, error)
}

// ProfileRepository persists style profiles.
type ProfileRepository interface {
	Create(ctx context.Context, name string, sourceAssetIDs []string) (*ProfileRecord, error)
	Get(ctx context.Context, id string) (*ProfileRecord, error)
	List(ctx context.Context) ([]ProfileRecord, error)
	SaveAnalysis(ctx context.Context, id string, profile StyleProfile) (*ProfileRecord, error)
}

// JobRepository defines persistence for queued jobs.
type JobRepository interface {
	Enqueue(ctx context.Context, kind JobKind, payload []byte) (*Job, error)
	Get(ctx context.Context, id string) (*Job, error)
	Claim(ctx context.Context) (*Job, error)
	Complete(ctx context.Context, id string, result []byte) error
	Fail(ctx context.Context, id string, message string) error
}
