package storage

import (
	"bytes"
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"image"
	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"
	"net/http"
	"strings"
	"time"

	"github.com/cenkalti/dominantcolor"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
	_ "golang.org/x/image/webp"

	"studio/internal/domain"
)

// DefaultMaxUploadBytes caps a single ingested image.
const DefaultMaxUploadBytes = 20 << 20

// Upload is one image handed to the Ingestor.
type Upload struct {
	// ID is optional; an empty id gets a fresh time-ordered uuid.
	ID       string
	Filename string
	MimeType string
	Data     []byte
}

// Ingestor stores uploaded images and registers them as assets.
type Ingestor struct {
	store    *FileStore
	registry domain.AssetRegistry
	maxBytes int
	now      func() time.Time
	logger   zerolog.Logger
}

func NewIngestor(store *FileStore, registry domain.AssetRegistry, logger zerolog.Logger) *Ingestor {
	return &Ingestor{
		store:    store,
		registry: registry,
		maxBytes: DefaultMaxUploadBytes,
		now:      time.Now,
		logger:   logger,
	}
}

// Ingest validates the upload, writes it under images/ and registers it.
func (i *Ingestor) Ingest(ctx context.Context, up Upload) (domain.Asset, error) {
	if len(up.Data) == 0 {
		return domain.Asset{}, fmt.Errorf("%w: empty upload", domain.ErrValidation)
	}
	if len(up.Data) > i.maxBytes {
		return domain.Asset{}, fmt.Errorf("%w: upload exceeds %d bytes", domain.ErrValidation, i.maxBytes)
	}
	mime := NormalizeMIME(up.MimeType, up.Data)
	ext := ExtensionForMIME(mime)
	if ext == "" {
		return domain.Asset{}, fmt.Errorf("%w: unsupported image type %q", domain.ErrValidation, mime)
	}
	cfg, _, err := image.DecodeConfig(bytes.NewReader(up.Data))
	if err != nil {
		return domain.Asset{}, fmt.Errorf("%w: unreadable image: %v", domain.ErrValidation, err)
	}

	id := strings.TrimSpace(up.ID)
	if id == "" {
		id = uuid.Must(uuid.NewV7()).String()
	}
	if _, err := i.registry.Resolve(ctx, id); err == nil {
		return domain.Asset{}, fmt.Errorf("%w: %s", domain.ErrDuplicateAsset, id)
	}

	key, err := i.store.Write(ctx, "images/"+id+ext, up.Data)
	if err != nil {
		return domain.Asset{}, err
	}
	sum := sha256.Sum256(up.Data)
	asset := domain.Asset{
		ID:         id,
		Kind:       domain.AssetKindImage,
		StorageKey: key,
		Filename:   strings.TrimSpace(up.Filename),
		MimeType:   mime,
		SizeBytes:  int64(len(up.Data)),
		Width:      cfg.Width,
		Height:     cfg.Height,
		Metadata:   map[string]any{"sha256": hex.EncodeToString(sum[:])},
		UploadedAt: i.now().UTC(),
	}
	if img, _, err := image.Decode(bytes.NewReader(up.Data)); err == nil {
		asset.Metadata["dominant_colour"] = dominantcolor.Hex(dominantcolor.Find(img))
	} else {
		i.logger.Debug().Err(err).Str("asset_id", id).Msg("storage: skip dominant colour")
	}

	if err := i.registry.Register(ctx, asset); err != nil {
		if rmErr := i.store.Remove(key); rmErr != nil {
			i.logger.Warn().Err(rmErr).Str("storage_key", key).Msg("storage: cleanup after failed register")
		}
		return domain.Asset{}, err
	}
	i.logger.Info().Str("asset_id", id).Str("mime", mime).Int("width", cfg.Width).Int("height", cfg.Height).Msg("storage: asset ingested")
	return asset, nil
}

// NormalizeMIME returns the declared image type, sniffing data when the
// declaration is missing or generic.
func NormalizeMIME(declared string, data []byte) string {
	mime := strings.ToLower(strings.TrimSpace(declared))
	if idx := strings.Index(mime, ";"); idx >= 0 {
		mime = strings.TrimSpace(mime[:idx])
	}
	if mime == "" || mime == "application/octet-stream" {
		mime = http.DetectContentType(data)
	}
	if mime == "image/jpg" {
		mime = "image/jpeg"
	}
	return mime
}

// ExtensionForMIME maps accepted image types to file extensions. Unsupported
// types map to "".
func ExtensionForMIME(mime string) string {
	switch strings.ToLower(strings.TrimSpace(mime)) {
	case "image/png":
		return ".png"
	case "image/jpeg", "image/jpg":
		return ".jpg"
	case "image/webp":
		return ".webp"
	case "image/gif":
		return ".gif"
	default:
		return ""
	}
}
