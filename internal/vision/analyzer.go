// Package vision wraps an external image-understanding capability and turns
// its free-form reply into a validated domain.VisionAnalysis.
package vision

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"studio/internal/domain"
)

const defaultTimeout = 60 * time.Second

// Request is what the capability receives for one image.
type Request struct {
	Prompt   string
	Image    []byte
	MimeType string
}

// Capability is an external image-understanding backend. Available reports
// whether a credential is configured; DescribeImage returns the raw model text.
type Capability interface {
	Available() bool
	DescribeImage(ctx context.Context, req Request) (string, error)
}

// Status distinguishes a completed analysis from a deliberately skipped one.
type Status string

const (
	StatusAnalyzed    Status = "analyzed"
	StatusUnavailable Status = "unavailable"
)

// Result is the outcome of a successful Analyze call.
type Result struct {
	Status   Status                `json:"status"`
	Analysis domain.VisionAnalysis `json:"analysis"`
	Reason   string                `json:"reason,omitempty"`
}

type Options struct {
	Timeout time.Duration
	Logger  *zerolog.Logger
}

// Analyzer is the VisionStyleAnalyzer.
type Analyzer struct {
	capability Capability
	timeout    time.Duration
	logger     zerolog.Logger
}

// NewAnalyzer builds an analyzer. A nil capability is the same as one
// without a credential: every call reports StatusUnavailable.
func NewAnalyzer(capability Capability, opts Options) *Analyzer {
	a := &Analyzer{
		capability: capability,
		timeout:    opts.Timeout,
		logger:     zerolog.Nop(),
	}
	if a.timeout <= 0 {
		a.timeout = defaultTimeout
	}
	if opts.Logger != nil {
		a.logger = *opts.Logger
	}
	return a
}

// Available reports whether Analyze will reach the capability.
func (a *Analyzer) Available() bool {
	return a.capability != nil && a.capability.Available()
}

// Analyze asks the capability to describe image and validates the reply.
// Transport failures and malformed replies return errors wrapping
// domain.ErrAnalysis. A missing credential is not an error.
func (a *Analyzer) Analyze(ctx context.Context, image []byte, mimeType string) (Result, error) {
	if !a.Available() {
		return unavailable("no vision credential configured"), nil
	}
	if len(image) == 0 {
		return Result{}, fmt.Errorf("%w: empty image", domain.ErrAnalysis)
	}
	mimeType = strings.TrimSpace(mimeType)
	if mimeType == "" {
		mimeType = http.DetectContentType(image)
	}

	ctx, cancel := context.WithTimeout(ctx, a.timeout)
	defer cancel()

	raw, err := a.capability.DescribeImage(ctx, Request{
		Prompt:   analysisPrompt,
		Image:    image,
		MimeType: mimeType,
	})
	if err != nil {
		if errors.Is(err, domain.ErrVisionUnavailable) {
			return unavailable(err.Error()), nil
		}
		a.logger.Warn().Err(err).Str("mime", mimeType).Msg("vision: describe image failed")
		return Result{}, fmt.Errorf("%w: describe image: %w", domain.ErrAnalysis, err)
	}

	analysis, err := ParseAnalysis(raw)
	if err != nil {
		a.logger.Warn().Err(err).Int("reply_bytes", len(raw)).Msg("vision: reply rejected")
		return Result{}, err
	}
	return Result{Status: StatusAnalyzed, Analysis: analysis}, nil
}

func unavailable(reason string) Result {
	return Result{Status: StatusUnavailable, Reason: reason}
}
