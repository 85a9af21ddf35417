// Package jobs claims queued studio jobs and runs them.
package jobs

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"studio/internal/domain"
	"studio/internal/domain/jsoncfg"
	"studio/internal/profiles"
	"studio/internal/render"
)

// DefaultPollInterval is how long the runner sleeps on an empty queue.
const DefaultPollInterval = 2 * time.Second

type ProfileAnalyzer interface {
	Analyze(ctx context.Context, id string) (*profiles.Analysis, error)
}

type Renderer interface {
	Render(ctx context.Context, req jsoncfg.RenderRequest) (*render.Output, error)
}

// ProfileJobResult is stored on a finished PROFILE_ANALYZE job.
type ProfileJobResult struct {
	ProfileID    string `json:"profile_id"`
	Version      int    `json:"version"`
	ColourOnly   bool   `json:"colour_only"`
	ColourInputs int    `json:"colour_inputs"`
	VisionInputs int    `json:"vision_inputs"`
}

type Runner struct {
	jobs     domain.JobRepository
	profiles ProfileAnalyzer
	renderer Renderer
	poll     time.Duration
	logger   zerolog.Logger
}

func NewRunner(jobs domain.JobRepository, profiles ProfileAnalyzer, renderer Renderer, poll time.Duration, logger zerolog.Logger) *Runner {
	if poll <= 0 {
		poll = DefaultPollInterval
	}
	return &Runner{jobs: jobs, profiles: profiles, renderer: renderer, poll: poll, logger: logger}
}

// Run processes jobs until ctx ends.
func (r *Runner) Run(ctx context.Context) error {
	r.logger.Info().Msg("worker: started")
	for {
		if err := ctx.Err(); err != nil {
			return err
		}
		worked, err := r.RunOnce(ctx)
		if err != nil {
			r.logger.Error().Err(err).Msg("worker: failed to claim job")
		}
		if worked && err == nil {
			continue
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(r.poll):
		}
	}
}

// RunOnce claims and handles at most one job. It reports false when the
// queue was empty.
func (r *Runner) RunOnce(ctx context.Context) (bool, error) {
	job, err := r.jobs.Claim(ctx)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return false, nil
		}
		return false, err
	}
	r.handle(ctx, job)
	return true, nil
}

func (r *Runner) handle(ctx context.Context, job *domain.Job) {
	log := r.logger.With().Str("job_id", job.ID).Str("kind", string(job.Kind)).Logger()
	log.Info().Msg("worker: picked job")

	result, err := r.dispatch(ctx, job)
	if err != nil {
		log.Error().Err(err).Msg("worker: job failed")
		if ferr := r.jobs.Fail(ctx, job.ID, err.Error()); ferr != nil {
			log.Error().Err(ferr).Msg("worker: update status failed")
		}
		return
	}
	if cerr := r.jobs.Complete(ctx, job.ID, result); cerr != nil {
		log.Error().Err(cerr).Msg("worker: update status failed")
		return
	}
	log.Info().Msg("worker: job succeeded")
}

func (r *Runner) dispatch(ctx context.Context, job *domain.Job) ([]byte, error) {
	switch job.Kind {
	case domain.JobKindProfileAnalyze:
		return r.analyzeProfile(ctx, job.Payload)
	case domain.JobKindRender:
		return r.render(ctx, job.Payload)
	default:
		return nil, fmt.Errorf("unsupported job kind %q", job.Kind)
	}
}

func (r *Runner) analyzeProfile(ctx context.Context, payload json.RawMessage) ([]byte, error) {
	var p domain.ProfileJobPayload
	if err := json.Unmarshal(payload, &p); err != nil {
		return nil, fmt.Errorf("decode profile job: %w", err)
	}
	if p.ProfileID == "" {
		return nil, fmt.Errorf("%w: profile_id is required", domain.ErrValidation)
	}
	res, err := r.profiles.Analyze(ctx, p.ProfileID)
	if err != nil {
		return nil, err
	}
	return json.Marshal(ProfileJobResult{
		ProfileID:    res.Record.ID,
		Version:      res.Record.Version,
		ColourOnly:   res.Report.ColourOnly,
		ColourInputs: res.Report.ColourInputs,
		VisionInputs: res.Report.VisionInputs,
	})
}

func (r *Runner) render(ctx context.Context, payload json.RawMessage) ([]byte, error) {
	var req jsoncfg.RenderRequest
	if err := json.Unmarshal(payload, &req); err != nil {
		return nil, fmt.Errorf("decode render job: %w", err)
	}
	out, err := r.renderer.Render(ctx, req)
	if err != nil {
		return nil, err
	}
	return json.Marshal(out)
}
