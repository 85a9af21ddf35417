package repo

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/google/uuid"

	"studio/internal/domain"
	"studio/internal/infra"
	"studio/internal/sqlinline"
)

// JobRepositoryPG implements domain.JobRepository over studio_jobs.
type JobRepositoryPG struct {
	sql infra.SQLExecutor
}

// NewJobRepository creates a new job repository backed by PostgreSQL.
func NewJobRepository(sql infra.SQLExecutor) *JobRepositoryPG {
	return &JobRepositoryPG{sql: sql}
}

func (r *JobRepositoryPG) Enqueue(ctx context.Context, kind domain.JobKind, payload []byte) (*domain.Job, error) {
	switch kind {
	case domain.JobKindProfileAnalyze, domain.JobKindRender:
	default:
		return nil, fmt.Errorf("%w: unknown job kind %q", domain.ErrValidation, kind)
	}
	if len(payload) > 0 && !json.Valid(payload) {
		return nil, fmt.Errorf("%w: payload must be json", domain.ErrValidation)
	}
	return scanJob(r.sql.QueryRow(ctx, sqlinline.QEnqueueJob, string(kind), nullableBytes(payload)))
}

// Get fetches a job by its identifier.
func (r *JobRepositoryPG) Get(ctx context.Context, id string) (*domain.Job, error) {
	if _, err := uuid.Parse(id); err != nil {
		return nil, fmt.Errorf("%w: job %s", domain.ErrNotFound, id)
	}
	job, err := scanJob(r.sql.QueryRow(ctx, sqlinline.QSelectJobByID, id))
	if err != nil {
		if infra.IsNoRows(err) {
			return nil, fmt.Errorf("%w: job %s", domain.ErrNotFound, id)
		}
		return nil, err
	}
	return job, nil
}

// Claim moves the oldest queued job to RUNNING. It returns domain.ErrNotFound
// when the queue is empty.
func (r *JobRepositoryPG) Claim(ctx context.Context) (*domain.Job, error) {
	job, err := scanJob(r.sql.QueryRow(ctx, sqlinline.QClaimJob))
	if err != nil {
		if infra.IsNoRows(err) {
			return nil, domain.ErrNotFound
		}
		return nil, err
	}
	return job, nil
}

func (r *JobRepositoryPG) Complete(ctx context.Context, id string, result []byte) error {
	_, err := r.sql.Exec(ctx, sqlinline.QCompleteJob, id, nullableBytes(result))
	return err
}

func (r *JobRepositoryPG) Fail(ctx context.Context, id string, message string) error {
	_, err := r.sql.Exec(ctx, sqlinline.QFailJob, id, message)
	return err
}

func scanJob(row scanner) (*domain.Job, error) {
	var (
		job             domain.Job
		kind, status    string
		payload, result []byte
	)
	if err := row.Scan(&job.ID, &kind, &status, &payload, &result, &job.ErrorMessage, &job.CreatedAt, &job.UpdatedAt); err != nil {
		return nil, err
	}
	job.Kind = domain.JobKind(kind)
	job.Status = domain.JobStatus(status)
	if len(payload) > 0 {
		job.Payload = json.RawMessage(payload)
	}
	if len(result) > 0 {
		job.Result = json.RawMessage(result)
	}
	return &job, nil
}

func nullableBytes(b []byte) []byte {
	if len(b) == 0 {
		return nil
	}
	return b
}

var _ domain.JobRepository = (*JobRepositoryPG)(nil)
