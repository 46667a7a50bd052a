package repo

import (
	"context"
	"fmt"

	"tryon/internal/domain"
	"tryon/internal/infra"
	"tryon/internal/sqlinline"
)

// JobRepositoryPG implements domain.JobRepository on PostgreSQL.
//
// State transitions are guarded inside the SQL itself: each mark query only
// matches rows still in a legal predecessor state, so a stale worker can never
// move a job backward or overwrite a terminal outcome.
type JobRepositoryPG struct {
	sql infra.SQLExecutor
}

// NewJobRepository creates a new job repository backed by PostgreSQL.
func NewJobRepository(sql infra.SQLExecutor) *JobRepositoryPG {
	return &JobRepositoryPG{sql: sql}
}

// Create inserts a new job record in state queued.
func (r *JobRepositoryPG) Create(ctx context.Context, job *domain.Job) error {
	if job.State == "" {
		job.State = domain.JobStateQueued
	}
	row := r.sql.QueryRow(ctx, sqlinline.QInsertJob,
		job.ID, job.State, job.PersonImageKey, job.GarmentImageKey)
	if err := row.Scan(&job.CreatedAt, &job.UpdatedAt); err != nil {
		return fmt.Errorf("create job: %w", err)
	}
	return nil
}

// GetByID fetches a job by its identifier.
func (r *JobRepositoryPG) GetByID(ctx context.Context, jobID string) (*domain.Job, error) {
	row := r.sql.QueryRow(ctx, sqlinline.QSelectJob, jobID)
	var job domain.Job
	if err := row.Scan(
		&job.ID,
		&job.State,
		&job.PersonImageKey,
		&job.GarmentImageKey,
		&job.RemoteJobID,
		&job.ResultImageURL,
		&job.ResultAssetKey,
		&job.ErrorDetail,
		&job.DeliveryCount,
		&job.CreatedAt,
		&job.UpdatedAt,
	); err != nil {
		if infra.IsNoRows(err) {
			return nil, domain.ErrNotFound
		}
		return nil, err
	}
	return &job, nil
}

// MarkSubmitted records the remote job id and moves queued -> submitted.
func (r *JobRepositoryPG) MarkSubmitted(ctx context.Context, jobID, remoteJobID string) error {
	return r.transition(ctx, jobID, sqlinline.QMarkJobSubmitted, jobID, remoteJobID)
}

// MarkPolling moves submitted -> polling on the first status probe.
func (r *JobRepositoryPG) MarkPolling(ctx context.Context, jobID string) error {
	return r.transition(ctx, jobID, sqlinline.QMarkJobPolling, jobID)
}

// MarkCompleted records the result locators and moves the job to completed.
func (r *JobRepositoryPG) MarkCompleted(ctx context.Context, jobID, resultImageURL, resultAssetKey string) error {
	return r.transition(ctx, jobID, sqlinline.QMarkJobCompleted, jobID, resultImageURL, resultAssetKey)
}

// MarkTerminal moves the job to the given terminal state with an error detail.
func (r *JobRepositoryPG) MarkTerminal(ctx context.Context, jobID string, state domain.JobState, errorDetail string) error {
	if !state.Terminal() {
		return fmt.Errorf("mark terminal: %q is not a terminal state", state)
	}
	if state == domain.JobStateCompleted {
		return fmt.Errorf("mark terminal: completed requires MarkCompleted")
	}
	return r.transition(ctx, jobID, sqlinline.QMarkJobTerminal, jobID, string(state), errorDetail)
}

// transition runs a guarded update and distinguishes "no such job" from
// "job exists but the transition is illegal".
func (r *JobRepositoryPG) transition(ctx context.Context, jobID, query string, args ...any) error {
	row := r.sql.QueryRow(ctx, query, args...)
	var id string
	if err := row.Scan(&id); err != nil {
		if !infra.IsNoRows(err) {
			return err
		}
		if _, getErr := r.GetByID(ctx, jobID); getErr != nil {
			return getErr
		}
		return domain.ErrStateConflict
	}
	return nil
}

var _ domain.JobRepository = (*JobRepositoryPG)(nil)
