package domain

import "context"

// JobRepository defines persistence for try-on job records.
//
// Implementations must keep state transitions monotonic per
// JobState.CanTransition: a write that would move a job backward (or out of a
// terminal state) returns ErrStateConflict and leaves the row untouched.
type JobRepository interface {
	Create(ctx context.Context, job *Job) error
	GetByID(ctx context.Context, jobID string) (*Job, error)
	MarkSubmitted(ctx context.Context, jobID, remoteJobID string) error
	MarkPolling(ctx context.Context, jobID string) error
	MarkCompleted(ctx context.Context, jobID, resultImageURL, resultAssetKey string) error
	MarkTerminal(ctx context.Context, jobID string, state JobState, errorDetail string) error
}
