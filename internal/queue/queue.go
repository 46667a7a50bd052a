// Package queue implements the durable work queue between the API process and
// the worker processes. Delivery is at-least-once: a claim takes a time-boxed
// lease, and a crash before Ack simply lets the lease lapse so another worker
// picks the job up again.
package queue

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"tryon/internal/domain"
	"tryon/internal/infra"
	"tryon/internal/sqlinline"
)

// ErrEmpty is returned by Claim when no job is currently claimable.
var ErrEmpty = errors.New("queue: empty")

// Delivery is one handed-out claim on a job. Attempt counts redeliveries.
type Delivery struct {
	JobID   string
	Attempt int
}

// Queue is the contract the API handler and the worker agree on.
type Queue interface {
	Enqueue(ctx context.Context, personImageKey, garmentImageKey string) (*domain.Job, error)
	Claim(ctx context.Context, lease time.Duration) (*Delivery, error)
	Ack(ctx context.Context, d *Delivery) error
}

// PG is the PostgreSQL-backed queue. Claims race through
// `for update skip locked`, so a delivery lands on exactly one worker.
type PG struct {
	sql infra.SQLExecutor
}

func NewPG(sql infra.SQLExecutor) *PG {
	return &PG{sql: sql}
}

// Enqueue durably records a new job in state queued and returns it.
func (q *PG) Enqueue(ctx context.Context, personImageKey, garmentImageKey string) (*domain.Job, error) {
	job := &domain.Job{
		ID:              uuid.NewString(),
		State:           domain.JobStateQueued,
		PersonImageKey:  personImageKey,
		GarmentImageKey: garmentImageKey,
	}
	row := q.sql.QueryRow(ctx, sqlinline.QInsertJob,
		job.ID, job.State, job.PersonImageKey, job.GarmentImageKey)
	if err := row.Scan(&job.CreatedAt, &job.UpdatedAt); err != nil {
		return nil, fmt.Errorf("queue: enqueue: %w", err)
	}
	return job, nil
}

// Claim leases the oldest deliverable job. Jobs already in a terminal state
// are never claimable; jobs with a live lease belong to another worker.
func (q *PG) Claim(ctx context.Context, lease time.Duration) (*Delivery, error) {
	if lease <= 0 {
		return nil, fmt.Errorf("queue: lease must be positive")
	}
	row := q.sql.QueryRow(ctx, sqlinline.QClaimJob, int(lease.Seconds()))
	var d Delivery
	if err := row.Scan(&d.JobID, &d.Attempt); err != nil {
		if infra.IsNoRows(err) {
			return nil, ErrEmpty
		}
		return nil, fmt.Errorf("queue: claim: %w", err)
	}
	return &d, nil
}

// Ack releases the delivery after the job's outcome has been durably
// persisted. Calling Ack before persisting the terminal state would break the
// at-least-once guarantee.
func (q *PG) Ack(ctx context.Context, d *Delivery) error {
	if d == nil || d.JobID == "" {
		return fmt.Errorf("queue: ack requires a delivery")
	}
	if _, err := q.sql.Exec(ctx, sqlinline.QAckJob, d.JobID); err != nil {
		return fmt.Errorf("queue: ack: %w", err)
	}
	return nil
}

var _ Queue = (*PG)(nil)
