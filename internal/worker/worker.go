// Package worker drives queued try-on jobs through the remote synthesis
// service until they reach a terminal state.
package worker

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"tryon/internal/domain"
	"tryon/internal/infra"
	"tryon/internal/providers/tryon"
	"tryon/internal/queue"
	"tryon/internal/storage"
)

// RemoteClient is the slice of the try-on API client the worker needs.
type RemoteClient interface {
	Submit(ctx context.Context, personImage, garmentImage []byte) (string, error)
	FetchStatus(ctx context.Context, remoteJobID string) (*tryon.StatusResult, error)
	FetchAsset(ctx context.Context, assetURL string) ([]byte, error)
}

// AssetStore reads prepared inputs and persists result images.
type AssetStore interface {
	Read(ctx context.Context, key string) ([]byte, error)
	Write(ctx context.Context, key string, data []byte) (string, error)
}

// Options configures a worker pool.
type Options struct {
	Repo   domain.JobRepository
	Queue  queue.Queue
	Client RemoteClient
	Store  AssetStore
	Logger infra.Logger

	// PollInterval and PollMaxAttempts bound the remote polling phase; their
	// product is the maximum lifetime of a single job.
	PollInterval    time.Duration
	PollMaxAttempts int

	// ClaimInterval is the idle sleep between empty claim attempts.
	ClaimInterval time.Duration

	// Lease is how long a claim stays exclusive before the queue may
	// redeliver it to another worker.
	Lease time.Duration

	Workers int
}

// Pool runs a fixed number of competing consumers against the work queue.
// Each claimed job is driven by exactly one goroutine, so one job's polling
// never delays another's.
type Pool struct {
	repo   domain.JobRepository
	queue  queue.Queue
	client RemoteClient
	store  AssetStore
	logger infra.Logger

	pollInterval    time.Duration
	pollMaxAttempts int
	claimInterval   time.Duration
	lease           time.Duration
	workers         int
}

// New validates options and constructs a Pool.
func New(opts Options) (*Pool, error) {
	if opts.Repo == nil || opts.Queue == nil || opts.Client == nil || opts.Store == nil {
		return nil, errors.New("worker: repo, queue, client and store are required")
	}
	if opts.PollInterval <= 0 {
		opts.PollInterval = 2 * time.Second
	}
	if opts.PollMaxAttempts <= 0 {
		opts.PollMaxAttempts = 60
	}
	if opts.ClaimInterval <= 0 {
		opts.ClaimInterval = 2 * time.Second
	}
	if opts.Lease <= 0 {
		opts.Lease = opts.PollInterval*time.Duration(opts.PollMaxAttempts) + time.Minute
	}
	if opts.Workers <= 0 {
		opts.Workers = 1
	}
	return &Pool{
		repo:            opts.Repo,
		queue:           opts.Queue,
		client:          opts.Client,
		store:           opts.Store,
		logger:          opts.Logger,
		pollInterval:    opts.PollInterval,
		pollMaxAttempts: opts.PollMaxAttempts,
		claimInterval:   opts.ClaimInterval,
		lease:           opts.Lease,
		workers:         opts.Workers,
	}, nil
}

// Run blocks until ctx is cancelled, then waits for in-flight jobs to unwind.
func (p *Pool) Run(ctx context.Context) error {
	p.logger.Info().Int("workers", p.workers).Msg("worker: started")
	var wg sync.WaitGroup
	for i := 0; i < p.workers; i++ {
		wg.Add(1)
		go func(id int) {
			defer wg.Done()
			p.consume(ctx, id)
		}(i)
	}
	wg.Wait()
	p.logger.Info().Msg("worker: stopped")
	return ctx.Err()
}

func (p *Pool) consume(ctx context.Context, workerID int) {
	for {
		select {
		case <-ctx.Done():
			return
		default:
		}

		d, err := p.queue.Claim(ctx, p.lease)
		if err != nil {
			if !errors.Is(err, queue.ErrEmpty) && ctx.Err() == nil {
				p.logger.Error().Err(err).Int("worker", workerID).Msg("worker: claim failed")
			}
			if !sleepCtx(ctx, p.claimInterval) {
				return
			}
			continue
		}

		jobsClaimedTotal.Inc()
		jobsInProgress.Inc()
		err = p.process(ctx, d)
		jobsInProgress.Dec()
		if err != nil {
			// The delivery stays unacked; the lease lapses and the job is
			// redelivered. Idempotent resume makes that safe.
			p.logger.Warn().Err(err).Str("job_id", d.JobID).Int("attempt", d.Attempt).
				Msg("worker: job left for redelivery")
		}
	}
}

// process drives one delivery from its current persisted state to a terminal
// state and acks it. Every return path either acks after persisting or leaves
// the delivery redeliverable.
func (p *Pool) process(ctx context.Context, d *queue.Delivery) error {
	job, err := p.repo.GetByID(ctx, d.JobID)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			// Row vanished under us; nothing to drive, drop the delivery.
			return p.queue.Ack(ctx, d)
		}
		return fmt.Errorf("load job: %w", err)
	}

	if job.State.Terminal() {
		// Redelivery of an already finished job: acknowledge and move on.
		return p.queue.Ack(ctx, d)
	}

	remoteJobID := job.RemoteJobID
	if remoteJobID == "" {
		remoteJobID, err = p.submit(ctx, d, job)
		if err != nil {
			return err
		}
		if remoteJobID == "" {
			// Submission was rejected and recorded as terminal error.
			return nil
		}
	} else {
		p.logger.Info().Str("job_id", job.ID).Str("remote_job_id", remoteJobID).
			Msg("worker: resuming polling for redelivered job")
	}

	return p.poll(ctx, d, job.ID, remoteJobID)
}

// submit issues the remote submission for a job still in state queued.
// It returns "" with a nil error when the job was finalized as a terminal
// error (rejected submission or unreadable inputs).
func (p *Pool) submit(ctx context.Context, d *queue.Delivery, job *domain.Job) (string, error) {
	person, err := p.store.Read(ctx, job.PersonImageKey)
	if err != nil {
		return "", p.finishError(ctx, d, job.ID, fmt.Sprintf("read person image: %v", err))
	}
	garment, err := p.store.Read(ctx, job.GarmentImageKey)
	if err != nil {
		return "", p.finishError(ctx, d, job.ID, fmt.Sprintf("read garment image: %v", err))
	}

	remoteJobID, err := p.client.Submit(ctx, person, garment)
	if err != nil {
		if ctx.Err() != nil {
			return "", ctx.Err()
		}
		detail := err.Error()
		var rejected *tryon.RemoteRejectedError
		if errors.As(err, &rejected) {
			detail = fmt.Sprintf("remote rejected submission (status %d): %s", rejected.StatusCode, rejected.Body)
		}
		p.logger.Error().Err(err).Str("job_id", job.ID).Msg("worker: submit failed")
		return "", p.finishError(ctx, d, job.ID, detail)
	}

	if err := p.repo.MarkSubmitted(ctx, job.ID, remoteJobID); err != nil {
		if errors.Is(err, domain.ErrStateConflict) {
			// A concurrent redelivery got there first; keep driving with the
			// id we hold, the guarded SQL kept the record consistent.
			p.logger.Warn().Str("job_id", job.ID).Msg("worker: submitted transition raced")
		} else {
			return "", fmt.Errorf("mark submitted: %w", err)
		}
	}
	p.logger.Info().Str("job_id", job.ID).Str("remote_job_id", remoteJobID).Msg("worker: job submitted")
	return remoteJobID, nil
}

// poll probes the remote service up to the attempt budget, with a fixed delay
// before each probe. Transport errors on individual probes are absorbed.
func (p *Pool) poll(ctx context.Context, d *queue.Delivery, jobID, remoteJobID string) error {
	markedPolling := false
	for attempt := 1; attempt <= p.pollMaxAttempts; attempt++ {
		if !sleepCtx(ctx, p.pollInterval) {
			return ctx.Err()
		}

		pollAttemptsTotal.Inc()
		status, err := p.client.FetchStatus(ctx, remoteJobID)
		if err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			// A single unreachable probe is a hiccup, not an outcome.
			p.logger.Warn().Err(err).Str("job_id", jobID).Int("poll_attempt", attempt).
				Msg("worker: status probe failed")
			continue
		}

		if !markedPolling {
			if err := p.repo.MarkPolling(ctx, jobID); err != nil && !errors.Is(err, domain.ErrStateConflict) {
				return fmt.Errorf("mark polling: %w", err)
			}
			markedPolling = true
		}

		switch status.State {
		case tryon.RemoteStateCompleted:
			return p.complete(ctx, d, jobID, status)
		case tryon.RemoteStateFailed:
			jobsFailedTotal.Inc()
			return p.finish(ctx, d, func() error {
				return p.repo.MarkTerminal(ctx, jobID, domain.JobStateFailed, status.Raw)
			})
		default:
			// Still pending; next attempt.
		}
	}

	p.logger.Warn().Str("job_id", jobID).Int("attempts", p.pollMaxAttempts).
		Msg("worker: poll budget exhausted")
	jobsTimedOutTotal.Inc()
	return p.finish(ctx, d, func() error {
		detail := fmt.Sprintf("no terminal remote status after %d attempts", p.pollMaxAttempts)
		return p.repo.MarkTerminal(ctx, jobID, domain.JobStateTimeout, detail)
	})
}

// complete downloads the result asset, persists it under the job's result key
// and records the completed state.
func (p *Pool) complete(ctx context.Context, d *queue.Delivery, jobID string, status *tryon.StatusResult) error {
	if status.ImageURL == "" {
		jobsErroredTotal.Inc()
		return p.finish(ctx, d, func() error {
			return p.repo.MarkTerminal(ctx, jobID, domain.JobStateError,
				"remote reported completed without an image url: "+status.Raw)
		})
	}

	data, err := p.client.FetchAsset(ctx, status.ImageURL)
	if err != nil {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		jobsErroredTotal.Inc()
		return p.finish(ctx, d, func() error {
			return p.repo.MarkTerminal(ctx, jobID, domain.JobStateError, err.Error())
		})
	}

	key, err := p.store.Write(ctx, storage.ResultKey(jobID), data)
	if err != nil {
		// Local storage hiccup: keep the delivery so it is retried, the
		// remote job is done and resuming will just re-fetch the asset.
		return fmt.Errorf("persist result asset: %w", err)
	}

	jobsCompletedTotal.Inc()
	p.logger.Info().Str("job_id", jobID).Str("result_key", key).Msg("worker: job completed")
	return p.finish(ctx, d, func() error {
		return p.repo.MarkCompleted(ctx, jobID, status.ImageURL, key)
	})
}

// finishError records a terminal error state and acks the delivery. Used on
// the submit path, where failures are final rather than retried.
func (p *Pool) finishError(ctx context.Context, d *queue.Delivery, jobID, detail string) error {
	jobsErroredTotal.Inc()
	return p.finish(ctx, d, func() error {
		return p.repo.MarkTerminal(ctx, jobID, domain.JobStateError, detail)
	})
}

// finish persists a terminal outcome and acknowledges the delivery, in that
// order. A persist failure leaves the delivery unacked for redelivery; a
// state conflict means another worker already recorded an outcome, so the
// delivery is acked regardless.
func (p *Pool) finish(ctx context.Context, d *queue.Delivery, persist func() error) error {
	if err := persist(); err != nil && !errors.Is(err, domain.ErrStateConflict) {
		return err
	}
	return p.queue.Ack(ctx, d)
}

// sleepCtx waits for dur and reports false when ctx was cancelled first.
func sleepCtx(ctx context.Context, dur time.Duration) bool {
	timer := time.NewTimer(dur)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return false
	case <-timer.C:
		return true
	}
}
