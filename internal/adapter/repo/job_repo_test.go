package repo

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"tryon/internal/domain"
	"tryon/internal/sqlinline"
)

type queryCall struct {
	query string
	args  []any
}

// stubExecutor replays scripted row scanners in call order and records every
// query it sees.
type stubExecutor struct {
	rows  []func(dest ...any) error
	calls []queryCall
}

func (s *stubExecutor) Exec(ctx context.Context, query string, args ...any) (pgconn.CommandTag, error) {
	s.calls = append(s.calls, queryCall{query: query, args: args})
	return pgconn.CommandTag{}, nil
}

func (s *stubExecutor) QueryRow(ctx context.Context, query string, args ...any) pgx.Row {
	s.calls = append(s.calls, queryCall{query: query, args: args})
	if len(s.rows) == 0 {
		return stubRow{scan: func(...any) error { return pgx.ErrNoRows }}
	}
	next := s.rows[0]
	s.rows = s.rows[1:]
	return stubRow{scan: next}
}

func (s *stubExecutor) Query(ctx context.Context, query string, args ...any) (pgx.Rows, error) {
	return nil, errors.New("not implemented")
}

type stubRow struct {
	scan func(dest ...any) error
}

func (r stubRow) Scan(dest ...any) error { return r.scan(dest...) }

func noRows(...any) error { return pgx.ErrNoRows }

func returnID(id string) func(dest ...any) error {
	return func(dest ...any) error {
		*(dest[0].(*string)) = id
		return nil
	}
}

func returnJob(job domain.Job) func(dest ...any) error {
	return func(dest ...any) error {
		*(dest[0].(*string)) = job.ID
		*(dest[1].(*domain.JobState)) = job.State
		*(dest[2].(*string)) = job.PersonImageKey
		*(dest[3].(*string)) = job.GarmentImageKey
		*(dest[4].(*string)) = job.RemoteJobID
		*(dest[5].(*string)) = job.ResultImageURL
		*(dest[6].(*string)) = job.ResultAssetKey
		*(dest[7].(*string)) = job.ErrorDetail
		*(dest[8].(*int)) = job.DeliveryCount
		*(dest[9].(*time.Time)) = job.CreatedAt
		*(dest[10].(*time.Time)) = job.UpdatedAt
		return nil
	}
}

func TestCreateDefaultsStateAndScansTimestamps(t *testing.T) {
	now := time.Now()
	exec := &stubExecutor{rows: []func(dest ...any) error{
		func(dest ...any) error {
			*(dest[0].(*time.Time)) = now
			*(dest[1].(*time.Time)) = now
			return nil
		},
	}}
	r := NewJobRepository(exec)

	job := &domain.Job{ID: "11111111-1111-1111-1111-111111111111", PersonImageKey: "p", GarmentImageKey: "g"}
	if err := r.Create(context.Background(), job); err != nil {
		t.Fatalf("create: %v", err)
	}
	if job.State != domain.JobStateQueued {
		t.Fatalf("state = %q, want queued default", job.State)
	}
	if !job.CreatedAt.Equal(now) || !job.UpdatedAt.Equal(now) {
		t.Fatalf("timestamps not scanned: %v %v", job.CreatedAt, job.UpdatedAt)
	}
	if exec.calls[0].query != sqlinline.QInsertJob {
		t.Fatalf("unexpected query used for insert")
	}
	if exec.calls[0].args[0] != job.ID {
		t.Fatalf("insert arg[0] = %v, want job id", exec.calls[0].args[0])
	}
}

func TestGetByIDNotFound(t *testing.T) {
	r := NewJobRepository(&stubExecutor{rows: []func(dest ...any) error{noRows}})
	if _, err := r.GetByID(context.Background(), "missing"); !errors.Is(err, domain.ErrNotFound) {
		t.Fatalf("err = %v, want domain.ErrNotFound", err)
	}
}

func TestGetByIDScansAllColumns(t *testing.T) {
	want := domain.Job{
		ID:              "abc",
		State:           domain.JobStatePolling,
		PersonImageKey:  "uploads/p.jpg",
		GarmentImageKey: "uploads/g.jpg",
		RemoteJobID:     "remote-1",
		DeliveryCount:   2,
		CreatedAt:       time.Now().Add(-time.Minute),
		UpdatedAt:       time.Now(),
	}
	r := NewJobRepository(&stubExecutor{rows: []func(dest ...any) error{returnJob(want)}})

	got, err := r.GetByID(context.Background(), "abc")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if got.State != want.State || got.RemoteJobID != want.RemoteJobID || got.DeliveryCount != want.DeliveryCount {
		t.Fatalf("got %+v, want %+v", got, want)
	}
}

func TestMarkSubmittedHappyPath(t *testing.T) {
	exec := &stubExecutor{rows: []func(dest ...any) error{returnID("abc")}}
	r := NewJobRepository(exec)
	if err := r.MarkSubmitted(context.Background(), "abc", "remote-1"); err != nil {
		t.Fatalf("mark submitted: %v", err)
	}
	if exec.calls[0].query != sqlinline.QMarkJobSubmitted {
		t.Fatalf("unexpected query used for submitted transition")
	}
}

func TestMarkSubmittedStateConflict(t *testing.T) {
	// The guarded update matches no row, the follow-up select finds the job in
	// a later state: the transition is illegal, not missing.
	exec := &stubExecutor{rows: []func(dest ...any) error{
		noRows,
		returnJob(domain.Job{ID: "abc", State: domain.JobStatePolling}),
	}}
	r := NewJobRepository(exec)
	if err := r.MarkSubmitted(context.Background(), "abc", "remote-1"); !errors.Is(err, domain.ErrStateConflict) {
		t.Fatalf("err = %v, want domain.ErrStateConflict", err)
	}
}

func TestMarkSubmittedMissingJob(t *testing.T) {
	exec := &stubExecutor{rows: []func(dest ...any) error{noRows, noRows}}
	r := NewJobRepository(exec)
	if err := r.MarkSubmitted(context.Background(), "abc", "remote-1"); !errors.Is(err, domain.ErrNotFound) {
		t.Fatalf("err = %v, want domain.ErrNotFound", err)
	}
}

func TestMarkTerminalRejectsNonTerminalStates(t *testing.T) {
	r := NewJobRepository(&stubExecutor{})
	if err := r.MarkTerminal(context.Background(), "abc", domain.JobStatePolling, "x"); err == nil {
		t.Fatalf("expected error for non-terminal target state")
	}
	if err := r.MarkTerminal(context.Background(), "abc", domain.JobStateCompleted, "x"); err == nil {
		t.Fatalf("completed must go through MarkCompleted, not MarkTerminal")
	}
}

func TestMarkCompletedGuardedTransition(t *testing.T) {
	exec := &stubExecutor{rows: []func(dest ...any) error{returnID("abc")}}
	r := NewJobRepository(exec)
	if err := r.MarkCompleted(context.Background(), "abc", "http://x/img.jpg", "results/abc.jpg"); err != nil {
		t.Fatalf("mark completed: %v", err)
	}
	args := exec.calls[0].args
	if args[1] != "http://x/img.jpg" || args[2] != "results/abc.jpg" {
		t.Fatalf("completed args = %v", args)
	}
}
