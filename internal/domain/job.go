package domain

import "time"

// JobState enumerates the lifecycle states of a try-on job.
type JobState string

const (
	JobStateQueued    JobState = "queued"
	JobStateSubmitted JobState = "submitted"
	JobStatePolling   JobState = "polling"
	JobStateCompleted JobState = "completed"
	JobStateFailed    JobState = "failed"
	JobStateTimeout   JobState = "timeout"
	JobStateError     JobState = "error"
)

// stateRank orders states along the forward-only lifecycle. Terminal states
// share the highest rank so one terminal state can never replace another.
var stateRank = map[JobState]int{
	JobStateQueued:    0,
	JobStateSubmitted: 1,
	JobStatePolling:   2,
	JobStateCompleted: 3,
	JobStateFailed:    3,
	JobStateTimeout:   3,
	JobStateError:     3,
}

// Valid reports whether s is a known job state.
func (s JobState) Valid() bool {
	_, ok := stateRank[s]
	return ok
}

// Terminal reports whether no further transition can occur from s.
func (s JobState) Terminal() bool {
	switch s {
	case JobStateCompleted, JobStateFailed, JobStateTimeout, JobStateError:
		return true
	default:
		return false
	}
}

// CanTransition reports whether moving from s to next keeps the lifecycle
// monotonic: never backward and never out of a terminal state.
func (s JobState) CanTransition(next JobState) bool {
	if !s.Valid() || !next.Valid() {
		return false
	}
	if s.Terminal() {
		return false
	}
	return stateRank[next] > stateRank[s]
}

// Job is the durable record of one try-on request. The API handler creates it
// at enqueue time; only the worker mutates it afterwards.
type Job struct {
	ID              string
	State           JobState
	PersonImageKey  string
	GarmentImageKey string
	RemoteJobID     string
	ResultImageURL  string
	ResultAssetKey  string
	ErrorDetail     string
	DeliveryCount   int
	CreatedAt       time.Time
	UpdatedAt       time.Time
}
