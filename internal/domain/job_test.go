package domain

import "testing"

func TestJobStateTerminal(t *testing.T) {
	terminal := []JobState{JobStateCompleted, JobStateFailed, JobStateTimeout, JobStateError}
	live := []JobState{JobStateQueued, JobStateSubmitted, JobStatePolling}
	for _, s := range terminal {
		if !s.Terminal() {
			t.Errorf("%s.Terminal() = false, want true", s)
		}
	}
	for _, s := range live {
		if s.Terminal() {
			t.Errorf("%s.Terminal() = true, want false", s)
		}
	}
}

func TestCanTransition(t *testing.T) {
	tests := []struct {
		from, to JobState
		want     bool
	}{
		{JobStateQueued, JobStateSubmitted, true},
		{JobStateQueued, JobStateError, true},
		{JobStateSubmitted, JobStatePolling, true},
		{JobStateSubmitted, JobStateCompleted, true},
		{JobStatePolling, JobStateCompleted, true},
		{JobStatePolling, JobStateFailed, true},
		{JobStatePolling, JobStateTimeout, true},

		{JobStateSubmitted, JobStateQueued, false},
		{JobStatePolling, JobStateSubmitted, false},
		{JobStateQueued, JobStateQueued, false},
		{JobStateCompleted, JobStateFailed, false},
		{JobStateFailed, JobStateCompleted, false},
		{JobStateError, JobStatePolling, false},
		{JobStateQueued, JobState("bogus"), false},
		{JobState("bogus"), JobStateQueued, false},
	}
	for _, tc := range tests {
		if got := tc.from.CanTransition(tc.to); got != tc.want {
			t.Errorf("CanTransition(%s -> %s) = %v, want %v", tc.from, tc.to, got, tc.want)
		}
	}
}

func TestValid(t *testing.T) {
	for _, s := range []JobState{JobStateQueued, JobStateSubmitted, JobStatePolling, JobStateCompleted, JobStateFailed, JobStateTimeout, JobStateError} {
		if !s.Valid() {
			t.Errorf("%s.Valid() = false", s)
		}
	}
	if JobState("").Valid() || JobState("pending").Valid() {
		t.Errorf("unknown states must be invalid")
	}
}
