// Package status projects persisted job records into client-facing views.
// It only ever reads stored state; it never talks to the remote service.
package status

import (
	"context"
	"fmt"
	"time"

	"tryon/internal/domain"
)

// View is the client-facing status payload for one job.
type View struct {
	ID          string          `json:"id"`
	State       domain.JobState `json:"state"`
	ResultURL   string          `json:"result_url,omitempty"`
	ErrorDetail string          `json:"error_detail,omitempty"`
	CreatedAt   time.Time       `json:"created_at"`
	UpdatedAt   time.Time       `json:"updated_at"`
}

type Service struct {
	repo domain.JobRepository
}

func NewService(repo domain.JobRepository) *Service {
	return &Service{repo: repo}
}

// GetStatus returns the view for jobID, or domain.ErrNotFound when no record
// exists.
func (s *Service) GetStatus(ctx context.Context, jobID string) (*View, error) {
	job, err := s.repo.GetByID(ctx, jobID)
	if err != nil {
		return nil, err
	}
	view := &View{
		ID:        job.ID,
		State:     job.State,
		CreatedAt: job.CreatedAt,
		UpdatedAt: job.UpdatedAt,
	}
	switch job.State {
	case domain.JobStateCompleted:
		view.ResultURL = ResultLocator(job.ID)
	case domain.JobStateFailed, domain.JobStateError:
		view.ErrorDetail = job.ErrorDetail
	case domain.JobStateTimeout:
		view.ErrorDetail = "job timed out"
		if job.ErrorDetail != "" {
			view.ErrorDetail = job.ErrorDetail
		}
	}
	return view, nil
}

// ResultAssetKey returns the storage key of the composited image for jobID.
// It returns domain.ErrResultNotReady while the job has not completed.
func (s *Service) ResultAssetKey(ctx context.Context, jobID string) (string, error) {
	job, err := s.repo.GetByID(ctx, jobID)
	if err != nil {
		return "", err
	}
	if job.State != domain.JobStateCompleted || job.ResultAssetKey == "" {
		return "", domain.ErrResultNotReady
	}
	return job.ResultAssetKey, nil
}

// ResultLocator is the path a client dereferences to download the composited
// image for a completed job.
func ResultLocator(jobID string) string {
	return fmt.Sprintf("/v1/tryon/%s/result", jobID)
}
