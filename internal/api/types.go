package api

import (
	"time"

	"github.com/deliberate-api/deliberate/internal/deliberation"
	"github.com/deliberate-api/deliberate/internal/job"
)

// DeliberateRequest is the body of POST /v1/deliberate.
// Models, when present, must name exactly three backends.
type DeliberateRequest struct {
	Thesis  string   `json:"thesis" binding:"required"`
	Context string   `json:"context"`
	Models  []string `json:"models" binding:"omitempty,len=3"`
}

// JobCreatedResponse is returned when a job is accepted.
type JobCreatedResponse struct {
	JobID   string     `json:"job_id"`
	Status  job.Status `json:"status"`
	PollURL string     `json:"poll_url"`
}

// JobStatusResponse is returned when polling a job.
type JobStatusResponse struct {
	JobID        string                           `json:"job_id"`
	Status       job.Status                       `json:"status"`
	CurrentRound int                              `json:"current_round,omitempty"`
	Result       *deliberation.DeliberationResult `json:"result,omitempty"`
	Error        string                           `json:"error,omitempty"`
	CreatedAt    time.Time                        `json:"created_at"`
	CompletedAt  *time.Time                       `json:"completed_at,omitempty"`
}

func statusResponse(j *job.Job) JobStatusResponse {
	return JobStatusResponse{
		JobID:        j.ID,
		Status:       j.Status,
		CurrentRound: j.CurrentRound,
		Result:       j.Result,
		Error:        j.Error,
		CreatedAt:    j.CreatedAt,
		CompletedAt:  j.CompletedAt,
	}
}
