// Package job holds the deliberation job entity and its in-memory store.
// Jobs do not survive a process restart; the store exists so the HTTP layer
// can hand out a job ID immediately and let clients poll for the result.
package job

import (
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/deliberate-api/deliberate/internal/deliberation"
)

// Status is the job lifecycle state.
type Status string

const (
	StatusPending   Status = "pending"
	StatusRunning   Status = "running"
	StatusCompleted Status = "completed"
	StatusFailed    Status = "failed"
)

// Job binds a deliberation request to its lifecycle and, on completion,
// its result.
type Job struct {
	ID           string                           `json:"id"`
	Status       Status                           `json:"status"`
	Thesis       string                           `json:"thesis"`
	Context      string                           `json:"context,omitempty"`
	Models       []string                         `json:"models"`
	CurrentRound int                              `json:"current_round,omitempty"`
	Result       *deliberation.DeliberationResult `json:"result,omitempty"`
	Error        string                           `json:"error,omitempty"`
	CreatedAt    time.Time                        `json:"created_at"`
	CompletedAt  *time.Time                       `json:"completed_at,omitempty"`
}

// NewID generates a job identifier.
func NewID() string {
	return fmt.Sprintf("dlb_%s", uuid.NewString())
}
