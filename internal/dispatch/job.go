// Package dispatch is the distributed execution substrate for account
// jobs. Front-ends enqueue named jobs with JSON payloads; worker
// processes poll the shared Redis-backed store and execute them with
// at-least-once semantics. Running handlers can append lines to an
// ordered per-job progress log.
package dispatch

import (
	"time"

	"github.com/bwmarrin/snowflake"
)

// State represents the lifecycle state of a job.
type State string

const (
	// StatePending means the job is waiting to be picked up by a worker.
	StatePending State = "pending"
	// StateRunning means a worker is currently executing the job.
	StateRunning State = "running"
	// StateCompleted means the job finished successfully.
	StateCompleted State = "completed"
	// StateFailed means the job failed and will not be retried.
	StateFailed State = "failed"
	// StateRetrying means the job failed but is scheduled for retry.
	StateRetrying State = "retrying"
)

// Job represents a unit of work to be processed by any available worker.
type Job struct {
	ID          string     `json:"id"`
	Name        string     `json:"name"`
	Queue       string     `json:"queue"`
	Payload     []byte     `json:"payload"`
	State       State      `json:"state"`
	MaxRetries  int        `json:"max_retries"`
	RetryCount  int        `json:"retry_count"`
	LastError   string     `json:"last_error,omitempty"`
	Result      []byte     `json:"result,omitempty"`
	RunAt       time.Time  `json:"run_at"`
	CreatedAt   time.Time  `json:"created_at"`
	UpdatedAt   time.Time  `json:"updated_at"`
	StartedAt   *time.Time `json:"started_at,omitempty"`
	CompletedAt *time.Time `json:"completed_at,omitempty"`
}

var snowflakeNode *snowflake.Node

func init() {
	var err error
	snowflakeNode, err = snowflake.NewNode(1)
	if err != nil {
		panic(err)
	}
}

// NewJobID generates a globally unique, sortable job identifier.
func NewJobID() string {
	return snowflakeNode.Generate().String()
}
