package types

import "time"

// JobType says what a sync job reconciles against disk.
type JobType string

const (
	JobTypeLibrary JobType = "library"
	JobTypeSeries  JobType = "series"
)

// JobStatus represents the current status of a sync job.
type JobStatus string

const (
	JobStatusQueued     JobStatus = "queued"
	JobStatusProcessing JobStatus = "processing"
	JobStatusCompleted  JobStatus = "completed"
	JobStatusFailed     JobStatus = "failed"
	JobStatusCancelled  JobStatus = "cancelled"
)

// SyncJob is one queued disk-to-database reconciliation. Target is a
// library shortname or a series name depending on Type.
type SyncJob struct {
	ID          string     `json:"id"`
	Type        JobType    `json:"type"`
	Status      JobStatus  `json:"status"`
	Target      string     `json:"target"`
	Progress    int        `json:"progress"`
	Total       int        `json:"total"`
	Error       string     `json:"error,omitempty"`
	CreatedAt   time.Time  `json:"createdAt"`
	StartedAt   *time.Time `json:"startedAt,omitempty"`
	CompletedAt *time.Time `json:"completedAt,omitempty"`
}
