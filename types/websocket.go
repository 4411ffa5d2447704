package types

import "time"

// ProgressMessage is one WebSocket update about a sync job.
type ProgressMessage struct {
	JobID       string    `json:"jobId"`
	Type        string    `json:"type"`     // "progress", "status", "complete", "error"
	Progress    float64   `json:"progress"` // 0-100 percentage
	Status      string    `json:"status"`
	CurrentItem string    `json:"currentItem"` // series or folder being scanned
	Message     string    `json:"message,omitempty"`
	Timestamp   time.Time `json:"timestamp"`
}
