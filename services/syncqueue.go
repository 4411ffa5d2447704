package services

import (
	"fmt"
	"log"
	"sync"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/arconis2020/smb-to-kodi/models"
	"github.com/arconis2020/smb-to-kodi/types"
	"github.com/arconis2020/smb-to-kodi/websocket"
)

// SyncQueue interface defines the methods for managing disk-sync jobs.
// Jobs are handed out as copies snapshotted under the lock; the workers keep
// mutating the originals, so callers must never see a live pointer.
type SyncQueue interface {
	Start()
	AddJob(jobType types.JobType, target string) types.SyncJob
	GetJob(id string) (types.SyncJob, bool)
	GetAllJobs() []types.SyncJob
	CancelJob(id string) bool
	UpdateJobProgress(id string, progress, total int, current string)
	SetJobStatus(id string, status types.JobStatus, errorMsg string)
}

// syncQueue runs disk-to-database reconciliation jobs on a small worker
// pool and reports progress over the WebSocket hub.
type syncQueue struct {
	jobs       map[string]*types.SyncJob
	queue      chan *types.SyncJob
	activeJobs map[string]*types.SyncJob
	mu         sync.RWMutex
	maxWorkers int
	db         *gorm.DB
	scanner    Scanner
	hub        websocket.Hub
}

// NewSyncQueue creates a new sync queue.
func NewSyncQueue(maxWorkers int, db *gorm.DB, scanner Scanner, hub websocket.Hub) SyncQueue {
	return &syncQueue{
		jobs:       make(map[string]*types.SyncJob),
		queue:      make(chan *types.SyncJob, 100),
		activeJobs: make(map[string]*types.SyncJob),
		maxWorkers: maxWorkers,
		db:         db,
		scanner:    scanner,
		hub:        hub,
	}
}

// AddJob queues a new sync job for a library shortname or series name.
func (sq *syncQueue) AddJob(jobType types.JobType, target string) types.SyncJob {
	sq.mu.Lock()
	defer sq.mu.Unlock()

	job := &types.SyncJob{
		ID:        uuid.New().String(),
		Type:      jobType,
		Status:    types.JobStatusQueued,
		Target:    target,
		Progress:  0,
		Total:     1,
		CreatedAt: time.Now(),
	}

	sq.jobs[job.ID] = job
	sq.queue <- job

	return *job
}

// GetJob retrieves a snapshot of a job by ID.
func (sq *syncQueue) GetJob(id string) (types.SyncJob, bool) {
	sq.mu.RLock()
	defer sq.mu.RUnlock()
	job, exists := sq.jobs[id]
	if !exists {
		return types.SyncJob{}, false
	}
	return *job, true
}

// GetAllJobs returns a snapshot of all jobs.
func (sq *syncQueue) GetAllJobs() []types.SyncJob {
	sq.mu.RLock()
	defer sq.mu.RUnlock()

	jobs := make([]types.SyncJob, 0, len(sq.jobs))
	for _, job := range sq.jobs {
		jobs = append(jobs, *job)
	}
	return jobs
}

// CancelJob cancels a job that is still queued.
func (sq *syncQueue) CancelJob(id string) bool {
	sq.mu.Lock()
	defer sq.mu.Unlock()

	job, exists := sq.jobs[id]
	if !exists {
		return false
	}

	if job.Status == types.JobStatusQueued {
		job.Status = types.JobStatusCancelled
		now := time.Now()
		job.CompletedAt = &now
		return true
	}

	return false
}

// UpdateJobProgress updates job progress and broadcasts it.
func (sq *syncQueue) UpdateJobProgress(id string, progress, total int, current string) {
	sq.mu.Lock()
	defer sq.mu.Unlock()

	job, exists := sq.jobs[id]
	if !exists {
		return
	}
	job.Progress = progress
	job.Total = total

	if sq.hub != nil && total > 0 {
		percent := float64(progress) / float64(total) * 100
		sq.hub.BroadcastProgress(id, "progress", string(job.Status), current,
			fmt.Sprintf("Scanned %d of %d", progress, total), percent)
	}
}

// SetJobStatus updates job status and broadcasts the transition.
func (sq *syncQueue) SetJobStatus(id string, status types.JobStatus, errorMsg string) {
	sq.mu.Lock()
	defer sq.mu.Unlock()

	job, exists := sq.jobs[id]
	if !exists {
		return
	}
	job.Status = status
	if errorMsg != "" {
		job.Error = errorMsg
	}

	now := time.Now()
	if status == types.JobStatusProcessing && job.StartedAt == nil {
		job.StartedAt = &now
		sq.activeJobs[id] = job
	} else if status == types.JobStatusCompleted || status == types.JobStatusFailed || status == types.JobStatusCancelled {
		job.CompletedAt = &now
		delete(sq.activeJobs, id)
	}

	if sq.hub != nil {
		msgType := "status"
		message := string(status)
		progress := float64(job.Progress) / float64(job.Total) * 100

		switch status {
		case types.JobStatusCompleted:
			msgType = "complete"
			progress = 100.0
			message = fmt.Sprintf("%s sync completed", job.Target)
		case types.JobStatusFailed:
			msgType = "error"
			message = errorMsg
		case types.JobStatusProcessing:
			message = fmt.Sprintf("Started syncing %s", job.Target)
		}

		sq.hub.BroadcastProgress(id, msgType, string(status), "", message, progress)
	}
}

// Start launches the worker pool.
func (sq *syncQueue) Start() {
	for i := 0; i < sq.maxWorkers; i++ {
		go sq.worker()
	}
}

// worker processes jobs from the queue.
func (sq *syncQueue) worker() {
	for job := range sq.queue {
		// CancelJob may have flipped the status while the job sat in the
		// channel; the check has to happen under the lock.
		sq.mu.RLock()
		cancelled := job.Status == types.JobStatusCancelled
		sq.mu.RUnlock()
		if cancelled {
			continue
		}

		sq.SetJobStatus(job.ID, types.JobStatusProcessing, "")

		var err error
		switch job.Type {
		case types.JobTypeLibrary:
			err = sq.processLibraryJob(job)
		case types.JobTypeSeries:
			err = sq.processSeriesJob(job)
		}

		if err != nil {
			sq.SetJobStatus(job.ID, types.JobStatusFailed, err.Error())
			log.Printf("Sync job %s failed: %v", job.ID, err)
		} else {
			sq.SetJobStatus(job.ID, types.JobStatusCompleted, "")
			log.Printf("Sync job %s completed successfully", job.ID)
		}
	}
}

// processLibraryJob reconciles one whole library, identified by shortname.
func (sq *syncQueue) processLibraryJob(job *types.SyncJob) error {
	var lib models.Library
	if err := sq.db.Where("shortname = ?", job.Target).First(&lib).Error; err != nil {
		return fmt.Errorf("failed to load library %s: %w", job.Target, err)
	}

	return sq.scanner.ScanLibrary(&lib, func(done, total int, current string) {
		sq.UpdateJobProgress(job.ID, done, total, current)
	})
}

// processSeriesJob reconciles the episodes of one series.
func (sq *syncQueue) processSeriesJob(job *types.SyncJob) error {
	var series models.Series
	if err := sq.db.Where("name = ?", job.Target).First(&series).Error; err != nil {
		return fmt.Errorf("failed to load series %s: %w", job.Target, err)
	}
	var lib models.Library
	if err := sq.db.Where("path = ?", series.LibraryPath).First(&lib).Error; err != nil {
		return fmt.Errorf("failed to load library for series %s: %w", job.Target, err)
	}

	sq.UpdateJobProgress(job.ID, 0, 1, series.Name)
	if err := sq.scanner.ScanSeries(&lib, series.Name); err != nil {
		return err
	}
	sq.UpdateJobProgress(job.ID, 1, 1, series.Name)
	return nil
}
