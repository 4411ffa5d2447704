package handlers

import (
	"log"
	"net/http"

	"github.com/gin-gonic/gin"
	gorillaws "github.com/gorilla/websocket"

	"github.com/arconis2020/smb-to-kodi/services"
	"github.com/arconis2020/smb-to-kodi/types"
	"github.com/arconis2020/smb-to-kodi/websocket"
)

// SyncHandler handles sync-job management and progress WebSockets.
type SyncHandler struct {
	queue services.SyncQueue
	hub   websocket.Hub
}

// NewSyncHandler creates a new sync handler.
func NewSyncHandler(queue services.SyncQueue, hub websocket.Hub) *SyncHandler {
	return &SyncHandler{queue: queue, hub: hub}
}

var upgrader = gorillaws.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		// The service runs on a trusted home network.
		return true
	},
}

// QueueLibrary queues a full-library sync.
func (h *SyncHandler) QueueLibrary(c *gin.Context) {
	shortname := c.Param("shortname")
	if shortname == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "library shortname is required"})
		return
	}

	job := h.queue.AddJob(types.JobTypeLibrary, shortname)
	c.JSON(http.StatusCreated, gin.H{
		"message": "library sync queued successfully",
		"job":     job,
	})
}

// QueueSeries queues a single-series sync.
func (h *SyncHandler) QueueSeries(c *gin.Context) {
	series := c.Param("series")
	if series == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "series name is required"})
		return
	}

	job := h.queue.AddJob(types.JobTypeSeries, series)
	c.JSON(http.StatusCreated, gin.H{
		"message": "series sync queued successfully",
		"job":     job,
	})
}

// GetAllJobs returns every known sync job.
func (h *SyncHandler) GetAllJobs(c *gin.Context) {
	jobs := h.queue.GetAllJobs()
	c.JSON(http.StatusOK, gin.H{
		"jobs":  jobs,
		"total": len(jobs),
	})
}

// GetJob returns one sync job by id.
func (h *SyncHandler) GetJob(c *gin.Context) {
	job, exists := h.queue.GetJob(c.Param("jobId"))
	if !exists {
		c.JSON(http.StatusNotFound, gin.H{"error": "job not found"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"job": job})
}

// CancelJob cancels a queued sync job.
func (h *SyncHandler) CancelJob(c *gin.Context) {
	if !h.queue.CancelJob(c.Param("jobId")) {
		c.JSON(http.StatusBadRequest, gin.H{
			"error": "job cannot be cancelled (not found or already processing)",
		})
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "job cancelled successfully"})
}

// HandleWebSocketConnection streams progress for one sync job.
func (h *SyncHandler) HandleWebSocketConnection(c *gin.Context) {
	jobID := c.Param("jobId")
	if jobID == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "job ID is required"})
		return
	}

	if _, exists := h.queue.GetJob(jobID); !exists {
		c.JSON(http.StatusNotFound, gin.H{"error": "job not found"})
		return
	}

	conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		log.Printf("WebSocket upgrade failed: %v", err)
		return
	}

	websocket.NewClient(h.hub, conn, jobID).Start()
}

// HandleWebSocketAllConnection streams progress for every sync job.
func (h *SyncHandler) HandleWebSocketAllConnection(c *gin.Context) {
	conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		log.Printf("WebSocket upgrade failed: %v", err)
		return
	}

	websocket.NewClient(h.hub, conn, websocket.AllJobs).Start()
}
