package handlers

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/arconis2020/smb-to-kodi/models"
)

// HealthHandler handles health check endpoints.
type HealthHandler struct {
	db *gorm.DB
}

// NewHealthHandler creates a new health handler.
func NewHealthHandler(db *gorm.DB) *HealthHandler {
	return &HealthHandler{db: db}
}

// HealthCheck returns the health status of the service.
func (h *HealthHandler) HealthCheck(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":    "healthy",
		"service":   "smb-to-kodi",
		"version":   "1.0.0",
		"timestamp": time.Now().Unix(),
	})
}

// APIStatus returns the status of the API.
func (h *HealthHandler) APIStatus(c *gin.Context) {
	var libraries int64
	h.db.Model(&models.Library{}).Count(&libraries)

	c.JSON(http.StatusOK, gin.H{
		"message":   "smb-to-kodi API is running",
		"libraries": libraries,
	})
}
