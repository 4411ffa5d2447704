package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/arconis2020/smb-to-kodi/config"
	"github.com/arconis2020/smb-to-kodi/kodi"
	"github.com/arconis2020/smb-to-kodi/models"
)

// LibraryHandler handles library CRUD and player configuration.
type LibraryHandler struct {
	db *gorm.DB
}

// NewLibraryHandler creates a new library handler.
func NewLibraryHandler(db *gorm.DB) *LibraryHandler {
	return &LibraryHandler{db: db}
}

// currentPlayerAddress returns the configured player address, or "" when no
// player (or more than one) is configured.
func currentPlayerAddress(db *gorm.DB) string {
	var count int64
	db.Model(&models.Player{}).Count(&count)
	if count != 1 {
		return ""
	}
	var player models.Player
	if err := db.First(&player, 1).Error; err != nil {
		return ""
	}
	return player.Address
}

// playerClient builds a Kodi client for the configured player.
func playerClient(db *gorm.DB) (*kodi.Client, bool) {
	address := currentPlayerAddress(db)
	if address == "" {
		return nil, false
	}
	return kodi.New(address, config.GetPlayerTimeout()), true
}

// List returns all libraries sorted by path, plus the current player.
func (h *LibraryHandler) List(c *gin.Context) {
	var libraries []models.Library
	if err := h.db.Order("path").Find(&libraries).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{
			"error":   "failed to list libraries",
			"details": err.Error(),
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"libraries":     libraries,
		"currentPlayer": currentPlayerAddress(h.db),
	})
}

// addLibraryRequest carries the form fields for creating a library.
type addLibraryRequest struct {
	Path        string `form:"path" json:"path" binding:"required"`
	Prefix      string `form:"prefix" json:"prefix" binding:"required"`
	Servername  string `form:"servername" json:"servername" binding:"required"`
	Shortname   string `form:"shortname" json:"shortname" binding:"required"`
	ContentType int    `form:"content_type" json:"contentType"`
}

// Add creates a library.
func (h *LibraryHandler) Add(c *gin.Context) {
	var req addLibraryRequest
	if err := c.ShouldBind(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error":   "invalid library",
			"details": err.Error(),
		})
		return
	}

	lib := models.Library{
		Path:        req.Path,
		Prefix:      req.Prefix,
		Servername:  req.Servername,
		Shortname:   req.Shortname,
		ContentType: req.ContentType,
	}
	if err := h.db.Save(&lib).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{
			"error":   "failed to save library",
			"details": err.Error(),
		})
		return
	}

	c.Redirect(http.StatusSeeOther, "/api/libraries")
}

// Delete removes a library and everything under it. A missing library is
// not an error; the caller just lands back on the index.
func (h *LibraryHandler) Delete(c *gin.Context) {
	shortname := c.Param("shortname")

	var lib models.Library
	if err := h.db.Where("shortname = ?", shortname).First(&lib).Error; err != nil {
		c.Redirect(http.StatusSeeOther, "/api/libraries")
		return
	}

	h.db.Where("library_path = ?", lib.Path).Delete(&models.Movie{})
	h.db.Where("library_path = ?", lib.Path).Delete(&models.Song{})
	var series []models.Series
	h.db.Where("library_path = ?", lib.Path).Find(&series)
	for _, s := range series {
		h.db.Where("series_name = ?", s.Name).Delete(&models.Episode{})
	}
	h.db.Where("library_path = ?", lib.Path).Delete(&models.Series{})
	h.db.Delete(&lib)

	c.Redirect(http.StatusSeeOther, "/api/libraries")
}

// setPlayerRequest carries the player address form field.
type setPlayerRequest struct {
	Address string `form:"player_address" json:"address" binding:"required"`
}

// SetPlayer stores the Kodi JSON-RPC endpoint address, replacing any
// previous configuration.
func (h *LibraryHandler) SetPlayer(c *gin.Context) {
	var req setPlayerRequest
	if err := c.ShouldBind(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error":   "invalid player address",
			"details": err.Error(),
		})
		return
	}

	player := models.Player{PID: 1, Address: req.Address}
	if err := h.db.Save(&player).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{
			"error":   "failed to save player",
			"details": err.Error(),
		})
		return
	}

	c.Redirect(http.StatusSeeOther, "/api/libraries")
}
