package handlers

import (
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/arconis2020/smb-to-kodi/models"
	"github.com/arconis2020/smb-to-kodi/tree"
)

// TreeHandler serves the nested folder view-model for movie and music
// libraries and the play actions on their items.
type TreeHandler struct {
	db *gorm.DB
}

// NewTreeHandler creates a new tree handler.
func NewTreeHandler(db *gorm.DB) *TreeHandler {
	return &TreeHandler{db: db}
}

func treePath(shortname string) string {
	return fmt.Sprintf("/api/libraries/%s/tree", shortname)
}

// treeItems loads a library's items as builder input. Movies carry their
// last-watched timestamp; songs have no watched marker.
func treeItems(db *gorm.DB, lib *models.Library) ([]tree.Item, error) {
	switch lib.ContentType {
	case models.ContentMovies:
		var movies []models.Movie
		if err := db.Where("library_path = ?", lib.Path).Order("smb_path").Find(&movies).Error; err != nil {
			return nil, err
		}
		items := make([]tree.Item, 0, len(movies))
		for _, m := range movies {
			items = append(items, tree.Item{Path: m.SMBPath, Watched: m.LastWatched})
		}
		return items, nil
	case models.ContentMusic:
		var songs []models.Song
		if err := db.Where("library_path = ?", lib.Path).Order("smb_path").Find(&songs).Error; err != nil {
			return nil, err
		}
		items := make([]tree.Item, 0, len(songs))
		for _, s := range songs {
			items = append(items, tree.Item{Path: s.SMBPath})
		}
		return items, nil
	default:
		return nil, fmt.Errorf("library %s is a series library and has no folder tree", lib.Shortname)
	}
}

// Tree returns the buttons/divs/paras collections for one library.
func (h *TreeHandler) Tree(c *gin.Context) {
	lib, ok := libraryByShortname(c, h.db, c.Param("shortname"))
	if !ok {
		return
	}

	items, err := treeItems(h.db, lib)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	root, err := lib.SMBRoot()
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{
			"error":   "failed to resolve library root",
			"details": err.Error(),
		})
		return
	}

	c.JSON(http.StatusOK, tree.Build(root, items))
}

// PlayMovie sends a movie to the player and stamps its last-watched time
// once the player confirms playback.
func (h *TreeHandler) PlayMovie(c *gin.Context) {
	shortname := c.Param("shortname")

	var req playRequest
	if err := c.ShouldBind(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error":   "smb_path is required",
			"details": err.Error(),
		})
		return
	}

	k, ok := playerClient(h.db)
	if !ok {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "no player configured"})
		return
	}

	k.AddAndPlay(req.SMBPath)
	if k.ConfirmSuccessfulPlay(req.SMBPath) {
		now := time.Now()
		h.db.Model(&models.Movie{}).Where("smb_path = ?", req.SMBPath).Update("last_watched", &now)
	}

	c.Redirect(http.StatusSeeOther, treePath(shortname))
}

// PlaySong sends a song to the player. Songs carry no watched marker.
func (h *TreeHandler) PlaySong(c *gin.Context) {
	shortname := c.Param("shortname")

	var req playRequest
	if err := c.ShouldBind(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error":   "smb_path is required",
			"details": err.Error(),
		})
		return
	}

	k, ok := playerClient(h.db)
	if !ok {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "no player configured"})
		return
	}

	k.AddAndPlay(req.SMBPath)
	c.Redirect(http.StatusSeeOther, treePath(shortname))
}
