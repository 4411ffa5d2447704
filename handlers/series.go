package handlers

import (
	"fmt"
	"math/rand"
	"net/http"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/arconis2020/smb-to-kodi/models"
	"github.com/arconis2020/smb-to-kodi/services"
)

// SeriesHandler handles the series and episode routes.
type SeriesHandler struct {
	db      *gorm.DB
	scanner services.Scanner
}

// NewSeriesHandler creates a new series handler.
func NewSeriesHandler(db *gorm.DB, scanner services.Scanner) *SeriesHandler {
	return &SeriesHandler{db: db, scanner: scanner}
}

func episodesPath(shortname, series string) string {
	return fmt.Sprintf("/api/libraries/%s/series/%s/episodes", shortname, series)
}

func seriesPath(shortname string) string {
	return fmt.Sprintf("/api/libraries/%s/series", shortname)
}

// libraryByShortname loads a library or answers 404.
func libraryByShortname(c *gin.Context, db *gorm.DB, shortname string) (*models.Library, bool) {
	var lib models.Library
	if err := db.Where("shortname = ?", shortname).First(&lib).Error; err != nil {
		c.JSON(http.StatusNotFound, gin.H{
			"error": "no library of that name is loaded in the DB",
		})
		return nil, false
	}
	return &lib, true
}

// List splits a library's series into active (has episodes) and available
// (none yet), both sorted by name.
func (h *SeriesHandler) List(c *gin.Context) {
	lib, ok := libraryByShortname(c, h.db, c.Param("shortname"))
	if !ok {
		return
	}

	var series []models.Series
	if err := h.db.Where("library_path = ?", lib.Path).Order("name").Find(&series).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{
			"error":   "failed to list series",
			"details": err.Error(),
		})
		return
	}

	active := make([]models.Series, 0)
	available := make([]models.Series, 0)
	for _, s := range series {
		var count int64
		h.db.Model(&models.Episode{}).Where("series_name = ?", s.Name).Count(&count)
		if count > 0 {
			active = append(active, s)
		} else {
			available = append(available, s)
		}
	}

	c.JSON(http.StatusOK, gin.H{
		"library":         lib.Shortname,
		"activeSeries":    active,
		"availableSeries": available,
		"currentPlayer":   currentPlayerAddress(h.db),
	})
}

// addSeriesRequest carries the series name form field.
type addSeriesRequest struct {
	Name string `form:"series_name" json:"name" binding:"required"`
}

// Add registers one series by name, or every subdirectory when the special
// name "all" is given.
func (h *SeriesHandler) Add(c *gin.Context) {
	shortname := c.Param("shortname")

	var lib models.Library
	if err := h.db.Where("shortname = ?", shortname).First(&lib).Error; err != nil {
		c.Redirect(http.StatusSeeOther, seriesPath(shortname))
		return
	}

	var req addSeriesRequest
	if err := c.ShouldBind(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error":   "invalid series",
			"details": err.Error(),
		})
		return
	}

	if req.Name == "all" {
		if err := h.scanner.AddAllSeries(&lib); err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{
				"error":   "failed to add series",
				"details": err.Error(),
			})
			return
		}
	} else {
		series := models.Series{Name: req.Name, LibraryPath: lib.Path}
		if err := h.db.FirstOrCreate(&series, models.Series{Name: req.Name}).Error; err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{
				"error":   "failed to add series",
				"details": err.Error(),
			})
			return
		}
	}

	c.Redirect(http.StatusSeeOther, seriesPath(shortname))
}

// Episodes returns the episode control data for one series: the full list
// plus the next and a random unwatched episode.
func (h *SeriesHandler) Episodes(c *gin.Context) {
	shortname := c.Param("shortname")
	seriesName := c.Param("series")

	var episodes []models.Episode
	if err := h.db.Where("series_name = ?", seriesName).Order("smb_path").Find(&episodes).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{
			"error":   "failed to list episodes",
			"details": err.Error(),
		})
		return
	}

	unwatched := make([]models.Episode, 0)
	for _, e := range episodes {
		if !e.Watched {
			unwatched = append(unwatched, e)
		}
	}

	var next, random interface{}
	if len(unwatched) > 0 {
		next = unwatched[0]
		random = unwatched[rand.Intn(len(unwatched))]
	}

	c.JSON(http.StatusOK, gin.H{
		"library":       shortname,
		"series":        seriesName,
		"episodes":      episodes,
		"nextEpisode":   next,
		"randomEpisode": random,
	})
}

// playRequest carries the SMB path form field for play/watched actions.
type playRequest struct {
	SMBPath string `form:"smb_path" json:"smbPath" binding:"required"`
}

// Play sends the episode to the player. The watched flag is only set once
// the player confirms the file is in its playlist and actually playing.
func (h *SeriesHandler) Play(c *gin.Context) {
	shortname := c.Param("shortname")
	seriesName := c.Param("series")

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
		h.db.Model(&models.Episode{}).Where("smb_path = ?", req.SMBPath).Update("watched", true)
	}

	c.Redirect(http.StatusSeeOther, episodesPath(shortname, seriesName))
}

// MarkWatched marks a single episode watched. A missing episode is not an
// error; the caller lands back on the episode list.
func (h *SeriesHandler) MarkWatched(c *gin.Context) {
	shortname := c.Param("shortname")
	seriesName := c.Param("series")

	var req playRequest
	if err := c.ShouldBind(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error":   "smb_path is required",
			"details": err.Error(),
		})
		return
	}

	h.db.Model(&models.Episode{}).Where("smb_path = ?", req.SMBPath).Update("watched", true)
	c.Redirect(http.StatusSeeOther, episodesPath(shortname, seriesName))
}

// WatchedUpTo marks every episode sorting before the chosen one as watched.
func (h *SeriesHandler) WatchedUpTo(c *gin.Context) {
	shortname := c.Param("shortname")
	seriesName := c.Param("series")

	var req playRequest
	if err := c.ShouldBind(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error":   "smb_path is required",
			"details": err.Error(),
		})
		return
	}

	h.db.Model(&models.Episode{}).
		Where("series_name = ? AND smb_path < ?", seriesName, req.SMBPath).
		Update("watched", true)
	c.Redirect(http.StatusSeeOther, episodesPath(shortname, seriesName))
}

// manageRequest selects a bulk episode action.
type manageRequest struct {
	Action string `form:"action" json:"action" binding:"required"`
}

// Manage runs a bulk action on a series: reload from disk, reset watched
// state, or delete the series entirely.
func (h *SeriesHandler) Manage(c *gin.Context) {
	shortname := c.Param("shortname")
	seriesName := c.Param("series")

	var req manageRequest
	if err := c.ShouldBind(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error":   "action is required",
			"details": err.Error(),
		})
		return
	}

	var series models.Series
	if err := h.db.Where("name = ?", seriesName).First(&series).Error; err != nil {
		c.Redirect(http.StatusSeeOther, episodesPath(shortname, seriesName))
		return
	}

	switch req.Action {
	case "load_all":
		var lib models.Library
		if err := h.db.Where("path = ?", series.LibraryPath).First(&lib).Error; err == nil {
			if err := h.scanner.ScanSeries(&lib, series.Name); err != nil {
				c.JSON(http.StatusInternalServerError, gin.H{
					"error":   "failed to scan series",
					"details": err.Error(),
				})
				return
			}
		}
	case "mark_unwatched":
		h.db.Model(&models.Episode{}).Where("series_name = ?", series.Name).Update("watched", false)
	case "delete_series":
		h.db.Where("series_name = ?", series.Name).Delete(&models.Episode{})
		h.db.Delete(&series)
		c.Redirect(http.StatusSeeOther, seriesPath(shortname))
		return
	}

	c.Redirect(http.StatusSeeOther, episodesPath(shortname, seriesName))
}

// KodiControl forwards a player command selected by the action field.
func (h *SeriesHandler) KodiControl(c *gin.Context) {
	shortname := c.Param("shortname")
	seriesName := c.Param("series")

	var req manageRequest
	if err := c.ShouldBind(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error":   "action is required",
			"details": err.Error(),
		})
		return
	}

	k, ok := playerClient(h.db)
	if !ok {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "no player configured"})
		return
	}

	switch req.Action {
	case "subsOff":
		k.SubsOff()
	case "subsOn":
		k.SubsOn()
	case "nextItem":
		k.NextItem()
	case "nextStream":
		k.NextStream()
	case "passthroughOn":
		k.SetAudioPassthrough(true)
	case "passthroughOff":
		k.SetAudioPassthrough(false)
	}

	c.Redirect(http.StatusSeeOther, episodesPath(shortname, seriesName))
}
