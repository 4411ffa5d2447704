// Package models defines the gorm schema: the configured player, media
// libraries, and the series/episode/movie/song records scanned from disk.
package models

import (
	"path/filepath"
	"strings"
	"time"

	"golang.org/x/text/unicode/norm"
)

// Library content types. A library holds exactly one kind of media.
const (
	ContentSeries = 0
	ContentMovies = 1
	ContentMusic  = 2
)

// Player stores the Kodi JSON-RPC endpoint address. There is only ever one
// row; saving with PID 1 replaces the previous configuration.
type Player struct {
	PID     uint   `gorm:"primaryKey" json:"pid"`
	Address string `json:"address"`
}

// Library is a media share mounted locally at Path and exported over SMB by
// Servername. Prefix is the local mount prefix stripped when mapping local
// paths to SMB paths.
type Library struct {
	Path        string `gorm:"primaryKey" json:"path"`
	Prefix      string `json:"prefix"`
	Servername  string `json:"servername"`
	Shortname   string `gorm:"uniqueIndex" json:"shortname"`
	ContentType int    `json:"contentType"`

	Series []Series `gorm:"foreignKey:LibraryPath;constraint:OnDelete:CASCADE" json:"-"`
	Movies []Movie  `gorm:"foreignKey:LibraryPath;constraint:OnDelete:CASCADE" json:"-"`
	Songs  []Song   `gorm:"foreignKey:LibraryPath;constraint:OnDelete:CASCADE" json:"-"`
}

// SMBPath maps a local file path under the library prefix to the SMB path
// the player understands. Names are NFC-normalized so they match what the
// SMB server advertises.
func (l *Library) SMBPath(local string) (string, error) {
	rel, err := filepath.Rel(l.Prefix, local)
	if err != nil {
		return "", err
	}
	rel = norm.NFC.String(filepath.ToSlash(rel))
	return "smb://" + l.Servername + "/" + rel, nil
}

// SMBRoot returns the SMB path of the library root itself, the shared root
// every item path in this library lives under.
func (l *Library) SMBRoot() (string, error) {
	return l.SMBPath(l.Path)
}

// Series is one show folder inside a series library.
type Series struct {
	Name        string `gorm:"primaryKey;column:name" json:"name"`
	LibraryPath string `gorm:"index" json:"libraryPath"`

	Episodes []Episode `gorm:"foreignKey:SeriesName;constraint:OnDelete:CASCADE" json:"-"`
}

// Episode is a single video file belonging to a series, keyed by its SMB
// path, with a watched flag driving the next-unwatched logic.
type Episode struct {
	SMBPath    string `gorm:"primaryKey;column:smb_path" json:"smbPath"`
	SeriesName string `gorm:"index" json:"seriesName"`
	Watched    bool   `json:"watched"`
}

// Basename returns the file name portion of the episode for display.
func (e *Episode) Basename() string {
	if i := strings.LastIndex(e.SMBPath, "/"); i >= 0 {
		return e.SMBPath[i+1:]
	}
	return e.SMBPath
}

// Movie is a single video file in a movie library. LastWatched is nil until
// the movie has been played to the player at least once.
type Movie struct {
	SMBPath     string     `gorm:"primaryKey;column:smb_path" json:"smbPath"`
	LibraryPath string     `gorm:"index" json:"libraryPath"`
	LastWatched *time.Time `json:"lastWatched,omitempty"`
}

// Song is a single audio file in a music library. Title and Artist come
// from the file's tags when they are readable, otherwise the file name.
type Song struct {
	SMBPath     string `gorm:"primaryKey;column:smb_path" json:"smbPath"`
	LibraryPath string `gorm:"index" json:"libraryPath"`
	Title       string `json:"title,omitempty"`
	Artist      string `json:"artist,omitempty"`
}
