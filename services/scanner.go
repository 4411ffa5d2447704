package services

import (
	"fmt"
	"log"
	"mime"
	"os"
	"path/filepath"
	"strings"

	"github.com/dhowden/tag"
	"gorm.io/gorm"

	"github.com/arconis2020/smb-to-kodi/models"
)

func init() {
	// The builtin extension table is tiny and the system table varies by
	// platform; make sure the common media containers always resolve.
	for ext, typ := range map[string]string{
		".avi":  "video/x-msvideo",
		".flac": "audio/flac",
		".m4a":  "audio/mp4",
		".m4v":  "video/x-m4v",
		".mkv":  "video/x-matroska",
		".mov":  "video/quicktime",
		".mp3":  "audio/mpeg",
		".mp4":  "video/mp4",
		".ogg":  "audio/ogg",
		".wav":  "audio/wav",
		".webm": "video/webm",
		".wmv":  "video/x-ms-wmv",
	} {
		mime.AddExtensionType(ext, typ)
	}
}

// Scanner reconciles media files on disk against the database: new files
// are inserted, records whose files disappeared are deleted.
type Scanner interface {
	// AddAllSeries registers every subdirectory of a series library as a
	// series, leaving existing ones untouched.
	AddAllSeries(lib *models.Library) error

	// ScanSeries reconciles the episodes of one series with the video
	// files found under its folder.
	ScanSeries(lib *models.Library, seriesName string) error

	// ScanLibrary reconciles a whole library. progress may be nil; when
	// set it is called after each completed step with the item just
	// finished.
	ScanLibrary(lib *models.Library, progress func(done, total int, current string)) error
}

type scanner struct {
	db *gorm.DB
}

// NewScanner creates a scanner backed by db.
func NewScanner(db *gorm.DB) Scanner {
	return &scanner{db: db}
}

// mediaFile pairs a file's local path with its SMB path.
type mediaFile struct {
	local string
	smb   string
}

// collectMedia walks root and returns every file whose MIME type (by
// extension) starts with mimePrefix, mapped to the library's SMB namespace.
// Unreadable directories are logged and skipped rather than failing the
// whole scan.
func collectMedia(lib *models.Library, root, mimePrefix string) ([]mediaFile, error) {
	var found []mediaFile
	err := filepath.Walk(root, func(p string, info os.FileInfo, err error) error {
		if err != nil {
			log.Printf("Error accessing path %s: %v", p, err)
			return nil
		}
		if info.IsDir() {
			return nil
		}
		t := mime.TypeByExtension(strings.ToLower(filepath.Ext(p)))
		if !strings.HasPrefix(t, mimePrefix) {
			return nil
		}
		smb, err := lib.SMBPath(p)
		if err != nil {
			return fmt.Errorf("failed to map %s to an SMB path: %w", p, err)
		}
		found = append(found, mediaFile{local: p, smb: smb})
		return nil
	})
	if err != nil {
		return nil, err
	}
	return found, nil
}

func (s *scanner) AddAllSeries(lib *models.Library) error {
	entries, err := os.ReadDir(lib.Path)
	if err != nil {
		return fmt.Errorf("failed to list library %s: %w", lib.Path, err)
	}
	for _, entry := range entries {
		if !entry.IsDir() {
			continue
		}
		series := models.Series{Name: entry.Name(), LibraryPath: lib.Path}
		if err := s.db.FirstOrCreate(&series, models.Series{Name: entry.Name()}).Error; err != nil {
			return err
		}
	}
	return nil
}

func (s *scanner) ScanSeries(lib *models.Library, seriesName string) error {
	found, err := collectMedia(lib, filepath.Join(lib.Path, seriesName), "video/")
	if err != nil {
		return err
	}

	smbPaths := make([]string, 0, len(found))
	for _, f := range found {
		smbPaths = append(smbPaths, f.smb)
	}

	// Drop episodes that no longer exist on disk.
	del := s.db.Where("series_name = ?", seriesName)
	if len(smbPaths) > 0 {
		del = del.Where("smb_path NOT IN ?", smbPaths)
	}
	if err := del.Delete(&models.Episode{}).Error; err != nil {
		return err
	}

	// Insert anything new on disk.
	var existing []string
	if err := s.db.Model(&models.Episode{}).Where("series_name = ?", seriesName).
		Pluck("smb_path", &existing).Error; err != nil {
		return err
	}
	known := make(map[string]bool, len(existing))
	for _, p := range existing {
		known[p] = true
	}
	for _, p := range smbPaths {
		if known[p] {
			continue
		}
		if err := s.db.Create(&models.Episode{SMBPath: p, SeriesName: seriesName}).Error; err != nil {
			return err
		}
	}
	return nil
}

func (s *scanner) ScanLibrary(lib *models.Library, progress func(done, total int, current string)) error {
	switch lib.ContentType {
	case models.ContentSeries:
		return s.scanSeriesLibrary(lib, progress)
	case models.ContentMovies:
		return s.scanMovieLibrary(lib, progress)
	case models.ContentMusic:
		return s.scanMusicLibrary(lib, progress)
	default:
		return fmt.Errorf("unknown content type %d for library %s", lib.ContentType, lib.Path)
	}
}

func (s *scanner) scanSeriesLibrary(lib *models.Library, progress func(int, int, string)) error {
	if err := s.AddAllSeries(lib); err != nil {
		return err
	}

	var series []models.Series
	if err := s.db.Where("library_path = ?", lib.Path).Order("name").Find(&series).Error; err != nil {
		return err
	}
	for i, sr := range series {
		if err := s.ScanSeries(lib, sr.Name); err != nil {
			return err
		}
		if progress != nil {
			progress(i+1, len(series), sr.Name)
		}
	}
	return nil
}

func (s *scanner) scanMovieLibrary(lib *models.Library, progress func(int, int, string)) error {
	found, err := collectMedia(lib, lib.Path, "video/")
	if err != nil {
		return err
	}

	smbPaths := make([]string, 0, len(found))
	for _, f := range found {
		smbPaths = append(smbPaths, f.smb)
	}

	// Delete missing movies but keep the LastWatched history of survivors.
	del := s.db.Where("library_path = ?", lib.Path)
	if len(smbPaths) > 0 {
		del = del.Where("smb_path NOT IN ?", smbPaths)
	}
	if err := del.Delete(&models.Movie{}).Error; err != nil {
		return err
	}

	var existing []string
	if err := s.db.Model(&models.Movie{}).Where("library_path = ?", lib.Path).
		Pluck("smb_path", &existing).Error; err != nil {
		return err
	}
	known := make(map[string]bool, len(existing))
	for _, p := range existing {
		known[p] = true
	}
	for i, f := range found {
		if !known[f.smb] {
			if err := s.db.Create(&models.Movie{SMBPath: f.smb, LibraryPath: lib.Path}).Error; err != nil {
				return err
			}
		}
		if progress != nil {
			progress(i+1, len(found), f.smb)
		}
	}
	return nil
}

func (s *scanner) scanMusicLibrary(lib *models.Library, progress func(int, int, string)) error {
	found, err := collectMedia(lib, lib.Path, "audio/")
	if err != nil {
		return err
	}

	smbPaths := make([]string, 0, len(found))
	for _, f := range found {
		smbPaths = append(smbPaths, f.smb)
	}

	del := s.db.Where("library_path = ?", lib.Path)
	if len(smbPaths) > 0 {
		del = del.Where("smb_path NOT IN ?", smbPaths)
	}
	if err := del.Delete(&models.Song{}).Error; err != nil {
		return err
	}

	var existing []string
	if err := s.db.Model(&models.Song{}).Where("library_path = ?", lib.Path).
		Pluck("smb_path", &existing).Error; err != nil {
		return err
	}
	known := make(map[string]bool, len(existing))
	for _, p := range existing {
		known[p] = true
	}
	for i, f := range found {
		if !known[f.smb] {
			song := models.Song{SMBPath: f.smb, LibraryPath: lib.Path}
			song.Title, song.Artist = readSongTags(f.local)
			if err := s.db.Create(&song).Error; err != nil {
				return err
			}
		}
		if progress != nil {
			progress(i+1, len(found), f.smb)
		}
	}
	return nil
}

// readSongTags pulls title and artist out of the file's audio tags, falling
// back to the bare file name when the tags are missing or unreadable.
func readSongTags(path string) (title, artist string) {
	title = strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))

	f, err := os.Open(path)
	if err != nil {
		return title, ""
	}
	defer f.Close()

	meta, err := tag.ReadFrom(f)
	if err != nil {
		return title, ""
	}
	if t := meta.Title(); t != "" {
		title = t
	}
	return title, meta.Artist()
}
