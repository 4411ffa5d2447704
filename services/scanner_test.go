package services

import (
	"fmt"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"github.com/arconis2020/smb-to-kodi/database"
	"github.com/arconis2020/smb-to-kodi/models"
)

func openTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", uuid.New().String())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormlogger.Silent),
	})
	require.NoError(t, err)

	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)

	require.NoError(t, database.Migrate(db))
	return db
}

// newTestLibrary builds a library rooted in a temp dir, so that
// <prefix>/tv/... maps to smb://nas/tv/...
func newTestLibrary(t *testing.T, db *gorm.DB, contentType int) *models.Library {
	t.Helper()
	prefix := t.TempDir()
	lib := &models.Library{
		Path:        filepath.Join(prefix, "tv"),
		Prefix:      prefix,
		Servername:  "nas",
		Shortname:   "tv",
		ContentType: contentType,
	}
	require.NoError(t, os.Mkdir(lib.Path, 0o755))
	require.NoError(t, db.Create(lib).Error)
	return lib
}

func writeFixture(t *testing.T, path string) {
	t.Helper()
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, []byte("not real media"), 0o644))
}

func TestAddAllSeriesRegistersSubdirectories(t *testing.T) {
	db := openTestDB(t)
	lib := newTestLibrary(t, db, models.ContentSeries)
	s := NewScanner(db)

	require.NoError(t, os.Mkdir(filepath.Join(lib.Path, "Show A"), 0o755))
	require.NoError(t, os.Mkdir(filepath.Join(lib.Path, "Show B"), 0o755))
	writeFixture(t, filepath.Join(lib.Path, "stray.txt"))

	require.NoError(t, s.AddAllSeries(lib))

	var names []string
	require.NoError(t, db.Model(&models.Series{}).Order("name").Pluck("name", &names).Error)
	assert.Equal(t, []string{"Show A", "Show B"}, names)

	// Running again must not duplicate anything.
	require.NoError(t, s.AddAllSeries(lib))
	var count int64
	db.Model(&models.Series{}).Count(&count)
	assert.Equal(t, int64(2), count)
}

func TestScanSeriesReconcilesEpisodes(t *testing.T) {
	db := openTestDB(t)
	lib := newTestLibrary(t, db, models.ContentSeries)
	s := NewScanner(db)

	require.NoError(t, db.Create(&models.Series{Name: "Show", LibraryPath: lib.Path}).Error)
	writeFixture(t, filepath.Join(lib.Path, "Show", "ep1.mkv"))
	writeFixture(t, filepath.Join(lib.Path, "Show", "ep2.mkv"))
	writeFixture(t, filepath.Join(lib.Path, "Show", "notes.txt"))

	require.NoError(t, s.ScanSeries(lib, "Show"))

	var paths []string
	require.NoError(t, db.Model(&models.Episode{}).Order("smb_path").Pluck("smb_path", &paths).Error)
	assert.Equal(t, []string{
		"smb://nas/tv/Show/ep1.mkv",
		"smb://nas/tv/Show/ep2.mkv",
	}, paths)

	// Mark ep1 watched, remove ep2 and add ep3, then rescan: the watched
	// flag survives, ep2 is pruned, ep3 appears.
	require.NoError(t, db.Model(&models.Episode{}).
		Where("smb_path = ?", "smb://nas/tv/Show/ep1.mkv").
		Update("watched", true).Error)
	require.NoError(t, os.Remove(filepath.Join(lib.Path, "Show", "ep2.mkv")))
	writeFixture(t, filepath.Join(lib.Path, "Show", "ep3.mkv"))

	require.NoError(t, s.ScanSeries(lib, "Show"))

	var episodes []models.Episode
	require.NoError(t, db.Order("smb_path").Find(&episodes).Error)
	require.Len(t, episodes, 2)
	assert.Equal(t, "smb://nas/tv/Show/ep1.mkv", episodes[0].SMBPath)
	assert.True(t, episodes[0].Watched)
	assert.Equal(t, "smb://nas/tv/Show/ep3.mkv", episodes[1].SMBPath)
	assert.False(t, episodes[1].Watched)
}

func TestScanSeriesEmptyFolderPrunesEverything(t *testing.T) {
	db := openTestDB(t)
	lib := newTestLibrary(t, db, models.ContentSeries)
	s := NewScanner(db)

	require.NoError(t, db.Create(&models.Series{Name: "Show", LibraryPath: lib.Path}).Error)
	require.NoError(t, db.Create(&models.Episode{SMBPath: "smb://nas/tv/Show/gone.mkv", SeriesName: "Show"}).Error)
	require.NoError(t, os.Mkdir(filepath.Join(lib.Path, "Show"), 0o755))

	require.NoError(t, s.ScanSeries(lib, "Show"))

	var count int64
	db.Model(&models.Episode{}).Count(&count)
	assert.Equal(t, int64(0), count)
}

func TestScanLibrarySeriesReportsProgress(t *testing.T) {
	db := openTestDB(t)
	lib := newTestLibrary(t, db, models.ContentSeries)
	s := NewScanner(db)

	writeFixture(t, filepath.Join(lib.Path, "Show A", "a1.mkv"))
	writeFixture(t, filepath.Join(lib.Path, "Show B", "b1.mkv"))

	var seen []string
	require.NoError(t, s.ScanLibrary(lib, func(done, total int, current string) {
		seen = append(seen, fmt.Sprintf("%d/%d %s", done, total, current))
	}))

	assert.Equal(t, []string{"1/2 Show A", "2/2 Show B"}, seen)

	var count int64
	db.Model(&models.Episode{}).Count(&count)
	assert.Equal(t, int64(2), count)
}

func TestScanLibraryMovies(t *testing.T) {
	db := openTestDB(t)
	lib := newTestLibrary(t, db, models.ContentMovies)
	s := NewScanner(db)

	writeFixture(t, filepath.Join(lib.Path, "Action", "one.mkv"))
	writeFixture(t, filepath.Join(lib.Path, "two.mp4"))
	writeFixture(t, filepath.Join(lib.Path, "cover.jpg"))

	require.NoError(t, s.ScanLibrary(lib, nil))

	var paths []string
	require.NoError(t, db.Model(&models.Movie{}).Order("smb_path").Pluck("smb_path", &paths).Error)
	assert.Equal(t, []string{
		"smb://nas/tv/Action/one.mkv",
		"smb://nas/tv/two.mp4",
	}, paths)

	// A rescan keeps the watch history of surviving movies.
	require.NoError(t, db.Model(&models.Movie{}).
		Where("smb_path = ?", "smb://nas/tv/two.mp4").
		Update("last_watched", time.Now()).Error)
	require.NoError(t, os.Remove(filepath.Join(lib.Path, "Action", "one.mkv")))

	require.NoError(t, s.ScanLibrary(lib, nil))

	var movies []models.Movie
	require.NoError(t, db.Find(&movies).Error)
	require.Len(t, movies, 1)
	assert.Equal(t, "smb://nas/tv/two.mp4", movies[0].SMBPath)
	assert.NotNil(t, movies[0].LastWatched)
}

func TestScanLibraryMusicFallsBackToFilenames(t *testing.T) {
	db := openTestDB(t)
	lib := newTestLibrary(t, db, models.ContentMusic)
	s := NewScanner(db)

	// Plain bytes carry no readable tags, so the title falls back to the
	// bare file name.
	writeFixture(t, filepath.Join(lib.Path, "Album", "03 - Track Three.mp3"))
	writeFixture(t, filepath.Join(lib.Path, "liner-notes.pdf"))

	require.NoError(t, s.ScanLibrary(lib, nil))

	var songs []models.Song
	require.NoError(t, db.Find(&songs).Error)
	require.Len(t, songs, 1)
	assert.Equal(t, "smb://nas/tv/Album/03 - Track Three.mp3", songs[0].SMBPath)
	assert.Equal(t, "03 - Track Three", songs[0].Title)
	assert.Empty(t, songs[0].Artist)
}

func TestScanLibraryUnknownContentType(t *testing.T) {
	db := openTestDB(t)
	lib := newTestLibrary(t, db, 99)

	err := NewScanner(db).ScanLibrary(lib, nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unknown content type")
}
