package database

import (
	"fmt"
	"path/filepath"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

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

	require.NoError(t, Migrate(db))
	return db
}

func TestOpenCreatesDatabaseFile(t *testing.T) {
	dbPath := filepath.Join(t.TempDir(), "data", "test.db")
	db, err := Open(dbPath)
	require.NoError(t, err)

	var count int64
	require.NoError(t, db.Model(&models.Library{}).Count(&count).Error)
	assert.Equal(t, int64(0), count)
}

func TestPlayerRowIsReplacedNotAppended(t *testing.T) {
	db := openTestDB(t)

	require.NoError(t, db.Save(&models.Player{PID: 1, Address: "http://foo:8080/jsonrpc"}).Error)

	var count int64
	db.Model(&models.Player{}).Count(&count)
	assert.Equal(t, int64(1), count)

	require.NoError(t, db.Save(&models.Player{PID: 1, Address: "http://bar:8080/jsonrpc"}).Error)

	db.Model(&models.Player{}).Count(&count)
	assert.Equal(t, int64(1), count)

	var player models.Player
	require.NoError(t, db.First(&player, 1).Error)
	assert.Equal(t, "http://bar:8080/jsonrpc", player.Address)
}
