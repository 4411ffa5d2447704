package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func setEnv(t *testing.T, key, value string) {
	t.Helper()
	old := Env[key]
	Env[key] = value
	t.Cleanup(func() { Env[key] = old })
}

func TestGetPlayerTimeout(t *testing.T) {
	setEnv(t, "PLAYER_TIMEOUT", "")
	assert.Equal(t, 5*time.Second, GetPlayerTimeout())

	setEnv(t, "PLAYER_TIMEOUT", "30")
	assert.Equal(t, 30*time.Second, GetPlayerTimeout())

	// Garbage and non-positive values fall back to the default.
	setEnv(t, "PLAYER_TIMEOUT", "soon")
	assert.Equal(t, 5*time.Second, GetPlayerTimeout())
	setEnv(t, "PLAYER_TIMEOUT", "0")
	assert.Equal(t, 5*time.Second, GetPlayerTimeout())
}

func TestGetSyncWorkers(t *testing.T) {
	setEnv(t, "SYNC_WORKERS", "")
	assert.Equal(t, 2, GetSyncWorkers())

	setEnv(t, "SYNC_WORKERS", "8")
	assert.Equal(t, 8, GetSyncWorkers())

	setEnv(t, "SYNC_WORKERS", "-1")
	assert.Equal(t, 2, GetSyncWorkers())
}

func TestGetDatabasePathOverride(t *testing.T) {
	setEnv(t, "DATABASE_PATH", "/tmp/media.db")
	assert.Equal(t, "/tmp/media.db", GetDatabasePath())
}
