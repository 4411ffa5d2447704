package config

import (
	"os"
	"path/filepath"
	"strconv"
	"time"
)

var Env = map[string]string{
	"DATABASE_PATH":  os.Getenv("DATABASE_PATH"),
	"SERVER_PORT":    os.Getenv("SERVER_PORT"),
	"CORS_ORIGINS":   os.Getenv("CORS_ORIGINS"),
	"SYNC_WORKERS":   os.Getenv("SYNC_WORKERS"),
	"PLAYER_TIMEOUT": os.Getenv("PLAYER_TIMEOUT"),
}

// GetDatabasePath returns the sqlite database location, defaulting to a
// dotfile directory under the user's home.
func GetDatabasePath() string {
	if p := Env["DATABASE_PATH"]; p != "" {
		return p
	}

	homeDir, err := os.UserHomeDir()
	if err != nil {
		// Fall back to the working directory if there is no home dir.
		return "smb-to-kodi.db"
	}
	return filepath.Join(homeDir, ".smb-to-kodi", "smb-to-kodi.db")
}

// GetPlayerTimeout returns how long a single player request may take, in
// whole seconds from PLAYER_TIMEOUT.
func GetPlayerTimeout() time.Duration {
	if n, err := strconv.Atoi(Env["PLAYER_TIMEOUT"]); err == nil && n > 0 {
		return time.Duration(n) * time.Second
	}
	return 5 * time.Second
}

// GetSyncWorkers returns how many disk-sync jobs may run concurrently.
func GetSyncWorkers() int {
	if n, err := strconv.Atoi(Env["SYNC_WORKERS"]); err == nil && n > 0 {
		return n
	}
	return 2
}
