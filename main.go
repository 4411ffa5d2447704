package main

import (
	"flag"
	"log"

	"github.com/schollz/progressbar/v3"

	"github.com/arconis2020/smb-to-kodi/cmd"
	"github.com/arconis2020/smb-to-kodi/config"
	"github.com/arconis2020/smb-to-kodi/database"
	"github.com/arconis2020/smb-to-kodi/models"
	"github.com/arconis2020/smb-to-kodi/services"
)

func main() {
	var (
		server bool
		port   int
		sync   bool
	)

	flag.BoolVar(&server, "server", false, "Start in web server mode")
	flag.IntVar(&port, "port", 8080, "Port for web server mode")
	flag.BoolVar(&sync, "sync", false, "Sync every library from disk and exit")
	flag.Parse()

	// Server mode takes precedence
	if server {
		cmd.StartWebServer(port)
		return
	}

	if sync {
		if err := syncAllLibraries(); err != nil {
			log.Fatalf("Sync failed: %v", err)
		}
		return
	}

	flag.Usage()
}

// syncAllLibraries reconciles every configured library with disk, with a
// progress bar per library for interactive use.
func syncAllLibraries() error {
	db, err := database.Open(config.GetDatabasePath())
	if err != nil {
		return err
	}

	var libraries []models.Library
	if err := db.Order("path").Find(&libraries).Error; err != nil {
		return err
	}
	if len(libraries) == 0 {
		log.Println("No libraries configured, nothing to sync")
		return nil
	}

	scanner := services.NewScanner(db)
	for _, lib := range libraries {
		log.Printf("Syncing %s from disk", lib.Shortname)
		bar := progressbar.Default(-1, lib.Shortname)
		err := scanner.ScanLibrary(&lib, func(done, total int, current string) {
			bar.ChangeMax(total)
			bar.Set(done)
		})
		bar.Finish()
		if err != nil {
			return err
		}
	}

	log.Printf("Synced %d libraries", len(libraries))
	return nil
}
