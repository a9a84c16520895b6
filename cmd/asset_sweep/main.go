package main

import (
	"context"
	"log"
	"os"

	"gallery/internal/config"
	"gallery/internal/database"
	"gallery/internal/domain/upload"
	"gallery/internal/repository"
)

// asset_sweep removes stored files that no image record or avatar references.
func main() {
	cfg, err := config.Load(os.Args[1:])
	if err != nil {
		log.Fatalf("config: %v", err)
	}

	db, err := database.Connect(cfg.DatabaseURL)
	if err != nil {
		log.Fatalf("db connect failed: %v", err)
	}

	layout := upload.NewLayout(cfg.Upload.Dir)
	if err := layout.Ensure(); err != nil {
		log.Fatalf("upload dirs: %v", err)
	}
	store := upload.NewStore(layout, cfg.Upload.AllowedFileTypes, cfg.Upload.MaxFileSize)

	sweeper := upload.NewSweeper(store, cfg.SweepGrace,
		repository.NewImageRepository(db),
		repository.NewUserRepository(db),
	)

	report, err := sweeper.Sweep(context.Background())
	if err != nil {
		log.Fatalf("asset sweep failed: %v", err)
	}

	log.Printf("asset sweep completed: scanned=%d removed_originals=%d removed_thumbnails=%d",
		report.Scanned, report.RemovedOriginals, report.RemovedThumbnails)
}
