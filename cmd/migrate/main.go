package main

import (
	"context"
	"log"

	"github.com/shubhamshk/ProjectPad/internal/config"
	"github.com/shubhamshk/ProjectPad/internal/storage"
)

func main() {
	cfg := config.Load()
	ctx := context.Background()

	db, dialect, err := storage.Open(ctx, cfg.Database)
	if err != nil {
		log.Fatalf("open db: %v", err)
	}
	defer db.Close()

	if err := storage.RunMigrations(ctx, db, dialect); err != nil {
		log.Fatalf("migrate: %v", err)
	}

	log.Printf("Migrations applied successfully (%s).", dialect)
}
