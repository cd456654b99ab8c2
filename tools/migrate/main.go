package main

import (
	"context"
	"fmt"
	"log"
	"os"

	"github.com/orgball2608/news-mobile-core/internal/migrations"
	"github.com/orgball2608/news-mobile-core/pkg/config"
	"github.com/pressly/goose/v3"
)

// New migrations are written next to the embedded ones.
const migrationsDir = "internal/migrations"

func main() {
	if len(os.Args) < 2 {
		log.Fatal("Usage: migrate [up|down|status|reset|create <name>]")
	}

	command := os.Args[1]

	if command == "create" {
		if len(os.Args) < 3 {
			log.Fatal("Usage: migrate create <name>")
		}
		createMigration(os.Args[2])
		return
	}

	cfg, err := config.New()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	db, err := migrations.Open(cfg.GetDSN())
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}
	defer db.Close()

	ctx := context.Background()

	// Embedded migrations live at the root of migrations.FS
	switch command {
	case "up":
		if err := goose.UpContext(ctx, db, "."); err != nil {
			log.Fatalf("Failed to run migrations: %v", err)
		}
		fmt.Println("Migrations applied successfully")
	case "down":
		if err := goose.DownContext(ctx, db, "."); err != nil {
			log.Fatalf("Failed to rollback migration: %v", err)
		}
		fmt.Println("Migration rollback successful")
	case "status":
		if err := goose.StatusContext(ctx, db, "."); err != nil {
			log.Fatalf("Failed to get migration status: %v", err)
		}
	case "reset":
		if err := goose.ResetContext(ctx, db, "."); err != nil {
			log.Fatalf("Failed to reset migrations: %v", err)
		}
		fmt.Println("All migrations have been rolled back")
	default:
		log.Fatalf("Unknown command: %s", command)
	}
}

func createMigration(name string) {
	// Create writes to disk, not to the embedded FS
	goose.SetBaseFS(nil)

	fmt.Printf("Creating migration in: %s\n", migrationsDir)
	if err := goose.Create(nil, migrationsDir, name, "sql"); err != nil {
		log.Fatalf("Failed to create migration: %v", err)
	}
}
