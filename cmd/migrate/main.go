package main

import (
	"errors"
	"flag"
	"fmt"
	"log"

	"github.com/golang-migrate/migrate/v4"

	"github.com/MuhamadAgungGumelar/vision-ocr-relay/internal/core/settings"
	"github.com/MuhamadAgungGumelar/vision-ocr-relay/internal/shared/config"
	"github.com/MuhamadAgungGumelar/vision-ocr-relay/internal/shared/database"
)

func main() {
	// Load config
	cfg := config.LoadConfig()

	var driver, dsn, command string
	flag.StringVar(&driver, "driver", cfg.SettingsDriver, "Settings database driver (sqlite, postgres)")
	flag.StringVar(&dsn, "dsn", cfg.SettingsDSN, "Settings database DSN")
	flag.StringVar(&command, "cmd", "up", "Migration command (up, down, version, force)")
	flag.Parse()

	log.Printf("🔄 Running settings migrations (%s)", driver)
	log.Printf("💾 Database: %s", maskDSN(dsn))

	db, err := database.NewDB(driver, dsn)
	if err != nil {
		log.Fatalf("❌ Failed to open database: %v", err)
	}

	// Create migrate instance; closing it closes db
	m, err := settings.NewMigrate(db.DB, db.Driver)
	if err != nil {
		log.Fatalf("❌ Failed to create migrate instance: %v", err)
	}
	defer m.Close()

	// Execute command
	switch command {
	case "up":
		log.Println("⬆️  Running UP migrations...")
		if err := m.Up(); err != nil && !errors.Is(err, migrate.ErrNoChange) {
			log.Fatalf("❌ Migration UP failed: %v", err)
		}
		log.Println("✅ Migrations UP completed!")

	case "down":
		log.Println("⬇️  Running DOWN migrations...")
		if err := m.Down(); err != nil && !errors.Is(err, migrate.ErrNoChange) {
			log.Fatalf("❌ Migration DOWN failed: %v", err)
		}
		log.Println("✅ Migrations DOWN completed!")

	case "version":
		version, dirty, err := m.Version()
		if err != nil && !errors.Is(err, migrate.ErrNilVersion) {
			log.Fatalf("❌ Failed to get version: %v", err)
		}
		log.Printf("📌 Current version: %d (dirty: %t)", version, dirty)

	case "force":
		if len(flag.Args()) < 1 {
			log.Fatal("❌ Please provide version number for force command")
		}
		var forceVersion int
		if _, err := fmt.Sscanf(flag.Arg(0), "%d", &forceVersion); err != nil {
			log.Fatalf("❌ Invalid version %q: %v", flag.Arg(0), err)
		}
		if err := m.Force(forceVersion); err != nil {
			log.Fatalf("❌ Force failed: %v", err)
		}
		log.Printf("✅ Forced version to: %d", forceVersion)

	default:
		log.Fatalf("❌ Unknown command: %s (use: up, down, version, force)", command)
	}
}

// maskDSN hides credentials in a DSN for logging
func maskDSN(dsn string) string {
	if len(dsn) < 20 {
		return dsn
	}
	return dsn[:12] + "***" + dsn[len(dsn)-8:]
}
