package main

import (
	"context"
	"flag"
	"log"
	"os"

	"github.com/latoulicious/perso-wars/internal/config"
	"github.com/latoulicious/perso-wars/internal/seed"
	"github.com/latoulicious/perso-wars/pkg/common"
	"github.com/latoulicious/perso-wars/pkg/database"
	"github.com/latoulicious/perso-wars/pkg/database/migration"
	"github.com/latoulicious/perso-wars/pkg/gacha"
	"github.com/latoulicious/perso-wars/pkg/gacha/service"
	"github.com/latoulicious/perso-wars/pkg/gacha/shared"
	"github.com/latoulicious/perso-wars/pkg/logging"
	"github.com/latoulicious/perso-wars/tools"
)

func main() {
	migrateFlag := flag.Bool("migrate", false, "Run the migrations")
	resetFlag := flag.Bool("reset", false, "Drop every engine table before migrating")
	seedFlag := flag.String("seed", "", "Import personalities from a YAML catalog file")
	checkFlag := flag.Bool("check", false, "Print a connectivity and schema report, then exit")
	flag.Parse()

	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	db, err := database.NewGormDBFromConfig(cfg.Database.Driver, cfg.Database.URL)
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		log.Fatalf("Failed to get SQL database: %v", err)
	}
	defer sqlDB.Close()
	log.Printf("Connected to %s database", cfg.Database.Driver)

	if *checkFlag {
		if err := tools.DBCheck(os.Stdout, db); err != nil {
			log.Fatalf("Database check failed: %v", err)
		}
		return
	}

	if *resetFlag {
		log.Println("Resetting database...")
		if err := migration.ResetDatabase(db); err != nil {
			log.Fatalf("Failed to reset database: %v", err)
		}
		log.Println("Database reset successfully")
	}

	// seeding needs the schema too
	if *migrateFlag || *resetFlag || *seedFlag != "" {
		if err := migration.RunMigration(db); err != nil {
			log.Fatalf("Failed to run migrations: %v", err)
		}
	}

	if *seedFlag == "" {
		return
	}

	catalog, err := seed.ParseFile(*seedFlag)
	if err != nil {
		log.Fatalf("Failed to read seed file: %v", err)
	}

	loggers := logging.NewLoggerFactory(cfg.Logger.Level)
	svc := gacha.NewService(db, common.NewMemoryLocker(), shared.SystemClock{}, gacha.DefaultSettings(), loggers)

	report, err := seed.Import(context.Background(), service.NewCatalogService(svc), catalog)
	if err != nil {
		log.Fatalf("Seeding stopped after %d personalities: %v", report.Added, err)
	}
	log.Printf("Seed complete: %d added, %d already present", report.Added, report.Skipped)
}
