package migration

import (
	"fmt"
	"log"

	"github.com/latoulicious/perso-wars/pkg/database/models"
	"gorm.io/gorm"
)

// allModels lists every table in creation order
func allModels() []interface{} {
	return []interface{}{
		&models.Group{},
		&models.Personality{},
		&models.PersoGroup{},
		&models.Image{},
		&models.Server{},
		&models.MemberInformation{},
		&models.Deck{},
		&models.Wishlist{},
		&models.ShoppingList{},
		&models.Badge{},
		&models.BadgePerso{},
		&models.ClaimLog{},
		&models.EngineLog{},
	}
}

// Models returns the engine models in creation order
func Models() []interface{} {
	return allModels()
}

// SetupJoinTables registers the explicit join models so that association
// mode and AutoMigrate agree on the perso_groups and badge_persos tables.
func SetupJoinTables(db *gorm.DB) error {
	if err := db.SetupJoinTable(&models.Personality{}, "Groups", &models.PersoGroup{}); err != nil {
		return fmt.Errorf("setup perso_groups: %w", err)
	}
	if err := db.SetupJoinTable(&models.Badge{}, "Personalities", &models.BadgePerso{}); err != nil {
		return fmt.Errorf("setup badge_persos: %w", err)
	}
	return nil
}

// RunMigration creates or updates the schema
func RunMigration(db *gorm.DB) error {
	log.Println("Starting migrations...")

	if db.Dialector.Name() == "postgres" {
		if err := db.Exec("CREATE EXTENSION IF NOT EXISTS \"uuid-ossp\"").Error; err != nil {
			return fmt.Errorf("create uuid-ossp extension: %w", err)
		}
	}

	if err := SetupJoinTables(db); err != nil {
		return err
	}

	log.Println("Running database migrations...")
	if err := db.AutoMigrate(allModels()...); err != nil {
		return fmt.Errorf("auto-migrate: %w", err)
	}

	if err := AddEngineIndexes(db); err != nil {
		return err
	}

	log.Println("Migrations completed successfully!")
	return nil
}

// ResetDatabase drops every engine table
func ResetDatabase(db *gorm.DB) error {
	log.Println("Dropping all tables...")

	if err := RollbackEngineIndexes(db); err != nil {
		return err
	}

	tables := allModels()
	for i := len(tables) - 1; i >= 0; i-- {
		if err := db.Migrator().DropTable(tables[i]); err != nil {
			return fmt.Errorf("drop table: %w", err)
		}
	}

	log.Println("All tables dropped")
	return nil
}
