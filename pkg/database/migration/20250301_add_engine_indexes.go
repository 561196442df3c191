package migration

import (
	"log"

	"gorm.io/gorm"
)

// engineIndexes are the partial and composite indexes AutoMigrate cannot express
var engineIndexes = []struct {
	name string
	ddl  string
}{
	{"idx_decks_server_member", "CREATE INDEX IF NOT EXISTS idx_decks_server_member ON decks(server_id, member_id) WHERE member_id IS NOT NULL"},
	{"idx_wishlists_server_perso", "CREATE INDEX IF NOT EXISTS idx_wishlists_server_perso ON wishlists(server_id, personality_id)"},
	{"idx_shopping_lists_server_perso", "CREATE INDEX IF NOT EXISTS idx_shopping_lists_server_perso ON shopping_lists(server_id, personality_id)"},
	{"idx_engine_logs_component_server", "CREATE INDEX IF NOT EXISTS idx_engine_logs_component_server ON engine_logs(component, server_id)"},
}

// AddEngineIndexes creates the lookup indexes used by deck and list queries
func AddEngineIndexes(db *gorm.DB) error {
	log.Println("Creating engine indexes...")

	for _, idx := range engineIndexes {
		if err := db.Exec(idx.ddl).Error; err != nil {
			return err
		}
	}

	return nil
}

// RollbackEngineIndexes drops the indexes created by AddEngineIndexes
func RollbackEngineIndexes(db *gorm.DB) error {
	for _, idx := range engineIndexes {
		if err := db.Exec("DROP INDEX IF EXISTS " + idx.name).Error; err != nil {
			log.Printf("Warning: Failed to drop %s: %v", idx.name, err)
		}
	}
	return nil
}
