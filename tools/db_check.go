package tools

import (
	"fmt"
	"io"
	"time"

	"github.com/latoulicious/perso-wars/pkg/database/migration"
	"github.com/latoulicious/perso-wars/pkg/database/models"
	"gorm.io/gorm"
)

// DBCheck prints a connectivity and schema report for db to w. It fails on
// problems that keep the engine from running; missing tables are only reported.
func DBCheck(w io.Writer, db *gorm.DB) error {
	dialect := db.Dialector.Name()
	fmt.Fprintf(w, "=== Database Connectivity Check (%s) ===\n", dialect)

	sqlDB, err := db.DB()
	if err != nil {
		return fmt.Errorf("get underlying connection: %w", err)
	}

	fmt.Fprintln(w, "🏓 Testing database ping...")
	if err := sqlDB.Ping(); err != nil {
		return fmt.Errorf("ping: %w", err)
	}
	fmt.Fprintln(w, "✅ Database ping successful")

	var version string
	versionQuery := "SELECT version()"
	if dialect == "sqlite" {
		versionQuery = "SELECT sqlite_version()"
	}
	if err := db.Raw(versionQuery).Scan(&version).Error; err != nil {
		return fmt.Errorf("read server version: %w", err)
	}
	fmt.Fprintf(w, "✅ Server version: %s\n", version)

	if dialect == "postgres" {
		var extensionExists bool
		if err := db.Raw("SELECT EXISTS(SELECT 1 FROM pg_extension WHERE extname = 'uuid-ossp')").Scan(&extensionExists).Error; err != nil {
			return fmt.Errorf("check uuid-ossp extension: %w", err)
		}
		if extensionExists {
			fmt.Fprintln(w, "✅ uuid-ossp extension is available")
		} else {
			fmt.Fprintln(w, "⚠️  uuid-ossp extension not found - will be created during migration")
		}
	}

	stats := sqlDB.Stats()
	fmt.Fprintf(w, "📊 Connections: open=%d in_use=%d idle=%d\n", stats.OpenConnections, stats.InUse, stats.Idle)

	fmt.Fprintln(w, "🗃️  Checking engine tables...")
	checkEngineTables(w, db)

	fmt.Fprintln(w, "🔄 Testing transaction capability...")
	if err := testTransactionCapability(db); err != nil {
		return fmt.Errorf("transaction test: %w", err)
	}
	fmt.Fprintln(w, "✅ Transaction capability verified")

	start := time.Now()
	var result int
	if err := db.Raw("SELECT 1").Scan(&result).Error; err != nil {
		return fmt.Errorf("simple query: %w", err)
	}
	duration := time.Since(start)
	fmt.Fprintf(w, "⚡ Simple query completed in %v\n", duration)
	if duration > 5*time.Second {
		fmt.Fprintln(w, "⚠️  Query took longer than 5 seconds - check network latency")
	}

	fmt.Fprintln(w, "=== Database Connectivity Check Complete ===")
	return nil
}

// checkEngineTables reports missing tables and the size of the catalog
func checkEngineTables(w io.Writer, db *gorm.DB) {
	stmt := &gorm.Statement{DB: db}

	var missing []string
	for _, m := range migration.Models() {
		if db.Migrator().HasTable(m) {
			continue
		}
		name := fmt.Sprintf("%T", m)
		if err := stmt.Parse(m); err == nil {
			name = stmt.Schema.Table
		}
		missing = append(missing, name)
	}

	if len(missing) > 0 {
		fmt.Fprintf(w, "   ⚠️  Missing tables (will be created during migration): %v\n", missing)
		return
	}
	fmt.Fprintln(w, "   ✅ All engine tables exist")

	var count int64
	if err := db.Model(&models.Personality{}).Count(&count).Error; err != nil {
		fmt.Fprintf(w, "   ⚠️  Failed to count personalities: %v\n", err)
		return
	}
	fmt.Fprintf(w, "   📊 catalog has %d personalities\n", count)
}

// testTransactionCapability writes to a temporary table inside a transaction
// and rolls it back
func testTransactionCapability(db *gorm.DB) error {
	tx := db.Begin()
	if tx.Error != nil {
		return fmt.Errorf("begin: %w", tx.Error)
	}
	defer tx.Rollback()

	if err := tx.Exec("CREATE TEMPORARY TABLE test_transaction (id INTEGER PRIMARY KEY, test_data TEXT)").Error; err != nil {
		return fmt.Errorf("create temporary table: %w", err)
	}
	if err := tx.Exec("INSERT INTO test_transaction (id, test_data) VALUES (1, 'test')").Error; err != nil {
		return fmt.Errorf("insert test data: %w", err)
	}

	var count int64
	if err := tx.Raw("SELECT COUNT(*) FROM test_transaction").Scan(&count).Error; err != nil {
		return fmt.Errorf("count test data: %w", err)
	}
	if count != 1 {
		return fmt.Errorf("unexpected count in transaction: expected 1, got %d", count)
	}
	return nil
}
