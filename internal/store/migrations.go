package store

import (
	"database/sql"
	"fmt"

	"procintel/internal/logging"
)

// Schema versions:
// v1: processes and biddings tables
// v2: biddings.updated_at for the recent-changes window
// v3: query_log
const CurrentSchemaVersion = 3

// Migration adds a column to an existing table.
type Migration struct {
	Table  string
	Column string
	Def    string
}

// pendingMigrations handle databases created before a column existed.
var pendingMigrations = []Migration{
	{"biddings", "updated_at", "TEXT"},
	{"processes", "authorized", "TEXT DEFAULT ''"},
}

// RunMigrations applies column migrations and records the schema version.
func RunMigrations(db *sql.DB) error {
	timer := logging.StartTimer(logging.CategoryStore, "RunMigrations")
	defer timer.Stop()

	applied := 0
	for _, m := range pendingMigrations {
		if !tableExists(db, m.Table) || columnExists(db, m.Table, m.Column) {
			continue
		}
		stmt := fmt.Sprintf("ALTER TABLE %s ADD COLUMN %s %s", m.Table, m.Column, m.Def)
		if _, err := db.Exec(stmt); err != nil {
			return fmt.Errorf("migration %s.%s: %w", m.Table, m.Column, err)
		}
		logging.Store("Applied migration: %s.%s", m.Table, m.Column)
		applied++
	}

	if _, err := db.Exec(fmt.Sprintf("PRAGMA user_version = %d", CurrentSchemaVersion)); err != nil {
		return fmt.Errorf("set schema version: %w", err)
	}
	logging.StoreDebug("Migrations complete: %d applied, schema v%d", applied, CurrentSchemaVersion)
	return nil
}

// GetSchemaVersion returns the recorded schema version.
func GetSchemaVersion(db *sql.DB) int {
	var v int
	if err := db.QueryRow("PRAGMA user_version").Scan(&v); err != nil {
		logging.StoreDebug("PRAGMA user_version failed: %v", err)
		return 0
	}
	return v
}

func columnExists(db *sql.DB, table, column string) bool {
	rows, err := db.Query(fmt.Sprintf("PRAGMA table_info(%s)", table))
	if err != nil {
		logging.StoreDebug("PRAGMA table_info(%s) failed: %v", table, err)
		return false
	}
	defer rows.Close()

	for rows.Next() {
		var cid int
		var name, ctype string
		var notnull, pk int
		var dflt interface{}
		if err := rows.Scan(&cid, &name, &ctype, &notnull, &dflt, &pk); err != nil {
			continue
		}
		if name == column {
			return true
		}
	}
	return false
}

func tableExists(db *sql.DB, table string) bool {
	var count int
	if err := db.QueryRow("SELECT COUNT(*) FROM sqlite_master WHERE type='table' AND name=?", table).Scan(&count); err != nil {
		logging.StoreDebug("Table existence check failed for %s: %v", table, err)
		return false
	}
	return count > 0
}
