// Package schema creates and seeds the legacy helpdesk tables.
package schema

import (
	"fmt"

	"github.com/jmoiron/sqlx"
)

// statements are idempotent; Migrate can run on every startup. Table and
// column names match the existing production database byte for byte.
var statements = []string{
	`CREATE TABLE IF NOT EXISTS tickets (
		id TEXT PRIMARY KEY,
		issue TEXT NOT NULL,
		status TEXT NOT NULL,
		priority TEXT NOT NULL,
		date_submitted TEXT NOT NULL,
		usuario TEXT NOT NULL,
		sede TEXT NOT NULL DEFAULT '',
		tipo TEXT NOT NULL DEFAULT '',
		asignado TEXT NOT NULL DEFAULT '',
		email TEXT NOT NULL DEFAULT ''
	)`,
	`CREATE TABLE IF NOT EXISTS historial (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		ticket_id TEXT NOT NULL,
		fecha TEXT NOT NULL,
		usuario TEXT NOT NULL DEFAULT '',
		comentario TEXT NOT NULL
	)`,
	`CREATE TABLE IF NOT EXISTS adjuntos (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		ticket_id TEXT NOT NULL,
		nombre_archivo TEXT NOT NULL,
		tipo_mime TEXT NOT NULL DEFAULT '',
		contenido BLOB NOT NULL,
		fecha TEXT NOT NULL,
		usuario TEXT NOT NULL DEFAULT ''
	)`,
	`CREATE TABLE IF NOT EXISTS usuarios (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		username TEXT NOT NULL UNIQUE,
		password TEXT NOT NULL,
		nombre TEXT NOT NULL DEFAULT '',
		rol TEXT NOT NULL DEFAULT 'soporte',
		email TEXT NOT NULL DEFAULT ''
	)`,
	`CREATE TABLE IF NOT EXISTS sedes (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		nombre TEXT NOT NULL UNIQUE
	)`,
	`CREATE TABLE IF NOT EXISTS tipos_problema (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		descripcion TEXT NOT NULL UNIQUE,
		categoria TEXT NOT NULL DEFAULT '',
		categoria_2 TEXT NOT NULL DEFAULT '',
		categoria_3 TEXT NOT NULL DEFAULT ''
	)`,
	`CREATE INDEX IF NOT EXISTS idx_historial_ticket ON historial(ticket_id)`,
	`CREATE INDEX IF NOT EXISTS idx_adjuntos_ticket ON adjuntos(ticket_id, nombre_archivo)`,
}

// Migrate creates any missing tables and indexes.
func Migrate(db *sqlx.DB) error {
	for _, stmt := range statements {
		if _, err := db.Exec(stmt); err != nil {
			return fmt.Errorf("schema migrate: %w", err)
		}
	}
	return nil
}

// SeedSites inserts sites that do not exist yet.
func SeedSites(db *sqlx.DB, names ...string) error {
	for _, n := range names {
		if _, err := db.Exec(`INSERT OR IGNORE INTO sedes (nombre) VALUES (?)`, n); err != nil {
			return fmt.Errorf("seed sede %q: %w", n, err)
		}
	}
	return nil
}

// SeedProblemType inserts a taxonomy entry if its purpose is not present.
func SeedProblemType(db *sqlx.DB, purpose, cat1, cat2, cat3 string) error {
	_, err := db.Exec(
		`INSERT OR IGNORE INTO tipos_problema (descripcion, categoria, categoria_2, categoria_3) VALUES (?, ?, ?, ?)`,
		purpose, cat1, cat2, cat3,
	)
	if err != nil {
		return fmt.Errorf("seed tipo %q: %w", purpose, err)
	}
	return nil
}
