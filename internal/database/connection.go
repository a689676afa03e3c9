// Package database owns the SQLite connection, the persistent-store
// bootstrap guard and the shared error taxonomy.
package database

import (
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"
	_ "github.com/mattn/go-sqlite3"
)

// busyTimeout absorbs write contention from overlapping requests; the UI
// framework above this core may issue calls from several goroutines at once.
const busyTimeout = 30 * time.Second

// Connect opens the SQLite file at path with the settings every caller in
// this application relies on: a generous busy timeout and foreign keys on.
func Connect(path string) (*sqlx.DB, error) {
	dsn := fmt.Sprintf("file:%s?_busy_timeout=%d&_foreign_keys=on", path, busyTimeout.Milliseconds())
	db, err := sqlx.Open("sqlite3", dsn)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", path, err)
	}
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping %s: %w", path, err)
	}
	// SQLite serializes writers; a single connection avoids SQLITE_BUSY
	// churn between pooled connections of the same process.
	db.SetMaxOpenConns(1)
	return db, nil
}

// ConnectMemory opens a private in-memory database, used by tests.
func ConnectMemory() (*sqlx.DB, error) {
	return Connect(":memory:")
}
