package datasets

import (
	"database/sql"
	"fmt"

	_ "modernc.org/sqlite"
)

// openDB opens the dataset database and applies schema migrations.
// modernc.org/sqlite is pure Go, so the daemon stays CGo-free.
func openDB(path string) (*sql.DB, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("opening dataset db: %w", err)
	}
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("pinging dataset db: %w", err)
	}
	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		db.Close()
		return nil, fmt.Errorf("setting WAL mode: %w", err)
	}
	if err := migrate(db); err != nil {
		db.Close()
		return nil, fmt.Errorf("running migrations: %w", err)
	}
	return db, nil
}

func migrate(db *sql.DB) error {
	// The UNIQUE constraint on name is the store-level uniqueness guarantee;
	// callers never enforce it themselves.
	_, err := db.Exec(`
		CREATE TABLE IF NOT EXISTS datasets (
			id           INTEGER PRIMARY KEY,
			name         TEXT NOT NULL UNIQUE,
			data         TEXT NOT NULL DEFAULT '',
			format       TEXT NOT NULL DEFAULT 'json',
			source       TEXT NOT NULL DEFAULT 'inline',
			comment      TEXT NOT NULL DEFAULT '',
			row_count    INTEGER NOT NULL DEFAULT 0,
			column_count INTEGER NOT NULL DEFAULT 0,
			columns      TEXT NOT NULL DEFAULT '[]',
			size         INTEGER NOT NULL DEFAULT 0,
			created      DATETIME NOT NULL,
			modified     DATETIME NOT NULL,
			meta         TEXT NOT NULL DEFAULT '{}'
		);
		CREATE INDEX IF NOT EXISTS idx_datasets_modified ON datasets(modified);
	`)
	return err
}
