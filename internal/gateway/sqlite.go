package gateway

import (
	"database/sql"
	"fmt"

	_ "modernc.org/sqlite" // pure go sqlite driver
)

// SQLiteGateway stores slots as rows of a single key-value table in a
// SQLite database file. Useful when the ledger should live in one file
// instead of a directory of JSON blobs.
type SQLiteGateway struct {
	db *sql.DB
}

// NewSQLiteGateway opens (or creates) the database at path and ensures the
// slots table exists.
func NewSQLiteGateway(path string) (*SQLiteGateway, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("opening sqlite database: %w", err)
	}
	if _, err := db.Exec(`CREATE TABLE IF NOT EXISTS slots (
		name TEXT PRIMARY KEY,
		blob BLOB NOT NULL
	)`); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("creating slots table: %w", err)
	}
	return &SQLiteGateway{db: db}, nil
}

// Load reads the slot's row. A missing row means the slot is absent.
func (g *SQLiteGateway) Load(slot string) ([]byte, bool, error) {
	var blob []byte
	err := g.db.QueryRow(`SELECT blob FROM slots WHERE name = ?`, slot).Scan(&blob)
	if err == sql.ErrNoRows {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("reading slot %s: %w", slot, err)
	}
	return blob, true, nil
}

// Save upserts the slot's row with the given blob.
func (g *SQLiteGateway) Save(slot string, blob []byte) error {
	_, err := g.db.Exec(
		`INSERT INTO slots(name, blob) VALUES(?, ?) ON CONFLICT(name) DO UPDATE SET blob = excluded.blob`,
		slot, blob,
	)
	if err != nil {
		return fmt.Errorf("writing slot %s: %w", slot, err)
	}
	return nil
}

// Close closes the underlying database.
func (g *SQLiteGateway) Close() error {
	return g.db.Close()
}
