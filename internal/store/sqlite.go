package store

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"

	_ "modernc.org/sqlite"
)

// snapshotKey is the fixed key the whole-database blob lives under.
const snapshotKey = "zork_gemini_db_v1"

// SQLiteSnapshots stores the snapshot blob in a single-row key/value table.
type SQLiteSnapshots struct {
	db *sql.DB
}

// OpenSQLite opens (creating if needed) the snapshot database at path.
func OpenSQLite(path string) (*SQLiteSnapshots, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("create snapshot dir: %w", err)
	}

	db, err := sql.Open("sqlite", path+"?_journal_mode=WAL&_busy_timeout=5000")
	if err != nil {
		return nil, fmt.Errorf("open snapshot db: %w", err)
	}
	if err := db.Ping(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("ping snapshot db: %w", err)
	}

	_, err = db.Exec(`CREATE TABLE IF NOT EXISTS snapshots (key TEXT PRIMARY KEY, data BLOB NOT NULL)`)
	if err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("create snapshots table: %w", err)
	}

	return &SQLiteSnapshots{db: db}, nil
}

// Load returns the stored blob, or (nil, nil) if none has been saved yet.
func (s *SQLiteSnapshots) Load() ([]byte, error) {
	row := s.db.QueryRow("SELECT data FROM snapshots WHERE key = ?", snapshotKey)
	var blob []byte
	if err := row.Scan(&blob); err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, err
	}
	return blob, nil
}

// Save replaces the stored blob.
func (s *SQLiteSnapshots) Save(data []byte) error {
	_, err := s.db.Exec("INSERT OR REPLACE INTO snapshots (key, data) VALUES (?, ?)", snapshotKey, data)
	return err
}

// Close closes the underlying database.
func (s *SQLiteSnapshots) Close() error {
	return s.db.Close()
}
