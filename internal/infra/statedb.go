// Package infra implements infrastructure concerns (storage, shield, tag reader).
package infra

import (
	"database/sql"
	"encoding/hex"
	"fmt"
	"os"
	"path/filepath"

	// Ensure sqlcipher driver is registered.
	_ "github.com/mutecomm/go-sqlcipher/v4"

	"github.com/eliteGoblin/frickd/internal/domain"
)

const stateDBName = "state.db"

// StateDB implements domain.StateStore using a SQLCipher encrypted SQLite
// database. Every Set is a synchronous INSERT OR REPLACE, so a write that
// returned without error is durable.
type StateDB struct {
	db     *sql.DB
	dbPath string
}

// NewStateDB opens (or creates) the encrypted state database under dataDir.
// The key is used as the SQLCipher passphrase via PRAGMA key.
func NewStateDB(dataDir string, key []byte) (*StateDB, error) {
	if err := os.MkdirAll(dataDir, 0700); err != nil {
		return nil, fmt.Errorf("failed to create data directory: %w", err)
	}

	dbPath := filepath.Join(dataDir, stateDBName)
	keyHex := hex.EncodeToString(key)

	dsn := fmt.Sprintf("%s?_pragma_key=x'%s'&_pragma_cipher_page_size=4096", dbPath, keyHex)
	db, err := sql.Open("sqlite3", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open encrypted database: %w", err)
	}

	// Verify the key works before handing the store out.
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to connect to encrypted database: %w", err)
	}

	s := &StateDB{db: db, dbPath: dbPath}
	if err := s.createTables(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to create tables: %w", err)
	}

	return s, nil
}

func (s *StateDB) createTables() error {
	schema := `
	CREATE TABLE IF NOT EXISTS state (
		key TEXT PRIMARY KEY,
		value TEXT NOT NULL
	);
	`
	_, err := s.db.Exec(schema)
	return err
}

// Get returns the value for key, or ok=false if absent.
func (s *StateDB) Get(key string) (string, bool, error) {
	var value string
	err := s.db.QueryRow(`SELECT value FROM state WHERE key = ?`, key).Scan(&value)
	if err == sql.ErrNoRows {
		return "", false, nil
	}
	if err != nil {
		return "", false, err
	}
	return value, true, nil
}

// Set durably writes key=value.
func (s *StateDB) Set(key, value string) error {
	_, err := s.db.Exec(`INSERT OR REPLACE INTO state (key, value) VALUES (?, ?)`, key, value)
	return err
}

// Delete removes a key. Absent keys are not an error.
func (s *StateDB) Delete(key string) error {
	_, err := s.db.Exec(`DELETE FROM state WHERE key = ?`, key)
	return err
}

// Close releases the database connection.
func (s *StateDB) Close() error {
	if s.db != nil {
		return s.db.Close()
	}
	return nil
}

// Path returns the database file path (for tests and status output).
func (s *StateDB) Path() string {
	return s.dbPath
}

// Ensure StateDB implements domain.StateStore.
var _ domain.StateStore = (*StateDB)(nil)
