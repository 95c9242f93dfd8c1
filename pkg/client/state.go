package client

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite"
)

const configKeyEndpoint = "endpoint"

// State manages client-side persistent state
type State struct {
	db  *sql.DB
	dir string // Directory where state is stored
}

// OpenState opens or creates the client state database
func OpenState(path string) (*State, error) {
	// Ensure directory exists
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create state directory: %w", err)
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open state database: %w", err)
	}

	db.SetMaxOpenConns(1) // Client only needs one connection
	db.SetMaxIdleConns(1)

	if _, err := db.Exec("PRAGMA journal_mode = WAL"); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to enable WAL mode: %w", err)
	}

	if _, err := db.Exec("PRAGMA busy_timeout = 5000"); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to set busy timeout: %w", err)
	}

	state := &State{
		db:  db,
		dir: dir,
	}

	if err := runMigrations(db); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to run migrations: %w", err)
	}

	return state, nil
}

var migrations = []string{
	`CREATE TABLE IF NOT EXISTS Config (
		key   TEXT PRIMARY KEY,
		value TEXT NOT NULL
	)`,
	`CREATE TABLE IF NOT EXISTS Identity (
		push_key        TEXT PRIMARY KEY,
		subscription_id TEXT NOT NULL,
		public_key      BLOB NOT NULL,
		created_at      INTEGER NOT NULL
	)`,
	`CREATE TABLE IF NOT EXISTS Registration (
		channel_id      TEXT NOT NULL,
		subscription_id TEXT NOT NULL,
		registered_at   INTEGER NOT NULL,
		PRIMARY KEY (channel_id, subscription_id)
	)`,
}

// runMigrations applies every migration past the stored user_version
func runMigrations(db *sql.DB) error {
	var version int
	if err := db.QueryRow("PRAGMA user_version").Scan(&version); err != nil {
		return fmt.Errorf("failed to read schema version: %w", err)
	}

	for i := version; i < len(migrations); i++ {
		if _, err := db.Exec(migrations[i]); err != nil {
			return fmt.Errorf("migration %d: %w", i+1, err)
		}
		if _, err := db.Exec(fmt.Sprintf("PRAGMA user_version = %d", i+1)); err != nil {
			return fmt.Errorf("failed to record schema version %d: %w", i+1, err)
		}
	}
	return nil
}

// Close closes the state database
func (s *State) Close() error {
	return s.db.Close()
}

// GetConfig retrieves a configuration value
func (s *State) GetConfig(key string) (string, error) {
	var value string
	err := s.db.QueryRow("SELECT value FROM Config WHERE key = ?", key).Scan(&value)
	if err == sql.ErrNoRows {
		return "", nil
	}
	return value, err
}

// SetConfig stores a configuration value
func (s *State) SetConfig(key, value string) error {
	_, err := s.db.Exec(`
		INSERT OR REPLACE INTO Config (key, value) VALUES (?, ?)
	`, key, value)
	return err
}

// GetEndpoint returns the endpoint stored by the last register, or ""
func (s *State) GetEndpoint() string {
	endpoint, _ := s.GetConfig(configKeyEndpoint)
	return endpoint
}

// SetEndpoint stores the channel endpoint
func (s *State) SetEndpoint(endpoint string) error {
	if err := ValidateEndpoint(endpoint); err != nil {
		return err
	}
	return s.SetConfig(configKeyEndpoint, endpoint)
}

// GetIdentity returns the device identity for a push key, or nil if none exists
func (s *State) GetIdentity(pushKey string) (*IdentityRecord, error) {
	var (
		rec       IdentityRecord
		createdAt int64
	)
	err := s.db.QueryRow(`
		SELECT push_key, subscription_id, public_key, created_at
		FROM Identity
		WHERE push_key = ?
	`, pushKey).Scan(&rec.PushKey, &rec.SubscriptionID, &rec.PublicKey, &createdAt)

	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	rec.CreatedAt = time.Unix(createdAt, 0)
	return &rec, nil
}

// SaveIdentity stores the device identity for a push key
func (s *State) SaveIdentity(record IdentityRecord) error {
	if record.CreatedAt.IsZero() {
		record.CreatedAt = time.Now()
	}
	_, err := s.db.Exec(`
		INSERT OR REPLACE INTO Identity (push_key, subscription_id, public_key, created_at)
		VALUES (?, ?, ?, ?)
	`, record.PushKey, record.SubscriptionID, record.PublicKey, record.CreatedAt.Unix())
	return err
}

// RecordRegistration remembers that this device subscribed to a channel
func (s *State) RecordRegistration(reg Registration) error {
	if reg.RegisteredAt.IsZero() {
		reg.RegisteredAt = time.Now()
	}
	_, err := s.db.Exec(`
		INSERT OR REPLACE INTO Registration (channel_id, subscription_id, registered_at)
		VALUES (?, ?, ?)
	`, reg.ChannelID, reg.SubscriptionID, reg.RegisteredAt.Unix())
	return err
}

// ListRegistrations returns all registrations, newest first
func (s *State) ListRegistrations() ([]Registration, error) {
	rows, err := s.db.Query(`
		SELECT channel_id, subscription_id, registered_at
		FROM Registration
		ORDER BY registered_at DESC, channel_id
	`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var regs []Registration
	for rows.Next() {
		var (
			reg Registration
			ts  int64
		)
		if err := rows.Scan(&reg.ChannelID, &reg.SubscriptionID, &ts); err != nil {
			return nil, err
		}
		reg.RegisteredAt = time.Unix(ts, 0)
		regs = append(regs, reg)
	}
	return regs, rows.Err()
}

// GetStateDir returns the directory where state is stored
func (s *State) GetStateDir() string {
	return s.dir
}

// Verify that State implements StateInterface
var _ StateInterface = (*State)(nil)
