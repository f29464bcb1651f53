// Package prefs persists per-user preferences between runs: display name,
// preferred game style, the legend exclusion pool, and the mute flag. It is
// the local key-value collaborator of the randomizer; none of it ever rides
// the convergence protocol.
package prefs

import (
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"

	_ "modernc.org/sqlite"
)

// Preference keys.
const (
	KeyDisplayName    = "display_name"
	KeyGamePreset     = "game_preset"
	KeyExcludedIDs    = "excluded_ids"
	KeyMuted          = "muted"
	KeyParticipantIDs = "participant_ids" // room code -> stable id, for seat re-binding
)

// Store is a sqlite-backed key-value store.
type Store struct {
	db *sql.DB
}

// Open prepares the database at path and ensures the schema exists.
func Open(path string) (*Store, error) {
	if path == "" {
		return nil, errors.New("prefs: database path is empty")
	}
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("ensure prefs directory: %w", err)
		}
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)

	if _, err := db.Exec(`PRAGMA busy_timeout = 5000;`); err != nil {
		db.Close()
		return nil, fmt.Errorf("configure sqlite: %w", err)
	}
	if _, err := db.Exec(`CREATE TABLE IF NOT EXISTS prefs (
		key TEXT PRIMARY KEY,
		value TEXT NOT NULL
	);`); err != nil {
		db.Close()
		return nil, fmt.Errorf("apply schema: %w", err)
	}

	return &Store{db: db}, nil
}

// Close releases database resources.
func (s *Store) Close() error {
	return s.db.Close()
}

// Get reads one key; ok is false when the key was never set.
func (s *Store) Get(key string) (value string, ok bool, err error) {
	err = s.db.QueryRow(`SELECT value FROM prefs WHERE key = ?`, key).Scan(&value)
	if errors.Is(err, sql.ErrNoRows) {
		return "", false, nil
	}
	if err != nil {
		return "", false, err
	}
	return value, true, nil
}

// Set writes one key, replacing any previous value.
func (s *Store) Set(key, value string) error {
	_, err := s.db.Exec(`INSERT INTO prefs (key, value) VALUES (?, ?)
		ON CONFLICT(key) DO UPDATE SET value = excluded.value`, key, value)
	return err
}

// DisplayName returns the stored display name, or "".
func (s *Store) DisplayName() (string, error) {
	v, _, err := s.Get(KeyDisplayName)
	return v, err
}

// SetDisplayName stores the display name.
func (s *Store) SetDisplayName(name string) error {
	return s.Set(KeyDisplayName, name)
}

// GamePreset returns the last-used game preset id, or "".
func (s *Store) GamePreset() (string, error) {
	v, _, err := s.Get(KeyGamePreset)
	return v, err
}

// SetGamePreset stores the last-used game preset id.
func (s *Store) SetGamePreset(id string) error {
	return s.Set(KeyGamePreset, id)
}

// ExcludedIDs returns the stored exclusion pool.
func (s *Store) ExcludedIDs() ([]string, error) {
	v, ok, err := s.Get(KeyExcludedIDs)
	if err != nil || !ok {
		return nil, err
	}
	var ids []string
	if err := json.Unmarshal([]byte(v), &ids); err != nil {
		return nil, nil // unreadable old value, start fresh
	}
	return ids, nil
}

// SetExcludedIDs stores the exclusion pool.
func (s *Store) SetExcludedIDs(ids []string) error {
	raw, err := json.Marshal(ids)
	if err != nil {
		return err
	}
	return s.Set(KeyExcludedIDs, string(raw))
}

// Muted returns the stored mute flag.
func (s *Store) Muted() (bool, error) {
	v, ok, err := s.Get(KeyMuted)
	if err != nil || !ok {
		return false, err
	}
	muted, _ := strconv.ParseBool(v)
	return muted, nil
}

// SetMuted stores the mute flag.
func (s *Store) SetMuted(muted bool) error {
	return s.Set(KeyMuted, strconv.FormatBool(muted))
}

// ParticipantID returns the stable participant id previously used in room,
// so a reconnect re-binds to the same logical seat.
func (s *Store) ParticipantID(room string) (string, error) {
	v, ok, err := s.Get(KeyParticipantIDs)
	if err != nil || !ok {
		return "", err
	}
	var ids map[string]string
	if err := json.Unmarshal([]byte(v), &ids); err != nil {
		return "", nil
	}
	return ids[room], nil
}

// SetParticipantID records the participant id used in room.
func (s *Store) SetParticipantID(room, id string) error {
	ids := make(map[string]string)
	if v, ok, err := s.Get(KeyParticipantIDs); err != nil {
		return err
	} else if ok {
		_ = json.Unmarshal([]byte(v), &ids)
	}
	ids[room] = id
	raw, err := json.Marshal(ids)
	if err != nil {
		return err
	}
	return s.Set(KeyParticipantIDs, string(raw))
}
