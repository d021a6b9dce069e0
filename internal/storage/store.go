// internal/storage/store.go
package storage

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"path/filepath"
	"regexp"
)

// Open returns the store for driver: "sqlite" uses dataDir/sessions.db,
// anything else a directory of JSON files at dataDir/sessions.
func Open(driver, dataDir string) (SnapshotStore, error) {
	if driver == "sqlite" {
		s, err := NewSQLiteStorage(filepath.Join(dataDir, "sessions.db"))
		if err != nil {
			return nil, err
		}
		return s, nil
	}
	fs, err := NewFileStorage(filepath.Join(dataDir, "sessions"))
	if err != nil {
		return nil, err
	}
	return fs, nil
}

var (
	// ErrNotFound is returned when no snapshot exists for an id.
	ErrNotFound = errors.New("snapshot not found")
	// ErrInvalidID rejects ids that are not safe as file names.
	ErrInvalidID = errors.New("invalid snapshot id")
)

// Record is the persisted envelope of one session: the schema version the
// state was written with and the state itself.
type Record struct {
	Version int             `json:"version"`
	State   json.RawMessage `json:"state"`
}

// SnapshotStore persists one versioned record per session id. Save replaces
// the whole record.
type SnapshotStore interface {
	Load(ctx context.Context, id string) (*Record, error)
	Save(ctx context.Context, id string, rec *Record) error
	Delete(ctx context.Context, id string) error
	List(ctx context.Context) ([]string, error)
	Close() error
}

var validID = regexp.MustCompile(`^[A-Za-z0-9_-]{1,128}$`)

func checkID(id string) error {
	if !validID.MatchString(id) {
		return fmt.Errorf("%w %q", ErrInvalidID, id)
	}
	return nil
}

// DecodeRecord reads an envelope. A bare state object without an envelope
// is read as version 0.
func DecodeRecord(data []byte) (*Record, error) {
	var probe map[string]json.RawMessage
	if err := json.Unmarshal(data, &probe); err != nil {
		return nil, fmt.Errorf("decode snapshot: %w", err)
	}
	state, hasState := probe["state"]
	version, hasVersion := probe["version"]
	if !hasState || !hasVersion {
		return &Record{Version: 0, State: append(json.RawMessage(nil), data...)}, nil
	}

	rec := &Record{State: state}
	if err := json.Unmarshal(version, &rec.Version); err != nil {
		return nil, fmt.Errorf("decode snapshot version: %w", err)
	}
	return rec, nil
}

// EncodeRecord writes the envelope.
func EncodeRecord(rec *Record) ([]byte, error) {
	return json.MarshalIndent(rec, "", "  ")
}
