package persistence

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"github.com/natefinch/atomic"
	"go.uber.org/zap"

	"github.com/westservices/ticketd/internal/config"
)

// Collection names backed by the store.
const (
	CollectionTickets   = "tickets"
	CollectionStats     = "stats"
	CollectionBlacklist = "blacklist"
	CollectionRatings   = "ratings"
)

// SchemaVersion is written into every collection file. Decoding ignores
// unknown fields, so adding record fields stays forward-compatible without a
// version bump.
const SchemaVersion = 1

// envelope wraps a collection payload with its schema version on disk.
type envelope struct {
	SchemaVersion int             `json:"schema_version"`
	Data          json.RawMessage `json:"data"`
}

// FileStore is the durable record store: one JSON file per collection, each
// load/save collection-scoped and fully overwriting. Saves go through a
// temp-file rename so a crash never leaves a half-written collection, and a
// per-collection mutex serializes writers within the process.
type FileStore struct {
	dir    string
	logger *zap.Logger
	locks  map[string]*sync.Mutex
}

// NewFileStore opens the store rooted at cfg.DataDir, creating the directory
// and initializing any missing collection to its empty container.
func NewFileStore(cfg config.StorageConfig, logger *zap.Logger) (*FileStore, error) {
	if err := os.MkdirAll(cfg.DataDir, 0o755); err != nil {
		return nil, fmt.Errorf("create data dir: %w", err)
	}

	store := &FileStore{
		dir:    cfg.DataDir,
		logger: logger,
		locks: map[string]*sync.Mutex{
			CollectionTickets:   {},
			CollectionStats:     {},
			CollectionBlacklist: {},
			CollectionRatings:   {},
		},
	}

	for collection := range store.locks {
		if err := store.initCollection(collection); err != nil {
			return nil, err
		}
	}

	logger.Info("record store ready", zap.String("dir", cfg.DataDir))
	return store, nil
}

// Load decodes a collection into v. Unknown fields in the backing record are
// ignored so older binaries can read newer files.
func (s *FileStore) Load(collection string, v any) error {
	lock, err := s.lockFor(collection)
	if err != nil {
		return err
	}
	lock.Lock()
	defer lock.Unlock()

	return s.loadLocked(collection, v)
}

// Save atomically overwrites a collection with v.
func (s *FileStore) Save(collection string, v any) error {
	lock, err := s.lockFor(collection)
	if err != nil {
		return err
	}
	lock.Lock()
	defer lock.Unlock()

	return s.saveLocked(collection, v)
}

func (s *FileStore) loadLocked(collection string, v any) error {
	raw, err := os.ReadFile(s.path(collection))
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return json.Unmarshal(emptyContainer(collection), v)
		}
		return fmt.Errorf("read %s: %w", collection, err)
	}

	var env envelope
	if err := json.Unmarshal(raw, &env); err == nil && env.Data != nil {
		return json.Unmarshal(env.Data, v)
	}
	// Legacy file without the version envelope: the payload is the collection.
	if err := json.Unmarshal(raw, v); err != nil {
		return fmt.Errorf("decode %s: %w", collection, err)
	}
	return nil
}

func (s *FileStore) saveLocked(collection string, v any) error {
	data, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("encode %s: %w", collection, err)
	}
	payload, err := json.MarshalIndent(envelope{SchemaVersion: SchemaVersion, Data: data}, "", "  ")
	if err != nil {
		return fmt.Errorf("encode %s: %w", collection, err)
	}
	if err := atomic.WriteFile(s.path(collection), bytes.NewReader(payload)); err != nil {
		return fmt.Errorf("write %s: %w", collection, err)
	}
	return nil
}

func (s *FileStore) initCollection(collection string) error {
	path := s.path(collection)
	if _, err := os.Stat(path); err == nil {
		return nil
	} else if !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("stat %s: %w", collection, err)
	}

	var empty any
	if err := json.Unmarshal(emptyContainer(collection), &empty); err != nil {
		return err
	}
	return s.saveLocked(collection, empty)
}

func (s *FileStore) lockFor(collection string) (*sync.Mutex, error) {
	lock, ok := s.locks[collection]
	if !ok {
		return nil, fmt.Errorf("unknown collection %q", collection)
	}
	return lock, nil
}

func (s *FileStore) path(collection string) string {
	return filepath.Join(s.dir, collection+".json")
}

// emptyContainer returns the JSON zero value per collection: the blacklist is
// a list, everything else a keyed mapping.
func emptyContainer(collection string) []byte {
	if collection == CollectionBlacklist {
		return []byte("[]")
	}
	return []byte("{}")
}
