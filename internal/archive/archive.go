// Package archive persists transcript documents and stages the copy attached
// to the archival log-channel record.
package archive

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/natefinch/atomic"
	"go.uber.org/zap"

	"github.com/westservices/ticketd/internal/config"
)

const stagingDir = ".staging"

// Store keeps one durable transcript file per closed ticket, retrievable by
// ticket ID, plus a transient staging copy used for the log-channel upload.
type Store struct {
	dir    string
	logger *zap.Logger
}

// NewStore opens the archive rooted at cfg.TranscriptsDir.
func NewStore(cfg config.StorageConfig, logger *zap.Logger) (*Store, error) {
	if err := os.MkdirAll(filepath.Join(cfg.TranscriptsDir, stagingDir), 0o755); err != nil {
		return nil, fmt.Errorf("create transcripts dir: %w", err)
	}
	return &Store{dir: cfg.TranscriptsDir, logger: logger}, nil
}

// Save durably writes the transcript for a ticket.
func (s *Store) Save(ticketID, text string) error {
	if err := atomic.WriteFile(s.path(ticketID), strings.NewReader(text)); err != nil {
		return fmt.Errorf("archive transcript %s: %w", ticketID, err)
	}
	s.logger.Info("transcript archived", zap.String("ticket_id", ticketID))
	return nil
}

// Read returns the archived transcript for a ticket, or ok=false if none exists.
func (s *Store) Read(ticketID string) (string, bool, error) {
	raw, err := os.ReadFile(s.path(ticketID))
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return "", false, nil
		}
		return "", false, err
	}
	return string(raw), true, nil
}

// Stage writes the transient upload copy and returns its path.
func (s *Store) Stage(ticketID, text string) (string, error) {
	path := filepath.Join(s.dir, stagingDir, ticketID+"_transcript.txt")
	if err := atomic.WriteFile(path, strings.NewReader(text)); err != nil {
		return "", fmt.Errorf("stage transcript %s: %w", ticketID, err)
	}
	return path, nil
}

// Unstage removes the transient upload copy once the record is durably
// archived. A missing file is not an error.
func (s *Store) Unstage(ticketID string) {
	path := filepath.Join(s.dir, stagingDir, ticketID+"_transcript.txt")
	if err := os.Remove(path); err != nil && !errors.Is(err, os.ErrNotExist) {
		s.logger.Warn("failed to remove staged transcript", zap.String("ticket_id", ticketID), zap.Error(err))
	}
}

func (s *Store) path(ticketID string) string {
	return filepath.Join(s.dir, ticketID+".txt")
}
