// Package store persists the response cache and the question log as JSON
// files on disk. Writes go through an advisory file lock and a temp-file
// rename so concurrent processes never observe a half-written file.
package store

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"time"

	"github.com/gofrs/flock"

	"github.com/ChantelleAA/response-aigent/internal/cache"
	"github.com/ChantelleAA/response-aigent/internal/log"
)

// TimestampFormat is the layout used for all persisted timestamps.
const TimestampFormat = "2006-01-02 15:04:05"

// Store reads and writes the JSON state files under a single data directory.
//
// Store is safe for concurrent use by multiple goroutines; cross-process
// safety comes from the flock taken around each write.
type Store struct {
	cachePath string
	logPath   string
	logger    log.Logger
}

// New creates a Store rooted at the given file paths. The parent
// directories are created on first save, not here.
func New(cachePath, logPath string, logger log.Logger) *Store {
	if logger == nil {
		logger = log.NewNop()
	}
	return &Store{
		cachePath: cachePath,
		logPath:   logPath,
		logger:    logger.With("component", "store"),
	}
}

// cacheRecord is the on-disk form of a cache entry. Timestamps are
// stored as formatted strings so the files stay human-readable.
type cacheRecord struct {
	Question  string `json:"question"`
	Answer    string `json:"answer"`
	Timestamp string `json:"timestamp"`
}

// LoadCache reads the persisted cache entries, oldest first. A missing
// file yields an empty slice; a corrupt file is logged and also yields an
// empty slice so startup never fails on bad state.
func (s *Store) LoadCache() []cache.Entry {
	var records []cacheRecord
	if err := s.loadJSON(s.cachePath, &records); err != nil {
		s.logger.Warn("cache file unreadable, starting empty", "path", s.cachePath, "error", err)
		return nil
	}

	entries := make([]cache.Entry, 0, len(records))
	for _, r := range records {
		ts, err := time.ParseInLocation(TimestampFormat, r.Timestamp, time.Local)
		if err != nil {
			ts = time.Time{}
		}
		entries = append(entries, cache.Entry{Question: r.Question, Answer: r.Answer, Timestamp: ts})
	}
	return entries
}

// SaveCache writes the cache snapshot to disk. Errors are logged and
// returned; callers on the hot path may ignore them since persistence is
// best effort.
func (s *Store) SaveCache(entries []cache.Entry) error {
	records := make([]cacheRecord, 0, len(entries))
	for _, e := range entries {
		records = append(records, cacheRecord{
			Question:  e.Question,
			Answer:    e.Answer,
			Timestamp: e.Timestamp.Format(TimestampFormat),
		})
	}

	if err := s.saveJSON(s.cachePath, records); err != nil {
		s.logger.Warn("failed to save cache", "path", s.cachePath, "error", err)
		return err
	}
	s.logger.Debug("saved cache", "path", s.cachePath, "entries", len(records))
	return nil
}

// LoadQuestionLog reads the persisted question log. Missing or corrupt
// files yield an empty log.
func (s *Store) LoadQuestionLog() []LogRecord {
	var records []LogRecord
	if err := s.loadJSON(s.logPath, &records); err != nil {
		s.logger.Warn("question log unreadable, starting empty", "path", s.logPath, "error", err)
		return nil
	}
	return records
}

// SaveQuestionLog writes the full question log to disk.
func (s *Store) SaveQuestionLog(records []LogRecord) error {
	if err := s.saveJSON(s.logPath, records); err != nil {
		s.logger.Warn("failed to save question log", "path", s.logPath, "error", err)
		return err
	}
	s.logger.Debug("saved question log", "path", s.logPath, "records", len(records))
	return nil
}

func (s *Store) loadJSON(path string, v any) error {
	data, err := os.ReadFile(path)
	if errors.Is(err, fs.ErrNotExist) {
		return nil
	}
	if err != nil {
		return err
	}
	if len(data) == 0 {
		return nil
	}
	if err := json.Unmarshal(data, v); err != nil {
		return fmt.Errorf("failed to decode %s: %w", filepath.Base(path), err)
	}
	return nil
}

// saveJSON serializes v and swaps it into place atomically. The flock
// keeps two processes from interleaving their temp-file renames.
func (s *Store) saveJSON(path string, v any) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("failed to create data directory: %w", err)
	}

	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to encode %s: %w", filepath.Base(path), err)
	}

	lock := flock.New(path + ".lock")
	if err := lock.Lock(); err != nil {
		return fmt.Errorf("failed to lock %s: %w", filepath.Base(path), err)
	}
	defer func() {
		if err := lock.Unlock(); err != nil {
			s.logger.Warn("failed to release file lock", "path", path, "error", err)
		}
	}()

	tmp, err := os.CreateTemp(dir, filepath.Base(path)+".tmp-*")
	if err != nil {
		return fmt.Errorf("failed to create temp file: %w", err)
	}
	tmpPath := tmp.Name()

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmpPath)
		return fmt.Errorf("failed to write temp file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("failed to close temp file: %w", err)
	}
	if err := os.Rename(tmpPath, path); err != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("failed to replace %s: %w", filepath.Base(path), err)
	}
	return nil
}
