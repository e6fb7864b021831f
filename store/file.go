// Package store persists the most recent published feed record
package store

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/hashicorp/go-hclog"

	"github.com/brianoflondon/v4vapp-hive-pricefeed/domain"
)

// FileStore keeps a single feed record in a JSON file. Saves replace the
// file atomically so a crash mid-write can never leave a half-written
// record behind.
type FileStore struct {
	path string
	log  hclog.Logger
}

var _ domain.RecordStore = (*FileStore)(nil)

// persistedRecord is the on-disk layout: {"base": 0.350, "timestamp": <epoch>}
type persistedRecord struct {
	Base      float64 `json:"base"`
	Timestamp float64 `json:"timestamp"`
}

// NewFileStore creates a store backed by the given file path
func NewFileStore(path string, log hclog.Logger) *FileStore {
	return &FileStore{
		path: path,
		log:  log.Named("store"),
	}
}

// Load reads the prior record. A missing, unreadable or malformed file is
// reported as "no record" rather than an error, so it can never take the
// caller down.
func (f *FileStore) Load() (domain.FeedRecord, bool) {
	data, err := os.ReadFile(f.path)
	if err != nil {
		if !os.IsNotExist(err) {
			f.log.Warn("could not read prior feed record", "path", f.path, "error", err)
		}
		return domain.FeedRecord{}, false
	}

	var rec persistedRecord
	if err := json.Unmarshal(data, &rec); err != nil {
		f.log.Warn("prior feed record is malformed, ignoring it", "path", f.path, "error", err)
		return domain.FeedRecord{}, false
	}

	if rec.Base <= 0 || rec.Timestamp <= 0 {
		f.log.Warn("prior feed record is incomplete, ignoring it", "path", f.path)
		return domain.FeedRecord{}, false
	}

	sec := int64(rec.Timestamp)
	nsec := int64((rec.Timestamp - float64(sec)) * float64(time.Second))

	return domain.FeedRecord{
		Base:        rec.Base,
		PublishedAt: time.Unix(sec, nsec).UTC(),
	}, true
}

// Save atomically replaces the stored record via write-temp-then-rename
func (f *FileStore) Save(record domain.FeedRecord) error {
	data, err := json.Marshal(persistedRecord{
		Base:      record.Base,
		Timestamp: float64(record.PublishedAt.UnixNano()) / float64(time.Second),
	})
	if err != nil {
		return fmt.Errorf("failed to marshal feed record: %w", err)
	}

	dir := filepath.Dir(f.path)

	tmp, err := os.CreateTemp(dir, filepath.Base(f.path)+".tmp-*")
	if err != nil {
		return fmt.Errorf("failed to create temp state file: %w", err)
	}

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmp.Name())

		return fmt.Errorf("failed to write temp state file: %w", err)
	}

	if err := tmp.Close(); err != nil {
		os.Remove(tmp.Name())

		return fmt.Errorf("failed to close temp state file: %w", err)
	}

	if err := os.Rename(tmp.Name(), f.path); err != nil {
		os.Remove(tmp.Name())

		return fmt.Errorf("failed to replace state file: %w", err)
	}

	return nil
}
