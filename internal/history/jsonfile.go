package history

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"log/slog"
	"os"
)

// JSONFileStore persists the timeline as a single JSON array on disk.
// Every append is a whole-file read-modify-write: the store keeps the
// loaded records in memory, appends, re-compacts, and rewrites the
// file. Retention bounds the file size.
type JSONFileStore struct {
	path      string
	retention int
	records   []Record
	loaded    bool
}

// NewJSONFileStore returns a store backed by the file at path. The file
// does not need to exist yet; a missing file is an empty history.
func NewJSONFileStore(path string, retention int) *JSONFileStore {
	return &JSONFileStore{path: path, retention: retention}
}

// Load reads the history file. Records come back compacted, sorted
// ascending. A corrupt file is logged and treated as empty rather than
// failing startup.
func (s *JSONFileStore) Load(_ context.Context) ([]Record, error) {
	data, err := os.ReadFile(s.path)
	if errors.Is(err, fs.ErrNotExist) {
		slog.Info("history: no existing file, starting fresh", "path", s.path)
		s.records = nil
		s.loaded = true
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("history: read %s: %w", s.path, err)
	}

	var records []Record
	if err := json.Unmarshal(data, &records); err != nil {
		slog.Error("history: corrupt file, starting fresh", "path", s.path, "err", err)
		s.records = nil
		s.loaded = true
		return nil, nil
	}

	s.records = Trim(records, s.retention)
	s.loaded = true
	out := make([]Record, len(s.records))
	copy(out, s.records)
	return out, nil
}

// Append adds rec to the in-memory history and rewrites the whole file.
func (s *JSONFileStore) Append(ctx context.Context, rec Record) error {
	if !s.loaded {
		if _, err := s.Load(ctx); err != nil {
			return err
		}
	}

	s.records = Trim(append(s.records, rec), s.retention)

	data, err := json.MarshalIndent(s.records, "", "    ")
	if err != nil {
		return fmt.Errorf("history: marshal: %w", err)
	}
	if err := os.WriteFile(s.path, data, 0o644); err != nil {
		return fmt.Errorf("history: write %s: %w", s.path, err)
	}
	return nil
}

// ListRaw dumps every persisted record as one line per row.
func (s *JSONFileStore) ListRaw(ctx context.Context, w io.Writer) error {
	records, err := s.Load(ctx)
	if err != nil {
		return err
	}
	for _, rec := range records {
		line, err := json.Marshal(rec)
		if err != nil {
			return err
		}
		fmt.Fprintln(w, string(line))
	}
	fmt.Fprintf(w, "Total entities: %d\n", len(records))
	return nil
}
