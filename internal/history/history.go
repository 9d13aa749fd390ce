package history

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"sort"
	"time"
)

// timestampFormat is the persisted wire format of record timestamps.
const timestampFormat = "2006-01-02T15:04:05Z"

// Record is one durable timestamped health observation. Records are
// immutable once written; the store only ever appends.
type Record struct {
	Timestamp time.Time
	Healthy   bool
}

// wireRecord is the persisted JSON shape, with health as 0/1 for
// compatibility with existing history files.
type wireRecord struct {
	Timestamp string `json:"timestamp"`
	Healthy   int    `json:"healthy"`
}

// MarshalJSON encodes the record in its wire shape.
func (r Record) MarshalJSON() ([]byte, error) {
	w := wireRecord{Timestamp: r.Timestamp.UTC().Format(timestampFormat)}
	if r.Healthy {
		w.Healthy = 1
	}
	return json.Marshal(w)
}

// UnmarshalJSON decodes the wire shape back into a Record.
func (r *Record) UnmarshalJSON(data []byte) error {
	var w wireRecord
	if err := json.Unmarshal(data, &w); err != nil {
		return err
	}
	ts, err := ParseTimestamp(w.Timestamp)
	if err != nil {
		return fmt.Errorf("history: bad timestamp %q: %w", w.Timestamp, err)
	}
	r.Timestamp = ts
	r.Healthy = w.Healthy != 0
	return nil
}

// ParseTimestamp parses a persisted timestamp, accepting both the
// compact wire format and full RFC 3339.
func ParseTimestamp(s string) (time.Time, error) {
	if ts, err := time.Parse(timestampFormat, s); err == nil {
		return ts, nil
	}
	return time.Parse(time.RFC3339, s)
}

// Store is the three-operation contract every history backend satisfies.
// The monitor core depends only on this interface; the concrete backend
// is chosen once at startup.
type Store interface {
	// Load returns all persisted records in ascending timestamp order.
	Load(ctx context.Context) ([]Record, error)

	// Append durably writes one record.
	Append(ctx context.Context, rec Record) error

	// ListRaw writes a diagnostic dump of every persisted row to w.
	ListRaw(ctx context.Context, w io.Writer) error
}

// minGap is the spacing below which a record counts as a duplicate of
// the previously kept one. 59.99s rather than a full minute so records
// written on a one-minute cadence with minor jitter survive.
const minGap = 59990 * time.Millisecond

// Trim compacts a record sequence: sort ascending by timestamp, keep an
// entry only if it is the first or at least minGap after the previously
// kept entry, then keep only the most recent retention entries.
//
// Trim is deterministic and idempotent: Trim(Trim(x)) == Trim(x).
func Trim(records []Record, retention int) []Record {
	sorted := make([]Record, len(records))
	copy(sorted, records)
	sort.Slice(sorted, func(i, j int) bool {
		return sorted[i].Timestamp.Before(sorted[j].Timestamp)
	})

	kept := make([]Record, 0, len(sorted))
	for _, rec := range sorted {
		if len(kept) == 0 || rec.Timestamp.Sub(kept[len(kept)-1].Timestamp) >= minGap {
			kept = append(kept, rec)
		}
	}

	if len(kept) > retention {
		kept = kept[len(kept)-retention:]
	}
	return kept
}
