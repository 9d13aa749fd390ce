package history

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"
	"time"
)

var baseTime = time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC)

// at returns a healthy record offset from baseTime by d.
func at(d time.Duration) Record {
	return Record{Timestamp: baseTime.Add(d), Healthy: true}
}

// --- Trim ---

func TestTrim_DropsDenseDuplicates(t *testing.T) {
	// Entries at 0s, 30s, 65s: 30s is within a minute of the kept 0s
	// entry and is dropped; 65s is kept because it is measured against
	// the last KEPT entry, not the last seen one.
	in := []Record{at(0), at(30 * time.Second), at(65 * time.Second)}
	out := Trim(in, 100)

	if len(out) != 2 {
		t.Fatalf("len = %d, want 2", len(out))
	}
	if !out[0].Timestamp.Equal(baseTime) || !out[1].Timestamp.Equal(baseTime.Add(65*time.Second)) {
		t.Errorf("kept %v and %v, want 0s and 65s", out[0].Timestamp, out[1].Timestamp)
	}
}

func TestTrim_Idempotent(t *testing.T) {
	in := []Record{
		at(0), at(10 * time.Second), at(61 * time.Second),
		at(90 * time.Second), at(200 * time.Second), at(203 * time.Second),
	}
	once := Trim(in, 100)
	twice := Trim(once, 100)

	if len(once) != len(twice) {
		t.Fatalf("second trim changed length: %d -> %d", len(once), len(twice))
	}
	for i := range once {
		if !once[i].Timestamp.Equal(twice[i].Timestamp) {
			t.Errorf("entry %d changed on re-trim", i)
		}
	}
}

func TestTrim_OutputSpacing(t *testing.T) {
	var in []Record
	for i := 0; i < 500; i++ {
		in = append(in, at(time.Duration(i*13)*time.Second))
	}
	out := Trim(in, 1000)
	for i := 1; i < len(out); i++ {
		gap := out[i].Timestamp.Sub(out[i-1].Timestamp)
		if gap < minGap {
			t.Fatalf("entries %d and %d only %v apart", i-1, i, gap)
		}
	}
}

func TestTrim_SortsUnorderedInput(t *testing.T) {
	in := []Record{at(5 * time.Minute), at(0), at(10 * time.Minute)}
	out := Trim(in, 100)
	for i := 1; i < len(out); i++ {
		if !out[i].Timestamp.After(out[i-1].Timestamp) {
			t.Fatal("output not strictly increasing")
		}
	}
}

func TestTrim_RetentionKeepsMostRecent(t *testing.T) {
	const retention = 4320
	var in []Record
	for i := 0; i < retention+1; i++ {
		in = append(in, at(time.Duration(i)*time.Minute))
	}
	out := Trim(in, retention)

	if len(out) != retention {
		t.Fatalf("len = %d, want %d", len(out), retention)
	}
	// The oldest entry (t=0) is the one dropped.
	if !out[0].Timestamp.Equal(baseTime.Add(1 * time.Minute)) {
		t.Errorf("first kept = %v, want t=1m", out[0].Timestamp)
	}
	if !out[len(out)-1].Timestamp.Equal(baseTime.Add(time.Duration(retention) * time.Minute)) {
		t.Errorf("last kept = %v, want newest", out[len(out)-1].Timestamp)
	}
}

func TestTrim_EmptyInput(t *testing.T) {
	if out := Trim(nil, 100); len(out) != 0 {
		t.Errorf("trim of nil = %d entries", len(out))
	}
}

// --- Record wire format ---

func TestRecord_WireShape(t *testing.T) {
	rec := Record{Timestamp: time.Date(2026, 3, 1, 12, 30, 0, 0, time.UTC), Healthy: true}
	data, err := json.Marshal(rec)
	if err != nil {
		t.Fatal(err)
	}
	want := `{"timestamp":"2026-03-01T12:30:00Z","healthy":1}`
	if string(data) != want {
		t.Errorf("wire = %s, want %s", data, want)
	}

	var back Record
	if err := json.Unmarshal(data, &back); err != nil {
		t.Fatal(err)
	}
	if !back.Timestamp.Equal(rec.Timestamp) || back.Healthy != rec.Healthy {
		t.Errorf("round trip = %+v, want %+v", back, rec)
	}
}

func TestRecord_UnhealthyIsZero(t *testing.T) {
	data, err := json.Marshal(Record{Timestamp: baseTime})
	if err != nil {
		t.Fatal(err)
	}
	want := `{"timestamp":"2026-03-01T00:00:00Z","healthy":0}`
	if string(data) != want {
		t.Errorf("wire = %s, want %s", data, want)
	}
}

// --- JSON file store ---

func TestJSONFileStore_MissingFileIsEmpty(t *testing.T) {
	s := NewJSONFileStore(filepath.Join(t.TempDir(), "none.json"), 100)
	records, err := s.Load(context.Background())
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if len(records) != 0 {
		t.Errorf("records = %d, want 0", len(records))
	}
}

func TestJSONFileStore_AppendAndReload(t *testing.T) {
	path := filepath.Join(t.TempDir(), "history.json")
	s := NewJSONFileStore(path, 100)

	recs := []Record{at(0), at(2 * time.Minute), at(4 * time.Minute)}
	for _, rec := range recs {
		if err := s.Append(context.Background(), rec); err != nil {
			t.Fatalf("Append: %v", err)
		}
	}

	// A fresh store sees what the first one wrote.
	loaded, err := NewJSONFileStore(path, 100).Load(context.Background())
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if len(loaded) != len(recs) {
		t.Fatalf("loaded %d records, want %d", len(loaded), len(recs))
	}
	for i := range recs {
		if !loaded[i].Timestamp.Equal(recs[i].Timestamp) {
			t.Errorf("record %d = %v, want %v", i, loaded[i].Timestamp, recs[i].Timestamp)
		}
	}
}

func TestJSONFileStore_AppendCompacts(t *testing.T) {
	path := filepath.Join(t.TempDir(), "history.json")
	s := NewJSONFileStore(path, 100)

	// Two records 30s apart collapse to one on write.
	if err := s.Append(context.Background(), at(0)); err != nil {
		t.Fatal(err)
	}
	if err := s.Append(context.Background(), at(30*time.Second)); err != nil {
		t.Fatal(err)
	}

	loaded, err := NewJSONFileStore(path, 100).Load(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	if len(loaded) != 1 {
		t.Errorf("loaded %d records, want 1 after compaction", len(loaded))
	}
}

func TestJSONFileStore_CorruptFileStartsFresh(t *testing.T) {
	path := filepath.Join(t.TempDir(), "history.json")
	if err := os.WriteFile(path, []byte("{not json"), 0o644); err != nil {
		t.Fatal(err)
	}
	records, err := NewJSONFileStore(path, 100).Load(context.Background())
	if err != nil {
		t.Fatalf("Load of corrupt file should not error, got %v", err)
	}
	if len(records) != 0 {
		t.Errorf("records = %d, want 0", len(records))
	}
}
