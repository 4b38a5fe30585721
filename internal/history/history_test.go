package history

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"
)

func testStore(t *testing.T) *Store {
	t.Helper()
	dir := t.TempDir()
	s, err := Open(filepath.Join(dir, "test.db"))
	if err != nil {
		t.Fatalf("opening test db: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

func sampleEntries() []Entry {
	now := time.Now()
	return []Entry{
		{At: now.Add(-48 * time.Hour), SourceID: 0, URL: "https://a.com/1.json", OK: true, Count: 100, Took: 300 * time.Millisecond},
		{At: now.Add(-2 * time.Hour), SourceID: 1, URL: "https://a.com/2.json", OK: false, Error: "empty response body", Took: 40 * time.Millisecond},
		{At: now.Add(-1 * time.Hour), SourceID: 0, URL: "https://a.com/1.json", OK: true, Count: 99, Took: 250 * time.Millisecond},
	}
}

func seed(t *testing.T, s *Store) {
	t.Helper()
	for _, e := range sampleEntries() {
		if err := s.Record(e); err != nil {
			t.Fatalf("record: %v", err)
		}
	}
}

func TestRecordAndRecent(t *testing.T) {
	s := testStore(t)
	seed(t, s)

	got, err := s.Recent(10)
	if err != nil {
		t.Fatalf("recent: %v", err)
	}
	if len(got) != 3 {
		t.Fatalf("expected 3 entries, got %d", len(got))
	}
	// Newest first
	if got[0].Count != 99 || got[2].Count != 100 {
		t.Errorf("unexpected order: %+v", got)
	}
	failed := got[1]
	if failed.OK || failed.Error != "empty response body" || failed.SourceID != 1 {
		t.Errorf("unexpected failed entry: %+v", failed)
	}
	if got[0].Took != 250*time.Millisecond {
		t.Errorf("expected took to round-trip, got %v", got[0].Took)
	}
}

func TestRecentLimit(t *testing.T) {
	s := testStore(t)
	seed(t, s)

	got, err := s.Recent(2)
	if err != nil {
		t.Fatalf("recent: %v", err)
	}
	if len(got) != 2 {
		t.Errorf("expected 2 entries, got %d", len(got))
	}
}

func TestEmptyDB(t *testing.T) {
	s := testStore(t)
	got, err := s.Recent(0)
	if err != nil {
		t.Fatalf("recent: %v", err)
	}
	if len(got) != 0 {
		t.Errorf("expected no entries, got %d", len(got))
	}
}

func TestPruneDeletesOldEntries(t *testing.T) {
	s := testStore(t)
	seed(t, s)

	deleted, err := s.Prune(24 * time.Hour)
	if err != nil {
		t.Fatalf("prune: %v", err)
	}
	if deleted != 1 {
		t.Errorf("expected 1 pruned, got %d", deleted)
	}
	got, _ := s.Recent(10)
	if len(got) != 2 {
		t.Errorf("expected 2 remaining entries, got %d", len(got))
	}
}

func TestPruneNothingToDelete(t *testing.T) {
	s := testStore(t)
	seed(t, s)

	deleted, err := s.Prune(365 * 24 * time.Hour)
	if err != nil {
		t.Fatalf("prune: %v", err)
	}
	if deleted != 0 {
		t.Errorf("expected 0 pruned, got %d", deleted)
	}
}

func TestStats(t *testing.T) {
	dir := t.TempDir()
	dbPath := filepath.Join(dir, "test.db")
	s, err := Open(dbPath)
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	defer s.Close()
	seed(t, s)

	count, size, err := s.Stats(dbPath)
	if err != nil {
		t.Fatalf("stats: %v", err)
	}
	if count != 3 {
		t.Errorf("expected count 3, got %d", count)
	}
	if size == 0 {
		t.Error("expected non-zero db size")
	}
}

func TestObserverRecordsOutcomes(t *testing.T) {
	s := testStore(t)
	fixed := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	o := NewObserver(s, func(id int) (string, error) {
		if id == 0 {
			return "https://example.com/petitions-1.json", nil
		}
		return "", errors.New("unknown")
	}, nil)
	o.now = func() time.Time { return fixed }

	o.LoadFinished(0, 42, nil, time.Second)
	o.LoadFinished(7, 0, errors.New("unexpected status 500"), 0)

	got, err := s.Recent(10)
	if err != nil {
		t.Fatalf("recent: %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("expected 2 entries, got %d", len(got))
	}
	var ok, failed Entry
	for _, e := range got {
		if e.OK {
			ok = e
		} else {
			failed = e
		}
	}
	if ok.Count != 42 || ok.URL != "https://example.com/petitions-1.json" || !ok.At.Equal(fixed) {
		t.Errorf("unexpected success entry: %+v", ok)
	}
	if failed.SourceID != 7 || failed.URL != "" || failed.Error != "unexpected status 500" {
		t.Errorf("unexpected failure entry: %+v", failed)
	}
}

func TestOpenCreatesDir(t *testing.T) {
	dir := t.TempDir()
	dbPath := filepath.Join(dir, "sub", "deep", "test.db")

	s, err := Open(dbPath)
	if err != nil {
		t.Fatalf("opening db in nested dir: %v", err)
	}
	s.Close()

	if _, err := os.Stat(filepath.Dir(dbPath)); os.IsNotExist(err) {
		t.Error("expected directory to be created")
	}
}
