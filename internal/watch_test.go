package internal

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"
)

func newTestWatcher(t *testing.T) (*InboxWatcher, *MemoryStore, string) {
	t.Helper()

	dir := t.TempDir()
	emb := &mockEmbedder{}
	store := NewMemoryStore(DefaultCapacity)
	query := newTestEngine(t, store, emb)
	svc := NewMemoryService(store, query, emb, nil, nil, nil, time.Second)

	return NewInboxWatcher(svc, dir, nil), store, dir
}

func TestSweepIngestsWaitingCaptures(t *testing.T) {
	w, store, dir := newTestWatcher(t)

	capture := `{"url":"https://example.com/a","text":{"title":"First capture"}}`
	path := filepath.Join(dir, "capture-1.json")
	if err := os.WriteFile(path, []byte(capture), 0o600); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(dir, "notes.txt"), []byte("not a capture"), 0o600); err != nil {
		t.Fatal(err)
	}

	w.sweep(context.Background())

	if store.Len() != 1 {
		t.Fatalf("store has %d records, want 1", store.Len())
	}
	if _, err := os.Stat(path); !os.IsNotExist(err) {
		t.Error("ingested capture file not removed")
	}
	if _, err := os.Stat(filepath.Join(dir, "notes.txt")); err != nil {
		t.Error("non-capture file should be left alone")
	}
}

func TestIngestQuarantinesMalformedCapture(t *testing.T) {
	w, store, dir := newTestWatcher(t)

	path := filepath.Join(dir, "broken.json")
	if err := os.WriteFile(path, []byte("{not json"), 0o600); err != nil {
		t.Fatal(err)
	}

	w.ingest(context.Background(), path)

	if store.Len() != 0 {
		t.Errorf("store has %d records, want 0", store.Len())
	}
	if _, err := os.Stat(path + ".bad"); err != nil {
		t.Errorf("quarantined file missing: %v", err)
	}
	if _, err := os.Stat(path); !os.IsNotExist(err) {
		t.Error("original malformed file still present")
	}
}

func TestIngestMissingFileIsQuiet(t *testing.T) {
	w, store, dir := newTestWatcher(t)

	w.ingest(context.Background(), filepath.Join(dir, "gone.json"))

	if store.Len() != 0 {
		t.Errorf("store has %d records, want 0", store.Len())
	}
}

func TestIngestKeepsFileWhenStoreFails(t *testing.T) {
	w, store, dir := newTestWatcher(t)
	w.svc.SetDisabled(true)

	path := filepath.Join(dir, "capture.json")
	if err := os.WriteFile(path, []byte(`{"url":"https://example.com/"}`), 0o600); err != nil {
		t.Fatal(err)
	}

	w.ingest(context.Background(), path)

	if store.Len() != 0 {
		t.Errorf("store has %d records, want 0", store.Len())
	}
	if _, err := os.Stat(path); err != nil {
		t.Errorf("capture should survive a store failure: %v", err)
	}
}

func TestRunRequiresExistingDir(t *testing.T) {
	w, _, _ := newTestWatcher(t)
	w.dir = filepath.Join(t.TempDir(), "does-not-exist")

	if err := w.Run(context.Background()); err == nil {
		t.Fatal("expected error for missing inbox directory")
	}
}
