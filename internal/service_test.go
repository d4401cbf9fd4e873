package internal

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"
)

func newTestService(t *testing.T, embedder Embedder, blocklist *Blocklist, snapshots *SnapshotStore) (*MemoryService, *MemoryStore) {
	t.Helper()

	store := NewMemoryStore(DefaultCapacity)
	query := newTestEngine(t, store, embedder)
	return NewMemoryService(store, query, embedder, nil, blocklist, snapshots, time.Second), store
}

func TestStoreMemoryEmbedsAndInserts(t *testing.T) {
	emb := &mockEmbedder{vectors: map[string][]float32{
		"Go Patterns A tour of common Go patterns.": {0, 1, 0},
	}}
	svc, store := newTestService(t, emb, nil, nil)

	out, err := svc.StoreMemory(context.Background(), RawCapture{
		URL: "https://blog.example.com/go-patterns",
		Text: &TextAnalysis{
			Title:   "Go Patterns",
			Summary: "A tour of common Go patterns.",
		},
	})
	if err != nil {
		t.Fatalf("store memory: %v", err)
	}
	if out.MemoryID == "" {
		t.Fatal("no memory id returned")
	}
	if out.Clusters != 1 {
		t.Errorf("clusters = %d, want 1", out.Clusters)
	}

	rec, err := store.Get(out.MemoryID)
	if err != nil {
		t.Fatalf("get stored record: %v", err)
	}
	if len(rec.Embedding) != 3 || rec.Embedding[1] != 1 {
		t.Errorf("stored embedding = %v", rec.Embedding)
	}
	if rec.Domain != "blog.example.com" {
		t.Errorf("domain = %q", rec.Domain)
	}
}

func TestStoreMemoryEmbedderFailureDegrades(t *testing.T) {
	emb := &mockEmbedder{fail: errors.New("provider down")}
	svc, store := newTestService(t, emb, nil, nil)

	out, err := svc.StoreMemory(context.Background(), RawCapture{
		URL:  "https://example.com/page",
		Text: &TextAnalysis{Title: "Page"},
	})
	if err != nil {
		t.Fatalf("store memory: %v", err)
	}

	rec, err := store.Get(out.MemoryID)
	if err != nil {
		t.Fatalf("get stored record: %v", err)
	}
	if rec.Embedding != nil {
		t.Errorf("embedding = %v, want none after provider failure", rec.Embedding)
	}
}

func TestStoreMemorySkipsEmbedderWithoutText(t *testing.T) {
	emb := &mockEmbedder{}
	svc, _ := newTestService(t, emb, nil, nil)

	if _, err := svc.StoreMemory(context.Background(), RawCapture{URL: "https://example.com/"}); err != nil {
		t.Fatalf("store memory: %v", err)
	}
	if emb.calls != 0 {
		t.Errorf("embedder called %d times for a textless capture", emb.calls)
	}
}

func TestStoreMemoryKeepsProvidedEmbedding(t *testing.T) {
	emb := &mockEmbedder{}
	svc, store := newTestService(t, emb, nil, nil)

	out, err := svc.StoreMemory(context.Background(), RawCapture{
		URL:       "https://example.com/",
		Text:      &TextAnalysis{Title: "Page"},
		Embedding: []float32{0.5, 0.5, 0},
	})
	if err != nil {
		t.Fatalf("store memory: %v", err)
	}
	if emb.calls != 0 {
		t.Error("embedder called despite a capture-supplied embedding")
	}

	rec, _ := store.Get(out.MemoryID)
	if rec.Embedding[0] != 0.5 {
		t.Errorf("embedding = %v", rec.Embedding)
	}
}

func TestStoreMemoryDisabled(t *testing.T) {
	svc, store := newTestService(t, &mockEmbedder{}, nil, nil)
	svc.SetDisabled(true)

	_, err := svc.StoreMemory(context.Background(), RawCapture{URL: "https://example.com/"})
	if !errors.Is(err, ErrDisabled) {
		t.Fatalf("err = %v, want ErrDisabled", err)
	}
	if store.Len() != 0 {
		t.Errorf("store has %d records, want 0", store.Len())
	}

	svc.SetDisabled(false)
	if _, err := svc.StoreMemory(context.Background(), RawCapture{URL: "https://example.com/"}); err != nil {
		t.Fatalf("store after re-enable: %v", err)
	}
}

// disablingEmbedder flips the service off while its own provider call
// is in flight, modelling the user hitting the kill switch mid-capture.
type disablingEmbedder struct {
	svc *MemoryService
}

func (d *disablingEmbedder) Embed(ctx context.Context, text string) ([]float32, error) {
	d.svc.SetDisabled(true)
	return []float32{1, 0, 0}, nil
}

func (d *disablingEmbedder) Dimension() int { return 3 }

func TestStoreMemoryDiscardsInFlightResultWhenDisabled(t *testing.T) {
	store := NewMemoryStore(DefaultCapacity)
	emb := &disablingEmbedder{}
	query := newTestEngine(t, store, emb)
	svc := NewMemoryService(store, query, emb, nil, nil, nil, time.Second)
	emb.svc = svc

	_, err := svc.StoreMemory(context.Background(), RawCapture{
		URL:  "https://example.com/",
		Text: &TextAnalysis{Title: "Page"},
	})
	if !errors.Is(err, ErrDisabled) {
		t.Fatalf("err = %v, want ErrDisabled", err)
	}
	if store.Len() != 0 {
		t.Errorf("store mutated after mid-flight disable: %d records", store.Len())
	}
}

func TestStoreMemoryBlocklisted(t *testing.T) {
	dir := t.TempDir()
	if err := os.WriteFile(filepath.Join(dir, BlocklistFilename), []byte("mail.google.com\n"), 0o600); err != nil {
		t.Fatal(err)
	}
	blocklist, err := NewBlocklist(dir)
	if err != nil {
		t.Fatalf("load blocklist: %v", err)
	}

	svc, store := newTestService(t, &mockEmbedder{}, blocklist, nil)

	out, err := svc.StoreMemory(context.Background(), RawCapture{URL: "https://mail.google.com/inbox"})
	if err != nil {
		t.Fatalf("store memory: %v", err)
	}
	if !out.Skipped {
		t.Fatal("blocklisted capture was not skipped")
	}
	if out.SkipReason == "" {
		t.Error("skip reason empty")
	}
	if store.Len() != 0 {
		t.Errorf("store has %d records, want 0", store.Len())
	}
}

func TestAnalyzeAndStore(t *testing.T) {
	store := NewMemoryStore(DefaultCapacity)
	emb := &mockEmbedder{}
	query := newTestEngine(t, store, emb)
	analyzer := NewCaptureAnalyzer(&mockProvider{}, time.Second)
	svc := NewMemoryService(store, query, emb, analyzer, nil, nil, time.Second)

	out, err := svc.AnalyzeAndStore(context.Background(), "https://example.com/talk", "long page body")
	if err != nil {
		t.Fatalf("analyze and store: %v", err)
	}

	rec, err := store.Get(out.MemoryID)
	if err != nil {
		t.Fatalf("get stored record: %v", err)
	}
	if rec.Semantic.Confidence != 0.9 {
		t.Errorf("confidence = %v, want the model's 0.9", rec.Semantic.Confidence)
	}
	if len(rec.Semantic.Topics) == 0 {
		t.Error("no topics extracted from the analysis text")
	}
}

func TestAnalyzeAndStoreDegradesOnAnalyzerFailure(t *testing.T) {
	store := NewMemoryStore(DefaultCapacity)
	emb := &mockEmbedder{}
	query := newTestEngine(t, store, emb)
	analyzer := NewCaptureAnalyzer(&mockProvider{fail: errors.New("model unavailable")}, time.Second)
	svc := NewMemoryService(store, query, emb, analyzer, nil, nil, time.Second)

	out, err := svc.AnalyzeAndStore(context.Background(), "https://example.com/talk", "long page body")
	if err != nil {
		t.Fatalf("analyze and store: %v", err)
	}

	rec, err := store.Get(out.MemoryID)
	if err != nil {
		t.Fatalf("get stored record: %v", err)
	}
	if len(rec.Semantic.Topics) != 0 {
		t.Errorf("topics = %v, want none without analysis", rec.Semantic.Topics)
	}
}

func TestSearchMemories(t *testing.T) {
	emb := &mockEmbedder{vectors: map[string][]float32{
		"patterns": {1, 0, 0},
	}}
	svc, store := newTestService(t, emb, nil, nil)
	mustInsert(t, store, testRecord("a", 0, []float32{1, 0, 0}))

	res := svc.SearchMemories(context.Background(), "patterns", SearchOptions{})
	if res.Failed {
		t.Fatalf("search failed: %v", res.Err)
	}
	if len(res.Hits) != 1 || res.Hits[0].Record.ID != "a" {
		t.Errorf("hits = %v", res.Hits)
	}
}

func TestSnapshotRoundTripThroughService(t *testing.T) {
	dir := t.TempDir()
	if err := InitSnapshotStore(dir); err != nil {
		t.Fatalf("init snapshots: %v", err)
	}
	snapshots, err := NewSnapshotStore(dir)
	if err != nil {
		t.Fatalf("open snapshots: %v", err)
	}

	svc, store := newTestService(t, &mockEmbedder{}, nil, snapshots)
	mustInsert(t, store, testRecord("a", 0, []float32{1, 0}))
	mustInsert(t, store, testRecord("b", 60, []float32{0.9, 0.1}))

	snap, err := svc.SaveSnapshot(context.Background(), "")
	if err != nil {
		t.Fatalf("save snapshot: %v", err)
	}
	if snap.Hash == "" {
		t.Error("snapshot hash empty")
	}

	mustInsert(t, store, testRecord("c", 120, []float32{0, 1}))

	if err := svc.RestoreSnapshot(context.Background(), ""); err != nil {
		t.Fatalf("restore snapshot: %v", err)
	}
	if store.Len() != 2 {
		t.Errorf("store has %d records after restore, want 2", store.Len())
	}
	if _, err := store.Get("c"); !errors.Is(err, ErrNotFound) {
		t.Errorf("record c survived the restore: %v", err)
	}

	history, err := svc.SnapshotHistory(context.Background(), 0)
	if err != nil {
		t.Fatalf("history: %v", err)
	}
	if len(history) < 2 {
		t.Errorf("history has %d entries, want at least 2", len(history))
	}
}

func TestSnapshotOperationsWithoutStore(t *testing.T) {
	svc, _ := newTestService(t, &mockEmbedder{}, nil, nil)

	if _, err := svc.SaveSnapshot(context.Background(), ""); err == nil {
		t.Error("save without snapshot store should fail")
	}
	if err := svc.RestoreSnapshot(context.Background(), ""); err == nil {
		t.Error("restore without snapshot store should fail")
	}
	if _, err := svc.SnapshotHistory(context.Background(), 0); err == nil {
		t.Error("history without snapshot store should fail")
	}
}
