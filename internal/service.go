package internal

import (
	"context"
	"fmt"
	"sync/atomic"
	"time"
)

// StoreMemoryOutput reports what one capture turned into.
type StoreMemoryOutput struct {
	MemoryID      string `json:"memory_id,omitempty"`
	Relationships int    `json:"relationships"`
	Clusters      int    `json:"clusters"`
	Skipped       bool   `json:"skipped,omitempty"`
	SkipReason    string `json:"skip_reason,omitempty"`
}

// MemoryService is the surface the capture shell talks to. It composes
// the record builder, the multi-index store, the query engine and the
// optional collaborators (embedder, analyzer, blocklist, snapshots).
//
// Provider calls always happen before the store is touched, never while
// an insert is in progress, so a slow or failing provider can only cost
// the embedding, not store consistency.
type MemoryService struct {
	builder   *RecordBuilder
	store     *MemoryStore
	query     *QueryEngine
	embedder  Embedder
	analyzer  *CaptureAnalyzer
	blocklist *Blocklist
	snapshots *SnapshotStore
	timeout   time.Duration

	disabled atomic.Bool
}

func NewMemoryService(
	store *MemoryStore,
	query *QueryEngine,
	embedder Embedder,
	analyzer *CaptureAnalyzer,
	blocklist *Blocklist,
	snapshots *SnapshotStore,
	timeout time.Duration,
) *MemoryService {
	if timeout <= 0 {
		timeout = DefaultProviderTimeout
	}
	return &MemoryService{
		builder:   NewRecordBuilder(),
		store:     store,
		query:     query,
		embedder:  embedder,
		analyzer:  analyzer,
		blocklist: blocklist,
		snapshots: snapshots,
		timeout:   timeout,
	}
}

// SetDisabled toggles capture analysis. Results of provider calls that
// were in flight when analysis got disabled are discarded before any
// store mutation.
func (s *MemoryService) SetDisabled(disabled bool) {
	s.disabled.Store(disabled)
}

func (s *MemoryService) Disabled() bool {
	return s.disabled.Load()
}

// StoreMemory builds a record from the raw capture and inserts it.
// Missing analysis halves degrade to defaults; an embedding-provider
// failure degrades to a record without an embedding. Blocked domains
// are skipped, not errors.
func (s *MemoryService) StoreMemory(ctx context.Context, raw RawCapture) (*StoreMemoryOutput, error) {
	if s.disabled.Load() {
		return nil, ErrDisabled
	}

	if s.blocklist != nil && s.blocklist.BlockedURL(raw.URL) {
		return &StoreMemoryOutput{
			Skipped:    true,
			SkipReason: fmt.Sprintf("domain %s is blocklisted", DomainOf(raw.URL)),
		}, nil
	}

	if raw.Embedding == nil && s.embedder != nil {
		if text := raw.CombinedText(); text != "" {
			embedCtx, cancel := context.WithTimeout(ctx, s.timeout)
			vec, err := s.embedder.Embed(embedCtx, text)
			cancel()
			if err == nil {
				raw.Embedding = vec
			}
			// A failed embedding never blocks the capture.
		}
	}

	// Analysis may have been switched off while the provider call was
	// in flight; discard the result before any store mutation.
	if s.disabled.Load() {
		return nil, ErrDisabled
	}

	rec, err := s.builder.Build(raw)
	if err != nil {
		return nil, err
	}

	result, err := s.store.Insert(rec)
	if err != nil {
		return nil, err
	}

	return &StoreMemoryOutput{
		MemoryID:      result.RecordID,
		Relationships: result.Relationships,
		Clusters:      result.Clusters,
	}, nil
}

// AnalyzeAndStore runs the analysis provider over raw page text first,
// then stores the capture. Analyzer failures degrade to storing the
// capture without text analysis.
func (s *MemoryService) AnalyzeAndStore(ctx context.Context, pageURL, pageText string) (*StoreMemoryOutput, error) {
	raw := RawCapture{URL: pageURL}

	if s.analyzer != nil && pageText != "" {
		text, confidence, err := s.analyzer.Analyze(ctx, pageURL, pageText)
		if err == nil {
			raw.Text = text
			raw.Confidence = &confidence
		}
	}

	return s.StoreMemory(ctx, raw)
}

// SearchMemories serves a similarity search over the stored records.
func (s *MemoryService) SearchMemories(ctx context.Context, query string, opts SearchOptions) SearchResult {
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()
	return s.query.Search(ctx, query, opts)
}

// Get returns a single record by id.
func (s *MemoryService) Get(id string) (*MemoryRecord, error) {
	return s.store.Get(id)
}

// Analytics returns the aggregate snapshot of the store.
func (s *MemoryService) Analytics() AnalyticsSnapshot {
	return s.store.Analytics()
}

// ExportState serializes the store.
func (s *MemoryService) ExportState() ([]byte, error) {
	return s.store.ExportState()
}

// ImportState replaces the store contents from a serialized blob.
func (s *MemoryService) ImportState(blob []byte) error {
	return s.store.ImportState(blob)
}

// SaveSnapshot exports the store and commits the blob to the snapshot
// repository.
func (s *MemoryService) SaveSnapshot(ctx context.Context, message string) (*Snapshot, error) {
	if s.snapshots == nil {
		return nil, fmt.Errorf("no snapshot store configured")
	}

	blob, err := s.store.ExportState()
	if err != nil {
		return nil, err
	}

	if message == "" {
		message = fmt.Sprintf("snapshot: %d records", s.store.Len())
	}

	return s.snapshots.Save(ctx, blob, message)
}

// RestoreSnapshot loads a snapshot blob (current state when ref is
// empty) and imports it.
func (s *MemoryService) RestoreSnapshot(ctx context.Context, ref string) error {
	if s.snapshots == nil {
		return fmt.Errorf("no snapshot store configured")
	}

	var blob []byte
	var err error
	if ref == "" {
		blob, err = s.snapshots.Load(ctx)
	} else {
		blob, err = s.snapshots.LoadAt(ctx, ref)
	}
	if err != nil {
		return err
	}

	return s.store.ImportState(blob)
}

// SnapshotHistory lists committed snapshots, newest first.
func (s *MemoryService) SnapshotHistory(ctx context.Context, limit int) ([]*Snapshot, error) {
	if s.snapshots == nil {
		return nil, fmt.Errorf("no snapshot store configured")
	}
	return s.snapshots.History(ctx, limit)
}
