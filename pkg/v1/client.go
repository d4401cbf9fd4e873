package v1

import (
	"context"
	"fmt"
	"time"

	"github.com/retracehq/retrace/internal"
)

// Client provides in-process programmatic access to the memory store.
type Client struct {
	store *internal.MemoryStore
	svc   *internal.MemoryService
}

type funcEmbedder struct {
	embed     EmbedFunc
	dimension int
}

func (f funcEmbedder) Embed(ctx context.Context, text string) ([]float32, error) {
	return f.embed(ctx, text)
}

func (f funcEmbedder) Dimension() int { return f.dimension }

// New creates a new Client with the given options.
func New(opts ...Option) (*Client, error) {
	cfg := &clientConfig{
		capacity: internal.DefaultCapacity,
		timeout:  internal.DefaultProviderTimeout,
	}
	for _, opt := range opts {
		opt(cfg)
	}

	var embedder internal.Embedder
	if cfg.embed != nil {
		embedder = funcEmbedder{embed: cfg.embed, dimension: cfg.dimension}
	}

	store := internal.NewMemoryStore(cfg.capacity)
	query, err := internal.NewQueryEngine(store, embedder)
	if err != nil {
		return nil, fmt.Errorf("create query engine: %w", err)
	}

	var blocklist *internal.Blocklist
	var snapshots *internal.SnapshotStore
	if cfg.dataDir != "" {
		blocklist, err = internal.NewBlocklist(cfg.dataDir)
		if err != nil {
			return nil, fmt.Errorf("load blocklist: %w", err)
		}
		snapshots, err = internal.NewSnapshotStore(cfg.dataDir)
		if err != nil {
			return nil, fmt.Errorf("open snapshot store: %w", err)
		}
	}

	svc := internal.NewMemoryService(store, query, embedder, nil, blocklist, snapshots, cfg.timeout)

	c := &Client{store: store, svc: svc}

	if snapshots != nil {
		if err := svc.RestoreSnapshot(context.Background(), ""); err != nil {
			return nil, fmt.Errorf("restore state: %w", err)
		}
	}
	return c, nil
}

// Store analyzes and stores one capture.
func (c *Client) Store(ctx context.Context, capture Capture) (*StoreResult, error) {
	raw := internal.RawCapture{
		URL:       capture.URL,
		Embedding: capture.Embedding,
	}
	if capture.Title != "" || capture.Summary != "" {
		raw.Text = &internal.TextAnalysis{
			Title:   capture.Title,
			Summary: capture.Summary,
		}
	}

	out, err := c.svc.StoreMemory(ctx, raw)
	if err != nil {
		return nil, fmt.Errorf("store: %w", err)
	}

	return &StoreResult{
		MemoryID:      out.MemoryID,
		Relationships: out.Relationships,
		Clusters:      out.Clusters,
		Skipped:       out.Skipped,
		SkipReason:    out.SkipReason,
	}, nil
}

// Get retrieves a memory by id.
func (c *Client) Get(ctx context.Context, id string) (*Memory, error) {
	rec, err := c.svc.Get(id)
	if err != nil {
		return nil, err
	}
	m := toMemory(rec)
	return &m, nil
}

// Search finds memories semantically similar to the query text.
func (c *Client) Search(ctx context.Context, query string, opts SearchOptions) ([]SearchHit, error) {
	result := c.svc.SearchMemories(ctx, query, internal.SearchOptions{
		Threshold: opts.Threshold,
		Limit:     opts.Limit,
		Domain:    opts.Domain,
		Category:  opts.Category,
		From:      opts.From,
		To:        opts.To,
	})
	if result.Failed {
		return nil, fmt.Errorf("search: %s", result.Err)
	}

	hits := make([]SearchHit, 0, len(result.Hits))
	for _, h := range result.Hits {
		hits = append(hits, SearchHit{
			Memory:     toMemory(h.Record),
			Similarity: h.Similarity,
		})
	}
	return hits, nil
}

// Analytics returns aggregate statistics over the store.
func (c *Client) Analytics(ctx context.Context) (*Analytics, error) {
	snap := c.svc.Analytics()
	return &Analytics{
		TotalRecords:   snap.TotalRecords,
		TotalClusters:  snap.TotalClusters,
		TotalEdges:     snap.TotalEdges,
		MeanConfidence: snap.MeanConfidence,
	}, nil
}

// Export serializes the full store state.
func (c *Client) Export(ctx context.Context) ([]byte, error) {
	return c.svc.ExportState()
}

// Import replaces the store contents from an exported state blob.
func (c *Client) Import(ctx context.Context, blob []byte) error {
	if err := c.svc.ImportState(blob); err != nil {
		return fmt.Errorf("import: %w", err)
	}
	return nil
}

// Save commits the current state to the snapshot history. Requires
// WithDataDir.
func (c *Client) Save(ctx context.Context, message string) (*Snapshot, error) {
	snap, err := c.svc.SaveSnapshot(ctx, message)
	if err != nil {
		return nil, fmt.Errorf("save: %w", err)
	}
	return toSnapshot(snap), nil
}

// History lists committed snapshots, newest first. Requires
// WithDataDir.
func (c *Client) History(ctx context.Context, limit int) ([]Snapshot, error) {
	commits, err := c.svc.SnapshotHistory(ctx, limit)
	if err != nil {
		return nil, fmt.Errorf("history: %w", err)
	}

	snapshots := make([]Snapshot, 0, len(commits))
	for _, s := range commits {
		snapshots = append(snapshots, *toSnapshot(s))
	}
	return snapshots, nil
}

// Close releases any resources held by the client.
func (c *Client) Close() error {
	return nil
}

func toMemory(rec *internal.MemoryRecord) Memory {
	return Memory{
		ID:          rec.ID,
		URL:         rec.URL,
		Domain:      rec.Domain,
		CapturedAt:  time.UnixMilli(rec.Timestamp).UTC(),
		ContentType: rec.Semantic.ContentType,
		Categories:  rec.Semantic.Categories,
		Topics:      rec.Semantic.Topics,
		Confidence:  rec.Semantic.Confidence,
	}
}

func toSnapshot(s *internal.Snapshot) *Snapshot {
	return &Snapshot{
		Hash:      s.Hash,
		Message:   s.Message,
		Timestamp: s.Timestamp,
	}
}
