package internal

import (
	"context"
	"sort"
	"time"

	"github.com/dgraph-io/ristretto"
)

const (
	// DefaultSearchThreshold is the minimum similarity for a search hit
	// when the caller does not set one.
	DefaultSearchThreshold = 0.7
	// DefaultSearchLimit caps the result list when the caller does not
	// set a limit.
	DefaultSearchLimit = 10
)

// SearchOptions tune a similarity search. The zero value means
// "defaults": threshold 0.7, limit 10, no filters.
type SearchOptions struct {
	Threshold float32
	Limit     int

	// Post-filters applied after the similarity scan.
	Domain   string
	Category string
	From     time.Time // inclusive, zero means unbounded
	To       time.Time // inclusive, zero means unbounded

	// IncludeRelationships attaches each hit's graph neighbors,
	// resolved to live records only.
	IncludeRelationships bool
}

func (o SearchOptions) threshold() float32 {
	if o.Threshold == 0 {
		return DefaultSearchThreshold
	}
	return o.Threshold
}

func (o SearchOptions) limit() int {
	if o.Limit <= 0 {
		return DefaultSearchLimit
	}
	return o.Limit
}

// RelatedHit is one resolved relationship neighbor of a search hit.
type RelatedHit struct {
	Record   *MemoryRecord `json:"record"`
	Kind     string        `json:"kind"`
	Strength float32       `json:"strength"`
}

// SearchHit is one scored search result.
type SearchHit struct {
	Record     *MemoryRecord `json:"record"`
	Similarity float32       `json:"similarity"`
	Related    []RelatedHit  `json:"related,omitempty"`
}

// SearchResult is the outcome of a search. Provider failures never
// escape as errors; they surface as Failed plus an empty hit list.
type SearchResult struct {
	Hits   []SearchHit `json:"hits"`
	Failed bool        `json:"failed,omitempty"`
	Err    string      `json:"error,omitempty"`
}

// QueryEngine serves similarity search over a MemoryStore. Query
// embeddings are cached in ristretto: the popup UI tends to re-issue
// the same query text while the user types and refines.
type QueryEngine struct {
	store    *MemoryStore
	embedder Embedder
	cache    *ristretto.Cache
}

func NewQueryEngine(store *MemoryStore, embedder Embedder) (*QueryEngine, error) {
	cache, err := ristretto.NewCache(&ristretto.Config{
		NumCounters: 10_000,
		MaxCost:     8 << 20, // 8 MiB of cached query vectors
		BufferItems: 64,
	})
	if err != nil {
		return nil, err
	}

	return &QueryEngine{
		store:    store,
		embedder: embedder,
		cache:    cache,
	}, nil
}

// Search embeds the query text and scans the embedding index. An
// embedding-provider failure yields an empty, flagged result.
func (q *QueryEngine) Search(ctx context.Context, query string, opts SearchOptions) SearchResult {
	vec, err := q.queryEmbedding(ctx, query)
	if err != nil {
		return SearchResult{Failed: true, Err: err.Error()}
	}
	return q.SearchByVector(vec, opts)
}

func (q *QueryEngine) queryEmbedding(ctx context.Context, query string) ([]float32, error) {
	if q.embedder == nil {
		return nil, ErrNoEmbedder
	}

	if cached, ok := q.cache.Get(query); ok {
		if vec, ok := cached.([]float32); ok {
			return vec, nil
		}
	}

	vec, err := q.embedder.Embed(ctx, query)
	if err != nil {
		return nil, err
	}

	q.cache.Set(query, vec, int64(4*len(vec)))
	return vec, nil
}

// SearchByVector runs the similarity scan for an already-computed query
// vector. Results are sorted by descending similarity; equal scores
// keep insertion order. Deterministic for a fixed store and vector.
func (q *QueryEngine) SearchByVector(vec []float32, opts SearchOptions) SearchResult {
	s := q.store
	s.mu.RLock()
	defer s.mu.RUnlock()

	threshold := opts.threshold()
	var hits []SearchHit

	for _, id := range s.order {
		emb, ok := s.embeddings[id]
		if !ok {
			continue
		}
		sim := Cosine(vec, emb)
		if sim < threshold {
			continue
		}
		rec := s.records[id]
		if !matchesFilters(rec, opts) {
			continue
		}
		hits = append(hits, SearchHit{Record: rec, Similarity: sim})
	}

	sort.SliceStable(hits, func(i, j int) bool {
		return hits[i].Similarity > hits[j].Similarity
	})
	if limit := opts.limit(); len(hits) > limit {
		hits = hits[:limit]
	}

	if opts.IncludeRelationships {
		for i := range hits {
			hits[i].Related = q.resolveRelated(hits[i].Record.ID)
		}
	}

	return SearchResult{Hits: hits}
}

func matchesFilters(rec *MemoryRecord, opts SearchOptions) bool {
	if opts.Domain != "" && rec.Domain != opts.Domain {
		return false
	}
	if opts.Category != "" && !containsString(rec.Semantic.Categories, opts.Category) {
		return false
	}
	if !opts.From.IsZero() && rec.Timestamp < opts.From.UnixMilli() {
		return false
	}
	if !opts.To.IsZero() && rec.Timestamp > opts.To.UnixMilli() {
		return false
	}
	return true
}

// resolveRelated maps a record's edges to live neighbor records.
// Dangling edges to evicted ids are dropped silently. Caller holds at
// least the read lock.
func (q *QueryEngine) resolveRelated(id string) []RelatedHit {
	edges := q.store.graph[id]
	if len(edges) == 0 {
		return nil
	}

	related := make([]RelatedHit, 0, len(edges))
	for _, e := range edges {
		rec, ok := q.store.records[e.TargetID]
		if !ok {
			continue
		}
		related = append(related, RelatedHit{
			Record:   rec,
			Kind:     e.Kind,
			Strength: e.Strength,
		})
	}
	if len(related) == 0 {
		return nil
	}
	return related
}

func containsString(list []string, s string) bool {
	for _, v := range list {
		if v == s {
			return true
		}
	}
	return false
}
