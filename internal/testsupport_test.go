package internal

import (
	"context"
	"fmt"
	"testing"
	"time"
)

// mockEmbedder returns canned vectors per input text, in the spirit of
// the deterministic test embedders shipped by local-first memory SDKs.
type mockEmbedder struct {
	vectors map[string][]float32
	fail    error
	calls   int
}

func (m *mockEmbedder) Embed(ctx context.Context, text string) ([]float32, error) {
	m.calls++
	if m.fail != nil {
		return nil, m.fail
	}
	if vec, ok := m.vectors[text]; ok {
		return vec, nil
	}
	return []float32{1, 0, 0}, nil
}

func (m *mockEmbedder) Dimension() int { return 3 }

var testBaseTime = time.Date(2025, time.March, 14, 10, 30, 0, 0, time.UTC)

// testRecord builds a minimal valid record offset seconds after the
// test base time.
func testRecord(id string, offsetSeconds int, embedding []float32) *MemoryRecord {
	ts := testBaseTime.Add(time.Duration(offsetSeconds) * time.Second)
	return &MemoryRecord{
		ID:        id,
		Timestamp: ts.UnixMilli(),
		URL:       fmt.Sprintf("https://example.com/%s", id),
		Domain:    "example.com",
		Embedding: embedding,
		Semantic: SemanticFeatures{
			ContentType: "webpage",
			Confidence:  0.5,
		},
		Temporal: temporalFeaturesAt(ts),
	}
}

func mustInsert(t *testing.T, s *MemoryStore, rec *MemoryRecord) InsertResult {
	t.Helper()
	res, err := s.Insert(rec)
	if err != nil {
		t.Fatalf("insert %s: %v", rec.ID, err)
	}
	return res
}

func newTestEngine(t *testing.T, s *MemoryStore, e Embedder) *QueryEngine {
	t.Helper()
	q, err := NewQueryEngine(s, e)
	if err != nil {
		t.Fatalf("new query engine: %v", err)
	}
	return q
}
