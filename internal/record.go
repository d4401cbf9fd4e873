package internal

import (
	"errors"
	"strings"
)

var (
	ErrNotFound    = errors.New("memory not found")
	ErrMissingID   = errors.New("record has no id")
	ErrDuplicateID = errors.New("record id already stored")
	ErrDisabled    = errors.New("capture analysis is disabled")
	ErrNoEmbedder  = errors.New("no embedding provider configured")
)

// VisionEmbeddingKey is the auxiliary-embedding slot holding the
// vision-only vector.
const VisionEmbeddingKey = "vision"

// SemanticFeatures are derived once by the RecordBuilder and frozen.
type SemanticFeatures struct {
	ContentType string   `json:"content_type"`
	Categories  []string `json:"categories,omitempty"`
	Topics      []string `json:"topics,omitempty"`
	Quality     float32  `json:"quality"`
	Confidence  float32  `json:"confidence"`
}

// TemporalFeatures are derived from the record timestamp (UTC).
// Month is 1-12. Season follows the Northern-hemisphere convention:
// months 2-4 spring, 5-7 summer, 8-10 fall, everything else winter.
type TemporalFeatures struct {
	Hour    int    `json:"hour"`
	Weekday int    `json:"weekday"`
	Month   int    `json:"month"`
	Season  string `json:"season"`
}

// MemoryRecord is one stored analysis of a single page capture.
// Records are immutable once inserted; eviction of other records only
// removes relationship edges pointing at the evicted ids.
type MemoryRecord struct {
	ID        string `json:"id"`
	Timestamp int64  `json:"timestamp"` // milliseconds since epoch
	URL       string `json:"url,omitempty"`
	Domain    string `json:"domain"`

	// Embedding is the unified vector for the whole analysis. Nil means
	// the embedding provider failed; the record is then excluded from
	// similarity search but indexed everywhere else.
	Embedding     []float32            `json:"embedding,omitempty"`
	AuxEmbeddings map[string][]float32 `json:"aux_embeddings,omitempty"`

	Semantic SemanticFeatures `json:"semantic"`
	Temporal TemporalFeatures `json:"temporal"`

	// Provenance carries processing metadata for audit and debugging.
	// The store never interprets it.
	Provenance map[string]any `json:"provenance,omitempty"`
}

// HasEmbedding reports whether the record participates in similarity search.
func (r *MemoryRecord) HasEmbedding() bool {
	return len(r.Embedding) > 0
}

// VisionEmbedding returns the vision-only auxiliary vector, if any.
func (r *MemoryRecord) VisionEmbedding() []float32 {
	if r.AuxEmbeddings == nil {
		return nil
	}
	return r.AuxEmbeddings[VisionEmbeddingKey]
}

// TextAnalysis is the free-text analysis half of a raw capture.
type TextAnalysis struct {
	Title     string `json:"title,omitempty"`
	Summary   string `json:"summary,omitempty"`
	Synthesis string `json:"synthesis,omitempty"`
}

// VisionAnalysis is the vision half of a raw capture.
type VisionAnalysis struct {
	Description string    `json:"description,omitempty"`
	Embedding   []float32 `json:"embedding,omitempty"`
}

// RawCapture is the raw analysis result handed over by the capture
// pipeline. Every field except URL is optional; the RecordBuilder
// substitutes safe defaults for whatever is missing.
type RawCapture struct {
	URL        string          `json:"url"`
	Text       *TextAnalysis   `json:"text,omitempty"`
	Vision     *VisionAnalysis `json:"vision,omitempty"`
	Embedding  []float32       `json:"embedding,omitempty"`
	Quality    *float32        `json:"quality,omitempty"`
	Confidence *float32        `json:"confidence,omitempty"`
	Provenance map[string]any  `json:"provenance,omitempty"`
}

// CombinedText is the concatenated free text of the capture, used for
// topic extraction and as the embedding input.
func (c RawCapture) CombinedText() string {
	var parts []string
	if c.Text != nil {
		parts = appendNonEmpty(parts, c.Text.Title, c.Text.Summary, c.Text.Synthesis)
	}
	if c.Vision != nil {
		parts = appendNonEmpty(parts, c.Vision.Description)
	}
	return strings.Join(parts, " ")
}

func appendNonEmpty(dst []string, values ...string) []string {
	for _, v := range values {
		if v != "" {
			dst = append(dst, v)
		}
	}
	return dst
}
