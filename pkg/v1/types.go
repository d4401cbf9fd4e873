package v1

import "time"

// Capture is one page analysis handed to Store.
type Capture struct {
	URL       string    `json:"url"`
	Title     string    `json:"title,omitempty"`
	Summary   string    `json:"summary,omitempty"`
	Embedding []float32 `json:"embedding,omitempty"`
}

// Memory is the public view of one stored record.
type Memory struct {
	ID          string    `json:"id"`
	URL         string    `json:"url,omitempty"`
	Domain      string    `json:"domain"`
	CapturedAt  time.Time `json:"captured_at"`
	ContentType string    `json:"content_type"`
	Categories  []string  `json:"categories,omitempty"`
	Topics      []string  `json:"topics,omitempty"`
	Confidence  float32   `json:"confidence"`
}

// StoreResult reports what a capture turned into.
type StoreResult struct {
	MemoryID      string `json:"memory_id,omitempty"`
	Relationships int    `json:"relationships"`
	Clusters      int    `json:"clusters"`
	Skipped       bool   `json:"skipped,omitempty"`
	SkipReason    string `json:"skip_reason,omitempty"`
}

// SearchHit is one scored search result.
type SearchHit struct {
	Memory     Memory  `json:"memory"`
	Similarity float32 `json:"similarity"`
}

// SearchOptions narrows a search.
type SearchOptions struct {
	Threshold float32
	Limit     int
	Domain    string
	Category  string
	From      time.Time
	To        time.Time
}

// Analytics is the aggregate view of the store.
type Analytics struct {
	TotalRecords   int     `json:"total_records"`
	TotalClusters  int     `json:"total_clusters"`
	TotalEdges     int     `json:"total_edges"`
	MeanConfidence float32 `json:"mean_confidence"`
}

// Snapshot is one committed state in the snapshot history.
type Snapshot struct {
	Hash      string    `json:"hash"`
	Message   string    `json:"message"`
	Timestamp time.Time `json:"timestamp"`
}
