package internal

import "sort"

// Relationship edge kinds. Every discovered edge A->B also writes a
// reciprocal B->A edge of the same kind with ReverseSuffix appended.
const (
	RelDomain   = "domain-related"
	RelSemantic = "semantic-similar"
	RelTemporal = "temporal-related"
	RelVisual   = "visual-similar"

	ReverseSuffix = "-reverse"
)

// Per-kind discovery budgets and thresholds. Bounded degrees keep the
// graph from growing quadratically with the store.
const (
	maxDomainEdges   = 5
	maxSemanticEdges = 5
	maxTemporalEdges = 3
	maxVisualEdges   = 3

	domainEdgeStrength   = 0.7
	temporalEdgeStrength = 0.5

	semanticEdgeThreshold = 0.7
	visualEdgeThreshold   = 0.8
)

// Relationship is one directed, typed, weighted edge of the graph.
type Relationship struct {
	TargetID string  `json:"target_id"`
	Kind     string  `json:"kind"`
	Strength float32 `json:"strength"`
}

// discoverRelationships finds the forward edges for a record about to
// be inserted. It runs against pre-insert state only, so a record can
// never relate to itself. Caller holds the write lock.
func (s *MemoryStore) discoverRelationships(rec *MemoryRecord) []Relationship {
	var edges []Relationship
	edges = append(edges, s.domainEdges(rec)...)
	edges = append(edges, s.semanticEdges(rec)...)
	edges = append(edges, s.temporalEdges(rec)...)
	edges = append(edges, s.visualEdges(rec)...)
	return edges
}

// domainEdges links up to five prior records from the same domain.
func (s *MemoryStore) domainEdges(rec *MemoryRecord) []Relationship {
	var edges []Relationship
	for _, id := range s.domainIndex[rec.Domain] {
		if len(edges) == maxDomainEdges {
			break
		}
		edges = append(edges, Relationship{
			TargetID: id,
			Kind:     RelDomain,
			Strength: domainEdgeStrength,
		})
	}
	return edges
}

// semanticEdges links the five most similar prior records whose unified
// embedding exceeds the similarity threshold.
func (s *MemoryStore) semanticEdges(rec *MemoryRecord) []Relationship {
	if !rec.HasEmbedding() {
		return nil
	}
	return s.similarityEdges(rec.Embedding, RelSemantic, semanticEdgeThreshold, maxSemanticEdges,
		func(id string) []float32 { return s.embeddings[id] })
}

// visualEdges links the three most similar prior records by vision
// embedding, when the new record carries one.
func (s *MemoryStore) visualEdges(rec *MemoryRecord) []Relationship {
	vision := rec.VisionEmbedding()
	if len(vision) == 0 {
		return nil
	}
	return s.similarityEdges(vision, RelVisual, visualEdgeThreshold, maxVisualEdges,
		func(id string) []float32 {
			if aux, ok := s.auxEmbeddings[id]; ok {
				return aux[VisionEmbeddingKey]
			}
			return nil
		})
}

func (s *MemoryStore) similarityEdges(query []float32, kind string, threshold float32, limit int, vectorOf func(string) []float32) []Relationship {
	var edges []Relationship
	for _, id := range s.order {
		sim := Cosine(query, vectorOf(id))
		if sim > threshold {
			edges = append(edges, Relationship{TargetID: id, Kind: kind, Strength: sim})
		}
	}

	// Stable sort keeps insertion order for equal similarities.
	sort.SliceStable(edges, func(i, j int) bool {
		return edges[i].Strength > edges[j].Strength
	})
	if len(edges) > limit {
		edges = edges[:limit]
	}
	return edges
}

// temporalEdges links up to three prior records from the same UTC
// calendar day.
func (s *MemoryStore) temporalEdges(rec *MemoryRecord) []Relationship {
	var edges []Relationship
	for _, id := range s.dayIndex[dayKeyAt(recordTime(rec))] {
		if len(edges) == maxTemporalEdges {
			break
		}
		edges = append(edges, Relationship{
			TargetID: id,
			Kind:     RelTemporal,
			Strength: temporalEdgeStrength,
		})
	}
	return edges
}

// applyRelationships records the forward edges under the new record's
// id and mirrors each one onto its target. Caller holds the write lock.
func (s *MemoryStore) applyRelationships(id string, edges []Relationship) {
	if len(edges) == 0 {
		return
	}
	s.graph[id] = append(s.graph[id], edges...)
	for _, e := range edges {
		s.graph[e.TargetID] = append(s.graph[e.TargetID], Relationship{
			TargetID: id,
			Kind:     e.Kind + ReverseSuffix,
			Strength: e.Strength,
		})
	}
}

// stripEdgesTo removes every edge pointing at the given id. Full scan
// of the graph, acceptable at this store's scale.
func (s *MemoryStore) stripEdgesTo(id string) {
	for source, edges := range s.graph {
		kept := edges[:0]
		for _, e := range edges {
			if e.TargetID != id {
				kept = append(kept, e)
			}
		}
		if len(kept) == 0 {
			delete(s.graph, source)
			continue
		}
		s.graph[source] = kept
	}
}
