package internal

import (
	"fmt"
	"strings"

	"github.com/google/uuid"
)

// ClusterSimilarityThreshold is the minimum cosine similarity between a
// record's embedding and a cluster centroid for the record to join the
// cluster instead of founding a new one.
const ClusterSimilarityThreshold = 0.85

// ConceptCluster is a soft group of records with mutually similar
// embeddings. The centroid is the arithmetic mean of the members'
// embeddings and is recomputed on every membership change.
type ConceptCluster struct {
	ID       string    `json:"id"`
	Centroid []float32 `json:"centroid"`
	Members  []string  `json:"members"`
	Label    string    `json:"label,omitempty"`
}

func (c *ConceptCluster) hasMember(id string) bool {
	for _, m := range c.Members {
		if m == id {
			return true
		}
	}
	return false
}

// assignCluster places a freshly indexed record into the best matching
// cluster, or founds a new one. Caller holds the write lock and has
// already added the record's embedding to the embedding index.
func (s *MemoryStore) assignCluster(rec *MemoryRecord) {
	var best *ConceptCluster
	var bestSim float32

	for _, id := range s.clusterOrder {
		c := s.clusters[id]
		sim := Cosine(rec.Embedding, c.Centroid)
		if best == nil || sim > bestSim {
			best = c
			bestSim = sim
		}
	}

	if best != nil && bestSim > ClusterSimilarityThreshold {
		best.Members = append(best.Members, rec.ID)
		s.recomputeCentroid(best)
		return
	}

	c := &ConceptCluster{
		ID:       uuid.NewString(),
		Centroid: cloneVector(rec.Embedding),
		Members:  []string{rec.ID},
		Label:    clusterLabel(rec),
	}
	s.clusters[c.ID] = c
	s.clusterOrder = append(s.clusterOrder, c.ID)
}

// recomputeCentroid rebuilds a cluster centroid from the live member
// embeddings. Caller holds the write lock.
func (s *MemoryStore) recomputeCentroid(c *ConceptCluster) {
	vectors := make([][]float32, 0, len(c.Members))
	for _, id := range c.Members {
		if emb, ok := s.embeddings[id]; ok {
			vectors = append(vectors, emb)
		}
	}
	c.Centroid = meanVector(vectors)
}

// removeFromClusters strips a record from every cluster, pruning
// clusters left empty. Caller holds the write lock.
func (s *MemoryStore) removeFromClusters(id string) {
	survivors := s.clusterOrder[:0]
	for _, cid := range s.clusterOrder {
		c := s.clusters[cid]
		if c.hasMember(id) {
			c.Members = removeString(c.Members, id)
			if len(c.Members) == 0 {
				delete(s.clusters, cid)
				continue
			}
			s.recomputeCentroid(c)
		}
		survivors = append(survivors, cid)
	}
	s.clusterOrder = survivors
}

// clusterLabel builds a best-effort human readable name from a founding
// record's content type and leading topics.
func clusterLabel(rec *MemoryRecord) string {
	topics := rec.Semantic.Topics
	if len(topics) > 3 {
		topics = topics[:3]
	}
	if len(topics) == 0 {
		return rec.Semantic.ContentType
	}
	return fmt.Sprintf("%s: %s", rec.Semantic.ContentType, strings.Join(topics, ", "))
}

func removeString(list []string, s string) []string {
	out := list[:0]
	for _, v := range list {
		if v != s {
			out = append(out, v)
		}
	}
	return out
}
