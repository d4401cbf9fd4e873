package internal

import (
	"encoding/json"
	"fmt"
)

// stateVersion tags the export envelope format.
const stateVersion = 1

// stateEnvelope is the serialized form of a store. Records are the
// canonical source of truth; clusters and edges ride along because the
// discovery that produced them is incremental and not replayable, but
// they are re-validated against the table on import.
type stateEnvelope struct {
	Version  int                       `json:"version"`
	Capacity int                       `json:"capacity"`
	Records  []*MemoryRecord           `json:"records"`
	Clusters []*ConceptCluster         `json:"clusters,omitempty"`
	Edges    map[string][]Relationship `json:"edges,omitempty"`
}

// ExportState serializes the full store as a JSON blob: canonical
// records in insertion order plus clusters and the relationship graph.
func (s *MemoryStore) ExportState() ([]byte, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	env := stateEnvelope{
		Version:  stateVersion,
		Capacity: s.capacity,
		Records:  make([]*MemoryRecord, 0, len(s.order)),
		Edges:    make(map[string][]Relationship, len(s.graph)),
	}

	for _, id := range s.order {
		env.Records = append(env.Records, s.records[id])
	}
	for _, id := range s.clusterOrder {
		env.Clusters = append(env.Clusters, s.clusters[id])
	}
	for id, edges := range s.graph {
		env.Edges[id] = edges
	}

	data, err := json.Marshal(env)
	if err != nil {
		return nil, fmt.Errorf("marshal state: %w", err)
	}
	return data, nil
}

// ImportState replaces the store contents with a previously exported
// blob. Every derived index (buckets, domain, category, embedding) is
// rebuilt from the canonical record table rather than trusted from the
// blob; serialized clusters and edges are kept only where their members
// and targets still resolve.
func (s *MemoryStore) ImportState(data []byte) error {
	var env stateEnvelope
	if err := json.Unmarshal(data, &env); err != nil {
		return fmt.Errorf("unmarshal state: %w", err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	s.reset()

	for _, rec := range env.Records {
		if rec == nil || rec.ID == "" {
			continue
		}
		if _, dup := s.records[rec.ID]; dup {
			continue
		}
		s.indexRecord(rec)
	}

	for _, c := range env.Clusters {
		if c == nil || c.ID == "" {
			continue
		}
		members := make([]string, 0, len(c.Members))
		for _, id := range c.Members {
			if _, live := s.records[id]; live {
				members = append(members, id)
			}
		}
		if len(members) == 0 {
			continue
		}
		cluster := &ConceptCluster{
			ID:      c.ID,
			Members: members,
			Label:   c.Label,
		}
		s.recomputeCentroid(cluster)
		s.clusters[cluster.ID] = cluster
		s.clusterOrder = append(s.clusterOrder, cluster.ID)
	}

	for source, edges := range env.Edges {
		if _, live := s.records[source]; !live {
			continue
		}
		kept := make([]Relationship, 0, len(edges))
		for _, e := range edges {
			if _, live := s.records[e.TargetID]; live {
				kept = append(kept, e)
			}
		}
		if len(kept) > 0 {
			s.graph[source] = kept
		}
	}

	s.evictOldest()
	return nil
}
