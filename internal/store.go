package internal

import (
	"fmt"
	"sync"
)

// DefaultCapacity is the default maximum number of records kept before
// age-based eviction kicks in.
const DefaultCapacity = 100

// InsertResult summarizes the side effects of one insert.
type InsertResult struct {
	RecordID      string `json:"record_id"`
	Relationships int    `json:"relationships"`
	Clusters      int    `json:"clusters"`
}

// MemoryStore owns the canonical record table and every auxiliary
// index: embedding index, temporal buckets, domain index, category
// index, concept clusters and the relationship graph. All of them are
// kept consistent as a unit; no operation observes a partial fan-out.
//
// The store is explicitly constructed and carries its own capacity;
// there is no package-level instance.
type MemoryStore struct {
	mu       sync.RWMutex
	capacity int

	records map[string]*MemoryRecord
	order   []string // insertion order, tie-breaker for eviction and ranking

	embeddings    map[string][]float32
	auxEmbeddings map[string]map[string][]float32

	hourIndex  map[HourKey][]string
	dayIndex   map[DayKey][]string
	weekIndex  map[WeekKey][]string
	monthIndex map[MonthKey][]string

	domainIndex   map[string][]string
	categoryIndex map[string][]string

	clusters     map[string]*ConceptCluster
	clusterOrder []string

	graph map[string][]Relationship
}

// NewMemoryStore creates an empty store bounded at capacity records.
// Capacities below one are clamped to one; running a memory this small
// is a degenerate configuration and unsupported beyond not crashing.
func NewMemoryStore(capacity int) *MemoryStore {
	if capacity < 1 {
		capacity = 1
	}
	s := &MemoryStore{capacity: capacity}
	s.reset()
	return s
}

// reset reinitializes every table and index. Caller holds the write
// lock (or owns the store exclusively during construction).
func (s *MemoryStore) reset() {
	s.records = make(map[string]*MemoryRecord)
	s.order = nil
	s.embeddings = make(map[string][]float32)
	s.auxEmbeddings = make(map[string]map[string][]float32)
	s.hourIndex = make(map[HourKey][]string)
	s.dayIndex = make(map[DayKey][]string)
	s.weekIndex = make(map[WeekKey][]string)
	s.monthIndex = make(map[MonthKey][]string)
	s.domainIndex = make(map[string][]string)
	s.categoryIndex = make(map[string][]string)
	s.clusters = make(map[string]*ConceptCluster)
	s.clusterOrder = nil
	s.graph = make(map[string][]Relationship)
}

// Capacity returns the configured maximum record count.
func (s *MemoryStore) Capacity() int {
	return s.capacity
}

// Len returns the current canonical table size.
func (s *MemoryStore) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.records)
}

// Insert adds a record, fans it out to every index, discovers
// relationships against prior records, assigns it to a concept cluster
// and finally enforces the capacity bound. The inserted record itself
// is never the eviction victim.
func (s *MemoryStore) Insert(rec *MemoryRecord) (InsertResult, error) {
	if rec == nil || rec.ID == "" {
		return InsertResult{}, ErrMissingID
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.records[rec.ID]; exists {
		return InsertResult{}, fmt.Errorf("insert %s: %w", rec.ID, ErrDuplicateID)
	}

	// Discovery must only observe pre-insert state.
	edges := s.discoverRelationships(rec)

	s.indexRecord(rec)
	if rec.HasEmbedding() {
		s.assignCluster(rec)
	}
	s.applyRelationships(rec.ID, edges)

	s.evictOldest()

	return InsertResult{
		RecordID:      rec.ID,
		Relationships: len(edges),
		Clusters:      len(s.clusters),
	}, nil
}

// indexRecord performs the write fan-out for one record. Caller holds
// the write lock.
func (s *MemoryStore) indexRecord(rec *MemoryRecord) {
	s.records[rec.ID] = rec
	s.order = append(s.order, rec.ID)

	if rec.HasEmbedding() {
		s.embeddings[rec.ID] = rec.Embedding
	}
	if len(rec.AuxEmbeddings) > 0 {
		s.auxEmbeddings[rec.ID] = rec.AuxEmbeddings
	}

	t := recordTime(rec)
	s.hourIndex[hourKeyAt(t)] = append(s.hourIndex[hourKeyAt(t)], rec.ID)
	s.dayIndex[dayKeyAt(t)] = append(s.dayIndex[dayKeyAt(t)], rec.ID)
	s.weekIndex[weekKeyAt(t)] = append(s.weekIndex[weekKeyAt(t)], rec.ID)
	s.monthIndex[monthKeyAt(t)] = append(s.monthIndex[monthKeyAt(t)], rec.ID)

	s.domainIndex[rec.Domain] = append(s.domainIndex[rec.Domain], rec.ID)
	for _, cat := range rec.Semantic.Categories {
		s.categoryIndex[cat] = append(s.categoryIndex[cat], rec.ID)
	}
}

// Get returns the record for id, or ErrNotFound.
func (s *MemoryStore) Get(id string) (*MemoryRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rec, ok := s.records[id]
	if !ok {
		return nil, ErrNotFound
	}
	return rec, nil
}

// Remove deletes a record from the canonical table and every index,
// recomputing cluster centroids and stripping edges that point at it.
// Removing an unknown id is a no-op.
func (s *MemoryStore) Remove(id string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.removeLocked(id)
}

func (s *MemoryStore) removeLocked(id string) {
	rec, ok := s.records[id]
	if !ok {
		return
	}

	delete(s.records, id)
	s.order = removeString(s.order, id)
	delete(s.embeddings, id)
	delete(s.auxEmbeddings, id)

	t := recordTime(rec)
	removeFromBucket(s.hourIndex, hourKeyAt(t), id)
	removeFromBucket(s.dayIndex, dayKeyAt(t), id)
	removeFromBucket(s.weekIndex, weekKeyAt(t), id)
	removeFromBucket(s.monthIndex, monthKeyAt(t), id)

	s.domainIndex[rec.Domain] = removeString(s.domainIndex[rec.Domain], id)
	if len(s.domainIndex[rec.Domain]) == 0 {
		delete(s.domainIndex, rec.Domain)
	}
	for _, cat := range rec.Semantic.Categories {
		s.categoryIndex[cat] = removeString(s.categoryIndex[cat], id)
		if len(s.categoryIndex[cat]) == 0 {
			delete(s.categoryIndex, cat)
		}
	}

	s.removeFromClusters(id)

	delete(s.graph, id)
	s.stripEdgesTo(id)
}

func removeFromBucket[K comparable](index map[K][]string, key K, id string) {
	index[key] = removeString(index[key], id)
	if len(index[key]) == 0 {
		delete(index, key)
	}
}

// evictOldest removes the strictly oldest records by timestamp (ties
// broken by insertion order) until the table fits the capacity bound.
// Caller holds the write lock.
func (s *MemoryStore) evictOldest() {
	for len(s.records) > s.capacity {
		victim := ""
		var victimTS int64
		for _, id := range s.order {
			ts := s.records[id].Timestamp
			if victim == "" || ts < victimTS {
				victim = id
				victimTS = ts
			}
		}
		if victim == "" {
			return
		}
		s.removeLocked(victim)
	}
}

// Relationships returns the edge list of a record, nil when the record
// has none or does not exist.
func (s *MemoryStore) Relationships(id string) []Relationship {
	s.mu.RLock()
	defer s.mu.RUnlock()

	edges := s.graph[id]
	if len(edges) == 0 {
		return nil
	}
	out := make([]Relationship, len(edges))
	copy(out, edges)
	return out
}

// Clusters returns the live clusters in creation order.
func (s *MemoryStore) Clusters() []*ConceptCluster {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]*ConceptCluster, 0, len(s.clusterOrder))
	for _, id := range s.clusterOrder {
		out = append(out, s.clusters[id])
	}
	return out
}
