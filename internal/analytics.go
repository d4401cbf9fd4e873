package internal

import (
	"sort"
	"time"
)

const topEntries = 10

// CountEntry is a name with its member count, used for the category and
// domain leaderboards.
type CountEntry struct {
	Name  string `json:"name"`
	Count int    `json:"count"`
}

// ClusterSummary is the read-side view of one concept cluster.
type ClusterSummary struct {
	ID      string `json:"id"`
	Label   string `json:"label,omitempty"`
	Members int    `json:"members"`
}

// TemporalCounts are the record counts for the buckets containing the
// given reference time.
type TemporalCounts struct {
	Hour  int `json:"hour"`
	Day   int `json:"day"`
	Week  int `json:"week"`
	Month int `json:"month"`
}

// AnalyticsSnapshot aggregates the store state at one point in time.
type AnalyticsSnapshot struct {
	TotalRecords   int     `json:"total_records"`
	TotalClusters  int     `json:"total_clusters"`
	TotalEdges     int     `json:"total_edges"`
	MeanConfidence float32 `json:"mean_confidence"`

	Current TemporalCounts `json:"current"`

	TopCategories []CountEntry     `json:"top_categories,omitempty"`
	TopDomains    []CountEntry     `json:"top_domains,omitempty"`
	Clusters      []ClusterSummary `json:"clusters,omitempty"`
}

// Analytics computes an aggregate snapshot. Pure read: it only takes
// the read lock and is safe to call concurrently with inserts.
func (s *MemoryStore) Analytics() AnalyticsSnapshot {
	return s.analyticsAt(time.Now())
}

func (s *MemoryStore) analyticsAt(now time.Time) AnalyticsSnapshot {
	s.mu.RLock()
	defer s.mu.RUnlock()

	snap := AnalyticsSnapshot{
		TotalRecords:  len(s.records),
		TotalClusters: len(s.clusters),
	}

	var confidence float64
	for _, rec := range s.records {
		confidence += float64(rec.Semantic.Confidence)
	}
	if len(s.records) > 0 {
		snap.MeanConfidence = float32(confidence / float64(len(s.records)))
	}

	for _, edges := range s.graph {
		snap.TotalEdges += len(edges)
	}

	snap.Current = TemporalCounts{
		Hour:  len(s.hourIndex[hourKeyAt(now)]),
		Day:   len(s.dayIndex[dayKeyAt(now)]),
		Week:  len(s.weekIndex[weekKeyAt(now)]),
		Month: len(s.monthIndex[monthKeyAt(now)]),
	}

	snap.TopCategories = topCounts(s.categoryIndex)
	snap.TopDomains = topCounts(s.domainIndex)

	for _, id := range s.clusterOrder {
		c := s.clusters[id]
		snap.Clusters = append(snap.Clusters, ClusterSummary{
			ID:      c.ID,
			Label:   c.Label,
			Members: len(c.Members),
		})
	}

	return snap
}

// topCounts ranks an index by member count, descending, ties broken by
// name so the output is stable.
func topCounts(index map[string][]string) []CountEntry {
	entries := make([]CountEntry, 0, len(index))
	for name, ids := range index {
		entries = append(entries, CountEntry{Name: name, Count: len(ids)})
	}

	sort.Slice(entries, func(i, j int) bool {
		if entries[i].Count != entries[j].Count {
			return entries[i].Count > entries[j].Count
		}
		return entries[i].Name < entries[j].Name
	})

	if len(entries) > topEntries {
		entries = entries[:topEntries]
	}
	if len(entries) == 0 {
		return nil
	}
	return entries
}
