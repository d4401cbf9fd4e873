package internal

import (
	"errors"
	"reflect"
	"strings"
	"testing"
	"time"
)

func fixedBuilder(at time.Time, suffix string) *RecordBuilder {
	b := NewRecordBuilder()
	b.now = func() time.Time { return at }
	b.randomID = func() (string, error) { return suffix, nil }
	return b
}

func TestBuildDerivesDomain(t *testing.T) {
	b := fixedBuilder(testBaseTime, "abc12345")

	cases := []struct {
		url  string
		want string
	}{
		{"https://Go.dev/blog/slices", "go.dev"},
		{"http://news.ycombinator.com/item?id=1", "news.ycombinator.com"},
		{"not a url at all", "unknown"},
		{"", "unknown"},
		{"/relative/path", "unknown"},
	}

	for _, tc := range cases {
		rec, err := b.Build(RawCapture{URL: tc.url})
		if err != nil {
			t.Fatalf("build: %v", err)
		}
		if rec.Domain != tc.want {
			t.Errorf("DomainOf(%q) = %q, want %q", tc.url, rec.Domain, tc.want)
		}
	}
}

func TestBuildNeverFailsOnPartialInput(t *testing.T) {
	b := fixedBuilder(testBaseTime, "abc12345")

	rec, err := b.Build(RawCapture{})
	if err != nil {
		t.Fatalf("build empty capture: %v", err)
	}

	if rec.ID == "" {
		t.Error("expected an id")
	}
	if rec.HasEmbedding() {
		t.Error("expected no embedding")
	}
	if rec.Domain != UnknownDomain {
		t.Errorf("domain = %q, want %q", rec.Domain, UnknownDomain)
	}
	if rec.Semantic.Quality != 0 || rec.Semantic.Confidence != 0 {
		t.Error("expected zero quality and confidence defaults")
	}
}

func TestBuildIDFormat(t *testing.T) {
	b := fixedBuilder(testBaseTime, "xk29qpz4")

	rec, err := b.Build(RawCapture{URL: "https://example.com"})
	if err != nil {
		t.Fatalf("build: %v", err)
	}

	want := "1741948200000-xk29qpz4"
	if rec.ID != want {
		t.Errorf("id = %q, want %q", rec.ID, want)
	}
	if rec.Timestamp != testBaseTime.UnixMilli() {
		t.Errorf("timestamp = %d, want %d", rec.Timestamp, testBaseTime.UnixMilli())
	}
}

func TestBuildIDSourceFailure(t *testing.T) {
	b := NewRecordBuilder()
	b.randomID = func() (string, error) { return "", errors.New("entropy exhausted") }

	if _, err := b.Build(RawCapture{}); err == nil {
		t.Fatal("expected error when the id source fails")
	}
}

func TestSeasonOf(t *testing.T) {
	cases := map[int]string{
		1: "winter", 2: "spring", 3: "spring", 4: "spring",
		5: "summer", 6: "summer", 7: "summer",
		8: "fall", 9: "fall", 10: "fall",
		11: "winter", 12: "winter",
	}
	for month, want := range cases {
		if got := seasonOf(month); got != want {
			t.Errorf("seasonOf(%d) = %q, want %q", month, got, want)
		}
	}
}

func TestTopicsLongestFirstOccurrenceOrder(t *testing.T) {
	// "tremendous" and "spectacular" are the longest tokens; output
	// keeps first-occurrence order, not length order.
	text := "cat spectacular dog tremendous cat bird"

	got := topicsOf(text)
	want := []string{"cat", "spectacular", "dog", "tremendous", "bird"}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("topics = %v, want %v", got, want)
	}
}

func TestTopicsCapAtTen(t *testing.T) {
	words := []string{
		"alpha", "bravo", "charlie", "deltaa", "echoes", "foxtrot",
		"golfing", "hotelier", "indiaman", "julietta", "kilogram", "limabean",
	}
	got := topicsOf(strings.Join(words, " "))
	if len(got) != 10 {
		t.Fatalf("len(topics) = %d, want 10", len(got))
	}
	// The two shortest (alpha, bravo) lose the length cut.
	for _, topic := range got {
		if topic == "alpha" || topic == "bravo" {
			t.Errorf("short token %q survived the top-10 cut", topic)
		}
	}
}

func TestTopicsSkipStopwordsAndShortTokens(t *testing.T) {
	got := topicsOf("the page shows a go library")
	for _, topic := range got {
		if topic == "the" || topic == "page" || topic == "shows" {
			t.Errorf("stopword %q surfaced as topic", topic)
		}
		if len(topic) < 3 {
			t.Errorf("short token %q surfaced as topic", topic)
		}
	}
}

func TestTopicsDeduplicate(t *testing.T) {
	got := topicsOf("golang golang golang compiler")
	want := []string{"golang", "compiler"}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("topics = %v, want %v", got, want)
	}
}

func TestUnitIntervalPassThrough(t *testing.T) {
	in := float32(0.8)
	if got := unitInterval(&in); got != 0.8 {
		t.Errorf("unitInterval(0.8) = %v", got)
	}

	bad := float32(1.5)
	if got := unitInterval(&bad); got != 0 {
		t.Errorf("unitInterval(1.5) = %v, want 0", got)
	}

	neg := float32(-0.1)
	if got := unitInterval(&neg); got != 0 {
		t.Errorf("unitInterval(-0.1) = %v, want 0", got)
	}

	if got := unitInterval(nil); got != 0 {
		t.Errorf("unitInterval(nil) = %v, want 0", got)
	}
}

func TestBuildVisionEmbedding(t *testing.T) {
	b := fixedBuilder(testBaseTime, "abc12345")

	rec, err := b.Build(RawCapture{
		URL: "https://example.com",
		Vision: &VisionAnalysis{
			Description: "a dashboard full of charts",
			Embedding:   []float32{0.1, 0.2},
		},
	})
	if err != nil {
		t.Fatalf("build: %v", err)
	}

	if got := rec.VisionEmbedding(); len(got) != 2 {
		t.Fatalf("vision embedding = %v, want 2 elements", got)
	}
}

func TestBuildTemporalFeatures(t *testing.T) {
	at := time.Date(2025, time.November, 3, 22, 5, 0, 0, time.UTC) // a Monday
	b := fixedBuilder(at, "abc12345")

	rec, err := b.Build(RawCapture{URL: "https://example.com"})
	if err != nil {
		t.Fatalf("build: %v", err)
	}

	if rec.Temporal.Hour != 22 {
		t.Errorf("hour = %d, want 22", rec.Temporal.Hour)
	}
	if rec.Temporal.Weekday != int(time.Monday) {
		t.Errorf("weekday = %d, want %d", rec.Temporal.Weekday, int(time.Monday))
	}
	if rec.Temporal.Month != 11 {
		t.Errorf("month = %d, want 11", rec.Temporal.Month)
	}
	if rec.Temporal.Season != "winter" {
		t.Errorf("season = %q, want winter", rec.Temporal.Season)
	}
}
