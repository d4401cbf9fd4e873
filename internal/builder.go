package internal

import (
	"crypto/rand"
	"fmt"
	"net/url"
	"sort"
	"strings"
	"time"
	"unicode"
)

const (
	// UnknownDomain is used when the capture URL cannot be parsed.
	UnknownDomain = "unknown"

	maxTopics      = 10
	minTopicLength = 3
	idSuffixLength = 8
)

const idAlphabet = "abcdefghijklmnopqrstuvwxyz0123456789"

// stopwords excluded from topic extraction. Policy list, kept small on
// purpose; the contract is only that these never surface as topics.
var stopwords = map[string]struct{}{
	"the": {}, "and": {}, "for": {}, "are": {}, "but": {}, "not": {},
	"you": {}, "all": {}, "can": {}, "had": {}, "her": {}, "was": {},
	"one": {}, "our": {}, "out": {}, "has": {}, "have": {}, "this": {},
	"that": {}, "with": {}, "from": {}, "they": {}, "will": {}, "what": {},
	"when": {}, "which": {}, "their": {}, "there": {}, "about": {},
	"these": {}, "your": {}, "into": {}, "over": {}, "more": {}, "some": {},
	"been": {}, "were": {}, "than": {}, "then": {}, "them": {}, "also": {},
	"page": {}, "website": {}, "shows": {}, "showing": {}, "displays": {},
}

// contentTypeRules map a keyword found in the analysis text to a content
// type tag. First match in declaration order wins.
var contentTypeRules = []struct {
	keyword string
	tag     string
}{
	{"video", "video"},
	{"watch", "video"},
	{"documentation", "documentation"},
	{"tutorial", "documentation"},
	{"code", "code"},
	{"repository", "code"},
	{"article", "article"},
	{"blog", "article"},
	{"news", "article"},
	{"product", "shopping"},
	{"price", "shopping"},
	{"cart", "shopping"},
	{"profile", "social"},
	{"post", "social"},
	{"comment", "social"},
	{"search", "search"},
	{"results", "search"},
}

// categoryRules map keywords to category tags. Unlike content types,
// every matching rule contributes a category.
var categoryRules = []struct {
	keyword  string
	category string
}{
	{"code", "development"},
	{"programming", "development"},
	{"software", "development"},
	{"api", "development"},
	{"news", "news"},
	{"politics", "news"},
	{"economy", "news"},
	{"price", "shopping"},
	{"product", "shopping"},
	{"store", "shopping"},
	{"social", "social"},
	{"friends", "social"},
	{"followers", "social"},
	{"research", "research"},
	{"paper", "research"},
	{"study", "research"},
	{"science", "research"},
	{"game", "entertainment"},
	{"music", "entertainment"},
	{"movie", "entertainment"},
	{"video", "entertainment"},
}

// RecordBuilder turns raw captures into normalized memory records.
// Build never fails for partial input; missing analysis halves are
// replaced by empty defaults and the record stays valid.
type RecordBuilder struct {
	now      func() time.Time
	randomID func() (string, error)
}

func NewRecordBuilder() *RecordBuilder {
	return &RecordBuilder{
		now:      time.Now,
		randomID: randomSuffix,
	}
}

// Build derives a MemoryRecord from a raw capture. The only failure
// mode is the id source running dry, which is a precondition violation
// for the insert that would follow.
func (b *RecordBuilder) Build(raw RawCapture) (*MemoryRecord, error) {
	now := b.now().UTC()

	suffix, err := b.randomID()
	if err != nil {
		return nil, fmt.Errorf("allocate record id: %w", err)
	}

	combined := raw.CombinedText()

	rec := &MemoryRecord{
		ID:        fmt.Sprintf("%d-%s", now.UnixMilli(), suffix),
		Timestamp: now.UnixMilli(),
		URL:       raw.URL,
		Domain:    DomainOf(raw.URL),
		Embedding: cloneVector(raw.Embedding),
		Semantic: SemanticFeatures{
			ContentType: contentTypeOf(combined),
			Categories:  categoriesOf(combined),
			Topics:      topicsOf(combined),
			Quality:     unitInterval(raw.Quality),
			Confidence:  unitInterval(raw.Confidence),
		},
		Temporal:   temporalFeaturesAt(now),
		Provenance: raw.Provenance,
	}

	if raw.Vision != nil && len(raw.Vision.Embedding) > 0 {
		rec.AuxEmbeddings = map[string][]float32{
			VisionEmbeddingKey: cloneVector(raw.Vision.Embedding),
		}
	}

	return rec, nil
}

// DomainOf extracts the host from a URL, or UnknownDomain when the URL
// does not parse or has no host.
func DomainOf(rawURL string) string {
	if rawURL == "" {
		return UnknownDomain
	}
	u, err := url.Parse(rawURL)
	if err != nil || u.Hostname() == "" {
		return UnknownDomain
	}
	return strings.ToLower(u.Hostname())
}

func temporalFeaturesAt(t time.Time) TemporalFeatures {
	return TemporalFeatures{
		Hour:    t.Hour(),
		Weekday: int(t.Weekday()),
		Month:   int(t.Month()),
		Season:  seasonOf(int(t.Month())),
	}
}

func seasonOf(month int) string {
	switch {
	case month >= 2 && month <= 4:
		return "spring"
	case month >= 5 && month <= 7:
		return "summer"
	case month >= 8 && month <= 10:
		return "fall"
	default:
		return "winter"
	}
}

// topicsOf returns the ten longest non-stopword tokens of the text,
// lowercased and de-duplicated, ordered by first occurrence.
func topicsOf(text string) []string {
	tokens := tokenize(text)
	if len(tokens) == 0 {
		return nil
	}

	// Stable longest-first selection over first-occurrence positions.
	type indexed struct {
		token string
		pos   int
	}
	candidates := make([]indexed, len(tokens))
	for i, tok := range tokens {
		candidates[i] = indexed{token: tok, pos: i}
	}

	sort.SliceStable(candidates, func(i, j int) bool {
		return len(candidates[i].token) > len(candidates[j].token)
	})
	if len(candidates) > maxTopics {
		candidates = candidates[:maxTopics]
	}
	sort.SliceStable(candidates, func(i, j int) bool {
		return candidates[i].pos < candidates[j].pos
	})

	topics := make([]string, len(candidates))
	for i, c := range candidates {
		topics[i] = c.token
	}
	return topics
}

// tokenize lowercases, splits on non-alphanumeric runes and drops
// stopwords, short tokens and duplicates (first occurrence wins).
func tokenize(text string) []string {
	fields := strings.FieldsFunc(strings.ToLower(text), func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r)
	})

	seen := make(map[string]struct{}, len(fields))
	var tokens []string
	for _, f := range fields {
		if len(f) < minTopicLength {
			continue
		}
		if _, stop := stopwords[f]; stop {
			continue
		}
		if _, dup := seen[f]; dup {
			continue
		}
		seen[f] = struct{}{}
		tokens = append(tokens, f)
	}
	return tokens
}

func contentTypeOf(text string) string {
	lower := strings.ToLower(text)
	for _, rule := range contentTypeRules {
		if strings.Contains(lower, rule.keyword) {
			return rule.tag
		}
	}
	return "webpage"
}

func categoriesOf(text string) []string {
	lower := strings.ToLower(text)
	var categories []string
	seen := make(map[string]struct{})
	for _, rule := range categoryRules {
		if _, dup := seen[rule.category]; dup {
			continue
		}
		if strings.Contains(lower, rule.keyword) {
			seen[rule.category] = struct{}{}
			categories = append(categories, rule.category)
		}
	}
	return categories
}

// unitInterval passes a value through only when it is present and
// within [0,1]; anything else defaults to 0.
func unitInterval(v *float32) float32 {
	if v == nil || *v < 0 || *v > 1 {
		return 0
	}
	return *v
}

func randomSuffix() (string, error) {
	buf := make([]byte, idSuffixLength)
	if _, err := rand.Read(buf); err != nil {
		return "", err
	}
	for i, b := range buf {
		buf[i] = idAlphabet[int(b)%len(idAlphabet)]
	}
	return string(buf), nil
}
