package match

import (
	"regexp"
	"strings"

	"github.com/rigmatch/rigmatch/pkg/models"
)

// Token matching is the primary strategy for RAM and STORAGE: retailer
// listings for those categories ("Kingston Fury 32GB 6000MHz CL30 DDR5")
// rarely survive normalization as a clean substring of the catalog name.

var (
	wordPattern  = regexp.MustCompile(`\b\w+\b`)
	unitSuffixes = regexp.MustCompile(`(mhz|ghz)$`)
)

// tokenStopWords are unit and form-factor noise words carrying no
// identifying signal.
var tokenStopWords = map[string]bool{
	"ssd": true, "hdd": true, "nvme": true,
	"gb": true, "tb": true,
	"memory": true, "disk": true,
}

// Domain-significant token markers, pushed to the front of the search
// order: memory speed / CAS-latency markers and storage brand or model
// codes identify a product far better than generic words.
var (
	ramMarkers     = []string{"ddr4", "ddr5", "3200", "6000", "5600", "cl"}
	storageMarkers = []string{"ssdpr", "cx400", "samsung", "crucial", "seagate", "m.2"}
)

// extractTokens tokenizes a lower-cased query into searchable tokens:
// stop words and tokens of length <= 2 are dropped, trailing mhz/ghz unit
// suffixes are stripped.
func extractTokens(lower string) []string {
	var tokens []string
	for _, t := range wordPattern.FindAllString(lower, -1) {
		if tokenStopWords[t] || len(t) <= 2 {
			continue
		}
		cleaned := unitSuffixes.ReplaceAllString(t, "")
		if cleaned == "" || tokenStopWords[cleaned] {
			continue
		}
		tokens = append(tokens, cleaned)
	}
	return tokens
}

// prioritizeTokens reorders tokens so domain-significant markers come
// first, deduplicates, and caps the list at 4.
func prioritizeTokens(tokens []string) []string {
	var important []string
	for _, t := range tokens {
		for _, marker := range append(ramMarkers, storageMarkers...) {
			if strings.Contains(t, marker) {
				important = append(important, t)
				break
			}
		}
	}

	seen := make(map[string]bool)
	var ordered []string
	for _, t := range append(important, tokens...) {
		if seen[t] {
			continue
		}
		seen[t] = true
		ordered = append(ordered, t)
		if len(ordered) == 4 {
			break
		}
	}
	return ordered
}

// tokenMatch requires at least 2 surviving tokens, then matches with the
// first 3 (all must appear, case-insensitively, in the display name) and
// retries with the first 2 when nothing matched. Confidence scales with
// the share of tokens used, floored at 0.75 for RAM/STORAGE and clamped
// at the base so it never exceeds 0.85.
func tokenMatch(q *query, pool []models.ComponentRecord) []models.MatchCandidate {
	tokens := extractTokens(q.lower)
	if len(tokens) < 2 {
		return nil
	}
	searchTokens := prioritizeTokens(tokens)

	base := 0.5
	if tokenPrimary(q.ctype) {
		base = 0.85
	}

	sorted := byRawScoreDesc(pool)
	prev := 0
	for _, want := range []int{3, 2} {
		n := min(want, len(searchTokens))
		if n == prev {
			continue
		}
		prev = n
		use := searchTokens[:n]

		var out []models.MatchCandidate
		for _, rec := range sorted {
			if len(out) >= 10 {
				break
			}
			if !containsAllTokens(rec.Name, use) {
				continue
			}
			confidence := base * float64(n) / float64(len(searchTokens))
			if tokenPrimary(q.ctype) && confidence < 0.75 {
				confidence = 0.75
			}
			if confidence > base {
				confidence = base
			}
			c := toCandidate(rec, confidence, models.MatchTokenBased)
			c.TokensUsed = use
			out = append(out, c)
		}
		if len(out) > 0 {
			return out
		}
	}
	return nil
}

func containsAllTokens(name string, tokens []string) bool {
	lower := strings.ToLower(name)
	for _, t := range tokens {
		if !strings.Contains(lower, t) {
			return false
		}
	}
	return true
}
