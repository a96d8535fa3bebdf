package match

import (
	"regexp"
	"strings"

	"github.com/rigmatch/rigmatch/pkg/models"
)

// Chipset extraction patterns per component type. Capture groups are the
// chipset tokens; a pattern may capture more than one (family digit plus
// model number).
var chipsetPatterns = map[models.ComponentType][]*regexp.Regexp{
	models.TypeGPU: {
		regexp.MustCompile(`rtx\s*(\d{4})`),
		regexp.MustCompile(`gtx\s*(\d{4})`),
		regexp.MustCompile(`rx\s*(\d{4})`),
		regexp.MustCompile(`radeon\s*rx\s*(\d{4})`),
		regexp.MustCompile(`geforce\s*rtx\s*(\d{4})`),
	},
	models.TypeCPU: {
		regexp.MustCompile(`ryzen\s*(\d)\s*(\d{4})`),
		regexp.MustCompile(`core\s*i(\d)\s*(\d{4})`),
		regexp.MustCompile(`(\d{4})\s*x`),
	},
}

// extractChipsets pulls model-number tokens out of a lower-cased query.
// Extraction feeds the chipset strategy; it never produces candidates on
// its own.
func extractChipsets(lower string, ctype models.ComponentType) []string {
	patterns, ok := chipsetPatterns[ctype]
	if !ok {
		return nil
	}

	seen := make(map[string]bool)
	var chipsets []string
	for _, re := range patterns {
		for _, groups := range re.FindAllStringSubmatch(lower, -1) {
			for _, g := range groups[1:] {
				if g == "" || seen[g] {
					continue
				}
				seen[g] = true
				chipsets = append(chipsets, g)
			}
		}
	}
	return chipsets
}

// exactNormalized matches rows whose normalized name contains the
// normalized query as a substring. Highest confidence.
func exactNormalized(q *query, pool []models.ComponentRecord) []models.MatchCandidate {
	if q.normalized == "" {
		return nil
	}

	var out []models.MatchCandidate
	for _, rec := range pool {
		if strings.Contains(rec.NormalizedName, q.normalized) {
			out = append(out, toCandidate(rec, 1.0, models.MatchExactNormalized))
		}
	}
	return out
}

// chipsetMatch selects, per extracted chipset, up to 3 strongest rows
// carrying the chipset in their display or normalized name. Confidence is
// 0.9 when the chipset literally appears in the display name, 0.7 when
// only the normalized form carries it.
func chipsetMatch(q *query, pool []models.ComponentRecord) []models.MatchCandidate {
	sorted := byRawScoreDesc(pool)

	var out []models.MatchCandidate
	for _, chipset := range q.chipsets {
		taken := 0
		for _, rec := range sorted {
			if taken >= 3 {
				break
			}
			inDisplay := strings.Contains(strings.ToLower(rec.Name), chipset)
			if !inDisplay && !strings.Contains(rec.NormalizedName, chipset) {
				continue
			}
			confidence := 0.7
			if inDisplay {
				confidence = 0.9
			}
			c := toCandidate(rec, confidence, models.MatchChipsetExtracted)
			c.ExtractedChipset = chipset
			out = append(out, c)
			taken++
		}
	}
	return out
}

// partialMatch compares the space-stripped normalized query against
// space-stripped normalized names, keeping the 5 strongest rows.
func partialMatch(q *query, pool []models.ComponentRecord) []models.MatchCandidate {
	stripped := strings.ReplaceAll(q.normalized, " ", "")
	if stripped == "" {
		return nil
	}

	var out []models.MatchCandidate
	for _, rec := range byRawScoreDesc(pool) {
		if len(out) >= 5 {
			break
		}
		if strings.Contains(strings.ReplaceAll(rec.NormalizedName, " ", ""), stripped) {
			out = append(out, toCandidate(rec, 0.6, models.MatchPartial))
		}
	}
	return out
}
