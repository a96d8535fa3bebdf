// Package match resolves free-text hardware product names against the
// component catalog. Resolution runs an ordered chain of strategies, each
// producing candidates with a calibrated confidence; later strategies run
// only when earlier ones found nothing, except the token strategy which is
// mandatory for RAM and STORAGE queries (their display names rarely
// normalize into clean substrings).
package match

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"go.uber.org/zap"

	"github.com/rigmatch/rigmatch/internal/catalog"
	"github.com/rigmatch/rigmatch/internal/normalize"
	"github.com/rigmatch/rigmatch/pkg/models"
)

// maxCandidates bounds the final candidate list.
const maxCandidates = 5

// Catalog is the read-only lookup surface the matcher needs.
type Catalog interface {
	Lookup(ctx context.Context, filter catalog.Filter) ([]models.ComponentRecord, error)
}

// Matcher resolves queries against a catalog snapshot.
type Matcher struct {
	cat    Catalog
	logger *zap.Logger
}

// New creates a Matcher backed by the given catalog.
func New(cat Catalog, logger *zap.Logger) *Matcher {
	return &Matcher{cat: cat, logger: logger}
}

// query carries the per-resolution derived state handed to each strategy.
type query struct {
	raw        string
	lower      string
	normalized string
	ctype      models.ComponentType
	chipsets   []string
}

// stage is one link of the resolution chain. The chain order is data:
// strategies are independent functions over (query, candidate pool).
type stage struct {
	name      string
	skip      func(q *query) bool
	mandatory func(q *query) bool
	run       func(q *query, pool []models.ComponentRecord) []models.MatchCandidate
}

// tokenPrimary reports whether the type's names resolve best token-wise.
func tokenPrimary(t models.ComponentType) bool {
	return t == models.TypeRAM || t == models.TypeStorage
}

var chain = []stage{
	{
		name: "exact_normalized",
		skip: func(q *query) bool { return tokenPrimary(q.ctype) },
		run:  exactNormalized,
	},
	{
		name: "chipset_extracted",
		skip: func(q *query) bool { return len(q.chipsets) == 0 },
		run:  chipsetMatch,
	},
	{
		name: "partial_match",
		skip: func(q *query) bool { return q.ctype == "" || tokenPrimary(q.ctype) },
		run:  partialMatch,
	},
	{
		name:      "token_based",
		mandatory: func(q *query) bool { return tokenPrimary(q.ctype) },
		run:       tokenMatch,
	},
}

// Resolve turns a free-text query plus optional type filter into a ranked
// candidate list: at most 5 entries, sorted by confidence then raw score,
// deduplicated by name keeping the highest-confidence occurrence.
// A query that matches nothing yields an empty slice, never an error.
func (m *Matcher) Resolve(ctx context.Context, rawQuery string, ctype models.ComponentType) ([]models.MatchCandidate, error) {
	trimmed := strings.TrimSpace(rawQuery)
	if trimmed == "" {
		return []models.MatchCandidate{}, nil
	}
	if ctype != "" && !ctype.Valid() {
		return nil, fmt.Errorf("unknown component type %q", ctype)
	}

	pool, err := m.cat.Lookup(ctx, catalog.Filter{Type: ctype})
	if err != nil {
		return nil, fmt.Errorf("load candidate pool: %w", err)
	}

	lower := strings.ToLower(trimmed)
	q := &query{
		raw:        trimmed,
		lower:      lower,
		normalized: normalize.Name(trimmed),
		ctype:      ctype,
		chipsets:   extractChipsets(lower, ctype),
	}

	var candidates []models.MatchCandidate
	for _, st := range chain {
		if st.skip != nil && st.skip(q) {
			continue
		}
		if len(candidates) > 0 && (st.mandatory == nil || !st.mandatory(q)) {
			continue
		}
		found := st.run(q, pool)
		if len(found) > 0 {
			m.logger.Debug("match strategy produced candidates",
				zap.String("strategy", st.name),
				zap.String("query", trimmed),
				zap.Int("count", len(found)),
			)
		}
		candidates = append(candidates, found...)
	}

	return rank(candidates), nil
}

// rank orders candidates by (-confidence, -rawScore), drops duplicate
// names keeping the strongest occurrence, and truncates to maxCandidates.
func rank(candidates []models.MatchCandidate) []models.MatchCandidate {
	sort.SliceStable(candidates, func(i, j int) bool {
		if candidates[i].Confidence != candidates[j].Confidence {
			return candidates[i].Confidence > candidates[j].Confidence
		}
		return candidates[i].RawScore > candidates[j].RawScore
	})

	seen := make(map[string]bool, len(candidates))
	unique := make([]models.MatchCandidate, 0, len(candidates))
	for _, c := range candidates {
		if seen[c.Name] {
			continue
		}
		seen[c.Name] = true
		unique = append(unique, c)
	}

	if len(unique) > maxCandidates {
		unique = unique[:maxCandidates]
	}
	return unique
}

// byRawScoreDesc returns a copy of records ordered strongest-first.
func byRawScoreDesc(records []models.ComponentRecord) []models.ComponentRecord {
	out := make([]models.ComponentRecord, len(records))
	copy(out, records)
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].RawScore > out[j].RawScore
	})
	return out
}

func toCandidate(rec models.ComponentRecord, confidence float64, mt models.MatchType) models.MatchCandidate {
	return models.MatchCandidate{
		Name:            rec.Name,
		RawScore:        rec.RawScore,
		NormalizedScore: rec.NormalizedScore,
		Confidence:      confidence,
		MatchType:       mt,
	}
}
