// Package recommend ranks upgrade candidates for a base component using
// the compatibility engine: filter to viable desktop parts, score each
// pairing, and order by workload fit.
package recommend

import (
	"fmt"
	"math"
	"sort"

	"go.uber.org/zap"

	"github.com/rigmatch/rigmatch/internal/catalog"
	"github.com/rigmatch/rigmatch/internal/compat"
	"github.com/rigmatch/rigmatch/pkg/models"
)

// idealRatio is the CPU/GPU raw-score ratio of a well-balanced rig, used
// for the proximity bonus and as the sort tie-breaker.
const idealRatio = 1.7

// Options tune the ranker's output size and quality floor.
type Options struct {
	// MinMatchScore drops candidates scoring below it, bonus included.
	MinMatchScore int
	// MaxRecommendations caps results; callers may request up to twice it.
	MaxRecommendations int
}

// DefaultOptions returns the stock thresholds.
func DefaultOptions() Options {
	return Options{MinMatchScore: 40, MaxRecommendations: 5}
}

// Ranker scores catalog candidates against a base component.
type Ranker struct {
	engine *compat.Engine
	opts   Options
	logger *zap.Logger
}

// New creates a Ranker over a compatibility engine. Zero option fields
// fall back to the defaults.
func New(engine *compat.Engine, opts Options, logger *zap.Logger) *Ranker {
	def := DefaultOptions()
	if opts.MinMatchScore <= 0 {
		opts.MinMatchScore = def.MinMatchScore
	}
	if opts.MaxRecommendations <= 0 {
		opts.MaxRecommendations = def.MaxRecommendations
	}
	return &Ranker{engine: engine, opts: opts, logger: logger}
}

// scored pairs a recommendation with its sort keys.
type scored struct {
	rec       models.Recommendation
	deviation float64
}

// Recommend ranks candidates as upgrades for base. Candidates must be of
// the complementary type; the consumer-segment tag is re-derived from the
// name rather than trusted, since upstream categorization goes stale. An
// empty focusCategory scores across all categories; a non-empty one must
// name a configured category.
func (r *Ranker) Recommend(base models.ComponentRecord, candidates []models.ComponentRecord, focusCategory string, limit int) ([]models.Recommendation, error) {
	complement := base.Type.Complement()
	if complement == "" {
		return nil, fmt.Errorf("no pairing complement for component type %q", base.Type)
	}
	if focusCategory != "" {
		if _, ok := r.engine.Categories().Get(focusCategory); !ok {
			return nil, fmt.Errorf("%w: %q", compat.ErrUnknownCategory, focusCategory)
		}
	}

	var results []scored
	for _, cand := range candidates {
		if cand.Type != complement {
			continue
		}
		if !catalog.IsDesktop(cand.Name, cand.Type) {
			continue
		}

		cpu, gpu := orientPair(base, cand)
		matchScore, categoryScores := r.matchScore(cpu, gpu, focusCategory)

		ratio, haveRatio := rawRatio(cpu, gpu)
		if haveRatio {
			matchScore += ratioBonus(ratio)
		}
		if matchScore > 100 {
			matchScore = 100
		}
		if matchScore < r.opts.MinMatchScore {
			continue
		}

		deviation := math.Inf(1)
		if haveRatio {
			deviation = math.Abs(ratio - idealRatio)
		}
		results = append(results, scored{
			rec: models.Recommendation{
				Component:      cand,
				MatchScore:     matchScore,
				CategoryScores: categoryScores,
			},
			deviation: deviation,
		})
	}

	sortRecommendations(results, focusCategory != "")

	max := min(limit, r.opts.MaxRecommendations*2)
	if limit <= 0 {
		max = r.opts.MaxRecommendations
	}
	if len(results) > max {
		results = results[:max]
	}

	recs := make([]models.Recommendation, len(results))
	for i, s := range results {
		recs[i] = s.rec
	}
	r.logger.Debug("ranked upgrade candidates",
		zap.String("base", base.Name),
		zap.String("focus", focusCategory),
		zap.Int("pool", len(candidates)),
		zap.Int("returned", len(recs)))
	return recs, nil
}

// matchScore computes the weighted category score for the pairing: the
// focus category alone when given, otherwise the weighted average over
// all categories.
func (r *Ranker) matchScore(cpu, gpu models.ComponentRecord, focusCategory string) (int, map[string]models.CategoryScore) {
	categoryScores := make(map[string]models.CategoryScore)

	var weightedSum, weightTotal float64
	for _, cat := range r.engine.Categories().All() {
		if focusCategory != "" && cat.Name != focusCategory {
			continue
		}
		ca, err := r.engine.AnalyzeCategory(cpu, gpu, cat.Name)
		if err != nil {
			continue // category set validated at construction
		}
		categoryScores[cat.Name] = models.CategoryScore{
			Score:  ca.BalanceScore,
			Weight: cat.Weight,
		}
		weightedSum += float64(ca.BalanceScore) * cat.Weight
		weightTotal += cat.Weight
	}

	if weightTotal == 0 {
		return 0, categoryScores
	}
	return int(math.Round(weightedSum / weightTotal)), categoryScores
}

// orientPair places the CPU first regardless of which side is the base.
func orientPair(base, cand models.ComponentRecord) (cpu, gpu models.ComponentRecord) {
	if base.Type == models.TypeCPU {
		return base, cand
	}
	return cand, base
}

// rawRatio is the CPU/GPU raw-score ratio, absent when either score is
// missing.
func rawRatio(cpu, gpu models.ComponentRecord) (float64, bool) {
	if cpu.RawScore == 0 || gpu.RawScore == 0 {
		return 0, false
	}
	return float64(cpu.RawScore) / float64(gpu.RawScore), true
}

// ratioBonus rewards pairings near the ideal raw-score ratio.
func ratioBonus(ratio float64) int {
	switch {
	case ratio >= 1.3 && ratio <= 2.3:
		return 15
	case ratio >= 1.0 && ratio <= 2.8:
		return 5
	}
	return 0
}

// sortRecommendations orders results. With a focus category the match
// score to that workload dominates and ratio proximity breaks ties;
// without one, overall balance (ratio proximity) dominates.
func sortRecommendations(results []scored, focused bool) {
	sort.SliceStable(results, func(i, j int) bool {
		a, b := results[i], results[j]
		if focused {
			if a.rec.MatchScore != b.rec.MatchScore {
				return a.rec.MatchScore > b.rec.MatchScore
			}
			return a.deviation < b.deviation
		}
		if a.deviation != b.deviation {
			return a.deviation < b.deviation
		}
		return a.rec.MatchScore > b.rec.MatchScore
	})
}
