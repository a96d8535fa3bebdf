package compat

import (
	"fmt"
	"math"
	"sync/atomic"

	"go.uber.org/zap"

	"github.com/rigmatch/rigmatch/pkg/models"
)

// Raw-score ceilings for the absolute-performance term. The 0-100
// normalized score saturates at the high end and cannot tell top-tier
// parts apart, so all ratio logic runs on raw benchmark scores.
const (
	cpuScoreCeiling = 70000.0
	gpuScoreCeiling = 42000.0
)

// Overall headline bottleneck thresholds on the global CPU/GPU raw-score
// ratio. Coarser than the per-category logic: one verdict for the pairing.
const (
	overallCPUBoundRatio = 1.0
	overallGPUBoundRatio = 2.8
)

// ratioParams are the category-dependent expectations for the CPU/GPU
// raw-score ratio: the expected value, the tolerance around it, and the
// bottleneck thresholds below/above which one side is too weak.
type ratioParams struct {
	expected  float64
	tolerance float64
	cpuBound  float64
	gpuBound  float64
}

// ratioFor selects ratio expectations from the category's importance
// split. CPU scores run roughly 70k max against 42k for GPUs, so even
// balanced workloads expect the CPU raw score to lead.
func ratioFor(cat Category) ratioParams {
	switch {
	case cat.CPUImportance > cat.GPUImportance:
		return ratioParams{expected: 2.2, tolerance: 0.8, cpuBound: 1.2, gpuBound: 3.2}
	case cat.GPUImportance > cat.CPUImportance:
		return ratioParams{expected: 1.4, tolerance: 0.4, cpuBound: 0.9, gpuBound: 2.0}
	default:
		return ratioParams{expected: 1.7, tolerance: 0.5, cpuBound: 1.0, gpuBound: 2.5}
	}
}

// Engine scores CPU+GPU pairings. Category sets are immutable once
// stored; the pointer itself is swappable so the profile file can be
// reloaded without restarting. Safe for concurrent use.
type Engine struct {
	categories atomic.Pointer[CategorySet]
	logger     *zap.Logger
}

// NewEngine creates an Engine over a validated category set.
func NewEngine(categories *CategorySet, logger *zap.Logger) *Engine {
	e := &Engine{logger: logger}
	e.categories.Store(categories)
	return e
}

// Categories returns the current category set. In-flight analyses keep
// the snapshot they started with.
func (e *Engine) Categories() *CategorySet {
	return e.categories.Load()
}

// ReloadCategories swaps in a new validated category set.
func (e *Engine) ReloadCategories(categories *CategorySet) {
	e.categories.Store(categories)
	e.logger.Info("workload categories reloaded",
		zap.Int("categories", len(categories.All())))
}

// AnalyzePairing scores the pairing across every configured category and
// aggregates the overall verdict and headline bottleneck.
func (e *Engine) AnalyzePairing(cpu, gpu models.ComponentRecord) models.PairingAnalysis {
	cats := e.Categories()
	analysis := models.PairingAnalysis{
		ByCategory: make(map[string]models.CategoryAnalysis, len(cats.All())),
	}

	var weightedSum, weightTotal, plainSum float64
	for _, cat := range cats.All() {
		ca := e.analyzeCategory(cpu, gpu, cat)
		analysis.ByCategory[cat.Name] = ca
		weightedSum += float64(ca.BalanceScore) * cat.Weight
		weightTotal += cat.Weight
		plainSum += float64(ca.BalanceScore)
	}

	if weightTotal > 0 {
		analysis.OverallBalanceScore = int(math.Round(weightedSum / weightTotal))
	}
	// The verdict intentionally uses the unweighted average: it is the
	// standalone headline rating, independent of the category weighting.
	analysis.OverallVerdict = verdictFor(plainSum / float64(len(cats.All())))
	analysis.OverallBottleneck = overallBottleneck(cpu, gpu)

	return analysis
}

// AnalyzeCategory scores the pairing for a single named category.
func (e *Engine) AnalyzeCategory(cpu, gpu models.ComponentRecord, name string) (models.CategoryAnalysis, error) {
	cat, ok := e.Categories().Get(name)
	if !ok {
		return models.CategoryAnalysis{}, fmt.Errorf("%w: %q", ErrUnknownCategory, name)
	}
	return e.analyzeCategory(cpu, gpu, cat), nil
}

// analyzeCategory runs the category pipeline: minimum-requirements gate,
// tier-gap gate, then ratio scoring combined with absolute performance.
func (e *Engine) analyzeCategory(cpu, gpu models.ComponentRecord, cat Category) models.CategoryAnalysis {
	issues := checkMinimums(cpu, gpu, cat)
	cpuUtil, gpuUtil := utilization(cpu, gpu, cat)

	ca := models.CategoryAnalysis{
		Bottleneck:     detectBottleneck(cpu, gpu, cat),
		CPUUtilization: cpuUtil,
		GPUUtilization: gpuUtil,
		MeetsMinimum:   len(issues) == 0,
		Issues:         issues,
	}
	ca.BalanceScore = balanceScore(cpu, gpu, cat, ca.MeetsMinimum)
	ca.Performance = verdictFor(float64(ca.BalanceScore))
	return ca
}

// checkMinimums compares both records against the category floors. A
// missing optional attribute (zero value) skips that check rather than
// failing it.
func checkMinimums(cpu, gpu models.ComponentRecord, cat Category) []string {
	var issues []string
	min := cat.Minimum

	if min.CPUScore > 0 && cpu.NormalizedScore < min.CPUScore {
		issues = append(issues, fmt.Sprintf(
			"CPU score (%d) below minimum (%d) for %s", cpu.NormalizedScore, min.CPUScore, cat.Name))
	}
	if min.CPUCores > 0 && cpu.Cores > 0 && cpu.Cores < min.CPUCores {
		issues = append(issues, fmt.Sprintf(
			"CPU has only %d cores, %s needs %d+", cpu.Cores, cat.Name, min.CPUCores))
	}
	if min.CPUThreads > 0 && cpu.Threads > 0 && cpu.Threads < min.CPUThreads {
		issues = append(issues, fmt.Sprintf(
			"CPU has only %d threads, %s needs %d+", cpu.Threads, cat.Name, min.CPUThreads))
	}
	if min.CPUSingleThread > 0 && cpu.SingleThreadRating > 0 && cpu.SingleThreadRating < min.CPUSingleThread {
		issues = append(issues, fmt.Sprintf(
			"CPU single-thread (%d) below minimum (%d)", cpu.SingleThreadRating, min.CPUSingleThread))
	}
	if min.GPUScore > 0 && gpu.NormalizedScore < min.GPUScore {
		issues = append(issues, fmt.Sprintf(
			"GPU score (%d) below minimum (%d) for %s", gpu.NormalizedScore, min.GPUScore, cat.Name))
	}
	if min.GPUMemoryGB > 0 && gpu.MemorySizeGB > 0 && gpu.MemorySizeGB < min.GPUMemoryGB {
		issues = append(issues, fmt.Sprintf(
			"GPU has only %dGB VRAM, %s needs %dGB+", gpu.MemorySizeGB, cat.Name, min.GPUMemoryGB))
	}

	return issues
}

// balanceScore computes the 0-100 category score. Gate order: minimum
// requirements zero the score; an excessive tier gap takes a coarse
// penalty independent of finer balance; otherwise the score combines
// ratio balance (60%) with absolute performance (40%).
func balanceScore(cpu, gpu models.ComponentRecord, cat Category, meetsMin bool) int {
	if !meetsMin {
		return 0
	}

	tierDiff := cpu.Tier.Ordinal() - gpu.Tier.Ordinal()
	if tierDiff < 0 {
		tierDiff = -tierDiff
	}
	if tierDiff > cat.MaxTierDifference {
		score := 30 - tierDiff*10
		if score < 0 {
			score = 0
		}
		return score
	}

	if cpu.RawScore == 0 || gpu.RawScore == 0 {
		return 50 // Unknown strength: neutral score rather than a failure.
	}

	params := ratioFor(cat)
	ratio := float64(cpu.RawScore) / float64(gpu.RawScore)
	deviation := math.Abs(ratio - params.expected)

	var ratioScore float64
	if deviation <= params.tolerance {
		ratioScore = 100 - (deviation/params.tolerance)*20
	} else {
		ratioScore = math.Max(0, 80-(deviation-params.tolerance)*30)
	}

	cpuNorm := math.Min(100, float64(cpu.RawScore)/cpuScoreCeiling*100)
	gpuNorm := math.Min(100, float64(gpu.RawScore)/gpuScoreCeiling*100)
	performanceScore := cpuNorm*cat.CPUImportance + gpuNorm*cat.GPUImportance

	score := int(math.Round(ratioScore*0.6 + performanceScore*0.4))
	if score > 100 {
		score = 100
	}
	if score < 0 {
		score = 0
	}
	return score
}

// detectBottleneck classifies the per-category bottleneck from the
// raw-score ratio against the category's bound thresholds.
func detectBottleneck(cpu, gpu models.ComponentRecord, cat Category) models.Bottleneck {
	if cpu.RawScore == 0 || gpu.RawScore == 0 {
		return models.BottleneckNone
	}

	params := ratioFor(cat)
	ratio := float64(cpu.RawScore) / float64(gpu.RawScore)

	switch {
	case ratio < params.cpuBound:
		if ratio < params.cpuBound*0.7 {
			return models.BottleneckCPU
		}
		return models.BottleneckSlightCPU
	case ratio > params.gpuBound:
		if ratio > params.gpuBound*1.3 {
			return models.BottleneckGPU
		}
		return models.BottleneckSlightGPU
	}
	return models.BottleneckNone
}

// utilization estimates how loaded each side runs for the category:
// baseline from the importance split, shifted 20% toward whichever side
// limits the pairing when the ratio leaves the expected band.
func utilization(cpu, gpu models.ComponentRecord, cat Category) (cpuUtil, gpuUtil int) {
	if cpu.RawScore == 0 || gpu.RawScore == 0 {
		return 50, 50
	}

	params := ratioFor(cat)
	ratio := float64(cpu.RawScore) / float64(gpu.RawScore)

	baseCPU := cat.CPUImportance * 100
	baseGPU := cat.GPUImportance * 100

	switch {
	case ratio > params.expected*1.2:
		// CPU much stronger: the GPU runs maxed out, the CPU idles.
		gpuUtil = clampPct(math.Round(baseGPU * 1.2))
		cpuUtil = clampPct(math.Round(baseCPU * 0.8))
	case ratio < params.expected*0.8:
		cpuUtil = clampPct(math.Round(baseCPU * 1.2))
		gpuUtil = clampPct(math.Round(baseGPU * 0.8))
	default:
		cpuUtil = clampPct(math.Round(baseCPU))
		gpuUtil = clampPct(math.Round(baseGPU))
	}
	return cpuUtil, gpuUtil
}

// overallBottleneck is the coarse headline call on the global raw-score
// ratio, independent of per-category thresholds.
func overallBottleneck(cpu, gpu models.ComponentRecord) models.Bottleneck {
	if cpu.RawScore == 0 || gpu.RawScore == 0 {
		return models.BottleneckNone
	}
	ratio := float64(cpu.RawScore) / float64(gpu.RawScore)
	switch {
	case ratio < overallCPUBoundRatio:
		return models.OverallBottleneckCPU
	case ratio > overallGPUBoundRatio:
		return models.OverallBottleneckGPU
	}
	return models.BottleneckNone
}

// verdictFor buckets a balance score into the fixed verdict breakpoints.
func verdictFor(score float64) models.Verdict {
	switch {
	case score >= 90:
		return models.VerdictExcellent
	case score >= 75:
		return models.VerdictVeryGood
	case score >= 60:
		return models.VerdictGood
	case score >= 40:
		return models.VerdictFair
	}
	return models.VerdictPoor
}

func clampPct(v float64) int {
	if v > 100 {
		return 100
	}
	if v < 0 {
		return 0
	}
	return int(v)
}
