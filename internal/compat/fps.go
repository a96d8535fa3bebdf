package compat

import (
	"fmt"
	"math"

	"github.com/rigmatch/rigmatch/pkg/models"
)

// FPS scaling factors per category: lighter games convert normalized
// score into frames far more aggressively than heavy AAA titles.
var fpsScalingFactors = map[string]float64{
	"esport":     3.5,
	"aaa_gpu":    1.2,
	"balanced":   2.0,
	"simulation": 2.5,
}

// Resolution x settings multipliers applied on top of the category factor.
var resolutionMultipliers = map[string]map[string]float64{
	"1080p": {"low": 1.2, "medium": 1.0, "high": 0.85, "ultra": 0.70},
	"1440p": {"low": 0.78, "medium": 0.65, "high": 0.55, "ultra": 0.45},
	"4K":    {"low": 0.42, "medium": 0.35, "high": 0.28, "ultra": 0.25},
}

// EstimateFPS projects frames per second from a normalized (0-100)
// component score for a category, resolution, and settings level. A
// calibrated heuristic, not a measured frame rate.
func EstimateFPS(normalizedScore int, resolution, settings, category string) int {
	if normalizedScore <= 0 {
		return 0
	}

	scaling, ok := fpsScalingFactors[category]
	if !ok {
		scaling = 2.0
	}
	mult := 1.0
	if byRes, ok := resolutionMultipliers[resolution]; ok {
		if m, ok := byRes[settings]; ok {
			mult = m
		}
	}

	fps := int(math.Round(float64(normalizedScore) * scaling * mult))
	if fps < 1 {
		fps = 1
	}
	return fps
}

// PerformanceTierForResolution describes what a normalized score buys at
// a given resolution.
func PerformanceTierForResolution(normalizedScore int, resolution string) string {
	switch resolution {
	case "1080p":
		switch {
		case normalizedScore >= 80:
			return "ultra (144+ FPS)"
		case normalizedScore >= 60:
			return "high (100+ FPS)"
		case normalizedScore >= 40:
			return "medium (60+ FPS)"
		}
		return "low (30-60 FPS)"
	case "1440p":
		switch {
		case normalizedScore >= 85:
			return "ultra (100+ FPS)"
		case normalizedScore >= 70:
			return "high (80+ FPS)"
		case normalizedScore >= 50:
			return "medium (60+ FPS)"
		}
		return "low (30-60 FPS)"
	case "4K":
		switch {
		case normalizedScore >= 92:
			return "ultra (60+ FPS)"
		case normalizedScore >= 80:
			return "high (50+ FPS)"
		case normalizedScore >= 60:
			return "medium (40+ FPS)"
		}
		return "low (30+ FPS)"
	}
	return "unknown"
}

// CategoryPerformance summarizes one category's outlook in a gaming
// profile.
type CategoryPerformance struct {
	Games          []string          `json:"games"`
	FPSEstimate    string            `json:"fps_estimate"`
	Settings       string            `json:"settings"`
	Bottleneck     models.Bottleneck `json:"bottleneck,omitempty"`
	CPUUtilization string            `json:"cpu_utilization"`
	GPUUtilization string            `json:"gpu_utilization"`
}

// GamingProfile is the per-resolution playability summary for a pairing.
type GamingProfile struct {
	Resolution             string                         `json:"resolution"`
	OverallBalanceScore    int                            `json:"overall_balance_score"`
	OverallVerdict         models.Verdict                 `json:"overall_verdict"`
	PerformanceByCategory  map[string]CategoryPerformance `json:"performance_by_category"`
	UpgradeRecommendations map[string]string              `json:"upgrade_recommendations,omitempty"`
}

// GamingProfile builds the full playability summary for a pairing at a
// resolution, including per-category FPS projections and upgrade hints
// where the tier gap breaks a category.
func (e *Engine) GamingProfile(cpu, gpu models.ComponentRecord, resolution string) GamingProfile {
	analysis := e.AnalyzePairing(cpu, gpu)
	cats := e.Categories()

	profile := GamingProfile{
		Resolution:            resolution,
		OverallBalanceScore:   analysis.OverallBalanceScore,
		OverallVerdict:        analysis.OverallVerdict,
		PerformanceByCategory: make(map[string]CategoryPerformance, len(cats.All())),
	}

	for _, cat := range cats.All() {
		ca := analysis.ByCategory[cat.Name]

		// The weaker side for the category drives the FPS projection.
		score := gpu.NormalizedScore
		if cat.CPUImportance > cat.GPUImportance {
			score = cpu.NormalizedScore
		}
		settings := settingsFor(ca.BalanceScore)

		profile.PerformanceByCategory[cat.Name] = CategoryPerformance{
			Games:          cat.Examples,
			FPSEstimate:    fmt.Sprintf("~%d FPS", EstimateFPS(score, resolution, settings, cat.Name)),
			Settings:       settings,
			Bottleneck:     ca.Bottleneck,
			CPUUtilization: fmt.Sprintf("%d%%", ca.CPUUtilization),
			GPUUtilization: fmt.Sprintf("%d%%", ca.GPUUtilization),
		}

		if advice, ok := tierAdvice(cpu, gpu, cat); ok {
			if profile.UpgradeRecommendations == nil {
				profile.UpgradeRecommendations = make(map[string]string)
			}
			profile.UpgradeRecommendations[cat.Name] = advice
		}
	}

	return profile
}

// settingsFor picks the settings level a balance score supports.
func settingsFor(balanceScore int) string {
	switch {
	case balanceScore >= 85:
		return "ultra"
	case balanceScore >= 65:
		return "high"
	case balanceScore >= 40:
		return "medium"
	}
	return "low"
}

// tierNames in ordinal order; index 0 unused.
var tierNames = [...]models.Tier{"", models.TierLow, models.TierMid, models.TierHigh, models.TierUltra}

// tierAdvice suggests which side to upgrade when the tier gap exceeds the
// category's allowance.
func tierAdvice(cpu, gpu models.ComponentRecord, cat Category) (string, bool) {
	cpuOrd := cpu.Tier.Ordinal()
	gpuOrd := gpu.Tier.Ordinal()
	diff := cpuOrd - gpuOrd
	if diff < 0 {
		diff = -diff
	}
	if diff <= cat.MaxTierDifference {
		return "", false
	}

	if cpuOrd < gpuOrd {
		target := tierNames[gpuOrd-cat.MaxTierDifference]
		return fmt.Sprintf("Upgrade CPU to at least '%s' tier (currently '%s')", target, cpu.Tier), true
	}
	target := tierNames[cpuOrd-cat.MaxTierDifference]
	return fmt.Sprintf("Upgrade GPU to at least '%s' tier (currently '%s')", target, gpu.Tier), true
}
