package models

// Bottleneck names the component whose relative weakness caps pairing
// performance. Empty means no bottleneck detected.
type Bottleneck string

const (
	BottleneckNone      Bottleneck = ""
	BottleneckCPU       Bottleneck = "cpu_bottleneck"
	BottleneckSlightCPU Bottleneck = "slight_cpu"
	BottleneckGPU       Bottleneck = "gpu_bottleneck"
	BottleneckSlightGPU Bottleneck = "slight_gpu"

	// Overall headline bottlenecks are coarser than the per-category ones.
	OverallBottleneckCPU Bottleneck = "cpu"
	OverallBottleneckGPU Bottleneck = "gpu"
)

// Verdict is a human-readable rating bucket for a balance score.
type Verdict string

const (
	VerdictExcellent Verdict = "excellent"
	VerdictVeryGood  Verdict = "very_good"
	VerdictGood      Verdict = "good"
	VerdictFair      Verdict = "fair"
	VerdictPoor      Verdict = "poor"
	VerdictUnknown   Verdict = "unknown"
)

// CategoryAnalysis is the pairing analysis for a single workload category.
type CategoryAnalysis struct {
	BalanceScore   int        `json:"balance_score"`
	Bottleneck     Bottleneck `json:"bottleneck,omitempty"`
	CPUUtilization int        `json:"cpu_utilization"`
	GPUUtilization int        `json:"gpu_utilization"`
	Performance    Verdict    `json:"performance"`
	MeetsMinimum   bool       `json:"meets_minimum"`
	Issues         []string   `json:"issues,omitempty"`
}

// PairingAnalysis is the full CPU+GPU analysis across all categories.
type PairingAnalysis struct {
	ByCategory          map[string]CategoryAnalysis `json:"by_category"`
	OverallBalanceScore int                         `json:"overall_balance_score"`
	OverallVerdict      Verdict                     `json:"overall_verdict"`
	OverallBottleneck   Bottleneck                  `json:"overall_bottleneck,omitempty"`
}

// CategoryScore is one category's contribution to a recommendation.
type CategoryScore struct {
	Score  int     `json:"score"`
	Weight float64 `json:"weight"`
}

// Recommendation is a ranked upgrade candidate for a base component.
type Recommendation struct {
	Component      ComponentRecord          `json:"component"`
	MatchScore     int                      `json:"match_score"`
	CategoryScores map[string]CategoryScore `json:"category_scores"`
}
