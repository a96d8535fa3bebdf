// Package power estimates system power draw, PSU sizing, and cooling
// needs for a CPU+GPU pairing from TDP data or tier heuristics.
package power

import (
	"fmt"

	"github.com/rigmatch/rigmatch/pkg/models"
)

// systemOverheadWatts covers motherboard, RAM, storage, and fans.
const systemOverheadWatts = 100

// DefaultHeadroomPercent is the PSU sizing margin above total draw.
const DefaultHeadroomPercent = 30

// commonPSUWattages are the retail sizes recommendations round up to.
var commonPSUWattages = []int{450, 550, 650, 750, 850, 1000, 1200, 1500}

// HeatClass buckets total thermal output.
type HeatClass string

const (
	HeatLow     HeatClass = "low"
	HeatMedium  HeatClass = "medium"
	HeatHigh    HeatClass = "high"
	HeatExtreme HeatClass = "extreme"
)

// Analysis is the full power and thermal estimate for a pairing.
type Analysis struct {
	CPUTDPWatts           int       `json:"cpu_tdp"`
	GPUTDPWatts           int       `json:"gpu_tdp"`
	SystemOverheadWatts   int       `json:"system_overhead"`
	TotalTDPWatts         int       `json:"total_tdp"`
	RecommendedPSUWatts   int       `json:"recommended_psu"`
	RecommendedPSURange   string    `json:"recommended_psu_range"`
	HeatClass             HeatClass `json:"heat_class"`
	CoolingRecommendation string    `json:"cooling_recommendation"`
	EfficiencyRating      string    `json:"efficiency_rating"`
	EstimatedIdleWatts    int       `json:"estimated_idle_power"`
	EstimatedGamingWatts  int       `json:"estimated_gaming_power"`
	EstimatedMaxWatts     int       `json:"estimated_max_power"`
}

// Estimator computes power analyses with a configurable PSU headroom.
type Estimator struct {
	headroomPercent int
}

// NewEstimator creates an Estimator. A non-positive headroom falls back
// to the default 30%.
func NewEstimator(headroomPercent int) *Estimator {
	if headroomPercent <= 0 {
		headroomPercent = DefaultHeadroomPercent
	}
	return &Estimator{headroomPercent: headroomPercent}
}

// Analyze estimates draw and sizing for a pairing. Components without a
// listed TDP get a tier-and-score estimate instead.
func (e *Estimator) Analyze(cpu, gpu models.ComponentRecord) Analysis {
	cpuTDP := cpu.TDPWatts
	if cpuTDP == 0 {
		cpuTDP = EstimateTDP(cpu)
	}
	gpuTDP := gpu.TDPWatts
	if gpuTDP == 0 {
		gpuTDP = EstimateTDP(gpu)
	}

	totalTDP := cpuTDP + gpuTDP + systemOverheadWatts
	psu := roundToCommonPSU(totalTDP * (100 + e.headroomPercent) / 100)
	heat := heatClassFor(totalTDP)

	return Analysis{
		CPUTDPWatts:           cpuTDP,
		GPUTDPWatts:           gpuTDP,
		SystemOverheadWatts:   systemOverheadWatts,
		TotalTDPWatts:         totalTDP,
		RecommendedPSUWatts:   psu,
		RecommendedPSURange:   psuRange(psu),
		HeatClass:             heat,
		CoolingRecommendation: coolingFor(cpuTDP),
		EfficiencyRating:      efficiencyFor(psu),
		EstimatedIdleWatts:    idlePower(cpuTDP, gpuTDP),
		EstimatedGamingWatts:  totalTDP * 8 / 10,
		EstimatedMaxWatts:     totalTDP,
	}
}

// EstimateTDP guesses a component's TDP from tier and normalized score
// when benchmark listings omit it.
func EstimateTDP(c models.ComponentRecord) int {
	score := c.NormalizedScore

	if c.Type == models.TypeCPU {
		tdp := 65
		switch c.Tier {
		case models.TierLow:
			tdp = 35
		case models.TierMid:
			tdp = 65
		case models.TierHigh:
			tdp = 105
		case models.TierUltra:
			tdp = 125
		}
		// The strongest parts within a tier run hotter.
		switch {
		case score > 80:
			tdp += 20
		case score > 60:
			tdp += 10
		}
		return tdp
	}

	tdp := 150
	switch c.Tier {
	case models.TierLow:
		tdp = 75
	case models.TierMid:
		tdp = 150
	case models.TierHigh:
		tdp = 250
	case models.TierUltra:
		tdp = 350
	}
	switch {
	case score > 90:
		tdp += 50
	case score > 70:
		tdp += 30
	}
	return tdp
}

// CostEstimate projects electricity costs for a given draw.
type CostEstimate struct {
	DailyKWh       float64 `json:"daily_kwh"`
	MonthlyKWh     float64 `json:"monthly_kwh"`
	YearlyKWh      float64 `json:"yearly_kwh"`
	MonthlyCostUSD float64 `json:"monthly_cost_usd"`
	YearlyCostUSD  float64 `json:"yearly_cost_usd"`
}

// MonthlyCost estimates electricity costs for powerWatts of draw over
// hoursPerDay at costPerKWh dollars.
func MonthlyCost(powerWatts int, hoursPerDay, costPerKWh float64) CostEstimate {
	dailyKWh := float64(powerWatts) / 1000 * hoursPerDay
	return CostEstimate{
		DailyKWh:       dailyKWh,
		MonthlyKWh:     dailyKWh * 30,
		YearlyKWh:      dailyKWh * 365,
		MonthlyCostUSD: dailyKWh * 30 * costPerKWh,
		YearlyCostUSD:  dailyKWh * 365 * costPerKWh,
	}
}

// roundToCommonPSU rounds up to the next retail PSU size, capped at the
// largest common unit.
func roundToCommonPSU(wattage int) int {
	for _, w := range commonPSUWattages {
		if wattage <= w {
			return w
		}
	}
	return commonPSUWattages[len(commonPSUWattages)-1]
}

func heatClassFor(totalTDP int) HeatClass {
	switch {
	case totalTDP < 200:
		return HeatLow
	case totalTDP < 350:
		return HeatMedium
	case totalTDP < 500:
		return HeatHigh
	}
	return HeatExtreme
}

func coolingFor(cpuTDP int) string {
	switch {
	case cpuTDP < 65:
		return "Stock cooler sufficient"
	case cpuTDP < 105:
		return "Good tower air cooler or 120mm AIO"
	case cpuTDP < 125:
		return "High-end tower cooler or 240mm AIO"
	case cpuTDP < 150:
		return "240-280mm AIO recommended"
	}
	return "360mm AIO or custom loop recommended"
}

func efficiencyFor(psuWattage int) string {
	switch {
	case psuWattage <= 550:
		return "80+ Bronze minimum, 80+ Gold recommended"
	case psuWattage <= 750:
		return "80+ Gold recommended"
	case psuWattage <= 1000:
		return "80+ Gold or 80+ Platinum recommended"
	}
	return "80+ Platinum or 80+ Titanium recommended"
}

func psuRange(recommended int) string {
	lower := recommended - 100
	if lower < 450 {
		lower = 450
	}
	return fmt.Sprintf("%d-%dW", lower, recommended+100)
}

// idlePower assumes roughly 12% CPU and 10% GPU of max TDP plus a 30W
// base for the rest of the system.
func idlePower(cpuTDP, gpuTDP int) int {
	return cpuTDP*12/100 + gpuTDP*10/100 + 30
}
