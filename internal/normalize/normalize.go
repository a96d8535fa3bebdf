// Package normalize canonicalizes component names and rescales raw
// benchmark scores onto the 0-100 scale used for tier bucketing.
package normalize

import (
	"regexp"
	"strings"

	"github.com/rigmatch/rigmatch/pkg/models"
)

var (
	vendorTokens = regexp.MustCompile(`\b(nvidia|amd|intel|geforce|radeon)\b`)
	nonAlnum     = regexp.MustCompile(`[^a-z0-9\s]`)
)

// Name canonicalizes a raw product name into a comparison key:
// lower-cased, vendor tokens removed, punctuation stripped, whitespace
// collapsed. The same function must be applied when indexing catalog rows
// and when normalizing queries, so substring comparisons line up.
//
//	"NVIDIA GeForce RTX 4070" -> "rtx 4070"
//	"AMD Ryzen 5 7600X"       -> "ryzen 5 7600x"
func Name(name string) string {
	s := strings.ToLower(name)
	s = vendorTokens.ReplaceAllString(s, "")
	s = nonAlnum.ReplaceAllString(s, "")
	return strings.Join(strings.Fields(s), " ")
}

// Score rescales a raw benchmark score to 0-100 using type-specific
// breakpoints. Unknown types fall back to a neutral 50.
func Score(t models.ComponentType, raw int) int {
	switch t {
	case models.TypeCPU:
		return cpuScore(raw)
	case models.TypeGPU:
		return gpuScore(raw)
	case models.TypeRAM:
		return ramScore(raw)
	case models.TypeStorage:
		return storageScore(raw)
	}
	return 50
}

// cpuScore covers the PassMark-style CPU range: ~500 low-end to ~60k HEDT.
func cpuScore(raw int) int {
	switch {
	case raw < 2000:
		return 10
	case raw < 5000:
		return 20
	case raw < 10000:
		return 35
	case raw < 15000:
		return 50
	case raw < 20000:
		return 65
	case raw < 28000:
		return 80
	case raw < 40000:
		return 92
	}
	return 100
}

// gpuScore covers the G3D-style range: ~200 (GT 1030) to ~35k (RTX 4090).
func gpuScore(raw int) int {
	switch {
	case raw < 1000:
		return 5
	case raw < 3000:
		return 15
	case raw < 6000:
		return 30
	case raw < 10000:
		return 50
	case raw < 15000:
		return 65
	case raw < 20000:
		return 80
	case raw < 28000:
		return 92
	}
	return 100
}

// ramScore covers effective-bandwidth scores from entry to extreme DDR5.
func ramScore(raw int) int {
	switch {
	case raw < 3500:
		return 10
	case raw < 4200:
		return 25
	case raw < 4800:
		return 40
	case raw < 5400:
		return 55
	case raw < 6000:
		return 70
	case raw < 6600:
		return 85
	case raw < 7200:
		return 92
	}
	return 100
}

// storageScore covers disk scores from old HDDs to top NVMe drives.
func storageScore(raw int) int {
	switch {
	case raw < 1000:
		return 5
	case raw < 5000:
		return 20
	case raw < 10000:
		return 35
	case raw < 20000:
		return 55
	case raw < 30000:
		return 70
	case raw < 40000:
		return 85
	case raw < 50000:
		return 95
	}
	return 100
}

// TierFor buckets a normalized score into a performance tier.
// Boundaries: <30 low, <60 mid, <85 high, else ultra.
func TierFor(normalized int) models.Tier {
	switch {
	case normalized < 30:
		return models.TierLow
	case normalized < 60:
		return models.TierMid
	case normalized < 85:
		return models.TierHigh
	}
	return models.TierUltra
}
