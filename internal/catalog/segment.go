package catalog

import (
	"regexp"
	"strings"

	"github.com/rigmatch/rigmatch/pkg/models"
)

// Name-pattern heuristics for market segmentation. Benchmark listings mix
// desktop, mobile, workstation, and server parts under one table, and the
// stored segment tag can go stale after a re-scrape, so consumers that must
// exclude non-desktop parts re-derive the segment from the name.

var (
	cpuServerKeywords = []string{"epyc", "xeon", "opteron", "ampere altra", "graviton", "neoverse"}
	cpuMobileKeywords = []string{"mobile", "laptop", "ultra 5", "ultra 7", "ultra 9"}

	// Model numbers with a mobile suffix: 9955HX, 12900H, 1360P, 7840U.
	cpuMobilePattern = regexp.MustCompile(`\d+(hx|hs|hq|h|p|u)\b`)

	gpuServerKeywords      = []string{"tesla", "a100", "h100", "a40", "a30"}
	gpuWorkstationKeywords = []string{
		"rtx pro", "rtx 6000", "rtx 5000", "rtx 4000", "rtx 4500", "rtx 3500",
		"quadro", "pro w", "ada generation",
		"radeon pro", "firepro", "ai pro",
	}
	gpuMobileKeywords = []string{"mobile", "laptop", "max-q", "ti mobile"}
)

// ClassifySegment derives the market segment of a component from its
// display name. Unrecognized names default to consumer.
func ClassifySegment(name string, t models.ComponentType) models.MarketSegment {
	lower := strings.ToLower(name)

	switch t {
	case models.TypeCPU:
		if strings.Contains(lower, "apple") || hasApplePrefix(lower) {
			return models.SegmentMobile
		}
		if containsAny(lower, cpuServerKeywords) {
			return models.SegmentServer
		}
		if strings.Contains(lower, "threadripper") {
			return models.SegmentWorkstation
		}
		if cpuMobilePattern.MatchString(lower) || containsAny(lower, cpuMobileKeywords) {
			return models.SegmentMobile
		}

	case models.TypeGPU:
		if containsAny(lower, gpuServerKeywords) {
			return models.SegmentServer
		}
		if containsAny(lower, gpuWorkstationKeywords) {
			return models.SegmentWorkstation
		}
		if containsAny(lower, gpuMobileKeywords) {
			return models.SegmentMobile
		}
	}

	return models.SegmentConsumer
}

// IsDesktop reports whether the named component is a desktop consumer part.
func IsDesktop(name string, t models.ComponentType) bool {
	return ClassifySegment(name, t) == models.SegmentConsumer
}

// hasApplePrefix catches Apple silicon listed without the vendor name
// (M1 Pro, M2 Max, ...).
func hasApplePrefix(lower string) bool {
	for _, p := range []string{"m1 ", "m2 ", "m3 ", "m4 "} {
		if strings.HasPrefix(lower, p) {
			return true
		}
	}
	return false
}

func containsAny(s string, keywords []string) bool {
	for _, k := range keywords {
		if strings.Contains(s, k) {
			return true
		}
	}
	return false
}
