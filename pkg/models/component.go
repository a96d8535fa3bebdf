// Package models defines the value objects shared across RigMatch packages.
package models

import "time"

// ComponentType categorizes a benchmarked hardware component.
type ComponentType string

const (
	TypeCPU     ComponentType = "CPU"
	TypeGPU     ComponentType = "GPU"
	TypeRAM     ComponentType = "RAM"
	TypeStorage ComponentType = "STORAGE"
)

// Valid reports whether t is one of the known component types.
func (t ComponentType) Valid() bool {
	switch t {
	case TypeCPU, TypeGPU, TypeRAM, TypeStorage:
		return true
	}
	return false
}

// Complement returns the paired type for compatibility analysis:
// CPU for GPU and GPU for CPU. Other types have no complement.
func (t ComponentType) Complement() ComponentType {
	switch t {
	case TypeCPU:
		return TypeGPU
	case TypeGPU:
		return TypeCPU
	}
	return ""
}

// MarketSegment classifies where a component is sold.
type MarketSegment string

const (
	SegmentConsumer    MarketSegment = "consumer"
	SegmentMobile      MarketSegment = "mobile"
	SegmentWorkstation MarketSegment = "workstation"
	SegmentServer      MarketSegment = "server"
)

// Tier is a coarse performance bucket derived from the normalized score.
type Tier string

const (
	TierLow   Tier = "low"
	TierMid   Tier = "mid"
	TierHigh  Tier = "high"
	TierUltra Tier = "ultra"
)

// Ordinal maps tiers to comparable integers (low=1 .. ultra=4).
// Unknown tiers map to 1 so gap checks treat them as the weakest bucket.
func (t Tier) Ordinal() int {
	switch t {
	case TierMid:
		return 2
	case TierHigh:
		return 3
	case TierUltra:
		return 4
	default:
		return 1
	}
}

// ComponentRecord is a benchmarked component as stored in the catalog.
// Records are immutable once fetched; callers own them for the duration
// of a request.
type ComponentRecord struct {
	ID                 string        `json:"id"`
	Name               string        `json:"name"`
	NormalizedName     string        `json:"normalized_name"`
	Type               ComponentType `json:"component_type"`
	Segment            MarketSegment `json:"segment"`
	RawScore           int           `json:"raw_score"`
	NormalizedScore    int           `json:"normalized_score"`
	Tier               Tier          `json:"tier"`
	Cores              int           `json:"cores,omitempty"`
	Threads            int           `json:"threads,omitempty"`
	SingleThreadRating int           `json:"single_thread_rating,omitempty"`
	MemorySizeGB       int           `json:"memory_size_gb,omitempty"`
	TDPWatts           int           `json:"tdp_watts,omitempty"`
	FirstSeen          time.Time     `json:"first_seen"`
	LastSeen           time.Time     `json:"last_seen"`
}

// MatchType identifies which matcher strategy produced a candidate.
type MatchType string

const (
	MatchExactNormalized  MatchType = "exact_normalized"
	MatchChipsetExtracted MatchType = "chipset_extracted"
	MatchPartial          MatchType = "partial_match"
	MatchTokenBased       MatchType = "token_based"
)

// MatchCandidate is one ranked result from resolving a free-text query.
// Transient: produced per query, never persisted.
type MatchCandidate struct {
	Name             string    `json:"name"`
	RawScore         int       `json:"raw_score"`
	NormalizedScore  int       `json:"normalized_score"`
	Confidence       float64   `json:"confidence"`
	MatchType        MatchType `json:"match_type"`
	ExtractedChipset string    `json:"extracted_chipset,omitempty"`
	TokensUsed       []string  `json:"tokens_used,omitempty"`
}
