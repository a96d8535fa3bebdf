package testutil

import (
	"time"

	"github.com/google/uuid"

	"github.com/rigmatch/rigmatch/internal/normalize"
	"github.com/rigmatch/rigmatch/pkg/models"
)

// NewComponent returns a ComponentRecord with sensible CPU defaults,
// suitable for test fixtures. Override individual fields with options.
func NewComponent(opts ...func(*models.ComponentRecord)) models.ComponentRecord {
	rec := models.ComponentRecord{
		ID:              uuid.New().String(),
		Name:            "AMD Ryzen 5 7600",
		Type:            models.TypeCPU,
		Segment:         models.SegmentConsumer,
		RawScore:        25000,
		NormalizedScore: 80,
		Tier:            models.TierHigh,
		Cores:           6,
		Threads:         12,
		FirstSeen:       time.Now().UTC(),
		LastSeen:        time.Now().UTC(),
	}
	for _, opt := range opts {
		opt(&rec)
	}
	if rec.NormalizedName == "" {
		rec.NormalizedName = normalize.Name(rec.Name)
	}
	return rec
}

// WithName sets the component name. The normalized name is derived
// unless set explicitly.
func WithName(name string) func(*models.ComponentRecord) {
	return func(rec *models.ComponentRecord) { rec.Name = name }
}

// WithType sets the component type.
func WithType(t models.ComponentType) func(*models.ComponentRecord) {
	return func(rec *models.ComponentRecord) { rec.Type = t }
}

// WithSegment sets the market segment.
func WithSegment(s models.MarketSegment) func(*models.ComponentRecord) {
	return func(rec *models.ComponentRecord) { rec.Segment = s }
}

// WithScores sets the raw and normalized benchmark scores.
func WithScores(raw, normalized int) func(*models.ComponentRecord) {
	return func(rec *models.ComponentRecord) {
		rec.RawScore = raw
		rec.NormalizedScore = normalized
	}
}

// WithTier sets the performance tier.
func WithTier(tier models.Tier) func(*models.ComponentRecord) {
	return func(rec *models.ComponentRecord) { rec.Tier = tier }
}

// WithCPUSpecs sets the CPU-specific spec fields.
func WithCPUSpecs(cores, threads, singleThread int) func(*models.ComponentRecord) {
	return func(rec *models.ComponentRecord) {
		rec.Cores = cores
		rec.Threads = threads
		rec.SingleThreadRating = singleThread
	}
}

// WithMemorySize sets the GPU memory size in GB.
func WithMemorySize(gb int) func(*models.ComponentRecord) {
	return func(rec *models.ComponentRecord) { rec.MemorySizeGB = gb }
}

// WithTDP sets the listed TDP in watts.
func WithTDP(watts int) func(*models.ComponentRecord) {
	return func(rec *models.ComponentRecord) { rec.TDPWatts = watts }
}
