package scrape

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/zap"

	"github.com/rigmatch/rigmatch/internal/catalog"
	"github.com/rigmatch/rigmatch/internal/normalize"
	"github.com/rigmatch/rigmatch/pkg/models"
)

// listingSource is one ranking page to pull for a component type. RAM is
// split across per-generation pages whose names get a suffix so DDR4 and
// DDR5 kits with the same model name stay distinct.
type listingSource struct {
	url        string
	nameSuffix string
}

var listingSources = map[models.ComponentType][]listingSource{
	models.TypeCPU: {
		{url: "https://www.cpubenchmark.net/cpu_list.php"},
	},
	models.TypeGPU: {
		{url: "https://www.videocardbenchmark.net/gpu_list.php"},
	},
	models.TypeRAM: {
		{url: "https://www.memorybenchmark.net/ram_list.php", nameSuffix: " (DDR5)"},
		{url: "https://www.memorybenchmark.net/ram_list-ddr4.php", nameSuffix: " (DDR4)"},
		{url: "https://www.memorybenchmark.net/ram_list-ddr3.php", nameSuffix: " (DDR3)"},
	},
	models.TypeStorage: {
		{url: "https://www.harddrivebenchmark.net/hdd_list.php"},
	},
}

// Fetcher downloads a URL. Satisfied by *Client.
type Fetcher interface {
	Fetch(ctx context.Context, url string) ([]byte, error)
}

// CatalogWriter stores scraped components. Satisfied by *catalog.Store.
type CatalogWriter interface {
	Upsert(ctx context.Context, rec *models.ComponentRecord) error
}

// Scraper syncs benchmark listings into the catalog.
type Scraper struct {
	fetcher Fetcher
	store   CatalogWriter
	tracker *Tracker
	metrics *Metrics
	logger  *zap.Logger

	// limit caps components stored per type; <= 0 means unlimited.
	limit int
}

// NewScraper wires a scraper. The tracker is shared with status readers.
func NewScraper(fetcher Fetcher, store CatalogWriter, tracker *Tracker, metrics *Metrics, limit int, logger *zap.Logger) *Scraper {
	return &Scraper{
		fetcher: fetcher,
		store:   store,
		tracker: tracker,
		metrics: metrics,
		logger:  logger,
		limit:   limit,
	}
}

// ErrAlreadyRunning is returned when a run is requested while one is in
// progress.
var ErrAlreadyRunning = errors.New("scrape already running")

// Run syncs all requested component types sequentially. Only one run may
// be active at a time: the tracker is claimed atomically before any work
// starts and held until every type is done.
func (s *Scraper) Run(ctx context.Context, types []models.ComponentType) error {
	if !s.tracker.Begin() {
		return ErrAlreadyRunning
	}
	defer s.tracker.Finish()

	for _, t := range types {
		if err := s.syncType(ctx, t); err != nil {
			return fmt.Errorf("sync %s: %w", t, err)
		}
	}
	s.metrics.RunsTotal.Inc()
	return nil
}

// syncType pulls every listing source for one component type and upserts
// the parsed rows.
func (s *Scraper) syncType(ctx context.Context, t models.ComponentType) error {
	sources, ok := listingSources[t]
	if !ok {
		return fmt.Errorf("no listing source for component type %q", t)
	}

	var listings []Listing
	for _, src := range sources {
		body, err := s.fetcher.Fetch(ctx, src.url)
		if err != nil {
			s.metrics.Errors.WithLabelValues(string(t)).Inc()
			return err
		}
		s.metrics.PagesFetched.WithLabelValues(string(t)).Inc()

		parsed, err := ParseListing(body, t)
		if err != nil {
			s.metrics.Errors.WithLabelValues(string(t)).Inc()
			return fmt.Errorf("parse %s: %w", src.url, err)
		}
		for _, l := range parsed {
			l.Name += src.nameSuffix
			listings = append(listings, l)
		}
	}
	if s.limit > 0 && len(listings) > s.limit {
		listings = listings[:s.limit]
	}

	s.tracker.Start(string(t), len(listings))

	s.logger.Info("syncing component listings",
		zap.String("component_type", string(t)),
		zap.Int("count", len(listings)))

	for i, l := range listings {
		if err := ctx.Err(); err != nil {
			return err
		}
		s.tracker.Update(i+1, l.Name)

		rec := recordFromListing(l, t)
		if err := s.store.Upsert(ctx, rec); err != nil {
			s.tracker.AddError(fmt.Sprintf("%s: %v", l.Name, err))
			s.metrics.Errors.WithLabelValues(string(t)).Inc()
			continue
		}
		s.tracker.AddSaved()
		s.metrics.ComponentsSaved.WithLabelValues(string(t)).Inc()
	}
	return nil
}

// recordFromListing derives the stored record from a parsed row: the
// normalized name and score, tier, and re-derived market segment.
func recordFromListing(l Listing, t models.ComponentType) *models.ComponentRecord {
	normScore := normalize.Score(t, l.RawScore)
	return &models.ComponentRecord{
		Name:            l.Name,
		NormalizedName:  normalize.Name(l.Name),
		Type:            t,
		Segment:         catalog.ClassifySegment(l.Name, t),
		RawScore:        l.RawScore,
		NormalizedScore: normScore,
		Tier:            normalize.TierFor(normScore),
	}
}

// Enrich fetches a single component's detail page and merges its specs
// into the record.
func (s *Scraper) Enrich(ctx context.Context, rec *models.ComponentRecord, pageURL string) error {
	body, err := s.fetcher.Fetch(ctx, pageURL)
	if err != nil {
		return err
	}
	details, err := ParseComponentPage(body, rec.Type)
	if err != nil {
		return fmt.Errorf("parse %s: %w", pageURL, err)
	}

	if details.Cores > 0 {
		rec.Cores = details.Cores
	}
	if details.Threads > 0 {
		rec.Threads = details.Threads
	}
	if details.SingleThreadRating > 0 {
		rec.SingleThreadRating = details.SingleThreadRating
	}
	if details.TDPWatts > 0 {
		rec.TDPWatts = details.TDPWatts
	}
	if details.MemorySizeGB > 0 {
		rec.MemorySizeGB = details.MemorySizeGB
	}
	return s.store.Upsert(ctx, rec)
}
