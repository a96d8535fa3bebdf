package catalog

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/rigmatch/rigmatch/pkg/models"
)

// ErrNotFound is returned when a single-record lookup matches nothing.
var ErrNotFound = errors.New("component not found")

// Filter controls which catalog rows Lookup returns. Zero values mean
// "no constraint".
type Filter struct {
	Type        models.ComponentType
	NamePattern string // substring match against normalized_name
	Segment     models.MarketSegment
}

// benchmarkColumns is the shared column list for catalog queries.
const benchmarkColumns = `id, name, normalized_name, component_type, segment,
	raw_score, normalized_score, tier, cores, threads,
	single_thread_rating, memory_size_gb, tdp_watts, first_seen, last_seen`

// Upsert inserts a component or refreshes an existing row keyed by
// (name, component_type). first_seen is preserved on refresh.
func (s *Store) Upsert(ctx context.Context, rec *models.ComponentRecord) error {
	if rec.ID == "" {
		rec.ID = uuid.New().String()
	}
	now := time.Now().UTC()
	if rec.FirstSeen.IsZero() {
		rec.FirstSeen = now
	}
	rec.LastSeen = now

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO component_benchmarks (
			id, name, normalized_name, component_type, segment,
			raw_score, normalized_score, tier, cores, threads,
			single_thread_rating, memory_size_gb, tdp_watts, first_seen, last_seen
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT (name, component_type) DO UPDATE SET
			normalized_name = excluded.normalized_name,
			segment = excluded.segment,
			raw_score = excluded.raw_score,
			normalized_score = excluded.normalized_score,
			tier = excluded.tier,
			cores = excluded.cores,
			threads = excluded.threads,
			single_thread_rating = excluded.single_thread_rating,
			memory_size_gb = excluded.memory_size_gb,
			tdp_watts = excluded.tdp_watts,
			last_seen = excluded.last_seen`,
		rec.ID, rec.Name, rec.NormalizedName, string(rec.Type), string(rec.Segment),
		rec.RawScore, rec.NormalizedScore, string(rec.Tier), rec.Cores, rec.Threads,
		rec.SingleThreadRating, rec.MemorySizeGB, rec.TDPWatts, rec.FirstSeen, rec.LastSeen,
	)
	if err != nil {
		return fmt.Errorf("upsert component %q: %w", rec.Name, err)
	}
	return nil
}

// Lookup returns catalog rows matching the filter, strongest first.
func (s *Store) Lookup(ctx context.Context, filter Filter) ([]models.ComponentRecord, error) {
	where := "1=1"
	var args []any

	if filter.Type != "" {
		where += " AND component_type = ?"
		args = append(args, string(filter.Type))
	}
	if filter.NamePattern != "" {
		where += " AND normalized_name LIKE ?"
		args = append(args, "%"+filter.NamePattern+"%")
	}
	if filter.Segment != "" {
		where += " AND segment = ?"
		args = append(args, string(filter.Segment))
	}

	//nolint:gosec // where uses parameterized placeholders only
	query := fmt.Sprintf(
		"SELECT %s FROM component_benchmarks WHERE %s ORDER BY raw_score DESC",
		benchmarkColumns, where,
	)
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("lookup components: %w", err)
	}
	defer rows.Close()

	return collectRecords(rows)
}

// ListTop returns the strongest components of a type, optionally
// restricted to a market segment.
func (s *Store) ListTop(ctx context.Context, t models.ComponentType, limit int, segment models.MarketSegment) ([]models.ComponentRecord, error) {
	if limit <= 0 {
		limit = 10
	}

	where := "component_type = ?"
	args := []any{string(t)}
	if segment != "" {
		where += " AND segment = ?"
		args = append(args, string(segment))
	}
	args = append(args, limit)

	//nolint:gosec // where uses parameterized placeholders only
	query := fmt.Sprintf(
		"SELECT %s FROM component_benchmarks WHERE %s ORDER BY raw_score DESC LIMIT ?",
		benchmarkColumns, where,
	)
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list top %s: %w", t, err)
	}
	defer rows.Close()

	return collectRecords(rows)
}

// Get returns a single component by exact display name and type.
func (s *Store) Get(ctx context.Context, name string, t models.ComponentType) (*models.ComponentRecord, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT `+benchmarkColumns+` FROM component_benchmarks
		 WHERE name = ? AND component_type = ?`, name, string(t))
	rec, err := scanRecord(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("get component %q: %w", name, err)
	}
	return rec, nil
}

// Count returns the number of catalog rows, optionally per type.
func (s *Store) Count(ctx context.Context, t models.ComponentType) (int, error) {
	query := "SELECT COUNT(*) FROM component_benchmarks"
	var args []any
	if t != "" {
		query += " WHERE component_type = ?"
		args = append(args, string(t))
	}

	var count int
	if err := s.db.QueryRowContext(ctx, query, args...).Scan(&count); err != nil {
		return 0, fmt.Errorf("count components: %w", err)
	}
	return count, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanRecord(row rowScanner) (*models.ComponentRecord, error) {
	var rec models.ComponentRecord
	var typ, segment, tier string
	err := row.Scan(
		&rec.ID, &rec.Name, &rec.NormalizedName, &typ, &segment,
		&rec.RawScore, &rec.NormalizedScore, &tier, &rec.Cores, &rec.Threads,
		&rec.SingleThreadRating, &rec.MemorySizeGB, &rec.TDPWatts,
		&rec.FirstSeen, &rec.LastSeen,
	)
	if err != nil {
		return nil, err
	}
	rec.Type = models.ComponentType(typ)
	rec.Segment = models.MarketSegment(segment)
	rec.Tier = models.Tier(tier)
	return &rec, nil
}

func collectRecords(rows *sql.Rows) ([]models.ComponentRecord, error) {
	records := []models.ComponentRecord{}
	for rows.Next() {
		rec, err := scanRecord(rows)
		if err != nil {
			return nil, fmt.Errorf("scan component: %w", err)
		}
		records = append(records, *rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate components: %w", err)
	}
	return records, nil
}
