package scrape

import (
	"sync"
	"time"
)

// maxTrackedErrors bounds the error history kept in memory.
const maxTrackedErrors = 10

// TrackedError is one failure recorded during a run.
type TrackedError struct {
	Timestamp time.Time `json:"timestamp"`
	Message   string    `json:"message"`
}

// Progress is the current/total position within a run.
type Progress struct {
	Current    int     `json:"current"`
	Total      int     `json:"total"`
	Percentage float64 `json:"percentage"`
}

// Stats are the per-run outcome counters.
type Stats struct {
	Saved   int `json:"saved"`
	Skipped int `json:"skipped"`
	Errors  int `json:"errors"`
}

// Snapshot is a point-in-time copy of the tracker state, safe to
// serialize while a run continues.
type Snapshot struct {
	Running       bool           `json:"is_running"`
	ComponentType string         `json:"component_type,omitempty"`
	StartedAt     time.Time      `json:"started_at,omitzero"`
	Progress      Progress       `json:"progress"`
	Stats         Stats          `json:"stats"`
	CurrentItem   string         `json:"current_item,omitempty"`
	RecentErrors  []TrackedError `json:"recent_errors,omitempty"`
}

// Tracker records the progress of the current scrape run. One Tracker is
// shared between the scraper goroutine and status readers. Begin claims
// the run atomically; Start marks per-type phases within it.
type Tracker struct {
	mu sync.Mutex

	running       bool
	componentType string
	startedAt     time.Time
	current       int
	total         int
	saved         int
	skipped       int
	errorCount    int
	currentItem   string
	errors        []TrackedError
}

// NewTracker creates an idle tracker.
func NewTracker() *Tracker {
	return &Tracker{}
}

// Begin claims the tracker for a new run, resetting all counters. It
// returns false without touching any state when a run is already active,
// so check-then-act races between concurrent callers are impossible.
func (t *Tracker) Begin() bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.running {
		return false
	}
	t.running = true
	t.componentType = ""
	t.startedAt = time.Now().UTC()
	t.current = 0
	t.total = 0
	t.saved = 0
	t.skipped = 0
	t.errorCount = 0
	t.currentItem = ""
	t.errors = nil
	return true
}

// Start marks the next per-type phase of the active run. Outcome counters
// carry across phases; only the position resets.
func (t *Tracker) Start(componentType string, total int) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.componentType = componentType
	t.current = 0
	t.total = total
	t.currentItem = ""
}

// Update advances the position marker.
func (t *Tracker) Update(current int, itemName string) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.current = current
	if itemName != "" {
		t.currentItem = itemName
	}
}

// AddSaved counts one stored component.
func (t *Tracker) AddSaved() {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.saved++
}

// AddSkipped counts one component passed over.
func (t *Tracker) AddSkipped() {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.skipped++
}

// AddError records a failure, keeping only the most recent ones.
func (t *Tracker) AddError(msg string) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.errorCount++
	t.errors = append(t.errors, TrackedError{Timestamp: time.Now().UTC(), Message: msg})
	if len(t.errors) > maxTrackedErrors {
		t.errors = t.errors[len(t.errors)-maxTrackedErrors:]
	}
}

// Finish releases the run; counters stay readable until the next Begin.
func (t *Tracker) Finish() {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.running = false
	t.currentItem = ""
}

// Running reports whether a run is in progress.
func (t *Tracker) Running() bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.running
}

// Snapshot copies the current state.
func (t *Tracker) Snapshot() Snapshot {
	t.mu.Lock()
	defer t.mu.Unlock()

	snap := Snapshot{
		Running:       t.running,
		ComponentType: t.componentType,
		StartedAt:     t.startedAt,
		Progress:      Progress{Current: t.current, Total: t.total},
		Stats:         Stats{Saved: t.saved, Skipped: t.skipped, Errors: t.errorCount},
		CurrentItem:   t.currentItem,
	}
	if t.total > 0 {
		snap.Progress.Percentage = float64(t.current) / float64(t.total) * 100
	}
	// Surface only the tail of the error history.
	recent := t.errors
	if len(recent) > 5 {
		recent = recent[len(recent)-5:]
	}
	snap.RecentErrors = append([]TrackedError(nil), recent...)
	return snap
}
