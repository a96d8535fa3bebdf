package scrape

import (
	"fmt"
	"testing"
)

func TestTrackerLifecycle(t *testing.T) {
	tr := NewTracker()

	if tr.Running() {
		t.Error("new tracker should be idle")
	}

	if !tr.Begin() {
		t.Fatal("Begin should claim an idle tracker")
	}
	if !tr.Running() {
		t.Error("tracker should be running after Begin")
	}

	tr.Start("GPU", 200)
	tr.Update(50, "GeForce RTX 4070")
	tr.AddSaved()
	tr.AddSkipped()

	snap := tr.Snapshot()
	if snap.ComponentType != "GPU" || snap.CurrentItem != "GeForce RTX 4070" {
		t.Errorf("snapshot = %+v", snap)
	}
	if snap.Progress.Current != 50 || snap.Progress.Total != 200 || snap.Progress.Percentage != 25 {
		t.Errorf("progress = %+v, want 50/200 (25%%)", snap.Progress)
	}
	if snap.Stats.Saved != 1 || snap.Stats.Skipped != 1 {
		t.Errorf("stats = %+v", snap.Stats)
	}

	tr.Finish()
	snap = tr.Snapshot()
	if snap.Running || snap.CurrentItem != "" {
		t.Errorf("after Finish: %+v", snap)
	}
	// Counters stay readable until the next run begins.
	if snap.Stats.Saved != 1 {
		t.Errorf("saved = %d, want 1 after finish", snap.Stats.Saved)
	}
}

func TestTrackerBeginClaimsRunExclusively(t *testing.T) {
	tr := NewTracker()
	if !tr.Begin() {
		t.Fatal("first Begin should succeed")
	}
	if tr.Begin() {
		t.Error("second Begin should fail while the run is active")
	}
	tr.Finish()
	if !tr.Begin() {
		t.Error("Begin should succeed again after Finish")
	}
}

func TestTrackerBeginResetsState(t *testing.T) {
	tr := NewTracker()
	tr.Begin()
	tr.Start("CPU", 10)
	tr.AddSaved()
	tr.AddError("boom")
	tr.Finish()

	tr.Begin()
	snap := tr.Snapshot()
	if snap.Stats.Saved != 0 || snap.Stats.Errors != 0 || len(snap.RecentErrors) != 0 {
		t.Errorf("state not reset: %+v", snap)
	}
}

func TestTrackerStatsCarryAcrossPhases(t *testing.T) {
	tr := NewTracker()
	tr.Begin()
	tr.Start("CPU", 10)
	tr.AddSaved()
	tr.Update(10, "last cpu")

	tr.Start("GPU", 5)
	snap := tr.Snapshot()
	if snap.Stats.Saved != 1 {
		t.Errorf("saved = %d, want counters to survive a phase change", snap.Stats.Saved)
	}
	if snap.ComponentType != "GPU" || snap.Progress.Current != 0 || snap.Progress.Total != 5 || snap.CurrentItem != "" {
		t.Errorf("phase position not reset: %+v", snap)
	}
}

func TestTrackerErrorHistoryBounded(t *testing.T) {
	tr := NewTracker()
	tr.Begin()
	tr.Start("CPU", 100)
	for i := range 20 {
		tr.AddError(fmt.Sprintf("error %d", i))
	}

	snap := tr.Snapshot()
	if snap.Stats.Errors != 20 {
		t.Errorf("error count = %d, want 20", snap.Stats.Errors)
	}
	if len(snap.RecentErrors) != 5 {
		t.Fatalf("recent errors = %d, want 5", len(snap.RecentErrors))
	}
	if snap.RecentErrors[4].Message != "error 19" {
		t.Errorf("last error = %q, want error 19", snap.RecentErrors[4].Message)
	}
}

func TestTrackerZeroTotalPercentage(t *testing.T) {
	tr := NewTracker()
	tr.Begin()
	tr.Start("CPU", 0)
	if pct := tr.Snapshot().Progress.Percentage; pct != 0 {
		t.Errorf("percentage = %v, want 0 for empty run", pct)
	}
}
