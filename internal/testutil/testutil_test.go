package testutil

import (
	"context"
	"testing"

	"github.com/rigmatch/rigmatch/pkg/models"
)

func TestNewComponentDefaults(t *testing.T) {
	rec := NewComponent()

	if rec.ID == "" {
		t.Error("expected generated ID")
	}
	if rec.Type != models.TypeCPU {
		t.Errorf("type = %q, want CPU", rec.Type)
	}
	if rec.NormalizedName != "ryzen 5 7600" {
		t.Errorf("normalized name = %q, want %q", rec.NormalizedName, "ryzen 5 7600")
	}
	if rec.FirstSeen.IsZero() || rec.LastSeen.IsZero() {
		t.Error("expected timestamps to be set")
	}
}

func TestNewComponentOptions(t *testing.T) {
	rec := NewComponent(
		WithName("NVIDIA GeForce RTX 4060"),
		WithType(models.TypeGPU),
		WithScores(20000, 80),
		WithTier(models.TierHigh),
		WithMemorySize(8),
		WithTDP(115),
	)

	if rec.Type != models.TypeGPU {
		t.Errorf("type = %q, want GPU", rec.Type)
	}
	if rec.NormalizedName != "rtx 4060" {
		t.Errorf("normalized name = %q, want %q", rec.NormalizedName, "rtx 4060")
	}
	if rec.RawScore != 20000 || rec.NormalizedScore != 80 {
		t.Errorf("scores = %d/%d, want 20000/80", rec.RawScore, rec.NormalizedScore)
	}
	if rec.MemorySizeGB != 8 || rec.TDPWatts != 115 {
		t.Errorf("specs = %dGB/%dW, want 8GB/115W", rec.MemorySizeGB, rec.TDPWatts)
	}
}

func TestNewStoreAndSeed(t *testing.T) {
	store := NewStore(t)
	SeedComponents(t, store,
		NewComponent(),
		NewComponent(WithName("Intel Core i5-13600K"), WithScores(26000, 80)),
	)

	n, err := store.Count(context.Background(), models.TypeCPU)
	if err != nil {
		t.Fatalf("count: %v", err)
	}
	if n != 2 {
		t.Errorf("count = %d, want 2", n)
	}

	rec, err := store.Get(context.Background(), "Intel Core i5-13600K", models.TypeCPU)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if rec.RawScore != 26000 {
		t.Errorf("raw score = %d, want 26000", rec.RawScore)
	}
}

func TestLoggerNotNil(t *testing.T) {
	if Logger() == nil {
		t.Fatal("expected non-nil logger")
	}
}
