package testutil

import (
	"context"
	"testing"

	"go.uber.org/zap"

	"github.com/rigmatch/rigmatch/internal/catalog"
	"github.com/rigmatch/rigmatch/pkg/models"
)

// NewStore creates an in-memory catalog store for testing.
// The store is automatically closed when the test completes.
func NewStore(t *testing.T) *catalog.Store {
	t.Helper()
	store, err := catalog.Open(":memory:", zap.NewNop())
	if err != nil {
		t.Fatalf("testutil.NewStore: %v", err)
	}
	t.Cleanup(func() { store.Close() })
	return store
}

// SeedComponents upserts the given records into the store.
func SeedComponents(t *testing.T, store *catalog.Store, records ...models.ComponentRecord) {
	t.Helper()
	for i := range records {
		if err := store.Upsert(context.Background(), &records[i]); err != nil {
			t.Fatalf("testutil.SeedComponents: %v", err)
		}
	}
}
