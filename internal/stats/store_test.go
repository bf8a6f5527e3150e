package stats

import (
	"context"
	"testing"
)

func TestKey(t *testing.T) {
	if got := Key("user-42"); got != "energy_stats:user-42" {
		t.Errorf("Key = %q, want energy_stats:user-42", got)
	}
}

func TestMemoryStore(t *testing.T) {
	store := NewMemoryStore()
	ctx := context.Background()

	// Absent snapshot is not an error.
	_, found, err := store.Get(ctx, "user-1")
	if err != nil {
		t.Fatalf("Get failed: %v", err)
	}
	if found {
		t.Error("found snapshot in empty store")
	}

	first := Snapshot{CurrentProduction: 100, Timestamp: 1}
	if err := store.Put(ctx, "user-1", first); err != nil {
		t.Fatalf("Put failed: %v", err)
	}

	got, found, err := store.Get(ctx, "user-1")
	if err != nil || !found {
		t.Fatalf("Get = (%v, %v), want found", found, err)
	}
	if got != first {
		t.Errorf("Get = %+v, want %+v", got, first)
	}

	// Last write wins.
	second := Snapshot{CurrentProduction: 250, Timestamp: 2}
	if err := store.Put(ctx, "user-1", second); err != nil {
		t.Fatalf("second Put failed: %v", err)
	}
	got, _, _ = store.Get(ctx, "user-1")
	if got != second {
		t.Errorf("Get after overwrite = %+v, want %+v", got, second)
	}

	// Owners are isolated.
	if _, found, _ := store.Get(ctx, "user-2"); found {
		t.Error("snapshot leaked across owners")
	}
}
