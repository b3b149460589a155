package cache

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/exile-economy/market-data/internal/model"
)

func testSnapshot() *model.Snapshot {
	return &model.Snapshot{
		ID:     uuid.New(),
		League: "Standard",
		Source: "Currency:poe2-exchange",
		Entities: []*model.Entity{
			{
				Name:        "Divine Orb",
				ChaosValue:  182,
				DivineValue: func() *float64 { v := 1.0; return &v }(),
				Sparkline:   []float64{1, 2, 3},
				DetailsID:   "divine-orb",
				IconURL:     "https://poe.ninja/img/divine.png",
			},
			{Name: "Chaos Orb", ChaosValue: 1},
		},
		FetchedAt: time.Now().Truncate(time.Millisecond),
	}
}

func TestDiskStoreRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), ".cache", "snapshots.json")
	store := NewDiskStore(path, DefaultTTL)
	ctx := context.Background()
	snap := testSnapshot()

	if err := store.Set(ctx, "Currency", snap); err != nil {
		t.Fatalf("Set: %v", err)
	}

	// A fresh store reads the same file back.
	reread := NewDiskStore(path, DefaultTTL)
	got, ok := reread.Get(ctx, "  CURRENCY  ")
	if !ok {
		t.Fatal("Get after reload: miss, want hit through normalized key")
	}
	if got.ID != snap.ID || got.League != snap.League || got.Source != snap.Source {
		t.Errorf("snapshot header = %s/%s/%s", got.ID, got.League, got.Source)
	}
	if len(got.Entities) != 2 {
		t.Fatalf("entities = %d, want 2", len(got.Entities))
	}
	divine := got.Entities[0]
	if divine.Name != "Divine Orb" || divine.ChaosValue != 182 {
		t.Errorf("entity = %q/%v", divine.Name, divine.ChaosValue)
	}
	if divine.DivineValue == nil || *divine.DivineValue != 1 {
		t.Errorf("divine value = %v", divine.DivineValue)
	}
	if got.Entities[1].DivineValue != nil {
		t.Error("nil optional came back non-nil")
	}
	if got.FetchedAt.Sub(snap.FetchedAt) > time.Millisecond || snap.FetchedAt.Sub(got.FetchedAt) > time.Millisecond {
		t.Errorf("fetched_at drifted: %v vs %v", got.FetchedAt, snap.FetchedAt)
	}
}

func TestDiskStoreExpiry(t *testing.T) {
	path := filepath.Join(t.TempDir(), "snapshots.json")
	ctx := context.Background()

	store := NewDiskStore(path, time.Hour)
	if err := store.Set(ctx, "currency", testSnapshot()); err != nil {
		t.Fatalf("Set: %v", err)
	}

	// Backdate the slot on disk past the TTL.
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read cache file: %v", err)
	}
	var payload map[string]diskEntry
	if err := json.Unmarshal(data, &payload); err != nil {
		t.Fatalf("decode cache file: %v", err)
	}
	entry := payload["currency"]
	entry.CachedAt -= 2 * time.Hour.Seconds()
	payload["currency"] = entry
	data, _ = json.Marshal(payload)
	if err := os.WriteFile(path, data, 0o644); err != nil {
		t.Fatalf("write cache file: %v", err)
	}

	if _, ok := NewDiskStore(path, time.Hour).Get(ctx, "currency"); ok {
		t.Error("expired slot served")
	}

	// TTL 0 disables expiry.
	if _, ok := NewDiskStore(path, 0).Get(ctx, "currency"); !ok {
		t.Error("ttl 0 dropped a slot")
	}
}

func TestDiskStoreRemove(t *testing.T) {
	path := filepath.Join(t.TempDir(), "snapshots.json")
	ctx := context.Background()
	store := NewDiskStore(path, DefaultTTL)

	if err := store.Set(ctx, "currency", testSnapshot()); err != nil {
		t.Fatalf("Set: %v", err)
	}
	if err := store.Remove(ctx, "CURRENCY"); err != nil {
		t.Fatalf("Remove: %v", err)
	}
	if _, ok := store.Get(ctx, "currency"); ok {
		t.Error("removed slot still served")
	}
	if _, ok := NewDiskStore(path, DefaultTTL).Get(ctx, "currency"); ok {
		t.Error("removal not persisted")
	}
	if err := store.Remove(ctx, "missing"); err != nil {
		t.Errorf("Remove of absent key: %v", err)
	}
}

func TestDiskStoreItems(t *testing.T) {
	path := filepath.Join(t.TempDir(), "snapshots.json")
	ctx := context.Background()
	store := NewDiskStore(path, DefaultTTL)

	if err := store.Set(ctx, "Currency", testSnapshot()); err != nil {
		t.Fatalf("Set: %v", err)
	}
	if err := store.Set(ctx, "Fragments", testSnapshot()); err != nil {
		t.Fatalf("Set: %v", err)
	}

	items, err := store.Items(ctx)
	if err != nil {
		t.Fatalf("Items: %v", err)
	}
	if len(items) != 2 {
		t.Fatalf("items = %d, want 2", len(items))
	}
	for _, key := range []string{"currency", "fragments"} {
		if _, ok := items[key]; !ok {
			t.Errorf("key %q missing from items", key)
		}
	}
}

func TestDiskStoreItemsPersistsPrune(t *testing.T) {
	path := filepath.Join(t.TempDir(), "snapshots.json")
	ctx := context.Background()
	store := NewDiskStore(path, time.Hour)

	if err := store.Set(ctx, "currency", testSnapshot()); err != nil {
		t.Fatalf("Set: %v", err)
	}
	if err := store.Set(ctx, "runes", testSnapshot()); err != nil {
		t.Fatalf("Set: %v", err)
	}

	// Backdate one live slot past the TTL.
	entry := store.entries["currency"]
	entry.CachedAt -= 2 * time.Hour.Seconds()
	store.entries["currency"] = entry

	items, err := store.Items(ctx)
	if err != nil {
		t.Fatalf("Items: %v", err)
	}
	if _, ok := items["currency"]; ok {
		t.Error("expired slot listed")
	}
	if _, ok := items["runes"]; !ok {
		t.Error("live slot missing")
	}

	// The prune must reach the file, not just the in-memory map.
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read cache file: %v", err)
	}
	var payload map[string]diskEntry
	if err := json.Unmarshal(data, &payload); err != nil {
		t.Fatalf("decode cache file: %v", err)
	}
	if _, ok := payload["currency"]; ok {
		t.Error("expired slot still on disk after Items")
	}
	if _, ok := payload["runes"]; !ok {
		t.Error("live slot dropped from disk")
	}
}

func TestDiskStoreCorruptFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "snapshots.json")
	if err := os.WriteFile(path, []byte("not json"), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}
	store := NewDiskStore(path, DefaultTTL)
	if _, ok := store.Get(context.Background(), "currency"); ok {
		t.Error("corrupt file produced a hit")
	}
	// And the store still accepts writes afterwards.
	if err := store.Set(context.Background(), "currency", testSnapshot()); err != nil {
		t.Errorf("Set after corrupt load: %v", err)
	}
}
