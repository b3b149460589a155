package cache

import (
	"context"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/exile-economy/market-data/internal/model"
)

// DefaultTTL is how long a cached snapshot stays servable.
const DefaultTTL = time.Hour

// Store is a TTL-bounded snapshot cache keyed by category.
type Store interface {
	// Get returns the cached snapshot for key, or false when the slot is
	// empty or expired.
	Get(ctx context.Context, key string) (*model.Snapshot, bool)
	// Set stores a snapshot under key, restarting its TTL.
	Set(ctx context.Context, key string, snap *model.Snapshot) error
	// Remove drops the slot for key if present.
	Remove(ctx context.Context, key string) error
	// Items returns every live cached snapshot by normalized key.
	Items(ctx context.Context) (map[string]*model.Snapshot, error)
}

// normalizeKey maps user-facing category spellings onto one cache slot.
func normalizeKey(key string) string {
	return strings.ToLower(strings.TrimSpace(key))
}

// entityRecord is the wire form of one entity. Field names are part of the
// persisted format; do not rename.
type entityRecord struct {
	Name          string    `json:"name"`
	ChaosValue    float64   `json:"chaos_value"`
	DivineValue   *float64  `json:"divine_value"`
	ExaltValue    *float64  `json:"exalt_value"`
	ChangePercent *float64  `json:"change_percent"`
	Sparkline     []float64 `json:"sparkline"`
	TradeCount    *int      `json:"trade_count"`
	DetailsID     string    `json:"details_id"`
	IconURL       string    `json:"icon_url"`
}

// snapshotRecord is the wire form of a snapshot. FetchedAt is Unix seconds.
type snapshotRecord struct {
	ID        string         `json:"id"`
	League    string         `json:"league"`
	Source    string         `json:"source_type"`
	Entities  []entityRecord `json:"entries"`
	FetchedAt float64        `json:"fetched_at"`
}

func encodeSnapshot(snap *model.Snapshot) snapshotRecord {
	rec := snapshotRecord{
		ID:        snap.ID.String(),
		League:    snap.League,
		Source:    snap.Source,
		FetchedAt: float64(snap.FetchedAt.UnixNano()) / float64(time.Second),
	}
	rec.Entities = make([]entityRecord, 0, len(snap.Entities))
	for _, e := range snap.Entities {
		rec.Entities = append(rec.Entities, entityRecord{
			Name:          e.Name,
			ChaosValue:    e.ChaosValue,
			DivineValue:   e.DivineValue,
			ExaltValue:    e.ExaltValue,
			ChangePercent: e.ChangePercent,
			Sparkline:     e.Sparkline,
			TradeCount:    e.TradeCount,
			DetailsID:     e.DetailsID,
			IconURL:       e.IconURL,
		})
	}
	return rec
}

func decodeSnapshot(rec snapshotRecord) *model.Snapshot {
	id, err := uuid.Parse(rec.ID)
	if err != nil {
		id = uuid.Nil
	}
	snap := &model.Snapshot{
		ID:        id,
		League:    rec.League,
		Source:    rec.Source,
		FetchedAt: time.Unix(0, int64(rec.FetchedAt*float64(time.Second))),
	}
	snap.Entities = make([]*model.Entity, 0, len(rec.Entities))
	for _, e := range rec.Entities {
		snap.Entities = append(snap.Entities, &model.Entity{
			Name:          e.Name,
			ChaosValue:    e.ChaosValue,
			DivineValue:   e.DivineValue,
			ExaltValue:    e.ExaltValue,
			ChangePercent: e.ChangePercent,
			Sparkline:     e.Sparkline,
			TradeCount:    e.TradeCount,
			DetailsID:     e.DetailsID,
			IconURL:       e.IconURL,
		})
	}
	return snap
}
