package ninja

import (
	"strings"

	"github.com/exile-economy/market-data/internal/model"
)

// dedupEntries collapses entities that share any normalized key variant of
// their slug or name. The first occurrence owns the record; later
// duplicates merge into it. Output preserves first-seen order.
func dedupEntries(entries []*model.Entity) []*model.Entity {
	owners := make(map[string]*model.Entity)
	var ordered []*model.Entity

	for _, entry := range entries {
		keys := collectKeys(entry.DetailsID, entry.Name)
		var owner *model.Entity
		for _, key := range keys {
			if candidate, ok := owners[key]; ok {
				owner = candidate
				break
			}
		}
		if owner == nil {
			owner = entry
			ordered = append(ordered, owner)
		} else {
			mergeEntityAttributes(owner, entry)
		}
		if len(keys) == 0 {
			keys = []string{strings.ToLower(strings.TrimSpace(entry.Name))}
		}
		for _, key := range keys {
			if key == "" {
				continue
			}
			if _, ok := owners[key]; !ok {
				owners[key] = owner
			}
		}
	}
	return ordered
}

// mergeEntityAttributes folds a duplicate into its owner. Values take the
// max; the rest only fill gaps.
func mergeEntityAttributes(target, source *model.Entity) {
	if source.ChaosValue > target.ChaosValue {
		target.ChaosValue = source.ChaosValue
	}
	if source.DivineValue != nil && (target.DivineValue == nil || *source.DivineValue > *target.DivineValue) {
		target.DivineValue = source.DivineValue
	}
	if len(target.Sparkline) == 0 && len(source.Sparkline) > 0 {
		target.Sparkline = source.Sparkline
	}
	if (target.TradeCount == nil || *target.TradeCount == 0) && source.TradeCount != nil && *source.TradeCount != 0 {
		target.TradeCount = source.TradeCount
	}
	if target.ChangePercent == nil && source.ChangePercent != nil {
		target.ChangePercent = source.ChangePercent
	}
	if target.IconURL == "" && source.IconURL != "" {
		target.IconURL = source.IconURL
	}
}
