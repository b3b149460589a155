package ninja

import (
	"context"
	"math"
	"sort"
	"strings"

	"github.com/exile-economy/market-data/internal/model"
)

// applyExchangeOverlay replays the order book over already-merged entities.
// Exchange quotes are fresher than overview aggregates, so a line that
// matches an entity overwrites its value, change, sparkline, and trade
// count; lines that match nothing become new entities. The hottest entities
// then get a per-item detail pass. Returns the possibly grown slice.
func (c *Client) applyExchangeOverlay(ctx context.Context, entries []*model.Entity, ex *exchangePayload, icons, names map[string]string, league, category string) []*model.Entity {
	if ex == nil || ex.Lines == nil {
		return entries
	}

	cpp := chaosPerPrimary(ex.Core)
	coreDivine := divineRateFromCore(ex.Core, cpp)
	if coreDivine != 0 {
		for _, entry := range entries {
			if entry.ChaosValue != 0 {
				entry.DivineValue = ptrFloat(entry.ChaosValue / coreDivine)
			}
		}
	}

	lookup := make(map[string]*model.Entity)
	for _, entry := range entries {
		for _, key := range collectKeys(entry.DetailsID, entry.Name) {
			if _, ok := lookup[key]; !ok {
				lookup[key] = entry
			}
		}
	}

	for i := range ex.Lines {
		line := &ex.Lines[i]
		lineKeys := collectKeys(line.ID.String(), line.DetailsID.String(), line.Name.String())
		var target *model.Entity
		for _, key := range lineKeys {
			if candidate, ok := lookup[key]; ok {
				target = candidate
				break
			}
		}
		if target == nil {
			slug := line.ID.String()
			if slug == "" {
				slug = line.DetailsID.String()
			}
			name := line.Name.String()
			if name == "" {
				name = names[slug]
			}
			if name == "" {
				name = humanizeSlug(slug)
			}
			if name == "" {
				name = "Unknown"
			}
			target = &model.Entity{Name: name, DetailsID: slug, IconURL: icons[slug]}
			entries = append(entries, target)
			for _, key := range lineKeys {
				if _, ok := lookup[key]; !ok {
					lookup[key] = target
				}
			}
		}

		if chaos := exchangeChaosValue(line, cpp); chaos != nil {
			target.ChaosValue = *chaos
			if coreDivine != 0 {
				if *chaos != 0 {
					target.DivineValue = ptrFloat(*chaos / coreDivine)
				} else {
					target.DivineValue = nil
				}
			}
		}

		if change := orChain(line.Change, sparkChange(line.SparkLine)); change.Valid {
			target.ChangePercent = ptrFloat(change.Value)
		}

		spark := sparkData(line.SparkLine)
		if len(spark) == 0 {
			spark = sparkData(line.ReceiveSparkLine)
		}
		if len(spark) == 0 {
			spark = sparkData(line.PaySparkLine)
		}
		if len(spark) > 0 {
			target.Sparkline = spark
		}

		if tc := firstNonZero(lineTradeCount(line), nodeTradeCount(line.Receive), nodeTradeCount(line.Pay)); tc != 0 {
			target.TradeCount = ptrInt(tc)
		} else {
			for _, vol := range []Float{line.Volume, line.VolumePrimaryValue, line.VolumeSecondaryValue} {
				if vol.Truthy() {
					target.TradeCount = ptrInt(int(math.Round(vol.Value)))
					break
				}
			}
		}

		slug := line.ID.String()
		if slug == "" {
			slug = line.DetailsID.String()
		}
		if slug != "" && target.DetailsID == "" {
			target.DetailsID = slug
		}
		if slug != "" && target.IconURL == "" {
			target.IconURL = icons[slug]
		}
	}

	// Per-item details are one request each, so only the most valuable
	// entities earn one.
	ranked := make([]*model.Entity, len(entries))
	copy(ranked, entries)
	sort.SliceStable(ranked, func(i, j int) bool { return ranked[i].ChaosValue > ranked[j].ChaosValue })
	if len(ranked) > c.maxDetail {
		ranked = ranked[:c.maxDetail]
	}
	var detailIDs []string
	for _, entry := range ranked {
		if entry.DetailsID != "" {
			detailIDs = append(detailIDs, entry.DetailsID)
		}
	}
	details := c.fetchExchangeDetails(ctx, league, category, detailIDs)
	if len(details) > 0 {
		for _, entry := range entries {
			if entry.DetailsID == "" {
				continue
			}
			if detail, ok := details[entry.DetailsID]; ok && detail != nil {
				updateEntryFromDetail(entry, detail, icons, names, coreDivine)
			}
		}
	}
	return entries
}

// updateEntryFromDetail overlays a per-item detail payload onto an entity.
// The detail's display name wins outright; everything else only fills or
// refreshes what the coarser passes produced.
func updateEntryFromDetail(entry *model.Entity, detail *detailPayload, icons, names map[string]string, divineRate float64) {
	if detail.Line != nil {
		if chaos := exchangeChaosValue(detail.Line, divineRate); chaos != nil {
			entry.ChaosValue = *chaos
		}
		if tc := firstNonZero(lineTradeCount(detail.Line), nodeTradeCount(detail.Line.Receive), nodeTradeCount(detail.Line.Pay)); tc != 0 {
			entry.TradeCount = ptrInt(tc)
		}
	}

	change := orChain(
		sparkChange(detail.ReceiveSparkLine),
		sparkChange(detail.PaySparkLine),
		sparkChange(detail.SparkLine),
		detail.TotalChange,
	)
	if change.Valid {
		entry.ChangePercent = ptrFloat(change.Value)
	}

	spark := sparkData(detail.SparkLine)
	if len(spark) == 0 {
		spark = sparkData(detail.ReceiveSparkLine)
	}
	if len(spark) == 0 {
		spark = sparkData(detail.PaySparkLine)
	}
	if len(spark) == 0 {
		spark = []float64(detail.History)
	}
	if len(spark) > 0 {
		entry.Sparkline = spark
	}

	if entry.TradeCount == nil || *entry.TradeCount == 0 {
		if vol, ok := firstTruthy(detail.TotalVolume, detail.Volume); ok {
			entry.TradeCount = ptrInt(int(math.Round(vol)))
		}
	}

	if icon := detail.Icon.String(); icon != "" && entry.IconURL == "" {
		entry.IconURL = icon
	}
	if name := strings.TrimSpace(detail.Name.String()); name != "" {
		entry.Name = name
	}

	if entry.DetailsID != "" && entry.IconURL == "" {
		entry.IconURL = icons[entry.DetailsID]
	}
	if entry.DetailsID != "" && entry.Name == "Unknown" {
		if mapped := names[entry.DetailsID]; mapped != "" {
			entry.Name = mapped
		}
	}

	if divineRate != 0 && entry.ChaosValue != 0 {
		entry.DivineValue = ptrFloat(entry.ChaosValue / divineRate)
	}
}
