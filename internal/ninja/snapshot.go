package ninja

import (
	"context"
	"sort"
	"time"

	"github.com/google/uuid"

	"github.com/exile-economy/market-data/internal/model"
)

// FetchSnapshot fetches and reconciles a full market snapshot for one
// league and category. The game selected on the client decides which
// source family is consulted. Entities come back sorted by chaos value,
// highest first. Returns NoDataError when every source comes up empty.
func (c *Client) FetchSnapshot(ctx context.Context, league, category string) (*model.Snapshot, error) {
	if c.game == GamePoE2 {
		return c.fetchModernSnapshot(ctx, league, category)
	}
	return c.fetchLegacySnapshot(ctx, league, category)
}

// fetchModernSnapshot runs the multi-source pipeline: exchange order book
// first, temp overview as fallback, then the published overview merged on
// top, the exchange overlay, dedup, and the final rate stamps.
func (c *Client) fetchModernSnapshot(ctx context.Context, league, category string) (*model.Snapshot, error) {
	ex := c.fetchExchangeOverview(ctx, league, category)
	rows, exIcons, exNames, exchangeDivine := c.prepareExchangeRows(ex)

	source := "poe2-exchange"
	if len(rows) == 0 {
		var alias string
		rows, alias = c.fetchTempItems(ctx, league, category)
		source = "poe2-temp"
		if alias != "" {
			source = "poe2-temp/" + alias
		}
	}
	if len(rows) == 0 {
		return nil, &NoDataError{League: league, Category: category}
	}

	var ovLines []Line
	ovIcons := map[string]string{}
	ovNames := map[string]string{}
	if p := c.fetchOverviewPayload(ctx, league, category); p != nil {
		ovLines = overviewLines(p)
		ovIcons, ovNames = buildDetailMaps(p.details())
	}
	icons := mergeLookups(ovIcons, exIcons)
	names := mergeLookups(ovNames, exNames)

	divine := divineRateFromRows(rows)
	if divine == 0 && len(ovLines) > 0 {
		divine = divineRateFromOverview(ovLines)
	}
	if divine == 0 {
		divine = exchangeDivine
	}

	idx := buildOverviewIndex(ovLines, names)
	entries := mergeRows(rows, idx, icons, names, divine)
	if ex != nil {
		entries = c.applyExchangeOverlay(ctx, entries, ex, icons, names, league, category)
	}
	entries = addUnmatchedOverviewLines(entries, idx, icons, names, divine)
	entries = dedupEntries(entries)

	if divine > 0 {
		for _, entry := range entries {
			if entry.ChaosValue != 0 {
				entry.DivineValue = ptrFloat(entry.ChaosValue / divine)
			} else {
				entry.DivineValue = nil
			}
		}
	}

	sort.SliceStable(entries, func(i, j int) bool { return entries[i].ChaosValue > entries[j].ChaosValue })
	applyExaltRatios(entries)

	c.logger.Debug("snapshot assembled",
		"league", league,
		"category", category,
		"source", source,
		"entities", len(entries),
		"divine_rate", divine,
	)
	return &model.Snapshot{
		ID:        uuid.New(),
		League:    league,
		Source:    category + ":" + source,
		Entities:  entries,
		FetchedAt: time.Now(),
	}, nil
}

// fetchLegacySnapshot parses the single-endpoint overview used by the
// original game's API.
func (c *Client) fetchLegacySnapshot(ctx context.Context, league, category string) (*model.Snapshot, error) {
	payload, err := c.fetchLegacyOverview(ctx, league, category)
	if err != nil {
		return nil, err
	}
	lines := legacyLines(payload)
	if len(lines) == 0 {
		return nil, &NoDataError{League: league, Category: category}
	}
	icons, names := buildDetailMaps(payload.details())
	divine := legacyDivineRate(lines)

	entries := make([]*model.Entity, 0, len(lines))
	for i := range lines {
		entries = append(entries, legacyEntity(&lines[i], divine, icons, names))
	}

	sort.SliceStable(entries, func(i, j int) bool { return entries[i].ChaosValue > entries[j].ChaosValue })
	applyExaltRatios(entries)

	c.logger.Debug("snapshot assembled",
		"league", league,
		"category", category,
		"source", "currencyoverview",
		"entities", len(entries),
		"divine_rate", divine,
	)
	return &model.Snapshot{
		ID:        uuid.New(),
		League:    league,
		Source:    category + ":currencyoverview",
		Entities:  entries,
		FetchedAt: time.Now(),
	}, nil
}

// legacyEntity converts one legacy overview line into an entity.
func legacyEntity(line *Line, divineRate float64, icons, names map[string]string) *model.Entity {
	entry := &model.Entity{
		Name:       inferCurrencyName(line, names),
		ChaosValue: legacyChaosValue(line),
	}

	// First spark block that says anything about change wins, even a flat
	// zero.
	for _, spark := range []*Spark{line.ReceiveSparkLine, line.PaySparkLine, firstSparkNode(line.SparkLine, line.SparklineAlt)} {
		if change := sparkChange(spark); change.Valid {
			entry.ChangePercent = ptrFloat(change.Value)
			break
		}
	}

	spark := sparkData(line.ReceiveSparkLine)
	if len(spark) == 0 {
		spark = sparkData(line.PaySparkLine)
	}
	if len(spark) == 0 {
		spark = sparkData(line.SparkLine)
	}
	entry.Sparkline = spark

	if tc := firstNonZero(nodeTradeCount(line.Receive), nodeTradeCount(line.Pay), lineTradeCount(line)); tc != 0 {
		entry.TradeCount = ptrInt(tc)
	}

	if divineRate > 0 {
		entry.DivineValue = ptrFloat(entry.ChaosValue / divineRate)
	}

	node := currencyNode(line)
	entry.DetailsID = inferDetailsID(line, node)
	currencyID := inferCurrencyID(line, node)

	icon := icons[entry.Name]
	if icon == "" {
		icon = icons[entry.DetailsID]
	}
	if icon == "" {
		icon = icons[currencyID]
	}
	if icon == "" && node != nil {
		icon = node.Icon.String()
	}
	entry.IconURL = icon

	return entry
}
