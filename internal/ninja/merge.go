package ninja

import (
	"math"
	"strings"

	"github.com/exile-economy/market-data/internal/model"
)

// overviewIndex maps every normalized key variant of each overview line to
// the line itself, and keeps the lines in registration order so unmatched
// lines can be appended deterministically.
type overviewIndex struct {
	byKey map[string]*Line
	lines []*Line
}

// buildOverviewIndex registers each line under all key variants of its
// display name, slug, and id. Lines whose slug appears in the detail name
// map are additionally registered under the mapped name, so a row carrying
// only the canonical name still finds the slug-keyed line.
func buildOverviewIndex(lines []Line, names map[string]string) *overviewIndex {
	idx := &overviewIndex{byKey: make(map[string]*Line)}
	for i := range lines {
		line := &lines[i]
		registered := false
		for _, key := range collectKeys(
			line.CurrencyTypeName.String(),
			line.Name.String(),
			line.DetailsID.String(),
			line.ID.String(),
		) {
			idx.byKey[key] = line
			registered = true
		}
		if id := line.CurrencyID.String(); id != "" {
			idx.byKey[id] = line
			registered = true
		}
		if d := line.DetailsID.String(); d != "" {
			if mapped := names[d]; mapped != "" {
				for _, key := range collectKeys(mapped) {
					idx.byKey[key] = line
					registered = true
				}
			}
		}
		if registered {
			idx.lines = append(idx.lines, line)
		}
	}
	return idx
}

// mergeRows converts exchange rows into entities and enriches each one from
// the first overview line any of its key variants matches.
func mergeRows(rows []Line, idx *overviewIndex, icons, names map[string]string, divineRate float64) []*model.Entity {
	entries := make([]*model.Entity, 0, len(rows))
	for i := range rows {
		row := &rows[i]
		item := row.Item
		if item == nil {
			item = row.Currency
		}

		name := extractRowName(row, item, names)
		detailsID := inferDetailsID(row, item)
		currencyID := inferCurrencyID(row, item)

		icon := ""
		if item != nil {
			icon = item.Icon.String()
		}
		if icon == "" {
			icon = icons[detailsID]
		}
		if icon == "" {
			icon = icons[name]
		}

		spark := sparkData(row.SparkLine)
		if len(spark) == 0 {
			spark = sparkData(row.SparklineAlt)
		}

		entry := &model.Entity{
			Name:      name,
			Sparkline: spark,
			DetailsID: detailsID,
			IconURL:   icon,
		}
		if chaos := rowChaosValue(row, divineRate); chaos != nil {
			entry.ChaosValue = *chaos
		}
		if tc := firstNonZero(lineTradeCount(row), nodeTradeCount(row.Listing)); tc != 0 {
			entry.TradeCount = ptrInt(tc)
		}
		if divineRate > 0 && entry.ChaosValue != 0 {
			entry.DivineValue = ptrFloat(entry.ChaosValue / divineRate)
		}
		entries = append(entries, entry)

		for _, key := range collectKeys(name, detailsID, currencyID, row.DetailsID.String(), row.ID.String()) {
			if line, ok := idx.byKey[key]; ok {
				updateEntryFromOverview(entry, line, icons, names, divineRate)
				break
			}
		}
	}
	return entries
}

// updateEntryFromOverview overlays overview-line data onto an entity: value,
// change percent, sparkline, trade count, slug, icon, and canonical name.
// Each field only moves when the line actually carries something for it.
func updateEntryFromOverview(entry *model.Entity, line *Line, icons, names map[string]string, divineRate float64) {
	if chaos := chaosFromLine(line, divineRate); chaos != nil {
		entry.ChaosValue = *chaos
	}

	change := orChain(
		sparkChange(line.ReceiveSparkLine),
		sparkChange(line.PaySparkLine),
		sparkChange(line.SparkLine),
	)
	if change.Valid {
		entry.ChangePercent = ptrFloat(change.Value)
	}

	spark := sparkData(line.ReceiveSparkLine)
	if len(spark) == 0 {
		spark = sparkData(line.PaySparkLine)
	}
	if len(spark) == 0 {
		spark = sparkData(line.SparkLine)
	}
	if len(spark) > 0 {
		entry.Sparkline = spark
	}

	if tc := firstNonZero(nodeTradeCount(line.Receive), nodeTradeCount(line.Pay), lineTradeCount(line)); tc != 0 {
		entry.TradeCount = ptrInt(tc)
	} else {
		for _, vol := range []Float{line.VolumePrimaryValue, line.VolumeSecondaryValue, line.Volume} {
			if vol.Truthy() {
				entry.TradeCount = ptrInt(int(math.Round(vol.Value)))
				break
			}
		}
	}

	if d := line.DetailsID.String(); d != "" {
		if entry.DetailsID == "" {
			entry.DetailsID = d
		}
		if entry.IconURL == "" {
			entry.IconURL = icons[d]
		}
		if mapped := names[d]; mapped != "" {
			entry.Name = mapped
		}
	}
	if entry.IconURL == "" {
		entry.IconURL = icons[entry.Name]
	}
}

// addUnmatchedOverviewLines appends an entity for every overview line whose
// key variants collide with no existing entity, so overview-only records
// still surface.
func addUnmatchedOverviewLines(entries []*model.Entity, idx *overviewIndex, icons, names map[string]string, divineRate float64) []*model.Entity {
	existing := make(map[string]struct{})
	for _, e := range entries {
		for _, key := range collectKeys(e.Name, e.DetailsID) {
			existing[key] = struct{}{}
		}
	}

	for _, line := range idx.lines {
		matched := false
		for _, key := range collectKeys(
			line.CurrencyTypeName.String(),
			line.Name.String(),
			line.DetailsID.String(),
			line.ID.String(),
		) {
			if _, ok := existing[key]; ok {
				matched = true
				break
			}
		}
		if matched {
			continue
		}

		name := line.CurrencyTypeName.String()
		if name == "" {
			name = line.Name.String()
		}
		if name == "" {
			name = "Unknown"
		}
		entry := &model.Entity{Name: name, DetailsID: line.DetailsID.String()}
		if chaos := chaosFromLine(line, divineRate); chaos != nil {
			entry.ChaosValue = *chaos
		}
		updateEntryFromOverview(entry, line, icons, names, divineRate)
		if divineRate > 0 && entry.ChaosValue != 0 {
			entry.DivineValue = ptrFloat(entry.ChaosValue / divineRate)
		}
		entries = append(entries, entry)
		for _, key := range collectKeys(entry.Name, entry.DetailsID) {
			existing[key] = struct{}{}
		}
	}
	return entries
}

// extractRowName resolves a display name for an exchange row: explicit name
// fields first, then the detail name map, then a humanized slug.
func extractRowName(row *Line, item *Node, names map[string]string) string {
	fields := []Str{
		row.Name,
		row.CurrencyTypeName,
		row.DisplayName,
		row.CurrencyName,
		row.ReceiveCurrencyName,
		row.PayCurrencyName,
	}
	if item != nil {
		fields = append(fields, item.Name, item.DisplayName)
	}
	for _, f := range fields {
		if s := strings.TrimSpace(f.String()); s != "" {
			return s
		}
	}

	detailsID := row.DetailsID.String()
	if detailsID == "" && item != nil {
		detailsID = item.DetailsID.String()
	}
	if detailsID != "" {
		if mapped := names[detailsID]; mapped != "" {
			return mapped
		}
	}

	slug := row.ID.String()
	if slug == "" {
		slug = detailsID
	}
	if slug != "" {
		if h := humanizeSlug(slug); h != "" {
			return h
		}
	}
	return "Unknown"
}

// inferCurrencyName resolves a display name for a legacy overview line.
// Pair listings render as "Receive for Pay".
func inferCurrencyName(line *Line, names map[string]string) string {
	receive := line.ReceiveCurrencyName
	if receive == "" {
		receive = line.ReceiveCurrencyTypeName
	}
	pay := line.PayCurrencyName
	if pay == "" {
		pay = line.PayCurrencyTypeName
	}
	if receive != "" && pay != "" {
		return string(receive) + " for " + string(pay)
	}

	for _, f := range []Str{
		line.CurrencyTypeName,
		line.Name,
		line.DisplayName,
		line.ItemName,
		line.CurrencyName,
		line.ReceiveCurrencyName,
		line.PayCurrencyName,
		line.ReceiveCurrencyTypeName,
		line.PayCurrencyTypeName,
		line.TypeName,
	} {
		if strings.TrimSpace(f.String()) != "" {
			return f.String()
		}
	}

	node := currencyNode(line)
	if node != nil {
		for _, f := range []Str{node.Name, node.DisplayName, node.TypeName, node.CurrencyTypeName} {
			if f != "" {
				return f.String()
			}
		}
	}
	if d := line.DetailsID.String(); d != "" {
		if mapped := names[d]; mapped != "" {
			return mapped
		}
	}
	if node != nil {
		if d := node.DetailsID.String(); d != "" {
			if mapped := names[d]; mapped != "" {
				return mapped
			}
		}
	}
	if id := inferCurrencyID(line, node); id != "" {
		if mapped := names[id]; mapped != "" {
			return mapped
		}
	}
	return "Unknown"
}

// inferCurrencyID returns the first id-like field on the line, then on the
// nested record.
func inferCurrencyID(line *Line, node *Node) string {
	for _, id := range []ID{
		line.CurrencyID,
		line.ID,
		line.ReceiveCurrencyID,
		line.PayCurrencyID,
		line.TargetCurrencyID,
		line.ItemID,
		line.CurrencyTypeID,
	} {
		if id != "" {
			return id.String()
		}
	}
	if node != nil {
		for _, id := range []ID{
			node.CurrencyID,
			node.ID,
			node.ReceiveCurrencyID,
			node.PayCurrencyID,
			node.TargetCurrencyID,
			node.ItemID,
			node.CurrencyTypeID,
		} {
			if id != "" {
				return id.String()
			}
		}
	}
	return ""
}

// inferDetailsID returns the first slug-like field on the line, then on the
// nested record, falling back to whatever inferCurrencyID finds.
func inferDetailsID(line *Line, node *Node) string {
	for _, d := range []Str{
		line.DetailsID,
		line.DetailID,
		line.CurrencyDetailsID,
		line.PayCurrencyDetailsID,
		line.ReceiveCurrencyDetailsID,
	} {
		if d != "" {
			return d.String()
		}
	}
	if node != nil {
		for _, d := range []Str{
			node.DetailsID,
			node.DetailID,
			node.CurrencyDetailsID,
			node.PayCurrencyDetailsID,
			node.ReceiveCurrencyDetailsID,
		} {
			if d != "" {
				return d.String()
			}
		}
	}
	return inferCurrencyID(line, node)
}

// nodeTradeCount returns the first count-like field present on the node,
// including a present zero, which stops the scan.
func nodeTradeCount(n *Node) int {
	if n == nil {
		return 0
	}
	for _, f := range []Float{n.Count, n.Volume, n.ListingCount, n.Total} {
		if f.Valid {
			return int(f.Value)
		}
	}
	return 0
}

func lineTradeCount(l *Line) int {
	for _, f := range []Float{l.Count, l.Volume, l.ListingCount, l.Total} {
		if f.Valid {
			return int(f.Value)
		}
	}
	return 0
}

func firstNonZero(vals ...int) int {
	for _, v := range vals {
		if v != 0 {
			return v
		}
	}
	return 0
}

func ptrFloat(v float64) *float64 { return &v }

func ptrInt(v int) *int { return &v }
