package ninja

// exchangeRowItem is the per-id metadata joined onto order-book lines.
type exchangeRowItem struct {
	id        string
	name      string
	detailsID string
	icon      string
}

// prepareExchangeRows joins the exchange overview's item metadata onto its
// order-book lines and synthesizes overview-shaped rows the merger can
// consume. Lines are also enriched in place with the item's name and slug
// so the later overlay pass sees them. Returns the rows, identifier->icon
// and identifier->name maps, and the chaos-per-divine rate declared by the
// exchange core (0 when unknown).
func (c *Client) prepareExchangeRows(ex *exchangePayload) ([]Line, map[string]string, map[string]string, float64) {
	icons := make(map[string]string)
	names := make(map[string]string)
	if ex == nil || ex.Items == nil || ex.Lines == nil {
		return nil, icons, names, 0
	}

	items := make(map[string]exchangeRowItem, len(ex.Items))
	for _, item := range ex.Items {
		id := item.ID.String()
		if id == "" {
			continue
		}
		detailsID := item.DetailsID.String()
		if detailsID == "" {
			detailsID = id
		}
		name := item.Name.String()
		if name == "" {
			name = humanizeSlug(detailsID)
		}
		icon := ""
		if item.Image != "" {
			icon = normalizeIconURL(item.Image.String(), c.endpoints.IconBase)
		}

		items[id] = exchangeRowItem{id: id, name: name, detailsID: detailsID, icon: icon}
		if icon != "" {
			icons[id] = icon
			icons[name] = icon
			icons[detailsID] = icon
		}
		names[id] = name
		names[detailsID] = name
	}

	cpp := chaosPerPrimary(ex.Core)
	divineRate := divineRateFromCore(ex.Core, cpp)

	var rows []Line
	for i := range ex.Lines {
		line := &ex.Lines[i]
		id := line.ID.String()
		if id == "" {
			continue
		}
		item, ok := items[id]
		if !ok {
			continue
		}

		// The overlay pass walks these same lines later; give it the
		// identifiers the overview shapes would have carried.
		if line.DetailsID == "" {
			line.DetailsID = Str(item.detailsID)
		}
		if line.Name == "" {
			line.Name = Str(item.name)
		}
		if line.CurrencyTypeName == "" {
			line.CurrencyTypeName = Str(item.name)
		}

		row := Line{
			ID:        line.ID,
			DetailsID: Str(item.detailsID),
			Name:      Str(item.name),
			Item: &Node{
				ID:        line.ID,
				Name:      Str(item.name),
				DetailsID: Str(item.detailsID),
				Icon:      Str(item.icon),
			},
			PrimaryValue:         line.PrimaryValue,
			SecondaryValue:       line.SecondaryValue,
			VolumePrimaryValue:   line.VolumePrimaryValue,
			VolumeSecondaryValue: line.VolumeSecondaryValue,
			Volume:               line.Volume,
		}
		if spark := firstSparkNode(line.SparklineAlt, line.SparkLine); spark != nil {
			row.SparkLine = spark
			row.SparklineAlt = spark
		}

		var chaos *float64
		if cpp != 0 && line.PrimaryValue.Valid {
			v := line.PrimaryValue.Value * cpp
			chaos = &v
		} else if line.SecondaryValue.Valid {
			v := line.SecondaryValue.Value
			chaos = &v
		}
		if chaos != nil {
			cv := Float{Value: *chaos, Valid: true}
			row.ChaosValue = cv
			row.ChaosEquivalent = cv
			row.ValueChaos = cv
			row.Value = Value{Object: true, Chaos: cv}
			rate := &Rate{ChaosPerItem: cv}
			if line.PrimaryValue.Valid {
				rate.Divine = line.PrimaryValue
				rate.ChaosValue = cv
			}
			row.Rate = rate
		}

		rows = append(rows, row)
	}

	return rows, icons, names, divineRate
}

func firstSparkNode(sparks ...*Spark) *Spark {
	for _, s := range sparks {
		if s != nil {
			return s
		}
	}
	return nil
}
