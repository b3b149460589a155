package ninja

import "strings"

// Chaos-equivalent resolution. Each function below is an ordered cascade
// over shape-specific fields; the declared order encodes which source of
// truth wins when several fields are present at once, so it must not be
// reordered.

// chaosFromLine resolves an overview line's value in chaos orbs:
// direct chaos fields, then primaryValue x divineRate, then
// volumePrimaryValue x divineRate, then the nested rate object. Returns
// nil when nothing resolves. divineRate is chaos per divine, 0 = unknown.
func chaosFromLine(line *Line, divineRate float64) *float64 {
	if direct := orChain(line.ChaosEquivalent, line.ChaosValue, line.SecondaryValue, line.ValueChaos, line.Secondary); direct.Valid {
		v := direct.Value
		return &v
	}
	if line.PrimaryValue.Valid && divineRate != 0 {
		v := line.PrimaryValue.Value * divineRate
		return &v
	}
	if line.VolumePrimaryValue.Valid && divineRate != 0 {
		v := line.VolumePrimaryValue.Value * divineRate
		return &v
	}
	if r := line.Rate; r != nil {
		if r.ChaosPerItem.Valid {
			v := r.ChaosPerItem.Value
			return &v
		}
		if r.Chaos.Truthy() && r.Chaos.Value > 0 {
			v := 1.0 / r.Chaos.Value
			return &v
		}
		if r.ChaosValue.Valid {
			v := r.ChaosValue.Value
			return &v
		}
		if r.Divine.Valid && divineRate != 0 {
			v := r.Divine.Value * divineRate
			return &v
		}
	}
	return nil
}

// rowChaosValue resolves a primary-source item row's chaos value. This
// shape prefers its own direct fields, then the rate object, then
// primaryValue x divineRate, then the polymorphic value node.
func rowChaosValue(row *Line, divineRate float64) *float64 {
	for _, f := range []Float{row.ChaosValue, row.ChaosEquivalent, row.ValueChaos, row.Chaos} {
		if f.Valid {
			v := f.Value
			return &v
		}
	}
	if r := row.Rate; r != nil {
		if r.Chaos.Truthy() && r.Chaos.Value > 0 {
			v := 1.0 / r.Chaos.Value
			return &v
		}
		if r.ChaosPerItem.Valid {
			v := r.ChaosPerItem.Value
			return &v
		}
		if r.ChaosValue.Valid {
			v := r.ChaosValue.Value
			return &v
		}
		if r.Divine.Valid && divineRate != 0 {
			v := r.Divine.Value * divineRate
			return &v
		}
	}
	if row.PrimaryValue.Valid && divineRate != 0 {
		v := row.PrimaryValue.Value * divineRate
		return &v
	}
	if row.Value.Object {
		for _, f := range []Float{row.Value.Chaos, row.Value.ChaosValue, row.Value.Inner} {
			if f.Valid {
				v := f.Value
				return &v
			}
		}
	} else if row.Value.Scalar.Valid {
		v := row.Value.Scalar.Value
		return &v
	}
	return nil
}

// legacyChaosValue resolves a legacy overview line's chaos value, falling
// through the receive and pay legs. 0 means unpriced.
func legacyChaosValue(line *Line) float64 {
	for _, f := range []Float{line.ChaosEquivalent, line.ChaosValue, line.ValueChaos, line.Value.Scalar} {
		if f.Valid {
			return f.Value
		}
	}
	receive := firstNode(line.Receive, line.ReceiveListing, line.ReceiveCurrency)
	if receive != nil {
		for _, f := range []Float{receive.Value, receive.ValueChaos, receive.ChaosEquivalent, receive.ChaosValue} {
			if f.Valid {
				return f.Value
			}
		}
	}
	if line.Pay != nil {
		for _, f := range []Float{line.Pay.Value, line.Pay.ValueChaos, line.Pay.ChaosEquivalent, line.Pay.ChaosValue} {
			if f.Valid {
				return f.Value
			}
		}
	}
	if line.Value.Object {
		for _, f := range []Float{line.Value.Chaos, line.Value.ChaosValue, line.Value.Inner} {
			if f.Valid {
				return f.Value
			}
		}
	}
	return 0
}

// exchangeChaosValue resolves an order-book line's chaos value: primary
// value scaled by the declared rate first, since the exchange quotes in its
// own unit pair.
func exchangeChaosValue(line *Line, chaosPerPrimary float64) *float64 {
	if line == nil {
		return nil
	}
	if line.PrimaryValue.Valid && chaosPerPrimary != 0 {
		v := line.PrimaryValue.Value * chaosPerPrimary
		return &v
	}
	if line.SecondaryValue.Valid {
		v := line.SecondaryValue.Value
		return &v
	}
	if eq := orChain(line.ChaosEquivalent, line.ChaosValue, line.ValueChaos); eq.Valid {
		v := eq.Value
		return &v
	}
	if r := line.Rate; r != nil {
		if r.ChaosPerItem.Valid {
			v := r.ChaosPerItem.Value
			return &v
		}
		if r.Chaos.Truthy() && r.Chaos.Value > 0 {
			v := 1.0 / r.Chaos.Value
			return &v
		}
	}
	return nil
}

// chaosPerPrimary derives how many chaos one unit of the exchange's primary
// currency is worth, from the core's declared unit pair.
func chaosPerPrimary(core *exchangeCore) float64 {
	if core == nil {
		return 0
	}
	if core.Primary == "chaos" {
		return 1
	}
	if core.Secondary == "chaos" && core.Rates.Chaos.Truthy() {
		return core.Rates.Chaos.Value
	}
	if core.Rates.Secondary.Truthy() {
		return core.Rates.Secondary.Value
	}
	return 0
}

// divineRateFromCore derives the chaos-per-divine rate from the core,
// falling back to chaosPerPrimary when the core does not say.
func divineRateFromCore(core *exchangeCore, chaosPerPrimary float64) float64 {
	if core == nil {
		return chaosPerPrimary
	}
	if core.Primary == "divine" && chaosPerPrimary != 0 {
		return chaosPerPrimary
	}
	if core.Rates.Divine.Truthy() {
		return core.Rates.Divine.Value
	}
	return chaosPerPrimary
}

// divineRateFromRows scans primary-source rows for a Divine Orb listing and
// returns its chaos price, 0 when none is found.
func divineRateFromRows(rows []Line) float64 {
	for i := range rows {
		row := &rows[i]
		name := row.Name
		if row.Item != nil && row.Item.Name != "" {
			name = row.Item.Name
		}
		if !strings.Contains(strings.ToLower(name.String()), "divine orb") {
			continue
		}
		if v, ok := firstTruthy(row.ChaosValue, row.ChaosEquivalent, row.ValueChaos); ok {
			return v
		}
		if r := row.Rate; r != nil {
			if r.ChaosPerItem.Truthy() {
				return r.ChaosPerItem.Value
			}
			if r.Chaos.Truthy() && r.Chaos.Value > 0 {
				return 1.0 / r.Chaos.Value
			}
		}
		if row.PrimaryValue.Truthy() {
			return row.PrimaryValue.Value
		}
	}
	return 0
}

// divineRateFromOverview scans secondary-source lines for a divine entry
// carrying a chaos equivalent, 0 when none is found.
func divineRateFromOverview(lines []Line) float64 {
	for i := range lines {
		line := &lines[i]
		name := strings.ToLower(line.CurrencyTypeName.String())
		if !strings.Contains(name, "divine") && !strings.Contains(line.DetailsID.String(), "divine") {
			continue
		}
		if line.ChaosEquivalent.Truthy() {
			return line.ChaosEquivalent.Value
		}
	}
	return 0
}

// legacyDivineRate finds the Divine Orb's chaos equivalent in legacy
// overview lines. The scan stops at the first matching line whether or not
// it carries a usable value.
func legacyDivineRate(lines []Line) float64 {
	for i := range lines {
		line := &lines[i]
		node := currencyNode(line)
		nodeName, nodeDetails := Str(""), Str("")
		if node != nil {
			nodeName = node.Name
			nodeDetails = node.DetailsID
		}
		if line.CurrencyTypeName == "Divine Orb" || nodeName == "Divine Orb" {
			return line.ChaosEquivalent.Value
		}
		if strings.Contains(line.DetailsID.String(), "divine") {
			return line.ChaosEquivalent.Value
		}
		if strings.Contains(nodeDetails.String(), "divine") {
			return line.ChaosEquivalent.Value
		}
	}
	return 0
}

func firstNode(nodes ...*Node) *Node {
	for _, n := range nodes {
		if n != nil {
			return n
		}
	}
	return nil
}

// currencyNode returns a line's nested currency/item record, whichever
// shape delivered it.
func currencyNode(line *Line) *Node {
	return firstNode(line.Currency, line.PayCurrency, line.TargetCurrency, line.ReceiveCurrency, line.Item, line.CurrencyDetails, line.Details)
}
