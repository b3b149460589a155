package ninja

import (
	"strings"

	"github.com/exile-economy/market-data/internal/model"
)

// applyExaltRatios stamps every priced entity with its value in exalted
// orbs. The anchor price is the cheapest plain exalt listing: "perfect" and
// "greater" variants are ignored, and a loose "exalt" substring match is
// only consulted when no plain listing exists.
func applyExaltRatios(entries []*model.Entity) {
	var candidates []float64
	for _, entry := range entries {
		name := strings.ToLower(entry.Name)
		details := strings.ToLower(entry.DetailsID)
		if strings.Contains(name, "exalted orb") && !strings.Contains(name, "perfect") && !strings.Contains(name, "greater") {
			if entry.ChaosValue > 0 {
				candidates = append(candidates, entry.ChaosValue)
			}
		} else if details == "exalted-orb" && entry.ChaosValue > 0 {
			candidates = append(candidates, entry.ChaosValue)
		}
	}
	if len(candidates) == 0 {
		for _, entry := range entries {
			if strings.Contains(strings.ToLower(entry.Name), "exalt") && entry.ChaosValue > 0 {
				candidates = append(candidates, entry.ChaosValue)
			}
		}
	}

	price := 0.0
	for _, c := range candidates {
		if price == 0 || c < price {
			price = c
		}
	}
	if price <= 0 {
		return
	}
	for _, entry := range entries {
		if entry.ChaosValue != 0 {
			entry.ExaltValue = ptrFloat(entry.ChaosValue / price)
		} else {
			entry.ExaltValue = nil
		}
	}
}
