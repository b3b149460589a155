package model

import (
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
)

// Entity is one reconciled currency or item line within a snapshot.
//
// ChaosValue is the canonical chaos-orb valuation; 0 means "not yet priced".
// Optional fields are nil until some source supplies them.
type Entity struct {
	Name          string    // Display name; "Unknown" if unresolved
	ChaosValue    float64   // Canonical chaos-equivalent value
	DivineValue   *float64  // Ratio to the divine-orb rate
	ExaltValue    *float64  // Ratio to the exalted-orb reference price
	ChangePercent *float64  // Recent change, percent
	Sparkline     []float64 // Recent value history, most-recent-last
	TradeCount    *int      // Trade volume / listing count
	DetailsID     string    // Source slug used for icon and detail lookups
	IconURL       string    // Icon URL, "" if unknown
}

// Snapshot is the reconciled state of one market category at one moment.
// Entities are ordered descending by ChaosValue; ties keep encounter order.
type Snapshot struct {
	ID        uuid.UUID // Assigned at assembly; store primary key
	League    string    // League name as queried
	Source    string    // Provenance tag, e.g. "Currency:poe2-exchange"
	Entities  []*Entity // Descending by ChaosValue
	FetchedAt time.Time // Retrieval time
}

// Top returns the first n entities (all of them if n exceeds the count).
func (s *Snapshot) Top(n int) []*Entity {
	if n < 0 {
		n = 0
	}
	if n > len(s.Entities) {
		n = len(s.Entities)
	}
	return s.Entities[:n]
}

// -----------------------------------------------------------------------------
// Display formatting
// -----------------------------------------------------------------------------

// FormatChange renders the change percent as "+1.2%" or "--" when unknown.
func (e *Entity) FormatChange() string {
	if e.ChangePercent == nil {
		return "--"
	}
	return fmt.Sprintf("%+.1f%%", *e.ChangePercent)
}

// FormatChaos renders the chaos value compactly.
func (e *Entity) FormatChaos() string {
	return formatNumber(&e.ChaosValue, 1)
}

// FormatDivine renders the divine ratio compactly.
func (e *Entity) FormatDivine() string {
	return formatNumber(e.DivineValue, 2)
}

// FormatExalt renders the exalt ratio compactly.
func (e *Entity) FormatExalt() string {
	return formatNumber(e.ExaltValue, 2)
}

// formatNumber renders value with the given decimals, switching to a plain
// integer above 100 and trimming trailing zeros below it.
func formatNumber(value *float64, decimals int) string {
	if value == nil {
		return "--"
	}
	v := *value
	if v >= 100 || v <= -100 {
		return fmt.Sprintf("%.0f", v)
	}
	s := fmt.Sprintf("%.*f", decimals, v)
	if strings.Contains(s, ".") {
		s = strings.TrimRight(s, "0")
		s = strings.TrimRight(s, ".")
	}
	return s
}
