// Package model defines the canonical data types shared across the tracker.
//
// An Entity is the reconciled record for one tradeable currency or item
// within a category; a Snapshot is the ordered, deduplicated result of one
// fetch. Both are plain structs with no behavior beyond display formatting;
// all reconciliation logic lives in internal/ninja.
package model
