// Package store archives reconciled snapshots to PostgreSQL.
//
// Each snapshot becomes one row in the snapshots table plus one row per
// entity in snapshot_entities, keyed by snapshot id and list position.
package store
