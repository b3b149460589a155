// Package cache persists fetched snapshots between runs so a restart within
// the TTL window does not hammer the upstream API.
//
// Two backends implement the same Store interface: a single-file JSON store
// for standalone use and a Redis store for deployments that share state.
// Keys are categories, normalized to trimmed lowercase, so "Currency" and
// " currency " address the same slot.
package cache
