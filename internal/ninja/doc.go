// Package ninja fetches and reconciles poe.ninja economy data.
//
// The upstream API exposes the same market through several incompatible,
// partially-overlapping JSON shapes: a legacy currency overview, a temporary
// overview, and a two-stage exchange overview plus per-item details. The
// shapes disagree on field names, on which values are already expressed in
// chaos orbs, and on which identifier (display name, slug, numeric id) is
// present. This package merges all of them into one deduplicated snapshot
// per category:
//
//   - source fetchers try a cascade of endpoint and alias candidates and
//     swallow per-candidate failures
//   - line values resolve through a fixed-priority chaos-equivalent cascade
//   - records from different sources are linked through normalized key
//     variants (any shared variant is an identity match)
//   - the exchange order book overlays merged entities and refines the top
//     entries with per-item detail fetches
//   - duplicates introduced by differing key variants collapse into one
//     entity keeping the maximum value and every known attribute
//   - exalt and divine ratios are stamped from their respective anchors
//
// The sole entry point is (*Client).FetchSnapshot. One snapshot computation
// is strictly sequential: candidates are tried one at a time and the detail
// loop is capped, so worst-case latency is bounded by the per-request
// timeout. FetchSnapshot fails only when every applicable source cascade
// yields nothing.
package ninja
