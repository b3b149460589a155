// Package poller periodically fetches reconciled snapshots for a set of
// market categories and hands them to a SnapshotHandler.
package poller
