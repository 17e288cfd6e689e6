// Package progress tracks in-flight run status for polling clients.
//
// The tracker is an explicitly constructed, injected service: built once at
// daemon start and handed by reference to every component that reports
// progress. It is intentionally volatile and single-process; authoritative
// run state is persisted by the queue store.
package progress
