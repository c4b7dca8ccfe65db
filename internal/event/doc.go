// Package event provides the canonical record for scraped city events.
//
// The event package handles event representation, identification and
// reconciliation. Each event is assigned a deterministic MD5-based ID derived
// from its name, date, venue and city, which is the sole deduplication key
// when a freshly scraped batch is merged into the persisted set. It also owns
// the lifecycle rules: records are only ever merged or expired, never deleted.
package event
