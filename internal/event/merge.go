package event

import "time"

// Merge reconciles a freshly scraped batch into the previously persisted set
// and returns the full set to persist.
//
// Events are matched by ID. A known ID only has LastUpdated refreshed on the
// existing record; every other field, Status included, is kept from the
// existing record. Unknown IDs are appended as-is. The result keeps existing
// records first in their original order, followed by new ones in batch order.
// Existing records are updated in place.
func Merge(existing, batch []*Event) []*Event {
	merged := make([]*Event, 0, len(existing)+len(batch))
	index := make(map[string]int, len(existing)+len(batch)) // ID -> position in merged

	for _, evt := range existing {
		evt.EnsureID()
		if pos, ok := index[evt.ID]; ok {
			// Duplicate rows in storage: last one wins, first position kept
			merged[pos] = evt
			continue
		}
		index[evt.ID] = len(merged)
		merged = append(merged, evt)
	}

	for _, evt := range batch {
		evt.EnsureID()
		if pos, ok := index[evt.ID]; ok {
			// TODO: decide with the product owner whether corrected venue/date
			// values from a rescrape should overwrite the stored record.
			merged[pos].LastUpdated = evt.LastUpdated
			continue
		}
		index[evt.ID] = len(merged)
		merged = append(merged, evt)
	}

	return merged
}

// Expire flips Active events whose date is earlier than now plus offsetDays
// to Expired and bumps their LastUpdated. Events that are already Expired, or
// whose date cannot be parsed, are left untouched. It returns the number of
// events transitioned.
func Expire(events []*Event, now time.Time, offsetDays int) int {
	count := 0
	for _, evt := range events {
		if !evt.IsActive() || !evt.IsPastEvent(now, offsetDays) {
			continue
		}
		evt.Status = StatusExpired
		evt.LastUpdated = now
		count++
	}
	return count
}
