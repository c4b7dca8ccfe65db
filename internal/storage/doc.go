// Package storage persists the durable event set.
//
// Every backend stores the same tabular shape: a header row followed by one
// row per event, using the column names in Headers. Save always rewrites the
// whole set; Load tolerates blank cells, skips blank rows and folds the legacy
// "Updated" status back into Active.
//
// Three backends are available: a Google Sheet (the "Events" worksheet, or the
// first sheet when there is none), a Postgres table, and a CSV file under the
// data directory (default ~/.local/share/event-scraper/).
package storage
