// Package cli implements the command-line interface for event-scraper.
//
// The cli package provides the Cobra-based commands: scrape (one scrape cycle
// for a city), expire (expiration only), serve (one scrape cycle, then the
// read API), list (stored events, filtered and sorted, as text or JSON) and
// analytics (stored event counts). Configuration comes from config.Load and
// is overridden by flags.
package cli
