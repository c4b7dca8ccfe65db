// Package scraper provides HTTP fetching and HTML parsing for event platforms.
//
// The scraper package fetches a platform's listing page for a city, discovers
// candidate event detail links along with a weak venue/city hint taken from the
// link text, then fetches every detail page and extracts an event from its
// JSON-LD metadata, falling back to headings, meta tags and page text. Each
// platform implements PlatformScraper; fetching, retrying and rate limiting are
// shared through Fetcher.
package scraper
