package scraper

import (
	"context"
	"fmt"
	"strings"
	"time"

	"surplusbridge/ingestworker/helpers"
	"surplusbridge/ingestworker/internal/parser"
	"surplusbridge/ingestworker/logger"
	"surplusbridge/ingestworker/services/cache"
)

// FetchFunc fetches a URL and returns the completed exchange. Injected
// so orchestrator tests run without a network.
type FetchFunc func(ctx context.Context, url string, timeout time.Duration) (*helpers.FetchResult, error)

// ScrapeResult is the structured outcome of one orchestrated scrape.
// Errors are descriptive strings; no error escapes ScrapeListings.
type ScrapeResult struct {
	Platform parser.Platform
	Listings []parser.ParsedListing
	Errors   []string

	// Failed marks a run where the fetch step itself failed and no
	// best-effort result exists. An empty parse is not a failure.
	Failed bool
	// TimedOut distinguishes a timeout from other transport failures
	TimedOut bool
	// Blocked marks a detected bot-block response
	Blocked bool
}

// Orchestrator fetches one platform's listing page and delegates to the
// matching site parser
type Orchestrator struct {
	parser      parser.SiteParser
	cooldown    *cache.SourceCooldown
	timeout     time.Duration
	cooldownFor time.Duration
	fetch       FetchFunc
}

// New creates an orchestrator for the given site parser
func New(p parser.SiteParser, cooldown *cache.SourceCooldown, timeout, cooldownFor time.Duration) *Orchestrator {
	return &Orchestrator{
		parser:      p,
		cooldown:    cooldown,
		timeout:     timeout,
		cooldownFor: cooldownFor,
		fetch:       helpers.FetchPage,
	}
}

// Platform returns the platform this orchestrator scrapes
func (o *Orchestrator) Platform() parser.Platform {
	return o.parser.Platform()
}

// ScrapeListings performs a single bounded fetch of the platform's
// listing page and parses it. Every failure mode converts into a
// descriptive string in Errors with zero listings.
func (o *Orchestrator) ScrapeListings(ctx context.Context) ScrapeResult {
	platform := o.parser.Platform()
	result := ScrapeResult{Platform: platform}

	if o.cooldown.Active(string(platform)) {
		result.Failed = true
		result.Blocked = true
		result.Errors = append(result.Errors,
			fmt.Sprintf("%s is on cooldown after a blocked response; try manual ingestion or wait", platform))
		return result
	}

	fetched, err := o.fetch(ctx, o.parser.ListingURL(), o.timeout)
	if err != nil {
		result.Failed = true
		if helpers.IsTimeout(err) {
			result.TimedOut = true
			result.Errors = append(result.Errors,
				fmt.Sprintf("fetch timed out after %s: %v", o.timeout, err))
		} else {
			result.Errors = append(result.Errors, fmt.Sprintf("fetch failed: %v", err))
		}
		return result
	}

	if !fetched.OK() {
		result.Failed = true
		result.Errors = append(result.Errors,
			fmt.Sprintf("unexpected HTTP status %d (%s) from %s", fetched.StatusCode, fetched.Status, o.parser.ListingURL()))
		return result
	}

	if marker := o.detectBlock(fetched.Body); marker != "" {
		result.Failed = true
		result.Blocked = true
		result.Errors = append(result.Errors,
			fmt.Sprintf("bot blocking detected (%q); use manual single-URL ingestion", marker))
		if err := o.cooldown.Start(string(platform), o.cooldownFor); err != nil {
			logger.Warn("failed to start cooldown for %s: %v", platform, err)
		}
		return result
	}

	result.Listings = o.parser.ParseListingIndex(fetched.Body)
	if len(result.Listings) == 0 {
		// Non-fatal: a 200 with nothing parseable usually means the
		// site structure drifted out from under the selectors.
		result.Errors = append(result.Errors,
			fmt.Sprintf("no listings parsed from %s; site structure may have changed", o.parser.ListingURL()))
	}
	return result
}

// detectBlock scans a response body for the platform's bot-block
// markers, returning the matched marker or ""
func (o *Orchestrator) detectBlock(body string) string {
	lower := strings.ToLower(body)
	for _, marker := range o.parser.BlockMarkers() {
		if strings.Contains(lower, marker) {
			return marker
		}
	}
	return ""
}

// WithFetch replaces the fetch function. Test hook.
func (o *Orchestrator) WithFetch(fetch FetchFunc) *Orchestrator {
	o.fetch = fetch
	return o
}
