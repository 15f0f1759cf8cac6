package ingest

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"surplusbridge/ingestworker/helpers"
	"surplusbridge/ingestworker/internal/parser"
	"surplusbridge/ingestworker/internal/scraper"
	"surplusbridge/ingestworker/logger"
	errs "surplusbridge/ingestworker/pkg/errors"
	"surplusbridge/ingestworker/services/publisher"
	"surplusbridge/ingestworker/services/store"
)

// RunStats summarizes one ingestion run's throughput
type RunStats struct {
	ItemsFound      int   `json:"items_found"`
	ItemsQueued     int   `json:"items_queued"`
	ItemsRejected   int   `json:"items_rejected"`
	ExecutionTimeMS int64 `json:"execution_time_ms"`
}

// RunResult is the structured summary returned to the trigger caller.
// A caller can always tell how many items were found, accepted, and
// rejected from the result alone.
type RunResult struct {
	Success   bool            `json:"success"`
	AgentName string          `json:"agent_name"`
	Platform  parser.Platform `json:"source_platform"`
	Stats     RunStats        `json:"stats"`
	QueuedIDs []string        `json:"queued_ids,omitempty"`
	Errors    []string        `json:"errors,omitempty"`
}

// DuplicateURLError is returned from the manual path when the URL is
// already stored; carries what the caller needs to find the existing
// candidate.
type DuplicateURLError struct {
	ExistingID     uuid.UUID
	ExistingStatus store.CandidateStatus
}

func (e *DuplicateURLError) Error() string {
	return fmt.Sprintf("URL already exists as candidate %s (status %s)", e.ExistingID, e.ExistingStatus)
}

// Service is the ingestion gateway: it runs scrapes and manual ingests,
// deduplicates and persists candidates, and records one health entry
// per run.
type Service struct {
	candidates    store.CandidateStore
	properties    store.PropertyStore
	health        store.HealthStore
	pub           publisher.Publisher
	orchestrators map[parser.Platform]*scraper.Orchestrator
	parsers       map[parser.Platform]parser.SiteParser
	fetch         scraper.FetchFunc
	fetchTimeout  time.Duration
}

// NewService creates the gateway service. Stores may be nil when
// storage is unconfigured; every run then fails with a storage error.
func NewService(
	candidates store.CandidateStore,
	properties store.PropertyStore,
	health store.HealthStore,
	pub publisher.Publisher,
	orchestrators map[parser.Platform]*scraper.Orchestrator,
	parsers map[parser.Platform]parser.SiteParser,
	fetchTimeout time.Duration,
) *Service {
	return &Service{
		candidates:    candidates,
		properties:    properties,
		health:        health,
		pub:           pub,
		orchestrators: orchestrators,
		parsers:       parsers,
		fetch:         helpers.FetchPage,
		fetchTimeout:  fetchTimeout,
	}
}

// RunScrape triggers one full scrape run for a platform. The returned
// error is reserved for fatal conditions (storage absent, unknown
// platform); degraded runs come back as a RunResult with Success=false.
func (s *Service) RunScrape(ctx context.Context, platform parser.Platform) (*RunResult, error) {
	start := time.Now()

	if s.candidates == nil {
		return nil, errs.NewStorage("candidate store not configured", nil)
	}
	orch, ok := s.orchestrators[platform]
	if !ok {
		return nil, errs.NewConfiguration(fmt.Sprintf("no orchestrator for platform %q", platform), nil)
	}

	agentName := fmt.Sprintf("%s-scraper", platform)
	scraped := orch.ScrapeListings(ctx)

	result := &RunResult{
		AgentName: agentName,
		Platform:  platform,
		Errors:    scraped.Errors,
	}
	result.Stats.ItemsFound = len(scraped.Listings)

	approved, junk := 0, 0
	for _, listing := range scraped.Listings {
		if listing.Bucket == parser.BucketApprove {
			approved++
		} else {
			junk++
		}
		s.persistListing(ctx, listing, store.ConflictSourceID, result)
	}

	result.Success = !scraped.Failed
	result.Stats.ExecutionTimeMS = time.Since(start).Milliseconds()

	status := store.HealthSuccess
	if scraped.Failed {
		status = store.HealthFailure
	}
	if scraped.TimedOut {
		status = store.HealthTimeout
	}

	s.appendHealth(ctx, &store.AgentHealthEntry{
		AgentType:       "scraper",
		AgentName:       agentName,
		Status:          status,
		ItemsFound:      result.Stats.ItemsFound,
		ItemsQueued:     result.Stats.ItemsQueued,
		ItemsRejected:   result.Stats.ItemsRejected,
		ExecutionTimeMS: result.Stats.ExecutionTimeMS,
		ErrorMessage:    strings.Join(result.Errors, "; "),
		SourceURL:       s.listingURL(platform),
		Metadata: map[string]string{
			"bucket_approve": fmt.Sprintf("%d", approved),
			"bucket_junk":    fmt.Sprintf("%d", junk),
		},
	})

	return result, nil
}

// IngestURL fetches exactly one operator-supplied URL and parses it as
// a single listing. The duplicate check runs before any fetch.
func (s *Service) IngestURL(ctx context.Context, platform parser.Platform, sourceURL string) (*RunResult, error) {
	start := time.Now()

	if s.candidates == nil {
		return nil, errs.NewStorage("candidate store not configured", nil)
	}
	siteParser, ok := s.parsers[platform]
	if !ok {
		return nil, errs.NewConfiguration(fmt.Sprintf("no parser for platform %q", platform), nil)
	}

	agentName := "manual-url-ingest"

	if existing, err := s.candidates.FindBySourceURL(ctx, sourceURL); err == nil {
		dup := &DuplicateURLError{ExistingID: existing.ID, ExistingStatus: existing.Status}
		s.appendHealth(ctx, &store.AgentHealthEntry{
			AgentType:       "manual-ingest",
			AgentName:       agentName,
			Status:          store.HealthFailure,
			ExecutionTimeMS: time.Since(start).Milliseconds(),
			ErrorMessage:    dup.Error(),
			SourceURL:       sourceURL,
		})
		return nil, dup
	}

	result := &RunResult{
		AgentName: agentName,
		Platform:  platform,
	}

	status := store.HealthSuccess
	fetched, err := s.fetch(ctx, sourceURL, s.fetchTimeout)
	switch {
	case err != nil:
		status = store.HealthFailure
		if helpers.IsTimeout(err) {
			status = store.HealthTimeout
			result.Errors = append(result.Errors, fmt.Sprintf("fetch timed out after %s: %v", s.fetchTimeout, err))
		} else {
			result.Errors = append(result.Errors, fmt.Sprintf("fetch failed: %v", err))
		}
	case fetched.StatusCode < 200 || fetched.StatusCode >= 300:
		status = store.HealthFailure
		result.Errors = append(result.Errors,
			fmt.Sprintf("unexpected HTTP status %d (%s) from %s", fetched.StatusCode, fetched.Status, sourceURL))
	default:
		listing := siteParser.ParseSingleListing(fetched.Body, sourceURL)
		if listing == nil {
			// The fetch worked; the page just did not yield a usable
			// listing. The run itself is healthy.
			result.Errors = append(result.Errors, fmt.Sprintf("no listing could be parsed from %s", sourceURL))
		} else {
			result.Stats.ItemsFound = 1
			s.persistListing(ctx, *listing, store.ConflictSourceURL, result)
		}
	}

	result.Success = status == store.HealthSuccess && result.Stats.ItemsQueued > 0
	result.Stats.ExecutionTimeMS = time.Since(start).Milliseconds()

	s.appendHealth(ctx, &store.AgentHealthEntry{
		AgentType:       "manual-ingest",
		AgentName:       agentName,
		Status:          status,
		ItemsFound:      result.Stats.ItemsFound,
		ItemsQueued:     result.Stats.ItemsQueued,
		ItemsRejected:   result.Stats.ItemsRejected,
		ExecutionTimeMS: result.Stats.ExecutionTimeMS,
		ErrorMessage:    strings.Join(result.Errors, "; "),
		SourceURL:       sourceURL,
	})

	return result, nil
}

func (s *Service) listingURL(platform parser.Platform) string {
	if p, ok := s.parsers[platform]; ok {
		return p.ListingURL()
	}
	return ""
}

// persistListing attempts one dedup-keyed insert and accumulates the
// outcome. A failure on one item never prevents attempts on the next.
func (s *Service) persistListing(ctx context.Context, listing parser.ParsedListing, key store.ConflictKey, result *RunResult) {
	candidate := candidateFromListing(listing)
	outcome, err := s.candidates.InsertIfAbsent(ctx, candidate, key)
	if err != nil {
		result.Stats.ItemsRejected++
		result.Errors = append(result.Errors,
			fmt.Sprintf("failed to store %s/%s: %v", listing.Platform, listing.SourceID, err))
		return
	}
	if !outcome.Inserted {
		result.Stats.ItemsRejected++
		return
	}
	result.Stats.ItemsQueued++
	result.QueuedIDs = append(result.QueuedIDs, candidate.ID.String())
}

// appendHealth writes the run's single telemetry entry. Log-write
// failure never fails the run; health history is best-effort.
func (s *Service) appendHealth(ctx context.Context, entry *store.AgentHealthEntry) {
	if s.health == nil {
		return
	}
	if err := s.health.Append(ctx, entry); err != nil {
		logger.Warn("failed to append health entry for %s: %v", entry.AgentName, err)
	}
}

func candidateFromListing(listing parser.ParsedListing) *store.Candidate {
	return &store.Candidate{
		ID:           uuid.New(),
		Platform:     listing.Platform,
		SourceID:     listing.SourceID,
		SourceURL:    listing.SourceURL,
		Property:     listing.Property,
		QualityScore: listing.QualityScore,
		Breakdown:    listing.Breakdown,
		Bucket:       listing.Bucket,
		Status:       store.StatusQueued,
		ScrapedAt:    time.Now().UTC(),
	}
}
