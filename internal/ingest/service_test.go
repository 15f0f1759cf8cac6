package ingest

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"surplusbridge/ingestworker/helpers"
	"surplusbridge/ingestworker/internal/parser"
	"surplusbridge/ingestworker/internal/scraper"
	errs "surplusbridge/ingestworker/pkg/errors"
	"surplusbridge/ingestworker/services/store"
)

// stubSiteParser returns canned listings so ingestion tests exercise
// persistence and telemetry without HTML.
type stubSiteParser struct {
	platform      parser.Platform
	indexListings []parser.ParsedListing
	single        *parser.ParsedListing
	markers       []string
}

func (p *stubSiteParser) Platform() parser.Platform { return p.platform }
func (p *stubSiteParser) ListingURL() string {
	return fmt.Sprintf("https://example.com/%s/listings", p.platform)
}
func (p *stubSiteParser) ParseListingIndex(string) []parser.ParsedListing { return p.indexListings }
func (p *stubSiteParser) ParseSingleListing(_, sourceURL string) *parser.ParsedListing {
	if p.single == nil {
		return nil
	}
	listing := *p.single
	listing.SourceURL = sourceURL
	return &listing
}
func (p *stubSiteParser) BlockMarkers() []string { return p.markers }

func stubListing(platform parser.Platform, sourceID string, score int) parser.ParsedListing {
	bucket := parser.BucketJunk
	if score >= parser.ApproveThreshold {
		bucket = parser.BucketApprove
	}
	return parser.ParsedListing{
		Platform:     platform,
		SourceID:     sourceID,
		SourceURL:    fmt.Sprintf("https://example.com/%s/lot?id=%s", platform, sourceID),
		Property:     parser.PropertyData{Title: "Surplus plow truck " + sourceID},
		QualityScore: score,
		Bucket:       bucket,
	}
}

type testEnv struct {
	svc        *Service
	candidates *mockCandidateStore
	properties *mockPropertyStore
	health     *mockHealthStore
	pub        *mockPublisher
	siteParser *stubSiteParser
}

func okFetch(body string) scraper.FetchFunc {
	return func(context.Context, string, time.Duration) (*helpers.FetchResult, error) {
		return &helpers.FetchResult{StatusCode: 200, Status: "200 OK", Body: body}, nil
	}
}

func newTestEnv(t *testing.T, sp *stubSiteParser, fetch scraper.FetchFunc) *testEnv {
	t.Helper()
	env := &testEnv{
		candidates: newMockCandidateStore(),
		properties: &mockPropertyStore{},
		health:     &mockHealthStore{},
		pub:        &mockPublisher{},
		siteParser: sp,
	}
	orch := scraper.New(sp, nil, 5*time.Second, time.Minute).WithFetch(fetch)
	env.svc = NewService(
		env.candidates,
		env.properties,
		env.health,
		env.pub,
		map[parser.Platform]*scraper.Orchestrator{sp.Platform(): orch},
		map[parser.Platform]parser.SiteParser{sp.Platform(): sp},
		5*time.Second,
	)
	env.svc.fetch = fetch
	return env
}

func TestRunScrapeQueuesNewListings(t *testing.T) {
	sp := &stubSiteParser{
		platform: parser.PlatformGCSurplus,
		indexListings: []parser.ParsedListing{
			stubListing(parser.PlatformGCSurplus, "101", 70),
			stubListing(parser.PlatformGCSurplus, "102", 30),
		},
	}
	env := newTestEnv(t, sp, okFetch("<html></html>"))

	result, err := env.svc.RunScrape(context.Background(), parser.PlatformGCSurplus)
	require.NoError(t, err)

	assert.True(t, result.Success)
	assert.Equal(t, "gcsurplus-scraper", result.AgentName)
	assert.Equal(t, 2, result.Stats.ItemsFound)
	assert.Equal(t, 2, result.Stats.ItemsQueued)
	assert.Equal(t, 0, result.Stats.ItemsRejected)
	assert.Len(t, result.QueuedIDs, 2)

	// Every stored candidate starts queued regardless of bucket.
	queued, err := env.candidates.ListByStatus(context.Background(), store.StatusQueued, 10)
	require.NoError(t, err)
	assert.Len(t, queued, 2)

	require.Len(t, env.health.entries, 1)
	entry := env.health.entries[0]
	assert.Equal(t, store.HealthSuccess, entry.Status)
	assert.Equal(t, "scraper", entry.AgentType)
	assert.Equal(t, 2, entry.ItemsFound)
	assert.Equal(t, "1", entry.Metadata["bucket_approve"])
	assert.Equal(t, "1", entry.Metadata["bucket_junk"])
}

func TestRunScrapeDeduplicatesBySourceID(t *testing.T) {
	sp := &stubSiteParser{
		platform: parser.PlatformGCSurplus,
		indexListings: []parser.ParsedListing{
			stubListing(parser.PlatformGCSurplus, "101", 70),
			stubListing(parser.PlatformGCSurplus, "102", 70),
		},
	}
	env := newTestEnv(t, sp, okFetch("<html></html>"))

	// First run stores both, second run finds both already present.
	_, err := env.svc.RunScrape(context.Background(), parser.PlatformGCSurplus)
	require.NoError(t, err)

	result, err := env.svc.RunScrape(context.Background(), parser.PlatformGCSurplus)
	require.NoError(t, err)

	assert.True(t, result.Success)
	assert.Equal(t, 2, result.Stats.ItemsFound)
	assert.Equal(t, 0, result.Stats.ItemsQueued)
	assert.Equal(t, 2, result.Stats.ItemsRejected)
	assert.Empty(t, result.QueuedIDs)
	assert.Len(t, env.health.entries, 2)
}

func TestRunScrapeInsertFailureDoesNotAbortRun(t *testing.T) {
	sp := &stubSiteParser{
		platform: parser.PlatformGCSurplus,
		indexListings: []parser.ParsedListing{
			stubListing(parser.PlatformGCSurplus, "101", 70),
		},
	}
	env := newTestEnv(t, sp, okFetch("<html></html>"))
	env.candidates.insertErr = errors.New("connection reset")

	result, err := env.svc.RunScrape(context.Background(), parser.PlatformGCSurplus)
	require.NoError(t, err)

	assert.True(t, result.Success, "a per-item storage failure degrades, not aborts")
	assert.Equal(t, 1, result.Stats.ItemsRejected)
	require.Len(t, result.Errors, 1)
	assert.Contains(t, result.Errors[0], "connection reset")
}

func TestRunScrapeFetchFailureRecordsFailureHealth(t *testing.T) {
	sp := &stubSiteParser{platform: parser.PlatformGCSurplus}
	env := newTestEnv(t, sp, func(context.Context, string, time.Duration) (*helpers.FetchResult, error) {
		return nil, errors.New("connection refused")
	})

	result, err := env.svc.RunScrape(context.Background(), parser.PlatformGCSurplus)
	require.NoError(t, err)

	assert.False(t, result.Success)
	assert.NotEmpty(t, result.Errors)

	require.Len(t, env.health.entries, 1)
	assert.Equal(t, store.HealthFailure, env.health.entries[0].Status)
}

func TestRunScrapeTimeoutRecordsTimeoutHealth(t *testing.T) {
	sp := &stubSiteParser{platform: parser.PlatformGCSurplus}
	env := newTestEnv(t, sp, func(context.Context, string, time.Duration) (*helpers.FetchResult, error) {
		return nil, fmt.Errorf("fetch: %w", context.DeadlineExceeded)
	})

	result, err := env.svc.RunScrape(context.Background(), parser.PlatformGCSurplus)
	require.NoError(t, err)

	assert.False(t, result.Success)
	require.Len(t, env.health.entries, 1)
	assert.Equal(t, store.HealthTimeout, env.health.entries[0].Status)
}

func TestRunScrapeUnknownPlatform(t *testing.T) {
	sp := &stubSiteParser{platform: parser.PlatformGCSurplus}
	env := newTestEnv(t, sp, okFetch("<html></html>"))

	result, err := env.svc.RunScrape(context.Background(), parser.Platform("craigslist"))
	assert.Nil(t, result)
	require.Error(t, err)
	assert.Equal(t, errs.ErrorTypeConfiguration, errs.TypeOf(err))
	assert.Empty(t, env.health.entries)
}

func TestRunScrapeStorageUnconfigured(t *testing.T) {
	sp := &stubSiteParser{platform: parser.PlatformGCSurplus}
	orch := scraper.New(sp, nil, time.Second, time.Minute).WithFetch(okFetch(""))
	svc := NewService(nil, nil, nil, nil,
		map[parser.Platform]*scraper.Orchestrator{sp.Platform(): orch},
		map[parser.Platform]parser.SiteParser{sp.Platform(): sp},
		time.Second,
	)

	result, err := svc.RunScrape(context.Background(), parser.PlatformGCSurplus)
	assert.Nil(t, result)
	require.Error(t, err)
	assert.Equal(t, errs.ErrorTypeStorage, errs.TypeOf(err))
}

func TestIngestURLQueuesSingleListing(t *testing.T) {
	listing := stubListing(parser.PlatformManual, "88", 70)
	sp := &stubSiteParser{platform: parser.PlatformManual, single: &listing}
	env := newTestEnv(t, sp, okFetch("<html>detail</html>"))

	result, err := env.svc.IngestURL(context.Background(), parser.PlatformManual, "https://example.com/lot/88")
	require.NoError(t, err)

	assert.True(t, result.Success)
	assert.Equal(t, "manual-url-ingest", result.AgentName)
	assert.Equal(t, 1, result.Stats.ItemsFound)
	assert.Equal(t, 1, result.Stats.ItemsQueued)
	require.Len(t, result.QueuedIDs, 1)

	stored, err := env.candidates.FindBySourceURL(context.Background(), "https://example.com/lot/88")
	require.NoError(t, err)
	assert.Equal(t, store.StatusQueued, stored.Status)

	require.Len(t, env.health.entries, 1)
	entry := env.health.entries[0]
	assert.Equal(t, store.HealthSuccess, entry.Status)
	assert.Equal(t, "manual-ingest", entry.AgentType)
	assert.Equal(t, "https://example.com/lot/88", entry.SourceURL)
}

func TestIngestURLDuplicateSkipsFetch(t *testing.T) {
	listing := stubListing(parser.PlatformManual, "88", 70)
	sp := &stubSiteParser{platform: parser.PlatformManual, single: &listing}

	fetchCalled := false
	env := newTestEnv(t, sp, func(ctx context.Context, url string, timeout time.Duration) (*helpers.FetchResult, error) {
		fetchCalled = true
		return &helpers.FetchResult{StatusCode: 200, Status: "200 OK", Body: "detail"}, nil
	})

	first, err := env.svc.IngestURL(context.Background(), parser.PlatformManual, "https://example.com/lot/88")
	require.NoError(t, err)
	require.True(t, first.Success)

	fetchCalled = false
	result, err := env.svc.IngestURL(context.Background(), parser.PlatformManual, "https://example.com/lot/88")
	assert.Nil(t, result)
	require.Error(t, err)

	var dup *DuplicateURLError
	require.ErrorAs(t, err, &dup)
	assert.Equal(t, first.QueuedIDs[0], dup.ExistingID.String())
	assert.Equal(t, store.StatusQueued, dup.ExistingStatus)
	assert.False(t, fetchCalled, "duplicate check must run before any fetch")

	// The duplicate attempt still leaves a failure entry in the log.
	assert.Len(t, env.health.entries, 2)
	assert.Equal(t, store.HealthFailure, env.health.last().Status)
}

func TestIngestURLUnparseablePageIsHealthyRun(t *testing.T) {
	sp := &stubSiteParser{platform: parser.PlatformManual, single: nil}
	env := newTestEnv(t, sp, okFetch("<html>nothing here</html>"))

	result, err := env.svc.IngestURL(context.Background(), parser.PlatformManual, "https://example.com/lot/99")
	require.NoError(t, err)

	assert.False(t, result.Success)
	assert.Equal(t, 0, result.Stats.ItemsFound)
	require.Len(t, result.Errors, 1)
	assert.Contains(t, result.Errors[0], "no listing could be parsed")

	require.Len(t, env.health.entries, 1)
	assert.Equal(t, store.HealthSuccess, env.health.entries[0].Status)
}

func TestIngestURLFetchErrorRecordsFailure(t *testing.T) {
	listing := stubListing(parser.PlatformManual, "88", 70)
	sp := &stubSiteParser{platform: parser.PlatformManual, single: &listing}
	env := newTestEnv(t, sp, func(context.Context, string, time.Duration) (*helpers.FetchResult, error) {
		return nil, errors.New("connection refused")
	})

	result, err := env.svc.IngestURL(context.Background(), parser.PlatformManual, "https://example.com/lot/88")
	require.NoError(t, err)

	assert.False(t, result.Success)
	require.Len(t, env.health.entries, 1)
	assert.Equal(t, store.HealthFailure, env.health.entries[0].Status)
}

func TestIngestURLBadStatusRecordsFailure(t *testing.T) {
	listing := stubListing(parser.PlatformManual, "88", 70)
	sp := &stubSiteParser{platform: parser.PlatformManual, single: &listing}
	env := newTestEnv(t, sp, func(context.Context, string, time.Duration) (*helpers.FetchResult, error) {
		return &helpers.FetchResult{StatusCode: 404, Status: "404 Not Found", Body: ""}, nil
	})

	result, err := env.svc.IngestURL(context.Background(), parser.PlatformManual, "https://example.com/lot/88")
	require.NoError(t, err)

	assert.False(t, result.Success)
	require.Len(t, result.Errors, 1)
	assert.Contains(t, result.Errors[0], "404")
	assert.Equal(t, store.HealthFailure, env.health.entries[0].Status)
}

func TestApprovePublishesProperty(t *testing.T) {
	listing := stubListing(parser.PlatformManual, "88", 70)
	sp := &stubSiteParser{platform: parser.PlatformManual, single: &listing}
	env := newTestEnv(t, sp, okFetch("detail"))

	result, err := env.svc.IngestURL(context.Background(), parser.PlatformManual, "https://example.com/lot/88")
	require.NoError(t, err)
	id := mustParseUUID(t, result.QueuedIDs[0])

	candidate, propertyID, err := env.svc.Approve(context.Background(), id, "reviewer@surplusbridge", "looks solid")
	require.NoError(t, err)

	assert.Equal(t, store.StatusApproved, candidate.Status)
	assert.Equal(t, "reviewer@surplusbridge", candidate.ReviewedBy)
	assert.NotEqual(t, uuid.Nil, propertyID)
	assert.Equal(t, []uuid.UUID{id}, env.properties.created)
	require.Len(t, env.pub.published, 1)
	assert.Contains(t, string(env.pub.published[0]), propertyID.String())
	assert.Contains(t, string(env.pub.published[0]), "Surplus plow truck 88")
}

func mustParseUUID(t *testing.T, s string) uuid.UUID {
	t.Helper()
	id, err := uuid.Parse(s)
	require.NoError(t, err)
	return id
}

func TestRejectDoesNotCreateProperty(t *testing.T) {
	listing := stubListing(parser.PlatformManual, "88", 30)
	sp := &stubSiteParser{platform: parser.PlatformManual, single: &listing}
	env := newTestEnv(t, sp, okFetch("detail"))

	result, err := env.svc.IngestURL(context.Background(), parser.PlatformManual, "https://example.com/lot/88")
	require.NoError(t, err)
	id := mustParseUUID(t, result.QueuedIDs[0])

	candidate, err := env.svc.Reject(context.Background(), id, "reviewer@surplusbridge", "water damage")
	require.NoError(t, err)
	assert.Equal(t, store.StatusRejected, candidate.Status)
	assert.Empty(t, env.properties.created)
	assert.Empty(t, env.pub.published)
}

func TestReviewTransitionsAreMonotonic(t *testing.T) {
	listing := stubListing(parser.PlatformManual, "88", 70)
	sp := &stubSiteParser{platform: parser.PlatformManual, single: &listing}
	env := newTestEnv(t, sp, okFetch("detail"))

	result, err := env.svc.IngestURL(context.Background(), parser.PlatformManual, "https://example.com/lot/88")
	require.NoError(t, err)
	id := mustParseUUID(t, result.QueuedIDs[0])

	_, _, err = env.svc.Approve(context.Background(), id, "reviewer", "")
	require.NoError(t, err)

	// A reviewed candidate can never be re-reviewed, in either direction.
	_, err = env.svc.Reject(context.Background(), id, "reviewer", "")
	assert.ErrorIs(t, err, store.ErrInvalidTransition)
	_, _, err = env.svc.Approve(context.Background(), id, "reviewer", "")
	assert.ErrorIs(t, err, store.ErrInvalidTransition)
}

func TestApprovePropertyCreateFailureStillApproved(t *testing.T) {
	listing := stubListing(parser.PlatformManual, "88", 70)
	sp := &stubSiteParser{platform: parser.PlatformManual, single: &listing}
	env := newTestEnv(t, sp, okFetch("detail"))
	env.properties.createErr = errors.New("disk full")

	result, err := env.svc.IngestURL(context.Background(), parser.PlatformManual, "https://example.com/lot/88")
	require.NoError(t, err)
	id := mustParseUUID(t, result.QueuedIDs[0])

	candidate, _, err := env.svc.Approve(context.Background(), id, "reviewer", "")
	require.Error(t, err)
	assert.Equal(t, errs.ErrorTypeStorage, errs.TypeOf(err))
	require.NotNil(t, candidate)
	assert.Equal(t, store.StatusApproved, candidate.Status)
	assert.Empty(t, env.pub.published)
}

func TestApprovePublishFailureIsNotFatal(t *testing.T) {
	listing := stubListing(parser.PlatformManual, "88", 70)
	sp := &stubSiteParser{platform: parser.PlatformManual, single: &listing}
	env := newTestEnv(t, sp, okFetch("detail"))
	env.pub.publishErr = errors.New("stream unavailable")

	result, err := env.svc.IngestURL(context.Background(), parser.PlatformManual, "https://example.com/lot/88")
	require.NoError(t, err)
	id := mustParseUUID(t, result.QueuedIDs[0])

	_, propertyID, err := env.svc.Approve(context.Background(), id, "reviewer", "")
	require.NoError(t, err)
	assert.NotEqual(t, uuid.Nil, propertyID)
}

func TestHealthSummarySuccessRate(t *testing.T) {
	sp := &stubSiteParser{platform: parser.PlatformGCSurplus}
	env := newTestEnv(t, sp, okFetch("<html></html>"))

	env.health.entries = []store.AgentHealthEntry{
		{Status: store.HealthSuccess},
		{Status: store.HealthSuccess},
		{Status: store.HealthFailure},
		{Status: store.HealthTimeout},
	}

	summary, err := env.svc.HealthSummary(context.Background(), 10)
	require.NoError(t, err)
	assert.Equal(t, 4, summary.TotalRuns)
	assert.Equal(t, 2, summary.Successes)
	assert.Equal(t, 1, summary.Failures)
	assert.Equal(t, 1, summary.Timeouts)
	assert.InDelta(t, 0.5, summary.SuccessRate, 0.0001)
}
