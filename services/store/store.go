package store

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"

	"surplusbridge/ingestworker/internal/parser"
)

var (
	// ErrNotFound is returned when a looked-up row does not exist
	ErrNotFound = errors.New("not found")
	// ErrInvalidTransition is returned when a status update targets a
	// candidate that already left the queued state
	ErrInvalidTransition = errors.New("candidate is not queued")
)

// CandidateStatus is the review state of a stored candidate.
// Transitions are monotonic: queued -> approved | rejected, never back.
type CandidateStatus string

const (
	StatusQueued   CandidateStatus = "queued"
	StatusApproved CandidateStatus = "approved"
	StatusRejected CandidateStatus = "rejected"
)

// Candidate is a scraped listing awaiting operator review
type Candidate struct {
	ID            uuid.UUID               `json:"id"`
	Platform      parser.Platform         `json:"source_platform"`
	SourceID      string                  `json:"source_id"`
	SourceURL     string                  `json:"source_url"`
	Property      parser.PropertyData     `json:"property_data"`
	QualityScore  int                     `json:"quality_score"`
	Breakdown     parser.QualityBreakdown `json:"quality_breakdown"`
	Bucket        parser.Bucket           `json:"bucket"`
	Status        CandidateStatus         `json:"status"`
	ReviewedBy    string                  `json:"reviewed_by,omitempty"`
	ReviewedAt    *time.Time              `json:"reviewed_at,omitempty"`
	OperatorNotes string                  `json:"operator_notes,omitempty"`
	ScrapedAt     time.Time               `json:"scraped_at"`
}

// ConflictKey names the natural key an insert deduplicates on
type ConflictKey string

const (
	// ConflictSourceID dedups on (source_platform, source_id) — the
	// bulk scrape path
	ConflictSourceID ConflictKey = "source_id"
	// ConflictSourceURL dedups on source_url — the manual path
	ConflictSourceURL ConflictKey = "source_url"
)

// InsertOutcome reports whether an insert-if-absent stored a new row
type InsertOutcome struct {
	Inserted bool
	Reason   string
}

// CandidateStore is the persistence contract for candidates
type CandidateStore interface {
	// InsertIfAbsent inserts the candidate, silently no-oping when the
	// conflict key already exists
	InsertIfAbsent(ctx context.Context, c *Candidate, key ConflictKey) (InsertOutcome, error)

	// FindBySourceURL returns the candidate stored under the URL, or
	// ErrNotFound
	FindBySourceURL(ctx context.Context, sourceURL string) (*Candidate, error)

	// FindByID returns the candidate by ID, or ErrNotFound
	FindByID(ctx context.Context, id uuid.UUID) (*Candidate, error)

	// ListByStatus returns up to limit candidates in the given status,
	// newest first
	ListByStatus(ctx context.Context, status CandidateStatus, limit int) ([]Candidate, error)

	// UpdateStatus moves a queued candidate to approved or rejected.
	// Returns ErrInvalidTransition when the candidate already left
	// queued; no transition is reversible.
	UpdateStatus(ctx context.Context, id uuid.UUID, status CandidateStatus, reviewer, notes string) (*Candidate, error)
}

// PropertyStore creates durable property records from approved
// candidates
type PropertyStore interface {
	CreateFromCandidate(ctx context.Context, c *Candidate) (uuid.UUID, error)
}

// HealthStatus is the outcome class of one pipeline run
type HealthStatus string

const (
	HealthSuccess HealthStatus = "success"
	HealthFailure HealthStatus = "failure"
	HealthTimeout HealthStatus = "timeout"
)

// AgentHealthEntry is an immutable telemetry row, one per pipeline run
type AgentHealthEntry struct {
	ID              uuid.UUID         `json:"id"`
	AgentType       string            `json:"agent_type"`
	AgentName       string            `json:"agent_name"`
	Status          HealthStatus      `json:"status"`
	ItemsFound      int               `json:"items_found"`
	ItemsQueued     int               `json:"items_queued"`
	ItemsRejected   int               `json:"items_rejected"`
	ExecutionTimeMS int64             `json:"execution_time_ms"`
	ErrorMessage    string            `json:"error_message,omitempty"`
	SourceURL       string            `json:"source_url,omitempty"`
	Metadata        map[string]string `json:"metadata,omitempty"`
	CreatedAt       time.Time         `json:"created_at"`
}

// HealthStore is the append-only telemetry contract
type HealthStore interface {
	// Append writes one entry. Callers treat failures as ignorable;
	// the run result does not depend on the log write.
	Append(ctx context.Context, entry *AgentHealthEntry) error

	// Recent returns the newest entries, newest first
	Recent(ctx context.Context, limit int) ([]AgentHealthEntry, error)
}

// SessionVerifier resolves an authenticated-session token to a role.
// Owned by the excluded auth subsystem; only the lookup is consumed
// here.
type SessionVerifier interface {
	RoleForToken(ctx context.Context, token string) (string, error)
}

// HealthSummary aggregates a recent window of health entries
type HealthSummary struct {
	TotalRuns   int                `json:"total_runs"`
	Successes   int                `json:"successes"`
	Failures    int                `json:"failures"`
	Timeouts    int                `json:"timeouts"`
	SuccessRate float64            `json:"success_rate"`
	Recent      []AgentHealthEntry `json:"recent"`
}

// Summarize computes the rolling success rate over a window of entries
func Summarize(entries []AgentHealthEntry) HealthSummary {
	summary := HealthSummary{Recent: entries, TotalRuns: len(entries)}
	for _, entry := range entries {
		switch entry.Status {
		case HealthSuccess:
			summary.Successes++
		case HealthTimeout:
			summary.Timeouts++
		default:
			summary.Failures++
		}
	}
	if summary.TotalRuns > 0 {
		summary.SuccessRate = float64(summary.Successes) / float64(summary.TotalRuns)
	}
	return summary
}
