package store

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// PostgresStore implements CandidateStore, PropertyStore, HealthStore,
// and SessionVerifier over a pgx connection pool
type PostgresStore struct {
	pool *pgxpool.Pool
}

// NewPostgresStore creates a store over an existing pool
func NewPostgresStore(pool *pgxpool.Pool) (*PostgresStore, error) {
	if pool == nil {
		return nil, fmt.Errorf("pgxpool.Pool cannot be nil")
	}
	return &PostgresStore{pool: pool}, nil
}

const candidateColumns = `id, source_platform, source_id, source_url, property_data,
	quality_score, quality_breakdown, bucket, status, reviewed_by, reviewed_at,
	operator_notes, scraped_at`

// InsertIfAbsent inserts a candidate, no-oping on a conflict against
// the chosen natural key. Zero rows affected means duplicate.
func (s *PostgresStore) InsertIfAbsent(ctx context.Context, c *Candidate, key ConflictKey) (InsertOutcome, error) {
	conflict := "(source_platform, source_id)"
	if key == ConflictSourceURL {
		conflict = "(source_url)"
	}

	if c.ID == uuid.Nil {
		c.ID = uuid.New()
	}
	if c.ScrapedAt.IsZero() {
		c.ScrapedAt = time.Now().UTC()
	}
	if c.Status == "" {
		c.Status = StatusQueued
	}

	sql := fmt.Sprintf(`
		INSERT INTO candidates (
			id, source_platform, source_id, source_url, property_data,
			quality_score, quality_breakdown, bucket, status, scraped_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
		ON CONFLICT %s DO NOTHING`, conflict)

	tag, err := s.pool.Exec(ctx, sql,
		c.ID, c.Platform, c.SourceID, c.SourceURL, c.Property,
		c.QualityScore, c.Breakdown, c.Bucket, c.Status, c.ScrapedAt,
	)
	if err != nil {
		return InsertOutcome{}, fmt.Errorf("failed to insert candidate: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return InsertOutcome{Inserted: false, Reason: "duplicate"}, nil
	}
	return InsertOutcome{Inserted: true}, nil
}

// FindBySourceURL returns the candidate stored under a source URL
func (s *PostgresStore) FindBySourceURL(ctx context.Context, sourceURL string) (*Candidate, error) {
	row := s.pool.QueryRow(ctx,
		`SELECT `+candidateColumns+` FROM candidates WHERE source_url = $1`, sourceURL)
	return scanCandidate(row)
}

// FindByID returns the candidate by ID
func (s *PostgresStore) FindByID(ctx context.Context, id uuid.UUID) (*Candidate, error) {
	row := s.pool.QueryRow(ctx,
		`SELECT `+candidateColumns+` FROM candidates WHERE id = $1`, id)
	return scanCandidate(row)
}

// ListByStatus returns up to limit candidates in a status, newest first
func (s *PostgresStore) ListByStatus(ctx context.Context, status CandidateStatus, limit int) ([]Candidate, error) {
	if limit <= 0 {
		limit = 50
	}
	rows, err := s.pool.Query(ctx,
		`SELECT `+candidateColumns+` FROM candidates
		 WHERE status = $1 ORDER BY scraped_at DESC LIMIT $2`, status, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list candidates: %w", err)
	}
	defer rows.Close()

	var candidates []Candidate
	for rows.Next() {
		candidate, err := scanCandidate(rows)
		if err != nil {
			return nil, err
		}
		candidates = append(candidates, *candidate)
	}
	return candidates, rows.Err()
}

// UpdateStatus moves a queued candidate out of the queue. The WHERE
// clause on status enforces the monotonic transition at the storage
// layer, so concurrent reviewers cannot race past each other.
func (s *PostgresStore) UpdateStatus(ctx context.Context, id uuid.UUID, status CandidateStatus, reviewer, notes string) (*Candidate, error) {
	if status != StatusApproved && status != StatusRejected {
		return nil, fmt.Errorf("invalid target status %q", status)
	}
	row := s.pool.QueryRow(ctx, `
		UPDATE candidates
		SET status = $2, reviewed_by = $3, reviewed_at = now(), operator_notes = $4
		WHERE id = $1 AND status = 'queued'
		RETURNING `+candidateColumns, id, status, reviewer, notes)

	candidate, err := scanCandidate(row)
	if errors.Is(err, ErrNotFound) {
		// Either the candidate does not exist or it already left
		// queued; disambiguate for the caller.
		if _, findErr := s.FindByID(ctx, id); findErr == nil {
			return nil, ErrInvalidTransition
		}
		return nil, ErrNotFound
	}
	return candidate, err
}

// CreateFromCandidate creates the durable property record for an
// approved candidate
func (s *PostgresStore) CreateFromCandidate(ctx context.Context, c *Candidate) (uuid.UUID, error) {
	propertyID := uuid.New()
	_, err := s.pool.Exec(ctx, `
		INSERT INTO properties (id, candidate_id, source_platform, property_data, created_at)
		VALUES ($1, $2, $3, $4, now())`,
		propertyID, c.ID, c.Platform, c.Property)
	if err != nil {
		return uuid.Nil, fmt.Errorf("failed to create property: %w", err)
	}
	return propertyID, nil
}

// Append writes one immutable health entry
func (s *PostgresStore) Append(ctx context.Context, entry *AgentHealthEntry) error {
	if entry.ID == uuid.Nil {
		entry.ID = uuid.New()
	}
	if entry.CreatedAt.IsZero() {
		entry.CreatedAt = time.Now().UTC()
	}
	_, err := s.pool.Exec(ctx, `
		INSERT INTO agent_health (
			id, agent_type, agent_name, status, items_found, items_queued,
			items_rejected, execution_time_ms, error_message, source_url,
			metadata, created_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)`,
		entry.ID, entry.AgentType, entry.AgentName, entry.Status,
		entry.ItemsFound, entry.ItemsQueued, entry.ItemsRejected,
		entry.ExecutionTimeMS, entry.ErrorMessage, entry.SourceURL,
		entry.Metadata, entry.CreatedAt)
	if err != nil {
		return fmt.Errorf("failed to append health entry: %w", err)
	}
	return nil
}

// Recent returns the newest health entries, newest first
func (s *PostgresStore) Recent(ctx context.Context, limit int) ([]AgentHealthEntry, error) {
	if limit <= 0 {
		limit = 20
	}
	rows, err := s.pool.Query(ctx, `
		SELECT id, agent_type, agent_name, status, items_found, items_queued,
		       items_rejected, execution_time_ms, error_message, source_url,
		       metadata, created_at
		FROM agent_health ORDER BY created_at DESC LIMIT $1`, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query health entries: %w", err)
	}
	defer rows.Close()

	var entries []AgentHealthEntry
	for rows.Next() {
		var entry AgentHealthEntry
		var errorMessage, sourceURL *string
		if err := rows.Scan(
			&entry.ID, &entry.AgentType, &entry.AgentName, &entry.Status,
			&entry.ItemsFound, &entry.ItemsQueued, &entry.ItemsRejected,
			&entry.ExecutionTimeMS, &errorMessage, &sourceURL,
			&entry.Metadata, &entry.CreatedAt,
		); err != nil {
			return nil, fmt.Errorf("failed to scan health entry: %w", err)
		}
		if errorMessage != nil {
			entry.ErrorMessage = *errorMessage
		}
		if sourceURL != nil {
			entry.SourceURL = *sourceURL
		}
		entries = append(entries, entry)
	}
	return entries, rows.Err()
}

// RoleForToken resolves an active session token to the user's role
func (s *PostgresStore) RoleForToken(ctx context.Context, token string) (string, error) {
	var role string
	err := s.pool.QueryRow(ctx, `
		SELECT u.role FROM sessions s
		JOIN users u ON u.id = s.user_id
		WHERE s.token = $1 AND s.expires_at > now()`, token).Scan(&role)
	if errors.Is(err, pgx.ErrNoRows) {
		return "", ErrNotFound
	}
	if err != nil {
		return "", fmt.Errorf("failed to look up session: %w", err)
	}
	return role, nil
}

// rowScanner covers pgx.Row and pgx.Rows
type rowScanner interface {
	Scan(dest ...any) error
}

func scanCandidate(row rowScanner) (*Candidate, error) {
	var c Candidate
	var reviewedBy, operatorNotes *string
	err := row.Scan(
		&c.ID, &c.Platform, &c.SourceID, &c.SourceURL, &c.Property,
		&c.QualityScore, &c.Breakdown, &c.Bucket, &c.Status,
		&reviewedBy, &c.ReviewedAt, &operatorNotes, &c.ScrapedAt,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to scan candidate: %w", err)
	}
	if reviewedBy != nil {
		c.ReviewedBy = *reviewedBy
	}
	if operatorNotes != nil {
		c.OperatorNotes = *operatorNotes
	}
	return &c, nil
}
