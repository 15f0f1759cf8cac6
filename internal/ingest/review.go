package ingest

import (
	"context"
	"encoding/json"

	"github.com/google/uuid"

	"surplusbridge/ingestworker/internal/parser"
	"surplusbridge/ingestworker/logger"
	errs "surplusbridge/ingestworker/pkg/errors"
	"surplusbridge/ingestworker/services/store"
)

// propertyPayload is the message published downstream when a candidate
// is approved
type propertyPayload struct {
	PropertyID  uuid.UUID           `json:"property_id"`
	CandidateID uuid.UUID           `json:"candidate_id"`
	Platform    parser.Platform     `json:"source_platform"`
	Property    parser.PropertyData `json:"property_data"`
}

// Approve moves a queued candidate to approved, creates its durable
// property record, and publishes the property payload downstream.
func (s *Service) Approve(ctx context.Context, id uuid.UUID, reviewer, notes string) (*store.Candidate, uuid.UUID, error) {
	if s.candidates == nil {
		return nil, uuid.Nil, errs.NewStorage("candidate store not configured", nil)
	}

	candidate, err := s.candidates.UpdateStatus(ctx, id, store.StatusApproved, reviewer, notes)
	if err != nil {
		return nil, uuid.Nil, err
	}

	propertyID, err := s.properties.CreateFromCandidate(ctx, candidate)
	if err != nil {
		// The approval is already durable; the property record can be
		// recreated by support tooling, so report but don't unwind.
		return candidate, uuid.Nil, errs.NewStorage("approved but failed to create property record", err)
	}

	if s.pub != nil {
		payload, err := json.Marshal(propertyPayload{
			PropertyID:  propertyID,
			CandidateID: candidate.ID,
			Platform:    candidate.Platform,
			Property:    candidate.Property,
		})
		if err == nil {
			err = s.pub.PublishProperty(ctx, string(candidate.Platform), payload)
		}
		if err != nil {
			logger.Warn("failed to publish approved property %s: %v", propertyID, err)
		}
	}

	return candidate, propertyID, nil
}

// Reject moves a queued candidate to rejected
func (s *Service) Reject(ctx context.Context, id uuid.UUID, reviewer, notes string) (*store.Candidate, error) {
	if s.candidates == nil {
		return nil, errs.NewStorage("candidate store not configured", nil)
	}
	return s.candidates.UpdateStatus(ctx, id, store.StatusRejected, reviewer, notes)
}

// ListCandidates returns candidates in a review status, newest first
func (s *Service) ListCandidates(ctx context.Context, status store.CandidateStatus, limit int) ([]store.Candidate, error) {
	if s.candidates == nil {
		return nil, errs.NewStorage("candidate store not configured", nil)
	}
	return s.candidates.ListByStatus(ctx, status, limit)
}

// HealthSummary returns the rolling window of recent runs with the
// computed success rate
func (s *Service) HealthSummary(ctx context.Context, limit int) (store.HealthSummary, error) {
	if s.health == nil {
		return store.HealthSummary{}, errs.NewStorage("health store not configured", nil)
	}
	entries, err := s.health.Recent(ctx, limit)
	if err != nil {
		return store.HealthSummary{}, errs.NewStorage("failed to read health entries", err)
	}
	return store.Summarize(entries), nil
}
