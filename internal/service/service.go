// Package service is the application facade: it validates API input, resolves
// locations, and delegates to the dispatch coordinator and conversation
// engine.
package service

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/strayaid-systems/strayaid/internal/conversation"
	"github.com/strayaid-systems/strayaid/internal/dispatch"
	"github.com/strayaid-systems/strayaid/internal/geo"
	"github.com/strayaid-systems/strayaid/internal/models"
	"github.com/strayaid-systems/strayaid/internal/repository"
	"github.com/strayaid-systems/strayaid/pkg/logging"
)

var (
	// ErrValidation wraps all report and request validation failures.
	ErrValidation = errors.New("validation failed")

	// ErrNoPendingProposal is returned for accept/decline on a case with no
	// assignment history at all.
	ErrNoPendingProposal = errors.New("case has no assignment to act on")
)

// maxPhotos caps photo handles per report.
const maxPhotos = 5

// caseRefPrefix marks display references in case lookups. Everything after
// the prefix check is delegated to the repository, the only component allowed
// to parse the form.
const caseRefPrefix = "DOG"

// Service wires the coordination engine together for the HTTP layer.
type Service struct {
	repo        repository.Repository
	coordinator *dispatch.Coordinator
	threads     *conversation.Engine
	geocoder    geo.Resolver
	logger      *logging.Logger
}

// New creates the application service. geocoder may be nil; reports with only
// a free-text address then triage on role alone.
func New(repo repository.Repository, coordinator *dispatch.Coordinator, threads *conversation.Engine, geocoder geo.Resolver, logger *logging.Logger) *Service {
	if logger == nil {
		logger = logging.Default()
	}
	return &Service{
		repo:        repo,
		coordinator: coordinator,
		threads:     threads,
		geocoder:    geocoder,
		logger:      logger,
	}
}

// SubmitReport validates a report, resolves its location, and opens a case.
// Invalid reports are rejected before any case exists.
func (s *Service) SubmitReport(ctx context.Context, reporterID string, req *models.SubmitReportRequest) (*models.Case, error) {
	report, err := s.buildReport(ctx, reporterID, req)
	if err != nil {
		return nil, err
	}
	return s.coordinator.SubmitReport(ctx, report)
}

// buildReport validates the request and resolves coordinates. Geocoding
// failure is not a rejection: the report proceeds with an unknown location.
func (s *Service) buildReport(ctx context.Context, reporterID string, req *models.SubmitReportRequest) (*models.Report, error) {
	if strings.TrimSpace(req.Description) == "" {
		return nil, fmt.Errorf("%w: description is required", ErrValidation)
	}
	if !models.ValidCondition(req.Condition) {
		return nil, fmt.Errorf("%w: unknown condition %q", ErrValidation, req.Condition)
	}
	if !models.ValidUrgency(req.Urgency) {
		return nil, fmt.Errorf("%w: unknown urgency %q", ErrValidation, req.Urgency)
	}
	if len(req.Photos) > maxPhotos {
		return nil, fmt.Errorf("%w: at most %d photos", ErrValidation, maxPhotos)
	}
	if (req.Latitude == nil) != (req.Longitude == nil) {
		return nil, fmt.Errorf("%w: latitude and longitude must be given together", ErrValidation)
	}
	if req.Latitude == nil && strings.TrimSpace(req.Address) == "" {
		return nil, fmt.Errorf("%w: coordinates or an address are required", ErrValidation)
	}

	loc := models.Location{Address: req.Address}
	switch {
	case req.Latitude != nil:
		if *req.Latitude < -90 || *req.Latitude > 90 || *req.Longitude < -180 || *req.Longitude > 180 {
			return nil, fmt.Errorf("%w: coordinates out of range", ErrValidation)
		}
		loc.Latitude = *req.Latitude
		loc.Longitude = *req.Longitude
		loc.Known = true
	case s.geocoder != nil:
		coords, err := s.geocoder.Resolve(ctx, req.Address)
		if err != nil {
			s.logger.WarnContext(ctx, "geocoding failed, proceeding without coordinates",
				logging.ReporterID(reporterID), logging.Error(err))
		} else {
			loc.Latitude = coords.Latitude
			loc.Longitude = coords.Longitude
			loc.Known = true
		}
	}

	return &models.Report{
		ReporterID:     reporterID,
		Description:    req.Description,
		Condition:      req.Condition,
		Urgency:        req.Urgency,
		Location:       loc,
		ContactNumber:  req.ContactNumber,
		AdditionalInfo: req.AdditionalInfo,
		Photos:         req.Photos,
		ReportedAt:     time.Now().UTC(),
	}, nil
}

// GetCase resolves a case by internal ID or display reference (DOG######).
func (s *Service) GetCase(ctx context.Context, idOrRef string) (*models.Case, error) {
	if strings.HasPrefix(idOrRef, caseRefPrefix) {
		return s.repo.GetCaseByRef(ctx, idOrRef)
	}
	return s.repo.GetCase(ctx, idOrRef)
}

// ListCases lists cases with filters applied.
func (s *Service) ListCases(ctx context.Context, req *models.ListCasesRequest) ([]*models.Case, error) {
	return s.repo.ListCases(ctx, req)
}

// ListTransitions returns a case's full state history.
func (s *Service) ListTransitions(ctx context.Context, caseID string) ([]models.Transition, error) {
	return s.repo.ListTransitions(ctx, caseID)
}

// ListAssignments returns a case's assignment history, newest first.
func (s *Service) ListAssignments(ctx context.Context, caseID string) ([]*models.Assignment, error) {
	assignments, err := s.repo.ListAssignments(ctx, caseID)
	if err != nil {
		return nil, err
	}
	sort.Slice(assignments, func(i, j int) bool {
		return assignments[i].ProposedAt.After(assignments[j].ProposedAt)
	})
	return assignments, nil
}

// latestAssignment returns the most recently proposed assignment on a case.
func (s *Service) latestAssignment(ctx context.Context, caseID string) (*models.Assignment, error) {
	assignments, err := s.ListAssignments(ctx, caseID)
	if err != nil {
		return nil, err
	}
	if len(assignments) == 0 {
		return nil, ErrNoPendingProposal
	}
	return assignments[0], nil
}

// Accept accepts a case's current proposal on behalf of responderID. The
// coordinator reports conflicts when the proposal is already decided or was
// revoked by withdrawal.
func (s *Service) Accept(ctx context.Context, caseID, responderID string) (*models.Case, error) {
	assignment, err := s.latestAssignment(ctx, caseID)
	if err != nil {
		return nil, err
	}
	return s.coordinator.Accept(ctx, assignment.ID, responderID)
}

// Decline declines a case's current proposal.
func (s *Service) Decline(ctx context.Context, caseID, responderID, reason string) error {
	assignment, err := s.latestAssignment(ctx, caseID)
	if err != nil {
		return err
	}
	return s.coordinator.Decline(ctx, assignment.ID, responderID, reason)
}

// Start marks the responder's engagement as in progress.
func (s *Service) Start(ctx context.Context, caseID, responderID string) (*models.Case, error) {
	return s.coordinator.Start(ctx, caseID, responderID)
}

// Resolve records a case outcome.
func (s *Service) Resolve(ctx context.Context, caseID, responderID, note string) (*models.Case, error) {
	return s.coordinator.Resolve(ctx, caseID, responderID, note)
}

// Withdraw cancels a case on behalf of its reporter. Only the reporter may
// withdraw.
func (s *Service) Withdraw(ctx context.Context, caseID, actorID string) (*models.Case, error) {
	kase, err := s.repo.GetCase(ctx, caseID)
	if err != nil {
		return nil, err
	}
	if kase.ReporterID != actorID {
		return nil, fmt.Errorf("%w: only the reporter may withdraw", ErrValidation)
	}
	return s.coordinator.Withdraw(ctx, caseID, actorID)
}

// Close closes a resolved case.
func (s *Service) Close(ctx context.Context, caseID, actorID string) (*models.Case, error) {
	return s.coordinator.Close(ctx, caseID, actorID)
}

// Reopen returns a closed case to resolved.
func (s *Service) Reopen(ctx context.Context, caseID, actorID string) (*models.Case, error) {
	return s.coordinator.Reopen(ctx, caseID, actorID)
}

// AppendMessage appends to a case's conversation thread.
func (s *Service) AppendMessage(ctx context.Context, caseID, senderID string, req *models.AppendMessageRequest) (*models.Message, error) {
	return s.threads.Append(ctx, caseID, senderID, req)
}

// ListMessages reads a thread from fromSeq.
func (s *Service) ListMessages(ctx context.Context, caseID string, fromSeq uint64, limit int) ([]*models.Message, error) {
	return s.threads.Read(ctx, caseID, fromSeq, limit)
}

// MarkRead advances the caller's read cursor.
func (s *Service) MarkRead(ctx context.Context, caseID, userID string, seq uint64) error {
	return s.threads.MarkRead(ctx, caseID, userID, seq)
}

// Unread returns the caller's unread message count on a thread.
func (s *Service) Unread(ctx context.Context, caseID, userID string) (uint64, error) {
	return s.threads.Unread(ctx, caseID, userID)
}

// Ping reports storage health.
func (s *Service) Ping(ctx context.Context) error {
	return s.repo.Ping(ctx)
}
