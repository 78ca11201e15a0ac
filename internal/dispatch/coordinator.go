// Package dispatch drives the case state machine: triage, assignment
// proposals, acceptance windows, reassignment, withdrawal, and closure. The
// coordinator is the sole writer of case and assignment state.
package dispatch

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/strayaid-systems/strayaid/internal/events"
	"github.com/strayaid-systems/strayaid/internal/metrics"
	"github.com/strayaid-systems/strayaid/internal/models"
	"github.com/strayaid-systems/strayaid/internal/registry"
	"github.com/strayaid-systems/strayaid/internal/repository"
	"github.com/strayaid-systems/strayaid/internal/triage"
	"github.com/strayaid-systems/strayaid/pkg/logging"
	"github.com/strayaid-systems/strayaid/pkg/messaging"
)

var (
	// ErrProposalConflict is returned when a proposal was already decided;
	// first accept wins, later attempts are told why they lost.
	ErrProposalConflict = errors.New("proposal already decided")

	// ErrStaleProposal is returned for accept attempts on a proposal revoked
	// by a reporter withdrawal.
	ErrStaleProposal = errors.New("proposal revoked by withdrawal")

	// ErrInvalidTransition is returned for transitions the state machine
	// does not permit.
	ErrInvalidTransition = errors.New("invalid case state transition")

	// ErrResolutionNoteRequired rejects resolutions without an outcome note.
	ErrResolutionNoteRequired = errors.New("resolution note required")

	// ErrNotAssignmentHolder is returned when a responder acts on a case
	// whose active assignment they do not hold.
	ErrNotAssignmentHolder = errors.New("responder does not hold the active assignment")
)

// Config holds dispatch policy. The source behavior never pinned these down,
// so they stay configurable rather than guessed constants.
type Config struct {
	// AcceptanceWindow bounds how long a proposed responder may take to
	// accept before the proposal expires.
	AcceptanceWindow time.Duration

	// MaxReassignments is the decline/timeout budget per triage cycle.
	// Exhausting it marks the case unassignable for escalation.
	MaxReassignments int

	// ResolvedGracePeriod is how long a resolved case waits before
	// auto-closing.
	ResolvedGracePeriod time.Duration
}

// DefaultConfig returns the default dispatch policy.
func DefaultConfig() Config {
	return Config{
		AcceptanceWindow:    5 * time.Minute,
		MaxReassignments:    3,
		ResolvedGracePeriod: 24 * time.Hour,
	}
}

// Coordinator serializes mutations per case and runs the acceptance-window
// timers. Different cases proceed fully in parallel.
type Coordinator struct {
	repo    repository.Repository
	reg     *registry.Registry
	emitter events.Emitter
	logger  *logging.Logger
	cfg     Config

	locks sync.Map // case ID -> *sync.Mutex

	mu      sync.Mutex
	plans   map[string][]models.Candidate // remaining candidates this triage cycle
	pending map[string]string             // case ID -> pending assignment ID
	timers  map[string]*time.Timer        // assignment ID -> acceptance timer
}

// NewCoordinator creates a dispatch coordinator.
func NewCoordinator(repo repository.Repository, reg *registry.Registry, emitter events.Emitter, logger *logging.Logger, cfg Config) *Coordinator {
	if emitter == nil {
		emitter = events.Noop{}
	}
	if logger == nil {
		logger = logging.Default()
	}
	return &Coordinator{
		repo:    repo,
		reg:     reg,
		emitter: emitter,
		logger:  logger,
		cfg:     cfg,
		plans:   make(map[string][]models.Candidate),
		pending: make(map[string]string),
		timers:  make(map[string]*time.Timer),
	}
}

// caseLock returns the mutex serializing one case's transitions.
func (c *Coordinator) caseLock(caseID string) *sync.Mutex {
	mu, _ := c.locks.LoadOrStore(caseID, &sync.Mutex{})
	return mu.(*sync.Mutex)
}

// legalTransitions is the case state machine. A case never moves to an
// earlier state except via the explicit closed -> resolved reopen edge.
var legalTransitions = map[string][]string{
	models.CaseStateReported:     {models.CaseStateTriaged, models.CaseStateWithdrawn},
	models.CaseStateTriaged:      {models.CaseStateAssigned, models.CaseStateWithdrawn},
	models.CaseStateAssigned:     {models.CaseStateAcknowledged, models.CaseStateTriaged, models.CaseStateWithdrawn},
	models.CaseStateAcknowledged: {models.CaseStateInProgress, models.CaseStateTriaged, models.CaseStateWithdrawn},
	models.CaseStateInProgress:   {models.CaseStateResolved, models.CaseStateWithdrawn},
	models.CaseStateResolved:     {models.CaseStateClosed},
	models.CaseStateClosed:       {models.CaseStateResolved},
	models.CaseStateWithdrawn:    {},
}

func transitionAllowed(from, to string) bool {
	for _, t := range legalTransitions[from] {
		if t == to {
			return true
		}
	}
	return false
}

// SubmitReport creates a case (and, implicitly, its conversation thread)
// from a validated report and triages it. The thread shares the case ID and
// exists from this moment for the case's entire life.
func (c *Coordinator) SubmitReport(ctx context.Context, report *models.Report) (*models.Case, error) {
	now := time.Now().UTC()
	kase := &models.Case{
		ID:             uuid.New().String(),
		ReporterID:     report.ReporterID,
		Description:    report.Description,
		Condition:      report.Condition,
		Urgency:        report.Urgency,
		Location:       report.Location,
		ContactNumber:  report.ContactNumber,
		AdditionalInfo: report.AdditionalInfo,
		Photos:         report.Photos,
		State:          models.CaseStateReported,
		CreatedAt:      now,
		UpdatedAt:      now,
	}

	if err := c.repo.CreateCase(ctx, kase); err != nil {
		return nil, fmt.Errorf("create case: %w", err)
	}
	metrics.CasesCreated.WithLabelValues(kase.Urgency).Inc()
	if err := c.repo.AppendTransition(ctx, kase.ID, models.Transition{
		From: "", To: models.CaseStateReported, Actor: report.ReporterID, At: now,
	}); err != nil {
		return nil, fmt.Errorf("record creation: %w", err)
	}

	mu := c.caseLock(kase.ID)
	mu.Lock()
	defer mu.Unlock()

	result := triage.Triage(report, c.reg.Snapshot())
	c.emitCaseEvent(ctx, kase.ID, models.EventCaseCreated, messaging.SubjectCasesCreated, models.CaseCreatedPayload{
		Ref:        kase.Ref,
		Urgency:    kase.Urgency,
		Condition:  kase.Condition,
		ReporterID: kase.ReporterID,
		Candidates: len(result.Candidates),
	})

	if err := c.applyTriageLocked(ctx, kase, result, report.ReporterID); err != nil {
		return nil, err
	}
	return c.repo.GetCase(ctx, kase.ID)
}

// Retriage re-runs triage for a queued unassignable case, starting a fresh
// cycle with a reset reassignment budget.
func (c *Coordinator) Retriage(ctx context.Context, caseID string) error {
	mu := c.caseLock(caseID)
	mu.Lock()
	defer mu.Unlock()

	kase, err := c.repo.GetCase(ctx, caseID)
	if err != nil {
		return err
	}
	if kase.State != models.CaseStateTriaged || !kase.Unassignable {
		return nil
	}

	report := &models.Report{
		ReporterID: kase.ReporterID,
		Condition:  kase.Condition,
		Urgency:    kase.Urgency,
		Location:   kase.Location,
		ReportedAt: kase.CreatedAt,
	}
	result := triage.Triage(report, c.reg.Snapshot())
	if result.Unassignable() {
		return nil // still nobody; stays queued for the next sweep
	}

	kase.ReassignCount = 0
	return c.applyTriageLocked(ctx, kase, result, "system")
}

// applyTriageLocked records the triage outcome and, when candidates exist,
// proposes the top-ranked one. Caller holds the case lock.
func (c *Coordinator) applyTriageLocked(ctx context.Context, kase *models.Case, result *triage.Result, actor string) error {
	c.mu.Lock()
	c.plans[kase.ID] = append([]models.Candidate(nil), result.Candidates...)
	c.mu.Unlock()

	wasUnassignable := kase.Unassignable
	kase.Unassignable = result.Unassignable()
	if kase.Unassignable && !wasUnassignable {
		metrics.UnassignableCases.Inc()
	} else if !kase.Unassignable && wasUnassignable {
		metrics.UnassignableCases.Dec()
	}
	if kase.State == models.CaseStateReported {
		if err := c.transitionLocked(ctx, kase, models.CaseStateTriaged, actor, ""); err != nil {
			return err
		}
	} else if err := c.repo.UpdateCase(ctx, kase); err != nil {
		return err
	}

	if kase.Unassignable {
		c.logger.InfoContext(ctx, "case unassignable after triage",
			logging.CaseID(kase.ID), logging.Urgency(kase.Urgency))
		return nil
	}
	return c.proposeNextLocked(ctx, kase)
}

// proposeNextLocked proposes the next remaining candidate. Only one proposal
// may be pending per case; callers guarantee the prior one is terminal.
// Caller holds the case lock.
func (c *Coordinator) proposeNextLocked(ctx context.Context, kase *models.Case) error {
	if kase.ReassignCount >= c.cfg.MaxReassignments {
		return c.markUnassignableLocked(ctx, kase, "reassignment budget exhausted")
	}

	c.mu.Lock()
	plan := c.plans[kase.ID]
	var next *models.Candidate
	if len(plan) > 0 {
		next = &plan[0]
		c.plans[kase.ID] = plan[1:]
	}
	c.mu.Unlock()

	if next == nil {
		return c.markUnassignableLocked(ctx, kase, "no remaining candidates")
	}

	id, err := uuid.NewV7()
	if err != nil {
		return err
	}
	now := time.Now().UTC()
	assignment := &models.Assignment{
		ID:          id.String(),
		CaseID:      kase.ID,
		ResponderID: next.ResponderID,
		State:       models.AssignmentProposed,
		ProposedAt:  now,
		ExpiresAt:   now.Add(c.cfg.AcceptanceWindow),
	}
	if err := c.repo.CreateAssignment(ctx, assignment); err != nil {
		return fmt.Errorf("create assignment: %w", err)
	}

	if err := c.transitionLocked(ctx, kase, models.CaseStateAssigned, "system",
		"proposed to "+next.ResponderID); err != nil {
		return err
	}

	c.mu.Lock()
	c.pending[kase.ID] = assignment.ID
	// Expiry runs the same path as an explicit decline.
	c.timers[assignment.ID] = time.AfterFunc(c.cfg.AcceptanceWindow, func() {
		c.expireProposal(assignment.ID)
	})
	c.mu.Unlock()

	c.emitCaseEvent(ctx, kase.ID, models.EventAssignmentProposed, messaging.SubjectAssignmentsProposed,
		models.AssignmentProposedPayload{
			AssignmentID: assignment.ID,
			ResponderID:  assignment.ResponderID,
			ExpiresAt:    assignment.ExpiresAt,
		})

	c.logger.InfoContext(ctx, "assignment proposed",
		logging.CaseID(kase.ID),
		logging.AssignmentID(assignment.ID),
		logging.ResponderID(assignment.ResponderID))
	return nil
}

// markUnassignableLocked parks a case in triaged/unassignable for escalation.
// Not an error state: the scheduler keeps it queued for re-triage.
func (c *Coordinator) markUnassignableLocked(ctx context.Context, kase *models.Case, reason string) error {
	if !kase.Unassignable {
		metrics.UnassignableCases.Inc()
	}
	kase.Unassignable = true
	if kase.State != models.CaseStateTriaged {
		if err := c.transitionLocked(ctx, kase, models.CaseStateTriaged, "system", reason); err != nil {
			return err
		}
	} else if err := c.repo.UpdateCase(ctx, kase); err != nil {
		return err
	}

	c.logger.WarnContext(ctx, "case unassignable", logging.CaseID(kase.ID), logging.State(kase.State))
	return nil
}

// Accept is a responder accepting a pending proposal. First accept wins;
// every later attempt on the same proposal fails with a named conflict.
func (c *Coordinator) Accept(ctx context.Context, assignmentID, responderID string) (*models.Case, error) {
	assignment, err := c.repo.GetAssignment(ctx, assignmentID)
	if err != nil {
		return nil, err
	}

	mu := c.caseLock(assignment.CaseID)
	mu.Lock()
	defer mu.Unlock()

	// Re-read under the lock; a concurrent accept/decline/expiry may have
	// decided it already.
	assignment, err = c.repo.GetAssignment(ctx, assignmentID)
	if err != nil {
		return nil, err
	}

	switch assignment.State {
	case models.AssignmentProposed:
		// still open
	case models.AssignmentRevoked:
		return nil, ErrStaleProposal
	default:
		return nil, ErrProposalConflict
	}
	if assignment.ResponderID != responderID {
		return nil, ErrProposalConflict
	}

	kase, err := c.repo.GetCase(ctx, assignment.CaseID)
	if err != nil {
		return nil, err
	}
	if kase.State != models.CaseStateAssigned {
		return nil, ErrProposalConflict
	}

	c.cancelTimer(assignment.ID)

	now := time.Now().UTC()
	assignment.State = models.AssignmentActive
	assignment.DecidedAt = &now
	if err := c.repo.UpdateAssignment(ctx, assignment); err != nil {
		return nil, err
	}
	metrics.AssignmentOutcomes.WithLabelValues(models.AssignmentActive).Inc()
	metrics.AcceptLatency.Observe(now.Sub(assignment.ProposedAt).Seconds())

	kase.ResponderID = &assignment.ResponderID
	if err := c.transitionLocked(ctx, kase, models.CaseStateAcknowledged, responderID, ""); err != nil {
		return nil, err
	}

	c.mu.Lock()
	delete(c.pending, kase.ID)
	c.mu.Unlock()

	c.logger.InfoContext(ctx, "assignment accepted",
		logging.CaseID(kase.ID), logging.ResponderID(responderID))
	return c.repo.GetCase(ctx, kase.ID)
}

// Decline is a responder declining a pending proposal. Timeouts arrive here
// too, via expireProposal, so both share one recovery path.
func (c *Coordinator) Decline(ctx context.Context, assignmentID, responderID, reason string) error {
	assignment, err := c.repo.GetAssignment(ctx, assignmentID)
	if err != nil {
		return err
	}
	if assignment.ResponderID != responderID {
		return ErrNotAssignmentHolder
	}

	mu := c.caseLock(assignment.CaseID)
	mu.Lock()
	defer mu.Unlock()
	return c.declineLocked(ctx, assignmentID, models.AssignmentDeclined, reason)
}

// expireProposal is the acceptance-window timer callback.
func (c *Coordinator) expireProposal(assignmentID string) {
	ctx := context.Background()

	assignment, err := c.repo.GetAssignment(ctx, assignmentID)
	if err != nil {
		return
	}

	mu := c.caseLock(assignment.CaseID)
	mu.Lock()
	defer mu.Unlock()

	if err := c.declineLocked(ctx, assignmentID, models.AssignmentExpired, "acceptance window expired"); err != nil &&
		!errors.Is(err, ErrProposalConflict) {
		c.logger.Error("proposal expiry failed", logging.AssignmentID(assignmentID), logging.Error(err))
	}
}

// declineLocked finishes a proposal as declined or expired and advances to
// the next-ranked candidate. Caller holds the case lock.
func (c *Coordinator) declineLocked(ctx context.Context, assignmentID, terminalState, reason string) error {
	assignment, err := c.repo.GetAssignment(ctx, assignmentID)
	if err != nil {
		return err
	}
	if assignment.State != models.AssignmentProposed {
		return ErrProposalConflict
	}

	c.cancelTimer(assignment.ID)

	now := time.Now().UTC()
	assignment.State = terminalState
	assignment.DecidedAt = &now
	assignment.Reason = reason
	if err := c.repo.UpdateAssignment(ctx, assignment); err != nil {
		return err
	}
	metrics.AssignmentOutcomes.WithLabelValues(terminalState).Inc()

	kase, err := c.repo.GetCase(ctx, assignment.CaseID)
	if err != nil {
		return err
	}

	c.mu.Lock()
	delete(c.pending, kase.ID)
	c.mu.Unlock()

	kase.ReassignCount++
	if err := c.transitionLocked(ctx, kase, models.CaseStateTriaged, "system", reason); err != nil {
		return err
	}

	c.logger.InfoContext(ctx, "proposal "+terminalState,
		logging.CaseID(kase.ID),
		logging.AssignmentID(assignment.ID),
		logging.ResponderID(assignment.ResponderID))

	return c.proposeNextLocked(ctx, kase)
}

// Start marks active engagement (responder arrived on site).
func (c *Coordinator) Start(ctx context.Context, caseID, responderID string) (*models.Case, error) {
	mu := c.caseLock(caseID)
	mu.Lock()
	defer mu.Unlock()

	kase, err := c.repo.GetCase(ctx, caseID)
	if err != nil {
		return nil, err
	}
	if kase.ResponderID == nil || *kase.ResponderID != responderID {
		return nil, ErrNotAssignmentHolder
	}
	if err := c.transitionLocked(ctx, kase, models.CaseStateInProgress, responderID, ""); err != nil {
		return nil, err
	}
	return c.repo.GetCase(ctx, caseID)
}

// Resolve records the outcome of an in-progress case. The note is mandatory.
func (c *Coordinator) Resolve(ctx context.Context, caseID, responderID, note string) (*models.Case, error) {
	if note == "" {
		return nil, ErrResolutionNoteRequired
	}

	mu := c.caseLock(caseID)
	mu.Lock()
	defer mu.Unlock()

	kase, err := c.repo.GetCase(ctx, caseID)
	if err != nil {
		return nil, err
	}
	if kase.ResponderID == nil || *kase.ResponderID != responderID {
		return nil, ErrNotAssignmentHolder
	}

	if err := c.completeActiveAssignmentLocked(ctx, kase, models.AssignmentCompleted, note); err != nil {
		return nil, err
	}

	now := time.Now().UTC()
	kase.ResolutionNote = note
	kase.ResolvedAt = &now
	if err := c.transitionLocked(ctx, kase, models.CaseStateResolved, responderID, note); err != nil {
		return nil, err
	}
	return c.repo.GetCase(ctx, caseID)
}

// completeActiveAssignmentLocked moves the case's active assignment to a
// terminal state. Caller holds the case lock.
func (c *Coordinator) completeActiveAssignmentLocked(ctx context.Context, kase *models.Case, terminalState, reason string) error {
	assignments, err := c.repo.ListAssignments(ctx, kase.ID)
	if err != nil {
		return err
	}
	for _, a := range assignments {
		if a.State != models.AssignmentActive {
			continue
		}
		now := time.Now().UTC()
		a.State = terminalState
		a.DecidedAt = &now
		a.Reason = reason
		if err := c.repo.UpdateAssignment(ctx, a); err != nil {
			return err
		}
		metrics.AssignmentOutcomes.WithLabelValues(terminalState).Inc()
	}
	return nil
}

// Close finishes a resolved case, either explicitly (reporter/admin) or from
// the grace-period sweep.
func (c *Coordinator) Close(ctx context.Context, caseID, actor string) (*models.Case, error) {
	mu := c.caseLock(caseID)
	mu.Lock()
	defer mu.Unlock()

	kase, err := c.repo.GetCase(ctx, caseID)
	if err != nil {
		return nil, err
	}
	if err := c.transitionLocked(ctx, kase, models.CaseStateClosed, actor, ""); err != nil {
		return nil, err
	}
	return c.repo.GetCase(ctx, caseID)
}

// Reopen is the only transition allowed to move a case backwards: closed
// returns to resolved.
func (c *Coordinator) Reopen(ctx context.Context, caseID, actor string) (*models.Case, error) {
	mu := c.caseLock(caseID)
	mu.Lock()
	defer mu.Unlock()

	kase, err := c.repo.GetCase(ctx, caseID)
	if err != nil {
		return nil, err
	}
	if err := c.transitionLocked(ctx, kase, models.CaseStateResolved, actor, "reopened"); err != nil {
		return nil, err
	}
	return c.repo.GetCase(ctx, caseID)
}

// Withdraw is the reporter cancelling their case. Honored even while a
// proposal or acknowledgment is pending: the pending proposal is revoked and
// later accept attempts fail with ErrStaleProposal.
func (c *Coordinator) Withdraw(ctx context.Context, caseID, reporterID string) (*models.Case, error) {
	mu := c.caseLock(caseID)
	mu.Lock()
	defer mu.Unlock()

	kase, err := c.repo.GetCase(ctx, caseID)
	if err != nil {
		return nil, err
	}
	if !transitionAllowed(kase.State, models.CaseStateWithdrawn) {
		return nil, ErrInvalidTransition
	}

	c.mu.Lock()
	pendingID := c.pending[caseID]
	delete(c.pending, caseID)
	delete(c.plans, caseID)
	c.mu.Unlock()

	if pendingID != "" {
		c.cancelTimer(pendingID)
		assignment, err := c.repo.GetAssignment(ctx, pendingID)
		if err == nil && assignment.Pending() {
			now := time.Now().UTC()
			assignment.State = models.AssignmentRevoked
			assignment.DecidedAt = &now
			assignment.Reason = "case withdrawn"
			if err := c.repo.UpdateAssignment(ctx, assignment); err != nil {
				return nil, err
			}
			metrics.AssignmentOutcomes.WithLabelValues(models.AssignmentRevoked).Inc()
		}
	}

	if err := c.transitionLocked(ctx, kase, models.CaseStateWithdrawn, reporterID, ""); err != nil {
		return nil, err
	}
	return c.repo.GetCase(ctx, caseID)
}

// SweepResolved auto-closes resolved cases whose grace period has elapsed.
// Called by the scheduler.
func (c *Coordinator) SweepResolved(ctx context.Context) error {
	cases, err := c.repo.ListCases(ctx, &models.ListCasesRequest{State: models.CaseStateResolved})
	if err != nil {
		return err
	}

	cutoff := time.Now().UTC().Add(-c.cfg.ResolvedGracePeriod)
	for _, kase := range cases {
		if kase.ResolvedAt == nil || kase.ResolvedAt.After(cutoff) {
			continue
		}
		if _, err := c.Close(ctx, kase.ID, "system"); err != nil {
			c.logger.Error("auto-close failed", logging.CaseID(kase.ID), logging.Error(err))
		}
	}
	return nil
}

// SweepUnassignable re-triages queued unassignable cases. Called by the
// scheduler.
func (c *Coordinator) SweepUnassignable(ctx context.Context) error {
	unassignable := true
	cases, err := c.repo.ListCases(ctx, &models.ListCasesRequest{
		State:        models.CaseStateTriaged,
		Unassignable: &unassignable,
	})
	if err != nil {
		return err
	}

	for _, kase := range cases {
		if err := c.Retriage(ctx, kase.ID); err != nil {
			c.logger.Error("re-triage failed", logging.CaseID(kase.ID), logging.Error(err))
		}
	}
	return nil
}

// transitionLocked applies one state-machine edge: validates it, records the
// history entry, persists the case, and emits the event. Caller holds the
// case lock, so the whole step is observed atomically per case.
func (c *Coordinator) transitionLocked(ctx context.Context, kase *models.Case, to, actor, reason string) error {
	if !transitionAllowed(kase.State, to) {
		return fmt.Errorf("%w: %s -> %s", ErrInvalidTransition, kase.State, to)
	}

	from := kase.State
	now := time.Now().UTC()
	kase.State = to
	kase.UpdatedAt = now

	if err := c.repo.UpdateCase(ctx, kase); err != nil {
		kase.State = from
		return err
	}
	if err := c.repo.AppendTransition(ctx, kase.ID, models.Transition{
		From: from, To: to, Actor: actor, Reason: reason, At: now,
	}); err != nil {
		return err
	}
	metrics.CaseTransitions.WithLabelValues(from, to).Inc()

	c.emitCaseEvent(ctx, kase.ID, models.EventCaseTransitioned, messaging.SubjectCasesTransitioned,
		models.CaseTransitionedPayload{
			From:         from,
			To:           to,
			Actor:        actor,
			Reason:       reason,
			Unassignable: kase.Unassignable,
		})
	return nil
}

// emitCaseEvent allocates the case's next source-stream sequence number and
// publishes the event. Emission failures are logged, never propagated: the
// store, not the bus, is the source of truth.
func (c *Coordinator) emitCaseEvent(ctx context.Context, caseID, kind, subject string, payload interface{}) {
	seq, err := c.repo.NextEventSeq(ctx, caseID)
	if err != nil {
		c.logger.Error("event seq allocation failed", logging.CaseID(caseID), logging.Error(err))
		return
	}

	event, err := events.NewEvent(caseID, kind, seq, payload)
	if err != nil {
		c.logger.Error("event build failed", logging.CaseID(caseID), logging.Error(err))
		return
	}
	if err := c.emitter.Emit(ctx, subject, event); err != nil {
		c.logger.Error("event emit failed", logging.CaseID(caseID), logging.Error(err))
	}
}

func (c *Coordinator) cancelTimer(assignmentID string) {
	c.mu.Lock()
	if t, ok := c.timers[assignmentID]; ok {
		t.Stop()
		delete(c.timers, assignmentID)
	}
	c.mu.Unlock()
}

// Shutdown stops all pending acceptance timers.
func (c *Coordinator) Shutdown() {
	c.mu.Lock()
	defer c.mu.Unlock()
	for id, t := range c.timers {
		t.Stop()
		delete(c.timers, id)
	}
}
