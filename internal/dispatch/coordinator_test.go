package dispatch

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/strayaid-systems/strayaid/internal/events"
	"github.com/strayaid-systems/strayaid/internal/models"
	"github.com/strayaid-systems/strayaid/internal/registry"
	"github.com/strayaid-systems/strayaid/internal/repository"
)

func testResponder(id string, lat, lon float64) *models.Responder {
	return &models.Responder{
		ID:        id,
		Role:      models.RoleNGO,
		Available: true,
		ServiceAreas: []models.ServiceArea{
			{Latitude: lat, Longitude: lon, RadiusKm: 25},
		},
	}
}

func testReport() *models.Report {
	return &models.Report{
		ReporterID:  "citizen-1",
		Description: "dog limping near the market",
		Condition:   models.ConditionStray,
		Urgency:     models.UrgencyHigh,
		Location:    models.Location{Latitude: 28.61, Longitude: 77.21, Known: true},
		ReportedAt:  time.Now().UTC(),
	}
}

type fixture struct {
	coordinator *Coordinator
	repo        *repository.InMemoryRepository
	recorder    *events.Recorder
	registry    *registry.Registry
}

func newFixture(t *testing.T, cfg Config, responders ...*models.Responder) *fixture {
	t.Helper()

	repo := repository.NewInMemoryRepository()
	recorder := &events.Recorder{}
	reg := registry.New(nil, time.Minute, nil)
	reg.SetSnapshot(responders)

	c := NewCoordinator(repo, reg, recorder, nil, cfg)
	t.Cleanup(c.Shutdown)

	return &fixture{coordinator: c, repo: repo, recorder: recorder, registry: reg}
}

func defaultTestConfig() Config {
	return Config{
		AcceptanceWindow:    time.Minute,
		MaxReassignments:    3,
		ResolvedGracePeriod: 24 * time.Hour,
	}
}

func pendingAssignment(t *testing.T, f *fixture, caseID string) *models.Assignment {
	t.Helper()
	assignments, err := f.repo.ListAssignments(context.Background(), caseID)
	require.NoError(t, err)
	for _, a := range assignments {
		if a.Pending() {
			return a
		}
	}
	t.Fatalf("no pending assignment on case %s", caseID)
	return nil
}

func TestSubmitReportProposesNearestResponder(t *testing.T) {
	f := newFixture(t, defaultTestConfig(),
		testResponder("ngo-far", 28.70, 77.30),
		testResponder("ngo-near", 28.615, 77.215),
	)
	ctx := context.Background()

	kase, err := f.coordinator.SubmitReport(ctx, testReport())
	require.NoError(t, err)

	assert.Equal(t, models.CaseStateAssigned, kase.State)
	assert.NotEmpty(t, kase.Ref)
	assert.False(t, kase.Unassignable)

	assignment := pendingAssignment(t, f, kase.ID)
	assert.Equal(t, "ngo-near", assignment.ResponderID)

	// History: reported -> triaged -> assigned.
	history, err := f.repo.ListTransitions(ctx, kase.ID)
	require.NoError(t, err)
	require.Len(t, history, 3)
	assert.Equal(t, models.CaseStateReported, history[0].To)
	assert.Equal(t, models.CaseStateTriaged, history[1].To)
	assert.Equal(t, models.CaseStateAssigned, history[2].To)
}

func TestSubmitReportEmitsOrderedEvents(t *testing.T) {
	f := newFixture(t, defaultTestConfig(), testResponder("ngo-1", 28.61, 77.21))

	kase, err := f.coordinator.SubmitReport(context.Background(), testReport())
	require.NoError(t, err)

	recorded := f.recorder.Recorded()
	var kinds []string
	var lastSeq uint64
	for _, r := range recorded {
		kinds = append(kinds, r.Event.Kind)
		assert.Equal(t, kase.ID, r.Event.CaseID)
		assert.Greater(t, r.Event.SourceSeq, lastSeq, "per-case event seq is strictly increasing")
		lastSeq = r.Event.SourceSeq
	}
	assert.Equal(t, []string{
		models.EventCaseCreated,
		models.EventCaseTransitioned,
		models.EventCaseTransitioned,
		models.EventAssignmentProposed,
	}, kinds)
}

func TestSubmitReportUnassignable(t *testing.T) {
	f := newFixture(t, defaultTestConfig()) // no responders

	kase, err := f.coordinator.SubmitReport(context.Background(), testReport())
	require.NoError(t, err)

	assert.Equal(t, models.CaseStateTriaged, kase.State)
	assert.True(t, kase.Unassignable)
}

func TestAcceptMovesCaseToAcknowledged(t *testing.T) {
	f := newFixture(t, defaultTestConfig(), testResponder("ngo-1", 28.61, 77.21))
	ctx := context.Background()

	kase, err := f.coordinator.SubmitReport(ctx, testReport())
	require.NoError(t, err)
	assignment := pendingAssignment(t, f, kase.ID)

	kase, err = f.coordinator.Accept(ctx, assignment.ID, "ngo-1")
	require.NoError(t, err)

	assert.Equal(t, models.CaseStateAcknowledged, kase.State)
	require.NotNil(t, kase.ResponderID)
	assert.Equal(t, "ngo-1", *kase.ResponderID)

	got, err := f.repo.GetAssignment(ctx, assignment.ID)
	require.NoError(t, err)
	assert.Equal(t, models.AssignmentActive, got.State)

	// Second accept on the same proposal loses.
	_, err = f.coordinator.Accept(ctx, assignment.ID, "ngo-1")
	assert.ErrorIs(t, err, ErrProposalConflict)
}

func TestConcurrentAcceptSingleWinner(t *testing.T) {
	f := newFixture(t, defaultTestConfig(), testResponder("ngo-1", 28.61, 77.21))
	ctx := context.Background()

	kase, err := f.coordinator.SubmitReport(ctx, testReport())
	require.NoError(t, err)
	assignment := pendingAssignment(t, f, kase.ID)

	const attempts = 16
	var wg sync.WaitGroup
	errs := make([]error, attempts)
	for i := 0; i < attempts; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, errs[i] = f.coordinator.Accept(ctx, assignment.ID, "ngo-1")
		}(i)
	}
	wg.Wait()

	wins := 0
	for _, err := range errs {
		if err == nil {
			wins++
		} else {
			assert.ErrorIs(t, err, ErrProposalConflict)
		}
	}
	assert.Equal(t, 1, wins, "exactly one accept wins")
}

func TestDeclineAdvancesToNextCandidate(t *testing.T) {
	f := newFixture(t, defaultTestConfig(),
		testResponder("ngo-near", 28.615, 77.215),
		testResponder("ngo-far", 28.70, 77.30),
	)
	ctx := context.Background()

	kase, err := f.coordinator.SubmitReport(ctx, testReport())
	require.NoError(t, err)

	first := pendingAssignment(t, f, kase.ID)
	require.Equal(t, "ngo-near", first.ResponderID)

	require.NoError(t, f.coordinator.Decline(ctx, first.ID, "ngo-near", "busy"))

	second := pendingAssignment(t, f, kase.ID)
	assert.Equal(t, "ngo-far", second.ResponderID, "no repeat within the same triage cycle")

	kase, err = f.repo.GetCase(ctx, kase.ID)
	require.NoError(t, err)
	assert.Equal(t, models.CaseStateAssigned, kase.State)
	assert.Equal(t, 1, kase.ReassignCount)
}

func TestDeclineByWrongResponder(t *testing.T) {
	f := newFixture(t, defaultTestConfig(), testResponder("ngo-1", 28.61, 77.21))
	ctx := context.Background()

	kase, err := f.coordinator.SubmitReport(ctx, testReport())
	require.NoError(t, err)
	assignment := pendingAssignment(t, f, kase.ID)

	err = f.coordinator.Decline(ctx, assignment.ID, "ngo-other", "not mine")
	assert.ErrorIs(t, err, ErrNotAssignmentHolder)
}

func TestReassignmentBudgetExhaustion(t *testing.T) {
	cfg := defaultTestConfig()
	cfg.MaxReassignments = 2

	f := newFixture(t, cfg,
		testResponder("ngo-1", 28.61, 77.21),
		testResponder("ngo-2", 28.62, 77.22),
		testResponder("ngo-3", 28.63, 77.23),
	)
	ctx := context.Background()

	kase, err := f.coordinator.SubmitReport(ctx, testReport())
	require.NoError(t, err)

	for i := 0; i < 2; i++ {
		a := pendingAssignment(t, f, kase.ID)
		require.NoError(t, f.coordinator.Decline(ctx, a.ID, a.ResponderID, "busy"))
	}

	kase, err = f.repo.GetCase(ctx, kase.ID)
	require.NoError(t, err)
	assert.Equal(t, models.CaseStateTriaged, kase.State)
	assert.True(t, kase.Unassignable, "budget exhausted, no further proposals")

	assignments, err := f.repo.ListAssignments(ctx, kase.ID)
	require.NoError(t, err)
	for _, a := range assignments {
		assert.False(t, a.Pending())
	}
}

func TestAcceptanceWindowExpiryAdvances(t *testing.T) {
	cfg := defaultTestConfig()
	cfg.AcceptanceWindow = 30 * time.Millisecond

	f := newFixture(t, cfg,
		testResponder("ngo-slow", 28.615, 77.215),
		testResponder("ngo-next", 28.70, 77.30),
	)
	ctx := context.Background()

	kase, err := f.coordinator.SubmitReport(ctx, testReport())
	require.NoError(t, err)
	first := pendingAssignment(t, f, kase.ID)
	require.Equal(t, "ngo-slow", first.ResponderID)

	require.Eventually(t, func() bool {
		a, err := f.repo.GetAssignment(ctx, first.ID)
		return err == nil && a.State == models.AssignmentExpired
	}, time.Second, 10*time.Millisecond, "proposal expires after the acceptance window")

	require.Eventually(t, func() bool {
		assignments, err := f.repo.ListAssignments(ctx, kase.ID)
		if err != nil {
			return false
		}
		for _, a := range assignments {
			if a.Pending() && a.ResponderID == "ngo-next" {
				return true
			}
		}
		return false
	}, time.Second, 10*time.Millisecond, "timeout recovers through the decline path")

	// The expired responder can no longer accept.
	_, err = f.coordinator.Accept(ctx, first.ID, "ngo-slow")
	assert.ErrorIs(t, err, ErrProposalConflict)
}

func TestWithdrawRevokesPendingProposal(t *testing.T) {
	f := newFixture(t, defaultTestConfig(), testResponder("ngo-1", 28.61, 77.21))
	ctx := context.Background()

	kase, err := f.coordinator.SubmitReport(ctx, testReport())
	require.NoError(t, err)
	assignment := pendingAssignment(t, f, kase.ID)

	kase, err = f.coordinator.Withdraw(ctx, kase.ID, "citizen-1")
	require.NoError(t, err)
	assert.Equal(t, models.CaseStateWithdrawn, kase.State)

	got, err := f.repo.GetAssignment(ctx, assignment.ID)
	require.NoError(t, err)
	assert.Equal(t, models.AssignmentRevoked, got.State)

	// Accept after withdrawal names the reason it lost.
	_, err = f.coordinator.Accept(ctx, assignment.ID, "ngo-1")
	assert.ErrorIs(t, err, ErrStaleProposal)
}

func TestWithdrawTerminal(t *testing.T) {
	f := newFixture(t, defaultTestConfig())
	ctx := context.Background()

	kase, err := f.coordinator.SubmitReport(ctx, testReport())
	require.NoError(t, err)

	_, err = f.coordinator.Withdraw(ctx, kase.ID, "citizen-1")
	require.NoError(t, err)

	// No transitions leave withdrawn.
	_, err = f.coordinator.Withdraw(ctx, kase.ID, "citizen-1")
	assert.ErrorIs(t, err, ErrInvalidTransition)
	_, err = f.coordinator.Reopen(ctx, kase.ID, "citizen-1")
	assert.ErrorIs(t, err, ErrInvalidTransition)
}

func acceptedCase(t *testing.T, f *fixture) *models.Case {
	t.Helper()
	ctx := context.Background()

	kase, err := f.coordinator.SubmitReport(ctx, testReport())
	require.NoError(t, err)
	assignment := pendingAssignment(t, f, kase.ID)
	kase, err = f.coordinator.Accept(ctx, assignment.ID, assignment.ResponderID)
	require.NoError(t, err)
	return kase
}

func TestResolveLifecycle(t *testing.T) {
	f := newFixture(t, defaultTestConfig(), testResponder("ngo-1", 28.61, 77.21))
	ctx := context.Background()

	kase := acceptedCase(t, f)

	kase, err := f.coordinator.Start(ctx, kase.ID, "ngo-1")
	require.NoError(t, err)
	assert.Equal(t, models.CaseStateInProgress, kase.State)

	// Note is mandatory.
	_, err = f.coordinator.Resolve(ctx, kase.ID, "ngo-1", "")
	assert.ErrorIs(t, err, ErrResolutionNoteRequired)

	kase, err = f.coordinator.Resolve(ctx, kase.ID, "ngo-1", "reunited with owner")
	require.NoError(t, err)
	assert.Equal(t, models.CaseStateResolved, kase.State)
	assert.Equal(t, "reunited with owner", kase.ResolutionNote)
	require.NotNil(t, kase.ResolvedAt)

	assignments, err := f.repo.ListAssignments(ctx, kase.ID)
	require.NoError(t, err)
	require.Len(t, assignments, 1)
	assert.Equal(t, models.AssignmentCompleted, assignments[0].State)

	kase, err = f.coordinator.Close(ctx, kase.ID, "citizen-1")
	require.NoError(t, err)
	assert.Equal(t, models.CaseStateClosed, kase.State)

	// Reopen is the only backwards edge.
	kase, err = f.coordinator.Reopen(ctx, kase.ID, "citizen-1")
	require.NoError(t, err)
	assert.Equal(t, models.CaseStateResolved, kase.State)
}

func TestResolveByNonHolder(t *testing.T) {
	f := newFixture(t, defaultTestConfig(), testResponder("ngo-1", 28.61, 77.21))
	ctx := context.Background()

	kase := acceptedCase(t, f)
	_, err := f.coordinator.Start(ctx, kase.ID, "ngo-1")
	require.NoError(t, err)

	_, err = f.coordinator.Resolve(ctx, kase.ID, "ngo-impostor", "done")
	assert.ErrorIs(t, err, ErrNotAssignmentHolder)
}

func TestInvalidTransitionRejected(t *testing.T) {
	f := newFixture(t, defaultTestConfig(), testResponder("ngo-1", 28.61, 77.21))
	ctx := context.Background()

	kase := acceptedCase(t, f)

	// Cannot close an acknowledged case.
	_, err := f.coordinator.Close(ctx, kase.ID, "citizen-1")
	assert.ErrorIs(t, err, ErrInvalidTransition)

	// Cannot resolve before starting.
	_, err = f.coordinator.Resolve(ctx, kase.ID, "ngo-1", "done")
	assert.ErrorIs(t, err, ErrInvalidTransition)
}

func TestRetriageRecoversUnassignableCase(t *testing.T) {
	f := newFixture(t, defaultTestConfig()) // nobody available yet
	ctx := context.Background()

	kase, err := f.coordinator.SubmitReport(ctx, testReport())
	require.NoError(t, err)
	require.True(t, kase.Unassignable)

	// A responder comes online; the sweep picks the case back up.
	f.registry.SetSnapshot([]*models.Responder{testResponder("ngo-1", 28.61, 77.21)})
	require.NoError(t, f.coordinator.SweepUnassignable(ctx))

	kase, err = f.repo.GetCase(ctx, kase.ID)
	require.NoError(t, err)
	assert.Equal(t, models.CaseStateAssigned, kase.State)
	assert.False(t, kase.Unassignable)
	assert.Equal(t, 0, kase.ReassignCount, "re-triage starts a fresh cycle")
}

func TestSweepResolvedAutoCloses(t *testing.T) {
	cfg := defaultTestConfig()
	cfg.ResolvedGracePeriod = 0

	f := newFixture(t, cfg, testResponder("ngo-1", 28.61, 77.21))
	ctx := context.Background()

	kase := acceptedCase(t, f)
	_, err := f.coordinator.Start(ctx, kase.ID, "ngo-1")
	require.NoError(t, err)
	_, err = f.coordinator.Resolve(ctx, kase.ID, "ngo-1", "treated and released")
	require.NoError(t, err)

	require.NoError(t, f.coordinator.SweepResolved(ctx))

	kase, err = f.repo.GetCase(ctx, kase.ID)
	require.NoError(t, err)
	assert.Equal(t, models.CaseStateClosed, kase.State)
}
