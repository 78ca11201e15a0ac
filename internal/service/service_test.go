package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/strayaid-systems/strayaid/internal/conversation"
	"github.com/strayaid-systems/strayaid/internal/dispatch"
	"github.com/strayaid-systems/strayaid/internal/geo"
	"github.com/strayaid-systems/strayaid/internal/models"
	"github.com/strayaid-systems/strayaid/internal/registry"
	"github.com/strayaid-systems/strayaid/internal/repository"
)

type stubGeocoder struct {
	coords *geo.Coordinates
	err    error
}

func (s *stubGeocoder) Resolve(ctx context.Context, address string) (*geo.Coordinates, error) {
	return s.coords, s.err
}

func newService(t *testing.T, geocoder geo.Resolver, responders ...*models.Responder) (*Service, *repository.InMemoryRepository) {
	t.Helper()

	repo := repository.NewInMemoryRepository()
	reg := registry.New(nil, time.Minute, nil)
	reg.SetSnapshot(responders)

	coordinator := dispatch.NewCoordinator(repo, reg, nil, nil, dispatch.Config{
		AcceptanceWindow:    time.Minute,
		MaxReassignments:    3,
		ResolvedGracePeriod: 24 * time.Hour,
	})
	t.Cleanup(coordinator.Shutdown)

	threads := conversation.NewEngine(repo, nil, nil, nil)
	return New(repo, coordinator, threads, geocoder, nil), repo
}

func coordReport() *models.SubmitReportRequest {
	lat, lon := 28.61, 77.21
	return &models.SubmitReportRequest{
		Description: "dog stuck in a drain",
		Condition:   models.ConditionTrapped,
		Urgency:     models.UrgencyHigh,
		Latitude:    &lat,
		Longitude:   &lon,
	}
}

func TestSubmitReportValidation(t *testing.T) {
	svc, _ := newService(t, nil)
	ctx := context.Background()

	cases := []struct {
		name   string
		mutate func(*models.SubmitReportRequest)
	}{
		{"empty description", func(r *models.SubmitReportRequest) { r.Description = "  " }},
		{"unknown condition", func(r *models.SubmitReportRequest) { r.Condition = "sleepy" }},
		{"unknown urgency", func(r *models.SubmitReportRequest) { r.Urgency = "mild" }},
		{"too many photos", func(r *models.SubmitReportRequest) {
			r.Photos = []string{"a", "b", "c", "d", "e", "f"}
		}},
		{"latitude without longitude", func(r *models.SubmitReportRequest) { r.Longitude = nil }},
		{"coordinates out of range", func(r *models.SubmitReportRequest) {
			bad := 91.0
			r.Latitude = &bad
		}},
		{"no location at all", func(r *models.SubmitReportRequest) {
			r.Latitude = nil
			r.Longitude = nil
			r.Address = ""
		}},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			req := coordReport()
			tc.mutate(req)
			_, err := svc.SubmitReport(ctx, "citizen-1", req)
			assert.ErrorIs(t, err, ErrValidation)
		})
	}
}

func TestSubmitReportGeocodesAddress(t *testing.T) {
	geocoder := &stubGeocoder{coords: &geo.Coordinates{Latitude: 28.61, Longitude: 77.21}}
	svc, repo := newService(t, geocoder)
	ctx := context.Background()

	req := coordReport()
	req.Latitude, req.Longitude = nil, nil
	req.Address = "behind the flower market"

	kase, err := svc.SubmitReport(ctx, "citizen-1", req)
	require.NoError(t, err)

	stored, err := repo.GetCase(ctx, kase.ID)
	require.NoError(t, err)
	assert.True(t, stored.Location.Known)
	assert.InDelta(t, 28.61, stored.Location.Latitude, 0.001)
	assert.Equal(t, "behind the flower market", stored.Location.Address)
}

func TestSubmitReportGeocodingFailureDegrades(t *testing.T) {
	geocoder := &stubGeocoder{err: errors.New("service down")}
	svc, repo := newService(t, geocoder)
	ctx := context.Background()

	req := coordReport()
	req.Latitude, req.Longitude = nil, nil
	req.Address = "behind the flower market"

	kase, err := svc.SubmitReport(ctx, "citizen-1", req)
	require.NoError(t, err, "geocoding failure never blocks a report")

	stored, err := repo.GetCase(ctx, kase.ID)
	require.NoError(t, err)
	assert.False(t, stored.Location.Known)
}

func TestGetCaseByRefDelegation(t *testing.T) {
	svc, _ := newService(t, nil)
	ctx := context.Background()

	kase, err := svc.SubmitReport(ctx, "citizen-1", coordReport())
	require.NoError(t, err)

	byRef, err := svc.GetCase(ctx, kase.Ref)
	require.NoError(t, err)
	assert.Equal(t, kase.ID, byRef.ID)

	byID, err := svc.GetCase(ctx, kase.ID)
	require.NoError(t, err)
	assert.Equal(t, kase.Ref, byID.Ref)
}

func TestAcceptWithoutAnyAssignment(t *testing.T) {
	svc, _ := newService(t, nil) // unassignable, no proposals ever
	ctx := context.Background()

	kase, err := svc.SubmitReport(ctx, "citizen-1", coordReport())
	require.NoError(t, err)

	_, err = svc.Accept(ctx, kase.ID, "ngo-1")
	assert.ErrorIs(t, err, ErrNoPendingProposal)
}

func TestWithdrawOnlyByReporter(t *testing.T) {
	svc, _ := newService(t, nil)
	ctx := context.Background()

	kase, err := svc.SubmitReport(ctx, "citizen-1", coordReport())
	require.NoError(t, err)

	_, err = svc.Withdraw(ctx, kase.ID, "citizen-2")
	assert.ErrorIs(t, err, ErrValidation)

	withdrawn, err := svc.Withdraw(ctx, kase.ID, "citizen-1")
	require.NoError(t, err)
	assert.Equal(t, models.CaseStateWithdrawn, withdrawn.State)
}
