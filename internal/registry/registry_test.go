package registry

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/strayaid-systems/strayaid/internal/models"
)

func directoryServer(t *testing.T, responders []*models.Responder, fail *atomic.Bool) *httptest.Server {
	t.Helper()
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if fail != nil && fail.Load() {
			w.WriteHeader(http.StatusInternalServerError)
			return
		}
		assert.Equal(t, "/api/v1/responders", r.URL.Path)
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(responders)
	}))
}

func TestRefresh(t *testing.T) {
	responders := []*models.Responder{
		{ID: "ngo-1", Role: models.RoleNGO, Available: true},
		{ID: "vet-1", Role: models.RoleVeterinarian, Available: true},
	}
	srv := directoryServer(t, responders, nil)
	defer srv.Close()

	reg := New(NewHTTPSource(srv.URL, time.Second), time.Minute, nil)
	require.Empty(t, reg.Snapshot())

	require.NoError(t, reg.Refresh(context.Background()))
	snapshot := reg.Snapshot()
	require.Len(t, snapshot, 2)
	assert.Equal(t, "ngo-1", snapshot[0].ID)
}

func TestRefreshFailureKeepsSnapshot(t *testing.T) {
	var fail atomic.Bool
	responders := []*models.Responder{{ID: "ngo-1", Role: models.RoleNGO, Available: true}}
	srv := directoryServer(t, responders, &fail)
	defer srv.Close()

	reg := New(NewHTTPSource(srv.URL, time.Second), time.Minute, nil)
	require.NoError(t, reg.Refresh(context.Background()))
	require.Len(t, reg.Snapshot(), 1)

	fail.Store(true)
	assert.Error(t, reg.Refresh(context.Background()))
	assert.Len(t, reg.Snapshot(), 1, "a failed refresh keeps the previous snapshot")
}

func TestStartStop(t *testing.T) {
	responders := []*models.Responder{{ID: "ngo-1", Role: models.RoleNGO, Available: true}}
	srv := directoryServer(t, responders, nil)
	defer srv.Close()

	reg := New(NewHTTPSource(srv.URL, time.Second), 10*time.Millisecond, nil)
	go reg.Start(context.Background())

	require.Eventually(t, func() bool {
		return len(reg.Snapshot()) == 1
	}, time.Second, 5*time.Millisecond)

	reg.Stop()
}
