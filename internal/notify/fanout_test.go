package notify

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/strayaid-systems/strayaid/internal/models"
)

type captureSink struct {
	name string
	fail int // fail the first n deliveries

	mu        sync.Mutex
	delivered []string
}

func (s *captureSink) Name() string           { return s.name }
func (s *captureSink) Wants(kind string) bool { return true }

func (s *captureSink) Deliver(ctx context.Context, n *Notification) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.fail > 0 {
		s.fail--
		return errors.New("sink unavailable")
	}
	s.delivered = append(s.delivered, n.Key)
	return nil
}

func (s *captureSink) keys() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]string(nil), s.delivered...)
}

func testEvent(seq uint64) *models.Event {
	return &models.Event{
		CaseID:    "case-1",
		Kind:      models.EventCaseTransitioned,
		SourceSeq: seq,
		Timestamp: time.Now().UTC(),
	}
}

func TestDispatchDedupsRedelivery(t *testing.T) {
	sink := &captureSink{name: "capture"}
	f := NewFanout(nil, []Sink{sink}, nil)
	ctx := context.Background()

	event := testEvent(1)
	require.NoError(t, f.Dispatch(ctx, event))
	require.NoError(t, f.Dispatch(ctx, event), "redelivery is absorbed")
	require.NoError(t, f.Dispatch(ctx, testEvent(2)))

	assert.Equal(t, []string{
		"case-1:CaseTransitioned:1",
		"case-1:CaseTransitioned:2",
	}, sink.keys())
}

func TestDispatchRetriesFailedSinkOnly(t *testing.T) {
	healthy := &captureSink{name: "healthy"}
	flaky := &captureSink{name: "flaky", fail: 1}
	f := NewFanout(nil, []Sink{healthy, flaky}, nil)
	ctx := context.Background()

	event := testEvent(1)
	err := f.Dispatch(ctx, event)
	require.Error(t, err, "failure propagates so the bus redelivers")

	// Redelivery: the healthy sink dedups, the flaky one catches up.
	require.NoError(t, f.Dispatch(ctx, event))

	assert.Len(t, healthy.keys(), 1, "healthy sink delivered exactly once")
	assert.Len(t, flaky.keys(), 1)
}

func TestDeduperEviction(t *testing.T) {
	d := newDeduper()
	for i := 0; i < dedupCapacity+10; i++ {
		assert.False(t, d.observe(fmt.Sprintf("key-%d", i)))
	}
	// Oldest keys fell out of the window.
	assert.False(t, d.observe("key-0"))
	// Recent keys are still remembered.
	assert.True(t, d.observe(fmt.Sprintf("key-%d", dedupCapacity+9)))
}

func TestWebhookSinkCarriesIdempotencyKey(t *testing.T) {
	var gotKey string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotKey = r.Header.Get("X-Idempotency-Key")
		w.WriteHeader(http.StatusAccepted)
	}))
	defer srv.Close()

	sink := NewWebhookSink("hook", srv.URL, time.Second, nil)
	n := FromEvent(testEvent(42))
	require.NoError(t, sink.Deliver(context.Background(), n))
	assert.Equal(t, "case-1:CaseTransitioned:42", gotKey)
}

func TestWebhookSinkErrorStatus(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer srv.Close()

	sink := NewWebhookSink("hook", srv.URL, time.Second, nil)
	err := sink.Deliver(context.Background(), FromEvent(testEvent(1)))
	assert.Error(t, err)
}

func TestLoadSinks(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "sinks.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
sinks:
  - name: audit
    type: log
  - name: pager
    type: webhook
    url: https://hooks.example.org/strayaid
    timeout: 5s
    events:
      - AssignmentProposed
      - CaseTransitioned
`), 0o644))

	sinks, err := LoadSinks(path, nil)
	require.NoError(t, err)
	require.Len(t, sinks, 2)

	assert.Equal(t, "audit", sinks[0].Name())
	assert.True(t, sinks[0].Wants(models.EventMessageAppended))

	assert.Equal(t, "pager", sinks[1].Name())
	assert.True(t, sinks[1].Wants(models.EventAssignmentProposed))
	assert.False(t, sinks[1].Wants(models.EventMessageAppended))
}

func TestLoadSinksRejectsBadConfig(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "sinks.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
sinks:
  - name: broken
    type: webhook
`), 0o644))

	_, err := LoadSinks(path, nil)
	assert.Error(t, err)
}
