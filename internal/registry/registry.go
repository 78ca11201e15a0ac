// Package registry maintains a read-mostly snapshot of responders fetched
// from the identity provider's directory. Triage reads snapshots; it never
// mutates them.
package registry

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/strayaid-systems/strayaid/internal/models"
	"github.com/strayaid-systems/strayaid/pkg/logging"
)

// Source fetches the current responder directory.
type Source interface {
	FetchResponders(ctx context.Context) ([]*models.Responder, error)
}

// HTTPSource fetches responders from the identity provider's directory
// endpoint.
type HTTPSource struct {
	baseURL string
	http    *http.Client
}

// NewHTTPSource creates a directory client.
func NewHTTPSource(baseURL string, timeout time.Duration) *HTTPSource {
	if timeout <= 0 {
		timeout = 5 * time.Second
	}
	return &HTTPSource{
		baseURL: baseURL,
		http:    &http.Client{Timeout: timeout},
	}
}

func (s *HTTPSource) FetchResponders(ctx context.Context) ([]*models.Responder, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, s.baseURL+"/api/v1/responders", nil)
	if err != nil {
		return nil, err
	}

	resp, err := s.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetch responders: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("responder directory returned %d", resp.StatusCode)
	}

	var out []*models.Responder
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return nil, fmt.Errorf("decode responders: %w", err)
	}
	return out, nil
}

// Registry holds the latest responder snapshot. A stale or empty snapshot is
// tolerated: triage over it yields empty candidate lists, not errors.
type Registry struct {
	mu        sync.RWMutex
	snapshot  []*models.Responder
	refreshed time.Time

	source   Source
	interval time.Duration
	logger   *logging.Logger
	stop     chan struct{}
	stopped  chan struct{}
}

// New creates a registry refreshing from source every interval.
func New(source Source, interval time.Duration, logger *logging.Logger) *Registry {
	return &Registry{
		source:   source,
		interval: interval,
		logger:   logger,
		stop:     make(chan struct{}),
		stopped:  make(chan struct{}),
	}
}

// Snapshot returns the current responder set. The returned slice must be
// treated as read-only.
func (r *Registry) Snapshot() []*models.Responder {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.snapshot
}

// SetSnapshot replaces the snapshot directly. Used in tests and by embedded
// deployments without a directory endpoint.
func (r *Registry) SetSnapshot(responders []*models.Responder) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.snapshot = responders
	r.refreshed = time.Now()
}

// Refresh fetches the directory once. Failures keep the previous snapshot.
func (r *Registry) Refresh(ctx context.Context) error {
	if r.source == nil {
		return nil
	}

	responders, err := r.source.FetchResponders(ctx)
	if err != nil {
		return err
	}

	r.mu.Lock()
	r.snapshot = responders
	r.refreshed = time.Now()
	r.mu.Unlock()
	return nil
}

// Start begins the periodic refresh loop. This should be called in a goroutine.
func (r *Registry) Start(ctx context.Context) {
	defer close(r.stopped)

	ticker := time.NewTicker(r.interval)
	defer ticker.Stop()

	// Refresh immediately on start
	if err := r.Refresh(ctx); err != nil && r.logger != nil {
		r.logger.Warn("initial responder refresh failed", logging.Error(err))
	}

	for {
		select {
		case <-ticker.C:
			if err := r.Refresh(ctx); err != nil && r.logger != nil {
				r.logger.Warn("responder refresh failed", logging.Error(err))
			}
		case <-r.stop:
			return
		case <-ctx.Done():
			return
		}
	}
}

// Stop signals the refresh loop to stop and waits for it to finish.
func (r *Registry) Stop() {
	close(r.stop)
	<-r.stopped
}
