// Package events publishes the engine's event stream. Every case transition,
// proposal, and message append is emitted here and consumed by the
// notification fan-out and any UI.
package events

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"github.com/strayaid-systems/strayaid/internal/models"
	"github.com/strayaid-systems/strayaid/pkg/messaging"
)

// Emitter publishes events to the bus. Implementations must not block case
// mutation paths on slow consumers.
type Emitter interface {
	Emit(ctx context.Context, subject string, event *models.Event) error
}

// Publisher emits events over a messaging client (NATS in production).
type Publisher struct {
	client messaging.Publisher
}

// NewPublisher creates a bus-backed emitter.
func NewPublisher(client messaging.Publisher) *Publisher {
	return &Publisher{client: client}
}

// Emit marshals the event and publishes it on subject and on the per-case
// subject so UIs can subscribe to a single case.
func (p *Publisher) Emit(ctx context.Context, subject string, event *models.Event) error {
	data, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("marshal event: %w", err)
	}

	if err := p.client.Publish(ctx, subject, data); err != nil {
		return err
	}
	return p.client.Publish(ctx, messaging.CaseEventSubject(subject, event.CaseID), data)
}

// Noop discards events. Used when the bus is disabled and in unit tests that
// don't assert on emissions.
type Noop struct{}

func (Noop) Emit(ctx context.Context, subject string, event *models.Event) error {
	return nil
}

// NewEvent builds an envelope with the payload marshalled in place.
func NewEvent(caseID, kind string, sourceSeq uint64, payload interface{}) (*models.Event, error) {
	raw, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("marshal %s payload: %w", kind, err)
	}
	return &models.Event{
		CaseID:    caseID,
		Kind:      kind,
		Payload:   raw,
		SourceSeq: sourceSeq,
		Timestamp: time.Now().UTC(),
	}, nil
}

// Recorder is a test emitter that captures every event in order. Safe for
// concurrent use; timer-driven transitions emit from background goroutines.
type Recorder struct {
	mu     sync.Mutex
	events []RecordedEvent
}

// RecordedEvent pairs an event with the subject it went out on.
type RecordedEvent struct {
	Subject string
	Event   models.Event
}

func (r *Recorder) Emit(ctx context.Context, subject string, event *models.Event) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, RecordedEvent{Subject: subject, Event: *event})
	return nil
}

// Recorded returns a copy of everything emitted so far.
func (r *Recorder) Recorded() []RecordedEvent {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]RecordedEvent(nil), r.events...)
}
