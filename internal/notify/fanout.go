package notify

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"

	"github.com/strayaid-systems/strayaid/internal/metrics"
	"github.com/strayaid-systems/strayaid/internal/models"
	"github.com/strayaid-systems/strayaid/pkg/logging"
	"github.com/strayaid-systems/strayaid/pkg/messaging"
)

// fanoutSubjects are the event subjects the fan-out consumes. Per-case
// subjects are for UI subscribers, not for notification workers.
var fanoutSubjects = []string{
	messaging.SubjectCasesCreated,
	messaging.SubjectCasesTransitioned,
	messaging.SubjectAssignmentsProposed,
	messaging.SubjectMessagesAppended,
}

// Fanout consumes case events from the bus and delivers them to every
// interested sink. Workers join a queue group, so a pool of fan-out processes
// shares the stream with each event handled once per group (plus broker
// redeliveries, which the per-sink dedup absorbs).
type Fanout struct {
	subscriber messaging.Subscriber
	sinks      []Sink
	logger     *logging.Logger

	mu     sync.Mutex
	subs   []messaging.Subscription
	dedups map[string]*deduper // sink name -> seen keys
}

// NewFanout creates a notification fan-out over the given sinks.
func NewFanout(subscriber messaging.Subscriber, sinks []Sink, logger *logging.Logger) *Fanout {
	if logger == nil {
		logger = logging.Default()
	}
	dedups := make(map[string]*deduper, len(sinks))
	for _, s := range sinks {
		dedups[s.Name()] = newDeduper()
	}
	return &Fanout{
		subscriber: subscriber,
		sinks:      sinks,
		logger:     logger,
		dedups:     dedups,
	}
}

// Start subscribes to the event subjects. Returns after subscriptions are
// established; handling happens on the bus client's goroutines.
func (f *Fanout) Start() error {
	f.mu.Lock()
	defer f.mu.Unlock()

	for _, subject := range fanoutSubjects {
		sub, err := f.subscriber.QueueSubscribe(subject, messaging.QueueNotifyWorkers, f.handle)
		if err != nil {
			return fmt.Errorf("subscribe %s: %w", subject, err)
		}
		f.subs = append(f.subs, sub)
	}

	f.logger.Info("notification fan-out started",
		logging.Component("notify"),
		"subjects", len(fanoutSubjects),
		"sinks", len(f.sinks))
	return nil
}

// Stop unsubscribes from all subjects.
func (f *Fanout) Stop() {
	f.mu.Lock()
	defer f.mu.Unlock()

	for _, sub := range f.subs {
		if err := sub.Unsubscribe(); err != nil {
			f.logger.Warn("unsubscribe failed", "subject", sub.Subject(), logging.Error(err))
		}
	}
	f.subs = nil
}

// handle processes one bus message. Returning an error leaves the message
// unacked for redelivery; sinks that already delivered will dedup the retry.
func (f *Fanout) handle(ctx context.Context, msg *messaging.Message) error {
	var event models.Event
	if err := json.Unmarshal(msg.Data, &event); err != nil {
		// Malformed payloads never become deliverable; drop, don't retry.
		f.logger.Error("malformed event dropped", "subject", msg.Subject, logging.Error(err))
		return nil
	}

	return f.Dispatch(ctx, &event)
}

// Dispatch delivers one event to every sink that wants its kind. All sinks
// are attempted; a single failure causes a redelivery that only the failed
// sinks will act on.
func (f *Fanout) Dispatch(ctx context.Context, event *models.Event) error {
	n := FromEvent(event)

	var firstErr error
	for _, sink := range f.sinks {
		if !sink.Wants(n.Kind) {
			continue
		}
		if f.dedups[sink.Name()].observe(n.Key) {
			continue
		}

		if err := sink.Deliver(ctx, n); err != nil {
			metrics.NotificationDeliveries.WithLabelValues(sink.Name(), "error").Inc()
			f.logger.Warn("sink delivery failed",
				"sink", sink.Name(),
				logging.CaseID(n.CaseID),
				logging.Seq(n.SourceSeq),
				logging.Error(err))
			f.forget(sink.Name(), n.Key)
			if firstErr == nil {
				firstErr = err
			}
			continue
		}
		metrics.NotificationDeliveries.WithLabelValues(sink.Name(), "ok").Inc()
	}
	return firstErr
}

// forget clears a key after a failed delivery so the redelivery is not
// swallowed by the dedup window.
func (f *Fanout) forget(sinkName, key string) {
	d := f.dedups[sinkName]
	d.mu.Lock()
	delete(d.seen, key)
	d.mu.Unlock()
}
