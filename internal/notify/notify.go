// Package notify fans case events out to notification sinks. Delivery is
// at-least-once: the bus may redeliver, so every notification carries an
// idempotency key and sinks deduplicate on it.
package notify

import (
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"github.com/strayaid-systems/strayaid/internal/models"
)

// Notification is one deliverable event. Key is stable across redeliveries of
// the same event, so a sink that saw it once can drop the retry.
type Notification struct {
	Key       string          `json:"key"`
	Kind      string          `json:"kind"`
	CaseID    string          `json:"case_id"`
	SourceSeq uint64          `json:"source_seq"`
	Timestamp time.Time       `json:"timestamp"`
	Payload   json.RawMessage `json:"payload"`
}

// FromEvent builds a notification from a bus event. The key combines case,
// kind, and source-stream seq; a redelivered event maps to the same key.
func FromEvent(e *models.Event) *Notification {
	return &Notification{
		Key:       fmt.Sprintf("%s:%s:%d", e.CaseID, e.Kind, e.SourceSeq),
		Kind:      e.Kind,
		CaseID:    e.CaseID,
		SourceSeq: e.SourceSeq,
		Timestamp: e.Timestamp,
		Payload:   e.Payload,
	}
}

// dedupCapacity bounds the per-sink seen-key set. Redeliveries arrive within
// the broker's ack window, so a bounded window is enough.
const dedupCapacity = 10000

// deduper remembers recently delivered keys per sink. FIFO eviction.
type deduper struct {
	mu    sync.Mutex
	seen  map[string]bool
	order []string
}

func newDeduper() *deduper {
	return &deduper{seen: make(map[string]bool)}
}

// observe records key and reports whether it was already seen.
func (d *deduper) observe(key string) bool {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.seen[key] {
		return true
	}
	d.seen[key] = true
	d.order = append(d.order, key)
	if len(d.order) > dedupCapacity {
		delete(d.seen, d.order[0])
		d.order = d.order[1:]
	}
	return false
}
