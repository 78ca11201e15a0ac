// Package conversation manages per-case message threads. Sequence numbers are
// server-assigned, strictly increasing and gapless per thread; clients order
// and deduplicate by seq alone, never by timestamp.
package conversation

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/strayaid-systems/strayaid/internal/events"
	"github.com/strayaid-systems/strayaid/internal/metrics"
	"github.com/strayaid-systems/strayaid/internal/models"
	"github.com/strayaid-systems/strayaid/internal/repository"
	"github.com/strayaid-systems/strayaid/pkg/logging"
	"github.com/strayaid-systems/strayaid/pkg/messaging"
)

var (
	// ErrThreadClosed rejects appends to threads of withdrawn or closed cases.
	ErrThreadClosed = errors.New("thread is read-only")

	// ErrNotParticipant rejects senders who are neither the reporter nor a
	// responder who has held an assignment on the case.
	ErrNotParticipant = errors.New("sender is not a thread participant")

	// ErrInvalidMessage rejects malformed appends before a seq is assigned.
	ErrInvalidMessage = errors.New("invalid message")
)

// appendRetries bounds re-reads of LastSeq when the storage unique key trips.
// The per-thread lock makes this unreachable in a single process; it guards
// against a second engine instance writing the same thread.
const appendRetries = 3

// Engine serializes appends per thread and assigns sequence numbers. Reads
// are lock-free and restartable from any seq.
type Engine struct {
	repo    repository.Repository
	reads   ReadState
	emitter events.Emitter
	logger  *logging.Logger

	locks sync.Map // thread ID -> *sync.Mutex
}

// NewEngine creates a conversation engine. reads may be nil, disabling
// read-state tracking.
func NewEngine(repo repository.Repository, reads ReadState, emitter events.Emitter, logger *logging.Logger) *Engine {
	if emitter == nil {
		emitter = events.Noop{}
	}
	if logger == nil {
		logger = logging.Default()
	}
	return &Engine{repo: repo, reads: reads, emitter: emitter, logger: logger}
}

func (e *Engine) threadLock(threadID string) *sync.Mutex {
	mu, _ := e.locks.LoadOrStore(threadID, &sync.Mutex{})
	return mu.(*sync.Mutex)
}

// Append adds one message to a case's thread and returns it with its assigned
// seq. The thread ID is the case ID.
func (e *Engine) Append(ctx context.Context, threadID, senderID string, req *models.AppendMessageRequest) (*models.Message, error) {
	if err := validateAppend(req); err != nil {
		return nil, err
	}

	kase, err := e.repo.GetCase(ctx, threadID)
	if err != nil {
		return nil, err
	}
	if !kase.ThreadOpen() {
		return nil, ErrThreadClosed
	}
	if ok, err := e.isParticipant(ctx, kase, senderID); err != nil {
		return nil, err
	} else if !ok {
		return nil, ErrNotParticipant
	}

	mu := e.threadLock(threadID)
	mu.Lock()
	defer mu.Unlock()

	msg := &models.Message{
		ThreadID:   threadID,
		SenderID:   senderID,
		Type:       req.Type,
		Content:    req.Content,
		Attachment: req.Attachment,
	}

	for attempt := 0; attempt < appendRetries; attempt++ {
		last, err := e.repo.LastSeq(ctx, threadID)
		if err != nil {
			return nil, err
		}
		msg.Seq = last + 1
		msg.CreatedAt = time.Now().UTC()

		err = e.repo.AppendMessage(ctx, msg)
		if err == nil {
			metrics.MessagesAppended.WithLabelValues(msg.Type).Inc()
			e.emitAppended(ctx, kase.ID, msg)
			return msg, nil
		}
		if !errors.Is(err, repository.ErrDuplicateSeq) {
			return nil, err
		}
	}
	return nil, fmt.Errorf("append to thread %s: %w", threadID, repository.ErrDuplicateSeq)
}

// Read returns messages with seq >= fromSeq in seq order, at most limit (0
// means all). Works on threads of withdrawn and closed cases; history stays
// readable after the thread freezes.
func (e *Engine) Read(ctx context.Context, threadID string, fromSeq uint64, limit int) ([]*models.Message, error) {
	if _, err := e.repo.GetCase(ctx, threadID); err != nil {
		return nil, err
	}
	return e.repo.ListMessages(ctx, threadID, fromSeq, limit)
}

// MarkRead advances userID's read cursor on a thread. Cursors only move
// forward; a stale mark is a no-op, not an error.
func (e *Engine) MarkRead(ctx context.Context, threadID, userID string, seq uint64) error {
	if e.reads == nil {
		return nil
	}
	return e.reads.MarkRead(ctx, threadID, userID, seq)
}

// Unread returns how many messages userID has not read on a thread.
func (e *Engine) Unread(ctx context.Context, threadID, userID string) (uint64, error) {
	last, err := e.repo.LastSeq(ctx, threadID)
	if err != nil {
		return 0, err
	}
	if e.reads == nil {
		return last, nil
	}

	cursor, err := e.reads.LastRead(ctx, threadID, userID)
	if err != nil {
		return 0, err
	}
	if cursor >= last {
		return 0, nil
	}
	return last - cursor, nil
}

// isParticipant admits the reporter and every responder who has held an
// assignment on the case, current or historical. A responder whose proposal
// was declined keeps read access to what they wrote.
func (e *Engine) isParticipant(ctx context.Context, kase *models.Case, senderID string) (bool, error) {
	if senderID == kase.ReporterID {
		return true, nil
	}
	if kase.ResponderID != nil && *kase.ResponderID == senderID {
		return true, nil
	}

	assignments, err := e.repo.ListAssignments(ctx, kase.ID)
	if err != nil {
		return false, err
	}
	for _, a := range assignments {
		if a.ResponderID == senderID {
			return true, nil
		}
	}
	return false, nil
}

func (e *Engine) emitAppended(ctx context.Context, caseID string, msg *models.Message) {
	event, err := events.NewEvent(caseID, models.EventMessageAppended, msg.Seq, models.MessageAppendedPayload{
		ThreadID: msg.ThreadID,
		Seq:      msg.Seq,
		SenderID: msg.SenderID,
		Type:     msg.Type,
	})
	if err != nil {
		e.logger.Error("event build failed", logging.ThreadID(msg.ThreadID), logging.Error(err))
		return
	}
	if err := e.emitter.Emit(ctx, messaging.SubjectMessagesAppended, event); err != nil {
		e.logger.Error("event emit failed",
			logging.ThreadID(msg.ThreadID), logging.Seq(msg.Seq), logging.Error(err))
	}
}

func validateAppend(req *models.AppendMessageRequest) error {
	switch req.Type {
	case models.MessageTypeText:
		if strings.TrimSpace(req.Content) == "" {
			return fmt.Errorf("%w: empty text message", ErrInvalidMessage)
		}
	case models.MessageTypeImage:
		if req.Attachment == "" {
			return fmt.Errorf("%w: image message needs an attachment handle", ErrInvalidMessage)
		}
	case models.MessageTypeLocation:
		if req.Attachment == "" {
			return fmt.Errorf("%w: location message needs coordinates", ErrInvalidMessage)
		}
	default:
		return fmt.Errorf("%w: unknown type %q", ErrInvalidMessage, req.Type)
	}
	return nil
}
