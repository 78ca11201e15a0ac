// Package repository provides the durable case store: cases, assignments,
// conversation threads, and transition history.
package repository

import (
	"context"
	"errors"

	"github.com/strayaid-systems/strayaid/internal/models"
)

var (
	ErrCaseNotFound       = errors.New("case not found")
	ErrAssignmentNotFound = errors.New("assignment not found")
	ErrDuplicateSeq       = errors.New("duplicate message sequence number")
	ErrBadCaseRef         = errors.New("malformed case reference")
)

// Repository is the storage contract for the coordination engine. The
// dispatch coordinator is the sole writer of case and assignment state; the
// conversation engine is the sole writer of message sequence numbers.
type Repository interface {
	// CreateCase persists a new case and allocates its display reference
	// (DOG######). The conversation thread is implicit: it shares the case ID
	// and exists from this moment on.
	CreateCase(ctx context.Context, c *models.Case) error
	GetCase(ctx context.Context, id string) (*models.Case, error)
	// GetCaseByRef resolves a display reference. This is the only place in
	// the system allowed to parse the DOG###### form.
	GetCaseByRef(ctx context.Context, ref string) (*models.Case, error)
	ListCases(ctx context.Context, req *models.ListCasesRequest) ([]*models.Case, error)
	UpdateCase(ctx context.Context, c *models.Case) error
	// AppendTransition records one history entry; history is append-only.
	AppendTransition(ctx context.Context, caseID string, t models.Transition) error
	ListTransitions(ctx context.Context, caseID string) ([]models.Transition, error)
	// NextEventSeq allocates the next event sequence number for a case's
	// source stream. Monotonic per case, never reused.
	NextEventSeq(ctx context.Context, caseID string) (uint64, error)

	CreateAssignment(ctx context.Context, a *models.Assignment) error
	GetAssignment(ctx context.Context, id string) (*models.Assignment, error)
	UpdateAssignment(ctx context.Context, a *models.Assignment) error
	ListAssignments(ctx context.Context, caseID string) ([]*models.Assignment, error)

	// AppendMessage persists a message whose sequence number was assigned by
	// the conversation engine. Fails with ErrDuplicateSeq if the (thread,
	// seq) pair already exists.
	AppendMessage(ctx context.Context, m *models.Message) error
	// ListMessages returns messages with seq >= fromSeq in ascending seq
	// order, at most limit entries (0 means no limit). Restartable from any
	// sequence number.
	ListMessages(ctx context.Context, threadID string, fromSeq uint64, limit int) ([]*models.Message, error)
	// LastSeq returns the highest assigned sequence number for a thread, 0
	// when the thread is empty.
	LastSeq(ctx context.Context, threadID string) (uint64, error)

	Ping(ctx context.Context) error
	Close() error
}
